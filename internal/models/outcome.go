package models

// Hit is a single search engine hit.
type Hit struct {
	Index  string         `json:"_index,omitempty"`
	ID     string         `json:"_id"`
	Score  float64        `json:"_score"`
	Source map[string]any `json:"_source"`
}

// Outcome is the tagged result of every search client operation.
// Success=false always carries Error; nothing else is guaranteed then.
type Outcome struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	// Err keeps the wrapped Go error for status mapping; never serialized.
	Err error `json:"-"`

	Total      int   `json:"total"`
	Resultados []Hit `json:"resultados,omitempty"`

	// Bulk fields. Errors mirrors the remote "errors" flag: some items failed.
	Errors bool `json:"errors,omitempty"`
	Items  int  `json:"items,omitempty"`
	Took   int  `json:"took,omitempty"`

	Index   string `json:"index,omitempty"`
	ID      string `json:"id,omitempty"`
	Result  string `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

// Failure builds a failed outcome from err.
func Failure(err error) Outcome {
	return Outcome{Success: false, Error: err.Error(), Err: err}
}

// TermHit is the simplified hit shown on the public search page.
type TermHit struct {
	Score      float64 `json:"score"`
	TermParent any     `json:"term_parent,omitempty"`
	TermChild  any     `json:"term_child,omitempty"`
	Definition any     `json:"definition,omitempty"`
	SourceURL  any     `json:"source_url,omitempty"`
	FileName   any     `json:"file_name,omitempty"`
	Titulo     any     `json:"titulo,omitempty"`
	URLPDF     any     `json:"url_pdf,omitempty"`
	Contenido  string  `json:"contenido,omitempty"`
}
