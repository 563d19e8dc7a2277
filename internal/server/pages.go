package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/models"
	"github.com/hyperjump/buscador/internal/session"
)

//go:embed templates/*.html static
var webAssets embed.FS

var pageNames = []string{
	"landing", "buscador", "about", "contacto", "login",
	"admin", "usuarios", "elastic", "carga", "error",
}

type pages struct {
	byName map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"has":  func(p models.Permissions, name string) bool { return p.Has(name) },
	"join": strings.Join,
	"text": func(v any) string {
		if v == nil {
			return ""
		}
		return fmt.Sprint(v)
	},
}

func loadPages() *pages {
	p := &pages{byName: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		p.byName[name] = template.Must(template.New("base").Funcs(templateFuncs).
			ParseFS(webAssets, "templates/base.html", "templates/"+name+".html"))
	}
	return p
}

func staticHandler() http.Handler {
	staticFS, _ := fs.Sub(webAssets, "static")
	return http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
}

// pageView is the data every template receives.
type pageView struct {
	Version  string
	Creator  string
	Active   string
	User     string
	Role     string
	Perms    models.Permissions
	LoggedIn bool
	Flashes  []session.Flash
	Data     any
}

type loginView struct {
	Username string
	Error    string
}

// render pops the session's flashes, saves the session and executes the
// named page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	sess := sessionFrom(r)
	view := pageView{
		Version:  s.config.Server.AppVersion,
		Creator:  s.config.Server.Creator,
		Active:   name,
		User:     sess.Username,
		Role:     sess.Role,
		Perms:    sess.Permissions,
		LoggedIn: sess.LoggedIn,
		Flashes:  sess.PopFlashes(),
		Data:     data,
	}
	if acc := accountFrom(r); acc != nil {
		view.Role = acc.Role
		view.Perms = acc.Permissions
	}
	s.saveSession(w, r, sess)

	tmpl, ok := s.pages.byName[name]
	if !ok {
		s.logger.Error("unknown template", zap.String("template", name))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base", view); err != nil {
		s.logger.Error("render error", zap.String("template", name), zap.Error(err))
	}
}

type errorView struct {
	Status  int
	Message string
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.render(w, r, status, "error", errorView{Status: status, Message: msg})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		s.respondError(w, http.StatusNotFound, "ruta no encontrada")
		return
	}
	s.renderError(w, r, http.StatusNotFound, "La página solicitada no existe.")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "landing", nil)
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "about", nil)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "contacto", nil)
}

type searchView struct {
	Query string
	Hits  []models.TermHit
}

func (s *Server) handleSearchPage(w http.ResponseWriter, r *http.Request) {
	view := searchView{Query: strings.TrimSpace(r.URL.Query().Get("q"))}
	if view.Query != "" {
		view.Hits = s.search.SearchTerms(r.Context(), r.URL.Query().Get("index"), view.Query, 20)
	}
	s.render(w, r, http.StatusOK, "buscador", view)
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "admin", nil)
}

type usersView struct {
	Accounts    []models.Account
	Permissions []string
	Error       string
}

func (s *Server) handleUsersPage(w http.ResponseWriter, r *http.Request) {
	view := usersView{Permissions: models.PermissionNames}
	accs, err := s.accounts.ListAccountsTable(r.Context())
	if err != nil {
		s.logger.Error("list accounts failed", zap.Error(err))
		view.Error = "No se pudo cargar la lista de usuarios."
	}
	view.Accounts = accs
	s.render(w, r, http.StatusOK, "usuarios", view)
}

type elasticView struct {
	Index   string
	Outcome models.Outcome
}

func (s *Server) handleElasticPage(w http.ResponseWriter, r *http.Request) {
	index := r.URL.Query().Get("index")
	if index == "" {
		index = s.search.DefaultIndex()
	}
	s.render(w, r, http.StatusOK, "elastic", elasticView{
		Index:   index,
		Outcome: s.search.ListIndices(r.Context(), index),
	})
}
