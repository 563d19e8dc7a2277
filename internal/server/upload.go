package server

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/ingest"
	"github.com/hyperjump/buscador/internal/models"
	"github.com/hyperjump/buscador/internal/scraper"
)

// uploadView reports the last upload or scrape pass on the upload page.
type uploadView struct {
	Index     string
	MaxFiles  int
	Mode      string
	Indexed   int
	Outcome   *models.Outcome
	Processed []string
	Dropped   []string
	Ignored   []string
	Warnings  []string
	Attempted []string
	Skipped   []scraper.Skip
	Error     string
}

func (s *Server) newUploadView() uploadView {
	return uploadView{Index: s.search.DefaultIndex(), MaxFiles: s.config.Ingest.MaxFiles}
}

func (s *Server) handleUploadPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "carga", s.newUploadView())
}

// handleUpload accepts either uploaded files (archivos[]) or, with modo=web,
// a page URL to scrape. The result is rendered in place.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	view := s.newUploadView()
	if limit := s.config.Ingest.MaxUploadBytes; limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			view.Error = "La carga supera el tamaño máximo permitido."
			s.render(w, r, http.StatusRequestEntityTooLarge, "carga", view)
			return
		}
		view.Error = "Formulario inválido."
		s.render(w, r, http.StatusBadRequest, "carga", view)
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	if idx := strings.TrimSpace(r.FormValue("index")); idx != "" {
		view.Index = idx
	}
	view.Mode = r.FormValue("modo")

	var err error
	if view.Mode == "web" {
		err = s.scrapeAndIndex(r, &view)
	} else {
		err = s.ingestAndIndex(r, &view)
	}
	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		view.Error = publicMessage(err, status)
		if status >= http.StatusInternalServerError {
			s.logger.Error("upload failed", zap.Error(err))
		}
	}
	s.render(w, r, status, "carga", view)
}

func (s *Server) ingestAndIndex(r *http.Request, view *uploadView) error {
	headers := r.MultipartForm.File["archivos[]"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["archivos"]
	}
	if len(headers) == 0 {
		return fmt.Errorf("%w: no se seleccionaron archivos", models.ErrValidation)
	}
	uploads := make([]ingest.Upload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, ingest.FileUpload(fh))
	}

	res, out, err := s.pipeline.IngestAndIndex(r.Context(), view.Index, uploads)
	view.Processed = res.Processed
	view.Dropped = res.Dropped
	view.Ignored = res.Ignored
	view.Warnings = res.Warnings
	if err != nil {
		if errors.Is(err, models.ErrNoDocuments) {
			return fmt.Errorf("%w: no se encontraron documentos JSON en los archivos", models.ErrNoDocuments)
		}
		return err
	}
	return s.indexed(view, out, len(res.Documents))
}

func (s *Server) scrapeAndIndex(r *http.Request, view *uploadView) error {
	req := scraper.Request{
		URL:        strings.TrimSpace(r.FormValue("url")),
		Extensions: scraper.ParseExtensions(r.FormValue("tipos")),
		MaxFiles:   formInt(r.MultipartForm, "max_pdfs"),
		MaxPages:   formInt(r.MultipartForm, "max_paginas"),
	}
	if req.URL == "" {
		return fmt.Errorf("%w: la URL es obligatoria", models.ErrValidation)
	}
	res, err := s.scraper.Scrape(r.Context(), req)
	view.Attempted = res.Attempted
	view.Skipped = res.Skipped
	if err != nil {
		return err
	}
	if len(res.Documents) == 0 {
		return fmt.Errorf("%w: no se pudo extraer texto de ningún archivo enlazado", models.ErrNoDocuments)
	}
	out := s.search.BulkIndex(r.Context(), view.Index, res.Documents)
	return s.indexed(view, out, len(res.Documents))
}

// indexed records a bulk outcome on the view.
func (s *Server) indexed(view *uploadView, out models.Outcome, n int) error {
	view.Outcome = &out
	if !out.Success {
		if out.Err != nil {
			return out.Err
		}
		return fmt.Errorf("%w: %s", models.ErrUpstream, out.Error)
	}
	view.Indexed = n
	s.logger.Info("documents indexed",
		zap.String("index", view.Index),
		zap.String("mode", view.Mode),
		zap.Int("documents", n),
		zap.Bool("errors", out.Errors))
	return nil
}

// formInt parses a positive integer field; anything else is 0 (use default).
func formInt(form *multipart.Form, key string) int {
	if form == nil || len(form.Value[key]) == 0 {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(form.Value[key][0]))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
