package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/models"
)

func (s *Server) handleAPISearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := models.TextQuery{
		Index: q.Get("index"),
		Text:  q.Get("q"),
	}
	if size := q.Get("size"); size != "" {
		n, err := strconv.Atoi(size)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "size must be an integer")
			return
		}
		query.Size = n
	}
	if fields := q.Get("fields"); fields != "" {
		for _, f := range strings.Split(fields, ",") {
			if f = strings.TrimSpace(f); f != "" {
				query.Fields = append(query.Fields, f)
			}
		}
	}
	s.logger.Debug("search request", zap.String("query", query.Text), zap.Int("size", query.Size))
	s.respondOutcome(w, http.StatusOK, s.search.TextSearch(r.Context(), query))
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	accs, err := s.accounts.ListAccountsTable(r.Context())
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"usuarios": accs, "total": len(accs)})
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in models.AccountInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	acc, err := s.accounts.CreateAccount(r.Context(), in)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.logger.Info("account created",
		zap.String("usuario", acc.Username), zap.String("by", accountFrom(r).Username))
	s.respondJSON(w, http.StatusCreated, acc)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	original := chi.URLParam(r, "usuario")
	var in models.AccountInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	acc, err := s.accounts.UpdateAccount(r.Context(), original, in)
	if err != nil {
		s.handleError(w, err)
		return
	}
	s.logger.Info("account updated",
		zap.String("usuario", original), zap.String("by", accountFrom(r).Username))
	if self := accountFrom(r); self != nil && self.Username == original {
		// Renaming yourself must not orphan the session.
		sess := sessionFrom(r)
		sess.Login(acc)
		s.saveSession(w, r, sess)
	}
	s.respondJSON(w, http.StatusOK, acc)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "usuario")
	if acc := accountFrom(r); acc != nil && acc.Username == username {
		s.respondError(w, http.StatusBadRequest, "no puedes eliminar tu propia cuenta")
		return
	}
	if err := s.accounts.DeleteAccount(r.Context(), username); err != nil {
		s.handleError(w, err)
		return
	}
	s.logger.Info("account deleted",
		zap.String("usuario", username), zap.String("by", accountFrom(r).Username))
	s.respondJSON(w, http.StatusOK, map[string]string{"usuario": username, "status": "deleted"})
}

func (s *Server) handleListIndices(w http.ResponseWriter, r *http.Request) {
	s.respondOutcome(w, http.StatusOK, s.search.ListIndices(r.Context(), r.URL.Query().Get("index")))
}

// executeRequest is the admin console payload: modo "query" runs a search
// body, modo "dml" an index/update/delete command.
type executeRequest struct {
	Modo  string         `json:"modo"`
	Index string         `json:"index"`
	Query map[string]any `json:"query"`
	Size  int            `json:"size"`
	models.WriteCommand
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user := accountFrom(r).Username
	switch strings.ToLower(strings.TrimSpace(req.Modo)) {
	case "query":
		if len(req.Query) == 0 {
			s.respondError(w, http.StatusBadRequest, "query is required")
			return
		}
		s.logger.Info("console query", zap.String("usuario", user), zap.String("index", req.Index))
		s.respondOutcome(w, http.StatusOK, s.search.RawQuery(r.Context(), req.Index, req.Query, req.Size))
	case "dml":
		cmd := req.WriteCommand
		cmd.Index = req.Index
		s.logger.Info("console write",
			zap.String("usuario", user),
			zap.String("operacion", cmd.Operacion),
			zap.String("index", cmd.Index),
			zap.String("id", cmd.ID))
		s.respondOutcome(w, http.StatusOK, s.search.RawWrite(r.Context(), cmd))
	default:
		s.handleError(w, fmt.Errorf("%w: modo must be query or dml", models.ErrValidation))
	}
}
