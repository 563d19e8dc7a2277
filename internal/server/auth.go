package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/models"
	"github.com/hyperjump/buscador/internal/session"
)

type ctxKey int

const (
	sessionKey ctxKey = iota
	accountKey
)

// loadSession attaches the request's session to the context.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.Load(r)
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(r *http.Request) *session.Session {
	if sess, ok := r.Context().Value(sessionKey).(*session.Session); ok {
		return sess
	}
	return &session.Session{}
}

// accountFrom returns the account fetched by the permission middleware.
func accountFrom(r *http.Request) *models.Account {
	acc, _ := r.Context().Value(accountKey).(*models.Account)
	return acc
}

// saveSession persists the session if it changed. Must run before the
// response status is written.
func (s *Server) saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if !sess.Dirty() {
		return
	}
	if err := s.sessions.Save(r.Context(), w, sess); err != nil {
		s.logger.Warn("session save failed", zap.Error(err))
	}
}

// redirect saves the session and redirects with 303.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, sess *session.Session, to string) {
	s.saveSession(w, r, sess)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// authorize re-reads the session's account from the store and checks perm.
// A missing account or a revoked login permission ends the session. The
// session's permission snapshot is refreshed for navigation rendering.
func (s *Server) authorize(r *http.Request, perm string) (*models.Account, error) {
	sess := sessionFrom(r)
	if !sess.LoggedIn || sess.Username == "" {
		return nil, fmt.Errorf("%w: debes iniciar sesión", models.ErrUnauthorized)
	}
	acc, err := s.accounts.GetAccount(r.Context(), sess.Username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: la cuenta ya no existe", models.ErrUnauthorized)
		}
		return nil, err
	}
	if !acc.Permissions.Has(models.PermLogin) {
		return nil, fmt.Errorf("%w: la cuenta no tiene permiso de acceso", models.ErrUnauthorized)
	}
	if !acc.Permissions.Has(perm) {
		return acc, fmt.Errorf("%w: no tienes permiso %s", models.ErrForbidden, perm)
	}
	if !samePermissions(sess.Permissions, acc.Permissions) || sess.Role != acc.Role {
		sess.Login(acc)
	}
	return acc, nil
}

func samePermissions(a, b models.Permissions) bool {
	for _, name := range models.PermissionNames {
		if a.Has(name) != b.Has(name) {
			return false
		}
	}
	return true
}

// requirePage guards browser routes: anonymous users go to the login page,
// forbidden ones back to the admin panel, each with a flash notice.
func (s *Server) requirePage(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFrom(r)
			acc, err := s.authorize(r, perm)
			switch {
			case err == nil:
				ctx := context.WithValue(r.Context(), accountKey, acc)
				next.ServeHTTP(w, r.WithContext(ctx))
			case errors.Is(err, models.ErrUnauthorized):
				if sess.LoggedIn {
					sess = s.sessions.Destroy(r.Context(), w, sess)
				}
				sess.AddFlash("warning", "Debes iniciar sesión para acceder a esta página.")
				s.redirect(w, r, sess, "/login")
			case errors.Is(err, models.ErrForbidden):
				s.logger.Info("permission denied",
					zap.String("usuario", sess.Username), zap.String("permiso", perm))
				sess.AddFlash("danger", "No tienes permisos para acceder a esta sección.")
				to := "/admin"
				if perm == models.PermLogin {
					to = "/"
				}
				s.redirect(w, r, sess, to)
			default:
				s.logger.Error("authorization failed", zap.Error(err))
				s.renderError(w, r, http.StatusInternalServerError, "No se pudo verificar la cuenta.")
			}
		})
	}
}

// requireAPI guards JSON routes with 401/403 responses.
func (s *Server) requireAPI(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acc, err := s.authorize(r, perm)
			if err != nil {
				s.handleError(w, err)
				return
			}
			s.saveSession(w, r, sessionFrom(r))
			ctx := context.WithValue(r.Context(), accountKey, acc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if sess.LoggedIn {
		s.redirect(w, r, sess, "/admin")
		return
	}
	s.render(w, r, http.StatusOK, "login", nil)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "login", loginView{Error: "Formulario inválido."})
		return
	}
	username := r.PostForm.Get("usuario")
	acc, err := s.accounts.ValidateCredentials(r.Context(), username, r.PostForm.Get("password"))
	if err != nil {
		s.logger.Error("credential check failed", zap.Error(err))
		s.render(w, r, http.StatusServiceUnavailable, "login",
			loginView{Username: username, Error: "No se pudo conectar con la base de usuarios."})
		return
	}
	if acc == nil {
		s.logger.Info("login rejected", zap.String("usuario", username))
		s.render(w, r, http.StatusUnauthorized, "login",
			loginView{Username: username, Error: "Usuario o contraseña incorrectos."})
		return
	}
	if !acc.Permissions.Has(models.PermLogin) {
		s.render(w, r, http.StatusForbidden, "login",
			loginView{Username: username, Error: "Tu cuenta no tiene permiso para iniciar sesión."})
		return
	}

	sess := sessionFrom(r)
	s.sessions.Renew(r.Context(), sess)
	sess.Login(acc)
	sess.AddFlash("success", "Bienvenido, "+acc.Username+".")
	s.logger.Info("login", zap.String("usuario", acc.Username))
	s.redirect(w, r, sess, "/admin")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Destroy(r.Context(), w, sessionFrom(r))
	sess.AddFlash("info", "Sesión cerrada correctamente.")
	s.redirect(w, r, sess, "/")
}
