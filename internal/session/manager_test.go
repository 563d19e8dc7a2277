package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/buscador/internal/models"
)

func newTestManager(t *testing.T) (*Manager, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	m, err := NewManager(store, "test-secret", WithTTL(time.Hour), WithCookieName("sid"))
	if err != nil {
		t.Fatal(err)
	}
	return m, store
}

func cookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sid" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestNewManager_requiresSecret(t *testing.T) {
	if _, err := NewManager(NewMemoryStore(), ""); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestManager_saveAndLoad(t *testing.T) {
	m, _ := newTestManager(t)
	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	if s.LoggedIn {
		t.Fatal("fresh session must be anonymous")
	}
	s.Login(&models.Account{Username: "ana", Role: "Usuario", Permissions: models.Permissions{models.PermLogin: true}})
	s.AddFlash("success", "Bienvenido")

	rec := httptest.NewRecorder()
	if err := m.Save(context.Background(), rec, s); err != nil {
		t.Fatal(err)
	}
	c := cookieFrom(t, rec)
	if !c.HttpOnly {
		t.Error("cookie must be HttpOnly")
	}
	if !strings.HasPrefix(c.Value, s.ID+".") {
		t.Errorf("cookie value %q should carry the session id", c.Value)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	got := m.Load(req)
	if got.ID != s.ID || got.Username != "ana" || !got.LoggedIn {
		t.Errorf("unexpected session: %+v", got)
	}
	flashes := got.PopFlashes()
	if len(flashes) != 1 || flashes[0].Message != "Bienvenido" {
		t.Errorf("flashes = %+v", flashes)
	}
	if !got.Dirty() {
		t.Error("popping flashes should mark the session dirty")
	}
}

func TestManager_rejectsTamperedCookie(t *testing.T) {
	m, store := newTestManager(t)
	_ = store.Save(context.Background(), "victim", &Data{Username: "admin", LoggedIn: true}, time.Hour)

	for _, value := range []string{
		"victim",
		"victim.",
		"victim.AAAA",
		"victim.!!notbase64",
		m.sign("other")[len("other"):],
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: value})
		if s := m.Load(req); s.LoggedIn || s.ID == "victim" {
			t.Errorf("cookie %q must not load the stored session", value)
		}
	}

	other, _ := NewManager(store, "another-secret", WithCookieName("sid"))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: other.sign("victim")})
	if s := m.Load(req); s.LoggedIn {
		t.Error("cookie signed with a different key must be rejected")
	}
}

func TestManager_destroy(t *testing.T) {
	m, store := newTestManager(t)
	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	s.Login(&models.Account{Username: "ana"})
	if err := m.Save(context.Background(), httptest.NewRecorder(), s); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	fresh := m.Destroy(context.Background(), rec, s)
	if fresh.ID == s.ID || fresh.LoggedIn {
		t.Error("destroy should return a new anonymous session")
	}
	if _, err := store.Get(context.Background(), s.ID); err == nil {
		t.Error("stored session should be deleted")
	}
	if c := cookieFrom(t, rec); c.MaxAge >= 0 {
		t.Errorf("cookie should be expired, MaxAge = %d", c.MaxAge)
	}
}

func TestManager_renew(t *testing.T) {
	m, store := newTestManager(t)
	s := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	_ = m.Save(context.Background(), httptest.NewRecorder(), s)
	old := s.ID
	m.Renew(context.Background(), s)
	if s.ID == old {
		t.Error("renew should change the id")
	}
	if _, err := store.Get(context.Background(), old); err == nil {
		t.Error("old id should be gone")
	}
}
