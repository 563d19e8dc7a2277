package accounts

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/buscador/internal/models"
)

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "accounts.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = repo.Close(context.Background()) })
	return NewService(repo, opts...)
}

func TestService_ValidateCredentials(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateAccount(ctx, models.AccountInput{Username: "ana", Password: "pw", Role: "Admin"}); err != nil {
		t.Fatal(err)
	}

	acc, err := svc.ValidateCredentials(ctx, "ana", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if acc == nil || acc.Username != "ana" || acc.Role != "Admin" {
		t.Fatalf("got %+v", acc)
	}
	if acc.Password != "" {
		t.Error("password must not be returned")
	}

	for _, tc := range []struct{ user, pass string }{
		{"ana", "wrong"},
		{"ana", ""},
		{"nobody", "pw"},
		{"", "pw"},
	} {
		acc, err := svc.ValidateCredentials(ctx, tc.user, tc.pass)
		if err != nil {
			t.Fatalf("%q/%q: %v", tc.user, tc.pass, err)
		}
		if acc != nil {
			t.Errorf("%q/%q: expected nil account, got %+v", tc.user, tc.pass, acc)
		}
	}
}

func TestService_ValidateCredentials_emptyStoredPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateAccount(ctx, models.AccountInput{Username: "invitado"}); err != nil {
		t.Fatal(err)
	}
	acc, err := svc.ValidateCredentials(ctx, "invitado", "")
	if err != nil {
		t.Fatal(err)
	}
	if acc == nil || acc.Username != "invitado" {
		t.Fatalf("empty password should match an empty stored password, got %+v", acc)
	}
	if acc, _ := svc.ValidateCredentials(ctx, "invitado", "algo"); acc != nil {
		t.Errorf("non-empty password matched an empty stored one: %+v", acc)
	}
}

func TestService_ValidateCredentials_defaultRole(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateAccount(ctx, models.AccountInput{Username: "bo", Password: "x"}); err != nil {
		t.Fatal(err)
	}
	acc, err := svc.ValidateCredentials(ctx, "bo", "x")
	if err != nil || acc == nil {
		t.Fatalf("acc=%v err=%v", acc, err)
	}
	if acc.Role != models.DefaultRole {
		t.Errorf("role = %q, want %q", acc.Role, models.DefaultRole)
	}
	if !acc.Permissions.Has(models.PermLogin) || acc.Permissions.Has(models.PermAdminUsers) {
		t.Errorf("unexpected default permissions %v", acc.Permissions)
	}
}

func TestService_CreateAccount_duplicate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if _, err := svc.CreateAccount(ctx, models.AccountInput{Username: "ana", Password: "one", Role: "A"}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.CreateAccount(ctx, models.AccountInput{Username: "ana", Password: "two", Role: "B"})
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	acc, err := svc.ValidateCredentials(ctx, "ana", "one")
	if err != nil || acc == nil {
		t.Fatalf("original record changed: acc=%v err=%v", acc, err)
	}
	if acc.Role != "A" {
		t.Errorf("role = %q, want A", acc.Role)
	}
}

func TestService_CreateAccount_emptyUsername(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.CreateAccount(context.Background(), models.AccountInput{Username: "  ", Password: "x"})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestService_UpdateAccount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, u := range []string{"alice", "bob"} {
		if _, err := svc.CreateAccount(ctx, models.AccountInput{Username: u, Password: u + "-pw"}); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("rename onto existing fails", func(t *testing.T) {
		_, err := svc.UpdateAccount(ctx, "alice", models.AccountInput{Username: "bob", Role: "X"})
		if !errors.Is(err, models.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
		acc, err := svc.GetAccount(ctx, "alice")
		if err != nil {
			t.Fatal(err)
		}
		if acc.Role != models.DefaultRole {
			t.Errorf("alice changed: %+v", acc)
		}
	})

	t.Run("missing account", func(t *testing.T) {
		_, err := svc.UpdateAccount(ctx, "ghost", models.AccountInput{Role: "X"})
		if !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rename keeps password", func(t *testing.T) {
		acc, err := svc.UpdateAccount(ctx, "alice", models.AccountInput{
			Username:    "alicia",
			Permissions: map[string]any{models.PermAdminElastic: "on"},
		})
		if err != nil {
			t.Fatal(err)
		}
		if acc.Username != "alicia" || !acc.Permissions.Has(models.PermAdminElastic) {
			t.Errorf("got %+v", acc)
		}
		if got, _ := svc.ValidateCredentials(ctx, "alicia", "alice-pw"); got == nil {
			t.Error("password should survive rename")
		}
		if _, err := svc.GetAccount(ctx, "alice"); !errors.Is(err, models.ErrNotFound) {
			t.Errorf("old name still present: %v", err)
		}
	})

	t.Run("new password", func(t *testing.T) {
		if _, err := svc.UpdateAccount(ctx, "bob", models.AccountInput{Password: "new"}); err != nil {
			t.Fatal(err)
		}
		if got, _ := svc.ValidateCredentials(ctx, "bob", "bob-pw"); got != nil {
			t.Error("old password still valid")
		}
		if got, _ := svc.ValidateCredentials(ctx, "bob", "new"); got == nil {
			t.Error("new password rejected")
		}
	})
}

func TestService_DeleteAccount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	if err := svc.DeleteAccount(ctx, "ghost"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.CreateAccount(ctx, models.AccountInput{Username: "ana", Password: "pw"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.DeleteAccount(ctx, "ana"); err != nil {
		t.Fatal(err)
	}
	if got, _ := svc.ValidateCredentials(ctx, "ana", "pw"); got != nil {
		t.Error("deleted account still validates")
	}
}

func TestService_ListAccounts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	for _, u := range []string{"zoe", "ana"} {
		if _, err := svc.CreateAccount(ctx, models.AccountInput{Username: u, Password: "pw"}); err != nil {
			t.Fatal(err)
		}
	}
	list, err := svc.ListAccounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Username != "ana" || list[1].Username != "zoe" {
		t.Errorf("got %+v", list)
	}
	table, err := svc.ListAccountsTable(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range table {
		if a.Password != "" {
			t.Errorf("password leaked for %s", a.Username)
		}
		if !a.Permissions.Has(models.PermLogin) {
			t.Errorf("%s: expected login permission", a.Username)
		}
	}
}

func TestService_Bootstrap(t *testing.T) {
	svc := newTestService(t, WithScheme(BcryptScheme{Cost: 4}))
	ctx := context.Background()

	created, err := svc.Bootstrap(ctx, "admin", "secret")
	if err != nil || !created {
		t.Fatalf("created=%v err=%v", created, err)
	}
	acc, err := svc.ValidateCredentials(ctx, "admin", "secret")
	if err != nil || acc == nil {
		t.Fatalf("acc=%v err=%v", acc, err)
	}
	for _, p := range models.PermissionNames {
		if !acc.Permissions.Has(p) {
			t.Errorf("admin missing %s", p)
		}
	}

	created, err = svc.Bootstrap(ctx, "other", "x")
	if err != nil || created {
		t.Errorf("second bootstrap: created=%v err=%v", created, err)
	}
}
