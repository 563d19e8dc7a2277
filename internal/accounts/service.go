package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/buscador/internal/models"
)

// AdminRole is the role given to the bootstrap administrator.
const AdminRole = "Administrador"

// Summary is the username/role projection used by account pickers.
type Summary struct {
	Username string `json:"usuario"`
	Role     string `json:"rol"`
}

// Service implements credential validation and account administration.
type Service struct {
	repo   Repository
	scheme PasswordScheme
	logger *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithScheme sets the password scheme. Defaults to PlaintextScheme.
func WithScheme(s PasswordScheme) ServiceOption {
	return func(svc *Service) { svc.scheme = s }
}

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(svc *Service) { svc.logger = l }
}

// NewService creates an account service over repo.
func NewService(repo Repository, opts ...ServiceOption) *Service {
	s := &Service{repo: repo, scheme: PlaintextScheme{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateCredentials returns the normalized account when username exists and
// password verifies, or nil when either check fails. The password scheme alone
// decides whether an empty password matches. Errors are reserved for store
// failures.
func (s *Service) ValidateCredentials(ctx context.Context, username, password string) (*models.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, nil
	}
	acc, err := s.repo.Find(ctx, username)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("validate credentials: %w", err)
	}
	if !s.scheme.Verify(acc.Password, password) {
		return nil, nil
	}
	out := acc.Normalize()
	out.Password = ""
	return &out, nil
}

// GetAccount returns the normalized account without its password.
func (s *Service) GetAccount(ctx context.Context, username string) (*models.Account, error) {
	acc, err := s.repo.Find(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get account %q: %w", username, err)
	}
	out := acc.Normalize()
	out.Password = ""
	return &out, nil
}

// ListAccounts returns username and role of every account.
func (s *Service) ListAccounts(ctx context.Context) ([]Summary, error) {
	accs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]Summary, len(accs))
	for i, a := range accs {
		a = a.Normalize()
		out[i] = Summary{Username: a.Username, Role: a.Role}
	}
	return out, nil
}

// ListAccountsTable returns username, role and permissions of every account.
func (s *Service) ListAccountsTable(ctx context.Context) ([]models.Account, error) {
	accs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	for i := range accs {
		accs[i] = accs[i].Normalize()
		accs[i].Password = ""
	}
	return accs, nil
}

// CreateAccount inserts a new account. Unset permission flags take their defaults.
func (s *Service) CreateAccount(ctx context.Context, in models.AccountInput) (*models.Account, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: usuario is required", models.ErrValidation)
	}
	if _, err := s.repo.Find(ctx, username); err == nil {
		return nil, fmt.Errorf("%w: usuario %q", models.ErrConflict, username)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("create account: %w", err)
	}
	encoded, err := s.scheme.Encode(in.Password)
	if err != nil {
		return nil, err
	}
	acc := models.Account{
		Username:    username,
		Password:    encoded,
		Role:        in.Role,
		Permissions: models.NormalizePermissions(in.Permissions),
	}.Normalize()
	if err := s.repo.Insert(ctx, acc); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	s.logger.Info("account created", zap.String("usuario", username), zap.String("rol", acc.Role))
	acc.Password = ""
	return &acc, nil
}

// UpdateAccount modifies the account stored under original. A non-empty
// in.Username different from original renames the account; empty password,
// role, or permissions keep the stored values.
func (s *Service) UpdateAccount(ctx context.Context, original string, in models.AccountInput) (*models.Account, error) {
	original = strings.TrimSpace(original)
	if original == "" {
		return nil, fmt.Errorf("%w: usuario is required", models.ErrValidation)
	}
	current, err := s.repo.Find(ctx, original)
	if err != nil {
		return nil, fmt.Errorf("update account %q: %w", original, err)
	}
	next := *current
	if name := strings.TrimSpace(in.Username); name != "" && name != original {
		if _, err := s.repo.Find(ctx, name); err == nil {
			return nil, fmt.Errorf("%w: usuario %q", models.ErrConflict, name)
		} else if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("update account %q: %w", original, err)
		}
		next.Username = name
	}
	if in.Password != "" {
		encoded, err := s.scheme.Encode(in.Password)
		if err != nil {
			return nil, err
		}
		next.Password = encoded
	}
	if in.Role != "" {
		next.Role = in.Role
	}
	if in.Permissions != nil {
		next.Permissions = models.NormalizePermissions(in.Permissions)
	}
	next = next.Normalize()
	if err := s.repo.Replace(ctx, original, next); err != nil {
		return nil, fmt.Errorf("update account %q: %w", original, err)
	}
	s.logger.Info("account updated", zap.String("usuario", original), zap.String("new_usuario", next.Username))
	next.Password = ""
	return &next, nil
}

// DeleteAccount removes the account.
func (s *Service) DeleteAccount(ctx context.Context, username string) error {
	if err := s.repo.Delete(ctx, strings.TrimSpace(username)); err != nil {
		return fmt.Errorf("delete account %q: %w", username, err)
	}
	s.logger.Info("account deleted", zap.String("usuario", username))
	return nil
}

// Bootstrap creates an administrator with every permission when the store
// holds no accounts. It is a no-op otherwise or when username is empty.
func (s *Service) Bootstrap(ctx context.Context, username, password string) (bool, error) {
	if username == "" {
		return false, nil
	}
	n, err := s.repo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("bootstrap: %w", err)
	}
	if n > 0 {
		return false, nil
	}
	perms := make(map[string]any, len(models.PermissionNames))
	for _, p := range models.PermissionNames {
		perms[p] = true
	}
	_, err = s.CreateAccount(ctx, models.AccountInput{
		Username:    username,
		Password:    password,
		Role:        AdminRole,
		Permissions: perms,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Ping checks store connectivity.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Close releases the store.
func (s *Service) Close(ctx context.Context) error {
	return s.repo.Close(ctx)
}
