// Package accounts provides account lookup, credential validation, and
// administrative account management over a pluggable repository.
package accounts

import (
	"context"

	"github.com/hyperjump/buscador/internal/models"
)

// Repository defines account persistence. Implementations map missing rows to
// models.ErrNotFound and unique-key violations to models.ErrConflict.
type Repository interface {
	Find(ctx context.Context, username string) (*models.Account, error)
	// List returns every account without passwords, ordered by username.
	List(ctx context.Context) ([]models.Account, error)
	Insert(ctx context.Context, acc models.Account) error
	// Replace overwrites the account stored under original; acc.Username may differ.
	Replace(ctx context.Context, original string, acc models.Account) error
	Delete(ctx context.Context, username string) error
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
