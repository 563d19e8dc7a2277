package accounts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/hyperjump/buscador/internal/models"
)

// SQLiteRepository implements Repository on a local SQLite file. It serves
// single-node deployments and tests; permissions are stored as JSON text.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens or creates the database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS accounts (
		usuario TEXT PRIMARY KEY,
		password TEXT NOT NULL,
		rol TEXT NOT NULL DEFAULT '',
		permisos TEXT NOT NULL DEFAULT '{}',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Find returns the account stored under username.
func (s *SQLiteRepository) Find(ctx context.Context, username string) (*models.Account, error) {
	var acc models.Account
	var permsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT usuario, password, rol, permisos FROM accounts WHERE usuario = ?`, username,
	).Scan(&acc.Username, &acc.Password, &acc.Role, &permsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: usuario %q", models.ErrNotFound, username)
	}
	if err != nil {
		return nil, err
	}
	if err := decodePermissions(permsJSON, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

// List returns all accounts ordered by username, without passwords.
func (s *SQLiteRepository) List(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT usuario, rol, permisos FROM accounts ORDER BY usuario`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accs := []models.Account{}
	for rows.Next() {
		var acc models.Account
		var permsJSON string
		if err := rows.Scan(&acc.Username, &acc.Role, &permsJSON); err != nil {
			return nil, err
		}
		if err := decodePermissions(permsJSON, &acc); err != nil {
			return nil, err
		}
		accs = append(accs, acc)
	}
	return accs, rows.Err()
}

// Insert adds acc. A duplicate username yields models.ErrConflict.
func (s *SQLiteRepository) Insert(ctx context.Context, acc models.Account) error {
	permsJSON, err := json.Marshal(acc.Permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permisos: %w", err)
	}
	now := time.Now()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO accounts (usuario, password, rol, permisos, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		acc.Username, acc.Password, acc.Role, string(permsJSON), now, now,
	)
	return mapSQLiteError(err, acc.Username)
}

// Replace overwrites the row stored under original.
func (s *SQLiteRepository) Replace(ctx context.Context, original string, acc models.Account) error {
	permsJSON, err := json.Marshal(acc.Permissions)
	if err != nil {
		return fmt.Errorf("failed to marshal permisos: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE accounts SET usuario = ?, password = ?, rol = ?, permisos = ?, updated_at = ?
		 WHERE usuario = ?`,
		acc.Username, acc.Password, acc.Role, string(permsJSON), time.Now(), original,
	)
	if err != nil {
		return mapSQLiteError(err, acc.Username)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: usuario %q", models.ErrNotFound, original)
	}
	return nil
}

// Delete removes the row stored under username.
func (s *SQLiteRepository) Delete(ctx context.Context, username string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE usuario = ?`, username)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: usuario %q", models.ErrNotFound, username)
	}
	return nil
}

// Count returns the number of accounts.
func (s *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&count)
	return count, err
}

// Ping checks the database handle.
func (s *SQLiteRepository) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteRepository) Close(context.Context) error {
	return s.db.Close()
}

func decodePermissions(raw string, acc *models.Account) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &acc.Permissions); err != nil {
		return fmt.Errorf("failed to unmarshal permisos for %q: %w", acc.Username, err)
	}
	return nil
}

func mapSQLiteError(err error, username string) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: usuario %q", models.ErrConflict, username)
	}
	return err
}
