// Package sqlite implements storage.Repository on top of SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/articles/internal/apperr"
	"github.com/starford/articles/internal/models"
	"github.com/starford/articles/internal/storage"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS articles (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	public_id    TEXT NOT NULL UNIQUE,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL,
	is_published BOOLEAN NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is a SQLite-backed article repository.
type DB struct {
	conn *sql.DB
	q    querier
	inTx bool
}

var _ storage.Repository = (*DB)(nil)

const connParams = "_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

// dsnWithParams appends the connection parameters to path, which may be a
// plain file path or a file: URI that already carries a query string.
func dsnWithParams(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + connParams
	}
	return path + "?" + connParams
}

// Open opens (or creates) the SQLite database at path and applies the schema.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsnWithParams(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return &DB{conn: conn, q: conn}, nil
}

// Insert stores a new article and fills in its ID and CreatedAt.
func (db *DB) Insert(ctx context.Context, a *models.Article) error {
	createdAt := time.Now().UTC()
	res, err := db.q.ExecContext(ctx, `
		INSERT INTO articles (public_id, title, description, is_published, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.PublicID, a.Title, a.Description, a.IsPublished, createdAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: public id %s already exists", apperr.ErrConflict, a.PublicID)
		}
		return apperr.Store("insert article", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return apperr.Store("insert article: last insert id", err)
	}
	a.ID = id
	a.CreatedAt = createdAt
	return nil
}

// FindByPublicID returns the article with the given public id.
func (db *DB) FindByPublicID(ctx context.Context, publicID string) (*models.Article, error) {
	var a models.Article
	err := db.q.QueryRowContext(ctx, `
		SELECT id, public_id, title, description, is_published, created_at
		FROM articles
		WHERE public_id = ?
	`, publicID).Scan(&a.ID, &a.PublicID, &a.Title, &a.Description, &a.IsPublished, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNoRecord
	}
	if err != nil {
		return nil, apperr.Store("find article", err)
	}
	return &a, nil
}

// Delete removes the given article by its internal id.
func (db *DB) Delete(ctx context.Context, a *models.Article) error {
	res, err := db.q.ExecContext(ctx, `DELETE FROM articles WHERE id = ?`, a.ID)
	if err != nil {
		return apperr.Store("delete article", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Store("delete article: rows affected", err)
	}
	if n == 0 {
		return storage.ErrNoRecord
	}
	return nil
}

// List returns every article ordered by internal id.
func (db *DB) List(ctx context.Context) ([]models.Article, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT id, public_id, title, description, is_published, created_at
		FROM articles
		ORDER BY id
	`)
	if err != nil {
		return nil, apperr.Store("list articles", err)
	}
	defer rows.Close()

	out := []models.Article{}
	for rows.Next() {
		var a models.Article
		if err := rows.Scan(&a.ID, &a.PublicID, &a.Title, &a.Description, &a.IsPublished, &a.CreatedAt); err != nil {
			return nil, apperr.Store("list articles: scan", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store("list articles: rows", err)
	}
	return out, nil
}

// WithinTx runs fn inside a single transaction. Nested calls reuse the
// outer transaction.
func (db *DB) WithinTx(ctx context.Context, fn func(storage.Repository) error) error {
	if db.inTx {
		return fn(db)
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Store("begin tx", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(&DB{conn: db.conn, q: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Store("commit tx", err)
	}
	return nil
}

// Ping checks the database connection.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return apperr.Store("ping", err)
	}
	return nil
}

// Close closes the underlying database connection. It is a no-op on a
// transaction-bound repository.
func (db *DB) Close() error {
	if db.inTx {
		return nil
	}
	return db.conn.Close()
}
