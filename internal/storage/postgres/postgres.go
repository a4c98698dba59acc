// Package postgres implements storage.Repository on top of PostgreSQL
// through the pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/starford/articles/internal/apperr"
	"github.com/starford/articles/internal/models"
	"github.com/starford/articles/internal/storage"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS articles (
	id           BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	public_id    TEXT NOT NULL UNIQUE,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL,
	is_published BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const uniqueViolation = "23505"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is a PostgreSQL-backed article repository.
type DB struct {
	conn *sql.DB
	q    querier
	inTx bool
}

var _ storage.Repository = (*DB)(nil)

// Open connects to dsn, verifies the connection and applies the schema.
func Open(ctx context.Context, dsn string, maxOpenConns int) (*DB, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open db: %w", err)
	}
	if maxOpenConns > 0 {
		conn.SetMaxOpenConns(maxOpenConns)
		conn.SetMaxIdleConns(maxOpenConns)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("postgres: apply schema: %w", err)
	}
	return New(conn), nil
}

// New wraps an existing connection without touching the schema.
func New(conn *sql.DB) *DB {
	return &DB{conn: conn, q: conn}
}

// Insert stores a new article and fills in its ID and CreatedAt.
func (db *DB) Insert(ctx context.Context, a *models.Article) error {
	const query = `
INSERT INTO articles (public_id, title, description, is_published)
VALUES ($1, $2, $3, $4)
RETURNING id, created_at`
	err := db.q.QueryRowContext(ctx, query, a.PublicID, a.Title, a.Description, a.IsPublished).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: public id %s already exists", apperr.ErrConflict, a.PublicID)
		}
		return apperr.Store("insert article", err)
	}
	return nil
}

// FindByPublicID returns the article with the given public id.
func (db *DB) FindByPublicID(ctx context.Context, publicID string) (*models.Article, error) {
	const query = `
SELECT id, public_id, title, description, is_published, created_at
FROM articles
WHERE public_id = $1`
	var a models.Article
	err := db.q.QueryRowContext(ctx, query, publicID).
		Scan(&a.ID, &a.PublicID, &a.Title, &a.Description, &a.IsPublished, &a.CreatedAt)
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
	res, err := db.q.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, a.ID)
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
	const query = `
SELECT id, public_id, title, description, is_published, created_at
FROM articles
ORDER BY id`
	rows, err := db.q.QueryContext(ctx, query)
	if err != nil {
		return nil, apperr.Store("list articles", err)
	}
	defer func() { _ = rows.Close() }()

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

// WithinTx runs fn inside a single transaction.
func (db *DB) WithinTx(ctx context.Context, fn func(storage.Repository) error) error {
	if db.inTx {
		return fn(db)
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Store("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

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

// Close closes the connection pool. It is a no-op on a transaction-bound repository.
func (db *DB) Close() error {
	if db.inTx {
		return nil
	}
	return db.conn.Close()
}
