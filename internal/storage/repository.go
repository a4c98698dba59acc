// Package storage defines the article persistence abstraction.
package storage

import (
	"context"
	"errors"

	"github.com/starford/articles/internal/models"
)

// ErrNoRecord is returned by FindByPublicID when no article matches.
var ErrNoRecord = errors.New("storage: no record")

// Repository is the interface for article persistence. Every method
// touches at most one record, except List.
type Repository interface {
	// Insert stores a new article and fills in its ID and CreatedAt.
	Insert(ctx context.Context, a *models.Article) error
	// FindByPublicID returns the article with the given public id or ErrNoRecord.
	FindByPublicID(ctx context.Context, publicID string) (*models.Article, error)
	// Delete removes the given article.
	Delete(ctx context.Context, a *models.Article) error
	// List returns all articles ordered by internal id.
	List(ctx context.Context) ([]models.Article, error)
	// WithinTx runs fn against a repository bound to a single transaction.
	WithinTx(ctx context.Context, fn func(Repository) error) error
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
	Close() error
}
