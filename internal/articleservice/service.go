// Package articleservice implements article use cases on top of a storage.Repository.
package articleservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/starford/articles/internal/apperr"
	"github.com/starford/articles/internal/models"
	"github.com/starford/articles/internal/storage"
)

const resourceName = "Article"

// Service coordinates validation, id generation and repository calls.
type Service struct {
	repo   storage.Repository
	logger *slog.Logger
	newID  func() string
}

// NewService creates a new article service.
func NewService(repo storage.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger,
		newID:  func() string { return uuid.New().String() },
	}
}

// CreateArticle validates the payload, assigns a fresh public id and stores
// the article unpublished.
func (s *Service) CreateArticle(ctx context.Context, in models.CreateArticleInput) (models.ArticlePayload, error) {
	if err := ValidateCreate(in); err != nil {
		return models.ArticlePayload{}, err
	}
	a := NewArticle(in)
	a.PublicID = s.newID()
	if err := s.repo.Insert(ctx, &a); err != nil {
		return models.ArticlePayload{}, err
	}
	s.logger.DebugContext(ctx, "article created", slog.String("id", a.PublicID))
	return ToPayload(a), nil
}

// FindAllArticles returns every stored article in store order.
func (s *Service) FindAllArticles(ctx context.Context) ([]models.ArticlePayload, error) {
	articles, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return ToPayloads(articles), nil
}

// FindArticleByID looks an article up by its public id.
func (s *Service) FindArticleByID(ctx context.Context, publicID string) (models.ArticlePayload, error) {
	a, err := s.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, storage.ErrNoRecord) {
			return models.ArticlePayload{}, apperr.NotFound(resourceName, publicID)
		}
		return models.ArticlePayload{}, err
	}
	return ToPayload(*a), nil
}

// DeleteArticle permanently removes an article. Deleting an id that is
// already gone fails with a not-found error.
func (s *Service) DeleteArticle(ctx context.Context, publicID string) error {
	err := s.repo.WithinTx(ctx, func(r storage.Repository) error {
		a, err := r.FindByPublicID(ctx, publicID)
		if err != nil {
			return err
		}
		return r.Delete(ctx, a)
	})
	if errors.Is(err, storage.ErrNoRecord) {
		return apperr.NotFound(resourceName, publicID)
	}
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "article deleted", slog.String("id", publicID))
	return nil
}

// Ping reports whether the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
