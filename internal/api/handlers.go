package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/articles/internal/apperr"
	"github.com/starford/articles/internal/models"
)

// ArticleService is the set of article use cases the handlers depend on.
type ArticleService interface {
	CreateArticle(ctx context.Context, in models.CreateArticleInput) (models.ArticlePayload, error)
	FindAllArticles(ctx context.Context) ([]models.ArticlePayload, error)
	FindArticleByID(ctx context.Context, publicID string) (models.ArticlePayload, error)
	DeleteArticle(ctx context.Context, publicID string) error
	Ping(ctx context.Context) error
}

// Handler holds API route handlers.
type Handler struct {
	svc    ArticleService
	logger *slog.Logger
}

// NewHandler creates a new Handler.
func NewHandler(svc ArticleService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// CreateArticle handles POST /api/articles.
//
//	@Summary		Create a new article
//	@Description	Creates an article with the provided title and description. The generated UUID is returned as id.
//	@Tags			articles
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateArticleRequest	true	"Article to create"
//	@Success		201		{object}	ArticleResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/articles [post]
func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req CreateArticleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}
	article, err := h.svc.CreateArticle(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, article)
}

// ListArticles handles GET /api/articles.
//
//	@Summary		List all articles
//	@Tags			articles
//	@Produce		json
//	@Success		200	{array}		ArticleResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/articles [get]
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.svc.FindAllArticles(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if articles == nil {
		articles = []models.ArticlePayload{}
	}
	writeJSON(w, http.StatusOK, articles)
}

// GetArticle handles GET /api/articles/{id}.
//
//	@Summary		Get an article by id
//	@Tags			articles
//	@Produce		json
//	@Param			id	path		string	true	"Article UUID"
//	@Success		200	{object}	ArticleResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/articles/{id} [get]
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := h.svc.FindArticleByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// DeleteArticle handles DELETE /api/articles/{id}.
//
//	@Summary		Delete an article by id
//	@Tags			articles
//	@Param			id	path	string	true	"Article UUID"
//	@Success		204	"Article deleted"
//	@Failure		404	{object}	ErrorResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/articles/{id} [delete]
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteArticle(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Ready reports whether the store is reachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "readiness check failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Live always reports ok while the process serves requests.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) routeNotFound(w http.ResponseWriter, r *http.Request) {
	h.respondError(w, r, &requestError{kind: apperr.ErrNotFound})
}

func (h *Handler) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.respondError(w, r, &requestError{kind: apperr.ErrUnsupportedOperation})
}
