package api

import "github.com/starford/articles/internal/models"

// CreateArticleRequest is the request body for creating an article.
type CreateArticleRequest = models.CreateArticleInput

// ArticleResponse is the article payload returned by every read endpoint.
type ArticleResponse = models.ArticlePayload
