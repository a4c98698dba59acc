package articleservice

import "github.com/starford/articles/internal/models"

// NewArticle builds an unsaved article from a validated payload.
// Identifiers are assigned later.
func NewArticle(in models.CreateArticleInput) models.Article {
	return models.Article{
		Title:       in.Title,
		Description: in.Description,
		IsPublished: false,
	}
}

// ToPayload maps a stored article to its external representation.
func ToPayload(a models.Article) models.ArticlePayload {
	return models.ArticlePayload{
		ID:          a.PublicID,
		Title:       a.Title,
		Description: a.Description,
		IsPublished: a.IsPublished,
	}
}

// ToPayloads maps a slice of articles. The result is never nil.
func ToPayloads(articles []models.Article) []models.ArticlePayload {
	out := make([]models.ArticlePayload, len(articles))
	for i, a := range articles {
		out[i] = ToPayload(a)
	}
	return out
}
