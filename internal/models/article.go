// Package models defines the domain types for the articles service.
package models

import (
	"encoding/json"
	"time"
)

// Article is a stored article record.
type Article struct {
	ID          int64     `json:"-"`
	PublicID    string    `json:"-"`
	Title       string    `json:"-"`
	Description string    `json:"-"`
	IsPublished bool      `json:"-"`
	CreatedAt   time.Time `json:"-"`
}

// ArticlePayload is the external representation of an article.
// The internal sequence id is never part of it.
type ArticlePayload struct {
	ID          string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Title       string `json:"title" example:"Understanding Systems"`
	Description string `json:"description" example:"A guide to systems design basics."`
	IsPublished bool   `json:"isPublished" example:"false"`
}

// CreateArticleInput is the raw creation payload before validation.
// TitleMissing and DescriptionMissing are set when the JSON body omits the
// field or sends null, which is distinct from an empty string.
type CreateArticleInput struct {
	Title       string `json:"title" example:"Understanding Systems"`
	Description string `json:"description" example:"A guide to systems design basics."`

	TitleMissing       bool `json:"-"`
	DescriptionMissing bool `json:"-"`
}

func (in *CreateArticleInput) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*in = CreateArticleInput{
		TitleMissing:       raw.Title == nil,
		DescriptionMissing: raw.Description == nil,
	}
	if raw.Title != nil {
		in.Title = *raw.Title
	}
	if raw.Description != nil {
		in.Description = *raw.Description
	}
	return nil
}
