package articleservice

import (
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/articles/internal/apperr"
	"github.com/starford/articles/internal/models"
)

// Length bounds for article fields, inclusive, counted in characters.
const (
	TitleMinLen       = 3
	TitleMaxLen       = 200
	DescriptionMinLen = 10
	DescriptionMaxLen = 2000
)

// fieldRules holds the checks for one payload field. blank applies to every
// value; rules are skipped when the field is missing, as a length cannot be
// measured on an absent value.
type fieldRules struct {
	name    string
	value   string
	missing bool
	blank   validation.Rule
	rules   []validation.Rule
}

// notBlank rejects empty and whitespace-only strings. ozzo's Required
// treats "   " as present, so the value is trimmed first.
func notBlank(msg string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		return validation.Validate(strings.TrimSpace(s), validation.Required.Error(msg))
	})
}

// lengthBetween checks the rune count of a string. Unlike ozzo's Length,
// it also applies to the empty string.
func lengthBetween(minLen, maxLen int, msg string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if n := utf8.RuneCountInString(s); n < minLen || n > maxLen {
			return validation.NewError("validation_length_out_of_range", msg)
		}
		return nil
	})
}

// ValidateCreate checks a creation payload and reports every violated
// constraint, not only the first one per field. A missing field is reported
// once, as blank, with a nil rejected value.
func ValidateCreate(in models.CreateArticleInput) error {
	fields := []fieldRules{
		{
			name:    "title",
			value:   in.Title,
			missing: in.TitleMissing,
			blank:   notBlank("Title is required and cannot be blank"),
			rules: []validation.Rule{
				lengthBetween(TitleMinLen, TitleMaxLen, "Title must be between 3 and 200 characters"),
			},
		},
		{
			name:    "description",
			value:   in.Description,
			missing: in.DescriptionMissing,
			blank:   notBlank("Description is required and cannot be blank"),
			rules: []validation.Rule{
				lengthBetween(DescriptionMinLen, DescriptionMaxLen, "Description must be between 10 and 2000 characters"),
			},
		},
	}

	var violations []apperr.FieldError
	for _, f := range fields {
		var rejected any = f.value
		rules := append([]validation.Rule{f.blank}, f.rules...)
		if f.missing {
			rejected = nil
			rules = rules[:1]
		}
		for _, rule := range rules {
			if err := validation.Validate(f.value, rule); err != nil {
				violations = append(violations, apperr.FieldError{
					Field:         f.name,
					RejectedValue: rejected,
					Message:       err.Error(),
				})
			}
		}
	}
	if len(violations) > 0 {
		return &apperr.ValidationError{Fields: violations}
	}
	return nil
}
