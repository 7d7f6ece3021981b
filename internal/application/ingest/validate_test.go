package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"newsrag-api/internal/domain/entity"
	"newsrag-api/pkg/errors"
)

func validDoc() *entity.Document {
	return &entity.Document{
		ID:          "doc-1",
		Title:       "A sufficiently long headline",
		Description: "A description that comfortably exceeds the thirty character floor.",
		URL:         "https://example.com/article",
		Source:      "Example News",
	}
}

func TestValidateDocument(t *testing.T) {
	t.Run("valid document passes", func(t *testing.T) {
		assert.NoError(t, ValidateDocument(validDoc()))
	})

	t.Run("nil document", func(t *testing.T) {
		assert.Error(t, ValidateDocument(nil))
	})

	tests := []struct {
		name   string
		mutate func(*entity.Document)
	}{
		{"title too short", func(d *entity.Document) { d.Title = "Too short" }},
		{"title whitespace padded", func(d *entity.Document) { d.Title = "   short   " }},
		{"description too short", func(d *entity.Document) { d.Description = "Not enough text" }},
		{"missing source", func(d *entity.Document) { d.Source = "  " }},
		{"missing url", func(d *entity.Document) { d.URL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validDoc()
			tt.mutate(doc)

			err := ValidateDocument(doc)
			assert.Error(t, err)
			appErr := errors.AsAppError(err)
			assert.Equal(t, errors.CodeValidationFailed, appErr.Code)
		})
	}
}
