package store

import (
	"strings"

	"github.com/zentrais/zentrais-api/internal/models"
)

func validateTopicInput(title, description string, author models.User) error {
	if strings.TrimSpace(title) == "" {
		return &ValidationError{Field: "title"}
	}
	if strings.TrimSpace(description) == "" {
		return &ValidationError{Field: "description"}
	}
	if author.ID == "" {
		return &ValidationError{Field: "author"}
	}
	return nil
}

func validatePostInput(content string, author models.User) error {
	if strings.TrimSpace(content) == "" {
		return &ValidationError{Field: "content"}
	}
	if author.ID == "" {
		return &ValidationError{Field: "author"}
	}
	return nil
}
