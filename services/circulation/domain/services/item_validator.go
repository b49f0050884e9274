package services

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ghuser/circulationledger/services/circulation/domain/models"
)

const maxAuthorLength = 255

// ValidateTitle rejects control characters (Unicode category Cc). Inner
// whitespace is kept as entered.
func ValidateTitle(title models.ItemTitle) error {
	s := title.String()
	if strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return fmt.Errorf("title must not contain control characters")
	}
	return nil
}

// ValidateAuthor allows an empty author.
func ValidateAuthor(author string) error {
	if utf8.RuneCountInString(author) > maxAuthorLength {
		return fmt.Errorf("author must not exceed %d characters", maxAuthorLength)
	}
	if strings.IndexFunc(author, unicode.IsControl) >= 0 {
		return fmt.Errorf("author must not contain control characters")
	}
	return nil
}

// ValidateItem performs cross-field validation on an Item before it is
// persisted, whether freshly built by models.NewItem or edited.
func ValidateItem(item *models.Item) error {
	if item == nil {
		return fmt.Errorf("item cannot be nil")
	}
	if item.ID == uuid.Nil {
		return fmt.Errorf("id must be set")
	}
	if err := ValidateTitle(item.Title); err != nil {
		return fmt.Errorf("invalid title: %w", err)
	}
	if err := ValidateAuthor(item.Author); err != nil {
		return fmt.Errorf("invalid author: %w", err)
	}
	if item.TotalCopies < 0 {
		return fmt.Errorf("total copies must not be negative")
	}
	return nil
}
