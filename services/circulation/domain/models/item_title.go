package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ItemTitle is a value object representing a valid catalog title.
// Surrounding whitespace is dropped; 1 <= runes <= 255 remain.
type ItemTitle string

const (
	minTitleLength = 1
	maxTitleLength = 255
)

// NewItemTitle constructs a valid ItemTitle or returns an error if constraints are violated.
func NewItemTitle(s string) (ItemTitle, error) {
	s = strings.TrimSpace(s)
	if n := utf8.RuneCountInString(s); n < minTitleLength {
		return "", fmt.Errorf("title must be at least %d character", minTitleLength)
	} else if n > maxTitleLength {
		return "", fmt.Errorf("title must not exceed %d characters", maxTitleLength)
	}
	return ItemTitle(s), nil
}

func (t ItemTitle) String() string {
	return string(t)
}
