package models

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Borrower is the free-text name a loan is recorded against.
type Borrower string

const maxBorrowerLength = 255

// NewBorrower trims s and rejects empty or oversized names.
func NewBorrower(s string) (Borrower, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("borrower must not be empty")
	}
	if utf8.RuneCountInString(s) > maxBorrowerLength {
		return "", fmt.Errorf("borrower must not exceed %d characters", maxBorrowerLength)
	}
	return Borrower(s), nil
}

func (b Borrower) String() string {
	return string(b)
}
