package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"microtask/internal/config"
)

// Validator provides common validation utilities
type Validator struct {
	config *config.Config
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		config: nil, // Use defaults
	}
}

// NewValidatorWithConfig creates a new validator instance with configuration
func NewValidatorWithConfig(cfg *config.Config) *Validator {
	return &Validator{
		config: cfg,
	}
}

// IsNonEmptyString checks if a string is not empty after trimming whitespace
func (v *Validator) IsNonEmptyString(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsValidStringLength checks if the trimmed string has between min and max
// characters. Characters are counted as runes so Cyrillic titles measure
// the same as Latin ones.
func (v *Validator) IsValidStringLength(s string, min, max int) bool {
	length := utf8.RuneCountInString(strings.TrimSpace(s))
	return length >= min && length <= max
}

// HasControlCharacters reports whether s contains characters other than
// printable text and line breaks
func (v *Validator) HasControlCharacters(s string) bool {
	for _, r := range s {
		if r == '\n' || r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}

// IsValidIdentifier checks that an id is non-empty and free of whitespace
func (v *Validator) IsValidIdentifier(id string) bool {
	if id == "" {
		return false
	}
	return strings.IndexFunc(id, unicode.IsSpace) < 0
}

// TrimAndValidateString trims whitespace and returns the cleaned string
func (v *Validator) TrimAndValidateString(s string) string {
	return strings.TrimSpace(s)
}

// getTitleMaxLength returns configured maximum title length or default
func (v *Validator) getTitleMaxLength() int {
	if v.config != nil {
		return v.config.Tasks.TitleMaxLength
	}
	return 255 // Default maximum
}

// getInstructionMaxLength returns configured maximum instruction length or default
func (v *Validator) getInstructionMaxLength() int {
	if v.config != nil {
		return v.config.Tasks.InstructionMaxLength
	}
	return 4096 // Default maximum
}
