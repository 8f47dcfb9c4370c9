package validation

import (
	"strconv"
	"strings"

	apperrors "microtask/internal/errors"
)

// ParseAmount parses user-entered withdrawal or credit text. Anything other
// than a positive integer yields an InvalidAmount error.
func ParseAmount(text string) (int64, error) {
	trimmed := strings.TrimSpace(text)
	amount, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, apperrors.NewInvalidAmountError(text, err)
	}
	if amount <= 0 {
		return 0, apperrors.NewInvalidAmountError(text, nil)
	}
	return amount, nil
}

// ValidateAmount checks an already numeric amount
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return apperrors.NewInvalidAmountError(strconv.FormatInt(amount, 10), nil)
	}
	return nil
}

// ParseLimit parses the task limit step of the add-task wizard. Zero and
// negative values are accepted and mean unlimited; non-integers are
// rejected so the caller can prompt again.
func ParseLimit(text string) (int, error) {
	trimmed := strings.TrimSpace(text)
	limit, err := strconv.Atoi(trimmed)
	if err != nil {
		ve := NewValidationError()
		ve.AddInvalidFormatError("limit", text, "integer")
		return 0, ve.AppError()
	}
	return limit, nil
}
