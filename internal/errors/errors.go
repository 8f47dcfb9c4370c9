package errors

import (
	"errors"
	"fmt"
)

// Error codes for ledger and task registry failures
const (
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeInvalidAmount     = "INVALID_AMOUNT"
	CodeBelowMinimum      = "BELOW_MINIMUM"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeLimitReached      = "LIMIT_REACHED"
	CodeAlreadyTaken      = "ALREADY_TAKEN"
	CodeNotTaken          = "NOT_TAKEN"
	CodeNoActiveTask      = "NO_ACTIVE_TASK"
	CodeNotFound          = "NOT_FOUND"
	CodeTaskNotFound      = "TASK_NOT_FOUND"
	CodeStorageCorruption = "STORAGE_CORRUPTION"
	CodeDatabase          = "DATABASE_ERROR"
	CodeInvalidInput      = "INVALID_INPUT"
	CodePermissionDenied  = "PERMISSION_DENIED"
)

// Sentinels for errors.Is matching. Only Type and Code are compared.
var (
	ErrInvalidAmount     = &AppError{Type: ErrorTypeValidation, Code: CodeInvalidAmount}
	ErrBelowMinimum      = &AppError{Type: ErrorTypeRuleViolation, Code: CodeBelowMinimum}
	ErrInsufficientFunds = &AppError{Type: ErrorTypeRuleViolation, Code: CodeInsufficientFunds}
	ErrLimitReached      = &AppError{Type: ErrorTypeRuleViolation, Code: CodeLimitReached}
	ErrAlreadyTaken      = &AppError{Type: ErrorTypeRuleViolation, Code: CodeAlreadyTaken}
	ErrNotTaken          = &AppError{Type: ErrorTypeRuleViolation, Code: CodeNotTaken}
	ErrNoActiveTask      = &AppError{Type: ErrorTypeRuleViolation, Code: CodeNoActiveTask}
	ErrTaskNotFound      = &AppError{Type: ErrorTypeNotFound, Code: CodeTaskNotFound}
	ErrStorageCorruption = &AppError{Type: ErrorTypeStorageCorruption, Code: CodeStorageCorruption}
	ErrPermissionDenied  = &AppError{Type: ErrorTypePermission, Code: CodePermissionDenied}
)

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Code:    CodeValidationFailed,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewInvalidAmountError creates an error for an amount that is not a positive integer
func NewInvalidAmountError(value string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: fmt.Sprintf("amount must be a positive integer: %q", value),
		Code:    CodeInvalidAmount,
		Cause:   cause,
		Context: map[string]interface{}{
			"value": value,
		},
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string, identifier string) *AppError {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
		Code:    CodeNotFound,
		Context: map[string]interface{}{
			"resource":   resource,
			"identifier": identifier,
		},
	}
}

// NewTaskNotFoundError creates the not found error returned by claim and complete
func NewTaskNotFoundError(taskID string) *AppError {
	err := NewNotFoundError("task", taskID)
	err.Code = CodeTaskNotFound
	return err
}

// NewRuleViolationError creates an error for a request that breaks a ledger or task rule
func NewRuleViolationError(code string, message string) *AppError {
	return &AppError{
		Type:    ErrorTypeRuleViolation,
		Message: message,
		Code:    code,
		Context: make(map[string]interface{}),
	}
}

// NewBelowMinimumError creates an error for a withdrawal under the threshold
func NewBelowMinimumError(amount, minimum int64) *AppError {
	return NewRuleViolationError(CodeBelowMinimum,
		fmt.Sprintf("withdrawal amount %d is below the minimum of %d", amount, minimum)).
		WithContext("amount", amount).
		WithContext("minimum", minimum)
}

// NewInsufficientFundsError creates an error for a withdrawal larger than the balance
func NewInsufficientFundsError(amount, balance int64) *AppError {
	return NewRuleViolationError(CodeInsufficientFunds,
		fmt.Sprintf("withdrawal amount %d exceeds balance %d", amount, balance)).
		WithContext("amount", amount).
		WithContext("balance", balance)
}

// NewStorageCorruptionError creates an error for an unreadable or malformed collection
func NewStorageCorruptionError(collection string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeStorageCorruption,
		Message: fmt.Sprintf("stored %s collection is unreadable", collection),
		Code:    CodeStorageCorruption,
		Cause:   cause,
		Context: map[string]interface{}{
			"collection": collection,
		},
	}
}

// NewDatabaseError creates a new database error
func NewDatabaseError(operation string, cause error) *AppError {
	return &AppError{
		Type:    ErrorTypeDatabase,
		Message: fmt.Sprintf("database operation failed: %s", operation),
		Code:    CodeDatabase,
		Cause:   cause,
		Context: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewInvalidInputError creates a new invalid input error
func NewInvalidInputError(field string, value interface{}, reason string) *AppError {
	return &AppError{
		Type:    ErrorTypeInvalidInput,
		Message: fmt.Sprintf("invalid input for %s: %s", field, reason),
		Code:    CodeInvalidInput,
		Context: map[string]interface{}{
			"field":  field,
			"value":  value,
			"reason": reason,
		},
	}
}

// NewPermissionError creates a new permission error
func NewPermissionError(operation string, resource string) *AppError {
	return &AppError{
		Type:    ErrorTypePermission,
		Message: fmt.Sprintf("permission denied for %s on %s", operation, resource),
		Code:    CodePermissionDenied,
		Context: map[string]interface{}{
			"operation": operation,
			"resource":  resource,
		},
	}
}

// WrapError wraps an existing error with additional context
func WrapError(err error, errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Code:    errorType.String(),
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// IsAppError checks if the error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsErrorType checks if the error is of the specified type
func IsErrorType(err error, errorType ErrorType) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.IsType(errorType)
	}
	return false
}

// GetUserMessage returns a user-friendly error message
func GetUserMessage(err error) string {
	if appErr, ok := AsAppError(err); ok {
		switch appErr.Type {
		case ErrorTypeValidation, ErrorTypeNotFound, ErrorTypeInvalidInput,
			ErrorTypeRuleViolation, ErrorTypePermission:
			return appErr.Message
		case ErrorTypeDatabase:
			return "A database error occurred. Please try again."
		case ErrorTypeStorageCorruption:
			return "Stored data could not be read. Please contact support."
		default:
			return "An unexpected error occurred. Please try again."
		}
	}
	return err.Error()
}

// GetErrorCode returns the error code for the error
func GetErrorCode(err error) string {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return "UNKNOWN_ERROR"
}

// ShouldLogError determines if an error should be logged based on its type
func ShouldLogError(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return !appErr.Type.Recoverable()
	}
	return true
}
