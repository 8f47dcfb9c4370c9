package errors

import (
	"fmt"
)

// ErrorType is the category of an AppError. Callers branch on the category
// to decide how a failure is shown: the first four are answers for the
// participant, the rest are failures of the system itself.
type ErrorType int

const (
	// ErrorTypeValidation covers malformed amounts, limits and titles. The
	// caller re-prompts.
	ErrorTypeValidation ErrorType = iota

	// ErrorTypeInvalidInput covers arguments that are missing or of the
	// wrong shape before any validation rule runs.
	ErrorTypeInvalidInput

	// ErrorTypeNotFound is an unknown task id.
	ErrorTypeNotFound

	// ErrorTypeRuleViolation is a well-formed request the ledger or the task
	// registry refuses: a withdrawal below its minimum or above the balance,
	// a claim on a full or already taken task, completing a task that is not
	// taken. Nothing was written.
	ErrorTypeRuleViolation

	// ErrorTypeStorageCorruption means a stored collection could not be
	// decoded. The operation fails without writing; other operations keep
	// working.
	ErrorTypeStorageCorruption

	// ErrorTypeDatabase is a failing SQL statement or connection.
	ErrorTypeDatabase

	// ErrorTypePermission is an operator action attempted by someone who is
	// not on the admin list.
	ErrorTypePermission
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeValidation:        "validation",
	ErrorTypeInvalidInput:      "invalid_input",
	ErrorTypeNotFound:          "not_found",
	ErrorTypeRuleViolation:     "rule_violation",
	ErrorTypeStorageCorruption: "storage_corruption",
	ErrorTypeDatabase:          "database",
	ErrorTypePermission:        "permission",
}

// String returns the snake_case name used in error text
func (et ErrorType) String() string {
	if name, ok := errorTypeNames[et]; ok {
		return name
	}
	return "unknown"
}

// Recoverable reports whether the participant can fix the request and try
// again. Storage, database and permission failures are not.
func (et ErrorType) Recoverable() bool {
	switch et {
	case ErrorTypeValidation, ErrorTypeInvalidInput, ErrorTypeNotFound, ErrorTypeRuleViolation:
		return true
	default:
		return false
	}
}

// AppError is a categorized failure. Code names the specific rule or
// condition (LIMIT_REACHED, BELOW_MINIMUM, ...) and Context carries the
// values behind the message, such as the amount and the minimum.
type AppError struct {
	Type    ErrorType
	Message string
	Code    string
	Cause   error
	Context map[string]interface{}
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Type.String() + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on Type and Code only, so a sentinel such as ErrLimitReached
// matches every limit error whatever its message or context.
func (e *AppError) Is(target error) bool {
	appErr, ok := target.(*AppError)
	return ok && e.Type == appErr.Type && e.Code == appErr.Code
}

// IsType reports whether the error is of the given category
func (e *AppError) IsType(errorType ErrorType) bool {
	return e.Type == errorType
}

// WithContext records a value behind the error and returns e for chaining
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// GetContext returns a value recorded with WithContext
func (e *AppError) GetContext(key string) (interface{}, bool) {
	value, ok := e.Context[key]
	return value, ok
}
