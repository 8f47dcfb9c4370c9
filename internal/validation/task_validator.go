package validation

import (
	"microtask/internal/config"
)

// TaskValidator provides validation for task creation and lookup
type TaskValidator struct {
	validator *Validator
}

// NewTaskValidator creates a new task validator
func NewTaskValidator() *TaskValidator {
	return &TaskValidator{
		validator: NewValidator(),
	}
}

// NewTaskValidatorWithConfig creates a task validator using configured limits
func NewTaskValidatorWithConfig(cfg *config.Config) *TaskValidator {
	return &TaskValidator{
		validator: NewValidatorWithConfig(cfg),
	}
}

// ValidateTitle validates a task title
func (tv *TaskValidator) ValidateTitle(title string) *ValidationError {
	validationError := NewValidationError()
	trimmed := tv.validator.TrimAndValidateString(title)

	if !tv.validator.IsNonEmptyString(trimmed) {
		validationError.AddRequiredError("title")
		return validationError
	}

	maxLen := tv.validator.getTitleMaxLength()
	if !tv.validator.IsValidStringLength(trimmed, 1, maxLen) {
		validationError.AddInvalidLengthError("title", trimmed, 1, maxLen)
	}
	if tv.validator.HasControlCharacters(trimmed) {
		validationError.AddInvalidValueError("title", trimmed, "contains control characters")
	}

	return validationError
}

// ValidateInstruction validates a task instruction. Empty instructions are allowed.
func (tv *TaskValidator) ValidateInstruction(instruction string) *ValidationError {
	validationError := NewValidationError()

	maxLen := tv.validator.getInstructionMaxLength()
	if !tv.validator.IsValidStringLength(instruction, 0, maxLen) {
		validationError.AddInvalidLengthError("instruction", instruction, 0, maxLen)
	}
	if tv.validator.HasControlCharacters(instruction) {
		validationError.AddInvalidValueError("instruction", instruction, "contains control characters")
	}

	return validationError
}

// ValidateTaskForCreation validates the fields of a new task and returns a
// validation AppError listing every problem
func (tv *TaskValidator) ValidateTaskForCreation(title, instruction string) error {
	validationError := tv.ValidateTitle(title)
	validationError.Errors = append(validationError.Errors, tv.ValidateInstruction(instruction).Errors...)

	if validationError.HasErrors() {
		return validationError.AppError()
	}
	return nil
}

// ValidateTaskID validates a task id
func (tv *TaskValidator) ValidateTaskID(id string) error {
	if !tv.validator.IsValidIdentifier(id) {
		validationError := NewValidationError()
		validationError.AddInvalidValueError("task_id", id, "must be a non-empty token")
		return validationError.AppError()
	}
	return nil
}

// ValidateUserID validates a caller-supplied user identity
func (tv *TaskValidator) ValidateUserID(id string) error {
	if !tv.validator.IsValidIdentifier(id) {
		validationError := NewValidationError()
		validationError.AddInvalidValueError("user_id", id, "must be a non-empty token")
		return validationError.AppError()
	}
	return nil
}

// CleanTitle returns the trimmed title
func (tv *TaskValidator) CleanTitle(title string) string {
	return tv.validator.TrimAndValidateString(title)
}
