package errors

import "fmt"

// ErrorCode represents an Appoint error code.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"       // 400
	ErrNotFound            ErrorCode = "NOT_FOUND"             // 404
	ErrTemplateNotFound    ErrorCode = "TEMPLATE_NOT_FOUND"    // 404
	ErrNoTemplateSelected  ErrorCode = "NO_TEMPLATE_SELECTED"  // 400
	ErrNoActiveAppointment ErrorCode = "NO_ACTIVE_APPOINTMENT" // 409
	ErrNothingToAbandon    ErrorCode = "NOTHING_TO_ABANDON"    // 409
	ErrAppointmentActive   ErrorCode = "APPOINTMENT_ACTIVE"    // 409
	ErrConflict            ErrorCode = "CONFLICT"              // 409
	ErrStorageFailure      ErrorCode = "STORAGE_FAILURE"       // 500
	ErrInvalidImport       ErrorCode = "INVALID_IMPORT"        // 422
	ErrInternal            ErrorCode = "INTERNAL"              // 500
)

// AppointError represents a structured error with code, status, and details.
type AppointError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AppointError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AppointError {
	return &AppointError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing record, type, or file.
func NewNotFound(identifier string) *AppointError {
	return &AppointError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewTemplateNotFound creates a 404 error for an unresolvable template id.
func NewTemplateNotFound(id string) *AppointError {
	return &AppointError{
		Code:    ErrTemplateNotFound,
		Status:  404,
		Message: fmt.Sprintf("template not found: %s", id),
		Details: map[string]any{"template_id": id},
	}
}

// NewNoTemplateSelected creates a 400 error for starting an appointment
// without a template id.
func NewNoTemplateSelected() *AppointError {
	return &AppointError{
		Code:    ErrNoTemplateSelected,
		Status:  400,
		Message: "no template selected; a template id is required to start an appointment",
	}
}

// NewNoActiveAppointment creates a 409 error for starting a task with no
// appointment in progress.
func NewNoActiveAppointment() *AppointError {
	return &AppointError{
		Code:    ErrNoActiveAppointment,
		Status:  409,
		Message: "no active appointment; start an appointment before starting a task",
	}
}

// NewNothingToAbandon creates a 409 error for abandoning from the idle state.
func NewNothingToAbandon() *AppointError {
	return &AppointError{
		Code:    ErrNothingToAbandon,
		Status:  409,
		Message: "nothing to abandon; no appointment or task is in progress",
	}
}

// NewAppointmentActive creates a 409 error for starting an appointment while
// a session is already in progress.
func NewAppointmentActive(phase string) *AppointError {
	return &AppointError{
		Code:    ErrAppointmentActive,
		Status:  409,
		Message: fmt.Sprintf("a session is already in progress (%s); abandon or finish it first", phase),
		Details: map[string]any{"phase": phase},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *AppointError {
	return &AppointError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewStorageFailure creates a 500 error for a failed read or write of the
// persisted aggregate. Callers must surface this rather than drop the record.
func NewStorageFailure(err error) *AppointError {
	msg := "storage failure"
	if err != nil {
		msg = fmt.Sprintf("storage failure: %v", err)
	}
	return &AppointError{
		Code:    ErrStorageFailure,
		Status:  500,
		Message: msg,
	}
}

// NewInvalidImport creates a 422 error for malformed import data. The live
// aggregate is untouched when this is returned.
func NewInvalidImport(msg string) *AppointError {
	return &AppointError{
		Code:    ErrInvalidImport,
		Status:  422,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AppointError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AppointError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an AppointError with the given code.
func Is(err error, code ErrorCode) bool {
	if aErr, ok := err.(*AppointError); ok {
		return aErr.Code == code
	}
	return false
}
