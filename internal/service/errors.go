package service

import "errors"

// Status is the outcome of a service call, independent of the transport.
type Status int

const (
	StatusOK Status = iota
	StatusCreated
	StatusNotFound
	StatusConflict
	StatusInternalError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusCreated:
		return "CREATED"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusConflict:
		return "CONFLICT"
	default:
		return "INTERNAL_ERROR"
	}
}

// Error is a failed service call. Its message is safe to show to clients.
type Error struct {
	Status  Status
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrNotFound    = &Error{Status: StatusNotFound, Message: "Contact not found"}
	ErrEmailExists = &Error{Status: StatusConflict, Message: "Email already exists"}
	ErrPhoneExists = &Error{Status: StatusConflict, Message: "Phone already exists"}
	ErrDuplicate   = &Error{Status: StatusConflict, Message: "Contact already exists"}
	ErrInternal    = &Error{Status: StatusInternalError, Message: "Internal Server Error"}
)

// StatusOf maps the error returned by a service call to its status. A nil error is StatusOK and
// every error that is not an *Error is StatusInternalError.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Status
	}
	return StatusInternalError
}
