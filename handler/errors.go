package handler

import (
	"fmt"
	"net/http"
)

// Kind classifies a failure by what the client should learn from it.
type Kind int

const (
	KindInvalidBody Kind = iota + 1
	KindMissingCredential
	KindMissingFields
	KindProviderError
	KindUnreachable
	KindUnexpected
)

func (k Kind) String() string {
	switch k {
	case KindInvalidBody:
		return "InvalidBody"
	case KindMissingCredential:
		return "MissingCredential"
	case KindMissingFields:
		return "MissingFields"
	case KindProviderError:
		return "ProviderError"
	case KindUnreachable:
		return "Unreachable"
	case KindUnexpected:
		return "Unexpected"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

const (
	msgInvalidBody       = "Invalid JSON body"
	msgMissingCredential = "FAL_KEY environment variable not configured on server."
	msgMissingFields     = "Missing required fields: prompt, model"
	msgProviderError     = "FAL API error"
	msgInvalidConfig     = "Server error: invalid proxy configuration"
)

// Error is a failure that has already been mapped to the reply the client
// will see. Err is the underlying cause, for logs only.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func errInvalidBody(err error) *Error {
	return &Error{Kind: KindInvalidBody, Status: http.StatusBadRequest, Message: msgInvalidBody, Err: err}
}

func errMissingCredential(err error) *Error {
	return &Error{Kind: KindMissingCredential, Status: http.StatusInternalServerError, Message: msgMissingCredential, Err: err}
}

func errMissingFields() *Error {
	return &Error{Kind: KindMissingFields, Status: http.StatusBadRequest, Message: msgMissingFields}
}

func errProvider(status int, message string) *Error {
	return &Error{Kind: KindProviderError, Status: status, Message: message}
}

func errUnreachable(reason error) *Error {
	return &Error{
		Kind:    KindUnreachable,
		Status:  http.StatusBadGateway,
		Message: "Could not reach FAL API: " + reason.Error(),
		Err:     reason,
	}
}

func errUnexpected(err error) *Error {
	return &Error{
		Kind:    KindUnexpected,
		Status:  http.StatusInternalServerError,
		Message: "Server error: " + err.Error(),
		Err:     err,
	}
}
