package dizquetv

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingParameters reports that a call lacked a required argument.
	ErrMissingParameters = errors.New("missing parameters")
	// ErrMissingSettings reports an incomplete settings or template object.
	ErrMissingSettings = errors.New("missing setting")
	// ErrNotRemoteObject reports use of an object that is not bound to a server.
	ErrNotRemoteObject = errors.New("object does not exist on dizqueTV")
	// ErrChannelCreation reports a channel or filler list that could not be built.
	ErrChannelCreation = errors.New("channel creation failed")
	// ErrItemCreation reports a program or custom show item that could not be built.
	ErrItemCreation = errors.New("item creation failed")
	// ErrInvalidArgument covers the remaining malformed local calls.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrChannelNotFound reports a channel number unknown to the server.
	ErrChannelNotFound = errors.New("channel does not exist")
	// ErrUnexpectedStatus reports an HTTP status of 400 or above.
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// APIError describes a failed request against the dizqueTV API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.StatusCode)
}

func (e *APIError) Unwrap() error { return ErrUnexpectedStatus }

// NotRemoteObjectError is returned when a locally built object is used as if
// it had been fetched from the server.
type NotRemoteObjectError struct {
	Kind string
}

func (e *NotRemoteObjectError) Error() string {
	return fmt.Sprintf("local %s object does not exist on dizqueTV", e.Kind)
}

func (e *NotRemoteObjectError) Unwrap() error { return ErrNotRemoteObject }

func missingSetting(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingSettings, name)
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
