// Package apperr defines the error taxonomy shared by the REST client and
// its callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrNetwork matches failures where the request never reached the
	// server or no usable response came back.
	ErrNetwork = errors.New("network failure")
	// ErrServer matches non-2xx responses.
	ErrServer = errors.New("server error")
)

// Error kinds as recorded by observability sinks.
const (
	KindNetwork = "network"
	KindServer  = "server"
	KindOther   = "other"
)

// NetworkError wraps a transport or decoding failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ServerError is a non-2xx response from the backend.
type ServerError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, msg)
}

func (e *ServerError) Is(target error) bool {
	switch target {
	case ErrServer:
		return true
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// Kind classifies err into one of the Kind constants.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNetwork):
		return KindNetwork
	case errors.Is(err, ErrServer):
		return KindServer
	default:
		return KindOther
	}
}

// Status returns the HTTP status carried by err, or 0.
func Status(err error) int {
	var se *ServerError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
