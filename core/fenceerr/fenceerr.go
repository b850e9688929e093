// Package fenceerr defines the error value propagated up to the agent
// top-level handler, where it is mapped to an exit code.
package fenceerr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"

	"github.com/opensvc/fence-agents/util/retcodes"
)

type (
	// T is an error carrying the exit code of the agent.
	T struct {
		Code retcodes.T

		// Msg overrides the code message.
		Msg string

		// Usage means the error is caused by the caller input, and the
		// usage hint must be displayed.
		Usage bool

		Err error
	}
)

var (
	// ErrPlugNotFound is returned by the backends when the plug does not
	// exist on the device. It is reported as an off power status with
	// --missing-as-off.
	ErrPlugNotFound = errors.New("plug not found")
)

// New returns an error with the fixed message of code.
func New(code retcodes.T) *T {
	return &T{Code: code}
}

// Usagef returns a usage error.
func Usagef(format string, args ...interface{}) *T {
	return &T{
		Code:  retcodes.GenericError,
		Msg:   fmt.Sprintf(format, args...),
		Usage: true,
	}
}

// Wrap returns an error with the code, keeping err as the cause.
func Wrap(code retcodes.T, err error) *T {
	return &T{Code: code, Err: err}
}

func (t *T) Error() string {
	switch {
	case t.Msg != "":
		return t.Msg
	case t.Err != nil && t.Code == retcodes.GenericError:
		return t.Err.Error()
	default:
		return t.Code.Message()
	}
}

func (t *T) Unwrap() error {
	return t.Err
}

// Code returns the exit code associated to err. A nil error is OK, and
// an error not classified is a generic error.
func Code(err error) retcodes.T {
	if err == nil {
		return retcodes.OK
	}
	var e *T
	if errors.As(err, &e) {
		return e.Code
	}
	return FromTransport(err).Code
}

// IsUsage returns true if err requires the usage hint.
func IsUsage(err error) bool {
	var e *T
	if errors.As(err, &e) {
		return e.Usage
	}
	return false
}

// FromTransport classifies the errors returned by the transport layers.
// End of stream errors are ConnectionLost, deadline errors are TimedOut.
func FromTransport(err error) *T {
	var (
		e    *T
		nerr net.Error
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &e):
		return e
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return Wrap(retcodes.ConnectionLost, err)
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, os.ErrDeadlineExceeded):
		return Wrap(retcodes.TimedOut, err)
	case errors.As(err, &nerr) && nerr.Timeout():
		return Wrap(retcodes.TimedOut, err)
	default:
		return Wrap(retcodes.GenericError, err)
	}
}
