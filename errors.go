// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"errors"
	"fmt"
)

// ErrorCode represents specific error categories for Synergy client operations.
type ErrorCode int

const (
	// ErrProtocol indicates a malformed or incompatible protocol message.
	ErrProtocol ErrorCode = iota
	// ErrNetwork indicates a transport failure (connect, receive or send).
	ErrNetwork
	// ErrTimeout indicates that the server went silent past the idle threshold.
	ErrTimeout
	// ErrDesync indicates a frame that could not be buffered and had to be discarded.
	ErrDesync
	// ErrValidation indicates input validation failure.
	ErrValidation
	// ErrConfiguration indicates an invalid client configuration.
	ErrConfiguration
	// ErrCapacity indicates a write past the end of a fixed-size buffer.
	ErrCapacity
	// ErrClosed indicates use of a client after Close.
	ErrClosed
)

// String returns the string representation of the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrProtocol:
		return "protocol"
	case ErrNetwork:
		return "network"
	case ErrTimeout:
		return "timeout"
	case ErrDesync:
		return "desync"
	case ErrValidation:
		return "validation"
	case ErrConfiguration:
		return "configuration"
	case ErrCapacity:
		return "capacity"
	case ErrClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// SynergyError provides structured error information with operation context,
// error codes, and message wrapping.
type SynergyError struct {
	Op      string
	Code    ErrorCode
	Message string
	Err     error
}

// Error returns the formatted error message.
func (e *SynergyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("synergy %s: %s: %s: %v", e.Code.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("synergy %s: %s: %s", e.Code.String(), e.Op, e.Message)
}

// Unwrap returns the underlying error for error chain unwrapping.
func (e *SynergyError) Unwrap() error {
	return e.Err
}

// Is reports whether this error matches the target error.
func (e *SynergyError) Is(target error) bool {
	var synErr *SynergyError
	if errors.As(target, &synErr) {
		return e.Code == synErr.Code && e.Op == synErr.Op
	}
	return false
}

// NewSynergyError creates a new SynergyError with the specified parameters.
func NewSynergyError(op string, code ErrorCode, message string, err error) *SynergyError {
	return &SynergyError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WrapError wraps an existing error with Synergy-specific context.
// Returns nil if the input error is nil.
func WrapError(op string, code ErrorCode, message string, err error) error {
	if err == nil {
		return nil
	}
	return NewSynergyError(op, code, message, err)
}

// IsSynergyError checks if an error is a SynergyError and optionally matches
// specific error codes. With no codes it returns true for any SynergyError.
func IsSynergyError(err error, code ...ErrorCode) bool {
	var synErr *SynergyError
	if !errors.As(err, &synErr) {
		return false
	}

	if len(code) == 0 {
		return true
	}

	for _, c := range code {
		if synErr.Code == c {
			return true
		}
	}
	return false
}

// GetErrorCode extracts the error code from a SynergyError.
// Returns -1 if the error is not a SynergyError.
func GetErrorCode(err error) ErrorCode {
	var synErr *SynergyError
	if errors.As(err, &synErr) {
		return synErr.Code
	}
	return ErrorCode(-1)
}

func protocolError(op, message string, err error) error {
	return NewSynergyError(op, ErrProtocol, message, err)
}

func networkError(op, message string, err error) error {
	return NewSynergyError(op, ErrNetwork, message, err)
}

func timeoutError(op, message string, err error) error {
	return NewSynergyError(op, ErrTimeout, message, err)
}

func desyncError(op, message string, err error) error {
	return NewSynergyError(op, ErrDesync, message, err)
}

func validationError(op, message string, err error) error {
	return NewSynergyError(op, ErrValidation, message, err)
}

func configurationError(op, message string, err error) error {
	return NewSynergyError(op, ErrConfiguration, message, err)
}

func capacityError(op, message string, err error) error {
	return NewSynergyError(op, ErrCapacity, message, err)
}

func closedError(op string) error {
	return NewSynergyError(op, ErrClosed, "client is closed", nil)
}
