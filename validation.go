// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

package synergy

import (
	"fmt"
	"math"
	"time"
	"unicode"
	"unicode/utf8"
)

// Limits enforced on client configuration.
const (
	MaxClientNameLength = 255

	minReceiveBufferSize = 64
	minReplyBufferSize   = 64

	// helloBackOverhead is the hello reply without the name: length prefix,
	// "Synergy", two version fields and the name length.
	helloBackOverhead = frameHeaderSize + len(tagHello) + 2 + 2 + 4
)

// InputValidator validates client configuration and outgoing data.
type InputValidator struct{}

func newInputValidator() *InputValidator {
	return &InputValidator{}
}

// ValidateClientName checks that name is non-empty printable UTF-8 that the
// server can display, and short enough for the hello reply.
func (iv *InputValidator) ValidateClientName(name string) error {
	if name == "" {
		return validationError("InputValidator.ValidateClientName", "client name cannot be empty", nil)
	}

	if len(name) > MaxClientNameLength {
		return validationError("InputValidator.ValidateClientName",
			fmt.Sprintf("client name length %d exceeds maximum %d", len(name), MaxClientNameLength), nil)
	}

	if !utf8.ValidString(name) {
		return validationError("InputValidator.ValidateClientName",
			"client name contains invalid UTF-8 sequences", nil)
	}

	for i, r := range name {
		if !unicode.IsPrint(r) {
			return validationError("InputValidator.ValidateClientName",
				fmt.Sprintf("client name contains non-printable character at position %d", i), nil)
		}
	}

	return nil
}

// ValidateScreenSize checks that the dimensions fit the 16-bit DINF fields.
func (iv *InputValidator) ValidateScreenSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return validationError("InputValidator.ValidateScreenSize",
			fmt.Sprintf("screen dimensions must be positive, got %dx%d", width, height), nil)
	}

	if width > math.MaxUint16 || height > math.MaxUint16 {
		return validationError("InputValidator.ValidateScreenSize",
			fmt.Sprintf("screen dimensions %dx%d exceed maximum %d", width, height, math.MaxUint16), nil)
	}

	return nil
}

// ValidateBufferSizes checks the receive and reply buffer capacities. The
// reply buffer must at least hold the hello reply for name.
func (iv *InputValidator) ValidateBufferSizes(receive, reply int, name string) error {
	if receive < minReceiveBufferSize {
		return validationError("InputValidator.ValidateBufferSizes",
			fmt.Sprintf("receive buffer size %d below minimum %d", receive, minReceiveBufferSize), nil)
	}

	if reply < minReplyBufferSize {
		return validationError("InputValidator.ValidateBufferSizes",
			fmt.Sprintf("reply buffer size %d below minimum %d", reply, minReplyBufferSize), nil)
	}

	if need := helloBackOverhead + len(name); reply < need {
		return validationError("InputValidator.ValidateBufferSizes",
			fmt.Sprintf("reply buffer size %d cannot hold the hello reply (%d bytes)", reply, need), nil)
	}

	return nil
}

// ValidateDuration checks that a timing setting is at least a millisecond and representable
// as a 32-bit millisecond count.
func (iv *InputValidator) ValidateDuration(name string, d time.Duration) error {
	if d < time.Millisecond {
		return validationError("InputValidator.ValidateDuration",
			fmt.Sprintf("%s must be at least 1ms, got %v", name, d), nil)
	}

	if d.Milliseconds() > math.MaxUint32/2 {
		return validationError("InputValidator.ValidateDuration",
			fmt.Sprintf("%s %v is too large", name, d), nil)
	}

	return nil
}

// ValidateClipboardText checks that outgoing clipboard text is valid UTF-8,
// the encoding of the text clipboard format.
func (iv *InputValidator) ValidateClipboardText(text string) error {
	if !utf8.ValidString(text) {
		return validationError("InputValidator.ValidateClipboardText",
			"text contains invalid UTF-8 sequences", nil)
	}

	return nil
}
