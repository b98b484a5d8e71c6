package sticker

import (
	"errors"
	"fmt"
)

// Sentinel errors - use with errors.Is()
var (
	// Conversion errors
	ErrUnsupportedFormat = errors.New("stickerforge: unsupported media format")
	ErrDecode            = errors.New("stickerforge: media cannot be decoded")
	ErrLayoutOverflow    = errors.New("stickerforge: text does not fit at minimum readable size")
	ErrCompressionBudget = errors.New("stickerforge: compression budget exhausted")
	ErrCompliance        = errors.New("stickerforge: candidate violates platform constraints")

	// Pack errors
	ErrDuplicateName  = errors.New("stickerforge: pack name already used")
	ErrPackNotFound   = errors.New("stickerforge: pack not found")
	ErrFormatMismatch = errors.New("stickerforge: sticker format does not match pack format")
	ErrPackFull       = errors.New("stickerforge: pack at maximum sticker count")

	// Resource errors
	ErrTimeout = errors.New("stickerforge: operation timed out")
	ErrBusy    = errors.New("stickerforge: too many conversions in flight")

	// Validation errors
	ErrInvalidConfig = errors.New("stickerforge: invalid configuration")
)

// ErrorKind is the machine-readable error classification reported to the
// transport layer. The transport owns user-facing phrasing.
type ErrorKind string

const (
	KindUnsupportedFormat ErrorKind = "unsupported_format"
	KindDecode            ErrorKind = "decode"
	KindLayoutOverflow    ErrorKind = "layout_overflow"
	KindCompressionBudget ErrorKind = "compression_budget_exceeded"
	KindCompliance        ErrorKind = "compliance"
	KindDuplicateName     ErrorKind = "duplicate_name"
	KindPackNotFound      ErrorKind = "pack_not_found"
	KindFormatMismatch    ErrorKind = "format_mismatch"
	KindPackFull          ErrorKind = "pack_full"
	KindTimeout           ErrorKind = "timeout"
	KindBusy              ErrorKind = "busy"
	KindInternal          ErrorKind = "internal"
)

// Error is the structured error surfaced to the transport: a kind plus a
// human-readable message. Use errors.As() to extract it, errors.Is() to
// match the underlying sentinel.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("stickerforge: %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying sentinel for errors.Is() support.
func (e *Error) Unwrap() error { return e.cause }

// NewError creates a structured Error wrapping the sentinel that matches
// kind, so errors.Is keeps working across the chain.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		cause:   sentinelFor(kind),
	}
}

// WrapError creates a structured Error preserving cause in the chain.
// The kind is detected from cause when it wraps a known sentinel.
func WrapError(cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    KindOf(cause),
		Message: fmt.Sprintf(format, args...),
		cause:   cause,
	}
}

// KindOf maps any error to its ErrorKind. Unknown errors map to
// KindInternal.
func KindOf(err error) ErrorKind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrLayoutOverflow):
		return KindLayoutOverflow
	case errors.Is(err, ErrCompressionBudget):
		return KindCompressionBudget
	case errors.Is(err, ErrCompliance):
		return KindCompliance
	case errors.Is(err, ErrDuplicateName):
		return KindDuplicateName
	case errors.Is(err, ErrPackNotFound):
		return KindPackNotFound
	case errors.Is(err, ErrFormatMismatch):
		return KindFormatMismatch
	case errors.Is(err, ErrPackFull):
		return KindPackFull
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrBusy):
		return KindBusy
	}
	return KindInternal
}

func sentinelFor(kind ErrorKind) error {
	switch kind {
	case KindUnsupportedFormat:
		return ErrUnsupportedFormat
	case KindDecode:
		return ErrDecode
	case KindLayoutOverflow:
		return ErrLayoutOverflow
	case KindCompressionBudget:
		return ErrCompressionBudget
	case KindCompliance:
		return ErrCompliance
	case KindDuplicateName:
		return ErrDuplicateName
	case KindPackNotFound:
		return ErrPackNotFound
	case KindFormatMismatch:
		return ErrFormatMismatch
	case KindPackFull:
		return ErrPackFull
	case KindTimeout:
		return ErrTimeout
	case KindBusy:
		return ErrBusy
	}
	return nil
}
