package models

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so the delivery channel can decide
// between retry, dead-letter, and fatal startup abort without matching
// on error strings.
type ErrorKind string

const (
	// KindMalformedEnvelope marks an undecodable transport or topic
	// envelope. Per-record, retried.
	KindMalformedEnvelope ErrorKind = "malformed_envelope"
	// KindUnsupportedAssetType marks a validator rejection. Per-record,
	// retried until the channel dead-letters the envelope.
	KindUnsupportedAssetType ErrorKind = "unsupported_asset_type"
	// KindMissingConfiguration marks an absent required setting. Fatal
	// at startup, never per-record.
	KindMissingConfiguration ErrorKind = "missing_configuration"
	// KindDownstreamUnavailable marks a store or notification capability
	// error. Per-record, retried.
	KindDownstreamUnavailable ErrorKind = "downstream_unavailable"
)

// Error is a classified pipeline error.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError builds a classified error without a cause.
func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError attaches a kind to an underlying error.
func WrapError(kind ErrorKind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the kind from err, or "" when err carries none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
