// Package common - Error taxonomy shared by every pipeline stage.
package common

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure.
type ErrorKind int

const (
	// KindUnknown is returned by KindOf for errors outside the taxonomy.
	KindUnknown ErrorKind = iota
	// KindNetwork is a fetch failure: bad URL, connect failure, timeout or non-2xx status.
	KindNetwork
	// KindDecode is a body that could not be decoded as an image.
	KindDecode
	// KindInference is a forward pass failure or a model/class map mismatch.
	KindInference
	// KindConfiguration is an unknown dataset, bad thresholds or a missing/invalid weights URL.
	KindConfiguration
)

// String returns the name of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "NetworkError"
	case KindDecode:
		return "DecodeError"
	case KindInference:
		return "InferenceError"
	case KindConfiguration:
		return "ConfigurationError"
	default:
		return "UnknownError"
	}
}

// Error is a classified failure raised by one operation.
type Error struct {
	// Kind is the taxonomy bucket.
	Kind ErrorKind
	// Op names the operation that failed, e.g. "fetch" or "load model".
	Op string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NetworkError wraps err as a KindNetwork failure of op.
func NetworkError(op string, err error) error {
	return &Error{Kind: KindNetwork, Op: op, Err: err}
}

// DecodeError wraps err as a KindDecode failure of op.
func DecodeError(op string, err error) error {
	return &Error{Kind: KindDecode, Op: op, Err: err}
}

// InferenceError wraps err as a KindInference failure of op.
func InferenceError(op string, err error) error {
	return &Error{Kind: KindInference, Op: op, Err: err}
}

// ConfigurationError wraps err as a KindConfiguration failure of op.
func ConfigurationError(op string, err error) error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}

// KindOf returns the kind of the outermost classified error in the chain.
//
// Arguments:
//   - err: The error to classify.
//
// Returns:
//   - ErrorKind: KindUnknown when err is nil or carries no classification.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
