package fault

import (
	"errors"
	"fmt"
)

type faultCode string

const (
	UnknownCode          faultCode = "unknown"
	ValidationCode       faultCode = "validation"
	NotFoundCode         faultCode = "not_found"
	PermissionDeniedCode faultCode = "permission_denied"
	RateLimitedCode      faultCode = "rate_limited"
	RemoteCode           faultCode = "remote"
)

type FieldErrorsMetadata map[string][]string

// Fault is the error value used across the module. It carries a stable
// code, a human-readable message, optional structured metadata, and the
// wrapped original error when there is one.
type Fault struct {
	code     faultCode
	message  string
	metadata any
	original error
}

func New(code faultCode, message string) Fault {
	return Fault{
		code:    code,
		message: message,
	}
}

func (f Fault) WithMetadata(metadata any) Fault {
	e := f
	e.metadata = metadata
	return e
}

func (f Fault) WithOriginal(original error) Fault {
	e := f
	e.original = original
	return e
}

func (f Fault) Code() faultCode {
	return f.code
}

func (f Fault) Message() string {
	return f.message
}

func (f Fault) Metadata() any {
	return f.metadata
}

func (f Fault) Original() error {
	return f.original
}

func (f Fault) Unwrap() error {
	return f.original
}

func (f Fault) Error() string {
	if f.original != nil {
		return fmt.Sprintf("%s: %v", f.message, f.original)
	}
	return f.message
}

// IsCode reports whether err is (or wraps) a Fault with the given code.
func IsCode(err error, code faultCode) bool {
	var f Fault
	return errors.As(err, &f) && f.code == code
}
