package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers and the CLI.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfig
	KindValidation
	KindTransport
	KindRevert
	KindRangeTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindRevert:
		return "revert"
	case KindRangeTooLarge:
		return "range_too_large"
	default:
		return "unknown"
	}
}

// Error is a classified error with the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New wraps err with a kind. A nil err yields nil.
func New(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Config reports unknown networks or missing settings.
func Config(format string, args ...interface{}) error {
	return &Error{Kind: KindConfig, Err: fmt.Errorf(format, args...)}
}

// Validation reports malformed caller input.
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the outermost classified kind in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
// RangeTooLarge also counts as a transport failure.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind || (kind == KindTransport && e.Kind == KindRangeTooLarge) {
			return true
		}
		err = e.Err
	}
	return false
}
