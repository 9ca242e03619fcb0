package blueprint

import (
	"context"
	"errors"

	errorslib "github.com/goliatone/go-errors"
)

// ErrorKind defines print workflow error kinds.
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation"
	KindEncoding         ErrorKind = "encoding"
	KindUnsupportedMedia ErrorKind = "unsupported_media"
	KindUnauthorized     ErrorKind = "unauthorized"
	KindNotFound         ErrorKind = "not_found"
	KindConflict         ErrorKind = "conflict"
	KindQuota            ErrorKind = "quota_exceeded"
	KindExternal         ErrorKind = "external"
	KindTimeout          ErrorKind = "timeout"
	KindCanceled         ErrorKind = "canceled"
	KindInternal         ErrorKind = "internal"
	KindNotImpl          ErrorKind = "not_implemented"
)

// PrintError wraps errors with a kind.
type PrintError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *PrintError) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *PrintError) Unwrap() error {
	return e.Err
}

// NewError creates a new print workflow error.
func NewError(kind ErrorKind, msg string, err error) *PrintError {
	return &PrintError{Kind: kind, Msg: msg, Err: err}
}

// AsGoError maps an error into a go-errors error.
func AsGoError(err error) *errorslib.Error {
	if err == nil {
		return nil
	}

	var ge *errorslib.Error
	if errors.As(err, &ge) {
		return ge
	}

	kind := KindInternal
	msg := err.Error()

	var printErr *PrintError
	if errors.As(err, &printErr) {
		kind = printErr.Kind
		if printErr.Msg != "" {
			msg = printErr.Msg
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		kind = KindCanceled
	}

	switch kind {
	case KindValidation:
		return errorslib.New(msg, errorslib.CategoryValidation).WithTextCode("validation")
	case KindEncoding:
		return errorslib.New(msg, errorslib.CategoryInternal).WithTextCode("encoding")
	case KindUnsupportedMedia:
		return errorslib.New(msg, errorslib.CategoryValidation).WithTextCode("unsupported_media")
	case KindUnauthorized:
		return errorslib.New(msg, errorslib.CategoryAuthz).WithTextCode("unauthorized")
	case KindNotFound:
		return errorslib.New(msg, errorslib.CategoryNotFound).WithTextCode("not_found")
	case KindConflict:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("conflict")
	case KindQuota:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("quota_exceeded")
	case KindExternal:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("external")
	case KindTimeout:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("timeout")
	case KindCanceled:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("canceled")
	case KindNotImpl:
		return errorslib.New(msg, errorslib.CategoryOperation).WithTextCode("not_implemented")
	default:
		return errorslib.New(msg, errorslib.CategoryInternal).WithTextCode("internal")
	}
}

// KindFromError maps an error to its print workflow error kind. Errors that
// already went through AsGoError carry the kind in their text code.
func KindFromError(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var printErr *PrintError
	if errors.As(err, &printErr) {
		return printErr.Kind
	}

	var ge *errorslib.Error
	if errors.As(err, &ge) {
		if kind := ErrorKind(ge.TextCode); knownKind(kind) {
			return kind
		}
		switch ge.Category {
		case errorslib.CategoryValidation:
			return KindValidation
		case errorslib.CategoryAuthz:
			return KindUnauthorized
		case errorslib.CategoryNotFound:
			return KindNotFound
		case errorslib.CategoryExternal:
			return KindExternal
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}

	return KindInternal
}

func knownKind(kind ErrorKind) bool {
	switch kind {
	case KindValidation, KindEncoding, KindUnsupportedMedia, KindUnauthorized,
		KindNotFound, KindConflict, KindQuota, KindExternal, KindTimeout,
		KindCanceled, KindInternal, KindNotImpl:
		return true
	}
	return false
}

// UserMessage returns the user-facing message for an error. Unsupported
// source files get a distinct message; every other failure stays generic so
// the user retries without losing entered options.
func UserMessage(err error) string {
	switch KindFromError(err) {
	case KindUnsupportedMedia:
		return "This file type is not supported."
	case KindUnauthorized:
		return "You are not authorized to print. Check your ID and training."
	case KindQuota:
		return "Print limit reached. Ask a staff member for help."
	default:
		return "Something went wrong rendering the image. Please try again."
	}
}
