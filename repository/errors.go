package repository

import (
	stderrors "errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeRecordNotFound = "RECORD_NOT_FOUND"
	textCodeForbidden      = "FORBIDDEN"
)

// ErrRecordNotFound is returned when no row matches. Callers map it to 404.
var ErrRecordNotFound = goerrors.New("record not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeRecordNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrForbidden is returned when a row exists but the actor's access scope
// filters it out.
var ErrForbidden = goerrors.New("access denied", goerrors.CategoryAuthz).
	WithTextCode(textCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// IsRecordNotFound reports whether err means the row does not exist.
func IsRecordNotFound(err error) bool {
	return stderrors.Is(err, ErrRecordNotFound)
}

// IsForbidden reports whether err means the actor may not see the row.
func IsForbidden(err error) bool {
	return stderrors.Is(err, ErrForbidden)
}
