//go:build !purego

package store

import (
	"errors"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/litemap/internal/dberr"
)

const (
	driverName = "sqlite3"
	driverType = "cgo"
)

func init() {
	dberr.SetClassifier(classifyNative)
}

// classifyNative maps go-sqlite3 result codes to error codes.
func classifyNative(err error) dberr.Code {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return ""
	}
	switch se.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		return dberr.CodeBusy
	case sqlite3.ErrConstraint:
		return dberr.CodeConstraint
	case sqlite3.ErrCantOpen, sqlite3.ErrNotADB, sqlite3.ErrReadonly, sqlite3.ErrPerm:
		return dberr.CodeConnection
	default:
		return dberr.CodeExecution
	}
}
