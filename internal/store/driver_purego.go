//go:build purego

package store

import (
	"errors"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/roach88/litemap/internal/dberr"
)

const (
	driverName = "sqlite"
	driverType = "purego"
)

func init() {
	dberr.SetClassifier(classifyNative)
}

// classifyNative maps modernc result codes to error codes. Extended codes
// are reduced to their primary code first.
func classifyNative(err error) dberr.Code {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return ""
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return dberr.CodeBusy
	case sqlite3.SQLITE_CONSTRAINT:
		return dberr.CodeConstraint
	case sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_READONLY, sqlite3.SQLITE_PERM:
		return dberr.CodeConnection
	default:
		return dberr.CodeExecution
	}
}
