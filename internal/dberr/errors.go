// Package dberr defines the error taxonomy shared by every litemap layer.
//
// All failures surface as *Error with a Code. Callers branch on the code
// through the IsXxx helpers, which use errors.As so wrapped errors still
// match:
//
//	if _, err := store.Update(ctx, conn, &stock); dberr.IsConstraintError(err) {
//	    // key missing, uniqueness or NOT NULL violated
//	}
//
// Execution errors carry the SQL text and the number of bound parameters.
// Parameter values are never included so bound data does not leak into logs.
package dberr

import (
	"errors"
	"fmt"
	"strings"
)

// Code categorizes an Error.
type Code string

const (
	// CodeSchemaDefinition marks a malformed entity declaration, detected the
	// first time the type's TableMap is built.
	CodeSchemaDefinition Code = "SCHEMA_DEFINITION"

	// CodeTranslation marks a predicate or ordering shape the translator
	// does not support.
	CodeTranslation Code = "TRANSLATION"

	// CodeConstraint marks a missing primary key on update/delete, a max
	// length violation, or a constraint violation reported by the engine.
	CodeConstraint Code = "CONSTRAINT"

	// CodeBusy marks lock contention that outlasted the busy timeout.
	CodeBusy Code = "BUSY"

	// CodeConnection marks open, close and path failures.
	CodeConnection Code = "CONNECTION"

	// CodeNotFound marks a First/Get style call that matched no row.
	CodeNotFound Code = "NOT_FOUND"

	// CodeCanceled marks an async request removed before it was dispatched.
	CodeCanceled Code = "CANCELED"

	// CodeExecution marks any other failure reported by the engine.
	CodeExecution Code = "EXECUTION"
)

// Error is the single error type returned by litemap.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Table is the affected table, when known.
	Table string

	// Member is the affected entity member, when known.
	Member string

	// Node describes the unsupported expression node (translation errors).
	Node string

	// SQL is the statement that failed (execution errors).
	SQL string

	// ParamCount is the number of parameters bound to SQL.
	ParamCount int

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)

	var ctx []string
	if e.Table != "" {
		ctx = append(ctx, "table="+e.Table)
	}
	if e.Member != "" {
		ctx = append(ctx, "member="+e.Member)
	}
	if e.Node != "" {
		ctx = append(ctx, "node="+e.Node)
	}
	if e.SQL != "" {
		ctx = append(ctx, fmt.Sprintf("sql=%q", e.SQL), fmt.Sprintf("params=%d", e.ParamCount))
	}
	if len(ctx) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(ctx, ", "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsSchemaError reports whether err is a schema definition error.
func IsSchemaError(err error) bool { return is(err, CodeSchemaDefinition) }

// IsTranslationError reports whether err is a translation error.
func IsTranslationError(err error) bool { return is(err, CodeTranslation) }

// IsConstraintError reports whether err is a constraint error.
func IsConstraintError(err error) bool { return is(err, CodeConstraint) }

// IsBusyError reports whether err is a busy or locked error.
func IsBusyError(err error) bool { return is(err, CodeBusy) }

// IsConnectionError reports whether err is a connection error.
func IsConnectionError(err error) bool { return is(err, CodeConnection) }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return is(err, CodeNotFound) }

// IsCanceled reports whether err is a cancellation of a queued request.
func IsCanceled(err error) bool { return is(err, CodeCanceled) }

// NewSchemaError creates a schema definition error for table/member.
func NewSchemaError(table, member, format string, args ...any) *Error {
	return &Error{
		Code:    CodeSchemaDefinition,
		Message: fmt.Sprintf(format, args...),
		Table:   table,
		Member:  member,
	}
}

// NewTranslationError creates a translation error naming the rejected node.
func NewTranslationError(node, format string, args ...any) *Error {
	return &Error{
		Code:    CodeTranslation,
		Message: fmt.Sprintf(format, args...),
		Node:    node,
	}
}

// NewConstraintError creates a constraint error raised before any SQL ran.
func NewConstraintError(table, member, format string, args ...any) *Error {
	return &Error{
		Code:    CodeConstraint,
		Message: fmt.Sprintf(format, args...),
		Table:   table,
		Member:  member,
	}
}

// NewNotFound creates a not-found error for table.
func NewNotFound(table, format string, args ...any) *Error {
	return &Error{
		Code:    CodeNotFound,
		Message: fmt.Sprintf(format, args...),
		Table:   table,
	}
}

// NewConnectionError creates a connection error wrapping err.
func NewConnectionError(message string, err error) *Error {
	return &Error{
		Code:    CodeConnection,
		Message: message,
		Err:     err,
	}
}

// NewCanceled creates the outcome of a queued request that was cancelled.
func NewCanceled(message string, err error) *Error {
	return &Error{
		Code:    CodeCanceled,
		Message: message,
		Err:     err,
	}
}

// WrapExec wraps an engine error with the statement that produced it.
// The code is derived from the native error by the active driver's
// classifier (see Classifier). An err that is already an *Error keeps its
// code and only gains the SQL context.
func WrapExec(sql string, paramCount int, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		if existing.SQL == "" {
			cp := *existing
			cp.SQL = sql
			cp.ParamCount = paramCount
			return &cp
		}
		return err
	}
	return &Error{
		Code:       classify(err),
		Message:    "statement failed",
		SQL:        sql,
		ParamCount: paramCount,
		Err:        err,
	}
}

// Classifier maps a native engine error to a Code. The store package
// installs the classifier of the compiled-in driver.
type Classifier func(error) Code

var classifier Classifier

// SetClassifier installs the native error classifier.
func SetClassifier(c Classifier) {
	classifier = c
}

func classify(err error) Code {
	if classifier != nil {
		if code := classifier(err); code != "" {
			return code
		}
	}
	return CodeExecution
}
