package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/litemap/internal/dberr"
)

func TestExitError(t *testing.T) {
	err := NewExitError(ExitCommandError, "database not found")
	assert.Equal(t, "database not found", err.Error())
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	wrapped := WrapExitError(ExitFailure, "statement failed", errors.New("boom"))
	assert.Equal(t, "statement failed: boom", wrapped.Error())
	assert.EqualError(t, errors.Unwrap(wrapped), "boom")

	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.JobSuccess("job-1", ExecResult{Affected: 3})
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "job-1", resp.JobID)
	assert.Equal(t, map[string]any{"affected": float64(3)}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E001", "test error", map[string]string{"sql": "SELECT 1"})
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E001", resp.Error.Code)
	assert.NotNil(t, resp.Error.Details)
	assert.Empty(t, resp.JobID)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.JobSuccess("job-1", "done")
	require.NoError(t, err)
	assert.Equal(t, "done\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("CONSTRAINT", "UNIQUE constraint failed", map[string]any{"table": "stocks"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [CONSTRAINT]")
	assert.Contains(t, buf.String(), "UNIQUE constraint failed")
	assert.NotContains(t, buf.String(), "Details:")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	err := formatter.Error("CONSTRAINT", "UNIQUE constraint failed", map[string]any{"table": "stocks"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Details:")
	assert.Contains(t, buf.String(), "stocks")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: errOut,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Opening %s", "app.db")

			assert.Empty(t, out.String())
			if tt.wantLog {
				assert.Contains(t, errOut.String(), "Opening app.db")
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestOutputFormatter_Fail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"constraint", dberr.NewConstraintError("stocks", "Id", "cannot update without primary key"), "CONSTRAINT", ExitFailure},
		{"not_found", dberr.NewNotFound("", "scalar query returned no rows"), "NOT_FOUND", ExitFailure},
		{"connection", dberr.NewConnectionError("cannot open app.db", nil), "CONNECTION", ExitCommandError},
		{"schema", dberr.NewSchemaError("stocks", "", "no mapped columns"), "SCHEMA_DEFINITION", ExitCommandError},
		{"other", errors.New("bad file"), "E003", ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "json", Writer: buf}

			err := formatter.Fail(ErrCodeConfig, tt.err)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantCode)

			var resp CLIResponse
			require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestErrorDetails(t *testing.T) {
	e := &dberr.Error{
		Code:       dberr.CodeConstraint,
		Message:    "UNIQUE constraint failed: stocks.Symbol",
		Table:      "stocks",
		SQL:        `INSERT INTO "stocks" ("Symbol") VALUES (?)`,
		ParamCount: 1,
	}
	assert.Equal(t, map[string]any{
		"table":       "stocks",
		"sql":         `INSERT INTO "stocks" ("Symbol") VALUES (?)`,
		"param_count": 1,
	}, errorDetails(e))

	assert.Nil(t, errorDetails(&dberr.Error{Code: dberr.CodeBusy, Message: "locked"}))
}
