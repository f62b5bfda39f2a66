package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/litemap/internal/compiler"
	"github.com/roach88/litemap/internal/engine"
	"github.com/roach88/litemap/internal/store"
)

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <db> <tables.cue>",
		Short: "Create tables and indexes from CUE declarations",
		Long: `Create every table declared in a CUE file, with its indexes.

Tables that already exist are left as they are; missing indexes are
still created. The file is compiled before the database is opened, so a
bad declaration never touches the database.

Example:
  litemap create app.db schema/tables.cue`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

// CreateResult reports one table of a create run.
type CreateResult struct {
	Table   string `json:"table"`
	Created bool   `json:"created"`
}

func runCreate(opts *RootOptions, dbPath, declPath string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts, cmd)

	tables, err := compiler.LoadFile(declPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return formatter.Fail(ErrCodeNotFound, err)
		}
		return formatter.Fail(ErrCodeDeclaration, err)
	}
	formatter.VerboseLog("Compiled %d table(s) from %s", len(tables), declPath)

	s, err := openSession(ctx, opts, formatter, dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	// Submit everything up front; the queue runs the creates in order.
	handles := make([]*engine.Handle[store.CreateResult], len(tables))
	for i, tm := range tables {
		handles[i] = engine.CreateTableMapAsync(ctx, s.conn, tm)
	}

	results := make([]CreateResult, len(tables))
	for i, h := range handles {
		res, err := h.Wait(ctx)
		if err != nil {
			return formatter.Fail(ErrCodeGeneric, err)
		}
		results[i] = CreateResult{Table: tables[i].Name(), Created: res.Created}
	}

	if formatter.Format == "json" {
		return formatter.Success(results)
	}
	for _, r := range results {
		state := "exists"
		if r.Created {
			state = "created"
		}
		fmt.Fprintf(formatter.Writer, "%-8s %s\n", state, r.Table)
	}
	return nil
}
