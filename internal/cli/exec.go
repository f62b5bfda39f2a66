package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/litemap/internal/engine"
)

// StatementOptions holds flags shared by the statement commands.
type StatementOptions struct {
	*RootOptions
	TextParams bool
}

func addStatementFlags(cmd *cobra.Command, opts *StatementOptions) {
	cmd.Flags().BoolVar(&opts.TextParams, "text-params", false, "bind every parameter as text")
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatementOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <db> <sql> [params...]",
		Short: "Execute a statement and report affected rows",
		Long: `Execute one SQL statement with positional parameters.

Parameters bind in order to ? placeholders. Integers bind as integers,
decimals as reals and NULL as null; use --text-params to bind everything
as text.

Example:
  litemap exec app.db 'INSERT INTO stocks (Symbol) VALUES (?)' AAPL`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args, cmd)
		},
	}
	addStatementFlags(cmd, opts)

	return cmd
}

// ExecResult is the JSON payload of exec.
type ExecResult struct {
	Affected int64 `json:"affected"`
}

func runExec(opts *StatementOptions, args []string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd)

	s, err := openSession(ctx, opts.RootOptions, formatter, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	h := engine.ExecuteAsync(ctx, s.conn, args[1], parseParams(args[2:], opts.TextParams)...)
	n, err := h.Wait(ctx)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, err)
	}

	if formatter.Format == "json" {
		return formatter.JobSuccess(h.ID(), ExecResult{Affected: n})
	}
	fmt.Fprintf(formatter.Writer, "%d row(s) affected\n", n)
	return nil
}
