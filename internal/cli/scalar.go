package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/litemap/internal/engine"
)

// NewScalarCommand creates the scalar command.
func NewScalarCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatementOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scalar <db> <sql> [params...]",
		Short: "Print the first column of the first row",
		Long: `Run a query and print the first column of its first row.

A query that returns no rows fails with NOT_FOUND.

Example:
  litemap scalar app.db 'SELECT count(*) FROM stocks'`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScalar(opts, args, cmd)
		},
	}
	addStatementFlags(cmd, opts)

	return cmd
}

// ScalarResult is the JSON payload of scalar.
type ScalarResult struct {
	Value any `json:"value"`
}

func runScalar(opts *StatementOptions, args []string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd)

	s, err := openSession(ctx, opts.RootOptions, formatter, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	h := engine.ExecuteScalarAsync[any](ctx, s.conn, args[1], parseParams(args[2:], opts.TextParams)...)
	v, err := h.Wait(ctx)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, err)
	}

	if formatter.Format == "json" {
		return formatter.JobSuccess(h.ID(), ScalarResult{Value: v})
	}
	fmt.Fprintln(formatter.Writer, formatValue(v))
	return nil
}
