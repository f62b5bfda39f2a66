package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/litemap/internal/engine"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tables <db>",
		Short:         "List user tables",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTables(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runTables(opts *RootOptions, dbPath string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts, cmd)

	s, err := openSession(ctx, opts, formatter, dbPath)
	if err != nil {
		return err
	}
	defer s.Close()

	h := engine.TablesAsync(ctx, s.conn)
	tables, err := h.Wait(ctx)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, err)
	}

	if formatter.Format == "json" {
		return formatter.JobSuccess(h.ID(), tables)
	}
	for _, t := range tables {
		fmt.Fprintln(formatter.Writer, t)
	}
	return nil
}
