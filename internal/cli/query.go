package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/litemap/internal/engine"
	"github.com/roach88/litemap/internal/store"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatementOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <db> <sql> [params...]",
		Short: "Run a query and print its rows",
		Long: `Run a query with positional parameters and print every row.

Text output is a tab-aligned table with a header row. JSON output is a
list of objects keyed by column name.

Example:
  litemap query app.db 'SELECT * FROM stocks WHERE Symbol LIKE ?' 'A%'`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args, cmd)
		},
	}
	addStatementFlags(cmd, opts)

	return cmd
}

func runQuery(opts *StatementOptions, args []string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	formatter := newFormatter(opts.RootOptions, cmd)

	s, err := openSession(ctx, opts.RootOptions, formatter, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	h := engine.QueryRowsAsync(ctx, s.conn, args[1], parseParams(args[2:], opts.TextParams)...)
	rows, err := h.Wait(ctx)
	if err != nil {
		return formatter.Fail(ErrCodeGeneric, err)
	}
	formatter.VerboseLog("%d row(s)", len(rows.Values))

	if formatter.Format == "json" {
		return formatter.JobSuccess(h.ID(), rows.Maps())
	}
	return writeTable(formatter.Writer, rows)
}

// writeTable prints rows as a tab-aligned table.
func writeTable(w io.Writer, rows *store.Rows) error {
	if len(rows.Values) == 0 {
		_, err := fmt.Fprintln(w, "(no rows)")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(rows.Columns, "\t"))
	cells := make([]string, len(rows.Columns))
	for _, vals := range rows.Values {
		for i, v := range vals {
			cells[i] = formatValue(v)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// formatValue renders one column value for text output.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return "x'" + hex.EncodeToString(x) + "'"
	default:
		return fmt.Sprint(x)
	}
}
