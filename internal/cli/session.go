package cli

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/litemap/internal/engine"
	"github.com/roach88/litemap/internal/store"
)

// session is one command's pool and the connection it works on.
type session struct {
	pool   *engine.Pool
	conn   *engine.Conn
	logger *zap.Logger
}

// newFormatter builds the formatter for cmd. Verbose logs go to stderr to
// keep JSON output parseable.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// newLogger writes human-readable debug logs when verbose and JSON
// warnings otherwise.
func newLogger(verbose bool, w io.Writer) *zap.Logger {
	if verbose {
		enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zapcore.DebugLevel))
	}
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zapcore.WarnLevel))
}

// connectionOptions reads --config when set; dbPath always wins over the
// path in the file.
func connectionOptions(opts *RootOptions, dbPath string) (store.Options, error) {
	if opts.Config == "" {
		return store.DefaultOptions(dbPath), nil
	}
	so, err := store.LoadOptions(opts.Config)
	if err != nil {
		return store.Options{}, err
	}
	so.Path = dbPath
	return so, nil
}

// openSession opens dbPath through a fresh pool. Errors are reported
// through f and returned as ExitErrors.
func openSession(ctx context.Context, opts *RootOptions, f *OutputFormatter, dbPath string) (*session, error) {
	so, err := connectionOptions(opts, dbPath)
	if err != nil {
		return nil, f.Fail(ErrCodeConfig, err)
	}

	logger := newLogger(opts.Verbose, f.GetErrWriter())
	so.Logger = logger
	pool := engine.NewPool(engine.PoolOptions{Logger: logger})

	f.VerboseLog("Opening %s", dbPath)
	conn, err := pool.Open(ctx, so)
	if err != nil {
		_ = pool.Close(context.Background())
		_ = logger.Sync()
		return nil, f.Fail(ErrCodeGeneric, err)
	}
	return &session{pool: pool, conn: conn, logger: logger}, nil
}

// Close drains the connection's queue and closes the pool.
func (s *session) Close() error {
	err := s.pool.Close(context.Background())
	_ = s.logger.Sync()
	return err
}

// commandContext returns the command's context, or Background when the
// command runs without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// parseParams turns positional arguments into bound values. Unless
// asText is set, integers bind as int64, decimals as float64 and the bare
// word NULL as null; everything else binds as text.
func parseParams(args []string, asText bool) []any {
	params := make([]any, len(args))
	for i, a := range args {
		params[i] = parseParam(a, asText)
	}
	return params
}

func parseParam(s string, asText bool) any {
	if asText {
		return s
	}
	if strings.EqualFold(s, "null") {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if !strings.ContainsAny(s, "0123456789") {
		return s
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
