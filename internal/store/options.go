package store

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/roach88/litemap/internal/schema"
)

const (
	// DefaultBusyTimeout bounds how long busy or locked statements are retried.
	DefaultBusyTimeout = 5 * time.Second

	// DefaultStatementCacheSize is the prepared statement LRU capacity.
	DefaultStatementCacheSize = 64

	// DefaultJournalMode is applied to writable connections.
	DefaultJournalMode = "WAL"
)

// Options configures Open.
type Options struct {
	// Path is the database file, or ":memory:".
	Path string

	// ReadOnly opens the file read-only. Writes fail with a connection error.
	ReadOnly bool

	// CreateIfMissing creates the file when it does not exist. Without it,
	// opening a missing file is a connection error.
	CreateIfMissing bool

	// EncryptionKey is forwarded to the engine as PRAGMA key.
	EncryptionKey []byte

	// PreOpenActions run before the key is applied.
	PreOpenActions []string

	// PostOpenActions run after the key is applied.
	PostOpenActions []string

	// BusyTimeout bounds retries of busy or locked statements.
	// Zero means DefaultBusyTimeout.
	BusyTimeout time.Duration

	// StatementCacheSize is the prepared statement LRU capacity.
	// Zero means DefaultStatementCacheSize.
	StatementCacheSize int

	// JournalMode is applied to writable connections. Empty means WAL.
	JournalMode string

	// Registry resolves entity mappings. Nil means schema.Default().
	Registry *schema.Registry

	// Logger receives statement-level debug logs. Nil means no logging.
	Logger *zap.Logger
}

// DefaultOptions returns read-write options that create path if needed.
func DefaultOptions(path string) Options {
	return Options{Path: path, CreateIfMissing: true}
}

func (o Options) withDefaults() Options {
	if o.BusyTimeout <= 0 {
		o.BusyTimeout = DefaultBusyTimeout
	}
	if o.StatementCacheSize <= 0 {
		o.StatementCacheSize = DefaultStatementCacheSize
	}
	if o.JournalMode == "" {
		o.JournalMode = DefaultJournalMode
	}
	if o.Registry == nil {
		o.Registry = schema.Default()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// fileOptions is the YAML form of Options.
type fileOptions struct {
	Path               string   `yaml:"path"`
	ReadOnly           bool     `yaml:"read_only"`
	CreateIfMissing    *bool    `yaml:"create_if_missing"`
	Passphrase         string   `yaml:"passphrase"`
	Salt               string   `yaml:"salt"`
	PreOpenActions     []string `yaml:"pre_open_actions"`
	PostOpenActions    []string `yaml:"post_open_actions"`
	BusyTimeoutMS      int      `yaml:"busy_timeout_ms"`
	StatementCacheSize int      `yaml:"statement_cache_size"`
	JournalMode        string   `yaml:"journal_mode"`
}

// ParseOptions decodes a YAML options document:
//
//	path: data/app.db
//	read_only: false
//	create_if_missing: true   # default true
//	passphrase: s3cret        # derives EncryptionKey with DeriveKey
//	salt: app-salt
//	pre_open_actions: ["PRAGMA cipher_compatibility = 4"]
//	busy_timeout_ms: 2000
//	statement_cache_size: 128
//	journal_mode: WAL
func ParseOptions(data []byte) (Options, error) {
	var f fileOptions
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Options{}, fmt.Errorf("parse options: %w", err)
	}
	opts := Options{
		Path:               f.Path,
		ReadOnly:           f.ReadOnly,
		CreateIfMissing:    f.CreateIfMissing == nil || *f.CreateIfMissing,
		PreOpenActions:     f.PreOpenActions,
		PostOpenActions:    f.PostOpenActions,
		BusyTimeout:        time.Duration(f.BusyTimeoutMS) * time.Millisecond,
		StatementCacheSize: f.StatementCacheSize,
		JournalMode:        f.JournalMode,
	}
	if f.Passphrase != "" {
		opts.EncryptionKey = DeriveKey([]byte(f.Passphrase), []byte(f.Salt))
	}
	return opts, nil
}

// LoadOptions reads a YAML options file.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("load options: %w", err)
	}
	return ParseOptions(data)
}
