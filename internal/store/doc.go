// Package store provides the synchronous SQLite connection behind litemap.
//
// A Conn owns exactly one native connection and one prepared-statement
// cache. Every operation blocks the calling goroutine until the engine
// returns. A Conn must not be used from several goroutines at once; the
// engine package serializes access per database path for async callers.
//
// # Opening
//
// Open applies, in order:
//   - PreOpenActions
//   - PRAGMA key, when EncryptionKey is set (ignored by engines built
//     without encryption support)
//   - PostOpenActions
//   - busy_timeout, journal_mode and synchronous (skipped for read-only
//     connections), and foreign_keys=ON
//
// # Drivers
//
// The default build uses github.com/mattn/go-sqlite3 (cgo). Building with
// -tags purego switches to modernc.org/sqlite. Both register a native error
// classifier with dberr so busy, constraint and connection failures carry
// the same codes under either driver.
//
// # Statement Cache
//
// Prepared statements are kept in an LRU keyed by (TableMap, operation,
// SQL text). Evicted statements are finalized immediately; Close finalizes
// the rest.
package store
