// Package store persists one row of metric values per analyzed creative.
// The store is append-only with a single writer per run: a key may
// accumulate superseded rows as history, and readers always see the latest
// row for a key.
package store

import "context"

// Row maps metric labels to extracted string values. A complete row carries
// every schema label; missing entries read as empty strings.
type Row map[string]string

// Store is the tabular persistence interface for analysis results.
type Store interface {
	// ReadRow returns the latest row for key, or ok=false if the key has
	// never been written.
	ReadRow(ctx context.Context, key string) (Row, bool, error)

	// AppendRow appends a new row for key. Existing rows for the same key
	// are superseded, not overwritten.
	AppendRow(ctx context.Context, key string, row Row) error

	// KeyExists reports whether any row exists for key.
	KeyExists(ctx context.Context, key string) (bool, error)

	// Keys returns all distinct keys in first-written order.
	Keys(ctx context.Context) ([]string, error)

	Close() error
}
