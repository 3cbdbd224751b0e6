// Package gate decides whether a work item still needs analysis. The check
// runs twice per item, once when filtering the batch and once immediately
// before upload, because a prior partial run may have appended rows in
// between.
package gate

import (
	"context"
	"strings"

	"github.com/mvoice/creative-cli/internal/schema"
	"github.com/mvoice/creative-cli/internal/store"
)

// NeedsProcessing reports whether key must be (re)processed: true when no
// row exists, or when the existing row carries no real data: every schema
// field empty or merely echoing its own column label, a UI artifact where
// the table header was captured instead of values.
func NeedsProcessing(ctx context.Context, st store.Store, key string) (bool, error) {
	row, ok, err := st.ReadRow(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return rowIsEmptyOrHeader(row), nil
}

func rowIsEmptyOrHeader(row store.Row) bool {
	for _, label := range schema.Labels() {
		val := strings.TrimSpace(row[label])
		if val != "" && !strings.EqualFold(val, label) {
			return false
		}
	}
	return true
}
