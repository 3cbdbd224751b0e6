package store

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvoice/creative-cli/internal/schema"
)

func TestAppendAndReadRow(t *testing.T) {
	st, err := NewCSV(filepath.Join(t.TempDir(), "output.csv"))
	require.NoError(t, err)
	ctx := context.Background()

	key := "https://www.tiktok.com/@brand/video/1"
	require.NoError(t, st.AppendRow(ctx, key, Row{
		"Brand":    "Dove",
		"Category": "Skincare",
	}))

	row, found, err := st.ReadRow(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Dove", row["Brand"])
	assert.Equal(t, "Skincare", row["Category"])
	assert.Equal(t, "", row["Platform"])

	exists, err := st.KeyExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestReadRowMissingKey(t *testing.T) {
	st, err := NewCSV(filepath.Join(t.TempDir(), "output.csv"))
	require.NoError(t, err)

	_, found, err := st.ReadRow(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLastRowWinsForKey(t *testing.T) {
	st, err := NewCSV(filepath.Join(t.TempDir(), "output.csv"))
	require.NoError(t, err)
	ctx := context.Background()
	key := "https://www.instagram.com/reel/abc"

	require.NoError(t, st.AppendRow(ctx, key, Row{"Brand": "first"}))
	require.NoError(t, st.AppendRow(ctx, key, Row{"Brand": "second"}))

	row, found, err := st.ReadRow(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "second", row["Brand"])
}

func TestHeaderWrittenOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.csv")
	st, err := NewCSV(path)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, st.AppendRow(ctx, "a", Row{}))
	require.NoError(t, st.AppendRow(ctx, "b", Row{}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, append([]string{KeyColumn}, schema.Labels()...), records[0])
}

func TestKeysDedupedFirstSeen(t *testing.T) {
	st, err := NewCSV(filepath.Join(t.TempDir(), "output.csv"))
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, st.AppendRow(ctx, "a", Row{}))
	require.NoError(t, st.AppendRow(ctx, "b", Row{}))
	require.NoError(t, st.AppendRow(ctx, "a", Row{}))

	keys, err := st.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestLegacyFileRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output.csv")
	require.NoError(t, os.WriteFile(path, []byte("url,message\na,hello\n"), 0o644))

	_, err := NewCSV(path)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrLegacyFormat))
}
