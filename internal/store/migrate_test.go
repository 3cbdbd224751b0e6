package store

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvoice/creative-cli/internal/extract"
	"github.com/mvoice/creative-cli/internal/schema"
)

func writeLegacy(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "output.csv")

	f, err := os.Create(path)
	require.NoError(t, err)
	w := csv.NewWriter(f)
	require.NoError(t, w.Write([]string{"url", "message"}))
	for _, r := range rows {
		require.NoError(t, w.Write(r))
	}
	w.Flush()
	require.NoError(t, w.Error())
	require.NoError(t, f.Close())
	return path
}

func TestMigrateLegacy(t *testing.T) {
	path := writeLegacy(t, [][]string{
		{"https://www.tiktok.com/@a/video/1", "Business Unit: Beauty Category: Skincare"},
		{"https://www.instagram.com/reel/b", "Brand: AICE Platform: Instagram"},
	})
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	migrated, err := MigrateLegacy(path, extract.Extract)
	require.NoError(t, err)
	assert.Equal(t, 2, migrated)

	// Backup equals the pre-migration content.
	backup, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, before, backup)

	// Rewritten file has the full header and preserved row count.
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, append([]string{KeyColumn}, schema.Labels()...), records[0])

	// Extracted values landed in their columns.
	st, err := NewCSV(path)
	require.NoError(t, err)
	row, found, err := st.ReadRow(context.Background(), "https://www.tiktok.com/@a/video/1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Beauty", row["Business Unit"])
	assert.Equal(t, "Skincare", row["Category"])
}

func TestMigrateSkipsModernFile(t *testing.T) {
	st, err := NewCSV(filepath.Join(t.TempDir(), "output.csv"))
	require.NoError(t, err)
	require.NoError(t, st.AppendRow(context.Background(), "a", Row{"Brand": "Dove"}))

	migrated, err := MigrateLegacy(st.Path(), extract.Extract)
	require.NoError(t, err)
	assert.Zero(t, migrated)

	_, err = os.Stat(st.Path() + ".bak")
	assert.True(t, os.IsNotExist(err))
}
