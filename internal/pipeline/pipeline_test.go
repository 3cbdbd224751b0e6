package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvoice/creative-cli/internal/browser"
	"github.com/mvoice/creative-cli/internal/classify"
	"github.com/mvoice/creative-cli/internal/config"
	"github.com/mvoice/creative-cli/internal/controller"
	"github.com/mvoice/creative-cli/internal/download"
	"github.com/mvoice/creative-cli/internal/store"
	"github.com/mvoice/creative-cli/internal/worklist"
)

type instantClock struct{}

func (instantClock) Sleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

// fakeSurface plays both roles: downloader site and chat surface. The chat
// response is a complete two-column table so the controller accepts on the
// first attempt.
type fakeSurface struct {
	response  string
	navigated []string
	submitted []string
}

func (f *fakeSurface) Navigate(ctx context.Context, target string) error {
	f.navigated = append(f.navigated, target)
	return nil
}

func (f *fakeSurface) SubmitArtifact(ctx context.Context, path string) error {
	f.submitted = append(f.submitted, path)
	return nil
}

func (f *fakeSurface) SubmitText(context.Context, string) error { return nil }

func (f *fakeSurface) PollText(context.Context) (string, error) {
	return f.response, nil
}

func (f *fakeSurface) Fill(context.Context, browser.SelectorSet, string) error { return nil }
func (f *fakeSurface) Click(context.Context, browser.SelectorSet) error        { return nil }
func (f *fakeSurface) ExtractText(context.Context, browser.SelectorSet) (string, error) {
	return "", nil
}
func (f *fakeSurface) DismissOverlays(context.Context) error          { return nil }
func (f *fakeSurface) LoginWallPresent(context.Context) (bool, error) { return false, nil }

func (f *fakeSurface) AwaitDownload(ctx context.Context, dest string, _ time.Duration) error {
	return os.WriteFile(dest, []byte("video"), 0o644)
}

func (f *fakeSurface) SessionTokenPresent() bool                 { return false }
func (f *fakeSurface) PersistSessionToken(context.Context) error { return nil }
func (f *fakeSurface) LoadSessionToken(context.Context) error    { return nil }
func (f *fakeSurface) Close() error                              { return nil }

func completeTable() string {
	return "| Brand | Dove |\n" + strings.Repeat("detail ", 300) + "\nTarget Surprise: No"
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Chat: config.ChatConfig{URL: "https://chat.example.test"},
		Pipeline: config.PipelineConfig{
			ItemDelaySecs: 1,
		},
	}
}

func newPipeline(t *testing.T, cfg *config.Config, surf *fakeSurface) (*Pipeline, *store.CSVStore) {
	t.Helper()
	st, err := store.NewCSV(filepath.Join(t.TempDir(), "output.csv"))
	require.NoError(t, err)

	sel := browser.DefaultSelectors()
	dl := download.New(surf, sel, download.Config{
		SettleDelay:     time.Millisecond,
		DownloadTimeout: time.Second,
		RetryBackoff:    time.Millisecond,
	})
	ctrl := controller.New(controller.Config{Clock: instantClock{}},
		classify.New(classify.Config{MaxPolls: 10}))

	return New(cfg, surf, sel, st, dl, ctrl), st
}

func TestDownloadPhaseFetchesOnlyUnprocessed(t *testing.T) {
	cfg := testConfig(t)
	surf := &fakeSurface{}
	p, st := newPipeline(t, cfg, surf)
	ctx := context.Background()

	items := worklist.Items([]string{
		"https://www.tiktok.com/@b/video/1",
		"https://www.tiktok.com/@b/video/2",
	}, t.TempDir())

	// The second item already has an accepted row.
	require.NoError(t, st.AppendRow(ctx, items[1].URL, store.Row{"Brand": "Dove"}))

	stats, err := p.DownloadPhase(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 1, stats.Skipped)
	assert.FileExists(t, items[0].ArtifactPath)
}

func TestAnalyzePhaseHappyPath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.DeleteArtifacts = true
	surf := &fakeSurface{response: completeTable()}
	p, st := newPipeline(t, cfg, surf)
	ctx := context.Background()

	items := worklist.Items([]string{"https://www.tiktok.com/@b/video/1"}, t.TempDir())
	require.NoError(t, os.WriteFile(items[0].ArtifactPath, []byte("video"), 0o644))

	stats, partial, err := p.AnalyzePhase(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Zero(t, partial)
	assert.Zero(t, stats.Failed)

	row, found, err := st.ReadRow(ctx, items[0].URL)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Dove", row["Brand"])

	// Chat surface saw one fresh navigation and the artifact upload.
	assert.Equal(t, []string{cfg.Chat.URL}, surf.navigated)
	assert.Equal(t, []string{items[0].ArtifactPath}, surf.submitted)

	// Artifact reclaimed after acceptance.
	assert.NoFileExists(t, items[0].ArtifactPath)
}

func TestAnalyzePhaseSkipsMissingArtifact(t *testing.T) {
	cfg := testConfig(t)
	surf := &fakeSurface{response: completeTable()}
	p, _ := newPipeline(t, cfg, surf)

	items := worklist.Items([]string{"https://www.tiktok.com/@b/video/1"}, t.TempDir())

	stats, _, err := p.AnalyzePhase(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Empty(t, surf.navigated)
}

func TestSummaryString(t *testing.T) {
	s := Summary{
		Download: PhaseStats{Succeeded: 2, Failed: 1},
		Analyze:  PhaseStats{Succeeded: 2, Skipped: 1},
		Partial:  1,
		Elapsed:  90 * time.Second,
	}
	out := s.String()
	assert.Contains(t, out, "download: 2 ok, 1 failed, 0 skipped")
	assert.Contains(t, out, "analyze: 2 ok (1 partial), 0 failed, 1 skipped")
}
