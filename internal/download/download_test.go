package download

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvoice/creative-cli/internal/browser"
	"github.com/mvoice/creative-cli/internal/resilience"
	"github.com/mvoice/creative-cli/internal/worklist"
)

// fakeSurface drives the downloader flow without a browser. It records the
// visited targets and materializes the "download" when the link is clicked.
type fakeSurface struct {
	navigated  []string
	filled     []string
	clicks     int
	failClicks int // first N download-link clicks fail transiently
	dest       string
}

func (f *fakeSurface) Navigate(ctx context.Context, target string) error {
	f.navigated = append(f.navigated, target)
	return nil
}

func (f *fakeSurface) Fill(ctx context.Context, set browser.SelectorSet, value string) error {
	f.filled = append(f.filled, value)
	return nil
}

func (f *fakeSurface) Click(ctx context.Context, set browser.SelectorSet) error {
	if set.Name != "downloader submit" {
		f.clicks++
		if f.clicks <= f.failClicks {
			return resilience.NewAutomationFault("click "+set.Name, eris.New("element not found"))
		}
	}
	return nil
}

func (f *fakeSurface) AwaitDownload(ctx context.Context, dest string, timeout time.Duration) error {
	f.dest = dest
	return os.WriteFile(dest, []byte("video"), 0o644)
}

func (f *fakeSurface) SubmitArtifact(context.Context, string) error     { return nil }
func (f *fakeSurface) SubmitText(context.Context, string) error        { return nil }
func (f *fakeSurface) PollText(context.Context) (string, error)        { return "", nil }
func (f *fakeSurface) ExtractText(context.Context, browser.SelectorSet) (string, error) {
	return "", nil
}
func (f *fakeSurface) DismissOverlays(context.Context) error           { return nil }
func (f *fakeSurface) LoginWallPresent(context.Context) (bool, error)  { return false, nil }
func (f *fakeSurface) SessionTokenPresent() bool                       { return false }
func (f *fakeSurface) PersistSessionToken(context.Context) error       { return nil }
func (f *fakeSurface) LoadSessionToken(context.Context) error          { return nil }
func (f *fakeSurface) Close() error                                    { return nil }

func testItem(t *testing.T, rawURL string) worklist.Item {
	t.Helper()
	items := worklist.Items([]string{rawURL}, t.TempDir())
	require.Len(t, items, 1)
	return items[0]
}

func testConfig() Config {
	return Config{
		SettleDelay:     time.Millisecond,
		DownloadTimeout: time.Second,
		RetryBackoff:    time.Millisecond,
	}
}

func TestFetchRoutesTikTokToItsSite(t *testing.T) {
	surf := &fakeSurface{}
	d := New(surf, browser.DefaultSelectors(), testConfig())
	item := testItem(t, "https://www.tiktok.com/@b/video/123")

	fetched, err := d.Fetch(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.Equal(t, []string{"https://snaptik.app"}, surf.navigated)
	assert.Equal(t, []string{item.URL}, surf.filled)
	assert.FileExists(t, item.ArtifactPath)
}

func TestFetchRoutesInstagramToItsSite(t *testing.T) {
	surf := &fakeSurface{}
	d := New(surf, browser.DefaultSelectors(), testConfig())
	item := testItem(t, "https://www.instagram.com/reel/abc/")

	fetched, err := d.Fetch(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.Equal(t, []string{"https://snapvideo.app"}, surf.navigated)
}

func TestFetchSkipsExistingArtifact(t *testing.T) {
	surf := &fakeSurface{}
	d := New(surf, browser.DefaultSelectors(), testConfig())
	item := testItem(t, "https://www.tiktok.com/@b/video/9")
	require.NoError(t, os.WriteFile(item.ArtifactPath, []byte("already here"), 0o644))

	fetched, err := d.Fetch(context.Background(), item)
	require.NoError(t, err)
	assert.False(t, fetched)
	assert.Empty(t, surf.navigated)
}

func TestFetchUnsupportedPlatform(t *testing.T) {
	surf := &fakeSurface{}
	d := New(surf, browser.DefaultSelectors(), testConfig())
	item := worklist.Item{
		URL:          "https://example.com/watch",
		Platform:     worklist.PlatformUnknown,
		ArtifactPath: filepath.Join(t.TempDir(), "unknown_0.mp4"),
	}

	_, err := d.Fetch(context.Background(), item)
	require.Error(t, err)
}

func TestFetchRetriesTransientFaults(t *testing.T) {
	surf := &fakeSurface{failClicks: 1}
	d := New(surf, browser.DefaultSelectors(), testConfig())
	item := testItem(t, "https://www.tiktok.com/@b/video/55")

	fetched, err := d.Fetch(context.Background(), item)
	require.NoError(t, err)
	assert.True(t, fetched)
	assert.Len(t, surf.navigated, 2)
}
