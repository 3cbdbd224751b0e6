// Package download fetches creative videos through third-party downloader
// sites. Each platform maps to one site; the flow is paste URL, submit,
// dismiss the ad storm, click the download link, and wait for the file.
package download

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mvoice/creative-cli/internal/browser"
	"github.com/mvoice/creative-cli/internal/resilience"
	"github.com/mvoice/creative-cli/internal/worklist"
)

// Config tunes the downloader.
type Config struct {
	// TikTokSite and InstagramSite are the downloader front ends.
	TikTokSite    string
	InstagramSite string

	// SettleDelay is the pause after submit while the site resolves the
	// video and renders its download links.
	SettleDelay time.Duration

	// DownloadTimeout bounds the wait for the file itself.
	DownloadTimeout time.Duration

	// MaxAttempts is the per-item retry ceiling.
	MaxAttempts int

	// RetryBackoff is the base delay between attempts.
	RetryBackoff time.Duration
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		TikTokSite:      "https://snaptik.app",
		InstagramSite:   "https://snapvideo.app",
		SettleDelay:     5 * time.Second,
		DownloadTimeout: 90 * time.Second,
		MaxAttempts:     3,
		RetryBackoff:    2 * time.Second,
	}
}

// Downloader drives the downloader sites through the automation surface.
type Downloader struct {
	surf browser.Surface
	sel  browser.Selectors
	cfg  Config
}

// New builds a Downloader. Zero-valued config fields fall back to defaults.
func New(surf browser.Surface, sel browser.Selectors, cfg Config) *Downloader {
	def := DefaultConfig()
	if cfg.TikTokSite == "" {
		cfg.TikTokSite = def.TikTokSite
	}
	if cfg.InstagramSite == "" {
		cfg.InstagramSite = def.InstagramSite
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = def.SettleDelay
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = def.DownloadTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	return &Downloader{surf: surf, sel: sel, cfg: cfg}
}

// Fetch ensures item's artifact exists on disk, downloading it if absent.
// It reports whether a download actually ran.
func (d *Downloader) Fetch(ctx context.Context, item worklist.Item) (bool, error) {
	if info, err := os.Stat(item.ArtifactPath); err == nil && info.Size() > 0 {
		zap.L().Debug("download: artifact present, skipping",
			zap.String("url", item.URL),
			zap.String("path", item.ArtifactPath))
		return false, nil
	}

	site, err := d.siteFor(item.Platform)
	if err != nil {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(item.ArtifactPath), 0o755); err != nil {
		return false, eris.Wrapf(err, "download: create artifact dir for %s", item.ArtifactPath)
	}

	retry := resilience.RetryConfig{
		MaxAttempts:    d.cfg.MaxAttempts,
		InitialBackoff: d.cfg.RetryBackoff,
		ShouldRetry:    resilience.IsTransient,
		OnRetry:        resilience.RetryLogger("download", item.URL),
	}
	err = resilience.Do(ctx, retry, func(ctx context.Context) error {
		return d.fetchOnce(ctx, site, item)
	})
	if err != nil {
		return false, eris.Wrapf(err, "download: fetch %s", item.URL)
	}
	return true, nil
}

func (d *Downloader) fetchOnce(ctx context.Context, site string, item worklist.Item) error {
	if err := d.surf.Navigate(ctx, site); err != nil {
		return err
	}
	if err := d.surf.DismissOverlays(ctx); err != nil {
		return err
	}

	if err := d.surf.Fill(ctx, d.sel.DownloaderInput, item.URL); err != nil {
		return err
	}
	if err := d.surf.Click(ctx, d.sel.DownloaderSubmit); err != nil {
		return err
	}

	if err := sleep(ctx, d.cfg.SettleDelay); err != nil {
		return err
	}
	// The first click on a result page usually spawns an ad tab instead of
	// starting the download. Clear, click, clear again, click again.
	if err := d.surf.DismissOverlays(ctx); err != nil {
		return err
	}
	if err := d.surf.Click(ctx, d.sel.DownloadLink); err != nil {
		return err
	}
	if err := d.surf.DismissOverlays(ctx); err != nil {
		return err
	}
	if err := d.surf.AwaitDownload(ctx, item.ArtifactPath, d.cfg.DownloadTimeout); err != nil {
		if clickErr := d.surf.Click(ctx, d.sel.DownloadLink); clickErr != nil {
			return err
		}
		return d.surf.AwaitDownload(ctx, item.ArtifactPath, d.cfg.DownloadTimeout)
	}
	return nil
}

func (d *Downloader) siteFor(platform worklist.Platform) (string, error) {
	switch platform {
	case worklist.PlatformTikTok:
		return d.cfg.TikTokSite, nil
	case worklist.PlatformInstagram:
		return d.cfg.InstagramSite, nil
	default:
		return "", eris.Errorf("download: unsupported platform %q", platform)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
