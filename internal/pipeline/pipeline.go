// Package pipeline orchestrates the two batch phases: download creatives
// to disk, then submit each to the chat surface and persist the extracted
// metrics. One item is in flight at a time; the chat session is a
// singleton resource and parallel submissions would corrupt turn taking.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mvoice/creative-cli/internal/browser"
	"github.com/mvoice/creative-cli/internal/config"
	"github.com/mvoice/creative-cli/internal/controller"
	"github.com/mvoice/creative-cli/internal/download"
	"github.com/mvoice/creative-cli/internal/gate"
	"github.com/mvoice/creative-cli/internal/schema"
	"github.com/mvoice/creative-cli/internal/store"
	"github.com/mvoice/creative-cli/internal/worklist"
)

// PhaseStats counts per-item outcomes within one phase.
type PhaseStats struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// Summary is the end-of-run report.
type Summary struct {
	Download PhaseStats
	Analyze  PhaseStats
	Partial  int
	Elapsed  time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf(
		"download: %d ok, %d failed, %d skipped | analyze: %d ok (%d partial), %d failed, %d skipped | elapsed %s",
		s.Download.Succeeded, s.Download.Failed, s.Download.Skipped,
		s.Analyze.Succeeded, s.Partial, s.Analyze.Failed, s.Analyze.Skipped,
		s.Elapsed.Round(time.Second))
}

// Pipeline wires the phases over one browser surface and one store.
type Pipeline struct {
	cfg     *config.Config
	surf    browser.Surface
	sel     browser.Selectors
	st      store.Store
	dl      *download.Downloader
	ctrl    *controller.Controller
	limiter *rate.Limiter
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, surf browser.Surface, sel browser.Selectors, st store.Store, dl *download.Downloader, ctrl *controller.Controller) *Pipeline {
	delay := time.Duration(cfg.Pipeline.ItemDelaySecs) * time.Second
	if delay <= 0 {
		delay = 5 * time.Second
	}
	return &Pipeline{
		cfg:     cfg,
		surf:    surf,
		sel:     sel,
		st:      st,
		dl:      dl,
		ctrl:    ctrl,
		limiter: rate.NewLimiter(rate.Every(delay), 1),
	}
}

// Run executes the download phase followed by the analyze phase.
func (p *Pipeline) Run(ctx context.Context, items []worklist.Item) (Summary, error) {
	start := time.Now()
	var sum Summary

	var err error
	if sum.Download, err = p.DownloadPhase(ctx, items); err != nil {
		sum.Elapsed = time.Since(start)
		return sum, err
	}
	if sum.Analyze, sum.Partial, err = p.AnalyzePhase(ctx, items); err != nil {
		sum.Elapsed = time.Since(start)
		return sum, err
	}

	sum.Elapsed = time.Since(start)
	return sum, nil
}

// DownloadPhase fetches artifacts for every item that still needs
// processing. Per-item failures are counted, not propagated; the analyze
// phase skips items whose artifact never arrived.
func (p *Pipeline) DownloadPhase(ctx context.Context, items []worklist.Item) (PhaseStats, error) {
	log := zap.L()
	var stats PhaseStats

	for _, item := range items {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		needed, err := gate.NeedsProcessing(ctx, p.st, item.URL)
		if err != nil {
			return stats, eris.Wrapf(err, "pipeline: gate check for %s", item.URL)
		}
		if !needed {
			stats.Skipped++
			continue
		}

		fetched, err := p.dl.Fetch(ctx, item)
		switch {
		case err != nil:
			stats.Failed++
			log.Warn("pipeline: download failed",
				zap.String("url", item.URL), zap.Error(err))
		case fetched:
			stats.Succeeded++
			if waitErr := p.limiter.Wait(ctx); waitErr != nil {
				return stats, waitErr
			}
		default:
			stats.Skipped++
		}
	}

	log.Info("pipeline: download phase done",
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

// AnalyzePhase drives each downloaded item through the controller. The
// gate is re-checked immediately before each submission because a prior
// partial run may have appended rows since the download filter ran.
func (p *Pipeline) AnalyzePhase(ctx context.Context, items []worklist.Item) (PhaseStats, int, error) {
	log := zap.L()
	var stats PhaseStats
	partial := 0

	sess := &chatSession{
		surf:        p.surf,
		chatURL:     p.cfg.Chat.URL,
		settleDelay: time.Duration(p.cfg.Chat.SettleDelaySecs) * time.Second,
	}

	for _, item := range items {
		if ctx.Err() != nil {
			return stats, partial, ctx.Err()
		}

		needed, err := gate.NeedsProcessing(ctx, p.st, item.URL)
		if err != nil {
			return stats, partial, eris.Wrapf(err, "pipeline: gate check for %s", item.URL)
		}
		if !needed {
			stats.Skipped++
			continue
		}

		if _, err := os.Stat(item.ArtifactPath); err != nil {
			stats.Skipped++
			log.Warn("pipeline: artifact missing, skipping",
				zap.String("url", item.URL),
				zap.String("path", item.ArtifactPath))
			continue
		}

		out, err := p.ctrl.Process(ctx, sess, p.st, controller.Item{
			URL:          item.URL,
			ArtifactPath: item.ArtifactPath,
			Prompt:       schema.Prompt(),
		})
		if err != nil {
			// Blocking: invalid session, store unwritable, or cancellation.
			return stats, partial, err
		}

		switch out.State {
		case controller.Accepted:
			stats.Succeeded++
			if out.Partial {
				partial++
			}
			if p.cfg.Pipeline.DeleteArtifacts {
				if rmErr := os.Remove(item.ArtifactPath); rmErr != nil {
					log.Warn("pipeline: artifact cleanup failed",
						zap.String("path", item.ArtifactPath), zap.Error(rmErr))
				}
			}
		default:
			stats.Failed++
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return stats, partial, err
		}
	}

	log.Info("pipeline: analyze phase done",
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("partial", partial),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped", stats.Skipped))
	return stats, partial, nil
}

// chatSession adapts the browser surface to the controller's Session. Each
// Submit is a fresh cycle: navigate, verify the session, attach the video,
// settle, send the prompt.
type chatSession struct {
	surf        browser.Surface
	chatURL     string
	settleDelay time.Duration
}

func (s *chatSession) Submit(ctx context.Context, item controller.Item) error {
	if err := s.surf.Navigate(ctx, s.chatURL); err != nil {
		return err
	}

	walled, err := s.surf.LoginWallPresent(ctx)
	if err != nil {
		return err
	}
	if walled {
		return browser.ErrSessionInvalid
	}

	if err := s.surf.SubmitArtifact(ctx, item.ArtifactPath); err != nil {
		return err
	}
	if s.settleDelay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.settleDelay):
		}
	}
	return s.surf.SubmitText(ctx, item.Prompt)
}

func (s *chatSession) PollText(ctx context.Context) (string, error) {
	return s.surf.PollText(ctx)
}
