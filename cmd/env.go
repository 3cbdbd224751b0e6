package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mvoice/creative-cli/internal/browser"
	"github.com/mvoice/creative-cli/internal/classify"
	"github.com/mvoice/creative-cli/internal/config"
	"github.com/mvoice/creative-cli/internal/controller"
	"github.com/mvoice/creative-cli/internal/download"
	"github.com/mvoice/creative-cli/internal/pipeline"
	"github.com/mvoice/creative-cli/internal/store"
	"github.com/mvoice/creative-cli/internal/worklist"
)

// pipelineEnv holds the initialized store, browser surface, and pipeline
// shared by the run/download/analyze/serve commands.
type pipelineEnv struct {
	Store     store.Store
	Surface   browser.Surface
	Selectors browser.Selectors
	Pipeline  *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Surface != nil {
		_ = pe.Surface.Close()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured results backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "", "csv":
		return store.NewCSV(cfg.Store.Path)
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initSurface launches the browser and restores the persisted session
// token when one exists.
func initSurface(ctx context.Context) (browser.Surface, browser.Selectors, error) {
	sel, err := browser.LoadSelectors(cfg.Browser.SelectorsPath)
	if err != nil {
		return nil, sel, err
	}

	surf, err := browser.NewRod(browser.Options{
		Headless:    cfg.Browser.Headless,
		SlowMotion:  time.Duration(cfg.Browser.SlowMotionMs) * time.Millisecond,
		SessionPath: cfg.Browser.SessionPath,
		DownloadDir: cfg.Browser.StagingDir,
		Selectors:   sel,
	})
	if err != nil {
		return nil, sel, err
	}

	if surf.SessionTokenPresent() {
		if err := surf.LoadSessionToken(ctx); err != nil {
			zap.L().Warn("session token restore failed, continuing without",
				zap.Error(err))
		}
	}
	return surf, sel, nil
}

// initPipeline sets up the store, browser, downloader, and controller, and
// builds the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	surf, sel, err := initSurface(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	dl := download.New(surf, sel, download.Config{
		TikTokSite:      cfg.Download.TikTokSite,
		InstagramSite:   cfg.Download.InstagramSite,
		SettleDelay:     time.Duration(cfg.Download.SettleDelaySecs) * time.Second,
		DownloadTimeout: time.Duration(cfg.Download.TimeoutSecs) * time.Second,
		MaxAttempts:     cfg.Download.MaxAttempts,
	})

	classifier := classify.New(classify.Config{
		ShortThreshold:       cfg.Classifier.ShortThreshold,
		SubstantialThreshold: cfg.Classifier.SubstantialThreshold,
		StabilityPolls:       cfg.Classifier.StabilityPolls,
		MaxPolls:             cfg.Classifier.MaxPolls,
	})

	ctrl := controller.New(controller.Config{
		PollInterval: time.Duration(cfg.Controller.PollIntervalSecs) * time.Second,
		RetryBudget:  cfg.RetryBudget(),
		AcceptLength: cfg.Controller.AcceptLength,
		CheckMin:     cfg.Controller.CheckMin,
		CheckMax:     cfg.Controller.CheckMax,
	}, classifier)

	return &pipelineEnv{
		Store:     st,
		Surface:   surf,
		Selectors: sel,
		Pipeline:  pipeline.New(cfg, surf, sel, st, dl, ctrl),
	}, nil
}

// loadItems reads the work list and derives per-item artifact paths. A
// missing work list is the one hard abort in the batch commands.
func loadItems(cfgp *config.Config) ([]worklist.Item, error) {
	urls, err := worklist.Load(cfgp.Pipeline.WorklistPath)
	if err != nil {
		return nil, eris.Wrapf(err, "load work list %s", cfgp.Pipeline.WorklistPath)
	}
	items := worklist.Items(urls, cfgp.Download.Dir)
	if cfgp.Pipeline.BatchSize > 0 && len(items) > cfgp.Pipeline.BatchSize {
		items = items[:cfgp.Pipeline.BatchSize]
	}
	zap.L().Info("work list loaded",
		zap.String("path", cfgp.Pipeline.WorklistPath),
		zap.Int("items", len(items)))
	return items, nil
}
