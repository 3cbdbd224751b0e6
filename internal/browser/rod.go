package browser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mvoice/creative-cli/internal/resilience"
)

// Options configures the Rod surface.
type Options struct {
	// Headless runs Chrome without a window. Headful is useful when
	// refreshing the session token interactively.
	Headless bool

	// SlowMotion inserts a delay before every input action. Some chat
	// surfaces drop events fired at machine speed.
	SlowMotion time.Duration

	// SessionPath is where the session token blob is persisted.
	SessionPath string

	// DownloadDir is the staging directory Chrome downloads into. It must
	// be used by nothing else; AwaitDownload claims whatever lands there.
	DownloadDir string

	// NavigationTimeout bounds Navigate plus the load wait.
	NavigationTimeout time.Duration

	// LookupTimeout bounds each candidate selector lookup.
	LookupTimeout time.Duration

	Selectors Selectors
}

func (o *Options) defaults() {
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 45 * time.Second
	}
	if o.LookupTimeout <= 0 {
		o.LookupTimeout = 3 * time.Second
	}
	if len(o.Selectors.FileInput.Selectors) == 0 {
		o.Selectors = DefaultSelectors()
	}
}

// Rod drives a stealth Chrome page through go-rod.
type Rod struct {
	opts     Options
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// NewRod launches Chrome, opens a stealth page, and prepares the download
// staging directory.
func NewRod(opts Options) (*Rod, error) {
	opts.defaults()

	l := launcher.New().
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled")

	wsURL, err := l.Launch()
	if err != nil {
		return nil, eris.Wrap(err, "browser: launch chrome")
	}

	b := rod.New().ControlURL(wsURL)
	if opts.SlowMotion > 0 {
		b = b.SlowMotion(opts.SlowMotion)
	}
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, eris.Wrap(err, "browser: connect")
	}

	page, err := stealth.Page(b)
	if err != nil {
		b.Close()
		l.Cleanup()
		return nil, eris.Wrap(err, "browser: open stealth page")
	}

	// Fixed viewport so positional overlay dismissal lands where expected.
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1280,
		Height:            800,
		DeviceScaleFactor: 1,
	}); err != nil {
		zap.L().Warn("browser: set viewport failed", zap.Error(err))
	}

	if opts.DownloadDir != "" {
		if err := os.MkdirAll(opts.DownloadDir, 0o755); err != nil {
			b.Close()
			l.Cleanup()
			return nil, eris.Wrapf(err, "browser: create download dir %s", opts.DownloadDir)
		}
		abs, err := filepath.Abs(opts.DownloadDir)
		if err == nil {
			err = proto.BrowserSetDownloadBehavior{
				Behavior:     proto.BrowserSetDownloadBehaviorBehaviorAllow,
				DownloadPath: abs,
			}.Call(b)
		}
		if err != nil {
			zap.L().Warn("browser: set download behavior failed", zap.Error(err))
		}
	}

	return &Rod{opts: opts, launcher: l, browser: b, page: page}, nil
}

// Navigate opens target and waits for the load event. A load-wait timeout
// is tolerated; heavy ad pages fire load late or never.
func (s *Rod) Navigate(ctx context.Context, target string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.opts.NavigationTimeout)
	defer cancel()

	if err := s.page.Context(navCtx).Navigate(target); err != nil {
		return resilience.NewAutomationFault("navigate", eris.Wrapf(err, "browser: navigate %s", target))
	}
	if err := s.page.Context(navCtx).WaitLoad(); err != nil {
		zap.L().Warn("browser: load wait timed out", zap.String("url", target), zap.Error(err))
	}
	return nil
}

func (s *Rod) SubmitArtifact(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return eris.Wrapf(err, "browser: resolve artifact %s", path)
	}

	el, findErr := s.find(ctx, s.opts.Selectors.FileInput)
	if findErr != nil {
		// Some surfaces only mount the file input after the upload
		// button is pressed.
		if err := s.Click(ctx, s.opts.Selectors.UploadButton); err != nil {
			return findErr
		}
		el, findErr = s.find(ctx, s.opts.Selectors.FileInput)
		if findErr != nil {
			return findErr
		}
	}

	if err := el.SetFiles([]string{abs}); err != nil {
		return resilience.NewAutomationFault("attach artifact", eris.Wrapf(err, "browser: set files %s", abs))
	}
	return nil
}

func (s *Rod) SubmitText(ctx context.Context, text string) error {
	el, err := s.find(ctx, s.opts.Selectors.PromptInput)
	if err != nil {
		return err
	}
	if err := el.Input(text); err != nil {
		return resilience.NewAutomationFault("type prompt", eris.Wrap(err, "browser: input prompt"))
	}

	if err := s.Click(ctx, s.opts.Selectors.SendButton); err != nil {
		zap.L().Debug("browser: send button miss, falling back to enter", zap.Error(err))
		if err := s.page.Context(ctx).Keyboard.Type(input.Enter); err != nil {
			return resilience.NewAutomationFault("send prompt", eris.Wrap(err, "browser: press enter"))
		}
	}
	return nil
}

// PollText snapshots the latest response element's text. When no response
// container matches it falls back to the page body, which at worst feeds
// the classifier a header echo.
func (s *Rod) PollText(ctx context.Context) (string, error) {
	for _, sel := range s.opts.Selectors.ResponseContainer.Selectors {
		els, err := s.page.Context(ctx).Elements(sel)
		if err != nil || len(els) == 0 {
			continue
		}
		text, err := els[len(els)-1].Text()
		if err != nil {
			continue
		}
		if strings.TrimSpace(text) != "" {
			return text, nil
		}
	}

	text, err := s.ExtractText(ctx, s.opts.Selectors.ResponseFallback)
	if err != nil {
		return "", nil
	}
	return text, nil
}

func (s *Rod) Fill(ctx context.Context, set SelectorSet, value string) error {
	el, err := s.find(ctx, set)
	if err != nil {
		return err
	}
	if err := el.Input(value); err != nil {
		return resilience.NewAutomationFault("fill "+set.Name, eris.Wrapf(err, "browser: fill %s", set.Name))
	}
	return nil
}

func (s *Rod) Click(ctx context.Context, set SelectorSet) error {
	el, err := s.find(ctx, set)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return resilience.NewAutomationFault("click "+set.Name, eris.Wrapf(err, "browser: click %s", set.Name))
	}
	return nil
}

func (s *Rod) ExtractText(ctx context.Context, set SelectorSet) (string, error) {
	el, err := s.find(ctx, set)
	if err != nil {
		return "", err
	}
	text, err := el.Text()
	if err != nil {
		return "", resilience.NewAutomationFault("read "+set.Name, eris.Wrapf(err, "browser: text of %s", set.Name))
	}
	return text, nil
}

// DismissOverlays clicks an unoccupied corner, presses Escape, and closes
// any tabs the page popped open. Downloader sites open ads on first click,
// so this runs between every interaction with them.
func (s *Rod) DismissOverlays(ctx context.Context) error {
	page := s.page.Context(ctx)

	corner := proto.Point{X: 10, Y: 10}
	if err := page.Mouse.MoveTo(corner); err == nil {
		_ = page.Mouse.Click(proto.InputMouseButtonLeft, 1)
	}
	_ = page.Keyboard.Type(input.Escape)

	pages, err := s.browser.Pages()
	if err != nil {
		return nil
	}
	for _, p := range pages {
		if p.TargetID != s.page.TargetID {
			_ = p.Close()
		}
	}
	return nil
}

func (s *Rod) LoginWallPresent(ctx context.Context) (bool, error) {
	for _, sel := range s.opts.Selectors.LoginWall.Selectors {
		has, _, err := s.page.Context(ctx).Has(sel)
		if err != nil {
			continue
		}
		if has {
			return true, nil
		}
	}
	return false, nil
}

// AwaitDownload polls the staging directory until a completed file appears,
// then moves it to dest.
func (s *Rod) AwaitDownload(ctx context.Context, dest string, timeout time.Duration) error {
	if s.opts.DownloadDir == "" {
		return eris.New("browser: no download dir configured")
	}

	deadline := time.Now().Add(timeout)
	for {
		if got, err := s.claimDownload(dest); err != nil {
			return err
		} else if got {
			return nil
		}

		if time.Now().After(deadline) {
			return resilience.NewAutomationFault("await download",
				eris.Errorf("browser: no download within %s", timeout))
		}
		select {
		case <-ctx.Done():
			return eris.Wrap(ctx.Err(), "browser: await download")
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (s *Rod) claimDownload(dest string) (bool, error) {
	entries, err := os.ReadDir(s.opts.DownloadDir)
	if err != nil {
		return false, eris.Wrapf(err, "browser: read download dir %s", s.opts.DownloadDir)
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".crdownload") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.Size() == 0 {
			continue
		}
		src := filepath.Join(s.opts.DownloadDir, e.Name())
		if err := os.Rename(src, dest); err != nil {
			return false, eris.Wrapf(err, "browser: move download to %s", dest)
		}
		return true, nil
	}
	return false, nil
}

func (s *Rod) Close() error {
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	return err
}

// find tries each candidate selector in order, bounding each lookup so a
// dead candidate costs seconds, not the whole poll budget.
func (s *Rod) find(ctx context.Context, set SelectorSet) (*rod.Element, error) {
	for _, sel := range set.Selectors {
		el, err := s.page.Context(ctx).Timeout(s.opts.LookupTimeout).Element(sel)
		if err == nil && el != nil {
			return el, nil
		}
	}
	return nil, resilience.NewAutomationFault("locate "+set.Name,
		eris.Errorf("browser: element not found: %s", set.Name))
}
