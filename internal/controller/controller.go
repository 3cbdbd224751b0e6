// Package controller drives one work item through the submit/poll/extract
// cycle. Each attempt is a fresh navigation and submission; a stateful chat
// session cannot be rewound, only restarted. The controller escalates from
// accepting only fully complete responses to accepting the best partial
// text once the retry budget runs out.
package controller

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/mvoice/creative-cli/internal/browser"
	"github.com/mvoice/creative-cli/internal/classify"
	"github.com/mvoice/creative-cli/internal/extract"
	"github.com/mvoice/creative-cli/internal/resilience"
	"github.com/mvoice/creative-cli/internal/schema"
	"github.com/mvoice/creative-cli/internal/store"
)

// State tracks where a work item is in its lifecycle.
type State int

const (
	Pending State = iota
	Submitting
	Polling
	Accepted
	Retrying
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Submitting:
		return "submitting"
	case Polling:
		return "polling"
	case Accepted:
		return "accepted"
	case Retrying:
		return "retrying"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Item is one unit of work: the key it is stored under, the local artifact
// to upload, and the prompt to send with it.
type Item struct {
	URL          string
	ArtifactPath string
	Prompt       string
}

// Session is the slice of the automation surface the controller needs. One
// Submit call performs a full fresh cycle: navigate, attach the artifact,
// send the prompt.
type Session interface {
	Submit(ctx context.Context, item Item) error
	PollText(ctx context.Context) (string, error)
}

// Clock abstracts sleeping so tests can run the poll loop instantly.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Config tunes the controller.
type Config struct {
	// PollInterval is the delay between response snapshots.
	PollInterval time.Duration

	// RetryBudget is the number of extra full cycles after the first.
	// Batch runs use 2, streaming runs escalate to 5.
	RetryBudget int

	// AcceptLength is the length above which a candidate is accepted with
	// no further checks.
	AcceptLength int

	// CheckMin and CheckMax bound the band where a candidate must carry an
	// end marker and no truncation tail. Outside both bands the candidate
	// is rejected.
	CheckMin int
	CheckMax int

	// EndMarkers are case-insensitive substrings expected near the end of
	// a complete answer.
	EndMarkers []string

	Clock Clock
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		PollInterval: 2 * time.Second,
		RetryBudget:  2,
		AcceptLength: 2000,
		CheckMin:     500,
		CheckMax:     1500,
		EndMarkers:   []string{"target surprise"},
	}
}

// Outcome is the result of processing one item.
type Outcome struct {
	State    State
	Attempts int

	// Text is the accepted (or best-effort) response text.
	Text string

	// Fields is the extracted mapping, fully keyed. Nil when State is Failed.
	Fields map[string]string

	// Partial marks an acceptance that happened on budget exhaustion with
	// text that never passed the completeness check.
	Partial bool

	// FailureReason is set when State is Failed.
	FailureReason string
}

// Controller runs the per-item state machine and persists results.
type Controller struct {
	cfg        Config
	classifier *classify.Classifier
}

// New builds a Controller. Zero-valued config fields fall back to defaults.
func New(cfg Config, classifier *classify.Classifier) *Controller {
	def := DefaultConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.RetryBudget <= 0 {
		cfg.RetryBudget = def.RetryBudget
	}
	if cfg.AcceptLength <= 0 {
		cfg.AcceptLength = def.AcceptLength
	}
	if cfg.CheckMin <= 0 {
		cfg.CheckMin = def.CheckMin
	}
	if cfg.CheckMax <= 0 {
		cfg.CheckMax = def.CheckMax
	}
	if cfg.EndMarkers == nil {
		cfg.EndMarkers = def.EndMarkers
	}
	if cfg.Clock == nil {
		cfg.Clock = realClock{}
	}
	if classifier == nil {
		classifier = classify.New(classify.DefaultConfig())
	}
	return &Controller{cfg: cfg, classifier: classifier}
}

// Process drives item through the state machine and writes the resulting
// row to st. The returned error is non-nil only for blocking conditions:
// context cancellation, an invalid session, or a store write failure.
// Per-item automation failures come back as a Failed outcome with a
// sentinel row already written.
func (c *Controller) Process(ctx context.Context, sess Session, st store.Store, item Item) (Outcome, error) {
	log := zap.L().With(zap.String("url", item.URL))

	out := Outcome{State: Pending}
	var bestText string
	var lastErr error

	maxAttempts := c.cfg.RetryBudget + 1
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out.Attempts = attempt
		out.State = Submitting

		if err := sess.Submit(ctx, item); err != nil {
			if eris.Is(err, browser.ErrSessionInvalid) || ctx.Err() != nil {
				return out, err
			}
			lastErr = err
			log.Warn("controller: submission failed",
				zap.Int("attempt", attempt), zap.Error(err))
			out.State = Retrying
			continue
		}

		out.State = Polling
		text, state := c.poll(ctx, sess, log)
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		if len(text) > len(bestText) {
			bestText = text
		}

		if state == classify.Complete && c.completenessCheck(text) {
			return out, c.accept(ctx, st, item, text, attempt, false, &out)
		}

		log.Info("controller: candidate rejected",
			zap.Int("attempt", attempt),
			zap.String("state", state.String()),
			zap.Int("length", len(text)))
		out.State = Retrying
	}

	// Budget exhausted. A recoverable partial beats losing the item.
	if bestText != "" {
		log.Warn("controller: accepting best-effort partial",
			zap.Int("length", len(bestText)))
		return out, c.accept(ctx, st, item, bestText, out.Attempts, true, &out)
	}

	reason := "no response produced"
	if lastErr != nil {
		reason = eris.Cause(lastErr).Error()
	}
	out.State = Failed
	out.FailureReason = reason
	log.Error("controller: item failed", zap.String("reason", reason))

	if err := st.AppendRow(ctx, item.URL, SentinelRow(reason)); err != nil {
		return out, eris.Wrapf(err, "controller: write sentinel row for %s", item.URL)
	}
	return out, nil
}

// poll snapshots the response until the classifier reports Complete or
// TimedOut. Snapshot errors are transient by contract and count as empty
// snapshots.
func (c *Controller) poll(ctx context.Context, sess Session, log *zap.Logger) (string, classify.State) {
	var history []classify.Snapshot
	keep := 8

	for attempt := 1; attempt <= c.classifier.MaxPolls(); attempt++ {
		if err := c.cfg.Clock.Sleep(ctx, c.cfg.PollInterval); err != nil {
			return latestText(history), classify.TimedOut
		}

		text, err := sess.PollText(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return latestText(history), classify.TimedOut
			}
			log.Debug("controller: snapshot failed",
				zap.Int("poll", attempt),
				zap.Bool("transient", resilience.IsTransient(err)),
				zap.Error(err))
			text = ""
		}

		snap := classify.Snapshot{Text: text, Attempt: attempt}
		state := c.classifier.Classify(snap, history)
		if state == classify.Complete || state == classify.TimedOut {
			return strings.TrimSpace(text), state
		}

		history = append(history, snap)
		if len(history) > keep {
			history = history[len(history)-keep:]
		}
	}
	return latestText(history), classify.TimedOut
}

func latestText(history []classify.Snapshot) string {
	if len(history) == 0 {
		return ""
	}
	return strings.TrimSpace(history[len(history)-1].Text)
}

// completenessCheck is a second opinion independent of the classifier,
// applied only to the final candidate. Very long answers pass outright; a
// mid-band answer must carry an end marker and must not end on a
// truncation tail; everything else is rejected.
func (c *Controller) completenessCheck(text string) bool {
	n := len(text)
	if n > c.cfg.AcceptLength {
		return true
	}
	if n < c.cfg.CheckMin || n > c.cfg.CheckMax {
		return false
	}

	lower := strings.ToLower(text)
	marked := false
	for _, m := range c.cfg.EndMarkers {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			marked = true
			break
		}
	}
	if !marked {
		return false
	}

	tail := strings.TrimSpace(text)
	if strings.HasSuffix(tail, "-") || strings.HasSuffix(tail, "**") || strings.HasSuffix(tail, ":") {
		return false
	}
	return true
}

func (c *Controller) accept(ctx context.Context, st store.Store, item Item, text string, attempts int, partial bool, out *Outcome) error {
	fields := extract.Extract(text)
	row := store.Row{}
	for label, value := range fields {
		row[label] = value
	}
	if err := st.AppendRow(ctx, item.URL, row); err != nil {
		return eris.Wrapf(err, "controller: write row for %s", item.URL)
	}

	out.State = Accepted
	out.Attempts = attempts
	out.Text = text
	out.Fields = fields
	out.Partial = partial
	return nil
}

// SentinelRow builds the failure row for a key: an explicit reason in the
// first schema column so future runs see the item as handled, not empty.
func SentinelRow(reason string) store.Row {
	row := store.Row{}
	labels := schema.Labels()
	for _, label := range labels {
		row[label] = ""
	}
	if len(labels) > 0 {
		row[labels[0]] = "FAILED: " + reason
	}
	return row
}
