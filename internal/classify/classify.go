// Package classify decides whether a streamed chat response is finished.
// The chat surface is an uncontrolled third-party UI with no completion
// event, so classification is a convergence heuristic over polled text
// snapshots: ephemeral-state markers, a header-only skeleton check, length
// thresholds, terminal content markers, and byte-stability across polls.
package classify

import "strings"

// State is the classification of one polled snapshot.
type State int

const (
	// Loading means the text matches an ephemeral-state marker and is not
	// yet informative, regardless of length.
	Loading State = iota
	// Incomplete means the response has not converged: either a header-only
	// table skeleton, or text that fails the completeness criteria.
	Incomplete
	// Complete means the response is judged fully rendered.
	Complete
	// TimedOut means the poll ceiling was reached without completion.
	TimedOut
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Incomplete:
		return "incomplete"
	case Complete:
		return "complete"
	case TimedOut:
		return "timed_out"
	}
	return "unknown"
}

// Snapshot is one polled view of the response text.
type Snapshot struct {
	Text    string
	Attempt int // 1-based poll attempt this snapshot was taken at
}

// Config tunes the classification heuristics.
type Config struct {
	// LoadingMarkers are case-insensitive substrings indicating the UI is
	// still in an ephemeral generating state.
	LoadingMarkers []string

	// HeaderEchoes are normalized (lowercased, whitespace and pipes removed)
	// prefixes that indicate only the table skeleton has rendered.
	HeaderEchoes []string

	// TerminalMarkers are case-insensitive substrings known to appear near
	// the end of a fully rendered answer. A match short-circuits the
	// stability wait.
	TerminalMarkers []string

	// ShortThreshold is the max length (chars) for the header-only rule.
	ShortThreshold int

	// SubstantialThreshold is the min length (chars) a response must exceed
	// before it can be Complete.
	SubstantialThreshold int

	// StabilityPolls is the number of consecutive identical snapshots
	// (including the current one) that mark an arbitrary response Complete.
	StabilityPolls int

	// MaxPolls is the hard ceiling on poll attempts.
	MaxPolls int
}

// DefaultConfig returns the tuned production heuristics.
func DefaultConfig() Config {
	return Config{
		LoadingMarkers:       []string{"thinking", "generating", "processing"},
		HeaderEchoes:         []string{"metricsvalue", "metricvalue"},
		TerminalMarkers:      []string{"target surprise"},
		ShortThreshold:       200,
		SubstantialThreshold: 800,
		StabilityPolls:       5,
		MaxPolls:             300,
	}
}

// Classifier applies the heuristics in Config.
type Classifier struct {
	cfg Config
}

// New creates a Classifier. Zero-valued config fields fall back to defaults.
func New(cfg Config) *Classifier {
	def := DefaultConfig()
	if cfg.LoadingMarkers == nil {
		cfg.LoadingMarkers = def.LoadingMarkers
	}
	if cfg.HeaderEchoes == nil {
		cfg.HeaderEchoes = def.HeaderEchoes
	}
	if cfg.TerminalMarkers == nil {
		cfg.TerminalMarkers = def.TerminalMarkers
	}
	if cfg.ShortThreshold <= 0 {
		cfg.ShortThreshold = def.ShortThreshold
	}
	if cfg.SubstantialThreshold <= 0 {
		cfg.SubstantialThreshold = def.SubstantialThreshold
	}
	if cfg.StabilityPolls <= 0 {
		cfg.StabilityPolls = def.StabilityPolls
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = def.MaxPolls
	}
	return &Classifier{cfg: cfg}
}

// MaxPolls exposes the configured poll ceiling.
func (c *Classifier) MaxPolls() int {
	return c.cfg.MaxPolls
}

// Classify decides the state of the current snapshot. history is the ordered
// sequence of prior snapshots for this attempt; only the trailing
// StabilityPolls-1 entries are consulted.
func (c *Classifier) Classify(snap Snapshot, history []Snapshot) State {
	text := strings.TrimSpace(snap.Text)

	var state State
	switch {
	case c.isLoading(text):
		state = Loading
	case c.isHeaderOnly(text):
		state = Incomplete
	case c.isComplete(text, history):
		return Complete
	default:
		state = Incomplete
	}

	if snap.Attempt >= c.cfg.MaxPolls {
		return TimedOut
	}
	return state
}

func (c *Classifier) isLoading(text string) bool {
	return containsAnyFold(text, c.cfg.LoadingMarkers)
}

// isHeaderOnly catches UI states where only the table skeleton rendered:
// the text begins with a column-header echo and carries no data rows.
func (c *Classifier) isHeaderOnly(text string) bool {
	if len(text) >= c.cfg.ShortThreshold {
		return false
	}
	normalized := normalizeHeader(text)
	for _, echo := range c.cfg.HeaderEchoes {
		if strings.HasPrefix(normalized, echo) {
			return true
		}
	}
	return false
}

func (c *Classifier) isComplete(text string, history []Snapshot) bool {
	if len(text) <= c.cfg.SubstantialThreshold {
		return false
	}
	if containsAnyFold(text, c.cfg.TerminalMarkers) {
		return true
	}
	return c.isStable(text, history)
}

// isStable reports whether the text has been byte-identical for
// StabilityPolls consecutive polls, counting the current snapshot.
func (c *Classifier) isStable(text string, history []Snapshot) bool {
	need := c.cfg.StabilityPolls - 1
	if need <= 0 {
		return true
	}
	if len(history) < need {
		return false
	}
	for _, prior := range history[len(history)-need:] {
		if strings.TrimSpace(prior.Text) != text {
			return false
		}
	}
	return true
}

func containsAnyFold(text string, markers []string) bool {
	lower := strings.ToLower(text)
	for _, m := range markers {
		if m == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// normalizeHeader lowercases and strips whitespace and table pipes so that
// "| Metrics | Value |", "MetricsValue", and "Metrics  Value" all compare
// equal.
func normalizeHeader(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch r {
		case ' ', '\t', '\n', '\r', '|', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
