package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// AutomationFault wraps a browser-level failure that is safe to retry:
// a selector that never appeared, a click that missed, an element that
// detached mid-action. These are expected noise when driving third-party
// pages and never propagate past the attempt that hit them.
type AutomationFault struct {
	Err  error
	Step string // which automation step failed, e.g. "locate download link"
}

func (e *AutomationFault) Error() string {
	if e.Step != "" {
		return e.Step + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *AutomationFault) Unwrap() error {
	return e.Err
}

// NewAutomationFault wraps err as a retryable automation fault.
func NewAutomationFault(step string, err error) *AutomationFault {
	return &AutomationFault{Err: err, Step: step}
}

// IsTransient returns true if the error (or any error in its chain) is an
// AutomationFault, or if it matches common transient patterns: network
// timeouts, connection resets, and browser target churn.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var af *AutomationFault
	if errors.As(err, &af) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String heuristics for errors surfaced through the CDP layer.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"element not found",
		"cannot find element",
		"node not found",
		"target closed",
		"session closed",
		"page crashed",
		"navigation failed",
		"net::err",
		"i/o timeout",
		"connection reset by peer",
		"context deadline exceeded",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
