// Package browser is the automation surface over the chat UI and the
// third-party downloader sites. Everything site-specific lives behind the
// Surface interface and the selector sets, so the pipeline, controller, and
// downloader stay testable without a real browser.
package browser

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// ErrSessionInvalid indicates the chat surface redirected to a login page
// or rendered a credential field. There is no automatic recovery; the
// operator must re-run the login flow.
var ErrSessionInvalid = eris.New("browser: session invalid, run login to refresh the session token")

// Surface is the set of primitives the pipeline drives the browser with.
type Surface interface {
	// Navigate opens target in the active page and waits for load.
	Navigate(ctx context.Context, target string) error

	// SubmitArtifact attaches a local file to the chat's upload input.
	SubmitArtifact(ctx context.Context, path string) error

	// SubmitText types the prompt into the chat input and sends it.
	SubmitText(ctx context.Context, text string) error

	// PollText snapshots the current response text. An empty string is a
	// valid snapshot (nothing rendered yet).
	PollText(ctx context.Context) (string, error)

	// Fill locates an element from set and types value into it.
	Fill(ctx context.Context, set SelectorSet, value string) error

	// Click locates an element from set and clicks it.
	Click(ctx context.Context, set SelectorSet) error

	// ExtractText locates an element from set and returns its inner text.
	ExtractText(ctx context.Context, set SelectorSet) (string, error)

	// DismissOverlays clears ad popups: positional clicks, Escape, and
	// closing any extra tabs the page spawned.
	DismissOverlays(ctx context.Context) error

	// LoginWallPresent reports whether the current page shows a credential
	// field or login form.
	LoginWallPresent(ctx context.Context) (bool, error)

	// AwaitDownload waits for a download triggered by a prior Click to
	// finish and moves the file to dest.
	AwaitDownload(ctx context.Context, dest string, timeout time.Duration) error

	// SessionTokenPresent reports whether a persisted session token blob
	// exists. The blob is opaque: present or absent, never inspected.
	SessionTokenPresent() bool

	// PersistSessionToken saves the live browser session as the token blob.
	PersistSessionToken(ctx context.Context) error

	// LoadSessionToken restores a previously persisted token blob into the
	// live browser.
	LoadSessionToken(ctx context.Context) error

	Close() error
}
