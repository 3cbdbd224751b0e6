package browser

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/go-rod/rod/lib/proto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// SessionTokenPresent reports whether a persisted token blob exists on
// disk. The blob's contents are never inspected; a stale token surfaces
// later as a login wall.
func (s *Rod) SessionTokenPresent() bool {
	if s.opts.SessionPath == "" {
		return false
	}
	info, err := os.Stat(s.opts.SessionPath)
	return err == nil && info.Size() > 0
}

// PersistSessionToken snapshots the browser's cookies into the token blob.
func (s *Rod) PersistSessionToken(ctx context.Context) error {
	if s.opts.SessionPath == "" {
		return eris.New("browser: no session path configured")
	}

	cookies, err := s.browser.GetCookies()
	if err != nil {
		return eris.Wrap(err, "browser: snapshot cookies")
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return eris.Wrap(err, "browser: encode session token")
	}

	if err := os.MkdirAll(filepath.Dir(s.opts.SessionPath), 0o755); err != nil {
		return eris.Wrapf(err, "browser: create session dir for %s", s.opts.SessionPath)
	}
	if err := os.WriteFile(s.opts.SessionPath, data, 0o600); err != nil {
		return eris.Wrapf(err, "browser: write session token %s", s.opts.SessionPath)
	}

	zap.L().Info("browser: session token persisted",
		zap.String("path", s.opts.SessionPath),
		zap.Int("cookies", len(cookies)))
	return nil
}

// LoadSessionToken restores a persisted token blob into the live browser.
func (s *Rod) LoadSessionToken(ctx context.Context) error {
	if s.opts.SessionPath == "" {
		return eris.New("browser: no session path configured")
	}

	data, err := os.ReadFile(s.opts.SessionPath)
	if err != nil {
		return eris.Wrapf(err, "browser: read session token %s", s.opts.SessionPath)
	}

	var cookies []*proto.NetworkCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return eris.Wrapf(err, "browser: decode session token %s", s.opts.SessionPath)
	}

	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: c.SameSite,
			Priority: c.Priority,
		})
	}
	if len(params) == 0 {
		return eris.Errorf("browser: session token %s holds no cookies", s.opts.SessionPath)
	}
	if err := s.browser.SetCookies(params); err != nil {
		return eris.Wrap(err, "browser: restore cookies")
	}

	zap.L().Debug("browser: session token restored", zap.Int("cookies", len(params)))
	return nil
}
