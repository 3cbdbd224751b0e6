// Package worklist loads the input table of creative URLs and derives the
// per-item artifact naming used by the download and analyze phases.
package worklist

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Platform identifies the source social platform of a creative URL.
type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformUnknown   Platform = "unknown"
)

// Item is one creative tracked through download, analysis, and storage.
// The URL is the canonical store key; ArtifactPath points at the downloaded
// video on disk.
type Item struct {
	URL          string
	Platform     Platform
	ArtifactPath string
}

var (
	tiktokIDRe    = regexp.MustCompile(`/video/(\d+)`)
	instagramIDRe = regexp.MustCompile(`/(?:p|reel|reels)/([A-Za-z0-9_-]+)`)
)

// Load reads a work list from a CSV or XLSX file, dispatching on extension.
// URLs are de-duplicated preserving first-seen order.
func Load(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return LoadXLSX(path)
	default:
		return LoadCSV(path)
	}
}

// Items builds work items for urls, resolving each artifact path under
// downloadsDir. The positional index keeps filenames unique for URLs whose
// video ID cannot be parsed.
func Items(urls []string, downloadsDir string) []Item {
	items := make([]Item, 0, len(urls))
	for i, u := range urls {
		items = append(items, Item{
			URL:          u,
			Platform:     DetectPlatform(u),
			ArtifactPath: filepath.Join(downloadsDir, ArtifactName(u, i)),
		})
	}
	return items
}

// DetectPlatform identifies the platform from the URL host.
func DetectPlatform(rawURL string) Platform {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(parsed.Hostname())
	switch {
	case strings.Contains(host, "tiktok"):
		return PlatformTikTok
	case strings.Contains(host, "instagram"):
		return PlatformInstagram
	default:
		return PlatformUnknown
	}
}

// ArtifactName derives a deterministic filename for a downloaded video:
// <platform>_<videoID>.mp4, falling back to the positional index when no
// video ID is recognizable.
func ArtifactName(rawURL string, index int) string {
	platform := DetectPlatform(rawURL)
	videoID := strconv.Itoa(index)

	switch platform {
	case PlatformTikTok:
		if m := tiktokIDRe.FindStringSubmatch(rawURL); m != nil {
			videoID = m[1]
		}
	case PlatformInstagram:
		if m := instagramIDRe.FindStringSubmatch(rawURL); m != nil {
			videoID = m[1]
		}
	}

	return string(platform) + "_" + videoID + ".mp4"
}

// dedupe preserves first-seen order.
func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// findURLColumn locates the url column in a header row, case-insensitively.
func findURLColumn(header []string) (int, error) {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), "url") {
			return i, nil
		}
	}
	return 0, eris.New("worklist: missing required column \"url\"")
}
