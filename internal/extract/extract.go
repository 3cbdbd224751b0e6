// Package extract maps a completed chat response onto the metric schema.
// Responses arrive in one of three shapes (a JSON object, a two-column
// markdown table, or flattened label/value prose) with no format flag, so
// the shape is sniffed structurally. Extraction is total: the result always
// carries exactly one entry per schema field, empty string for anything the
// text did not resolve.
package extract

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/mvoice/creative-cli/internal/schema"
)

var wsRe = regexp.MustCompile(`\s+`)

// boilerplatePrefixes are stripped from the front of the response before any
// shape detection runs. The chat UI prepends these when the conversation
// transcript, not just the answer, is captured.
var boilerplatePrefixes = []string{
	"ai:",
	"assistant:",
	"my thought process",
	"here is the analysis",
	"here's the analysis",
	"metrics value",
	"metricsvalue",
	"metrics | value",
	"| metrics | value |",
}

// Extract parses rawText into a fully-keyed metric mapping. It never fails;
// unresolved fields map to the empty string.
func Extract(rawText string) map[string]string {
	text := normalize(rawText)
	text = stripBoilerplate(text)

	if m, ok := extractJSON(text); ok {
		return m
	}
	if m, ok := extractTable(text); ok {
		return m
	}
	return extractProse(text)
}

// normalize folds the snapshot to NFC and replaces non-breaking spaces;
// streamed DOM text carries decomposed codepoints and NBSP variants that
// would defeat label matching.
func normalize(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, " ", " ")
	text = strings.ReplaceAll(text, "​", "")
	return text
}

func stripBoilerplate(text string) string {
	for {
		trimmed := strings.TrimLeft(text, " \t\r\n")
		lower := strings.ToLower(trimmed)
		stripped := false
		for _, prefix := range boilerplatePrefixes {
			if strings.HasPrefix(lower, prefix) {
				trimmed = trimmed[len(prefix):]
				stripped = true
				break
			}
		}
		if !stripped {
			return trimmed
		}
		text = trimmed
	}
}

// emptyResult returns a mapping with every schema key present and empty.
func emptyResult() map[string]string {
	m := make(map[string]string, schema.Count())
	for _, label := range schema.Labels() {
		m[label] = ""
	}
	return m
}

// extractJSON attempts the JSON shape: the text parses as a single object
// after stripping surrounding commentary and code fences. Each schema key is
// looked up by exact label; non-string values are stringified.
func extractJSON(text string) (map[string]string, bool) {
	cleaned := cleanJSON(text)
	if cleaned == "" {
		return nil, false
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, false
	}

	result := emptyResult()
	for _, label := range schema.Labels() {
		rv, ok := raw[label]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(rv, &s); err == nil {
			result[label] = s
			continue
		}
		result[label] = strings.TrimSpace(string(rv))
	}
	return result, true
}

// cleanJSON extracts a JSON object from text that may be wrapped in markdown
// code fences or surrounded by commentary. Returns "" if no object is found.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}

// extractTable attempts the markdown-table shape: two-column pipe-delimited
// rows whose first cell matches a schema label case-insensitively. Row order
// does not matter for this shape.
func extractTable(text string) (map[string]string, bool) {
	result := emptyResult()
	matched := 0

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.Contains(line, "|") {
			continue
		}
		cells := splitTableRow(line)
		if len(cells) < 2 {
			continue
		}
		if isSeparatorRow(cells) {
			continue
		}
		idx, ok := schema.Lookup(cells[0])
		if !ok {
			continue
		}
		label := schema.Labels()[idx]
		if result[label] == "" {
			result[label] = collapseValue(cells[1])
		}
		matched++
	}

	if matched == 0 {
		return nil, false
	}
	return result, true
}

// splitTableRow splits a pipe-delimited row into trimmed cells, dropping the
// empty edge cells produced by leading/trailing pipes.
func splitTableRow(line string) []string {
	parts := strings.Split(line, "|")
	cells := make([]string, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" && (i == 0 || i == len(parts)-1) {
			continue
		}
		cells = append(cells, p)
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, c := range cells {
		if strings.Trim(c, "-: ") != "" {
			return false
		}
	}
	return true
}

// anchor is one located schema label in the prose text.
type anchor struct {
	schemaIdx int
	start     int // byte offset of the label
	end       int // byte offset just past the label
}

// extractProse is the fallback shape: for each schema label, in schema
// order, find its first case-insensitive occurrence and capture the text
// following it up to the next located label (or end of string). A label
// absent from the text yields empty string without affecting neighbors.
//
// Known ambiguity, inherited deliberately: labels serve as both content and
// boundary delimiters, so a response that mentions one metric's label inside
// another metric's value mis-splits at that mention.
func extractProse(text string) map[string]string {
	result := emptyResult()
	lower := strings.ToLower(text)
	labels := schema.Labels()

	anchors := make([]anchor, 0, len(labels))
	for i, label := range labels {
		pos := strings.Index(lower, strings.ToLower(label))
		if pos < 0 {
			continue
		}
		anchors = append(anchors, anchor{schemaIdx: i, start: pos, end: pos + len(label)})
	}

	// Position order; on ties the longer label wins so that "Brand" cannot
	// shadow "Brand Presence // ..." anchored at the same offset.
	sort.Slice(anchors, func(a, b int) bool {
		if anchors[a].start != anchors[b].start {
			return anchors[a].start < anchors[b].start
		}
		return anchors[a].end > anchors[b].end
	})

	// Drop anchors that begin inside a previously kept label.
	kept := anchors[:0]
	lastEnd := -1
	for _, a := range anchors {
		if a.start < lastEnd {
			continue
		}
		kept = append(kept, a)
		lastEnd = a.end
	}

	for i, a := range kept {
		valueEnd := len(text)
		if i+1 < len(kept) {
			valueEnd = kept[i+1].start
		}
		result[labels[a.schemaIdx]] = collapseValue(text[a.end:valueEnd])
	}

	return result
}

// collapseValue normalizes a captured value to a single line: leading
// colons from "Label: value" layouts are dropped, stray table pipes are
// stripped, and internal whitespace collapses to single spaces.
func collapseValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, ":")
	v = strings.ReplaceAll(v, "|", " ")
	v = wsRe.ReplaceAllString(v, " ")
	return strings.TrimSpace(v)
}
