package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvoice/creative-cli/internal/schema"
)

func TestResultAlwaysFullyKeyed(t *testing.T) {
	inputs := []string{
		"",
		"no metric content at all",
		`{"Brand": "Dove"}`,
		"| Brand | Dove |",
		"Brand: Dove",
	}
	for _, in := range inputs {
		result := Extract(in)
		assert.Len(t, result, schema.Count(), "input %q", in)
		for _, label := range schema.Labels() {
			_, ok := result[label]
			assert.True(t, ok, "input %q missing key %q", in, label)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	values := map[string]string{}
	for i, label := range schema.Labels() {
		values[label] = "value " + string(rune('a'+i%26))
	}
	data, err := json.Marshal(values)
	require.NoError(t, err)

	result := Extract(string(data))
	for label, want := range values {
		assert.Equal(t, want, result[label], label)
	}
}

func TestJSONFencedAndCommented(t *testing.T) {
	text := "Here is the analysis you asked for:\n```json\n" +
		`{"Brand": "AICE", "Category": "Ice Cream", "Visuals // Animation/CGI Used": "Yes"}` +
		"\n```\nLet me know if you need more."
	result := Extract(text)
	assert.Equal(t, "AICE", result["Brand"])
	assert.Equal(t, "Ice Cream", result["Category"])
	assert.Equal(t, "Yes", result["Visuals // Animation/CGI Used"])
	assert.Equal(t, "", result["Platform"])
}

func TestJSONNonStringValues(t *testing.T) {
	result := Extract(`{"Brand Presence // Brand Appearance Count": 7, "Visuals // Creative Duration (Seconds)": 30.5}`)
	assert.Equal(t, "7", result["Brand Presence // Brand Appearance Count"])
	assert.Equal(t, "30.5", result["Visuals // Creative Duration (Seconds)"])
}

func TestTableScrambledOrder(t *testing.T) {
	text := `| Metrics | Value |
|---|---|
| Visuals // Production Quality | High |
| Brand | Dove |
| Audio // Audio Type | Known Music |
| Category | Skincare |`
	result := Extract(text)
	assert.Equal(t, "Dove", result["Brand"])
	assert.Equal(t, "Skincare", result["Category"])
	assert.Equal(t, "High", result["Visuals // Production Quality"])
	assert.Equal(t, "Known Music", result["Audio // Audio Type"])
}

func TestTableCaseInsensitiveLabels(t *testing.T) {
	result := Extract("| BRAND | Dove |\n| category | Skincare |")
	assert.Equal(t, "Dove", result["Brand"])
	assert.Equal(t, "Skincare", result["Category"])
}

func TestTableFirstMatchWins(t *testing.T) {
	result := Extract("| Brand | Dove |\n| Brand | Axe |")
	assert.Equal(t, "Dove", result["Brand"])
}

func TestProseTwoLabels(t *testing.T) {
	result := Extract("Business Unit: Beauty Category: Skincare")
	assert.Equal(t, "Beauty", result["Business Unit"])
	assert.Equal(t, "Skincare", result["Category"])
}

func TestProseMissingLabelDoesNotAffectNeighbors(t *testing.T) {
	result := Extract("Business Unit: Beauty Platform: Instagram")
	assert.Equal(t, "Beauty", result["Business Unit"])
	assert.Equal(t, "", result["Category"])
	assert.Equal(t, "Instagram", result["Platform"])
}

func TestProseCollapsesWhitespaceAndPipes(t *testing.T) {
	result := Extract("Brand:   Dove |\n  soap Platform: YouTube")
	assert.Equal(t, "Dove soap", result["Brand"])
	assert.Equal(t, "YouTube", result["Platform"])
}

func TestProseGroupedLabels(t *testing.T) {
	text := "Visuals // Production Quality: High Visuals // Setting: Studio Audio // Audio Type: No Music"
	result := Extract(text)
	assert.Equal(t, "High", result["Visuals // Production Quality"])
	assert.Equal(t, "Studio", result["Visuals // Setting"])
	assert.Equal(t, "No Music", result["Audio // Audio Type"])
}

func TestBoilerplateStripped(t *testing.T) {
	result := Extract("AI: Here is the analysis: Business Unit: Beauty Category: Skincare")
	assert.Equal(t, "Beauty", result["Business Unit"])
	assert.Equal(t, "Skincare", result["Category"])
}

func TestNonBreakingSpaceNormalized(t *testing.T) {
	result := Extract("Business Unit: Beauty Category: Skincare")
	assert.Equal(t, "Beauty", result["Business Unit"])
}
