package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCount(t *testing.T) {
	assert.Equal(t, 50, Count())
	assert.Len(t, Labels(), Count())
	assert.Len(t, Fields(), Count())
}

func TestLabelsUniqueAndOrdered(t *testing.T) {
	labels := Labels()
	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		assert.False(t, seen[label], "duplicate label %q", label)
		seen[label] = true
	}

	// Context fields come first, grouped metrics after.
	assert.Equal(t, "Business Unit", labels[0])
	assert.Equal(t, "Meaningful & Different // Target Surprise", labels[len(labels)-1])
}

func TestLookup(t *testing.T) {
	idx, ok := Lookup("Brand")
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	idx, ok = Lookup("  visuals // color palette  ")
	require.True(t, ok)
	assert.Equal(t, "Visuals // Color Palette", Labels()[idx])

	_, ok = Lookup("Not A Metric")
	assert.False(t, ok)
}

func TestCategory(t *testing.T) {
	assert.Equal(t, "", Field{Label: "Brand"}.Category())
	assert.Equal(t, "Audio", Field{Label: "Audio // Audio Type"}.Category())
}

func TestPromptContainsEveryLabel(t *testing.T) {
	prompt := Prompt()
	for _, label := range Labels() {
		assert.True(t, strings.Contains(prompt, label), "prompt missing %q", label)
	}
	// Hints render in brackets after the label.
	assert.Contains(t, prompt, "Brand Prominence: [High/Medium/Low]")
}

func TestFieldsReturnsCopy(t *testing.T) {
	fs := Fields()
	fs[0].Label = "mutated"
	assert.Equal(t, "Business Unit", Labels()[0])
}
