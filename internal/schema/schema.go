// Package schema defines the fixed, ordered list of creative-analysis metrics
// the AI is asked to fill in. Order is significant: the tabular store writes
// columns in this order and the prose-shape extractor anchors on labels in
// this order.
package schema

import "strings"

// Field is one metric in the analysis prompt.
type Field struct {
	// Label is the exact label used in the prompt, matched in responses,
	// and used as the store column header.
	Label string
	// Hint is the allowed-values guidance rendered in brackets after the
	// label in the prompt.
	Hint string
}

// Category returns the metric group (e.g. "Brand Presence"), or "" for the
// ungrouped context fields at the top of the schema.
func (f Field) Category() string {
	if i := strings.Index(f.Label, " // "); i >= 0 {
		return f.Label[:i]
	}
	return ""
}

var fields = []Field{
	{"Business Unit", "e.g., Beauty & Wellbeing, Food & Beverage"},
	{"Category", "e.g., Ice Cream, Skincare"},
	{"Brand", "e.g., AICE, Dove"},
	{"Platform", "e.g., Facebook, Instagram, YouTube"},
	{"Creative Link", "Full URL of the creative"},
	{"Period", "Date of the creative"},
	{"Brand Presence // First Product Appearance (Seconds)", "Time in seconds when the product with the logo first appears"},
	{"Brand Presence // First Product Appearance (%)", "(First Product Appearance Seconds / Total Creative Duration) * 100"},
	{"Brand Presence // First Standalone Logo Appearance (Seconds)", "Time in seconds when the standalone logo first appears"},
	{"Brand Presence // First Standalone Logo Appearance (%)", "(First Standalone Logo Appearance Seconds / Total Creative Duration) * 100"},
	{"Brand Presence // Brand Logo Visibility - Standalone", "Yes/No"},
	{"Brand Presence // Brand Logo Visibility - On Product", "Yes/No"},
	{"Brand Presence // Brand Prominence", "High/Medium/Low"},
	{"Brand Presence // Brand Appearance Count", "Numerical count"},
	{"Brand Presence // Other Brands Present", "List any other brands featured, if applicable"},
	{"Visuals // Visual Style", "Human/Cartoon/Mix/Product Showcase/Other (specify)"},
	{"Visuals // Color Palette", "Describe dominant colors and overall palette"},
	{"Visuals // Creative Duration (Seconds)", "Duration in seconds"},
	{"Visuals // Animation/CGI Used", "Yes/No"},
	{"Visuals // Production Quality", "High/Medium/Low"},
	{"Visuals // Setting", "Urban/Rural/Mix/Indoor/Outdoor/Home/Studio/Other (specify)"},
	{"Visuals // Nature Setting", "Yes/No"},
	{"Visuals // Scientific Setting", "Yes/No"},
	{"Visuals // Real Life vs. Staged", "Real Life/Set/Mix"},
	{"Visuals // Individual vs. Group Focus", "Individual/Group/Mix"},
	{"Visuals // On-Screen Text", "Yes/No"},
	{"Visuals // Text Style", "Bold/Plain/Mix"},
	{"Visuals // Text Size", "Big/Small/Medium"},
	{"Visuals // Beauty Appeal", "High/Medium/Low/Not Applicable"},
	{"Visuals // Ingredient Visual", "Yes/No"},
	{"Visuals // Horizontal vs. Vertical", "Horizontal/Vertical/Square"},
	{"Audio // Audio Type", "Original Music/Known Music/No Music/Dialogue/Sound Effects/Other (specify)"},
	{"Audio // Voiceover vs. Talent", "Voiceover/Talent/Both/Neither"},
	{"Audio // Localized Language", "Yes/No"},
	{"Audio // Sound Effects Usage", "Heavy/Light/None"},
	{"Talent // Talent Type", "Known Celebrity/Influencer/KOL/Actor/Model/Everyday People/Cartoon Characters/No Talent/Other (specify)"},
	{"Talent // Number of KOLs", "Numerical count"},
	{"Talent // Brand Ambassador Used", "Yes/No"},
	{"Messaging // Messaging Summary", "Write a concise summary of the creative's message in at least 20 words"},
	{"Messaging // Emotional Tone", "List primary emotions evoked, e.g., Joyful, Inspiring, Humorous"},
	{"Messaging // Key Product Benefit Highlighted", "Briefly summarize the main benefit emphasized"},
	{"Messaging // Emotional Appeal", "High/Medium/Low"},
	{"Messaging // Storytelling Used", "Yes/No"},
	{"Messaging // Call to Action (CTA)", "Describe the CTA"},
	{"Meaningful & Different // Social Impact", "Yes/No; If Yes, briefly describe the social impact"},
	{"Meaningful & Different // Emotional Depth", "Check all that apply: Heartwarming, Inspiring, Thought-Provoking, Humorous, Nostalgic, Empowering, Relatable, Other (specify)"},
	{"Meaningful & Different // Authenticity", "High/Medium/Low"},
	{"Meaningful & Different // Uniqueness of Concept", "1 (Clichéd) to 5 (Highly Original)"},
	{"Meaningful & Different // Execution Style (Unique Elements)", "Describe any distinctive visual or audio elements"},
	{"Meaningful & Different // Target Surprise", "Yes/No; If Yes, explain how the target audience or messaging is unexpected"},
}

// labelIndex maps lowercased labels to their schema position.
var labelIndex = func() map[string]int {
	m := make(map[string]int, len(fields))
	for i, f := range fields {
		m[strings.ToLower(f.Label)] = i
	}
	return m
}()

// Fields returns a copy of the ordered metric list.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// Labels returns the ordered metric labels.
func Labels() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Label
	}
	return out
}

// Count returns the number of metrics in the schema.
func Count() int {
	return len(fields)
}

// Lookup finds the schema position of a label, case-insensitively.
func Lookup(label string) (int, bool) {
	i, ok := labelIndex[strings.ToLower(strings.TrimSpace(label))]
	return i, ok
}

// Prompt renders the fixed analysis prompt sent with every video. Metric
// labels are flattened into a single run of text, matching the label layout
// the model tends to echo back.
func Prompt() string {
	var b strings.Builder
	b.WriteString("Please analyze the video based on the following metrics and provide the results in a table format with two columns: 'Metrics' and 'Value'.\n \nMetrics:\n \n")
	for i, f := range fields {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(f.Label)
		b.WriteString(": [")
		b.WriteString(f.Hint)
		b.WriteString("]")
	}
	return b.String()
}
