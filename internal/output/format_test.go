package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in    string
		want  OutputFormat
		valid bool
	}{
		{"yaml", FormatYAML, true},
		{"yml", FormatYAML, true},
		{"YAML", FormatYAML, true},
		{"json", FormatJSON, true},
		{"table", FormatTable, true},
		{"", FormatYAML, false},
		{"xml", FormatYAML, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, valid := ParseFormat(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.valid, valid)
		})
	}
}

func TestOutcomeStyleKnownOutcomes(t *testing.T) {
	// Known outcomes must render with a foreground color; unknown ones must not.
	for _, outcome := range []string{OutcomePass, OutcomeFail, OutcomeError, OutcomeIgnored} {
		style := OutcomeStyle(outcome)
		assert.NotNil(t, style.GetForeground(), "outcome %q should have a color", outcome)
	}
}

func TestRenderFileTree(t *testing.T) {
	files := map[string]string{
		"source/Shared.brs":            "primary module",
		"components/Alpha/Alpha.xml":   "component Alpha",
		"components/Alpha/AlphaKt.brs": "component Alpha",
	}

	tree := RenderFileTree("pkg", files)

	assert.Contains(t, tree, "pkg/")
	assert.Contains(t, tree, "source/")
	assert.Contains(t, tree, "Shared.brs")
	assert.Contains(t, tree, "Alpha.xml")

	// Deterministic: same input renders identically.
	assert.Equal(t, tree, RenderFileTree("pkg", files))
}

func TestRenderFileTreeEmpty(t *testing.T) {
	assert.Empty(t, RenderFileTree("pkg", nil))
}
