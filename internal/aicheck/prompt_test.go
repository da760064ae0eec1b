package aicheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Verdict
	}{
		{
			"valid",
			`{"isValid": true, "errors": [], "errorMessage": ""}`,
			Valid(),
		},
		{
			"invalid with message",
			`{"isValid": false, "errors": ["bad arrow"], "errorMessage": "Arrow on line 2 is incomplete."}`,
			Invalid("Arrow on line 2 is incomplete."),
		},
		{
			"invalid falls back to first error entry",
			`{"isValid": false, "errors": ["bad arrow", "dangling node"], "errorMessage": ""}`,
			Invalid("bad arrow"),
		},
		{
			"invalid with no usable fields",
			`{"isValid": false, "errors": [], "errorMessage": "  "}`,
			Invalid(genericInvalidMessage),
		},
		{
			"fenced object still parses",
			"```json\n{\"isValid\": true, \"errors\": [], \"errorMessage\": \"\"}\n```",
			Valid(),
		},
		{
			"object buried in prose",
			`Sure! Here is my assessment: {"isValid": false, "errorMessage": "Missing target node."} Hope that helps.`,
			Invalid("Missing target node."),
		},
		{
			"prose without object",
			"The diagram looks fine to me.",
			Indeterminate(),
		},
		{
			"missing isValid field",
			`{"errors": [], "errorMessage": ""}`,
			Indeterminate(),
		},
		{
			"broken json",
			`{"isValid": tru`,
			Indeterminate(),
		},
		{
			"empty completion",
			"",
			Indeterminate(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseVerdict(tt.raw))
		})
	}
}

func TestUserPrompt_PassesTextUnmodified(t *testing.T) {
	const text = "graph TD\n  A-->B\n  %% odd   spacing preserved"
	assert.Contains(t, userPrompt(text), text)
}
