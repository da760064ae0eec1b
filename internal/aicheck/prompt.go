package aicheck

import (
	"encoding/json"
	"strings"
)

// systemPrompt is the fixed instruction template. The diagram text is
// passed through unmodified in the user message.
const systemPrompt = `You are a strict syntax checker for mermaid flowchart diagrams.
Respond with ONLY a JSON object, no prose and no code fences, shaped exactly as:
{"isValid": boolean, "errors": ["problem", ...], "errorMessage": "summary"}
"errors" lists every problem found. "errorMessage" is one short human-readable
summary of the most important problem, empty when the diagram is valid.`

func userPrompt(text string) string {
	return "Check the following diagram code:\n```mermaid\n" + text + "\n```"
}

// genericInvalidMessage stands in when the model flags the text but
// supplies no usable message.
const genericInvalidMessage = "The AI checker flagged this diagram as invalid."

// checkResponse mirrors the JSON object the model is instructed to
// return. IsValid is a pointer so a response missing the field is
// distinguishable from an explicit false.
type checkResponse struct {
	IsValid      *bool    `json:"isValid"`
	Errors       []string `json:"errors"`
	ErrorMessage string   `json:"errorMessage"`
}

// parseVerdict extracts the structured verdict from a raw completion.
// Anything not matching the contract becomes Indeterminate.
func parseVerdict(raw string) Verdict {
	payload := extractJSON(raw)
	if payload == "" {
		return Indeterminate()
	}
	var cr checkResponse
	if err := json.Unmarshal([]byte(payload), &cr); err != nil || cr.IsValid == nil {
		return Indeterminate()
	}
	if *cr.IsValid {
		return Valid()
	}
	msg := strings.TrimSpace(cr.ErrorMessage)
	if msg == "" && len(cr.Errors) > 0 {
		msg = strings.TrimSpace(cr.Errors[0])
	}
	if msg == "" {
		msg = genericInvalidMessage
	}
	return Invalid(msg)
}

// extractJSON tolerates fences and prose around the object by keeping
// the span from the first '{' to the last '}'.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
