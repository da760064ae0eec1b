package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/dusk-indust/mermpad/internal/pipeline"
)

// Report is the machine-readable outcome of a one-shot validation.
type Report struct {
	Valid     bool    `json:"valid"`
	Message   *string `json:"message"`
	Source    string  `json:"source,omitempty"`
	CheckedAt string  `json:"checkedAt"`
}

// NewReport converts a validation outcome into a Report. Rendered
// markup does not travel with the report.
func NewReport(out pipeline.Outcome) Report {
	return Report{
		Valid:     out.Valid(),
		Message:   out.Message,
		Source:    out.Source,
		CheckedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
