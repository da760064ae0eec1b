// Package status probes a running mermpad server and formats the
// answer for the CLI.
package status

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/mermpad/internal/api"
)

// Report is the outcome of one probe. Err is set when the server was
// unreachable or answered with an error; the other fields are valid
// only when Reachable is true.
type Report struct {
	Addr      string
	Reachable bool
	Status    string
	Version   string
	Sessions  int
	Err       error
}

// Probe asks the server at addr for its health. A failed call comes
// back as an unreachable Report, not an error.
func Probe(ctx context.Context, addr string) Report {
	r := Report{Addr: addr}

	client := api.NewClient(addr)
	health, err := client.Health(ctx)
	if err != nil {
		r.Err = err
		return r
	}

	r.Reachable = true
	r.Status = health.Status
	r.Version = health.Version
	r.Sessions = health.Sessions
	return r
}

// Format renders a Report as the two-column table the status command
// prints.
func Format(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Server:    %s\n", r.Addr)
	if !r.Reachable {
		fmt.Fprintf(&b, "State:     unreachable\n")
		if r.Err != nil {
			fmt.Fprintf(&b, "Error:     %v\n", r.Err)
		}
		return b.String()
	}
	fmt.Fprintf(&b, "State:     %s\n", r.Status)
	fmt.Fprintf(&b, "Version:   %s\n", r.Version)
	fmt.Fprintf(&b, "Sessions:  %d\n", r.Sessions)
	return b.String()
}
