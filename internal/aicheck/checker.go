// Package aicheck asks a hosted model whether diagram text is valid and
// normalizes the answer into a three-way verdict. Call failures are
// encoded as Indeterminate; the package never surfaces an error.
package aicheck

import "context"

// VerdictKind classifies check outcomes.
type VerdictKind string

const (
	VerdictValid         VerdictKind = "valid"
	VerdictInvalid       VerdictKind = "invalid"
	VerdictIndeterminate VerdictKind = "indeterminate"
)

// Verdict is the normalized outcome of one AI syntax check. Message is
// set only for invalid verdicts.
type Verdict struct {
	Kind    VerdictKind `json:"kind"`
	Message string      `json:"message,omitempty"`
}

// Valid reports the model accepted the text.
func Valid() Verdict { return Verdict{Kind: VerdictValid} }

// Invalid reports the model rejected the text with a message.
func Invalid(message string) Verdict {
	return Verdict{Kind: VerdictInvalid, Message: message}
}

// Indeterminate reports the check itself failed; callers fall back to
// the renderer's own verdict.
func Indeterminate() Verdict { return Verdict{Kind: VerdictIndeterminate} }

// Checker runs syntax checks against a model.
type Checker interface {
	Check(ctx context.Context, text string) Verdict
}

// Disabled is a Checker that always returns Indeterminate, used when no
// model credential is configured.
type Disabled struct{}

// Check implements Checker.
func (Disabled) Check(context.Context, string) Verdict { return Indeterminate() }

var _ Checker = Disabled{}
