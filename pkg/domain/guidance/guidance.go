package guidance

import (
	"regexp"
	"strings"
)

// Package is the structured coaching script produced for a rejected utterance.
type Package struct {
	Situation     string   `json:"situation"`
	CurrentAction string   `json:"currentAction"`
	CurrentScript string   `json:"currentScript"`
	NextSteps     []string `json:"nextSteps"`
	Reportable    *bool    `json:"reportable,omitempty"`
	ReportReason  string   `json:"reportReason,omitempty"`
	MatchedLaw    string   `json:"matchedLaw,omitempty"`
}

// listPrefix matches leading enumeration markers the model tends to emit,
// e.g. "1. ", "2) ", "- ", "* ".
var listPrefix = regexp.MustCompile(`^\s*(?:\d+\s*[.)]|[-*•])\s*`)

// StripListPrefix removes a leading enumeration marker from a single line.
func StripListPrefix(s string) string {
	return listPrefix.ReplaceAllString(strings.TrimSpace(s), "")
}

// Normalize strips enumeration prefixes from every text field. Formatting
// cleanup only; the content is untouched.
func (p *Package) Normalize() {
	p.Situation = StripListPrefix(p.Situation)
	p.CurrentAction = StripListPrefix(p.CurrentAction)
	p.CurrentScript = StripListPrefix(p.CurrentScript)
	p.ReportReason = StripListPrefix(p.ReportReason)
	for i, step := range p.NextSteps {
		p.NextSteps[i] = StripListPrefix(step)
	}
}
