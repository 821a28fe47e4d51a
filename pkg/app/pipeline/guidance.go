package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/callguard/callguard/pkg/domain/guidance"
	"github.com/callguard/callguard/pkg/infra/contentsafety"
	"github.com/callguard/callguard/pkg/infra/prometheus"
	"github.com/callguard/callguard/pkg/infra/providers"
)

// GuidanceSystemPrompt instructs the model to answer as a coaching script in
// the structured shape the UI renders. Wired into the guidance provider
// config at construction time.
const GuidanceSystemPrompt = `You are a senior call-center safety coach. A customer utterance was flagged by content moderation. Produce a short coaching script for the agent handling the call.
Respond with a single JSON object and nothing else, using exactly these keys:
"situation": one sentence describing what happened,
"currentAction": the immediate action the agent should take,
"currentScript": one sentence the agent can say right now,
"nextSteps": an array of short follow-up steps in order,
"reportable": boolean, whether the utterance should be reported,
"reportReason": why it is or is not reportable,
"matchedLaw": the name of a relevant law or regulation if one clearly applies, otherwise an empty string.`

// generateGuidance asks the model for a coaching package. When the provider's
// own content filter refuses the raw transcript, it retries once with a
// sanitized description built from category/severity pairs. Failure degrades
// to nil, never to a request error.
func (p *Pipeline) generateGuidance(ctx context.Context, text string, analysis *contentsafety.Result) *guidance.Package {
	defer observe("guidance", time.Now())

	pkg, err := p.askGuidance(ctx, text)
	if err != nil && providers.IsContentFilterError(err) {
		p.logger.Warn("guidance prompt refused by upstream content filter, retrying with sanitized description")
		pkg, err = p.askGuidance(ctx, sanitizedDescription(analysis))
	}
	if err != nil {
		prometheus.BranchFailuresTotal.WithLabelValues("guidance").Inc()
		p.logger.WithError(err).Warn("guidance generation failed, returning null guide")
		return nil
	}
	return pkg
}

func (p *Pipeline) askGuidance(ctx context.Context, input string) (*guidance.Package, error) {
	resp, err := p.llm.Ask(ctx, p.guidanceCfg, input)
	if err != nil {
		return nil, err
	}

	var pkg guidance.Package
	if err := decodeJSONObject(resp.Response, &pkg); err != nil {
		return nil, fmt.Errorf("guidance response is not the expected shape: %w", err)
	}
	return &pkg, nil
}

// sanitizedDescription restates the moderation outcome without quoting the
// utterance, so the retry prompt cannot trip the same filter.
func sanitizedDescription(analysis *contentsafety.Result) string {
	var flagged []string
	for _, a := range analysis.CategoriesAnalysis {
		if a.Severity > 0 {
			flagged = append(flagged, fmt.Sprintf("%s (severity %d)", a.Category, a.Severity))
		}
	}
	if len(flagged) == 0 {
		flagged = append(flagged, "unspecified")
	}
	return "A customer said something that was flagged by content moderation in these categories: " +
		strings.Join(flagged, ", ") +
		". The exact wording cannot be repeated. Coach the agent accordingly."
}
