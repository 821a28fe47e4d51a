package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/callguard/callguard/pkg/domain/regulation"
	"github.com/callguard/callguard/pkg/infra/prometheus"
)

// ClassifySystemPrompt pins the classifier to the controlled vocabulary. The
// vocabulary itself is dynamic and goes into the per-request prompt.
const ClassifySystemPrompt = `You classify call-center utterances against a controlled vocabulary of regulation subcategories. Answer with exactly one label from the provided list, verbatim, or the single word "unknown" if none fits. No explanation, no punctuation.`

// lookupRegulation resolves the transcript to a regulation record: fetch the
// subcategory vocabulary, classify the text to one label, then exact-match
// the index on that label. Every failure degrades to nil.
func (p *Pipeline) lookupRegulation(ctx context.Context, text string) *regulation.Record {
	defer observe("regulation", time.Now())

	labels, err := p.index.Subcategories(ctx)
	if err != nil {
		prometheus.BranchFailuresTotal.WithLabelValues("regulation").Inc()
		p.logger.WithError(err).Warn("failed to fetch subcategory vocabulary")
		return nil
	}
	if len(labels) == 0 {
		return nil
	}

	label := p.classify(ctx, text, labels)
	if label == regulation.UnknownLabel {
		return nil
	}

	record, err := p.index.TopBySubcategory(ctx, label)
	if err != nil {
		prometheus.BranchFailuresTotal.WithLabelValues("regulation").Inc()
		p.logger.WithError(err).WithField("label", label).Warn("regulation lookup failed")
		return nil
	}
	return record
}

// classify maps the transcript to one vocabulary label. Any answer that is
// not exactly in the vocabulary is treated as unknown.
func (p *Pipeline) classify(ctx context.Context, text string, labels []string) string {
	prompt := "Utterance:\n" + text + "\n\nLabels:\n" + strings.Join(labels, "\n")

	resp, err := p.llm.Ask(ctx, p.classifyCfg, prompt)
	if err != nil {
		p.logger.WithError(err).Warn("classification failed, treating as unknown")
		return regulation.UnknownLabel
	}

	answer := strings.TrimSpace(strings.Trim(strings.TrimSpace(resp.Response), "\"'`"))
	for _, label := range labels {
		if strings.EqualFold(answer, label) {
			return label
		}
	}
	return regulation.UnknownLabel
}
