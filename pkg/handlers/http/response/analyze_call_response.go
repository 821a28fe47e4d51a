package response

import (
	"github.com/callguard/callguard/pkg/app/pipeline"
	"github.com/callguard/callguard/pkg/domain/guidance"
	"github.com/callguard/callguard/pkg/domain/regulation"
	"github.com/callguard/callguard/pkg/infra/contentsafety"
)

// AnalyzeCallResponse is the JSON body for a fully processed clip.
type AnalyzeCallResponse struct {
	Text            string                `json:"text"`
	SafetyDecision  string                `json:"safetyDecision"`
	SafetyDetails   map[string]string     `json:"safetyDetails"`
	RawSafetyResult *contentsafety.Result `json:"rawSafetyResult"`
	Guide           *guidance.Package     `json:"guide,omitempty"`
	Regulation      *regulation.Record    `json:"regulation,omitempty"`
}

// FromPipelineResult maps a recognized-and-moderated pipeline result to the
// response shape.
func FromPipelineResult(result *pipeline.Result) AnalyzeCallResponse {
	details := make(map[string]string, len(result.Decision.Actions))
	for category, action := range result.Decision.Actions {
		details[string(category)] = string(action)
	}

	return AnalyzeCallResponse{
		Text:            result.Transcript.Text,
		SafetyDecision:  string(result.Decision.Verdict),
		SafetyDetails:   details,
		RawSafetyResult: result.Safety,
		Guide:           result.Guide,
		Regulation:      result.Regulation,
	}
}
