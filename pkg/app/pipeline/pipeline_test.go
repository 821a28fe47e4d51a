package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/callguard/callguard/pkg/domain/regulation"
	"github.com/callguard/callguard/pkg/domain/safety"
	"github.com/callguard/callguard/pkg/domain/transcript"
	"github.com/callguard/callguard/pkg/infra/audio"
	audioMocks "github.com/callguard/callguard/pkg/infra/audio/mocks"
	"github.com/callguard/callguard/pkg/infra/contentsafety"
	analyzerMocks "github.com/callguard/callguard/pkg/infra/contentsafety/mocks"
	"github.com/callguard/callguard/pkg/infra/providers"
	providerMocks "github.com/callguard/callguard/pkg/infra/providers/mocks"
	indexMocks "github.com/callguard/callguard/pkg/infra/search/mocks"
	speechMocks "github.com/callguard/callguard/pkg/infra/speech/mocks"
)

type pipelineMocks struct {
	normalizer *audioMocks.Normalizer
	recognizer *speechMocks.Recognizer
	analyzer   *analyzerMocks.Analyzer
	index      *indexMocks.Index
	llm        *providerMocks.Client
}

func newTestPipeline() (*Pipeline, *pipelineMocks) {
	m := &pipelineMocks{
		normalizer: new(audioMocks.Normalizer),
		recognizer: new(speechMocks.Recognizer),
		analyzer:   new(analyzerMocks.Analyzer),
		index:      new(indexMocks.Index),
		llm:        new(providerMocks.Client),
	}
	p := New(Deps{
		Normalizer:     m.normalizer,
		Recognizer:     m.recognizer,
		Analyzer:       m.analyzer,
		Index:          m.index,
		LLM:            m.llm,
		ClassifyConfig: &providers.Config{Model: "classifier", SystemPrompt: ClassifySystemPrompt},
		GuidanceConfig: &providers.Config{Model: "coach", SystemPrompt: GuidanceSystemPrompt},
		Thresholds:     safety.DefaultThresholds(),
		Logger:         logrus.New(),
	})
	return p, m
}

func analysisWith(violence int) *contentsafety.Result {
	return &contentsafety.Result{
		CategoriesAnalysis: []contentsafety.CategoryAnalysis{
			{Category: "Hate", Severity: 0},
			{Category: "SelfHarm", Severity: 0},
			{Category: "Sexual", Severity: 0},
			{Category: "Violence", Severity: violence},
		},
	}
}

const guidanceJSON = `{
	"situation": "1. Customer threatened the agent",
	"currentAction": "De-escalate",
	"currentScript": "I hear how upset you are.",
	"nextSteps": ["1. Warn once", "2. Escalate"],
	"reportable": true,
	"reportReason": "Explicit threat of violence",
	"matchedLaw": "Criminal Act Article 283"
}`

func TestProcess_NormalizationFailureIsFatal(t *testing.T) {
	p, m := newTestPipeline()
	m.normalizer.On("Normalize", mock.Anything, mock.Anything).
		Return(nil, audio.ErrNormalization)

	_, err := p.Process(context.Background(), []byte("audio"))

	require.Error(t, err)
	assert.ErrorIs(t, err, audio.ErrNormalization)
	m.recognizer.AssertNotCalled(t, "Recognize", mock.Anything, mock.Anything)
}

func TestProcess_NoSpeechShortCircuits(t *testing.T) {
	p, m := newTestPipeline()
	m.normalizer.On("Normalize", mock.Anything, mock.Anything).Return([]byte("wav"), nil)
	m.recognizer.On("Recognize", mock.Anything, []byte("wav")).
		Return(transcript.Transcript{Outcome: transcript.OutcomeNoMatch}, nil)

	result, err := p.Process(context.Background(), []byte("audio"))

	require.NoError(t, err)
	assert.Equal(t, transcript.OutcomeNoMatch, result.Transcript.Outcome)
	assert.Empty(t, result.Transcript.Text)
	m.analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestProcess_CanceledCarriesReason(t *testing.T) {
	p, m := newTestPipeline()
	m.normalizer.On("Normalize", mock.Anything, mock.Anything).Return([]byte("wav"), nil)
	m.recognizer.On("Recognize", mock.Anything, mock.Anything).
		Return(transcript.Transcript{Outcome: transcript.OutcomeCanceled, CancelReason: "Error"}, nil)

	result, err := p.Process(context.Background(), []byte("audio"))

	require.NoError(t, err)
	assert.Equal(t, transcript.OutcomeCanceled, result.Transcript.Outcome)
	assert.Equal(t, "Error", result.Transcript.CancelReason)
	m.analyzer.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestProcess_ModerationFailureIsFatal(t *testing.T) {
	p, m := newTestPipeline()
	m.normalizer.On("Normalize", mock.Anything, mock.Anything).Return([]byte("wav"), nil)
	m.recognizer.On("Recognize", mock.Anything, mock.Anything).
		Return(transcript.Transcript{Text: "hello", Outcome: transcript.OutcomeRecognized}, nil)
	m.analyzer.On("Analyze", mock.Anything, "hello").
		Return(nil, errors.New("content safety service returned status 500"))

	_, err := p.Process(context.Background(), []byte("audio"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestProcess_CleanTranscriptAccepts(t *testing.T) {
	p, m := newTestPipeline()
	m.normalizer.On("Normalize", mock.Anything, mock.Anything).Return([]byte("wav"), nil)
	m.recognizer.On("Recognize", mock.Anything, mock.Anything).
		Return(transcript.Transcript{Text: "normal customer question", Outcome: transcript.OutcomeRecognized}, nil)
	m.analyzer.On("Analyze", mock.Anything, "normal customer question").
		Return(analysisWith(0), nil)

	result, err := p.Process(context.Background(), []byte("audio"))

	require.NoError(t, err)
	assert.Equal(t, safety.ActionAccept, result.Decision.Verdict)
	assert.Nil(t, result.Guide)
	assert.Nil(t, result.Regulation)
	m.llm.AssertNotCalled(t, "Ask", mock.Anything, mock.Anything, mock.Anything)
	m.index.AssertNotCalled(t, "Subcategories", mock.Anything)
}

func TestProcess_RejectRunsBothBranches(t *testing.T) {
	p, m := newTestPipeline()
	m.normalizer.On("Normalize", mock.Anything, mock.Anything).Return([]byte("wav"), nil)
	m.recognizer.On("Recognize", mock.Anything, mock.Anything).
		Return(transcript.Transcript{Text: "threatening words", Outcome: transcript.OutcomeRecognized}, nil)
	m.analyzer.On("Analyze", mock.Anything, "threatening words").
		Return(analysisWith(5), nil)

	// Guidance branch.
	m.llm.On("Ask", mock.Anything, p.guidanceCfg, "threatening words").
		Return(&providers.CompletionResponse{Response: guidanceJSON}, nil)

	// Regulation branch: vocabulary → classification → exact-match lookup.
	m.index.On("Subcategories", mock.Anything).Return([]string{"threats", "harassment"}, nil)
	m.llm.On("Ask", mock.Anything, p.classifyCfg, mock.Anything).
		Return(&providers.CompletionResponse{Response: "threats"}, nil)
	record := &regulation.Record{Subcategory: "threats", Regulation: "Criminal Act", Article: "Article 283"}
	m.index.On("TopBySubcategory", mock.Anything, "threats").Return(record, nil)

	result, err := p.Process(context.Background(), []byte("audio"))

	require.NoError(t, err)
	assert.Equal(t, safety.ActionReject, result.Decision.Verdict)
	assert.Equal(t, safety.ActionReject, result.Decision.Actions[safety.CategoryViolence])

	require.NotNil(t, result.Guide)
	// Enumeration prefixes are stripped for presentation.
	assert.Equal(t, "Customer threatened the agent", result.Guide.Situation)
	assert.Equal(t, []string{"Warn once", "Escalate"}, result.Guide.NextSteps)
	require.NotNil(t, result.Guide.Reportable)
	assert.True(t, *result.Guide.Reportable)

	require.NotNil(t, result.Regulation)
	assert.Equal(t, "Criminal Act", result.Regulation.Regulation)
}

func TestProcess_GuidanceContentFilterRetriesSanitized(t *testing.T) {
	p, m := newTestPipeline()
	m.normalizer.On("Normalize", mock.Anything, mock.Anything).Return([]byte("wav"), nil)
	m.recognizer.On("Recognize", mock.Anything, mock.Anything).
		Return(transcript.Transcript{Text: "graphic threat", Outcome: transcript.OutcomeRecognized}, nil)
	m.analyzer.On("Analyze", mock.Anything, mock.Anything).Return(analysisWith(6), nil)

	m.index.On("Subcategories", mock.Anything).Return([]string{}, nil)

	filterErr := errors.New(`non-200 status: 400 {"error":{"code":"content_filter"}}`)
	m.llm.On("Ask", mock.Anything, p.guidanceCfg, "graphic threat").
		Return(nil, filterErr).Once()
	m.llm.On("Ask", mock.Anything, p.guidanceCfg, mock.MatchedBy(func(prompt string) bool {
		return prompt != "graphic threat"
	})).Return(&providers.CompletionResponse{Response: guidanceJSON}, nil).Once()

	result, err := p.Process(context.Background(), []byte("audio"))

	require.NoError(t, err)
	require.NotNil(t, result.Guide)
	m.llm.AssertExpectations(t)
}

func TestProcess_GuidanceDoubleFailureDegradesToNil(t *testing.T) {
	p, m := newTestPipeline()
	m.normalizer.On("Normalize", mock.Anything, mock.Anything).Return([]byte("wav"), nil)
	m.recognizer.On("Recognize", mock.Anything, mock.Anything).
		Return(transcript.Transcript{Text: "flagged", Outcome: transcript.OutcomeRecognized}, nil)
	m.analyzer.On("Analyze", mock.Anything, mock.Anything).Return(analysisWith(5), nil)

	m.index.On("Subcategories", mock.Anything).Return(nil, errors.New("index down"))

	filterErr := errors.New("content management policy violation")
	m.llm.On("Ask", mock.Anything, p.guidanceCfg, mock.Anything).Return(nil, filterErr)

	result, err := p.Process(context.Background(), []byte("audio"))

	require.NoError(t, err)
	assert.Equal(t, safety.ActionReject, result.Decision.Verdict)
	assert.Nil(t, result.Guide)
	assert.Nil(t, result.Regulation)
}

func TestProcess_ClassifierAnswerOutsideVocabularyIsUnknown(t *testing.T) {
	p, m := newTestPipeline()
	m.normalizer.On("Normalize", mock.Anything, mock.Anything).Return([]byte("wav"), nil)
	m.recognizer.On("Recognize", mock.Anything, mock.Anything).
		Return(transcript.Transcript{Text: "flagged", Outcome: transcript.OutcomeRecognized}, nil)
	m.analyzer.On("Analyze", mock.Anything, mock.Anything).Return(analysisWith(5), nil)

	m.llm.On("Ask", mock.Anything, p.guidanceCfg, mock.Anything).
		Return(&providers.CompletionResponse{Response: guidanceJSON}, nil)

	m.index.On("Subcategories", mock.Anything).Return([]string{"threats"}, nil)
	m.llm.On("Ask", mock.Anything, p.classifyCfg, mock.Anything).
		Return(&providers.CompletionResponse{Response: "something the model made up"}, nil)

	result, err := p.Process(context.Background(), []byte("audio"))

	require.NoError(t, err)
	assert.Nil(t, result.Regulation)
	m.index.AssertNotCalled(t, "TopBySubcategory", mock.Anything, mock.Anything)
}

func TestClassify_MatchesCaseInsensitivelyAndTrimsQuotes(t *testing.T) {
	p, m := newTestPipeline()

	m.llm.On("Ask", mock.Anything, p.classifyCfg, mock.Anything).
		Return(&providers.CompletionResponse{Response: "\"Threats\"\n"}, nil)

	label := p.classify(context.Background(), "text", []string{"threats", "harassment"})

	assert.Equal(t, "threats", label)
}

func TestDecodeJSONObject_HandlesCodeFences(t *testing.T) {
	var v struct {
		Situation string `json:"situation"`
	}

	err := decodeJSONObject("```json\n{\"situation\": \"ok\"}\n```", &v)

	require.NoError(t, err)
	assert.Equal(t, "ok", v.Situation)
}
