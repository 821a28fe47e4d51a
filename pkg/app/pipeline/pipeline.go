package pipeline

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/callguard/callguard/pkg/domain/guidance"
	"github.com/callguard/callguard/pkg/domain/regulation"
	"github.com/callguard/callguard/pkg/domain/safety"
	"github.com/callguard/callguard/pkg/domain/transcript"
	"github.com/callguard/callguard/pkg/infra/audio"
	"github.com/callguard/callguard/pkg/infra/contentsafety"
	"github.com/callguard/callguard/pkg/infra/prometheus"
	"github.com/callguard/callguard/pkg/infra/providers"
	"github.com/callguard/callguard/pkg/infra/search"
	"github.com/callguard/callguard/pkg/infra/speech"
)

//go:generate mockery --name=Processor --dir=. --output=./mocks --filename=processor_mock.go --case=underscore

// Processor runs one audio clip through the full analysis pipeline.
type Processor interface {
	Process(ctx context.Context, input []byte) (*Result, error)
}

// Result aggregates the stage outputs for one request. Guide and Regulation
// are only populated on reject, and each may be nil when its branch degraded.
type Result struct {
	Transcript transcript.Transcript
	Decision   safety.Decision
	Safety     *contentsafety.Result
	Guide      *guidance.Package
	Regulation *regulation.Record
}

type Deps struct {
	Normalizer     audio.Normalizer
	Recognizer     speech.Recognizer
	Analyzer       contentsafety.Analyzer
	Index          search.Index
	LLM            providers.Client
	ClassifyConfig *providers.Config
	GuidanceConfig *providers.Config
	Thresholds     safety.Thresholds
	Logger         *logrus.Logger
}

// Pipeline sequences normalize → transcribe → moderate → decide, and on
// reject fans out guidance generation and regulation lookup concurrently.
// It holds no per-request state; concurrent Process calls are independent.
type Pipeline struct {
	normalizer  audio.Normalizer
	recognizer  speech.Recognizer
	analyzer    contentsafety.Analyzer
	index       search.Index
	llm         providers.Client
	classifyCfg *providers.Config
	guidanceCfg *providers.Config
	thresholds  safety.Thresholds
	logger      *logrus.Logger
}

func New(deps Deps) *Pipeline {
	return &Pipeline{
		normalizer:  deps.Normalizer,
		recognizer:  deps.Recognizer,
		analyzer:    deps.Analyzer,
		index:       deps.Index,
		llm:         deps.LLM,
		classifyCfg: deps.ClassifyConfig,
		guidanceCfg: deps.GuidanceConfig,
		thresholds:  deps.Thresholds,
		logger:      deps.Logger,
	}
}

func (p *Pipeline) Process(ctx context.Context, input []byte) (*Result, error) {
	wav, err := p.timedNormalize(ctx, input)
	if err != nil {
		prometheus.RequestsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	tr, err := p.timedRecognize(ctx, wav)
	if err != nil {
		prometheus.RequestsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	switch tr.Outcome {
	case transcript.OutcomeNoMatch:
		prometheus.RequestsTotal.WithLabelValues("no_speech").Inc()
		return &Result{Transcript: tr}, nil
	case transcript.OutcomeCanceled:
		prometheus.RequestsTotal.WithLabelValues("canceled").Inc()
		p.logger.WithField("reason", tr.CancelReason).Warn("recognition canceled")
		return &Result{Transcript: tr}, nil
	}

	analysis, err := p.timedAnalyze(ctx, tr.Text)
	if err != nil {
		prometheus.RequestsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	decision := safety.Decide(analysis.Scores(), p.thresholds)

	result := &Result{
		Transcript: tr,
		Decision:   decision,
		Safety:     analysis,
	}

	if decision.Verdict == safety.ActionAccept {
		prometheus.RequestsTotal.WithLabelValues("accepted").Inc()
		return result, nil
	}

	for category, action := range decision.Actions {
		if action == safety.ActionReject {
			prometheus.RejectionsTotal.WithLabelValues(string(category)).Inc()
		}
	}

	// Fan-out/fan-in: both branches always complete, each degrading to nil
	// on its own failure.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result.Guide = p.generateGuidance(gctx, tr.Text, analysis)
		return nil
	})
	g.Go(func() error {
		result.Regulation = p.lookupRegulation(gctx, tr.Text)
		return nil
	})
	_ = g.Wait()

	if result.Guide != nil {
		result.Guide.Normalize()
	}

	prometheus.RequestsTotal.WithLabelValues("rejected").Inc()
	return result, nil
}

func (p *Pipeline) timedNormalize(ctx context.Context, input []byte) ([]byte, error) {
	defer observe("normalize", time.Now())
	return p.normalizer.Normalize(ctx, input)
}

func (p *Pipeline) timedRecognize(ctx context.Context, wav []byte) (transcript.Transcript, error) {
	defer observe("transcribe", time.Now())
	return p.recognizer.Recognize(ctx, wav)
}

func (p *Pipeline) timedAnalyze(ctx context.Context, text string) (*contentsafety.Result, error) {
	defer observe("moderate", time.Now())
	return p.analyzer.Analyze(ctx, text)
}

func observe(stage string, start time.Time) {
	prometheus.StageLatency.WithLabelValues(stage).Observe(float64(time.Since(start).Milliseconds()))
}
