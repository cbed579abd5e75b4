package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"meeting-analysis-api/media"
	"meeting-analysis-api/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is a step of the analysis pipeline. Every run starts at RECEIVED and
// ends at RESPONDED, passing through exactly one of PARSED or FALLBACK.
type State string

const (
	StateReceived  State = "RECEIVED"
	StateValidated State = "VALIDATED"
	StateSubmitted State = "SUBMITTED"
	StatePolling   State = "POLLING"
	StateParsed    State = "PARSED"
	StateFallback  State = "FALLBACK"
	StateResponded State = "RESPONDED"
)

// Fallback reasons that are not an ExternalError kind.
const (
	ReasonAIUnavailable = "ai_unavailable"
	ReasonParseError    = "parse_error"
)

// Observer is told about every finished run. It must not block for long and
// its failures are its own business.
type Observer interface {
	AnalysisCompleted(ctx context.Context, rec RunRecord)
}

// Outcome is what one pass through the pipeline produced.
type Outcome struct {
	RunID          string
	Result         *AnalysisResult
	Path           []State
	FallbackReason string
	Cause          error
}

// State returns the last state reached.
func (o *Outcome) State() State {
	if len(o.Path) == 0 {
		return ""
	}
	return o.Path[len(o.Path)-1]
}

func (o *Outcome) advance(s State) {
	o.Path = append(o.Path, s)
}

// Orchestrator sequences validation, the provider call, normalization and fallback.
type Orchestrator struct {
	policy    media.Policy
	client    *Client
	observers []Observer
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrchestrator wires the pipeline. A nil client means no provider was
// configured at startup and every run falls back to the sample analysis.
func NewOrchestrator(logger *zap.Logger, policy media.Policy, client *Client, observers ...Observer) *Orchestrator {
	return &Orchestrator{
		policy:    policy,
		client:    client,
		observers: observers,
		logger:    logger,
		now:       time.Now,
	}
}

func (o *Orchestrator) Policy() media.Policy { return o.policy }

func (o *Orchestrator) AIAvailable() bool { return o.client != nil }

// Model returns the provider model name, or "" without a provider.
func (o *Orchestrator) Model() string {
	if o.client == nil {
		return ""
	}
	return o.client.Model()
}

// Analyze runs the pipeline for one upload. The only errors returned are a
// *media.ValidationError for bad input and read failures on r; provider and
// parse failures are absorbed into a sample result.
func (o *Orchestrator) Analyze(ctx context.Context, filename string, size int64, r io.Reader) (*Outcome, error) {
	started := o.now()
	out := &Outcome{RunID: uuid.NewString()}
	out.advance(StateReceived)

	if err := o.validate(filename, size); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(io.LimitReader(r, o.policy.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := o.validate(filename, int64(len(content))); err != nil {
		return nil, err
	}
	upload := media.NewUpload(filename, content)
	out.advance(StateValidated)

	logger := o.logger.With(zap.String("run_id", out.RunID), zap.String("filename", filename))
	logger.Info("Starting analysis",
		zap.Int64("size_bytes", upload.Size),
		zap.String("mime_type", upload.MIMEType))

	if o.client == nil {
		o.fallback(out, upload, ReasonAIUnavailable, errors.New("no AI provider configured"))
	} else {
		raw, err := o.client.Analyze(ctx, NewAnalysisRequest(upload), out.advance)
		if err != nil {
			reason := string(KindProviderError)
			var extErr *ExternalError
			if errors.As(err, &extErr) {
				reason = string(extErr.Kind)
			}
			o.fallback(out, upload, reason, err)
		} else if result, err := Normalize(raw); err != nil {
			o.fallback(out, upload, ReasonParseError, err)
		} else {
			result.stamp(upload.Filename, AnalysisTypeReal, o.now())
			out.Result = result
			out.advance(StateParsed)
		}
	}
	out.advance(StateResponded)

	elapsed := o.now().Sub(started)
	utils.AnalysesTotal.WithLabelValues(out.Result.AnalysisType).Inc()
	utils.AnalysisDuration.WithLabelValues(out.Result.AnalysisType).Observe(elapsed.Seconds())

	if out.FallbackReason != "" {
		logger.Warn("Analysis fell back to sample result",
			zap.String("reason", out.FallbackReason),
			zap.Error(out.Cause))
	} else {
		logger.Info("Analysis completed",
			zap.Int("segments", len(out.Result.Segments)),
			zap.Duration("elapsed", elapsed))
	}

	o.notify(ctx, out, upload, elapsed)
	return out, nil
}

func (o *Orchestrator) validate(filename string, size int64) error {
	err := o.policy.Check(filename, size)
	var verr *media.ValidationError
	if errors.As(err, &verr) {
		utils.UploadRejectionsTotal.WithLabelValues(string(verr.Kind)).Inc()
	}
	return err
}

func (o *Orchestrator) fallback(out *Outcome, upload media.Upload, reason string, cause error) {
	out.FallbackReason = reason
	out.Cause = cause
	out.Result = SampleAnalysis(upload.Filename, o.now())
	out.advance(StateFallback)
	utils.FallbacksTotal.WithLabelValues(reason).Inc()
}

func (o *Orchestrator) notify(ctx context.Context, out *Outcome, upload media.Upload, elapsed time.Duration) {
	if len(o.observers) == 0 {
		return
	}
	rec := RunRecord{
		RunID:           out.RunID,
		Filename:        upload.Filename,
		SizeBytes:       upload.Size,
		MIMEType:        upload.MIMEType,
		AnalysisType:    out.Result.AnalysisType,
		FallbackReason:  out.FallbackReason,
		StatePath:       append([]State(nil), out.Path...),
		SegmentCount:    len(out.Result.Segments),
		EngagementScore: out.Result.EngagementScore.Score,
		DurationMillis:  elapsed.Milliseconds(),
		FinishedAt:      o.now().UTC(),
	}
	ctx = context.WithoutCancel(ctx)
	for _, obs := range o.observers {
		obs.AnalysisCompleted(ctx, rec)
	}
}
