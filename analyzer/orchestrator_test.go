package analyzer

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/iotest"

	"meeting-analysis-api/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingObserver struct {
	mu      sync.Mutex
	records []RunRecord
}

func (r *recordingObserver) AnalysisCompleted(_ context.Context, rec RunRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func newTestOrchestrator(t *testing.T, p *fakeProvider, obs ...Observer) *Orchestrator {
	t.Helper()
	var client *Client
	if p != nil {
		client, _ = newTestClient(t, p)
	}
	return NewOrchestrator(zap.NewNop(), media.DefaultPolicy(), client, obs...)
}

func analyzeBytes(o *Orchestrator, filename string, content []byte) (*Outcome, error) {
	return o.Analyze(context.Background(), filename, int64(len(content)), bytes.NewReader(content))
}

func TestOrchestratorRealAnalysis(t *testing.T) {
	p := &fakeProvider{states: []JobState{JobActive}, text: "```json\n" + validAnalysisJSON + "\n```"}
	obs := &recordingObserver{}
	o := newTestOrchestrator(t, p, obs)

	out, err := analyzeBytes(o, "release.mp3", []byte("audio"))
	require.NoError(t, err)

	assert.Equal(t, []State{StateReceived, StateValidated, StateSubmitted, StatePolling, StateParsed, StateResponded}, out.Path)
	assert.Equal(t, StateResponded, out.State())
	assert.Empty(t, out.FallbackReason)
	assert.Equal(t, AnalysisTypeReal, out.Result.AnalysisType)
	assert.Equal(t, AnalysisTypeReal, out.Result.FileInfo.AnalysisType)
	assert.Equal(t, "release.mp3", out.Result.FileInfo.Filename)
	assert.Equal(t, "audio/mpeg", p.uploadedMIME)

	require.Len(t, obs.records, 1)
	rec := obs.records[0]
	assert.Equal(t, out.RunID, rec.RunID)
	assert.Equal(t, AnalysisTypeReal, rec.AnalysisType)
	assert.Equal(t, int64(5), rec.SizeBytes)
	assert.Equal(t, 1, rec.SegmentCount)
	assert.Equal(t, 72, rec.EngagementScore)
}

func TestOrchestratorFallbacks(t *testing.T) {
	tests := []struct {
		name       string
		provider   *fakeProvider
		wantReason string
		wantPath   []State
	}{
		{
			name:       "no provider configured",
			wantReason: ReasonAIUnavailable,
			wantPath:   []State{StateReceived, StateValidated, StateFallback, StateResponded},
		},
		{
			name:       "upload fails",
			provider:   &fakeProvider{uploadErr: errBoom},
			wantReason: string(KindProviderError),
			wantPath:   []State{StateReceived, StateValidated, StateFallback, StateResponded},
		},
		{
			name:       "never active",
			provider:   &fakeProvider{states: []JobState{JobPending}},
			wantReason: string(KindProcessingTimeout),
			wantPath:   []State{StateReceived, StateValidated, StateSubmitted, StatePolling, StateFallback, StateResponded},
		},
		{
			name:       "empty response",
			provider:   &fakeProvider{states: []JobState{JobActive}, text: ""},
			wantReason: string(KindEmptyResponse),
			wantPath:   []State{StateReceived, StateValidated, StateSubmitted, StatePolling, StateFallback, StateResponded},
		},
		{
			name:       "unparseable response",
			provider:   &fakeProvider{states: []JobState{JobActive}, text: "Sorry, I can't help with that."},
			wantReason: ReasonParseError,
			wantPath:   []State{StateReceived, StateValidated, StateSubmitted, StatePolling, StateFallback, StateResponded},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			o := newTestOrchestrator(t, tt.provider, obs)

			out, err := analyzeBytes(o, "retro.webm", []byte("video"))
			require.NoError(t, err)

			assert.Equal(t, tt.wantPath, out.Path)
			assert.Equal(t, tt.wantReason, out.FallbackReason)
			assert.Error(t, out.Cause)
			assert.Equal(t, AnalysisTypeSample, out.Result.AnalysisType)
			assert.Equal(t, "retro.webm", out.Result.FileInfo.Filename)
			require.Len(t, obs.records, 1)
			assert.Equal(t, tt.wantReason, obs.records[0].FallbackReason)
		})
	}
}

func TestOrchestratorValidationStopsEarly(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		content  []byte
		wantKind media.Kind
	}{
		{"unsupported type", "notes.txt", 5, []byte("hello"), media.KindUnsupportedType},
		{"declared too large", "big.mp4", media.MaxFileSize + 1, []byte("x"), media.KindTooLarge},
		{"no filename", "", 1, []byte("x"), media.KindNoFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{states: []JobState{JobActive}, text: validAnalysisJSON}
			obs := &recordingObserver{}
			o := newTestOrchestrator(t, p, obs)

			out, err := o.Analyze(context.Background(), tt.filename, tt.size, bytes.NewReader(tt.content))

			assert.Nil(t, out)
			var verr *media.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantKind, verr.Kind)
			assert.Equal(t, 0, p.uploads)
			assert.Empty(t, obs.records)
		})
	}
}

func TestOrchestratorRejectsUndeclaredOversizeBody(t *testing.T) {
	p := &fakeProvider{states: []JobState{JobActive}, text: validAnalysisJSON}
	client, _ := newTestClient(t, p)
	o := NewOrchestrator(zap.NewNop(), media.Policy{Allowed: media.AllowedExtensions, MaxSize: 4}, client)

	_, err := o.Analyze(context.Background(), "short.wav", 2, strings.NewReader("more than four bytes"))

	var verr *media.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, media.KindTooLarge, verr.Kind)
	assert.Equal(t, 0, p.uploads)
}

func TestOrchestratorReadFailure(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	readErr := errors.New("connection reset")

	_, err := o.Analyze(context.Background(), "call.wav", 10, iotest.ErrReader(readErr))

	require.Error(t, err)
	assert.ErrorIs(t, err, readErr)
	var verr *media.ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestOrchestratorModel(t *testing.T) {
	assert.Equal(t, "", newTestOrchestrator(t, nil).Model())
	assert.False(t, newTestOrchestrator(t, nil).AIAvailable())

	o := newTestOrchestrator(t, &fakeProvider{})
	assert.Equal(t, "fake-model", o.Model())
	assert.True(t, o.AIAvailable())
}
