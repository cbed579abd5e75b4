package analyzer

import (
	"context"
	"errors"
	"os"
	"testing"

	"meeting-analysis-api/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() AnalysisRequest {
	return NewAnalysisRequest(media.NewUpload("standup.mp4", []byte("fake media bytes")))
}

func TestClientAnalyzeSuccess(t *testing.T) {
	p := &fakeProvider{states: []JobState{JobPending, JobPending, JobActive}, text: validAnalysisJSON}
	c, timer := newTestClient(t, p)

	var tracked []State
	text, err := c.Analyze(context.Background(), testRequest(), func(s State) { tracked = append(tracked, s) })
	require.NoError(t, err)

	assert.Equal(t, validAnalysisJSON, text)
	assert.Equal(t, []State{StateSubmitted, StatePolling}, tracked)
	assert.Equal(t, 3, p.refreshes)
	assert.Equal(t, 2, timer.started)
	assert.Equal(t, 2*PollInterval, timer.waited)
	assert.Equal(t, "video/mp4", p.uploadedMIME)
	assert.Equal(t, AnalysisPrompt, p.prompt)
	assert.Equal(t, GenerationParams{Temperature: 0.1, MaxOutputTokens: 16384, TopP: 0.8}, p.params)
	assert.Equal(t, []string{"files/standup.mp4"}, p.deleted)
}

func TestClientRemovesTempFileOnEveryPath(t *testing.T) {
	cases := map[string]*fakeProvider{
		"success":       {states: []JobState{JobActive}, text: validAnalysisJSON},
		"upload error":  {uploadErr: errBoom},
		"poll failure":  {states: []JobState{JobFailed}},
		"timeout":       {states: []JobState{JobPending}},
		"generate fail": {states: []JobState{JobActive}, generateErr: errBoom},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestClient(t, p)
			_, _ = c.Analyze(context.Background(), testRequest(), nil)

			assert.True(t, p.pathExisted, "temp file should exist while uploading")
			_, err := os.Stat(p.uploadedPath)
			assert.True(t, os.IsNotExist(err), "temp file should be removed")
		})
	}
}

func TestClientProcessingTimeout(t *testing.T) {
	p := &fakeProvider{states: []JobState{JobPending}}
	c, timer := newTestClient(t, p)

	_, err := c.Analyze(context.Background(), testRequest(), nil)

	var extErr *ExternalError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, KindProcessingTimeout, extErr.Kind)
	assert.Equal(t, 0, p.generates)
	assert.Equal(t, PollBudget, timer.waited)
	assert.LessOrEqual(t, timer.waited, PollBudget+PollInterval)
	assert.Equal(t, int(PollBudget/PollInterval)+1, p.refreshes)
}

func TestClientFailedStateStopsPolling(t *testing.T) {
	p := &fakeProvider{states: []JobState{JobPending, JobFailed}}
	c, timer := newTestClient(t, p)

	_, err := c.Analyze(context.Background(), testRequest(), nil)

	var extErr *ExternalError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, KindProviderError, extErr.Kind)
	assert.Equal(t, 2, p.refreshes)
	assert.Equal(t, PollInterval, timer.waited)
}

func TestClientProviderErrors(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		wantKind ErrorKind
	}{
		{"upload", &fakeProvider{uploadErr: errBoom}, KindProviderError},
		{"refresh", &fakeProvider{refreshErr: errBoom}, KindProviderError},
		{"generate", &fakeProvider{states: []JobState{JobActive}, generateErr: errBoom}, KindProviderError},
		{"empty text", &fakeProvider{states: []JobState{JobActive}, text: "  \n"}, KindEmptyResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.provider)
			_, err := c.Analyze(context.Background(), testRequest(), nil)

			var extErr *ExternalError
			require.ErrorAs(t, err, &extErr)
			assert.Equal(t, tt.wantKind, extErr.Kind)
			if tt.wantKind == KindProviderError {
				assert.True(t, errors.Is(err, errBoom))
			}
		})
	}
}

func TestClientCancelledContext(t *testing.T) {
	p := &fakeProvider{states: []JobState{JobPending}}
	c, _ := newTestClient(t, p)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Analyze(ctx, testRequest(), nil)

	var extErr *ExternalError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, KindProviderError, extErr.Kind)
	assert.Equal(t, 1, p.refreshes)
}

func TestJobStateString(t *testing.T) {
	assert.Equal(t, "PENDING", JobPending.String())
	assert.Equal(t, "ACTIVE", JobActive.String())
	assert.Equal(t, "FAILED", JobFailed.String())
}
