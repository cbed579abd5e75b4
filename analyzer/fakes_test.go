package analyzer

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// fakeProvider scripts provider behaviour. States are returned by successive
// Refresh calls; the last entry repeats.
type fakeProvider struct {
	mu sync.Mutex

	uploadErr   error
	states      []JobState
	refreshErr  error
	text        string
	generateErr error

	uploads      int
	refreshes    int
	generates    int
	deleted      []string
	uploadedPath string
	uploadedMIME string
	prompt       string
	params       GenerationParams
	pathExisted  bool
}

func (f *fakeProvider) Upload(_ context.Context, path, mimeType, displayName string) (JobHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	f.uploadedPath = path
	f.uploadedMIME = mimeType
	_, statErr := os.Stat(path)
	f.pathExisted = statErr == nil
	if f.uploadErr != nil {
		return JobHandle{}, f.uploadErr
	}
	return JobHandle{Name: "files/" + displayName, URI: "https://example.test/files/1", MIMEType: mimeType, State: JobPending}, nil
}

func (f *fakeProvider) Refresh(_ context.Context, job JobHandle) (JobHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
	if f.refreshErr != nil {
		return job, f.refreshErr
	}
	i := f.refreshes - 1
	if i >= len(f.states) {
		i = len(f.states) - 1
	}
	if i >= 0 {
		job.State = f.states[i]
	}
	return job, nil
}

func (f *fakeProvider) Generate(_ context.Context, _ JobHandle, prompt string, params GenerationParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generates++
	f.prompt = prompt
	f.params = params
	return f.text, f.generateErr
}

func (f *fakeProvider) Delete(_ context.Context, job JobHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, job.Name)
	return nil
}

func (f *fakeProvider) Model() string { return "fake-model" }

// instantTimer fires immediately and adds up the durations it was asked to wait.
type instantTimer struct {
	c       chan time.Time
	waited  time.Duration
	started int
}

func (t *instantTimer) Start(d time.Duration) {
	t.started++
	t.waited += d
	t.c = make(chan time.Time, 1)
	t.c <- time.Time{}
}

func (t *instantTimer) Stop() {}

func (t *instantTimer) C() <-chan time.Time { return t.c }

func newTestClient(t *testing.T, p Provider) (*Client, *instantTimer) {
	t.Helper()
	timer := &instantTimer{}
	c := NewClient(p, zap.NewNop(),
		WithTimer(func() backoff.Timer { return timer }),
		WithTempDir(t.TempDir()),
	)
	return c, timer
}

var errBoom = errors.New("boom")

const validAnalysisJSON = `{
  "segments": [
    {"time_range": "00:00–00:45", "speaker": "Speaker A", "transcript": "Let's ship on Friday.", "sentiment": "positive", "sentiment_reason": "Upbeat", "topic": "Release"}
  ],
  "engagement_score": {"score": 72, "explanation": "Focused discussion"},
  "meeting_summary": {"key_points": ["Release Friday"], "decisions": ["Ship"], "open_questions": [], "risks_or_concerns": ["QA capacity"]},
  "action_items": [{"description": "Prepare release notes", "owner": "Speaker A", "priority": "high"}],
  "improvement_suggestions": ["Timebox the demo"]
}`
