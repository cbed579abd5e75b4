package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"meeting-analysis-api/utils"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	PollInterval = 2 * time.Second
	PollBudget   = 120 * time.Second
)

// JobState is the provider-side processing state of an uploaded file.
type JobState int

const (
	JobPending JobState = iota
	JobActive
	JobFailed
)

func (s JobState) String() string {
	switch s {
	case JobActive:
		return "ACTIVE"
	case JobFailed:
		return "FAILED"
	default:
		return "PENDING"
	}
}

// JobHandle references a file uploaded to the provider.
type JobHandle struct {
	Name     string
	URI      string
	MIMEType string
	State    JobState
}

// Provider is the generative-AI backend. The gemini package implements it.
type Provider interface {
	Upload(ctx context.Context, path, mimeType, displayName string) (JobHandle, error)
	Refresh(ctx context.Context, job JobHandle) (JobHandle, error)
	Generate(ctx context.Context, job JobHandle, prompt string, params GenerationParams) (string, error)
	Delete(ctx context.Context, job JobHandle) error
	Model() string
}

type ErrorKind string

const (
	KindProviderError     ErrorKind = "provider_error"
	KindProcessingTimeout ErrorKind = "processing_timeout"
	KindEmptyResponse     ErrorKind = "empty_response"
)

// ExternalError is the only error type Client.Analyze returns.
type ExternalError struct {
	Kind ErrorKind
	Err  error
}

func (e *ExternalError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ExternalError) Unwrap() error { return e.Err }

var errStillProcessing = errors.New("file still processing")

// Client drives one provider round trip: temp file, upload, poll, generate.
type Client struct {
	provider Provider
	logger   *zap.Logger
	interval time.Duration
	budget   time.Duration
	newTimer func() backoff.Timer
	tempDir  string
}

type ClientOption func(*Client)

// WithPollPolicy overrides the poll interval and total wait budget.
func WithPollPolicy(interval, budget time.Duration) ClientOption {
	return func(c *Client) {
		c.interval = interval
		c.budget = budget
	}
}

// WithTimer replaces the wall-clock timer used between polls.
func WithTimer(newTimer func() backoff.Timer) ClientOption {
	return func(c *Client) { c.newTimer = newTimer }
}

// WithTempDir sets where upload bytes are spooled before submission.
func WithTempDir(dir string) ClientOption {
	return func(c *Client) { c.tempDir = dir }
}

func NewClient(provider Provider, logger *zap.Logger, opts ...ClientOption) *Client {
	c := &Client{
		provider: provider,
		logger:   logger,
		interval: PollInterval,
		budget:   PollBudget,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model reports the provider model in use.
func (c *Client) Model() string {
	return c.provider.Model()
}

// Analyze returns the provider's raw text for req. Any failure is an *ExternalError.
// track, when non-nil, is called as the request enters SUBMITTED and POLLING.
func (c *Client) Analyze(ctx context.Context, req AnalysisRequest, track func(State)) (string, error) {
	if track == nil {
		track = func(State) {}
	}
	upload := req.Upload

	path, err := c.spool(upload.Content, upload.Extension)
	if err != nil {
		return "", &ExternalError{Kind: KindProviderError, Err: err}
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("Temp file cleanup failed", zap.Error(err))
		}
	}()

	job, err := c.provider.Upload(ctx, path, upload.MIMEType, upload.Filename)
	if err != nil {
		return "", &ExternalError{Kind: KindProviderError, Err: fmt.Errorf("upload file: %w", err)}
	}
	defer c.release(ctx, job)
	track(StateSubmitted)
	c.logger.Info("File submitted to provider",
		zap.String("file", job.Name),
		zap.String("state", job.State.String()))

	track(StatePolling)
	job, err = c.waitActive(ctx, job)
	if err != nil {
		return "", err
	}

	text, err := c.provider.Generate(ctx, job, req.Prompt, req.Params)
	if err != nil {
		return "", &ExternalError{Kind: KindProviderError, Err: fmt.Errorf("generate content: %w", err)}
	}
	if strings.TrimSpace(text) == "" {
		return "", &ExternalError{Kind: KindEmptyResponse, Err: errors.New("provider returned no text")}
	}

	c.logger.Info("Provider analysis received", zap.Int("response_chars", len(text)))
	return text, nil
}

func (c *Client) spool(content []byte, ext string) (string, error) {
	pattern := "verta-*"
	if ext != "" {
		pattern += "." + ext
	}
	f, err := os.CreateTemp(c.tempDir, pattern)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), nil
}

// waitActive polls until the job is ACTIVE, FAILED, or the budget runs out.
func (c *Client) waitActive(ctx context.Context, job JobHandle) (JobHandle, error) {
	start := time.Now()
	defer func() {
		utils.ProviderPollDuration.Observe(time.Since(start).Seconds())
	}()

	var retries uint64
	if c.interval > 0 {
		retries = uint64(c.budget / c.interval)
	}
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.interval), retries),
		ctx,
	)

	var timer backoff.Timer
	if c.newTimer != nil {
		timer = c.newTimer()
	}

	polls := 0
	err := backoff.RetryNotifyWithTimer(func() error {
		polls++
		next, err := c.provider.Refresh(ctx, job)
		if err != nil {
			return backoff.Permanent(&ExternalError{Kind: KindProviderError, Err: fmt.Errorf("get file state: %w", err)})
		}
		job = next
		switch job.State {
		case JobActive:
			return nil
		case JobFailed:
			return backoff.Permanent(&ExternalError{Kind: KindProviderError, Err: fmt.Errorf("file %s processing failed", job.Name)})
		default:
			return errStillProcessing
		}
	}, b, func(_ error, wait time.Duration) {
		c.logger.Debug("Waiting for provider file processing",
			zap.String("file", job.Name),
			zap.Duration("next_poll", wait))
	}, timer)

	if err == nil {
		c.logger.Info("Provider file is active", zap.Int("polls", polls))
		return job, nil
	}

	var extErr *ExternalError
	switch {
	case errors.As(err, &extErr):
		return job, extErr
	case errors.Is(err, errStillProcessing):
		return job, &ExternalError{
			Kind: KindProcessingTimeout,
			Err:  fmt.Errorf("file %s not active after %s", job.Name, c.budget),
		}
	default:
		return job, &ExternalError{Kind: KindProviderError, Err: err}
	}
}

// release deletes the provider-side copy; failures are only logged.
func (c *Client) release(ctx context.Context, job JobHandle) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := c.provider.Delete(ctx, job); err != nil {
		c.logger.Warn("Provider file cleanup failed",
			zap.String("file", job.Name),
			zap.Error(err))
	}
}
