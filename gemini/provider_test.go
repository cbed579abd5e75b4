package gemini

import (
	"context"
	"errors"
	"testing"

	"meeting-analysis-api/analyzer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

func TestNewRequiresAPIKey(t *testing.T) {
	p, err := New(context.Background(), zap.NewNop(), Config{APIKey: "  ", Models: []string{"gemini-2.5-flash"}})
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestNewRequiresModels(t *testing.T) {
	_, err := New(context.Background(), zap.NewNop(), Config{APIKey: "key"})
	assert.Error(t, err)
}

func TestSelectModel(t *testing.T) {
	unavailable := errors.New("404 model not found")

	var tried []string
	model, err := selectModel(context.Background(), zap.NewNop(),
		[]string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-flash"},
		func(_ context.Context, name string) error {
			tried = append(tried, name)
			if name == "gemini-2.5-flash" {
				return unavailable
			}
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", model)
	assert.Equal(t, []string{"gemini-2.5-flash", "gemini-2.0-flash"}, tried)

	_, err = selectModel(context.Background(), zap.NewNop(), []string{"a", "b"},
		func(context.Context, string) error { return unavailable })
	assert.ErrorIs(t, err, unavailable)
}

func TestMapState(t *testing.T) {
	assert.Equal(t, analyzer.JobActive, mapState(genai.FileStateActive))
	assert.Equal(t, analyzer.JobFailed, mapState(genai.FileStateFailed))
	assert.Equal(t, analyzer.JobPending, mapState(genai.FileStateProcessing))
	assert.Equal(t, analyzer.JobPending, mapState(genai.FileStateUnspecified))
}

func TestToHandle(t *testing.T) {
	h := toHandle(&genai.File{
		Name:     "files/abc123",
		URI:      "https://generativelanguage.googleapis.com/v1beta/files/abc123",
		MIMEType: "video/mp4",
		State:    genai.FileStateProcessing,
	})
	assert.Equal(t, analyzer.JobHandle{
		Name:     "files/abc123",
		URI:      "https://generativelanguage.googleapis.com/v1beta/files/abc123",
		MIMEType: "video/mp4",
		State:    analyzer.JobPending,
	}, h)
}

func TestGenerateConfig(t *testing.T) {
	cfg := generateConfig(analyzer.DefaultGenerationParams)
	require.NotNil(t, cfg.Temperature)
	require.NotNil(t, cfg.TopP)
	assert.InDelta(t, 0.1, *cfg.Temperature, 1e-6)
	assert.InDelta(t, 0.8, *cfg.TopP, 1e-6)
	assert.Equal(t, int32(16384), cfg.MaxOutputTokens)
}
