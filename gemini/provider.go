package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"meeting-analysis-api/analyzer"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

var ErrNoAPIKey = errors.New("gemini: API key not set")

type Config struct {
	APIKey string
	// Models are tried in order; the first one the API resolves is used.
	Models      []string
	HTTPTimeout time.Duration
}

// Provider implements analyzer.Provider against the Gemini API.
type Provider struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

var _ analyzer.Provider = (*Provider)(nil)

// New builds the Gemini client and picks a model. Any error means AI analysis
// is unavailable for the lifetime of the process.
func New(ctx context.Context, logger *zap.Logger, cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNoAPIKey
	}
	if len(cfg.Models) == 0 {
		return nil, errors.New("gemini: no candidate models")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.HTTPTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model, err := selectModel(ctx, logger, cfg.Models, func(ctx context.Context, name string) error {
		_, err := client.Models.Get(ctx, name, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Gemini model selected", zap.String("model", model))
	return &Provider{client: client, model: model, logger: logger}, nil
}

func selectModel(ctx context.Context, logger *zap.Logger, candidates []string, resolve func(context.Context, string) error) (string, error) {
	var errs []error
	for _, name := range candidates {
		if err := resolve(ctx, name); err != nil {
			logger.Warn("Gemini model unavailable", zap.String("model", name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		return name, nil
	}
	return "", fmt.Errorf("gemini: no usable model: %w", errors.Join(errs...))
}

func (p *Provider) Model() string { return p.model }

func (p *Provider) Upload(ctx context.Context, path, mimeType, displayName string) (analyzer.JobHandle, error) {
	file, err := p.client.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		MIMEType:    mimeType,
		DisplayName: displayName,
	})
	if err != nil {
		return analyzer.JobHandle{}, err
	}
	return toHandle(file), nil
}

func (p *Provider) Refresh(ctx context.Context, job analyzer.JobHandle) (analyzer.JobHandle, error) {
	file, err := p.client.Files.Get(ctx, job.Name, nil)
	if err != nil {
		return job, err
	}
	return toHandle(file), nil
}

func (p *Provider) Generate(ctx context.Context, job analyzer.JobHandle, prompt string, params analyzer.GenerationParams) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromURI(job.URI, job.MIMEType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, generateConfig(params))
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

func (p *Provider) Delete(ctx context.Context, job analyzer.JobHandle) error {
	_, err := p.client.Files.Delete(ctx, job.Name, nil)
	return err
}

func generateConfig(params analyzer.GenerationParams) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(params.Temperature),
		TopP:            genai.Ptr(params.TopP),
		MaxOutputTokens: params.MaxOutputTokens,
	}
}

func toHandle(file *genai.File) analyzer.JobHandle {
	return analyzer.JobHandle{
		Name:     file.Name,
		URI:      file.URI,
		MIMEType: file.MIMEType,
		State:    mapState(file.State),
	}
}

func mapState(s genai.FileState) analyzer.JobState {
	switch s {
	case genai.FileStateActive:
		return analyzer.JobActive
	case genai.FileStateFailed:
		return analyzer.JobFailed
	default:
		return analyzer.JobPending
	}
}
