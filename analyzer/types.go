package analyzer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"meeting-analysis-api/media"
)

// Provenance tags for AnalysisResult.AnalysisType.
const (
	AnalysisTypeReal   = "Real AI Analysis"
	AnalysisTypeSample = "Sample Analysis (AI Unavailable)"
)

const (
	SentimentPositive = "Positive"
	SentimentNeutral  = "Neutral"
	SentimentNegative = "Negative"

	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// GenerationParams are the fixed sampling settings for the provider call.
type GenerationParams struct {
	Temperature     float32
	MaxOutputTokens int32
	TopP            float32
}

var DefaultGenerationParams = GenerationParams{
	Temperature:     0.1,
	MaxOutputTokens: 16384,
	TopP:            0.8,
}

// AnalysisRequest is immutable once built.
type AnalysisRequest struct {
	Upload media.Upload
	Prompt string
	Params GenerationParams
}

func NewAnalysisRequest(upload media.Upload) AnalysisRequest {
	return AnalysisRequest{
		Upload: upload,
		Prompt: AnalysisPrompt,
		Params: DefaultGenerationParams,
	}
}

// AnalysisResult is the response schema of /analyze.
type AnalysisResult struct {
	FileInfo               FileInfo        `json:"file_info"`
	Segments               []Segment       `json:"segments"`
	EngagementScore        EngagementScore `json:"engagement_score"`
	MeetingSummary         MeetingSummary  `json:"meeting_summary"`
	ActionItems            []ActionItem    `json:"action_items"`
	ImprovementSuggestions []string        `json:"improvement_suggestions"`
	AnalysisType           string          `json:"analysis_type"`
}

type FileInfo struct {
	Filename     string `json:"filename"`
	ProcessedAt  string `json:"processed_at"`
	AnalysisType string `json:"analysis_type"`
	Status       string `json:"status"`
}

type Segment struct {
	TimeRange       string `json:"time_range"`
	Speaker         string `json:"speaker"`
	Transcript      string `json:"transcript"`
	Sentiment       string `json:"sentiment"`
	SentimentReason string `json:"sentiment_reason"`
	Topic           string `json:"topic"`
}

type EngagementScore struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
}

// UnmarshalJSON takes the score as an integer, a float (rounded) or a numeric
// string such as "85" or "85%".
func (e *EngagementScore) UnmarshalJSON(data []byte) error {
	var raw struct {
		Score       json.RawMessage `json:"score"`
		Explanation string          `json:"explanation"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	score, err := decodeScore(raw.Score)
	if err != nil {
		return err
	}
	e.Score = score
	e.Explanation = raw.Explanation
	return nil
}

func decodeScore(raw json.RawMessage) (int, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return 0, nil
	}
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "%")
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("engagement score %s is not a number", raw)
	}
	return int(math.Round(min(max(f, 0), 100))), nil
}

type MeetingSummary struct {
	KeyPoints       []string `json:"key_points"`
	Decisions       []string `json:"decisions"`
	OpenQuestions   []string `json:"open_questions"`
	RisksOrConcerns []string `json:"risks_or_concerns"`
}

type ActionItem struct {
	Description string `json:"description"`
	Owner       string `json:"owner"`
	Priority    string `json:"priority"`
}

// stamp records provenance in both places the schema exposes it.
func (r *AnalysisResult) stamp(filename, analysisType string, at time.Time) {
	r.AnalysisType = analysisType
	r.FileInfo = FileInfo{
		Filename:     filename,
		ProcessedAt:  at.Format(time.RFC3339Nano),
		AnalysisType: analysisType,
		Status:       "completed",
	}
}

// RunRecord is the metadata-only summary of one analysis handed to observers.
// It never carries transcript text or media bytes.
type RunRecord struct {
	RunID           string    `json:"run_id"`
	Filename        string    `json:"file_name"`
	SizeBytes       int64     `json:"size_bytes"`
	MIMEType        string    `json:"mime_type"`
	AnalysisType    string    `json:"analysis_type"`
	FallbackReason  string    `json:"fallback_reason,omitempty"`
	StatePath       []State   `json:"state_path"`
	SegmentCount    int       `json:"segment_count"`
	EngagementScore int       `json:"engagement_score"`
	DurationMillis  int64     `json:"duration_ms"`
	FinishedAt      time.Time `json:"finished_at"`
}
