package analyzer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleAnalysis(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	r := SampleAnalysis("weekly-sync.mp4", at)

	assert.Equal(t, AnalysisTypeSample, r.AnalysisType)
	assert.Equal(t, FileInfo{
		Filename:     "weekly-sync.mp4",
		ProcessedAt:  "2025-03-14T09:30:00Z",
		AnalysisType: AnalysisTypeSample,
		Status:       "completed",
	}, r.FileInfo)
	assert.Len(t, r.Segments, 4)
	assert.Equal(t, 89, r.EngagementScore.Score)
	assert.Len(t, r.ActionItems, 4)
	assert.Len(t, r.ImprovementSuggestions, 5)

	for _, seg := range r.Segments {
		assert.Contains(t, []string{SentimentPositive, SentimentNeutral, SentimentNegative}, seg.Sentiment)
	}
	for _, item := range r.ActionItems {
		assert.Contains(t, []string{PriorityHigh, PriorityMedium, PriorityLow}, item.Priority)
	}
}

func TestSampleAnalysisStableExceptTimestamp(t *testing.T) {
	first := SampleAnalysis("a.wav", time.Now())
	second := SampleAnalysis("a.wav", time.Now().Add(time.Minute))
	first.FileInfo.ProcessedAt = ""
	second.FileInfo.ProcessedAt = ""

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestSampleAnalysisReturnsFreshValues(t *testing.T) {
	first := SampleAnalysis("a.wav", time.Now())
	first.Segments[0].Speaker = "changed"

	second := SampleAnalysis("a.wav", time.Now())
	assert.Equal(t, "Speaker A", second.Segments[0].Speaker)
}
