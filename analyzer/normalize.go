package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNoJSONObject = errors.New("no JSON object found in response")

// ParseError means the provider text could not be turned into an AnalysisResult.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse error: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// Normalize extracts the JSON object from raw provider output and decodes it.
// Code fences and any prose around the outermost braces are discarded.
func Normalize(raw string) (*AnalysisResult, error) {
	body, err := ExtractJSON(raw)
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	var result AnalysisResult
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		return nil, &ParseError{Err: err}
	}

	canonicalize(&result)
	return &result, nil
}

// ExtractJSON returns the text between the first '{' and the last '}' inclusive,
// after removing a leading ```json / ``` fence and a trailing ``` fence.
func ExtractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(text, "```json"):
		text = text[len("```json"):]
	case strings.HasPrefix(text, "```"):
		text = text[len("```"):]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSONObject
	}
	return text[start : end+1], nil
}

// canonicalize fills absent lists and snaps enum fields to their allowed values.
func canonicalize(r *AnalysisResult) {
	if r.Segments == nil {
		r.Segments = []Segment{}
	}
	for i := range r.Segments {
		r.Segments[i].Sentiment = canonicalSentiment(r.Segments[i].Sentiment)
	}

	r.EngagementScore.Score = min(max(r.EngagementScore.Score, 0), 100)

	s := &r.MeetingSummary
	s.KeyPoints = orEmpty(s.KeyPoints)
	s.Decisions = orEmpty(s.Decisions)
	s.OpenQuestions = orEmpty(s.OpenQuestions)
	s.RisksOrConcerns = orEmpty(s.RisksOrConcerns)

	if r.ActionItems == nil {
		r.ActionItems = []ActionItem{}
	}
	for i := range r.ActionItems {
		r.ActionItems[i].Priority = canonicalPriority(r.ActionItems[i].Priority)
	}

	r.ImprovementSuggestions = orEmpty(r.ImprovementSuggestions)
}

func canonicalSentiment(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive":
		return SentimentPositive
	case "negative":
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func canonicalPriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
