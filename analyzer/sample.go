package analyzer

import "time"

// SampleAnalysis returns the canned fallback report for filename. Apart from
// file_info.processed_at the output depends only on filename.
func SampleAnalysis(filename string, processedAt time.Time) *AnalysisResult {
	r := &AnalysisResult{
		Segments: []Segment{
			{
				TimeRange:       "00:00–01:30",
				Speaker:         "Speaker A",
				Transcript:      "Welcome everyone to today's meeting. Let's start by reviewing our agenda and objectives for this session. I hope everyone had a chance to review the materials I sent earlier.",
				Sentiment:       SentimentPositive,
				SentimentReason: "Welcoming and organized tone, proactive preparation",
				Topic:           "Meeting introduction and agenda review",
			},
			{
				TimeRange:       "01:30–03:00",
				Speaker:         "Speaker B",
				Transcript:      "Thank you for the introduction. I'd like to present our progress on the current project and discuss the challenges we've encountered. We've made significant headway, but there are some areas that need attention.",
				Sentiment:       SentimentNeutral,
				SentimentReason: "Professional and informative presentation with balanced perspective",
				Topic:           "Project progress update and challenge identification",
			},
			{
				TimeRange:       "03:00–04:30",
				Speaker:         "Speaker A",
				Transcript:      "That's great progress, thank you for the detailed update. What are the next steps we need to take to address these challenges? Do we have the resources we need?",
				Sentiment:       SentimentPositive,
				SentimentReason: "Constructive and solution-focused, showing support",
				Topic:           "Next steps discussion and resource planning",
			},
			{
				TimeRange:       "04:30–06:00",
				Speaker:         "Speaker C",
				Transcript:      "I suggest we prioritize the critical issues first and allocate additional resources where needed. We should also consider bringing in external expertise for the technical challenges.",
				Sentiment:       SentimentNeutral,
				SentimentReason: "Strategic and analytical approach, practical suggestions",
				Topic:           "Resource allocation and strategic planning",
			},
		},
		EngagementScore: EngagementScore{
			Score:       89,
			Explanation: "Excellent engagement with active participation from all speakers. Clear communication, structured discussion flow, collaborative problem-solving approach, and concrete action planning.",
		},
		MeetingSummary: MeetingSummary{
			KeyPoints: []string{
				"Meeting agenda was clearly established and followed systematically",
				"Project progress was comprehensively reviewed with detailed updates",
				"Team collaboration appears highly effective with open communication",
				"Challenges were identified proactively and solutions proposed",
				"Resource allocation strategies were discussed and agreed upon",
			},
			Decisions: []string{
				"Continue with current project approach with strategic modifications",
				"Prioritize critical issues for immediate attention and resolution",
				"Allocate additional resources to challenging technical areas",
				"Engage external consultants for specialized technical expertise",
			},
			OpenQuestions: []string{
				"What are the specific timeline requirements for each project phase?",
				"How should we prioritize the remaining tasks most effectively?",
				"What additional resources are needed for optimal project outcomes?",
				"How can we improve communication between all team members?",
			},
			RisksOrConcerns: []string{
				"Potential timeline delays if technical challenges persist",
				"Need for additional resources may impact overall budget constraints",
				"Communication gaps could affect project coordination and delivery",
			},
		},
		ActionItems: []ActionItem{
			{
				Description: "Prepare detailed project timeline with specific milestones and deliverables",
				Owner:       "Speaker A",
				Priority:    PriorityHigh,
			},
			{
				Description: "Schedule follow-up meeting for next week to review progress",
				Owner:       "Speaker B",
				Priority:    PriorityMedium,
			},
			{
				Description: "Research additional resources and prepare budget impact analysis",
				Owner:       "Speaker A",
				Priority:    PriorityMedium,
			},
			{
				Description: "Coordinate with external consultants and provide project background",
				Owner:       "Speaker C",
				Priority:    PriorityHigh,
			},
		},
		ImprovementSuggestions: []string{
			"Consider using visual aids and presentations for better engagement during updates",
			"Allocate specific time slots for each agenda item to maintain focus and efficiency",
			"Ensure all participants have equal opportunity to contribute ideas and feedback",
			"Document decisions and action items in real-time during meetings for clarity",
			"Implement regular check-ins to monitor progress on action items between meetings",
		},
	}
	r.stamp(filename, AnalysisTypeSample, processedAt)
	return r
}
