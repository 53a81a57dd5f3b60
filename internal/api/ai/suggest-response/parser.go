package suggestresponse

import (
	"regexp"
	"strings"
)

const fallbackApology = "I apologize, but I'm having trouble generating a response right now. Could you please try again or contact me directly?"

var (
	numberedLine  = regexp.MustCompile(`^\d+\.`)
	labelledLine  = regexp.MustCompile(`(?i)^Response \d+:`)
	suggestionTag = regexp.MustCompile(`(?i)^\d+\.\s*|Response \d+:\s*`)

	insightMarkers = []string{"insight", "looking for", "interest"}
)

// RecommendedActions is returned unchanged on every successful response.
func RecommendedActions() []string {
	return []string{
		"Follow up within 24 hours",
		"Send property recommendations",
		"Schedule a call",
	}
}

// ParseResponse turns raw completion text into a SynthesisResult. coin must
// return values in [0, 1); it decides the lead score adjustment.
func ParseResponse(raw string, coin func() float64) *SynthesisResult {
	lines := strings.Split(raw, "\n")

	suggestions := make([]ResponseSuggestion, 0, 3)
	insights := make([]string, 0)

	for _, line := range lines {
		if numberedLine.MatchString(line) || labelledLine.MatchString(line) {
			suggestions = append(suggestions, newSuggestion(stripTag(line), len(suggestions)))
		}
		if isInsight(line) {
			insights = append(insights, strings.TrimSpace(line))
		}
	}

	if len(suggestions) == 0 {
		suggestions = append(suggestions, ResponseSuggestion{
			Text:       strings.TrimSpace(raw),
			Tone:       ToneProfessional,
			Confidence: 0.8,
		})
	}

	return &SynthesisResult{
		SuggestedResponses:  suggestions,
		ContextInsights:     insights,
		LeadScoreAdjustment: scoreAdjustment(coin),
		RecommendedActions:  RecommendedActions(),
	}
}

// FallbackResponse is the body sent when generation fails.
func FallbackResponse() *FailureResponse {
	return &FailureResponse{
		Error: "Failed to generate AI response",
		SuggestedResponses: []ResponseSuggestion{{
			Text:       fallbackApology,
			Tone:       ToneProfessional,
			Confidence: 0.5,
		}},
		ContextInsights:    []string{},
		RecommendedActions: []string{},
	}
}

// stripTag removes only the first marker match, which need not be at the
// start of the line for the "Response N:" form.
func stripTag(line string) string {
	if loc := suggestionTag.FindStringIndex(line); loc != nil {
		line = line[:loc[0]] + line[loc[1]:]
	}
	return strings.TrimSpace(line)
}

// confidence is deliberately not clamped: the fifth suggestion onwards drops
// to 0.45 and below.
func newSuggestion(text string, index int) ResponseSuggestion {
	tone := ToneCasual
	if index == 0 {
		tone = ToneProfessional
	}
	return ResponseSuggestion{
		Text:       text,
		Tone:       tone,
		Confidence: 0.85 - float64(index)*0.1,
	}
}

func isInsight(line string) bool {
	for _, marker := range insightMarkers {
		if strings.Contains(line, marker) {
			return true
		}
	}
	return false
}

func scoreAdjustment(coin func() float64) int {
	if coin() > 0.5 {
		return 2
	}
	return -1
}
