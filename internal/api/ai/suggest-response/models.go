package suggestresponse

const (
	RoleContact = "contact"
	RoleAgent   = "agent"

	ToneProfessional = "professional"
	ToneCasual       = "casual"
)

type ConversationTurn struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// SuggestionContext fields are all optional; nil renders as a placeholder.
type SuggestionContext struct {
	ContactType        *string  `json:"contact_type,omitempty"`
	LeadScore          *float64 `json:"lead_score,omitempty"`
	PreferredLocations []string `json:"preferred_locations,omitempty"`
}

// Request is the inbound body. Pointers keep "absent" apart from "empty":
// an empty conversation_history is valid, a missing one is not.
type Request struct {
	ContactID           *string             `json:"contact_id,omitempty"`
	ConversationHistory *[]ConversationTurn `json:"conversation_history"`
	LastMessage         *string             `json:"last_message"`
	Context             *SuggestionContext  `json:"context,omitempty"`
}

type ResponseSuggestion struct {
	Text       string  `json:"text"`
	Tone       string  `json:"tone"`
	Confidence float64 `json:"confidence"`
}

type SynthesisResult struct {
	SuggestedResponses  []ResponseSuggestion `json:"suggested_responses"`
	ContextInsights     []string             `json:"context_insights"`
	LeadScoreAdjustment int                  `json:"lead_score_adjustment"`
	RecommendedActions  []string             `json:"recommended_actions"`
}

// FailureResponse is the 500 body. It keeps the SynthesisResult shape so
// callers can always render a suggestion.
type FailureResponse struct {
	Error              string               `json:"error"`
	SuggestedResponses []ResponseSuggestion `json:"suggested_responses"`
	ContextInsights    []string             `json:"context_insights"`
	RecommendedActions []string             `json:"recommended_actions"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
