package suggestresponse

import (
	"fmt"
	"strconv"
	"strings"
)

const historyWindow = 3

const promptTemplate = `You are an AI assistant for a real estate agent. Your goal is to help craft professional, engaging, and effective responses to leads.

Context:
- Contact Type: %s
- Lead Score: %s/100
- Preferred Locations: %s

Recent conversation:
%s

Last message from client: "%s"

Provide 2-3 response suggestions that are:
1. Professional and friendly
2. Address their specific question or concern
3. Move the conversation forward
4. Include a clear call-to-action

Also provide 1-2 insights about what this lead might be looking for based on their behavior.`

// BuildPrompt renders the system instruction for one request. It has no side
// effects and only looks at the last three turns of history.
func BuildPrompt(history []ConversationTurn, lastMessage string, sc *SuggestionContext) string {
	contactType := "unknown"
	leadScore := "unknown"
	locations := "not specified"

	if sc != nil {
		if sc.ContactType != nil && *sc.ContactType != "" {
			contactType = *sc.ContactType
		}
		if sc.LeadScore != nil {
			leadScore = strconv.FormatFloat(*sc.LeadScore, 'f', -1, 64)
		}
		if joined := strings.Join(sc.PreferredLocations, ", "); joined != "" {
			locations = joined
		}
	}

	return fmt.Sprintf(promptTemplate, contactType, leadScore, locations, renderHistory(history), lastMessage)
}

func renderHistory(history []ConversationTurn) string {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	lines := make([]string, 0, len(history))
	for _, turn := range history {
		speaker := "Agent"
		if turn.Role == RoleContact {
			speaker = "Client"
		}
		lines = append(lines, speaker+": "+turn.Message)
	}
	return strings.Join(lines, "\n")
}
