package chat

import "strings"

// Roles of a conversation turn as sent to the completion provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one role-tagged message in the upstream conversation payload.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildTurns rebuilds a provider-ready conversation from a raw message
// history and appends the new user message as the final turn.
//
// The history is first filtered: empty entries, the welcome placeholder and
// error-flagged entries are dropped. The remainder is then forced into strict
// user/assistant alternation. Assistant turns no longer than minAssistantLen
// are treated as filler and skipped. When two kept turns would share a role,
// the earlier one wins. A rebuilt history that cannot legally precede the new
// user turn is discarded wholesale, restarting the conversation from just the
// new message.
func BuildTurns(history []Message, newMessage string, minAssistantLen int) []Turn {
	kept := make([]Turn, 0, len(history)+1)

	for _, msg := range history {
		text := strings.TrimSpace(msg.Text)
		if text == "" || msg.Error || text == WelcomeText {
			continue
		}

		role := RoleAssistant
		if msg.IsUser {
			role = RoleUser
		}

		if role == RoleAssistant && len(text) <= minAssistantLen {
			continue
		}
		if len(kept) > 0 && kept[len(kept)-1].Role == role {
			continue
		}
		if len(kept) == 0 && role == RoleAssistant {
			// A conversation cannot open with an assistant turn.
			continue
		}

		kept = append(kept, Turn{Role: role, Content: text})
	}

	// The new user message is the final turn; history that would put two
	// user turns back to back is unusable as a whole.
	if len(kept) > 0 && kept[len(kept)-1].Role == RoleUser {
		kept = kept[:0]
	}

	return append(kept, Turn{Role: RoleUser, Content: newMessage})
}
