package chat

import "time"

// WelcomeText is the canned greeting seeded into every new session. It is a
// placeholder for the user, never part of the upstream conversation.
const WelcomeText = "Hello! I'm your AI medical assistant. Please describe your symptoms or health concerns, and I'll do my best to help you. Remember, I'm not a replacement for professional medical advice."

// Message is one entry in a session log. Messages are immutable once created
// and are only removed when the whole session is cleared.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId,omitempty"`
	Text      string    `json:"text"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
	Error     bool      `json:"error,omitempty"`
	Options   []string  `json:"options,omitempty"`
}
