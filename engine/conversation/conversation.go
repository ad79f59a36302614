// Package conversation describes where a question came from and whether the
// bot should answer it there. The answer pipeline is platform-agnostic; the
// chat adapters build a Context per incoming message and the composer uses it
// to pick the right escalation wording.
package conversation

import "strings"

// Context captures the conversation a question arrived in.
type Context struct {
	// Platform is the adapter name ("discord", "telegram", "api").
	Platform string
	// Private is true for direct messages. Private contexts never name an
	// individual organizer; they redirect to public channels instead.
	Private bool
	// EscalationTarget is the platform-native mention for the human who
	// handles escalations in group contexts, e.g. "<@84501542>" on Discord
	// or "@hackfolio_team" on Telegram.
	EscalationTarget string
}

// Addressed reports whether a group message is directed at the bot: either
// it mentions one of the bot's handles or it replies to a bot message.
// Private messages are always addressed.
func Addressed(text string, private, replyToBot bool, handles ...string) bool {
	if private || replyToBot {
		return true
	}
	for _, h := range handles {
		if h != "" && strings.Contains(text, h) {
			return true
		}
	}
	return false
}

// StripHandles removes every occurrence of the bot's handles from the
// message, leaving the bare question.
func StripHandles(text string, handles ...string) string {
	for _, h := range handles {
		if h != "" {
			text = strings.ReplaceAll(text, h, "")
		}
	}
	return strings.TrimSpace(text)
}
