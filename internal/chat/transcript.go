package chat

import (
	"fmt"
	"strings"
)

// rolePrefix maps roles to their transcript labels.
var rolePrefix = map[Role]string{
	RoleSystem:    "System",
	RoleUser:      "User",
	RoleAssistant: "Assistant",
}

// Transcript renders the history as role-prefixed lines. It is a pure
// function of the history: calling it twice without intervening submissions
// yields identical output.
func Transcript(history []Message) string {
	var sb strings.Builder
	for i, msg := range history {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", rolePrefix[msg.Role], msg.Content))
	}
	return sb.String()
}

// TranscriptMarkdown renders the history as a markdown document, one section
// per message. Like Transcript, the output depends only on the history.
func TranscriptMarkdown(history []Message) string {
	var sb strings.Builder
	sb.WriteString("# Conversation Transcript\n\n")
	sb.WriteString(fmt.Sprintf("Messages: %d\n", len(history)))
	for _, msg := range history {
		sb.WriteString(fmt.Sprintf("\n## %s\n\n%s\n", rolePrefix[msg.Role], strings.TrimRight(msg.Content, "\n")))
	}
	return sb.String()
}
