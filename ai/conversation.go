package ai

import (
	"fmt"
	"strings"
)

// RoleError reports a conversation that cannot be sent as is.
type RoleError struct {
	Index  int // position in the history, or -1 for the new message
	Role   string
	Reason string
}

func (e *RoleError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("new message: role %q: %s", e.Role, e.Reason)
	}
	return fmt.Sprintf("message %d: role %q: %s", e.Index, e.Role, e.Reason)
}

// PrepareConversation returns the sequence to send to the model: history,
// with the system directive prepended when it has no system message, and
// next appended last. history is not modified.
//
// A system message that is present must be the first one and the only
// one. next must be a user message; an empty role is taken as user.
func PrepareConversation(history []Message, next Message) ([]Message, error) {
	hasSystem := false
	for i, m := range history {
		switch m.Role {
		case RoleSystem:
			if i != 0 {
				return nil, &RoleError{Index: i, Role: m.Role, Reason: "system message must come first"}
			}
			hasSystem = true
		case RoleUser, RoleAssistant:
		default:
			return nil, &RoleError{Index: i, Role: m.Role, Reason: "unknown role"}
		}
	}

	if next.Role == "" {
		next.Role = RoleUser
	}
	if next.Role != RoleUser {
		return nil, &RoleError{Index: -1, Role: next.Role, Reason: "new message must be from the user"}
	}
	if strings.TrimSpace(next.Content) == "" {
		return nil, &RoleError{Index: -1, Role: next.Role, Reason: "empty content"}
	}

	out := make([]Message, 0, len(history)+2)
	if !hasSystem {
		out = append(out, Message{Role: RoleSystem, Content: SystemDirective})
	}
	out = append(out, history...)
	out = append(out, next)
	return out, nil
}

// SchemaMessage wraps a JSON schema description as a user message, the
// way a client primes the conversation before asking about its data.
func SchemaMessage(schemaJSON string) Message {
	return Message{Role: RoleUser, Content: "Here is the schema information: " + schemaJSON}
}
