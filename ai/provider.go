// Package ai talks to the language model.
//
// Design decisions:
//   - Provider is an interface so the HTTP and CLI layers can run against
//     a real OpenAI-compatible endpoint or the placeholder without change.
//   - All methods accept context for cancellation.
//   - Providers receive a conversation already prepared by
//     PrepareConversation and return the fully aggregated reply text.
package ai

import (
	"context"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Provider is the interface all model backends must implement.
type Provider interface {
	// Complete sends a conversation and returns the assistant's whole reply.
	Complete(ctx context.Context, messages []Message) (string, error)

	// Name returns the provider name for display.
	Name() string
}
