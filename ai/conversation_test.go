package ai

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareConversation(t *testing.T) {
	tests := []struct {
		name    string
		history []Message
		next    Message
		want    []Message
	}{
		{
			name: "empty history gets the directive",
			next: Message{Role: RoleUser, Content: "how many users?"},
			want: []Message{
				{Role: RoleSystem, Content: SystemDirective},
				{Role: RoleUser, Content: "how many users?"},
			},
		},
		{
			name: "history without system keeps its order",
			history: []Message{
				{Role: RoleUser, Content: "Here is the schema information: {}"},
				{Role: RoleAssistant, Content: "ok"},
			},
			next: Message{Content: "list tables"},
			want: []Message{
				{Role: RoleSystem, Content: SystemDirective},
				{Role: RoleUser, Content: "Here is the schema information: {}"},
				{Role: RoleAssistant, Content: "ok"},
				{Role: RoleUser, Content: "list tables"},
			},
		},
		{
			name: "existing system message is kept verbatim",
			history: []Message{
				{Role: RoleSystem, Content: "custom"},
				{Role: RoleUser, Content: "hi"},
			},
			next: Message{Role: RoleUser, Content: "again"},
			want: []Message{
				{Role: RoleSystem, Content: "custom"},
				{Role: RoleUser, Content: "hi"},
				{Role: RoleUser, Content: "again"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PrepareConversation(tt.history, tt.next)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("PrepareConversation() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPrepareConversation_DoesNotMutateHistory(t *testing.T) {
	history := make([]Message, 1, 8)
	history[0] = Message{Role: RoleUser, Content: "first"}

	got, err := PrepareConversation(history, Message{Role: RoleUser, Content: "second"})
	require.NoError(t, err)

	assert.Len(t, history, 1)
	assert.Equal(t, "first", history[0].Content)
	assert.Len(t, got, 3)
	assert.Equal(t, RoleSystem, got[0].Role)

	got[1].Content = "changed"
	assert.Equal(t, "first", history[0].Content)
}

func TestPrepareConversation_Errors(t *testing.T) {
	tests := []struct {
		name    string
		history []Message
		next    Message
		index   int
	}{
		{
			name:    "system not first",
			history: []Message{{Role: RoleUser, Content: "a"}, {Role: RoleSystem, Content: "b"}},
			next:    Message{Content: "c"},
			index:   1,
		},
		{
			name:    "two system messages",
			history: []Message{{Role: RoleSystem, Content: "a"}, {Role: RoleSystem, Content: "b"}},
			next:    Message{Content: "c"},
			index:   1,
		},
		{
			name:    "unknown role",
			history: []Message{{Role: "tool", Content: "a"}},
			next:    Message{Content: "c"},
			index:   0,
		},
		{
			name:  "new message from assistant",
			next:  Message{Role: RoleAssistant, Content: "c"},
			index: -1,
		},
		{
			name:  "blank new message",
			next:  Message{Role: RoleUser, Content: "  "},
			index: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PrepareConversation(tt.history, tt.next)
			var re *RoleError
			require.True(t, errors.As(err, &re), "want *RoleError, got %v", err)
			assert.Equal(t, tt.index, re.Index)
		})
	}
}

func TestSchemaMessage(t *testing.T) {
	m := SchemaMessage(`{"users":[]}`)
	assert.Equal(t, RoleUser, m.Role)
	assert.Equal(t, `Here is the schema information: {"users":[]}`, m.Content)
}
