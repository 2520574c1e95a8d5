package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DachengChen/chatdb/ai"
	"github.com/DachengChen/chatdb/reply"
)

type stubProvider struct {
	reply string
	err   error
	got   []ai.Message
}

func (s *stubProvider) Complete(_ context.Context, messages []ai.Message) (string, error) {
	s.got = messages
	return s.reply, s.err
}

func (s *stubProvider) Name() string { return "stub" }

func TestService_Ask(t *testing.T) {
	p := &stubProvider{reply: "<generated_sql>SELECT * FROM users</generated_sql>"}
	svc := NewService(p)

	res, err := svc.Ask(context.Background(), nil, "list users")
	require.NoError(t, err)

	assert.Equal(t, reply.FormatSQL, res.Outcome.Format)
	assert.Equal(t, "SELECT * FROM users", res.Outcome.SQL)
	require.NotNil(t, res.Admission)
	assert.True(t, res.Admission.Allowed)

	require.Len(t, p.got, 2)
	assert.Equal(t, ai.RoleSystem, p.got[0].Role)
	assert.Equal(t, ai.Message{Role: ai.RoleUser, Content: "list users"}, p.got[1])
}

func TestService_AskFlagsRejectedSQL(t *testing.T) {
	p := &stubProvider{reply: "<generated_sql>DELETE FROM users</generated_sql>"}

	res, err := NewService(p).Ask(context.Background(), nil, "remove everyone")
	require.NoError(t, err)

	require.NotNil(t, res.Admission)
	assert.False(t, res.Admission.Allowed)
	assert.Equal(t, "delete", res.Admission.Keyword)
}

func TestService_AskTextOnly(t *testing.T) {
	p := &stubProvider{reply: "Which table do you mean?"}

	res, err := NewService(p).Ask(context.Background(), nil, "show it")
	require.NoError(t, err)

	assert.Equal(t, reply.FormatText, res.Outcome.Format)
	assert.Nil(t, res.Admission)
	assert.Equal(t, "Which table do you mean?", res.Raw)
}

func TestService_AskProviderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewService(&stubProvider{err: boom}).Ask(context.Background(), nil, "x")
	assert.ErrorIs(t, err, boom)
}

func TestService_AskRoleError(t *testing.T) {
	history := []ai.Message{{Role: "robot", Content: "beep"}}
	_, err := NewService(&stubProvider{}).Ask(context.Background(), history, "x")

	var re *ai.RoleError
	assert.ErrorAs(t, err, &re)
}
