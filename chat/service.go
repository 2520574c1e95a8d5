// Package chat runs one question through the model and classifies the
// reply.
package chat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DachengChen/chatdb/ai"
	"github.com/DachengChen/chatdb/applog"
	"github.com/DachengChen/chatdb/reply"
	"github.com/DachengChen/chatdb/sqlgate"
)

// Result is one answered question.
type Result struct {
	Outcome reply.Outcome
	Raw     string

	// Admission is the gate's verdict on Outcome.SQL; nil when the reply
	// carries no SQL.
	Admission *sqlgate.Verdict
}

// Service answers questions with a Provider.
type Service struct {
	provider ai.Provider
	log      *zap.Logger
}

func NewService(p ai.Provider) *Service {
	return &Service{provider: p, log: applog.Named("chat")}
}

// Provider returns the backing provider.
func (s *Service) Provider() ai.Provider {
	return s.provider
}

// Ask prepares the conversation, completes it and parses the reply.
// Errors are either *ai.RoleError (bad input) or wrapped provider errors.
func (s *Service) Ask(ctx context.Context, history []ai.Message, prompt string) (*Result, error) {
	msgs, err := ai.PrepareConversation(history, ai.Message{Role: ai.RoleUser, Content: prompt})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := s.provider.Complete(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.provider.Name(), err)
	}

	res := &Result{Outcome: reply.Parse(raw), Raw: raw}
	if res.Outcome.HasSQL() {
		v := sqlgate.Admit(res.Outcome.SQL)
		res.Admission = &v
	}

	fields := []zap.Field{
		zap.String("format", string(res.Outcome.Format)),
		zap.Int("history", len(history)),
		zap.Duration("took", time.Since(start)),
	}
	if res.Admission != nil {
		fields = append(fields, zap.Bool("sql_allowed", res.Admission.Allowed))
	}
	s.log.Info("question answered", fields...)
	return res, nil
}
