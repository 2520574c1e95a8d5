package ai

import (
	"context"
	"fmt"
	"time"
)

// Placeholder is a mock provider used when no API key is configured.
// Its replies use the same tags as a real model so the whole pipeline
// can be exercised offline.
type Placeholder struct {
	// Delay simulates network latency.
	Delay time.Duration
}

var _ Provider = (*Placeholder)(nil)

func NewPlaceholder() *Placeholder {
	return &Placeholder{Delay: 200 * time.Millisecond}
}

func (p *Placeholder) Name() string {
	return "placeholder"
}

func (p *Placeholder) Complete(ctx context.Context, messages []Message) (string, error) {
	if p.Delay > 0 {
		t := time.NewTimer(p.Delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if len(messages) == 0 {
		return `<response format="text">"No messages provided."</response>`, nil
	}

	last := messages[len(messages)-1].Content
	return fmt.Sprintf("<generated_sql>\n  SELECT table_name FROM information_schema.tables WHERE table_schema = 'public';\n</generated_sql>\n"+
		"<response format=\"text\">\n  \"[placeholder] You asked: %s. Set API_KEY to get real answers; meanwhile here are your tables.\"\n</response>",
		truncate(last, 200)), nil
}
