package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/DachengChen/chatdb/config"
)

// OpenAI implements Provider for any OpenAI-compatible chat API
// (OpenAI itself, OpenRouter, local gateways).
type OpenAI struct {
	client  *openai.Client
	model   string
	stream  bool
	timeout time.Duration
}

var _ Provider = (*OpenAI)(nil)

// Option customizes an OpenAI provider.
type Option func(*openai.ClientConfig)

// WithHTTPClient replaces the HTTP client used for API calls.
func WithHTTPClient(c openai.HTTPDoer) Option {
	return func(cc *openai.ClientConfig) { cc.HTTPClient = c }
}

// NewOpenAI creates an OpenAI-compatible provider.
func NewOpenAI(cfg config.LLM, opts ...Option) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API key is required")
	}

	cc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		cc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	for _, opt := range opts {
		opt(&cc)
	}

	model := cfg.Model
	if model == "" {
		model = config.DefaultLLMModel
	}
	return &OpenAI{
		client:  openai.NewClientWithConfig(cc),
		model:   model,
		stream:  cfg.Stream,
		timeout: cfg.Timeout,
	}, nil
}

func (o *OpenAI) Name() string {
	return fmt.Sprintf("OpenAI-compatible (%s)", o.model)
}

// Complete sends the conversation and returns the full reply. With
// streaming on, chunks are aggregated as they arrive; if the stream
// cannot be opened, one non-streaming request is made instead. A stream
// that breaks part way fails the call.
func (o *OpenAI) Complete(ctx context.Context, messages []Message) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: toOpenAIMessages(messages),
	}

	LogAIRequest("complete", o.Name(), messages)
	start := time.Now()

	reply, err := o.complete(ctx, req)
	LogAIResponse("complete", reply, time.Since(start), err)
	return reply, err
}

func (o *OpenAI) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if o.stream {
		stream, err := o.client.CreateChatCompletionStream(ctx, req)
		if err == nil {
			reply, err := readStream(stream)
			if err != nil {
				return "", fmt.Errorf("completion stream: %w", err)
			}
			return reply, nil
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("completion stream: %w", err)
		}
		aiLog().Debug("stream unavailable, retrying without streaming", zap.Error(err))
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

// readStream reads the stream to the end and concatenates the content
// deltas of the first choice.
func readStream(stream *openai.ChatCompletionStream) (string, error) {
	defer func() {
		_ = stream.Close()
	}()

	log := aiLog()
	var sb strings.Builder
	for n := 0; ; n++ {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		log.Debug("completion chunk", zap.Int("n", n), zap.String("delta", delta))
		sb.WriteString(delta)
	}
	return sb.String(), nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
