package config

import "time"

// Defaults point at OpenRouter's OpenAI-compatible API.
const (
	DefaultLLMBaseURL = "https://openrouter.ai/api/v1"
	DefaultLLMModel   = "cognitivecomputations/dolphin3.0-r1-mistral-24b:free"
)

// LLM holds the model client settings. API keys are read from the
// environment (API_KEY) or the config file, never written back.
type LLM struct {
	APIKey  string
	BaseURL string
	Model   string
	Stream  bool          // stream the completion and aggregate chunks
	Timeout time.Duration // per completion
}

// Configured reports whether a real provider can be built. Without a key
// the placeholder provider is used.
func (l LLM) Configured() bool {
	return l.APIKey != ""
}

// MaskedKey returns the API key with all but the last four characters
// hidden, for logs and status output.
func (l LLM) MaskedKey() string {
	return MaskSecret(l.APIKey)
}

// MaskSecret hides all but the last four characters of s.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) <= 4:
		return "****"
	default:
		return "****" + s[len(s)-4:]
	}
}
