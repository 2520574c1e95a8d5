package ai

import (
	"github.com/DachengChen/chatdb/config"
)

// NewProvider creates a provider from the model settings.
// Falls back to the placeholder when no API key is set.
func NewProvider(cfg config.LLM, opts ...Option) (Provider, error) {
	if !cfg.Configured() {
		return NewPlaceholder(), nil
	}
	return NewOpenAI(cfg, opts...)
}
