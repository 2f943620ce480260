package factory

import (
	"fmt"
	"strings"

	"content-optimizer-be/pkg/llm"
	"content-optimizer-be/pkg/llm/huggingface"
	"content-optimizer-be/pkg/llm/ollama"
	"content-optimizer-be/pkg/llm/openai"
)

// ProviderConfig describes one backend in the failover list.
type ProviderConfig struct {
	Type    string
	Model   string
	BaseURL string
	APIKey  string
}

func NewLLMProvider(pc ProviderConfig) (llm.LLMProvider, error) {
	switch strings.ToLower(pc.Type) {
	case "ollama":
		baseURL := pc.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		return ollama.NewOllamaProvider(baseURL, pc.Model), nil
	case "openai":
		if pc.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an api key")
		}
		return openai.NewOpenAIProvider(pc.APIKey, pc.BaseURL, pc.Model), nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(pc.APIKey, pc.BaseURL, pc.Model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", pc.Type)
	}
}

// NewProviders builds the failover list in the given priority order.
func NewProviders(configs []ProviderConfig) ([]llm.LLMProvider, error) {
	out := make([]llm.LLMProvider, 0, len(configs))
	for _, pc := range configs {
		p, err := NewLLMProvider(pc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
