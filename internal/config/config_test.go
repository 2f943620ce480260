package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LLM_PROVIDERS", "ollama")

	cfg := Load()

	assert.Equal(t, "3000", cfg.App.Port)
	assert.False(t, cfg.IsProduction())
	require.Len(t, cfg.Ai.Providers, 1)
	assert.Equal(t, "ollama", cfg.Ai.Providers[0].Type)
	assert.Equal(t, 5, cfg.Optimizer.MaxIterations)
	assert.NoError(t, cfg.Optimizer.Validate())
}

func TestLoad_OptimizerOverrides(t *testing.T) {
	t.Setenv("OPTIMIZER_MAX_ITERATIONS", "8")
	t.Setenv("OPTIMIZER_TARGET_COMPLIANCE_SCORE", "95.5")
	t.Setenv("OPTIMIZER_ENABLE_EARLY_TERMINATION", "false")
	t.Setenv("OPTIMIZER_SESSION_TIMEOUT", "2m")
	t.Setenv("OPTIMIZER_MAX_TITLE_LENGTH", "not-a-number")

	cfg := Load()

	assert.Equal(t, 8, cfg.Optimizer.MaxIterations)
	assert.Equal(t, 95.5, cfg.Optimizer.TargetComplianceScore)
	assert.False(t, cfg.Optimizer.EnableEarlyTermination)
	assert.Equal(t, 2*time.Minute, cfg.Optimizer.SessionTimeout)
	assert.Equal(t, 60, cfg.Optimizer.MaxTitleLength, "unparsable values fall back to the default")
}

func TestLoadProviders(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		types []string
	}{
		{name: "single", env: "ollama", types: []string{"ollama"}},
		{name: "priority order", env: "openai, ollama", types: []string{"openai", "ollama"}},
		{name: "empty entries skipped", env: "ollama,,", types: []string{"ollama"}},
		{name: "case insensitive", env: "HuggingFace", types: []string{"huggingface"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LLM_PROVIDERS", tt.env)
			t.Setenv("OPENAI_API_KEY", "sk-test")

			got := loadProviders()

			types := make([]string, 0, len(got))
			for _, p := range got {
				types = append(types, p.Type)
			}
			assert.Equal(t, tt.types, types)
		})
	}
}
