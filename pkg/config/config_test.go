package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Generation: ProviderConfig{Provider: ProviderGemini, Model: "gemini-2.5-flash"},
		Analysis:   ProviderConfig{Provider: ProviderOpenAI, Model: "gpt-4o-mini", Temperature: 0.2},
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, ProviderGemini, cfg.Generation.Provider)
	require.Equal(t, "gemini-2.5-flash", cfg.Analysis.Model)
	require.InDelta(t, 0.2, cfg.Analysis.Temperature, 1e-6)
	require.Equal(t, uint32(5), cfg.Breaker.FailureThreshold)
	require.False(t, cfg.Redis.Enabled)
	require.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LLM_DUEL_GENERATION_PROVIDER", "openai")
	t.Setenv("LLM_DUEL_GENERATION_MODEL", "gpt-4o-mini")
	t.Setenv("LLM_DUEL_GENERATION_APIKEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ProviderOpenAI, cfg.Generation.Provider)
	require.Equal(t, "gpt-4o-mini", cfg.Generation.Model)
	require.Equal(t, "sk-test", cfg.Generation.APIKey)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "unknown generation provider",
			mutate:  func(c *Config) { c.Generation.Provider = "bard" },
			wantErr: "generation.provider",
		},
		{
			name:    "missing analysis model",
			mutate:  func(c *Config) { c.Analysis.Model = "" },
			wantErr: "analysis.model",
		},
		{
			name:    "analysis temperature too high",
			mutate:  func(c *Config) { c.Analysis.Temperature = 2.5 },
			wantErr: "analysis.temperature",
		},
		{
			name:    "proxy header without trusted proxies",
			mutate:  func(c *Config) { c.Server.ProxyHeader = "X-Forwarded-For" },
			wantErr: "server.trustedProxies",
		},
		{
			name: "proxy header with trusted proxies",
			mutate: func(c *Config) {
				c.Server.ProxyHeader = "X-Forwarded-For"
				c.Server.TrustedProxies = []string{"10.0.0.0/8"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}
