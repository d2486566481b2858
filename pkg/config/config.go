package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Generation ProviderConfig
	Analysis   ProviderConfig
	Breaker    BreakerConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	Validation ValidationConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	AllowedOrigins []string
	Development    bool
	// ProxyHeader names the header carrying the client IP, e.g.
	// X-Forwarded-For. It is honored only for requests from TrustedProxies.
	ProxyHeader    string
	TrustedProxies []string
}

// ProviderConfig selects and parameterizes one upstream model service.
// Generation uses Language; Analysis uses Temperature.
type ProviderConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Language    string
	Temperature float32
}

type BreakerConfig struct {
	FailureThreshold uint32
	OpenTimeoutSec   int
}

type RedisConfig struct {
	Enabled    bool
	Host       string
	Port       int
	Password   string
	DB         int
	LockTTLSec int
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type ValidationConfig struct {
	MaxPromptLength int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/llm-duel")

	v.SetEnvPrefix("LLM_DUEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	_ = v.BindEnv("generation.apiKey", "LLM_DUEL_GENERATION_APIKEY", "GEMINI_API_KEY")
	_ = v.BindEnv("analysis.apiKey", "LLM_DUEL_ANALYSIS_APIKEY", "GEMINI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the settings that would otherwise only fail on the
// first comparison run.
func (c *Config) Validate() error {
	for name, p := range map[string]ProviderConfig{"generation": c.Generation, "analysis": c.Analysis} {
		switch p.Provider {
		case ProviderGemini, ProviderOpenAI:
		default:
			return fmt.Errorf("%s.provider: unsupported provider %q", name, p.Provider)
		}
		if p.Model == "" {
			return fmt.Errorf("%s.model is required", name)
		}
	}

	if c.Analysis.Temperature < 0 || c.Analysis.Temperature > 2 {
		return fmt.Errorf("analysis.temperature must be within [0, 2], got %v", c.Analysis.Temperature)
	}

	if c.Server.ProxyHeader != "" && len(c.Server.TrustedProxies) == 0 {
		return fmt.Errorf("server.proxyHeader requires server.trustedProxies")
	}

	if c.Validation.MaxPromptLength < 0 {
		return fmt.Errorf("validation.maxPromptLength must not be negative")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 300)
	v.SetDefault("server.bodyLimit", 1048576)
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.development", false)
	v.SetDefault("server.proxyHeader", "")
	v.SetDefault("server.trustedProxies", []string{})

	v.SetDefault("generation.provider", ProviderGemini)
	v.SetDefault("generation.model", "gemini-2.5-flash")
	v.SetDefault("generation.apiKey", "")
	v.SetDefault("generation.baseURL", "")
	v.SetDefault("generation.language", "")

	v.SetDefault("analysis.provider", ProviderGemini)
	v.SetDefault("analysis.model", "gemini-2.5-flash")
	v.SetDefault("analysis.apiKey", "")
	v.SetDefault("analysis.baseURL", "")
	v.SetDefault("analysis.temperature", 0.2)

	v.SetDefault("breaker.failureThreshold", 5)
	v.SetDefault("breaker.openTimeoutSec", 30)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.lockTTLSec", 600)

	v.SetDefault("ratelimit.requestsPerMinute", 20)

	v.SetDefault("validation.maxPromptLength", 20000)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
