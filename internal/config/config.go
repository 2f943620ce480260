package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"content-optimizer-be/pkg/llm/factory"
	"content-optimizer-be/pkg/seo"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Ai        AIConfig
	Cache     CacheConfig
	Tracing   TracingConfig
	Optimizer seo.Config
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	EventTopic         string
}

type AIConfig struct {
	Providers     []factory.ProviderConfig
	RateLimit     float64 // requests per second per provider
	RateBurst     int
	Temperature   float64
	HistoryLimit  int
	RetryInterval time.Duration
}

type CacheConfig struct {
	TTL        time.Duration
	MaxEntries int
	UseRedis   bool
	KeyPrefix  string
	SessionTTL time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
	Environment string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
			EventTopic:         getEnv("EVENT_TOPIC", "optimizer.events"),
		},
		Ai: AIConfig{
			Providers:     loadProviders(),
			RateLimit:     getEnvAsFloat("LLM_RATE_LIMIT", 2),
			RateBurst:     getEnvAsInt("LLM_RATE_BURST", 2),
			Temperature:   getEnvAsFloat("LLM_TEMPERATURE", 0.3),
			HistoryLimit:  getEnvAsInt("CORRECTION_HISTORY_LIMIT", 500),
			RetryInterval: getEnvAsDuration("LLM_RETRY_INTERVAL", 500*time.Millisecond),
		},
		Cache: CacheConfig{
			TTL:        getEnvAsDuration("VALIDATION_CACHE_TTL", 30*time.Minute),
			MaxEntries: getEnvAsInt("VALIDATION_CACHE_MAX_ENTRIES", 1000),
			UseRedis:   getEnvAsBool("VALIDATION_CACHE_REDIS", false),
			KeyPrefix:  getEnv("VALIDATION_CACHE_PREFIX", "optimizer:validation:"),
			SessionTTL: getEnvAsDuration("SESSION_REPORT_TTL", time.Hour),
		},
		Tracing: TracingConfig{
			Enabled:     getEnvAsBool("OTEL_ENABLED", false),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1),
			Environment: getEnv("GO_ENV", "development"),
		},
		Optimizer: loadOptimizer(),
	}
}

// loadProviders reads LLM_PROVIDERS as a comma separated priority list,
// e.g. "ollama,openai". Provider specific settings come from their own
// variables.
func loadProviders() []factory.ProviderConfig {
	names := strings.Split(getEnv("LLM_PROVIDERS", "ollama"), ",")
	out := make([]factory.ProviderConfig, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "":
			continue
		case "ollama":
			out = append(out, factory.ProviderConfig{
				Type:    name,
				Model:   getEnv("LLM_MODEL", "llama3"),
				BaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			})
		case "openai":
			out = append(out, factory.ProviderConfig{
				Type:    name,
				Model:   getEnv("OPENAI_MODEL", ""),
				BaseURL: getEnv("OPENAI_BASE_URL", ""),
				APIKey:  getEnv("OPENAI_API_KEY", ""),
			})
		case "huggingface":
			out = append(out, factory.ProviderConfig{
				Type:    name,
				Model:   getEnv("HUGGINGFACE_MODEL", ""),
				BaseURL: getEnv("HUGGINGFACE_BASE_URL", ""),
				APIKey:  getEnv("HUGGINGFACE_API_KEY", ""),
			})
		default:
			out = append(out, factory.ProviderConfig{Type: name})
		}
	}
	return out
}

// loadOptimizer applies OPTIMIZER_* variables on top of the defaults.
// Validation happens when the optimizer is constructed.
func loadOptimizer() seo.Config {
	c := seo.DefaultConfig()
	c.MaxIterations = getEnvAsInt("OPTIMIZER_MAX_ITERATIONS", c.MaxIterations)
	c.TargetComplianceScore = getEnvAsFloat("OPTIMIZER_TARGET_COMPLIANCE_SCORE", c.TargetComplianceScore)
	c.EnableEarlyTermination = getEnvAsBool("OPTIMIZER_ENABLE_EARLY_TERMINATION", c.EnableEarlyTermination)
	c.StagnationThreshold = getEnvAsInt("OPTIMIZER_STAGNATION_THRESHOLD", c.StagnationThreshold)
	c.MinImprovementThreshold = getEnvAsFloat("OPTIMIZER_MIN_IMPROVEMENT_THRESHOLD", c.MinImprovementThreshold)
	c.AutoCorrection = getEnvAsBool("OPTIMIZER_AUTO_CORRECTION", c.AutoCorrection)
	c.MaxRetryAttempts = getEnvAsInt("OPTIMIZER_MAX_RETRY_ATTEMPTS", c.MaxRetryAttempts)

	c.MinMetaDescLength = getEnvAsInt("OPTIMIZER_MIN_META_DESC_LENGTH", c.MinMetaDescLength)
	c.MaxMetaDescLength = getEnvAsInt("OPTIMIZER_MAX_META_DESC_LENGTH", c.MaxMetaDescLength)
	c.MinKeywordDensity = getEnvAsFloat("OPTIMIZER_MIN_KEYWORD_DENSITY", c.MinKeywordDensity)
	c.MaxKeywordDensity = getEnvAsFloat("OPTIMIZER_MAX_KEYWORD_DENSITY", c.MaxKeywordDensity)
	c.MaxPassiveVoice = getEnvAsFloat("OPTIMIZER_MAX_PASSIVE_VOICE", c.MaxPassiveVoice)
	c.MaxLongSentences = getEnvAsFloat("OPTIMIZER_MAX_LONG_SENTENCES", c.MaxLongSentences)
	c.LongSentenceWords = getEnvAsInt("OPTIMIZER_LONG_SENTENCE_WORDS", c.LongSentenceWords)
	c.MinTransitionWords = getEnvAsFloat("OPTIMIZER_MIN_TRANSITION_WORDS", c.MinTransitionWords)
	c.MaxTitleLength = getEnvAsInt("OPTIMIZER_MAX_TITLE_LENGTH", c.MaxTitleLength)
	c.MaxSubheadingKeywordUsage = getEnvAsFloat("OPTIMIZER_MAX_SUBHEADING_KEYWORD_USAGE", c.MaxSubheadingKeywordUsage)
	c.RequireImages = getEnvAsBool("OPTIMIZER_REQUIRE_IMAGES", c.RequireImages)
	c.RequireKeywordInAltText = getEnvAsBool("OPTIMIZER_REQUIRE_KEYWORD_IN_ALT_TEXT", c.RequireKeywordInAltText)

	c.SnapshotLimit = getEnvAsInt("OPTIMIZER_SNAPSHOT_LIMIT", c.SnapshotLimit)
	c.ParagraphTolerance = getEnvAsFloat("OPTIMIZER_PARAGRAPH_TOLERANCE", c.ParagraphTolerance)
	c.PassTimeout = getEnvAsDuration("OPTIMIZER_PASS_TIMEOUT", c.PassTimeout)
	c.SessionTimeout = getEnvAsDuration("OPTIMIZER_SESSION_TIMEOUT", c.SessionTimeout)
	return c
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
