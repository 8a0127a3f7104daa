package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"gopkg.in/yaml.v3"

	"github.com/ann82/dv-assistant-sub003/internal/logging"
)

// Provider names accepted by AI_PROVIDER.
const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
)

// Config aggregates every setting the service reads at startup.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	AI         AIConfig         `yaml:"ai"`
	Search     SearchConfig     `yaml:"search"`
	Cache      CacheConfig      `yaml:"cache"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Log        logging.Config   `yaml:"log"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// Load reads the environment, then overlays CONFIG_FILE when set.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	search, err := loadSearchConfig()
	if err != nil {
		return nil, err
	}

	cacheCfg, err := loadCacheConfig()
	if err != nil {
		return nil, err
	}

	resilience, err := loadResilienceConfig()
	if err != nil {
		return nil, err
	}

	metricsEnabled, err := parseBoolEnv("METRICS_ENABLED", true)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server:     server,
		AI:         ai,
		Search:     search,
		Cache:      cacheCfg,
		Resilience: resilience,
		Log: logging.Config{
			Level:      getEnvOrDefault("LOG_LEVEL", "info"),
			Format:     getEnvOrDefault("LOG_FORMAT", "text"),
			File:       getEnvOrDefault("LOG_FILE", ""),
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
		Metrics: MetricsConfig{Enabled: metricsEnabled},
	}

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// applyFile overlays the YAML document at path. Keys absent from the file keep their env values.
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// ":8080" and "127.0.0.1:8080" are passed through unchanged.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the intent/generation provider.
type AIConfig struct {
	Provider           string   `yaml:"provider"`
	APIKey             string   `yaml:"-"`
	AccessKey          string   `yaml:"-"`
	SecretKey          string   `yaml:"-"`
	Model              string   `yaml:"model"`
	BaseURL            string   `yaml:"base-url"`
	Region             string   `yaml:"region"`
	OpenAIAPIKey       string   `yaml:"-"`
	OpenAIModel        string   `yaml:"openai-model"`
	OpenAIBaseURL      string   `yaml:"openai-base-url"`
	Temperature        *float64 `yaml:"temperature"`
	TopP               *float64 `yaml:"top-p"`
	MaxTokens          *int     `yaml:"max-tokens"`
	ClassifierEnabled  bool     `yaml:"classifier-enabled"`
	FollowUpEscalation bool     `yaml:"followup-escalation"`
}

// ArkEnabled reports whether Ark credentials and a model were supplied.
func (c AIConfig) ArkEnabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// OpenAIEnabled reports whether an OpenAI key was supplied.
func (c AIConfig) OpenAIEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// Enabled reports whether the selected provider has credentials.
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderArk:
		return c.ArkEnabled()
	case ProviderOpenAI:
		return c.OpenAIEnabled()
	default:
		return false
	}
}

// NewChatModel builds the Ark chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.ArkEnabled() {
		return nil, fmt.Errorf("ark credentials or model missing: set ARK_API_KEY + ARK_MODEL or an AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	classifierEnabled, err := parseBoolEnv("AI_CLASSIFIER_ENABLED", true)
	if err != nil {
		return AIConfig{}, err
	}

	escalation, err := parseBoolEnv("AI_FOLLOWUP_ESCALATION", true)
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		Provider:           strings.ToLower(getEnvOrDefault("AI_PROVIDER", "")),
		APIKey:             strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:          strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:          strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:              strings.TrimSpace(os.Getenv("ARK_MODEL")),
		BaseURL:            getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:             getEnvOrDefault("ARK_REGION", "cn-beijing"),
		OpenAIAPIKey:       strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:        getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:      getEnvOrDefault("OPENAI_BASE_URL", ""),
		Temperature:        temperature,
		TopP:               topP,
		MaxTokens:          maxTokens,
		ClassifierEnabled:  classifierEnabled,
		FollowUpEscalation: escalation,
	}

	if cfg.Provider == "" {
		switch {
		case cfg.OpenAIEnabled():
			cfg.Provider = ProviderOpenAI
		case cfg.ArkEnabled():
			cfg.Provider = ProviderArk
		}
	}
	if cfg.Provider != "" && cfg.Provider != ProviderArk && cfg.Provider != ProviderOpenAI {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", cfg.Provider)
	}

	return cfg, nil
}

// SearchConfig describes the Tavily search provider and result filtering.
type SearchConfig struct {
	APIKey     string  `yaml:"-"`
	BaseURL    string  `yaml:"base-url"`
	Depth      string  `yaml:"depth"`
	MaxResults int     `yaml:"max-results"`
	MinScore   float64 `yaml:"min-score"`
}

// Enabled reports whether a search key was supplied.
func (c SearchConfig) Enabled() bool {
	return c.APIKey != ""
}

func loadSearchConfig() (SearchConfig, error) {
	maxResults, err := parseIntEnv("SEARCH_MAX_RESULTS", 10)
	if err != nil {
		return SearchConfig{}, err
	}
	minScore, err := parseFloatEnv("SEARCH_MIN_SCORE", 0.2)
	if err != nil {
		return SearchConfig{}, err
	}
	if minScore < 0 || minScore > 1 {
		return SearchConfig{}, fmt.Errorf("invalid SEARCH_MIN_SCORE value %v: must be within [0,1]", minScore)
	}

	return SearchConfig{
		APIKey:     strings.TrimSpace(os.Getenv("TAVILY_API_KEY")),
		BaseURL:    getEnvOrDefault("TAVILY_BASE_URL", "https://api.tavily.com"),
		Depth:      getEnvOrDefault("SEARCH_DEPTH", "advanced"),
		MaxResults: maxResults,
		MinScore:   minScore,
	}, nil
}

// CacheConfig sizes the response, intent and geocode caches.
type CacheConfig struct {
	MaxEntries       int           `yaml:"max-entries"`
	ResponseTTL      time.Duration `yaml:"response-ttl"`
	IntentTTL        time.Duration `yaml:"intent-ttl"`
	EvictionInterval time.Duration `yaml:"eviction-interval"`
}

func loadCacheConfig() (CacheConfig, error) {
	maxEntries, err := parseIntEnv("CACHE_MAX_ENTRIES", 1000)
	if err != nil {
		return CacheConfig{}, err
	}
	responseTTL, err := parseDurationEnv("CACHE_RESPONSE_TTL", time.Hour)
	if err != nil {
		return CacheConfig{}, err
	}
	intentTTL, err := parseDurationEnv("CACHE_INTENT_TTL", time.Hour)
	if err != nil {
		return CacheConfig{}, err
	}
	interval, err := parseDurationEnv("CACHE_EVICTION_INTERVAL", time.Minute)
	if err != nil {
		return CacheConfig{}, err
	}
	return CacheConfig{
		MaxEntries:       maxEntries,
		ResponseTTL:      responseTTL,
		IntentTTL:        intentTTL,
		EvictionInterval: interval,
	}, nil
}

// ResilienceConfig bounds every provider call.
type ResilienceConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxAttempts  int           `yaml:"max-attempts"`
	RetryBackoff time.Duration `yaml:"retry-backoff"`
	RateLimit    int           `yaml:"rate-limit"`
	RateInterval time.Duration `yaml:"rate-interval"`
	RateBurst    int           `yaml:"rate-burst"`
}

func loadResilienceConfig() (ResilienceConfig, error) {
	timeout, err := parseDurationEnv("PROVIDER_TIMEOUT", 10*time.Second)
	if err != nil {
		return ResilienceConfig{}, err
	}
	attempts, err := parseIntEnv("PROVIDER_MAX_ATTEMPTS", 3)
	if err != nil {
		return ResilienceConfig{}, err
	}
	backoff, err := parseDurationEnv("PROVIDER_RETRY_BACKOFF", 250*time.Millisecond)
	if err != nil {
		return ResilienceConfig{}, err
	}
	limit, err := parseIntEnv("PROVIDER_RATE_LIMIT", 60)
	if err != nil {
		return ResilienceConfig{}, err
	}
	interval, err := parseDurationEnv("PROVIDER_RATE_INTERVAL", time.Minute)
	if err != nil {
		return ResilienceConfig{}, err
	}
	burst, err := parseIntEnv("PROVIDER_RATE_BURST", 10)
	if err != nil {
		return ResilienceConfig{}, err
	}
	if attempts < 1 {
		attempts = 1
	}
	return ResilienceConfig{
		Timeout:      timeout,
		MaxAttempts:  attempts,
		RetryBackoff: backoff,
		RateLimit:    limit,
		RateInterval: interval,
		RateBurst:    burst,
	}, nil
}

// MetricsConfig toggles Prometheus collection and the /metrics route.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	return *val, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	val, err := parseOptionalFloatEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return defaultValue, nil
	}
	return *val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
