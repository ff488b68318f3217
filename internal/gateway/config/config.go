package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-4o-mini",
	ProviderGemini: "gemini-2.5-flash",
}

type Config struct {
	Port     string
	Env      string
	DataRoot string
	LogLevel string
	LLM      LLMConfig
	Tools    ToolsConfig
}

type LLMConfig struct {
	Provider        string
	APIKey          string
	BaseURL         string
	Model           string
	VisionModel     string
	GeminiAPIKey    string
	ClassifyTimeout time.Duration
}

type ToolsConfig struct {
	DatagenRunner string
	NPM           string
	NPX           string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	timeout, err := parseDuration("CLASSIFY_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	provider := strings.ToLower(firstNonEmpty(env("LLM_PROVIDER"), ProviderOpenAI))
	switch provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", provider)
	}
	model := env("LLM_MODEL")
	if model == "" {
		model = defaultModels[provider]
	}

	return &Config{
		Port:     NormalizePort(firstNonEmpty(env("PORT"), ":8000")),
		Env:      firstNonEmpty(env("APP_ENV"), "local"),
		DataRoot: firstNonEmpty(env("DATA_ROOT"), "/data"),
		LogLevel: strings.ToLower(firstNonEmpty(env("LOG_LEVEL"), "info")),
		LLM: LLMConfig{
			Provider:        provider,
			APIKey:          env("AIPROXY_TOKEN"),
			BaseURL:         firstNonEmpty(env("LLM_BASE_URL"), "https://llmfoundry.straive.com/openai/v1"),
			Model:           model,
			VisionModel:     firstNonEmpty(env("LLM_VISION_MODEL"), model),
			GeminiAPIKey:    env("GEMINI_API_KEY"),
			ClassifyTimeout: timeout,
		},
		Tools: ToolsConfig{
			DatagenRunner: firstNonEmpty(env("DATAGEN_RUNNER"), "uv"),
			NPM:           firstNonEmpty(env("NPM_BIN"), "npm"),
			NPX:           firstNonEmpty(env("NPX_BIN"), "npx"),
		},
	}, nil
}

// NormalizePort accepts "8000" or ":8000".
func NormalizePort(port string) string {
	port = strings.TrimSpace(port)
	if port == "" || strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	raw := env(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
