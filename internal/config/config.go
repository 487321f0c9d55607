package config

import (
	"log"
	"os"
	"strconv"
)

type LLMProvider string

const (
	ProviderMock   LLMProvider = "mock"
	ProviderVertex LLMProvider = "vertex"
	ProviderOpenAI LLMProvider = "openai" // also covers Ollama's OpenAI-compatible endpoint
)

type Config struct {
	Port string

	LLMProvider       LLMProvider
	ModelName         string
	LLMTemperature    float64
	LLMTimeoutSeconds int

	GCPProjectID string
	GCPLocation  string

	OpenAIAPIKey  string
	OpenAIBaseURL string

	StorageBackend string // "memory", "sqlite" or "firestore"
	SQLitePath     string

	// Optional file overrides for the mediator framing and the default
	// ground-rules template. Empty means use the built-in text.
	SystemPromptPath         string
	ConstitutionTemplatePath string

	ContextWindow int
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getFloatEnv(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using %g", key, v, def)
		return def
	}
	return f
}

// Load reads all env vars and builds the config
func Load() *Config {
	var provider LLMProvider
	switch getEnv("DIPLOMAT_LLM_PROVIDER", "mock") {
	case "vertex":
		provider = ProviderVertex
	case "openai", "ollama":
		provider = ProviderOpenAI
	default:
		provider = ProviderMock
	}

	cfg := &Config{
		Port: getEnv("DIPLOMAT_PORT", "8080"),

		LLMProvider:       provider,
		ModelName:         getEnv("DIPLOMAT_MODEL_NAME", ""),
		LLMTemperature:    getFloatEnv("DIPLOMAT_LLM_TEMPERATURE", 0.7),
		LLMTimeoutSeconds: getIntEnv("DIPLOMAT_LLM_TIMEOUT_SECONDS", 120),

		GCPProjectID: getEnv("DIPLOMAT_GCP_PROJECT", ""),
		GCPLocation:  getEnv("DIPLOMAT_GCP_LOCATION", "us-central1"),

		OpenAIAPIKey:  getEnv("DIPLOMAT_OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("DIPLOMAT_OPENAI_BASE_URL", ""),

		StorageBackend: getEnv("DIPLOMAT_STORAGE_BACKEND", "memory"),
		SQLitePath:     getEnv("DIPLOMAT_SQLITE_PATH", "./diplomat.db"),

		SystemPromptPath:         getEnv("DIPLOMAT_SYSTEM_PROMPT_PATH", ""),
		ConstitutionTemplatePath: getEnv("DIPLOMAT_CONSTITUTION_TEMPLATE_PATH", ""),

		ContextWindow: getIntEnv("DIPLOMAT_CONTEXT_WINDOW", 30),
	}

	if cfg.LLMProvider == ProviderVertex && cfg.GCPProjectID == "" {
		log.Fatal("DIPLOMAT_GCP_PROJECT must be set with the vertex provider")
	}

	return cfg
}

// ReadTextFile loads an optional override file; returns fallback when the
// path is empty or unreadable. Called once at startup.
func ReadTextFile(path, fallback string) string {
	if path == "" {
		return fallback
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("could not read %s, using built-in text: %v", path, err)
		return fallback
	}
	return string(data)
}
