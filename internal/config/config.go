package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Keys      APIKeys
	Ai        AIConfig
	Oracle    OracleConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	Version            string
	Commit             string
	LogFilePath        string
	LLMLogFilePath     string
	LogLevel           string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	OtelEnabled        bool
}

type DatabaseConfig struct {
	Connection string
}

type APIKeys struct {
	JwtSecret    string
	LLM          string
	GoogleGemini string
}

type AIConfig struct {
	LLMProvider    string // "openrouter", "ollama" or "gemini"
	LLMModel       string
	FallbackModels []string
	LLMBaseURL     string
	LLMTimeout     time.Duration
	OllamaBaseURL  string
}

type OracleConfig struct {
	CardDrawMode       string // "client" or "server"
	SectionRevealDelay time.Duration
	TitleWait          time.Duration
	AnonCacheTTL       time.Duration
	PermissionCacheTTL time.Duration
	MemoryTopic        string
}

type RateLimitConfig struct {
	Chat   int
	API    int
	Window time.Duration
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			Version:            getEnv("APP_VERSION", "dev"),
			Commit:             getEnv("APP_COMMIT", ""),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			LLMLogFilePath:     getEnv("LLM_LOG_FILE_PATH", "logs/llm.log"),
			LogLevel:           getEnv("LOG_LEVEL", "debug"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			JwtSecret:    getEnv("JWT_SECRET", ""),
			LLM:          getEnv("LLM_API_KEY", ""),
			GoogleGemini: getEnv("GEMINI_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:    getEnv("LLM_PROVIDER", "openrouter"),
			LLMModel:       getEnv("LLM_MODEL", "meta-llama/llama-3.3-70b-instruct"),
			FallbackModels: getEnvAsList("LLM_FALLBACK_MODELS"),
			LLMBaseURL:     getEnv("LLM_BASE_URL", ""),
			LLMTimeout:     getEnvAsDuration("LLM_TIMEOUT", 120*time.Second),
			OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Oracle: OracleConfig{
			CardDrawMode:       getEnv("CARD_DRAW_MODE", "client"),
			SectionRevealDelay: getEnvAsDuration("SECTION_REVEAL_DELAY", 800*time.Millisecond),
			TitleWait:          getEnvAsDuration("TITLE_WAIT", 3*time.Second),
			AnonCacheTTL:       getEnvAsDuration("ANON_CACHE_TTL", 30*time.Minute),
			PermissionCacheTTL: getEnvAsDuration("PERMISSION_CACHE_TTL", 30*time.Second),
			MemoryTopic:        getEnv("MEMORY_TOPIC", "MEMORY_EXTRACTION"),
		},
		RateLimit: RateLimitConfig{
			Chat:   getEnvAsInt("CHAT_RATE_LIMIT", 30),
			API:    getEnvAsInt("API_RATE_LIMIT", 100),
			Window: getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		},
	}
}

// LLMBase returns the base URL for the configured provider. Ollama keeps
// its own variable so a local model can run next to a hosted fallback.
func (c *Config) LLMBase() string {
	if c.Ai.LLMProvider == "ollama" && c.Ai.LLMBaseURL == "" {
		return c.Ai.OllamaBaseURL
	}
	return c.Ai.LLMBaseURL
}

// LLMKey returns the API key for the configured provider.
func (c *Config) LLMKey() string {
	if c.Ai.LLMProvider == "gemini" && c.Keys.GoogleGemini != "" {
		return c.Keys.GoogleGemini
	}
	return c.Keys.LLM
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("800ms") or bare milliseconds ("800").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	log.Printf("Note: invalid duration %s=%q, using %s", key, strValue, fallback)
	return fallback
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
