package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port      string
	JWTSecret string

	MongoURI string
	MongoDB  string

	// Gemini upstream
	GeminiAPIKey    string
	GeminiBaseURL   string
	GeminiModel     string
	MaxOutputTokens int

	// Optional history cache. Disabled when RedisAddr is empty.
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	HistoryCacheTTL time.Duration

	LogLevel  string
	LogFormat string
}

func Load() Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("MONGODB_URI", "mongodb://127.0.0.1:27017")
	v.SetDefault("MONGODB_DB", "aimed_guru")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("MAX_OUTPUT_TOKENS", 8192)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("HISTORY_CACHE_TTL", "5m")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")

	ttl, err := time.ParseDuration(v.GetString("HISTORY_CACHE_TTL"))
	if err != nil || ttl <= 0 {
		ttl = 5 * time.Minute
	}

	maxTokens := v.GetInt("MAX_OUTPUT_TOKENS")
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	return Config{
		Port:      v.GetString("PORT"),
		JWTSecret: v.GetString("JWT_SECRET"),

		MongoURI: v.GetString("MONGODB_URI"),
		MongoDB:  v.GetString("MONGODB_DB"),

		// GEMINI_API_KEY has no default on purpose: the chat endpoint
		// reports it as a hard failure per request.
		GeminiAPIKey:    v.GetString("GEMINI_API_KEY"),
		GeminiBaseURL:   v.GetString("GEMINI_BASE_URL"),
		GeminiModel:     v.GetString("GEMINI_MODEL"),
		MaxOutputTokens: maxTokens,

		RedisAddr:       v.GetString("REDIS_ADDR"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisDB:         v.GetInt("REDIS_DB"),
		HistoryCacheTTL: ttl,

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}
}
