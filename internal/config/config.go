package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	DatabaseURL          string
	JWTSecret            string
	JWTIssuer            string
	AccessTTLSeconds     int64
	RefreshTTLSeconds    int64
	OpenAIAPIKey         string
	OpenAIBaseURL        string
	OpenAIModel          string
	OpenAIMaxTokens      int
	OpenAITempMaterials  float64
	RedisAddr            string
	RedisPassword        string
	AuthRateLimit        int
	AIRateLimit          int
	ChatMessageCost      int
	WorksheetCost        int
	MetricsDiskPath      string
	MetricsSampleSeconds int
	CorsOrigins          []string
}

func Load() Config {
	return Config{
		DatabaseURL:          mustEnv("DATABASE_URL"),
		JWTSecret:            mustEnv("JWT_SECRET"),
		JWTIssuer:            envOr("JWT_ISSUER", "eduai-asistent"),
		AccessTTLSeconds:     int64(envOrInt("ACCESS_TTL_SECONDS", 14400)),
		RefreshTTLSeconds:    int64(envOrInt("REFRESH_TTL_SECONDS", 1209600)),
		OpenAIAPIKey:         envOr("OPENAI_API_KEY", ""),
		OpenAIBaseURL:        envOr("OPENAI_BASE_URL", ""),
		OpenAIModel:          envOr("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIMaxTokens:      envOrInt("OPENAI_MAX_TOKENS", 4000),
		OpenAITempMaterials:  envOrFloat("OPENAI_TEMPERATURE_MATERIALS", 0.6),
		RedisAddr:            envOr("REDIS_ADDR", ""),
		RedisPassword:        envOr("REDIS_PASSWORD", ""),
		AuthRateLimit:        envOrInt("AUTH_RATE_LIMIT", 20),
		AIRateLimit:          envOrInt("AI_RATE_LIMIT", 30),
		ChatMessageCost:      envOrInt("CHAT_MESSAGE_COST", 1),
		WorksheetCost:        envOrInt("WORKSHEET_COST", 2),
		MetricsDiskPath:      envOr("METRICS_DISK_PATH", "storage"),
		MetricsSampleSeconds: envOrInt("METRICS_SAMPLE_INTERVAL", 5),
		CorsOrigins:          parseCSV(envOr("CORS_ORIGINS", "")),
	}
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
