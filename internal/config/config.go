package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config 环境配置
type Config struct {
	GeminiAPIKey   string
	GeminiModel    string
	GeminiEndpoint string
	Port           string
}

// Load 读取 .env（如果有）和环境变量
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiEndpoint: os.Getenv("GEMINI_ENDPOINT"),
		Port:           getEnv("PORT", "8080"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
