package config

import (
	"os"
	"time"
)

type Config struct {
	ListenAddr     string
	CatalogPath    string
	MediaCloud     string
	MediaAPIKey    string
	MediaAPISecret string
	MediaFolder    string
	MediaTimeout   time.Duration
	CaptionBackend string
	OllamaHost     string
	OllamaModel    string
	ClaudeAPIKey   string
	ClaudeModel    string
	LogLevel       string
	LogFile        string
}

func Load() *Config {
	return &Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		CatalogPath:    getEnv("CATALOG_PATH", "/data/catalog.json"),
		MediaCloud:     getEnv("MEDIA_CLOUD", ""),
		MediaAPIKey:    getEnv("MEDIA_API_KEY", ""),
		MediaAPISecret: getEnv("MEDIA_API_SECRET", ""),
		MediaFolder:    getEnv("MEDIA_FOLDER", "memorial"),
		MediaTimeout:   getDuration("MEDIA_TIMEOUT", 30*time.Second),
		CaptionBackend: getEnv("CAPTION_BACKEND", "off"),
		OllamaHost:     getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "moondream"),
		ClaudeAPIKey:   getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:    getEnv("CLAUDE_MODEL", "claude-opus-4-6"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFile:        getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
