package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, read from the environment.
type Config struct {
	Server      ServerConfig
	TLS         TLSConfig
	Data        DataConfig
	AzureOpenAI AzureOpenAIConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string
	Port string
}

// TLSConfig contains TLS settings for the HTTP server.
type TLSConfig struct {
	Enabled    bool
	CertFile   string
	KeyFile    string
	MinVersion string
}

// DataConfig contains on-disk storage locations.
type DataConfig struct {
	// Dir holds presentations.json.
	Dir string
	// DBPath is the SQLite activity-log database file.
	DBPath string
	// StaticDir is the built frontend served for non-API routes.
	StaticDir string
}

// AzureOpenAIConfig contains credentials for the analysis generator.
// An empty Key or Endpoint leaves the analyze endpoint unconfigured.
type AzureOpenAIConfig struct {
	Key        string
	Endpoint   string
	Deployment string
	APIVersion string
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() *Config {
	// Missing .env is fine, system environment is used as-is.
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host: getEnv("HOST", "0.0.0.0"),
			Port: getEnv("PORT", "3001"),
		},
		TLS: TLSConfig{
			Enabled:    os.Getenv("TLS_ENABLED") == "true",
			CertFile:   os.Getenv("TLS_CERT_FILE"),
			KeyFile:    os.Getenv("TLS_KEY_FILE"),
			MinVersion: getEnv("TLS_MIN_VERSION", "1.2"),
		},
		Data: DataConfig{
			Dir:       getEnv("DATA_DIR", "./data"),
			DBPath:    getEnv("DB_PATH", "./data/activity.db"),
			StaticDir: getEnv("STATIC_DIR", "./frontend/dist"),
		},
		AzureOpenAI: AzureOpenAIConfig{
			Key:        os.Getenv("AZURE_OPENAI_KEY"),
			Endpoint:   os.Getenv("AZURE_OPENAI_ENDPOINT"),
			Deployment: os.Getenv("AZURE_OPENAI_DEPLOYMENT"),
			APIVersion: getEnv("AZURE_OPENAI_API_VERSION", "2024-02-01"),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
