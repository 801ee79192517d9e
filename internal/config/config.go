package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Backend selects where the consumer core sends its operations.
const (
	BackendRemote = "remote" // hosted financial-records authority over HTTP
	BackendLocal  = "local"  // demo/offline mode: sqlite file is the system of record
)

// Config holds application configuration
type Config struct {
	// Server
	Port string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Change-notification bus (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Consumer core
	DataBackend string // remote | local
	APIBaseURL  string
	APIToken    string
	LocalDBPath string
	SessionFile string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "monedero"),
		DBPassword: getEnv("DB_PASSWORD", "monedero"),
		DBName:     getEnv("DB_NAME", "monedero"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		// AMQP
		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "monedero.events"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "entity-changes"),

		// Consumer core
		DataBackend: getEnv("DATA_BACKEND", BackendRemote),
		APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:8080"),
		APIToken:    getEnv("API_TOKEN", ""),
		LocalDBPath: getEnv("LOCAL_DB_PATH", defaultStatePath("monedero.db")),
		SessionFile: getEnv("SESSION_FILE", defaultStatePath("session.json")),
	}

	// Parse JWT expiration duration
	expStr := getEnv("JWT_EXPIRES_IN", "24h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 24h\n", expStr)
		expDur = 24 * time.Hour
	}
	config.JWTExpirationDur = expDur

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// defaultStatePath places durable client-side state under the user config
// directory, falling back to the working directory.
func defaultStatePath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "monedero", name)
}
