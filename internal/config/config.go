package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	MongoURI    string
	DBName      string
	Environment string
	AppId       string

	// Dispatcher settings. DispatchInterval is how often the loop checks
	// for due schedules; LeaseTTL bounds how long a crashed worker can
	// hold a schedule's in-flight lease. The dispatcher assumes a single
	// active instance per database.
	DispatchInterval time.Duration
	LeaseTTL         time.Duration

	// Bridge settings for the external document-processing service.
	// Values stored via the system settings API take precedence; these
	// are the bootstrap/env fallbacks.
	BridgeBaseURL      string
	BridgeAPIKey       string
	BridgeOrganization string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		MongoURI:           getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:             getEnv("DB_NAME", "go-docbridge"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		AppId:              getEnv("APP_ID", "go-docbridge"),
		DispatchInterval:   getEnvSeconds("DISPATCH_INTERVAL", 60),
		LeaseTTL:           getEnvSeconds("DISPATCH_LEASE_TTL", 1800),
		BridgeBaseURL:      getEnv("BRIDGE_BASE_URL", ""),
		BridgeAPIKey:       getEnv("BRIDGE_API_KEY", ""),
		BridgeOrganization: getEnv("BRIDGE_ORGANIZATION", ""),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		log.Printf("Invalid %s value %q, using default %ds", key, value, fallback)
	}
	return time.Duration(fallback) * time.Second
}
