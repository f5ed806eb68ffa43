package config

import (
	"encoding/hex"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"sprintbackend/cipher"
)

type JiraConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// IsConfigured returns true if all required Jira OAuth configuration is present
func (c JiraConfig) IsConfigured() bool {
	return c.ClientID != "" &&
		c.ClientSecret != "" &&
		c.CallbackURL != ""
}

type TicketServiceConfig struct {
	URL    string
	APIKey string
}

// IsConfigured returns true if the ticket generation service can be called
func (c TicketServiceConfig) IsConfigured() bool {
	return c.URL != "" && c.APIKey != ""
}

type ClerkConfig struct {
	SecretKey string
}

// IsConfigured returns true if all required Clerk configuration is present
func (c ClerkConfig) IsConfigured() bool {
	return c.SecretKey != ""
}

type AppConfig struct {
	// Core configuration (always required)
	DatabaseURL          string
	DatabaseSchema       string
	Port                 string // Optional with default "8080"
	CORSAllowedOrigins   string // Optional with default "*"
	Environment          string
	AppBaseURL           string // Where dashboard/signin redirects land
	SlackAlertWebhookURL string
	ServerLogsURL        string
	UseStrictConfig      bool // If true, error when any integration is not fully configured

	// EncryptionKey is the raw 32-byte key for token encryption at rest. Loading
	// fails outright when the key is absent or the wrong length - the service must
	// never start with credential encryption silently disabled.
	EncryptionKey []byte

	// Integration configurations (grouped)
	JiraConfig          JiraConfig
	TicketServiceConfig TicketServiceConfig
	ClerkConfig         ClerkConfig
}

func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("⚠️ Could not load .env file, continuing with system env vars")
	}

	// Core required configuration
	databaseURL, err := getEnvRequired("DB_URL")
	if err != nil {
		return nil, err
	}

	databaseSchema, err := getEnvRequired("DB_SCHEMA")
	if err != nil {
		return nil, err
	}

	encryptionKeyHex, err := getEnvRequired("ENCRYPTION_KEY")
	if err != nil {
		return nil, err
	}
	encryptionKey, err := hex.DecodeString(encryptionKeyHex)
	if err != nil {
		return nil, fmt.Errorf("ENCRYPTION_KEY must be hex-encoded: %w", err)
	}
	if len(encryptionKey) != cipher.KeySize {
		return nil, fmt.Errorf(
			"ENCRYPTION_KEY must be %d bytes (%d hex characters), got %d bytes",
			cipher.KeySize, cipher.KeySize*2, len(encryptionKey),
		)
	}

	config := &AppConfig{
		// Core configuration
		DatabaseURL:          databaseURL,
		DatabaseSchema:       databaseSchema,
		Port:                 getEnvWithDefault("PORT", "8080"),
		CORSAllowedOrigins:   getEnvWithDefault("CORS_ALLOWED_ORIGINS", "*"),
		Environment:          getEnvWithDefault("ENVIRONMENT", "dev"),
		AppBaseURL:           getEnvWithDefault("APP_BASE_URL", "http://localhost:3000"),
		SlackAlertWebhookURL: getEnvWithDefault("SLACK_ALERT_WEBHOOK_URL", ""),
		ServerLogsURL:        getEnvWithDefault("SERVER_LOGS_URL", ""),
		UseStrictConfig:      getEnvWithDefault("USE_STRICT_CONFIG", "true") == "true",
		EncryptionKey:        encryptionKey,

		// Jira OAuth configuration (optional)
		JiraConfig: JiraConfig{
			ClientID:     os.Getenv("JIRA_CLIENT_ID"),
			ClientSecret: os.Getenv("JIRA_CLIENT_SECRET"),
			CallbackURL:  os.Getenv("JIRA_CALLBACK_URL"),
		},

		// Ticket generation service configuration (optional)
		TicketServiceConfig: TicketServiceConfig{
			URL:    getEnvWithDefault("TICKET_SERVICE_URL", "http://localhost:8000"),
			APIKey: os.Getenv("TICKET_SERVICE_API_KEY"),
		},

		// Clerk configuration (optional)
		ClerkConfig: ClerkConfig{
			SecretKey: os.Getenv("CLERK_SECRET_KEY"),
		},
	}

	// Log which integrations are configured
	if config.JiraConfig.IsConfigured() {
		log.Printf("✅ Jira OAuth integration configured")
	} else {
		log.Printf("⚠️ Jira OAuth integration not configured - connect flow will be disabled")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("jira integration is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.TicketServiceConfig.IsConfigured() {
		log.Printf("✅ Ticket generation service configured")
	} else {
		log.Printf("⚠️ Ticket generation service not configured - ticket generation will fail")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("ticket generation service is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	if config.ClerkConfig.IsConfigured() {
		log.Printf("✅ Clerk authentication configured")
	} else {
		log.Printf("⚠️ Clerk authentication not configured - authenticated endpoints will be disabled")
		if config.UseStrictConfig {
			return nil, fmt.Errorf("clerk authentication is not fully configured (USE_STRICT_CONFIG=true)")
		}
	}

	return config, nil
}

func getEnvRequired(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("%s is not set", key)
	}
	return value, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
