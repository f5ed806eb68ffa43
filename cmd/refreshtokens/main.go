package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"sprintbackend/cipher"
	"sprintbackend/clients/jira"
	"sprintbackend/config"
	"sprintbackend/db"
	jiraintegrations "sprintbackend/services/jira_integrations"
	"sprintbackend/services/txmanager"
)

func main() {
	window := flag.Duration("window", time.Hour, "refresh integrations whose tokens expire within this window")
	flag.Parse()

	log.Printf("🔄 Starting Jira OAuth token refresh sweep...")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	// Create database connection
	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer dbConn.Close()

	tokenCipher, err := cipher.NewTokenCipher(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("❌ Failed to initialize token cipher: %v", err)
	}

	// Initialize services
	jiraIntegrationsRepo := db.NewPostgresJiraIntegrationsRepository(dbConn, cfg.DatabaseSchema)
	jiraClient := jira.NewJiraClient(
		cfg.JiraConfig.ClientID,
		cfg.JiraConfig.ClientSecret,
		cfg.JiraConfig.CallbackURL,
	)
	txManager := txmanager.NewTransactionManager(dbConn)
	jiraIntegrationsService := jiraintegrations.NewJiraIntegrationsService(
		jiraIntegrationsRepo,
		jiraClient,
		tokenCipher,
		txManager,
	)

	ctx := context.Background()
	cutoff := time.Now().Add(*window)

	refreshed, err := jiraIntegrationsService.RefreshExpiringIntegrations(ctx, cutoff)
	if err != nil {
		log.Fatalf("❌ Token refresh sweep failed: %v", err)
	}

	log.Printf("✅ Token refresh sweep completed!")
	log.Printf("📊 Summary:")
	log.Printf("   - Refresh window: %s", window.String())
	log.Printf("   - Tokens refreshed successfully: %d", refreshed)

	if refreshed == 0 {
		log.Printf("⏭️  No integrations needed refreshing")
	}

	os.Exit(0)
}
