package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"sprintbackend/cipher"
	"sprintbackend/clients/jira"
	"sprintbackend/clients/ticketgen"
	"sprintbackend/config"
	"sprintbackend/db"
	"sprintbackend/handlers"
	"sprintbackend/middleware"
	"sprintbackend/oauthstate"
	jiraintegrations "sprintbackend/services/jira_integrations"
	"sprintbackend/services/txmanager"
	"sprintbackend/services/users"
)

func main() {
	if err := run(); err != nil {
		log.Printf("❌ Fatal error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize error alert middleware
	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.SlackAlertConfig{
		WebhookURL:  cfg.SlackAlertWebhookURL,
		Environment: cfg.Environment,
		AppName:     "sprintbackend",
		LogsURL:     cfg.ServerLogsURL,
	})

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Initialize repositories with shared connection
	usersRepo := db.NewPostgresUsersRepository(dbConn, cfg.DatabaseSchema)
	jiraIntegrationsRepo := db.NewPostgresJiraIntegrationsRepository(dbConn, cfg.DatabaseSchema)

	// Initialize transaction manager
	txManager := txmanager.NewTransactionManager(dbConn)

	// Token cipher is validated at startup - a bad key must not boot the server
	tokenCipher, err := cipher.NewTokenCipher(cfg.EncryptionKey)
	if err != nil {
		return err
	}

	jiraClient := jira.NewJiraClient(
		cfg.JiraConfig.ClientID,
		cfg.JiraConfig.ClientSecret,
		cfg.JiraConfig.CallbackURL,
	)
	ticketClient := ticketgen.NewTicketGeneratorClient(cfg.TicketServiceConfig.URL, cfg.TicketServiceConfig.APIKey)

	usersService := users.NewUsersService(usersRepo)
	jiraIntegrationsService := jiraintegrations.NewJiraIntegrationsService(
		jiraIntegrationsRepo,
		jiraClient,
		tokenCipher,
		txManager,
	)

	authMiddleware := middleware.NewClerkAuthMiddleware(usersService, cfg.ClerkConfig.SecretKey)
	stateStore := oauthstate.NewStore(cfg.Environment != "dev")

	integrationHandler := handlers.NewIntegrationHandler(
		cfg.JiraConfig,
		cfg.AppBaseURL,
		stateStore,
		authMiddleware,
		jiraIntegrationsService,
	)
	ticketHandler := handlers.NewTicketGenerationHandler(cfg.TicketServiceConfig, ticketClient)
	dashboardHandler := handlers.NewDashboardAPIHandler(jiraIntegrationsService, jiraClient)
	dashboardHTTPHandler := handlers.NewDashboardHTTPHandler(dashboardHandler, integrationHandler, ticketHandler)

	// Create a new router
	router := mux.NewRouter()

	// Setup endpoints with the new router
	dashboardHTTPHandler.SetupEndpoints(router, authMiddleware)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			log.Printf("❌ Failed to write health check response: %v", err)
		}
	}).Methods("GET")

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	// Setup and handle graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           alertMiddleware.HTTPMiddleware(c.Handler(router)),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server)
}

func handleGracefulShutdown(server *http.Server) error {
	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Listening on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-stop
	log.Printf("🛑 Shutdown signal received, cleaning up...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	log.Printf("✅ Server shut down cleanly")
	return nil
}
