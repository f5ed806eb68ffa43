package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"sprintbackend/appctx"
	"sprintbackend/clients"
	"sprintbackend/core"
	"sprintbackend/middleware"
	"sprintbackend/models/api"
)

type DashboardHTTPHandler struct {
	handler            *DashboardAPIHandler
	integrationHandler *IntegrationHandler
	ticketHandler      *TicketGenerationHandler
}

func NewDashboardHTTPHandler(
	handler *DashboardAPIHandler,
	integrationHandler *IntegrationHandler,
	ticketHandler *TicketGenerationHandler,
) *DashboardHTTPHandler {
	return &DashboardHTTPHandler{
		handler:            handler,
		integrationHandler: integrationHandler,
		ticketHandler:      ticketHandler,
	}
}

type CreateIssueRequest struct {
	ProjectKey  string   `json:"projectKey"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority"`
	IssueType   string   `json:"issueType"`
	Labels      []string `json:"labels"`
}

func (h *DashboardHTTPHandler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 List Jira projects request received from %s", r.RemoteAddr)

	// Get user entity from context (set by authentication middleware)
	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	projects, err := h.handler.ListProjects(r.Context(), user)
	if err != nil {
		h.writeIntegrationError(w, err, "Failed to fetch Jira projects.")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, projects)
}

func (h *DashboardHTTPHandler) HandleListIssues(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 List Jira issues request received from %s", r.RemoteAddr)

	// Get user entity from context (set by authentication middleware)
	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	projectKey := r.URL.Query().Get("projectKey")
	if projectKey == "" {
		log.Printf("❌ Missing projectKey query parameter")
		h.writeErrorResponse(w, http.StatusBadRequest, "Project key is required")
		return
	}

	issues, err := h.handler.ListIssues(r.Context(), user, projectKey)
	if err != nil {
		h.writeIntegrationError(w, err, "Failed to fetch Jira issues.")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, issues)
}

func (h *DashboardHTTPHandler) HandleCreateIssue(w http.ResponseWriter, r *http.Request) {
	log.Printf("➕ Create Jira issue request received from %s", r.RemoteAddr)

	// Get user entity from context (set by authentication middleware)
	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	// Parse request body
	var req CreateIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Failed to parse request body: %v", err)
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ProjectKey == "" {
		log.Printf("❌ Missing projectKey in request")
		h.writeErrorResponse(w, http.StatusBadRequest, "Project key is required")
		return
	}
	if req.Title == "" {
		log.Printf("❌ Missing title in request")
		h.writeErrorResponse(w, http.StatusBadRequest, "Title is required")
		return
	}

	created, err := h.handler.CreateIssue(r.Context(), user, clients.JiraCreateIssueParams{
		ProjectKey:  req.ProjectKey,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		IssueType:   req.IssueType,
		Labels:      req.Labels,
	})
	if err != nil {
		h.writeIntegrationError(w, err, "Failed to create Jira issue.")
		return
	}

	h.writeJSONResponse(w, http.StatusCreated, created)
}

func (h *DashboardHTTPHandler) HandleIntegrationStatus(w http.ResponseWriter, r *http.Request) {
	log.Printf("📋 Jira integration status request received from %s", r.RemoteAddr)

	// Get user entity from context (set by authentication middleware)
	user, ok := appctx.GetUser(r.Context())
	if !ok {
		log.Printf("❌ User not found in context")
		h.writeErrorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	integrations, err := h.handler.ListIntegrations(r.Context(), user)
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to fetch Jira integration status.")
		return
	}

	// Convert domain integrations to token-free API models
	apiIntegrations := api.DomainJiraIntegrationsToAPIJiraIntegrations(integrations)

	h.writeJSONResponse(w, http.StatusOK, map[string]any{
		"connected":    len(apiIntegrations) > 0,
		"integrations": apiIntegrations,
	})
}

// writeIntegrationError maps facade errors onto the dashboard's error contract:
// 400 when Jira was never connected, 401 when stored credentials are dead and
// the user must reconnect, 500 otherwise.
func (h *DashboardHTTPHandler) writeIntegrationError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, core.ErrNotIntegrated):
		h.writeErrorResponse(w, http.StatusBadRequest, "Jira not integrated for this user.")
	case errors.Is(err, core.ErrCredentialsRevoked):
		h.writeErrorResponse(w, http.StatusUnauthorized, "Jira access token invalid or revoked. Please reconnect Jira.")
	default:
		h.writeErrorResponse(w, http.StatusInternalServerError, fallback)
	}
}

func (h *DashboardHTTPHandler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("❌ Failed to encode JSON response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *DashboardHTTPHandler) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	h.writeJSONResponse(w, statusCode, map[string]string{"message": message})
}

func (h *DashboardHTTPHandler) SetupEndpoints(router *mux.Router, authMiddleware *middleware.ClerkAuthMiddleware) {
	log.Printf("🚀 Registering dashboard API endpoints")

	// Browser-facing OAuth flow endpoints
	router.HandleFunc("/integration/connect", h.integrationHandler.HandleConnect).Methods("GET")
	log.Printf("✅ GET /integration/connect endpoint registered")

	router.HandleFunc("/integration/callback", h.integrationHandler.HandleCallback).Methods("GET")
	log.Printf("✅ GET /integration/callback endpoint registered")

	// Integration status endpoint
	router.HandleFunc("/integration/status", authMiddleware.WithAuth(h.HandleIntegrationStatus)).Methods("GET")
	log.Printf("✅ GET /integration/status endpoint registered")

	// Jira API facade endpoints
	router.HandleFunc("/integration/projects", authMiddleware.WithAuth(h.HandleListProjects)).Methods("GET")
	log.Printf("✅ GET /integration/projects endpoint registered")

	router.HandleFunc("/integration/issues", authMiddleware.WithAuth(h.HandleListIssues)).Methods("GET")
	log.Printf("✅ GET /integration/issues endpoint registered")

	router.HandleFunc("/integration/issues", authMiddleware.WithAuth(h.HandleCreateIssue)).Methods("POST")
	log.Printf("✅ POST /integration/issues endpoint registered")

	// Ticket generation proxy endpoint
	router.HandleFunc("/ticket-generation", h.ticketHandler.HandleGenerateTicket).Methods("POST")
	log.Printf("✅ POST /ticket-generation endpoint registered")
}
