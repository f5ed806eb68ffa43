package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"sprintbackend/clients"
	"sprintbackend/config"
	"sprintbackend/core"
	"sprintbackend/middleware"
	"sprintbackend/oauthstate"
	"sprintbackend/services"
)

const (
	atlassianAuthorizeURL = "https://auth.atlassian.com/authorize"

	// oauthScopes is the full scope set requested from Atlassian. offline_access
	// is what makes the provider issue a refresh token.
	oauthScopes = "read:jira-work read:jira-user write:jira-work offline_access"
)

// IntegrationHandler drives the browser-facing OAuth flow: the redirect to
// Atlassian's consent screen and the callback that lands back here.
type IntegrationHandler struct {
	jiraConfig              config.JiraConfig
	appBaseURL              string
	stateStore              *oauthstate.Store
	authMiddleware          *middleware.ClerkAuthMiddleware
	jiraIntegrationsService services.JiraIntegrationsService
}

func NewIntegrationHandler(
	jiraConfig config.JiraConfig,
	appBaseURL string,
	stateStore *oauthstate.Store,
	authMiddleware *middleware.ClerkAuthMiddleware,
	jiraIntegrationsService services.JiraIntegrationsService,
) *IntegrationHandler {
	return &IntegrationHandler{
		jiraConfig:              jiraConfig,
		appBaseURL:              appBaseURL,
		stateStore:              stateStore,
		authMiddleware:          authMiddleware,
		jiraIntegrationsService: jiraIntegrationsService,
	}
}

// HandleConnect starts the OAuth flow by redirecting the browser to Atlassian's
// consent screen with a fresh CSRF state cookie.
func (h *IntegrationHandler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔗 Jira connect request received from %s", r.RemoteAddr)

	if !h.jiraConfig.IsConfigured() {
		log.Printf("❌ Jira OAuth is not configured - missing client ID or callback URL")
		h.redirectWithError(w, r, "Jira configuration error")
		return
	}

	state, err := h.stateStore.Issue(w)
	if err != nil {
		log.Printf("❌ Failed to issue OAuth state: %v", err)
		h.redirectWithError(w, r, "Failed to integrate Jira. Please try again.")
		return
	}

	params := url.Values{}
	params.Set("audience", "api.atlassian.com")
	params.Set("client_id", h.jiraConfig.ClientID)
	params.Set("scope", oauthScopes)
	params.Set("redirect_uri", h.jiraConfig.CallbackURL)
	params.Set("state", state)
	params.Set("response_type", "code")
	params.Set("prompt", "consent")

	authorizeURL := fmt.Sprintf("%s?%s", atlassianAuthorizeURL, params.Encode())
	log.Printf("✅ Redirecting to Atlassian consent screen")
	http.Redirect(w, r, authorizeURL, http.StatusFound)
}

// HandleCallback lands the browser after the consent screen. Checks run in a
// fixed order - provider error, missing code, state, session - before any token
// is exchanged, so the cheapest rejection wins.
func (h *IntegrationHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	log.Printf("🔗 Jira callback request received from %s", r.RemoteAddr)

	query := r.URL.Query()

	if providerError := query.Get("error"); providerError != "" {
		log.Printf("❌ Provider returned error on callback: %s", providerError)
		h.redirectWithError(w, r, "Jira integration failed")
		return
	}

	code := query.Get("code")
	if code == "" {
		log.Printf("❌ No authorization code in callback")
		h.redirectWithError(w, r, "No authorization code received")
		return
	}

	if !h.stateStore.ConsumeAndVerify(w, r, query.Get("state")) {
		log.Printf("❌ OAuth state validation failed")
		h.redirectWithError(w, r, "Security error during Jira integration")
		return
	}

	user, err := h.authMiddleware.VerifySessionFromRequest(r)
	if err != nil {
		log.Printf("❌ No valid session on callback: %v", err)
		http.Redirect(w, r, h.appBaseURL+"/auth/signin?error=JiraIntegrationRequiresLogin", http.StatusFound)
		return
	}

	integration, err := h.jiraIntegrationsService.CreateJiraIntegration(r.Context(), user.ID, code)
	if err != nil {
		log.Printf("❌ Failed to create Jira integration: %v", err)
		h.redirectWithError(w, r, integrationErrorMessage(err))
		return
	}

	log.Printf("✅ Jira integration created: %s for cloud instance %s", integration.ID, integration.JiraCloudID)
	h.redirectWithSuccess(w, r, "Jira integration successful!")
}

// integrationErrorMessage maps an integration failure to the human message shown
// on the dashboard. The raw cause is only ever logged.
func integrationErrorMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrNoAccessibleResources):
		return "No accessible Jira resources found"
	case errors.Is(err, core.ErrNoResourceWithRequiredScopes):
		return "No Jira Cloud instance found with required permissions"
	}

	var providerErr *clients.ProviderError
	if errors.As(err, &providerErr) {
		switch providerErr.StatusCode {
		case http.StatusBadRequest:
			return "Invalid request to Jira. Please check your configuration."
		case http.StatusUnauthorized:
			return "Authentication failed with Jira. Please try again."
		}
		return "Failed to integrate Jira. Please try again."
	}

	if errors.Is(err, core.ErrProviderUnreachable) {
		return "Could not connect to Jira. Please check your network connection."
	}

	return "Failed to integrate Jira. Please try again."
}

func (h *IntegrationHandler) redirectWithError(w http.ResponseWriter, r *http.Request, message string) {
	target := fmt.Sprintf("%s/dashboard?error=%s", h.appBaseURL, url.QueryEscape(message))
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *IntegrationHandler) redirectWithSuccess(w http.ResponseWriter, r *http.Request, message string) {
	target := fmt.Sprintf("%s/dashboard?success=%s", h.appBaseURL, url.QueryEscape(message))
	http.Redirect(w, r, target, http.StatusFound)
}
