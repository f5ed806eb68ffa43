package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"sprintbackend/clients"
	"sprintbackend/core"
	"sprintbackend/models"
	"sprintbackend/services"
)

// DashboardAPIHandler fronts the Jira Cloud REST API for the dashboard. Every
// operation first obtains a valid bearer token from the integrations service,
// which refreshes it transparently when expired.
type DashboardAPIHandler struct {
	jiraIntegrationsService services.JiraIntegrationsService
	jiraClient              clients.JiraClient
}

func NewDashboardAPIHandler(
	jiraIntegrationsService services.JiraIntegrationsService,
	jiraClient clients.JiraClient,
) *DashboardAPIHandler {
	return &DashboardAPIHandler{
		jiraIntegrationsService: jiraIntegrationsService,
		jiraClient:              jiraClient,
	}
}

// ListProjects returns the raw project list from the user's Jira Cloud instance
func (h *DashboardAPIHandler) ListProjects(ctx context.Context, user *models.User) (json.RawMessage, error) {
	log.Printf("📋 Listing Jira projects for user: %s", user.ID)

	accessToken, integration, err := h.jiraIntegrationsService.GetValidAccessToken(ctx, user.ID)
	if err != nil {
		log.Printf("❌ Failed to get valid access token: %v", err)
		return nil, err
	}

	projects, err := h.jiraClient.ListProjects(ctx, integration.JiraCloudID, accessToken)
	if err != nil {
		log.Printf("❌ Failed to list Jira projects: %v", err)
		return nil, mapRemoteRejection(err)
	}

	log.Printf("✅ Retrieved Jira projects for user: %s", user.ID)
	return projects, nil
}

// ListIssues returns the raw issue search result for the given project
func (h *DashboardAPIHandler) ListIssues(
	ctx context.Context,
	user *models.User,
	projectKey string,
) (json.RawMessage, error) {
	log.Printf("📋 Listing Jira issues for user: %s, project: %s", user.ID, projectKey)

	accessToken, integration, err := h.jiraIntegrationsService.GetValidAccessToken(ctx, user.ID)
	if err != nil {
		log.Printf("❌ Failed to get valid access token: %v", err)
		return nil, err
	}

	issues, err := h.jiraClient.SearchIssues(ctx, integration.JiraCloudID, accessToken, projectKey)
	if err != nil {
		log.Printf("❌ Failed to search Jira issues: %v", err)
		return nil, mapRemoteRejection(err)
	}

	log.Printf("✅ Retrieved Jira issues for user: %s, project: %s", user.ID, projectKey)
	return issues, nil
}

// CreateIssue creates a new issue in the user's Jira Cloud instance
func (h *DashboardAPIHandler) CreateIssue(
	ctx context.Context,
	user *models.User,
	params clients.JiraCreateIssueParams,
) (*clients.JiraCreatedIssue, error) {
	log.Printf("➕ Creating Jira issue for user: %s, project: %s", user.ID, params.ProjectKey)

	accessToken, integration, err := h.jiraIntegrationsService.GetValidAccessToken(ctx, user.ID)
	if err != nil {
		log.Printf("❌ Failed to get valid access token: %v", err)
		return nil, err
	}

	created, err := h.jiraClient.CreateIssue(ctx, integration.JiraCloudID, accessToken, params)
	if err != nil {
		log.Printf("❌ Failed to create Jira issue: %v", err)
		return nil, mapRemoteRejection(err)
	}

	log.Printf("✅ Jira issue created: %s for user: %s", created.Key, user.ID)
	return created, nil
}

// ListIntegrations returns the user's connected Jira Cloud instances
func (h *DashboardAPIHandler) ListIntegrations(
	ctx context.Context,
	user *models.User,
) ([]*models.JiraIntegration, error) {
	log.Printf("📋 Listing Jira integrations for user: %s", user.ID)

	integrations, err := h.jiraIntegrationsService.ListJiraIntegrations(ctx, user.ID)
	if err != nil {
		log.Printf("❌ Failed to list Jira integrations: %v", err)
		return nil, err
	}

	log.Printf("✅ Retrieved %d Jira integrations for user: %s", len(integrations), user.ID)
	return integrations, nil
}

// mapRemoteRejection folds a provider 401/403 into the revoked-credentials
// sentinel. A remote rejection right after a refresh means the grant is gone -
// the caller must reconnect, never retry.
func mapRemoteRejection(err error) error {
	var providerErr *clients.ProviderError
	if errors.As(err, &providerErr) && providerErr.IsUnauthorized() {
		return fmt.Errorf("%w: %v", core.ErrCredentialsRevoked, err)
	}
	return err
}
