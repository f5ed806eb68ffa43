package api

import (
	"time"
)

// JiraIntegrationModel represents the Jira integration data returned by the API.
// Token material is deliberately absent.
type JiraIntegrationModel struct {
	ID          string    `json:"id"`
	JiraCloudID string    `json:"jira_cloud_id"`
	JiraBaseURL string    `json:"jira_base_url"`
	Scopes      string    `json:"scopes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
