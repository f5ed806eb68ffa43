package models

import (
	"time"
)

// JiraIntegration is one connected Jira Cloud instance for one user. Tokens are
// stored encrypted and never serialized to JSON.
type JiraIntegration struct {
	ID                    string    `db:"id"                      json:"id"`
	UserID                string    `db:"user_id"                 json:"user_id"`
	JiraCloudID           string    `db:"jira_cloud_id"           json:"jira_cloud_id"`
	JiraBaseURL           string    `db:"jira_base_url"           json:"jira_base_url"`
	EncryptedAccessToken  string    `db:"encrypted_access_token"  json:"-"`
	EncryptedRefreshToken string    `db:"encrypted_refresh_token" json:"-"`
	AccessTokenExpiresAt  time.Time `db:"access_token_expires_at" json:"-"`
	Scopes                string    `db:"scopes"                  json:"scopes"`
	CreatedAt             time.Time `db:"created_at"              json:"created_at"`
	UpdatedAt             time.Time `db:"updated_at"              json:"updated_at"`
}
