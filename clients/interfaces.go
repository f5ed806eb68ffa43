package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// JiraTokens holds the result of a token exchange or refresh against Atlassian.
type JiraTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	Scopes       string
}

// JiraResource is one Jira Cloud instance the token grants access to, as reported
// by the accessible-resources endpoint.
type JiraResource struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	URL    string   `json:"url"`
	Scopes []string `json:"scopes"`
}

// HasScope reports whether the resource was granted the given scope.
func (r JiraResource) HasScope(scope string) bool {
	for _, s := range r.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// JiraCreateIssueParams describes a new issue to create.
type JiraCreateIssueParams struct {
	ProjectKey  string
	Title       string
	Description string
	Priority    string
	IssueType   string
	Labels      []string
}

// JiraCreatedIssue is the identifying result of a successful issue creation.
type JiraCreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// JiraClient covers the OAuth token lifecycle and the Jira Cloud REST operations
// the application depends on.
type JiraClient interface {
	ExchangeCodeForTokens(ctx context.Context, code string) (*JiraTokens, error)
	RefreshAccessToken(ctx context.Context, refreshToken string) (*JiraTokens, error)
	GetAccessibleResources(ctx context.Context, accessToken string) ([]JiraResource, error)
	ListProjects(ctx context.Context, cloudID, accessToken string) (json.RawMessage, error)
	SearchIssues(ctx context.Context, cloudID, accessToken, projectKey string) (json.RawMessage, error)
	CreateIssue(ctx context.Context, cloudID, accessToken string, params JiraCreateIssueParams) (*JiraCreatedIssue, error)
}

// TicketGenerationRequest is the payload proxied to the AI ticket service.
type TicketGenerationRequest struct {
	Prompt      string   `json:"prompt"`
	Context     []string `json:"context,omitempty"`
	ProjectKey  string   `json:"project_key,omitempty"`
	AccessToken string   `json:"access_token,omitempty"`
	JiraBaseURL string   `json:"jira_base_url,omitempty"`
}

// TicketGenerationResult carries the downstream response verbatim so the caller
// can pass status and body through unchanged.
type TicketGenerationResult struct {
	StatusCode int
	Body       json.RawMessage
}

// TicketGeneratorClient talks to the external AI ticket generation service.
type TicketGeneratorClient interface {
	GenerateTicket(ctx context.Context, req TicketGenerationRequest) (*TicketGenerationResult, error)
}

// ProviderError is an HTTP-level failure reported by an external provider. A nil
// *ProviderError result combined with a non-nil error means the failure happened
// below HTTP (DNS, connect, timeout).
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// IsUnauthorized reports whether the provider rejected the credentials outright.
func (e *ProviderError) IsUnauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}
