package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"sprintbackend/clients"
	"sprintbackend/core"
)

const (
	defaultAuthBaseURL = "https://auth.atlassian.com"
	defaultAPIBaseURL  = "https://api.atlassian.com"

	// issueSearchMaxResults bounds the page size of issue searches.
	issueSearchMaxResults = 50
	// issueSearchFields is the fixed field selection for issue searches.
	issueSearchFields = "summary,description,status,assignee,priority"
)

// JiraClient implements the clients.JiraClient interface against Atlassian Cloud.
type JiraClient struct {
	httpClient   *http.Client
	authBaseURL  string
	apiBaseURL   string
	clientID     string
	clientSecret string
	redirectURI  string
}

// NewJiraClient creates a Jira OAuth + REST client.
func NewJiraClient(clientID, clientSecret, redirectURI string) clients.JiraClient {
	return &JiraClient{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		authBaseURL:  defaultAuthBaseURL,
		apiBaseURL:   defaultAPIBaseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
	}
}

// NewJiraClientWithBaseURLs creates a client pointed at alternative endpoints.
// Used by tests to aim at local servers.
func NewJiraClientWithBaseURLs(clientID, clientSecret, redirectURI, authBaseURL, apiBaseURL string) clients.JiraClient {
	return &JiraClient{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		authBaseURL:  authBaseURL,
		apiBaseURL:   apiBaseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
	}
}

// tokenResponse is the provider's token endpoint response shape.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	TokenType    string `json:"token_type"`
}

type codeExchangeRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
}

type refreshTokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
}

// ExchangeCodeForTokens exchanges an OAuth authorization code for access and
// refresh tokens via the authorization_code grant.
func (c *JiraClient) ExchangeCodeForTokens(ctx context.Context, code string) (*clients.JiraTokens, error) {
	if code == "" {
		return nil, fmt.Errorf("authorization code cannot be empty")
	}

	reqBody := codeExchangeRequest{
		GrantType:    "authorization_code",
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Code:         code,
		RedirectURI:  c.redirectURI,
	}

	tokenResp, err := c.postTokenEndpoint(ctx, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if tokenResp.AccessToken == "" || tokenResp.RefreshToken == "" {
		return nil, fmt.Errorf("missing tokens in exchange response")
	}

	return &clients.JiraTokens{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
		Scopes:       tokenResp.Scope,
	}, nil
}

// RefreshAccessToken rotates an expired access token via the refresh_token grant.
// Atlassian rotates the refresh token too, so both returned tokens must be stored.
func (c *JiraClient) RefreshAccessToken(ctx context.Context, refreshToken string) (*clients.JiraTokens, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token cannot be empty")
	}

	reqBody := refreshTokenRequest{
		GrantType:    "refresh_token",
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		RefreshToken: refreshToken,
	}

	tokenResp, err := c.postTokenEndpoint(ctx, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh access token: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("missing access token in refresh response")
	}

	newRefreshToken := tokenResp.RefreshToken
	if newRefreshToken == "" {
		newRefreshToken = refreshToken
	}

	return &clients.JiraTokens{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: newRefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
		Scopes:       tokenResp.Scope,
	}, nil
}

func (c *JiraClient) postTokenEndpoint(ctx context.Context, reqBody any) (*tokenResponse, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.authBaseURL+"/oauth/token", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: token endpoint: %v", core.ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, &clients.ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tokenResp tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	return &tokenResp, nil
}

// GetAccessibleResources lists the Jira Cloud instances the access token can reach.
func (c *JiraClient) GetAccessibleResources(ctx context.Context, accessToken string) ([]clients.JiraResource, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.apiBaseURL+"/oauth/token/accessible-resources", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: accessible-resources endpoint: %v", core.ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &clients.ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var resources []clients.JiraResource
	if err := json.NewDecoder(resp.Body).Decode(&resources); err != nil {
		return nil, fmt.Errorf("failed to decode accessible resources: %w", err)
	}

	return resources, nil
}

// ListProjects fetches the tenant's paginated project list. The provider's JSON is
// passed through untouched.
func (c *JiraClient) ListProjects(ctx context.Context, cloudID, accessToken string) (json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/ex/jira/%s/rest/api/3/project/search", c.apiBaseURL, cloudID)
	return c.getJSON(ctx, endpoint, accessToken)
}

// SearchIssues fetches issues in the given project with a bounded page size and a
// fixed field selection. The provider's JSON is passed through untouched.
func (c *JiraClient) SearchIssues(ctx context.Context, cloudID, accessToken, projectKey string) (json.RawMessage, error) {
	if projectKey == "" {
		return nil, fmt.Errorf("project key cannot be empty")
	}

	params := url.Values{}
	params.Set("jql", fmt.Sprintf("project = %s", projectKey))
	params.Set("maxResults", fmt.Sprintf("%d", issueSearchMaxResults))
	params.Set("fields", issueSearchFields)

	endpoint := fmt.Sprintf("%s/ex/jira/%s/rest/api/3/search?%s", c.apiBaseURL, cloudID, params.Encode())
	return c.getJSON(ctx, endpoint, accessToken)
}

func (c *JiraClient) getJSON(ctx context.Context, endpoint, accessToken string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: jira api: %v", core.ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read jira api response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &clients.ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return json.RawMessage(body), nil
}

// adfDocument wraps plain text in the Atlassian Document Format required by the
// v3 issue API for description fields.
func adfDocument(text string) map[string]any {
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []map[string]any{
			{
				"type": "paragraph",
				"content": []map[string]any{
					{"type": "text", "text": text},
				},
			},
		},
	}
}

// CreateIssue creates a new issue and returns its identifying fields.
func (c *JiraClient) CreateIssue(
	ctx context.Context,
	cloudID, accessToken string,
	params clients.JiraCreateIssueParams,
) (*clients.JiraCreatedIssue, error) {
	if params.ProjectKey == "" {
		return nil, fmt.Errorf("project key cannot be empty")
	}
	if params.Title == "" {
		return nil, fmt.Errorf("issue title cannot be empty")
	}

	issueType := params.IssueType
	if issueType == "" {
		issueType = "Task"
	}

	fields := map[string]any{
		"project":   map[string]any{"key": params.ProjectKey},
		"summary":   params.Title,
		"issuetype": map[string]any{"name": issueType},
	}
	if params.Description != "" {
		fields["description"] = adfDocument(params.Description)
	}
	if params.Priority != "" {
		fields["priority"] = map[string]any{"name": params.Priority}
	}
	if len(params.Labels) > 0 {
		fields["labels"] = params.Labels
	}

	jsonBody, err := json.Marshal(map[string]any{"fields": fields})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal issue payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/ex/jira/%s/rest/api/3/issue", c.apiBaseURL, cloudID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: jira api: %v", core.ErrProviderUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read jira api response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, &clients.ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var created clients.JiraCreatedIssue
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("failed to decode created issue: %w", err)
	}

	return &created, nil
}
