package jira

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"

	"sprintbackend/clients"
)

// MockJiraClient is a mock implementation of clients.JiraClient
type MockJiraClient struct {
	mock.Mock
}

// NewMockJiraClient creates a new mock client for testing
func NewMockJiraClient() *MockJiraClient {
	return &MockJiraClient{}
}

func (m *MockJiraClient) ExchangeCodeForTokens(ctx context.Context, code string) (*clients.JiraTokens, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.JiraTokens), args.Error(1)
}

func (m *MockJiraClient) RefreshAccessToken(ctx context.Context, refreshToken string) (*clients.JiraTokens, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.JiraTokens), args.Error(1)
}

func (m *MockJiraClient) GetAccessibleResources(ctx context.Context, accessToken string) ([]clients.JiraResource, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]clients.JiraResource), args.Error(1)
}

func (m *MockJiraClient) ListProjects(ctx context.Context, cloudID, accessToken string) (json.RawMessage, error) {
	args := m.Called(ctx, cloudID, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockJiraClient) SearchIssues(ctx context.Context, cloudID, accessToken, projectKey string) (json.RawMessage, error) {
	args := m.Called(ctx, cloudID, accessToken, projectKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockJiraClient) CreateIssue(
	ctx context.Context,
	cloudID, accessToken string,
	params clients.JiraCreateIssueParams,
) (*clients.JiraCreatedIssue, error) {
	args := m.Called(ctx, cloudID, accessToken, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clients.JiraCreatedIssue), args.Error(1)
}

// CreateTestTokens creates sample JiraTokens for testing
func CreateTestTokens() *clients.JiraTokens {
	return &clients.JiraTokens{
		AccessToken:  "test-access-token-123",
		RefreshToken: "test-refresh-token-456",
		ExpiresAt:    time.Now().Add(time.Hour),
		Scopes:       "read:jira-work read:jira-user write:jira-work offline_access",
	}
}

// CreateRefreshedTestTokens creates new sample JiraTokens for refresh scenarios
func CreateRefreshedTestTokens() *clients.JiraTokens {
	return &clients.JiraTokens{
		AccessToken:  "refreshed-access-token-789",
		RefreshToken: "refreshed-refresh-token-abc",
		ExpiresAt:    time.Now().Add(time.Hour),
		Scopes:       "read:jira-work read:jira-user write:jira-work offline_access",
	}
}

// CreateTestResources creates a sample accessible-resources response for testing
func CreateTestResources() []clients.JiraResource {
	return []clients.JiraResource{
		{
			ID:     "cloud-id-123",
			Name:   "example-site",
			URL:    "https://example.atlassian.net",
			Scopes: []string{"read:jira-work", "read:jira-user", "write:jira-work"},
		},
	}
}
