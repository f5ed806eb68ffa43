package services

import (
	"context"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"sprintbackend/models"
)

// MockUsersService is a mock implementation of the UsersService interface
type MockUsersService struct {
	mock.Mock
}

func (m *MockUsersService) GetOrCreateUser(
	ctx context.Context,
	authProvider, authProviderID, email string,
) (*models.User, error) {
	args := m.Called(ctx, authProvider, authProviderID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockJiraIntegrationsService is a mock implementation of the JiraIntegrationsService interface
type MockJiraIntegrationsService struct {
	mock.Mock
}

func (m *MockJiraIntegrationsService) CreateJiraIntegration(
	ctx context.Context,
	userID, authCode string,
) (*models.JiraIntegration, error) {
	args := m.Called(ctx, userID, authCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JiraIntegration), args.Error(1)
}

func (m *MockJiraIntegrationsService) GetJiraIntegrationByUserID(
	ctx context.Context,
	userID string,
) (mo.Option[*models.JiraIntegration], error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return mo.None[*models.JiraIntegration](), args.Error(1)
	}
	return args.Get(0).(mo.Option[*models.JiraIntegration]), args.Error(1)
}

func (m *MockJiraIntegrationsService) ListJiraIntegrations(
	ctx context.Context,
	userID string,
) ([]*models.JiraIntegration, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.JiraIntegration), args.Error(1)
}

func (m *MockJiraIntegrationsService) GetValidAccessToken(
	ctx context.Context,
	userID string,
) (string, *models.JiraIntegration, error) {
	args := m.Called(ctx, userID)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*models.JiraIntegration), args.Error(2)
}

func (m *MockJiraIntegrationsService) RefreshExpiringIntegrations(
	ctx context.Context,
	cutoff time.Time,
) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}
