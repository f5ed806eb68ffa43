package services

import (
	"context"
	"time"

	"github.com/samber/mo"

	"sprintbackend/models"
)

// UsersService defines the interface for user-related operations
type UsersService interface {
	GetOrCreateUser(ctx context.Context, authProvider, authProviderID, email string) (*models.User, error)
}

// JiraIntegrationsService defines the interface for Jira integration operations
type JiraIntegrationsService interface {
	CreateJiraIntegration(ctx context.Context, userID, authCode string) (*models.JiraIntegration, error)
	GetJiraIntegrationByUserID(ctx context.Context, userID string) (mo.Option[*models.JiraIntegration], error)
	ListJiraIntegrations(ctx context.Context, userID string) ([]*models.JiraIntegration, error)
	GetValidAccessToken(ctx context.Context, userID string) (string, *models.JiraIntegration, error)
	RefreshExpiringIntegrations(ctx context.Context, cutoff time.Time) (int, error)
}

// TransactionManager defines the interface for managing database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	BeginTransaction(ctx context.Context) (context.Context, error)
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
}
