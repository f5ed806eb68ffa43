package jira_integrations

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/samber/mo"

	"sprintbackend/cipher"
	"sprintbackend/clients"
	"sprintbackend/core"
	"sprintbackend/db"
	"sprintbackend/models"
	"sprintbackend/services"
)

// requiredScope is the minimum scope a Jira Cloud instance must grant for the
// integration to be usable.
const requiredScope = "read:jira-work"

type JiraIntegrationsService struct {
	jiraRepo    *db.PostgresJiraIntegrationsRepository
	jiraClient  clients.JiraClient
	tokenCipher *cipher.TokenCipher
	txManager   services.TransactionManager
}

func NewJiraIntegrationsService(
	repo *db.PostgresJiraIntegrationsRepository,
	jiraClient clients.JiraClient,
	tokenCipher *cipher.TokenCipher,
	txManager services.TransactionManager,
) *JiraIntegrationsService {
	return &JiraIntegrationsService{
		jiraRepo:    repo,
		jiraClient:  jiraClient,
		tokenCipher: tokenCipher,
		txManager:   txManager,
	}
}

// CreateJiraIntegration exchanges the OAuth authorization code, discovers the
// Jira Cloud instance the grant covers and stores the integration with both
// tokens encrypted at rest.
func (s *JiraIntegrationsService) CreateJiraIntegration(
	ctx context.Context,
	userID, authCode string,
) (*models.JiraIntegration, error) {
	log.Printf("📋 Starting to create Jira integration for user: %s", userID)

	if !core.IsValidULID(userID) {
		return nil, fmt.Errorf("user ID must be a valid ULID")
	}
	if authCode == "" {
		return nil, fmt.Errorf("authorization code cannot be empty")
	}

	tokens, err := s.jiraClient.ExchangeCodeForTokens(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	resources, err := s.jiraClient.GetAccessibleResources(ctx, tokens.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to discover accessible resources: %w", err)
	}
	if len(resources) == 0 {
		return nil, core.ErrNoAccessibleResources
	}

	var resource *clients.JiraResource
	for i := range resources {
		if resources[i].HasScope(requiredScope) {
			resource = &resources[i]
			break
		}
	}
	if resource == nil {
		return nil, core.ErrNoResourceWithRequiredScopes
	}

	encryptedAccessToken, err := s.tokenCipher.Encrypt(tokens.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}
	encryptedRefreshToken, err := s.tokenCipher.Encrypt(tokens.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	integration := &models.JiraIntegration{
		ID:                    core.NewID("ji"),
		UserID:                userID,
		JiraCloudID:           resource.ID,
		JiraBaseURL:           resource.URL,
		EncryptedAccessToken:  encryptedAccessToken,
		EncryptedRefreshToken: encryptedRefreshToken,
		AccessTokenExpiresAt:  tokens.ExpiresAt,
		Scopes:                tokens.Scopes,
	}

	if err := s.jiraRepo.UpsertJiraIntegration(ctx, integration); err != nil {
		return nil, fmt.Errorf("failed to store jira integration: %w", err)
	}

	log.Printf("✅ Created Jira integration %s for cloud instance: %s", integration.ID, resource.Name)
	return integration, nil
}

// GetJiraIntegrationByUserID returns the user's active integration, if any.
func (s *JiraIntegrationsService) GetJiraIntegrationByUserID(
	ctx context.Context,
	userID string,
) (mo.Option[*models.JiraIntegration], error) {
	log.Printf("📋 Starting to get Jira integration for user: %s", userID)

	if !core.IsValidULID(userID) {
		return mo.None[*models.JiraIntegration](), fmt.Errorf("user ID must be a valid ULID")
	}

	maybeIntegration, err := s.jiraRepo.GetLatestJiraIntegrationByUserID(ctx, userID)
	if err != nil {
		return mo.None[*models.JiraIntegration](), fmt.Errorf("failed to get jira integration: %w", err)
	}

	log.Printf("📋 Completed successfully - integration found: %t", maybeIntegration.IsPresent())
	return maybeIntegration, nil
}

// ListJiraIntegrations returns every Jira Cloud instance the user has connected.
func (s *JiraIntegrationsService) ListJiraIntegrations(
	ctx context.Context,
	userID string,
) ([]*models.JiraIntegration, error) {
	log.Printf("📋 Starting to list Jira integrations for user: %s", userID)

	if !core.IsValidULID(userID) {
		return nil, fmt.Errorf("user ID must be a valid ULID")
	}

	integrations, err := s.jiraRepo.GetJiraIntegrationsByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list jira integrations: %w", err)
	}

	log.Printf("📋 Completed successfully - found %d integrations", len(integrations))
	return integrations, nil
}

// GetValidAccessToken returns a plaintext access token for the user's active
// integration, refreshing it first when expired. Concurrent callers racing on an
// expired token are serialized by a row lock so the provider sees one refresh.
func (s *JiraIntegrationsService) GetValidAccessToken(
	ctx context.Context,
	userID string,
) (string, *models.JiraIntegration, error) {
	if !core.IsValidULID(userID) {
		return "", nil, fmt.Errorf("user ID must be a valid ULID")
	}

	maybeIntegration, err := s.jiraRepo.GetLatestJiraIntegrationByUserID(ctx, userID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to get jira integration: %w", err)
	}
	integration, ok := maybeIntegration.Get()
	if !ok {
		return "", nil, core.ErrNotIntegrated
	}

	if time.Now().Before(integration.AccessTokenExpiresAt) {
		accessToken, err := s.tokenCipher.Decrypt(integration.EncryptedAccessToken)
		if err != nil {
			return "", nil, fmt.Errorf("failed to decrypt access token: %w", err)
		}
		return accessToken, integration, nil
	}

	log.Printf("🔐 Access token expired for user %s, refreshing", userID)

	var accessToken string
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		maybeLocked, err := s.jiraRepo.GetJiraIntegrationForUpdate(txCtx, userID, integration.JiraCloudID)
		if err != nil {
			return fmt.Errorf("failed to lock jira integration: %w", err)
		}
		locked, ok := maybeLocked.Get()
		if !ok {
			return core.ErrNotIntegrated
		}

		// A concurrent request may have refreshed while we waited on the lock
		if time.Now().Before(locked.AccessTokenExpiresAt) {
			accessToken, err = s.tokenCipher.Decrypt(locked.EncryptedAccessToken)
			if err != nil {
				return fmt.Errorf("failed to decrypt access token: %w", err)
			}
			integration = locked
			return nil
		}

		refreshed, err := s.refreshLockedIntegration(txCtx, locked)
		if err != nil {
			return err
		}

		accessToken, err = s.tokenCipher.Decrypt(refreshed.EncryptedAccessToken)
		if err != nil {
			return fmt.Errorf("failed to decrypt refreshed access token: %w", err)
		}
		integration = refreshed
		return nil
	})
	if err != nil {
		return "", nil, err
	}

	log.Printf("✅ Access token refreshed for user: %s", userID)
	return accessToken, integration, nil
}

// refreshLockedIntegration performs the refresh grant and persists the rotated
// tokens. Must run inside the transaction holding the row lock.
func (s *JiraIntegrationsService) refreshLockedIntegration(
	ctx context.Context,
	integration *models.JiraIntegration,
) (*models.JiraIntegration, error) {
	refreshToken, err := s.tokenCipher.Decrypt(integration.EncryptedRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	tokens, err := s.jiraClient.RefreshAccessToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: refresh grant rejected: %v", core.ErrCredentialsRevoked, err)
	}

	encryptedAccessToken, err := s.tokenCipher.Encrypt(tokens.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}
	encryptedRefreshToken, err := s.tokenCipher.Encrypt(tokens.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	err = s.jiraRepo.UpdateJiraIntegrationTokens(
		ctx,
		integration.UserID,
		integration.JiraCloudID,
		encryptedAccessToken,
		encryptedRefreshToken,
		tokens.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to persist refreshed tokens: %w", err)
	}

	refreshed := *integration
	refreshed.EncryptedAccessToken = encryptedAccessToken
	refreshed.EncryptedRefreshToken = encryptedRefreshToken
	refreshed.AccessTokenExpiresAt = tokens.ExpiresAt
	return &refreshed, nil
}

// RefreshExpiringIntegrations refreshes every integration whose access token
// expires before the cutoff. Failures are logged and skipped so one revoked
// grant does not stall the sweep. Returns the number of refreshed integrations.
func (s *JiraIntegrationsService) RefreshExpiringIntegrations(
	ctx context.Context,
	cutoff time.Time,
) (int, error) {
	log.Printf("📋 Starting refresh sweep for integrations expiring before: %s", cutoff.Format(time.RFC3339))

	integrations, err := s.jiraRepo.GetJiraIntegrationsExpiringBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list expiring integrations: %w", err)
	}

	refreshedCount := 0
	for _, integration := range integrations {
		err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			maybeLocked, err := s.jiraRepo.GetJiraIntegrationForUpdate(txCtx, integration.UserID, integration.JiraCloudID)
			if err != nil {
				return fmt.Errorf("failed to lock jira integration: %w", err)
			}
			locked, ok := maybeLocked.Get()
			if !ok {
				return core.ErrNotFound
			}

			if !locked.AccessTokenExpiresAt.Before(cutoff) {
				return nil
			}

			_, err = s.refreshLockedIntegration(txCtx, locked)
			return err
		})
		if err != nil {
			log.Printf("⚠️ Failed to refresh integration %s: %v", integration.ID, err)
			continue
		}
		refreshedCount++
	}

	log.Printf("✅ Refresh sweep completed - refreshed %d of %d integrations", refreshedCount, len(integrations))
	return refreshedCount, nil
}
