package testutils

import (
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"sprintbackend/appctx"
	"sprintbackend/cipher"
	"sprintbackend/config"
	"sprintbackend/core"
	"sprintbackend/db"
	"sprintbackend/models"
)

// LoadTestConfig loads configuration for tests from environment variables
func LoadTestConfig() (*config.AppConfig, error) {
	// Try to load environment variables from various possible locations
	_ = godotenv.Load("../.env.test") // From services/ directory
	_ = godotenv.Load(".env.test")    // From root directory
	_ = godotenv.Load()               // Default .env file

	databaseURL := os.Getenv("DB_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DB_URL is not set")
	}

	databaseSchema := os.Getenv("DB_SCHEMA")
	if databaseSchema == "" {
		return nil, fmt.Errorf("DB_SCHEMA is not set")
	}

	return &config.AppConfig{
		DatabaseURL:    databaseURL,
		DatabaseSchema: databaseSchema,
		EncryptionKey:  NewTestEncryptionKey(),
	}, nil
}

// NewTestEncryptionKey generates a throwaway AES-256 key for tests
func NewTestEncryptionKey() []byte {
	key := make([]byte, cipher.KeySize)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("failed to generate test encryption key: %v", err))
	}
	return key
}

// CreateTestUser creates a test user with a unique ID to avoid constraint violations
func CreateTestUser(t *testing.T, usersRepo *db.PostgresUsersRepository) *models.User {
	testUserID := uuid.New().String()
	testUser, err := usersRepo.CreateUser(
		context.Background(),
		"test",
		testUserID,
		fmt.Sprintf("%s@example.com", testUserID),
	)
	require.NoError(t, err, "Failed to create test user")
	return testUser
}

// CreateTestContext creates a context with the given user set for testing
func CreateTestContext(user *models.User) context.Context {
	ctx := context.Background()
	return appctx.SetUser(ctx, user)
}

// CreateTestJiraIntegration creates a test Jira integration with both tokens
// encrypted by the given cipher, expiring at the given time
func CreateTestJiraIntegration(
	t *testing.T,
	jiraRepo *db.PostgresJiraIntegrationsRepository,
	tokenCipher *cipher.TokenCipher,
	userID, accessToken, refreshToken string,
	expiresAt time.Time,
) *models.JiraIntegration {
	encryptedAccessToken, err := tokenCipher.Encrypt(accessToken)
	require.NoError(t, err, "Failed to encrypt test access token")
	encryptedRefreshToken, err := tokenCipher.Encrypt(refreshToken)
	require.NoError(t, err, "Failed to encrypt test refresh token")

	integration := &models.JiraIntegration{
		ID:                    core.NewID("ji"),
		UserID:                userID,
		JiraCloudID:           "test-cloud-" + uuid.New().String(),
		JiraBaseURL:           "https://test.atlassian.net",
		EncryptedAccessToken:  encryptedAccessToken,
		EncryptedRefreshToken: encryptedRefreshToken,
		AccessTokenExpiresAt:  expiresAt,
		Scopes:                "read:jira-work read:jira-user write:jira-work offline_access",
	}

	err = jiraRepo.UpsertJiraIntegration(context.Background(), integration)
	require.NoError(t, err, "Failed to create test jira integration")
	return integration
}
