package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/samber/mo"

	// necessary import to wire up the postgres driver
	_ "github.com/lib/pq"

	"sprintbackend/core"
	dbtx "sprintbackend/db/tx"
	"sprintbackend/models"
)

type PostgresJiraIntegrationsRepository struct {
	db     *sqlx.DB
	schema string
}

// Column names for jira_integrations table
var jiraIntegrationsColumns = []string{
	"id",
	"user_id",
	"jira_cloud_id",
	"jira_base_url",
	"encrypted_access_token",
	"encrypted_refresh_token",
	"access_token_expires_at",
	"scopes",
	"created_at",
	"updated_at",
}

func NewPostgresJiraIntegrationsRepository(db *sqlx.DB, schema string) *PostgresJiraIntegrationsRepository {
	return &PostgresJiraIntegrationsRepository{db: db, schema: schema}
}

// UpsertJiraIntegration inserts a new integration record or, when the
// (user_id, jira_cloud_id) pair already exists, refreshes base URL, both token
// ciphertexts, expiry and scopes in place.
func (r *PostgresJiraIntegrationsRepository) UpsertJiraIntegration(
	ctx context.Context,
	integration *models.JiraIntegration,
) error {
	db := dbtx.GetTransactional(ctx, r.db)

	insertColumns := []string{
		"id",
		"user_id",
		"jira_cloud_id",
		"jira_base_url",
		"encrypted_access_token",
		"encrypted_refresh_token",
		"access_token_expires_at",
		"scopes",
	}
	columnsStr := strings.Join(insertColumns, ", ")
	returningStr := strings.Join(jiraIntegrationsColumns, ", ")

	query := fmt.Sprintf(`
		INSERT INTO %s.jira_integrations (%s, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (user_id, jira_cloud_id) DO UPDATE SET
			jira_base_url = EXCLUDED.jira_base_url,
			encrypted_access_token = EXCLUDED.encrypted_access_token,
			encrypted_refresh_token = EXCLUDED.encrypted_refresh_token,
			access_token_expires_at = EXCLUDED.access_token_expires_at,
			scopes = EXCLUDED.scopes,
			updated_at = NOW()
		RETURNING %s`, r.schema, columnsStr, returningStr)

	err := db.QueryRowxContext(
		ctx,
		query,
		integration.ID,
		integration.UserID,
		integration.JiraCloudID,
		integration.JiraBaseURL,
		integration.EncryptedAccessToken,
		integration.EncryptedRefreshToken,
		integration.AccessTokenExpiresAt,
		integration.Scopes,
	).StructScan(integration)
	if err != nil {
		return fmt.Errorf("failed to upsert jira integration: %w", err)
	}

	return nil
}

// GetLatestJiraIntegrationByUserID returns the most recently updated integration
// for the user - the record treated as active when multiple Jira Cloud instances
// are connected.
func (r *PostgresJiraIntegrationsRepository) GetLatestJiraIntegrationByUserID(
	ctx context.Context,
	userID string,
) (mo.Option[*models.JiraIntegration], error) {
	if !core.IsValidULID(userID) {
		return mo.None[*models.JiraIntegration](), fmt.Errorf("user ID must be a valid ULID")
	}

	db := dbtx.GetTransactional(ctx, r.db)

	columnsStr := strings.Join(jiraIntegrationsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.jira_integrations
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT 1`, columnsStr, r.schema)

	var integration models.JiraIntegration
	err := db.GetContext(ctx, &integration, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mo.None[*models.JiraIntegration](), nil
		}
		return mo.None[*models.JiraIntegration](), fmt.Errorf("failed to get jira integration by user ID: %w", err)
	}

	return mo.Some(&integration), nil
}

// GetJiraIntegrationsByUserID returns every connected Jira Cloud instance for the
// user, most recently updated first.
func (r *PostgresJiraIntegrationsRepository) GetJiraIntegrationsByUserID(
	ctx context.Context,
	userID string,
) ([]*models.JiraIntegration, error) {
	if !core.IsValidULID(userID) {
		return nil, fmt.Errorf("user ID must be a valid ULID")
	}

	db := dbtx.GetTransactional(ctx, r.db)

	columnsStr := strings.Join(jiraIntegrationsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.jira_integrations
		WHERE user_id = $1
		ORDER BY updated_at DESC`, columnsStr, r.schema)

	integrations := []*models.JiraIntegration{}
	err := db.SelectContext(ctx, &integrations, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get jira integrations by user ID: %w", err)
	}

	return integrations, nil
}

// GetJiraIntegrationForUpdate locks and returns the integration row for the
// (user, cloud) pair. Must be called inside a transaction - the row lock
// serializes concurrent token refreshes.
func (r *PostgresJiraIntegrationsRepository) GetJiraIntegrationForUpdate(
	ctx context.Context,
	userID, jiraCloudID string,
) (mo.Option[*models.JiraIntegration], error) {
	if !core.IsValidULID(userID) {
		return mo.None[*models.JiraIntegration](), fmt.Errorf("user ID must be a valid ULID")
	}
	if jiraCloudID == "" {
		return mo.None[*models.JiraIntegration](), fmt.Errorf("jira cloud ID cannot be empty")
	}

	db := dbtx.GetTransactional(ctx, r.db)

	columnsStr := strings.Join(jiraIntegrationsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.jira_integrations
		WHERE user_id = $1 AND jira_cloud_id = $2
		FOR UPDATE`, columnsStr, r.schema)

	var integration models.JiraIntegration
	err := db.GetContext(ctx, &integration, query, userID, jiraCloudID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mo.None[*models.JiraIntegration](), nil
		}
		return mo.None[*models.JiraIntegration](), fmt.Errorf("failed to lock jira integration: %w", err)
	}

	return mo.Some(&integration), nil
}

// UpdateJiraIntegrationTokens writes both token ciphertexts and the new expiry in a
// single statement so the stored expiry can never disagree with the stored token.
func (r *PostgresJiraIntegrationsRepository) UpdateJiraIntegrationTokens(
	ctx context.Context,
	userID, jiraCloudID string,
	encryptedAccessToken, encryptedRefreshToken string,
	accessTokenExpiresAt time.Time,
) error {
	if !core.IsValidULID(userID) {
		return fmt.Errorf("user ID must be a valid ULID")
	}
	if jiraCloudID == "" {
		return fmt.Errorf("jira cloud ID cannot be empty")
	}
	if encryptedAccessToken == "" || encryptedRefreshToken == "" {
		return fmt.Errorf("encrypted tokens cannot be empty")
	}

	db := dbtx.GetTransactional(ctx, r.db)

	query := fmt.Sprintf(`
		UPDATE %s.jira_integrations
		SET encrypted_access_token = $1,
			encrypted_refresh_token = $2,
			access_token_expires_at = $3,
			updated_at = NOW()
		WHERE user_id = $4 AND jira_cloud_id = $5`, r.schema)

	result, err := db.ExecContext(ctx, query, encryptedAccessToken, encryptedRefreshToken, accessTokenExpiresAt, userID, jiraCloudID)
	if err != nil {
		return fmt.Errorf("failed to update jira integration tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rowsAffected == 0 {
		return core.ErrNotFound
	}

	return nil
}

// GetJiraIntegrationsExpiringBefore returns every integration whose access token
// expires before the cutoff. Used by the proactive refresh sweep.
func (r *PostgresJiraIntegrationsRepository) GetJiraIntegrationsExpiringBefore(
	ctx context.Context,
	cutoff time.Time,
) ([]*models.JiraIntegration, error) {
	db := dbtx.GetTransactional(ctx, r.db)

	columnsStr := strings.Join(jiraIntegrationsColumns, ", ")
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s.jira_integrations
		WHERE access_token_expires_at < $1
		ORDER BY access_token_expires_at ASC`, columnsStr, r.schema)

	integrations := []*models.JiraIntegration{}
	err := db.SelectContext(ctx, &integrations, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to get expiring jira integrations: %w", err)
	}

	return integrations, nil
}
