package txmanager

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintbackend/db"
	dbtx "sprintbackend/db/tx"
	"sprintbackend/services"
	"sprintbackend/testutils"
)

func setupTransactionTest(t *testing.T) (services.TransactionManager, *db.PostgresUsersRepository, func()) {
	cfg, err := testutils.LoadTestConfig()
	require.NoError(t, err)

	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	require.NoError(t, err, "Failed to create database connection")

	txManager := NewTransactionManager(dbConn)
	usersRepo := db.NewPostgresUsersRepository(dbConn, cfg.DatabaseSchema)

	return txManager, usersRepo, func() { dbConn.Close() }
}

func TestTransactionManager_WithTransaction_Success(t *testing.T) {
	txManager, usersRepo, cleanup := setupTransactionTest(t)
	defer cleanup()

	ctx := context.Background()
	providerID := uuid.New().String()

	err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		_, err := usersRepo.CreateUser(txCtx, "test", providerID, providerID+"@example.com")
		return err
	})
	require.NoError(t, err)

	// The committed row must be visible outside the transaction
	user, err := usersRepo.GetUserByAuthProvider(ctx, "test", providerID)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, providerID, user.AuthProviderID)
}

func TestTransactionManager_WithTransaction_RollbackOnError(t *testing.T) {
	txManager, usersRepo, cleanup := setupTransactionTest(t)
	defer cleanup()

	ctx := context.Background()
	providerID := uuid.New().String()
	expectedErr := errors.New("business rule failed")

	err := txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := usersRepo.CreateUser(txCtx, "test", providerID, providerID+"@example.com"); err != nil {
			return err
		}
		return expectedErr
	})
	assert.ErrorIs(t, err, expectedErr)

	// The write must have been rolled back
	user, err := usersRepo.GetUserByAuthProvider(ctx, "test", providerID)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestTransactionManager_WithTransaction_Nested(t *testing.T) {
	txManager, usersRepo, cleanup := setupTransactionTest(t)
	defer cleanup()

	ctx := context.Background()
	providerID := uuid.New().String()

	err := txManager.WithTransaction(ctx, func(outerCtx context.Context) error {
		_, hasTx := dbtx.TransactionFromContext(outerCtx)
		if !hasTx {
			return fmt.Errorf("expected transaction in outer context")
		}

		// Nested call must reuse the outer transaction, not open a second one
		return txManager.WithTransaction(outerCtx, func(innerCtx context.Context) error {
			_, err := usersRepo.CreateUser(innerCtx, "test", providerID, providerID+"@example.com")
			return err
		})
	})
	require.NoError(t, err)

	user, err := usersRepo.GetUserByAuthProvider(ctx, "test", providerID)
	require.NoError(t, err)
	require.NotNil(t, user)
}
