package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/miguelserrato/tapiceros-backend/pkg/db/models"
)

func setupUsersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.User{}))
	return conn
}

func seedUser(t *testing.T, repo Repository, email string, active bool) *models.User {
	t.Helper()

	user := &models.User{
		Email:        email,
		PasswordHash: "hash",
		FirstName:    "Maria",
		LastName:     "Serrato",
		IsActive:     active,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestRepositoryFindByEmail(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))
	seeded := seedUser(t, repo, "maria@example.com", true)

	found, err := repo.FindByEmail(context.Background(), "maria@example.com")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, found.ID)

	_, err = repo.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryRejectsDuplicateEmail(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))
	seedUser(t, repo, "maria@example.com", true)

	dup := &models.User{
		Email:        "maria@example.com",
		PasswordHash: "hash",
		FirstName:    "Other",
		LastName:     "Person",
		IsActive:     true,
	}
	assert.Error(t, repo.Create(context.Background(), dup))
}

func TestRepositoryUpdateDeviceToken(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))
	seeded := seedUser(t, repo, "maria@example.com", true)

	token := "fcm-token-123"
	require.NoError(t, repo.UpdateDeviceToken(context.Background(), seeded.ID, &token))

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, found.DeviceToken)
	assert.Equal(t, token, *found.DeviceToken)

	require.NoError(t, repo.UpdateDeviceToken(context.Background(), seeded.ID, nil))
	found, err = repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Nil(t, found.DeviceToken)
}

func TestRepositoryTouchLastLogin(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))
	seeded := seedUser(t, repo, "maria@example.com", true)

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.TouchLastLogin(context.Background(), seeded.ID, now))

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastLoginAt)
	assert.True(t, found.LastLoginAt.Equal(now))
}

func TestRepositoryCreatePersistsInactiveFlag(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))
	seeded := seedUser(t, repo, "gone@example.com", false)

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.False(t, found.IsActive)
}

func TestRepositoryListSkipsInactive(t *testing.T) {
	repo := NewRepository(setupUsersTestDB(t))
	seedUser(t, repo, "maria@example.com", true)
	seedUser(t, repo, "lucia@example.com", true)
	seedUser(t, repo, "gone@example.com", false)

	rows, total, err := repo.List(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rows, 2)
	for _, row := range rows {
		assert.True(t, row.IsActive)
	}
}
