package repository_test

import (
	"context"
	"testing"
	"time"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/repository"
	"go-gin-event-ticketing/internal/testutil"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create(t *testing.T) {
	repo := repository.NewUserRepository(testutil.SetupDatabase(t))
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		created, err := repo.Create(ctx, &model.User{Name: "Test User", Email: "test@example.com"})

		require.NoError(t, err)
		assert.NotZero(t, created.ID)
		assert.Equal(t, "Test User", created.Name)
		assert.Equal(t, model.RoleAttendee, created.Role)
		assert.NotZero(t, created.CreatedAt)
		assert.NotZero(t, created.UpdatedAt)
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, err := repo.Create(ctx, &model.User{Name: "Again", Email: "test@example.com"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestUserRepository_FindByID(t *testing.T) {
	repo := repository.NewUserRepository(testutil.SetupDatabase(t))
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		user := testutil.CreateUser(t, repo, "creator", model.RoleCreator)

		found, err := repo.FindByID(ctx, user.ID)

		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.Equal(t, model.RoleCreator, found.Role)
		assert.Nil(t, found.YoutubeAccessToken)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := repo.FindByID(ctx, 99999)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}

func TestUserRepository_SetProviderToken(t *testing.T) {
	repo := repository.NewUserRepository(testutil.SetupDatabase(t))
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		user := testutil.CreateUser(t, repo, "streamer", model.RoleCreator)
		expiry := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)

		require.NoError(t, repo.SetProviderToken(ctx, user.ID, "ya29.token", &expiry))

		found, err := repo.FindByID(ctx, user.ID)
		require.NoError(t, err)
		token, ok := found.ProviderToken(time.Now())
		assert.True(t, ok)
		assert.Equal(t, "ya29.token", token)
		require.NotNil(t, found.YoutubeTokenExpiry)
		assert.True(t, expiry.Equal(*found.YoutubeTokenExpiry))
	})

	t.Run("NotFound", func(t *testing.T) {
		err := repo.SetProviderToken(ctx, 99999, "ya29.token", nil)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}

func TestUserRepository_Counts(t *testing.T) {
	pool := testutil.SetupDatabase(t)
	users := repository.NewUserRepository(pool)
	events := repository.NewEventRepository(pool)
	ctx := context.Background()

	creator := testutil.CreateUser(t, users, "creator", model.RoleCreator)
	testutil.CreatePublishedEvent(t, events, creator.ID, 10, 100)
	testutil.CreatePublishedEvent(t, events, creator.ID, 10, 100)

	created, err := users.CountCreatedEvents(ctx, creator.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	purchased, err := users.CountPurchasedTickets(ctx, creator.ID)
	require.NoError(t, err)
	assert.Zero(t, purchased)
}
