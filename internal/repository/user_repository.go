package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-gin-event-ticketing/internal/model"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	FindByID(ctx context.Context, id int) (*model.User, error)
	SetProviderToken(ctx context.Context, id int, token string, expiry *time.Time) error
	CountCreatedEvents(ctx context.Context, id int) (int, error)
	CountPurchasedTickets(ctx context.Context, id int) (int, error)
}

type UserRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &UserRepositoryImpl{
		pool: pool,
	}
}

const userColumns = `id, name, email, role, youtube_access_token, youtube_token_expiry, youtube_channel_id,
	created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.YoutubeAccessToken,
		&user.YoutubeTokenExpiry,
		&user.YoutubeChannelID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *model.User) (*model.User, error) {
	if user.Role == "" {
		user.Role = model.RoleAttendee
	}
	query := `
		INSERT INTO users (name, email, role, youtube_access_token, youtube_token_expiry, youtube_channel_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	created, err := scanUser(r.pool.QueryRow(ctx, query,
		user.Name, user.Email, user.Role, user.YoutubeAccessToken, user.YoutubeTokenExpiry, user.YoutubeChannelID,
	))
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, apperrors.ErrInvalidInput
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return created, nil
}

func (r *UserRepositoryImpl) FindByID(ctx context.Context, id int) (*model.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepositoryImpl) SetProviderToken(ctx context.Context, id int, token string, expiry *time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users
		SET youtube_access_token = $1, youtube_token_expiry = $2, updated_at = NOW()
		WHERE id = $3
	`, token, expiry, id)
	if err != nil {
		return fmt.Errorf("failed to store provider token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepositoryImpl) CountCreatedEvents(ctx context.Context, id int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events WHERE creator_id = $1`, id).Scan(&n)
	return n, err
}

func (r *UserRepositoryImpl) CountPurchasedTickets(ctx context.Context, id int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE user_id = $1`, id).Scan(&n)
	return n, err
}
