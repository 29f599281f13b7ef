package service

import (
	"context"
	"strings"
	"time"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/repository"
	apperrors "go-gin-event-ticketing/pkg/app_errors"
)

type UserService interface {
	Me(ctx context.Context, userID int) (*model.UserProfile, error)
	// LinkProvider 儲存直播平台的 access token（OAuth 流程不在此處理）
	LinkProvider(ctx context.Context, userID int, token string, expiry *time.Time) error
}

type UserServiceImpl struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &UserServiceImpl{repo: repo}
}

func (s *UserServiceImpl) Me(ctx context.Context, userID int) (*model.UserProfile, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.CountCreatedEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	purchased, err := s.repo.CountPurchasedTickets(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.UserProfile{User: *user, CreatedEvents: created, PurchasedTickets: purchased}, nil
}

func (s *UserServiceImpl) LinkProvider(ctx context.Context, userID int, token string, expiry *time.Time) error {
	if strings.TrimSpace(token) == "" {
		return apperrors.ErrInvalidInput
	}
	return s.repo.SetProviderToken(ctx, userID, token, expiry)
}
