package service

import (
	"context"
	"encoding/json"
	"time"

	"go-gin-event-ticketing/internal/authz"
	"go-gin-event-ticketing/internal/clock"
	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/repository"
	"go-gin-event-ticketing/internal/webinar"
	apperrors "go-gin-event-ticketing/pkg/app_errors"
	"go-gin-event-ticketing/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type WebinarService interface {
	// Create 建立直播串流與直播節目並存回活動。已存在時直接回傳，不重複建立遠端資源
	Create(ctx context.Context, userID int, eventID uuid.UUID) (*model.WebinarIDs, error)
	Get(ctx context.Context, userID int, eventID uuid.UUID) (*model.WebinarIDs, error)
	ListChat(ctx context.Context, userID int, eventID uuid.UUID) (json.RawMessage, error)
	PostChat(ctx context.Context, userID int, eventID uuid.UUID, text string) (json.RawMessage, error)
}

type WebinarServiceImpl struct {
	users             repository.UserRepository
	events            repository.EventRepository
	provider          webinar.Provider
	gate              *WebinarAccessGate
	policy            *authz.Policy
	clock             clock.Clock
	broadcastDuration time.Duration
}

func NewWebinarService(
	users repository.UserRepository,
	events repository.EventRepository,
	provider webinar.Provider,
	gate *WebinarAccessGate,
	policy *authz.Policy,
	clk clock.Clock,
	broadcastDuration time.Duration,
) WebinarService {
	if broadcastDuration <= 0 {
		broadcastDuration = 2 * time.Hour
	}
	return &WebinarServiceImpl{
		users:             users,
		events:            events,
		provider:          provider,
		gate:              gate,
		policy:            policy,
		clock:             clk,
		broadcastDuration: broadcastDuration,
	}
}

func (s *WebinarServiceImpl) Create(ctx context.Context, userID int, eventID uuid.UUID) (*model.WebinarIDs, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	event, err := s.events.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(authz.SubjectOf(user), authz.ActionWebinarCreate, event); err != nil {
		return nil, err
	}
	if event.HasWebinar() {
		return webinarIDs(event), nil
	}

	token, ok := user.ProviderToken(s.clock.Now())
	if !ok {
		return nil, apperrors.ErrProviderNotLinked
	}

	log := logger.WithComponent("webinar").With(zap.String("event_id", eventID.String()))

	stream, err := s.provider.CreateLiveStream(ctx, token, webinar.StreamInput{
		Title:       event.Title,
		Description: event.Description,
	})
	if err != nil {
		log.Error("create live stream failed", zap.Error(err))
		return nil, err
	}

	broadcast, err := s.provider.CreateLiveBroadcast(ctx, token, webinar.BroadcastInput{
		Title:       event.Title,
		Description: event.Description,
		StreamID:    stream.ID,
		StartTime:   event.EventDate,
		EndTime:     event.EventDate.Add(s.broadcastDuration),
	})
	if err != nil {
		// stream 已建立但 broadcast 失敗，遠端會留下孤兒 stream
		log.Error("create live broadcast failed", zap.String("stream_id", stream.ID), zap.Error(err))
		return nil, err
	}

	updated, err := s.events.SetWebinar(ctx, eventID, model.WebinarIDs{
		VideoID:  broadcast.ID,
		StreamID: stream.ID,
		ChatID:   broadcast.Snippet.LiveChatID,
	})
	if err != nil {
		log.Error("store webinar ids failed",
			zap.String("video_id", broadcast.ID), zap.String("stream_id", stream.ID), zap.Error(err))
		return nil, err
	}
	log.Info("webinar created", zap.String("video_id", broadcast.ID))
	return webinarIDs(updated), nil
}

func (s *WebinarServiceImpl) Get(ctx context.Context, userID int, eventID uuid.UUID) (*model.WebinarIDs, error) {
	event, err := s.authorizedEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	return webinarIDs(event), nil
}

func (s *WebinarServiceImpl) ListChat(ctx context.Context, userID int, eventID uuid.UUID) (json.RawMessage, error) {
	event, token, err := s.chatAccess(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	return s.provider.ListChatMessages(ctx, token, *event.YoutubeChatID)
}

func (s *WebinarServiceImpl) PostChat(ctx context.Context, userID int, eventID uuid.UUID, text string) (json.RawMessage, error) {
	if text == "" {
		return nil, apperrors.ErrInvalidInput
	}
	event, token, err := s.chatAccess(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	return s.provider.InsertChatMessage(ctx, token, *event.YoutubeChatID, text)
}

// authorizedEvent 先過存取閘門，再確認活動已有直播
func (s *WebinarServiceImpl) authorizedEvent(ctx context.Context, userID int, eventID uuid.UUID) (*model.Event, error) {
	event, err := s.events.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(ctx, userID, event); err != nil {
		return nil, err
	}
	if !event.HasWebinar() {
		return nil, apperrors.ErrWebinarNotFound
	}
	return event, nil
}

// chatAccess 聊天室使用呼叫者自己的 provider token
func (s *WebinarServiceImpl) chatAccess(ctx context.Context, userID int, eventID uuid.UUID) (*model.Event, string, error) {
	event, err := s.authorizedEvent(ctx, userID, eventID)
	if err != nil {
		return nil, "", err
	}
	if event.YoutubeChatID == nil || *event.YoutubeChatID == "" {
		return nil, "", apperrors.ErrWebinarNotFound
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	token, ok := user.ProviderToken(s.clock.Now())
	if !ok {
		return nil, "", apperrors.ErrProviderNotLinked
	}
	return event, token, nil
}

func webinarIDs(event *model.Event) *model.WebinarIDs {
	ids := &model.WebinarIDs{}
	if event.YoutubeVideoID != nil {
		ids.VideoID = *event.YoutubeVideoID
	}
	if event.YoutubeStreamID != nil {
		ids.StreamID = *event.YoutubeStreamID
	}
	if event.YoutubeChatID != nil {
		ids.ChatID = *event.YoutubeChatID
	}
	return ids
}
