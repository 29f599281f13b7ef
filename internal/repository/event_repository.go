package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-gin-event-ticketing/internal/model"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository interface {
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	List(ctx context.Context, limit, offset int) ([]*model.Event, error)
	FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	Update(ctx context.Context, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error)
	UpdateStatus(ctx context.Context, eventID uuid.UUID, from, to model.EventStatus) (*model.Event, error)
	Delete(ctx context.Context, eventID uuid.UUID) error
	SetWebinar(ctx context.Context, eventID uuid.UUID, ids model.WebinarIDs) (*model.Event, error)
	IncrementLikes(ctx context.Context, eventID uuid.UUID) (int, error)
	AddComment(ctx context.Context, eventID int, userID int, text string) (*model.Comment, error)
	ListComments(ctx context.Context, eventID int, limit, offset int) ([]*model.Comment, error)

	// Capacity gate
	ReserveSeat(ctx context.Context, eventID uuid.UUID, reservationID uuid.UUID, now time.Time) (*model.Reservation, error)
	ReleaseSeat(ctx context.Context, reservationID uuid.UUID) (bool, error)
	ListStaleReservations(ctx context.Context, before time.Time, limit int) ([]*model.Reservation, error)
}

type EventRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &EventRepositoryImpl{
		pool: pool,
	}
}

const eventColumns = `id, event_id, creator_id, title, description, organized_by, event_date, event_time,
	location, image, ticket_price, max_participants, current_participants, sold_tickets, total_revenue,
	status, likes, youtube_video_id, youtube_stream_id, youtube_chat_id, created_at, updated_at`

func scanEvent(row pgx.Row) (*model.Event, error) {
	var event model.Event
	err := row.Scan(
		&event.ID,
		&event.EventID,
		&event.CreatorID,
		&event.Title,
		&event.Description,
		&event.OrganizedBy,
		&event.EventDate,
		&event.EventTime,
		&event.Location,
		&event.Image,
		&event.TicketPrice,
		&event.MaxParticipants,
		&event.CurrentParticipants,
		&event.SoldTickets,
		&event.TotalRevenue,
		&event.Status,
		&event.Likes,
		&event.YoutubeVideoID,
		&event.YoutubeStreamID,
		&event.YoutubeChatID,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *EventRepositoryImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.Status == "" {
		event.Status = model.EventStatusDraft
	}

	query := `
		INSERT INTO events (
			event_id, creator_id, title, description, organized_by, event_date, event_time,
			location, image, ticket_price, max_participants, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + eventColumns

	created, err := scanEvent(r.pool.QueryRow(ctx, query,
		event.EventID, event.CreatorID, event.Title, event.Description, event.OrganizedBy,
		event.EventDate, event.EventTime, event.Location, event.Image,
		event.TicketPrice, event.MaxParticipants, event.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return created, nil
}

func (r *EventRepositoryImpl) List(ctx context.Context, limit, offset int) ([]*model.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		ORDER BY event_date ASC, id ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*model.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (r *EventRepositoryImpl) FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE event_id = $1`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

// Update 部分更新。票價只能在 draft 時修改，容量不可低於已售出數，兩者都寫在 WHERE 條件裡
func (r *EventRepositoryImpl) Update(ctx context.Context, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	sets := []string{}
	args := []interface{}{}
	argPos := 1

	add := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if params.Title != nil {
		add("title", *params.Title)
	}
	if params.Description != nil {
		add("description", *params.Description)
	}
	if params.OrganizedBy != nil {
		add("organized_by", *params.OrganizedBy)
	}
	if params.EventDate != nil {
		add("event_date", *params.EventDate)
	}
	if params.EventTime != nil {
		add("event_time", *params.EventTime)
	}
	if params.Location != nil {
		add("location", *params.Location)
	}
	if params.Image != nil {
		add("image", *params.Image)
	}
	if params.TicketPrice != nil {
		add("ticket_price", *params.TicketPrice)
	}
	if params.MaxParticipants != nil {
		add("max_participants", *params.MaxParticipants)
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	add("updated_at", time.Now().UTC())

	conds := []string{fmt.Sprintf("event_id = $%d", argPos)}
	args = append(args, eventID)
	argPos++
	if params.TicketPrice != nil {
		conds = append(conds, "status = 'draft'")
	}
	if params.MaxParticipants != nil {
		conds = append(conds, fmt.Sprintf("sold_tickets <= $%d", argPos))
		args = append(args, *params.MaxParticipants)
	}

	query := fmt.Sprintf(`
		UPDATE events
		SET %s
		WHERE %s
		RETURNING %s
	`, strings.Join(sets, ", "), strings.Join(conds, " AND "), eventColumns)

	event, err := scanEvent(r.pool.QueryRow(ctx, query, args...))
	if err == nil {
		return event, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	// 條件不成立，判斷原因
	current, findErr := r.FindByEventID(ctx, eventID)
	if findErr != nil {
		return nil, findErr
	}
	if params.TicketPrice != nil && current.Status != model.EventStatusDraft {
		return nil, apperrors.ErrPriceLocked
	}
	return nil, apperrors.ErrCapacityBelowSold
}

// UpdateStatus compare-and-set on status.
func (r *EventRepositoryImpl) UpdateStatus(ctx context.Context, eventID uuid.UUID, from, to model.EventStatus) (*model.Event, error) {
	query := `
		UPDATE events
		SET status = $1, updated_at = NOW()
		WHERE event_id = $2 AND status = $3
		RETURNING ` + eventColumns

	event, err := scanEvent(r.pool.QueryRow(ctx, query, to, eventID, from))
	if err == nil {
		return event, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update event status: %w", err)
	}
	if _, findErr := r.FindByEventID(ctx, eventID); findErr != nil {
		return nil, findErr
	}
	return nil, apperrors.ErrInvalidStatusTransition
}

func (r *EventRepositoryImpl) Delete(ctx context.Context, eventID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM events WHERE event_id = $1 AND sold_tickets = 0`, eventID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if result.RowsAffected() == 0 {
		if _, findErr := r.FindByEventID(ctx, eventID); findErr != nil {
			return findErr
		}
		return apperrors.ErrEventHasTickets
	}
	return nil
}

func (r *EventRepositoryImpl) SetWebinar(ctx context.Context, eventID uuid.UUID, ids model.WebinarIDs) (*model.Event, error) {
	query := `
		UPDATE events
		SET youtube_video_id = $1, youtube_stream_id = $2, youtube_chat_id = $3, updated_at = NOW()
		WHERE event_id = $4
		RETURNING ` + eventColumns

	event, err := scanEvent(r.pool.QueryRow(ctx, query, ids.VideoID, ids.StreamID, ids.ChatID, eventID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to store webinar ids: %w", err)
	}
	return event, nil
}

func (r *EventRepositoryImpl) IncrementLikes(ctx context.Context, eventID uuid.UUID) (int, error) {
	var likes int
	err := r.pool.QueryRow(ctx,
		`UPDATE events SET likes = likes + 1 WHERE event_id = $1 RETURNING likes`, eventID,
	).Scan(&likes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, apperrors.ErrEventNotFound
		}
		return 0, err
	}
	return likes, nil
}

func (r *EventRepositoryImpl) AddComment(ctx context.Context, eventID int, userID int, text string) (*model.Comment, error) {
	query := `
		INSERT INTO event_comments (event_id, user_id, text)
		VALUES ($1, $2, $3)
		RETURNING id, event_id, user_id, text, created_at
	`
	var comment model.Comment
	err := r.pool.QueryRow(ctx, query, eventID, userID, text).Scan(
		&comment.ID,
		&comment.EventID,
		&comment.UserID,
		&comment.Text,
		&comment.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return &comment, nil
}

func (r *EventRepositoryImpl) ListComments(ctx context.Context, eventID int, limit, offset int) ([]*model.Comment, error) {
	query := `
		SELECT id, event_id, user_id, text, created_at
		FROM event_comments
		WHERE event_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, eventID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.EventID, &c.UserID, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

// ReserveSeat 是唯一的容量閘門：單一 statement 內做條件遞增並寫入 reservation token。
// 併發時 UPDATE 會在 row lock 釋放後重新檢查 WHERE，因此 sold_tickets 不會超過 max_participants。
func (r *EventRepositoryImpl) ReserveSeat(ctx context.Context, eventID uuid.UUID, reservationID uuid.UUID, now time.Time) (*model.Reservation, error) {
	query := `
		WITH reserved AS (
			UPDATE events
			SET sold_tickets = sold_tickets + 1,
				current_participants = current_participants + 1,
				total_revenue = total_revenue + ticket_price,
				updated_at = $3
			WHERE event_id = $1
				AND status = 'published'
				AND event_date > $3
				AND sold_tickets < max_participants
			RETURNING ` + eventColumns + `
		), token AS (
			INSERT INTO seat_reservations (reservation_id, event_id, price, status, created_at, updated_at)
			SELECT $2, id, ticket_price, 'reserved', $3, $3 FROM reserved
		)
		SELECT ` + eventColumns + ` FROM reserved
	`

	event, err := scanEvent(r.pool.QueryRow(ctx, query, eventID, reservationID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.classifyUnavailable(ctx, eventID, now)
		}
		return nil, err
	}

	return &model.Reservation{
		ID:         reservationID,
		EventID:    event.ID,
		EventUUID:  event.EventID,
		Price:      event.TicketPrice,
		Status:     model.ReservationStatusReserved,
		ReservedAt: now,
		Event:      event,
	}, nil
}

// classifyUnavailable 已過期優先於售罄
func (r *EventRepositoryImpl) classifyUnavailable(ctx context.Context, eventID uuid.UUID, now time.Time) error {
	event, err := r.FindByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Status != model.EventStatusPublished || !event.EventDate.After(now) {
		return apperrors.ErrEventNotAvailable
	}
	if event.IsFull() {
		return apperrors.ErrEventSoldOut
	}
	return apperrors.ErrEventNotAvailable
}

// ReleaseSeat 補償：reserved -> released 並扣回計數。重複呼叫不會重複扣回
func (r *EventRepositoryImpl) ReleaseSeat(ctx context.Context, reservationID uuid.UUID) (bool, error) {
	query := `
		WITH released AS (
			UPDATE seat_reservations
			SET status = 'released', updated_at = NOW()
			WHERE reservation_id = $1 AND status = 'reserved'
			RETURNING event_id, price
		)
		UPDATE events e
		SET sold_tickets = e.sold_tickets - 1,
			current_participants = e.current_participants - 1,
			total_revenue = e.total_revenue - r.price,
			updated_at = NOW()
		FROM released r
		WHERE e.id = r.event_id
	`
	result, err := r.pool.Exec(ctx, query, reservationID)
	if err != nil {
		return false, fmt.Errorf("failed to release seat: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

func (r *EventRepositoryImpl) ListStaleReservations(ctx context.Context, before time.Time, limit int) ([]*model.Reservation, error) {
	query := `
		SELECT r.reservation_id, r.event_id, e.event_id, r.price, r.status, r.created_at
		FROM seat_reservations r
		JOIN events e ON e.id = r.event_id
		WHERE r.status = 'reserved' AND r.created_at < $1
		ORDER BY r.created_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, before, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reservations := make([]*model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(&res.ID, &res.EventID, &res.EventUUID, &res.Price, &res.Status, &res.ReservedAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, &res)
	}
	return reservations, rows.Err()
}
