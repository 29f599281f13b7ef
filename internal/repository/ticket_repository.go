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

const ticketCodeConstraint = "tickets_ticket_code_key"

type TicketRepository interface {
	// CreateForReservation 寫入票券並把 reservation 標記為 committed，兩者同一個 transaction
	CreateForReservation(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error)
	FindByCode(ctx context.Context, code string) (*model.Ticket, error)
	ListByUser(ctx context.Context, userID int) ([]*model.Ticket, error)
	ListByEvent(ctx context.Context, eventID int) ([]*model.Ticket, error)
	ListByUserAndEvent(ctx context.Context, userID int, eventID int) ([]*model.Ticket, error)

	// CAS on status = 'active'
	MarkUsed(ctx context.Context, code string, at time.Time) (*model.Ticket, error)
	MarkCancelled(ctx context.Context, code string, at time.Time) (*model.Ticket, error)
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

const ticketColumns = `t.id, t.user_id, t.event_id, e.event_id, t.reservation_id, t.ticket_code, t.name, t.email,
	t.event_name, t.event_date, t.event_time, t.ticket_price, t.is_used, t.used_at, t.purchase_date,
	t.status, t.created_at, t.updated_at`

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var t model.Ticket
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.EventID,
		&t.EventUUID,
		&t.ReservationID,
		&t.Details.TicketCode,
		&t.Details.Name,
		&t.Details.Email,
		&t.Details.EventName,
		&t.Details.EventDate,
		&t.Details.EventTime,
		&t.Details.TicketPrice,
		&t.Details.IsUsed,
		&t.Details.UsedAt,
		&t.Details.PurchaseDate,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepositoryImpl) CreateForReservation(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	d := ticket.Details
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE seat_reservations
			SET status = 'committed', updated_at = NOW()
			WHERE reservation_id = $1 AND status = 'reserved'
		`, ticket.ReservationID)
		if err != nil {
			return fmt.Errorf("commit reservation: %w", err)
		}
		if result.RowsAffected() == 0 {
			return apperrors.ErrReservationNotReserved
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO tickets (
				user_id, event_id, reservation_id, ticket_code, name, email, event_name,
				event_date, event_time, ticket_price, is_used, purchase_date, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, FALSE, $11, 'active')
			RETURNING id, status, created_at, updated_at
		`,
			ticket.UserID, ticket.EventID, ticket.ReservationID, d.TicketCode, d.Name, d.Email, d.EventName,
			d.EventDate, d.EventTime, d.TicketPrice, d.PurchaseDate,
		).Scan(&ticket.ID, &ticket.Status, &ticket.CreatedAt, &ticket.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err, ticketCodeConstraint) {
				return apperrors.ErrDuplicateTicketCode
			}
			return fmt.Errorf("insert ticket: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ticket.Details.IsUsed = false
	ticket.Details.UsedAt = nil
	return ticket, nil
}

func (r *TicketRepositoryImpl) FindByCode(ctx context.Context, code string) (*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets t JOIN events e ON e.id = t.event_id
		WHERE t.ticket_code = $1`

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (r *TicketRepositoryImpl) ListByUser(ctx context.Context, userID int) ([]*model.Ticket, error) {
	return r.list(ctx, `WHERE t.user_id = $1`, userID)
}

func (r *TicketRepositoryImpl) ListByEvent(ctx context.Context, eventID int) ([]*model.Ticket, error) {
	return r.list(ctx, `WHERE t.event_id = $1`, eventID)
}

func (r *TicketRepositoryImpl) ListByUserAndEvent(ctx context.Context, userID int, eventID int) ([]*model.Ticket, error) {
	return r.list(ctx, `WHERE t.user_id = $1 AND t.event_id = $2`, userID, eventID)
}

func (r *TicketRepositoryImpl) list(ctx context.Context, where string, args ...interface{}) ([]*model.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets t JOIN events e ON e.id = t.event_id
		` + where + `
		ORDER BY t.purchase_date DESC, t.id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*model.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// MarkUsed 核銷：只有 active 的票能成功，併發兩次只有一次拿到 row
func (r *TicketRepositoryImpl) MarkUsed(ctx context.Context, code string, at time.Time) (*model.Ticket, error) {
	query := `
		UPDATE tickets t
		SET status = 'used', is_used = TRUE, used_at = $2, updated_at = $2
		FROM events e
		WHERE t.ticket_code = $1 AND t.status = 'active' AND e.id = t.event_id
		RETURNING ` + ticketColumns

	return r.transition(ctx, query, code, at)
}

func (r *TicketRepositoryImpl) MarkCancelled(ctx context.Context, code string, at time.Time) (*model.Ticket, error) {
	query := `
		UPDATE tickets t
		SET status = 'cancelled', updated_at = $2
		FROM events e
		WHERE t.ticket_code = $1 AND t.status = 'active' AND e.id = t.event_id
		RETURNING ` + ticketColumns

	return r.transition(ctx, query, code, at)
}

func (r *TicketRepositoryImpl) transition(ctx context.Context, query string, code string, at time.Time) (*model.Ticket, error) {
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, code, at))
	if err == nil {
		return ticket, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update ticket status: %w", err)
	}
	if _, findErr := r.FindByCode(ctx, code); findErr != nil {
		return nil, findErr
	}
	return nil, apperrors.ErrTicketNotActive
}
