package model

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus 票券狀態類型
type TicketStatus string

const (
	TicketStatusActive    TicketStatus = "active"
	TicketStatusUsed      TicketStatus = "used"
	TicketStatusCancelled TicketStatus = "cancelled"
)

// CanTransitionTo 檢查是否可以轉換到目標狀態。used 與 cancelled 為終態
func (s TicketStatus) CanTransitionTo(target TicketStatus) bool {
	transitions := map[TicketStatus][]TicketStatus{
		TicketStatusActive:    {TicketStatusUsed, TicketStatusCancelled},
		TicketStatusUsed:      {},
		TicketStatusCancelled: {},
	}

	for _, status := range transitions[s] {
		if status == target {
			return true
		}
	}
	return false
}

// TicketDetails is the purchase-time snapshot. It is written once at issuance and
// never follows later edits of the event or the buyer.
type TicketDetails struct {
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	EventName    string     `json:"event_name"`
	EventDate    time.Time  `json:"event_date"`
	EventTime    string     `json:"event_time"`
	TicketPrice  int64      `json:"ticket_price"`
	TicketCode   string     `json:"ticket_code"`
	IsUsed       bool       `json:"is_used"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
	PurchaseDate time.Time  `json:"purchase_date"`
}

// Ticket 票券模型
type Ticket struct {
	ID            int           `json:"id" db:"id"`
	UserID        int           `json:"user_id" db:"user_id"`
	EventID       int           `json:"-" db:"event_id"`
	EventUUID     uuid.UUID     `json:"event_id" db:"event_uuid"`
	ReservationID uuid.UUID     `json:"-" db:"reservation_id"`
	Details       TicketDetails `json:"ticket_details"`
	Status        TicketStatus  `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// IsValid 票券是否仍可使用
func (t *Ticket) IsValid() bool {
	return t.Status == TicketStatusActive && !t.Details.IsUsed
}

// OwnedBy implements authz.Resource.
func (t *Ticket) OwnedBy(userID int) bool {
	return t.UserID == userID
}

// ValidationResult validate 的唯讀結果
type ValidationResult struct {
	Valid  bool    `json:"valid"`
	Ticket *Ticket `json:"ticket"`
}

// TicketEventType 票券生命週期事件
type TicketEventType string

const (
	TicketEventIssued    TicketEventType = "ticket.issued"
	TicketEventUsed      TicketEventType = "ticket.used"
	TicketEventCancelled TicketEventType = "ticket.cancelled"
)

// TicketEvent is the payload published to the ticket event stream.
type TicketEvent struct {
	Type        TicketEventType `json:"type"`
	TicketCode  string          `json:"ticket_code"`
	TicketID    int             `json:"ticket_id"`
	UserID      int             `json:"user_id"`
	EventID     uuid.UUID       `json:"event_id"`
	TicketPrice int64           `json:"ticket_price"`
	Status      TicketStatus    `json:"status"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// NewTicketEvent 由票券建立事件
func NewTicketEvent(eventType TicketEventType, ticket *Ticket, at time.Time) TicketEvent {
	return TicketEvent{
		Type:        eventType,
		TicketCode:  ticket.Details.TicketCode,
		TicketID:    ticket.ID,
		UserID:      ticket.UserID,
		EventID:     ticket.EventUUID,
		TicketPrice: ticket.Details.TicketPrice,
		Status:      ticket.Status,
		OccurredAt:  at,
	}
}
