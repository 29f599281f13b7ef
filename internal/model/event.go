package model

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus 活動狀態
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// IsValid 驗證狀態是否有效
func (s EventStatus) IsValid() bool {
	switch s {
	case EventStatusDraft, EventStatusPublished, EventStatusCancelled, EventStatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s EventStatus) CanTransitionTo(target EventStatus) bool {
	transitions := map[EventStatus][]EventStatus{
		EventStatusDraft:     {EventStatusPublished, EventStatusCancelled},
		EventStatusPublished: {EventStatusCancelled, EventStatusCompleted},
		EventStatusCancelled: {},
		EventStatusCompleted: {},
	}

	for _, status := range transitions[s] {
		if status == target {
			return true
		}
	}
	return false
}

// Event 活動模型。金額一律以最小貨幣單位 (cents) 儲存
type Event struct {
	ID                  int         `json:"-" db:"id"`
	EventID             uuid.UUID   `json:"event_id" db:"event_id"`
	CreatorID           int         `json:"creator_id" db:"creator_id"`
	Title               string      `json:"title" db:"title"`
	Description         string      `json:"description" db:"description"`
	OrganizedBy         string      `json:"organized_by" db:"organized_by"`
	EventDate           time.Time   `json:"event_date" db:"event_date"`
	EventTime           string      `json:"event_time" db:"event_time"`
	Location            string      `json:"location" db:"location"`
	Image               *string     `json:"image,omitempty" db:"image"`
	TicketPrice         int64       `json:"ticket_price" db:"ticket_price"`
	MaxParticipants     int         `json:"max_participants" db:"max_participants"`
	CurrentParticipants int         `json:"current_participants" db:"current_participants"`
	SoldTickets         int         `json:"sold_tickets" db:"sold_tickets"`
	TotalRevenue        int64       `json:"total_revenue" db:"total_revenue"`
	Status              EventStatus `json:"status" db:"status"`
	Likes               int         `json:"likes" db:"likes"`
	YoutubeVideoID      *string     `json:"youtube_video_id,omitempty" db:"youtube_video_id"`
	YoutubeStreamID     *string     `json:"youtube_stream_id,omitempty" db:"youtube_stream_id"`
	YoutubeChatID       *string     `json:"youtube_chat_id,omitempty" db:"youtube_chat_id"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time   `json:"updated_at" db:"updated_at"`
}

// IsFull 檢查活動是否已額滿
func (e *Event) IsFull() bool {
	return e.SoldTickets >= e.MaxParticipants
}

// RemainingSeats 剩餘座位數
func (e *Event) RemainingSeats() int {
	if e.IsFull() {
		return 0
	}
	return e.MaxParticipants - e.SoldTickets
}

// HasWebinar reports whether a live broadcast has been attached.
func (e *Event) HasWebinar() bool {
	return e.YoutubeVideoID != nil && *e.YoutubeVideoID != ""
}

// OwnedBy implements authz.Resource.
func (e *Event) OwnedBy(userID int) bool {
	return e.CreatorID == userID
}

type CreateEventParams struct {
	CreatorID       int
	Title           string
	Description     string
	OrganizedBy     string
	EventDate       time.Time
	EventTime       string
	Location        string
	Image           *string
	TicketPrice     int64
	MaxParticipants int
}

type UpdateEventParams struct {
	Title           *string
	Description     *string
	OrganizedBy     *string
	EventDate       *time.Time
	EventTime       *string
	Location        *string
	Image           *string
	TicketPrice     *int64
	MaxParticipants *int
}

// IsEmpty 沒有任何欄位需要更新
func (p UpdateEventParams) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.OrganizedBy == nil && p.EventDate == nil &&
		p.EventTime == nil && p.Location == nil && p.Image == nil && p.TicketPrice == nil && p.MaxParticipants == nil
}

// WebinarIDs 直播相關識別碼
type WebinarIDs struct {
	VideoID  string `json:"video_id"`
	StreamID string `json:"stream_id"`
	ChatID   string `json:"chat_id"`
}

// Comment 活動留言
type Comment struct {
	ID        int       `json:"id" db:"id"`
	EventID   int       `json:"-" db:"event_id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SalesSummary 活動銷售統計 (creator 專用)
type SalesSummary struct {
	EventID         uuid.UUID `json:"event_id"`
	MaxParticipants int       `json:"total_tickets"`
	SoldTickets     int       `json:"sold_tickets"`
	RemainingSeats  int       `json:"remaining_seats"`
	TotalRevenue    int64     `json:"total_revenue"`
	TicketPrice     int64     `json:"ticket_price"`
}

// CreateEventRequest 建立活動請求
type CreateEventRequest struct {
	Title           string    `json:"title" binding:"required"`
	Description     string    `json:"description" binding:"required"`
	OrganizedBy     string    `json:"organized_by" binding:"required"`
	EventDate       time.Time `json:"event_date" binding:"required"`
	EventTime       string    `json:"event_time" binding:"required"`
	Location        string    `json:"location" binding:"required"`
	Image           *string   `json:"image"`
	TicketPrice     *int64    `json:"ticket_price" binding:"required,min=0"`
	MaxParticipants int       `json:"max_participants" binding:"required,min=1"`
}

// UpdateEventRequest 更新活動請求
type UpdateEventRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	OrganizedBy     *string    `json:"organized_by"`
	EventDate       *time.Time `json:"event_date"`
	EventTime       *string    `json:"event_time"`
	Location        *string    `json:"location"`
	Image           *string    `json:"image"`
	TicketPrice     *int64     `json:"ticket_price" binding:"omitempty,min=0"`
	MaxParticipants *int       `json:"max_participants" binding:"omitempty,min=1"`
}

type CreateCommentRequest struct {
	Text string `json:"text" binding:"required,max=2000"`
}
