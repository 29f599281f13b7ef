package model

import (
	"time"

	"github.com/google/uuid"
)

// ReservationStatus 座位預留狀態
type ReservationStatus string

const (
	ReservationStatusReserved  ReservationStatus = "reserved"
	ReservationStatusCommitted ReservationStatus = "committed"
	ReservationStatusReleased  ReservationStatus = "released"
)

// Reservation is the token returned by a successful capacity reservation. It is
// committed together with the ticket insert or released by compensation.
type Reservation struct {
	ID         uuid.UUID         `json:"reservation_id"`
	EventID    int               `json:"-"`
	EventUUID  uuid.UUID         `json:"event_id"`
	Price      int64             `json:"price"`
	Status     ReservationStatus `json:"status"`
	ReservedAt time.Time         `json:"reserved_at"`

	// Event 為預留成功後（計數已遞增）的活動快照
	Event *Event `json:"-"`
	// Admitted 表示 Redis 入場閘門已扣減，釋放時需一併歸還
	Admitted bool `json:"-"`
}

// ReleaseTask 補償釋放任務，發送到 release queue
type ReleaseTask struct {
	ReservationID uuid.UUID `json:"reservation_id"`
	EventUUID     uuid.UUID `json:"event_id"`
	Admitted      bool      `json:"admitted"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}
