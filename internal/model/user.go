package model

import "time"

// Role 使用者角色
type Role string

const (
	RoleCreator  Role = "creator"
	RoleAttendee Role = "attendee"
)

func (r Role) IsValid() bool {
	return r == RoleCreator || r == RoleAttendee
}

// User 使用者模型
type User struct {
	ID                 int        `json:"id" db:"id"`
	Name               string     `json:"name" db:"name"`
	Email              string     `json:"email" db:"email"`
	Role               Role       `json:"role" db:"role"`
	YoutubeAccessToken *string    `json:"-" db:"youtube_access_token"`
	YoutubeTokenExpiry *time.Time `json:"-" db:"youtube_token_expiry"`
	YoutubeChannelID   *string    `json:"youtube_channel_id,omitempty" db:"youtube_channel_id"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// ProviderToken 回傳尚未過期的 provider access token
func (u *User) ProviderToken(now time.Time) (string, bool) {
	if u.YoutubeAccessToken == nil || *u.YoutubeAccessToken == "" {
		return "", false
	}
	if u.YoutubeTokenExpiry != nil && !u.YoutubeTokenExpiry.After(now) {
		return "", false
	}
	return *u.YoutubeAccessToken, true
}

// UserProfile 顯示用，不具權威性；計數以 events / tickets 為準
type UserProfile struct {
	User
	CreatedEvents    int `json:"created_events"`
	PurchasedTickets int `json:"purchased_tickets"`
}
