// Package authz centralizes role and ownership checks. Handlers and services ask
// "can this subject perform this action on this resource" instead of comparing
// roles or owner ids inline.
package authz

import (
	"fmt"

	"go-gin-event-ticketing/internal/model"
	apperrors "go-gin-event-ticketing/pkg/app_errors"
)

type Action string

const (
	ActionEventCreate      Action = "event:create"
	ActionEventManage      Action = "event:manage"
	ActionEventViewTickets Action = "event:view-tickets"
	ActionEventViewSales   Action = "event:view-sales"
	ActionWebinarCreate    Action = "webinar:create"
	ActionTicketCancel     Action = "ticket:cancel"
)

// Subject 發起請求的身分
type Subject struct {
	UserID int
	Role   model.Role
}

func SubjectOf(user *model.User) Subject {
	return Subject{UserID: user.ID, Role: user.Role}
}

// Resource 可判斷擁有者的資源，nil 表示與特定資源無關
type Resource interface {
	OwnedBy(userID int) bool
}

// TicketOnEvent 取消票券時同時考慮票券持有者與活動擁有者
type TicketOnEvent struct {
	Ticket *model.Ticket
	Event  *model.Event
}

func (r TicketOnEvent) OwnedBy(userID int) bool {
	return (r.Ticket != nil && r.Ticket.OwnedBy(userID)) || (r.Event != nil && r.Event.OwnedBy(userID))
}

type rule func(s Subject, r Resource) bool

func isCreator(s Subject, _ Resource) bool {
	return s.Role == model.RoleCreator
}

func isOwner(s Subject, r Resource) bool {
	return r != nil && r.OwnedBy(s.UserID)
}

type Policy struct {
	rules map[Action]rule
}

func NewPolicy() *Policy {
	return &Policy{
		rules: map[Action]rule{
			ActionEventCreate:      isCreator,
			ActionEventManage:      isOwner,
			ActionEventViewTickets: isOwner,
			ActionEventViewSales:   isOwner,
			ActionWebinarCreate:    isOwner,
			ActionTicketCancel:     isOwner,
		},
	}
}

// Can 未知的 action 一律拒絕
func (p *Policy) Can(s Subject, action Action, r Resource) bool {
	if s.UserID == 0 {
		return false
	}
	allow, ok := p.rules[action]
	if !ok {
		return false
	}
	return allow(s, r)
}

// Authorize 拒絕時回傳包裝過的 ErrForbidden
func (p *Policy) Authorize(s Subject, action Action, r Resource) error {
	if p.Can(s, action, r) {
		return nil
	}
	return fmt.Errorf("%s: %w", action, apperrors.ErrForbidden)
}
