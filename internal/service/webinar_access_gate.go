package service

import (
	"context"
	"fmt"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/repository"
	apperrors "go-gin-event-ticketing/pkg/app_errors"
)

// AccessPolicy 持票者在哪種票券狀態下可以進入直播
type AccessPolicy string

const (
	// AccessPolicyUnused 票券尚未被使用（is_used = false）即可進入，不看 status
	AccessPolicyUnused AccessPolicy = "unused"
	// AccessPolicyActive 以 Validate 的結果為準
	AccessPolicyActive AccessPolicy = "active"
	// AccessPolicyRedeemed 已完成入場核銷才可進入
	AccessPolicyRedeemed AccessPolicy = "redeemed"
)

func ParseAccessPolicy(raw string) (AccessPolicy, error) {
	switch p := AccessPolicy(raw); p {
	case AccessPolicyUnused, AccessPolicyActive, AccessPolicyRedeemed:
		return p, nil
	case "":
		return AccessPolicyUnused, nil
	default:
		return "", fmt.Errorf("unknown webinar access policy %q", raw)
	}
}

func (p AccessPolicy) allows(r *model.ValidationResult) bool {
	switch p {
	case AccessPolicyActive:
		return r.Valid
	case AccessPolicyRedeemed:
		return r.Ticket.Status == model.TicketStatusUsed
	default:
		return !r.Ticket.Details.IsUsed
	}
}

// WebinarAccessGate 每次請求都重新判斷，不快取，票券可能在兩次請求之間被核銷
type WebinarAccessGate struct {
	tickets   repository.TicketRepository
	validator *TicketValidator
	policy    AccessPolicy
}

func NewWebinarAccessGate(tickets repository.TicketRepository, validator *TicketValidator, policy AccessPolicy) *WebinarAccessGate {
	if policy == "" {
		policy = AccessPolicyUnused
	}
	return &WebinarAccessGate{tickets: tickets, validator: validator, policy: policy}
}

// Authorize 活動建立者直接放行；其他人需持有該活動且符合 policy 的票券
func (g *WebinarAccessGate) Authorize(ctx context.Context, userID int, event *model.Event) error {
	if userID == 0 {
		return apperrors.ErrUnauthorized
	}
	if event.OwnedBy(userID) {
		return nil
	}

	owned, err := g.tickets.ListByUserAndEvent(ctx, userID, event.ID)
	if err != nil {
		return err
	}
	for _, t := range owned {
		result, err := g.validator.Validate(ctx, t.Details.TicketCode)
		if err != nil {
			return err
		}
		if g.policy.allows(result) {
			return nil
		}
	}
	return fmt.Errorf("webinar %s: %w", event.EventID, apperrors.ErrForbidden)
}
