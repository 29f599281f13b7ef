package authz_test

import (
	"testing"

	"go-gin-event-ticketing/internal/authz"
	"go-gin-event-ticketing/internal/model"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Can(t *testing.T) {
	policy := authz.NewPolicy()
	creator := authz.Subject{UserID: 1, Role: model.RoleCreator}
	otherCreator := authz.Subject{UserID: 2, Role: model.RoleCreator}
	attendee := authz.Subject{UserID: 3, Role: model.RoleAttendee}
	event := &model.Event{CreatorID: 1}
	ticket := &model.Ticket{UserID: 3}

	tests := []struct {
		name    string
		subject authz.Subject
		action  authz.Action
		res     authz.Resource
		want    bool
	}{
		{"creator role can create events", creator, authz.ActionEventCreate, nil, true},
		{"attendee cannot create events", attendee, authz.ActionEventCreate, nil, false},
		{"owner views tickets", creator, authz.ActionEventViewTickets, event, true},
		{"other creator cannot view tickets", otherCreator, authz.ActionEventViewTickets, event, false},
		{"owner views sales", creator, authz.ActionEventViewSales, event, true},
		{"attendee cannot create webinar", attendee, authz.ActionWebinarCreate, event, false},
		{"ticket holder cancels", attendee, authz.ActionTicketCancel, authz.TicketOnEvent{Ticket: ticket, Event: event}, true},
		{"event owner cancels", creator, authz.ActionTicketCancel, authz.TicketOnEvent{Ticket: ticket, Event: event}, true},
		{"stranger cannot cancel", otherCreator, authz.ActionTicketCancel, authz.TicketOnEvent{Ticket: ticket, Event: event}, false},
		{"nil resource is never owned", creator, authz.ActionEventManage, nil, false},
		{"unknown action is denied", creator, authz.Action("event:explode"), event, false},
		{"anonymous is denied", authz.Subject{}, authz.ActionEventCreate, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Can(tt.subject, tt.action, tt.res))
		})
	}
}

func TestPolicy_Authorize(t *testing.T) {
	policy := authz.NewPolicy()
	err := policy.Authorize(authz.Subject{UserID: 9, Role: model.RoleAttendee}, authz.ActionEventManage, &model.Event{CreatorID: 1})

	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}
