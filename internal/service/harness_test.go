package service_test

import (
	"context"
	"testing"
	"time"

	"go-gin-event-ticketing/internal/authz"
	"go-gin-event-ticketing/internal/clock"
	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/queue"
	"go-gin-event-ticketing/internal/service"
	"go-gin-event-ticketing/internal/testutil"
)

type harness struct {
	store     *testutil.MemStore
	inventory *testutil.MemInventory
	publisher *testutil.RecordingPublisher
	releases  queue.ReleaseQueue
	clock     *clock.Manual
	policy    *authz.Policy

	capacity  service.CapacityManager
	issuer    *service.TicketIssuer
	validator *service.TicketValidator
	gate      *service.WebinarAccessGate
	tickets   service.TicketService
	events    service.EventService
}

type harnessOption func(*harnessOptions)

type harnessOptions struct {
	noInventory bool
	policy      service.AccessPolicy
	codes       service.TicketCodeGenerator
}

func withoutInventory() harnessOption {
	return func(o *harnessOptions) { o.noInventory = true }
}

func withAccessPolicy(p service.AccessPolicy) harnessOption {
	return func(o *harnessOptions) { o.policy = p }
}

func withCodes(g service.TicketCodeGenerator) harnessOption {
	return func(o *harnessOptions) { o.codes = g }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	o := harnessOptions{policy: service.AccessPolicyUnused, codes: service.NewTicketCodeGenerator()}
	for _, opt := range opts {
		opt(&o)
	}

	h := &harness{
		store:     testutil.NewMemStore(),
		publisher: &testutil.RecordingPublisher{},
		releases:  queue.NewMemoryReleaseQueue(16, 3),
		clock:     clock.NewManual(time.Now()),
		policy:    authz.NewPolicy(),
	}
	users, events, tickets := h.store.Users(), h.store.Events(), h.store.Tickets()

	if !o.noInventory {
		h.inventory = testutil.NewMemInventory()
		h.capacity = service.NewCapacityManager(events, h.inventory, h.clock)
		h.events = service.NewEventService(users, events, h.inventory, h.policy)
	} else {
		h.capacity = service.NewCapacityManager(events, nil, h.clock)
		h.events = service.NewEventService(users, events, nil, h.policy)
	}

	compensator := service.NewCompensator(h.capacity, h.releases, h.clock, service.CompensatorConfig{
		MaxTries:        3,
		MaxElapsed:      200 * time.Millisecond,
		InitialInterval: time.Millisecond,
	})
	h.issuer = service.NewTicketIssuer(users, tickets, h.capacity, o.codes, compensator, h.publisher, h.clock)
	h.validator = service.NewTicketValidator(tickets, h.publisher, h.clock)
	h.gate = service.NewWebinarAccessGate(tickets, h.validator, o.policy)
	h.tickets = service.NewTicketService(users, events, tickets, h.issuer, h.validator, h.policy)
	return h
}

func (h *harness) user(t *testing.T, name string, role model.Role) *model.User {
	t.Helper()
	return testutil.CreateUser(t, h.store.Users(), name, role)
}

// publishedEvent 建立已發佈的活動並預熱入場閘門
func (h *harness) publishedEvent(t *testing.T, creatorID int, capacity int, price int64) *model.Event {
	t.Helper()
	e := testutil.CreatePublishedEvent(t, h.store.Events(), creatorID, capacity, price)
	if h.inventory != nil {
		if err := h.inventory.WarmUp(context.Background(), e.EventID, e.RemainingSeats()); err != nil {
			t.Fatalf("warm up: %v", err)
		}
	}
	return e
}

func (h *harness) event(t *testing.T, e *model.Event) *model.Event {
	t.Helper()
	got, err := h.store.Events().FindByEventID(context.Background(), e.EventID)
	if err != nil {
		t.Fatalf("find event: %v", err)
	}
	return got
}
