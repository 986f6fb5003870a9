package events

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/complaint-service/internal/domain"
)

func TestDispatcherRoutesByType(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var assigned, escalated int
	dispatcher.Subscribe(EventComplaintAssigned, func(context.Context, Event) error {
		assigned++
		return nil
	})
	dispatcher.Subscribe(EventComplaintEscalated, func(context.Context, Event) error {
		escalated++
		return nil
	})

	_ = dispatcher.Publish(context.Background(), Event{Type: EventComplaintAssigned, ComplaintID: "c1"})
	_ = dispatcher.Publish(context.Background(), Event{Type: EventComplaintAssigned, ComplaintID: "c2"})

	if assigned != 2 {
		t.Fatalf("expected 2 assigned deliveries, got %d", assigned)
	}
	if escalated != 0 {
		t.Fatalf("escalated handler fired %d times for assigned events", escalated)
	}
}

func TestDispatcherSwallowsHandlerErrors(t *testing.T) {
	dispatcher := NewInMemoryDispatcher()

	var second bool
	dispatcher.Subscribe(EventComplaintRated, func(context.Context, Event) error {
		return errors.New("handler exploded")
	})
	dispatcher.Subscribe(EventComplaintRated, func(context.Context, Event) error {
		second = true
		return nil
	})

	err := dispatcher.Publish(context.Background(), Event{
		Type:  EventComplaintRated,
		Actor: domain.SystemActor(),
	})
	if err != nil {
		t.Fatalf("publish must not surface handler errors: %v", err)
	}
	if !second {
		t.Fatal("later handler skipped after earlier handler error")
	}
}
