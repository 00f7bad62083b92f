package service_test

import (
	"context"
	"slices"
	"sync"
	"testing"

	"panels/internal/domain"
	"panels/internal/service"
)

// ─────────────────────────────────────────────────────────────
// Broadcaster tests
// ─────────────────────────────────────────────────────────────

func TestBroadcaster_DeliversInSubscriptionOrder(t *testing.T) {
	b := service.NewBroadcaster()
	var got []string

	b.Subscribe(func(event string, _ any) { got = append(got, "first:"+event) })
	b.Subscribe(func(event string, _ any) { got = append(got, "second:"+event) })

	b.Emit(context.Background(), "ping", nil)

	if len(got) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(got))
	}
	if got[0] != "first:ping" || got[1] != "second:ping" {
		t.Errorf("unexpected delivery order: %v", got)
	}
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := service.NewBroadcaster()
	calls := 0
	unsubscribe := b.Subscribe(func(string, any) { calls++ })

	b.Emit(context.Background(), "a", nil)
	unsubscribe()
	unsubscribe() // second call is harmless
	b.Emit(context.Background(), "b", nil)

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestBroadcaster_SkipsCancelledContext(t *testing.T) {
	b := service.NewBroadcaster()
	calls := 0
	b.Subscribe(func(string, any) { calls++ })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b.Emit(ctx, "late", nil)

	if calls != 0 {
		t.Errorf("expected no delivery after cancel, got %d", calls)
	}
}

func TestBroadcaster_UnsubscribeDuringEmitStopsLaterListener(t *testing.T) {
	b := service.NewBroadcaster()
	var got []string
	var dropSecond func()

	b.Subscribe(func(event string, _ any) {
		got = append(got, "first:"+event)
		dropSecond()
	})
	dropSecond = b.Subscribe(func(event string, _ any) { got = append(got, "second:"+event) })

	b.Emit(context.Background(), "ping", nil)
	b.Emit(context.Background(), "pong", nil)

	want := []string{"first:ping", "first:pong"}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestBroadcaster_FeedsStoreEventsToListeners(t *testing.T) {
	b := service.NewBroadcaster()
	rec := &service.MockEmitter{}
	b.Subscribe(func(event string, data any) { rec.Emit(context.Background(), event, data) })

	store := service.NewPanelStore(context.Background(), 40, b)
	store.AddTab(domain.Tab{ID: "t", Title: "T"})
	store.Republish()

	events := rec.Recorded()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Event != service.EventStateChanged || events[1].Event != service.EventResync {
		t.Errorf("unexpected events: %q, %q", events[0].Event, events[1].Event)
	}
}

// ─────────────────────────────────────────────────────────────
// MockEmitter tests
// ─────────────────────────────────────────────────────────────

func TestMockEmitter_RecordedIsDetached(t *testing.T) {
	m := &service.MockEmitter{}
	m.Emit(context.Background(), service.EventResync, nil)

	first := m.Recorded()
	first[0].Event = "edited"
	m.Emit(context.Background(), service.EventStateChanged, nil)

	if len(first) != 1 {
		t.Errorf("earlier copy grew to %d events", len(first))
	}
	events := m.Recorded()
	if len(events) != 2 || events[0].Event != service.EventResync {
		t.Errorf("recording changed through a copy: %+v", events)
	}
}

func TestMockEmitter_ConcurrentEmit(t *testing.T) {
	m := &service.MockEmitter{}
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Emit(context.Background(), service.EventStateChanged, nil)
			_ = m.Recorded()
		}()
	}
	wg.Wait()

	if n := len(m.Recorded()); n != 50 {
		t.Errorf("expected 50 events, got %d", n)
	}
}
