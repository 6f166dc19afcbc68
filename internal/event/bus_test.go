package event

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/Iron-Ham/airlift/internal/logging"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus(nil)

	called := false
	id := bus.Subscribe(TypeFlightArrived, func(e Event) {
		called = true
	})

	if id == "" {
		t.Error("Subscribe should return a non-empty ID")
	}
	if bus.SubscriptionCount() != 1 {
		t.Errorf("Expected 1 subscription, got %d", bus.SubscriptionCount())
	}
	if called {
		t.Error("Handler should not be called until an event is published")
	}
}

func TestBus_PublishRoutesByType(t *testing.T) {
	bus := NewBus(nil)

	var arrived []FlightArrivedEvent
	var emptied int
	bus.Subscribe(TypeFlightArrived, func(e Event) {
		arrived = append(arrived, e.(FlightArrivedEvent))
	})
	bus.Subscribe(TypePlaneEmptied, func(e Event) {
		emptied++
	})

	bus.Publish(NewFlightArrivedEvent(3, 5, 0))

	if len(arrived) != 1 {
		t.Fatalf("arrived handler called %d times, want 1", len(arrived))
	}
	if arrived[0].Flight != 3 || arrived[0].Boarded != 5 {
		t.Errorf("event = %+v", arrived[0])
	}
	if emptied != 0 {
		t.Error("planeEmptied handler called for a different type")
	}
	if arrived[0].Timestamp().IsZero() {
		t.Error("Timestamp() is zero")
	}
}

func TestBus_WildcardAfterSpecific(t *testing.T) {
	bus := NewBus(nil)

	var order []string
	bus.SubscribeAll(func(e Event) { order = append(order, "all") })
	bus.Subscribe(TypePassengerLeft, func(e Event) { order = append(order, "specific") })

	bus.Publish(NewPassengerLeftEvent(1, 0, 2))

	if strings.Join(order, ",") != "specific,all" {
		t.Errorf("order = %v, want specific then all", order)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(nil)

	count := 0
	id := bus.Subscribe(TypeFlightAnnounced, func(e Event) { count++ })
	keep := bus.Subscribe(TypeFlightAnnounced, func(e Event) { count += 10 })

	if !bus.Unsubscribe(id) {
		t.Fatal("Unsubscribe returned false for a known ID")
	}
	if bus.Unsubscribe(id) {
		t.Error("Unsubscribe returned true for a removed ID")
	}

	bus.Publish(NewFlightAnnouncedEvent(1))
	if count != 10 {
		t.Errorf("count = %d, want only the remaining handler (10)", count)
	}
	if keep == id {
		t.Error("subscription IDs are not unique")
	}
}

func TestBus_PanicRecovered(t *testing.T) {
	var buf bytes.Buffer
	bus := NewBus(logging.NewWithWriter(&buf, logging.LevelError))

	reached := false
	bus.Subscribe(TypePassengerTurnedAway, func(e Event) { panic("boom") })
	bus.Subscribe(TypePassengerTurnedAway, func(e Event) { reached = true })

	bus.Publish(NewPassengerTurnedAwayEvent(4))

	if !reached {
		t.Error("handler after the panicking one was not called")
	}
	if !strings.Contains(buf.String(), "event handler panicked") {
		t.Errorf("panic not logged: %q", buf.String())
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus(nil)

	var mu sync.Mutex
	total := 0
	bus.SubscribeAll(func(e Event) {
		mu.Lock()
		total++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				bus.Publish(NewPassengerBoardedEvent(j, n))
			}
		}(i)
	}
	wg.Wait()

	if total != 200 {
		t.Errorf("total = %d, want 200", total)
	}
}

func TestBus_NilPublishIsNoop(t *testing.T) {
	var bus *Bus
	bus.Publish(NewSimulationFinishedEvent(1, 1, nil))
}
