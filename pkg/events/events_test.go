package events

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusDeliversToSubscriber(t *testing.T) {
	bus := NewEventBus()
	defer bus.Shutdown()

	var wg sync.WaitGroup
	wg.Add(1)

	var got Event
	bus.Subscribe(TabOpened, func(e Event) {
		got = e
		wg.Done()
	})

	bus.Publish(Event{
		Type:  TabOpened,
		TabID: 3,
		Data:  map[string]interface{}{"url": "https://github.com/golang/go"},
	})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}

	assert.Equal(t, TabOpened, got.Type)
	assert.Equal(t, 3, got.TabID)
	assert.Equal(t, "https://github.com/golang/go", got.Data["url"])
	assert.False(t, got.Timestamp.IsZero())
	require.NotEmpty(t, got.ID)
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	defer bus.Shutdown()

	var count atomic.Int32
	var wg sync.WaitGroup
	wg.Add(3)

	for i := 0; i < 3; i++ {
		bus.Subscribe(NetworkRequest, func(e Event) {
			count.Add(1)
			wg.Done()
		})
	}

	bus.Publish(Event{Type: NetworkRequest})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("not all subscribers were notified")
	}

	assert.Equal(t, int32(3), count.Load())
}

func TestEventBusIsolatesPanickingHandler(t *testing.T) {
	bus := NewEventBus()
	defer bus.Shutdown()

	var wg sync.WaitGroup
	wg.Add(1)

	bus.Subscribe(NavigationDone, func(e Event) {
		panic("handler failure")
	})
	bus.Subscribe(NavigationDone, func(e Event) {
		wg.Done()
	})

	bus.Publish(Event{Type: NavigationDone})

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("panicking handler blocked other subscribers")
	}
}

func TestEventBusUnsubscribedTypeIsIgnored(t *testing.T) {
	bus := NewEventBus()
	defer bus.Shutdown()

	bus.Subscribe(TabClosed, func(e Event) {
		t.Error("handler for different event type should not fire")
	})

	bus.Publish(Event{Type: TabOpened})
	time.Sleep(50 * time.Millisecond)
}
