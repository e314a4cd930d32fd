package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()
	a := bus.Subscribe("a")
	b := bus.Subscribe("b")

	bus.Publish(TypePlanProduced, []string{"step one"})

	for _, ch := range []<-chan Event{a, b} {
		select {
		case evt := <-ch:
			assert.Equal(t, TypePlanProduced, evt.Type)
			assert.NotEmpty(t, evt.ID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe("a")
	bus.Unsubscribe("a")

	_, open := <-ch
	assert.False(t, open)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus()
	bus.Subscribe("slow") // never drained

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			bus.Publish(TypeToolApplied, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
}

func TestEventIDsAreUnique(t *testing.T) {
	bus := NewBus()
	ch := bus.Subscribe("a")

	bus.Publish(TypeError, nil)
	bus.Publish(TypeError, nil)

	first := <-ch
	second := <-ch
	require.NotEqual(t, first.ID, second.ID)
}
