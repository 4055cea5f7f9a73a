package events

import (
	"sync"
	"testing"
	"time"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan ModeChangedEvent, 1)

	unsub := bus.Subscribe(func(e ModeChangedEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(ModeChangedEvent{From: "stack-left", To: "stack-right"})

	got := <-received
	if got.To != "stack-right" {
		t.Errorf("Expected to=stack-right, got %s", got.To)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan ButtonPressedEvent, 1)

	unsub := bus.Subscribe(func(e ButtonPressedEvent) {
		received <- e
	})

	bus.Publish(ButtonPressedEvent{Mode: "stack-left"})
	<-received

	unsub()

	bus.Publish(ButtonPressedEvent{Mode: "stack-left"})
	select {
	case <-received:
		t.Fatal("Should not have received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
		// Expected - no event
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	frameReceived := make(chan bool, 1)
	cycleReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ FrameRenderedEvent) {
		frameReceived <- true
	})
	defer unsub1()

	unsub2 := bus.Subscribe(func(_ CycleCompletedEvent) {
		cycleReceived <- true
	})
	defer unsub2()

	bus.Publish(FrameRenderedEvent{Pattern: 0x01})
	<-frameReceived

	select {
	case <-cycleReceived:
		t.Fatal("Cycle subscriber should NOT have received FrameRenderedEvent")
	case <-time.After(10 * time.Millisecond):
		// Expected
	}
}

func TestBus_OrderedDelivery(t *testing.T) {
	bus := New()
	const count = 200

	var mu sync.Mutex
	var frames []int
	done := make(chan struct{})

	unsub := bus.Subscribe(func(e FrameRenderedEvent) {
		mu.Lock()
		frames = append(frames, e.Frame)
		n := len(frames)
		mu.Unlock()
		if n == count {
			close(done)
		}
	})
	defer unsub()

	for i := range count {
		bus.Publish(FrameRenderedEvent{Frame: i})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for events")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, f := range frames {
		if f != i {
			t.Fatalf("frame %d delivered at position %d", f, i)
		}
	}
}

func TestBus_UnknownHandler(_ *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}
