package player

import (
	"testing"
	"time"
)

func TestEventQueue_PreservesOrderWithoutConsumer(t *testing.T) {
	q := newEventQueue()
	defer q.close()

	// Far more than any channel buffer; push must never block.
	for i := range 1000 {
		q.push(Event{Gen: uint64(i)})
	}
	for i := range 1000 {
		select {
		case e := <-q.out:
			if e.Gen != uint64(i) {
				t.Fatalf("event %d has gen %d", i, e.Gen)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out at event %d", i)
		}
	}
}

func TestEventQueue_CloseDiscardsPending(t *testing.T) {
	q := newEventQueue()
	q.push(Event{Kind: EventReady})
	q.push(Event{Kind: EventStarted})
	q.close()
	q.close()
	q.push(Event{Kind: EventEnded})

	for e := range q.out {
		if e.Kind == EventEnded {
			t.Error("event pushed after close was delivered")
		}
	}
}
