package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesMatchSubscribers(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("m1")
	defer cancel()
	other, cancelOther := b.Subscribe("m2")
	defer cancelOther()

	evt := Event{MatchID: "m1", Position: "GK", RequesterID: "alice", RequestID: "r1", Outcome: OutcomeAccepted}
	b.Publish(evt)

	select {
	case got := <-ch:
		assert.Equal(t, evt, got)
	default:
		t.Fatal("subscriber did not receive the event")
	}

	select {
	case <-other:
		t.Fatal("event leaked to another match's topic")
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("m1")
	cancel()
	cancel() // safe to call twice

	b.Publish(Event{MatchID: "m1", Outcome: OutcomeRejected})

	select {
	case <-ch:
		t.Fatal("received after unsubscribe")
	default:
	}
}

func TestPublishNeverBlocksOnSlowSubscriber(t *testing.T) {
	b := New()
	ch, cancel := b.Subscribe("m1")
	defer cancel()

	// Overfill the buffer; extra events are dropped, not queued.
	for i := 0; i < 20; i++ {
		b.Publish(Event{MatchID: "m1", Outcome: OutcomeAccepted})
	}

	delivered := 0
	for {
		select {
		case <-ch:
			delivered++
			continue
		default:
		}
		break
	}
	require.Greater(t, delivered, 0)
	assert.LessOrEqual(t, delivered, 8, "buffer bounds what a slow subscriber can accumulate")
}
