package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishFanOut(t *testing.T) {
	hub := NewHub()

	first, err := hub.Subscribe("job-1")
	require.NoError(t, err)
	defer first.Close()

	second, err := hub.Subscribe("job-1")
	require.NoError(t, err)
	defer second.Close()

	hub.Publish("job-1", Event{Progress: 12.5, Status: "running"})

	for _, sub := range []*Subscription{first, second} {
		event := <-sub.Events()
		assert.Equal(t, "job-1", event.JobID)
		assert.Equal(t, 12.5, event.Progress)
		assert.Equal(t, "running", event.Status)
	}
}

func TestHubPublishWithoutSubscribersIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Publish("job-1", Event{Progress: 1})
}

func TestHubSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()

	sub, err := hub.Subscribe("job-1")
	require.NoError(t, err)
	defer sub.Close()

	// Overrun the buffer; publishes past capacity are dropped silently.
	for i := 0; i < DefaultSubscriberBuffer*2; i++ {
		hub.Publish("job-1", Event{Progress: float64(i)})
	}

	received := 0
	for {
		select {
		case <-sub.Events():
			received++
			continue
		default:
		}
		break
	}
	assert.Equal(t, DefaultSubscriberBuffer, received)
}

func TestHubTerminalClosesStreams(t *testing.T) {
	hub := NewHub()

	sub, err := hub.Subscribe("job-1")
	require.NoError(t, err)

	hub.PublishTerminal("job-1", Event{Status: "completed", Stats: map[string]any{"saved": 3}})

	event, open := <-sub.Events()
	require.True(t, open)
	assert.True(t, event.Terminal)
	assert.Equal(t, "completed", event.Status)
	assert.Equal(t, 3, event.Stats["saved"])

	_, open = <-sub.Events()
	assert.False(t, open)
}

func TestHubTerminalAtMostOnce(t *testing.T) {
	hub := NewHub()

	sub, err := hub.Subscribe("job-1")
	require.NoError(t, err)

	hub.PublishTerminal("job-1", Event{Status: "completed"})
	hub.PublishTerminal("job-1", Event{Status: "failed"})
	hub.Publish("job-1", Event{Progress: 99})

	event := <-sub.Events()
	assert.Equal(t, "completed", event.Status)

	_, open := <-sub.Events()
	assert.False(t, open)
}

func TestHubSubscribeAfterTerminal(t *testing.T) {
	hub := NewHub()

	sub, err := hub.Subscribe("job-1")
	require.NoError(t, err)
	hub.PublishTerminal("job-1", Event{Status: "completed"})
	<-sub.Events()

	// The topic was torn down, so a fresh subscribe opens a new topic
	// rather than failing; callers handle replay from the persisted row.
	again, err := hub.Subscribe("job-1")
	require.NoError(t, err)
	again.Close()
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	hub := NewHub()

	sub, err := hub.Subscribe("job-1")
	require.NoError(t, err)

	sub.Close()
	sub.Close()

	hub.Publish("job-1", Event{Progress: 1})
}

func TestHubPublishConcurrentWithDetach(t *testing.T) {
	hub := NewHub()

	// A worker keeps publishing while subscribers attach and detach on the
	// same topic. Detaching must never close a channel a publish snapshot
	// still holds, so this loop must survive without a panic.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50000; i++ {
			hub.Publish("job-1", Event{Progress: float64(i % 100), Status: "running"})
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
		}
		sub, err := hub.Subscribe("job-1")
		require.NoError(t, err)
		select {
		case <-sub.Events():
		default:
		}
		sub.Close()
	}
}

func TestHubTopicsAreIndependent(t *testing.T) {
	hub := NewHub()

	a, err := hub.Subscribe("job-a")
	require.NoError(t, err)
	defer a.Close()
	b, err := hub.Subscribe("job-b")
	require.NoError(t, err)
	defer b.Close()

	hub.Publish("job-a", Event{Progress: 50})

	event := <-a.Events()
	assert.Equal(t, "job-a", event.JobID)

	select {
	case <-b.Events():
		t.Fatal("event leaked across topics")
	default:
	}
}
