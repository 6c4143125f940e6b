package progress

import (
	"errors"
	"strings"
	"sync"
)

const (
	// DefaultSubscriberBuffer bounds each subscriber channel; publishes are
	// fire-and-forget, so a slow subscriber drops events instead of blocking
	// the worker.
	DefaultSubscriberBuffer = 16
)

// Event is one progress update for an ingestion job. Terminal events carry
// the final status plus either the stats ledger or an error message.
type Event struct {
	JobID    string         `json:"job_id"`
	Progress float64        `json:"progress"`
	Status   string         `json:"status"`
	Terminal bool           `json:"-"`
	Stats    map[string]any `json:"stats,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Hub is an in-process publish/subscribe channel, one topic per job. Any
// number of subscribers may watch the same job; a terminal event is delivered
// at most once and closes every subscriber stream.
type Hub struct {
	mu               sync.RWMutex
	topics           map[string]*topic
	subscriberBuffer int
}

type topic struct {
	mu     sync.Mutex
	subs   map[uint64]chan Event
	nextID uint64
	done   bool
}

// Subscription is one subscriber's view of a job topic.
type Subscription struct {
	hub   *Hub
	jobID string
	id    uint64
	ch    chan Event
	once  sync.Once
}

// NewHub builds an empty hub.
func NewHub() *Hub {
	return &Hub{
		topics:           make(map[string]*topic),
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

// Publish fans a progress event out to the job's subscribers. It never
// blocks: subscribers with full buffers miss the event, and publishing after
// the terminal event is a no-op.
func (h *Hub) Publish(jobID string, event Event) {
	if h == nil {
		return
	}
	id := strings.TrimSpace(jobID)
	if id == "" {
		return
	}
	h.mu.RLock()
	t := h.topics[id]
	h.mu.RUnlock()
	if t == nil {
		return
	}

	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	subs := make([]chan Event, 0, len(t.subs))
	for _, ch := range t.subs {
		subs = append(subs, ch)
	}
	t.mu.Unlock()

	event.JobID = id
	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishTerminal delivers the final event for a job and closes every
// subscriber stream. Only the first terminal publish per job has any effect.
func (h *Hub) PublishTerminal(jobID string, event Event) {
	if h == nil {
		return
	}
	id := strings.TrimSpace(jobID)
	if id == "" {
		return
	}
	h.mu.RLock()
	t := h.topics[id]
	h.mu.RUnlock()
	if t == nil {
		return
	}

	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return
	}
	t.done = true
	subs := make([]chan Event, 0, len(t.subs))
	for _, ch := range t.subs {
		subs = append(subs, ch)
	}
	t.subs = make(map[uint64]chan Event)
	t.mu.Unlock()

	event.JobID = id
	event.Terminal = true
	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
		close(ch)
	}

	h.mu.Lock()
	if current := h.topics[id]; current == t {
		delete(h.topics, id)
	}
	h.mu.Unlock()
}

// Subscribe attaches a new subscriber to the job's topic. Subscribing to a
// job whose terminal event already fired returns ErrTopicClosed; callers fall
// back to the persisted job row instead of a stream.
func (h *Hub) Subscribe(jobID string) (*Subscription, error) {
	if h == nil {
		return nil, errors.New("hub_unavailable")
	}
	id := strings.TrimSpace(jobID)
	if id == "" {
		return nil, errors.New("invalid_job_id")
	}

	t := h.ensureTopic(id)
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return nil, ErrTopicClosed
	}
	subID := t.nextID
	t.nextID++
	ch := make(chan Event, h.subscriberBuffer)
	t.subs[subID] = ch
	t.mu.Unlock()

	return &Subscription{hub: h, jobID: id, id: subID, ch: ch}, nil
}

// ErrTopicClosed reports a subscription attempt after terminal delivery.
var ErrTopicClosed = errors.New("topic_closed")

func (h *Hub) ensureTopic(jobID string) *topic {
	h.mu.RLock()
	current := h.topics[jobID]
	h.mu.RUnlock()
	if current != nil {
		return current
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	current = h.topics[jobID]
	if current == nil {
		current = &topic{subs: make(map[uint64]chan Event)}
		h.topics[jobID] = current
	}
	return current
}

func (h *Hub) unsubscribe(jobID string, id uint64) {
	if h == nil {
		return
	}
	h.mu.RLock()
	t := h.topics[jobID]
	h.mu.RUnlock()
	if t == nil {
		return
	}

	// Detach without closing: a publisher may still hold this channel in a
	// snapshot taken outside the topic lock. Only terminal delivery closes
	// channels, after removing them from the topic.
	t.mu.Lock()
	delete(t.subs, id)
	remaining := len(t.subs)
	done := t.done
	t.mu.Unlock()
	if remaining != 0 || done {
		return
	}

	h.mu.Lock()
	if current := h.topics[jobID]; current == t {
		t.mu.Lock()
		if len(t.subs) == 0 && !t.done {
			delete(h.topics, jobID)
		}
		t.mu.Unlock()
	}
	h.mu.Unlock()
}

// Events returns the subscriber's stream. It is closed after the terminal
// event. Close only detaches; readers that detach themselves stop reading.
func (s *Subscription) Events() <-chan Event {
	if s == nil {
		return nil
	}
	return s.ch
}

// Close detaches the subscriber. Safe to call more than once and after
// terminal delivery.
func (s *Subscription) Close() {
	if s == nil || s.hub == nil {
		return
	}
	s.once.Do(func() {
		s.hub.unsubscribe(s.jobID, s.id)
	})
}
