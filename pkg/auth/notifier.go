package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventSignedIn         EventType = "SIGNED_IN"
	EventSignedOut        EventType = "SIGNED_OUT"
	EventPasswordRecovery EventType = "PASSWORD_RECOVERY"
	EventUserUpdated      EventType = "USER_UPDATED"
)

type Event struct {
	Type   EventType `json:"type"`
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	Name   string    `json:"name,omitempty"`
	At     time.Time `json:"at"`
}

// Notifier fans auth state changes out to per-user subscribers. A subscriber
// that does not keep up loses events instead of blocking publishers.
type Notifier struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]map[uint64]chan Event
	nextID uint64
	buffer int
}

func NewNotifier(buffer int) *Notifier {
	if buffer < 1 {
		buffer = 1
	}
	return &Notifier{
		subs:   make(map[uuid.UUID]map[uint64]chan Event),
		buffer: buffer,
	}
}

// Subscribe registers for the user's events. The returned function unsubscribes
// and closes the channel; it is safe to call more than once.
func (n *Notifier) Subscribe(userID uuid.UUID) (<-chan Event, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	ch := make(chan Event, n.buffer)
	if n.subs[userID] == nil {
		n.subs[userID] = make(map[uint64]chan Event)
	}
	n.subs[userID][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()

			delete(n.subs[userID], id)
			if len(n.subs[userID]) == 0 {
				delete(n.subs, userID)
			}
			close(ch)
		})
	}
}

func (n *Notifier) Publish(ev Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs[ev.UserID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (n *Notifier) subscriberCount(userID uuid.UUID) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs[userID])
}
