// Package events fans out per-user notifications to open server-sent event streams.
package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Event names sent to clients.
const (
	Connected          = "connected"
	PermissionsUpdated = "permissionsUpdated"
	Ping               = "ping"
)

const defaultBuffer = 8

var subscribers = promauto.NewGauge( //nolint:gochecknoglobals
	prometheus.GaugeOpts{
		Name: "event_stream_subscribers",
		Help: "Number of open event streams.",
	},
)

// Event is a single notification.
type Event struct {
	Name string
	Data any
}

// Encode formats ev as a server-sent event frame.
func (ev Event) Encode() ([]byte, error) {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", ev.Name, err)
	}

	var buf bytes.Buffer

	buf.WriteString("event: ")
	buf.WriteString(ev.Name)
	buf.WriteString("\ndata: ")
	buf.Write(data)
	buf.WriteString("\n\n")

	return buf.Bytes(), nil
}

// Broker keeps the open subscriptions per user.
type Broker struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
}

// NewBroker creates a Broker whose subscriptions buffer up to buffer events.
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	return &Broker{
		subs:   map[string]map[*Subscription]struct{}{},
		buffer: buffer,
	}
}

// Subscription receives the events of one user until closed.
type Subscription struct {
	C <-chan Event

	ch     chan Event
	userID string
	broker *Broker
	once   sync.Once
}

// Subscribe opens a subscription for userID.
func (b *Broker) Subscribe(userID string) *Subscription {
	ch := make(chan Event, b.buffer)
	s := &Subscription{C: ch, ch: ch, userID: userID, broker: b}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subs[userID] == nil {
		b.subs[userID] = map[*Subscription]struct{}{}
	}

	b.subs[userID][s] = struct{}{}

	subscribers.Inc()

	return s
}

// Close removes the subscription and closes its channel. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() {
		b := s.broker

		b.mu.Lock()
		defer b.mu.Unlock()

		delete(b.subs[s.userID], s)

		if len(b.subs[s.userID]) == 0 {
			delete(b.subs, s.userID)
		}

		close(s.ch)
		subscribers.Dec()
	})
}

// Publish sends ev to every subscription of userID and returns how many
// received it. Subscribers with a full buffer miss the event.
func (b *Broker) Publish(userID string, ev Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0

	for s := range b.subs[userID] {
		select {
		case s.ch <- ev:
			delivered++
		default:
		}
	}

	return delivered
}

// Subscribers returns the number of open subscriptions of userID.
func (b *Broker) Subscribers(userID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs[userID])
}
