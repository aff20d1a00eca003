// Package notification provides the notification manager for broadcasting
// player events to watchers.
package notification

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/musicbox/internal/api/playerv1"
)

// sendTimeout bounds a single send to a subscriber. A subscriber that misses
// it is dropped.
const sendTimeout = 500 * time.Millisecond

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*playerv1.Notification) error
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id     string
	stream Stream
	done   chan struct{}

	// Set while a Send is in flight. Streams are not safe for concurrent
	// sends.
	sending atomic.Bool
}

// Manager manages notification subscriptions and broadcasting.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		stream: stream,
		done:   make(chan struct{}),
	}
	zlog.Debug().Msgf("watcher subscribed: id=%s count=%d", id, len(m.subscriptions))
	return id
}

// NextSequenceNo returns the next sequence number and increments the counter.
func (m *Manager) NextSequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// Done returns a channel that is closed once the subscription is removed,
// either by Unsubscribe or because the manager dropped it.
func (m *Manager) Done(subscriptionID string) <-chan struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sub, ok := m.subscriptions[subscriptionID]; ok {
		return sub.done
	}
	closed := make(chan struct{})
	close(closed)
	return closed
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subscriptions[subscriptionID]
	if !ok {
		return
	}
	delete(m.subscriptions, subscriptionID)
	close(sub.done)
	zlog.Debug().Msgf("watcher unsubscribed: id=%s count=%d", subscriptionID, len(m.subscriptions))
}

// Broadcast stamps the notification with the next sequence number and sends
// it to all subscribers. Each send runs in its own goroutine with a timeout
// so a slow watcher cannot block the others. Subscribers whose send failed or
// timed out are removed, and a subscriber never has two sends in flight.
func (m *Manager) Broadcast(notification *playerv1.Notification) {
	notification.SequenceNo = m.NextSequenceNo()
	if notification.Time.IsZero() {
		notification.Time = time.Now()
	}

	m.mu.RLock()
	// Copy subscriptions to avoid holding lock during sends
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()

			if !s.sending.CompareAndSwap(false, true) {
				zlog.Debug().Msgf("dropping busy watcher: id=%s seq=%d", s.id, notification.SequenceNo)
				m.Unsubscribe(s.id)
				return
			}
			done := make(chan error, 1)
			go func() {
				err := s.stream.Send(notification)
				s.sending.Store(false)
				done <- err
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Msgf("dropping watcher: id=%s err=%v", s.id, err)
					m.Unsubscribe(s.id)
				}
			case <-ctx.Done():
				zlog.Debug().Msgf("dropping slow watcher: id=%s seq=%d", s.id, notification.SequenceNo)
				m.Unsubscribe(s.id)
			}
		}(sub)
	}

	wg.Wait()
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subscriptions {
		close(sub.done)
	}
	m.subscriptions = make(map[string]*subscription)
}
