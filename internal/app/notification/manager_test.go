package notification

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/musicbox/internal/api/playerv1"
)

type recordingStream struct {
	mu    sync.Mutex
	got   []*playerv1.Notification
	err   error
	block chan struct{}
}

func (s *recordingStream) Send(n *playerv1.Notification) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, n)
	return nil
}

func (s *recordingStream) received() []*playerv1.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*playerv1.Notification(nil), s.got...)
}

func TestBroadcast_SequenceNumbers(t *testing.T) {
	m := NewManager()
	a, b := &recordingStream{}, &recordingStream{}
	m.Subscribe(a)
	m.Subscribe(b)

	m.Broadcast(&playerv1.Notification{Type: playerv1.NotificationTypeTrackStarted})
	m.Broadcast(&playerv1.Notification{Type: playerv1.NotificationTypeTrackEnded})

	for _, s := range []*recordingStream{a, b} {
		got := s.received()
		require.Len(t, got, 2)
		assert.Equal(t, uint64(1), got[0].SequenceNo)
		assert.Equal(t, uint64(2), got[1].SequenceNo)
		assert.False(t, got[0].Time.IsZero())
	}
	assert.Equal(t, uint64(3), m.NextSequenceNo())
}

func TestBroadcast_DropsFailingSubscriber(t *testing.T) {
	m := NewManager()
	good := &recordingStream{}
	m.Subscribe(good)
	m.Subscribe(&recordingStream{err: errors.New("stream closed")})
	require.Equal(t, 2, m.SubscriberCount())

	m.Broadcast(&playerv1.Notification{Type: playerv1.NotificationTypeStopped})

	assert.Equal(t, 1, m.SubscriberCount())
	assert.Len(t, good.received(), 1)
}

func TestBroadcast_SlowSubscriberDoesNotBlock(t *testing.T) {
	m := NewManager()
	slow := &recordingStream{block: make(chan struct{})}
	defer close(slow.block)
	fast := &recordingStream{}
	m.Subscribe(slow)
	m.Subscribe(fast)

	start := time.Now()
	m.Broadcast(&playerv1.Notification{Type: playerv1.NotificationTypeStateChanged})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Len(t, fast.received(), 1)
	assert.Equal(t, 1, m.SubscriberCount(), "a timed out watcher is dropped")

	m.Broadcast(&playerv1.Notification{Type: playerv1.NotificationTypeStateChanged})
	assert.Len(t, fast.received(), 2)
}

// stuckStream blocks every Send until release is closed and records the
// highest number of concurrent sends.
type stuckStream struct {
	release  chan struct{}
	inFlight atomic.Int32
	peak     atomic.Int32
	calls    atomic.Int32
}

func (s *stuckStream) Send(*playerv1.Notification) error {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-s.release
	s.inFlight.Add(-1)
	return nil
}

func TestBroadcast_NoConcurrentSendsToOneWatcher(t *testing.T) {
	m := NewManager()
	stuck := &stuckStream{release: make(chan struct{})}
	defer close(stuck.release)
	id := m.Subscribe(stuck)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Broadcast(&playerv1.Notification{Type: playerv1.NotificationTypeStateChanged})
		}()
	}
	wg.Wait()
	m.Broadcast(&playerv1.Notification{Type: playerv1.NotificationTypeStateChanged})

	assert.Equal(t, int32(1), stuck.peak.Load())
	assert.Equal(t, int32(1), stuck.calls.Load())
	assert.Equal(t, 0, m.SubscriberCount())

	select {
	case <-m.Done(id):
	default:
		t.Fatal("dropped watcher must be signaled")
	}
}

func TestUnsubscribeAndClose(t *testing.T) {
	m := NewManager()
	id := m.Subscribe(&recordingStream{})
	m.Subscribe(&recordingStream{})

	done := m.Done(id)
	m.Unsubscribe(id)
	m.Unsubscribe(id)
	assert.Equal(t, 1, m.SubscriberCount())
	_, open := <-done
	assert.False(t, open)

	m.Close()
	assert.Equal(t, 0, m.SubscriberCount())
}
