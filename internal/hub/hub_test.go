package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shiftsync/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startHub(t *testing.T, sendTimeout time.Duration) *Hub {
	t.Helper()
	h := New(sendTimeout)
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return h
}

func receive(t *testing.T, c *Client) domain.ChangeEvent {
	t.Helper()
	select {
	case msg := <-c.Send():
		var event domain.ChangeEvent
		require.NoError(t, json.Unmarshal(msg, &event))
		return event
	case <-time.After(2 * time.Second):
		t.Fatalf("client %s received nothing", c.ID)
		return domain.ChangeEvent{}
	}
}

func TestBroadcastReachesEveryClientInOrder(t *testing.T) {
	h := startHub(t, 100*time.Millisecond)
	clients := []*Client{
		NewClient("c1", "alice", 64),
		NewClient("c2", "bob", 64),
		NewClient("c3", "boss", 64),
	}
	for _, c := range clients {
		h.Register(c)
	}

	const n = 50
	for i := 0; i < n; i++ {
		h.Broadcast(domain.ShiftDeleted(fmt.Sprintf("shift-%02d", i)))
	}

	for _, c := range clients {
		for i := 0; i < n; i++ {
			event := receive(t, c)
			assert.Equal(t, domain.ActionDeleteShift, event.Action)
			assert.Equal(t, fmt.Sprintf("shift-%02d", i), event.ShiftID)
		}
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	h := startHub(t, 20*time.Millisecond)
	slow := NewClient("slow", "alice", 1)
	fast := NewClient("fast", "bob", 16)
	h.Register(slow)
	h.Register(fast)

	for i := 0; i < 3; i++ {
		h.Broadcast(domain.ShiftDeleted(fmt.Sprintf("shift-%d", i)))
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, fmt.Sprintf("shift-%d", i), receive(t, fast).ShiftID)
	}

	select {
	case <-slow.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("slow client was not dropped")
	}
	assert.Equal(t, 1, h.ClientCount())
}

func TestUnregisteredClientGetsNothing(t *testing.T) {
	h := startHub(t, 20*time.Millisecond)
	gone := NewClient("gone", "alice", 4)
	stay := NewClient("stay", "bob", 4)
	h.Register(gone)
	h.Register(stay)
	h.Unregister(gone)
	h.Unregister(gone)

	h.Broadcast(domain.ShiftDeleted("s1"))
	assert.Equal(t, "s1", receive(t, stay).ShiftID)

	select {
	case msg := <-gone.Send():
		t.Fatalf("unregistered client got %s", msg)
	default:
	}
	assert.Equal(t, 1, h.ClientCount())
}

func TestNewClientGetsNoReplay(t *testing.T) {
	h := startHub(t, 20*time.Millisecond)
	early := NewClient("early", "alice", 4)
	h.Register(early)
	h.Broadcast(domain.ShiftDeleted("old"))
	assert.Equal(t, "old", receive(t, early).ShiftID)

	late := NewClient("late", "bob", 4)
	h.Register(late)
	h.Broadcast(domain.ShiftDeleted("new"))
	assert.Equal(t, "new", receive(t, late).ShiftID)
	assert.Equal(t, "new", receive(t, early).ShiftID)
}

func TestRunDisconnectsClientsOnShutdown(t *testing.T) {
	h := New(time.Second)
	c := NewClient("c1", "alice", 1)
	h.Register(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	select {
	case <-c.Done():
	default:
		t.Fatal("client still open after hub shutdown")
	}
	assert.Equal(t, 0, h.ClientCount())
}
