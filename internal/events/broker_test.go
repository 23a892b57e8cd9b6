package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesOnlyTargetUser(t *testing.T) {
	b := NewBroker(4)

	alice1 := b.Subscribe("alice")
	alice2 := b.Subscribe("alice")
	bob := b.Subscribe("bob")

	defer alice1.Close()
	defer alice2.Close()
	defer bob.Close()

	n := b.Publish("alice", Event{Name: PermissionsUpdated, Data: map[string]string{"userId": "alice"}})
	assert.Equal(t, 2, n)

	assert.Equal(t, PermissionsUpdated, (<-alice1.C).Name)
	assert.Equal(t, PermissionsUpdated, (<-alice2.C).Name)
	assert.Empty(t, bob.C)
}

func TestCloseUnsubscribes(t *testing.T) {
	b := NewBroker(1)
	s := b.Subscribe("alice")
	require.Equal(t, 1, b.Subscribers("alice"))

	s.Close()
	s.Close()

	assert.Zero(t, b.Subscribers("alice"))
	assert.Zero(t, b.Publish("alice", Event{Name: Ping}))

	_, open := <-s.C
	assert.False(t, open)
}

func TestPublishDropsWhenFull(t *testing.T) {
	b := NewBroker(1)
	s := b.Subscribe("alice")

	defer s.Close()

	assert.Equal(t, 1, b.Publish("alice", Event{Name: Ping}))
	assert.Equal(t, 0, b.Publish("alice", Event{Name: Ping}))
}

func TestConcurrentUse(t *testing.T) {
	b := NewBroker(0)

	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			s := b.Subscribe("alice")
			b.Publish("alice", Event{Name: Ping})
			s.Close()
		}()
	}

	wg.Wait()
	assert.Zero(t, b.Subscribers("alice"))
}

func TestEncode(t *testing.T) {
	out, err := Event{Name: Connected, Data: map[string]bool{"ok": true}}.Encode()
	require.NoError(t, err)
	assert.Equal(t, "event: connected\ndata: {\"ok\":true}\n\n", string(out))

	_, err = Event{Name: "bad", Data: make(chan int)}.Encode()
	assert.Error(t, err)
}
