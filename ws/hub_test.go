package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func drain(c *Client) []string {
	var got []string
	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				return got
			}
			got = append(got, string(payload))
		default:
			return got
		}
	}
}

func TestRegisterUnregister(t *testing.T) {
	h := NewHub()
	c := NewClient(h, nil)

	h.Register(c)
	require.Equal(t, 1, h.Count())

	h.Unregister(c)
	require.Equal(t, 0, h.Count())

	// Idempotent: a second unregister must not panic or double-close.
	h.Unregister(c)
	require.Equal(t, 0, h.Count())
}

func TestAssociateReplacesPriorRoom(t *testing.T) {
	h := NewHub()
	c := NewClient(h, nil)
	h.Register(c)

	require.EqualValues(t, 0, c.Room())
	h.Associate(c, 3)
	require.EqualValues(t, 3, c.Room())
	h.Associate(c, 7)
	require.EqualValues(t, 7, c.Room())
}

func TestBroadcastToAll(t *testing.T) {
	h := NewHub()
	a := NewClient(h, nil)
	b := NewClient(h, nil)
	h.Register(a)
	h.Register(b)

	h.Broadcast(nil, []byte("hello"))

	require.Equal(t, []string{"hello"}, drain(a))
	require.Equal(t, []string{"hello"}, drain(b))
}

func TestBroadcastRoomPredicate(t *testing.T) {
	h := NewHub()
	inRoom := NewClient(h, nil)
	otherRoom := NewClient(h, nil)
	noRoom := NewClient(h, nil)
	for _, c := range []*Client{inRoom, otherRoom, noRoom} {
		h.Register(c)
	}
	h.Associate(inRoom, 5)
	h.Associate(otherRoom, 6)

	h.Broadcast(func(c *Client) bool { return c.Room() == 5 }, []byte("room msg"))

	require.Equal(t, []string{"room msg"}, drain(inRoom))
	require.Empty(t, drain(otherRoom))
	require.Empty(t, drain(noRoom))
}

func TestBroadcastSkipsUnregisteredClient(t *testing.T) {
	h := NewHub()
	gone := NewClient(h, nil)
	alive := NewClient(h, nil)
	h.Register(gone)
	h.Register(alive)
	h.Unregister(gone)

	// Must not panic on the closed client, and the live one still gets it.
	h.Broadcast(nil, []byte("still here"))

	require.Equal(t, []string{"still here"}, drain(alive))
}

// Senders racing an unregister must never hit a closed channel: the
// teardown closes only done, so a Send that passed its deliverable check
// just before the close still lands on a live (if abandoned) buffer.
func TestSendRacingUnregisterDoesNotPanic(t *testing.T) {
	for i := 0; i < 500; i++ {
		h := NewHub()
		c := NewClient(h, nil)
		h.Register(c)

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					c.Send([]byte("x"))
				}
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.Unregister(c)
		}()
		wg.Wait()
	}
}

func TestSendDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	c := NewClient(h, nil)
	h.Register(c)

	for i := 0; i < cap(c.send)+10; i++ {
		c.Send([]byte("x"))
	}
	require.Len(t, drain(c), cap(c.send))
}
