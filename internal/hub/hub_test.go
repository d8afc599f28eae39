package hub

import (
	"encoding/json"
	"testing"
)

func drain(t *testing.T, c *Client) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		select {
		case data := <-c.send:
			var env Envelope
			if err := json.Unmarshal(data, &env); err != nil {
				t.Fatalf("bad frame: %v", err)
			}
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestHub_SendToTargetsOneConnection(t *testing.T) {
	h := New()
	a := NewClient("conn-a", nil)
	b := NewClient("conn-b", nil)
	h.Register(a)
	h.Register(b)

	h.SendTo("conn-a", "hello", map[string]string{"k": "v"})

	if got := drain(t, a); len(got) != 1 || got[0].Event != "hello" {
		t.Fatalf("a received %+v", got)
	}
	if got := drain(t, b); len(got) != 0 {
		t.Fatalf("b must receive nothing, got %+v", got)
	}
}

func TestHub_BroadcastAllAndExcept(t *testing.T) {
	h := New()
	a := NewClient("conn-a", nil)
	b := NewClient("conn-b", nil)
	h.Register(a)
	h.Register(b)

	h.BroadcastAll("tick", nil)
	h.BroadcastExcept("conn-a", "tock", nil)

	if got := drain(t, a); len(got) != 1 || got[0].Event != "tick" {
		t.Fatalf("a received %+v", got)
	}
	if got := drain(t, b); len(got) != 2 {
		t.Fatalf("b received %+v", got)
	}
}

func TestHub_UnregisterStopsDelivery(t *testing.T) {
	h := New()
	a := NewClient("conn-a", nil)
	h.Register(a)

	if !h.IsConnected("conn-a") {
		t.Fatalf("expected connected")
	}
	h.Unregister("conn-a")
	if h.IsConnected("conn-a") {
		t.Fatalf("expected disconnected")
	}
	// A send to a gone connection is silently dropped.
	h.SendTo("conn-a", "hello", nil)
	if h.Count() != 0 {
		t.Fatalf("count = %d, want 0", h.Count())
	}
}

func TestHub_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	h := New()
	a := NewClient("conn-a", nil)
	h.Register(a)

	// Nothing drains the queue; pushing past the buffer must not block.
	for i := 0; i < sendBuffer+10; i++ {
		h.SendTo("conn-a", "flood", i)
	}
	if got := len(drain(t, a)); got != sendBuffer {
		t.Fatalf("queued = %d, want %d", got, sendBuffer)
	}
}
