package server

import (
	"encoding/json"
	"sync"
)

// hub fans push notices out to every connected /sse client and to the
// datastar UI streams.
type hub struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[chan []byte]struct{})}
}

func (h *hub) subscribe() chan []byte {
	ch := make(chan []byte, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// notify broadcasts {"type": eventType, ...extra} to all subscribers.
// Slow subscribers drop messages rather than block a mutation handler.
func (h *hub) notify(eventType string, extra map[string]any) {
	payload := map[string]any{"type": eventType}
	for k, v := range extra {
		payload[k] = v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- b:
		default:
		}
	}
}
