// Package push maintains the one-way server-to-client event channel.
//
// The backend exposes GET /sse as a text/event-stream of JSON frames:
//
//	data: {"type": "config_updated"}
//	data: {"type": "data_processed", "sheet_name": "Sheet A"}
//	data: {"type": "connected"}
//
// The listener is a small state machine over {disconnected, connecting,
// connected}. Connecting anew always tears down any existing connection
// first, so at most one connection is ever live. A closed or failed stream
// schedules exactly one reconnect after a fixed delay; the timer self-
// cancels if a connection is already live when it fires.
package push

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultReconnectDelay matches the fixed 5-second retry the browser panel
// used.
const DefaultReconnectDelay = 5 * time.Second

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Event is a push notice. Unknown types are logged and ignored so the
// contract can grow without breaking old clients.
type Event struct {
	Type      string `json:"type"`
	SheetName string `json:"sheet_name,omitempty"`
}

const (
	EventConfigUpdated = "config_updated"
	EventDataProcessed = "data_processed"
	EventConnected     = "connected"
)

// Handlers receive dispatched events. Nil handlers are skipped. Handlers
// run on the listener's goroutine; anything slow should hand off.
type Handlers struct {
	// ConfigUpdated fires when the server reports a configuration change;
	// the receiver is expected to trigger a wholesale refresh.
	ConfigUpdated func()
	// DataProcessed fires when a data-processing job completed for the
	// named sheet. Informational only; the cache is not touched.
	DataProcessed func(sheetName string)
	// StateChange fires on every connection state transition.
	StateChange func(State)
}

type Listener struct {
	url      string
	client   *http.Client
	handlers Handlers
	log      *slog.Logger

	// ReconnectDelay may be lowered in tests; zero means the default.
	ReconnectDelay time.Duration

	mu        sync.Mutex
	state     State
	cancel    context.CancelFunc
	reconnect *time.Timer
	closed    bool
	// gen guards against stale connection goroutines mutating state after
	// they have been superseded by a newer Connect.
	gen int
}

// NewListener prepares a listener for serverURL (the backend base URL, not
// the /sse path). It does not connect; call Connect.
func NewListener(serverURL string, handlers Handlers, logger *slog.Logger) *Listener {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listener{
		url:      strings.TrimRight(strings.TrimSpace(serverURL), "/") + "/sse",
		client:   &http.Client{}, // no overall timeout: the stream is long-lived
		handlers: handlers,
		log:      logger,
	}
}

// Connect establishes the stream, first terminating any existing connection
// and cancelling any pending reconnect.
func (l *Listener) Connect() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.stopReconnectLocked()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.gen++
	gen := l.gen
	l.setStateLocked(StateConnecting)
	l.mu.Unlock()

	go l.run(ctx, gen)
}

// Resume re-establishes the stream if, and only if, no connection is live
// or pending. The TUI calls this when the terminal regains focus after
// being backgrounded.
func (l *Listener) Resume() {
	l.mu.Lock()
	if l.closed || l.state != StateDisconnected {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	l.Connect()
}

// Close tears the connection down for good; no reconnect will follow.
func (l *Listener) Close() {
	l.mu.Lock()
	l.closed = true
	l.stopReconnectLocked()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.setStateLocked(StateDisconnected)
	l.mu.Unlock()
}

func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// setStateLocked requires l.mu held.
func (l *Listener) setStateLocked(s State) {
	if l.state == s {
		return
	}
	l.state = s
	if l.handlers.StateChange != nil {
		go l.handlers.StateChange(s)
	}
}

// stopReconnectLocked requires l.mu held.
func (l *Listener) stopReconnectLocked() {
	if l.reconnect != nil {
		l.reconnect.Stop()
		l.reconnect = nil
	}
}

func (l *Listener) run(ctx context.Context, gen int) {
	err := l.stream(ctx, gen)

	l.mu.Lock()
	if gen != l.gen || l.closed {
		// Superseded by a newer connection or closed for good.
		l.mu.Unlock()
		return
	}
	l.setStateLocked(StateDisconnected)
	if err != nil && ctx.Err() == nil {
		l.log.Warn("push channel lost", "error", err)
	} else {
		l.log.Info("push channel closed")
	}
	delay := l.ReconnectDelay
	if delay <= 0 {
		delay = DefaultReconnectDelay
	}
	// Exactly one reconnect attempt per closure.
	l.reconnect = time.AfterFunc(delay, l.reconnectFired)
	l.mu.Unlock()
}

func (l *Listener) reconnectFired() {
	l.mu.Lock()
	l.reconnect = nil
	if l.closed || l.state != StateDisconnected {
		// A live connection exists; the timer self-cancels.
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()
	l.Connect()
}

func (l *Listener) stream(ctx context.Context, gen int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := l.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sse endpoint returned status %d", resp.StatusCode)
	}

	l.mu.Lock()
	if gen != l.gen {
		l.mu.Unlock()
		return nil
	}
	l.setStateLocked(StateConnected)
	l.mu.Unlock()

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		// Only data frames carry payloads; blank separators, comments and
		// other SSE fields are skipped.
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			// A malformed frame is dropped on its own; it must never kill
			// the stream.
			l.log.Debug("skipping malformed push frame", "payload", payload, "error", err)
			continue
		}
		l.dispatch(ev)
	}
	return scanner.Err()
}

func (l *Listener) dispatch(ev Event) {
	switch ev.Type {
	case EventConfigUpdated:
		if l.handlers.ConfigUpdated != nil {
			l.handlers.ConfigUpdated()
		}
	case EventDataProcessed:
		if l.handlers.DataProcessed != nil {
			l.handlers.DataProcessed(ev.SheetName)
		}
	case EventConnected:
		l.log.Info("push channel ready")
	default:
		l.log.Debug("unknown push event type", "type", ev.Type)
	}
}
