package push

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeFrame emits one SSE data frame and flushes it to the client.
func writeFrame(w http.ResponseWriter, payload string) {
	fmt.Fprintf(w, "data: %s\n\n", payload)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func sseHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func TestListener_DispatchesEventsAndSkipsMalformedFrames(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sseHeaders(w)
		writeFrame(w, `{"type": "connected"}`)
		writeFrame(w, `{not json at all`)
		writeFrame(w, `{"type": "data_processed", "sheet_name": "Sheet A"}`)
		writeFrame(w, `{"type": "config_updated"}`)
		<-r.Context().Done()
	}))
	defer srv.Close()

	processed := make(chan string, 4)
	updated := make(chan struct{}, 4)
	l := NewListener(srv.URL, Handlers{
		ConfigUpdated: func() { updated <- struct{}{} },
		DataProcessed: func(name string) { processed <- name },
	}, discardLogger())
	defer l.Close()
	l.Connect()

	select {
	case name := <-processed:
		if name != "Sheet A" {
			t.Fatalf("DataProcessed sheet = %q, want Sheet A", name)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("DataProcessed never fired")
	}
	select {
	case <-updated:
	case <-time.After(2 * time.Second):
		t.Fatalf("ConfigUpdated never fired (malformed frame killed the stream?)")
	}
	// The malformed frame produced no extra dispatches.
	select {
	case name := <-processed:
		t.Fatalf("unexpected extra DataProcessed %q", name)
	default:
	}
}

func TestListener_SchedulesSingleReconnectAfterDelay(t *testing.T) {
	t.Parallel()

	var conns atomic.Int32
	connTimes := make(chan time.Time, 8)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		connTimes <- time.Now()
		n := conns.Add(1)
		sseHeaders(w)
		if n == 1 {
			// Drop the first connection immediately to force a reconnect.
			return
		}
		writeFrame(w, `{"type": "connected"}`)
		<-r.Context().Done()
	}))
	defer srv.Close()

	l := NewListener(srv.URL, Handlers{}, discardLogger())
	l.ReconnectDelay = 100 * time.Millisecond
	defer l.Close()
	l.Connect()

	var first, second time.Time
	select {
	case first = <-connTimes:
	case <-time.After(2 * time.Second):
		t.Fatalf("initial connection never arrived")
	}
	select {
	case second = <-connTimes:
	case <-time.After(2 * time.Second):
		t.Fatalf("reconnect never arrived")
	}
	if gap := second.Sub(first); gap < l.ReconnectDelay {
		t.Fatalf("reconnected after %v, sooner than the %v delay", gap, l.ReconnectDelay)
	}

	// The second connection is held open, so no further attempts follow.
	select {
	case <-connTimes:
		t.Fatalf("unexpected third connection while one is live")
	case <-time.After(4 * l.ReconnectDelay):
	}
	if l.State() != StateConnected {
		t.Fatalf("State = %v after reconnect, want connected", l.State())
	}
}

func TestListener_AtMostOneLiveConnection(t *testing.T) {
	t.Parallel()

	var active atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		active.Add(1)
		defer active.Add(-1)
		sseHeaders(w)
		writeFrame(w, `{"type": "connected"}`)
		<-r.Context().Done()
	}))
	defer srv.Close()

	l := NewListener(srv.URL, Handlers{}, discardLogger())
	defer l.Close()

	l.Connect()
	l.Connect()
	l.Connect()

	// Wait for the dust to settle: exactly one stream must remain.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if active.Load() == 1 && l.State() == StateConnected {
			// Hold for a moment to make sure no stray goroutine reconnects.
			time.Sleep(100 * time.Millisecond)
			if n := active.Load(); n != 1 {
				t.Fatalf("active connections = %d, want 1", n)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("never settled at one live connection (active=%d, state=%v)", active.Load(), l.State())
}

func TestListener_ResumeIsNoOpWhileConnected(t *testing.T) {
	t.Parallel()

	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conns.Add(1)
		sseHeaders(w)
		writeFrame(w, `{"type": "connected"}`)
		<-r.Context().Done()
	}))
	defer srv.Close()

	l := NewListener(srv.URL, Handlers{}, discardLogger())
	defer l.Close()
	l.Connect()

	deadline := time.Now().Add(2 * time.Second)
	for l.State() != StateConnected && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if l.State() != StateConnected {
		t.Fatalf("never connected")
	}

	l.Resume()
	time.Sleep(100 * time.Millisecond)
	if n := conns.Load(); n != 1 {
		t.Fatalf("Resume opened a duplicate connection (%d total)", n)
	}
}

func TestListener_CloseCancelsPendingReconnect(t *testing.T) {
	t.Parallel()

	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conns.Add(1)
		sseHeaders(w)
		// Drop every connection immediately.
	}))
	defer srv.Close()

	l := NewListener(srv.URL, Handlers{}, discardLogger())
	l.ReconnectDelay = 100 * time.Millisecond
	l.Connect()

	// Let the first connection come and go, then close before the
	// reconnect timer fires.
	deadline := time.Now().Add(2 * time.Second)
	for conns.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	for l.State() != StateDisconnected && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	l.Close()

	time.Sleep(4 * l.ReconnectDelay)
	if n := conns.Load(); n != 1 {
		t.Fatalf("connections after Close = %d, want 1", n)
	}
}

func TestListener_ResumeReconnectsWhenDisconnected(t *testing.T) {
	t.Parallel()

	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := conns.Add(1)
		sseHeaders(w)
		if n == 1 {
			return
		}
		writeFrame(w, `{"type": "connected"}`)
		<-r.Context().Done()
	}))
	defer srv.Close()

	l := NewListener(srv.URL, Handlers{}, discardLogger())
	// A long delay keeps the scheduled reconnect from racing Resume.
	l.ReconnectDelay = time.Hour
	defer l.Close()
	l.Connect()

	deadline := time.Now().Add(2 * time.Second)
	for !(conns.Load() >= 1 && l.State() == StateDisconnected) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if l.State() != StateDisconnected {
		t.Fatalf("never observed the dropped connection")
	}

	// Foreground-visibility regained: Resume must connect immediately.
	l.Resume()
	deadline = time.Now().Add(2 * time.Second)
	for l.State() != StateConnected && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if l.State() != StateConnected {
		t.Fatalf("Resume did not re-establish the connection")
	}
	if n := conns.Load(); n != 2 {
		t.Fatalf("connections = %d, want 2", n)
	}
}
