package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/mellyssy/feedwatch/internal/events"
)

// Broker streams domain events to SSE clients. It implements events.Sink, so
// the hub delivers batches to it like to any other sink.
//
// Concurrency model: a single internal goroutine owns the client set; public
// methods talk to it through channels, so no mutexes are needed.
type Broker struct {
	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan events.Event

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a Broker and starts its event loop.
func NewBroker() *Broker {
	b := &Broker{
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan events.Event, 256),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})

	broadcast := func(evt events.Event) {
		payload, err := json.Marshal(evt)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", evt.Type, payload))
		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking the loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return
		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}
		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}
		case evt := <-b.publishCh:
			broadcast(evt)
		}
	}
}

// Consume implements events.Sink by broadcasting each event in the batch.
func (b *Broker) Consume(ctx context.Context, batch []events.Event) error {
	if b.closed.Load() {
		return nil
	}
	for _, evt := range batch {
		select {
		case b.publishCh <- evt:
		case <-b.stopCh:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close stops the broker loop and disconnects all clients.
func (b *Broker) Close(ctx context.Context) error {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	select {
	case <-b.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// subscribe registers a client channel with the loop.
func (b *Broker) subscribe() (chan []byte, bool) {
	ch := make(chan []byte, 64)
	select {
	case b.subscribeCh <- ch:
		return ch, true
	case <-b.stopCh:
		return nil, false
	}
}

func (b *Broker) unsubscribe(ch chan []byte) {
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopCh:
	}
}

// ServeHTTP streams events to one SSE client until it disconnects or the
// broker shuts down.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	ch, ok := b.subscribe()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "event stream shutting down")
		return
	}
	defer b.unsubscribe(ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-ch:
			if !open {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
