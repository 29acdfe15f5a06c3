package dashboard

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// BroadcastHook fans out view events to in-process subscribers. Slow
// subscribers miss events instead of blocking publishers.
type BroadcastHook struct {
	mu   sync.RWMutex
	subs map[int]subscription
	next int
}

type subscription struct {
	viewID string
	ch     chan ViewEvent
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{
		subs: make(map[int]subscription),
	}
}

// ViewUpdated satisfies the RefreshHook interface and broadcasts events.
func (h *BroadcastHook) ViewUpdated(ctx context.Context, event ViewEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.viewID != "" && sub.viewID != event.ViewID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of every view event and a cancel func.
func (h *BroadcastHook) Subscribe() (<-chan ViewEvent, func()) {
	return h.SubscribeView("")
}

// SubscribeView returns a channel of events for one view. An empty id
// subscribes to all views.
func (h *BroadcastHook) SubscribeView(viewID string) (<-chan ViewEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan ViewEvent, subscriberBuffer)
	h.subs[id] = subscription{viewID: viewID, ch: ch}
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub.ch)
			}
		})
	}
	return ch, cancel
}

// Subscribers returns the number of active subscriptions.
func (h *BroadcastHook) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Stream forwards events for viewID to send until ctx is done, the
// subscription closes or send fails.
func (h *BroadcastHook) Stream(ctx context.Context, viewID string, send func(ViewEvent) error) error {
	events, cancel := h.SubscribeView(viewID)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := send(event); err != nil {
				return err
			}
			if event.Reason == ReasonViewUnmount {
				return nil
			}
		}
	}
}
