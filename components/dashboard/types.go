package dashboard

import (
	"context"
	"time"
)

// View event reasons. Overlay reasons are defined next to the controller.
const (
	ReasonStatisticsReady  = "statistics.ready"
	ReasonStatisticsFailed = "statistics.failed"
	ReasonLanguageChange   = "language.change"
	ReasonViewMount        = "view.mount"
	ReasonViewUnmount      = "view.unmount"
)

// WidgetData is the payload handed to templates for an embedded widget.
type WidgetData map[string]any

// RefreshHook notifies transports (REST/WebSocket) about view changes.
type RefreshHook interface {
	ViewUpdated(ctx context.Context, event ViewEvent) error
}

// ViewEvent describes a state change of one dashboard view.
type ViewEvent struct {
	ViewID     string           `json:"view_id"`
	Reason     string           `json:"reason"`
	Language   string           `json:"language"`
	Overlay    ChatOverlayState `json:"overlay"`
	Load       LoadState        `json:"load"`
	OccurredAt time.Time        `json:"occurred_at"`
}

type noopRefreshHook struct{}

func (noopRefreshHook) ViewUpdated(context.Context, ViewEvent) error {
	return nil
}

// RefreshHooks fans a single event out to several hooks in order.
type RefreshHooks []RefreshHook

// ViewUpdated calls every hook and returns the first error.
func (h RefreshHooks) ViewUpdated(ctx context.Context, event ViewEvent) error {
	var first error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.ViewUpdated(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
