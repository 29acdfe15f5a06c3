package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrViewNotFound is returned for unknown or expired view ids.
	ErrViewNotFound = errors.New("dashboard: view not found")
	// ErrViewIDRequired is returned when a call omits the view id.
	ErrViewIDRequired = errors.New("dashboard: view id is required")

	errMissingTranslations = errors.New("dashboard: translation table not configured")
)

// Options configures the dashboard Service. Every collaborator is provided via
// interface so applications can swap implementations.
type Options struct {
	Translations      *TranslationTable
	Statistics        StatisticsService
	StatisticsTimeout time.Duration
	Assistant         AssistantWidget
	Charts            ChartRenderer
	// ChartCache is pruned by RunSweeper alongside idle views.
	ChartCache        *ChartCache
	Sessions          SessionStore
	RefreshHook       RefreshHook
	Telemetry         Telemetry
	Logger            *zap.Logger
	Overlay           OverlayOptions
	NewID             func() string
	Now               func() time.Time
}

// Service owns the dashboard views and applies user intents to them.
type Service struct {
	opts Options
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) (*Service, error) {
	if opts.Translations == nil {
		return nil, errMissingTranslations
	}
	if opts.Sessions == nil {
		opts.Sessions = NewInMemorySessionStore(DefaultSessionIdleTTL)
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Overlay.ExitDelay == 0 {
		opts.Overlay.ExitDelay = DefaultOverlayExitDelay
	}
	if opts.Overlay.EnterDelay == 0 {
		opts.Overlay.EnterDelay = DefaultOverlayEnterDelay
	}
	opts.Assistant = normalizeAssistant(opts.Assistant)
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &Service{opts: opts}, nil
}

// Translations returns the translation table used by the service.
func (s *Service) Translations() *TranslationTable {
	return s.opts.Translations
}

// Open mounts a new view in the given language and starts its statistics
// load.
func (s *Service) Open(ctx context.Context, lang string) (*View, error) {
	id := s.opts.NewID()
	if id == "" {
		return nil, ErrViewIDRequired
	}
	var view *View
	overlay := s.opts.Overlay
	overlay.OnChange = func(reason string, _ ChatOverlayState) {
		s.publish(context.Background(), view, reason)
	}
	view = NewView(ViewOptions{
		ID:           id,
		Language:     lang,
		Translations: s.opts.Translations,
		Now:          s.opts.Now,
		Overlay:      overlay,
		Loader: LoaderOptions{
			Service:   s.opts.Statistics,
			Timeout:   s.opts.StatisticsTimeout,
			Logger:    s.opts.Logger.With(zap.String("view_id", id)),
			Telemetry: s.opts.Telemetry,
			OnChange: func(state LoadState) {
				reason := ReasonStatisticsReady
				if state.Status == LoadFailed {
					reason = ReasonStatisticsFailed
				}
				s.publish(context.Background(), view, reason)
			},
		},
	})
	if err := s.opts.Sessions.Put(view); err != nil {
		return nil, err
	}
	view.Mount(ctx)
	s.recordTelemetry(ctx, "dashboard.view.open", map[string]any{
		"view_id":  id,
		"language": view.Language(),
	})
	s.publish(ctx, view, ReasonViewMount)
	return view, nil
}

// View returns a mounted view and records activity on it.
func (s *Service) View(ctx context.Context, id string) (*View, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrViewIDRequired
	}
	view, ok := s.opts.Sessions.Get(id)
	if !ok || view.Closed() {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}
	view.Touch()
	return view, nil
}

// ToggleChat flips the overlay open intent.
func (s *Service) ToggleChat(ctx context.Context, id string) (ChatOverlayState, error) {
	view, err := s.View(ctx, id)
	if err != nil {
		return ChatOverlayState{}, err
	}
	state := view.Overlay().ToggleOpen()
	s.recordTelemetry(ctx, "dashboard.chat.toggle", map[string]any{
		"view_id": id,
		"open":    state.OpenIntent,
	})
	return state, nil
}

// CloseChat closes the overlay when it is open.
func (s *Service) CloseChat(ctx context.Context, id string) (ChatOverlayState, error) {
	view, err := s.View(ctx, id)
	if err != nil {
		return ChatOverlayState{}, err
	}
	state := view.Overlay().Close()
	s.recordTelemetry(ctx, "dashboard.chat.close", map[string]any{"view_id": id})
	return state, nil
}

// SetMaximized stores the overlay maximized flag.
func (s *Service) SetMaximized(ctx context.Context, id string, maximized bool) (ChatOverlayState, error) {
	view, err := s.View(ctx, id)
	if err != nil {
		return ChatOverlayState{}, err
	}
	state := view.Overlay().SetMaximized(maximized)
	s.recordTelemetry(ctx, "dashboard.chat.maximize", map[string]any{
		"view_id":   id,
		"maximized": maximized,
	})
	return state, nil
}

// SelectLanguage switches the view language. Unknown codes select the
// default language. It never re-triggers the statistics load.
func (s *Service) SelectLanguage(ctx context.Context, id, lang string) (string, error) {
	view, err := s.View(ctx, id)
	if err != nil {
		return "", err
	}
	code, changed := view.SetLanguage(lang)
	if changed {
		s.recordTelemetry(ctx, "dashboard.language.change", map[string]any{
			"view_id":   id,
			"language":  code,
			"requested": lang,
		})
		s.publish(ctx, view, ReasonLanguageChange)
	}
	return code, nil
}

// Unmount drops the view and cancels its pending work.
func (s *Service) Unmount(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrViewIDRequired
	}
	view, ok := s.opts.Sessions.Delete(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}
	s.unmount(ctx, view, "request")
	return nil
}

// Sweep unmounts views that have been idle longer than the session TTL.
func (s *Service) Sweep(ctx context.Context) int {
	expired := s.opts.Sessions.Expired(s.opts.Now())
	for _, view := range expired {
		s.unmount(ctx, view, "idle")
	}
	return len(expired)
}

// RunSweeper expires idle views and stale chart renders every interval
// until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) sweep(ctx context.Context) (views, charts int) {
	if views = s.Sweep(ctx); views > 0 {
		s.opts.Logger.Info("expired idle dashboard views", zap.Int("count", views))
	}
	if charts = s.opts.ChartCache.Prune(); charts > 0 {
		s.opts.Logger.Debug("pruned cached charts", zap.Int("count", charts))
	}
	return views, charts
}

// Compose builds the view model for a mounted view.
func (s *Service) Compose(ctx context.Context, id string) (ViewModel, error) {
	view, err := s.View(ctx, id)
	if err != nil {
		return ViewModel{}, err
	}
	return s.compose(ctx, view), nil
}

func (s *Service) compose(ctx context.Context, view *View) ViewModel {
	snap := view.Snapshot()
	bundle := s.opts.Translations.Resolve(snap.Language)

	var assistant WidgetData
	if snap.Overlay.Mounted {
		props := view.Overlay().WidgetProps()
		props.ViewID = snap.ID
		props.Language = bundle.Code
		data, err := s.opts.Assistant.Mount(ctx, props)
		if err != nil {
			s.opts.Logger.Warn("assistant widget failed to mount",
				zap.String("view_id", snap.ID),
				zap.Error(err),
			)
			s.recordTelemetry(ctx, "dashboard.assistant.error", map[string]any{
				"view_id": snap.ID,
				"error":   err.Error(),
			})
		} else {
			assistant = data
		}
	}

	return ComposeView(ViewInputs{
		ViewID:    snap.ID,
		Bundle:    bundle,
		Languages: s.opts.Translations.Options(),
		Load:      snap.Load,
		Stats:     snap.Stats,
		Overlay:   snap.Overlay,
		Assistant: assistant,
		Charts:    s.renderCharts(ctx, snap, bundle),
	})
}

func (s *Service) renderCharts(ctx context.Context, snap ViewSnapshot, bundle TranslationBundle) []BreakdownChart {
	if s.opts.Charts == nil || snap.Load.Status != LoadReady || snap.Breakdown.Empty() {
		return nil
	}
	breakdowns := []struct {
		key     string
		title   string
		entries []BreakdownEntry
	}{
		{"crafts", bundle.BreakdownCrafts, snap.Breakdown.Crafts},
		{"states", bundle.BreakdownStates, snap.Breakdown.States},
	}
	var out []BreakdownChart
	for _, b := range breakdowns {
		if len(b.entries) == 0 {
			continue
		}
		chart, err := s.opts.Charts.RenderBreakdown(b.key, b.title, b.entries)
		if err != nil {
			s.opts.Logger.Warn("breakdown chart failed to render",
				zap.String("chart", b.key),
				zap.Error(err),
			)
			s.recordTelemetry(ctx, "dashboard.chart.error", map[string]any{
				"chart": b.key,
				"error": err.Error(),
			})
			continue
		}
		out = append(out, chart)
	}
	return out
}

func (s *Service) unmount(ctx context.Context, view *View, cause string) {
	if !view.Unmount() {
		return
	}
	s.recordTelemetry(ctx, "dashboard.view.unmount", map[string]any{
		"view_id": view.ID(),
		"cause":   cause,
	})
	s.publish(ctx, view, ReasonViewUnmount)
}

func (s *Service) publish(ctx context.Context, view *View, reason string) {
	if view == nil {
		return
	}
	snap := view.Snapshot()
	event := ViewEvent{
		ViewID:     snap.ID,
		Reason:     reason,
		Language:   snap.Language,
		Overlay:    snap.Overlay,
		Load:       snap.Load,
		OccurredAt: s.opts.Now(),
	}
	if err := s.opts.RefreshHook.ViewUpdated(ctx, event); err != nil {
		s.opts.Logger.Warn("refresh hook failed",
			zap.String("view_id", snap.ID),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}
