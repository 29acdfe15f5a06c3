package dashboard

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// DefaultSessionIdleTTL is how long an untouched view stays in memory.
const DefaultSessionIdleTTL = 30 * time.Minute

// ViewOptions configures a single dashboard view.
type ViewOptions struct {
	ID           string
	Language     string
	Translations *TranslationTable
	Loader       LoaderOptions
	Overlay      OverlayOptions
	Now          func() time.Time
}

// View is the state owned by one dashboard page load: the selected language,
// the one-shot statistics loader and the chat overlay.
type View struct {
	id           string
	translations *TranslationTable
	loader       *StatisticsLoader
	overlay      *ChatOverlayController
	now          func() time.Time
	created      time.Time

	mu       sync.RWMutex
	language string
	lastSeen time.Time
	mounted  bool
	closed   bool
	cancel   context.CancelFunc
}

// ViewSnapshot is a consistent copy of a view's state.
type ViewSnapshot struct {
	ID        string              `json:"id"`
	Language  string              `json:"language"`
	Load      LoadState           `json:"load"`
	Stats     StatisticsViewModel `json:"stats"`
	Breakdown StatisticsBreakdown `json:"breakdown"`
	Overlay   ChatOverlayState    `json:"overlay"`
	CreatedAt time.Time           `json:"created_at"`
	LastSeen  time.Time           `json:"last_seen"`
}

// NewView builds an unmounted view.
func NewView(opts ViewOptions) *View {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	now := opts.Now()
	v := &View{
		id:           opts.ID,
		translations: opts.Translations,
		loader:       NewStatisticsLoader(opts.Loader),
		overlay:      NewChatOverlayController(opts.Overlay),
		now:          opts.Now,
		created:      now,
		lastSeen:     now,
	}
	v.language = v.resolveLanguage(opts.Language)
	return v
}

// ID returns the view identifier.
func (v *View) ID() string { return v.id }

// Overlay returns the chat overlay controller.
func (v *View) Overlay() *ChatOverlayController { return v.overlay }

// Loader returns the statistics loader.
func (v *View) Loader() *StatisticsLoader { return v.loader }

// Mount starts the statistics load. The load outlives the request that
// mounted the view and is cancelled by Unmount.
func (v *View) Mount(ctx context.Context) {
	v.mu.Lock()
	if v.mounted || v.closed {
		v.mu.Unlock()
		return
	}
	loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	v.cancel = cancel
	v.mounted = true
	v.mu.Unlock()
	v.loader.Load(loadCtx)
}

// Unmount stops pending overlay transitions and cancels an in-flight load.
// It reports false when the view was already unmounted.
func (v *View) Unmount() bool {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return false
	}
	v.closed = true
	cancel := v.cancel
	v.mu.Unlock()

	v.overlay.Stop()
	if cancel != nil {
		cancel()
	}
	return true
}

// Closed reports whether the view was unmounted.
func (v *View) Closed() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.closed
}

// Language returns the selected language code.
func (v *View) Language() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.language
}

// SetLanguage selects a language. Unknown codes select the default language.
// It returns the selected code and whether it changed.
func (v *View) SetLanguage(code string) (string, bool) {
	resolved := v.resolveLanguage(code)
	v.mu.Lock()
	defer v.mu.Unlock()
	changed := v.language != resolved
	v.language = resolved
	return resolved, changed
}

// Bundle resolves the display strings for the selected language.
func (v *View) Bundle() TranslationBundle {
	if v.translations == nil {
		return TranslationBundle{Code: v.Language()}
	}
	return v.translations.Resolve(v.Language())
}

// Touch records activity for idle expiry.
func (v *View) Touch() {
	v.mu.Lock()
	v.lastSeen = v.now()
	v.mu.Unlock()
}

// LastSeen returns the time of the last recorded activity.
func (v *View) LastSeen() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.lastSeen
}

// Snapshot copies the view state.
func (v *View) Snapshot() ViewSnapshot {
	load, stats, breakdown := v.loader.Snapshot()
	v.mu.RLock()
	defer v.mu.RUnlock()
	return ViewSnapshot{
		ID:        v.id,
		Language:  v.language,
		Load:      load,
		Stats:     stats,
		Breakdown: breakdown,
		Overlay:   v.overlay.State(),
		CreatedAt: v.created,
		LastSeen:  v.lastSeen,
	}
}

func (v *View) resolveLanguage(code string) string {
	if v.translations == nil {
		if code = normalizeLocale(code); code != "" {
			return code
		}
		return DefaultLanguage
	}
	return v.translations.Resolve(code).Code
}

var errNilView = errors.New("dashboard: view is nil")

// SessionStore keeps mounted views in memory. Nothing is persisted.
type SessionStore interface {
	Put(view *View) error
	Get(id string) (*View, bool)
	Delete(id string) (*View, bool)
	Expired(now time.Time) []*View
	Len() int
}

// InMemorySessionStore is a concurrency-safe SessionStore with idle expiry.
type InMemorySessionStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	views map[string]*View
}

// NewInMemorySessionStore creates an empty store. A non-positive TTL uses
// DefaultSessionIdleTTL.
func NewInMemorySessionStore(ttl time.Duration) *InMemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionIdleTTL
	}
	return &InMemorySessionStore{
		ttl:   ttl,
		views: make(map[string]*View),
	}
}

// Put stores the view under its id.
func (s *InMemorySessionStore) Put(view *View) error {
	if view == nil {
		return errNilView
	}
	if view.ID() == "" {
		return ErrViewIDRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.views[view.ID()] = view
	return nil
}

// Get looks up a view.
func (s *InMemorySessionStore) Get(id string) (*View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	view, ok := s.views[id]
	return view, ok
}

// Delete removes and returns a view.
func (s *InMemorySessionStore) Delete(id string) (*View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	view, ok := s.views[id]
	if ok {
		delete(s.views, id)
	}
	return view, ok
}

// Expired removes the views idle for longer than the TTL and returns them
// ordered by id.
func (s *InMemorySessionStore) Expired(now time.Time) []*View {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*View
	for id, view := range s.views {
		if now.Sub(view.LastSeen()) > s.ttl {
			delete(s.views, id)
			out = append(out, view)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Len returns the number of stored views.
func (s *InMemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}
