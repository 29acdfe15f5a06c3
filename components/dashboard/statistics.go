package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultStatisticsTimeout bounds a single statistics fetch.
const DefaultStatisticsTimeout = 10 * time.Second

// StatisticsFailureMessage is the only failure text the viewer ever sees.
const StatisticsFailureMessage = "Server temporarily unavailable"

const maxBreakdownEntries = 10

var errMissingStatisticsService = errors.New("dashboard: statistics service not configured")

// StatisticsService retrieves the aggregate artisan statistics.
type StatisticsService interface {
	GetStatistics(ctx context.Context) (StatisticsResponse, error)
}

// StatisticsServiceFunc adapts a function into a StatisticsService.
type StatisticsServiceFunc func(ctx context.Context) (StatisticsResponse, error)

// GetStatistics calls f.
func (f StatisticsServiceFunc) GetStatistics(ctx context.Context) (StatisticsResponse, error) {
	return f(ctx)
}

// LoadStatus is the three-way status of the one-shot statistics fetch.
type LoadStatus string

const (
	LoadLoading LoadStatus = "loading"
	LoadReady   LoadStatus = "ready"
	LoadFailed  LoadStatus = "failed"
)

// LoadState is the loader status plus the generic failure message.
type LoadState struct {
	Status  LoadStatus `json:"status"`
	Message string     `json:"message,omitempty"`
}

// StatisticsViewModel holds the three headline figures.
type StatisticsViewModel struct {
	TotalArtists int `json:"total_artists"`
	TotalCrafts  int `json:"total_crafts"`
	TotalStates  int `json:"total_states"`
}

// BreakdownEntry is one bar of a distribution chart.
type BreakdownEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// StatisticsBreakdown holds the top craft and state distributions.
type StatisticsBreakdown struct {
	Crafts []BreakdownEntry `json:"crafts,omitempty"`
	States []BreakdownEntry `json:"states,omitempty"`
}

// Empty reports whether neither distribution has entries.
func (b StatisticsBreakdown) Empty() bool {
	return len(b.Crafts) == 0 && len(b.States) == 0
}

// MapStatistics normalizes a response into the view model. Absent, null or
// zero counts map to 0.
func MapStatistics(resp StatisticsResponse) StatisticsViewModel {
	return StatisticsViewModel{
		TotalArtists: countOrZero(resp.Stats.TotalArtisans),
		TotalCrafts:  countOrZero(resp.Stats.UniqueCrafts),
		TotalStates:  countOrZero(resp.Stats.UniqueStates),
	}
}

// MapBreakdown orders each distribution by count then label and keeps the
// top entries.
func MapBreakdown(resp StatisticsResponse) StatisticsBreakdown {
	return StatisticsBreakdown{
		Crafts: breakdownEntries(resp.Stats.CraftTypes),
		States: breakdownEntries(resp.Stats.States),
	}
}

func countOrZero(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func breakdownEntries(values map[string]int) []BreakdownEntry {
	if len(values) == 0 {
		return nil
	}
	out := make([]BreakdownEntry, 0, len(values))
	for label, count := range values {
		if count < 0 {
			count = 0
		}
		out = append(out, BreakdownEntry{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > maxBreakdownEntries {
		out = out[:maxBreakdownEntries]
	}
	return out
}

// LoaderOptions configures a StatisticsLoader.
type LoaderOptions struct {
	Service   StatisticsService
	Timeout   time.Duration
	Logger    *zap.Logger
	Telemetry Telemetry
	// OnChange fires once, on the terminal transition.
	OnChange func(LoadState)
}

// StatisticsLoader performs one statistics fetch per view mount.
type StatisticsLoader struct {
	opts LoaderOptions
	once sync.Once
	done chan struct{}

	mu        sync.RWMutex
	state     LoadState
	stats     StatisticsViewModel
	breakdown StatisticsBreakdown
}

// NewStatisticsLoader returns a loader in the Loading state.
func NewStatisticsLoader(opts LoaderOptions) *StatisticsLoader {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultStatisticsTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)
	return &StatisticsLoader{
		opts:  opts,
		done:  make(chan struct{}),
		state: LoadState{Status: LoadLoading},
	}
}

// Load starts the fetch in the background. Only the first call has any
// effect; the fetch is never retried.
func (l *StatisticsLoader) Load(ctx context.Context) {
	l.once.Do(func() {
		go l.run(ctx)
	})
}

// Done is closed once the loader reaches Ready or Failed.
func (l *StatisticsLoader) Done() <-chan struct{} {
	return l.done
}

// Snapshot returns the state and values atomically.
func (l *StatisticsLoader) Snapshot() (LoadState, StatisticsViewModel, StatisticsBreakdown) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state, l.stats, l.breakdown
}

// State returns the current load state.
func (l *StatisticsLoader) State() LoadState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

func (l *StatisticsLoader) run(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, l.opts.Timeout)
	defer cancel()

	started := time.Now()
	resp, err := l.fetch(ctx)
	if err != nil {
		l.fail(ctx, err, time.Since(started))
		return
	}
	l.succeed(ctx, resp, time.Since(started))
}

type fetchResult struct {
	resp StatisticsResponse
	err  error
}

func (l *StatisticsLoader) fetch(ctx context.Context) (StatisticsResponse, error) {
	if l.opts.Service == nil {
		return StatisticsResponse{}, errMissingStatisticsService
	}
	results := make(chan fetchResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				results <- fetchResult{err: fmt.Errorf("dashboard: statistics service panic: %v", r)}
			}
		}()
		resp, err := l.opts.Service.GetStatistics(ctx)
		results <- fetchResult{resp: resp, err: err}
	}()
	select {
	case res := <-results:
		return res.resp, res.err
	case <-ctx.Done():
		return StatisticsResponse{}, fmt.Errorf("dashboard: statistics fetch: %w", ctx.Err())
	}
}

func (l *StatisticsLoader) succeed(ctx context.Context, resp StatisticsResponse, elapsed time.Duration) {
	state := LoadState{Status: LoadReady}
	stats := MapStatistics(resp)
	breakdown := MapBreakdown(resp)

	l.mu.Lock()
	l.state = state
	l.stats = stats
	l.breakdown = breakdown
	l.mu.Unlock()

	l.opts.Logger.Debug("statistics loaded",
		zap.Int("total_artists", stats.TotalArtists),
		zap.Duration("elapsed", elapsed),
	)
	l.opts.Telemetry.Record(context.WithoutCancel(ctx), "dashboard.statistics.ready", map[string]any{
		"total_artists": stats.TotalArtists,
		"elapsed_ms":    elapsed.Milliseconds(),
	})
	l.finish(state)
}

func (l *StatisticsLoader) fail(ctx context.Context, err error, elapsed time.Duration) {
	state := LoadState{Status: LoadFailed, Message: StatisticsFailureMessage}

	l.mu.Lock()
	l.state = state
	l.mu.Unlock()

	log := l.opts.Logger.Error
	msg := "failed to load statistics"
	if errors.Is(err, context.Canceled) {
		log = l.opts.Logger.Debug
		msg = "statistics load canceled"
	}
	log(msg, zap.Error(err), zap.Duration("elapsed", elapsed))
	l.opts.Telemetry.Record(context.WithoutCancel(ctx), "dashboard.statistics.failed", map[string]any{
		"error":      err.Error(),
		"elapsed_ms": elapsed.Milliseconds(),
	})
	l.finish(state)
}

func (l *StatisticsLoader) finish(state LoadState) {
	if l.opts.OnChange != nil {
		l.opts.OnChange(state)
	}
	close(l.done)
}
