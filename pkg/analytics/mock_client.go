package analytics

import (
	"context"
	"sync"
	"time"

	dashboard "github.com/goliatone/go-kalakaart/components/dashboard"
)

// MockData seeds deterministic statistics responses for tests or local demos.
type MockData struct {
	Response dashboard.StatisticsResponse
	Err      error
	Delay    time.Duration
}

// MockClient implements StatisticsClient using in-memory fixtures.
type MockClient struct {
	mu    sync.RWMutex
	data  MockData
	calls int
}

// NewMockClient builds a mock statistics client from the provided fixtures.
func NewMockClient(data MockData) *MockClient {
	return &MockClient{data: data}
}

var _ StatisticsClient = (*MockClient)(nil)

// GetStatistics returns the configured response after the configured delay.
// It honours ctx cancellation while waiting.
func (c *MockClient) GetStatistics(ctx context.Context) (dashboard.StatisticsResponse, error) {
	c.mu.Lock()
	c.calls++
	data := c.data
	c.mu.Unlock()

	if data.Delay > 0 {
		timer := time.NewTimer(data.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return dashboard.StatisticsResponse{}, ctx.Err()
		case <-timer.C:
		}
	}
	if data.Err != nil {
		return dashboard.StatisticsResponse{}, data.Err
	}
	return cloneResponse(data.Response), nil
}

// SetData swaps the fixtures.
func (c *MockClient) SetData(data MockData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = data
}

// Calls returns how many times GetStatistics ran.
func (c *MockClient) Calls() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.calls
}

// DemoData returns a small fixture set for local runs without a data service.
func DemoData() MockData {
	total, crafts, states := 1234, 56, 28
	return MockData{Response: dashboard.StatisticsResponse{
		Stats: dashboard.StatisticsPayload{
			TotalArtisans: &total,
			UniqueCrafts:  &crafts,
			UniqueStates:  &states,
			CraftTypes: map[string]int{
				"Pottery":    310,
				"Weaving":    270,
				"Embroidery": 190,
				"Woodwork":   120,
			},
			States: map[string]int{
				"Rajasthan":     260,
				"Gujarat":       210,
				"Uttar Pradesh": 180,
				"West Bengal":   150,
			},
		},
		Message: "demo statistics",
	}}
}

func cloneResponse(in dashboard.StatisticsResponse) dashboard.StatisticsResponse {
	out := in
	out.Stats.TotalArtisans = cloneInt(in.Stats.TotalArtisans)
	out.Stats.UniqueCrafts = cloneInt(in.Stats.UniqueCrafts)
	out.Stats.UniqueStates = cloneInt(in.Stats.UniqueStates)
	out.Stats.CraftTypes = cloneCounts(in.Stats.CraftTypes)
	out.Stats.States = cloneCounts(in.Stats.States)
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneCounts(in map[string]int) map[string]int {
	if in == nil {
		return nil
	}
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
