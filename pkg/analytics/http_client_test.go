package analytics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	dashboard "github.com/goliatone/go-kalakaart/components/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHTTPClientGetStatistics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != StatisticsPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected auth header, got %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"stats":{"total_artisans":1234,"unique_crafts":56,"unique_states":28,"craft_types":{"Pottery":10}},"message":"ok"}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL + "/", APIKey: "secret"})
	require.NoError(t, err)
	resp, err := client.GetStatistics(context.Background())
	require.NoError(t, err)
	require.NotNil(t, resp.Stats.TotalArtisans)
	assert.Equal(t, 1234, *resp.Stats.TotalArtisans)
	assert.Equal(t, 10, resp.Stats.CraftTypes["Pottery"])
	assert.Equal(t, "ok", resp.Message)
}

func TestHTTPClientRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
	require.NoError(t, err)
	_, err = client.GetStatistics(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remote error 502")
}

func TestHTTPClientMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"stats":{"total_artisans":"many"}}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL})
	require.NoError(t, err)
	_, err = client.GetStatistics(context.Background())
	assert.ErrorIs(t, err, dashboard.ErrMalformedStatistics)
}

func TestHTTPClientRequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(HTTPConfig{})
	assert.Error(t, err)
}

func TestMockClient(t *testing.T) {
	client := NewMockClient(DemoData())
	resp, err := client.GetStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1234, *resp.Stats.TotalArtisans)

	resp.Stats.CraftTypes["Pottery"] = 0
	again, err := client.GetStatistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 310, again.Stats.CraftTypes["Pottery"])
	assert.Equal(t, 2, client.Calls())

	boom := errors.New("boom")
	client.SetData(MockData{Err: boom})
	_, err = client.GetStatistics(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestMockClientDelayHonoursContext(t *testing.T) {
	client := NewMockClient(MockData{Delay: time.Hour})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := client.GetStatistics(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStatisticsServiceLogsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	boom := errors.New("boom")
	service := NewStatisticsService(NewMockClient(MockData{Err: boom}), zap.New(core))

	_, err := service.GetStatistics(context.Background())
	assert.ErrorIs(t, err, boom)
	require.Equal(t, 1, logs.FilterMessage("statistics fetch failed").Len())
}
