package queries

import (
	"context"
	"errors"
	"testing"

	dashboard "github.com/goliatone/go-kalakaart/components/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubComposeService struct {
	calls int
	ids   []string
	err   error
}

func (s *stubComposeService) Compose(_ context.Context, id string) (dashboard.ViewModel, error) {
	s.calls++
	s.ids = append(s.ids, id)
	return dashboard.ViewModel{ViewID: id}, s.err
}

func TestViewQuery(t *testing.T) {
	service := &stubComposeService{}
	query := NewViewQuery(service)
	vm, err := query.Query(context.Background(), ViewInput{ViewID: "v1"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if service.calls != 1 {
		t.Fatalf("expected 1 call, got %d", service.calls)
	}
	assert.Equal(t, "v1", vm.ViewID)
}

func TestViewQueryPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewViewQuery(&stubComposeService{err: boom}).Query(context.Background(), ViewInput{ViewID: "v1"})
	assert.ErrorIs(t, err, boom)
}

func newService(t *testing.T) *dashboard.Service {
	t.Helper()
	table, err := dashboard.NewDefaultTranslationTable()
	require.NoError(t, err)
	service, err := dashboard.NewService(dashboard.Options{
		Translations: table,
		NewID:        func() string { return "view-1" },
	})
	require.NoError(t, err)
	return service
}

func TestOpenViewQuery(t *testing.T) {
	service := newService(t)
	vm, err := NewOpenViewQuery(service).Query(context.Background(), OpenViewInput{Lang: "hi"})
	require.NoError(t, err)
	defer service.Unmount(context.Background(), vm.ViewID)

	assert.Equal(t, "view-1", vm.ViewID)
	assert.Equal(t, "hi", vm.Bundle.Code)
}

func TestViewStateQuery(t *testing.T) {
	service := newService(t)
	view, err := service.Open(context.Background(), "en")
	require.NoError(t, err)
	defer service.Unmount(context.Background(), view.ID())

	snap, err := NewViewStateQuery(service).Query(context.Background(), ViewInput{ViewID: view.ID()})
	require.NoError(t, err)
	assert.Equal(t, "en", snap.Language)
	assert.False(t, snap.Overlay.Mounted)

	_, err = NewViewStateQuery(service).Query(context.Background(), ViewInput{ViewID: "missing"})
	assert.ErrorIs(t, err, dashboard.ErrViewNotFound)
}
