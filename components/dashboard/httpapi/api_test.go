package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-kalakaart/components/dashboard"
	"github.com/goliatone/go-kalakaart/components/dashboard/commands"
	"github.com/goliatone/go-kalakaart/components/dashboard/queries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(ctx context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

type stubStateQuery struct {
	snap dashboard.ViewSnapshot
	err  error
}

func (s *stubStateQuery) Query(_ context.Context, input queries.ViewInput) (dashboard.ViewSnapshot, error) {
	snap := s.snap
	snap.ID = input.ViewID
	return snap, s.err
}

func TestHandleToggleChat(t *testing.T) {
	toggle := &stubCommander[commands.ToggleChatInput]{}
	state := &stubStateQuery{snap: dashboard.ViewSnapshot{
		Language: "en",
		Overlay:  dashboard.ChatOverlayState{OpenIntent: true, Mounted: true},
	}}
	api := &Handlers{API: &CommandExecutor{Toggle: toggle}, State: state}

	req := httptest.NewRequest(http.MethodPost, "/dashboard/views/v1/chat/toggle", nil)
	rec := httptest.NewRecorder()
	api.HandleToggleChat(rec, req, "v1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "v1", toggle.last.ViewID)

	var resp StateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "v1", resp.ViewID)
	assert.True(t, resp.Overlay.Mounted)
	assert.Equal(t, dashboard.ChatOverlayState{OpenIntent: true, Mounted: true}.Phase(), resp.Phase)
}

func TestHandleSetMaximized(t *testing.T) {
	maximize := &stubCommander[commands.SetMaximizedInput]{}
	api := &Handlers{API: &CommandExecutor{Maximize: maximize}}

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"maximized":true}`))
	rec := httptest.NewRecorder()
	api.HandleSetMaximized(rec, req, "v1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, commands.SetMaximizedInput{ViewID: "v1", Maximized: true}, maximize.last)
}

func TestHandleSetMaximizedRejectsBadJSON(t *testing.T) {
	maximize := &stubCommander[commands.SetMaximizedInput]{}
	api := &Handlers{API: &CommandExecutor{Maximize: maximize}}

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{`))
	rec := httptest.NewRecorder()
	api.HandleSetMaximized(rec, req, "v1")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, maximize.calls)
}

func TestHandleSelectLanguage(t *testing.T) {
	language := &stubCommander[commands.SelectLanguageInput]{}
	api := &Handlers{API: &CommandExecutor{Language: language}}

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"lang":"hi"}`))
	rec := httptest.NewRecorder()
	api.HandleSelectLanguage(rec, req, "v1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hi", language.last.Lang)
}

func TestHandleUnmount(t *testing.T) {
	remove := &stubCommander[commands.UnmountViewInput]{}
	api := &Handlers{API: &CommandExecutor{Remove: remove}}

	req := httptest.NewRequest(http.MethodDelete, "/dashboard/views/v1", nil)
	rec := httptest.NewRecorder()
	api.HandleUnmount(rec, req, "v1")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "v1", remove.last.ViewID)
}

func TestHandleCloseChatNotFound(t *testing.T) {
	closeCmd := &stubCommander[commands.CloseChatInput]{err: fmt.Errorf("%w: v9", dashboard.ErrViewNotFound)}
	api := &Handlers{API: &CommandExecutor{Close: closeCmd}}

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	rec := httptest.NewRecorder()
	api.HandleCloseChat(rec, req, "v9")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestHandleViewStateError(t *testing.T) {
	api := &Handlers{State: &stubStateQuery{err: dashboard.ErrViewIDRequired}}
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()
	api.HandleViewState(rec, req, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, StatusFor(nil))
	assert.Equal(t, http.StatusNotFound, StatusFor(fmt.Errorf("wrap: %w", dashboard.ErrViewNotFound)))
	assert.Equal(t, http.StatusBadRequest, StatusFor(dashboard.ErrViewIDRequired))
	assert.Equal(t, http.StatusBadRequest, StatusFor(errors.Join(ErrInvalidPayload, errors.New("eof"))))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}

func TestDecodePayloads(t *testing.T) {
	m, err := DecodeMaximize([]byte(`{"maximized":true}`))
	require.NoError(t, err)
	assert.True(t, m.Maximized)

	_, err = DecodeLanguage([]byte(`nope`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestCommandExecutorRequiresCommander(t *testing.T) {
	err := (&CommandExecutor{}).ToggleChat(context.Background(), commands.ToggleChatInput{ViewID: "v1"})
	assert.Error(t, err)
}

func TestCommandExecutorAgainstService(t *testing.T) {
	table, err := dashboard.NewDefaultTranslationTable()
	require.NoError(t, err)
	service, err := dashboard.NewService(dashboard.Options{Translations: table})
	require.NoError(t, err)
	view, err := service.Open(context.Background(), "en")
	require.NoError(t, err)

	api := &Handlers{
		API:   NewCommandExecutor(service, nil),
		State: queries.NewViewStateQuery(service),
	}

	rec := httptest.NewRecorder()
	api.HandleToggleChat(rec, httptest.NewRequest(http.MethodPost, "/x", nil), view.ID())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Overlay.OpenIntent)
	assert.True(t, resp.Overlay.Mounted)

	rec = httptest.NewRecorder()
	api.HandleUnmount(rec, httptest.NewRequest(http.MethodDelete, "/x", nil), view.ID())
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	api.HandleViewState(rec, httptest.NewRequest(http.MethodGet, "/x", nil), view.ID())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
