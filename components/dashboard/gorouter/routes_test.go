package gorouter

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-kalakaart/components/dashboard"
	"github.com/goliatone/go-kalakaart/components/dashboard/httpapi"
	"github.com/goliatone/go-kalakaart/components/dashboard/queries"
)

func TestRegisterValidatesConfig(t *testing.T) {
	err := Register(Config[struct{}]{})
	if err == nil {
		t.Fatalf("expected error when router/controller missing")
	}
}

func TestDefaultRouteConfig(t *testing.T) {
	routes := defaultRouteConfig(RouteConfig{Toggle: "/custom/toggle"})
	assert.Equal(t, "/dashboard", routes.HTML)
	assert.Equal(t, "/dashboard/views/:id", routes.View)
	assert.Equal(t, "/dashboard/views/:id/state", routes.State)
	assert.Equal(t, "/custom/toggle", routes.Toggle)
	assert.Equal(t, "/dashboard/views/:id/events", routes.WebSocket)
}

func TestNegotiateLanguage(t *testing.T) {
	table, err := dashboard.NewDefaultTranslationTable()
	require.NoError(t, err)

	cases := []struct {
		name     string
		header   string
		explicit []string
		want     string
	}{
		{"later recognized tag wins over unknown first tag", "fr-FR, hi;q=0.8", nil, "hi"},
		{"region reduces to base language", "hi-IN,en;q=0.8", nil, "hi"},
		{"quality ordering", "en;q=0.5, hi;q=0.9", nil, "hi"},
		{"nothing recognized", "fr, de;q=0.5", nil, "en"},
		{"empty header", "", nil, "en"},
		{"explicit code beats header", "hi", []string{"", " EN "}, "en"},
		{"unknown explicit falls through to header", "hi", []string{"xx"}, "hi"},
		{"locals checked before query", "", []string{"hi", "en"}, "hi"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, negotiateLanguage(table, tc.header, tc.explicit...))
		})
	}
}

func TestNegotiateLanguageWithoutTable(t *testing.T) {
	assert.Equal(t, "hi", negotiateLanguage(nil, "en", "", " HI "))
	assert.Equal(t, "", negotiateLanguage(nil, "en"))
}

func newHandlers(t *testing.T) (*handlers, *dashboard.Service, *stubRenderer) {
	t.Helper()
	table, err := dashboard.NewDefaultTranslationTable()
	require.NoError(t, err)
	service, err := dashboard.NewService(dashboard.Options{Translations: table})
	require.NoError(t, err)
	renderer := &stubRenderer{}
	controller := dashboard.NewController(dashboard.ControllerOptions{
		Service:  service,
		Renderer: renderer,
	})
	return &handlers{
		controller:   controller,
		api:          httpapi.NewCommandExecutor(service, nil),
		state:        queries.NewViewStateQuery(service),
		translations: table,
	}, service, renderer
}

func TestHandlersMountAndRender(t *testing.T) {
	h, service, renderer := newHandlers(t)

	status, body, err := h.mount(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", string(body))
	require.Equal(t, 1, renderer.calls)

	viewID, _ := renderer.last["view_id"].(string)
	require.NotEmpty(t, viewID)
	assert.Equal(t, "hi", renderer.last["lang"])
	defer service.Unmount(context.Background(), viewID)

	status, _, err = h.render(context.Background(), viewID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	status, _, err = h.render(context.Background(), "missing")
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHandlersActions(t *testing.T) {
	h, service, _ := newHandlers(t)
	view, err := service.Open(context.Background(), "en")
	require.NoError(t, err)

	status, body := h.toggle(context.Background(), view.ID())
	require.Equal(t, http.StatusOK, status)
	resp, ok := body.(httpapi.StateResponse)
	require.True(t, ok)
	assert.True(t, resp.Overlay.Mounted)

	status, body = h.maximize(context.Background(), view.ID(), []byte(`{"maximized":true}`))
	require.Equal(t, http.StatusOK, status)
	assert.True(t, body.(httpapi.StateResponse).Overlay.Maximized)

	status, _ = h.maximize(context.Background(), view.ID(), []byte(`{`))
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = h.language(context.Background(), view.ID(), []byte(`{"lang":"hi"}`))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "hi", body.(httpapi.StateResponse).Language)

	status, body = h.language(context.Background(), view.ID(), []byte(`{"lang":"xx"}`))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "en", body.(httpapi.StateResponse).Language)

	status, _ = h.unmount(context.Background(), view.ID())
	assert.Equal(t, http.StatusOK, status)

	status, body = h.toggle(context.Background(), view.ID())
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body.(map[string]string)["error"], "view not found")
}

type stubRenderer struct {
	calls int
	last  map[string]any
}

func (s *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	s.calls++
	s.last, _ = data.(map[string]any)
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte("ok"))
	}
	return "ok", nil
}

func TestHandlersLocalizeErrors(t *testing.T) {
	h, _, _ := newHandlers(t)

	status, body := h.toggle(context.Background(), "missing")
	require.Equal(t, http.StatusNotFound, status)
	h.localize(context.Background(), "hi", status, body)
	msg := body.(map[string]string)
	assert.Contains(t, msg["error"], "view not found")
	assert.Equal(t, "यह डैशबोर्ड दृश्य समाप्त हो गया है। कृपया पेज फिर से लोड करें।", msg["message"])

	resp := h.errorResponse(context.Background(), "en", http.StatusBadRequest, httpapi.ErrInvalidPayload)
	assert.Equal(t, "The request could not be understood.", resp["message"])

	bare := &handlers{}
	resp = bare.errorResponse(context.Background(), "hi", http.StatusInternalServerError, assert.AnError)
	assert.Equal(t, "Something went wrong. Please try again.", resp["message"])
}
