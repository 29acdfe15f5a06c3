package dashboard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubComposer struct {
	opened []string
	vm     ViewModel
	err    error
}

func (s *stubComposer) Open(_ context.Context, lang string) (*View, error) {
	s.opened = append(s.opened, lang)
	if s.err != nil {
		return nil, s.err
	}
	return NewView(ViewOptions{ID: s.vm.ViewID, Language: lang}), nil
}

func (s *stubComposer) Compose(_ context.Context, id string) (ViewModel, error) {
	if s.err != nil {
		return ViewModel{}, s.err
	}
	vm := s.vm
	vm.ViewID = id
	return vm, nil
}

type stubRenderer struct {
	lastTemplate string
	lastPayload  map[string]any
	err          error
}

func (r *stubRenderer) Render(name string, data any, out ...io.Writer) (string, error) {
	r.lastTemplate = name
	if payload, ok := data.(map[string]any); ok {
		r.lastPayload = payload
	}
	if len(out) > 0 && out[0] != nil {
		out[0].Write([]byte("<html></html>"))
	}
	return "<html></html>", r.err
}

func TestControllerRenderTemplate(t *testing.T) {
	service := &stubComposer{vm: ViewModel{Language: "en", Load: LoadState{Status: LoadLoading}}}
	renderer := &stubRenderer{}
	controller := NewController(ControllerOptions{Service: service, Renderer: renderer})

	var buf bytes.Buffer
	if err := controller.RenderTemplate(context.Background(), "v1", &buf); err != nil {
		t.Fatalf("RenderTemplate returned error: %v", err)
	}
	if renderer.lastTemplate != "dashboard.html" {
		t.Fatalf("expected default template, got %s", renderer.lastTemplate)
	}
	if buf.String() != "<html></html>" {
		t.Fatalf("unexpected output %q", buf.String())
	}
	assert.Equal(t, "v1", renderer.lastPayload["view_id"])
	assert.Equal(t, "loading", renderer.lastPayload["status"])
}

func TestControllerMountOpensAndComposes(t *testing.T) {
	service := &stubComposer{vm: ViewModel{ViewID: "v7"}}
	controller := NewController(ControllerOptions{Service: service, Template: "custom.html"})

	vm, err := controller.Mount(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []string{"hi"}, service.opened)
	assert.Equal(t, "v7", vm.ViewID)
	assert.Equal(t, "custom.html", controller.template)
}

func TestControllerViewPayloadPropagatesErrors(t *testing.T) {
	service := &stubComposer{err: ErrViewNotFound}
	controller := NewController(ControllerOptions{Service: service, Renderer: &stubRenderer{}})

	_, err := controller.ViewPayload(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrViewNotFound)

	err = controller.RenderTemplate(context.Background(), "missing", io.Discard)
	assert.ErrorIs(t, err, ErrViewNotFound)
}

func TestControllerRenderRequiresRenderer(t *testing.T) {
	controller := NewController(ControllerOptions{Service: &stubComposer{}})
	err := controller.Render(ViewModel{}, io.Discard)
	assert.True(t, errors.Is(err, errMissingRenderer))
}

func TestControllerRenderError(t *testing.T) {
	renderer := &stubRenderer{err: errors.New("template failed")}
	controller := NewController(ControllerOptions{Service: &stubComposer{}, Renderer: renderer})
	err := controller.Render(ViewModel{}, io.Discard)
	assert.EqualError(t, err, "template failed")
}
