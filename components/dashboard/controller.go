package dashboard

import (
	"context"
	"errors"
	"io"
)

const defaultTemplate = "dashboard.html"

var errMissingRenderer = errors.New("dashboard: renderer not configured")

// ViewComposer opens views and composes their view models.
type ViewComposer interface {
	Open(ctx context.Context, lang string) (*View, error)
	Compose(ctx context.Context, id string) (ViewModel, error)
}

// ControllerOptions wires the collaborators needed by the HTML controller.
type ControllerOptions struct {
	Service  ViewComposer
	Renderer Renderer
	Template string
}

// Controller renders dashboard views for HTTP transports.
type Controller struct {
	service  ViewComposer
	renderer Renderer
	template string
}

// NewController wires the service into a controller.
func NewController(opts ControllerOptions) *Controller {
	template := opts.Template
	if template == "" {
		template = defaultTemplate
	}
	return &Controller{
		service:  opts.Service,
		renderer: opts.Renderer,
		template: template,
	}
}

// Mount opens a new view and returns its first view model.
func (c *Controller) Mount(ctx context.Context, lang string) (ViewModel, error) {
	view, err := c.service.Open(ctx, lang)
	if err != nil {
		return ViewModel{}, err
	}
	return c.service.Compose(ctx, view.ID())
}

// ViewPayload returns the template payload of a mounted view.
func (c *Controller) ViewPayload(ctx context.Context, viewID string) (map[string]any, error) {
	vm, err := c.service.Compose(ctx, viewID)
	if err != nil {
		return nil, err
	}
	return vm.Payload(), nil
}

// RenderTemplate renders a mounted view into out.
func (c *Controller) RenderTemplate(ctx context.Context, viewID string, out io.Writer) error {
	vm, err := c.service.Compose(ctx, viewID)
	if err != nil {
		return err
	}
	return c.Render(vm, out)
}

// Render executes the dashboard template for vm.
func (c *Controller) Render(vm ViewModel, out io.Writer) error {
	if c.renderer == nil {
		return errMissingRenderer
	}
	_, err := c.renderer.Render(c.template, vm.Payload(), out)
	return err
}
