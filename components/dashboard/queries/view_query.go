package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-kalakaart/components/dashboard"
)

// ViewInput identifies a mounted view.
type ViewInput struct {
	ViewID string
}

// OpenViewInput requests a new view in the given language.
type OpenViewInput struct {
	Lang string
}

type composeService interface {
	Compose(ctx context.Context, id string) (dashboard.ViewModel, error)
}

type openService interface {
	Open(ctx context.Context, lang string) (*dashboard.View, error)
	Compose(ctx context.Context, id string) (dashboard.ViewModel, error)
}

type viewService interface {
	View(ctx context.Context, id string) (*dashboard.View, error)
}

// ViewQuery composes the view model of a mounted view.
type ViewQuery struct {
	service composeService
}

// NewViewQuery builds the query.
func NewViewQuery(service composeService) *ViewQuery {
	return &ViewQuery{service: service}
}

var _ gocommand.Querier[ViewInput, dashboard.ViewModel] = (*ViewQuery)(nil)

// Query composes the view model for input.ViewID.
func (q *ViewQuery) Query(ctx context.Context, input ViewInput) (dashboard.ViewModel, error) {
	return q.service.Compose(ctx, input.ViewID)
}

// OpenViewQuery mounts a view and returns its first view model.
type OpenViewQuery struct {
	service openService
}

// NewOpenViewQuery builds the query.
func NewOpenViewQuery(service openService) *OpenViewQuery {
	return &OpenViewQuery{service: service}
}

var _ gocommand.Querier[OpenViewInput, dashboard.ViewModel] = (*OpenViewQuery)(nil)

// Query opens a view and composes it.
func (q *OpenViewQuery) Query(ctx context.Context, input OpenViewInput) (dashboard.ViewModel, error) {
	view, err := q.service.Open(ctx, input.Lang)
	if err != nil {
		return dashboard.ViewModel{}, err
	}
	return q.service.Compose(ctx, view.ID())
}

// ViewStateQuery returns the raw state of a mounted view.
type ViewStateQuery struct {
	service viewService
}

// NewViewStateQuery builds the query.
func NewViewStateQuery(service viewService) *ViewStateQuery {
	return &ViewStateQuery{service: service}
}

var _ gocommand.Querier[ViewInput, dashboard.ViewSnapshot] = (*ViewStateQuery)(nil)

// Query snapshots the view.
func (q *ViewStateQuery) Query(ctx context.Context, input ViewInput) (dashboard.ViewSnapshot, error) {
	view, err := q.service.View(ctx, input.ViewID)
	if err != nil {
		return dashboard.ViewSnapshot{}, err
	}
	return view.Snapshot(), nil
}
