package gorouter

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	gocommand "github.com/goliatone/go-command"
	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-kalakaart/components/dashboard"
	"github.com/goliatone/go-kalakaart/components/dashboard/commands"
	"github.com/goliatone/go-kalakaart/components/dashboard/httpapi"
	"github.com/goliatone/go-kalakaart/components/dashboard/queries"
)

// LanguageResolver picks the initial language code for a request.
type LanguageResolver func(router.Context) string

// Config wires go-router with the dashboard controller, API, and hooks.
type Config[T any] struct {
	Router       router.Router[T]
	Controller   *dashboard.Controller
	API          httpapi.Executor
	State        gocommand.Querier[queries.ViewInput, dashboard.ViewSnapshot]
	Broadcast    *dashboard.BroadcastHook
	Language     LanguageResolver
	// Translations negotiates the initial language when Language is nil.
	Translations *dashboard.TranslationTable
	BasePath     string
	Routes       RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	HTML      string
	View      string
	State     string
	Toggle    string
	Close     string
	Maximize  string
	Language  string
	WebSocket string
}

// Register mounts dashboard routes (HTML, JSON, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Controller == nil {
		return errors.New("gorouter: controller is required")
	}
	routes := cfg.routes()
	base := cfg.BasePath
	if base == "" {
		base = "/"
	}
	languageResolver := cfg.Language
	if languageResolver == nil {
		languageResolver = localeResolver(cfg.Translations)
	}
	h := &handlers{controller: cfg.Controller, api: cfg.API, state: cfg.State}
	if cfg.Translations != nil {
		h.translations = cfg.Translations
	}
	fail := func(ctx router.Context, status int, err error) error {
		return ctx.JSON(status, h.errorResponse(ctx.Context(), languageResolver(ctx), status, err))
	}

	group := cfg.Router.Group(base)

	group.Get(routes.HTML, router.WrapHandler(func(ctx router.Context) error {
		status, body, err := h.mount(ctx.Context(), languageResolver(ctx))
		if err != nil {
			return fail(ctx, status, err)
		}
		return sendHTML(ctx, body)
	}))

	group.Get(routes.View, router.WrapHandler(func(ctx router.Context) error {
		status, body, err := h.render(ctx.Context(), ctx.Param("id"))
		if err != nil {
			return fail(ctx, status, err)
		}
		return sendHTML(ctx, body)
	}))

	group.Get(routes.State, router.WrapHandler(func(ctx router.Context) error {
		payload, err := cfg.Controller.ViewPayload(ctx.Context(), ctx.Param("id"))
		if err != nil {
			return fail(ctx, httpapi.StatusFor(err), err)
		}
		return ctx.JSON(http.StatusOK, payload)
	}))

	if cfg.API != nil {
		registerAPI(group, h, routes, languageResolver)
	}

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}

	return nil
}

func registerAPI[T any](r router.Router[T], h *handlers, routes RouteConfig, lang LanguageResolver) {
	action := func(run func(ctx router.Context) (int, any)) func(router.Context) error {
		return func(ctx router.Context) error {
			status, body := run(ctx)
			if status >= http.StatusBadRequest {
				h.localize(ctx.Context(), lang(ctx), status, body)
			}
			return ctx.JSON(status, body)
		}
	}

	r.Post(routes.Toggle, router.WrapHandler(action(func(ctx router.Context) (int, any) {
		return h.toggle(ctx.Context(), ctx.Param("id"))
	})))

	r.Post(routes.Close, router.WrapHandler(action(func(ctx router.Context) (int, any) {
		return h.close(ctx.Context(), ctx.Param("id"))
	})))

	r.Post(routes.Maximize, router.WrapHandler(action(func(ctx router.Context) (int, any) {
		return h.maximize(ctx.Context(), ctx.Param("id"), ctx.Body())
	})))

	r.Post(routes.Language, router.WrapHandler(action(func(ctx router.Context) (int, any) {
		return h.language(ctx.Context(), ctx.Param("id"), ctx.Body())
	})))

	r.Delete(routes.View, router.WrapHandler(action(func(ctx router.Context) (int, any) {
		return h.unmount(ctx.Context(), ctx.Param("id"))
	})))
}

func registerWebSocket[T any](r router.Router[T], hook *dashboard.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		err := hook.Stream(ws.Context(), ws.Param("id"), func(event dashboard.ViewEvent) error {
			return ws.WriteJSON(event)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return ws.Close()
	})
}

type handlers struct {
	controller   *dashboard.Controller
	api          httpapi.Executor
	state        gocommand.Querier[queries.ViewInput, dashboard.ViewSnapshot]
	translations dashboard.TranslationService
}

func (h *handlers) mount(ctx context.Context, lang string) (int, []byte, error) {
	vm, err := h.controller.Mount(ctx, lang)
	if err != nil {
		return httpapi.StatusFor(err), nil, err
	}
	var buf bytes.Buffer
	if err := h.controller.Render(vm, &buf); err != nil {
		return http.StatusInternalServerError, nil, err
	}
	return http.StatusOK, buf.Bytes(), nil
}

func (h *handlers) render(ctx context.Context, viewID string) (int, []byte, error) {
	var buf bytes.Buffer
	if err := h.controller.RenderTemplate(ctx, viewID, &buf); err != nil {
		return httpapi.StatusFor(err), nil, err
	}
	return http.StatusOK, buf.Bytes(), nil
}

func (h *handlers) toggle(ctx context.Context, viewID string) (int, any) {
	return h.afterAction(ctx, viewID, h.api.ToggleChat(ctx, commands.ToggleChatInput{ViewID: viewID}))
}

func (h *handlers) close(ctx context.Context, viewID string) (int, any) {
	return h.afterAction(ctx, viewID, h.api.CloseChat(ctx, commands.CloseChatInput{ViewID: viewID}))
}

func (h *handlers) maximize(ctx context.Context, viewID string, body []byte) (int, any) {
	payload, err := httpapi.DecodeMaximize(body)
	if err != nil {
		return errorBody(err)
	}
	input := commands.SetMaximizedInput{ViewID: viewID, Maximized: payload.Maximized}
	return h.afterAction(ctx, viewID, h.api.SetMaximized(ctx, input))
}

func (h *handlers) language(ctx context.Context, viewID string, body []byte) (int, any) {
	payload, err := httpapi.DecodeLanguage(body)
	if err != nil {
		return errorBody(err)
	}
	input := commands.SelectLanguageInput{ViewID: viewID, Lang: payload.Lang}
	return h.afterAction(ctx, viewID, h.api.SelectLanguage(ctx, input))
}

func (h *handlers) unmount(ctx context.Context, viewID string) (int, any) {
	if err := h.api.Unmount(ctx, commands.UnmountViewInput{ViewID: viewID}); err != nil {
		return errorBody(err)
	}
	return http.StatusOK, map[string]string{"status": "unmounted"}
}

func (h *handlers) afterAction(ctx context.Context, viewID string, err error) (int, any) {
	if err != nil {
		return errorBody(err)
	}
	if h.state == nil {
		return http.StatusOK, map[string]string{"status": "ok"}
	}
	snap, err := h.state.Query(ctx, queries.ViewInput{ViewID: viewID})
	if err != nil {
		return errorBody(err)
	}
	return http.StatusOK, httpapi.NewStateResponse(snap)
}

func errorBody(err error) (int, any) {
	return httpapi.StatusFor(err), map[string]string{"error": err.Error()}
}

// errorResponse is the JSON body of a failed request: the raw error plus the
// localized text for the viewer.
func (h *handlers) errorResponse(ctx context.Context, lang string, status int, err error) map[string]string {
	body := map[string]string{"error": err.Error()}
	h.localize(ctx, lang, status, body)
	return body
}

func (h *handlers) localize(ctx context.Context, lang string, status int, body any) {
	if m, ok := body.(map[string]string); ok {
		m["message"] = dashboard.ErrorMessage(ctx, h.translations, lang, status)
	}
}

func localeResolver(table *dashboard.TranslationTable) LanguageResolver {
	return func(ctx router.Context) string {
		locale, _ := ctx.Locals("locale").(string)
		return negotiateLanguage(table, ctx.Header("Accept-Language"), locale, ctx.Query("lang"))
	}
}

// negotiateLanguage returns the first recognized explicit code, then the best
// Accept-Language match, then the table default.
func negotiateLanguage(table *dashboard.TranslationTable, acceptLanguage string, explicit ...string) string {
	if table == nil {
		for _, code := range explicit {
			if code = strings.ToLower(strings.TrimSpace(code)); code != "" {
				return code
			}
		}
		return ""
	}
	for _, code := range explicit {
		if table.Has(code) {
			return table.Resolve(code).Code
		}
	}
	return table.PreferredLanguage("", acceptLanguage)
}

func sendHTML(ctx router.Context, body []byte) error {
	ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
	return ctx.Send(body)
}

func (cfg Config[T]) routes() RouteConfig {
	return defaultRouteConfig(cfg.Routes)
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.HTML == "" {
		routes.HTML = "/dashboard"
	}
	if routes.View == "" {
		routes.View = "/dashboard/views/:id"
	}
	if routes.State == "" {
		routes.State = "/dashboard/views/:id/state"
	}
	if routes.Toggle == "" {
		routes.Toggle = "/dashboard/views/:id/chat/toggle"
	}
	if routes.Close == "" {
		routes.Close = "/dashboard/views/:id/chat/close"
	}
	if routes.Maximize == "" {
		routes.Maximize = "/dashboard/views/:id/chat/maximize"
	}
	if routes.Language == "" {
		routes.Language = "/dashboard/views/:id/language"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/dashboard/views/:id/events"
	}
	return routes
}
