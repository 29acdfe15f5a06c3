package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-kalakaart/components/dashboard"
	"github.com/goliatone/go-kalakaart/components/dashboard/commands"
	"github.com/goliatone/go-kalakaart/components/dashboard/queries"
)

// ErrInvalidPayload wraps request bodies that fail to decode.
var ErrInvalidPayload = errors.New("httpapi: invalid payload")

// Executor applies view actions. Transports depend on it instead of the
// individual commanders.
type Executor interface {
	ToggleChat(ctx context.Context, input commands.ToggleChatInput) error
	CloseChat(ctx context.Context, input commands.CloseChatInput) error
	SetMaximized(ctx context.Context, input commands.SetMaximizedInput) error
	SelectLanguage(ctx context.Context, input commands.SelectLanguageInput) error
	Unmount(ctx context.Context, input commands.UnmountViewInput) error
}

// CommandExecutor adapts go-command commanders to Executor.
type CommandExecutor struct {
	Toggle   gocommand.Commander[commands.ToggleChatInput]
	Close    gocommand.Commander[commands.CloseChatInput]
	Maximize gocommand.Commander[commands.SetMaximizedInput]
	Language gocommand.Commander[commands.SelectLanguageInput]
	Remove   gocommand.Commander[commands.UnmountViewInput]
}

var _ Executor = (*CommandExecutor)(nil)

// NewCommandExecutor wires the default commanders around a view service.
func NewCommandExecutor(service *dashboard.Service, telemetry commands.Telemetry) *CommandExecutor {
	return &CommandExecutor{
		Toggle:   commands.NewToggleChatCommand(service, telemetry),
		Close:    commands.NewCloseChatCommand(service, telemetry),
		Maximize: commands.NewSetMaximizedCommand(service, telemetry),
		Language: commands.NewSelectLanguageCommand(service, telemetry),
		Remove:   commands.NewUnmountViewCommand(service, telemetry),
	}
}

func (e *CommandExecutor) ToggleChat(ctx context.Context, input commands.ToggleChatInput) error {
	return execute(ctx, e.Toggle, input)
}

func (e *CommandExecutor) CloseChat(ctx context.Context, input commands.CloseChatInput) error {
	return execute(ctx, e.Close, input)
}

func (e *CommandExecutor) SetMaximized(ctx context.Context, input commands.SetMaximizedInput) error {
	return execute(ctx, e.Maximize, input)
}

func (e *CommandExecutor) SelectLanguage(ctx context.Context, input commands.SelectLanguageInput) error {
	return execute(ctx, e.Language, input)
}

func (e *CommandExecutor) Unmount(ctx context.Context, input commands.UnmountViewInput) error {
	return execute(ctx, e.Remove, input)
}

func execute[T any](ctx context.Context, cmd gocommand.Commander[T], input T) error {
	if cmd == nil {
		return errors.New("httpapi: command not configured")
	}
	return cmd.Execute(ctx, input)
}

// StatusFor maps service errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, dashboard.ErrViewNotFound):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrViewIDRequired), errors.Is(err, ErrInvalidPayload):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// StateResponse is returned by every action endpoint.
type StateResponse struct {
	ViewID   string                     `json:"view_id"`
	Language string                     `json:"language"`
	Load     dashboard.LoadState        `json:"load"`
	Overlay  dashboard.ChatOverlayState `json:"overlay"`
	Phase    dashboard.OverlayPhase     `json:"phase"`
}

// NewStateResponse projects a snapshot into the wire response.
func NewStateResponse(snap dashboard.ViewSnapshot) StateResponse {
	return StateResponse{
		ViewID:   snap.ID,
		Language: snap.Language,
		Load:     snap.Load,
		Overlay:  snap.Overlay,
		Phase:    snap.Overlay.Phase(),
	}
}

// MaximizePayload is the body of the maximize endpoint.
type MaximizePayload struct {
	Maximized bool `json:"maximized"`
}

// LanguagePayload is the body of the language endpoint.
type LanguagePayload struct {
	Lang string `json:"lang"`
}

// DecodeMaximize parses a maximize request body.
func DecodeMaximize(body []byte) (MaximizePayload, error) {
	var payload MaximizePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, errors.Join(ErrInvalidPayload, err)
	}
	return payload, nil
}

// DecodeLanguage parses a language request body.
func DecodeLanguage(body []byte) (LanguagePayload, error) {
	var payload LanguagePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return payload, errors.Join(ErrInvalidPayload, err)
	}
	return payload, nil
}

// Handlers exposes the view actions as net/http handlers.
type Handlers struct {
	API   Executor
	State gocommand.Querier[queries.ViewInput, dashboard.ViewSnapshot]
}

func (h *Handlers) HandleViewState(w http.ResponseWriter, r *http.Request, viewID string) {
	h.respondState(w, r, viewID, http.StatusOK)
}

func (h *Handlers) HandleToggleChat(w http.ResponseWriter, r *http.Request, viewID string) {
	if err := h.API.ToggleChat(r.Context(), commands.ToggleChatInput{ViewID: viewID}); err != nil {
		writeError(w, err)
		return
	}
	h.respondState(w, r, viewID, http.StatusOK)
}

func (h *Handlers) HandleCloseChat(w http.ResponseWriter, r *http.Request, viewID string) {
	if err := h.API.CloseChat(r.Context(), commands.CloseChatInput{ViewID: viewID}); err != nil {
		writeError(w, err)
		return
	}
	h.respondState(w, r, viewID, http.StatusOK)
}

func (h *Handlers) HandleSetMaximized(w http.ResponseWriter, r *http.Request, viewID string) {
	var payload MaximizePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errors.Join(ErrInvalidPayload, err))
		return
	}
	input := commands.SetMaximizedInput{ViewID: viewID, Maximized: payload.Maximized}
	if err := h.API.SetMaximized(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	h.respondState(w, r, viewID, http.StatusOK)
}

func (h *Handlers) HandleSelectLanguage(w http.ResponseWriter, r *http.Request, viewID string) {
	var payload LanguagePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, errors.Join(ErrInvalidPayload, err))
		return
	}
	input := commands.SelectLanguageInput{ViewID: viewID, Lang: payload.Lang}
	if err := h.API.SelectLanguage(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	h.respondState(w, r, viewID, http.StatusOK)
}

func (h *Handlers) HandleUnmount(w http.ResponseWriter, r *http.Request, viewID string) {
	if err := h.API.Unmount(r.Context(), commands.UnmountViewInput{ViewID: viewID}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) respondState(w http.ResponseWriter, r *http.Request, viewID string, status int) {
	if h.State == nil {
		writeJSON(w, status, map[string]string{"status": "ok"})
		return
	}
	snap, err := h.State.Query(r.Context(), queries.ViewInput{ViewID: viewID})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, NewStateResponse(snap))
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
