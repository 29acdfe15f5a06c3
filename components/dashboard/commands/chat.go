package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-kalakaart/components/dashboard"
)

// ToggleChatInput identifies the view whose overlay is toggled.
type ToggleChatInput struct {
	ViewID string `json:"view_id"`
}

// CloseChatInput identifies the view whose overlay is closed.
type CloseChatInput struct {
	ViewID string `json:"view_id"`
}

// SetMaximizedInput carries the requested maximized flag.
type SetMaximizedInput struct {
	ViewID    string `json:"view_id"`
	Maximized bool   `json:"maximized"`
}

type chatService interface {
	ToggleChat(ctx context.Context, id string) (dashboard.ChatOverlayState, error)
	CloseChat(ctx context.Context, id string) (dashboard.ChatOverlayState, error)
	SetMaximized(ctx context.Context, id string, maximized bool) (dashboard.ChatOverlayState, error)
}

// ToggleChatCommand wraps Service.ToggleChat.
type ToggleChatCommand struct {
	service   chatService
	telemetry Telemetry
}

// NewToggleChatCommand builds a command instance.
func NewToggleChatCommand(service chatService, telemetry Telemetry) *ToggleChatCommand {
	return &ToggleChatCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleChatInput] = (*ToggleChatCommand)(nil)

// Execute flips the overlay open intent.
func (c *ToggleChatCommand) Execute(ctx context.Context, msg ToggleChatInput) error {
	if c.service == nil {
		return errors.New("toggle chat command requires service")
	}
	state, err := c.service.ToggleChat(ctx, msg.ViewID)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.toggle_chat", map[string]any{
		"view_id": msg.ViewID,
		"phase":   string(state.Phase()),
	})
	return nil
}

// CloseChatCommand wraps Service.CloseChat.
type CloseChatCommand struct {
	service   chatService
	telemetry Telemetry
}

// NewCloseChatCommand builds a command instance.
func NewCloseChatCommand(service chatService, telemetry Telemetry) *CloseChatCommand {
	return &CloseChatCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CloseChatInput] = (*CloseChatCommand)(nil)

// Execute closes the overlay if it is open.
func (c *CloseChatCommand) Execute(ctx context.Context, msg CloseChatInput) error {
	if c.service == nil {
		return errors.New("close chat command requires service")
	}
	state, err := c.service.CloseChat(ctx, msg.ViewID)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.close_chat", map[string]any{
		"view_id": msg.ViewID,
		"phase":   string(state.Phase()),
	})
	return nil
}

// SetMaximizedCommand wraps Service.SetMaximized.
type SetMaximizedCommand struct {
	service   chatService
	telemetry Telemetry
}

// NewSetMaximizedCommand builds a command instance.
func NewSetMaximizedCommand(service chatService, telemetry Telemetry) *SetMaximizedCommand {
	return &SetMaximizedCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetMaximizedInput] = (*SetMaximizedCommand)(nil)

// Execute stores the maximized flag.
func (c *SetMaximizedCommand) Execute(ctx context.Context, msg SetMaximizedInput) error {
	if c.service == nil {
		return errors.New("set maximized command requires service")
	}
	if _, err := c.service.SetMaximized(ctx, msg.ViewID, msg.Maximized); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.set_maximized", map[string]any{
		"view_id":   msg.ViewID,
		"maximized": msg.Maximized,
	})
	return nil
}
