package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
)

// SelectLanguageInput carries the requested language code.
type SelectLanguageInput struct {
	ViewID string `json:"view_id"`
	Lang   string `json:"lang"`
}

// UnmountViewInput identifies the view being torn down.
type UnmountViewInput struct {
	ViewID string `json:"view_id"`
}

type languageService interface {
	SelectLanguage(ctx context.Context, id, lang string) (string, error)
}

type unmountService interface {
	Unmount(ctx context.Context, id string) error
}

// SelectLanguageCommand wraps Service.SelectLanguage.
type SelectLanguageCommand struct {
	service   languageService
	telemetry Telemetry
}

// NewSelectLanguageCommand builds a command instance.
func NewSelectLanguageCommand(service languageService, telemetry Telemetry) *SelectLanguageCommand {
	return &SelectLanguageCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SelectLanguageInput] = (*SelectLanguageCommand)(nil)

// Execute switches the view language; unknown codes fall back to the default.
func (c *SelectLanguageCommand) Execute(ctx context.Context, msg SelectLanguageInput) error {
	if c.service == nil {
		return errors.New("select language command requires service")
	}
	code, err := c.service.SelectLanguage(ctx, msg.ViewID, msg.Lang)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.select_language", map[string]any{
		"view_id":   msg.ViewID,
		"requested": msg.Lang,
		"language":  code,
	})
	return nil
}

// UnmountViewCommand wraps Service.Unmount.
type UnmountViewCommand struct {
	service   unmountService
	telemetry Telemetry
}

// NewUnmountViewCommand builds a command instance.
func NewUnmountViewCommand(service unmountService, telemetry Telemetry) *UnmountViewCommand {
	return &UnmountViewCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UnmountViewInput] = (*UnmountViewCommand)(nil)

// Execute drops the view.
func (c *UnmountViewCommand) Execute(ctx context.Context, msg UnmountViewInput) error {
	if c.service == nil {
		return errors.New("unmount view command requires service")
	}
	if err := c.service.Unmount(ctx, msg.ViewID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.unmount_view", map[string]any{"view_id": msg.ViewID})
	return nil
}
