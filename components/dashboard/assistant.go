package dashboard

import (
	"context"
	"net/url"
	"strings"
)

// AssistantProps are the inputs the overlay hands to the embedded assistant.
type AssistantProps struct {
	Maximized    bool
	SetMaximized func(bool)
	Toggle       func()
	ViewID       string
	Language     string
}

// AssistantWidget renders the chat assistant inside the overlay. The overlay
// only supplies props; everything else about the widget is opaque.
type AssistantWidget interface {
	Mount(ctx context.Context, props AssistantProps) (WidgetData, error)
}

// EmbeddedAssistant points the overlay at a chat endpoint served elsewhere.
type EmbeddedAssistant struct {
	ChatEndpoint string
	Title        string
}

// Mount returns the data the dashboard template needs to wire the chat frame.
func (a EmbeddedAssistant) Mount(ctx context.Context, props AssistantProps) (WidgetData, error) {
	data := WidgetData{
		"title":     a.Title,
		"maximized": props.Maximized,
		"view_id":   props.ViewID,
		"language":  props.Language,
	}
	if endpoint := strings.TrimSpace(a.ChatEndpoint); endpoint != "" {
		data["chat_endpoint"] = withLanguage(endpoint, props.Language)
	}
	return data, nil
}

func withLanguage(endpoint, lang string) string {
	if lang == "" {
		return endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	q := u.Query()
	q.Set("lang", lang)
	u.RawQuery = q.Encode()
	return u.String()
}

type noopAssistant struct{}

func (noopAssistant) Mount(context.Context, AssistantProps) (WidgetData, error) {
	return WidgetData{}, nil
}

func normalizeAssistant(a AssistantWidget) AssistantWidget {
	if a == nil {
		return noopAssistant{}
	}
	return a
}
