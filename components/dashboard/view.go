package dashboard

// Actions the page can post back for a view.
const (
	ActionToggleChat  = "chat.toggle"
	ActionCloseChat   = "chat.close"
	ActionMaximize    = "chat.maximize"
	ActionSetLanguage = "language"
)

// StatFigure is one headline statistic.
type StatFigure struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
	Value string `json:"value"`
}

// ActionView is a clickable affordance bound to a view action.
type ActionView struct {
	Label  string `json:"label"`
	Action string `json:"action"`
}

// NoticeView is the status line shown while loading or after a failure.
type NoticeView struct {
	Kind    LoadStatus `json:"kind"`
	Message string     `json:"message"`
}

// OverlayView describes the overlay region. It is only present while mounted.
type OverlayView struct {
	Phase          OverlayPhase `json:"phase"`
	AnimationClass string       `json:"animation_class"`
	Maximized      bool         `json:"maximized"`
	Close          ActionView   `json:"close"`
	Resize         ActionView   `json:"resize"`
	Assistant      WidgetData   `json:"assistant,omitempty"`
}

// ViewInputs are everything ComposeView reads.
type ViewInputs struct {
	ViewID    string
	Bundle    TranslationBundle
	Languages []LanguageOption
	Load      LoadState
	Stats     StatisticsViewModel
	Overlay   ChatOverlayState
	Assistant WidgetData
	Charts    []BreakdownChart
}

// ViewModel is the render-ready dashboard.
type ViewModel struct {
	ViewID    string            `json:"view_id"`
	Language  string            `json:"language"`
	Bundle    TranslationBundle `json:"bundle"`
	Languages []LanguageOption  `json:"languages"`
	Load      LoadState         `json:"load"`
	Notice    *NoticeView       `json:"notice,omitempty"`
	Stats     []StatFigure      `json:"stats"`
	CTA       ActionView        `json:"cta"`
	Toggle    *ActionView       `json:"toggle,omitempty"`
	Overlay   *OverlayView      `json:"overlay,omitempty"`
	Charts    []BreakdownChart  `json:"charts,omitempty"`
	State     ChatOverlayState  `json:"overlay_state"`
}

// ComposeView derives the view model. It has no side effects.
func ComposeView(in ViewInputs) ViewModel {
	bundle := in.Bundle
	vm := ViewModel{
		ViewID:    in.ViewID,
		Language:  bundle.Code,
		Bundle:    bundle,
		Languages: in.Languages,
		Load:      in.Load,
		Stats: []StatFigure{
			statFigure("artists", bundle.Code, bundle.Stats.Verified, in.Stats.TotalArtists),
			statFigure("crafts", bundle.Code, bundle.Stats.Crafts, in.Stats.TotalCrafts),
			statFigure("states", bundle.Code, bundle.Stats.States, in.Stats.TotalStates),
		},
		CTA:   ActionView{Label: bundle.CTA, Action: ActionToggleChat},
		State: in.Overlay,
	}

	switch in.Load.Status {
	case LoadLoading:
		vm.Notice = &NoticeView{Kind: LoadLoading, Message: bundle.Loading}
	case LoadFailed:
		vm.Notice = &NoticeView{Kind: LoadFailed, Message: bundle.LoadFailed}
	case LoadReady:
		vm.Charts = in.Charts
	}

	if in.Overlay.ShowToggle() {
		vm.Toggle = &ActionView{Label: bundle.OpenChat, Action: ActionToggleChat}
	}

	if in.Overlay.Mounted {
		resize := ActionView{Label: bundle.MaximizeChat, Action: ActionMaximize}
		if in.Overlay.Maximized {
			resize.Label = bundle.RestoreChat
		}
		vm.Overlay = &OverlayView{
			Phase:          in.Overlay.Phase(),
			AnimationClass: animationClass(in.Overlay.Phase()),
			Maximized:      in.Overlay.Maximized,
			Close:          ActionView{Label: bundle.CloseChat, Action: ActionCloseChat},
			Resize:         resize,
			Assistant:      in.Assistant,
		}
	}
	return vm
}

func statFigure(key, locale, label string, count int) StatFigure {
	return StatFigure{
		Key:   key,
		Label: label,
		Count: count,
		Value: FormatCount(locale, count),
	}
}

func animationClass(phase OverlayPhase) string {
	switch phase {
	case OverlayOpening:
		return "overlay-enter"
	case OverlayOpen:
		return "overlay-open"
	case OverlayClosing:
		return "overlay-exit"
	default:
		return ""
	}
}

// Payload flattens the view model into the template context.
func (vm ViewModel) Payload() map[string]any {
	languages := make([]map[string]any, 0, len(vm.Languages))
	for _, opt := range vm.Languages {
		languages = append(languages, map[string]any{
			"code":     opt.Code,
			"name":     opt.Name,
			"selected": opt.Code == vm.Language,
		})
	}
	stats := make([]map[string]any, 0, len(vm.Stats))
	for _, figure := range vm.Stats {
		stats = append(stats, map[string]any{
			"key":   figure.Key,
			"label": figure.Label,
			"value": figure.Value,
		})
	}
	payload := map[string]any{
		"view_id":   vm.ViewID,
		"lang":      vm.Language,
		"t":         vm.Bundle,
		"languages": languages,
		"stats":     stats,
		"status":    string(vm.Load.Status),
		"cta":       actionPayload(vm.CTA),
	}
	if vm.Notice != nil {
		payload["notice"] = map[string]any{
			"kind":    string(vm.Notice.Kind),
			"message": vm.Notice.Message,
		}
	}
	if vm.Toggle != nil {
		payload["toggle"] = actionPayload(*vm.Toggle)
	}
	if vm.Overlay != nil {
		payload["overlay"] = map[string]any{
			"phase":           string(vm.Overlay.Phase),
			"animation_class": vm.Overlay.AnimationClass,
			"maximized":       vm.Overlay.Maximized,
			"close":           actionPayload(vm.Overlay.Close),
			"resize":          actionPayload(vm.Overlay.Resize),
			"assistant":       map[string]any(vm.Overlay.Assistant),
		}
	}
	if len(vm.Charts) > 0 {
		charts := make([]map[string]any, 0, len(vm.Charts))
		for _, chart := range vm.Charts {
			if chart.HTML == "" {
				continue
			}
			charts = append(charts, map[string]any{
				"key":   chart.Key,
				"title": chart.Title,
				"html":  chart.HTML,
			})
		}
		payload["charts"] = charts
	}
	return payload
}

func actionPayload(a ActionView) map[string]any {
	return map[string]any{
		"label":  a.Label,
		"action": a.Action,
	}
}
