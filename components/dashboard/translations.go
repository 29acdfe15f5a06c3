package dashboard

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// DefaultLanguage is the bundle returned for unrecognized codes.
const DefaultLanguage = "en"

//go:embed locales/*.toml
var embeddedLocales embed.FS

// StatLabels holds the caption under each statistic figure.
type StatLabels struct {
	Verified string `json:"verified" yaml:"verified"`
	Crafts   string `json:"crafts" yaml:"crafts"`
	States   string `json:"states" yaml:"states"`
}

// TranslationBundle is the full set of display strings for one language.
type TranslationBundle struct {
	Code            string     `json:"code" yaml:"code"`
	Name            string     `json:"name" yaml:"name"`
	LanguageLabel   string     `json:"language_label" yaml:"language_label"`
	AppName         string     `json:"app_name" yaml:"app_name"`
	Tagline         string     `json:"tagline" yaml:"tagline"`
	Title           string     `json:"title" yaml:"title"`
	TitleSpan       string     `json:"title_span" yaml:"title_span"`
	Subtitle        string     `json:"subtitle" yaml:"subtitle"`
	Stats           StatLabels `json:"stats" yaml:"stats"`
	CTA             string     `json:"cta" yaml:"cta"`
	CTASubtitle     string     `json:"cta_subtitle" yaml:"cta_subtitle"`
	Loading         string     `json:"loading" yaml:"loading"`
	LoadFailed      string     `json:"load_failed" yaml:"load_failed"`
	OpenChat        string     `json:"open_chat" yaml:"open_chat"`
	CloseChat       string     `json:"close_chat" yaml:"close_chat"`
	MaximizeChat    string     `json:"maximize_chat" yaml:"maximize_chat"`
	RestoreChat     string     `json:"restore_chat" yaml:"restore_chat"`
	BreakdownCrafts string     `json:"breakdown_crafts" yaml:"breakdown_crafts"`
	BreakdownStates string     `json:"breakdown_states" yaml:"breakdown_states"`
}

// bundleMessages maps message ids in the locale files onto bundle fields.
var bundleMessages = []struct {
	id    string
	field func(*TranslationBundle) *string
}{
	{"language_name", func(b *TranslationBundle) *string { return &b.Name }},
	{"language_label", func(b *TranslationBundle) *string { return &b.LanguageLabel }},
	{"app_name", func(b *TranslationBundle) *string { return &b.AppName }},
	{"tagline", func(b *TranslationBundle) *string { return &b.Tagline }},
	{"title", func(b *TranslationBundle) *string { return &b.Title }},
	{"title_span", func(b *TranslationBundle) *string { return &b.TitleSpan }},
	{"subtitle", func(b *TranslationBundle) *string { return &b.Subtitle }},
	{"stat_verified", func(b *TranslationBundle) *string { return &b.Stats.Verified }},
	{"stat_crafts", func(b *TranslationBundle) *string { return &b.Stats.Crafts }},
	{"stat_states", func(b *TranslationBundle) *string { return &b.Stats.States }},
	{"cta", func(b *TranslationBundle) *string { return &b.CTA }},
	{"cta_subtitle", func(b *TranslationBundle) *string { return &b.CTASubtitle }},
	{"loading", func(b *TranslationBundle) *string { return &b.Loading }},
	{"load_failed", func(b *TranslationBundle) *string { return &b.LoadFailed }},
	{"open_chat", func(b *TranslationBundle) *string { return &b.OpenChat }},
	{"close_chat", func(b *TranslationBundle) *string { return &b.CloseChat }},
	{"maximize_chat", func(b *TranslationBundle) *string { return &b.MaximizeChat }},
	{"restore_chat", func(b *TranslationBundle) *string { return &b.RestoreChat }},
	{"breakdown_crafts", func(b *TranslationBundle) *string { return &b.BreakdownCrafts }},
	{"breakdown_states", func(b *TranslationBundle) *string { return &b.BreakdownStates }},
}

// MessageIDs lists every message a locale file must define.
func MessageIDs() []string {
	ids := make([]string, len(bundleMessages))
	for i, m := range bundleMessages {
		ids[i] = m.id
	}
	return ids
}

// Missing returns the message ids whose value is empty in the bundle.
func (b TranslationBundle) Missing() []string {
	var missing []string
	for _, m := range bundleMessages {
		if *m.field(&b) == "" {
			missing = append(missing, m.id)
		}
	}
	return missing
}

// TranslationTable is the static mapping from language code to bundle.
// It is immutable after construction.
type TranslationTable struct {
	defaultCode string
	codes       []string
	bundles     map[string]TranslationBundle
	i18n        *i18n.Bundle
}

// NewDefaultTranslationTable loads the embedded locale files.
func NewDefaultTranslationTable() (*TranslationTable, error) {
	return NewEmbeddedTranslationTable(DefaultLanguage)
}

// NewEmbeddedTranslationTable loads the embedded locale files with a custom
// fallback language.
func NewEmbeddedTranslationTable(defaultCode string) (*TranslationTable, error) {
	return NewTranslationTable(embeddedLocales, defaultCode)
}

// NewTranslationTable parses every locales/*.toml file found in fsys. Files
// are named active.<code>.toml. Construction fails when the default language
// is absent or when any language leaves a message undefined.
func NewTranslationTable(fsys fs.FS, defaultCode string) (*TranslationTable, error) {
	defaultCode = normalizeLocale(defaultCode)
	if defaultCode == "" {
		defaultCode = DefaultLanguage
	}
	defaultTag, err := language.Parse(defaultCode)
	if err != nil {
		return nil, fmt.Errorf("dashboard: parse default language %q: %w", defaultCode, err)
	}

	bundle := i18n.NewBundle(defaultTag)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	files, err := fs.Glob(fsys, "locales/*.toml")
	if err != nil {
		return nil, fmt.Errorf("dashboard: list locale files: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("dashboard: no locale files found")
	}
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("dashboard: read %s: %w", file, err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, path.Base(file)); err != nil {
			return nil, fmt.Errorf("dashboard: parse %s: %w", file, err)
		}
	}

	table := &TranslationTable{
		defaultCode: defaultCode,
		bundles:     make(map[string]TranslationBundle),
		i18n:        bundle,
	}
	for _, tag := range bundle.LanguageTags() {
		code := normalizeLocale(tag.String())
		resolved, err := buildBundle(bundle, code)
		if err != nil {
			return nil, err
		}
		table.bundles[code] = resolved
		table.codes = append(table.codes, code)
	}
	if _, ok := table.bundles[defaultCode]; !ok {
		return nil, fmt.Errorf("dashboard: default language %q has no locale file", defaultCode)
	}
	sort.SliceStable(table.codes, func(i, j int) bool {
		if table.codes[i] == defaultCode {
			return true
		}
		if table.codes[j] == defaultCode {
			return false
		}
		return table.codes[i] < table.codes[j]
	})
	return table, nil
}

func buildBundle(bundle *i18n.Bundle, code string) (TranslationBundle, error) {
	localizer := i18n.NewLocalizer(bundle, code)
	out := TranslationBundle{Code: code}
	var errs []error
	for _, m := range bundleMessages {
		value, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: m.id})
		if err != nil {
			// Localize reports a default-language fallback as an error.
			errs = append(errs, fmt.Errorf("dashboard: language %q: message %q: %w", code, m.id, err))
			continue
		}
		if value == "" {
			errs = append(errs, fmt.Errorf("dashboard: language %q: message %q is empty", code, m.id))
			continue
		}
		*m.field(&out) = value
	}
	if len(errs) > 0 {
		return TranslationBundle{}, errors.Join(errs...)
	}
	return out, nil
}

// Resolve returns the bundle for code, or the default bundle when the code
// is not recognized. It never fails.
func (t *TranslationTable) Resolve(code string) TranslationBundle {
	if bundle, ok := t.bundles[normalizeLocale(code)]; ok {
		return bundle
	}
	return t.bundles[t.defaultCode]
}

// Has reports whether code is a recognized key.
func (t *TranslationTable) Has(code string) bool {
	_, ok := t.bundles[normalizeLocale(code)]
	return ok
}

// Default returns the fallback language code.
func (t *TranslationTable) Default() string {
	return t.defaultCode
}

// Codes lists the recognized codes, default first.
func (t *TranslationTable) Codes() []string {
	return append([]string(nil), t.codes...)
}

// Options returns the language selector entries in Codes order.
func (t *TranslationTable) Options() []LanguageOption {
	out := make([]LanguageOption, 0, len(t.codes))
	for _, code := range t.codes {
		out = append(out, LanguageOption{Code: code, Name: t.bundles[code].Name})
	}
	return out
}

// Bundles returns every bundle keyed by code.
func (t *TranslationTable) Bundles() map[string]TranslationBundle {
	out := make(map[string]TranslationBundle, len(t.bundles))
	for code, bundle := range t.bundles {
		out[code] = bundle
	}
	return out
}

// LanguageOption is one entry of the language selector.
type LanguageOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
