package dashboard

import (
	"context"
	"net/http"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// TranslationService exposes locale-aware lookups for single message ids.
// Transports rely on this lightweight interface instead of the table type.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

// Translate localizes one message id with optional template data. Unknown
// locales resolve against the default language.
func (t *TranslationTable) Translate(ctx context.Context, key, locale string, args map[string]any) (string, error) {
	code := normalizeLocale(locale)
	if !t.Has(code) {
		code = t.defaultCode
	}
	localizer := i18n.NewLocalizer(t.i18n, code)
	return localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: args,
	})
}

// Message ids for request error texts. Locale files may omit them; the
// English text is used instead.
const (
	MessageErrorViewNotFound = "error_view_not_found"
	MessageErrorBadRequest   = "error_bad_request"
	MessageErrorInternal     = "error_internal"
)

var errorMessageFallbacks = map[string]string{
	MessageErrorViewNotFound: "This dashboard view has expired. Please reload the page.",
	MessageErrorBadRequest:   "The request could not be understood.",
	MessageErrorInternal:     "Something went wrong. Please try again.",
}

// ErrorMessage returns the text shown to the viewer for a request that
// failed with status.
func ErrorMessage(ctx context.Context, svc TranslationService, locale string, status int) string {
	key := MessageErrorInternal
	switch {
	case status == http.StatusNotFound:
		key = MessageErrorViewNotFound
	case status >= 400 && status < 500:
		key = MessageErrorBadRequest
	}
	return translateOrFallback(ctx, svc, key, locale, errorMessageFallbacks[key], nil)
}

// ResolveAcceptLanguage picks the first recognized code from an
// Accept-Language header, matching region tags on their base language.
// It returns the default code when nothing matches.
func (t *TranslationTable) ResolveAcceptLanguage(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return t.defaultCode
	}
	for _, tag := range tags {
		for _, candidate := range localeCandidates(tag.String()) {
			if t.Has(candidate) {
				return candidate
			}
		}
	}
	return t.defaultCode
}

// PreferredLanguage returns explicit when it is recognized and otherwise
// negotiates the Accept-Language header.
func (t *TranslationTable) PreferredLanguage(explicit, acceptLanguage string) string {
	if code := normalizeLocale(explicit); code != "" && t.Has(code) {
		return code
	}
	if strings.TrimSpace(acceptLanguage) == "" {
		return t.defaultCode
	}
	return t.ResolveAcceptLanguage(acceptLanguage)
}

// FormatCount renders a non-negative count with locale digit grouping and a
// trailing plus sign.
func FormatCount(locale string, n int) string {
	tag, err := language.Parse(normalizeLocale(locale))
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag).Sprintf("%d", n) + "+"
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return nil
	}
	candidates := []string{locale}
	if idx := strings.Index(locale, "-"); idx > 0 {
		candidates = append(candidates, locale[:idx])
	}
	return candidates
}

func normalizeLocale(locale string) string {
	return strings.TrimSpace(strings.ToLower(locale))
}

func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string, params map[string]any) string {
	if svc != nil {
		if translated, err := svc.Translate(ctx, key, locale, params); err == nil && translated != "" {
			return translated
		}
	}
	if fallback != "" {
		return fallback
	}
	return key
}
