package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	loadOnce      sync.Once
	bundle        *i18n.Bundle
	loadErr       error
	defaultLocale = "en"
)

type ctxKey struct{}

func load() {
	loadOnce.Do(func() {
		b := i18n.NewBundle(language.English)
		b.RegisterUnmarshalFunc("json", json.Unmarshal)

		entries, err := localeFS.ReadDir("locales")
		if err != nil {
			loadErr = fmt.Errorf("i18n: read locales dir: %w", err)
			return
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			data, err := localeFS.ReadFile("locales/" + e.Name())
			if err != nil {
				loadErr = fmt.Errorf("i18n: read %s: %w", e.Name(), err)
				return
			}
			if _, err := b.ParseMessageFileBytes(data, e.Name()); err != nil {
				loadErr = fmt.Errorf("i18n: parse %s: %w", e.Name(), err)
				return
			}
		}
		bundle = b
	})
}

// Init loads all locale files and sets the default locale. Call it before serving.
func Init(defLocale string) error {
	load()
	if loadErr != nil {
		return loadErr
	}
	if defLocale != "" {
		defaultLocale = defLocale
	}
	return nil
}

// Locales lists the languages with a message file.
func Locales() []string {
	load()
	if bundle == nil {
		return nil
	}
	tags := bundle.LanguageTags()
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.String())
	}
	return out
}

// WithLocale returns a new context carrying the given locale string (e.g. "fa", "en").
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, ctxKey{}, locale)
}

// LocaleFromContext extracts the locale from the context.
// Returns the configured default locale if not set.
func LocaleFromContext(ctx context.Context) string {
	if ctx != nil {
		if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
			return v
		}
	}
	return defaultLocale
}

// T translates a message ID using the locale from the context.
// Unknown ids come back verbatim.
func T(ctx context.Context, messageID string, templateData ...map[string]any) string {
	load()
	if bundle == nil {
		return messageID
	}
	l := i18n.NewLocalizer(bundle, LocaleFromContext(ctx), defaultLocale)

	cfg := &i18n.LocalizeConfig{MessageID: messageID}
	if len(templateData) > 0 && templateData[0] != nil {
		cfg.TemplateData = templateData[0]
	}

	msg, err := l.Localize(cfg)
	if err != nil {
		return messageID
	}
	return msg
}
