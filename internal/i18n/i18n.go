package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed locales/*.json
var localesFS embed.FS

const (
	LangEN      = "en"
	LangIT      = "it"
	DefaultLang = LangEN
)

var Supported = []string{LangEN, LangIT}

type contextKey struct{}

var (
	// translations maps lang -> key -> translated string.
	translations map[string]map[string]string
	loadOnce     sync.Once
	loadErr      error
)

// Load reads the embedded JSON locale files. It runs once; later calls
// return the first result. T loads lazily if main never called it.
func Load() error {
	loadOnce.Do(func() {
		loaded := make(map[string]map[string]string)
		for _, lang := range Supported {
			data, err := localesFS.ReadFile("locales/" + lang + ".json")
			if err != nil {
				loadErr = fmt.Errorf("read %s.json: %w", lang, err)
				return
			}
			var raw map[string]any
			if err := json.Unmarshal(data, &raw); err != nil {
				loadErr = fmt.Errorf("parse %s.json: %w", lang, err)
				return
			}
			flat := make(map[string]string)
			flatten("", raw, flat)
			loaded[lang] = flat
		}
		translations = loaded
	})
	return loadErr
}

// KeyCount reports how many keys a language has, for the startup log.
func KeyCount(lang string) int {
	return len(translations[lang])
}

// flatten recursively flattens nested JSON into dot-notation keys.
func flatten(prefix string, m map[string]any, out map[string]string) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case string:
			out[key] = val
		case map[string]any:
			flatten(key, val, out)
		}
	}
}

// WithLocale stores the locale in the context.
func WithLocale(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKey{}, lang)
}

// GetLocale returns the locale from the context, or DefaultLang.
func GetLocale(ctx context.Context) string {
	if lang, ok := ctx.Value(contextKey{}).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}

// T translates a key using the locale from ctx.
// Optional args are used with fmt.Sprintf if the translated string contains verbs.
// Fallback chain: current lang -> EN -> key itself.
func T(ctx context.Context, key string, args ...any) string {
	_ = Load()
	lang := GetLocale(ctx)

	if m, ok := translations[lang]; ok {
		if s, ok := m[key]; ok {
			return format(s, args)
		}
	}
	if lang != DefaultLang {
		if s, ok := translations[DefaultLang][key]; ok {
			return format(s, args)
		}
	}
	return key
}

func format(s string, args []any) string {
	if len(args) == 0 || !strings.Contains(s, "%") {
		return s
	}
	return fmt.Sprintf(s, args...)
}
