package i18n

import (
	"context"
	"fmt"
	"net/http"
)

type Language string

const (
	German  Language = "de"
	English Language = "en"
)

// CookieName stores the visitor's language choice.
const CookieName = "lang"

func parse(value string) (Language, bool) {
	switch value {
	case "de":
		return German, true
	case "en":
		return English, true
	}
	return "", false
}

// GetLanguageFromRequest extracts language from request (query param or cookie)
func GetLanguageFromRequest(r *http.Request) Language {
	if lang, ok := parse(r.URL.Query().Get("lang")); ok {
		return lang
	}

	if cookie, err := r.Cookie(CookieName); err == nil {
		if lang, ok := parse(cookie.Value); ok {
			return lang
		}
	}

	return German
}

type ctxKey struct{}

// Middleware stores the request language in the context and remembers an
// explicit ?lang= choice in a cookie.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := GetLanguageFromRequest(r)
		if _, ok := parse(r.URL.Query().Get("lang")); ok {
			http.SetCookie(w, &http.Cookie{
				Name:     CookieName,
				Value:    string(lang),
				Path:     "/",
				MaxAge:   365 * 24 * 60 * 60,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, r.WithContext(WithLanguage(r.Context(), lang)))
	})
}

func WithLanguage(ctx context.Context, lang Language) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// FromContext returns the language stored by Middleware, German otherwise.
func FromContext(ctx context.Context) Language {
	if lang, ok := ctx.Value(ctxKey{}).(Language); ok {
		return lang
	}
	return German
}

// T looks up key in the catalog. Unknown keys are returned as is, missing
// English texts fall back to German.
func T(lang Language, key string, args ...any) string {
	entry, ok := messages[key]
	if !ok {
		return key
	}
	text := entry.de
	if lang == English && entry.en != "" {
		text = entry.en
	}
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}
