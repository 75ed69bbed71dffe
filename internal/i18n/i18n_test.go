package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetLanguageFromRequest(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		cookie   string
		expected Language
	}{
		{"default", "/", "", German},
		{"query en", "/?lang=en", "", English},
		{"query wins over cookie", "/?lang=de", "en", German},
		{"cookie", "/", "en", English},
		{"unknown query falls back to cookie", "/?lang=fr", "en", English},
		{"unknown cookie", "/", "ro", German},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			if got := GetLanguageFromRequest(r); got != tt.expected {
				t.Errorf("GetLanguageFromRequest() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	var seen Language
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?lang=en", nil))

	if seen != English {
		t.Errorf("language in context = %q, want en", seen)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CookieName || cookies[0].Value != "en" {
		t.Errorf("expected lang cookie, got %v", cookies)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(rec.Result().Cookies()) != 0 {
		t.Error("no cookie expected without explicit choice")
	}
}

func TestT(t *testing.T) {
	if got := T(German, "registration.full"); got != "Diese Veranstaltung ist bereits ausgebucht." {
		t.Errorf("T(de) = %q", got)
	}
	if got := T(English, "registration.full"); got != "This event is fully booked." {
		t.Errorf("T(en) = %q", got)
	}
	if got := T(German, "admin.updated", 3); got != "3 Einträge wurden aktualisiert." {
		t.Errorf("T with args = %q", got)
	}
	if got := T(English, "no.such.key"); got != "no.such.key" {
		t.Errorf("unknown key = %q", got)
	}
}

func TestCatalogComplete(t *testing.T) {
	for key, entry := range messages {
		if entry.de == "" || entry.en == "" {
			t.Errorf("message %q is missing a translation", key)
		}
	}
}
