package handlers

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/config"
	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/forms"
	"github.com/AlexTLDR/lesezirkel/internal/i18n"
	"github.com/AlexTLDR/lesezirkel/internal/notify"
	"github.com/AlexTLDR/lesezirkel/internal/storage"
	"github.com/AlexTLDR/lesezirkel/templates"
	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
)

// Server interface defines the methods needed by handlers
type Server interface {
	GetDB() *database.DB
	GetConfig() *config.Config
	GetStorage() storage.Store
	GetNotifier() notify.Notifier
	GetForms() *forms.Decoder
	GetSessions() sessions.Store
}

// SessionName is the cookie holding the login and flash messages.
const SessionName = "auth-session"

// Session values.
const (
	KeyUserID       = "user_id"
	KeyEmail        = "email"
	KeyName         = "name"
	keyCertificates = "certificates"
)

func init() {
	gob.Register([]uint(nil))
}

type staffKey struct{}

// WithStaff stores the signed in staff user in ctx.
func WithStaff(ctx context.Context, u *database.StaffUser) context.Context {
	return context.WithValue(ctx, staffKey{}, u)
}

// StaffFromContext returns the signed in user or nil.
func StaffFromContext(ctx context.Context) *database.StaffUser {
	u, _ := ctx.Value(staffKey{}).(*database.StaffUser)
	return u
}

// IsStaff reports whether the request comes from an active staff account.
func IsStaff(r *http.Request) bool {
	u := StaffFromContext(r.Context())
	return u != nil && u.CanAccessAdmin()
}

// Session returns the request's session. A cookie that cannot be decoded,
// e.g. after the secret changed, yields a fresh session.
func Session(s Server, r *http.Request) *sessions.Session {
	session, err := s.GetSessions().Get(r, SessionName)
	if err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("discarding invalid session cookie")
	}
	return session
}

func saveSession(session *sessions.Session, w http.ResponseWriter, r *http.Request) {
	if err := session.Save(r, w); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to save session")
	}
}

// Flash levels, used as CSS classes.
const (
	flashSuccess = "success"
	flashError   = "error"
	flashWarning = "warning"
)

// AddFlash queues a message for the next rendered page.
func AddFlash(s Server, w http.ResponseWriter, r *http.Request, level, message string) {
	session := Session(s, r)
	session.AddFlash(level + "|" + message)
	saveSession(session, w, r)
}

func popFlashes(s Server, w http.ResponseWriter, r *http.Request) []templates.Flash {
	session := Session(s, r)
	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	saveSession(session, w, r)

	flashes := make([]templates.Flash, 0, len(raw))
	for _, f := range raw {
		str, ok := f.(string)
		if !ok {
			continue
		}
		level, message, found := strings.Cut(str, "|")
		if !found {
			level, message = flashSuccess, str
		}
		flashes = append(flashes, templates.Flash{Level: level, Message: message})
	}
	return flashes
}

func lang(r *http.Request) i18n.Language {
	return i18n.FromContext(r.Context())
}

func translate(r *http.Request, key string, args ...any) string {
	return i18n.T(lang(r), key, args...)
}

// newPage collects the data every page needs. It consumes pending flash
// messages, so it must run before anything is written to w.
func newPage(s Server, w http.ResponseWriter, r *http.Request, title string) templates.Page {
	cfg := s.GetConfig()
	page := templates.Page{
		Title:    title,
		Lang:     lang(r),
		SiteName: cfg.SiteName,
		Path:     r.URL.Path,
		Flashes:  popFlashes(s, w, r),
		Location: cfg.Location,
		Now:      time.Now(),
		MediaURL: s.GetStorage().URL,
	}
	if u := StaffFromContext(r.Context()); u != nil {
		page.User = u.String()
	}
	return page
}

// render buffers the page so a template error still produces a clean 500.
func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to render page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func renderError(s Server, w http.ResponseWriter, r *http.Request, status int) {
	key := "error.generic"
	switch status {
	case http.StatusNotFound:
		key = "page.not_found"
	case http.StatusForbidden:
		key = "page.forbidden"
	}
	message := translate(r, key)
	render(w, r, status, templates.Error(templates.ErrorData{
		Page:    newPage(s, w, r, http.StatusText(status)),
		Status:  status,
		Message: message,
	}))
}

// serverError logs err and shows the generic error page. Missing records
// become a 404.
func serverError(s Server, w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, database.ErrNotFound) || errors.Is(err, storage.ErrNotFound) {
		renderError(s, w, r, http.StatusNotFound)
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	renderError(s, w, r, http.StatusInternalServerError)
}

// HandleNotFound renders the 404 page.
func HandleNotFound(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderError(s, w, r, http.StatusNotFound)
	}
}

// HandleForbidden renders the 403 page.
func HandleForbidden(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		renderError(s, w, r, http.StatusForbidden)
	}
}

// parseID parses an ID string and returns an error if invalid
func parseID(idStr string) (uint, error) {
	var id uint
	if _, err := fmt.Sscanf(idStr, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid ID format: %w", err)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid ID: must be positive")
	}
	if fmt.Sprint(id) != idStr {
		return 0, fmt.Errorf("invalid ID format: %q", idStr)
	}
	return id, nil
}

// urlID reads the {id} route parameter. It writes a 404 and returns false
// when the parameter is not a valid ID.
func urlID(s Server, w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		renderError(s, w, r, http.StatusNotFound)
		return 0, false
	}
	return id, true
}

// attachment sets the download headers for filename.
func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}

// formValues flattens the first value of every field for re-displaying a
// form.
func formValues(r *http.Request) map[string]string {
	out := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		out[key] = r.PostForm.Get(key)
	}
	return out
}
