package server

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/server/handlers"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// requestLogger puts a logger carrying a fresh request id into the
// context and writes one access log line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)

		log := s.logger.With().Str("request_id", id).Logger()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(log.WithContext(r.Context())))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		default:
			event = log.Info()
		}
		event.Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) checkHost(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.config.HostAllowed(r.Host) {
			zerolog.Ctx(r.Context()).Warn().Str("host", r.Host).Msg("rejected request for unknown host")
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loadStaff resolves the session's user id into the staff account.
func (s *Server) loadStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := handlers.Session(s, r)
		id, ok := session.Values[handlers.KeyUserID].(uint)
		if !ok || id == 0 {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.db.StaffByID(r.Context(), id)
		switch {
		case err == nil:
			r = r.WithContext(handlers.WithStaff(r.Context(), user))
		case errors.Is(err, database.ErrNotFound):
			zerolog.Ctx(r.Context()).Debug().Uint("user_id", id).Msg("session user no longer exists")
		default:
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to load session user")
		}
		next.ServeHTTP(w, r)
	})
}

// noCacheForStaff keeps pages rendered for signed in users out of caches.
func (s *Server) noCacheForStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handlers.StaffFromContext(r.Context()) != nil {
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			w.Header().Set("Pragma", "no-cache")
		}
		next.ServeHTTP(w, r)
	})
}

// requireStaff is a middleware that checks if user is authenticated
func (s *Server) requireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := handlers.StaffFromContext(r.Context())
		if user == nil {
			http.Redirect(w, r, "/admin/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		if !user.CanAccessAdmin() {
			zerolog.Ctx(r.Context()).Warn().Str("email", user.Email).Msg("staff area denied")
			handlers.HandleForbidden(s)(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
