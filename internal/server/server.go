package server

import (
	"net/http"

	"github.com/AlexTLDR/lesezirkel/internal/config"
	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/forms"
	"github.com/AlexTLDR/lesezirkel/internal/i18n"
	"github.com/AlexTLDR/lesezirkel/internal/notify"
	"github.com/AlexTLDR/lesezirkel/internal/server/handlers"
	"github.com/AlexTLDR/lesezirkel/internal/storage"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const sessionMaxAge = 14 * 24 * 60 * 60

type Server struct {
	config       *config.Config
	db           *database.DB
	store        storage.Store
	notifier     notify.Notifier
	forms        *forms.Decoder
	sessionStore *sessions.CookieStore
	oauth        *oauth2.Config
	stateCookie  *securecookie.SecureCookie
	logger       zerolog.Logger
	router       chi.Router
}

// GetDB implements handlers.Server interface
func (s *Server) GetDB() *database.DB {
	return s.db
}

// GetConfig implements handlers.Server interface
func (s *Server) GetConfig() *config.Config {
	return s.config
}

func (s *Server) GetStorage() storage.Store {
	return s.store
}

func (s *Server) GetNotifier() notify.Notifier {
	return s.notifier
}

func (s *Server) GetForms() *forms.Decoder {
	return s.forms
}

func (s *Server) GetSessions() sessions.Store {
	return s.sessionStore
}

// GetCurrentUser implements handlers.AdminServer interface
func (s *Server) GetCurrentUser(r *http.Request) (string, string) {
	session := handlers.Session(s, r)
	email, _ := session.Values[handlers.KeyEmail].(string)
	name, _ := session.Values[handlers.KeyName].(string)
	return email, name
}

func New(cfg *config.Config, db *database.DB, store storage.Store, notifier notify.Notifier, logger zerolog.Logger) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	if notifier == nil {
		notifier = notify.Nop{}
	}

	s := &Server{
		config:       cfg,
		db:           db,
		store:        store,
		notifier:     notifier,
		forms:        forms.New(cfg.Location),
		sessionStore: sessionStore,
		stateCookie:  securecookie.New([]byte(cfg.SessionSecret), nil).MaxAge(stateMaxAge),
		logger:       logger,
	}
	if cfg.GoogleEnabled() {
		s.oauth = googleOAuthConfig(cfg)
	}

	s.setupRoutes()
	return s
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.checkHost)
	r.Use(middleware.StripSlashes)
	r.Use(i18n.Middleware)
	r.Use(s.loadStaff)
	r.Use(s.noCacheForStaff)

	r.NotFound(handlers.HandleNotFound(s))

	// Static files
	fs := http.FileServer(http.Dir(s.config.StaticDir))
	r.Handle("/static/*", http.StripPrefix("/static/", fs))
	r.Get("/media/*", handlers.HandleMedia(s))
	r.Get("/healthz", handlers.HandleHealth(s))

	// Public routes
	r.Get("/", handlers.HandleHome(s))
	r.Get("/ueber-uns", handlers.HandleAbout(s))
	r.Get("/veranstaltungen", handlers.HandleEvents(s))
	r.Get("/veranstaltung/{id}", handlers.HandleEventDetail(s))
	r.Post("/veranstaltung/{id}", handlers.HandleRegister(s))
	r.Get("/nachrichten", handlers.HandleNews(s))
	r.Get("/nachricht/{id}", handlers.HandleNewsDetail(s))
	r.Get("/galerie", handlers.HandleGallery(s))
	r.Get("/dokumente", handlers.HandleDocuments(s))
	r.Get("/dokument/{id}", handlers.HandleDocumentDetail(s))
	r.Get("/dokument/{id}/download", handlers.HandleDocumentDownload(s))
	r.Get("/zertifikate", handlers.HandleCertificates(s))
	r.Post("/zertifikate", handlers.HandleCertificateSearch(s))
	r.Get("/zertifikat/{id}/download", handlers.HandleCertificateDownload(s))
	r.Get("/kontakt", handlers.HandleContact(s))
	r.Post("/kontakt", handlers.HandleContactSubmit(s))
	r.Get("/contact", handlers.HandleContactRedirect())
	r.Get("/impressum", handlers.HandleImpressum(s))
	r.Get("/datenschutz", handlers.HandleDatenschutz(s))

	r.Route("/api", func(r chi.Router) {
		apiConfig := huma.DefaultConfig("Lesezirkel API", "1.0.0")
		apiConfig.Servers = []*huma.Server{{URL: "/api"}}
		handlers.RegisterAPI(humachi.New(r, apiConfig), s)
	})

	// Auth routes
	r.Get("/admin/login", handlers.HandleAdminLogin(s))
	r.Post("/admin/login", handlers.HandleAdminLoginSubmit(s))
	r.Get("/admin/logout", handlers.HandleAdminLogout(s))
	r.Post("/admin/logout", handlers.HandleAdminLogout(s))
	r.Get("/auth/google", s.handleGoogleLogin)
	r.Get("/auth/google/callback", s.handleGoogleCallback)

	// Admin routes (protected)
	r.Group(func(r chi.Router) {
		r.Use(s.requireStaff)
		r.Get("/admin", handlers.HandleAdminDashboard(s))
		for _, res := range handlers.Resources() {
			r.Route("/admin/"+res.Slug(), func(r chi.Router) {
				r.Get("/", res.HandleList(s))
				r.Post("/action", res.HandleAction(s))
				r.Get("/new", res.HandleForm(s))
				r.Post("/new", res.HandleSave(s))
				r.Get("/{id}", res.HandleForm(s))
				r.Post("/{id}", res.HandleSave(s))
				r.Post("/{id}/delete", res.HandleDelete(s))
			})
		}
	})

	s.router = r
}
