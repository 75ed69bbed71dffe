package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/forms"
	"github.com/AlexTLDR/lesezirkel/templates"
	"github.com/rs/zerolog"
)

// AdminServer extends Server with admin-specific methods
type AdminServer interface {
	Server
	GetCurrentUser(r *http.Request) (string, string)
}

const (
	dashboardEvents   = 10
	dashboardMessages = 5
)

func adminNav() []templates.NavEntry {
	nav := make([]templates.NavEntry, len(adminResources))
	for i, res := range adminResources {
		nav[i] = templates.NavEntry{Slug: res.Slug(), Title: res.Title()}
	}
	return nav
}

func newAdminPage(s AdminServer, w http.ResponseWriter, r *http.Request, title string) templates.AdminPage {
	page := templates.AdminPage{Page: newPage(s, w, r, title)}
	if !IsStaff(r) {
		return page
	}
	if email, name := s.GetCurrentUser(r); name != "" {
		page.User = name
	} else if email != "" {
		page.User = email
	}
	page.Nav = adminNav()
	return page
}

// HandleAdminDashboard renders the admin dashboard
func HandleAdminDashboard(s AdminServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		db := s.GetDB()

		counts := make([]templates.Count, 0, len(adminResources))
		for _, res := range adminResources {
			n, err := res.Count(ctx, db)
			if err != nil {
				serverError(s, w, r, err)
				return
			}
			counts = append(counts, templates.Count{Slug: res.Slug(), Title: res.Title(), N: n})
		}

		events, err := db.UpcomingEvents(ctx, time.Now(), dashboardEvents)
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		ids := make([]uint, len(events))
		for i, e := range events {
			ids[i] = e.ID
		}
		regCounts, err := db.RegistrationCounts(ctx, ids)
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		upcoming := make([]templates.DashboardEvent, len(events))
		for i, e := range events {
			c := regCounts[e.ID]
			upcoming[i] = templates.DashboardEvent{Event: e, Total: c.Total, Confirmed: c.Confirmed}
		}

		unread, err := db.UnreadContactMessages(ctx, dashboardMessages)
		if err != nil {
			serverError(s, w, r, err)
			return
		}

		render(w, r, http.StatusOK, templates.AdminDashboard(templates.DashboardData{
			AdminPage: newAdminPage(s, w, r, "Übersicht"),
			Counts:    counts,
			Upcoming:  upcoming,
			Unread:    unread,
		}))
	}
}

// SafeNext returns next when it is a local path and /admin otherwise.
func SafeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/admin"
	}
	return next
}

func renderLogin(s AdminServer, w http.ResponseWriter, r *http.Request, email, next, message string) {
	render(w, r, http.StatusOK, templates.AdminLogin(templates.LoginData{
		AdminPage:     newAdminPage(s, w, r, "Anmeldung"),
		Email:         email,
		Next:          next,
		Error:         message,
		GoogleEnabled: s.GetConfig().GoogleEnabled(),
	}))
}

// HandleAdminLogin shows the login form. Signed in staff go straight on.
func HandleAdminLogin(s AdminServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := SafeNext(r.URL.Query().Get("next"))
		if IsStaff(r) {
			http.Redirect(w, r, next, http.StatusSeeOther)
			return
		}
		renderLogin(s, w, r, "", next, "")
	}
}

// HandleAdminLoginSubmit checks email and password.
func HandleAdminLoginSubmit(s AdminServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		ctx := r.Context()
		log := zerolog.Ctx(ctx)

		var form forms.Login
		errs := s.GetForms().Decode(&form, r.PostForm)
		next := SafeNext(form.Next)
		if errs != nil {
			renderLogin(s, w, r, form.Email, next, translate(r, "login.invalid"))
			return
		}

		user, err := s.GetDB().Authenticate(ctx, form.Email, form.Password)
		if errors.Is(err, database.ErrInvalidCredentials) {
			log.Warn().Str("email", form.Email).Msg("failed staff login")
			renderLogin(s, w, r, form.Email, next, translate(r, "login.invalid"))
			return
		}
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		if !user.CanAccessAdmin() {
			log.Warn().Str("email", user.Email).Msg("login without staff access")
			renderLogin(s, w, r, form.Email, next, translate(r, "login.denied"))
			return
		}

		SignIn(s, w, r, user)
		http.Redirect(w, r, next, http.StatusSeeOther)
	}
}

// SignIn stores user in the session and records the login time.
func SignIn(s Server, w http.ResponseWriter, r *http.Request, user *database.StaffUser) {
	session := Session(s, r)
	session.Values[KeyUserID] = user.ID
	session.Values[KeyEmail] = user.Email
	session.Values[KeyName] = user.Name
	saveSession(session, w, r)

	if err := s.GetDB().TouchLastLogin(r.Context(), user.ID, time.Now()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to record login time")
	}
	zerolog.Ctx(r.Context()).Info().Str("email", user.Email).Msg("staff signed in")
}

// HandleAdminLogout forgets the signed in user and every certificate
// unlocked in this session.
func HandleAdminLogout(s AdminServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := Session(s, r)
		for key := range session.Values {
			delete(session.Values, key)
		}
		session.AddFlash(flashSuccess + "|" + translate(r, "logout.done"))
		saveSession(session, w, r)

		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
		w.Header().Set("Pragma", "no-cache")
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
	}
}
