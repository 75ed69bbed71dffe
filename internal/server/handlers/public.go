package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/calendar"
	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/forms"
	"github.com/AlexTLDR/lesezirkel/templates"
	"github.com/rs/zerolog"
)

const (
	homeEvents  = 8
	homeNews    = 3
	homeGallery = 6
	related     = 3
)

// HandleHome renders the home page
func HandleHome(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		db := s.GetDB()
		now := time.Now()

		events, err := db.UpcomingEvents(ctx, now, homeEvents)
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		news, err := db.FeaturedNews(ctx, now, homeNews)
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		gallery, err := db.LatestGallery(ctx, homeGallery)
		if err != nil {
			serverError(s, w, r, err)
			return
		}

		// The popup is optional, a failed lookup only hides it.
		announcement, err := db.CurrentAnnouncement(ctx, now)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to load announcement")
		}

		render(w, r, http.StatusOK, templates.Home(templates.HomeData{
			Page:         newPage(s, w, r, ""),
			Events:       events,
			News:         news,
			Gallery:      gallery,
			Announcement: announcement,
		}))
	}
}

func HandleAbout(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		team, err := s.GetDB().TeamMembers(r.Context())
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		render(w, r, http.StatusOK, templates.About(templates.AboutData{
			Page: newPage(s, w, r, translate(r, "nav.about")),
			Team: team,
		}))
	}
}

// HandleEvents renders the month calendar. Missing or invalid year and
// month default to the current month; months out of range roll over.
func HandleEvents(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc := s.GetConfig().Location
		today := time.Now().In(loc)

		year, err := strconv.Atoi(r.URL.Query().Get("year"))
		if err != nil {
			year = today.Year()
		}
		month, err := strconv.Atoi(r.URL.Query().Get("month"))
		if err != nil {
			month = int(today.Month())
		}
		ym := calendar.Normalize(year, month)

		start, end := ym.Range(loc)
		events, err := s.GetDB().EventsBetween(r.Context(), start, end)
		if err != nil {
			serverError(s, w, r, err)
			return
		}

		grid := calendar.Build(ym, today, events, func(e database.Event) int {
			return e.Date.In(loc).Day()
		})
		render(w, r, http.StatusOK, templates.Calendar(templates.CalendarData{
			Page:  newPage(s, w, r, translate(r, "nav.events")),
			Month: grid,
			Days:  calendar.DayNames,
		}))
	}
}

// HandleEventDetail shows an event and, when it accepts registrations, the
// registration form.
func HandleEventDetail(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(s, w, r)
		if !ok {
			return
		}
		event, err := s.GetDB().GetEvent(r.Context(), id)
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		renderEvent(s, w, r, http.StatusOK, event, nil, nil)
	}
}

func renderEvent(s Server, w http.ResponseWriter, r *http.Request, status int, event *database.Event, form map[string]string, errs forms.Errors) {
	ctx := r.Context()
	db := s.GetDB()
	now := time.Now()

	relatedEvents, err := db.RelatedEvents(ctx, event.ID, related)
	if err != nil {
		serverError(s, w, r, err)
		return
	}

	var confirmed int64
	spotsLeft := 0
	if event.MaxParticipants != nil {
		confirmed, err = db.ConfirmedCount(ctx, event.ID)
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		spotsLeft = max(*event.MaxParticipants-int(confirmed), 0)
	}

	render(w, r, status, templates.EventDetail(templates.EventData{
		Page:           newPage(s, w, r, event.Title),
		Event:          *event,
		Related:        relatedEvents,
		Confirmed:      confirmed,
		IsPast:         event.IsPast(now),
		AcceptsForm:    event.AcceptsRegistrations(now),
		SpotsLeft:      spotsLeft,
		Form:           form,
		Errors:         errs,
		InvitationOnly: event.InvitationOnly,
	}))
}

func HandleNews(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.GetDB().PublishedNews(r.Context(), time.Now(), database.ParsePage(r.URL.Query().Get("page")))
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		render(w, r, http.StatusOK, templates.News(templates.NewsData{
			Page: newPage(s, w, r, translate(r, "nav.news")),
			News: page,
		}))
	}
}

func HandleNewsDetail(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(s, w, r)
		if !ok {
			return
		}
		ctx := r.Context()
		now := time.Now()

		item, err := s.GetDB().PublishedNewsItem(ctx, id, now)
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		relatedNews, err := s.GetDB().RelatedNews(ctx, id, now, related)
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		render(w, r, http.StatusOK, templates.NewsDetail(templates.NewsItemData{
			Page:    newPage(s, w, r, item.Title),
			Item:    *item,
			Related: relatedNews,
		}))
	}
}

func HandleGallery(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := s.GetDB().GalleryPage(r.Context(), database.ParsePage(r.URL.Query().Get("page")))
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		render(w, r, http.StatusOK, templates.Gallery(templates.GalleryData{
			Page:  newPage(s, w, r, translate(r, "nav.gallery")),
			Items: page,
		}))
	}
}

func HandleImpressum(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, http.StatusOK, templates.Impressum(newPage(s, w, r, translate(r, "nav.imprint"))))
	}
}

func HandleDatenschutz(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, http.StatusOK, templates.Datenschutz(newPage(s, w, r, translate(r, "nav.privacy"))))
	}
}

// HandleContact shows the contact form.
func HandleContact(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, r, http.StatusOK, templates.Contact(templates.ContactData{
			Page: newPage(s, w, r, translate(r, "nav.contact")),
		}))
	}
}

// HandleContactSubmit stores a contact message. A filled in honeypot field
// fails validation like any other field, so bots see the form again.
func HandleContactSubmit(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		log := zerolog.Ctx(r.Context())

		var form forms.Contact
		if errs := s.GetForms().Decode(&form, r.PostForm); errs != nil {
			log.Warn().Str("errors", errs.Error()).Msg("invalid contact form submission")
			AddFlash(s, w, r, flashError, translate(r, "contact.invalid"))
			values := formValues(r)
			delete(values, "hp_field")
			render(w, r, http.StatusOK, templates.Contact(templates.ContactData{
				Page:   newPage(s, w, r, translate(r, "nav.contact")),
				Form:   values,
				Errors: errs,
			}))
			return
		}

		msg := form.Model()
		if err := s.GetDB().CreateContactMessage(r.Context(), msg); err != nil {
			serverError(s, w, r, err)
			return
		}
		log.Info().Str("email", msg.Email).Msg("contact form submission")

		if err := s.GetNotifier().NotifyContact(r.Context(), *msg); err != nil {
			log.Error().Err(err).Msg("failed to send contact notification")
		}

		AddFlash(s, w, r, flashSuccess, translate(r, "contact.success"))
		http.Redirect(w, r, "/kontakt", http.StatusSeeOther)
	}
}

// HandleContactRedirect keeps the old English URL working.
func HandleContactRedirect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/kontakt", http.StatusMovedPermanently)
	}
}

// HandleHealth reports whether the database is reachable.
func HandleHealth(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.GetDB().Ping(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	}
}
