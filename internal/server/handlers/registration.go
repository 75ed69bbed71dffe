package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/forms"
	"github.com/rs/zerolog"
)

// registrationMessage maps the outcome of a registration to a flash level
// and message key.
func registrationMessage(err error) (string, string) {
	var inv *database.InvitationError
	switch {
	case err == nil:
		return flashSuccess, "registration.success"
	case errors.As(err, &inv):
		return flashError, inv.MessageKey()
	case errors.Is(err, database.ErrAlreadyRegistered):
		return flashWarning, "registration.duplicate"
	case errors.Is(err, database.ErrEventFull):
		return flashError, "registration.full"
	case errors.Is(err, database.ErrRegistrationClosed):
		return flashError, "registration.closed"
	}
	return flashError, "error.generic"
}

// HandleRegister processes event registration submissions. Field errors
// re-render the form; every other outcome is flashed and redirected back
// to the event page.
func HandleRegister(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := urlID(s, w, r)
		if !ok {
			return
		}
		ctx := r.Context()
		log := zerolog.Ctx(ctx).With().Uint("event_id", id).Logger()

		event, err := s.GetDB().GetEvent(ctx, id)
		if err != nil {
			serverError(s, w, r, err)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		var form forms.Registration
		if errs := s.GetForms().Decode(&form, r.PostForm); errs != nil {
			log.Debug().Str("errors", errs.Error()).Msg("invalid registration form")
			AddFlash(s, w, r, flashError, translate(r, "registration.invalid"))
			renderEvent(s, w, r, http.StatusOK, event, formValues(r), errs)
			return
		}

		redirect := fmt.Sprintf("/veranstaltung/%d", event.ID)

		reg, err := s.GetDB().RegisterForEvent(ctx, event.ID, form.Input(), time.Now())
		level, key := registrationMessage(err)
		if level == flashError && key == "error.generic" {
			log.Error().Err(err).Msg("event registration failed")
		} else if err != nil {
			log.Info().Err(err).Msg("registration rejected")
		}
		AddFlash(s, w, r, level, translate(r, key))
		if err != nil {
			http.Redirect(w, r, redirect, http.StatusSeeOther)
			return
		}

		log.Info().Uint("registration_id", reg.ID).Msg("new event registration")
		if err := s.GetNotifier().NotifyRegistration(ctx, reg.Event, *reg); err != nil {
			log.Error().Err(err).Msg("failed to send registration notification")
		}
		http.Redirect(w, r, redirect, http.StatusSeeOther)
	}
}
