package server

import (
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/AlexTLDR/lesezirkel/internal/config"
	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/i18n"
	"github.com/AlexTLDR/lesezirkel/internal/server/handlers"
	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	stateCookieName = "oauth-state"
	stateMaxAge     = 10 * 60
	userInfoURL     = "https://www.googleapis.com/oauth2/v2/userinfo"
)

func googleOAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// oauthState travels in a signed cookie between the redirect to Google
// and the callback.
type oauthState struct {
	State string
	Next  string
}

func (s *Server) setStateCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    value,
		Path:     "/auth/google",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.oauth == nil {
		handlers.HandleNotFound(s)(w, r)
		return
	}

	state := base64.RawURLEncoding.EncodeToString(securecookie.GenerateRandomKey(32))
	encoded, err := s.stateCookie.Encode(stateCookieName, oauthState{
		State: state,
		Next:  handlers.SafeNext(r.URL.Query().Get("next")),
	})
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to encode oauth state")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.setStateCookie(w, encoded, stateMaxAge)

	http.Redirect(w, r, s.oauth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

type googleUser struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	VerifiedEmail bool   `json:"verified_email"`
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauth == nil {
		handlers.HandleNotFound(s)(w, r)
		return
	}
	ctx := r.Context()
	log := zerolog.Ctx(ctx)

	fail := func(key string, err error) {
		log.Warn().Err(err).Msg("google sign-in failed")
		handlers.AddFlash(s, w, r, "error", i18n.T(i18n.FromContext(ctx), key))
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
	}

	var saved oauthState
	cookie, err := r.Cookie(stateCookieName)
	if err == nil {
		err = s.stateCookie.Decode(stateCookieName, cookie.Value, &saved)
	}
	s.setStateCookie(w, "", -1)
	got := r.URL.Query().Get("state")
	if err != nil || saved.State == "" || subtle.ConstantTimeCompare([]byte(saved.State), []byte(got)) != 1 {
		fail("login.google_failed", fmt.Errorf("invalid oauth state: %w", errors.Join(err, errors.New("state mismatch"))))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		fail("login.google_failed", errors.New("code not found"))
		return
	}

	info, err := s.fetchGoogleUser(r, code)
	if err != nil {
		fail("login.google_failed", err)
		return
	}

	user, err := s.staffForGoogle(r, info)
	switch {
	case errors.Is(err, errNoAccess):
		fail("login.denied", err)
		return
	case err != nil:
		fail("login.google_failed", err)
		return
	}

	handlers.SignIn(s, w, r, user)
	http.Redirect(w, r, handlers.SafeNext(saved.Next), http.StatusSeeOther)
}

func (s *Server) fetchGoogleUser(r *http.Request, code string) (*googleUser, error) {
	token, err := s.oauth.Exchange(r.Context(), code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	resp, err := s.oauth.Client(r.Context(), token).Get(userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info returned %s", resp.Status)
	}

	var info googleUser
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	info.Email = strings.ToLower(strings.TrimSpace(info.Email))
	if info.Email == "" || !info.VerifiedEmail {
		return nil, errors.New("google account has no verified email")
	}
	return &info, nil
}

var errNoAccess = errors.New("account has no staff access")

// staffForGoogle returns the account for a Google user. Addresses in
// ADMIN_EMAILS get an active staff account; anyone else needs one already.
func (s *Server) staffForGoogle(r *http.Request, info *googleUser) (*database.StaffUser, error) {
	if s.config.IsAdminEmail(info.Email) {
		return s.db.UpsertStaff(r.Context(), info.Email, info.Name, "", true, true)
	}

	user, err := s.db.StaffByEmail(r.Context(), info.Email)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil, fmt.Errorf("%s: %w", info.Email, errNoAccess)
	case err != nil:
		return nil, err
	case !user.CanAccessAdmin():
		return nil, fmt.Errorf("%s: %w", info.Email, errNoAccess)
	}
	return user, nil
}
