package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/config"
	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/database/dbtest"
	"github.com/AlexTLDR/lesezirkel/internal/storage"
	"github.com/rs/zerolog"
)

type recordingNotifier struct {
	mu            sync.Mutex
	registrations []database.EventRegistration
	contacts      []database.ContactMessage
}

func (n *recordingNotifier) NotifyRegistration(_ context.Context, _ database.Event, reg database.EventRegistration) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.registrations = append(n.registrations, reg)
	return nil
}

func (n *recordingNotifier) NotifyContact(_ context.Context, msg database.ContactMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.contacts = append(n.contacts, msg)
	return nil
}

type testEnv struct {
	db       *database.DB
	store    storage.Store
	notifier *recordingNotifier
	server   *httptest.Server
	client   *http.Client
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	cfg := &config.Config{
		Environment:   "test",
		SiteName:      "Lesezirkel Osnabrück",
		SessionSecret: "test-secret-with-enough-entropy-123",
		StaticDir:     t.TempDir(),
		MediaDir:      t.TempDir(),
		MaxUploadMB:   10,
		Location:      loc,
	}
	if mutate != nil {
		mutate(cfg)
	}

	db := dbtest.New(t)
	store, err := storage.NewLocal(cfg.MediaDir)
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	notifier := &recordingNotifier{}

	srv := httptest.NewServer(New(cfg, db, store, notifier, zerolog.Nop()).Handler())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &testEnv{db: db, store: store, notifier: notifier, server: srv, client: client}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.Get(e.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp, readBody(t, resp)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := e.client.PostForm(e.server.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return string(body)
}

func (e *testEnv) createEvent(t *testing.T, mutate func(*database.Event)) *database.Event {
	t.Helper()
	event := &database.Event{
		Title:                "Lesung im Park",
		Description:          "Eine Lesung unter freiem Himmel.",
		Date:                 time.Now().UTC().Add(72 * time.Hour),
		Location:             "Schlossgarten",
		IsPublic:             true,
		RegistrationRequired: true,
		Category:             "primary",
	}
	if mutate != nil {
		mutate(event)
	}
	if err := database.Create(context.Background(), e.db, event); err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return event
}

func (e *testEnv) login(t *testing.T) *database.StaffUser {
	t.Helper()
	user, err := e.db.UpsertStaff(context.Background(), "team@lesezirkel.de", "Team", "geheim123", true, true)
	if err != nil {
		t.Fatalf("failed to create staff user: %v", err)
	}
	resp, _ := e.post(t, "/admin/login", url.Values{
		"email":    {"team@lesezirkel.de"},
		"password": {"geheim123"},
	})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	return user
}

func TestPublicPages(t *testing.T) {
	env := newTestEnv(t, nil)
	event := env.createEvent(t, nil)

	paths := []string{
		"/", "/ueber-uns", "/veranstaltungen", "/veranstaltungen?year=2025&month=13",
		"/nachrichten", "/galerie", "/dokumente", "/dokumente?category=forms",
		"/zertifikate", "/kontakt", "/impressum", "/datenschutz",
		"/veranstaltung/" + idString(event.ID),
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			resp, body := env.get(t, path)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d, want 200", resp.StatusCode)
			}
			if !strings.Contains(body, "Lesezirkel Osnabrück") {
				t.Error("page does not contain the site name")
			}
			if resp.Header.Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID header")
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/gibt-es-nicht", "/veranstaltung/abc", "/veranstaltung/999", "/nachricht/0", "/dokument/12"} {
		resp, _ := env.get(t, path)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, resp.StatusCode)
		}
	}
}

func TestContactRedirect(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.get(t, "/contact")
	if resp.StatusCode != http.StatusMovedPermanently {
		t.Fatalf("status = %d, want 301", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != "/kontakt" {
		t.Errorf("Location = %q, want /kontakt", got)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, body := env.get(t, "/healthz")
	if resp.StatusCode != http.StatusOK || body != "OK" {
		t.Errorf("health = %d %q, want 200 OK", resp.StatusCode, body)
	}
}

func TestAllowedHosts(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.AllowedHosts = []string{"lesezirkel-osnabrueck.de"}
	})

	resp, _ := env.get(t, "/")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for unknown host", resp.StatusCode)
	}
}

func registrationForm(email string) url.Values {
	return url.Values{
		"first_name":      {"Anna"},
		"last_name":       {"Schmidt"},
		"email":           {email},
		"phone":           {"0541 123456"},
		"privacy_consent": {"on"},
	}
}

func TestRegistration(t *testing.T) {
	env := newTestEnv(t, nil)
	event := env.createEvent(t, nil)
	path := "/veranstaltung/" + idString(event.ID)

	resp, _ := env.post(t, path, registrationForm("Anna@Example.com"))
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != path {
		t.Errorf("Location = %q, want %q", got, path)
	}

	_, body := env.get(t, path)
	if !strings.Contains(body, "alert-success") {
		t.Error("success message not shown after redirect")
	}

	// the same address again is rejected
	resp, _ = env.post(t, path, registrationForm("anna@example.com"))
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("duplicate status = %d, want 303", resp.StatusCode)
	}

	n, err := database.Count[database.EventRegistration](context.Background(), env.db)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 1 {
		t.Errorf("registrations = %d, want 1", n)
	}
	if len(env.notifier.registrations) != 1 {
		t.Fatalf("notifications = %d, want 1", len(env.notifier.registrations))
	}
	if got := env.notifier.registrations[0].Email; got != "anna@example.com" {
		t.Errorf("stored email = %q, want lower case", got)
	}
}

func TestRegistrationInvalidForm(t *testing.T) {
	env := newTestEnv(t, nil)
	event := env.createEvent(t, nil)

	form := registrationForm("keine-mail")
	form.Del("privacy_consent")
	resp, body := env.post(t, "/veranstaltung/"+idString(event.ID), form)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 with the form", resp.StatusCode)
	}
	if !strings.Contains(body, `value="Anna"`) {
		t.Error("entered values are not shown again")
	}
	if !strings.Contains(body, "field-error") {
		t.Error("field errors are not shown")
	}

	n, _ := database.Count[database.EventRegistration](context.Background(), env.db)
	if n != 0 {
		t.Errorf("registrations = %d, want 0", n)
	}
}

func TestRegistrationClosedForPastEvent(t *testing.T) {
	env := newTestEnv(t, nil)
	event := env.createEvent(t, func(e *database.Event) {
		e.Date = time.Now().UTC().Add(-time.Hour)
	})

	resp, _ := env.post(t, "/veranstaltung/"+idString(event.ID), registrationForm("anna@example.com"))
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", resp.StatusCode)
	}
	n, _ := database.Count[database.EventRegistration](context.Background(), env.db)
	if n != 0 {
		t.Errorf("registrations = %d, want 0", n)
	}
}

func TestContactForm(t *testing.T) {
	env := newTestEnv(t, nil)
	form := url.Values{
		"name":    {"Anna"},
		"email":   {"anna@example.com"},
		"subject": {"Frage"},
		"message": {"Wann ist das nächste Treffen?"},
	}

	t.Run("honeypot", func(t *testing.T) {
		bot := url.Values{}
		for k, v := range form {
			bot[k] = v
		}
		bot.Set("hp_field", "http://spam.example")
		resp, body := env.post(t, "/kontakt", bot)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if strings.Contains(body, "spam.example") {
			t.Error("honeypot value is rendered back")
		}
	})

	t.Run("valid", func(t *testing.T) {
		resp, _ := env.post(t, "/kontakt", form)
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", resp.StatusCode)
		}
	})

	n, _ := database.Count[database.ContactMessage](context.Background(), env.db)
	if n != 1 {
		t.Errorf("contact messages = %d, want 1", n)
	}
	if len(env.notifier.contacts) != 1 {
		t.Errorf("notifications = %d, want 1", len(env.notifier.contacts))
	}
}

func (e *testEnv) storeFile(t *testing.T, folder, name, content string) string {
	t.Helper()
	obj, err := e.store.Save(context.Background(), folder, name, strings.NewReader(content))
	if err != nil {
		t.Fatalf("failed to store file: %v", err)
	}
	return obj.Key
}

func TestCertificateDownload(t *testing.T) {
	env := newTestEnv(t, nil)
	cert := &database.Certificate{
		FirstName:         "Anna",
		LastName:          "Schmidt",
		ParticipantNumber: "LZ-2025-001",
		EventTitle:        "Deutschkurs B1",
		CompletionDate:    time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		File:              env.storeFile(t, storage.FolderCertificates, "zertifikat.pdf", "%PDF-1.4 test"),
	}
	if err := database.Create(context.Background(), env.db, cert); err != nil {
		t.Fatalf("failed to create certificate: %v", err)
	}
	download := "/zertifikat/" + idString(cert.ID) + "/download"

	resp, _ := env.get(t, download)
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/zertifikate" {
		t.Fatalf("download without search = %d %q, want redirect to /zertifikate", resp.StatusCode, resp.Header.Get("Location"))
	}

	resp, _ = env.post(t, "/zertifikate", url.Values{
		"first_name":         {"anna"},
		"last_name":          {"Schmidt"},
		"participant_number": {"LZ-2025-999"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unknown number status = %d, want 200", resp.StatusCode)
	}

	resp, _ = env.post(t, "/zertifikate", url.Values{
		"first_name":         {"anna"},
		"last_name":          {"Schmidt"},
		"participant_number": {"LZ-2025-001"},
	})
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != download {
		t.Fatalf("search = %d %q, want redirect to %s", resp.StatusCode, resp.Header.Get("Location"), download)
	}

	resp, body := env.get(t, download)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "application/pdf" {
		t.Errorf("Content-Type = %q, want application/pdf", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "Anna Schmidt_Zertifikat.pdf") {
		t.Errorf("Content-Disposition = %q", resp.Header.Get("Content-Disposition"))
	}
	if body != "%PDF-1.4 test" {
		t.Errorf("body = %q, want the stored file", body)
	}
}

func TestDocumentDownload(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	doc := &database.Document{
		Title:    "Satzung",
		Category: "forms",
		File:     env.storeFile(t, storage.FolderDocuments, "satzung.txt", "Paragraph 1\n\nDer Verein heißt Lesezirkel."),
		FileName: "satzung.txt",
		IsPublic: true,
	}
	if err := database.Create(ctx, env.db, doc); err != nil {
		t.Fatalf("failed to create document: %v", err)
	}
	hidden := &database.Document{Title: "Intern", Category: "reports", File: doc.File, FileName: "intern.txt"}
	if err := database.Create(ctx, env.db, hidden); err != nil {
		t.Fatalf("failed to create document: %v", err)
	}

	resp, body := env.get(t, "/dokument/"+idString(doc.ID)+"/download")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "application/pdf" || !strings.HasPrefix(body, "%PDF") {
		t.Errorf("download is not a PDF: %q", resp.Header.Get("Content-Type"))
	}

	got, err := database.Get[database.Document](ctx, env.db, doc.ID)
	if err != nil {
		t.Fatalf("failed to reload document: %v", err)
	}
	if got.DownloadCount != 1 {
		t.Errorf("download count = %d, want 1", got.DownloadCount)
	}

	resp, _ = env.get(t, "/dokument/"+idString(hidden.ID)+"/download")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("private document status = %d, want 404", resp.StatusCode)
	}

	t.Run("unconvertible file is served as is", func(t *testing.T) {
		legacy := &database.Document{
			Title:    "Altes Formular",
			Category: "forms",
			File:     env.storeFile(t, storage.FolderDocuments, "alt.doc", "legacy"),
			FileName: "alt.doc",
			IsPublic: true,
		}
		if err := database.Create(ctx, env.db, legacy); err != nil {
			t.Fatalf("failed to create document: %v", err)
		}

		resp, body := env.get(t, "/dokument/"+idString(legacy.ID)+"/download")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/octet-stream" {
			t.Errorf("Content-Type = %q, want application/octet-stream", ct)
		}
		if cd := resp.Header.Get("Content-Disposition"); cd != "attachment; filename=alt.doc" {
			t.Errorf("Content-Disposition = %q, want the original file name", cd)
		}
		if body != "legacy" {
			t.Errorf("body = %q, want the original bytes", body)
		}

		got, err := database.Get[database.Document](ctx, env.db, legacy.ID)
		if err != nil {
			t.Fatalf("failed to reload document: %v", err)
		}
		if got.DownloadCount != 1 {
			t.Errorf("download count = %d, want 1", got.DownloadCount)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		lost := &database.Document{
			Title:    "Verloren",
			Category: "forms",
			File:     storage.FolderDocuments + "/verloren.pdf",
			FileName: "verloren.pdf",
			IsPublic: true,
		}
		if err := database.Create(ctx, env.db, lost); err != nil {
			t.Fatalf("failed to create document: %v", err)
		}

		resp, _ := env.get(t, "/dokument/"+idString(lost.ID)+"/download")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}

		got, err := database.Get[database.Document](ctx, env.db, lost.ID)
		if err != nil {
			t.Fatalf("failed to reload document: %v", err)
		}
		if got.DownloadCount != 0 {
			t.Errorf("download count = %d, want 0", got.DownloadCount)
		}
	})
}

func TestMediaOnlyServesPublicFolders(t *testing.T) {
	env := newTestEnv(t, nil)
	image := env.storeFile(t, storage.FolderEvents, "plakat.png", "png-bytes")
	cert := env.storeFile(t, storage.FolderCertificates, "geheim.pdf", "%PDF")

	resp, body := env.get(t, "/media/"+image)
	if resp.StatusCode != http.StatusOK || body != "png-bytes" {
		t.Errorf("image = %d %q, want 200", resp.StatusCode, body)
	}
	resp, _ = env.get(t, "/media/"+cert)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("certificate via media = %d, want 404", resp.StatusCode)
	}
}

func TestAdminRequiresLogin(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.get(t, "/admin/events?page=2")
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	want := "/admin/login?next=" + url.QueryEscape("/admin/events?page=2")
	if got := resp.Header.Get("Location"); got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	if _, err := env.db.UpsertStaff(context.Background(), "team@lesezirkel.de", "Team", "geheim123", true, true); err != nil {
		t.Fatalf("failed to create staff user: %v", err)
	}

	t.Run("wrong password", func(t *testing.T) {
		resp, body := env.post(t, "/admin/login", url.Values{"email": {"team@lesezirkel.de"}, "password": {"falsch"}})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if !strings.Contains(body, "alert-error") {
			t.Error("error message not shown")
		}
	})

	t.Run("external next is ignored", func(t *testing.T) {
		resp, _ := env.post(t, "/admin/login", url.Values{
			"email":    {"team@lesezirkel.de"},
			"password": {"geheim123"},
			"next":     {"//evil.example"},
		})
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", resp.StatusCode)
		}
		if got := resp.Header.Get("Location"); got != "/admin" {
			t.Errorf("Location = %q, want /admin", got)
		}
	})

	t.Run("dashboard", func(t *testing.T) {
		resp, body := env.get(t, "/admin")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if !strings.Contains(resp.Header.Get("Cache-Control"), "no-store") {
			t.Errorf("Cache-Control = %q, want no-store", resp.Header.Get("Cache-Control"))
		}
		if !strings.Contains(body, "Übersicht") || !strings.Contains(body, "/admin/registrations") {
			t.Error("dashboard is missing its navigation")
		}
	})

	t.Run("logout", func(t *testing.T) {
		resp, _ := env.post(t, "/admin/logout", nil)
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("status = %d, want 303", resp.StatusCode)
		}
		resp, _ = env.get(t, "/admin")
		if resp.StatusCode != http.StatusFound {
			t.Errorf("after logout status = %d, want 302", resp.StatusCode)
		}
	})
}

func TestAdminDeactivatedUser(t *testing.T) {
	env := newTestEnv(t, nil)
	user := env.login(t)

	user.IsActive = false
	if err := database.Save(context.Background(), env.db, user); err != nil {
		t.Fatalf("failed to deactivate user: %v", err)
	}

	resp, _ := env.get(t, "/admin")
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestAdminEventCRUD(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)
	ctx := context.Background()

	resp, body := env.get(t, "/admin/events/new")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("new form status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, `name="title"`) {
		t.Error("new form has no title field")
	}

	// missing location re-renders the form
	form := url.Values{
		"title":       {"Vorlesestunde"},
		"description": {"Für Kinder ab 5 Jahren."},
		"date":        {"2030-05-04T15:00"},
		"category":    {"accent"},
		"is_public":   {"on"},
	}
	resp, body = env.post(t, "/admin/events/new", form)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("invalid save status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "Vorlesestunde") {
		t.Error("posted values are not shown again")
	}

	form.Set("location", "Stadtbibliothek")
	resp, _ = env.post(t, "/admin/events/new", form)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("save status = %d, want 303", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != "/admin/events" {
		t.Errorf("Location = %q, want /admin/events", got)
	}

	events, err := database.List[database.Event](ctx, env.db)
	if err != nil || len(events) != 1 {
		t.Fatalf("events = %v (err %v), want one", events, err)
	}
	event := events[0]
	if !event.IsPublic || event.RegistrationRequired {
		t.Errorf("checkboxes not stored: public %v, registration %v", event.IsPublic, event.RegistrationRequired)
	}
	// 15:00 in Osnabrück during summer time
	if want := time.Date(2030, 5, 4, 13, 0, 0, 0, time.UTC); !event.Date.Equal(want) {
		t.Errorf("date = %v, want %v", event.Date, want)
	}

	resp, body = env.get(t, "/admin/events?q=vorlese")
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "Vorlesestunde") {
		t.Errorf("search did not find the event (status %d)", resp.StatusCode)
	}

	resp, _ = env.post(t, "/admin/events/"+idString(event.ID)+"/delete", nil)
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("delete status = %d, want 303", resp.StatusCode)
	}
	n, _ := database.Count[database.Event](ctx, env.db)
	if n != 0 {
		t.Errorf("events after delete = %d, want 0", n)
	}
}

func TestAdminConfirmAndExport(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)
	ctx := context.Background()

	limit := 1
	event := env.createEvent(t, func(e *database.Event) { e.MaxParticipants = &limit })
	var ids []string
	for _, email := range []string{"a@example.com", "b@example.com"} {
		reg, err := env.db.RegisterForEvent(ctx, event.ID, database.RegistrationInput{
			FirstName: "Anna", LastName: "Schmidt", Email: email, PrivacyConsent: true,
		}, time.Now())
		if err != nil {
			t.Fatalf("failed to register: %v", err)
		}
		ids = append(ids, idString(reg.ID))
	}

	resp, _ := env.post(t, "/admin/registrations/action", url.Values{"action": {"confirm"}, "ids": ids})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("confirm status = %d, want 303", resp.StatusCode)
	}
	confirmed, err := env.db.ConfirmedCount(ctx, event.ID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if confirmed != 1 {
		t.Errorf("confirmed = %d, want capacity of 1", confirmed)
	}

	var pending string
	for _, id := range ids {
		reg, err := database.Get[database.EventRegistration](ctx, env.db, parseUint(t, id))
		if err != nil {
			t.Fatalf("failed to load registration: %v", err)
		}
		if !reg.IsConfirmed {
			pending = id
		}
	}
	resp, body := env.post(t, "/admin/registrations/"+pending, url.Values{"is_confirmed": {"on"}})
	if resp.StatusCode != http.StatusOK || !strings.Contains(body, "ausgebucht") {
		t.Errorf("confirm via edit form = %d, want the form again with a capacity error", resp.StatusCode)
	}
	confirmed, _ = env.db.ConfirmedCount(ctx, event.ID)
	if confirmed != 1 {
		t.Errorf("confirmed after edit form = %d, want 1", confirmed)
	}

	resp, body = env.post(t, "/admin/events/action", url.Values{"action": {"export_csv"}, "ids": {idString(event.ID)}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d, want 200", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(resp.Header.Get("Content-Disposition"), "attachment") {
		t.Error("export is not sent as attachment")
	}
	if !strings.Contains(body, "a@example.com") || !strings.Contains(body, "b@example.com") {
		t.Error("export is missing registrations")
	}

	resp, _ = env.post(t, "/admin/registrations/action", url.Values{"action": {"confirm"}})
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("empty selection status = %d, want 303", resp.StatusCode)
	}
}

func TestAPI(t *testing.T) {
	env := newTestEnv(t, nil)
	limit := 10
	event := env.createEvent(t, func(e *database.Event) { e.MaxParticipants = &limit })

	t.Run("events", func(t *testing.T) {
		resp, body := env.get(t, "/api/events?limit=5")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
		}
		var events []struct {
			ID  uint   `json:"id"`
			URL string `json:"url"`
		}
		if err := json.Unmarshal([]byte(body), &events); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(events) != 1 || events[0].URL != "/veranstaltung/"+idString(event.ID) {
			t.Errorf("events = %+v", events)
		}
	})

	t.Run("event detail", func(t *testing.T) {
		resp, body := env.get(t, "/api/events/"+idString(event.ID))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
		}
		var detail struct {
			Title     string `json:"title"`
			SpotsLeft *int   `json:"spots_left"`
		}
		if err := json.Unmarshal([]byte(body), &detail); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if detail.SpotsLeft == nil || *detail.SpotsLeft != 10 {
			t.Errorf("spots_left = %v, want 10", detail.SpotsLeft)
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		resp, _ := env.get(t, "/api/events/9999")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("status = %d, want 404", resp.StatusCode)
		}
	})

	t.Run("limit out of range", func(t *testing.T) {
		resp, _ := env.get(t, "/api/events?limit=500")
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want 422", resp.StatusCode)
		}
	})

	t.Run("calendar", func(t *testing.T) {
		resp, body := env.get(t, "/api/calendar?year=2025&month=2")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
		}
		if !strings.Contains(body, `"month_name":"Februar"`) {
			t.Errorf("unexpected calendar body: %s", body)
		}
	})
}

func TestGoogleLoginDisabled(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := env.get(t, "/auth/google")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without Google credentials", resp.StatusCode)
	}
}

func TestGoogleLoginRedirect(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.GoogleClientID = "client-id"
		cfg.GoogleClientSecret = "client-secret"
		cfg.GoogleRedirectURL = "http://localhost/auth/google/callback"
	})

	resp, _ := env.get(t, "/auth/google?next=/admin/news")
	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", resp.StatusCode)
	}
	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("invalid Location: %v", err)
	}
	if loc.Host != "accounts.google.com" {
		t.Errorf("redirect host = %q, want accounts.google.com", loc.Host)
	}
	if loc.Query().Get("state") == "" {
		t.Error("redirect carries no state")
	}

	// a callback with a forged state goes back to the login page
	resp, _ = env.get(t, "/auth/google/callback?state=forged&code=abc")
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("callback status = %d, want 303", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != "/admin/login" {
		t.Errorf("Location = %q, want /admin/login", got)
	}
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseUint(t *testing.T, s string) uint {
	t.Helper()
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		t.Fatalf("invalid id %q: %v", s, err)
	}
	return uint(n)
}
