package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/forms"
	"github.com/AlexTLDR/lesezirkel/internal/storage"
	"github.com/AlexTLDR/lesezirkel/internal/utils"
	"github.com/AlexTLDR/lesezirkel/templates"
	"github.com/rs/zerolog"
)

var adminResources []Resource

func init() {
	adminResources = []Resource{
		eventResource(),
		registrationResource(),
		invitationCodeResource(),
		newsResource(),
		teamResource(),
		galleryResource(),
		contactResource(),
		documentResource(),
		certificateResource(),
		announcementResource(),
		staffResource(),
	}
}

// Resources lists everything managed in the staff area, in menu order.
func Resources() []Resource {
	return adminResources
}

func flag(b bool) string {
	if b {
		return "Ja"
	}
	return "Nein"
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func eventChoices(ctx context.Context, db *database.DB) ([]database.Choice, error) {
	events, err := database.List[database.Event](ctx, db, database.OrderBy("starts_at DESC"))
	if err != nil {
		return nil, err
	}
	choices := make([]database.Choice, len(events))
	for i, e := range events {
		choices[i] = database.Choice{Value: idString(e.ID), Label: e.Title}
	}
	return choices, nil
}

func eventFilter() filter {
	return filter{
		name:    "event_id",
		label:   "Veranstaltung",
		options: eventChoices,
		scope: func(value string) database.Scope {
			return database.Where("event_id = ?", value)
		},
	}
}

func choiceFilter(name, label, column string, choices []database.Choice) filter {
	return filter{
		name:    name,
		label:   label,
		choices: choices,
		scope: func(value string) database.Scope {
			return database.Where(column+" = ?", value)
		},
	}
}

func imageField[T any](folder string, key func(*T) *string) field[T] {
	return field[T]{name: "image", label: "Bild", kind: kindFile, file: key, folder: folder, accept: imageTypes}
}

func eventResource() *resource[database.Event] {
	return &resource[database.Event]{
		slug:     "events",
		title:    "Veranstaltungen",
		singular: "Veranstaltung",
		columns:  []string{"Titel", "Datum", "Ort", "Kategorie", "Öffentlich", "Anmeldung"},
		cells: func(p templates.Page, e *database.Event) []string {
			return []string{e.Title, p.DateTime(e.Date), e.Location, e.CategoryLabel(), flag(e.IsPublic), flag(e.RegistrationRequired)}
		},
		search: []string{"title", "description", "location"},
		order:  "starts_at DESC",
		filters: []filter{
			choiceFilter("category", "Kategorie", "category", database.EventCategories),
			boolFilter("is_public", "Öffentlich", "is_public"),
			boolFilter("is_featured", "Hervorgehoben", "is_featured"),
			boolFilter("registration_required", "Anmeldung", "registration_required"),
		},
		actions: exportActions(true),
		fields: []field[database.Event]{
			{name: "title", label: "Titel", kind: kindText, required: true},
			{name: "description", label: "Beschreibung", kind: kindTextarea, required: true},
			{name: "date", label: "Datum und Uhrzeit", kind: kindDateTime, required: true},
			{name: "location", label: "Ort", kind: kindText, required: true},
			imageField(storage.FolderEvents, func(e *database.Event) *string { return &e.Image }),
			{name: "category", label: "Kategorie", kind: kindSelect, choices: database.EventCategories, required: true},
			{name: "is_featured", label: "Hervorgehoben", kind: kindCheckbox},
			{name: "is_public", label: "Öffentlich", kind: kindCheckbox},
			{name: "registration_required", label: "Anmeldung erforderlich", kind: kindCheckbox},
			{name: "invitation_only", label: "Nur mit Einladungscode", kind: kindCheckbox,
				help: "Die Veranstaltung nimmt auch ohne Veröffentlichung Anmeldungen mit gültigem Code an."},
			{name: "max_participants", label: "Maximale Teilnehmerzahl", kind: kindNumber, help: "Leer lassen für unbegrenzt."},
		},
		defaults: func(_ context.Context, _ Server, e *database.Event) error {
			e.Date = time.Now().Add(7 * 24 * time.Hour).Truncate(time.Hour)
			e.IsPublic = true
			e.Category = "primary"
			return nil
		},
	}
}

func registrationResource() *resource[database.EventRegistration] {
	return &resource[database.EventRegistration]{
		slug:     "registrations",
		title:    "Anmeldungen",
		singular: "Anmeldung",
		columns:  []string{"Name", "Veranstaltung", "E-Mail", "Telefon", "Bestätigt", "Angemeldet am"},
		cells: func(p templates.Page, reg *database.EventRegistration) []string {
			return []string{reg.FullName(), reg.Event.Title, reg.Email, utils.FormatPhone(reg.Phone), flag(reg.IsConfirmed), p.DateTime(reg.CreatedAt)}
		},
		search:  []string{"first_name", "last_name", "email"},
		order:   "created_at DESC",
		preload: []string{"Event", "InvitationCode"},
		filters: []filter{
			eventFilter(),
			boolFilter("is_confirmed", "Bestätigt", "is_confirmed"),
			boolFilter("photo_consent", "Fotoerlaubnis", "photo_consent"),
			boolFilter("newsletter_consent", "Newsletter", "newsletter_consent"),
		},
		actions: append([]action{
			confirmAction("confirm", "Ausgewählte bestätigen", true),
			confirmAction("unconfirm", "Bestätigung aufheben", false),
		}, exportActions(false)...),
		noCreate: true,
		fields: []field[database.EventRegistration]{
			{name: "event", label: "Veranstaltung", kind: kindText, show: func(p templates.Page, reg *database.EventRegistration) string {
				return fmt.Sprintf("%s (%s)", reg.Event.Title, p.DateTime(reg.Event.Date))
			}},
			{name: "first_name", label: "Vorname", kind: kindText, readOnly: true},
			{name: "last_name", label: "Nachname", kind: kindText, readOnly: true},
			{name: "email", label: "E-Mail", kind: kindEmail, readOnly: true},
			{name: "phone", label: "Telefon", kind: kindText, show: func(_ templates.Page, reg *database.EventRegistration) string {
				return utils.FormatPhone(reg.Phone)
			}},
			{name: "message", label: "Nachricht", kind: kindTextarea, readOnly: true},
			{name: "privacy_consent", label: "Datenschutz akzeptiert", kind: kindCheckbox, readOnly: true},
			{name: "newsletter_consent", label: "Newsletter", kind: kindCheckbox, readOnly: true},
			{name: "photo_consent", label: "Fotoerlaubnis", kind: kindCheckbox, readOnly: true},
			{name: "invitation_code", label: "Einladungscode", kind: kindText, show: func(_ templates.Page, reg *database.EventRegistration) string {
				if reg.InvitationCode == nil {
					return ""
				}
				return reg.InvitationCode.Code
			}},
			{name: "created_at", label: "Angemeldet am", kind: kindText, show: func(p templates.Page, reg *database.EventRegistration) string {
				return p.DateTime(reg.CreatedAt)
			}},
			{name: "is_confirmed", label: "Bestätigt", kind: kindCheckbox},
		},
		save: saveRegistration,
	}
}

// saveRegistration confirms through the edit form under the same capacity
// rule as the bulk confirm action.
func saveRegistration(ctx context.Context, s Server, reg *database.EventRegistration) error {
	return s.GetDB().SaveRegistration(ctx, reg)
}

func invitationCodeResource() *resource[database.InvitationCode] {
	return &resource[database.InvitationCode]{
		slug:     "invitation-codes",
		title:    "Einladungscodes",
		singular: "Einladungscode",
		columns:  []string{"Code", "Veranstaltung", "Eingeladen", "Nutzungen", "Aktiv", "Gültig bis"},
		cells: func(p templates.Page, c *database.InvitationCode) []string {
			expires := "-"
			if c.ExpiresAt != nil {
				expires = p.DateTime(*c.ExpiresAt)
			}
			return []string{c.Code, c.Event.Title, c.InvitedName, fmt.Sprintf("%d / %d", c.TimesUsed, c.MaxUses), flag(c.IsActive), expires}
		},
		search:  []string{"code", "invited_name", "notes"},
		order:   "created_at DESC",
		preload: []string{"Event"},
		filters: []filter{
			eventFilter(),
			boolFilter("is_active", "Aktiv", "is_active"),
		},
		actions: []action{
			columnAction[database.InvitationCode]("invitation-codes", "activate", "Aktivieren", "is_active", true),
			columnAction[database.InvitationCode]("invitation-codes", "deactivate", "Deaktivieren", "is_active", false),
		},
		fields: []field[database.InvitationCode]{
			{name: "event_id", label: "Veranstaltung", kind: kindSelect, options: eventChoices, required: true},
			{name: "code", label: "Code", kind: kindText, required: true,
				help: "Großbuchstaben, Ziffern und Bindestriche, mindestens 3 Zeichen."},
			{name: "invited_name", label: "Eingeladene Person", kind: kindText,
				help: "Wenn gesetzt, muss der angemeldete Name ungefähr übereinstimmen."},
			{name: "max_uses", label: "Maximale Nutzungen", kind: kindNumber, required: true},
			{name: "times_used", label: "Bisher genutzt", kind: kindText, show: func(_ templates.Page, c *database.InvitationCode) string {
				return fmt.Sprintf("%d (noch %d)", c.TimesUsed, c.RemainingUses())
			}},
			{name: "is_active", label: "Aktiv", kind: kindCheckbox},
			{name: "expires_at", label: "Gültig bis", kind: kindDateTime, help: "Leer lassen für unbegrenzte Gültigkeit."},
			{name: "notes", label: "Notizen", kind: kindTextarea},
		},
		defaults: func(ctx context.Context, s Server, c *database.InvitationCode) error {
			code, err := s.GetDB().GenerateUniqueCode(ctx)
			if err != nil {
				return err
			}
			c.Code = code
			c.MaxUses = 1
			c.IsActive = true
			return nil
		},
		prepare: func(r *http.Request, s Server, c *database.InvitationCode, errs forms.Errors) {
			c.Code = database.NormalizeCode(c.Code)
			if errs.Has("code") {
				return
			}
			exists, err := s.GetDB().CodeExists(r.Context(), c.Code, c.ID)
			if err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to check invitation code")
				errs.Add("__all__", translate(r, "error.generic"))
				return
			}
			if exists {
				errs.Add("code", "Dieser Code wird bereits verwendet.")
			}
		},
	}
}

func newsResource() *resource[database.News] {
	return &resource[database.News]{
		slug:     "news",
		title:    "Nachrichten",
		singular: "Nachricht",
		columns:  []string{"Titel", "Veröffentlicht", "Hervorgehoben"},
		cells: func(p templates.Page, n *database.News) []string {
			return []string{n.Title, p.DateTime(n.PublishedDate), flag(n.IsFeatured)}
		},
		search:  []string{"title", "content"},
		order:   "published_date DESC",
		filters: []filter{boolFilter("is_featured", "Hervorgehoben", "is_featured")},
		fields: []field[database.News]{
			{name: "title", label: "Titel", kind: kindText, required: true},
			{name: "content", label: "Inhalt", kind: kindTextarea, required: true},
			imageField(storage.FolderNews, func(n *database.News) *string { return &n.Image }),
			{name: "is_featured", label: "Hervorgehoben", kind: kindCheckbox},
			{name: "published_date", label: "Veröffentlichungsdatum", kind: kindDateTime, required: true,
				help: "Nachrichten mit einem Datum in der Zukunft erscheinen erst dann auf der Website."},
		},
		defaults: func(_ context.Context, _ Server, n *database.News) error {
			n.PublishedDate = time.Now().Truncate(time.Minute)
			return nil
		},
	}
}

func teamResource() *resource[database.TeamMember] {
	return &resource[database.TeamMember]{
		slug:     "team",
		title:    "Team",
		singular: "Teammitglied",
		columns:  []string{"Name", "Position", "E-Mail", "Reihenfolge"},
		cells: func(_ templates.Page, m *database.TeamMember) []string {
			return []string{m.Name, m.Position, m.Email, strconv.Itoa(m.SortOrder)}
		},
		search: []string{"name", "position"},
		order:  "sort_order ASC, name ASC",
		fields: []field[database.TeamMember]{
			{name: "name", label: "Name", kind: kindText, required: true},
			{name: "position", label: "Position", kind: kindText, required: true},
			{name: "bio", label: "Über die Person", kind: kindTextarea},
			imageField(storage.FolderTeam, func(m *database.TeamMember) *string { return &m.Image }),
			{name: "email", label: "E-Mail", kind: kindEmail},
			{name: "phone", label: "Telefon", kind: kindText},
			{name: "order", label: "Reihenfolge", kind: kindNumber, help: "Kleinere Zahlen erscheinen zuerst."},
		},
		prepare: func(_ *http.Request, _ Server, m *database.TeamMember, _ forms.Errors) {
			m.Phone = utils.CleanPhone(m.Phone)
		},
	}
}

func galleryResource() *resource[database.GalleryItem] {
	return &resource[database.GalleryItem]{
		slug:     "gallery",
		title:    "Galerie",
		singular: "Bild",
		columns:  []string{"Titel", "Veranstaltung", "Hochgeladen"},
		cells: func(p templates.Page, g *database.GalleryItem) []string {
			event := "-"
			if g.Event != nil {
				event = g.Event.Title
			}
			return []string{g.Title, event, p.DateTime(g.CreatedAt)}
		},
		search:  []string{"title", "description"},
		order:   "created_at DESC",
		preload: []string{"Event"},
		filters: []filter{eventFilter()},
		fields: []field[database.GalleryItem]{
			{name: "title", label: "Titel", kind: kindText, required: true},
			{name: "description", label: "Beschreibung", kind: kindTextarea},
			{name: "image", label: "Bild", kind: kindFile, required: true, folder: storage.FolderGallery, accept: imageTypes,
				file: func(g *database.GalleryItem) *string { return &g.Image }},
			{name: "event_id", label: "Veranstaltung", kind: kindSelect, options: eventChoices},
		},
	}
}

func contactResource() *resource[database.ContactMessage] {
	const slug = "contacts"
	return &resource[database.ContactMessage]{
		slug:     slug,
		title:    "Kontaktanfragen",
		singular: "Kontaktanfrage",
		columns:  []string{"Betreff", "Name", "E-Mail", "Eingegangen", "Gelesen", "Beantwortet"},
		cells: func(p templates.Page, m *database.ContactMessage) []string {
			return []string{m.Subject, m.Name, m.Email, p.DateTime(m.CreatedAt), flag(m.IsRead), flag(m.IsAnswered)}
		},
		search: []string{"name", "email", "subject", "message"},
		order:  "created_at DESC",
		filters: []filter{
			boolFilter("is_read", "Gelesen", "is_read"),
			boolFilter("is_answered", "Beantwortet", "is_answered"),
		},
		actions: []action{
			columnAction[database.ContactMessage](slug, "mark_read", "Als gelesen markieren", "is_read", true),
			columnAction[database.ContactMessage](slug, "mark_answered", "Als beantwortet markieren", "is_answered", true),
		},
		noCreate: true,
		fields: []field[database.ContactMessage]{
			{name: "name", label: "Name", kind: kindText, readOnly: true},
			{name: "email", label: "E-Mail", kind: kindEmail, readOnly: true},
			{name: "subject", label: "Betreff", kind: kindText, readOnly: true},
			{name: "message", label: "Nachricht", kind: kindTextarea, readOnly: true},
			{name: "created_at", label: "Eingegangen", kind: kindText, show: func(p templates.Page, m *database.ContactMessage) string {
				return p.DateTime(m.CreatedAt)
			}},
			{name: "is_read", label: "Gelesen", kind: kindCheckbox},
			{name: "is_answered", label: "Beantwortet", kind: kindCheckbox},
		},
	}
}

func documentResource() *resource[database.Document] {
	return &resource[database.Document]{
		slug:     "documents",
		title:    "Dokumente",
		singular: "Dokument",
		columns:  []string{"Titel", "Kategorie", "Datei", "Größe", "Downloads", "Öffentlich"},
		cells: func(_ templates.Page, d *database.Document) []string {
			return []string{d.Title, d.CategoryLabel(), d.FileName, d.FormattedFileSize(), strconv.Itoa(d.DownloadCount), flag(d.IsPublic)}
		},
		search: []string{"title", "description", "file_name"},
		order:  "created_at DESC",
		filters: []filter{
			choiceFilter("category", "Kategorie", "category", database.DocumentCategories),
			boolFilter("is_public", "Öffentlich", "is_public"),
			boolFilter("is_featured", "Hervorgehoben", "is_featured"),
		},
		fields: []field[database.Document]{
			{name: "title", label: "Titel", kind: kindText, required: true},
			{name: "description", label: "Beschreibung", kind: kindTextarea},
			{name: "category", label: "Kategorie", kind: kindSelect, choices: database.DocumentCategories, required: true},
			{name: "file", label: "Datei", kind: kindFile, required: true, folder: storage.FolderDocuments,
				help: "Word, Excel, PowerPoint, Text und RTF werden beim Download in PDF umgewandelt.",
				file: func(d *database.Document) *string { return &d.File },
				uploaded: func(d *database.Document, filename string, obj storage.Object) {
					d.FileName = utils.BaseName(filename)
					d.FileSize = obj.Size
				}},
			{name: "file_size", label: "Dateigröße", kind: kindText, show: func(_ templates.Page, d *database.Document) string {
				return d.FormattedFileSize()
			}},
			{name: "download_count", label: "Downloads", kind: kindText, show: func(_ templates.Page, d *database.Document) string {
				return strconv.Itoa(d.DownloadCount)
			}},
			{name: "is_featured", label: "Hervorgehoben", kind: kindCheckbox},
			{name: "is_public", label: "Öffentlich", kind: kindCheckbox},
		},
		defaults: func(_ context.Context, _ Server, d *database.Document) error {
			d.Category = "general"
			d.IsPublic = true
			return nil
		},
	}
}

func certificateResource() *resource[database.Certificate] {
	return &resource[database.Certificate]{
		slug:     "certificates",
		title:    "Zertifikate",
		singular: "Zertifikat",
		columns:  []string{"Name", "Teilnehmernummer", "Veranstaltung", "Abschluss"},
		cells: func(p templates.Page, c *database.Certificate) []string {
			return []string{c.FullName(), c.ParticipantNumber, c.EventTitle, p.Date(c.CompletionDate)}
		},
		search: []string{"first_name", "last_name", "participant_number", "event_title"},
		order:  "created_at DESC",
		fields: []field[database.Certificate]{
			{name: "first_name", label: "Vorname", kind: kindText, required: true},
			{name: "last_name", label: "Nachname", kind: kindText, required: true},
			{name: "participant_number", label: "Teilnehmernummer", kind: kindText, required: true},
			{name: "event_title", label: "Veranstaltung", kind: kindText, required: true},
			{name: "completion_date", label: "Abschlussdatum", kind: kindDate, required: true},
			{name: "file", label: "Zertifikat (PDF)", kind: kindFile, required: true, folder: storage.FolderCertificates, accept: pdfTypes,
				file: func(c *database.Certificate) *string { return &c.File }},
		},
	}
}

func announcementResource() *resource[database.Announcement] {
	return &resource[database.Announcement]{
		slug:     "announcements",
		title:    "Ankündigungen",
		singular: "Ankündigung",
		columns:  []string{"Titel", "Art", "Aktiv", "Von", "Bis", "Sichtbar"},
		cells: func(p templates.Page, a *database.Announcement) []string {
			return []string{a.Title, a.TypeLabel(), flag(a.IsActive), p.DateTime(a.StartDate), p.DateTime(a.EndDate), flag(a.IsCurrentlyActive(p.Now))}
		},
		search: []string{"title", "message"},
		order:  "start_date DESC",
		filters: []filter{
			choiceFilter("announcement_type", "Art", "announcement_type", database.AnnouncementTypes),
			boolFilter("is_active", "Aktiv", "is_active"),
		},
		fields: []field[database.Announcement]{
			{name: "title", label: "Titel", kind: kindText, required: true},
			{name: "message", label: "Nachricht", kind: kindTextarea, required: true},
			{name: "announcement_type", label: "Art", kind: kindSelect, choices: database.AnnouncementTypes, required: true},
			imageField(storage.FolderAnnouncements, func(a *database.Announcement) *string { return &a.Image }),
			{name: "background_music", label: "Hintergrundmusik", kind: kindFile, folder: storage.FolderMusic, accept: audioTypes,
				file: func(a *database.Announcement) *string { return &a.BackgroundMusic }},
			{name: "is_active", label: "Aktiv", kind: kindCheckbox},
			{name: "start_date", label: "Beginn", kind: kindDateTime, required: true},
			{name: "end_date", label: "Ende", kind: kindDateTime, required: true},
			{name: "auto_close_seconds", label: "Automatisch schließen nach (Sekunden)", kind: kindNumber,
				help: "0 bedeutet, dass das Popup offen bleibt."},
			{name: "background_color", label: "Hintergrundfarbe", kind: kindColor, required: true},
			{name: "text_color", label: "Textfarbe", kind: kindColor, required: true},
		},
		defaults: func(_ context.Context, _ Server, a *database.Announcement) error {
			now := time.Now().Truncate(time.Minute)
			a.Type = "news"
			a.IsActive = true
			a.StartDate = now
			a.EndDate = now.Add(7 * 24 * time.Hour)
			a.BackgroundColor = "#007bff"
			a.TextColor = "#ffffff"
			return nil
		},
	}
}

func staffResource() *resource[database.StaffUser] {
	return &resource[database.StaffUser]{
		slug:     "staff",
		title:    "Mitarbeiter",
		singular: "Mitarbeiter",
		columns:  []string{"E-Mail", "Name", "Mitarbeiter", "Aktiv", "Letzte Anmeldung"},
		cells: func(p templates.Page, u *database.StaffUser) []string {
			last := "-"
			if u.LastLoginAt != nil {
				last = p.DateTime(*u.LastLoginAt)
			}
			return []string{u.Email, u.Name, flag(u.IsStaff), flag(u.IsActive), last}
		},
		search: []string{"email", "name"},
		order:  "email ASC",
		filters: []filter{
			boolFilter("is_staff", "Mitarbeiter", "is_staff"),
			boolFilter("is_active", "Aktiv", "is_active"),
		},
		fields: []field[database.StaffUser]{
			{name: "email", label: "E-Mail", kind: kindEmail, required: true},
			{name: "name", label: "Name", kind: kindText},
			{name: "password", label: "Neues Passwort", kind: kindPassword,
				help: fmt.Sprintf("Mindestens %d Zeichen. Leer lassen, um das Passwort nicht zu ändern.", database.MinPasswordLength)},
			{name: "is_staff", label: "Zugang zum Verwaltungsbereich", kind: kindCheckbox},
			{name: "is_active", label: "Aktiv", kind: kindCheckbox},
			{name: "last_login_at", label: "Letzte Anmeldung", kind: kindText, show: func(p templates.Page, u *database.StaffUser) string {
				if u.LastLoginAt == nil {
					return ""
				}
				return p.DateTime(*u.LastLoginAt)
			}},
		},
		defaults: func(_ context.Context, _ Server, u *database.StaffUser) error {
			u.IsStaff = true
			u.IsActive = true
			return nil
		},
		prepare: func(r *http.Request, _ Server, u *database.StaffUser, errs forms.Errors) {
			u.Email = strings.ToLower(u.Email)
			if password := r.PostForm.Get("password"); password != "" {
				if err := u.SetPassword(password); err != nil {
					errs.Add("password", fmt.Sprintf("Das Passwort muss mindestens %d Zeichen lang sein.", database.MinPasswordLength))
				}
			}
		},
	}
}
