package database

import (
	"fmt"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/utils"
)

// Model replaces gorm.Model: rows are deleted for real so that unique
// indexes keep working after a delete.
type Model struct {
	ID        uint      `gorm:"primaryKey" json:"id" schema:"-"`
	CreatedAt time.Time `json:"created_at" schema:"-"`
	UpdatedAt time.Time `json:"updated_at" schema:"-"`
}

func (m Model) PrimaryKey() uint { return m.ID }

// Choice is a value with its German display label.
type Choice struct {
	Value string
	Label string
}

var EventCategories = []Choice{
	{"primary", "Kulturelle Veranstaltungen"},
	{"secondary", "Workshops & Seminare"},
	{"success", "Integrationsprojekte"},
	{"accent", "Sprachkurse"},
	{"purple", "Begegnungen"},
	{"orange", "Feste & Feiern"},
}

var DocumentCategories = []Choice{
	{"general", "Alle Dokumente"},
	{"forms", "Formulare"},
	{"brochures", "Broschüren"},
	{"reports", "Berichte"},
	{"certificates", "Zertifikate"},
}

var AnnouncementTypes = []Choice{
	{"event", "Wichtiges Ereignis"},
	{"invitation", "Einladung"},
	{"funeral", "Traueranzeige"},
	{"news", "Wichtige Nachricht"},
	{"warning", "Warnung"},
}

// ChoiceLabel returns the label for value or value itself when unknown.
func ChoiceLabel(choices []Choice, value string) string {
	for _, c := range choices {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

type Event struct {
	Model
	Title                string    `gorm:"size:200;not null" json:"title" schema:"title" validate:"required,max=200"`
	Description          string    `gorm:"not null" json:"description" schema:"description" validate:"required"`
	Date                 time.Time `gorm:"column:starts_at;not null" json:"date" schema:"date" validate:"required"`
	Location             string    `gorm:"size:200;not null" json:"location" schema:"location" validate:"required,max=200"`
	Image                string    `json:"image,omitempty" schema:"-"`
	IsFeatured           bool      `json:"is_featured" schema:"is_featured"`
	IsPublic             bool      `json:"is_public" schema:"is_public"`
	RegistrationRequired bool      `json:"registration_required" schema:"registration_required"`
	InvitationOnly       bool      `json:"invitation_only" schema:"invitation_only"`
	MaxParticipants      *int      `json:"max_participants,omitempty" schema:"max_participants" validate:"omitempty,min=1"`
	Category             string    `gorm:"size:20;not null" json:"category" schema:"category" validate:"required,oneof=primary secondary success accent purple orange"`
}

func (Event) TableName() string { return "events" }

func (e Event) String() string { return e.Title }

// IsPast reports whether the event has already started.
func (e Event) IsPast(now time.Time) bool {
	return e.Date.Before(now)
}

// AcceptsRegistrations reports whether the registration form is offered.
// Invitation-only events accept registrations even when not public.
func (e Event) AcceptsRegistrations(now time.Time) bool {
	return e.RegistrationRequired && (e.IsPublic || e.InvitationOnly) && !e.IsPast(now)
}

func (e Event) CategoryLabel() string {
	return ChoiceLabel(EventCategories, e.Category)
}

type EventRegistration struct {
	Model
	EventID           uint            `gorm:"not null" json:"event_id" schema:"event_id" validate:"required"`
	Event             Event           `json:"-" schema:"-" validate:"-"`
	FirstName         string          `gorm:"size:100;not null" json:"first_name" schema:"first_name" validate:"required,max=100"`
	LastName          string          `gorm:"size:100;not null" json:"last_name" schema:"last_name" validate:"required,max=100"`
	Email             string          `gorm:"size:254;not null" json:"email" schema:"email" validate:"required,email,max=254"`
	Phone             string          `gorm:"size:20" json:"phone" schema:"phone" validate:"max=20"`
	Message           string          `json:"message" schema:"message"`
	PrivacyConsent    bool            `json:"privacy_consent" schema:"privacy_consent"`
	NewsletterConsent bool            `json:"newsletter_consent" schema:"newsletter_consent"`
	PhotoConsent      bool            `json:"photo_consent" schema:"photo_consent"`
	InvitationCodeID  *uint           `json:"invitation_code_id,omitempty" schema:"-"`
	InvitationCode    *InvitationCode `json:"-" schema:"-" validate:"-"`
	IsConfirmed       bool            `json:"is_confirmed" schema:"is_confirmed"`
}

func (EventRegistration) TableName() string { return "event_registrations" }

func (r EventRegistration) FullName() string {
	return r.FirstName + " " + r.LastName
}

func (r EventRegistration) String() string {
	if r.Event.ID != 0 {
		return fmt.Sprintf("%s - %s", r.FullName(), r.Event.Title)
	}
	return r.FullName()
}

type InvitationCode struct {
	Model
	EventID     uint       `gorm:"not null" json:"event_id" schema:"event_id" validate:"required"`
	Event       Event      `json:"-" schema:"-" validate:"-"`
	Code        string     `gorm:"size:50;not null;uniqueIndex" json:"code" schema:"code" validate:"required,invitecode"`
	InvitedName string     `gorm:"size:200" json:"invited_name" schema:"invited_name" validate:"max=200"`
	MaxUses     int        `gorm:"not null" json:"max_uses" schema:"max_uses" validate:"min=1"`
	TimesUsed   int        `gorm:"not null" json:"times_used" schema:"-"`
	IsActive    bool       `json:"is_active" schema:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" schema:"expires_at"`
	Notes       string     `json:"notes" schema:"notes"`
}

func (InvitationCode) TableName() string { return "invitation_codes" }

func (c InvitationCode) String() string { return c.Code }

// Check validates the code for event. Reasons are reported in the order
// inactive, exhausted, expired, event already past.
func (c InvitationCode) Check(event Event, now time.Time) error {
	switch {
	case !c.IsActive:
		return &InvitationError{Reason: ReasonInactive}
	case c.TimesUsed >= c.MaxUses:
		return &InvitationError{Reason: ReasonExhausted}
	case c.ExpiresAt != nil && c.ExpiresAt.Before(now):
		return &InvitationError{Reason: ReasonExpired}
	case event.IsPast(now):
		return &InvitationError{Reason: ReasonEventPast}
	}
	return nil
}

// RemainingUses never goes below zero.
func (c InvitationCode) RemainingUses() int {
	if c.TimesUsed >= c.MaxUses {
		return 0
	}
	return c.MaxUses - c.TimesUsed
}

type News struct {
	Model
	Title         string    `gorm:"size:200;not null" json:"title" schema:"title" validate:"required,max=200"`
	Content       string    `gorm:"not null" json:"content" schema:"content" validate:"required"`
	Image         string    `json:"image,omitempty" schema:"-"`
	IsFeatured    bool      `json:"is_featured" schema:"is_featured"`
	PublishedDate time.Time `gorm:"not null" json:"published_date" schema:"published_date" validate:"required"`
}

func (News) TableName() string { return "news" }

func (n News) String() string { return n.Title }

type TeamMember struct {
	Model
	Name      string `gorm:"size:100;not null" json:"name" schema:"name" validate:"required,max=100"`
	Position  string `gorm:"size:100;not null" json:"position" schema:"position" validate:"required,max=100"`
	Bio       string `json:"bio" schema:"bio"`
	Image     string `json:"image,omitempty" schema:"-"`
	Email     string `gorm:"size:254" json:"email" schema:"email" validate:"omitempty,email,max=254"`
	Phone     string `gorm:"size:20" json:"phone" schema:"phone" validate:"max=20"`
	SortOrder int    `gorm:"column:sort_order;not null" json:"order" schema:"order" validate:"min=0"`
}

func (TeamMember) TableName() string { return "team_members" }

func (m TeamMember) String() string { return m.Name + " - " + m.Position }

type GalleryItem struct {
	Model
	Title       string `gorm:"size:200;not null" json:"title" schema:"title" validate:"required,max=200"`
	Description string `json:"description" schema:"description"`
	Image       string `gorm:"not null" json:"image" schema:"-"`
	EventID     *uint  `json:"event_id,omitempty" schema:"event_id"`
	Event       *Event `json:"-" schema:"-" validate:"-"`
}

func (GalleryItem) TableName() string { return "gallery_items" }

func (g GalleryItem) String() string { return g.Title }

type ContactMessage struct {
	Model
	Name       string `gorm:"size:100;not null" json:"name" schema:"name" validate:"required,max=100"`
	Email      string `gorm:"size:254;not null" json:"email" schema:"email" validate:"required,email,max=254"`
	Subject    string `gorm:"size:200;not null" json:"subject" schema:"subject" validate:"required,max=200"`
	Message    string `gorm:"not null" json:"message" schema:"message" validate:"required"`
	IsRead     bool   `json:"is_read" schema:"is_read"`
	IsAnswered bool   `json:"is_answered" schema:"is_answered"`
}

func (ContactMessage) TableName() string { return "contact_messages" }

func (m ContactMessage) String() string { return m.Name + " - " + m.Subject }

type Document struct {
	Model
	Title         string `gorm:"size:200;not null" json:"title" schema:"title" validate:"required,max=200"`
	Description   string `json:"description" schema:"description"`
	Category      string `gorm:"size:20;not null" json:"category" schema:"category" validate:"required,oneof=general forms brochures reports certificates"`
	File          string `gorm:"not null" json:"-" schema:"-"`
	FileName      string `gorm:"size:255" json:"file_name" schema:"-"`
	IsFeatured    bool   `json:"is_featured" schema:"is_featured"`
	IsPublic      bool   `json:"is_public" schema:"is_public"`
	DownloadCount int    `gorm:"not null" json:"download_count" schema:"-"`
	FileSize      int64  `gorm:"not null" json:"file_size" schema:"-"`
}

func (Document) TableName() string { return "documents" }

func (d Document) String() string { return d.Title }

// Extension is taken from the original file name, falling back to the key.
func (d Document) Extension() string {
	if d.FileName != "" {
		return utils.FileExtension(d.FileName)
	}
	return utils.FileExtension(d.File)
}

func (d Document) FormattedFileSize() string {
	return utils.FormatFileSize(d.FileSize)
}

func (d Document) CategoryLabel() string {
	return ChoiceLabel(DocumentCategories, d.Category)
}

type Certificate struct {
	Model
	FirstName         string    `gorm:"size:100;not null" json:"first_name" schema:"first_name" validate:"required,max=100"`
	LastName          string    `gorm:"size:100;not null" json:"last_name" schema:"last_name" validate:"required,max=100"`
	ParticipantNumber string    `gorm:"size:20;not null;uniqueIndex" json:"participant_number" schema:"participant_number" validate:"required,max=20"`
	EventTitle        string    `gorm:"size:200;not null" json:"event_title" schema:"event_title" validate:"required,max=200"`
	CompletionDate    time.Time `gorm:"type:date;not null" json:"completion_date" schema:"completion_date" validate:"required"`
	File              string    `gorm:"not null" json:"-" schema:"-"`
}

func (Certificate) TableName() string { return "certificates" }

func (c Certificate) FullName() string {
	return c.FirstName + " " + c.LastName
}

func (c Certificate) String() string {
	return fmt.Sprintf("%s - %s (%s)", c.FullName(), c.EventTitle, c.ParticipantNumber)
}

// DownloadName is the attachment file name offered to the participant.
func (c Certificate) DownloadName() string {
	return c.FullName() + "_Zertifikat.pdf"
}

type Announcement struct {
	Model
	Title            string    `gorm:"size:200;not null" json:"title" schema:"title" validate:"required,max=200"`
	Message          string    `gorm:"not null" json:"message" schema:"message" validate:"required"`
	Type             string    `gorm:"column:announcement_type;size:20;not null" json:"type" schema:"announcement_type" validate:"required,oneof=event invitation funeral news warning"`
	Image            string    `json:"image,omitempty" schema:"-"`
	BackgroundMusic  string    `json:"background_music,omitempty" schema:"-"`
	IsActive         bool      `json:"is_active" schema:"is_active"`
	StartDate        time.Time `gorm:"not null" json:"start_date" schema:"start_date" validate:"required"`
	EndDate          time.Time `gorm:"not null" json:"end_date" schema:"end_date" validate:"required,gtefield=StartDate"`
	AutoCloseSeconds int       `gorm:"not null" json:"auto_close_seconds" schema:"auto_close_seconds" validate:"min=0"`
	BackgroundColor  string    `gorm:"size:7;not null" json:"background_color" schema:"background_color" validate:"required,hexcolor,max=7"`
	TextColor        string    `gorm:"size:7;not null" json:"text_color" schema:"text_color" validate:"required,hexcolor,max=7"`
}

func (Announcement) TableName() string { return "announcements" }

func (a Announcement) String() string {
	return fmt.Sprintf("%s (%s)", a.Title, a.TypeLabel())
}

func (a Announcement) TypeLabel() string {
	return ChoiceLabel(AnnouncementTypes, a.Type)
}

// IsCurrentlyActive reports whether the popup should be shown at now.
func (a Announcement) IsCurrentlyActive(now time.Time) bool {
	return a.IsActive && !now.Before(a.StartDate) && !now.After(a.EndDate)
}

type StaffUser struct {
	Model
	Email        string     `gorm:"size:254;not null;uniqueIndex" json:"email" schema:"email" validate:"required,email,max=254"`
	Name         string     `gorm:"size:100" json:"name" schema:"name" validate:"max=100"`
	PasswordHash string     `gorm:"size:100" json:"-" schema:"-"`
	IsStaff      bool       `json:"is_staff" schema:"is_staff"`
	IsActive     bool       `json:"is_active" schema:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" schema:"-"`
}

func (StaffUser) TableName() string { return "staff_users" }

func (u StaffUser) String() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// CanAccessAdmin reports whether the account may use the staff area.
func (u StaffUser) CanAccessAdmin() bool {
	return u.IsStaff && u.IsActive
}
