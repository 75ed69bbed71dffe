package forms

import (
	"errors"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

// Input layouts accepted for time fields, most specific first.
var timeLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"02.01.2006 15:04",
}

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
}

// Errors maps form field names to a message.
type Errors map[string]string

func (e Errors) Add(field, message string) {
	if _, ok := e[field]; !ok {
		e[field] = message
	}
}

func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func (e Errors) Get(field string) string {
	return e[field]
}

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e[f]
	}
	return strings.Join(parts, "; ")
}

// Decoder fills structs from form values and validates them.
type Decoder struct {
	schema   *schema.Decoder
	validate *validator.Validate
	loc      *time.Location
}

func New(loc *time.Location) *Decoder {
	if loc == nil {
		loc = time.UTC
	}
	d := &Decoder{
		schema:   schema.NewDecoder(),
		validate: NewValidator(),
		loc:      loc,
	}
	d.schema.IgnoreUnknownKeys(true)
	d.schema.ZeroEmpty(true)
	d.schema.RegisterConverter("", func(s string) reflect.Value {
		return reflect.ValueOf(strings.TrimSpace(s))
	})
	d.schema.RegisterConverter(time.Time{}, d.convertTime)
	return d
}

// Location is the time zone form times are entered in.
func (d *Decoder) Location() *time.Location {
	return d.loc
}

// ParseTime parses a date or date-time as entered in a form. Date-times are
// interpreted in the site's time zone and returned in UTC; plain dates are
// midnight UTC.
func (d *Decoder) ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, d.loc); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("invalid date")
}

func (d *Decoder) convertTime(s string) reflect.Value {
	t, err := d.ParseTime(s)
	if err != nil {
		return reflect.Value{}
	}
	return reflect.ValueOf(t)
}

// Decode fills dst from values and validates it. Blank values are skipped
// so that optional numbers and dates stay unset. The result is nil when the
// form is valid.
func (d *Decoder) Decode(dst any, values url.Values) Errors {
	errs := Errors{}

	if err := d.schema.Decode(dst, nonEmpty(values)); err != nil {
		var multi schema.MultiError
		if errors.As(err, &multi) {
			for field := range multi {
				errs.Add(field, msgInvalid)
			}
		} else {
			errs.Add("__all__", msgInvalid)
		}
	}

	for field, msg := range d.Validate(dst) {
		errs.Add(field, msg)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Validate runs the struct validation only.
func (d *Decoder) Validate(v any) Errors {
	err := d.validate.Struct(v)
	if err == nil {
		return nil
	}

	errs := Errors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("__all__", msgInvalid)
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func nonEmpty(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for key, vals := range values {
		var kept []string
		for _, v := range vals {
			if strings.TrimSpace(v) != "" {
				kept = append(kept, v)
			}
		}
		if len(kept) > 0 {
			out[key] = kept
		}
	}
	return out
}

// Registration is the public event registration form.
type Registration struct {
	FirstName         string `schema:"first_name" validate:"required,max=100"`
	LastName          string `schema:"last_name" validate:"required,max=100"`
	Email             string `schema:"email" validate:"required,email,max=254"`
	Phone             string `schema:"phone" validate:"max=20"`
	Message           string `schema:"message" validate:"max=5000"`
	PrivacyConsent    bool   `schema:"privacy_consent" validate:"eq=true"`
	NewsletterConsent bool   `schema:"newsletter_consent"`
	PhotoConsent      bool   `schema:"photo_consent"`
	InvitationCode    string `schema:"invitation_code" validate:"max=50"`
}

func (r Registration) Input() database.RegistrationInput {
	return database.RegistrationInput{
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Email:             r.Email,
		Phone:             r.Phone,
		Message:           r.Message,
		PrivacyConsent:    r.PrivacyConsent,
		NewsletterConsent: r.NewsletterConsent,
		PhotoConsent:      r.PhotoConsent,
		InvitationCode:    r.InvitationCode,
	}
}

// Contact is the public contact form. HPField is a honeypot that people
// never see and bots tend to fill in.
type Contact struct {
	Name    string `schema:"name" validate:"required,max=100"`
	Email   string `schema:"email" validate:"required,email,max=254"`
	Subject string `schema:"subject" validate:"required,max=200"`
	Message string `schema:"message" validate:"required,max=5000"`
	HPField string `schema:"hp_field" validate:"isdefault"`
}

func (c Contact) Model() *database.ContactMessage {
	return &database.ContactMessage{
		Name:    c.Name,
		Email:   c.Email,
		Subject: c.Subject,
		Message: c.Message,
	}
}

type CertificateSearch struct {
	FirstName         string `schema:"first_name" validate:"required,max=100"`
	LastName          string `schema:"last_name" validate:"required,max=100"`
	ParticipantNumber string `schema:"participant_number" validate:"required,max=20"`
}

type Login struct {
	Email    string `schema:"email" validate:"required,email"`
	Password string `schema:"password" validate:"required"`
	Next     string `schema:"next"`
}
