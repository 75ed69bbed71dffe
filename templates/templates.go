// Package templates holds the site's pages. They are html/template files
// embedded into the binary and exposed as templ components.
package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/calendar"
	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/i18n"
	"github.com/a-h/templ"
)

//go:embed html/*.html
var files embed.FS

const (
	publicLayout = "layout.html"
	adminLayout  = "admin_layout.html"
)

var funcs = template.FuncMap{
	"add":        func(a, b int) int { return a + b },
	"paragraphs": paragraphs,
	"pager": func(number, total int, extra string) pager {
		return pager{Number: number, TotalPages: total, Extra: template.URL(extra)}
	},
	"card": func(p Page, e database.Event) eventCard {
		return eventCard{Page: p, Event: e}
	},
}

type pager struct {
	Number     int
	TotalPages int
	// Extra is appended to every page link, e.g. "&category=forms".
	Extra template.URL
}

func (p pager) HasPrev() bool { return p.Number > 1 }
func (p pager) HasNext() bool { return p.Number < p.TotalPages }
func (p pager) Prev() int     { return p.Number - 1 }
func (p pager) Next() int     { return p.Number + 1 }

type eventCard struct {
	Page  Page
	Event database.Event
}

var pages = map[string]*template.Template{}

func init() {
	entries, err := fs.Glob(files, "html/*.html")
	if err != nil {
		panic(err)
	}
	for _, entry := range entries {
		name := strings.TrimPrefix(entry, "html/")
		switch {
		case name == publicLayout, name == adminLayout, name == "partials.html":
			continue
		case strings.HasPrefix(name, "admin_"):
			pages[name] = parse(adminLayout, name)
		default:
			pages[name] = parse(publicLayout, name)
		}
	}
}

func parse(layout, page string) *template.Template {
	return template.Must(template.New(layout).Funcs(funcs).ParseFS(files,
		"html/"+layout, "html/partials.html", "html/"+page))
}

func view(name string, data any) templ.Component {
	t, ok := pages[name]
	if !ok {
		panic(fmt.Sprintf("templates: unknown page %q", name))
	}
	return templ.FromGoHTML(t, data)
}

// paragraphs splits text on blank lines for display.
func paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type Flash struct {
	Level   string
	Message string
}

// Page carries what every page needs besides its own data.
type Page struct {
	Title    string
	Lang     i18n.Language
	SiteName string
	Path     string
	Flashes  []Flash
	User     string
	Location *time.Location
	Now      time.Time
	// MediaURL turns a storage key into a link.
	MediaURL func(key string) string
}

func (p Page) T(key string, args ...any) string {
	return i18n.T(p.Lang, key, args...)
}

func (p Page) in(t time.Time) time.Time {
	if p.Location == nil {
		return t
	}
	return t.In(p.Location)
}

func (p Page) Date(t time.Time) string {
	return p.in(t).Format("02.01.2006")
}

func (p Page) DateTime(t time.Time) string {
	return p.in(t).Format("02.01.2006 um 15:04")
}

func (p Page) Time(t time.Time) string {
	return p.in(t).Format("15:04")
}

func (p Page) Media(key string) string {
	if key == "" || p.MediaURL == nil {
		return key
	}
	return p.MediaURL(key)
}

// Active marks the navigation entry for prefix.
func (p Page) Active(prefix string) bool {
	if prefix == "/" {
		return p.Path == "/"
	}
	return strings.HasPrefix(p.Path, prefix)
}

type HomeData struct {
	Page
	Events       []database.Event
	News         []database.News
	Gallery      []database.GalleryItem
	Announcement *database.Announcement
}

func Home(d HomeData) templ.Component { return view("home.html", d) }

type AboutData struct {
	Page
	Team []database.TeamMember
}

func About(d AboutData) templ.Component { return view("about.html", d) }

type CalendarData struct {
	Page
	Month calendar.Month[database.Event]
	Days  [7]string
}

func Calendar(d CalendarData) templ.Component { return view("events.html", d) }

type EventData struct {
	Page
	Event          database.Event
	Related        []database.Event
	Confirmed      int64
	IsPast         bool
	AcceptsForm    bool
	SpotsLeft      int
	Form           map[string]string
	Errors         map[string]string
	InvitationOnly bool
}

func EventDetail(d EventData) templ.Component { return view("event_detail.html", d) }

type NewsData struct {
	Page
	News database.Page[database.News]
}

func News(d NewsData) templ.Component { return view("news.html", d) }

type NewsItemData struct {
	Page
	Item    database.News
	Related []database.News
}

func NewsDetail(d NewsItemData) templ.Component { return view("news_detail.html", d) }

type GalleryData struct {
	Page
	Items database.Page[database.GalleryItem]
}

func Gallery(d GalleryData) templ.Component { return view("gallery.html", d) }

type DocumentsData struct {
	Page
	Documents  database.Page[database.Document]
	Category   string
	Categories []database.Choice
}

func Documents(d DocumentsData) templ.Component { return view("documents.html", d) }

type DocumentData struct {
	Page
	Document database.Document
	Related  []database.Document
}

func DocumentDetail(d DocumentData) templ.Component { return view("document_detail.html", d) }

type CertificatesData struct {
	Page
	Form   map[string]string
	Errors map[string]string
}

func Certificates(d CertificatesData) templ.Component { return view("certificates.html", d) }

type ContactData struct {
	Page
	Form   map[string]string
	Errors map[string]string
}

func Contact(d ContactData) templ.Component { return view("contact.html", d) }

func Impressum(p Page) templ.Component { return view("impressum.html", p) }

func Datenschutz(p Page) templ.Component { return view("datenschutz.html", p) }

type ErrorData struct {
	Page
	Status  int
	Message string
}

func Error(d ErrorData) templ.Component { return view("error.html", d) }

// Staff area

type LoginData struct {
	AdminPage
	Email         string
	Next          string
	Error         string
	GoogleEnabled bool
}

func AdminLogin(d LoginData) templ.Component { return view("admin_login.html", d) }

// NavEntry links to one admin resource.
type NavEntry struct {
	Slug  string
	Title string
}

type AdminPage struct {
	Page
	Nav []NavEntry
}

type DashboardEvent struct {
	Event     database.Event
	Total     int64
	Confirmed int64
}

type DashboardData struct {
	AdminPage
	Counts   []Count
	Upcoming []DashboardEvent
	Unread   []database.ContactMessage
}

type Count struct {
	Slug  string
	Title string
	N     int64
}

func AdminDashboard(d DashboardData) templ.Component { return view("admin_dashboard.html", d) }

type Action struct {
	Name  string
	Label string
}

type Row struct {
	ID    uint
	Cells []string
}

type Filter struct {
	Name    string
	Label   string
	Value   string
	Choices []database.Choice
}

type ListData struct {
	AdminPage
	Slug      string
	Columns   []string
	Rows      database.Page[Row]
	Query     string
	Filters   []Filter
	Actions   []Action
	CanCreate bool
	// QueryString keeps search and filters across page links.
	QueryString string
}

func AdminList(d ListData) templ.Component { return view("admin_list.html", d) }

// Field is one input of an admin form.
type Field struct {
	Name     string
	Label    string
	Kind     string
	Value    string
	Choices  []database.Choice
	Required bool
	ReadOnly bool
	Help     string
	Error    string
}

// Checked is used by checkbox fields.
func (f Field) Checked() bool {
	return f.Value == "true" || f.Value == "on"
}

// DateValue cuts a datetime-local value down to its date part.
func (f Field) DateValue() string {
	if len(f.Value) >= 10 {
		return f.Value[:10]
	}
	return f.Value
}

type FormData struct {
	AdminPage
	Slug   string
	ID     uint
	Fields []Field
	Error  string
	IsNew  bool
}

func AdminForm(d FormData) templ.Component { return view("admin_form.html", d) }
