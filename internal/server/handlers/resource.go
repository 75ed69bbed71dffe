package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/forms"
	"github.com/AlexTLDR/lesezirkel/internal/storage"
	"github.com/AlexTLDR/lesezirkel/internal/utils"
	"github.com/AlexTLDR/lesezirkel/templates"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const adminPageSize = 25

// Input kinds understood by admin_form.html.
const (
	kindText     = "text"
	kindEmail    = "email"
	kindNumber   = "number"
	kindColor    = "color"
	kindPassword = "password"
	kindTextarea = "textarea"
	kindCheckbox = "checkbox"
	kindSelect   = "select"
	kindDate     = "date"
	kindDateTime = "datetime"
	kindFile     = "file"
)

var (
	imageTypes = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
	audioTypes = []string{".mp3", ".ogg", ".wav", ".m4a"}
	pdfTypes   = []string{".pdf"}
)

const (
	msgFileRequired = "Bitte wählen Sie eine Datei aus."
	msgFileType     = "Dieser Dateityp ist nicht erlaubt."
	msgDuplicate    = "Ein Eintrag mit diesen Daten existiert bereits."
)

// Resource is one model managed in the staff area.
type Resource interface {
	Slug() string
	Title() string
	Count(ctx context.Context, db *database.DB) (int64, error)
	HandleList(s AdminServer) http.HandlerFunc
	HandleForm(s AdminServer) http.HandlerFunc
	HandleSave(s AdminServer) http.HandlerFunc
	HandleDelete(s AdminServer) http.HandlerFunc
	HandleAction(s AdminServer) http.HandlerFunc
}

type record interface {
	PrimaryKey() uint
	String() string
}

// options loads the choices of a select or filter.
type options func(ctx context.Context, db *database.DB) ([]database.Choice, error)

type field[T any] struct {
	name     string
	label    string
	kind     string
	choices  []database.Choice
	options  options
	required bool
	readOnly bool
	help     string

	// show replaces the value of a read-only field.
	show func(p templates.Page, item *T) string

	// file fields keep the storage key in the field returned by file.
	file     func(item *T) *string
	folder   string
	accept   []string
	uploaded func(item *T, filename string, obj storage.Object)
}

// editable reports whether the field is decoded from the form.
func (f field[T]) editable() bool {
	return !f.readOnly && f.show == nil && f.file == nil && f.kind != kindPassword
}

type filter struct {
	name    string
	label   string
	choices []database.Choice
	options options
	scope   func(value string) database.Scope
}

var yesNo = []database.Choice{{Value: "true", Label: "Ja"}, {Value: "false", Label: "Nein"}}

// boolFilter filters on a boolean column.
func boolFilter(name, label, column string) filter {
	return filter{
		name:    name,
		label:   label,
		choices: yesNo,
		scope: func(value string) database.Scope {
			return database.Where(column+" = ?", value == "true")
		},
	}
}

func choicesFor(ctx context.Context, db *database.DB, choices []database.Choice, opts options) ([]database.Choice, error) {
	if opts == nil {
		return choices, nil
	}
	return opts(ctx, db)
}

// action runs on the ids selected in a list. It writes the response
// itself, usually a redirect back to the list.
type action struct {
	name  string
	label string
	run   func(s AdminServer, w http.ResponseWriter, r *http.Request, ids []uint)
}

type resource[T record] struct {
	slug     string
	title    string
	singular string

	columns []string
	cells   func(p templates.Page, item *T) []string
	search  []string
	order   string
	preload []string
	filters []filter
	actions []action

	fields   []field[T]
	noCreate bool

	// defaults prepares a new record for the create form.
	defaults func(ctx context.Context, s Server, item *T) error
	// prepare runs after decoding and may add errors.
	prepare func(r *http.Request, s Server, item *T, errs forms.Errors)
	// save replaces database.Save for existing records.
	save func(ctx context.Context, s Server, item *T) error
}

func (res *resource[T]) Slug() string  { return res.slug }
func (res *resource[T]) Title() string { return res.title }

func (res *resource[T]) Count(ctx context.Context, db *database.DB) (int64, error) {
	return database.Count[T](ctx, db)
}

func (res *resource[T]) listURL() string {
	return "/admin/" + res.slug
}

func (res *resource[T]) HandleList(s AdminServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		params := r.URL.Query()
		kept := url.Values{}

		q := strings.TrimSpace(params.Get("q"))
		scopes := []database.Scope{database.Search(q, res.search...)}
		if q != "" {
			kept.Set("q", q)
		}

		filters := make([]templates.Filter, 0, len(res.filters))
		for _, f := range res.filters {
			choices, err := choicesFor(ctx, s.GetDB(), f.choices, f.options)
			if err != nil {
				serverError(s, w, r, err)
				return
			}
			value := params.Get(f.name)
			if value != "" && isChoice(choices, value) {
				scopes = append(scopes, f.scope(value))
				kept.Set(f.name, value)
			} else {
				value = ""
			}
			filters = append(filters, templates.Filter{Name: f.name, Label: f.label, Value: value, Choices: choices})
		}
		if res.order != "" {
			scopes = append(scopes, database.OrderBy(res.order))
		}

		page, err := database.Paginate[T](ctx, s.GetDB(), database.ParsePage(params.Get("page")), adminPageSize, res.preload, scopes...)
		if err != nil {
			serverError(s, w, r, err)
			return
		}

		admin := newAdminPage(s, w, r, res.title)
		rows := database.Page[templates.Row]{
			Items:      make([]templates.Row, 0, len(page.Items)),
			Number:     page.Number,
			Size:       page.Size,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		}
		for i := range page.Items {
			item := &page.Items[i]
			rows.Items = append(rows.Items, templates.Row{ID: (*item).PrimaryKey(), Cells: res.cells(admin.Page, item)})
		}

		actions := make([]templates.Action, len(res.actions))
		for i, a := range res.actions {
			actions[i] = templates.Action{Name: a.name, Label: a.label}
		}

		var query string
		if len(kept) > 0 {
			query = "&" + kept.Encode()
		}

		render(w, r, http.StatusOK, templates.AdminList(templates.ListData{
			AdminPage:   admin,
			Slug:        res.slug,
			Columns:     res.columns,
			Rows:        rows,
			Query:       q,
			Filters:     filters,
			Actions:     actions,
			CanCreate:   !res.noCreate,
			QueryString: query,
		}))
	}
}

// item loads the record named by the {id} parameter, or a fresh one on
// the create routes. It renders the error page and returns false when
// there is nothing to edit.
func (res *resource[T]) item(s AdminServer, w http.ResponseWriter, r *http.Request) (*T, bool) {
	ctx := r.Context()
	raw := chi.URLParam(r, "id")
	if raw == "" {
		if res.noCreate {
			renderError(s, w, r, http.StatusNotFound)
			return nil, false
		}
		item := new(T)
		if res.defaults != nil {
			if err := res.defaults(ctx, s, item); err != nil {
				serverError(s, w, r, err)
				return nil, false
			}
		}
		return item, true
	}

	id, ok := urlID(s, w, r)
	if !ok {
		return nil, false
	}
	scopes := make([]database.Scope, len(res.preload))
	for i, assoc := range res.preload {
		scopes[i] = database.Preload(assoc)
	}
	item, err := database.Get[T](ctx, s.GetDB(), id, scopes...)
	if err != nil {
		serverError(s, w, r, err)
		return nil, false
	}
	return item, true
}

// HandleForm shows the create or edit form.
func (res *resource[T]) HandleForm(s AdminServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, ok := res.item(s, w, r)
		if !ok {
			return
		}
		values, err := s.GetForms().Encode(item)
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		res.renderForm(s, w, r, item, values, nil)
	}
}

func (res *resource[T]) renderForm(s AdminServer, w http.ResponseWriter, r *http.Request, item *T, values url.Values, errs forms.Errors) {
	id := (*item).PrimaryKey()
	title := (*item).String()
	if id == 0 {
		title = res.singular + " hinzufügen"
	}
	admin := newAdminPage(s, w, r, title)

	fields := make([]templates.Field, 0, len(res.fields))
	for _, f := range res.fields {
		choices, err := choicesFor(r.Context(), s.GetDB(), f.choices, f.options)
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		tf := templates.Field{
			Name:     f.name,
			Label:    f.label,
			Kind:     f.kind,
			Value:    values.Get(f.name),
			Choices:  choices,
			Required: f.required,
			ReadOnly: f.readOnly || f.show != nil,
			Help:     f.help,
			Error:    errs.Get(f.name),
		}
		switch {
		case f.show != nil:
			tf.Value = f.show(admin.Page, item)
		case f.file != nil:
			tf.Value = *f.file(item)
		case f.kind == kindPassword:
			tf.Value = ""
		}
		fields = append(fields, tf)
	}

	var message string
	if len(errs) > 0 {
		message = translate(r, "admin.form_invalid")
		if all := errs.Get("__all__"); all != "" {
			message += " " + all
		}
	}

	render(w, r, http.StatusOK, templates.AdminForm(templates.FormData{
		AdminPage: admin,
		Slug:      res.slug,
		ID:        id,
		Fields:    fields,
		Error:     message,
		IsNew:     id == 0,
	}))
}

func (res *resource[T]) editable() []string {
	var names []string
	for _, f := range res.fields {
		if f.editable() {
			names = append(names, f.name)
		}
	}
	return names
}

// HandleSave creates or updates a record from the submitted form.
func (res *resource[T]) HandleSave(s AdminServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, ok := res.item(s, w, r)
		if !ok {
			return
		}
		ctx := r.Context()
		log := zerolog.Ctx(ctx).With().Str("resource", res.slug).Logger()

		r.Body = http.MaxBytesReader(w, r.Body, s.GetConfig().MaxUploadBytes())
		if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "Upload too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		editable := res.editable()
		forms.Reset(item, editable...)
		errs := s.GetForms().Decode(item, forms.Only(r.PostForm, editable...))
		if errs == nil {
			errs = forms.Errors{}
		}

		stored, replaced, err := res.uploads(r, s, item, errs)
		if err != nil {
			discard(s, r, stored)
			serverError(s, w, r, err)
			return
		}
		if res.prepare != nil {
			res.prepare(r, s, item, errs)
		}

		if len(errs) == 0 {
			switch {
			case (*item).PrimaryKey() == 0:
				err = database.Create(ctx, s.GetDB(), item)
			case res.save != nil:
				err = res.save(ctx, s, item)
			default:
				err = database.Save(ctx, s.GetDB(), item)
			}
			switch {
			case errors.Is(err, database.ErrDuplicate):
				errs.Add("__all__", msgDuplicate)
			case errors.Is(err, database.ErrEventFull):
				errs.Add("is_confirmed", translate(r, "registration.full"))
			case err != nil:
				discard(s, r, stored)
				serverError(s, w, r, err)
				return
			}
		}

		if len(errs) > 0 {
			discard(s, r, stored)
			log.Debug().Str("errors", errs.Error()).Msg("invalid admin form")
			res.renderForm(s, w, r, item, res.submitted(s, item, r.PostForm), errs)
			return
		}

		discard(s, r, replaced)
		log.Info().Uint("id", (*item).PrimaryKey()).Msg("record saved")
		AddFlash(s, w, r, flashSuccess, translate(r, "admin.saved", (*item).String()))
		http.Redirect(w, r, res.listURL(), http.StatusSeeOther)
	}
}

// submitted merges what was posted over the decoded record, so invalid
// input is shown again as typed.
func (res *resource[T]) submitted(s Server, item *T, posted url.Values) url.Values {
	values, err := s.GetForms().Encode(item)
	if err != nil {
		values = url.Values{}
	}
	for _, name := range res.editable() {
		if v, ok := posted[name]; ok {
			values[name] = v
		}
	}
	return values
}

// uploads stores new files and applies clear requests. It returns the
// keys it stored and the keys that are no longer referenced once the
// record is saved.
func (res *resource[T]) uploads(r *http.Request, s Server, item *T, errs forms.Errors) (stored, replaced []string, err error) {
	for _, f := range res.fields {
		if f.file == nil {
			continue
		}
		key := f.file(item)

		file, header, ferr := r.FormFile(f.name)
		switch {
		case ferr == nil:
			if len(f.accept) > 0 && !slices.Contains(f.accept, utils.FileExtension(header.Filename)) {
				file.Close()
				errs.Add(f.name, msgFileType)
				continue
			}
			obj, err := s.GetStorage().Save(r.Context(), f.folder, header.Filename, file)
			file.Close()
			if err != nil {
				return stored, replaced, fmt.Errorf("failed to store %s: %w", f.name, err)
			}
			stored = append(stored, obj.Key)
			if *key != "" {
				replaced = append(replaced, *key)
			}
			*key = obj.Key
			if f.uploaded != nil {
				f.uploaded(item, header.Filename, obj)
			}
		case !errors.Is(ferr, http.ErrMissingFile) && !errors.Is(ferr, http.ErrNotMultipart):
			return stored, replaced, fmt.Errorf("failed to read upload %s: %w", f.name, ferr)
		case !f.required && r.PostForm.Get(f.name+"-clear") != "" && *key != "":
			replaced = append(replaced, *key)
			*key = ""
		}

		if f.required && *key == "" {
			errs.Add(f.name, msgFileRequired)
		}
	}
	return stored, replaced, nil
}

// discard removes stored files. Failures only leave orphans behind.
func discard(s Server, r *http.Request, keys []string) {
	for _, key := range keys {
		if err := s.GetStorage().Delete(r.Context(), key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			zerolog.Ctx(r.Context()).Warn().Err(err).Str("key", key).Msg("failed to delete file")
		}
	}
}

func (res *resource[T]) HandleDelete(s AdminServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		item, ok := res.item(s, w, r)
		if !ok {
			return
		}
		id := (*item).PrimaryKey()
		if err := database.Delete[T](r.Context(), s.GetDB(), id); err != nil {
			serverError(s, w, r, err)
			return
		}

		var files []string
		for _, f := range res.fields {
			if f.file != nil && *f.file(item) != "" {
				files = append(files, *f.file(item))
			}
		}
		discard(s, r, files)

		zerolog.Ctx(r.Context()).Info().Str("resource", res.slug).Uint("id", id).Msg("record deleted")
		AddFlash(s, w, r, flashSuccess, translate(r, "admin.deleted", (*item).String()))
		http.Redirect(w, r, res.listURL(), http.StatusSeeOther)
	}
}

// HandleAction runs a bulk action on the selected rows.
func (res *resource[T]) HandleAction(s AdminServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		name := r.PostForm.Get("action")
		i := slices.IndexFunc(res.actions, func(a action) bool { return a.name == name })
		if i < 0 {
			AddFlash(s, w, r, flashError, translate(r, "admin.unknown_action"))
			http.Redirect(w, r, res.listURL(), http.StatusSeeOther)
			return
		}

		var ids []uint
		for _, raw := range r.PostForm["ids"] {
			if id, err := parseID(raw); err == nil && !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			AddFlash(s, w, r, flashWarning, translate(r, "admin.no_selection"))
			http.Redirect(w, r, res.listURL(), http.StatusSeeOther)
			return
		}

		zerolog.Ctx(r.Context()).Info().Str("resource", res.slug).Str("action", name).Int("count", len(ids)).Msg("bulk action")
		res.actions[i].run(s, w, r, ids)
	}
}
