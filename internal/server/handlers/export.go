package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/export"
	"github.com/rs/zerolog"
)

// Export formats offered as bulk actions.
const (
	formatHTML = "html"
	formatPDF  = "pdf"
	formatCSV  = "csv"
)

// exportActions returns the participant list actions. With byEvent the
// selected ids are events, otherwise registrations.
func exportActions(byEvent bool) []action {
	run := func(format string) func(AdminServer, http.ResponseWriter, *http.Request, []uint) {
		return func(s AdminServer, w http.ResponseWriter, r *http.Request, ids []uint) {
			regIDs, eventIDs := ids, []uint(nil)
			if byEvent {
				regIDs, eventIDs = nil, ids
			}
			regs, err := s.GetDB().RegistrationsForExport(r.Context(), regIDs, eventIDs)
			if err != nil {
				serverError(s, w, r, err)
				return
			}
			writeExport(s, w, r, format, regs)
		}
	}
	return []action{
		{name: "export_html", label: "Teilnehmerliste (HTML)", run: run(formatHTML)},
		{name: "export_pdf", label: "Teilnehmerliste (PDF)", run: run(formatPDF)},
		{name: "export_csv", label: "Teilnehmerliste (CSV)", run: run(formatCSV)},
	}
}

// writeExport sends the participant list as an attachment. A PDF that
// cannot be generated is replaced by the HTML list.
func writeExport(s AdminServer, w http.ResponseWriter, r *http.Request, format string, regs []database.EventRegistration) {
	cfg := s.GetConfig()
	groups := export.GroupByEvent(regs)
	opts := export.Options{SiteName: cfg.SiteName, Location: cfg.Location, Now: time.Now()}
	log := zerolog.Ctx(r.Context())

	var buf bytes.Buffer
	if format == formatPDF {
		if err := export.PDF(&buf, groups, opts); err != nil {
			log.Warn().Err(err).Msg("PDF export failed, falling back to HTML")
			buf.Reset()
			format = formatHTML
		}
	}

	var err error
	contentType, filename := "application/pdf", export.FilePDF
	switch format {
	case formatCSV:
		contentType, filename = "text/csv; charset=utf-8", export.FileCSV
		err = export.CSV(&buf, groups, opts)
	case formatHTML:
		contentType, filename = "text/html; charset=utf-8", export.FileHTML
		err = export.HTML(&buf, groups, opts)
	}
	if err != nil {
		serverError(s, w, r, err)
		return
	}

	log.Info().Str("format", format).Int("registrations", len(regs)).Msg("participant list exported")
	attachment(w, contentType, filename)
	_, _ = buf.WriteTo(w)
}

func confirmAction(name, label string, confirmed bool) action {
	return action{name: name, label: label, run: func(s AdminServer, w http.ResponseWriter, r *http.Request, ids []uint) {
		updated, refused, err := s.GetDB().SetConfirmed(r.Context(), ids, confirmed)
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		AddFlash(s, w, r, flashSuccess, translate(r, "admin.updated", updated))
		if refused > 0 {
			AddFlash(s, w, r, flashWarning, translate(r, "admin.capacity", refused))
		}
		http.Redirect(w, r, "/admin/registrations", http.StatusSeeOther)
	}}
}

// columnAction sets one column on the selected rows of T.
func columnAction[T any](slug, name, label, column string, value any) action {
	return action{name: name, label: label, run: func(s AdminServer, w http.ResponseWriter, r *http.Request, ids []uint) {
		n, err := database.UpdateColumn[T](r.Context(), s.GetDB(), ids, column, value)
		if err != nil {
			serverError(s, w, r, err)
			return
		}
		AddFlash(s, w, r, flashSuccess, translate(r, "admin.updated", n))
		http.Redirect(w, r, "/admin/"+slug, http.StatusSeeOther)
	}}
}
