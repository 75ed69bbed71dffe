package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/AlexTLDR/lesezirkel/internal/database"
)

const csvHeader = "Veranstaltung,Datum,Nr.,Vorname,Nachname,E-Mail,Telefon,Bestätigt,Foto,Newsletter,Nachricht\n"

// csvRowData holds formatted data for a single CSV row
type csvRowData struct {
	event      string
	date       string
	number     string
	firstName  string
	lastName   string
	email      string
	phone      string
	confirmed  string
	photo      string
	newsletter string
	message    string
}

// escapeCSVField doubles quotes and flattens line breaks.
func escapeCSVField(field string) string {
	escaped := strings.ReplaceAll(field, "\"", "\"\"")
	escaped = strings.ReplaceAll(escaped, "\r\n", " ")
	escaped = strings.ReplaceAll(escaped, "\n", " ")
	return escaped
}

func formatRegistrationForCSV(g Group, i int, r database.EventRegistration, opts Options) csvRowData {
	return csvRowData{
		event:      escapeCSVField(g.Event.Title),
		date:       opts.format(g.Event.Date),
		number:     fmt.Sprintf("%d", i),
		firstName:  escapeCSVField(r.FirstName),
		lastName:   escapeCSVField(r.LastName),
		email:      escapeCSVField(r.Email),
		phone:      escapeCSVField(orDash(r.Phone)),
		confirmed:  yesNo(r.IsConfirmed),
		photo:      yesNo(r.PhotoConsent),
		newsletter: yesNo(r.NewsletterConsent),
		message:    escapeCSVField(r.Message),
	}
}

func buildCSVRow(row csvRowData) string {
	return fmt.Sprintf("\"%s\",\"%s\",\"%s\",\"%s\",\"%s\",\"%s\",\"%s\",\"%s\",\"%s\",\"%s\",\"%s\"\n",
		row.event, row.date, row.number, row.firstName, row.lastName,
		row.email, row.phone, row.confirmed, row.photo, row.newsletter, row.message)
}

// CSV writes a UTF-8 list with byte order mark so Excel detects the
// encoding.
func CSV(w io.Writer, groups []Group, opts Options) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	if _, err := io.WriteString(w, csvHeader); err != nil {
		return err
	}
	for _, g := range groups {
		for i, r := range g.Registrations {
			if _, err := io.WriteString(w, buildCSVRow(formatRegistrationForCSV(g, i+1, r, opts))); err != nil {
				return err
			}
		}
	}
	return nil
}
