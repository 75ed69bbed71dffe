package export

import (
	"html/template"
	"io"
)

var htmlTemplate = template.Must(template.New("list").Parse(`<!DOCTYPE html>
<html lang="de">
<head>
<meta charset="utf-8">
<title>Teilnehmerliste</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
.event-section { margin-bottom: 40px; page-break-after: always; }
.event-header { background-color: #f8f9fa; padding: 15px; margin-bottom: 20px; border-left: 5px solid #007bff; }
.event-title { color: #007bff; margin: 0; font-size: 24px; }
.event-info { color: #666; margin: 5px 0 0 0; }
table { width: 100%; border-collapse: collapse; margin-top: 10px; }
th, td { padding: 12px 8px; text-align: left; border-bottom: 1px solid #ddd; }
th { background-color: #f8f9fa; }
tr:nth-child(even) { background-color: #f8f9fa; }
.checkbox { width: 20px; height: 20px; border: 2px solid #007bff; display: inline-block; }
.yes { color: #28a745; }
.no { color: #dc3545; }
.footer { margin-top: 30px; padding-top: 20px; border-top: 2px solid #007bff; }
.print-info { color: #666; font-size: 12px; }
</style>
</head>
<body>
{{range .Events}}
<div class="event-section">
  <div class="event-header">
    <h1 class="event-title">{{.Title}}</h1>
    <p class="event-info"><strong>Datum:</strong> {{.Date}} | <strong>Ort:</strong> {{.Location}}</p>
    <p class="event-info"><strong>Anmeldungen:</strong> {{.Total}} gesamt | <strong>Bestätigt:</strong> {{.Confirmed}}{{with .Capacity}} | <strong>Kapazität:</strong> {{.}}{{end}}</p>
  </div>
  <table>
    <thead>
      <tr><th>#</th><th>Name</th><th>E-Mail</th><th>Telefon</th><th>Bestätigt</th><th>Foto</th><th>Anwesend</th></tr>
    </thead>
    <tbody>
    {{range .Rows}}
      <tr>
        <td>{{.Number}}</td>
        <td><strong>{{.Name}}</strong></td>
        <td>{{.Email}}</td>
        <td>{{.Phone}}</td>
        <td class="{{if .Confirmed}}yes{{else}}no{{end}}">{{if .Confirmed}}Ja{{else}}Nein{{end}}</td>
        <td class="{{if .Photo}}yes{{else}}no{{end}}">{{if .Photo}}Ja{{else}}Nein{{end}}</td>
        <td><span class="checkbox"></span></td>
      </tr>
    {{end}}
    </tbody>
  </table>
  <div class="footer">
    <p><strong>Organisator/Verantwortlicher:</strong> _______________________</p>
    <p style="margin-top: 30px;"><strong>Datum &amp; Unterschrift:</strong> _______________________</p>
  </div>
</div>
{{end}}
<div class="print-info"><p><em>{{.Footer}}</em></p></div>
</body>
</html>
`))

type htmlRow struct {
	Number    int
	Name      string
	Email     string
	Phone     string
	Confirmed bool
	Photo     bool
}

type htmlEvent struct {
	Title     string
	Date      string
	Location  string
	Total     int
	Confirmed int
	Capacity  int
	Rows      []htmlRow
}

// HTML writes a printable page with one section per event.
func HTML(w io.Writer, groups []Group, opts Options) error {
	data := struct {
		Events []htmlEvent
		Footer string
	}{Footer: opts.footer()}

	for _, g := range groups {
		ev := htmlEvent{
			Title:     g.Event.Title,
			Date:      opts.format(g.Event.Date),
			Location:  g.Event.Location,
			Total:     len(g.Registrations),
			Confirmed: g.Confirmed(),
		}
		if g.Event.MaxParticipants != nil {
			ev.Capacity = *g.Event.MaxParticipants
		}
		for i, r := range g.Registrations {
			ev.Rows = append(ev.Rows, htmlRow{
				Number:    i + 1,
				Name:      r.FullName(),
				Email:     r.Email,
				Phone:     orDash(r.Phone),
				Confirmed: r.IsConfirmed,
				Photo:     r.PhotoConsent,
			})
		}
		data.Events = append(data.Events, ev)
	}

	return htmlTemplate.Execute(w, data)
}
