package export

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/AlexTLDR/lesezirkel/internal/database"
	"github.com/AlexTLDR/lesezirkel/internal/fonts"
	"github.com/go-pdf/fpdf"
)

func sampleRegistrations() []database.EventRegistration {
	capacity := 20
	lesung := database.Event{
		Model:           database.Model{ID: 1},
		Title:           "Sommerlesung",
		Date:            time.Date(2025, 7, 10, 17, 30, 0, 0, time.UTC),
		Location:        "Stadtbibliothek",
		MaxParticipants: &capacity,
	}
	werkstatt := database.Event{
		Model:    database.Model{ID: 2},
		Title:    "Schreibwerkstatt",
		Date:     time.Date(2025, 8, 1, 16, 0, 0, 0, time.UTC),
		Location: "Haus der Jugend",
	}

	return []database.EventRegistration{
		{EventID: 1, Event: lesung, FirstName: "Anna", LastName: "Müller", Email: "anna@example.org", IsConfirmed: true, PhotoConsent: true},
		{EventID: 2, Event: werkstatt, FirstName: "Bert", LastName: "Schulz", Email: "bert@example.org", Phone: "+4954112345"},
		{EventID: 1, Event: lesung, FirstName: "Clara", LastName: "Weber", Email: "clara@example.org", Message: "Komme \"vielleicht\"\nspäter"},
	}
}

func options(t *testing.T) Options {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("time zone data not available: %v", err)
	}
	return Options{
		SiteName: "Lesezirkel Osnabrück e.V.",
		Location: loc,
		Now:      time.Date(2025, 7, 1, 8, 5, 0, 0, time.UTC),
	}
}

func TestGroupByEvent(t *testing.T) {
	groups := GroupByEvent(sampleRegistrations())
	if len(groups) != 2 {
		t.Fatalf("groups = %d, want 2", len(groups))
	}
	if groups[0].Event.Title != "Sommerlesung" || len(groups[0].Registrations) != 2 {
		t.Errorf("first group = %s with %d", groups[0].Event.Title, len(groups[0].Registrations))
	}
	if groups[0].Confirmed() != 1 || groups[1].Confirmed() != 0 {
		t.Errorf("confirmed = %d, %d", groups[0].Confirmed(), groups[1].Confirmed())
	}
	if GroupByEvent(nil) != nil {
		t.Error("no registrations should give no groups")
	}
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, GroupByEvent(sampleRegistrations()), options(t)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "\xef\xbb\xbfVeranstaltung,Datum,") {
		t.Errorf("missing BOM or header: %q", out[:30])
	}
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want 4:\n%s", len(lines), out)
	}
	want := `"Sommerlesung","10.07.2025 um 19:30","1","Anna","Müller","anna@example.org","-","Ja","Ja","Nein",""`
	if lines[1] != want {
		t.Errorf("row 1 =\n%s\nwant\n%s", lines[1], want)
	}
	if !strings.Contains(lines[2], `"2","Clara"`) || !strings.Contains(lines[2], `"Komme ""vielleicht"" später"`) {
		t.Errorf("row 2 = %s", lines[2])
	}
	if !strings.HasPrefix(lines[3], `"Schreibwerkstatt","01.08.2025 um 18:00","1","Bert"`) {
		t.Errorf("row 3 = %s", lines[3])
	}
}

func TestHTML(t *testing.T) {
	regs := sampleRegistrations()
	regs[0].FirstName = "<script>"

	var buf bytes.Buffer
	if err := HTML(&buf, GroupByEvent(regs), options(t)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"Sommerlesung",
		"10.07.2025 um 19:30",
		"<strong>Anmeldungen:</strong> 2 gesamt | <strong>Bestätigt:</strong> 1 | <strong>Kapazität:</strong> 20",
		"&lt;script&gt; Müller",
		"Teilnehmerliste erstellt am 01.07.2025 um 10:05 | Lesezirkel Osnabrück e.V.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, "<script>") {
		t.Error("names must be escaped")
	}
	if strings.Count(out, `class="event-section"`) != 2 {
		t.Error("expected one section per event")
	}
	if strings.Contains(out, "Kapazität:</strong> 0") {
		t.Error("unlimited events must not show a capacity")
	}
}

func TestPDF(t *testing.T) {
	var buf bytes.Buffer
	if err := PDF(&buf, GroupByEvent(sampleRegistrations()), options(t)); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}

	buf.Reset()
	if err := PDF(&buf, nil, options(t)); err != nil {
		t.Fatalf("empty list error = %v", err)
	}
}

func TestPDFEmbedsUnicodeFont(t *testing.T) {
	regs := sampleRegistrations()
	regs[1].FirstName, regs[1].LastName = "Ayşe", "Ağaoğlu"

	var buf bytes.Buffer
	if err := PDF(&buf, GroupByEvent(regs), options(t)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "/BaseFont /utf8dejavu") {
		t.Error("participant list does not embed the DejaVu font")
	}
	if strings.Contains(out, "/BaseFont /Helvetica") {
		t.Error("participant list still uses a cp1252 core font")
	}
}

func TestFit(t *testing.T) {
	pdf := fpdf.New("P", "mm", "A4", "")
	fonts.Register(pdf)
	pdf.AddPage()
	pdf.SetFont(fonts.Family, "", 9)

	if got := fit(pdf, "Ağaoğlu", 40); got != "Ağaoğlu" {
		t.Errorf("fit() = %q, want the text unchanged", got)
	}

	long := strings.Repeat("Şahin ", 20)
	got := fit(pdf, long, 30)
	if !strings.HasSuffix(got, "…") || !utf8.ValidString(got) {
		t.Errorf("fit() = %q, want valid UTF-8 ending in an ellipsis", got)
	}
	if w := pdf.GetStringWidth(got); w > 30 {
		t.Errorf("fitted width = %.1f, want at most 30", w)
	}
	if err := pdf.Error(); err != nil {
		t.Fatalf("pdf error: %v", err)
	}
}
