package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/AlexTLDR/lesezirkel/internal/fonts"
	"github.com/go-pdf/fpdf"
)

var pdfColumns = []struct {
	title string
	width float64
	align string
}{
	{"#", 10, "C"},
	{"Name", 40, "L"},
	{"E-Mail", 52, "L"},
	{"Telefon", 28, "L"},
	{"Best.", 14, "C"},
	{"Foto", 12, "C"},
	{"Anwesend", 14, "C"},
}

// PDF writes the list as an A4 document.
func PDF(w io.Writer, groups []Group, opts Options) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle("Teilnehmerliste", true)
	fonts.Register(pdf)
	pdf.AddPage()

	pdf.SetFont(fonts.Family, "B", 18)
	pdf.SetTextColor(0, 123, 255)
	pdf.CellFormat(0, 10, opts.SiteName, "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(fonts.Family, "B", 13)
	pdf.CellFormat(0, 8, "Teilnehmerliste", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	for _, g := range groups {
		pdf.SetFont(fonts.Family, "B", 14)
		pdf.SetTextColor(0, 123, 255)
		pdf.MultiCell(0, 7, g.Event.Title, "", "L", false)
		pdf.SetTextColor(0, 0, 0)

		pdf.SetFont(fonts.Family, "", 10)
		pdf.CellFormat(0, 5, "Datum: "+opts.format(g.Event.Date), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, "Ort: "+g.Event.Location, "", 1, "L", false, 0, "")
		info := fmt.Sprintf("Anmeldungen: %d gesamt | Bestätigt: %d", len(g.Registrations), g.Confirmed())
		if g.Event.MaxParticipants != nil {
			info += fmt.Sprintf(" | Kapazität: %d", *g.Event.MaxParticipants)
		}
		pdf.CellFormat(0, 5, info, "", 1, "L", false, 0, "")
		pdf.Ln(4)

		pdf.SetFont(fonts.Family, "B", 9)
		pdf.SetFillColor(248, 249, 250)
		pdf.SetDrawColor(221, 221, 221)
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, 7, c.title, "1", 0, c.align, true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont(fonts.Family, "", 9)
		for i, r := range g.Registrations {
			cells := []string{
				strconv.Itoa(i + 1),
				r.FullName(),
				r.Email,
				orDash(r.Phone),
				yesNo(r.IsConfirmed),
				yesNo(r.PhotoConsent),
				"[ ]",
			}
			fill := i%2 == 1
			pdf.SetFillColor(249, 249, 249)
			for j, c := range pdfColumns {
				text := fit(pdf, cells[j], c.width-2)
				pdf.CellFormat(c.width, 6, text, "1", 0, c.align, fill, 0, "")
			}
			pdf.Ln(-1)
		}

		pdf.Ln(8)
		pdf.SetFont(fonts.Family, "", 10)
		pdf.CellFormat(0, 6, "Organisator/Verantwortlicher: _______________________", "", 1, "L", false, 0, "")
		pdf.Ln(4)
		pdf.CellFormat(0, 6, "Datum & Unterschrift: _______________________", "", 1, "L", false, 0, "")
		pdf.Ln(10)
	}

	pdf.SetFont(fonts.Family, "I", 9)
	pdf.CellFormat(0, 5, opts.footer(), "", 1, "L", false, 0, "")

	return pdf.Output(w)
}

// fit shortens text to the given width.
func fit(pdf *fpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	const ellipsis = "…"
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+ellipsis) > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + ellipsis
}
