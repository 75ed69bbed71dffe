// Package fonts embeds the DejaVu Sans Condensed faces used for generated
// PDFs. The core PDF fonts only cover cp1252, which loses letters such as
// "ş" or "ğ" in participant names.
package fonts

import (
	_ "embed"

	"github.com/go-pdf/fpdf"
)

// Family is the font family name registered by Register.
const Family = "DejaVu"

var (
	//go:embed DejaVuSansCondensed.ttf
	regular []byte
	//go:embed DejaVuSansCondensed-Bold.ttf
	bold []byte
	//go:embed DejaVuSansCondensed-Oblique.ttf
	italic []byte
)

// Register adds the regular, bold and italic faces to pdf.
func Register(pdf *fpdf.Fpdf) {
	pdf.AddUTF8FontFromBytes(Family, "", regular)
	pdf.AddUTF8FontFromBytes(Family, "B", bold)
	pdf.AddUTF8FontFromBytes(Family, "I", italic)
}
