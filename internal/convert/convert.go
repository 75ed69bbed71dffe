// Package convert renders uploaded office documents as simple PDFs.
package convert

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/AlexTLDR/lesezirkel/internal/fonts"
	"github.com/AlexTLDR/lesezirkel/internal/utils"
	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"
)

var ErrLegacyFormat = errors.New("legacy office format cannot be converted")

// section is a heading followed by paragraphs. Heading may be empty.
type section struct {
	Heading    string
	Paragraphs []string
}

// ToPDF converts data to PDF. The file name only selects the format.
// PDFs are returned unchanged; unknown formats produce a short PDF that
// names the file.
func ToPDF(filename string, data []byte) ([]byte, error) {
	var (
		sections []section
		err      error
	)

	switch utils.FileExtension(filename) {
	case ".pdf":
		return data, nil
	case ".doc", ".xls", ".ppt":
		return nil, ErrLegacyFormat
	case ".docx":
		sections, err = docxSections(data)
	case ".xlsx":
		sections, err = xlsxSections(data)
	case ".pptx":
		sections, err = pptxSections(data)
	case ".txt":
		sections = textSections(decodeText(data))
	case ".rtf":
		sections = textSections(stripRTF(decodeText(data)))
	default:
		return infoPDF(filename)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	return render(sections)
}

func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

func textSections(text string) []section {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var paras []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	return []section{{Paragraphs: paras}}
}

type document struct {
	pdf *fpdf.Fpdf
}

func newDocument() *document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	fonts.Register(pdf)
	pdf.AddPage()
	return &document{pdf: pdf}
}

func (d *document) heading(text string, size float64) {
	d.pdf.SetFont(fonts.Family, "B", size)
	d.pdf.MultiCell(0, size*0.5, text, "", "L", false)
	d.pdf.Ln(4)
}

func (d *document) paragraph(text string) {
	d.pdf.SetFont(fonts.Family, "", 11)
	d.pdf.MultiCell(0, 5.5, text, "", "L", false)
	d.pdf.Ln(3)
}

func (d *document) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func render(sections []section) ([]byte, error) {
	d := newDocument()
	for i, s := range sections {
		if i > 0 {
			d.pdf.Ln(6)
		}
		if s.Heading != "" {
			d.heading(s.Heading, 16)
		}
		for _, p := range s.Paragraphs {
			d.paragraph(p)
		}
	}
	return d.bytes()
}

func infoPDF(filename string) ([]byte, error) {
	d := newDocument()
	d.heading("Dokumentinformation", 20)
	d.paragraph("Originaldatei: " + filename)
	d.paragraph("Dieses Dateiformat kann nicht als PDF angezeigt werden. Bitte laden Sie die Originaldatei herunter.")
	return d.bytes()
}
