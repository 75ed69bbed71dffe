package convert

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var slideName = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func openZip(data []byte) (*zip.Reader, error) {
	return zip.NewReader(bytes.NewReader(data), int64(len(data)))
}

func zipFile(zr *zip.Reader, name string) (*zip.File, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%s missing", name)
}

// paragraphs collects the text of every <p> element that has any, from
// WordprocessingML (w:p/w:t) and DrawingML (a:p/a:t) alike.
func paragraphs(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var (
		out    []string
		cur    strings.Builder
		inText bool
	)
	dec := xml.NewDecoder(rc)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				cur.WriteByte('\t')
			case "br", "cr":
				cur.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if s := strings.TrimSpace(cur.String()); s != "" {
					out = append(out, s)
				}
				cur.Reset()
			}
		case xml.CharData:
			if inText {
				cur.Write(t)
			}
		}
	}
	return out, nil
}

func docxSections(data []byte) ([]section, error) {
	zr, err := openZip(data)
	if err != nil {
		return nil, err
	}
	f, err := zipFile(zr, "word/document.xml")
	if err != nil {
		return nil, err
	}
	paras, err := paragraphs(f)
	if err != nil {
		return nil, err
	}
	return []section{{Paragraphs: paras}}, nil
}

type presentation struct {
	Slides []struct {
		RelID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type relationships struct {
	Items []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

func decodePart(zr *zip.Reader, name string, v any) error {
	f, err := zipFile(zr, name)
	if err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}

// slideOrder returns the slide part names in the order of the slide list
// in ppt/presentation.xml.
func slideOrder(zr *zip.Reader) ([]string, error) {
	var pres presentation
	if err := decodePart(zr, "ppt/presentation.xml", &pres); err != nil {
		return nil, err
	}
	var rels relationships
	if err := decodePart(zr, "ppt/_rels/presentation.xml.rels", &rels); err != nil {
		return nil, err
	}

	targets := make(map[string]string, len(rels.Items))
	for _, r := range rels.Items {
		targets[r.ID] = r.Target
	}

	names := make([]string, 0, len(pres.Slides))
	for _, s := range pres.Slides {
		target, ok := targets[s.RelID]
		if !ok {
			return nil, fmt.Errorf("relationship %s missing", s.RelID)
		}
		if strings.HasPrefix(target, "/") {
			names = append(names, strings.TrimPrefix(target, "/"))
		} else {
			names = append(names, path.Join("ppt", target))
		}
	}
	return names, nil
}

func pptxSections(data []byte) ([]section, error) {
	zr, err := openZip(data)
	if err != nil {
		return nil, err
	}

	type slide struct {
		n int
		f *zip.File
	}
	var slides []slide
	byName := make(map[string]slide)
	for _, f := range zr.File {
		m := slideName.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		s := slide{n: n, f: f}
		slides = append(slides, s)
		byName[f.Name] = s
	}
	if len(slides) == 0 {
		return nil, errors.New("no slides found")
	}

	// Without a usable slide list the file numbers give the order.
	if order, err := slideOrder(zr); err == nil && len(order) > 0 {
		slides = slides[:0]
		for _, name := range order {
			if s, ok := byName[name]; ok {
				slides = append(slides, s)
			}
		}
	} else {
		sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })
	}

	sections := make([]section, 0, len(slides))
	for i, s := range slides {
		paras, err := paragraphs(s.f)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", s.n, err)
		}
		sections = append(sections, section{
			Heading:    fmt.Sprintf("Slide %d", i+1),
			Paragraphs: paras,
		})
	}
	return sections, nil
}

func xlsxSections(data []byte) ([]section, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sections []section
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		s := section{Heading: "Sheet: " + sheet}
		for _, row := range rows {
			line := strings.Join(row, " | ")
			if strings.TrimSpace(strings.ReplaceAll(line, "|", "")) != "" {
				s.Paragraphs = append(s.Paragraphs, line)
			}
		}
		sections = append(sections, s)
	}
	return sections, nil
}
