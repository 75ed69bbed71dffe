package convert

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Destinations whose content is not body text.
var rtfSkip = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "header": true, "footer": true, "listtable": true,
	"listoverridetable": true, "generator": true,
}

// stripRTF extracts the plain text of an RTF document. Paragraph marks
// become blank lines so the text splits like a .txt file. Input that does
// not start with {\rtf is returned as is.
func stripRTF(src string) string {
	if !strings.HasPrefix(strings.TrimSpace(src), `{\rtf`) {
		return src
	}

	var (
		out       strings.Builder
		skipDepth = -1
		depth     int
	)
	dec := charmap.Windows1252.NewDecoder()

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch c {
		case '{':
			depth++
		case '}':
			if depth == skipDepth {
				skipDepth = -1
			}
			depth--
		case '\\':
			if i+1 >= len(src) {
				continue
			}
			next := src[i+1]
			switch {
			case next == '\\' || next == '{' || next == '}':
				if skipDepth < 0 {
					out.WriteByte(next)
				}
				i++
			case next == '\'' && i+3 < len(src):
				if b, err := strconv.ParseUint(src[i+2:i+4], 16, 8); err == nil && skipDepth < 0 {
					if s, err := dec.String(string([]byte{byte(b)})); err == nil {
						out.WriteString(s)
					}
				}
				i += 3
			case next == '*':
				if skipDepth < 0 {
					skipDepth = depth
				}
				i++
			case isLetter(next):
				j := i + 1
				for j < len(src) && isLetter(src[j]) {
					j++
				}
				word := src[i+1 : j]
				p := j
				for j < len(src) && (src[j] == '-' || (src[j] >= '0' && src[j] <= '9')) {
					j++
				}
				param := src[p:j]
				if j < len(src) && src[j] == ' ' {
					j++
				}
				i = j - 1
				if skipDepth >= 0 {
					continue
				}
				switch {
				case word == "u":
					if n, err := strconv.Atoi(param); err == nil {
						if n < 0 {
							n += 65536
						}
						out.WriteRune(rune(n))
					}
					// skip the ANSI fallback character
					if strings.HasPrefix(src[j:], `\'`) {
						i = j + 3
					} else if j < len(src) && !strings.ContainsRune(`{}\\`, rune(src[j])) {
						i = j
					}
				case rtfSkip[word]:
					skipDepth = depth
				case word == "par" || word == "sect" || word == "page":
					out.WriteString("\n\n")
				case word == "line":
					out.WriteByte('\n')
				case word == "tab":
					out.WriteByte('\t')
				}
			default:
				i++
			}
		case '\r', '\n':
		default:
			if skipDepth < 0 && depth > 0 {
				out.WriteByte(c)
			}
		}
	}
	return out.String()
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
