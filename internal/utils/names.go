package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NameMatchThreshold is the minimum similarity between an invited name and
// the name given at registration.
const NameMatchThreshold = 0.85

var sharpS = strings.NewReplacer("ß", "ss", "ẞ", "ss")

// NormalizeName folds a person's name for comparison: accents are removed,
// "ß" becomes "ss", everything is lower-cased and any run of characters
// that are not letters or digits becomes a single space.
func NormalizeName(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, sharpS.Replace(name))
	if err != nil {
		folded = name
	}
	folded = cases.Fold().String(folded)

	return strings.Join(strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}

// SimilarityRatio returns the Ratcliff/Obershelp similarity of a and b:
// twice the number of matching characters divided by the total length.
func SimilarityRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(ra, rb)) / float64(total)
}

func matchingRunes(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	i, j, k := longestCommon(a, b)
	if k == 0 {
		return 0
	}
	return k + matchingRunes(a[:i], b[:j]) + matchingRunes(a[i+k:], b[j+k:])
}

// longestCommon finds the longest common block of a and b, preferring the
// one that starts earliest in a.
func longestCommon(a, b []rune) (int, int, int) {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	bestI, bestJ, best := 0, 0, 0

	for i := range a {
		for j := range b {
			if a[i] == b[j] {
				cur[j+1] = prev[j] + 1
				if cur[j+1] > best {
					best = cur[j+1]
					bestI, bestJ = i-best+1, j-best+1
				}
			} else {
				cur[j+1] = 0
			}
		}
		prev, cur = cur, prev
	}

	return bestI, bestJ, best
}

// NamesMatch reports whether the registrant's first and last name are close
// enough to the invited name. Both name orders are tried.
func NamesMatch(invited, firstName, lastName string) bool {
	want := NormalizeName(invited)
	forward := NormalizeName(firstName + " " + lastName)
	backward := NormalizeName(lastName + " " + firstName)

	ratio := SimilarityRatio(want, forward)
	if r := SimilarityRatio(want, backward); r > ratio {
		ratio = r
	}
	return ratio >= NameMatchThreshold
}
