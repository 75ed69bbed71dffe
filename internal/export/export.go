// Package export writes participant lists for events.
package export

import (
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/database"
)

// Attachment file names.
const (
	FileHTML = "teilnehmerliste.html"
	FilePDF  = "teilnehmerliste.pdf"
	FileCSV  = "teilnehmerliste.csv"
)

const dateLayout = "02.01.2006 um 15:04"

// Group is one event with its registrations in list order.
type Group struct {
	Event         database.Event
	Registrations []database.EventRegistration
}

func (g Group) Confirmed() int {
	n := 0
	for _, r := range g.Registrations {
		if r.IsConfirmed {
			n++
		}
	}
	return n
}

// GroupByEvent groups registrations by event, keeping the order in which
// each event first appears. Registrations must have Event loaded.
func GroupByEvent(regs []database.EventRegistration) []Group {
	var groups []Group
	index := map[uint]int{}
	for _, r := range regs {
		i, ok := index[r.EventID]
		if !ok {
			i = len(groups)
			index[r.EventID] = i
			groups = append(groups, Group{Event: r.Event})
		}
		groups[i].Registrations = append(groups[i].Registrations, r)
	}
	return groups
}

// Options controls headers and footers.
type Options struct {
	SiteName string
	Location *time.Location
	Now      time.Time
}

func (o Options) format(t time.Time) string {
	loc := o.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(dateLayout)
}

func (o Options) footer() string {
	return "Teilnehmerliste erstellt am " + o.format(o.Now) + " | " + o.SiteName
}

func yesNo(b bool) string {
	if b {
		return "Ja"
	}
	return "Nein"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
