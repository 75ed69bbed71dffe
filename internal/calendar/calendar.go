package calendar

import "time"

var MonthNames = [12]string{
	"Januar", "Februar", "März", "April", "Mai", "Juni",
	"Juli", "August", "September", "Oktober", "November", "Dezember",
}

var DayNames = [7]string{"Mo", "Di", "Mi", "Do", "Fr", "Sa", "So"}

// YearMonth is a calendar month. Month is always within 1..12 after Normalize.
type YearMonth struct {
	Year  int
	Month int
}

// Normalize rolls months outside 1..12 over into the neighbouring years.
func Normalize(year, month int) YearMonth {
	month--
	year += month / 12
	month %= 12
	if month < 0 {
		month += 12
		year--
	}
	return YearMonth{Year: year, Month: month + 1}
}

func (ym YearMonth) Prev() YearMonth { return Normalize(ym.Year, ym.Month-1) }
func (ym YearMonth) Next() YearMonth { return Normalize(ym.Year, ym.Month+1) }

func (ym YearMonth) Name() string { return MonthNames[ym.Month-1] }

// Range returns the first instant of the month and of the following month in loc.
func (ym YearMonth) Range(loc *time.Location) (time.Time, time.Time) {
	start := time.Date(ym.Year, time.Month(ym.Month), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// Day is one cell of the month grid. Padding cells have Day == 0.
type Day[E any] struct {
	Day     int
	IsToday bool
	Events  []E
}

type Month[E any] struct {
	YearMonth
	Weeks [][7]Day[E]
	Prev  YearMonth
	Next  YearMonth
}

// Build lays out ym as Monday-first weeks and puts every event on the day
// returned by dayOf. Events whose day is outside the month are dropped.
func Build[E any](ym YearMonth, today time.Time, events []E, dayOf func(E) int) Month[E] {
	ym = Normalize(ym.Year, ym.Month)
	first := time.Date(ym.Year, time.Month(ym.Month), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	byDay := make(map[int][]E)
	for _, e := range events {
		d := dayOf(e)
		if d >= 1 && d <= daysInMonth {
			byDay[d] = append(byDay[d], e)
		}
	}

	isCurrentMonth := today.Year() == ym.Year && int(today.Month()) == ym.Month

	// time.Weekday starts on Sunday
	offset := (int(first.Weekday()) + 6) % 7

	var weeks [][7]Day[E]
	var week [7]Day[E]
	col := offset
	for d := 1; d <= daysInMonth; d++ {
		week[col] = Day[E]{
			Day:     d,
			IsToday: isCurrentMonth && today.Day() == d,
			Events:  byDay[d],
		}
		col++
		if col == 7 {
			weeks = append(weeks, week)
			week = [7]Day[E]{}
			col = 0
		}
	}
	if col > 0 {
		weeks = append(weeks, week)
	}

	return Month[E]{
		YearMonth: ym,
		Weeks:     weeks,
		Prev:      ym.Prev(),
		Next:      ym.Next(),
	}
}
