package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// 30/04/2025 19:00, 30/04/2025 - 19h00, 30/04/2025 às 19:00
	reAbsolute = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})\D{0,6}?(\d{1,2})[:h](\d{2})`)
	reClock    = regexp.MustCompile(`\b(\d{1,2})[:h](\d{2})\b`)
	reISODate  = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	reNumDate  = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?\b`)
	// applied to folded text: "30 de abril de 2025", "30 abr", "sabado, 10 de maio"
	reLongDate = regexp.MustCompile(`\b(\d{1,2})\s+(?:de\s+)?([a-z]{3,})\.?(?:\s+(?:de\s+)?(\d{4}))?`)
	reDayOnly  = regexp.MustCompile(`^\D{0,12}?(\d{1,2})\D{0,12}$`)
)

var months = map[string]time.Month{
	"janeiro": time.January, "jan": time.January,
	"fevereiro": time.February, "fev": time.February,
	"marco": time.March, "mar": time.March,
	"abril": time.April, "abr": time.April,
	"maio": time.May, "mai": time.May,
	"junho": time.June, "jun": time.June,
	"julho": time.July, "jul": time.July,
	"agosto": time.August, "ago": time.August,
	"setembro": time.September, "set": time.September,
	"outubro": time.October, "out": time.October,
	"novembro": time.November, "nov": time.November,
	"dezembro": time.December, "dez": time.December,
}

var tbaLabels = []string{"tba", "tbd", "a definir", "indefinido", "a confirmar", "--:--"}

// yearRolloverWindow: a yearless date further back than this from the reference is read as next year.
const yearRolloverWindow = 180 * 24 * time.Hour

// dayRolloverWindow: a bare day number further back than this is read as next month.
const dayRolloverWindow = 15 * 24 * time.Hour

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func (d civilDate) in(loc *time.Location) time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

func newCivilDate(y int, m time.Month, d int) (civilDate, bool) {
	if m < time.January || m > time.December || d < 1 || d > 31 {
		return civilDate{}, false
	}
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || t.Month() != m {
		return civilDate{}, false
	}
	return civilDate{year: y, month: m, day: d}, true
}

func dateOf(t time.Time) civilDate {
	return civilDate{year: t.Year(), month: t.Month(), day: t.Day()}
}

type clockTime struct {
	hour, minute int
}

func isTBA(label string) bool {
	f := fold(label)
	if f == "" {
		return false
	}
	for _, l := range tbaLabels {
		if f == l || strings.HasPrefix(f, l+" ") || strings.HasSuffix(f, " "+l) {
			return true
		}
	}
	return false
}

// parseAbsolute finds "DD/MM/YYYY HH:MM" anywhere in s.
func parseAbsolute(s string) (civilDate, clockTime, bool) {
	m := reAbsolute.FindStringSubmatch(s)
	if m == nil {
		return civilDate{}, clockTime{}, false
	}
	day, month, year := atoi(m[1]), atoi(m[2]), atoi(m[3])
	d, ok := newCivilDate(year, time.Month(month), day)
	if !ok {
		return civilDate{}, clockTime{}, false
	}
	c, ok := newClock(atoi(m[4]), atoi(m[5]))
	if !ok {
		return civilDate{}, clockTime{}, false
	}
	return d, c, true
}

// parseClock finds the first bare HH:MM (or 19h00) in s.
func parseClock(s string) (clockTime, bool) {
	for _, m := range reClock.FindAllStringSubmatch(s, -1) {
		if c, ok := newClock(atoi(m[1]), atoi(m[2])); ok {
			return c, true
		}
	}
	return clockTime{}, false
}

func newClock(h, m int) (clockTime, bool) {
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return clockTime{}, false
	}
	return clockTime{hour: h, minute: m}, true
}

// parseDateLabel reads a label or heading that is expected to be a date: ISO,
// numeric, long form or relative ("hoje", "amanhã"). anchor fills in missing
// year parts; relative words always count from today.
func parseDateLabel(label string, anchor, today time.Time) (civilDate, bool) {
	f := fold(label)
	if f == "" {
		return civilDate{}, false
	}
	if d, ok := parseDateInText(f, anchor); ok {
		return d, true
	}
	switch {
	case strings.Contains(f, "depois de amanha"):
		return dateOf(today.AddDate(0, 0, 2)), true
	case strings.Contains(f, "amanha"):
		return dateOf(today.AddDate(0, 0, 1)), true
	case strings.Contains(f, "hoje"):
		return dateOf(today), true
	}
	return civilDate{}, false
}

// parseDayLabel also accepts a bare day number ("02", "dia 30"). Only a
// fragment's own day label is read this way; headings such as "Semana 18"
// are not dates.
func parseDayLabel(label string, anchor, today time.Time) (civilDate, bool) {
	if d, ok := parseDateLabel(label, anchor, today); ok {
		return d, true
	}
	if m := reDayOnly.FindStringSubmatch(fold(label)); m != nil {
		return resolveDayNumber(atoi(m[1]), anchor)
	}
	return civilDate{}, false
}

// parseDateInText looks for an explicit date inside free text. It never reads
// a lone number as a day, since fragment text is full of unrelated digits.
func parseDateInText(s string, ref time.Time) (civilDate, bool) {
	f := fold(s)
	if m := reISODate.FindStringSubmatch(f); m != nil {
		if d, ok := newCivilDate(atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3])); ok {
			return d, true
		}
	}
	for _, m := range reNumDate.FindAllStringSubmatch(f, -1) {
		day, month := atoi(m[1]), atoi(m[2])
		if m[3] != "" {
			year := atoi(m[3])
			if year < 100 {
				year += 2000
			}
			if d, ok := newCivilDate(year, time.Month(month), day); ok {
				return d, true
			}
			continue
		}
		if d, ok := resolveYearless(day, time.Month(month), ref); ok {
			return d, true
		}
	}
	for _, m := range reLongDate.FindAllStringSubmatch(f, -1) {
		month, ok := months[m[2]]
		if !ok {
			continue
		}
		day := atoi(m[1])
		if m[3] != "" {
			if d, ok := newCivilDate(atoi(m[3]), month, day); ok {
				return d, true
			}
			continue
		}
		if d, ok := resolveYearless(day, month, ref); ok {
			return d, true
		}
	}
	return civilDate{}, false
}

func resolveYearless(day int, month time.Month, ref time.Time) (civilDate, bool) {
	d, ok := newCivilDate(ref.Year(), month, day)
	if !ok {
		return civilDate{}, false
	}
	if ref.Sub(d.in(ref.Location())) > yearRolloverWindow {
		return newCivilDate(ref.Year()+1, month, day)
	}
	return d, true
}

// resolveDayNumber places a bare day number in ref's month, or the next month
// when that would put it well before ref.
func resolveDayNumber(day int, ref time.Time) (civilDate, bool) {
	d, ok := newCivilDate(ref.Year(), ref.Month(), day)
	if ok && ref.Sub(d.in(ref.Location())) <= dayRolloverWindow {
		return d, true
	}
	next := time.Date(ref.Year(), ref.Month()+1, 1, 0, 0, 0, 0, ref.Location())
	return newCivilDate(next.Year(), next.Month(), day)
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}
