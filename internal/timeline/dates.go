package timeline

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	monthPat  = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`
	ordPat    = `(?:st|nd|rd|th)?`
	singlePat = `(?:\d{4}-\d{1,2}-\d{1,2}` +
		`|\d{1,2}/\d{1,2}(?:/\d{2,4})?` +
		`|` + monthPat + `\s+\d{1,2}` + ordPat + `(?:,?\s*\d{4})?` +
		`|\d{1,2}` + ordPat + `\s+` + monthPat + `(?:,?\s*\d{4})?` +
		`|` + monthPat + `\s+\d{4})`
	rangeSepPat = `\s*(?:–|—|→|->|-|\bto\b|\buntil\b|\bthrough\b|\bthru\b)\s*`
)

var (
	isoRe   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	numRe   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?$`)
	mdRe    = regexp.MustCompile(`(?i)^(` + monthPat + `)\s+(\d{1,2})` + ordPat + `(?:,?\s*(\d{4}))?$`)
	dmRe    = regexp.MustCompile(`(?i)^(\d{1,2})` + ordPat + `\s+(` + monthPat + `)(?:,?\s*(\d{4}))?$`)
	myRe    = regexp.MustCompile(`(?i)^(` + monthPat + `)\s+(\d{4})$`)
	dayRe   = regexp.MustCompile(`(?i)^(\d{1,2})` + ordPat + `$`)
	yearRe  = regexp.MustCompile(`^(?:19|20)\d{2}$`)
	monthRe = regexp.MustCompile(`(?i)^` + monthPat + `$`)

	singleFullRe = regexp.MustCompile(`(?i)^` + singlePat + `$`)
	rangeFullRe  = regexp.MustCompile(`(?i)^(` + singlePat + `)` + rangeSepPat + `(` + singlePat + `|\d{1,2}` + ordPat + `)$`)
	rangeFindRe  = regexp.MustCompile(`(?i)(` + singlePat + `)` + rangeSepPat + `(` + singlePat + `|\d{1,2}` + ordPat + `)\b`)
	prefixRe     = regexp.MustCompile(`(?i)^(?:due|by|on|from|target|eta|date)\s*:?\s+`)
	spaceRe      = regexp.MustCompile(`\s+`)
	fileYearRe   = regexp.MustCompile(`(?:^|[^0-9])(20\d{2})(?:[^0-9]|$)`)
	phaseRe      = regexp.MustCompile(`(?i)\b(?:phase|sprint|stage|wave|period|window|quarter|q[1-4])\b`)
)

// dateParts is a parsed date before year resolution.
type dateParts struct {
	year, month, day int
}

func (p dateParts) hasYear() bool { return p.year != 0 }

// resolve builds a calendar date using year when the text carried none.
// Impossible dates such as Feb 30 resolve to nil.
func (p dateParts) resolve(year int) *time.Time {
	y := p.year
	if y == 0 {
		y = year
	}
	if y == 0 || p.month < 1 || p.month > 12 || p.day < 1 {
		return nil
	}
	t := time.Date(y, time.Month(p.month), p.day, 0, 0, 0, 0, time.UTC)
	if t.Day() != p.day || int(t.Month()) != p.month {
		return nil
	}
	return &t
}

// dateText is the parsed content of a DATE shape.
type dateText struct {
	raw      string
	isRange  bool
	start    dateParts
	end      dateParts
	startRaw string
	endRaw   string

	endDayOnly bool
}

// clean collapses whitespace and strips lead-in words like "Due:".
func clean(s string) string {
	s = spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	s = strings.TrimRight(s, ",;:")
	return prefixRe.ReplaceAllString(s, "")
}

// parseDateText recognises text that is entirely a date or a date range.
func parseDateText(text string, layouts []string) (dateText, bool) {
	s := clean(text)
	if s == "" {
		return dateText{}, false
	}
	if p, ok := parseSingle(s, layouts); ok {
		return dateText{raw: s, start: p, startRaw: s}, true
	}
	if m := rangeFullRe.FindStringSubmatch(s); m != nil {
		return buildRange(s, m[1], m[2], layouts)
	}
	return dateText{}, false
}

// findRange locates a date range embedded in longer text.
func findRange(text string, layouts []string) (dateText, [2]int, bool) {
	s := spaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	loc := rangeFindRe.FindStringSubmatchIndex(s)
	if loc == nil {
		return dateText{}, [2]int{}, false
	}
	dt, ok := buildRange(s[loc[0]:loc[1]], s[loc[2]:loc[3]], s[loc[4]:loc[5]], layouts)
	return dt, [2]int{loc[0], loc[1]}, ok
}

func buildRange(raw, startRaw, endRaw string, layouts []string) (dateText, bool) {
	start, ok := parseSingle(startRaw, layouts)
	if !ok {
		return dateText{}, false
	}
	dt := dateText{raw: raw, isRange: true, start: start, startRaw: startRaw, endRaw: endRaw}
	if m := dayRe.FindStringSubmatch(endRaw); m != nil {
		// "May 17-21" carries only the day on the right.
		dt.end = dateParts{month: start.month, day: atoi(m[1])}
		dt.endDayOnly = true
	} else if dt.end, ok = parseSingle(endRaw, layouts); !ok {
		return dateText{}, false
	}
	return dt, true
}

// resolveRange resolves both ends of a range. A year written on one side
// applies to the other, shifted by one when the months wrap round the year
// end. A day-only end stays in the start month, so "Nov 28 - 3" resolves
// inverted rather than a year long.
func (d dateText) resolveRange(year int) (start, end *time.Time) {
	s, e := d.start, d.end
	wraps := !d.endDayOnly && e.month < s.month
	switch {
	case s.hasYear() && e.hasYear():
	case e.hasYear():
		s.year = e.year
		if wraps {
			s.year--
		}
	case s.hasYear():
		e.year = s.year
		if wraps {
			e.year++
		}
	case year != 0:
		s.year, e.year = year, year
		if wraps {
			e.year++
		}
	}
	return s.resolve(year), e.resolve(year)
}

// parseSingle parses one date in any supported form.
// Custom layouts are tried first; a layout without a year yields year 0.
func parseSingle(s string, layouts []string) (dateParts, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateParts{year: t.Year(), month: int(t.Month()), day: t.Day()}, true
		}
	}
	if !singleFullRe.MatchString(s) {
		return dateParts{}, false
	}
	if m := isoRe.FindStringSubmatch(s); m != nil {
		return dateParts{year: atoi(m[1]), month: atoi(m[2]), day: atoi(m[3])}, true
	}
	if m := numRe.FindStringSubmatch(s); m != nil {
		p := dateParts{month: atoi(m[1]), day: atoi(m[2])}
		if m[3] != "" {
			p.year = atoi(m[3])
			if p.year < 100 {
				p.year += 2000
			}
		}
		return p, p.month >= 1 && p.month <= 12
	}
	if m := mdRe.FindStringSubmatch(s); m != nil {
		return dateParts{year: atoi(m[3]), month: monthNumber(m[1]), day: atoi(m[2])}, true
	}
	if m := dmRe.FindStringSubmatch(s); m != nil {
		return dateParts{year: atoi(m[3]), month: monthNumber(m[2]), day: atoi(m[1])}, true
	}
	if m := myRe.FindStringSubmatch(s); m != nil {
		return dateParts{year: atoi(m[2]), month: monthNumber(m[1]), day: 1}, true
	}
	return dateParts{}, false
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

var monthIndex = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

func monthNumber(name string) int {
	name = strings.ToLower(strings.TrimSuffix(name, "."))
	if len(name) < 3 {
		return 0
	}
	return monthIndex[name[:3]]
}

// isMonthOnly matches a bare month name such as "May".
func isMonthOnly(s string) bool { return monthRe.MatchString(strings.TrimSpace(s)) }

// dayOnly returns the day of a bare "17" or "17th".
func dayOnly(s string) (int, bool) {
	m := dayRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	d := atoi(m[1])
	return d, d >= 1 && d <= 31
}

// isYear matches a bare four-digit year.
func isYear(s string) bool { return yearRe.MatchString(strings.TrimSpace(s)) }

// isRangeLike reports whether label text names an interval.
func isRangeLike(s string, layouts []string) bool {
	if phaseRe.MatchString(s) {
		return true
	}
	_, _, ok := findRange(s, layouts)
	return ok
}

// FileYear extracts a year such as 2025 from a file name, or 0.
func FileYear(name string) int {
	m := fileYearRe.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	return atoi(m[1])
}

// ParseDate resolves free text to a calendar date, using year when the
// text omits one. It returns nil for unparseable text.
func ParseDate(text string, year int, layouts ...string) *time.Time {
	p, ok := parseSingle(clean(text), layouts)
	if !ok {
		return nil
	}
	return p.resolve(year)
}
