package detect

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/statement2sheet/s2s/internal/model"
)

var longDigitRun = regexp.MustCompile(`\d{5,}`)

var spanishMonths = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August, "septiembre": time.September,
	"octubre": time.October, "noviembre": time.November, "diciembre": time.December,
}

var englishMonths = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// extractStatementPeriod tries the regional period regexes first and falls
// back to bracketing all date-like tokens found anywhere in the document.
// The returned string is free-form "start - end"; start/end are non-nil only
// when both endpoints parsed.
func (d *Detector) extractStatementPeriod(text string, ps *PatternSet) (period string, start, end *time.Time) {
	for _, re := range ps.PeriodPatterns {
		m := re.FindStringSubmatch(text)
		if len(m) < 3 || m[1] == "" || m[2] == "" {
			continue
		}
		period = strings.TrimSpace(m[1]) + " - " + strings.TrimSpace(m[2])
		if s, ok := d.parseDate(m[1], ps.Language); ok {
			if e, ok2 := d.parseDate(m[2], ps.Language); ok2 {
				start, end = &s, &e
			}
		}
		return period, start, end
	}

	// No explicit period marker: approximate from the full set of dates.
	dates := d.extractAllDates(text, ps)
	if len(dates) < 2 {
		return "", nil, nil
	}
	first, last := dates[0], dates[len(dates)-1]
	period = first.Format("02/01/2006") + " - " + last.Format("02/01/2006")
	return period, &first, &last
}

// extractAllDates collects every parseable date-like token, deduplicated and
// sorted ascending. Tokens with implausible years or absurd digit runs are
// discarded.
func (d *Detector) extractAllDates(text string, ps *PatternSet) []time.Time {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, re := range ps.DatePatterns {
		for _, tok := range re.FindAllString(text, -1) {
			t, ok := d.parseDate(tok, ps.Language)
			if !ok || seen[t] {
				continue
			}
			seen[t] = true
			dates = append(dates, t)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// parseDate parses a single date token. Numeric day/month order follows the
// regional convention: day-first for Spanish, month-first for English.
func (d *Detector) parseDate(token string, lang model.Language) (time.Time, bool) {
	token = strings.TrimSpace(strings.Trim(token, ".,;"))
	if token == "" || longDigitRun.MatchString(token) {
		return time.Time{}, false
	}

	layouts := []string{"2006-01-02"}
	if lang == model.LanguageSpanish {
		layouts = append(layouts, "02/01/2006", "2/1/2006", "02-01-2006", "2-1-2006")
	} else {
		layouts = append(layouts, "01/02/2006", "1/2/2006", "01-02-2006", "1-2-2006",
			"January 2, 2006", "January 2 2006")
	}

	lower := strings.ToLower(token)
	capitalized := token
	if len(lower) > 0 {
		capitalized = strings.ToUpper(lower[:1]) + lower[1:]
	}
	for _, layout := range layouts {
		candidate := token
		if strings.HasPrefix(layout, "January") {
			candidate = capitalized
		}
		if t, err := time.Parse(layout, candidate); err == nil && d.yearPlausible(t.Year()) {
			return t, true
		}
	}

	// Spanish long form: "15 de enero de 2024"
	if lang == model.LanguageSpanish {
		if t, ok := d.parseSpanishLongDate(lower); ok {
			return t, true
		}
	}

	return time.Time{}, false
}

func (d *Detector) parseSpanishLongDate(lower string) (time.Time, bool) {
	parts := strings.Fields(lower)
	// "15 de enero de 2024"
	if len(parts) != 5 || parts[1] != "de" || parts[3] != "de" {
		return time.Time{}, false
	}
	month, ok := spanishMonths[parts[2]]
	if !ok {
		return time.Time{}, false
	}
	day := atoiSafe(parts[0])
	year := atoiSafe(parts[4])
	if day < 1 || day > 31 || !d.yearPlausible(year) {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}

// yearPlausible rejects years before 2000 or more than one year ahead.
func (d *Detector) yearPlausible(year int) bool {
	return year >= 2000 && year <= d.now().Year()+1
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
	}
	if s == "" {
		return -1
	}
	return n
}
