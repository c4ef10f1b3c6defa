// Package datefmt renders event date and time labels for a caller-supplied
// location and language. Nothing here reads or mutates process-wide locale state.
package datefmt

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Options carries the formatting parameters for one call
type Options struct {
	Location *time.Location
	Language language.Tag
}

var supported = []language.Tag{
	language.English,
	language.BrazilianPortuguese,
	language.Spanish,
}

var matcher = language.NewMatcher(supported)

// month abbreviations indexed like supported
var monthAbbrev = [][12]string{
	{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"},
	{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sep", "oct", "nov", "dic"},
}

// NewOptions parses a time zone name and a BCP 47 language tag. Unknown zones
// fall back to UTC and unparsable languages to English.
func NewOptions(timeZone, lang string) Options {
	loc, err := time.LoadLocation(timeZone)
	if err != nil {
		loc = time.UTC
	}
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return Options{Location: loc, Language: tag}
}

func (o Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o Options) tableIndex() int {
	_, index, _ := matcher.Match(o.Language)
	return index
}

// DateLabel renders "<day> <MON>", e.g. "20 DEZ" for pt-BR.
func DateLabel(t time.Time, o Options) string {
	local := t.In(o.location())
	month := monthAbbrev[o.tableIndex()][local.Month()-1]
	upper := cases.Upper(supported[o.tableIndex()])
	return fmt.Sprintf("%02d %s", local.Day(), upper.String(month))
}

// TimeLabel renders the 24-hour "HH:MM" time in the location.
func TimeLabel(t time.Time, o Options) string {
	return t.In(o.location()).Format("15:04")
}
