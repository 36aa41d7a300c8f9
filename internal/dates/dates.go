// Package dates turns loosely formatted date and timestamp strings into
// canonical UTC instants and renders them back in one fixed format.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"tabstat/domain/stats"
)

// MillisPerDay converts instant spreads to days.
const MillisPerDay = 24 * 60 * 60 * 1000

// Instant is a parsed date at millisecond resolution.
type Instant struct {
	Millis  int64
	HasTime bool // false when the UTC time of day is exactly midnight
}

// Kind reports KindDate for midnight instants and KindDateTime otherwise.
func (i Instant) Kind() stats.Kind {
	if i.HasTime {
		return stats.KindDateTime
	}
	return stats.KindDate
}

// Time returns the instant as a UTC time.
func (i Instant) Time() time.Time {
	return time.UnixMilli(i.Millis).UTC()
}

// fractional unix seconds, e.g. 1511648546.123
var fractionalUnix = regexp.MustCompile(`^(\d{9,11})\.(\d{1,9})$`)

// Normalizer parses dates. DayFirst resolves ambiguous numeric dates such
// as 03/04/2021 as 3 April instead of March 4.
type Normalizer struct {
	DayFirst bool
}

// Parse returns the canonical instant for s. Failure is reported through ok,
// never through an error; callers decide whether a failure matters.
func (n Normalizer) Parse(s string) (Instant, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Instant{}, false
	}

	if m := fractionalUnix.FindStringSubmatch(s); m != nil {
		secs, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return Instant{}, false
		}
		frac := (m[2] + "000")[:3]
		ms, _ := strconv.ParseInt(frac, 10, 64)
		return fromTime(time.UnixMilli(secs*1000 + ms)), true
	}

	t, err := dateparse.ParseIn(s, time.UTC,
		dateparse.PreferMonthFirst(!n.DayFirst),
		dateparse.RetryAmbiguousDateWithSwap(true),
	)
	if err != nil {
		return Instant{}, false
	}
	return fromTime(t), true
}

func fromTime(t time.Time) Instant {
	u := t.UTC()
	h, m, sec := u.Clock()
	return Instant{
		Millis:  u.UnixMilli(),
		HasTime: h != 0 || m != 0 || sec != 0 || u.Nanosecond()/int(time.Millisecond) != 0,
	}
}

// Format renders millis in the canonical form for kind: 2006-01-02 for dates
// and RFC 3339 in UTC, with milliseconds only when present, for date-times.
func Format(millis int64, kind stats.Kind) string {
	t := time.UnixMilli(millis).UTC()
	if kind == stats.KindDate {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339Nano)
}

// FormatFloat renders a derived instant such as a mean or quartile. Values
// are truncated toward the earlier millisecond.
func FormatFloat(millis float64, kind stats.Kind) string {
	ms := int64(millis)
	if float64(ms) > millis {
		ms--
	}
	return Format(ms, kind)
}

// Days converts a spread in milliseconds to days.
func Days(millis float64) float64 {
	return millis / MillisPerDay
}
