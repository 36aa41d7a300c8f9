// Package presenter turns merged field state into rounded, display-ready
// results and writes reports.
package presenter

import (
	"math"
	"strconv"

	"tabstat/internal/dates"
)

// DayPlaces is the minimum precision of spreads reported in days, enough to
// keep millisecond resolution.
const DayPlaces = 5

// maxExact is the magnitude above which scaling for rounding loses precision.
const maxExact = 1 << 53

// Number normalizes v for display: negative zero becomes zero, the value is
// rounded half to even at places decimals, and trailing zeros are dropped.
// NaN and infinities render as the empty string.
func Number(v float64, places int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	if places >= 0 {
		p := math.Pow10(places)
		if scaled := v * p; math.Abs(scaled) < maxExact {
			v = math.RoundToEven(scaled) / p
		}
	}
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Days renders a millisecond spread in days.
func Days(millis float64, places int) string {
	if places < DayPlaces {
		places = DayPlaces
	}
	return Number(dates.Days(millis), places)
}

// Int renders an integer exactly.
func Int(v int64) string {
	return strconv.FormatInt(v, 10)
}
