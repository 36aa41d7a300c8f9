// Package inference classifies raw cell values and folds them into a
// per-field type verdict.
package inference

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"tabstat/domain/stats"
	"tabstat/internal/dates"
)

var (
	integerPattern = regexp.MustCompile(`^[+-]?(0|[1-9][0-9]*)$`)
	zeroPadded     = regexp.MustCompile(`^[+-]?0[0-9]+$`)
	floatPattern   = regexp.MustCompile(`^[+-]?([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$`)
)

// BoolDomain identifies one of the closed two-value boolean vocabularies.
type BoolDomain int8

const (
	boolBroken BoolDomain = -1
	boolUnset  BoolDomain = 0

	BoolTF        BoolDomain = 1 // t / f
	BoolOneZero   BoolDomain = 2 // 1 / 0
	BoolYN        BoolDomain = 3 // y / n
	BoolTrueFalse BoolDomain = 4 // true / false
)

func boolDomainOf(value string) BoolDomain {
	switch len(value) {
	case 1:
		switch value[0] {
		case 't', 'T', 'f', 'F':
			return BoolTF
		case '1', '0':
			return BoolOneZero
		case 'y', 'Y', 'n', 'N':
			return BoolYN
		}
	case 4, 5:
		if strings.EqualFold(value, "true") || strings.EqualFold(value, "false") {
			return BoolTrueFalse
		}
	}
	return boolUnset
}

// Observation is the classification of a single value.
type Observation struct {
	Kind    stats.Kind // never KindBoolean; see Verdict
	Bool    BoolDomain
	Int     int64   // valid for KindInteger
	Float   float64 // valid for KindInteger and KindFloat
	Instant dates.Instant

	// DateFailed is set when date inference was attempted on a non-numeric
	// value and did not parse.
	DateFailed bool
}

// IsNull reports whether the value was empty or whitespace.
func (o Observation) IsNull() bool {
	return o.Kind == stats.KindNull
}

// Classify returns the kind of one value. It does not depend on any other
// value of the field.
func Classify(value string, inferDates, dayFirst bool) Observation {
	if strings.TrimSpace(value) == "" {
		return Observation{Kind: stats.KindNull}
	}

	obs := Observation{Kind: stats.KindString, Bool: boolDomainOf(value)}

	if integerPattern.MatchString(value) {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			obs.Kind = stats.KindInteger
			obs.Int = i
			obs.Float = float64(i)
			return obs
		}
		// out of int64 range, falls through to float
	} else if zeroPadded.MatchString(value) {
		// identifiers such as zip codes
		return obs
	}

	if floatPattern.MatchString(value) {
		if f, err := strconv.ParseFloat(value, 64); err == nil && !math.IsInf(f, 0) {
			obs.Kind = stats.KindFloat
			obs.Float = f
			return obs
		}
		return obs
	}

	if inferDates {
		if inst, ok := (dates.Normalizer{DayFirst: dayFirst}).Parse(value); ok {
			obs.Kind = inst.Kind()
			obs.Instant = inst
			return obs
		}
		obs.DateFailed = true
	}
	return obs
}
