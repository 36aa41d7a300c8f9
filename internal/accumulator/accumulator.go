// Package accumulator holds the O(1) per value running aggregates of a field.
package accumulator

import (
	"math"
	"math/bits"

	"tabstat/domain/stats"
	"tabstat/internal/inference"
)

// Accumulator is the streaming state of one field inside one worker. It
// keeps every typed aggregate side by side; the field's final type decides
// which ones are reported.
type Accumulator struct {
	// IncludeNulls makes nulls count as zero in the moments.
	IncludeNulls bool

	count uint64
	nulls uint64

	str    minMax[string]
	length minMax[int]
	ints   minMax[int64]
	floats minMax[float64]
	dates  minMax[int64]

	intSum int128
	// floatSum is the sum scaled by 2^-64 so that partial sums stay finite;
	// overflow is decided once on the total.
	floatSum float64

	moments Moments
}

// New returns an empty accumulator.
func New(includeNulls bool) *Accumulator {
	return &Accumulator{IncludeNulls: includeNulls}
}

// Observe folds one classified value into the aggregates.
func (a *Accumulator) Observe(obs inference.Observation, raw string) {
	a.count++
	a.length.add(len(raw))

	if obs.IsNull() {
		a.nulls++
		if a.IncludeNulls {
			a.moments.Add(0)
		}
		return
	}

	a.str.add(raw)

	switch obs.Kind {
	case stats.KindInteger:
		a.ints.add(obs.Int)
		a.floats.add(obs.Float)
		a.intSum.add(obs.Int)
		a.floatSum += obs.Float * sumScale
		a.moments.Add(obs.Float)
	case stats.KindFloat:
		a.floats.add(obs.Float)
		a.floatSum += obs.Float * sumScale
		a.moments.Add(obs.Float)
	case stats.KindDate, stats.KindDateTime:
		a.dates.add(obs.Instant.Millis)
		a.moments.Add(float64(obs.Instant.Millis))
	}
}

// Merge folds other into a. Counts, sums and extrema combine directly, the
// moments through the parallel-partition identity.
func (a *Accumulator) Merge(other *Accumulator) {
	if other == nil {
		return
	}
	a.count += other.count
	a.nulls += other.nulls

	a.str.merge(other.str)
	a.length.merge(other.length)
	a.ints.merge(other.ints)
	a.floats.merge(other.floats)
	a.dates.merge(other.dates)

	a.intSum.merge(other.intSum)
	a.floatSum += other.floatSum

	a.moments.Merge(other.moments)
}

// Count is the number of observed values, nulls included.
func (a *Accumulator) Count() uint64 { return a.count }

// Nulls is the number of null values.
func (a *Accumulator) Nulls() uint64 { return a.nulls }

// Sparsity is the null fraction, 0 for an empty accumulator.
func (a *Accumulator) Sparsity() float64 {
	if a.count == 0 {
		return 0
	}
	return float64(a.nulls) / float64(a.count)
}

// IntSum returns the integer sum; ok is false when it does not fit in an int64.
func (a *Accumulator) IntSum() (sum int64, ok bool) {
	return a.intSum.toInt64()
}

// FloatSum returns the float sum; ok is false when it is not finite.
func (a *Accumulator) FloatSum() (sum float64, ok bool) {
	sum = a.floatSum * (1 / sumScale)
	return sum, !math.IsInf(sum, 0) && !math.IsNaN(sum)
}

// StringRange is the lexicographic range of the non-null raw values.
func (a *Accumulator) StringRange() (min, max string, ok bool) {
	return a.str.min, a.str.max, a.str.ok
}

// LengthRange is the byte length range of all raw values.
func (a *Accumulator) LengthRange() (min, max int, ok bool) {
	return a.length.min, a.length.max, a.length.ok
}

// IntRange is the range of the integer values.
func (a *Accumulator) IntRange() (min, max int64, ok bool) {
	return a.ints.min, a.ints.max, a.ints.ok
}

// FloatRange is the range of all numeric values.
func (a *Accumulator) FloatRange() (min, max float64, ok bool) {
	return a.floats.min, a.floats.max, a.floats.ok
}

// DateRange is the range of the date values in epoch milliseconds.
func (a *Accumulator) DateRange() (min, max int64, ok bool) {
	return a.dates.min, a.dates.max, a.dates.ok
}

// Moments returns the running moments.
func (a *Accumulator) Moments() Moments { return a.moments }

// sumScale is a power of two, so scaling is exact outside the subnormal range.
const sumScale = 0x1p-64

type ordered interface {
	~int | ~int64 | ~float64 | ~string
}

type minMax[T ordered] struct {
	min, max T
	ok       bool
}

func (m *minMax[T]) add(v T) {
	if !m.ok {
		m.min, m.max, m.ok = v, v, true
		return
	}
	if v < m.min {
		m.min = v
	}
	if v > m.max {
		m.max = v
	}
}

func (m *minMax[T]) merge(o minMax[T]) {
	if !o.ok {
		return
	}
	m.add(o.min)
	m.add(o.max)
}

// int128 is an exact integer sum. The int64 range check happens once at the
// end, so where chunk boundaries fall cannot change whether a sum overflows.
type int128 struct {
	hi       int64
	lo       uint64
	overflow bool // the 128-bit sum itself wrapped
}

func (s *int128) add(v int64) {
	s.addParts(v>>63, uint64(v))
}

func (s *int128) addParts(hi int64, lo uint64) {
	if s.overflow {
		return
	}
	var carry uint64
	s.lo, carry = bits.Add64(s.lo, lo, 0)
	sum := s.hi + hi + int64(carry)
	if (hi >= 0 && sum < s.hi) || (hi < 0 && sum > s.hi) {
		s.overflow = true
		return
	}
	s.hi = sum
}

func (s *int128) merge(o int128) {
	if o.overflow {
		s.overflow = true
		return
	}
	s.addParts(o.hi, o.lo)
}

func (s int128) toInt64() (int64, bool) {
	if s.overflow || s.hi != int64(s.lo)>>63 {
		return 0, false
	}
	return int64(s.lo), true
}
