package presenter

import (
	"tabstat/domain/stats"
	"tabstat/internal/accumulator"
	"tabstat/internal/dates"
	"tabstat/internal/orderstats"
)

// NullLabel shows null values in mode and antimode lists.
const NullLabel = "NULL"

// Field builds the final result of one field from its merged state. Every
// numeric statistic goes through Number with the same precision.
func Field(f stats.Field, kind stats.Kind, acc *accumulator.Accumulator, pop *orderstats.Collector, which stats.Which, round int) stats.FieldResult {
	r := stats.FieldResult{Field: f, Type: kind}
	if which.TypesOnly {
		return r
	}

	r.Count = acc.Count()
	r.NullCount = acc.Nulls()
	r.Sparsity = Number(acc.Sparsity(), round)

	sum(&r, kind, acc, round)
	extrema(&r, kind, acc, round)
	moments(&r, kind, acc, round)

	if kind.HasMoments() && pop.Len() > 0 {
		orderStats(&r, kind, pop, which, round)
	}
	if which.Cardinality {
		r.Cardinality = pop.Cardinality()
	}
	if which.Mode {
		modes(&r, pop)
	}
	return r
}

func sum(r *stats.FieldResult, kind stats.Kind, acc *accumulator.Accumulator, round int) {
	switch kind {
	case stats.KindInteger:
		if s, ok := acc.IntSum(); ok {
			r.Sum = Int(s)
		} else {
			r.Sum, r.Overflow = stats.SumOverflow, true
		}
	case stats.KindFloat:
		if s, ok := acc.FloatSum(); ok {
			r.Sum = Number(s, round)
		} else {
			r.Sum, r.Overflow = stats.SumOverflow, true
		}
	}
}

func extrema(r *stats.FieldResult, kind stats.Kind, acc *accumulator.Accumulator, round int) {
	switch kind {
	case stats.KindString, stats.KindBoolean:
		if lo, hi, ok := acc.StringRange(); ok {
			r.Min, r.Max = lo, hi
		}
	case stats.KindInteger:
		if lo, hi, ok := acc.IntRange(); ok {
			r.Min, r.Max = Int(lo), Int(hi)
			if span := hi - lo; span >= 0 {
				r.Range = Int(span)
			} else {
				// wrapped: the span does not fit in an int64
				r.Range = Number(float64(hi)-float64(lo), round)
			}
		}
	case stats.KindFloat:
		if lo, hi, ok := acc.FloatRange(); ok {
			r.Min, r.Max = Number(lo, round), Number(hi, round)
			r.Range = Number(hi-lo, round)
		}
	case stats.KindDate, stats.KindDateTime:
		if lo, hi, ok := acc.DateRange(); ok {
			r.Min, r.Max = dates.Format(lo, kind), dates.Format(hi, kind)
			r.Range = Days(float64(hi-lo), round)
		}
	}

	if kind.IsTemporal() {
		return
	}
	if lo, hi, ok := acc.LengthRange(); ok {
		r.MinLength, r.MaxLength = Int(int64(lo)), Int(int64(hi))
	}
}

func moments(r *stats.FieldResult, kind stats.Kind, acc *accumulator.Accumulator, round int) {
	m := acc.Moments()
	if m.N == 0 {
		return
	}
	switch {
	case kind.IsNumeric():
		r.Mean = Number(m.Mean, round)
		r.StdDev = Number(m.StdDev(), round)
		r.Variance = Number(m.Variance(), round)
	case kind.IsTemporal():
		r.Mean = dates.FormatFloat(m.Mean, kind)
		r.StdDev = Days(m.StdDev(), round)
		// variance of epoch milliseconds has no useful unit
	}
}

func orderStats(r *stats.FieldResult, kind stats.Kind, pop *orderstats.Collector, which stats.Which, round int) {
	value := func(v float64) string {
		if kind.IsTemporal() {
			return dates.FormatFloat(v, kind)
		}
		return Number(v, round)
	}
	spread := func(v float64) string {
		if kind.IsTemporal() {
			return Days(v, round)
		}
		return Number(v, round)
	}

	median, ok := pop.Median()
	if !ok {
		return
	}
	if which.Median {
		r.Median = value(median)
	}
	if which.MAD {
		if mad, ok := pop.MAD(median); ok {
			r.MAD = spread(mad)
		}
	}
	if which.Quartiles {
		q, ok := pop.Quartiles()
		if !ok {
			return
		}
		r.LowerOuterFence = value(q.LowerOuterFence)
		r.LowerInnerFence = value(q.LowerInnerFence)
		r.Q1 = value(q.Q1)
		r.Q2 = value(q.Q2)
		r.Q3 = value(q.Q3)
		r.IQR = spread(q.IQR)
		r.UpperInnerFence = value(q.UpperInnerFence)
		r.UpperOuterFence = value(q.UpperOuterFence)
		if q.SkewnessOK {
			r.Skewness = Number(q.Skewness, round)
		}
	}
}

func modes(r *stats.FieldResult, pop *orderstats.Collector) {
	m := pop.Modes()
	r.Modes = labels(m.Values)
	r.ModeCount = len(m.Values)
	r.ModeOccurrences = m.Occurrences

	a := pop.Antimodes()
	if a.All {
		r.Antimodes = []string{stats.AllUnique}
		r.AntimodeCount = 0
		r.AntimodeOccurrences = a.Occurrences
		return
	}
	r.Antimodes = labels(a.Values)
	r.AntimodeCount = a.Count
	r.AntimodeOccurrences = a.Occurrences
}

func labels(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		if v == orderstats.NullKey {
			v = NullLabel
		}
		out[i] = v
	}
	return out
}
