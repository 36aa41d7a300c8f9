package engine

import (
	"tabstat/domain/stats"
	"tabstat/internal/accumulator"
	"tabstat/internal/errors"
	"tabstat/internal/inference"
	"tabstat/internal/orderstats"
)

// Partial is the state of one field built by one worker over its rows.
type Partial struct {
	Verdict     *inference.Verdict
	Accumulator *accumulator.Accumulator
	Collector   *orderstats.Collector
}

// column is a selected field with its per-run settings.
type column struct {
	field      stats.Field
	inferDates bool
}

// layout fixes which record positions are read and how.
type layout struct {
	columns []column
	opts    stats.Options
	which   stats.Which
}

func (l *layout) newPartials() []Partial {
	parts := make([]Partial, len(l.columns))
	for i, c := range l.columns {
		parts[i] = Partial{
			Verdict:     inference.NewVerdict(c.inferDates, l.opts.PreferDayFirst, l.opts.StrictDates),
			Accumulator: accumulator.New(l.which.IncludeNulls),
			Collector:   orderstats.New(c.field.Name, l.which, l.opts.MaxValues),
		}
	}
	return parts
}

// observe feeds one record into the partials of a worker. In flexible mode a
// missing trailing value is a null.
func (l *layout) observe(parts []Partial, row int64, record []string) error {
	for i, c := range l.columns {
		var value string
		switch {
		case c.field.Position < len(record):
			value = record[c.field.Position]
		case !l.opts.Flexible:
			return errors.MalformedRecord(row, errors.InvalidInput("record is shorter than the header"))
		}
		p := &parts[i]

		obs := p.Verdict.Observe(value)
		if obs.DateFailed && l.opts.StrictDates {
			return errors.UnparseableDate(row, c.field.Name, value)
		}
		if l.which.TypesOnly {
			continue
		}
		p.Accumulator.Observe(obs, value)
		if p.Collector.Enabled() {
			if err := p.Collector.Observe(obs, value); err != nil {
				return errors.Wrapf(err, "row %d", row)
			}
		}
	}
	return nil
}
