// Package engine drives a statistics run: it reads a record source, folds
// every value into per-field state, sequentially or in parallel chunks, and
// turns the merged state into a report.
package engine

import (
	"context"
	"runtime"
	"strings"
	"time"

	"tabstat/domain/core"
	"tabstat/domain/stats"
	"tabstat/internal"
	"tabstat/internal/errors"
	"tabstat/internal/presenter"
	"tabstat/internal/rowcount"
	"tabstat/ports"
)

// Engine computes field statistics with fixed options.
type Engine struct {
	opts    stats.Options
	counter *rowcount.Cache
	logger  *internal.Logger
}

// New creates an engine. counter may be nil; when set, the record count of
// every completed sequential scan is stored in it.
func New(opts stats.Options, counter *rowcount.Cache) *Engine {
	return &Engine{
		opts:    opts,
		counter: counter,
		logger:  internal.DefaultLogger.With("engine"),
	}
}

// Workers resolves the configured worker count, 0 meaning one per CPU.
func (e *Engine) Workers() int {
	if e.opts.Workers > 0 {
		return e.opts.Workers
	}
	return runtime.NumCPU()
}

// Run computes the statistics of src.
func (e *Engine) Run(ctx context.Context, src ports.Source) (*stats.Report, error) {
	started := time.Now()
	runID := core.NewRunID()

	l, err := e.layout(ctx, src)
	if err != nil {
		return nil, err
	}

	report := &stats.Report{RunID: runID, Which: l.which}

	var (
		rows  int64
		parts []Partial
	)
	if seekable, chunks, ok := e.parallelPlan(src); ok {
		report.Parallel = true
		report.Chunks = len(chunks)
		e.logger.Info("run %s: %s in %d chunks", runID, src.Name(), len(chunks))

		results, err := e.scanChunks(ctx, seekable, l, chunks, e.Workers())
		if err != nil {
			return nil, err
		}
		rows, parts, err = mergeChunks(results)
		if err != nil {
			return nil, err
		}
	} else {
		report.Chunks = 1
		e.logger.Info("run %s: %s sequentially", runID, src.Name())

		id, countable := e.identity(src)
		parts = l.newPartials()
		err := src.Scan(ctx, func(row int64, record []string) error {
			rows++
			return l.observe(parts, row, record)
		})
		if err != nil {
			return nil, err
		}
		if countable {
			e.counter.Store(id, uint64(rows))
		}
	}

	if rows == 0 {
		return nil, errors.EmptyInput(src.Name())
	}
	report.Records = uint64(rows)

	report.Fields = make([]stats.FieldResult, len(l.columns))
	for i, c := range l.columns {
		p := parts[i]
		report.Fields[i] = presenter.Field(c.field, p.Verdict.Kind(), p.Accumulator, p.Collector, l.which, e.opts.Round)
	}

	e.logger.Info("run %s: %d records, %d fields in %s", runID, rows, len(report.Fields), time.Since(started).Round(time.Millisecond))
	return report, nil
}

// layout resolves the header, the selection and the date policy.
func (e *Engine) layout(ctx context.Context, src ports.Source) (*layout, error) {
	fields, err := src.Fields(ctx)
	if err != nil {
		return nil, err
	}
	selected, err := Select(fields, e.opts.Select)
	if err != nil {
		return nil, err
	}

	flags := e.opts.Dates.Flags(selected)
	l := &layout{opts: e.opts, which: e.opts.Which()}
	for i, f := range selected {
		l.columns = append(l.columns, column{field: f, inferDates: flags[i]})
	}
	return l, nil
}

// Select returns the fields named in names, in the order given, or all fields
// when names is empty. Names are matched exactly, then case-insensitively.
func Select(fields []stats.Field, names []string) ([]stats.Field, error) {
	if len(names) == 0 {
		return fields, nil
	}
	out := make([]stats.Field, 0, len(names))
	for _, name := range names {
		f, ok := lookup(fields, name)
		if !ok {
			return nil, errors.InvalidSelection(name)
		}
		out = append(out, f)
	}
	return out, nil
}

func lookup(fields []stats.Field, name string) (stats.Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	for _, f := range fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return stats.Field{}, false
}

// parallelPlan decides whether src is scanned in chunks. That needs an index,
// more than one worker and enough records to be worth the startup.
func (e *Engine) parallelPlan(src ports.Source) (ports.SeekableSource, []Chunk, bool) {
	seekable, ok := src.(ports.SeekableSource)
	if !ok {
		e.logger.Debug("%s has no index, scanning sequentially", src.Name())
		return nil, nil, false
	}
	workers := e.Workers()
	if workers < 2 {
		return nil, nil, false
	}

	total := seekable.Len()
	if total < e.opts.MinParallelRows {
		e.logger.Debug("%s: %d records is below the parallel threshold %d", src.Name(), total, e.opts.MinParallelRows)
		return nil, nil, false
	}
	chunks := Plan(total, workers)
	if len(chunks) < 2 {
		return nil, nil, false
	}
	return seekable, chunks, true
}

// identity returns the signature of src when its record count can be cached.
func (e *Engine) identity(src ports.Source) (ports.Identity, bool) {
	countable, ok := src.(ports.Countable)
	if !ok || e.counter == nil {
		return ports.Identity{}, false
	}
	id, err := countable.Identity()
	if err != nil {
		e.logger.Debug("no identity for %s: %v", src.Name(), err)
		return ports.Identity{}, false
	}
	return id, true
}
