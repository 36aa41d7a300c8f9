package engine

import (
	"context"
	stderrors "errors"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"tabstat/ports"
)

// Chunk is a contiguous range of data records handled by one worker.
type Chunk struct {
	Index int
	Start int64 // 0-based first record
	Len   int64
}

// Plan splits total records into at most workers contiguous chunks whose
// sizes differ by at most one. The first total%k chunks get the extra record.
func Plan(total int64, workers int) []Chunk {
	if total <= 0 || workers <= 0 {
		return nil
	}
	k := int64(workers)
	if k > total {
		k = total
	}
	base, extra := total/k, total%k

	chunks := make([]Chunk, 0, k)
	var start int64
	for i := int64(0); i < k; i++ {
		n := base
		if i < extra {
			n++
		}
		chunks = append(chunks, Chunk{Index: int(i), Start: start, Len: n})
		start += n
	}
	return chunks
}

// errAborted stops a chunk after an earlier chunk failed.
var errAborted = stderrors.New("aborted after an earlier chunk failed")

type chunkResult struct {
	index int
	rows  int64
	parts []Partial
}

// abortIndex holds the lowest failing chunk index, MaxInt64 when none failed.
type abortIndex struct {
	v atomic.Int64
}

func newAbortIndex() *abortIndex {
	a := &abortIndex{}
	a.v.Store(math.MaxInt64)
	return a
}

// lower records a failure of chunk i.
func (a *abortIndex) lower(i int64) {
	for {
		cur := a.v.Load()
		if i >= cur || a.v.CompareAndSwap(cur, i) {
			return
		}
	}
}

// stops reports whether chunk i must stop.
func (a *abortIndex) stops(i int64) bool {
	return a.v.Load() < i
}

// scanChunks runs one worker per chunk on src with at most workers goroutines
// at a time. It returns the per chunk results in chunk order, or the error of
// the lowest failing chunk, which is the first error by row order.
func (e *Engine) scanChunks(ctx context.Context, src ports.SeekableSource, l *layout, chunks []Chunk, workers int) ([]chunkResult, error) {
	abort := newAbortIndex()
	errs := make([]error, len(chunks))
	results := make(chan chunkResult, len(chunks))

	var g errgroup.Group
	g.SetLimit(workers)
	for _, c := range chunks {
		c := c
		g.Go(func() error {
			idx := int64(c.Index)
			if abort.stops(idx) {
				return nil
			}
			parts := l.newPartials()
			var rows int64
			err := src.ScanRange(ctx, c.Start, c.Len, func(row int64, record []string) error {
				if abort.stops(idx) {
					return errAborted
				}
				rows++
				return l.observe(parts, row, record)
			})
			switch {
			case err == nil:
				results <- chunkResult{index: c.Index, rows: rows, parts: parts}
			case stderrors.Is(err, errAborted):
			default:
				errs[c.Index] = err
				abort.lower(idx)
				e.logger.Debug("chunk %d [%d,+%d) failed: %v", c.Index, c.Start, c.Len, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	if first := abort.v.Load(); first != math.MaxInt64 {
		return nil, errs[first]
	}

	ordered := make([]chunkResult, len(chunks))
	for r := range results {
		ordered[r.index] = r
	}
	return ordered, nil
}
