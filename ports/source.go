package ports

import (
	"context"
	"time"

	"tabstat/domain/stats"
)

// RecordFunc receives one data record. row is the 1-based position of the
// record among the data rows, header excluded. The record slice may be reused
// by the source after the call returns.
type RecordFunc func(row int64, record []string) error

// Source is a tabular record source read front to back.
type Source interface {
	// Name identifies the source in messages, usually its path.
	Name() string
	// Fields returns the header, or positional names when the source has none.
	Fields(ctx context.Context) ([]stats.Field, error)
	// Scan calls fn for every data record in order.
	Scan(ctx context.Context, fn RecordFunc) error
	Close() error
}

// SeekableSource can start reading at any record. ScanRange must be safe to
// call from several goroutines at once.
type SeekableSource interface {
	Source
	// Len is the number of data records.
	Len() int64
	// ScanRange calls fn for the n records starting at the 0-based record start.
	ScanRange(ctx context.Context, start, n int64, fn RecordFunc) error
}

// Identity is the signature of a file at one point in time. A changed size or
// modification time means the contents may have changed.
type Identity struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Equal compares two identities.
func (i Identity) Equal(o Identity) bool {
	return i.Path == o.Path && i.Size == o.Size && i.ModTime.Equal(o.ModTime)
}

// Countable sources can report their data record count.
type Countable interface {
	Identity() (Identity, error)
	CountRecords(ctx context.Context) (uint64, error)
}
