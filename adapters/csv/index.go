package csv

import (
	"bufio"
	"context"
	"encoding/binary"
	stderrors "errors"
	"io"
	"os"

	"tabstat/internal/errors"
	"tabstat/ports"
)

// IndexSuffix is appended to the data file path to name its index.
const IndexSuffix = ".idx"

var (
	// ErrNoIndex means no index file exists for the source.
	ErrNoIndex = stderrors.New("csv: no index")
	// ErrStaleIndex means the source was modified after its index was written.
	ErrStaleIndex = stderrors.New("csv: index is older than its source")
	// ErrCorruptIndex means the index file is not a valid index.
	ErrCorruptIndex = stderrors.New("csv: corrupt index")
)

// Index maps data record numbers to byte offsets. On disk it is a sequence of
// big-endian uint64 offsets, one per data record, followed by the record count.
type Index struct {
	offsets []uint64
}

// Len is the number of data records.
func (x *Index) Len() int64 {
	return int64(len(x.offsets))
}

// Offset returns the byte offset of the 0-based data record i.
func (x *Index) Offset(i int64) int64 {
	return int64(x.offsets[i])
}

// IndexPath returns the index path for a data file.
func IndexPath(path string) string {
	return path + IndexSuffix
}

// BuildIndex scans the source and writes its index next to it.
func BuildIndex(ctx context.Context, src *Source) (*Index, error) {
	r := src.newReader(src.dataStart)
	r.FieldsPerRecord = -1

	idx := &Index{}
	next := src.dataStart
	for {
		if len(idx.offsets)%ctxPollInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		_, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.MalformedRecord(int64(len(idx.offsets)+1), err)
		}
		idx.offsets = append(idx.offsets, uint64(next))
		next = src.dataStart + r.InputOffset()
	}

	if err := writeIndex(IndexPath(src.path), idx); err != nil {
		return nil, err
	}
	src.logger.Info("indexed %s: %d records", src.path, idx.Len())
	return idx, nil
}

func writeIndex(path string, idx *Index) (err error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create index %s", path)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(tmp)
		}
	}()

	w := bufio.NewWriter(f)
	var buf [8]byte
	for _, off := range idx.offsets {
		binary.BigEndian.PutUint64(buf[:], off)
		if _, err = w.Write(buf[:]); err != nil {
			return errors.Wrapf(err, "write index %s", path)
		}
	}
	binary.BigEndian.PutUint64(buf[:], uint64(len(idx.offsets)))
	if _, err = w.Write(buf[:]); err != nil {
		return errors.Wrapf(err, "write index %s", path)
	}
	if err = w.Flush(); err != nil {
		return errors.Wrapf(err, "write index %s", path)
	}
	if err = f.Close(); err != nil {
		return errors.Wrapf(err, "close index %s", path)
	}
	if err = os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "install index %s", path)
	}
	return nil
}

// OpenIndex loads the index of the data file at path. It fails with
// ErrNoIndex, ErrStaleIndex or ErrCorruptIndex when the index cannot be used.
func OpenIndex(path string) (*Index, error) {
	ipath := IndexPath(path)
	iinfo, err := os.Stat(ipath)
	if os.IsNotExist(err) {
		return nil, ErrNoIndex
	}
	if err != nil {
		return nil, errors.Wrapf(err, "stat index %s", ipath)
	}
	dinfo, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	if dinfo.ModTime().After(iinfo.ModTime()) {
		return nil, ErrStaleIndex
	}

	data, err := os.ReadFile(ipath)
	if err != nil {
		return nil, errors.Wrapf(err, "read index %s", ipath)
	}
	if len(data) < 8 || len(data)%8 != 0 {
		return nil, ErrCorruptIndex
	}
	n := len(data)/8 - 1
	if binary.BigEndian.Uint64(data[len(data)-8:]) != uint64(n) {
		return nil, ErrCorruptIndex
	}

	idx := &Index{offsets: make([]uint64, n)}
	size := uint64(dinfo.Size())
	for i := range idx.offsets {
		off := binary.BigEndian.Uint64(data[i*8:])
		if off > size || (i > 0 && off <= idx.offsets[i-1]) {
			return nil, ErrCorruptIndex
		}
		idx.offsets[i] = off
	}
	return idx, nil
}

// IndexedSource is a CSV source with a fresh index. Ranges of records can be
// scanned concurrently.
type IndexedSource struct {
	*Source
	index *Index
}

var _ ports.SeekableSource = (*IndexedSource)(nil)

// WithIndex attaches the on-disk index of s.
func (s *Source) WithIndex() (*IndexedSource, error) {
	idx, err := OpenIndex(s.path)
	if err != nil {
		return nil, err
	}
	return &IndexedSource{Source: s, index: idx}, nil
}

// Len is the number of data records.
func (s *IndexedSource) Len() int64 {
	return s.index.Len()
}

// ScanRange reads n records starting at the 0-based data record start.
func (s *IndexedSource) ScanRange(ctx context.Context, start, n int64, fn ports.RecordFunc) error {
	if n <= 0 {
		return nil
	}
	if start < 0 || start+n > s.index.Len() {
		return errors.InvalidInput("record range out of bounds")
	}
	return s.scan(ctx, s.index.Offset(start), start, n, fn)
}
