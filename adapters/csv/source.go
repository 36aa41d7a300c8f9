// Package csv reads delimited text files as record sources, sequentially or,
// with a positional index, in independent ranges.
package csv

import (
	"bufio"
	"context"
	enccsv "encoding/csv"
	stderrors "errors"
	"io"
	"os"
	"strconv"

	"tabstat/domain/stats"
	"tabstat/internal"
	"tabstat/internal/errors"
	"tabstat/ports"
)

const (
	readBufferSize = 256 * 1024
	// cancellation is polled once per this many records
	ctxPollInterval = 1024
)

// Options controls how records are parsed.
type Options struct {
	Delimiter rune // defaults to ','
	NoHeaders bool // the first record is data; fields are named by position
	Flexible  bool // tolerate records with a different field count
}

// Source is a CSV file opened for reading. It is safe for concurrent scans.
type Source struct {
	path string
	opts Options
	file *os.File
	size int64

	fields    []stats.Field
	dataStart int64 // byte offset of the first data record

	logger *internal.Logger
}

var (
	_ ports.Source    = (*Source)(nil)
	_ ports.Countable = (*Source)(nil)
)

// Open opens path and reads its header.
func Open(path string, opts Options) (*Source, error) {
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.WithCode(errors.CodeInvalidInput, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	s := &Source{
		path:   path,
		opts:   opts,
		file:   file,
		size:   info.Size(),
		logger: internal.DefaultLogger.With("csv"),
	}
	if err := s.readHeader(); err != nil {
		file.Close()
		return nil, err
	}
	s.logger.Debug("opened %s: %d fields, data at byte %d", path, len(s.fields), s.dataStart)
	return s, nil
}

func (s *Source) readHeader() error {
	// the byte order mark belongs to neither the header nor the first record
	s.dataStart = s.bomLen()
	r := s.newReader(s.dataStart)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return errors.EmptyInput(s.path)
	}
	if err != nil {
		return errors.MalformedRecord(0, err)
	}

	s.fields = make([]stats.Field, len(header))
	for i, name := range header {
		if s.opts.NoHeaders {
			name = strconv.Itoa(i)
		}
		s.fields[i] = stats.Field{Name: name, Position: i}
	}
	if !s.opts.NoHeaders {
		s.dataStart += r.InputOffset()
	}
	return nil
}

const utf8BOM = "\ufeff"

// bomLen is the length of the UTF-8 byte order mark the file starts with, if any.
func (s *Source) bomLen() int64 {
	buf := make([]byte, len(utf8BOM))
	if n, _ := s.file.ReadAt(buf, 0); n == len(buf) && string(buf) == utf8BOM {
		return int64(n)
	}
	return 0
}

// newReader returns a csv reader positioned at the byte offset.
func (s *Source) newReader(offset int64) *enccsv.Reader {
	section := io.NewSectionReader(s.file, offset, s.size-offset)
	r := enccsv.NewReader(bufio.NewReaderSize(section, readBufferSize))
	r.Comma = s.opts.Delimiter
	r.ReuseRecord = true
	if s.opts.Flexible {
		r.FieldsPerRecord = -1
	} else {
		r.FieldsPerRecord = len(s.fields)
	}
	return r
}

// Name returns the file path.
func (s *Source) Name() string { return s.path }

// Path returns the file path.
func (s *Source) Path() string { return s.path }

// Fields returns the header fields.
func (s *Source) Fields(ctx context.Context) ([]stats.Field, error) {
	return s.fields, nil
}

// Scan reads every data record in file order.
func (s *Source) Scan(ctx context.Context, fn ports.RecordFunc) error {
	return s.scan(ctx, s.dataStart, 0, -1, fn)
}

// scan reads up to limit records (all when limit < 0) starting at offset.
// first is the 0-based index of the first record read.
func (s *Source) scan(ctx context.Context, offset, first, limit int64, fn ports.RecordFunc) error {
	r := s.newReader(offset)
	width := len(s.fields)

	var padded []string
	for i := int64(0); limit < 0 || i < limit; i++ {
		if i%ctxPollInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		row := first + i + 1
		record, err := r.Read()
		if err == io.EOF {
			if limit >= 0 {
				return errors.Wrapf(io.ErrUnexpectedEOF, "%s: expected %d records from record %d", s.path, limit, first)
			}
			return nil
		}
		if err != nil {
			return errors.MalformedRecord(row, err)
		}
		if s.opts.Flexible && len(record) != width {
			padded = fit(padded, record, width)
			record = padded
		}
		if err := fn(row, record); err != nil {
			return err
		}
	}
	return nil
}

// fit pads short records with empty (null) values and truncates long ones.
func fit(buf, record []string, width int) []string {
	buf = buf[:0]
	for i := 0; i < width; i++ {
		if i < len(record) {
			buf = append(buf, record[i])
		} else {
			buf = append(buf, "")
		}
	}
	return buf
}

// Identity returns the current file signature.
func (s *Source) Identity() (ports.Identity, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return ports.Identity{}, errors.Wrapf(err, "stat %s", s.path)
	}
	return ports.Identity{Path: s.path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// CountRecords counts the data records, from a fresh index when there is one.
func (s *Source) CountRecords(ctx context.Context) (uint64, error) {
	idx, err := OpenIndex(s.path)
	if err == nil {
		return uint64(idx.Len()), nil
	}
	if !stderrors.Is(err, ErrNoIndex) {
		s.logger.Debug("index not usable for counting %s: %v", s.path, err)
	}

	r := s.newReader(s.dataStart)
	r.FieldsPerRecord = -1
	var n uint64
	for {
		if n%ctxPollInterval == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		_, err := r.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, errors.MalformedRecord(int64(n+1), err)
		}
		n++
	}
}

// Close releases the file.
func (s *Source) Close() error {
	return s.file.Close()
}
