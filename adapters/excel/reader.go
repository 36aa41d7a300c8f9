// Package excel reads one worksheet of an XLSX workbook as a record source.
package excel

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"tabstat/domain/stats"
	"tabstat/internal"
	"tabstat/internal/errors"
	"tabstat/ports"
)

// Options selects the worksheet and header handling.
type Options struct {
	Sheet     string // empty selects the first sheet
	NoHeaders bool
	Flexible  bool // tolerate rows wider than the header
}

// Reader streams the rows of one worksheet. It supports sequential scans only.
type Reader struct {
	path   string
	opts   Options
	file   *excelize.File
	sheet  string
	fields []stats.Field
	logger *internal.Logger
}

var (
	_ ports.Source    = (*Reader)(nil)
	_ ports.Countable = (*Reader)(nil)
)

// Open opens the workbook and reads the header row of the sheet.
func Open(path string, opts Options) (*Reader, error) {
	logger := internal.DefaultLogger.With("excel")
	startTime := time.Now()

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.WithCode(errors.CodeInvalidInput, err), "open workbook %s", path)
	}
	logger.Debug("workbook %s opened in %.2fms", path, float64(time.Since(startTime).Nanoseconds())/1e6)

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			f.Close()
			return nil, errors.EmptyInput(path)
		}
		sheet = sheets[0]
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		f.Close()
		return nil, errors.InvalidInput("worksheet " + strconv.Quote(sheet) + " not found in " + path)
	}

	r := &Reader{path: path, opts: opts, file: f, sheet: sheet, logger: logger}
	if err := r.readHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) readHeader() error {
	rows, err := r.file.Rows(r.sheet)
	if err != nil {
		return errors.Wrapf(err, "read sheet %s", r.sheet)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Error(); err != nil {
			return errors.Wrapf(err, "read sheet %s", r.sheet)
		}
		return errors.EmptyInput(r.path)
	}
	header, err := rows.Columns()
	if err != nil {
		return errors.MalformedRecord(0, err)
	}
	r.fields = make([]stats.Field, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if r.opts.NoHeaders {
			name = strconv.Itoa(i)
		}
		r.fields[i] = stats.Field{Name: name, Position: i}
	}
	return nil
}

// Name returns the workbook path and sheet.
func (r *Reader) Name() string {
	return r.path + "#" + r.sheet
}

// Fields returns the header fields.
func (r *Reader) Fields(ctx context.Context) ([]stats.Field, error) {
	return r.fields, nil
}

// Scan streams every data row. Rows are padded to the header width since the
// workbook omits trailing empty cells.
func (r *Reader) Scan(ctx context.Context, fn ports.RecordFunc) error {
	rows, err := r.file.Rows(r.sheet)
	if err != nil {
		return errors.Wrapf(err, "read sheet %s", r.sheet)
	}
	defer rows.Close()

	width := len(r.fields)
	record := make([]string, width)
	skip := !r.opts.NoHeaders
	var row int64
	for rows.Next() {
		if skip {
			skip = false
			continue
		}
		row++
		if err := ctx.Err(); err != nil {
			return err
		}
		cols, err := rows.Columns()
		if err != nil {
			return errors.MalformedRecord(row, err)
		}
		if len(cols) > width {
			if !r.opts.Flexible && !trailingBlank(cols[width:]) {
				return errors.MalformedRecord(row, errors.InvalidInput(
					"expected "+strconv.Itoa(width)+" fields, got "+strconv.Itoa(len(cols))))
			}
			cols = cols[:width]
		}
		n := copy(record, cols)
		for i := n; i < width; i++ {
			record[i] = ""
		}
		if err := fn(row, record); err != nil {
			return err
		}
	}
	if err := rows.Error(); err != nil {
		return errors.Wrapf(err, "read sheet %s", r.sheet)
	}
	return nil
}

func trailingBlank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Identity returns the workbook file signature.
func (r *Reader) Identity() (ports.Identity, error) {
	info, err := os.Stat(r.path)
	if err != nil {
		return ports.Identity{}, errors.Wrapf(err, "stat %s", r.path)
	}
	return ports.Identity{Path: r.Name(), Size: info.Size(), ModTime: info.ModTime()}, nil
}

// CountRecords counts the data rows of the sheet.
func (r *Reader) CountRecords(ctx context.Context) (uint64, error) {
	rows, err := r.file.Rows(r.sheet)
	if err != nil {
		return 0, errors.Wrapf(err, "read sheet %s", r.sheet)
	}
	defer rows.Close()

	var n uint64
	for rows.Next() {
		n++
	}
	if err := rows.Error(); err != nil {
		return 0, errors.Wrapf(err, "read sheet %s", r.sheet)
	}
	if !r.opts.NoHeaders && n > 0 {
		n--
	}
	return n, nil
}

// Close releases the workbook.
func (r *Reader) Close() error {
	return r.file.Close()
}
