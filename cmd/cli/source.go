package main

import (
	stderrors "errors"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"tabstat/adapters/csv"
	"tabstat/adapters/excel"
	"tabstat/internal"
	"tabstat/ports"
)

// sourceFlags are the input options shared by every command.
type sourceFlags struct {
	delimiter string
	noHeaders bool
	flexible  bool
	sheet     string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.delimiter, "delimiter", "d", ",", `Field delimiter, a single character or \t`)
	flags.BoolVarP(&f.noHeaders, "no-headers", "n", false, "The first row is data; fields are named by position")
	flags.BoolVar(&f.flexible, "flexible", false, "Pad short and truncate long rows instead of failing")
	flags.StringVar(&f.sheet, "sheet", "", "Worksheet of an XLSX file (default the first)")
}

func (f *sourceFlags) csvOptions() (csv.Options, error) {
	delim, err := parseDelimiter(f.delimiter)
	if err != nil {
		return csv.Options{}, err
	}
	return csv.Options{Delimiter: delim, NoHeaders: f.noHeaders, Flexible: f.flexible}, nil
}

var workbookExts = map[string]bool{".xlsx": true, ".xlsm": true, ".xltx": true, ".xltm": true}

func isWorkbook(path string) bool {
	return workbookExts[strings.ToLower(filepath.Ext(path))]
}

// openSource opens path by extension. With seekable set, a CSV file that has
// a usable index is returned as a seekable source.
func openSource(path string, f sourceFlags, seekable bool) (ports.Source, error) {
	if isWorkbook(path) {
		r, err := excel.Open(path, excel.Options{Sheet: f.sheet, NoHeaders: f.noHeaders, Flexible: f.flexible})
		if err != nil {
			return nil, err
		}
		return r, nil
	}

	opts, err := f.csvOptions()
	if err != nil {
		return nil, err
	}
	src, err := csv.Open(path, opts)
	if err != nil {
		return nil, err
	}
	if !seekable {
		return src, nil
	}

	indexed, err := src.WithIndex()
	switch {
	case err == nil:
		return indexed, nil
	case stderrors.Is(err, csv.ErrNoIndex):
		internal.DefaultLogger.Debug("%s has no index", path)
	default:
		internal.DefaultLogger.Warn("ignoring index of %s: %v", path, err)
	}
	return src, nil
}
