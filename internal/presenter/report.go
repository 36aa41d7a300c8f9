package presenter

import (
	"bytes"
	enccsv "encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"tabstat/domain/stats"
	"tabstat/internal/errors"
)

const (
	previewPrefix = "*PREVIEW: "
	maxListWidth  = 100
)

// Headers returns the column names of a report row for the selected statistics.
func Headers(which stats.Which) []string {
	if which.TypesOnly {
		return []string{"field", "type"}
	}
	h := []string{
		"field", "type", "sum", "min", "max", "range", "min_length", "max_length",
		"mean", "stddev", "variance", "count", "nullcount", "sparsity",
	}
	if which.Median {
		h = append(h, "median")
	}
	if which.MAD {
		h = append(h, "mad")
	}
	if which.Quartiles {
		h = append(h, "lower_outer_fence", "lower_inner_fence", "q1", "q2_median", "q3",
			"iqr", "upper_inner_fence", "upper_outer_fence", "skewness")
	}
	if which.Cardinality {
		h = append(h, "cardinality")
	}
	if which.Mode {
		h = append(h, "mode", "mode_count", "mode_occurrences",
			"antimode", "antimode_count", "antimode_occurrences")
	}
	return h
}

// Record renders one field result in the column order of Headers.
func Record(r stats.FieldResult, which stats.Which) []string {
	if which.TypesOnly {
		return []string{r.Name, r.Type.String()}
	}
	u := func(v uint64) string { return strconv.FormatUint(v, 10) }

	rec := []string{
		r.Name, r.Type.String(), r.Sum, r.Min, r.Max, r.Range, r.MinLength, r.MaxLength,
		r.Mean, r.StdDev, r.Variance, u(r.Count), u(r.NullCount), r.Sparsity,
	}
	if which.Median {
		rec = append(rec, r.Median)
	}
	if which.MAD {
		rec = append(rec, r.MAD)
	}
	if which.Quartiles {
		rec = append(rec, r.LowerOuterFence, r.LowerInnerFence, r.Q1, r.Q2, r.Q3,
			r.IQR, r.UpperInnerFence, r.UpperOuterFence, r.Skewness)
	}
	if which.Cardinality {
		rec = append(rec, u(r.Cardinality))
	}
	if which.Mode {
		rec = append(rec,
			strings.Join(r.Modes, ","), strconv.Itoa(r.ModeCount), u(r.ModeOccurrences),
			antimodeList(r), strconv.Itoa(r.AntimodeCount), u(r.AntimodeOccurrences))
	}
	return rec
}

// antimodeList joins the antimode preview, marking truncated lists.
func antimodeList(r stats.FieldResult) string {
	s := strings.Join(r.Antimodes, ",")
	if r.AntimodeCount > len(r.Antimodes) {
		s = previewPrefix + s
	}
	if len(s) > maxListWidth {
		cut := maxListWidth
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut] + "..."
	}
	return s
}

// Format names a report encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCSV, FormatJSON, FormatMarkdown, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unknown output format %q", s))
}

// Write encodes the report in the given format.
func Write(w io.Writer, report *stats.Report, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, report)
	case FormatMarkdown:
		return WriteMarkdown(w, report)
	case FormatHTML:
		return WriteHTML(w, report)
	default:
		return WriteCSV(w, report)
	}
}

// WriteCSV writes a header row and one row per field.
func WriteCSV(w io.Writer, report *stats.Report) error {
	cw := enccsv.NewWriter(w)
	if err := cw.Write(Headers(report.Which)); err != nil {
		return err
	}
	for _, f := range report.Fields {
		if err := cw.Write(Record(f, report.Which)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, report *stats.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// Markdown renders the report as a Markdown table.
func Markdown(report *stats.Report) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# Field statistics\n\n")
	fmt.Fprintf(&b, "Run `%s`: %d records", report.RunID, report.Records)
	if report.Parallel {
		fmt.Fprintf(&b, ", %d chunks", report.Chunks)
	}
	b.WriteString("\n\n")

	headers := Headers(report.Which)
	writeRow(&b, headers)
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(&b, sep)
	for _, f := range report.Fields {
		writeRow(&b, Record(f, report.Which))
	}
	return b.Bytes()
}

func writeRow(b *bytes.Buffer, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		c = strings.ReplaceAll(c, "|", `\|`)
		c = strings.ReplaceAll(c, "\n", " ")
		b.WriteString(" ")
		b.WriteString(c)
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

// WriteMarkdown writes the Markdown table.
func WriteMarkdown(w io.Writer, report *stats.Report) error {
	_, err := w.Write(Markdown(report))
	return err
}

// WriteHTML renders the Markdown report as a standalone HTML page.
func WriteHTML(w io.Writer, report *stats.Report) error {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Field statistics",
	})
	_, err := w.Write(markdown.ToHTML(Markdown(report), p, renderer))
	return err
}
