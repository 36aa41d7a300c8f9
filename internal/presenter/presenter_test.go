package presenter

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabstat/domain/stats"
	"tabstat/internal/accumulator"
	"tabstat/internal/inference"
	"tabstat/internal/orderstats"
)

func TestNumber(t *testing.T) {
	tests := []struct {
		v      float64
		places int
		want   string
	}{
		{2.0, 4, "2"},
		{2.50, 4, "2.5"},
		{math.Copysign(0, -1), 4, "0"},
		{-0.00001, 4, "0"},
		{0.125, 2, "0.12"}, // half to even
		{0.375, 2, "0.38"},
		{1.23456789, 4, "1.2346"},
		{1234567.891, 0, "1234568"},
		{1e20, 4, "100000000000000000000"},
		{math.NaN(), 4, ""},
		{math.Inf(1), 4, ""},
	}
	for _, tt := range tests {
		t.Run(strconv.FormatFloat(tt.v, 'g', -1, 64), func(t *testing.T) {
			assert.Equal(t, tt.want, Number(tt.v, tt.places))
		})
	}
}

func TestDaysKeepsMillisecondPrecision(t *testing.T) {
	assert.Equal(t, "1.5", Days(1.5*24*60*60*1000, 0))
	assert.Equal(t, "0.00001", Days(1000, 2))
}

type fieldState struct {
	verdict *inference.Verdict
	acc     *accumulator.Accumulator
	pop     *orderstats.Collector
}

func build(which stats.Which, inferDates bool, values ...string) fieldState {
	s := fieldState{
		verdict: inference.NewVerdict(inferDates, false, false),
		acc:     accumulator.New(which.IncludeNulls),
		pop:     orderstats.New("f", which, 0),
	}
	for _, v := range values {
		obs := s.verdict.Observe(v)
		s.acc.Observe(obs, v)
		_ = s.pop.Observe(obs, v)
	}
	return s
}

func present(which stats.Which, round int, inferDates bool, values ...string) stats.FieldResult {
	s := build(which, inferDates, values...)
	return Field(stats.Field{Name: "f"}, s.verdict.Kind(), s.acc, s.pop, which, round)
}

func TestIntegerField(t *testing.T) {
	which := stats.Options{Everything: true}.Which()
	r := present(which, 4, false, "1", "2", "3")

	assert.Equal(t, stats.KindInteger, r.Type)
	assert.Equal(t, "6", r.Sum)
	assert.Equal(t, "1", r.Min)
	assert.Equal(t, "3", r.Max)
	assert.Equal(t, "2", r.Range)
	assert.Equal(t, "2", r.Mean)
	assert.Equal(t, "0.6667", r.Variance)
	assert.Equal(t, "0.8165", r.StdDev)
	assert.Equal(t, "2", r.Q2)
	assert.Equal(t, "1", r.MAD)
	assert.Equal(t, uint64(3), r.Cardinality)
	assert.Empty(t, r.Modes)
	assert.Equal(t, []string{stats.AllUnique}, r.Antimodes)
	assert.Equal(t, "0", r.Sparsity)
}

func TestStringField(t *testing.T) {
	which := stats.Options{Mode: true}.Which()
	r := present(which, 4, false, "00501", "10001", "90210", "", "10001")

	assert.Equal(t, stats.KindString, r.Type)
	assert.Empty(t, r.Sum)
	assert.Empty(t, r.Mean)
	assert.Equal(t, "00501", r.Min)
	assert.Equal(t, "90210", r.Max)
	assert.Equal(t, "0", r.MinLength)
	assert.Equal(t, "5", r.MaxLength)
	assert.Equal(t, uint64(1), r.NullCount)
	assert.Equal(t, "0.2", r.Sparsity)
	assert.Equal(t, []string{"10001"}, r.Modes)
	assert.Equal(t, []string{NullLabel, "00501", "90210"}, r.Antimodes)
}

func TestOverflowSentinel(t *testing.T) {
	which := stats.Options{}.Which()
	r := present(which, 4, false, strconv.FormatInt(math.MaxInt64, 10), "1")
	assert.Equal(t, stats.SumOverflow, r.Sum)
	assert.True(t, r.Overflow)
	assert.NotEmpty(t, r.Mean)
}

func TestDateField(t *testing.T) {
	which := stats.Options{Quartiles: true, MAD: true}.Which()
	r := present(which, 2, true, "2021-01-01", "2021-01-03", "2021-01-05")

	assert.Equal(t, stats.KindDate, r.Type)
	assert.Equal(t, "2021-01-01", r.Min)
	assert.Equal(t, "2021-01-05", r.Max)
	assert.Equal(t, "4", r.Range)
	assert.Equal(t, "2021-01-03", r.Mean)
	assert.Equal(t, "2021-01-03", r.Q2)
	assert.Equal(t, "2", r.MAD)
	assert.Empty(t, r.Variance)
	assert.Empty(t, r.MinLength)
	assert.Empty(t, r.Sum)
}

func TestRoundingConsistency(t *testing.T) {
	values := []string{"1.5", "2.25", "3.125", "4.0625", "10"}
	which := stats.Options{}.Which()
	for places := 0; places <= 6; places++ {
		s := build(which, false, values...)
		r := Field(stats.Field{Name: "f"}, s.verdict.Kind(), s.acc, s.pop, which, places)

		sum, _ := s.acc.FloatSum()
		lo, hi, _ := s.acc.FloatRange()
		assert.Equal(t, Number(sum, places), r.Sum, "places %d", places)
		assert.Equal(t, Number(s.acc.Moments().Mean, places), r.Mean)
		assert.Equal(t, Number(lo, places), r.Min)
		assert.Equal(t, Number(hi, places), r.Max)
	}
}

func TestTypesOnly(t *testing.T) {
	which := stats.Options{TypesOnly: true}.Which()
	s := build(which, false, "1", "2")
	r := Field(stats.Field{Name: "f"}, s.verdict.Kind(), s.acc, s.pop, which, 4)
	assert.Equal(t, stats.KindInteger, r.Type)
	assert.Empty(t, r.Sum)
	assert.Equal(t, []string{"field", "type"}, Headers(which))
	assert.Equal(t, []string{"f", "Integer"}, Record(r, which))
}

func TestRecordMatchesHeaders(t *testing.T) {
	for _, which := range []stats.Which{
		stats.Options{}.Which(),
		stats.Options{Everything: true}.Which(),
		stats.Options{Median: true, Cardinality: true}.Which(),
	} {
		r := present(which, 4, false, "1", "1", "2")
		assert.Len(t, Record(r, which), len(Headers(which)))
	}
}

func TestAntimodePreview(t *testing.T) {
	r := stats.FieldResult{
		Antimodes:     []string{"a", "b"},
		AntimodeCount: 12,
	}
	assert.Equal(t, "*PREVIEW: a,b", antimodeList(r))

	long := stats.FieldResult{Antimodes: []string{strings.Repeat("x", 150)}, AntimodeCount: 1}
	got := antimodeList(long)
	assert.Len(t, got, maxListWidth+3)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestAntimodePreviewKeepsRunesWhole(t *testing.T) {
	values := make([]string, 6)
	for i := range values {
		values[i] = strconv.Itoa(i) + strings.Repeat("é", 10)
	}
	r := stats.FieldResult{Antimodes: values, AntimodeCount: 9}

	got := antimodeList(r)
	require.True(t, strings.HasSuffix(got, "..."))
	assert.True(t, utf8.ValidString(got), "%q", got)
	assert.LessOrEqual(t, len(got), maxListWidth+3)
	assert.True(t, strings.HasPrefix(got, "*PREVIEW: 0éééééééééé,"))
}

func sampleReport() *stats.Report {
	which := stats.Options{Mode: true}.Which()
	r := present(which, 4, false, "1", "2", "2")
	return &stats.Report{RunID: "0190-run", Records: 3, Chunks: 1, Which: which, Fields: []stats.FieldResult{r}}
}

func TestWriters(t *testing.T) {
	report := sampleReport()

	var csvBuf bytes.Buffer
	require.NoError(t, Write(&csvBuf, report, FormatCSV))
	lines := strings.Split(strings.TrimSpace(csvBuf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "field,type,sum"))
	assert.True(t, strings.HasPrefix(lines[1], "f,Integer,5,1,2"))

	var jsonBuf bytes.Buffer
	require.NoError(t, Write(&jsonBuf, report, FormatJSON))
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &decoded))
	fields := decoded["fields"].([]interface{})
	assert.Equal(t, "Integer", fields[0].(map[string]interface{})["type"])

	var htmlBuf bytes.Buffer
	require.NoError(t, Write(&htmlBuf, report, FormatHTML))
	assert.Contains(t, htmlBuf.String(), "<table>")
	assert.Contains(t, htmlBuf.String(), "<title>Field statistics</title>")

	md := string(Markdown(report))
	assert.Contains(t, md, "| field | type |")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("MD")
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
