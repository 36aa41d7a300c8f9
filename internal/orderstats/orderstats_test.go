package orderstats

import (
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"tabstat/domain/stats"
	"tabstat/internal/errors"
	"tabstat/internal/inference"
)

var everything = stats.Options{Everything: true}.Which()

func collect(t *testing.T, c *Collector, values ...string) {
	t.Helper()
	for _, v := range values {
		require.NoError(t, c.Observe(inference.Classify(v, false, false), v))
	}
}

func TestModesAndAntimodes(t *testing.T) {
	c := New("n", everything, 0)
	collect(t, c, "1", "1", "2", "2", "3", "4", "6", "6")

	modes := c.Modes()
	assert.Equal(t, []string{"1", "2", "6"}, modes.Values)
	assert.Equal(t, uint64(2), modes.Occurrences)

	anti := c.Antimodes()
	assert.False(t, anti.All)
	assert.Equal(t, []string{"3", "4"}, anti.Values)
	assert.Equal(t, 2, anti.Count)
	assert.Equal(t, uint64(1), anti.Occurrences)

	assert.Equal(t, uint64(5), c.Cardinality())
}

func TestAllUnique(t *testing.T) {
	c := New("n", everything, 0)
	collect(t, c, "a", "b", "c")

	assert.Empty(t, c.Modes().Values)
	anti := c.Antimodes()
	assert.True(t, anti.All)
	assert.Equal(t, uint64(1), anti.Occurrences)
}

func TestAllEquallyFrequent(t *testing.T) {
	c := New("n", everything, 0)
	collect(t, c, "a", "b", "a", "b")

	assert.Equal(t, []string{"a", "b"}, c.Modes().Values)
	anti := c.Antimodes()
	assert.False(t, anti.All)
	assert.Equal(t, []string{"a", "b"}, anti.Values)
	assert.Equal(t, uint64(2), anti.Occurrences)
}

func TestAntimodePreviewIsCapped(t *testing.T) {
	c := New("n", everything, 0)
	collect(t, c, "dup", "dup")
	for i := 0; i < 25; i++ {
		collect(t, c, "v"+strconv.Itoa(100+i))
	}
	anti := c.Antimodes()
	assert.Len(t, anti.Values, AntimodePreview)
	assert.Equal(t, 25, anti.Count)
	assert.True(t, sort.StringsAreSorted(anti.Values))
}

func TestNullsAreCountedAsOneValue(t *testing.T) {
	c := New("n", everything, 0)
	collect(t, c, "", " ", "x", "x")

	assert.Equal(t, uint64(2), c.Cardinality())
	assert.Equal(t, []string{NullKey, "x"}, c.Modes().Values)
	assert.Equal(t, 0, c.Len())
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		p      float64
		want   float64
	}{
		{"odd median", []float64{1, 2, 3}, 0.5, 2},
		{"even median", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"q1 interpolated", []float64{1, 2, 3, 4, 5, 6, 7, 8}, 0.25, 2.25},
		{"q3 interpolated", []float64{1, 2, 3, 4, 5, 6, 7, 8}, 0.75, 6.75},
		{"clamped low", []float64{5, 9}, 0.1, 5},
		{"clamped high", []float64{5, 9}, 0.9, 9},
		{"single", []float64{4}, 0.75, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Quantile(tt.values, tt.p)
			require.True(t, ok)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}

	_, ok := Quantile(nil, 0.5)
	assert.False(t, ok)
}

func TestQuartilesFencesAndSkew(t *testing.T) {
	c := New("n", everything, 0)
	collect(t, c, "8", "7", "6", "5", "4", "3", "2", "1")

	assert.True(t, floats.Equal([]float64{1, 2, 3, 4, 5, 6, 7, 8}, c.Sorted()))

	q, ok := c.Quartiles()
	require.True(t, ok)
	assert.InDelta(t, 2.25, q.Q1, 1e-12)
	assert.InDelta(t, 4.5, q.Q2, 1e-12)
	assert.InDelta(t, 6.75, q.Q3, 1e-12)
	assert.InDelta(t, 4.5, q.IQR, 1e-12)
	assert.InDelta(t, 2.25-6.75, q.LowerInnerFence, 1e-12)
	assert.InDelta(t, 2.25-13.5, q.LowerOuterFence, 1e-12)
	assert.InDelta(t, 6.75+6.75, q.UpperInnerFence, 1e-12)
	assert.InDelta(t, 6.75+13.5, q.UpperOuterFence, 1e-12)
	require.True(t, q.SkewnessOK)
	assert.InDelta(t, 0, q.Skewness, 1e-12)

	median, _ := c.Median()
	assert.Equal(t, q.Q2, median)
}

func TestSkewnessUndefinedForZeroIQR(t *testing.T) {
	c := New("n", everything, 0)
	collect(t, c, "3", "3", "3", "3")
	q, ok := c.Quartiles()
	require.True(t, ok)
	assert.False(t, q.SkewnessOK)
}

func TestMAD(t *testing.T) {
	c := New("n", everything, 0)
	collect(t, c, "1", "1", "2", "2", "4", "6", "9")
	median, ok := c.Median()
	require.True(t, ok)
	assert.Equal(t, 2.0, median)

	mad, ok := c.MAD(median)
	require.True(t, ok)
	// deviations 1 1 0 0 2 4 7
	assert.Equal(t, 1.0, mad)
}

func TestMergeEqualsSingleCollector(t *testing.T) {
	values := []string{"5", "1", "x", "", "3", "3", "9", "1"}
	whole := New("n", everything, 0)
	collect(t, whole, values...)

	left, right := New("n", everything, 0), New("n", everything, 0)
	collect(t, left, values[:3]...)
	collect(t, right, values[3:]...)
	require.NoError(t, left.Merge(right))

	assert.Equal(t, whole.Sorted(), left.Sorted())
	assert.Equal(t, whole.Cardinality(), left.Cardinality())
	assert.Equal(t, whole.Modes(), left.Modes())
	assert.Equal(t, whole.Antimodes(), left.Antimodes())
}

func TestResourceLimit(t *testing.T) {
	c := New("amount", everything, 3)
	for _, v := range []string{"1", "2", "3"} {
		require.NoError(t, c.Observe(inference.Classify(v, false, false), v))
	}
	err := c.Observe(inference.Classify("4", false, false), "4")
	require.Error(t, err)
	assert.Equal(t, errors.CodeResourceLimit, errors.GetCode(err))
	assert.Contains(t, err.Error(), "amount")
}

func TestDisabledCollectorKeepsNothing(t *testing.T) {
	c := New("n", stats.Options{}.Which(), 0)
	assert.False(t, c.Enabled())
	collect(t, c, "1", "2")
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, uint64(0), c.Cardinality())
}
