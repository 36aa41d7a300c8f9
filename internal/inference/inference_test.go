package inference

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"tabstat/domain/stats"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		value string
		want  stats.Kind
	}{
		{"", stats.KindNull},
		{"   ", stats.KindNull},
		{"0", stats.KindInteger},
		{"-17", stats.KindInteger},
		{"+3", stats.KindInteger},
		{"00501", stats.KindString},
		{"007", stats.KindString},
		{"9223372036854775807", stats.KindInteger},
		{"9223372036854775808", stats.KindFloat},
		{"3.14", stats.KindFloat},
		{".5", stats.KindFloat},
		{"5.", stats.KindFloat},
		{"-1e10", stats.KindFloat},
		{"1e400", stats.KindString},
		{"inf", stats.KindString},
		{"NaN", stats.KindString},
		{"0x1F", stats.KindString},
		{" 5", stats.KindString},
		{"zip", stats.KindString},
		{"2021-03-04", stats.KindString}, // dates not enabled
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.value, false, false).Kind)
		})
	}
}

func TestClassifyDates(t *testing.T) {
	obs := Classify("2021-03-04", true, false)
	assert.Equal(t, stats.KindDate, obs.Kind)
	assert.False(t, obs.DateFailed)

	obs = Classify("2021-03-04 10:11:12", true, false)
	assert.Equal(t, stats.KindDateTime, obs.Kind)

	// numbers win over timestamps
	obs = Classify("20210304", true, false)
	assert.Equal(t, stats.KindInteger, obs.Kind)

	obs = Classify("not a date", true, false)
	assert.Equal(t, stats.KindString, obs.Kind)
	assert.True(t, obs.DateFailed)
}

func TestLeadingZerosStayString(t *testing.T) {
	v := NewVerdict(false, false, false)
	for _, s := range []string{"00501", "00502", "10001"} {
		v.Observe(s)
	}
	assert.Equal(t, stats.KindString, v.Kind())
}

func TestBooleanDomains(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   stats.Kind
	}{
		{"true false", []string{"true", "FALSE", "True", ""}, stats.KindBoolean},
		{"t f", []string{"t", "f", "T"}, stats.KindBoolean},
		{"one zero", []string{"1", "0", "1"}, stats.KindBoolean},
		{"y n", []string{"Y", "n"}, stats.KindBoolean},
		{"mixed domains", []string{"t", "y"}, stats.KindString},
		{"one zero then number", []string{"1", "0", "2"}, stats.KindInteger},
		{"one zero then float", []string{"1", "0.5"}, stats.KindFloat},
		{"true then word", []string{"true", "maybe"}, stats.KindString},
		{"all null", []string{"", " "}, stats.KindNull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerdict(false, false, false)
			for _, s := range tt.values {
				v.Observe(s)
			}
			assert.Equal(t, tt.want, v.Kind())
		})
	}
}

func TestWideningIsMonotonic(t *testing.T) {
	rank := map[stats.Kind]int{
		stats.KindNull:     0,
		stats.KindInteger:  2,
		stats.KindFloat:    3,
		stats.KindDate:     4,
		stats.KindDateTime: 5,
		stats.KindString:   6,
	}
	values := []string{"", "1", "2", "3.5", "2021-01-01", "2021-01-01 10:00", "x", ""}
	v := NewVerdict(true, false, false)
	prev := 0
	for _, s := range values {
		v.Observe(s)
		r := rank[v.ValueKind()]
		assert.GreaterOrEqual(t, r, prev, "after %q", s)
		prev = r
	}
	assert.Equal(t, stats.KindString, v.Kind())
}

func TestNumericJoinedWithDateIsString(t *testing.T) {
	v := NewVerdict(true, false, false)
	v.Observe("5")
	v.Observe("2021-01-01")
	assert.Equal(t, stats.KindString, v.Kind())
}

func TestMergeMatchesSequential(t *testing.T) {
	values := []string{"1", "0", "", "1", "7", "2.5", "00", "t", "2021-02-03", "", "0"}
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		// random prefix of a random permutation, split at a random point
		perm := rng.Perm(len(values))
		n := 1 + rng.Intn(len(values))
		split := rng.Intn(n + 1)

		seq := NewVerdict(true, false, false)
		left := NewVerdict(true, false, false)
		right := NewVerdict(true, false, false)
		for i, idx := range perm[:n] {
			seq.Observe(values[idx])
			if i < split {
				left.Observe(values[idx])
			} else {
				right.Observe(values[idx])
			}
		}
		left.Merge(right)
		assert.Equal(t, seq.Kind(), left.Kind(), "trial %d", trial)
	}
}

func TestStringShortCircuitStillReportsNulls(t *testing.T) {
	v := NewVerdict(false, false, false)
	v.Observe("abc")
	v.Observe("def")
	assert.True(t, v.Observe("  ").IsNull())
	assert.Equal(t, stats.KindString, v.Observe("12").Kind)
}

func TestStrictKeepsClassifyingDates(t *testing.T) {
	v := NewVerdict(true, false, true)
	v.Observe("abc")
	v.Observe("xyz")
	obs := v.Observe("not a date")
	assert.True(t, obs.DateFailed)
}
