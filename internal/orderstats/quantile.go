package orderstats

import (
	"math"

	mstats "github.com/montanaflynn/stats"
)

// Quantile returns the p-quantile of an ascending slice. It interpolates
// linearly between order statistics at the 1-based rank (n+1)p, clamped to
// the first and last value.
func Quantile(sorted []float64, p float64) (float64, bool) {
	n := len(sorted)
	if n == 0 {
		return 0, false
	}
	r := float64(n+1) * p
	if r <= 1 {
		return sorted[0], true
	}
	if r >= float64(n) {
		return sorted[n-1], true
	}
	k := math.Floor(r)
	lo := sorted[int(k)-1]
	hi := sorted[int(k)]
	return lo + (r-k)*(hi-lo), true
}

// Median of the population.
func (c *Collector) Median() (float64, bool) {
	return Quantile(c.Sorted(), 0.5)
}

// MAD is the median absolute deviation around an already computed median.
func (c *Collector) MAD(median float64) (float64, bool) {
	values := c.Sorted()
	if len(values) == 0 {
		return 0, false
	}
	devs := make(mstats.Float64Data, len(values))
	for i, v := range values {
		devs[i] = math.Abs(v - median)
	}
	mad, err := mstats.Median(devs)
	if err != nil {
		return 0, false
	}
	return mad, true
}

// Quartiles summarises the spread of the population.
type Quartiles struct {
	Q1, Q2, Q3 float64
	IQR        float64

	LowerOuterFence float64
	LowerInnerFence float64
	UpperInnerFence float64
	UpperOuterFence float64

	// Skewness is Bowley's quantile skewness; SkewnessOK is false when the IQR is 0.
	Skewness   float64
	SkewnessOK bool
}

// Quartiles computes Q1..Q3, the Tukey fences and the quantile skewness.
func (c *Collector) Quartiles() (Quartiles, bool) {
	values := c.Sorted()
	if len(values) == 0 {
		return Quartiles{}, false
	}
	q1, _ := Quantile(values, 0.25)
	q2, _ := Quantile(values, 0.5)
	q3, _ := Quantile(values, 0.75)
	iqr := q3 - q1

	q := Quartiles{
		Q1:              q1,
		Q2:              q2,
		Q3:              q3,
		IQR:             iqr,
		LowerOuterFence: q1 - 3*iqr,
		LowerInnerFence: q1 - 1.5*iqr,
		UpperInnerFence: q3 + 1.5*iqr,
		UpperOuterFence: q3 + 3*iqr,
	}
	if iqr != 0 {
		q.Skewness = (q3 - 2*q2 + q1) / iqr
		q.SkewnessOK = true
	}
	return q, true
}
