package accumulator

import "math"

// Moments keeps a running mean and sum of squared deviations (Welford).
type Moments struct {
	N    uint64
	Mean float64
	M2   float64
}

// Add observes one value.
func (m *Moments) Add(x float64) {
	m.N++
	d := x - m.Mean
	m.Mean += d / float64(m.N)
	m.M2 += d * (x - m.Mean)
}

// Merge combines two partitions (Chan, Golub and LeVeque).
func (m *Moments) Merge(o Moments) {
	switch {
	case o.N == 0:
		return
	case m.N == 0:
		*m = o
		return
	}
	na, nb := float64(m.N), float64(o.N)
	n := na + nb
	d := o.Mean - m.Mean
	m.Mean += d * nb / n
	m.M2 += o.M2 + d*d*na*nb/n
	m.N += o.N
}

// Variance is the population variance, NaN when empty.
func (m Moments) Variance() float64 {
	if m.N == 0 {
		return math.NaN()
	}
	v := m.M2 / float64(m.N)
	if v < 0 {
		// rounding can leave a tiny negative residue
		return 0
	}
	return v
}

// StdDev is the population standard deviation.
func (m Moments) StdDev() float64 {
	return math.Sqrt(m.Variance())
}
