// Package orderstats keeps the full population of a field for the statistics
// that cannot be computed in one streaming pass.
package orderstats

import (
	"sort"

	"tabstat/domain/stats"
	"tabstat/internal/errors"
	"tabstat/internal/inference"
)

// NullKey is the frequency table key of null values.
const NullKey = ""

// Collector holds the numeric or date population of one field and a raw
// value frequency table. Memory grows with the number of values.
type Collector struct {
	name      string
	maxValues int

	keepValues bool
	keepFreq   bool

	values []float64
	sorted bool
	freq   map[string]uint64
}

// New returns a collector for the statistics selected in which. maxValues
// caps the population and the number of distinct values; 0 disables the cap.
func New(name string, which stats.Which, maxValues int) *Collector {
	c := &Collector{
		name:       name,
		maxValues:  maxValues,
		keepValues: which.NeedsPopulation(),
		keepFreq:   which.NeedsFrequencies(),
	}
	if c.keepFreq {
		c.freq = make(map[string]uint64)
	}
	return c
}

// Enabled reports whether the collector retains anything at all.
func (c *Collector) Enabled() bool {
	return c.keepValues || c.keepFreq
}

// Observe records one value.
func (c *Collector) Observe(obs inference.Observation, raw string) error {
	if c.keepFreq {
		key := raw
		if obs.IsNull() {
			key = NullKey
		}
		c.freq[key]++
		if c.maxValues > 0 && len(c.freq) > c.maxValues {
			return errors.ResourceLimit(c.name, c.maxValues)
		}
	}
	if !c.keepValues {
		return nil
	}
	switch obs.Kind {
	case stats.KindInteger, stats.KindFloat:
		c.values = append(c.values, obs.Float)
	case stats.KindDate, stats.KindDateTime:
		c.values = append(c.values, float64(obs.Instant.Millis))
	default:
		return nil
	}
	c.sorted = false
	if c.maxValues > 0 && len(c.values) > c.maxValues {
		return errors.ResourceLimit(c.name, c.maxValues)
	}
	return nil
}

// Merge folds other into c. It must happen before any statistic is read.
func (c *Collector) Merge(other *Collector) error {
	if other == nil {
		return nil
	}
	if len(other.values) > 0 {
		c.values = append(c.values, other.values...)
		c.sorted = false
	}
	if c.keepFreq {
		for k, n := range other.freq {
			c.freq[k] += n
		}
	}
	if c.maxValues > 0 && (len(c.values) > c.maxValues || len(c.freq) > c.maxValues) {
		return errors.ResourceLimit(c.name, c.maxValues)
	}
	return nil
}

// Len is the size of the retained population.
func (c *Collector) Len() int {
	return len(c.values)
}

// Sorted returns the population in ascending order. The slice is shared.
func (c *Collector) Sorted() []float64 {
	if !c.sorted {
		sort.Float64s(c.values)
		c.sorted = true
	}
	return c.values
}

// Cardinality is the number of distinct raw values, null counted once.
func (c *Collector) Cardinality() uint64 {
	return uint64(len(c.freq))
}
