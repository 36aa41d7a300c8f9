package orderstats

import "sort"

// AntimodePreview is how many antimodes are kept for display.
const AntimodePreview = 10

// Modes are the most frequent values.
type Modes struct {
	Values      []string // sorted
	Occurrences uint64
}

// Antimodes are the least frequent values. When every value is unique only
// All is set.
type Antimodes struct {
	All         bool
	Values      []string // sorted, at most AntimodePreview
	Count       int
	Occurrences uint64
}

// Modes returns every value reaching the highest frequency, provided that
// frequency is above one.
func (c *Collector) Modes() Modes {
	top := c.maxFreq()
	if top <= 1 {
		return Modes{}
	}
	var out []string
	for k, n := range c.freq {
		if n == top {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return Modes{Values: out, Occurrences: top}
}

// Antimodes returns the values reaching the lowest frequency.
func (c *Collector) Antimodes() Antimodes {
	if len(c.freq) == 0 {
		return Antimodes{}
	}
	if c.maxFreq() == 1 {
		return Antimodes{All: true, Occurrences: 1}
	}

	var least uint64
	for _, n := range c.freq {
		if least == 0 || n < least {
			least = n
		}
	}
	var all []string
	for k, n := range c.freq {
		if n == least {
			all = append(all, k)
		}
	}
	sort.Strings(all)

	preview := all
	if len(preview) > AntimodePreview {
		preview = preview[:AntimodePreview]
	}
	return Antimodes{Values: preview, Count: len(all), Occurrences: least}
}

func (c *Collector) maxFreq() uint64 {
	var top uint64
	for _, n := range c.freq {
		if n > top {
			top = n
		}
	}
	return top
}
