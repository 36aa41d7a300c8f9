package stats

import (
	"strings"

	"tabstat/domain/core"
)

// ============================================================================
// FIELDS & OPTIONS
// ============================================================================

// Field identifies one column by name and ordinal position.
type Field struct {
	Name     string `json:"field"`
	Position int    `json:"position"`
}

// DateMode selects which fields are candidates for date inference.
type DateMode int

const (
	DatesNone DateMode = iota
	DatesAll
	DatesAllowList
)

// DefaultDatesWhitelist is the allow-list used when none is configured.
const DefaultDatesWhitelist = "date,time,due,open,close,created"

// DatePolicy decides per field whether date parsing is attempted. Date parsing is
// the most expensive classification attempt, so it is opt-in.
type DatePolicy struct {
	Mode      DateMode
	AllowList []string // lower-cased substrings, used with DatesAllowList
}

// ParseDatePolicy builds a policy from the infer flag and a comma separated
// whitelist. The whitelist value "all" enables every field.
func ParseDatePolicy(infer bool, whitelist string) DatePolicy {
	if !infer {
		return DatePolicy{Mode: DatesNone}
	}
	wl := strings.ToLower(strings.TrimSpace(whitelist))
	if wl == "all" {
		return DatePolicy{Mode: DatesAll}
	}
	var items []string
	for _, item := range strings.Split(wl, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return DatePolicy{Mode: DatesAllowList, AllowList: items}
}

// Enabled reports whether date inference applies to the named field.
func (p DatePolicy) Enabled(fieldName string) bool {
	switch p.Mode {
	case DatesAll:
		return true
	case DatesAllowList:
		name := strings.ToLower(fieldName)
		for _, item := range p.AllowList {
			if strings.Contains(name, item) {
				return true
			}
		}
	}
	return false
}

// Flags returns one date-inference flag per field, in field order.
func (p DatePolicy) Flags(fields []Field) []bool {
	flags := make([]bool, len(fields))
	for i, f := range fields {
		flags[i] = p.Enabled(f.Name)
	}
	return flags
}

// Options configures a statistics run.
type Options struct {
	Dates          DatePolicy
	PreferDayFirst bool
	StrictDates    bool

	// Order statistics. Each of these requires holding the field's values in memory.
	Everything  bool
	Mode        bool
	Cardinality bool
	Median      bool
	MAD         bool
	Quartiles   bool

	TypesOnly    bool
	IncludeNulls bool // count nulls as zeros in mean/variance

	Round           int
	Workers         int   // 0 means one per CPU
	MinParallelRows int64 // below this the run stays sequential
	MaxValues       int   // per-field population cap, 0 is unlimited
	Flexible        bool  // missing trailing values are nulls instead of malformed records

	Select []string // field names, empty selects all
}

// DefaultOptions mirrors the command line defaults.
func DefaultOptions() Options {
	return Options{
		Dates:           DatePolicy{Mode: DatesNone},
		Round:           4,
		MinParallelRows: 10000,
	}
}

// Which lists the statistics a run computes, derived from Options.
type Which struct {
	Sum          bool
	Range        bool
	Dist         bool
	Cardinality  bool
	Median       bool
	MAD          bool
	Quartiles    bool
	Mode         bool
	TypesOnly    bool
	IncludeNulls bool
}

// Which resolves the option flags into the set of statistics to compute.
func (o Options) Which() Which {
	if o.TypesOnly {
		return Which{TypesOnly: true}
	}
	return Which{
		Sum:          true,
		Range:        true,
		Dist:         true,
		Cardinality:  o.Everything || o.Cardinality,
		Median:       !o.Everything && o.Median && !o.Quartiles,
		MAD:          o.Everything || o.MAD,
		Quartiles:    o.Everything || o.Quartiles,
		Mode:         o.Everything || o.Mode,
		IncludeNulls: o.IncludeNulls,
	}
}

// NeedsPopulation reports whether numeric values must be retained.
func (w Which) NeedsPopulation() bool {
	return w.Median || w.MAD || w.Quartiles
}

// NeedsFrequencies reports whether a value frequency table must be kept.
func (w Which) NeedsFrequencies() bool {
	return w.Mode || w.Cardinality
}

// ============================================================================
// RESULTS
// ============================================================================

// SumOverflow is the sentinel reported when a field's sum left the representable range.
const SumOverflow = "OVERFLOW"

// AllUnique is reported as the antimode when every value occurs exactly once.
const AllUnique = "*ALL"

// FieldResult is the merged, rounded, presentation-ready summary of one field.
// Empty strings mean "not applicable" for the field's type or not requested.
type FieldResult struct {
	Field
	Type Kind `json:"type"`

	Count     uint64 `json:"count"`
	NullCount uint64 `json:"nullcount"`
	Sparsity  string `json:"sparsity"`

	Sum       string `json:"sum"`
	Overflow  bool   `json:"overflow,omitempty"`
	Min       string `json:"min"`
	Max       string `json:"max"`
	Range     string `json:"range"`
	MinLength string `json:"min_length"`
	MaxLength string `json:"max_length"`
	Mean      string `json:"mean"`
	StdDev    string `json:"stddev"`
	Variance  string `json:"variance"`

	Median          string `json:"median,omitempty"`
	MAD             string `json:"mad,omitempty"`
	LowerOuterFence string `json:"lower_outer_fence,omitempty"`
	LowerInnerFence string `json:"lower_inner_fence,omitempty"`
	Q1              string `json:"q1,omitempty"`
	Q2              string `json:"q2_median,omitempty"`
	Q3              string `json:"q3,omitempty"`
	IQR             string `json:"iqr,omitempty"`
	UpperInnerFence string `json:"upper_inner_fence,omitempty"`
	UpperOuterFence string `json:"upper_outer_fence,omitempty"`
	Skewness        string `json:"skewness,omitempty"`

	Cardinality uint64 `json:"cardinality,omitempty"`

	Modes               []string `json:"modes,omitempty"`
	ModeCount           int      `json:"mode_count,omitempty"`
	ModeOccurrences     uint64   `json:"mode_occurrences,omitempty"`
	Antimodes           []string `json:"antimodes,omitempty"`
	AntimodeCount       int      `json:"antimode_count,omitempty"`
	AntimodeOccurrences uint64   `json:"antimode_occurrences,omitempty"`
}

// Report is the outcome of one statistics run, fields in input order.
type Report struct {
	RunID    core.RunID    `json:"run_id"`
	Records  uint64        `json:"records"`
	Parallel bool          `json:"parallel"`
	Chunks   int           `json:"chunks"`
	Which    Which         `json:"-"`
	Fields   []FieldResult `json:"fields"`
}
