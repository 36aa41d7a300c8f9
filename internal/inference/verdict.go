package inference

import (
	"strings"

	"tabstat/domain/stats"
)

// Verdict is the running type of one field.
//
// It is the join of its values' kinds plus a boolean domain tracker, so two
// verdicts built over any split of the same values merge to the same result.
type Verdict struct {
	InferDates bool
	DayFirst   bool
	// Strict keeps classifying values after the field has become String, so
	// every date failure is seen.
	Strict bool

	kind   stats.Kind
	domain BoolDomain
}

// NewVerdict creates a verdict for a field.
func NewVerdict(inferDates, dayFirst, strict bool) *Verdict {
	return &Verdict{InferDates: inferDates, DayFirst: dayFirst, Strict: strict}
}

// Observe classifies value and widens the verdict.
func (v *Verdict) Observe(value string) Observation {
	if v.kind == stats.KindString && v.domain == boolBroken && !(v.Strict && v.InferDates) {
		// nothing can change any more; only nulls still matter to the caller
		if isBlank(value) {
			return Observation{Kind: stats.KindNull}
		}
		return Observation{Kind: stats.KindString}
	}

	obs := Classify(value, v.InferDates, v.DayFirst)
	v.add(obs)
	return obs
}

func (v *Verdict) add(obs Observation) {
	if obs.IsNull() {
		return
	}
	v.kind = stats.Join(v.kind, obs.Kind)
	d := obs.Bool
	if d == boolUnset {
		d = boolBroken
	}
	v.domain = joinDomain(v.domain, d)
}

// Merge folds other into v.
func (v *Verdict) Merge(other *Verdict) {
	if other == nil {
		return
	}
	v.kind = stats.Join(v.kind, other.kind)
	v.domain = joinDomain(v.domain, other.domain)
}

// Kind returns the field type. A field is Boolean while every non-null value
// comes from a single boolean vocabulary.
func (v *Verdict) Kind() stats.Kind {
	if v.domain > boolUnset {
		return stats.KindBoolean
	}
	return v.kind
}

// ValueKind returns the join of the value kinds, ignoring booleans. It is
// what the field would be without boolean detection.
func (v *Verdict) ValueKind() stats.Kind {
	return v.kind
}

func joinDomain(a, b BoolDomain) BoolDomain {
	switch {
	case a == b:
		return a
	case a == boolUnset:
		return b
	case b == boolUnset:
		return a
	}
	return boolBroken
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
