package stats

// Kind is the inferred semantic type of a field or of a single value.
//
// The zero value is KindNull, the most specific kind. Inference starts there
// and only ever widens as counter-examples are observed.
type Kind uint8

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindFloat
	KindDate
	KindDateTime
	KindString
)

// String returns the display name used in reports.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindBoolean:
		return "Boolean"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindDate:
		return "Date"
	case KindDateTime:
		return "DateTime"
	case KindString:
		return "String"
	}
	return "Unknown"
}

// MarshalText encodes the display name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsNumeric reports whether k is Integer or Float.
func (k Kind) IsNumeric() bool {
	return k == KindInteger || k == KindFloat
}

// IsTemporal reports whether k is Date or DateTime.
func (k Kind) IsTemporal() bool {
	return k == KindDate || k == KindDateTime
}

// HasMoments reports whether mean/variance and order statistics are defined for k.
func (k Kind) HasMoments() bool {
	return k.IsNumeric() || k.IsTemporal()
}

// Join returns the least general kind that covers both a and b.
//
// Join is commutative and associative, which is what lets chunked inference
// agree with sequential inference. Boolean is handled by the verdict's domain
// tracker and never reaches Join as a value kind; here it behaves like String.
func Join(a, b Kind) Kind {
	switch {
	case a == b:
		return a
	case a == KindNull:
		return b
	case b == KindNull:
		return a
	case a.IsNumeric() && b.IsNumeric():
		return KindFloat
	case a.IsTemporal() && b.IsTemporal():
		return KindDateTime
	}
	return KindString
}
