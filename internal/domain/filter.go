package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// FilterField is a listing attribute that may appear in a filter body.
// Values are the DynamoDB attribute names.
type FilterField string

const (
	FieldBrand             FilterField = "brand"
	FieldBikeName          FilterField = "bike_name"
	FieldOwner             FilterField = "owner"
	FieldServicing         FilterField = "servicing"
	FieldEngineCondition   FilterField = "engine_condition"
	FieldPhysicalCondition FilterField = "physical_condition"
	FieldTyreCondition     FilterField = "tyre_condition"
	FieldDistrict          FilterField = "district"
	FieldYearOfPurchase    FilterField = "year_of_purchase"
	FieldCC                FilterField = "cc"
	FieldKmsDriven         FilterField = "kms_driven"
	FieldPrice             FilterField = "price"
)

// textFields match exactly; numericFields accept an exact integer or a {min, max} range.
var (
	textFields = map[FilterField]func(*Bike) string{
		FieldBrand:             func(b *Bike) string { return b.Brand },
		FieldBikeName:          func(b *Bike) string { return b.BikeName },
		FieldOwner:             func(b *Bike) string { return b.Owner },
		FieldServicing:         func(b *Bike) string { return b.Servicing },
		FieldEngineCondition:   func(b *Bike) string { return b.EngineCondition },
		FieldPhysicalCondition: func(b *Bike) string { return b.PhysicalCondition },
		FieldTyreCondition:     func(b *Bike) string { return b.TyreCondition },
		FieldDistrict:          func(b *Bike) string { return b.District },
	}
	numericFields = map[FilterField]func(*Bike) int{
		FieldYearOfPurchase: func(b *Bike) int { return b.YearOfPurchase },
		FieldCC:             func(b *Bike) int { return b.CC },
		FieldKmsDriven:      func(b *Bike) int { return b.KmsDriven },
		FieldPrice:          func(b *Bike) int { return b.Price },
	}
)

// IntRange is an inclusive numeric bound; either side may be absent.
// An exact numeric match is expressed as Min == Max.
type IntRange struct {
	Min *int `json:"min,omitempty"`
	Max *int `json:"max,omitempty"`
}

func (r IntRange) contains(v int) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// ListingFilter is the conjunction of exact text matches and numeric ranges.
// The zero value matches every listing.
type ListingFilter struct {
	Text   map[FilterField]string
	Ranges map[FilterField]IntRange
}

// IsEmpty reports whether the filter has no surviving predicates.
func (f ListingFilter) IsEmpty() bool {
	return len(f.Text) == 0 && len(f.Ranges) == 0
}

// Matches reports whether b satisfies every predicate of f.
func (f ListingFilter) Matches(b *Bike) bool {
	for field, want := range f.Text {
		if textFields[field](b) != want {
			return false
		}
	}
	for field, r := range f.Ranges {
		if !r.contains(numericFields[field](b)) {
			return false
		}
	}
	return true
}

// TextFields returns the text predicates sorted by field name.
func (f ListingFilter) TextFields() []FilterField {
	out := make([]FilterField, 0, len(f.Text))
	for k := range f.Text {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RangeFields returns the range predicates sorted by field name.
func (f ListingFilter) RangeFields() []FilterField {
	out := make([]FilterField, 0, len(f.Ranges))
	for k := range f.Ranges {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Key is a canonical string for f, stable across map iteration order.
func (f ListingFilter) Key() string {
	var b strings.Builder
	for _, k := range f.TextFields() {
		fmt.Fprintf(&b, "%s=%q;", k, f.Text[k])
	}
	for _, k := range f.RangeFields() {
		r := f.Ranges[k]
		b.WriteString(string(k))
		b.WriteString("[")
		if r.Min != nil {
			b.WriteString(strconv.Itoa(*r.Min))
		}
		b.WriteString(",")
		if r.Max != nil {
			b.WriteString(strconv.Itoa(*r.Max))
		}
		b.WriteString("];")
	}
	return b.String()
}

// ParseListingFilter lowers a client filter body into a ListingFilter.
// Absent, null and empty-string values are dropped. Unrecognized keys are
// ignored. A numeric field takes either an integer (exact match) or an object
// with optional min and max bounds.
func ParseListingFilter(raw map[string]json.RawMessage) (ListingFilter, error) {
	f := ListingFilter{
		Text:   map[FilterField]string{},
		Ranges: map[FilterField]IntRange{},
	}
	for key, val := range raw {
		field := FilterField(key)
		if isBlank(val) {
			continue
		}
		if _, ok := textFields[field]; ok {
			var s string
			if err := json.Unmarshal(val, &s); err != nil {
				return ListingFilter{}, fmt.Errorf("filter %q must be a string: %w", key, ErrValidation)
			}
			if s == "" {
				continue
			}
			f.Text[field] = s
			continue
		}
		if _, ok := numericFields[field]; ok {
			r, keep, err := parseRange(val)
			if err != nil {
				return ListingFilter{}, fmt.Errorf("filter %q: %v: %w", key, err, ErrValidation)
			}
			if keep {
				f.Ranges[field] = r
			}
		}
	}
	return f, nil
}

func isBlank(val json.RawMessage) bool {
	v := bytes.TrimSpace(val)
	return len(v) == 0 || bytes.Equal(v, []byte("null")) || bytes.Equal(v, []byte(`""`))
}

func parseRange(val json.RawMessage) (IntRange, bool, error) {
	v := bytes.TrimSpace(val)
	if v[0] != '{' {
		n, err := parseInt(v)
		if err != nil {
			return IntRange{}, false, err
		}
		return IntRange{Min: &n, Max: &n}, true, nil
	}
	var obj struct {
		Min json.RawMessage `json:"min"`
		Max json.RawMessage `json:"max"`
	}
	if err := json.Unmarshal(v, &obj); err != nil {
		return IntRange{}, false, fmt.Errorf("malformed range")
	}
	var r IntRange
	if !isBlank(obj.Min) {
		n, err := parseInt(obj.Min)
		if err != nil {
			return IntRange{}, false, err
		}
		r.Min = &n
	}
	if !isBlank(obj.Max) {
		n, err := parseInt(obj.Max)
		if err != nil {
			return IntRange{}, false, err
		}
		r.Max = &n
	}
	return r, r.Min != nil || r.Max != nil, nil
}

// parseInt accepts a JSON number or a numeric string.
func parseInt(v json.RawMessage) (int, error) {
	var num json.Number
	if err := json.Unmarshal(v, &num); err != nil {
		return 0, fmt.Errorf("expected a number")
	}
	return ParseInt(num.String())
}

// ParseInt coerces a listing's numeric input, truncating any fraction toward
// zero. Filter bodies and listing forms share it.
func ParseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	fl, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(fl) || math.IsInf(fl, 0) || math.Abs(fl) > 1<<53 {
		return 0, fmt.Errorf("expected a number")
	}
	return int(fl), nil
}
