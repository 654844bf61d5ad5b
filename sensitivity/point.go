// Package sensitivity holds the records produced by rate sensitivity calculations:
// point sensitivities to overnight rates over a date range, and sensitivities to
// curve parameters.
package sensitivity

import (
	"math"
	"sort"
	"time"

	"github.com/meenmo/onavg/market"
)

// PointSensitivity is the derivative of a value with respect to the overnight
// rate of Index over [Start, End).
type PointSensitivity struct {
	Index    string
	Start    time.Time
	End      time.Time
	Currency market.Currency
	Value    float64
}

// Key identifies records that can be summed together.
type Key struct {
	Index    string
	Start    time.Time
	End      time.Time
	Currency market.Currency
}

// Key returns the accumulation key of p.
func (p PointSensitivity) Key() Key {
	return Key{Index: p.Index, Start: p.Start.UTC(), End: p.End.UTC(), Currency: p.Currency}
}

// MultipliedBy scales the record value.
func (p PointSensitivity) MultipliedBy(factor float64) PointSensitivity {
	p.Value *= factor
	return p
}

func (k Key) less(o Key) bool {
	if k.Index != o.Index {
		return k.Index < o.Index
	}
	if k.Currency != o.Currency {
		return k.Currency < o.Currency
	}
	if !k.Start.Equal(o.Start) {
		return k.Start.Before(o.Start)
	}
	return k.End.Before(o.End)
}

// PointSensitivities is an immutable collection of point sensitivities.
// The zero value is the empty collection.
type PointSensitivities struct {
	items []PointSensitivity
}

// None returns the empty collection, meaning no sensitivity.
func None() PointSensitivities {
	return PointSensitivities{}
}

// Of returns a collection holding the given records as-is.
func Of(items ...PointSensitivity) PointSensitivities {
	if len(items) == 0 {
		return None()
	}
	return PointSensitivities{items: append([]PointSensitivity(nil), items...)}
}

// Items returns a copy of the records.
func (s PointSensitivities) Items() []PointSensitivity {
	return append([]PointSensitivity(nil), s.items...)
}

// Len returns the number of records.
func (s PointSensitivities) Len() int { return len(s.items) }

// IsEmpty reports whether the collection holds no record.
func (s PointSensitivities) IsEmpty() bool { return len(s.items) == 0 }

// MultipliedBy scales every record.
func (s PointSensitivities) MultipliedBy(factor float64) PointSensitivities {
	out := make([]PointSensitivity, len(s.items))
	for i, p := range s.items {
		out[i] = p.MultipliedBy(factor)
	}
	return PointSensitivities{items: out}
}

// Combined concatenates two collections without merging keys.
func (s PointSensitivities) Combined(other PointSensitivities) PointSensitivities {
	if other.IsEmpty() {
		return s
	}
	if s.IsEmpty() {
		return other
	}
	out := make([]PointSensitivity, 0, len(s.items)+len(other.items))
	out = append(out, s.items...)
	out = append(out, other.items...)
	return PointSensitivities{items: out}
}

// Normalized sums records sharing a key and sorts them by key.
func (s PointSensitivities) Normalized() PointSensitivities {
	b := NewBuilder()
	b.AddAll(s, 1)
	return b.Build()
}

// EqualWithTolerance compares the normalized forms of both collections.
// A key present on one side only is compared against zero.
func (s PointSensitivities) EqualWithTolerance(other PointSensitivities, tolerance float64) bool {
	values := make(map[Key]float64)
	for _, p := range s.Normalized().items {
		values[p.Key()] += p.Value
	}
	for _, p := range other.Normalized().items {
		values[p.Key()] -= p.Value
	}
	for _, diff := range values {
		if math.Abs(diff) > tolerance {
			return false
		}
	}
	return true
}

// Builder accumulates point sensitivities within a single calculation.
// It is not safe for concurrent use and should not outlive the call that created it.
type Builder struct {
	entries []PointSensitivity
}

// NewBuilder returns an empty accumulator.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends one record.
func (b *Builder) Add(p PointSensitivity) *Builder {
	b.entries = append(b.entries, p)
	return b
}

// AddAll appends every record of s scaled by factor.
func (b *Builder) AddAll(s PointSensitivities, factor float64) *Builder {
	for _, p := range s.items {
		b.entries = append(b.entries, p.MultipliedBy(factor))
	}
	return b
}

// Build returns the summed, deduplicated and key-ordered collection.
func (b *Builder) Build() PointSensitivities {
	if len(b.entries) == 0 {
		return None()
	}
	sorted := append([]PointSensitivity(nil), b.entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Key().less(sorted[j].Key())
	})

	out := make([]PointSensitivity, 0, len(sorted))
	for _, p := range sorted {
		n := len(out)
		if n > 0 && out[n-1].Key() == p.Key() {
			out[n-1].Value += p.Value
			continue
		}
		out = append(out, PointSensitivity{
			Index:    p.Index,
			Start:    p.Start.UTC(),
			End:      p.End.UTC(),
			Currency: p.Currency,
			Value:    p.Value,
		})
	}
	return PointSensitivities{items: out}
}
