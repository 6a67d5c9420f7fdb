// Package unknownfields holds protobuf fields that were present on the
// wire but not recognized by a receiving descriptor (spec §4.2). It has
// the same mutable Builder / frozen Set lifecycle as package fieldset, for
// the same reason: freezing is how aliasing into a published message is
// prevented without a runtime flag check on every mutation.
package unknownfields

import (
	"fmt"
	"sort"

	"github.com/protocore/protocore/perr"
	"github.com/protocore/protocore/wireformat"
)

// Field is the sum of the four wire shapes an unrecognized tag number can
// accumulate, plus nested unknown groups, in the canonical write order:
// varints, then fixed32s, then fixed64s, then length-delimited runs, then
// groups.
type Field struct {
	Varint          []uint64
	Fixed32         []uint32
	Fixed64         []uint64
	LengthDelimited [][]byte
	Group           []*Set
}

func (f *Field) clone() *Field {
	cp := &Field{
		Varint:          append([]uint64(nil), f.Varint...),
		Fixed32:         append([]uint32(nil), f.Fixed32...),
		Fixed64:         append([]uint64(nil), f.Fixed64...),
		LengthDelimited: append([][]byte(nil), f.LengthDelimited...),
		Group:           append([]*Set(nil), f.Group...),
	}
	return cp
}

func (f *Field) equal(o *Field) bool {
	if len(f.Varint) != len(o.Varint) || len(f.Fixed32) != len(o.Fixed32) ||
		len(f.Fixed64) != len(o.Fixed64) || len(f.LengthDelimited) != len(o.LengthDelimited) ||
		len(f.Group) != len(o.Group) {
		return false
	}
	for i := range f.Varint {
		if f.Varint[i] != o.Varint[i] {
			return false
		}
	}
	for i := range f.Fixed32 {
		if f.Fixed32[i] != o.Fixed32[i] {
			return false
		}
	}
	for i := range f.Fixed64 {
		if f.Fixed64[i] != o.Fixed64[i] {
			return false
		}
	}
	for i := range f.LengthDelimited {
		if string(f.LengthDelimited[i]) != string(o.LengthDelimited[i]) {
			return false
		}
	}
	for i := range f.Group {
		if !f.Group[i].Equal(o.Group[i]) {
			return false
		}
	}
	return true
}

// Builder accumulates unknown fields before they are frozen into a Set.
type Builder struct {
	fields map[int32]*Field
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{fields: map[int32]*Field{}}
}

func (b *Builder) field(tagNumber int32) *Field {
	f, ok := b.fields[tagNumber]
	if !ok {
		f = &Field{}
		b.fields[tagNumber] = f
	}
	return f
}

// MergeVarint appends a varint-encoded unknown value for tagNumber.
func (b *Builder) MergeVarint(tagNumber int32, v uint64) *Builder {
	f := b.field(tagNumber)
	f.Varint = append(f.Varint, v)
	return b
}

// MergeFixed32 appends a fixed32-encoded unknown value for tagNumber.
func (b *Builder) MergeFixed32(tagNumber int32, v uint32) *Builder {
	f := b.field(tagNumber)
	f.Fixed32 = append(f.Fixed32, v)
	return b
}

// MergeFixed64 appends a fixed64-encoded unknown value for tagNumber.
func (b *Builder) MergeFixed64(tagNumber int32, v uint64) *Builder {
	f := b.field(tagNumber)
	f.Fixed64 = append(f.Fixed64, v)
	return b
}

// MergeLengthDelimited appends a length-delimited unknown value for
// tagNumber. v is copied defensively.
func (b *Builder) MergeLengthDelimited(tagNumber int32, v []byte) *Builder {
	f := b.field(tagNumber)
	cp := make([]byte, len(v))
	copy(cp, v)
	f.LengthDelimited = append(f.LengthDelimited, cp)
	return b
}

// MergeGroup appends a nested unknown-field group for tagNumber.
func (b *Builder) MergeGroup(tagNumber int32, g *Set) *Builder {
	f := b.field(tagNumber)
	f.Group = append(f.Group, g)
	return b
}

// MergeField dispatches tag (tagNumber, wt) already read from r: it reads
// whatever payload that wire type implies and records it under tagNumber.
// It returns false, without consuming anything further, when wt is
// END_GROUP — the sole mechanism by which a caller parsing a group's
// contents learns to stop (spec §4.2).
func (b *Builder) MergeField(tagNumber int32, wt wireformat.WireType, r *wireformat.Reader) (bool, error) {
	switch wt {
	case wireformat.WireVarint:
		v, err := r.ReadVarint64()
		if err != nil {
			return false, err
		}
		b.MergeVarint(tagNumber, v)
		return true, nil

	case wireformat.WireFixed32:
		v, err := r.ReadFixed32()
		if err != nil {
			return false, err
		}
		b.MergeFixed32(tagNumber, v)
		return true, nil

	case wireformat.WireFixed64:
		v, err := r.ReadFixed64()
		if err != nil {
			return false, err
		}
		b.MergeFixed64(tagNumber, v)
		return true, nil

	case wireformat.WireBytes:
		v, err := r.ReadBytes()
		if err != nil {
			return false, err
		}
		b.MergeLengthDelimited(tagNumber, v)
		return true, nil

	case wireformat.WireStartGroup:
		if err := r.EnterMessage(); err != nil {
			return false, err
		}
		sub := NewBuilder()
		for {
			num, innerWT, err := r.ReadTag()
			if err != nil {
				r.ExitMessage()
				return false, err
			}
			cont, err := sub.MergeField(num, innerWT, r)
			if err != nil {
				r.ExitMessage()
				return false, err
			}
			if !cont {
				break
			}
		}
		r.ExitMessage()
		b.MergeGroup(tagNumber, sub.Build())
		return true, nil

	case wireformat.WireEndGroup:
		return false, nil

	default:
		return false, fmt.Errorf("%w: unrecognized wire type %v", perr.ErrMalformed, wt)
	}
}

// Build freezes the builder into a Set and resets the builder to empty, so
// the builder's internal maps can never be reached through the returned
// Set (spec §5's transitive-freeze invariant).
func (b *Builder) Build() *Set {
	s := &Set{fields: b.fields}
	b.fields = map[int32]*Field{}
	return s
}

// Set is a frozen, immutable collection of unknown fields indexed by tag
// number. Safe to share by reference across any number of readers.
type Set struct {
	fields map[int32]*Field
}

// Empty is the canonical empty Set.
var Empty = &Set{fields: map[int32]*Field{}}

// TagNumbers returns the set's tag numbers in ascending order — the
// canonical serialization order.
func (s *Set) TagNumbers() []int32 {
	nums := make([]int32, 0, len(s.fields))
	for n := range s.fields {
		nums = append(nums, n)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	return nums
}

// Get returns the Field recorded under tagNumber, or nil if none.
func (s *Set) Get(tagNumber int32) *Field { return s.fields[tagNumber] }

// Len reports how many distinct tag numbers are present.
func (s *Set) Len() int { return len(s.fields) }

// ToBuilder returns a Builder seeded with a defensive copy of this Set's
// contents, for callers that want to extend an existing frozen Set.
func (s *Set) ToBuilder() *Builder {
	b := NewBuilder()
	for n, f := range s.fields {
		b.fields[n] = f.clone()
	}
	return b
}

// MergeFrom returns a new Set that is the append-concatenation of s and
// other: for every tag number present in either, each category's sequence
// from other is appended after s's (spec §4.2 mergeFrom).
func (s *Set) MergeFrom(other *Set) *Set {
	b := s.ToBuilder()
	for _, n := range other.TagNumbers() {
		of := other.fields[n]
		f := b.field(n)
		f.Varint = append(f.Varint, of.Varint...)
		f.Fixed32 = append(f.Fixed32, of.Fixed32...)
		f.Fixed64 = append(f.Fixed64, of.Fixed64...)
		for _, ld := range of.LengthDelimited {
			cp := make([]byte, len(ld))
			copy(cp, ld)
			f.LengthDelimited = append(f.LengthDelimited, cp)
		}
		f.Group = append(f.Group, of.Group...)
	}
	return b.Build()
}

// WriteTo serializes the set to w: ascending tag number, and within a tag,
// varints, then fixed32s, then fixed64s, then length-delimited runs, then
// groups — the canonical order from spec §4.2.
func (s *Set) WriteTo(w *wireformat.Writer) error {
	for _, n := range s.TagNumbers() {
		f := s.fields[n]
		for _, v := range f.Varint {
			w.WriteTag(n, wireformat.WireVarint)
			w.WriteVarint64(v)
		}
		for _, v := range f.Fixed32 {
			w.WriteTag(n, wireformat.WireFixed32)
			w.WriteFixed32(v)
		}
		for _, v := range f.Fixed64 {
			w.WriteTag(n, wireformat.WireFixed64)
			w.WriteFixed64(v)
		}
		for _, v := range f.LengthDelimited {
			w.WriteTag(n, wireformat.WireBytes)
			w.WriteBytes(v)
		}
		for _, g := range f.Group {
			w.WriteTag(n, wireformat.WireStartGroup)
			if err := g.WriteTo(w); err != nil {
				return err
			}
			w.WriteTag(n, wireformat.WireEndGroup)
		}
	}
	return nil
}

// SerializedSize returns the exact number of bytes WriteTo would emit.
func (s *Set) SerializedSize() int {
	total := 0
	for _, n := range s.TagNumbers() {
		f := s.fields[n]
		for _, v := range f.Varint {
			total += wireformat.SizeTag(n) + wireformat.SizeVarint64(v)
		}
		for range f.Fixed32 {
			total += wireformat.SizeTag(n) + wireformat.SizeFixed32()
		}
		for range f.Fixed64 {
			total += wireformat.SizeTag(n) + wireformat.SizeFixed64()
		}
		for _, v := range f.LengthDelimited {
			total += wireformat.SizeTag(n) + wireformat.SizeBytes(len(v))
		}
		for _, g := range f.Group {
			total += wireformat.SizeTag(n)*2 + g.SerializedSize()
		}
	}
	return total
}

// Equal reports whether s and o hold the same tag numbers with the same
// per-category sequences, in order.
func (s *Set) Equal(o *Set) bool {
	if o == nil {
		return s.Len() == 0
	}
	if len(s.fields) != len(o.fields) {
		return false
	}
	for n, f := range s.fields {
		of, ok := o.fields[n]
		if !ok || !f.equal(of) {
			return false
		}
	}
	return true
}
