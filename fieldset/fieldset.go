// Package fieldset implements the core descriptor-keyed heterogeneous map
// described in spec §4.3: FieldSet. Per the spec's design notes (§9), the
// mutable phase and the frozen phase are two distinct Go types — Builder
// and FieldSet — rather than one type with a frozen flag, so a mutation
// attempted on a published FieldSet is a compile error (there is no Set
// method on FieldSet) instead of a runtime FrozenMutation check.
package fieldset

import (
	"fmt"
	"sort"

	"github.com/protocore/protocore/fielddesc"
	"github.com/protocore/protocore/perr"
)

type entry struct {
	fd *fielddesc.FieldDescriptor
	v  Value
}

// Builder accumulates descriptor-keyed values before Build freezes them
// into a FieldSet. A Builder must not be used by more than one goroutine
// at a time (spec §5).
type Builder struct {
	entries map[int32]*entry
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{entries: map[int32]*entry{}}
}

// Get returns fd's stored value, or the spec §3 absence default: a
// singular scalar reports fd's DefaultValue when that is a fieldset.Value
// (any other DefaultValue is ignored and the mapped type's zero value is
// reported instead), a singular MESSAGE reports
// the zero Value (callers check Has first), and any repeated field
// reports the canonical empty sequence.
func (b *Builder) Get(fd *fielddesc.FieldDescriptor) Value {
	if e, ok := b.entries[fd.Number()]; ok {
		return e.v
	}
	return absentValue(fd)
}

func absentValue(fd *fielddesc.FieldDescriptor) Value {
	if fd.IsRepeated() {
		return EmptyRepeated(fd.MappedType())
	}
	if fd.MappedType() == fielddesc.MappedMessage {
		return Value{mt: fielddesc.MappedMessage}
	}
	if dv, ok := fd.DefaultValue().(Value); ok {
		return dv
	}
	return zeroValueFor(fd.MappedType())
}

func zeroValueFor(mt fielddesc.MappedType) Value {
	switch mt {
	case fielddesc.MappedInt32:
		return Int32(0)
	case fielddesc.MappedInt64:
		return Int64(0)
	case fielddesc.MappedUint32:
		return Uint32(0)
	case fielddesc.MappedUint64:
		return Uint64(0)
	case fielddesc.MappedFloat:
		return Float32(0)
	case fielddesc.MappedDouble:
		return Float64(0)
	case fielddesc.MappedBool:
		return Bool(false)
	case fielddesc.MappedString:
		return String("")
	case fielddesc.MappedBytes:
		return Bytes(nil)
	case fielddesc.MappedEnum:
		return Enum(nil)
	default:
		return Value{mt: mt}
	}
}

// Has reports whether a singular field is set. It is IllegalArgument to
// call on a repeated field (spec §4.3).
func (b *Builder) Has(fd *fielddesc.FieldDescriptor) (bool, error) {
	if fd.IsRepeated() {
		return false, fmt.Errorf("%w: Has called on repeated field %s", perr.ErrIllegalArgument, fieldLabel(fd))
	}
	_, ok := b.entries[fd.Number()]
	return ok, nil
}

// Set stores v under fd, replacing anything previously stored. v must
// satisfy VerifyType.
func (b *Builder) Set(fd *fielddesc.FieldDescriptor, v Value) error {
	if err := VerifyType(fd, v); err != nil {
		return err
	}
	b.entries[fd.Number()] = &entry{fd: fd, v: v}
	return nil
}

// ClearField removes fd's entry, if any.
func (b *Builder) ClearField(fd *fielddesc.FieldDescriptor) {
	delete(b.entries, fd.Number())
}

// GetRepeatedCount returns the number of elements stored for a repeated
// field, or 0 if absent. It is IllegalArgument to call on a singular
// field.
func (b *Builder) GetRepeatedCount(fd *fielddesc.FieldDescriptor) (int, error) {
	if !fd.IsRepeated() {
		return 0, fmt.Errorf("%w: GetRepeatedCount called on singular field %s", perr.ErrIllegalArgument, fieldLabel(fd))
	}
	e, ok := b.entries[fd.Number()]
	if !ok {
		return 0, nil
	}
	return e.v.Len(), nil
}

// AddRepeated appends elem (a singular Value matching fd's MappedType) to
// fd's sequence, creating it on first use.
func (b *Builder) AddRepeated(fd *fielddesc.FieldDescriptor, elem Value) error {
	if !fd.IsRepeated() {
		return fmt.Errorf("%w: AddRepeated called on singular field %s", perr.ErrIllegalArgument, fieldLabel(fd))
	}
	if err := verifyElement(fd, elem); err != nil {
		return err
	}
	e, ok := b.entries[fd.Number()]
	if !ok {
		e = &entry{fd: fd, v: EmptyRepeated(fd.MappedType())}
		b.entries[fd.Number()] = e
	}
	e.v = e.v.appended(elem)
	return nil
}

// SetElement replaces the element at index with elem. It is
// FieldIsNotRepeated-shaped IllegalArgument for a singular field, and
// OutOfRange when no such repeated field exists yet or index is beyond
// its current length (spec §9 open-question: the split between
// IllegalArgument and OutOfRange follows the source exactly).
func (b *Builder) SetElement(fd *fielddesc.FieldDescriptor, index int, elem Value) error {
	if !fd.IsRepeated() {
		return fmt.Errorf("%w: SetElement called on singular field %s", perr.ErrIllegalArgument, fieldLabel(fd))
	}
	e, ok := b.entries[fd.Number()]
	if !ok || index < 0 || index >= e.v.Len() {
		return fmt.Errorf("%w: index %d out of range for field %s", perr.ErrOutOfRange, index, fieldLabel(fd))
	}
	if err := verifyElement(fd, elem); err != nil {
		return err
	}
	e.v = e.v.withElementSet(index, elem)
	return nil
}

func verifyElement(fd *fielddesc.FieldDescriptor, elem Value) error {
	if elem.IsRepeated() || elem.MappedType() != fd.MappedType() {
		return typeMismatch(fd, elem.MappedType())
	}
	switch fd.MappedType() {
	case fielddesc.MappedEnum:
		if ev := elem.Enum(); ev != nil && ev.Enum() != fd.EnumType() {
			return fmt.Errorf("%w: field %s expects enum %s, got value of enum %s",
				perr.ErrTypeMismatch, fieldLabel(fd), fd.EnumType().FullName(), ev.Enum().FullName())
		}
	case fielddesc.MappedMessage:
		if m := elem.Message(); m != nil && m.Descriptor() != fd.MessageType() {
			return fmt.Errorf("%w: field %s expects message %s, got %s",
				perr.ErrTypeMismatch, fieldLabel(fd), fd.MessageType().FullName(), m.Descriptor().FullName())
		}
	}
	return nil
}

// MergeFrom unions other's entries into b, per spec §4.3: repeated fields
// concatenate, singular MESSAGE fields recursively merge when both sides
// are set, and every other singular field is overwritten.
func (b *Builder) MergeFrom(other *FieldSet) error {
	for _, num := range other.FieldNumbers() {
		oe := other.entries[num]
		fd := oe.fd
		existing, ok := b.entries[num]

		switch {
		case fd.IsRepeated():
			if ok {
				existing.v = existing.v.concatenated(oe.v)
			} else {
				b.entries[num] = &entry{fd: fd, v: oe.v}
			}

		case fd.MappedType() == fielddesc.MappedMessage && ok && existing.v.Message() != nil && oe.v.Message() != nil:
			sub := existing.v.Message().ToBuilder()
			if err := sub.MergeFrom(oe.v.Message()); err != nil {
				return err
			}
			merged, err := sub.Build()
			if err != nil {
				return err
			}
			existing.v = Message(merged)

		default:
			b.entries[num] = &entry{fd: fd, v: oe.v}
		}
	}
	return nil
}

// Build freezes b into a FieldSet and empties b, so the FieldSet's map can
// never be reached through further mutation of b (spec §5 publication
// invariant: once frozen, the underlying map is never shared with a
// mutable owner again).
func (b *Builder) Build() *FieldSet {
	fs := &FieldSet{entries: b.entries}
	b.entries = map[int32]*entry{}
	return fs
}

// FieldSet is a frozen, immutable descriptor→value map. Safe to share by
// reference across any number of concurrent readers.
type FieldSet struct {
	entries map[int32]*entry
}

// Empty is the canonical empty FieldSet.
var Empty = &FieldSet{entries: map[int32]*entry{}}

// FieldNumbers returns the set field numbers in ascending order — the
// canonical serialization order spec §3/§4.3 require.
func (fs *FieldSet) FieldNumbers() []int32 {
	nums := make([]int32, 0, len(fs.entries))
	for n := range fs.entries {
		nums = append(nums, n)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	return nums
}

// Get returns fd's value, or the spec §3 absence default.
func (fs *FieldSet) Get(fd *fielddesc.FieldDescriptor) Value {
	if e, ok := fs.entries[fd.Number()]; ok {
		return e.v
	}
	return absentValue(fd)
}

// Has reports whether a singular field is set; IllegalArgument on a
// repeated field.
func (fs *FieldSet) Has(fd *fielddesc.FieldDescriptor) (bool, error) {
	if fd.IsRepeated() {
		return false, fmt.Errorf("%w: Has called on repeated field %s", perr.ErrIllegalArgument, fieldLabel(fd))
	}
	_, ok := fs.entries[fd.Number()]
	return ok, nil
}

// GetRepeatedCount returns the number of elements stored for a repeated
// field, or 0 if absent; IllegalArgument on a singular field.
func (fs *FieldSet) GetRepeatedCount(fd *fielddesc.FieldDescriptor) (int, error) {
	if !fd.IsRepeated() {
		return 0, fmt.Errorf("%w: GetRepeatedCount called on singular field %s", perr.ErrIllegalArgument, fieldLabel(fd))
	}
	e, ok := fs.entries[fd.Number()]
	if !ok {
		return 0, nil
	}
	return e.v.Len(), nil
}

// FieldDescriptors returns the FieldDescriptor for each set field, in
// canonical ascending-number order.
func (fs *FieldSet) FieldDescriptors() []*fielddesc.FieldDescriptor {
	nums := fs.FieldNumbers()
	out := make([]*fielddesc.FieldDescriptor, len(nums))
	for i, n := range nums {
		out[i] = fs.entries[n].fd
	}
	return out
}

// ToBuilder returns a Builder seeded with fs's entries, for merge/copy
// workflows. Repeated-field slices are shared (Value's own copy-on-write
// append/withElementSet methods mean the builder's later mutations never
// observe the original FieldSet's backing arrays).
func (fs *FieldSet) ToBuilder() *Builder {
	b := NewBuilder()
	for n, e := range fs.entries {
		cp := *e
		b.entries[n] = &cp
	}
	return b
}

// IsInitialized reports whether every MESSAGE value this set holds
// (singular or each element of a repeated field) is itself initialized.
// It does NOT check this set's own required fields — that needs a
// descriptor, see IsInitializedWithRespectTo.
func (fs *FieldSet) IsInitialized() bool {
	for _, e := range fs.entries {
		if e.fd.MappedType() != fielddesc.MappedMessage {
			continue
		}
		if e.fd.IsRepeated() {
			for _, m := range e.v.MessageSlice() {
				if m != nil && !m.IsInitialized() {
					return false
				}
			}
		} else if m := e.v.Message(); m != nil && !m.IsInitialized() {
			return false
		}
	}
	return true
}

// IsInitializedWithRespectTo additionally requires every required field of
// md to be present.
func (fs *FieldSet) IsInitializedWithRespectTo(md *fielddesc.MessageDescriptor) bool {
	for _, fd := range md.Fields() {
		if fd.IsRequired() {
			if has, _ := fs.Has(fd); !has {
				return false
			}
		}
	}
	return fs.IsInitialized()
}

// Equal reports structural equality: same set of fields, with
// element-wise equal values.
func (fs *FieldSet) Equal(o *FieldSet) bool {
	if o == nil {
		return len(fs.entries) == 0
	}
	if len(fs.entries) != len(o.entries) {
		return false
	}
	for n, e := range fs.entries {
		oe, ok := o.entries[n]
		if !ok || !e.v.equal(oe.v) {
			return false
		}
	}
	return true
}
