package dynamicpb

import (
	"fmt"

	"github.com/protocore/protocore/fielddesc"
	"github.com/protocore/protocore/fieldset"
	"github.com/protocore/protocore/perr"
	"github.com/protocore/protocore/unknownfields"
)

// Builder is the mutable counterpart of Message.
type Builder struct {
	md      *fielddesc.MessageDescriptor
	fields  *fieldset.Builder
	unknown *unknownfields.Builder
}

// NewBuilder returns an empty Builder for md.
func NewBuilder(md *fielddesc.MessageDescriptor) *Builder {
	return &Builder{md: md, fields: fieldset.NewBuilder(), unknown: unknownfields.NewBuilder()}
}

// Descriptor returns the message type b builds.
func (b *Builder) Descriptor() *fielddesc.MessageDescriptor { return b.md }

// Get returns fd's value, or its absence default.
func (b *Builder) Get(fd *fielddesc.FieldDescriptor) fieldset.Value { return b.fields.Get(fd) }

// Has reports whether a singular field is set.
func (b *Builder) Has(fd *fielddesc.FieldDescriptor) (bool, error) { return b.fields.Has(fd) }

// Set stores v under fd.
func (b *Builder) Set(fd *fielddesc.FieldDescriptor, v fieldset.Value) error {
	return b.fields.Set(fd, v)
}

// ClearField removes fd's entry, if any.
func (b *Builder) ClearField(fd *fielddesc.FieldDescriptor) { b.fields.ClearField(fd) }

// GetRepeatedCount reports a repeated field's element count.
func (b *Builder) GetRepeatedCount(fd *fielddesc.FieldDescriptor) (int, error) {
	return b.fields.GetRepeatedCount(fd)
}

// AddRepeated appends elem to fd's sequence.
func (b *Builder) AddRepeated(fd *fielddesc.FieldDescriptor, elem fieldset.Value) error {
	return b.fields.AddRepeated(fd, elem)
}

// SetElement replaces the element at index in fd's sequence.
func (b *Builder) SetElement(fd *fielddesc.FieldDescriptor, index int, elem fieldset.Value) error {
	return b.fields.SetElement(fd, index, elem)
}

// MergeFrom merges other's known and unknown fields into b. other must be
// a *Message of the same type as b, satisfying fieldset.SubMessage's
// contract for a recursive MESSAGE-field merge.
func (b *Builder) MergeFrom(other fieldset.SubMessage) error {
	m, ok := other.(*Message)
	if !ok || m == nil {
		return fmt.Errorf("%w: cannot merge %T into dynamicpb.Builder", perr.ErrTypeMismatch, other)
	}
	if m.md != b.md {
		return fmt.Errorf("%w: cannot merge message of type %s into builder of type %s",
			perr.ErrTypeMismatch, m.md.FullName(), b.md.FullName())
	}
	if err := b.fields.MergeFrom(m.fields); err != nil {
		return err
	}
	b.unknown = b.unknown.Build().MergeFrom(m.unknown).ToBuilder()
	return nil
}

// UninitializedError reports a Build failure due to a missing required
// field. It carries the partially-built message so a caller can inspect
// what was present at the time of failure (spec §4.4, §6: "Carries the
// partial message for diagnostic introspection").
type UninitializedError struct {
	Partial *Message
}

func (e *UninitializedError) Error() string {
	return fmt.Sprintf("%s: message %s is missing a required field", perr.ErrUninitialized, e.Partial.md.FullName())
}

func (e *UninitializedError) Unwrap() error { return perr.ErrUninitialized }

// Build freezes b into a fully-validated Message: every required field of
// b's descriptor must be set, recursively, or Build fails with an
// *UninitializedError (spec §4.4, §6). Either way, b is left usable
// afterward: freezing always restores b's builder state from what was just
// frozen, so a failed Build never strands the caller's work — a field can
// still be set and Build retried.
func (b *Builder) Build() (fieldset.SubMessage, error) {
	fs := b.fields.Build()
	uf := b.unknown.Build()
	b.fields = fs.ToBuilder()
	b.unknown = uf.ToBuilder()
	if !fs.IsInitializedWithRespectTo(b.md) {
		return nil, &UninitializedError{Partial: newMessage(b.md, fs, uf)}
	}
	return newMessage(b.md, fs, uf), nil
}

// BuildMessage is Build with its return value already asserted to
// *Message, for callers that don't need the fieldset.SubMessage interface.
func (b *Builder) BuildMessage() (*Message, error) {
	sm, err := b.Build()
	if err != nil {
		return nil, err
	}
	return sm.(*Message), nil
}

// BuildPartial freezes b into a Message without checking required fields.
func (b *Builder) BuildPartial() fieldset.SubMessage {
	fs := b.fields.Build()
	uf := b.unknown.Build()
	b.fields = fs.ToBuilder()
	b.unknown = uf.ToBuilder()
	return newMessage(b.md, fs, uf)
}
