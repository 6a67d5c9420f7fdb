// Package dynamicpb implements a descriptor-driven message representation
// with no generated Go type backing it (spec §4.4, "DynamicMessage" /
// "DynamicBuilder"). A Message pairs a *fielddesc.MessageDescriptor with a
// frozen *fieldset.FieldSet and a frozen *unknownfields.Set; a Builder is
// its mutable counterpart, mirroring the rest of this module's
// mutable-builder / frozen-value split.
//
// Grounded on the teacher's dynamic.Message, trimmed to the reflection
// surface spec §4.4 actually names: storage and type-checking are fully
// delegated to package fieldset rather than reimplemented with a
// map[int]interface{} the way the teacher's Message does it, since this
// module already built that map as a dedicated, independently-tested type.
package dynamicpb

import (
	"fmt"

	"github.com/protocore/protocore/fielddesc"
	"github.com/protocore/protocore/fieldset"
	"github.com/protocore/protocore/perr"
	"github.com/protocore/protocore/unknownfields"
	"github.com/protocore/protocore/wireformat"
)

// Message is an immutable, descriptor-typed protobuf message value.
type Message struct {
	md      *fielddesc.MessageDescriptor
	fields  *fieldset.FieldSet
	unknown *unknownfields.Set
}

func newMessage(md *fielddesc.MessageDescriptor, fs *fieldset.FieldSet, uf *unknownfields.Set) *Message {
	if fs == nil {
		fs = fieldset.Empty
	}
	if uf == nil {
		uf = unknownfields.Empty
	}
	return &Message{md: md, fields: fs, unknown: uf}
}

// NewMessage returns the canonical empty message for md: every field
// absent, reporting its descriptor's default values (spec §3).
func NewMessage(md *fielddesc.MessageDescriptor) *Message {
	return newMessage(md, fieldset.Empty, unknownfields.Empty)
}

// Descriptor returns m's message type.
func (m *Message) Descriptor() *fielddesc.MessageDescriptor { return m.md }

// Fields returns m's underlying known-field storage.
func (m *Message) Fields() *fieldset.FieldSet { return m.fields }

// UnknownFields returns the fields m's descriptor didn't recognize when m
// was parsed.
func (m *Message) UnknownFields() *unknownfields.Set { return m.unknown }

// Get returns fd's value, or its absence default.
func (m *Message) Get(fd *fielddesc.FieldDescriptor) fieldset.Value { return m.fields.Get(fd) }

// Has reports whether a singular field is set.
func (m *Message) Has(fd *fielddesc.FieldDescriptor) (bool, error) { return m.fields.Has(fd) }

// GetRepeatedCount reports a repeated field's element count.
func (m *Message) GetRepeatedCount(fd *fielddesc.FieldDescriptor) (int, error) {
	return m.fields.GetRepeatedCount(fd)
}

// IsInitialized reports whether every required field of m's own
// descriptor is set and every nested message is itself initialized.
func (m *Message) IsInitialized() bool {
	return m.fields.IsInitializedWithRespectTo(m.md)
}

// Equal reports whether other is a *Message of the same type with equal
// known fields and equal unknown fields.
func (m *Message) Equal(other fieldset.SubMessage) bool {
	o, ok := other.(*Message)
	if !ok || o == nil {
		return false
	}
	if m.md != o.md {
		return false
	}
	return m.fields.Equal(o.fields) && m.unknown.Equal(o.unknown)
}

// ToBuilder returns a Builder seeded with m's contents.
func (m *Message) ToBuilder() fieldset.SubMessageBuilder {
	return &Builder{md: m.md, fields: m.fields.ToBuilder(), unknown: m.unknown.ToBuilder()}
}

// WriteTo serializes m: known fields in ascending field-number order,
// then any unknown fields it carries (spec §4.4).
func (m *Message) WriteTo(w *wireformat.Writer) error {
	if err := m.fields.WriteTo(w); err != nil {
		return err
	}
	return m.unknown.WriteTo(w)
}

// SerializedSize returns the exact number of bytes WriteTo would emit.
func (m *Message) SerializedSize() (int, error) {
	n, err := m.fields.SerializedSize()
	if err != nil {
		return 0, err
	}
	return n + m.unknown.SerializedSize(), nil
}

// Marshal serializes m to a new byte slice.
func (m *Message) Marshal() ([]byte, error) {
	w := wireformat.NewWriter()
	if err := m.WriteTo(w); err != nil {
		return nil, err
	}
	return append([]byte(nil), w.Bytes()...), nil
}

// Unmarshal parses data as an encoding of md into a new, fully-validated
// Message: every required field must be present, recursively, or the
// call fails with perr.ErrUninitialized wrapped in perr.ErrInvalidProtocolBuffer
// (spec §4.4, §6).
func Unmarshal(md *fielddesc.MessageDescriptor, data []byte, opts ParseOptions) (*Message, error) {
	b := NewBuilder(md)
	r := wireformat.NewReader(data)
	r.SetMaxRecursionDepth(opts.maxDepth())
	if err := b.MergeWireFrom(r, opts); err != nil {
		return nil, fmt.Errorf("%w: %w", perr.ErrInvalidProtocolBuffer, err)
	}
	msg, err := b.BuildMessage()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", perr.ErrInvalidProtocolBuffer, err)
	}
	return msg, nil
}

// UnmarshalPartial is Unmarshal without the required-field check, for
// callers that intentionally work with partial messages (spec §4.4
// buildPartial).
func UnmarshalPartial(md *fielddesc.MessageDescriptor, data []byte, opts ParseOptions) (*Message, error) {
	b := NewBuilder(md)
	r := wireformat.NewReader(data)
	r.SetMaxRecursionDepth(opts.maxDepth())
	if err := b.MergeWireFrom(r, opts); err != nil {
		return nil, fmt.Errorf("%w: %w", perr.ErrInvalidProtocolBuffer, err)
	}
	return b.BuildPartial().(*Message), nil
}
