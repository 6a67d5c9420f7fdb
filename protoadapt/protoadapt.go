// Package protoadapt is the generated-message adapter contract (spec
// §4.5, "GeneratedAdapter"): the minimal surface a concrete, code-generated
// Go struct must expose to participate in the rest of this module — wire
// codec, equality, hashing — on equal footing with a dynamicpb.Message.
//
// This module has no .proto compiler or code generator (out of scope, see
// SPEC_FULL.md's domain stack), so there is no generated struct to adapt
// here. What this package provides instead is the adapter itself: a set of
// free functions implemented once, in terms of fieldset.FieldSet and
// unknownfields.Set, that any future generated type satisfying the Message
// interface gets for free. dynamicpb.Message already satisfies it
// structurally, which is what gives dynamic and generated messages of the
// same descriptor byte-identical wire behavior (spec §8 scenario 6).
package protoadapt

import (
	"hash/fnv"

	"github.com/protocore/protocore/dynamicpb"
	"github.com/protocore/protocore/fielddesc"
	"github.com/protocore/protocore/fieldset"
	"github.com/protocore/protocore/unknownfields"
	"github.com/protocore/protocore/wireformat"
)

// Message is the minimal read surface a generated or dynamic message type
// must expose: its type, its known-field storage, and the fields its
// descriptor didn't recognize when it was built.
type Message interface {
	Descriptor() *fielddesc.MessageDescriptor
	Fields() *fieldset.FieldSet
	UnknownFields() *unknownfields.Set
}

// DescriptorForType returns m's message type — the "descriptorForType"
// operation of the generated-adapter contract.
func DescriptorForType(m Message) *fielddesc.MessageDescriptor { return m.Descriptor() }

// DefaultInstanceForType returns md's canonical empty message: every
// field absent, every accessor reporting its descriptor default. Since
// this module has no generated struct registry, the default instance for
// any descriptor is simply the empty dynamicpb.Message for it.
func DefaultInstanceForType(md *fielddesc.MessageDescriptor) Message {
	return dynamicpb.NewMessage(md)
}

// AllFields returns the FieldDescriptors m has a value for, in the
// canonical ascending-field-number order its wire encoding uses.
func AllFields(m Message) []*fielddesc.FieldDescriptor {
	return m.Fields().FieldDescriptors()
}

// WriteTo serializes m: its known fields in ascending field-number order,
// then its unknown fields.
func WriteTo(m Message, w *wireformat.Writer) error {
	if err := m.Fields().WriteTo(w); err != nil {
		return err
	}
	return m.UnknownFields().WriteTo(w)
}

// SerializedSize returns the exact number of bytes WriteTo would emit.
func SerializedSize(m Message) (int, error) {
	n, err := m.Fields().SerializedSize()
	if err != nil {
		return 0, err
	}
	return n + m.UnknownFields().SerializedSize(), nil
}

// ToByteArray serializes m to a new byte slice ("toByteArray").
func ToByteArray(m Message) ([]byte, error) {
	w := wireformat.NewWriter()
	if err := WriteTo(m, w); err != nil {
		return nil, err
	}
	return append([]byte(nil), w.Bytes()...), nil
}

// ToByteString is ToByteArray under the name the generated-adapter
// contract gives it for the length-delimited-embedding case (e.g. an
// outer message serializing m as one of its own fields).
func ToByteString(m Message) ([]byte, error) { return ToByteArray(m) }

// ParseFrom decodes data as an encoding of md. Any decode or
// uninitialized-message failure already arrives wrapped as
// perr.ErrInvalidProtocolBuffer from dynamicpb.Unmarshal (spec §4.5, §6).
func ParseFrom(md *fielddesc.MessageDescriptor, data []byte, opts dynamicpb.ParseOptions) (Message, error) {
	msg, err := dynamicpb.Unmarshal(md, data, opts)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// Equal reports structural equality: same message type, same known
// fields, same unknown fields. It does not require a and b to be the same
// concrete Go type, only to report the same Descriptor/Fields/UnknownFields.
func Equal(a, b Message) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Descriptor() != b.Descriptor() {
		return false
	}
	return a.Fields().Equal(b.Fields()) && a.UnknownFields().Equal(b.UnknownFields())
}

// Hash returns a structural hash of m consistent with Equal: two messages
// considered Equal serialize to identical bytes (serialization is a
// deterministic function of canonical field order), so hashing the
// serialized form never diverges from Equal the way hashing an arbitrary
// in-memory layout could.
func Hash(m Message) (uint64, error) {
	b, err := ToByteArray(m)
	if err != nil {
		return 0, err
	}
	h := fnv.New64a()
	h.Write(b)
	return h.Sum64(), nil
}
