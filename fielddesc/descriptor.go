// Package fielddesc is the read-only schema metadata model: the descriptors
// that a FieldSet is keyed by. It deliberately has no dependency on any
// .proto parser — descriptors here are built directly by a caller (normally
// the code generator or descriptor compiler, both out of scope for this
// module) via the constructor functions below, the same way
// desc.CreateFileDescriptor wires up a descriptor graph from a
// FileDescriptorProto, minus the proto-parsing step.
package fielddesc

import (
	"fmt"

	"google.golang.org/protobuf/types/descriptorpb"
)

// FieldType is the wire-level type of a field, exactly as protobuf's own
// descriptor.proto enumerates it.
type FieldType = descriptorpb.FieldDescriptorProto_Type

const (
	TypeDouble   = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
	TypeFloat    = descriptorpb.FieldDescriptorProto_TYPE_FLOAT
	TypeInt64    = descriptorpb.FieldDescriptorProto_TYPE_INT64
	TypeUint64   = descriptorpb.FieldDescriptorProto_TYPE_UINT64
	TypeInt32    = descriptorpb.FieldDescriptorProto_TYPE_INT32
	TypeFixed64  = descriptorpb.FieldDescriptorProto_TYPE_FIXED64
	TypeFixed32  = descriptorpb.FieldDescriptorProto_TYPE_FIXED32
	TypeBool     = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	TypeString   = descriptorpb.FieldDescriptorProto_TYPE_STRING
	TypeGroup    = descriptorpb.FieldDescriptorProto_TYPE_GROUP
	TypeMessage  = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	TypeBytes    = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	TypeUint32   = descriptorpb.FieldDescriptorProto_TYPE_UINT32
	TypeEnum     = descriptorpb.FieldDescriptorProto_TYPE_ENUM
	TypeSfixed32 = descriptorpb.FieldDescriptorProto_TYPE_SFIXED32
	TypeSfixed64 = descriptorpb.FieldDescriptorProto_TYPE_SFIXED64
	TypeSint32   = descriptorpb.FieldDescriptorProto_TYPE_SINT32
	TypeSint64   = descriptorpb.FieldDescriptorProto_TYPE_SINT64
)

// MappedType collapses the eighteen wire FieldTypes to the storage
// categories a FieldSet actually allocates slots for (spec §3's table).
type MappedType int8

const (
	MappedInt32 MappedType = iota
	MappedInt64
	MappedUint32
	MappedUint64
	MappedFloat
	MappedDouble
	MappedBool
	MappedString
	MappedBytes
	MappedEnum
	MappedMessage
)

func (mt MappedType) String() string {
	switch mt {
	case MappedInt32:
		return "int32"
	case MappedInt64:
		return "int64"
	case MappedUint32:
		return "uint32"
	case MappedUint64:
		return "uint64"
	case MappedFloat:
		return "float"
	case MappedDouble:
		return "double"
	case MappedBool:
		return "bool"
	case MappedString:
		return "string"
	case MappedBytes:
		return "bytes"
	case MappedEnum:
		return "enum"
	case MappedMessage:
		return "message"
	default:
		return "unknown"
	}
}

// MapType returns the storage category for a wire FieldType.
func MapType(t FieldType) MappedType {
	switch t {
	case TypeInt32, TypeSint32, TypeFixed32, TypeSfixed32:
		return MappedInt32
	case TypeInt64, TypeSint64, TypeFixed64, TypeSfixed64:
		return MappedInt64
	case TypeUint32:
		return MappedUint32
	case TypeUint64:
		return MappedUint64
	case TypeFloat:
		return MappedFloat
	case TypeDouble:
		return MappedDouble
	case TypeBool:
		return MappedBool
	case TypeString:
		return MappedString
	case TypeBytes:
		return MappedBytes
	case TypeEnum:
		return MappedEnum
	case TypeMessage, TypeGroup:
		return MappedMessage
	default:
		panic(fmt.Sprintf("fielddesc: unrecognized field type %v", t))
	}
}

// Cardinality is whether a field holds one value or a sequence.
type Cardinality int8

const (
	Singular Cardinality = iota
	Repeated
)

// EnumValueDescriptor names a single value of an EnumDescriptor.
type EnumValueDescriptor struct {
	enum   *EnumDescriptor
	name   string
	number int32
}

func (v *EnumValueDescriptor) Enum() *EnumDescriptor { return v.enum }
func (v *EnumValueDescriptor) Name() string           { return v.name }
func (v *EnumValueDescriptor) Number() int32          { return v.number }

// EnumDescriptor is the read-only schema metadata for an enum type.
type EnumDescriptor struct {
	fullName string
	byNumber map[int32]*EnumValueDescriptor
	values   []*EnumValueDescriptor
}

// EnumValue is one (name, number) pair passed to NewEnumDescriptor.
type EnumValue struct {
	Name   string
	Number int32
}

// NewEnumDescriptor constructs an EnumDescriptor with the given values.
// Duplicate numbers keep the first value registered for FindValueByNumber,
// mirroring protobuf's own "aliasing" allowance.
func NewEnumDescriptor(fullName string, values ...EnumValue) *EnumDescriptor {
	ed := &EnumDescriptor{
		fullName: fullName,
		byNumber: make(map[int32]*EnumValueDescriptor, len(values)),
	}
	for _, v := range values {
		vd := &EnumValueDescriptor{enum: ed, name: v.Name, number: v.Number}
		ed.values = append(ed.values, vd)
		if _, ok := ed.byNumber[v.Number]; !ok {
			ed.byNumber[v.Number] = vd
		}
	}
	return ed
}

func (ed *EnumDescriptor) FullName() string                  { return ed.fullName }
func (ed *EnumDescriptor) Values() []*EnumValueDescriptor     { return ed.values }
func (ed *EnumDescriptor) FindValueByNumber(n int32) *EnumValueDescriptor {
	return ed.byNumber[n]
}

// FieldDescriptor is the immutable metadata for a single field, as
// enumerated in spec §3.
type FieldDescriptor struct {
	owner        *MessageDescriptor
	number       int32
	name         string
	fullName     string
	fieldType    FieldType
	cardinality  Cardinality
	packed       bool
	required     bool
	extension    bool
	messageType  *MessageDescriptor
	enumType     *EnumDescriptor
	defaultValue any
}

// FieldOptions configures a FieldDescriptor built via AddField.
type FieldOptions struct {
	Cardinality  Cardinality
	Packed       bool
	Required     bool
	Extension    bool
	MessageType  *MessageDescriptor
	EnumType     *EnumDescriptor
	DefaultValue any
}

func (fd *FieldDescriptor) Number() int32            { return fd.number }
func (fd *FieldDescriptor) Name() string              { return fd.name }
func (fd *FieldDescriptor) FullName() string          { return fd.fullName }
func (fd *FieldDescriptor) Type() FieldType            { return fd.fieldType }
func (fd *FieldDescriptor) MappedType() MappedType     { return MapType(fd.fieldType) }
func (fd *FieldDescriptor) Cardinality() Cardinality   { return fd.cardinality }
func (fd *FieldDescriptor) IsRepeated() bool           { return fd.cardinality == Repeated }
func (fd *FieldDescriptor) IsPacked() bool             { return fd.packed && fd.IsRepeated() }
func (fd *FieldDescriptor) IsRequired() bool           { return fd.required }
func (fd *FieldDescriptor) IsExtension() bool          { return fd.extension }
func (fd *FieldDescriptor) ContainingType() *MessageDescriptor { return fd.owner }
func (fd *FieldDescriptor) MessageType() *MessageDescriptor    { return fd.messageType }
func (fd *FieldDescriptor) EnumType() *EnumDescriptor          { return fd.enumType }
func (fd *FieldDescriptor) DefaultValue() any                  { return fd.defaultValue }

// MessageDescriptor is the read-only schema metadata for a message type.
type MessageDescriptor struct {
	fullName            string
	fields              []*FieldDescriptor
	byNumber            map[int32]*FieldDescriptor
	byName              map[string]*FieldDescriptor
	extensionRanges      [][2]int32
	messageSetWireFormat bool
}

// NewMessageDescriptor constructs an empty MessageDescriptor; fields are
// added afterward with AddField so that self-referential (recursive)
// message types can be built: create the descriptor, then add a field whose
// MessageType points back to it.
func NewMessageDescriptor(fullName string) *MessageDescriptor {
	return &MessageDescriptor{
		fullName: fullName,
		byNumber: map[int32]*FieldDescriptor{},
		byName:   map[string]*FieldDescriptor{},
	}
}

// SetMessageSetWireFormat marks this message as using the legacy
// message-set extension encoding (spec §4.1/§4.3).
func (md *MessageDescriptor) SetMessageSetWireFormat(v bool) { md.messageSetWireFormat = v }

// MessageSetWireFormat reports whether this message uses message-set
// extension encoding.
func (md *MessageDescriptor) MessageSetWireFormat() bool { return md.messageSetWireFormat }

// AddExtensionRange declares [from, to) as reserved for extension fields.
func (md *MessageDescriptor) AddExtensionRange(from, to int32) {
	md.extensionRanges = append(md.extensionRanges, [2]int32{from, to})
}

// IsExtensionNumber reports whether a given field number falls within a declared
// extension range.
func (md *MessageDescriptor) IsExtensionNumber(n int32) bool {
	for _, r := range md.extensionRanges {
		if n >= r[0] && n < r[1] {
			return true
		}
	}
	return false
}

func (md *MessageDescriptor) IsExtendable() bool { return len(md.extensionRanges) > 0 }

// AddField appends a field to this message's descriptor, in declaration
// order; callers are responsible for keeping numbers unique. Returns the
// new FieldDescriptor so callers can wire it as another descriptor's
// MessageType for recursive schemas.
func (md *MessageDescriptor) AddField(number int32, name string, t FieldType, opts FieldOptions) *FieldDescriptor {
	fd := &FieldDescriptor{
		owner:        md,
		number:       number,
		name:         name,
		fullName:     md.fullName + "." + name,
		fieldType:    t,
		cardinality:  opts.Cardinality,
		packed:       opts.Packed,
		required:     opts.Required,
		extension:    opts.Extension,
		messageType:  opts.MessageType,
		enumType:     opts.EnumType,
		defaultValue: opts.DefaultValue,
	}
	md.fields = append(md.fields, fd)
	md.byNumber[number] = fd
	md.byName[name] = fd
	return fd
}

func (md *MessageDescriptor) FullName() string { return md.fullName }

// Fields returns fields in declaration order; callers needing canonical
// ascending-field-number (serialization) order should use
// fieldset.FieldSet's own iteration rather than sorting this slice, since a
// FieldSet's own entries are what gets serialized.
func (md *MessageDescriptor) Fields() []*FieldDescriptor { return md.fields }

func (md *MessageDescriptor) FindFieldByNumber(n int32) *FieldDescriptor { return md.byNumber[n] }
func (md *MessageDescriptor) FindFieldByName(s string) *FieldDescriptor { return md.byName[s] }
