package dynamicpb

import (
	"fmt"

	"github.com/protocore/protocore/fielddesc"
	"github.com/protocore/protocore/fieldset"
	"github.com/protocore/protocore/perr"
	"github.com/protocore/protocore/unknownfields"
	"github.com/protocore/protocore/wireformat"
)

// MergeWireFrom parses tag/value pairs from r into b until r runs out or
// (when parsing a group's contents) an END_GROUP tag is read, implementing
// spec §4.4's tag-dispatch parse loop: a field number b's descriptor
// doesn't recognize is looked up in opts.Extensions when it lies in one of
// the descriptor's extension ranges, and otherwise (or when that lookup
// fails) diverted to the unknown-field set; a wire type that doesn't match what the resolved
// field expects is tolerated for repeated scalars (packed/unpacked
// tolerance, spec §4.1) and otherwise diverted to unknown fields as well;
// an ENUM value with no matching EnumValueDescriptor is diverted to
// unknown fields rather than rejected (spec §4.4's "open enum" handling).
// A START_GROUP on field 1 of a message-set-wire-format message is the
// legacy message-set item encoding and is parsed via mergeMessageSetItem,
// symmetric to fieldset.FieldSet.WriteTo's writeMessageSetEntry.
func (b *Builder) MergeWireFrom(r *wireformat.Reader, opts ParseOptions) error {
	for r.Len() > 0 {
		num, wt, err := r.ReadTag()
		if err != nil {
			return err
		}
		if wt == wireformat.WireEndGroup {
			return nil
		}
		if num == wireformat.MessageSetItemNumber && wt == wireformat.WireStartGroup && b.md.MessageSetWireFormat() {
			if err := b.mergeMessageSetItem(r, opts); err != nil {
				return err
			}
			continue
		}
		fd := b.md.FindFieldByNumber(num)
		if fd == nil && b.md.IsExtensionNumber(num) {
			fd = opts.Extensions.Find(b.md.FullName(), num)
		}
		if fd == nil {
			if _, err := b.unknown.MergeField(num, wt, r); err != nil {
				return err
			}
			continue
		}
		if err := b.mergeKnownField(fd, wt, r, opts); err != nil {
			return err
		}
	}
	return nil
}

// mergeMessageSetItem decodes one legacy message-set item: a type_id
// (field 2, varint) followed by the extension's serialized payload (field
// 3, length-delimited), wrapped in the start/end group already consumed by
// the caller up to the opening tag. Convention (and every protobuf
// implementation that writes this format) puts type_id before message, so
// the common case resolves the extension and decodes its payload in place
// on r — sharing r's recursion-depth tracking exactly like any other
// nested message. A message that arrives ahead of its type_id is buffered
// and, once the item ends, decoded if the type_id is registered. An item
// whose type_id is missing or unregistered is kept as an opaque nested
// group under tag 1 holding the type_id (as a varint under tag 2) and the
// raw payload (under tag 3), which a later WriteTo re-emits in that order.
func (b *Builder) mergeMessageSetItem(r *wireformat.Reader, opts ParseOptions) error {
	if err := r.EnterMessage(); err != nil {
		return err
	}
	defer r.ExitMessage()

	var (
		typeID      int32
		haveTypeID  bool
		rawPayload  []byte
		havePayload bool
	)
	for {
		num, wt, err := r.ReadTag()
		if err != nil {
			return err
		}
		if wt == wireformat.WireEndGroup {
			break
		}
		switch {
		case num == wireformat.MessageSetTypeIDNumber && wt == wireformat.WireVarint:
			v, err := r.ReadVarint32()
			if err != nil {
				return err
			}
			typeID, haveTypeID = int32(v), true

		case num == wireformat.MessageSetMessageNumber && wt == wireformat.WireBytes && haveTypeID:
			if fd := opts.Extensions.Find(b.md.FullName(), typeID); fd != nil {
				m, err := b.readLengthDelimitedMessage(fd.MessageType(), r, opts)
				if err != nil {
					return err
				}
				if err := b.mergeMessageField(fd, m); err != nil {
					return err
				}
				haveTypeID, havePayload = false, false
				continue
			}
			v, err := r.ReadBytes()
			if err != nil {
				return err
			}
			rawPayload, havePayload = v, true

		case num == wireformat.MessageSetMessageNumber && wt == wireformat.WireBytes:
			// message arrived ahead of its type_id: buffer it raw and
			// resolve once the loop ends, if a type_id ever shows up.
			v, err := r.ReadBytes()
			if err != nil {
				return err
			}
			rawPayload, havePayload = v, true

		default:
			if _, err := b.unknown.MergeField(num, wt, r); err != nil {
				return err
			}
		}
	}

	if !havePayload {
		return nil
	}
	if haveTypeID {
		if fd := opts.Extensions.Find(b.md.FullName(), typeID); fd != nil {
			sub := NewBuilder(fd.MessageType())
			pr := wireformat.NewReader(rawPayload)
			pr.SetMaxRecursionDepth(opts.maxDepth())
			if err := sub.MergeWireFrom(pr, opts); err != nil {
				return err
			}
			return b.mergeMessageField(fd, sub.BuildPartial().(*Message))
		}
	}

	item := unknownfields.NewBuilder()
	if haveTypeID {
		item.MergeVarint(wireformat.MessageSetTypeIDNumber, uint64(typeID))
	}
	item.MergeLengthDelimited(wireformat.MessageSetMessageNumber, rawPayload)
	b.unknown.MergeGroup(wireformat.MessageSetItemNumber, item.Build())
	return nil
}

// mergeMessageField stores m under fd, merging with any value fd already
// holds rather than replacing it — the same singular-message merge
// semantics mergeKnownField applies to an ordinary repeated tag occurrence
// (spec §4.4).
func (b *Builder) mergeMessageField(fd *fielddesc.FieldDescriptor, m *Message) error {
	if fd.IsRepeated() {
		return b.fields.AddRepeated(fd, fieldset.Message(m))
	}
	if has, _ := b.fields.Has(fd); has {
		sub := b.fields.Get(fd).Message().ToBuilder()
		if err := sub.MergeFrom(m); err != nil {
			return err
		}
		return b.fields.Set(fd, fieldset.Message(sub.BuildPartial()))
	}
	return b.fields.Set(fd, fieldset.Message(m))
}

func (b *Builder) mergeKnownField(fd *fielddesc.FieldDescriptor, wt wireformat.WireType, r *wireformat.Reader, opts ParseOptions) error {
	expected := wireTypeFor(fd.Type())

	// Packed/unpacked tolerance (spec §4.1): a repeated, packable field may
	// legally arrive as either a single length-delimited run or as
	// individual tag+value pairs, regardless of its own IsPacked() setting.
	if fd.IsRepeated() && isPackable(fd.Type()) && wt == wireformat.WireBytes && expected != wireformat.WireBytes {
		return b.mergePackedRun(fd, r)
	}
	if wt != expected {
		_, err := b.unknown.MergeField(fd.Number(), wt, r)
		return err
	}

	if fd.Type() == fielddesc.TypeEnum {
		n, err := r.ReadVarint32()
		if err != nil {
			return err
		}
		ev := fd.EnumType().FindValueByNumber(int32(n))
		if ev == nil {
			// Open-enum value with no matching descriptor entry: preserve
			// the raw number as an unknown field instead of rejecting the
			// whole message.
			b.unknown.MergeVarint(fd.Number(), uint64(n))
			return nil
		}
		if fd.IsRepeated() {
			return b.fields.AddRepeated(fd, fieldset.Enum(ev))
		}
		return b.fields.Set(fd, fieldset.Enum(ev))
	}

	if fd.MappedType() == fielddesc.MappedMessage {
		m, err := b.readSubMessage(fd, wt, r, opts)
		if err != nil {
			return err
		}
		return b.mergeMessageField(fd, m)
	}

	v, err := readScalar(fd.Type(), r)
	if err != nil {
		return err
	}
	if fd.IsRepeated() {
		return b.fields.AddRepeated(fd, v)
	}
	return b.fields.Set(fd, v)
}

func (b *Builder) mergePackedRun(fd *fielddesc.FieldDescriptor, r *wireformat.Reader) error {
	length, err := r.ReadLengthPrefix()
	if err != nil {
		return err
	}
	token, err := r.PushLimit(length)
	if err != nil {
		return err
	}
	defer r.PopLimit(token)
	for r.Len() > 0 {
		if fd.Type() == fielddesc.TypeEnum {
			n, err := r.ReadVarint32()
			if err != nil {
				return err
			}
			ev := fd.EnumType().FindValueByNumber(int32(n))
			if ev == nil {
				b.unknown.MergeVarint(fd.Number(), uint64(n))
				continue
			}
			if err := b.fields.AddRepeated(fd, fieldset.Enum(ev)); err != nil {
				return err
			}
			continue
		}
		v, err := readScalar(fd.Type(), r)
		if err != nil {
			return err
		}
		if err := b.fields.AddRepeated(fd, v); err != nil {
			return err
		}
	}
	return nil
}

// readSubMessage decodes one MESSAGE- or GROUP-typed field's value,
// recursing into a fresh Builder for fd.MessageType() and returning the
// partially-built result: required-field validation happens once, at the
// outermost Build call, not at every nesting level (spec §4.4).
func (b *Builder) readSubMessage(fd *fielddesc.FieldDescriptor, wt wireformat.WireType, r *wireformat.Reader, opts ParseOptions) (*Message, error) {
	if wt == wireformat.WireStartGroup {
		sub := NewBuilder(fd.MessageType())
		if err := r.EnterMessage(); err != nil {
			return nil, err
		}
		defer r.ExitMessage()
		if err := sub.MergeWireFrom(r, opts); err != nil {
			return nil, err
		}
		return sub.BuildPartial().(*Message), nil
	}
	return b.readLengthDelimitedMessage(fd.MessageType(), r, opts)
}

// readLengthDelimitedMessage decodes a length-prefixed MESSAGE payload in
// place on r via PushLimit/PopLimit, rather than copying it into a fresh
// Reader, so the recursion-depth guard stays shared across every nesting
// level (spec §5/§9). Shared by readSubMessage's non-group branch and
// mergeMessageSetItem's common (type_id-before-message) path.
func (b *Builder) readLengthDelimitedMessage(md *fielddesc.MessageDescriptor, r *wireformat.Reader, opts ParseOptions) (*Message, error) {
	sub := NewBuilder(md)
	length, err := r.ReadLengthPrefix()
	if err != nil {
		return nil, err
	}
	token, err := r.PushLimit(length)
	if err != nil {
		return nil, err
	}
	if err := r.EnterMessage(); err != nil {
		r.PopLimit(token)
		return nil, err
	}
	err = sub.MergeWireFrom(r, opts)
	r.ExitMessage()
	r.PopLimit(token)
	if err != nil {
		return nil, err
	}
	return sub.BuildPartial().(*Message), nil
}

// readScalar decodes one non-message, non-enum field value per its wire
// FieldType, applying zigzag decoding for SINT32/SINT64.
func readScalar(ft fielddesc.FieldType, r *wireformat.Reader) (fieldset.Value, error) {
	switch ft {
	case fielddesc.TypeBool:
		v, err := r.ReadBool()
		return fieldset.Bool(v), err
	case fielddesc.TypeInt32:
		v, err := r.ReadVarint64()
		return fieldset.Int32(int32(v)), err
	case fielddesc.TypeSint32:
		v, err := r.ReadVarint32()
		return fieldset.Int32(wireformat.DecodeZigZag32(v)), err
	case fielddesc.TypeSfixed32, fielddesc.TypeFixed32:
		v, err := r.ReadFixed32()
		return fieldset.Int32(int32(v)), err
	case fielddesc.TypeUint32:
		v, err := r.ReadVarint32()
		return fieldset.Uint32(v), err
	case fielddesc.TypeInt64:
		v, err := r.ReadVarint64()
		return fieldset.Int64(int64(v)), err
	case fielddesc.TypeSint64:
		v, err := r.ReadVarint64()
		return fieldset.Int64(wireformat.DecodeZigZag64(v)), err
	case fielddesc.TypeSfixed64, fielddesc.TypeFixed64:
		v, err := r.ReadFixed64()
		return fieldset.Int64(int64(v)), err
	case fielddesc.TypeUint64:
		v, err := r.ReadVarint64()
		return fieldset.Uint64(v), err
	case fielddesc.TypeFloat:
		v, err := r.ReadFloat()
		return fieldset.Float32(v), err
	case fielddesc.TypeDouble:
		v, err := r.ReadDouble()
		return fieldset.Float64(v), err
	case fielddesc.TypeBytes:
		v, err := r.ReadBytes()
		return fieldset.Bytes(v), err
	case fielddesc.TypeString:
		v, err := r.ReadString()
		return fieldset.String(v), err
	default:
		return fieldset.Value{}, fmt.Errorf("%w: field type %v is not a scalar", perr.ErrMalformed, ft)
	}
}

// wireTypeFor mirrors fieldset's own mapping (unexported there), needed
// here to decide packed/unpacked tolerance before a value is decoded.
func wireTypeFor(t fielddesc.FieldType) wireformat.WireType {
	switch t {
	case fielddesc.TypeInt32, fielddesc.TypeInt64, fielddesc.TypeUint32, fielddesc.TypeUint64,
		fielddesc.TypeSint32, fielddesc.TypeSint64, fielddesc.TypeBool, fielddesc.TypeEnum:
		return wireformat.WireVarint
	case fielddesc.TypeFixed64, fielddesc.TypeSfixed64, fielddesc.TypeDouble:
		return wireformat.WireFixed64
	case fielddesc.TypeString, fielddesc.TypeBytes, fielddesc.TypeMessage:
		return wireformat.WireBytes
	case fielddesc.TypeGroup:
		return wireformat.WireStartGroup
	case fielddesc.TypeFixed32, fielddesc.TypeSfixed32, fielddesc.TypeFloat:
		return wireformat.WireFixed32
	default:
		return wireformat.WireVarint
	}
}

// isPackable mirrors fieldset's own check (unexported there).
func isPackable(t fielddesc.FieldType) bool {
	switch wireTypeFor(t) {
	case wireformat.WireVarint, wireformat.WireFixed32, wireformat.WireFixed64:
		return true
	default:
		return false
	}
}
