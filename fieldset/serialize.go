package fieldset

import (
	"fmt"

	"github.com/protocore/protocore/fielddesc"
	"github.com/protocore/protocore/wireformat"
)

// wireTypeFor returns the wire type a FieldType serializes as (spec §4.1's
// wire-type mapping table).
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
		panic(fmt.Sprintf("fieldset: unrecognized field type %v", t))
	}
}

// isPackable reports whether t's wire type is eligible for packed
// encoding: varint, fixed32, or fixed64 (length-delimited and group types
// are never packed).
func isPackable(t fielddesc.FieldType) bool {
	switch wireTypeFor(t) {
	case wireformat.WireVarint, wireformat.WireFixed32, wireformat.WireFixed64:
		return true
	default:
		return false
	}
}

// WriteTo serializes fs in canonical ascending-field-number order (spec
// §4.3/§8): packed repeated scalars as one length-delimited run, extension
// fields of a message-set-wire-format message in the legacy group-wrapped
// encoding, everything else as one tag+value per element.
func (fs *FieldSet) WriteTo(w *wireformat.Writer) error {
	for _, num := range fs.FieldNumbers() {
		e := fs.entries[num]
		if e.fd.IsExtension() && e.fd.ContainingType().MessageSetWireFormat() {
			if err := writeMessageSetEntry(w, e); err != nil {
				return err
			}
			continue
		}
		if err := writeEntry(w, e); err != nil {
			return err
		}
	}
	return nil
}

func writeMessageSetEntry(w *wireformat.Writer, e *entry) error {
	m := e.v.Message()
	if m == nil {
		return nil
	}
	payload := wireformat.NewWriter()
	if err := writeSubMessage(payload, m); err != nil {
		return err
	}
	w.WriteMessageSetExtension(e.fd.Number(), payload.Bytes())
	return nil
}

func writeEntry(w *wireformat.Writer, e *entry) error {
	fd := e.fd
	wt := wireTypeFor(fd.Type())

	if !fd.IsRepeated() {
		return writeElement(w, fd.Number(), wt, fd.Type(), e.v)
	}

	if fd.IsPacked() && isPackable(fd.Type()) && e.v.Len() > 0 {
		payload := wireformat.NewWriter()
		for i := 0; i < e.v.Len(); i++ {
			if err := writeValue(payload, fd.Type(), e.v.elementAt(i)); err != nil {
				return err
			}
		}
		w.WriteTag(fd.Number(), wireformat.WireBytes)
		w.WriteBytes(payload.Bytes())
		return nil
	}

	for i := 0; i < e.v.Len(); i++ {
		if err := writeElement(w, fd.Number(), wt, fd.Type(), e.v.elementAt(i)); err != nil {
			return err
		}
	}
	return nil
}

func writeElement(w *wireformat.Writer, number int32, wt wireformat.WireType, ft fielddesc.FieldType, v Value) error {
	w.WriteTag(number, wt)
	if err := writeValue(w, ft, v); err != nil {
		return err
	}
	if wt == wireformat.WireStartGroup {
		w.WriteTag(number, wireformat.WireEndGroup)
	}
	return nil
}

func writeValue(w *wireformat.Writer, ft fielddesc.FieldType, v Value) error {
	switch ft {
	case fielddesc.TypeBool:
		w.WriteBool(v.Bool())
	case fielddesc.TypeInt32:
		w.WriteVarint64(uint64(v.Int32()))
	case fielddesc.TypeEnum:
		ev := v.Enum()
		num := int32(0)
		if ev != nil {
			num = ev.Number()
		}
		w.WriteVarint64(uint64(num))
	case fielddesc.TypeSint32:
		w.WriteVarint32(wireformat.EncodeZigZag32(v.Int32()))
	case fielddesc.TypeSfixed32, fielddesc.TypeFixed32:
		w.WriteFixed32(uint32(v.Int32()))
	case fielddesc.TypeUint32:
		w.WriteVarint32(v.Uint32())
	case fielddesc.TypeInt64:
		w.WriteVarint64(uint64(v.Int64()))
	case fielddesc.TypeSint64:
		w.WriteVarint64(wireformat.EncodeZigZag64(v.Int64()))
	case fielddesc.TypeSfixed64, fielddesc.TypeFixed64:
		w.WriteFixed64(uint64(v.Int64()))
	case fielddesc.TypeUint64:
		w.WriteVarint64(v.Uint64())
	case fielddesc.TypeFloat:
		w.WriteFloat(v.Float32())
	case fielddesc.TypeDouble:
		w.WriteDouble(v.Float64())
	case fielddesc.TypeBytes:
		w.WriteBytes(v.Bytes())
	case fielddesc.TypeString:
		w.WriteString(v.String())
	case fielddesc.TypeMessage:
		return w.WriteRawMessage(func(sub *wireformat.Writer) error {
			return writeSubMessage(sub, v.Message())
		})
	case fielddesc.TypeGroup:
		return writeSubMessage(w, v.Message())
	default:
		return fmt.Errorf("fieldset: unrecognized field type %v", ft)
	}
	return nil
}

func writeSubMessage(w *wireformat.Writer, m SubMessage) error {
	if wr, ok := m.(interface {
		WriteTo(*wireformat.Writer) error
	}); ok {
		return wr.WriteTo(w)
	}
	return fmt.Errorf("fieldset: sub-message %T does not support WriteTo", m)
}

// SerializedSize returns the exact number of bytes WriteTo would emit.
func (fs *FieldSet) SerializedSize() (int, error) {
	total := 0
	for _, num := range fs.FieldNumbers() {
		e := fs.entries[num]
		if e.fd.IsExtension() && e.fd.ContainingType().MessageSetWireFormat() {
			m := e.v.Message()
			if m == nil {
				continue
			}
			sz, err := subMessageSize(m)
			if err != nil {
				return 0, err
			}
			total += wireformat.SizeMessageSetExtension(e.fd.Number(), sz)
			continue
		}
		n, err := entrySize(e)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func entrySize(e *entry) (int, error) {
	fd := e.fd
	wt := wireTypeFor(fd.Type())

	if !fd.IsRepeated() {
		return elementSize(fd.Number(), wt, fd.Type(), e.v)
	}

	if fd.IsPacked() && isPackable(fd.Type()) && e.v.Len() > 0 {
		payloadSize := 0
		for i := 0; i < e.v.Len(); i++ {
			n, err := valueSize(fd.Type(), e.v.elementAt(i))
			if err != nil {
				return 0, err
			}
			payloadSize += n
		}
		return wireformat.SizeTag(fd.Number()) + wireformat.SizeBytes(payloadSize), nil
	}

	total := 0
	for i := 0; i < e.v.Len(); i++ {
		n, err := elementSize(fd.Number(), wt, fd.Type(), e.v.elementAt(i))
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func elementSize(number int32, wt wireformat.WireType, ft fielddesc.FieldType, v Value) (int, error) {
	n, err := valueSize(ft, v)
	if err != nil {
		return 0, err
	}
	size := wireformat.SizeTag(number) + n
	if wt == wireformat.WireStartGroup {
		size += wireformat.SizeTag(number)
	}
	return size, nil
}

func valueSize(ft fielddesc.FieldType, v Value) (int, error) {
	switch ft {
	case fielddesc.TypeBool:
		return 1, nil
	case fielddesc.TypeInt32:
		return wireformat.SizeVarint64(uint64(v.Int32())), nil
	case fielddesc.TypeEnum:
		ev := v.Enum()
		num := int32(0)
		if ev != nil {
			num = ev.Number()
		}
		return wireformat.SizeVarint64(uint64(num)), nil
	case fielddesc.TypeSint32:
		return wireformat.SizeVarint32(wireformat.EncodeZigZag32(v.Int32())), nil
	case fielddesc.TypeSfixed32, fielddesc.TypeFixed32, fielddesc.TypeFloat:
		return wireformat.SizeFixed32(), nil
	case fielddesc.TypeUint32:
		return wireformat.SizeVarint32(v.Uint32()), nil
	case fielddesc.TypeInt64:
		return wireformat.SizeVarint64(uint64(v.Int64())), nil
	case fielddesc.TypeSint64:
		return wireformat.SizeVarint64(wireformat.EncodeZigZag64(v.Int64())), nil
	case fielddesc.TypeSfixed64, fielddesc.TypeFixed64, fielddesc.TypeDouble:
		return wireformat.SizeFixed64(), nil
	case fielddesc.TypeUint64:
		return wireformat.SizeVarint64(v.Uint64()), nil
	case fielddesc.TypeBytes:
		return wireformat.SizeBytes(len(v.Bytes())), nil
	case fielddesc.TypeString:
		return wireformat.SizeBytes(len(v.String())), nil
	case fielddesc.TypeMessage:
		sz, err := subMessageSize(v.Message())
		if err != nil {
			return 0, err
		}
		return wireformat.SizeBytes(sz), nil
	case fielddesc.TypeGroup:
		return subMessageSize(v.Message())
	default:
		return 0, fmt.Errorf("fieldset: unrecognized field type %v", ft)
	}
}

func subMessageSize(m SubMessage) (int, error) {
	if sz, ok := m.(interface{ SerializedSize() (int, error) }); ok {
		return sz.SerializedSize()
	}
	return 0, fmt.Errorf("fieldset: sub-message %T does not support SerializedSize", m)
}
