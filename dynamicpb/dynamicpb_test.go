package dynamicpb

import (
	"errors"
	"testing"

	"github.com/protocore/protocore/extreg"
	"github.com/protocore/protocore/fielddesc"
	"github.com/protocore/protocore/fieldset"
	"github.com/protocore/protocore/perr"
	"github.com/protocore/protocore/wireformat"
)

func personDescriptor() *fielddesc.MessageDescriptor {
	md := fielddesc.NewMessageDescriptor("test.Person")
	md.AddField(1, "name", fielddesc.TypeString, fielddesc.FieldOptions{Required: true})
	md.AddField(2, "id", fielddesc.TypeInt32, fielddesc.FieldOptions{})
	return md
}

func TestScalarRoundTrip(t *testing.T) {
	md := personDescriptor()
	b := NewBuilder(md)
	if err := b.Set(md.FindFieldByNumber(1), fieldset.String("Ada")); err != nil {
		t.Fatalf("Set name: %v", err)
	}
	if err := b.Set(md.FindFieldByNumber(2), fieldset.Int32(42)); err != nil {
		t.Fatalf("Set id: %v", err)
	}
	msg, err := b.BuildMessage()
	if err != nil {
		t.Fatalf("BuildMessage: %v", err)
	}

	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := Unmarshal(md, data, ParseOptions{})
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !msg.Equal(got) {
		t.Errorf("round-tripped message %+v != original %+v", got, msg)
	}
}

func TestMissingRequiredFieldFailsBuild(t *testing.T) {
	md := personDescriptor()
	b := NewBuilder(md)
	b.Set(md.FindFieldByNumber(2), fieldset.Int32(1))
	_, err := b.BuildMessage()
	if !errors.Is(err, perr.ErrUninitialized) {
		t.Fatalf("expected ErrUninitialized, got %v", err)
	}
}

func TestUnmarshalMissingRequiredFieldFails(t *testing.T) {
	md := personDescriptor()
	w := wireformat.NewWriter()
	w.WriteTag(2, wireformat.WireVarint)
	w.WriteVarint64(1)

	_, err := Unmarshal(md, w.Bytes(), ParseOptions{})
	if !errors.Is(err, perr.ErrInvalidProtocolBuffer) || !errors.Is(err, perr.ErrUninitialized) {
		t.Fatalf("expected ErrInvalidProtocolBuffer wrapping ErrUninitialized, got %v", err)
	}
}

func TestUnmarshalPartialAllowsMissingRequiredField(t *testing.T) {
	md := personDescriptor()
	w := wireformat.NewWriter()
	w.WriteTag(2, wireformat.WireVarint)
	w.WriteVarint64(1)

	msg, err := UnmarshalPartial(md, w.Bytes(), ParseOptions{})
	if err != nil {
		t.Fatalf("UnmarshalPartial: %v", err)
	}
	if msg.IsInitialized() {
		t.Error("message missing required field should report not initialized")
	}
	if v := msg.Get(md.FindFieldByNumber(2)).Int32(); v != 1 {
		t.Errorf("id = %d, want 1", v)
	}
}

func TestUnknownFieldSurvivesDynamicRoundTrip(t *testing.T) {
	md := personDescriptor()
	w := wireformat.NewWriter()
	w.WriteTag(1, wireformat.WireBytes)
	w.WriteString("Grace")
	w.WriteTag(999, wireformat.WireVarint)
	w.WriteVarint64(17)

	msg, err := Unmarshal(md, w.Bytes(), ParseOptions{})
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if msg.UnknownFields().Len() != 1 {
		t.Fatalf("expected 1 unknown field, got %d", msg.UnknownFields().Len())
	}
	f := msg.UnknownFields().Get(999)
	if f == nil || len(f.Varint) != 1 || f.Varint[0] != 17 {
		t.Errorf("unexpected unknown field contents: %+v", f)
	}

	data, err := msg.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	msg2, err := Unmarshal(md, data, ParseOptions{})
	if err != nil {
		t.Fatalf("re-Unmarshal: %v", err)
	}
	if !msg.Equal(msg2) {
		t.Errorf("round-tripped message %+v != original %+v", msg2, msg)
	}
}

func TestNestedMessageFieldMergesAcrossRepeatedTag(t *testing.T) {
	inner := fielddesc.NewMessageDescriptor("test.Address")
	inner.AddField(1, "city", fielddesc.TypeString, fielddesc.FieldOptions{})
	inner.AddField(2, "zip", fielddesc.TypeString, fielddesc.FieldOptions{})

	outer := fielddesc.NewMessageDescriptor("test.Contact")
	addrFd := outer.AddField(1, "address", fielddesc.TypeMessage, fielddesc.FieldOptions{MessageType: inner})

	// Two separate occurrences of field 1 on the wire must merge into one
	// sub-message (protobuf singular-message-field merge semantics).
	innerB1 := NewBuilder(inner)
	innerB1.Set(inner.FindFieldByNumber(1), fieldset.String("Springfield"))
	msg1, err := innerB1.BuildMessage()
	if err != nil {
		t.Fatalf("build inner 1: %v", err)
	}
	innerB2 := NewBuilder(inner)
	innerB2.Set(inner.FindFieldByNumber(2), fieldset.String("00000"))
	msg2, err := innerB2.BuildMessage()
	if err != nil {
		t.Fatalf("build inner 2: %v", err)
	}

	w2 := wireformat.NewWriter()
	w2.WriteTag(addrFd.Number(), wireformat.WireBytes)
	if err := w2.WriteRawMessage(func(sub *wireformat.Writer) error { return msg1.WriteTo(sub) }); err != nil {
		t.Fatalf("write msg1: %v", err)
	}
	w2.WriteTag(addrFd.Number(), wireformat.WireBytes)
	if err := w2.WriteRawMessage(func(sub *wireformat.Writer) error { return msg2.WriteTo(sub) }); err != nil {
		t.Fatalf("write msg2: %v", err)
	}

	got, err := UnmarshalPartial(outer, w2.Bytes(), ParseOptions{})
	if err != nil {
		t.Fatalf("UnmarshalPartial: %v", err)
	}
	addr := got.Get(addrFd).Message().(*Message)
	if v := addr.Get(inner.FindFieldByNumber(1)).String(); v != "Springfield" {
		t.Errorf("city = %q, want Springfield", v)
	}
	if v := addr.Get(inner.FindFieldByNumber(2)).String(); v != "00000" {
		t.Errorf("zip = %q, want 00000", v)
	}
}

func TestGroupFieldRoundTrip(t *testing.T) {
	group := fielddesc.NewMessageDescriptor("test.Group.Tag")
	group.AddField(1, "value", fielddesc.TypeInt32, fielddesc.FieldOptions{})

	outer := fielddesc.NewMessageDescriptor("test.Group")
	gfd := outer.AddField(5, "tag", fielddesc.TypeGroup, fielddesc.FieldOptions{MessageType: group})

	w := wireformat.NewWriter()
	w.WriteTag(gfd.Number(), wireformat.WireStartGroup)
	w.WriteTag(1, wireformat.WireVarint)
	w.WriteVarint64(7)
	w.WriteTag(gfd.Number(), wireformat.WireEndGroup)

	got, err := UnmarshalPartial(outer, w.Bytes(), ParseOptions{})
	if err != nil {
		t.Fatalf("UnmarshalPartial: %v", err)
	}
	inner := got.Get(gfd).Message().(*Message)
	if v := inner.Get(group.FindFieldByNumber(1)).Int32(); v != 7 {
		t.Errorf("group field value = %d, want 7", v)
	}
}

func TestPackedUnpackedTolerance(t *testing.T) {
	md := fielddesc.NewMessageDescriptor("test.Nums")
	fd := md.AddField(1, "nums", fielddesc.TypeInt32, fielddesc.FieldOptions{Cardinality: fielddesc.Repeated})

	// Encode as packed even though fd.IsPacked() is false on this descriptor.
	w := wireformat.NewWriter()
	w.WriteTag(1, wireformat.WireBytes)
	payload := wireformat.NewWriter()
	payload.WriteVarint64(1)
	payload.WriteVarint64(2)
	w.WriteBytes(payload.Bytes())

	got, err := UnmarshalPartial(md, w.Bytes(), ParseOptions{})
	if err != nil {
		t.Fatalf("UnmarshalPartial: %v", err)
	}
	vals := got.Get(fd).Int32Slice()
	if len(vals) != 2 || vals[0] != 1 || vals[1] != 2 {
		t.Errorf("got %v, want [1 2]", vals)
	}
}

func TestExtensionFieldResolvedThroughRegistry(t *testing.T) {
	md := fielddesc.NewMessageDescriptor("test.Extendable")
	md.AddExtensionRange(100, 200)
	// The extension is declared on a separate descriptor of the same message
	// type, so md itself has no field 100 and the parser must resolve it
	// through the registry.
	extOwner := fielddesc.NewMessageDescriptor("test.Extendable")
	extFd := extOwner.AddField(100, "ext", fielddesc.TypeInt32, fielddesc.FieldOptions{Extension: true})

	reg := extreg.New()
	if err := reg.Add(extFd); err != nil {
		t.Fatalf("reg.Add: %v", err)
	}

	w := wireformat.NewWriter()
	w.WriteTag(100, wireformat.WireVarint)
	w.WriteVarint64(9)

	got, err := UnmarshalPartial(md, w.Bytes(), ParseOptions{Extensions: reg})
	if err != nil {
		t.Fatalf("UnmarshalPartial: %v", err)
	}
	if v := got.Get(extFd).Int32(); v != 9 {
		t.Errorf("extension value = %d, want 9", v)
	}
	if got.UnknownFields().Len() != 0 {
		t.Errorf("expected no unknown fields, got %+v", got.UnknownFields())
	}
}

func TestUnregisteredExtensionFieldBecomesUnknown(t *testing.T) {
	md := fielddesc.NewMessageDescriptor("test.Extendable")
	md.AddExtensionRange(100, 200)

	w := wireformat.NewWriter()
	w.WriteTag(100, wireformat.WireVarint)
	w.WriteVarint64(9)

	got, err := UnmarshalPartial(md, w.Bytes(), ParseOptions{})
	if err != nil {
		t.Fatalf("UnmarshalPartial: %v", err)
	}
	if got.UnknownFields().Len() != 1 {
		t.Errorf("expected the unrecognized extension to land in unknown fields, got %+v", got.UnknownFields())
	}
}

func TestOpenEnumUnknownValuePreserved(t *testing.T) {
	enum := fielddesc.NewEnumDescriptor("test.Color", fielddesc.EnumValue{Name: "RED", Number: 1})
	md := fielddesc.NewMessageDescriptor("test.Widget")
	fd := md.AddField(1, "color", fielddesc.TypeEnum, fielddesc.FieldOptions{EnumType: enum})

	w := wireformat.NewWriter()
	w.WriteTag(1, wireformat.WireVarint)
	w.WriteVarint64(99) // not a known enum value

	got, err := UnmarshalPartial(md, w.Bytes(), ParseOptions{})
	if err != nil {
		t.Fatalf("UnmarshalPartial: %v", err)
	}
	if has, _ := got.Has(fd); has {
		t.Error("unrecognized enum value should not populate the known field")
	}
	f := got.UnknownFields().Get(1)
	if f == nil || len(f.Varint) != 1 || f.Varint[0] != 99 {
		t.Errorf("expected unknown field 1 = [99], got %+v", f)
	}
}
