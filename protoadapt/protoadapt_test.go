package protoadapt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/protocore/protocore/dynamicpb"
	"github.com/protocore/protocore/fielddesc"
	"github.com/protocore/protocore/fieldset"
	"github.com/protocore/protocore/perr"
	"github.com/protocore/protocore/wireformat"
)

// widgetMD is shared by every call to widgetDescriptor, so messages built
// separately have the same descriptor; Equal compares descriptors by
// identity.
var widgetMD = func() *fielddesc.MessageDescriptor {
	md := fielddesc.NewMessageDescriptor("test.Widget")
	md.AddField(1, "name", fielddesc.TypeString, fielddesc.FieldOptions{})
	md.AddField(2, "count", fielddesc.TypeInt32, fielddesc.FieldOptions{})
	return md
}()

func widgetDescriptor() *fielddesc.MessageDescriptor { return widgetMD }

// otherWidget is a second concrete type satisfying Message.
type otherWidget struct{ *dynamicpb.Message }

func buildWidget(t *testing.T, name string, count int32) *dynamicpb.Message {
	t.Helper()
	md := widgetDescriptor()
	b := dynamicpb.NewBuilder(md)
	require.NoError(t, b.Set(md.FindFieldByNumber(1), fieldset.String(name)))
	require.NoError(t, b.Set(md.FindFieldByNumber(2), fieldset.Int32(count)))
	msg, err := b.BuildMessage()
	require.NoError(t, err)
	return msg
}

func TestDefaultInstanceForTypeIsEmpty(t *testing.T) {
	md := widgetDescriptor()
	d := DefaultInstanceForType(md)
	require.Same(t, md, d.Descriptor())
	require.Empty(t, AllFields(d))
}

func TestToByteArrayAndParseFromRoundTrip(t *testing.T) {
	md := widgetDescriptor()
	msg := buildWidget(t, "gadget", 3)

	data, err := ToByteArray(msg)
	require.NoError(t, err)

	got, err := ParseFrom(md, data, dynamicpb.ParseOptions{})
	require.NoError(t, err)
	require.True(t, Equal(msg, got), "round-tripped message %+v != original %+v", got, msg)
}

func TestParseFromWrapsInvalidProtocolBuffer(t *testing.T) {
	required := fielddesc.NewMessageDescriptor("test.Required")
	required.AddField(1, "name", fielddesc.TypeString, fielddesc.FieldOptions{Required: true})

	// Empty payload: the required field is missing.
	_, err := ParseFrom(required, nil, dynamicpb.ParseOptions{})
	require.ErrorIs(t, err, perr.ErrInvalidProtocolBuffer)
}

func TestEqualIgnoresConcreteTypeDifferencesButComparesContent(t *testing.T) {
	a := buildWidget(t, "gadget", 3)
	b := buildWidget(t, "gadget", 3)
	c := buildWidget(t, "gadget", 4)

	require.True(t, Equal(a, otherWidget{b}), "expected equal widgets to compare equal")
	require.False(t, Equal(a, otherWidget{c}), "expected widgets with different counts to compare unequal")
}

func TestHashConsistentWithEqual(t *testing.T) {
	a := buildWidget(t, "gadget", 3)
	b := buildWidget(t, "gadget", 3)
	c := buildWidget(t, "gadget", 4)

	ha, err := Hash(a)
	require.NoError(t, err)
	hb, err := Hash(b)
	require.NoError(t, err)
	hc, err := Hash(c)
	require.NoError(t, err)

	require.Equal(t, ha, hb, "equal messages should hash the same")
	require.NotEqual(t, ha, hc, "unequal messages should hash differently")
}

func TestWriteToMatchesSerializedSize(t *testing.T) {
	msg := buildWidget(t, "gadget", 3)
	n, err := SerializedSize(msg)
	require.NoError(t, err)
	w := wireformat.NewWriter()
	require.NoError(t, WriteTo(msg, w))
	require.Len(t, w.Bytes(), n)
}

func TestUnknownFieldsAffectEqualityAndHash(t *testing.T) {
	md := widgetDescriptor()
	w := wireformat.NewWriter()
	w.WriteTag(1, wireformat.WireBytes)
	w.WriteString("gadget")
	w.WriteTag(2, wireformat.WireVarint)
	w.WriteVarint64(3)
	w.WriteTag(999, wireformat.WireVarint)
	w.WriteVarint64(1)

	withUnknown, err := dynamicpb.UnmarshalPartial(md, w.Bytes(), dynamicpb.ParseOptions{})
	require.NoError(t, err)
	plain := buildWidget(t, "gadget", 3)

	require.False(t, Equal(withUnknown, plain), "messages differing only by an unknown field should not compare equal")

	h1, err := Hash(withUnknown)
	require.NoError(t, err)
	h2, err := Hash(plain)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2, "messages differing only by an unknown field should hash differently")
}

// TestAllFieldsIsInAscendingFieldNumberOrder uses go-cmp rather than a loop
// comparison so a future field addition that breaks ordering fails with a
// readable diff instead of an opaque index mismatch.
func TestAllFieldsIsInAscendingFieldNumberOrder(t *testing.T) {
	md := widgetDescriptor()
	b := dynamicpb.NewBuilder(md)
	require.NoError(t, b.Set(md.FindFieldByNumber(2), fieldset.Int32(1)))
	require.NoError(t, b.Set(md.FindFieldByNumber(1), fieldset.String("z")))
	msg, err := b.BuildMessage()
	require.NoError(t, err)

	var got []int32
	for _, fd := range AllFields(msg) {
		got = append(got, fd.Number())
	}
	want := []int32{1, 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("AllFields() field-number order mismatch (-want +got):\n%s", diff)
	}
}
