package fieldset

import (
	"errors"
	"testing"

	"github.com/protocore/protocore/fielddesc"
	"github.com/protocore/protocore/perr"
	"github.com/protocore/protocore/wireformat"
)

func scalarMessage() *fielddesc.MessageDescriptor {
	md := fielddesc.NewMessageDescriptor("test.Scalars")
	md.AddField(1, "i32", fielddesc.TypeInt32, fielddesc.FieldOptions{})
	md.AddField(2, "flag", fielddesc.TypeBool, fielddesc.FieldOptions{})
	md.AddField(3, "name", fielddesc.TypeString, fielddesc.FieldOptions{})
	return md
}

// TestScalarsRoundTrip matches spec §8 scenario 1.
func TestScalarsRoundTrip(t *testing.T) {
	md := scalarMessage()
	b := NewBuilder()
	if err := b.Set(md.FindFieldByNumber(1), Int32(150)); err != nil {
		t.Fatalf("Set i32: %v", err)
	}
	if err := b.Set(md.FindFieldByNumber(2), Bool(true)); err != nil {
		t.Fatalf("Set flag: %v", err)
	}
	if err := b.Set(md.FindFieldByNumber(3), String("hi")); err != nil {
		t.Fatalf("Set name: %v", err)
	}
	fs := b.Build()

	w := wireformat.NewWriter()
	if err := fs.WriteTo(w); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	size, err := fs.SerializedSize()
	if err != nil {
		t.Fatalf("SerializedSize: %v", err)
	}
	if size != len(w.Bytes()) {
		t.Errorf("SerializedSize=%d, len(written)=%d", size, len(w.Bytes()))
	}

	r := wireformat.NewReader(w.Bytes())
	b2 := NewBuilder()
	for r.Len() > 0 {
		num, wt, err := r.ReadTag()
		if err != nil {
			t.Fatalf("ReadTag: %v", err)
		}
		fd := md.FindFieldByNumber(num)
		if fd == nil {
			t.Fatalf("unexpected field number %d", num)
		}
		switch wt {
		case wireformat.WireVarint:
			v, err := r.ReadVarint64()
			if err != nil {
				t.Fatalf("ReadVarint64: %v", err)
			}
			switch fd.MappedType() {
			case fielddesc.MappedInt32:
				if err := b2.Set(fd, Int32(int32(v))); err != nil {
					t.Fatal(err)
				}
			case fielddesc.MappedBool:
				if err := b2.Set(fd, Bool(v != 0)); err != nil {
					t.Fatal(err)
				}
			}
		case wireformat.WireBytes:
			s, err := r.ReadString()
			if err != nil {
				t.Fatalf("ReadString: %v", err)
			}
			if err := b2.Set(fd, String(s)); err != nil {
				t.Fatal(err)
			}
		}
	}
	fs2 := b2.Build()
	if !fs.Equal(fs2) {
		t.Errorf("round-tripped FieldSet %+v != original %+v", fs2, fs)
	}
}

// TestPackedRepeatedInt32Encoding matches spec §8 scenario 2.
func TestPackedRepeatedInt32Encoding(t *testing.T) {
	md := fielddesc.NewMessageDescriptor("test.Packed")
	fd := md.AddField(5, "nums", fielddesc.TypeInt32, fielddesc.FieldOptions{Cardinality: fielddesc.Repeated, Packed: true})

	b := NewBuilder()
	if err := b.Set(fd, RepeatedInt32([]int32{1, 2, 150})); err != nil {
		t.Fatalf("Set: %v", err)
	}
	fs := b.Build()

	w := wireformat.NewWriter()
	if err := fs.WriteTo(w); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	want := []byte{0x2a, 0x04, 0x01, 0x02, 0x96, 0x01}
	if string(w.Bytes()) != string(want) {
		t.Errorf("WriteTo = % x, want % x", w.Bytes(), want)
	}
	size, err := fs.SerializedSize()
	if err != nil {
		t.Fatalf("SerializedSize: %v", err)
	}
	if size != len(want) {
		t.Errorf("SerializedSize=%d, want %d", size, len(want))
	}
}

func TestUnpackedRepeatedEmitsOneTagPerElement(t *testing.T) {
	md := fielddesc.NewMessageDescriptor("test.Unpacked")
	fd := md.AddField(1, "nums", fielddesc.TypeInt32, fielddesc.FieldOptions{Cardinality: fielddesc.Repeated})

	b := NewBuilder()
	if err := b.Set(fd, RepeatedInt32([]int32{1, 2})); err != nil {
		t.Fatalf("Set: %v", err)
	}
	fs := b.Build()

	w := wireformat.NewWriter()
	if err := fs.WriteTo(w); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	want := []byte{0x08, 0x01, 0x08, 0x02}
	if string(w.Bytes()) != string(want) {
		t.Errorf("WriteTo = % x, want % x", w.Bytes(), want)
	}
}

func TestMergeFromConcatenatesRepeatedFields(t *testing.T) {
	md := fielddesc.NewMessageDescriptor("test.Merge")
	fd := md.AddField(1, "nums", fielddesc.TypeInt32, fielddesc.FieldOptions{Cardinality: fielddesc.Repeated})

	b1 := NewBuilder()
	b1.Set(fd, RepeatedInt32([]int32{1, 2}))
	fs1 := b1.Build()

	b2 := NewBuilder()
	b2.Set(fd, RepeatedInt32([]int32{3, 4}))
	fs2 := b2.Build()

	merged := fs1.ToBuilder()
	if err := merged.MergeFrom(fs2); err != nil {
		t.Fatalf("MergeFrom: %v", err)
	}
	result := merged.Build()
	got := result.Get(fd).Int32Slice()
	want := []int32{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestBuildFreezesBuilderState(t *testing.T) {
	md := scalarMessage()
	fd := md.FindFieldByNumber(1)

	b := NewBuilder()
	b.Set(fd, Int32(1))
	fs1 := b.Build()
	b.Set(fd, Int32(2))
	fs2 := b.Build()

	if v := fs1.Get(fd).Int32(); v != 1 {
		t.Errorf("fs1 mutated after later Build: got %d, want 1", v)
	}
	if v := fs2.Get(fd).Int32(); v != 2 {
		t.Errorf("fs2: got %d, want 2", v)
	}
}

func TestVerifyTypeRejectsMappedTypeMismatch(t *testing.T) {
	md := scalarMessage()
	fd := md.FindFieldByNumber(1) // int32

	b := NewBuilder()
	err := b.Set(fd, String("oops"))
	if !errors.Is(err, perr.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestVerifyTypeRejectsCardinalityMismatch(t *testing.T) {
	md := scalarMessage()
	fd := md.FindFieldByNumber(1) // singular int32

	b := NewBuilder()
	err := b.Set(fd, RepeatedInt32([]int32{1}))
	if !errors.Is(err, perr.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestHasRejectsRepeatedField(t *testing.T) {
	md := fielddesc.NewMessageDescriptor("test.HasRepeated")
	fd := md.AddField(1, "nums", fielddesc.TypeInt32, fielddesc.FieldOptions{Cardinality: fielddesc.Repeated})

	b := NewBuilder()
	_, err := b.Has(fd)
	if !errors.Is(err, perr.ErrIllegalArgument) {
		t.Fatalf("expected ErrIllegalArgument, got %v", err)
	}
}

func TestSetElementOutOfRangeOnAbsentField(t *testing.T) {
	md := fielddesc.NewMessageDescriptor("test.SetElement")
	fd := md.AddField(1, "nums", fielddesc.TypeInt32, fielddesc.FieldOptions{Cardinality: fielddesc.Repeated})

	b := NewBuilder()
	err := b.SetElement(fd, 0, Int32(5))
	if !errors.Is(err, perr.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestSetElementIllegalArgumentOnSingularField(t *testing.T) {
	md := scalarMessage()
	fd := md.FindFieldByNumber(1)

	b := NewBuilder()
	err := b.SetElement(fd, 0, Int32(5))
	if !errors.Is(err, perr.ErrIllegalArgument) {
		t.Fatalf("expected ErrIllegalArgument, got %v", err)
	}
}

func TestIsInitializedWithRespectToRequiredField(t *testing.T) {
	md := fielddesc.NewMessageDescriptor("test.Required")
	fd := md.AddField(1, "id", fielddesc.TypeInt32, fielddesc.FieldOptions{Required: true})

	empty := Empty
	if empty.IsInitializedWithRespectTo(md) {
		t.Error("empty FieldSet should not be initialized when a required field is defined")
	}

	b := NewBuilder()
	b.Set(fd, Int32(1))
	fs := b.Build()
	if !fs.IsInitializedWithRespectTo(md) {
		t.Error("FieldSet with required field set should be initialized")
	}
}
