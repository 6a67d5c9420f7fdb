package fieldset

import "github.com/protocore/protocore/fielddesc"

// SubMessage is the minimal contract a frozen message value must satisfy to
// be stored in a MESSAGE-typed field slot. It lets fieldset store, compare,
// serialize, and recursively merge sub-messages without importing
// dynamicpb (which itself depends on fieldset) — package dynamicpb's
// Message type, and any GeneratedAdapter implementation, satisfy this.
type SubMessage interface {
	Descriptor() *fielddesc.MessageDescriptor
	IsInitialized() bool
	Equal(other SubMessage) bool
	ToBuilder() SubMessageBuilder
}

// SubMessageBuilder is the minimal mutable counterpart of SubMessage,
// letting fieldset's merge logic build a new sub-message by merging two
// existing ones without knowing their concrete type.
type SubMessageBuilder interface {
	MergeFrom(SubMessage) error
	Build() (SubMessage, error)
	BuildPartial() SubMessage
}

// Value is a tagged union over the storage categories spec §3 enumerates:
// a discriminated sum keyed by MappedType rather than a boxed
// interface{}-keyed map, so that VerifyType (see Set) is an exhaustive
// match instead of a runtime type assertion, and so that "wrong type used
// with a field" is unrepresentable for any Value built through these
// constructors.
type Value struct {
	mt       fielddesc.MappedType
	repeated bool

	i32   int32
	i64   int64
	u32   uint32
	u64   uint64
	f32   float32
	f64   float64
	b     bool
	str   string
	by    []byte
	enum  *fielddesc.EnumValueDescriptor
	msg   SubMessage

	i32s  []int32
	i64s  []int64
	u32s  []uint32
	u64s  []uint64
	f32s  []float32
	f64s  []float64
	bs    []bool
	strs  []string
	bys   [][]byte
	enums []*fielddesc.EnumValueDescriptor
	msgs  []SubMessage
}

func (v Value) MappedType() fielddesc.MappedType { return v.mt }
func (v Value) IsRepeated() bool                  { return v.repeated }

// Len reports the element count of a repeated Value.
func (v Value) Len() int {
	switch v.mt {
	case fielddesc.MappedInt32:
		return len(v.i32s)
	case fielddesc.MappedInt64:
		return len(v.i64s)
	case fielddesc.MappedUint32:
		return len(v.u32s)
	case fielddesc.MappedUint64:
		return len(v.u64s)
	case fielddesc.MappedFloat:
		return len(v.f32s)
	case fielddesc.MappedDouble:
		return len(v.f64s)
	case fielddesc.MappedBool:
		return len(v.bs)
	case fielddesc.MappedString:
		return len(v.strs)
	case fielddesc.MappedBytes:
		return len(v.bys)
	case fielddesc.MappedEnum:
		return len(v.enums)
	case fielddesc.MappedMessage:
		return len(v.msgs)
	default:
		return 0
	}
}

// Scalar accessors. Calling the wrong one for v's MappedType does not
// panic; it returns that accessor's zero value. Callers that don't already
// know the MappedType should branch on it first.

func (v Value) Int32() int32     { return v.i32 }
func (v Value) Int64() int64     { return v.i64 }
func (v Value) Uint32() uint32   { return v.u32 }
func (v Value) Uint64() uint64   { return v.u64 }
func (v Value) Float32() float32 { return v.f32 }
func (v Value) Float64() float64 { return v.f64 }
func (v Value) Bool() bool       { return v.b }
func (v Value) String() string   { return v.str }
func (v Value) Bytes() []byte    { return v.by }
func (v Value) Enum() *fielddesc.EnumValueDescriptor { return v.enum }
func (v Value) Message() SubMessage                   { return v.msg }

func (v Value) Int32Slice() []int32     { return v.i32s }
func (v Value) Int64Slice() []int64     { return v.i64s }
func (v Value) Uint32Slice() []uint32   { return v.u32s }
func (v Value) Uint64Slice() []uint64   { return v.u64s }
func (v Value) Float32Slice() []float32 { return v.f32s }
func (v Value) Float64Slice() []float64 { return v.f64s }
func (v Value) BoolSlice() []bool       { return v.bs }
func (v Value) StringSlice() []string   { return v.strs }
func (v Value) BytesSlice() [][]byte    { return v.bys }
func (v Value) EnumSlice() []*fielddesc.EnumValueDescriptor { return v.enums }
func (v Value) MessageSlice() []SubMessage                   { return v.msgs }

// Scalar constructors.

func Int32(v int32) Value     { return Value{mt: fielddesc.MappedInt32, i32: v} }
func Int64(v int64) Value     { return Value{mt: fielddesc.MappedInt64, i64: v} }
func Uint32(v uint32) Value   { return Value{mt: fielddesc.MappedUint32, u32: v} }
func Uint64(v uint64) Value   { return Value{mt: fielddesc.MappedUint64, u64: v} }
func Float32(v float32) Value { return Value{mt: fielddesc.MappedFloat, f32: v} }
func Float64(v float64) Value { return Value{mt: fielddesc.MappedDouble, f64: v} }
func Bool(v bool) Value       { return Value{mt: fielddesc.MappedBool, b: v} }
func String(v string) Value   { return Value{mt: fielddesc.MappedString, str: v} }
func Bytes(v []byte) Value {
	cp := append([]byte(nil), v...)
	return Value{mt: fielddesc.MappedBytes, by: cp}
}
func Enum(v *fielddesc.EnumValueDescriptor) Value {
	return Value{mt: fielddesc.MappedEnum, enum: v}
}
func Message(v SubMessage) Value { return Value{mt: fielddesc.MappedMessage, msg: v} }

// Repeated constructors. Each copies its input so the caller retains no
// reference to the stored sequence (spec §4.3 Set contract).

func RepeatedInt32(vs []int32) Value {
	return Value{mt: fielddesc.MappedInt32, repeated: true, i32s: append([]int32(nil), vs...)}
}
func RepeatedInt64(vs []int64) Value {
	return Value{mt: fielddesc.MappedInt64, repeated: true, i64s: append([]int64(nil), vs...)}
}
func RepeatedUint32(vs []uint32) Value {
	return Value{mt: fielddesc.MappedUint32, repeated: true, u32s: append([]uint32(nil), vs...)}
}
func RepeatedUint64(vs []uint64) Value {
	return Value{mt: fielddesc.MappedUint64, repeated: true, u64s: append([]uint64(nil), vs...)}
}
func RepeatedFloat32(vs []float32) Value {
	return Value{mt: fielddesc.MappedFloat, repeated: true, f32s: append([]float32(nil), vs...)}
}
func RepeatedFloat64(vs []float64) Value {
	return Value{mt: fielddesc.MappedDouble, repeated: true, f64s: append([]float64(nil), vs...)}
}
func RepeatedBool(vs []bool) Value {
	return Value{mt: fielddesc.MappedBool, repeated: true, bs: append([]bool(nil), vs...)}
}
func RepeatedString(vs []string) Value {
	return Value{mt: fielddesc.MappedString, repeated: true, strs: append([]string(nil), vs...)}
}
func RepeatedBytes(vs [][]byte) Value {
	cp := make([][]byte, len(vs))
	for i, b := range vs {
		cp[i] = append([]byte(nil), b...)
	}
	return Value{mt: fielddesc.MappedBytes, repeated: true, bys: cp}
}
func RepeatedEnum(vs []*fielddesc.EnumValueDescriptor) Value {
	return Value{mt: fielddesc.MappedEnum, repeated: true, enums: append([]*fielddesc.EnumValueDescriptor(nil), vs...)}
}
func RepeatedMessage(vs []SubMessage) Value {
	return Value{mt: fielddesc.MappedMessage, repeated: true, msgs: append([]SubMessage(nil), vs...)}
}

// EmptyRepeated returns the canonical empty read-only sequence view for a
// mapped type, per spec §3's absence semantics for repeated fields.
func EmptyRepeated(mt fielddesc.MappedType) Value {
	v := Value{mt: mt, repeated: true}
	return v
}

// elementAt returns the element at index i of a repeated Value as a
// singular Value of the same MappedType; it does not bounds-check.
func (v Value) elementAt(i int) Value {
	switch v.mt {
	case fielddesc.MappedInt32:
		return Int32(v.i32s[i])
	case fielddesc.MappedInt64:
		return Int64(v.i64s[i])
	case fielddesc.MappedUint32:
		return Uint32(v.u32s[i])
	case fielddesc.MappedUint64:
		return Uint64(v.u64s[i])
	case fielddesc.MappedFloat:
		return Float32(v.f32s[i])
	case fielddesc.MappedDouble:
		return Float64(v.f64s[i])
	case fielddesc.MappedBool:
		return Bool(v.bs[i])
	case fielddesc.MappedString:
		return String(v.strs[i])
	case fielddesc.MappedBytes:
		return Bytes(v.bys[i])
	case fielddesc.MappedEnum:
		return Enum(v.enums[i])
	case fielddesc.MappedMessage:
		return Message(v.msgs[i])
	default:
		panic("fieldset: unreachable mapped type")
	}
}

// appended returns a new repeated Value with elem (a singular Value of the
// same MappedType) appended.
func (v Value) appended(elem Value) Value {
	switch v.mt {
	case fielddesc.MappedInt32:
		v.i32s = append(append([]int32(nil), v.i32s...), elem.i32)
	case fielddesc.MappedInt64:
		v.i64s = append(append([]int64(nil), v.i64s...), elem.i64)
	case fielddesc.MappedUint32:
		v.u32s = append(append([]uint32(nil), v.u32s...), elem.u32)
	case fielddesc.MappedUint64:
		v.u64s = append(append([]uint64(nil), v.u64s...), elem.u64)
	case fielddesc.MappedFloat:
		v.f32s = append(append([]float32(nil), v.f32s...), elem.f32)
	case fielddesc.MappedDouble:
		v.f64s = append(append([]float64(nil), v.f64s...), elem.f64)
	case fielddesc.MappedBool:
		v.bs = append(append([]bool(nil), v.bs...), elem.b)
	case fielddesc.MappedString:
		v.strs = append(append([]string(nil), v.strs...), elem.str)
	case fielddesc.MappedBytes:
		v.bys = append(append([][]byte(nil), v.bys...), elem.by)
	case fielddesc.MappedEnum:
		v.enums = append(append([]*fielddesc.EnumValueDescriptor(nil), v.enums...), elem.enum)
	case fielddesc.MappedMessage:
		v.msgs = append(append([]SubMessage(nil), v.msgs...), elem.msg)
	}
	return v
}

// withElementSet returns a new repeated Value with the element at index i
// replaced; it does not bounds-check.
func (v Value) withElementSet(i int, elem Value) Value {
	switch v.mt {
	case fielddesc.MappedInt32:
		v.i32s = append([]int32(nil), v.i32s...)
		v.i32s[i] = elem.i32
	case fielddesc.MappedInt64:
		v.i64s = append([]int64(nil), v.i64s...)
		v.i64s[i] = elem.i64
	case fielddesc.MappedUint32:
		v.u32s = append([]uint32(nil), v.u32s...)
		v.u32s[i] = elem.u32
	case fielddesc.MappedUint64:
		v.u64s = append([]uint64(nil), v.u64s...)
		v.u64s[i] = elem.u64
	case fielddesc.MappedFloat:
		v.f32s = append([]float32(nil), v.f32s...)
		v.f32s[i] = elem.f32
	case fielddesc.MappedDouble:
		v.f64s = append([]float64(nil), v.f64s...)
		v.f64s[i] = elem.f64
	case fielddesc.MappedBool:
		v.bs = append([]bool(nil), v.bs...)
		v.bs[i] = elem.b
	case fielddesc.MappedString:
		v.strs = append([]string(nil), v.strs...)
		v.strs[i] = elem.str
	case fielddesc.MappedBytes:
		v.bys = append([][]byte(nil), v.bys...)
		v.bys[i] = elem.by
	case fielddesc.MappedEnum:
		v.enums = append([]*fielddesc.EnumValueDescriptor(nil), v.enums...)
		v.enums[i] = elem.enum
	case fielddesc.MappedMessage:
		v.msgs = append([]SubMessage(nil), v.msgs...)
		v.msgs[i] = elem.msg
	}
	return v
}

// concatenated returns a new repeated Value with other's elements appended
// after v's, used by FieldSet.MergeFrom's repeated-field concatenation.
func (v Value) concatenated(other Value) Value {
	switch v.mt {
	case fielddesc.MappedInt32:
		v.i32s = append(append([]int32(nil), v.i32s...), other.i32s...)
	case fielddesc.MappedInt64:
		v.i64s = append(append([]int64(nil), v.i64s...), other.i64s...)
	case fielddesc.MappedUint32:
		v.u32s = append(append([]uint32(nil), v.u32s...), other.u32s...)
	case fielddesc.MappedUint64:
		v.u64s = append(append([]uint64(nil), v.u64s...), other.u64s...)
	case fielddesc.MappedFloat:
		v.f32s = append(append([]float32(nil), v.f32s...), other.f32s...)
	case fielddesc.MappedDouble:
		v.f64s = append(append([]float64(nil), v.f64s...), other.f64s...)
	case fielddesc.MappedBool:
		v.bs = append(append([]bool(nil), v.bs...), other.bs...)
	case fielddesc.MappedString:
		v.strs = append(append([]string(nil), v.strs...), other.strs...)
	case fielddesc.MappedBytes:
		v.bys = append(append([][]byte(nil), v.bys...), other.bys...)
	case fielddesc.MappedEnum:
		v.enums = append(append([]*fielddesc.EnumValueDescriptor(nil), v.enums...), other.enums...)
	case fielddesc.MappedMessage:
		v.msgs = append(append([]SubMessage(nil), v.msgs...), other.msgs...)
	}
	return v
}

// equal reports structural, element-wise equality between two Values of
// the same MappedType and cardinality.
func (v Value) equal(o Value) bool {
	if v.mt != o.mt || v.repeated != o.repeated {
		return false
	}
	if !v.repeated {
		switch v.mt {
		case fielddesc.MappedInt32:
			return v.i32 == o.i32
		case fielddesc.MappedInt64:
			return v.i64 == o.i64
		case fielddesc.MappedUint32:
			return v.u32 == o.u32
		case fielddesc.MappedUint64:
			return v.u64 == o.u64
		case fielddesc.MappedFloat:
			return v.f32 == o.f32
		case fielddesc.MappedDouble:
			return v.f64 == o.f64
		case fielddesc.MappedBool:
			return v.b == o.b
		case fielddesc.MappedString:
			return v.str == o.str
		case fielddesc.MappedBytes:
			return string(v.by) == string(o.by)
		case fielddesc.MappedEnum:
			return v.enum == o.enum || (v.enum != nil && o.enum != nil && v.enum.Number() == o.enum.Number() && v.enum.Enum() == o.enum.Enum())
		case fielddesc.MappedMessage:
			if v.msg == nil || o.msg == nil {
				return v.msg == o.msg
			}
			return v.msg.Equal(o.msg)
		}
		return true
	}
	if v.Len() != o.Len() {
		return false
	}
	for i := 0; i < v.Len(); i++ {
		if !v.elementAt(i).equal(o.elementAt(i)) {
			return false
		}
	}
	return true
}
