package wireformat

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// SizeTag returns the encoded byte length of a (field number, wire type)
// tag for any wire type, since the wire type only changes the low 3 bits
// of the same varint.
func SizeTag(fieldNumber int32) int {
	return protowire.SizeTag(protowire.Number(fieldNumber))
}

// SizeVarint32 returns the encoded byte length of v as a varint.
func SizeVarint32(v uint32) int { return protowire.SizeVarint(uint64(v)) }

// SizeVarint64 returns the encoded byte length of v as a varint.
func SizeVarint64(v uint64) int { return protowire.SizeVarint(v) }

// SizeFixed32 returns the encoded byte length of a fixed32 value: always 4.
func SizeFixed32() int { return 4 }

// SizeFixed64 returns the encoded byte length of a fixed64 value: always 8.
func SizeFixed64() int { return 8 }

// SizeBytes returns the encoded byte length of a length-delimited run of n
// raw bytes, including its length prefix.
func SizeBytes(n int) int { return protowire.SizeBytes(n) }

// SizeValue returns the number of bytes WriteValue-style encoding of val
// would occupy for wire type wt, not including the tag. val must be one of
// bool, uint32, uint64, float32, float64, string, or []byte, matching wt.
func SizeValue(wt WireType, val any) (int, error) {
	switch wt {
	case WireVarint:
		switch v := val.(type) {
		case bool:
			return 1, nil
		case uint32:
			return SizeVarint32(v), nil
		case uint64:
			return SizeVarint64(v), nil
		default:
			return 0, fmt.Errorf("wireformat: unsupported varint value type %T", val)
		}
	case WireFixed32:
		return SizeFixed32(), nil
	case WireFixed64:
		return SizeFixed64(), nil
	case WireBytes:
		switch v := val.(type) {
		case string:
			return SizeBytes(len(v)), nil
		case []byte:
			return SizeBytes(len(v)), nil
		default:
			return 0, fmt.Errorf("wireformat: unsupported length-delimited value type %T", val)
		}
	default:
		return 0, fmt.Errorf("wireformat: unsupported wire type %v for SizeValue", wt)
	}
}

// SizeField returns the total encoded size of one tag+value pair, for the
// wire types SizeValue accepts. A start-group wire type is not among them:
// SizeValue rejects it, and SizeField returns that error.
func SizeField(wt WireType, fieldNumber int32, val any) (int, error) {
	vs, err := SizeValue(wt, val)
	if err != nil {
		return 0, err
	}
	size := SizeTag(fieldNumber) + vs
	if wt == WireStartGroup {
		size += SizeTag(fieldNumber)
	}
	return size, nil
}

// SizeMessageSetExtension returns the encoded byte length of the legacy
// message-set wrapper around a payload of payloadLen bytes.
func SizeMessageSetExtension(typeID int32, payloadLen int) int {
	return SizeTag(MessageSetItemNumber) +
		SizeTag(MessageSetTypeIDNumber) + SizeVarint32(uint32(typeID)) +
		SizeTag(MessageSetMessageNumber) + SizeBytes(payloadLen) +
		SizeTag(MessageSetItemNumber)
}
