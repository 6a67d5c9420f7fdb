// Package wireformat implements the low-level protobuf binary wire codec:
// varints, fixed-width integers, length-delimited runs, zigzag encoding,
// and tag composition (spec §4.1, "WireCodec"). It knows nothing about
// descriptors or FieldSets — those are built on top of it — so it can sit
// at the bottom of the dependency graph the way spec §2 lays out.
//
// Reader/Writer are modeled on the teacher's codec.Buffer, split into two
// types per the "mutable builder / frozen value" framing the rest of this
// module follows, and built on top of google.golang.org/protobuf's
// protowire package for the actual byte-level varint/fixed encoding rather
// than reimplementing it by hand.
package wireformat

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/protocore/protocore/perr"
)

// WireType is the 3-bit wire type carried in every tag.
type WireType = protowire.Type

const (
	WireVarint     = protowire.VarintType
	WireFixed64    = protowire.Fixed64Type
	WireBytes      = protowire.BytesType
	WireStartGroup = protowire.StartGroupType
	WireEndGroup   = protowire.EndGroupType
	WireFixed32    = protowire.Fixed32Type
)

// DefaultMaxRecursionDepth bounds nested-message parse recursion (spec §5, §9).
const DefaultMaxRecursionDepth = 100

// EncodeZigZag32 maps a signed 32-bit value onto an unsigned one so small
// magnitudes (positive or negative) produce small varints.
func EncodeZigZag32(v int32) uint32 {
	return uint32((v << 1) ^ (v >> 31))
}

// DecodeZigZag32 is the inverse of EncodeZigZag32.
func DecodeZigZag32(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

// EncodeZigZag64 maps a signed 64-bit value onto an unsigned one so small
// magnitudes (positive or negative) produce small varints.
func EncodeZigZag64(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

// DecodeZigZag64 is the inverse of EncodeZigZag64.
func DecodeZigZag64(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{perr.ErrMalformed}, args...)...)
}
