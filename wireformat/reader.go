package wireformat

import (
	"math"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// Reader decodes primitive wire values from an in-memory byte slice,
// tracking a stack of nested length-delimited budgets (spec §4.1's
// pushLimit/popLimit). It is not safe for concurrent use.
type Reader struct {
	buf    []byte
	pos    int
	limits []int // absolute end offsets; top of stack is the innermost limit
	depth  int
	maxDepth int
}

// NewReader wraps buf for reading. The outermost limit is len(buf).
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf, maxDepth: DefaultMaxRecursionDepth}
}

// SetMaxRecursionDepth overrides the default nested-message recursion cap.
func (r *Reader) SetMaxRecursionDepth(n int) { r.maxDepth = n }

func (r *Reader) currentLimit() int {
	if len(r.limits) == 0 {
		return len(r.buf)
	}
	return r.limits[len(r.limits)-1]
}

// ReachedLimit reports whether the cursor is at (or past) the innermost
// active limit.
func (r *Reader) ReachedLimit() bool {
	return r.pos >= r.currentLimit()
}

// Len reports the number of bytes remaining before the innermost limit.
func (r *Reader) Len() int {
	n := r.currentLimit() - r.pos
	if n < 0 {
		return 0
	}
	return n
}

func (r *Reader) window() []byte {
	limit := r.currentLimit()
	if limit > len(r.buf) {
		limit = len(r.buf)
	}
	if r.pos > limit {
		return nil
	}
	return r.buf[r.pos:limit]
}

// PushLimit establishes a new byte budget of length bytes starting at the
// current position. It returns a token that must be passed to PopLimit to
// restore the enclosing limit; limits nest arbitrarily deep.
func (r *Reader) PushLimit(length int) (int, error) {
	if length < 0 {
		return 0, malformed("negative length %d", length)
	}
	newLimit := r.pos + length
	if newLimit < r.pos || newLimit > r.currentLimit() {
		return 0, malformed("length-delimited field of %d bytes exceeds enclosing limit", length)
	}
	token := r.currentLimit()
	r.limits = append(r.limits, newLimit)
	return token, nil
}

// PopLimit restores the limit that was active before the matching
// PushLimit. token is the value PushLimit returned.
func (r *Reader) PopLimit(token int) {
	if len(r.limits) == 0 {
		return
	}
	r.limits = r.limits[:len(r.limits)-1]
	_ = token
}

// EnterMessage increments the recursion depth counter, failing with
// ErrMalformed once the configured maximum is exceeded (spec §5, §9).
// Callers must call ExitMessage when done, typically via defer.
func (r *Reader) EnterMessage() error {
	r.depth++
	if r.depth > r.maxDepth {
		return malformed("exceeded max recursion depth of %d", r.maxDepth)
	}
	return nil
}

// ExitMessage undoes a matching EnterMessage.
func (r *Reader) ExitMessage() { r.depth-- }

// ReadRawByte consumes and returns a single byte.
func (r *Reader) ReadRawByte() (byte, error) {
	if r.ReachedLimit() || r.pos >= len(r.buf) {
		return 0, malformed("unexpected EOF")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadTag reads a (field number, wire type) pair.
func (r *Reader) ReadTag() (fieldNumber int32, wt WireType, err error) {
	num, t, n := protowire.ConsumeTag(r.window())
	if n < 0 {
		return 0, 0, malformed("invalid tag: %v", protowire.ParseError(n))
	}
	r.pos += n
	return int32(num), t, nil
}

// ReadVarint64 reads an unsigned varint, failing if it would need more
// than 10 bytes (the maximum for a 64-bit value).
func (r *Reader) ReadVarint64() (uint64, error) {
	v, n := protowire.ConsumeVarint(r.window())
	if n < 0 {
		return 0, malformed("invalid or overlong varint: %v", protowire.ParseError(n))
	}
	r.pos += n
	return v, nil
}

// ReadVarint32 reads a varint and truncates it to 32 bits, the same way
// protobuf's own int32/uint32 fields silently truncate an over-wide value.
func (r *Reader) ReadVarint32() (uint32, error) {
	v, err := r.ReadVarint64()
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// ReadFixed32 reads a little-endian 32-bit value.
func (r *Reader) ReadFixed32() (uint32, error) {
	v, n := protowire.ConsumeFixed32(r.window())
	if n < 0 {
		return 0, malformed("invalid fixed32: %v", protowire.ParseError(n))
	}
	r.pos += n
	return v, nil
}

// ReadFixed64 reads a little-endian 64-bit value.
func (r *Reader) ReadFixed64() (uint64, error) {
	v, n := protowire.ConsumeFixed64(r.window())
	if n < 0 {
		return 0, malformed("invalid fixed64: %v", protowire.ParseError(n))
	}
	r.pos += n
	return v, nil
}

// ReadFloat reads an IEEE-754 32-bit float.
func (r *Reader) ReadFloat() (float32, error) {
	v, err := r.ReadFixed32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadDouble reads an IEEE-754 64-bit float.
func (r *Reader) ReadDouble() (float64, error) {
	v, err := r.ReadFixed64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadBool reads a varint and interprets any nonzero value as true, the
// way a conforming implementation must (not just 0/1).
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadVarint64()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// ReadBytes reads a length-prefixed byte run and returns a defensive copy;
// the returned slice does not alias the Reader's backing array.
func (r *Reader) ReadBytes() ([]byte, error) {
	b, n := protowire.ConsumeBytes(r.window())
	if n < 0 {
		return nil, malformed("invalid length-delimited field: %v", protowire.ParseError(n))
	}
	r.pos += n
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadString reads a length-prefixed UTF-8 string, failing with
// ErrMalformed if the bytes are not valid UTF-8.
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", malformed("field contains invalid UTF-8")
	}
	return string(b), nil
}

// ReadRawMessage reads a length-prefixed run of bytes without validating
// its contents, for callers that will recursively parse it themselves
// (sub-messages, unknown length-delimited fields).
func (r *Reader) ReadRawMessage() ([]byte, error) {
	return r.ReadBytes()
}

// ReadLengthPrefix reads a length-delimited field's length varint without
// consuming its payload, so a caller can PushLimit that many bytes and
// then decode the payload in place on this same Reader. Decoding in place
// (rather than copying the payload into a fresh Reader) keeps the
// recursion-depth counter EnterMessage/ExitMessage track shared across
// every nesting level.
func (r *Reader) ReadLengthPrefix() (int, error) {
	v, err := r.ReadVarint64()
	if err != nil {
		return 0, err
	}
	if v > uint64(r.Len()) {
		return 0, malformed("length-delimited field of %d bytes exceeds remaining input", v)
	}
	return int(v), nil
}
