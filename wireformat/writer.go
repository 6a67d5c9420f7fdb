package wireformat

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Writer accumulates encoded bytes. Like the teacher's codec.Buffer, it
// keeps a reusable scratch buffer so writing a nested message doesn't
// allocate a fresh slice every time.
type Writer struct {
	buf []byte
	tmp []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated output. The caller must not retain it
// across further writes to this Writer, since it may be reused or grown.
func (w *Writer) Bytes() []byte { return w.buf }

// Reset empties the writer's output while keeping its scratch buffer.
func (w *Writer) Reset() { w.buf = w.buf[:0] }

// WriteTag appends a field number and wire type.
func (w *Writer) WriteTag(fieldNumber int32, wt WireType) {
	w.buf = protowire.AppendTag(w.buf, protowire.Number(fieldNumber), wt)
}

// WriteVarint32 appends an unsigned varint.
func (w *Writer) WriteVarint32(v uint32) { w.WriteVarint64(uint64(v)) }

// WriteVarint64 appends an unsigned varint.
func (w *Writer) WriteVarint64(v uint64) { w.buf = protowire.AppendVarint(w.buf, v) }

// WriteFixed32 appends a little-endian 32-bit value.
func (w *Writer) WriteFixed32(v uint32) { w.buf = protowire.AppendFixed32(w.buf, v) }

// WriteFixed64 appends a little-endian 64-bit value.
func (w *Writer) WriteFixed64(v uint64) { w.buf = protowire.AppendFixed64(w.buf, v) }

// WriteFloat appends an IEEE-754 32-bit float.
func (w *Writer) WriteFloat(v float32) { w.WriteFixed32(math.Float32bits(v)) }

// WriteDouble appends an IEEE-754 64-bit float.
func (w *Writer) WriteDouble(v float64) { w.WriteFixed64(math.Float64bits(v)) }

// WriteBool appends a varint 0 or 1.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteVarint64(1)
	} else {
		w.WriteVarint64(0)
	}
}

// WriteString appends a length-prefixed UTF-8 string.
func (w *Writer) WriteString(s string) { w.buf = protowire.AppendString(w.buf, s) }

// WriteBytes appends a length-prefixed byte run.
func (w *Writer) WriteBytes(b []byte) { w.buf = protowire.AppendBytes(w.buf, b) }

// WriteRawMessage appends a pre-encoded sub-message, length-prefixed. build
// is invoked with a fresh scratch Writer; to avoid an allocation per call,
// the scratch buffer is carried across calls on w.
func (w *Writer) WriteRawMessage(build func(*Writer) error) error {
	sub := &Writer{buf: w.tmp[:0]}
	if err := build(sub); err != nil {
		w.tmp = sub.buf
		return err
	}
	w.tmp = sub.buf
	w.WriteBytes(sub.buf)
	return nil
}

// Message-set wire-format field numbers (spec §4.1, §GLOSSARY).
const (
	MessageSetItemNumber    = 1
	MessageSetTypeIDNumber  = 2
	MessageSetMessageNumber = 3
)

// WriteMessageSetExtension emits the legacy message-set encoding: a
// start-group, the extension's type_id, its serialized payload as a
// length-delimited message, then an end-group.
func (w *Writer) WriteMessageSetExtension(typeID int32, payload []byte) {
	w.WriteTag(MessageSetItemNumber, WireStartGroup)
	w.WriteTag(MessageSetTypeIDNumber, WireVarint)
	w.WriteVarint32(uint32(typeID))
	w.WriteTag(MessageSetMessageNumber, WireBytes)
	w.WriteBytes(payload)
	w.WriteTag(MessageSetItemNumber, WireEndGroup)
}
