package fieldset

import (
	"fmt"

	"github.com/protocore/protocore/fielddesc"
	"github.com/protocore/protocore/perr"
)

// VerifyType checks that v is legal to store in fd's slot: its MappedType
// and cardinality must match fd's, an ENUM value's EnumDescriptor must be
// fd's EnumType, and a MESSAGE value's MessageDescriptor must be fd's
// MessageType (spec §4.3). Because every Value is built through the typed
// constructors in value.go, the scalar-shape check already collapsed to
// "is this the Value that NewXxx built" at construction time — VerifyType
// only has to re-check the two cross-cutting invariants a constructor
// can't enforce on its own: which field this Value is destined for, and
// (for ENUM/MESSAGE) which schema type it belongs to.
func VerifyType(fd *fielddesc.FieldDescriptor, v Value) error {
	if v.MappedType() != fd.MappedType() {
		return typeMismatch(fd, v.MappedType())
	}
	if v.IsRepeated() != fd.IsRepeated() {
		return fmt.Errorf("%w: field %s is %s but value is %s",
			perr.ErrTypeMismatch, fieldLabel(fd), cardinalityLabel(fd.IsRepeated()), cardinalityLabel(v.IsRepeated()))
	}
	switch v.MappedType() {
	case fielddesc.MappedEnum:
		return verifyEnum(fd, v)
	case fielddesc.MappedMessage:
		return verifyMessage(fd, v)
	default:
		return nil
	}
}

func verifyEnum(fd *fielddesc.FieldDescriptor, v Value) error {
	check := func(ev *fielddesc.EnumValueDescriptor) error {
		if ev != nil && ev.Enum() != fd.EnumType() {
			return fmt.Errorf("%w: field %s expects enum %s, got value of enum %s",
				perr.ErrTypeMismatch, fieldLabel(fd), fd.EnumType().FullName(), ev.Enum().FullName())
		}
		return nil
	}
	if !v.IsRepeated() {
		return check(v.Enum())
	}
	for _, ev := range v.EnumSlice() {
		if err := check(ev); err != nil {
			return err
		}
	}
	return nil
}

func verifyMessage(fd *fielddesc.FieldDescriptor, v Value) error {
	check := func(m SubMessage) error {
		if m != nil && m.Descriptor() != fd.MessageType() {
			return fmt.Errorf("%w: field %s expects message %s, got %s",
				perr.ErrTypeMismatch, fieldLabel(fd), fd.MessageType().FullName(), m.Descriptor().FullName())
		}
		return nil
	}
	if !v.IsRepeated() {
		return check(v.Message())
	}
	for _, m := range v.MessageSlice() {
		if err := check(m); err != nil {
			return err
		}
	}
	return nil
}

func typeMismatch(fd *fielddesc.FieldDescriptor, got fielddesc.MappedType) error {
	return fmt.Errorf("%w: field %s (%s) in message %s cannot hold a %s value",
		perr.ErrTypeMismatch, fieldLabel(fd), fd.MappedType(), fd.ContainingType().FullName(), got)
}

func fieldLabel(fd *fielddesc.FieldDescriptor) string {
	if fd.IsExtension() {
		return fd.FullName()
	}
	return fd.Name()
}

func cardinalityLabel(repeated bool) string {
	if repeated {
		return "repeated"
	}
	return "singular"
}
