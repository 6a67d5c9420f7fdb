package extreg

import (
	"errors"
	"testing"

	"github.com/protocore/protocore/fielddesc"
	"github.com/protocore/protocore/perr"
)

func extensionField(owner *fielddesc.MessageDescriptor, number int32, name string) *fielddesc.FieldDescriptor {
	return owner.AddField(number, name, fielddesc.TypeInt32, fielddesc.FieldOptions{Extension: true})
}

func TestAddAndFind(t *testing.T) {
	owner := fielddesc.NewMessageDescriptor("test.Extendable")
	owner.AddExtensionRange(100, 200)
	fd := extensionField(owner, 100, "x")

	r := New()
	if err := r.Add(fd); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got := r.Find("test.Extendable", 100)
	if got != fd {
		t.Errorf("Find returned %v, want %v", got, fd)
	}
	if r.Find("test.Extendable", 101) != nil {
		t.Error("Find should return nil for an unregistered tag number")
	}
}

func TestAddRejectsNonExtensionField(t *testing.T) {
	owner := fielddesc.NewMessageDescriptor("test.Plain")
	fd := owner.AddField(1, "id", fielddesc.TypeInt32, fielddesc.FieldOptions{})

	r := New()
	err := r.Add(fd)
	if !errors.Is(err, perr.ErrIllegalArgument) {
		t.Fatalf("expected ErrIllegalArgument, got %v", err)
	}
}

func TestFindByName(t *testing.T) {
	owner := fielddesc.NewMessageDescriptor("test.Extendable")
	fd := extensionField(owner, 100, "x")

	r := New()
	r.Add(fd)
	got := r.FindByName("test.Extendable", fd.FullName())
	if got != fd {
		t.Errorf("FindByName returned %v, want %v", got, fd)
	}
}

func TestAllExtensionsForType(t *testing.T) {
	owner := fielddesc.NewMessageDescriptor("test.Extendable")
	fd1 := extensionField(owner, 100, "x")
	fd2 := extensionField(owner, 101, "y")

	r := New()
	r.Add(fd1, fd2)
	got := r.AllExtensionsForType("test.Extendable")
	if len(got) != 2 {
		t.Fatalf("expected 2 extensions, got %d", len(got))
	}
}

func TestNilRegistryBehavesEmpty(t *testing.T) {
	var r *Registry
	if r.Find("test.Extendable", 100) != nil {
		t.Error("nil Registry should report no extensions")
	}
	if r.AllExtensionsForType("test.Extendable") != nil {
		t.Error("nil Registry should report no extensions")
	}
}
