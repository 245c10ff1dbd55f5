package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/mixer/internal/identity"
	"github.com/roach88/mixer/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// shopUniverse returns a universe with an Order target and an AuditMixin.
func shopUniverse(t *testing.T) *ir.Universe {
	t.Helper()
	u := ir.NewUniverse()
	for _, d := range []*ir.Descriptor{
		ir.NewDescriptor("shop.Order", ir.WithMethods(
			ir.NewMethod("Total", ir.Signature{}, ir.OverrideNone),
			ir.NewMethod("Save", ir.Signature{"context.Context"}, ir.OverrideNone),
		)),
		ir.NewDescriptor("shop.AuditMixin", ir.WithMethods(
			ir.NewMethod("Describe", ir.Signature{}, ir.OverrideNone),
		)),
	} {
		if err := u.Register(d); err != nil {
			t.Fatalf("Register(%s) failed: %v", d.Name(), err)
		}
	}
	return u
}

// auditIdentity builds an identity over shopUniverse's types.
func auditIdentity(t *testing.T, u *ir.Universe) identity.CompositionIdentity {
	t.Helper()
	mixin, _ := u.Lookup("shop.AuditMixin")
	return identity.Build(mixin,
		[]ir.MethodRef{
			{DeclaringType: "shop.Order", Name: "Total", Signature: "()"},
			{DeclaringType: "shop.Order", Name: "Save", Signature: "(context.Context)"},
		},
		[]ir.MethodRef{
			{DeclaringType: "shop.AuditMixin", Name: "Describe", Signature: "()"},
		},
	)
}
