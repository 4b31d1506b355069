package policy

import (
	"testing"
)

type stubPolicy struct {
	id, name string
}

func (s stubPolicy) ID() string                { return s.id }
func (s stubPolicy) Name() string              { return s.name }
func (s stubPolicy) DirName() string           { return s.name }
func (s stubPolicy) ProcessNames() []string    { return nil }
func (s stubPolicy) CleanupTargets() []string  { return nil }
func (s stubPolicy) RemovalPrefixes() []string { return nil }

func TestDefaultCatalog_Windsurf(t *testing.T) {
	p, err := DefaultCatalog().GetByID(DefaultPolicyID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name != "Windsurf" || p.DirName != "Windsurf" {
		t.Errorf("unexpected policy: %+v", p)
	}
	if len(p.CleanupTargets) != 13 {
		t.Errorf("expected 13 cleanup targets, got %d", len(p.CleanupTargets))
	}
}

func TestCatalog_UnknownListsKnownIDs(t *testing.T) {
	c := NewCatalog(NewWindsurfPolicy(), stubPolicy{id: "cursor", name: "Cursor"})

	_, err := c.GetByID("vscode")
	if err == nil {
		t.Fatal("expected error for unknown policy")
	}
	if want := `unknown policy "vscode" (known: cursor, windsurf)`; err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestCatalog_ReturnsCopies(t *testing.T) {
	c := DefaultCatalog()

	p, _ := c.GetByID(DefaultPolicyID)
	p.Name = "changed"
	again, _ := c.GetByID(DefaultPolicyID)

	if again.Name != "Windsurf" {
		t.Errorf("catalog entry was mutated through a returned policy: %q", again.Name)
	}
}

func TestCatalog_LaterRegistrationWins(t *testing.T) {
	c := NewCatalog(stubPolicy{id: "windsurf", name: "Old"}, stubPolicy{id: "windsurf", name: "New"})

	ids := c.List()
	if len(ids) != 1 || ids[0] != "windsurf" {
		t.Fatalf("unexpected ids: %v", ids)
	}
	p, _ := c.GetByID("windsurf")
	if p.Name != "New" {
		t.Errorf("expected later registration, got %q", p.Name)
	}
}
