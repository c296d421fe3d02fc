package symbol

import "testing"

func TestInternStable(t *testing.T) {
	tab := NewTable()

	a := tab.Intern("opacity")
	b := tab.Intern("x")
	if a == b {
		t.Fatalf("Intern returned the same id %d for different names", a)
	}
	if got := tab.Intern("opacity"); got != a {
		t.Errorf("Intern(opacity) = %d, want %d", got, a)
	}
	if got := tab.Name(b); got != "x" {
		t.Errorf("Name(%d) = %q, want %q", b, got, "x")
	}
	if got := tab.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
}

func TestEmptyIsNone(t *testing.T) {
	tab := NewTable()
	if got := tab.Intern(""); got != None {
		t.Errorf("Intern(\"\") = %d, want None", got)
	}
	if _, ok := tab.Lookup("missing"); ok {
		t.Error("Lookup(missing) reported ok")
	}
	if got := tab.Name(42); got != "" {
		t.Errorf("Name(42) = %q, want empty", got)
	}
}
