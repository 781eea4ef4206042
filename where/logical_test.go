package where

import (
	"testing"

	"github.com/sgoldberg/nocogo/fault"
)

func mustFilter(f Filter, err error) Filter {
	if err != nil {
		panic(err)
	}
	return f
}

func TestSingleChildPassthrough(t *testing.T) {
	leaf := mustCond(Eq("a", "1"))

	and := mustFilter(And(leaf))
	or := mustFilter(Or(leaf))

	if got := and.Where(); got != "(a,eq,1)" {
		t.Errorf("And(leaf).Where() = %q, want %q", got, "(a,eq,1)")
	}
	if got := or.Where(); got != "(a,eq,1)" {
		t.Errorf("Or(leaf).Where() = %q, want %q", got, "(a,eq,1)")
	}
}

func TestMultiChildFlattening(t *testing.T) {
	f1 := mustCond(Eq("n", "x"))
	f2 := mustCond(Eq("c", "es"))

	or := mustFilter(Or(f1, f2))
	if got := or.Where(); got != "(n,eq,x)~or(c,eq,es)" {
		t.Errorf("Or.Where() = %q, want %q", got, "(n,eq,x)~or(c,eq,es)")
	}

	and := mustFilter(And(f1, f2))
	if got := and.Where(); got != "(n,eq,x)~and(c,eq,es)" {
		t.Errorf("And.Where() = %q, want %q", got, "(n,eq,x)~and(c,eq,es)")
	}
}

func TestThreeChildren(t *testing.T) {
	f1 := mustCond(Eq("a", "1"))
	f2 := mustCond(Eq("b", "2"))
	f3 := mustCond(Eq("c", "3"))

	and := mustFilter(And(f1, f2, f3))
	if got := and.Where(); got != "(a,eq,1)~and(b,eq,2)~and(c,eq,3)" {
		t.Errorf("And.Where() = %q, want %q", got, "(a,eq,1)~and(b,eq,2)~and(c,eq,3)")
	}

	or := mustFilter(Or(f1, f2, f3))
	if got := or.Where(); got != "(a,eq,1)~or(b,eq,2)~or(c,eq,3)" {
		t.Errorf("Or.Where() = %q, want %q", got, "(a,eq,1)~or(b,eq,2)~or(c,eq,3)")
	}
}

func TestNestedCombinators(t *testing.T) {
	inner := mustFilter(Or(
		mustCond(Eq("n", "x")),
		mustCond(Eq("c", "es")),
	))
	conj := mustFilter(And(
		mustCond(Eq("g", "1")),
		mustCond(Eq("m", "2")),
	))

	root := mustFilter(Or(inner, conj))
	expected := "(n,eq,x)~or(c,eq,es)~or(g,eq,1)~and(m,eq,2)"
	if got := root.Where(); got != expected {
		t.Errorf("nested Where() = %q, want %q", got, expected)
	}
}

func TestNotFilter(t *testing.T) {
	not := mustFilter(Not(mustCond(Eq("n", "x"))))
	if got := not.Where(); got != "~not(n,eq,x)" {
		t.Errorf("Not.Where() = %q, want %q", got, "~not(n,eq,x)")
	}
}

// The ~not prefix binds textually to the first token of a compound child.
// This mirrors the remote grammar's flat structure exactly.
func TestNotBindsToFirstConjunct(t *testing.T) {
	and := mustFilter(And(
		mustCond(Eq("status", "active")),
		mustCond(Eq("role", "admin")),
	))
	not := mustFilter(Not(and))
	expected := "~not(status,eq,active)~and(role,eq,admin)"
	if got := not.Where(); got != expected {
		t.Errorf("Not(And).Where() = %q, want %q", got, expected)
	}

	or := mustFilter(Or(
		mustCond(Eq("type", "spam")),
		mustCond(Eq("type", "trash")),
	))
	notOr := mustFilter(Not(or))
	expected = "~not(type,eq,spam)~or(type,eq,trash)"
	if got := notOr.Where(); got != expected {
		t.Errorf("Not(Or).Where() = %q, want %q", got, expected)
	}
}

func TestOrderPreservation(t *testing.T) {
	f1 := mustCond(Eq("a", "1"))
	f2 := mustCond(Eq("b", "2"))

	forward := mustFilter(And(f1, f2))
	reverse := mustFilter(And(f2, f1))

	if forward.Where() == reverse.Where() {
		t.Errorf("reordered children rendered identically: %q", forward.Where())
	}
	if got := reverse.Where(); got != "(b,eq,2)~and(a,eq,1)" {
		t.Errorf("reverse.Where() = %q, want %q", got, "(b,eq,2)~and(a,eq,1)")
	}
}

func TestCombinatorValidation(t *testing.T) {
	if _, err := And(); !fault.IsCode(err, fault.ValidationCode) {
		t.Errorf("And() error = %v, want validation fault", err)
	}
	if _, err := Or(); !fault.IsCode(err, fault.ValidationCode) {
		t.Errorf("Or() error = %v, want validation fault", err)
	}
	if _, err := Not(nil); !fault.IsCode(err, fault.ValidationCode) {
		t.Errorf("Not(nil) error = %v, want validation fault", err)
	}
	if _, err := And(mustCond(Eq("a", "1")), nil); !fault.IsCode(err, fault.ValidationCode) {
		t.Errorf("And(..., nil) error = %v, want validation fault", err)
	}
}

func TestDeepNestingStaysFlat(t *testing.T) {
	leaf := mustCond(Eq("a", "1"))

	var f Filter = leaf
	for range 5 {
		f = mustFilter(And(f))
	}

	if got := f.Where(); got != "(a,eq,1)" {
		t.Errorf("deeply wrapped single child Where() = %q, want %q", got, "(a,eq,1)")
	}
}
