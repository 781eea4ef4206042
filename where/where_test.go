package where

import (
	"testing"

	"github.com/sgoldberg/nocogo/fault"
)

func mustCond(c Condition, err error) Condition {
	if err != nil {
		panic(err)
	}
	return c
}

func TestSingleValueOperators(t *testing.T) {
	tests := []struct {
		op       Operator
		expected string
	}{
		{OpEq, "(col,eq,v)"},
		{OpNeq, "(col,neq,v)"},
		{OpGt, "(col,gt,v)"},
		{OpGte, "(col,gte,v)"},
		{OpLt, "(col,lt,v)"},
		{OpLte, "(col,lte,v)"},
		{OpLike, "(col,like,v)"},
		{OpNlike, "(col,nlike,v)"},
	}

	for _, tt := range tests {
		c, err := NewCondition("col", tt.op, "v")
		if err != nil {
			t.Fatalf("NewCondition(col, %s, v): %v", tt.op, err)
		}
		if got := c.Where(); got != tt.expected {
			t.Errorf("Where() = %q, want %q", got, tt.expected)
		}
	}
}

func TestNamedConstructors(t *testing.T) {
	tests := []struct {
		name     string
		cond     Condition
		expected string
	}{
		{"eq string", mustCond(Eq("Name", "Alice")), "(Name,eq,Alice)"},
		{"neq", mustCond(Neq("Status", "done")), "(Status,neq,done)"},
		{"gt int", mustCond(Gt("Age", 30)), "(Age,gt,30)"},
		{"gte", mustCond(Gte("age", "18")), "(age,gte,18)"},
		{"lte", mustCond(Lte("price", "100")), "(price,lte,100)"},
		{"like", mustCond(Like("name", "test")), "(name,like,test)"},
		{"nlike", mustCond(Nlike("name", "test")), "(name,nlike,test)"},
		{"eq float", mustCond(Eq("Score", 91.5)), "(Score,eq,91.5)"},
		{"eq negative int", mustCond(Eq("Delta", -3)), "(Delta,eq,-3)"},
	}

	for _, tt := range tests {
		if got := tt.cond.Where(); got != tt.expected {
			t.Errorf("%s: Where() = %q, want %q", tt.name, got, tt.expected)
		}
	}
}

func TestIsFilter(t *testing.T) {
	valid := map[string]string{
		"null":     "(Status,is,null)",
		"notnull":  "(Status,is,notnull)",
		"true":     "(Status,is,true)",
		"false":    "(Status,is,false)",
		"empty":    "(Status,is,empty)",
		"notempty": "(Status,is,notempty)",
	}

	for keyword, expected := range valid {
		c, err := Is("Status", keyword)
		if err != nil {
			t.Fatalf("Is(Status, %s): %v", keyword, err)
		}
		if got := c.Where(); got != expected {
			t.Errorf("Is(Status, %s).Where() = %q, want %q", keyword, got, expected)
		}
	}

	if _, err := Is("Status", "bogus"); !fault.IsCode(err, fault.ValidationCode) {
		t.Errorf("Is(Status, bogus) error = %v, want validation fault", err)
	}
}

func TestInFilter(t *testing.T) {
	c, err := In("Tags", "a", "b")
	if err != nil {
		t.Fatalf("In(Tags, a, b): %v", err)
	}
	if got := c.Where(); got != "(Tags,in,a,b)" {
		t.Errorf("Where() = %q, want %q", got, "(Tags,in,a,b)")
	}

	c, err = In("Ids", 1, 2, 3)
	if err != nil {
		t.Fatalf("In(Ids, 1, 2, 3): %v", err)
	}
	if got := c.Where(); got != "(Ids,in,1,2,3)" {
		t.Errorf("Where() = %q, want %q", got, "(Ids,in,1,2,3)")
	}

	if _, err := In("Tags"); !fault.IsCode(err, fault.ValidationCode) {
		t.Errorf("In(Tags) error = %v, want validation fault", err)
	}
}

func TestBetweenFilter(t *testing.T) {
	c, err := Between("Age", 18, 65)
	if err != nil {
		t.Fatalf("Between(Age, 18, 65): %v", err)
	}
	if got := c.Where(); got != "(Age,btw,18,65)" {
		t.Errorf("Where() = %q, want %q", got, "(Age,btw,18,65)")
	}

	c, err = Between("Date", "2024-01-01", "2024-12-31")
	if err != nil {
		t.Fatalf("Between(Date, ...): %v", err)
	}
	if got := c.Where(); got != "(Date,btw,2024-01-01,2024-12-31)" {
		t.Errorf("Where() = %q, want %q", got, "(Date,btw,2024-01-01,2024-12-31)")
	}
}

func TestConstructionValidation(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"empty field", errOf(NewCondition("", OpEq, "v"))},
		{"unknown operator", errOf(NewCondition("col", Operator("zzz"), "v"))},
		{"eq with two values", errOf(NewCondition("col", OpEq, "a", "b"))},
		{"eq with no values", errOf(NewCondition("col", OpEq))},
		{"between with one value", errOf(NewCondition("col", OpBetween, "a"))},
		{"between with three values", errOf(NewCondition("col", OpBetween, "a", "b", "c"))},
		{"is with two values", errOf(NewCondition("col", OpIs, "null", "true"))},
		{"bool payload", errOf(NewCondition("col", OpEq, true))},
		{"nil payload", errOf(NewCondition("col", OpEq, nil))},
		{"slice payload", errOf(NewCondition("col", OpEq, []string{"a"}))},
	}

	for _, tt := range tests {
		if !fault.IsCode(tt.err, fault.ValidationCode) {
			t.Errorf("%s: error = %v, want validation fault", tt.name, tt.err)
		}
	}
}

func errOf(_ Condition, err error) error { return err }

func TestRenderIdempotence(t *testing.T) {
	c := mustCond(Eq("a", "1"))
	first := c.Where()
	second := c.Where()
	if first != second {
		t.Errorf("Where() not idempotent: %q then %q", first, second)
	}
}

func TestCheckWireSafe(t *testing.T) {
	clean := mustCond(Eq("Name", "Alice"))
	if err := CheckWireSafe(clean); err != nil {
		t.Errorf("CheckWireSafe(clean) = %v, want nil", err)
	}

	dirtyValue := mustCond(Eq("Name", "a,b"))
	if err := CheckWireSafe(dirtyValue); !fault.IsCode(err, fault.ValidationCode) {
		t.Errorf("CheckWireSafe(dirty value) = %v, want validation fault", err)
	}

	dirtyField := mustCond(Eq("Na~me", "x"))
	if err := CheckWireSafe(dirtyField); !fault.IsCode(err, fault.ValidationCode) {
		t.Errorf("CheckWireSafe(dirty field) = %v, want validation fault", err)
	}

	// The default render path stays verbatim even for ambiguous values.
	if got := dirtyValue.Where(); got != "(Name,eq,a,b)" {
		t.Errorf("Where() = %q, want verbatim %q", got, "(Name,eq,a,b)")
	}

	nested, err := And(clean, dirtyValue)
	if err != nil {
		t.Fatalf("And: %v", err)
	}
	if err := CheckWireSafe(nested); !fault.IsCode(err, fault.ValidationCode) {
		t.Errorf("CheckWireSafe(nested dirty) = %v, want validation fault", err)
	}
}
