package where

import (
	"strings"

	"github.com/sgoldberg/nocogo/fault"
)

const (
	andJoiner = "~and"
	orJoiner  = "~or"
	notPrefix = "~not"
)

// group is a conjunction or disjunction over one or more child filters.
// Children render strictly in construction order; nothing is sorted,
// deduplicated, or rebalanced.
type group struct {
	joiner   string
	children []Filter
}

// Where flattens the group into the wire grammar. A single-child group
// renders identically to its bare child, since the remote grammar has no
// grouping construct to express it. Nested groups have already flattened
// themselves by the time their strings are joined here.
func (g group) Where() string {
	if len(g.children) == 1 {
		return g.children[0].Where()
	}

	parts := make([]string, len(g.children))
	for i, c := range g.children {
		parts[i] = c.Where()
	}
	return strings.Join(parts, g.joiner)
}

// negation inverts a single child filter.
type negation struct {
	child Filter
}

// Where prepends `~not` to the child's rendered string. The prefix binds
// only to the first token of a compound child: Not(And(a,b)) renders as
// `~not(a)~and(b)`. That is the remote grammar's actual flat structure,
// reproduced here for wire compatibility.
func (n negation) Where() string {
	return notPrefix + n.child.Where()
}

func newGroup(joiner string, children []Filter) (Filter, error) {
	if len(children) == 0 {
		return nil, fault.New(fault.ValidationCode, "logical filter requires at least one child")
	}
	for _, c := range children {
		if c == nil {
			return nil, fault.New(fault.ValidationCode, "logical filter child must not be nil")
		}
	}

	cs := make([]Filter, len(children))
	copy(cs, children)
	return group{joiner: joiner, children: cs}, nil
}

// And combines filters so every one of them must match. It requires at
// least one child; wrapping a single filter is a no-op on the wire.
func And(children ...Filter) (Filter, error) {
	return newGroup(andJoiner, children)
}

// Or combines filters so at least one of them must match. It requires at
// least one child; wrapping a single filter is a no-op on the wire.
func Or(children ...Filter) (Filter, error) {
	return newGroup(orJoiner, children)
}

// Not inverts a filter. The child may itself be a combinator; see the
// binding note on negation.Where.
func Not(child Filter) (Filter, error) {
	if child == nil {
		return nil, fault.New(fault.ValidationCode, "not filter requires a child")
	}
	return negation{child: child}, nil
}
