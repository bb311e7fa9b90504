// Package formula implements the small arithmetic expression language
// spreadsheet formulas are written in: numeric literals, cell references,
// parenthesized sub-expressions, and the operators + - * / with the usual
// precedence.
package formula

import (
	"sort"

	"golang.org/x/exp/maps"

	"gridsheet/internal/position"
	"gridsheet/internal/value"
)

// Formula is an immutable, already-parsed expression: its AST, the
// deduplicated sorted positions it references, and its canonical
// (non-redundant-parenthesized) textual form.
type Formula struct {
	root       node
	refs       []position.Position
	expression string
}

// Parse parses expr (the text following the leading '=') into a Formula.
// It returns an error if expr does not parse as a well-formed arithmetic
// expression over numbers and cell references.
func Parse(expr string) (*Formula, error) {
	root, err := parse(expr)
	if err != nil {
		return nil, err
	}
	seen := make(map[position.Position]struct{})
	root.appendRefs(seen)
	refs := maps.Keys(seen)
	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })

	return &Formula{
		root:       root,
		refs:       refs,
		expression: root.text(0, false),
	}, nil
}

// Evaluate computes the formula's value by resolving each referenced
// position through lookup and applying the arithmetic operators to the
// results. An error from lookup, or a non-finite result of any operation,
// yields an Error value.
func (f *Formula) Evaluate(lookup Lookup) value.Val {
	result, err := f.root.eval(lookup)
	if err != nil {
		return value.NewError(err.Kind)
	}
	return value.Number(result)
}

// Expression returns the formula's canonical re-serialized form (operator
// precedence respected, no redundant parentheses), without the leading '='.
func (f *Formula) Expression() string {
	return f.expression
}

// ReferencedCells returns the deduplicated positions the formula
// references, sorted in (row, col) order.
func (f *Formula) ReferencedCells() []position.Position {
	out := make([]position.Position, len(f.refs))
	copy(out, f.refs)
	return out
}
