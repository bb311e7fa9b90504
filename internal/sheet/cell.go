package sheet

import (
	"strings"

	"gridsheet/internal/formula"
	"gridsheet/internal/position"
	"gridsheet/internal/value"
)

// kind is the closed content tag: a cell is always exactly one of Empty,
// Text, or Formula, never a wider hierarchy.
type kind int

const (
	kindEmpty kind = iota
	kindText
	kindFormula
)

// Cell holds one grid slot's content plus the dependency-graph bookkeeping
// the owning Sheet needs for cycle detection and cache invalidation. A
// cell never reaches into another cell directly — all neighbor access
// goes through the sheet, so Cell has no field referring to another Cell,
// only Positions.
type Cell struct {
	pos          position.Position
	kind         kind
	raw          string
	formula      *formula.Formula
	forwardDeps  []position.Position
	backwardDeps []position.Position
	cached       *float64
}

func newCell(pos position.Position) *Cell {
	return &Cell{pos: pos}
}

func (c *Cell) isEmpty() bool {
	return c.kind == kindEmpty
}

// cellSnapshot captures the fields a failed formula installation must
// restore verbatim, so that a rejected SetCell is externally
// indistinguishable from a no-op.
type cellSnapshot struct {
	kind        kind
	raw         string
	formula     *formula.Formula
	forwardDeps []position.Position
}

func (c *Cell) snapshot() cellSnapshot {
	return cellSnapshot{
		kind:        c.kind,
		raw:         c.raw,
		formula:     c.formula,
		forwardDeps: append([]position.Position(nil), c.forwardDeps...),
	}
}

func (c *Cell) restore(s cellSnapshot) {
	c.kind = s.kind
	c.raw = s.raw
	c.formula = s.formula
	c.forwardDeps = s.forwardDeps
}

// set rebuilds the cell's own content from text. It never touches a
// neighbor's edges and never performs a cycle check — Sheet.SetCell owns
// the transactional rewire/check/commit-or-rollback sequence around this
// call. The cache is always cleared here, since content is about to
// change.
func (c *Cell) set(text string) error {
	c.cached = nil
	switch {
	case text == "":
		c.kind = kindEmpty
		c.raw = ""
		c.formula = nil
		c.forwardDeps = nil
	case strings.HasPrefix(text, "=") && len(text) > 1:
		f, err := formula.Parse(text[1:])
		if err != nil {
			return &FormulaParseError{Text: text, Cause: err}
		}
		c.kind = kindFormula
		c.raw = text
		c.formula = f
		c.forwardDeps = f.ReferencedCells()
	default:
		c.kind = kindText
		c.raw = text
		c.formula = nil
		c.forwardDeps = nil
	}
	return nil
}

// displayText resolves the escape sign: a leading ' strips for the
// displayed value but stays in the raw text GetText returns.
func displayText(raw string) string {
	if strings.HasPrefix(raw, "'") {
		return raw[1:]
	}
	return raw
}

// GetValue returns the cell's current computed Value, evaluating and
// lazily caching a formula's result via lookup.
func (c *Cell) GetValue(lookup formula.Lookup) value.Val {
	switch c.kind {
	case kindText:
		return value.Text(displayText(c.raw))
	case kindFormula:
		if c.cached != nil {
			return value.Number(*c.cached)
		}
		v := c.formula.Evaluate(lookup)
		if n, ok := value.AsNumber(v); ok {
			c.cached = &n
		}
		return v
	default:
		return value.Text("")
	}
}

// GetText returns the cell's literal input form: "" for Empty, the raw
// text (escape sign included) for Text, and "=" plus the canonical
// re-serialized expression for Formula.
func (c *Cell) GetText() string {
	switch c.kind {
	case kindText:
		return c.raw
	case kindFormula:
		return "=" + c.formula.Expression()
	default:
		return ""
	}
}

// GetReferencedCells returns the cell's forward dependencies (sorted,
// deduplicated). Empty and Text cells have none.
func (c *Cell) GetReferencedCells() []position.Position {
	out := make([]position.Position, len(c.forwardDeps))
	copy(out, c.forwardDeps)
	return out
}

// IsReferenced reports whether any other cell's forward_deps names this one.
func (c *Cell) IsReferenced() bool {
	return len(c.backwardDeps) > 0
}
