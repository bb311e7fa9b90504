// Package sheet implements the grid container and the dependency-graph
// algorithms that sit on top of it: cycle detection, cache invalidation,
// and the printable bounding box. Cell and Sheet share one package because
// Sheet routinely reaches into Cell's unexported fields to perform the
// edge bookkeeping a cell must never do to itself.
package sheet

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"gridsheet/internal/formula"
	"gridsheet/internal/position"
	"gridsheet/internal/value"
)

// EditErrorKind enumerates the three ways a mutation can be rejected at
// the sheet's edit boundary.
type EditErrorKind int

const (
	InvalidPosition EditErrorKind = iota
	FormulaParse
	CircularDependency
)

func (k EditErrorKind) String() string {
	switch k {
	case InvalidPosition:
		return "invalid position"
	case FormulaParse:
		return "formula parse error"
	case CircularDependency:
		return "circular dependency"
	default:
		return "edit error"
	}
}

// EditError is returned by SetCell/ClearCell when a mutation is rejected.
// Mutations that fail leave the sheet exactly as it was.
type EditError struct {
	Kind EditErrorKind
	Pos  position.Position
	Err  error
}

func (e *EditError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s at %s: %v", e.Kind, e.Pos, e.Err)
	}
	return fmt.Sprintf("%s at %s", e.Kind, e.Pos)
}

func (e *EditError) Unwrap() error { return e.Err }

// FormulaParseError wraps the formula package's parse error with the
// offending input text.
type FormulaParseError struct {
	Text  string
	Cause error
}

func (e *FormulaParseError) Error() string {
	return fmt.Sprintf("cannot parse formula %q: %v", e.Text, e.Cause)
}

func (e *FormulaParseError) Unwrap() error { return e.Cause }

// Sheet is the grid container: it owns every cell, tracks the printable
// bounding box, and is the only thing a Cell's evaluation or graph
// bookkeeping ever reaches through to find a neighbor.
type Sheet struct {
	cells map[position.Position]*Cell
	size  position.Size
	log   *zerolog.Logger
}

// New returns an empty sheet.
func New() *Sheet {
	return &Sheet{cells: make(map[position.Position]*Cell)}
}

// WithLogger attaches a structured logger (zerolog, as the rest of this
// module's ambient stack uses) for mutation and error events, returning
// the sheet for chaining.
func (s *Sheet) WithLogger(log zerolog.Logger) *Sheet {
	s.log = &log
	return s
}

func (s *Sheet) logger() zerolog.Logger {
	if s.log != nil {
		return *s.log
	}
	return zerolog.Nop()
}

// SetCell replaces the content at pos, running the full sequence a safe
// mutation requires: cache invalidation, content swap, edge rewiring,
// cycle check, edge publication — or a rollback leaving no trace.
func (s *Sheet) SetCell(pos position.Position, text string) error {
	if !pos.IsValid() {
		return &EditError{Kind: InvalidPosition, Pos: pos}
	}
	s.invalidateCache(pos)

	cell, existed := s.cells[pos]
	if !existed {
		cell = newCell(pos)
	}
	oldForward := append([]position.Position(nil), cell.forwardDeps...)
	oldSnapshot := cell.snapshot()

	if err := cell.set(text); err != nil {
		s.logger().Warn().Stringer("pos", pos).Err(err).Msg("formula parse rejected")
		return &EditError{Kind: FormulaParse, Pos: pos, Err: err}
	}

	if cell.kind == kindFormula {
		if !existed {
			s.cells[pos] = cell
		}
		if s.hasCycleFrom(pos) {
			cell.restore(oldSnapshot)
			if !existed {
				delete(s.cells, pos)
			}
			s.logger().Warn().Stringer("pos", pos).Msg("circular dependency rejected")
			return &EditError{Kind: CircularDependency, Pos: pos}
		}
	} else if !existed {
		s.cells[pos] = cell
	}

	s.rewireEdges(pos, oldForward, cell.forwardDeps)

	if !cell.isEmpty() {
		s.growBox(pos)
	} else {
		s.shrinkBox()
	}

	s.logger().Debug().Stringer("pos", pos).Str("text", text).Msg("cell set")
	return nil
}

// ClearCell is equivalent to SetCell(pos, ""): content becomes Empty and
// forward edges detach, but the cell's own backward_deps (who depends on
// it) stay intact so dependents keep reading it as 0 / "" rather than
// losing the bookkeeping that would let a later write invalidate them.
// Clearing an already-absent or already-empty cell is a no-op.
func (s *Sheet) ClearCell(pos position.Position) error {
	if !pos.IsValid() {
		return &EditError{Kind: InvalidPosition, Pos: pos}
	}
	s.invalidateCache(pos)

	c, ok := s.cells[pos]
	if !ok || c.isEmpty() {
		return nil
	}
	oldForward := append([]position.Position(nil), c.forwardDeps...)
	_ = c.set("")
	s.rewireEdges(pos, oldForward, nil)
	s.shrinkBox()
	s.logger().Debug().Stringer("pos", pos).Msg("cell cleared")
	return nil
}

// CellRef is a read view onto one cell, bundling it with the sheet needed
// to resolve a formula's lazily-cached value.
type CellRef struct {
	cell  *Cell
	sheet *Sheet
}

func (r CellRef) GetValue() value.Val                    { return r.cell.GetValue(r.sheet) }
func (r CellRef) GetText() string                        { return r.cell.GetText() }
func (r CellRef) GetReferencedCells() []position.Position { return r.cell.GetReferencedCells() }
func (r CellRef) IsReferenced() bool                     { return r.cell.IsReferenced() }

// GetCell returns a CellRef for pos, or ok=false if pos falls outside the
// current printable box or no cell exists there. A position that a formula
// references holds an Empty placeholder cell even if it was never written
// to, so it is returned with ok=true when inside the box.
func (s *Sheet) GetCell(pos position.Position) (ref CellRef, ok bool) {
	if !pos.IsValid() || pos.Row >= s.size.Rows || pos.Col >= s.size.Cols {
		return CellRef{}, false
	}
	c, present := s.cells[pos]
	if !present {
		return CellRef{}, false
	}
	return CellRef{cell: c, sheet: s}, true
}

// GetConcreteCell returns the cell at pos regardless of printable-box
// membership, creating an Empty one if absent. It is the box-independent
// accessor for addressing a position that hasn't been written to yet.
func (s *Sheet) GetConcreteCell(pos position.Position) *Cell {
	return s.getOrCreate(pos)
}

// GetPrintableSize returns the minimal bounding box containing every
// non-empty cell.
func (s *Sheet) GetPrintableSize() position.Size {
	return s.size
}

// ResolveNumber implements formula.Lookup: the cell-to-number resolution
// rules a formula's operands follow. An absent cell resolves to 0 without
// being materialized into the grid, so a read can never grow the sheet.
func (s *Sheet) ResolveNumber(pos position.Position) (float64, *formula.EvalError) {
	if !pos.IsValid() {
		return 0, &formula.EvalError{Kind: value.Ref}
	}
	c, ok := s.cells[pos]
	if !ok {
		return 0, nil
	}
	switch v := c.GetValue(s).(type) {
	case value.Number:
		f := float64(v)
		if math.IsInf(f, 0) {
			return 0, &formula.EvalError{Kind: value.Div0}
		}
		return f, nil
	case value.Text:
		raw := string(v)
		if raw == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, &formula.EvalError{Kind: value.Value}
		}
		return f, nil
	case value.Error:
		return 0, &formula.EvalError{Kind: v.Kind}
	default:
		return 0, nil
	}
}

// PrintValues writes the printable region's displayed values to w: tab
// separated within a row, no trailing tab, newline-terminated rows.
func (s *Sheet) PrintValues(w io.Writer) error {
	return s.print(w, func(c *Cell) string {
		if c == nil {
			return ""
		}
		return c.GetValue(s).Display()
	})
}

// PrintTexts writes the printable region's literal input forms to w, with
// the same layout rules as PrintValues.
func (s *Sheet) PrintTexts(w io.Writer) error {
	return s.print(w, func(c *Cell) string {
		if c == nil {
			return ""
		}
		return c.GetText()
	})
}

func (s *Sheet) print(w io.Writer, render func(*Cell) string) error {
	for row := 0; row < s.size.Rows; row++ {
		cells := make([]string, s.size.Cols)
		for col := 0; col < s.size.Cols; col++ {
			cells[col] = render(s.cells[position.Position{Row: row, Col: col}])
		}
		last := len(cells)
		for last > 0 && cells[last-1] == "" {
			last--
		}
		if _, err := io.WriteString(w, strings.Join(cells[:last], "\t")+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns the printable region's displayed values as a row-major
// grid of strings, for components that want a plain data view rather than
// writing to an io.Writer (liveserver snapshot payloads).
func (s *Sheet) Snapshot() [][]string {
	rows := make([][]string, s.size.Rows)
	for row := range rows {
		cols := make([]string, s.size.Cols)
		for col := range cols {
			if c, ok := s.cells[position.Position{Row: row, Col: col}]; ok {
				cols[col] = c.GetValue(s).Display()
			}
		}
		rows[row] = cols
	}
	return rows
}
