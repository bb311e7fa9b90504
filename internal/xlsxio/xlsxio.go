// Package xlsxio imports and exports a Sheet's grid to and from real
// .xlsx workbooks, using excelize to build and read the underlying
// workbook format.
package xlsxio

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"gridsheet/internal/position"
	"gridsheet/internal/sheet"
)

// defaultWorksheet is the single worksheet name this package reads and
// writes; multi-sheet workbooks are out of scope.
const defaultWorksheet = "Sheet1"

// Export writes sh's printable region to w as an .xlsx workbook: formula
// cells are written as live formulas (so opening the file in a real
// spreadsheet application recomputes them), text cells are written as
// their displayed value, and empty cells are not written.
func Export(sh *sheet.Sheet, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", defaultWorksheet); err != nil {
		return err
	}

	size := sh.GetPrintableSize()
	for row := 0; row < size.Rows; row++ {
		for col := 0; col < size.Cols; col++ {
			pos := position.Position{Row: row, Col: col}
			ref, ok := sh.GetCell(pos)
			if !ok {
				continue
			}
			cellName := pos.String()
			text := ref.GetText()
			switch {
			case text == "":
				continue
			case strings.HasPrefix(text, "="):
				if err := f.SetCellFormula(defaultWorksheet, cellName, text); err != nil {
					return err
				}
			default:
				if err := f.SetCellValue(defaultWorksheet, cellName, ref.GetValue().Display()); err != nil {
					return err
				}
			}
		}
	}

	return f.Write(w)
}

// Import reads an .xlsx workbook from r and replays its cells into sh via
// SetCell, so formulas are re-parsed and re-validated (cycle-checked)
// against gridsheet's own semantics rather than trusted verbatim from the
// file. The first worksheet in the workbook is used.
func Import(r io.Reader, sh *sheet.Sheet) error {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return err
	}
	defer f.Close()

	sheetNames := f.GetSheetList()
	if len(sheetNames) == 0 {
		return nil
	}
	name := sheetNames[0]

	rows, err := f.GetRows(name)
	if err != nil {
		return err
	}
	for rowIdx, row := range rows {
		for colIdx, cellValue := range row {
			cellName, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+1)
			if err != nil {
				return err
			}
			formula, err := f.GetCellFormula(name, cellName)
			if err != nil {
				return err
			}
			// A formula cell written without a cached result has an empty
			// stored value, so only cells with neither are skipped.
			if cellValue == "" && formula == "" {
				continue
			}
			pos := position.Position{Row: rowIdx, Col: colIdx}
			text := cellValue
			if formula != "" {
				text = "=" + formula
			}
			if err := sh.SetCell(pos, text); err != nil {
				return &ImportError{Cell: cellName, Err: err}
			}
		}
	}
	return nil
}

// ImportError names the workbook cell whose text gridsheet rejected
// (invalid position, unparsable formula, or a circular reference), since
// the underlying sheet.EditError only carries gridsheet's own Position.
type ImportError struct {
	Cell string
	Err  error
}

func (e *ImportError) Error() string {
	return "xlsxio: importing " + e.Cell + ": " + e.Err.Error()
}

func (e *ImportError) Unwrap() error { return e.Err }
