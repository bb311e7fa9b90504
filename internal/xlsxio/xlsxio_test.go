package xlsxio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gridsheet/internal/position"
	"gridsheet/internal/sheet"
	"gridsheet/internal/value"
)

func mustPos(t *testing.T, label string) position.Position {
	t.Helper()
	p, err := position.Parse(label)
	require.NoError(t, err)
	return p
}

func TestExportImportRoundTrip(t *testing.T) {
	src := sheet.New()
	require.NoError(t, src.SetCell(mustPos(t, "A1"), "7"))
	require.NoError(t, src.SetCell(mustPos(t, "B1"), "=A1+3"))
	require.NoError(t, src.SetCell(mustPos(t, "A2"), "hello"))

	var buf bytes.Buffer
	require.NoError(t, Export(src, &buf))
	assert.NotZero(t, buf.Len())

	dst := sheet.New()
	require.NoError(t, Import(bytes.NewReader(buf.Bytes()), dst))

	ref, ok := dst.GetCell(mustPos(t, "B1"))
	require.True(t, ok)
	assert.Equal(t, value.Number(10), ref.GetValue())

	ref, ok = dst.GetCell(mustPos(t, "A2"))
	require.True(t, ok)
	assert.Equal(t, value.Text("hello"), ref.GetValue())
}

func TestImportRejectsUnparsableFormulaText(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", defaultWorksheet))
	// A literal "=1+" stored as a plain string value (not a live xlsx
	// formula) still begins with '=', so Import hands it to SetCell as a
	// formula, which must reject the dangling operator.
	require.NoError(t, f.SetCellValue(defaultWorksheet, "A1", "=1+"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	dst := sheet.New()
	err := Import(bytes.NewReader(buf.Bytes()), dst)
	require.Error(t, err)
	var importErr *ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, "A1", importErr.Cell)
}
