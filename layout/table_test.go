package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTable(t *testing.T, bodyRows int) *Table {
	t.Helper()
	tbl := NewTable([]DimensionSpec{Abs(20), Star()}, WithID("tbl"))
	require.NoError(t, tbl.AddHeaderRow(NewText("H1", body), NewText("H2", body)))
	for i := 0; i < bodyRows; i++ {
		require.NoError(t, tbl.AddRow(NewText("x", body), NewText("y", body)))
	}
	return tbl
}

func TestTableColumnWidths(t *testing.T) {
	pass, _ := newPass(t)
	tbl := newTable(t, 2)
	size := mustPrepare(t, pass, tbl, 100, 100)
	assert.InDelta(t, 15, size.Height, 1e-9)
	assert.InDelta(t, 100, size.Width, 1e-9)

	r := tbl.Row(1).(*RowBox)
	assert.Equal(t, "tbl-r1", r.ID())
	assert.InDeltaSlice(t, []float64{20, 80}, r.ColumnWidths(), 1e-9)
	assert.Equal(t, 1, tbl.HeaderRowCount())
}

func TestTableRowValidation(t *testing.T) {
	tbl := newTable(t, 1)
	err := tbl.AddRow(NewText("only one", body))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	err = tbl.AddHeaderRow(NewText("a", body), NewText("b", body))
	assert.ErrorIs(t, err, ErrInvalidArgument, "header after body row")
}

func TestTableGridBordersCells(t *testing.T) {
	tbl := NewTable([]DimensionSpec{Star()})
	require.NoError(t, tbl.SetGrid(UniformBorder(0.5, Black)))
	cell := NewText("x", body)
	require.NoError(t, tbl.AddRow(cell))
	assert.InDelta(t, 1, cell.OutlineXSum(), 1e-9)
}

func TestTableSplitRepeatsHeader(t *testing.T) {
	pass, _ := newPass(t)
	tbl := newTable(t, 4)
	mustPrepare(t, pass, tbl, 100, 100)

	res, err := tbl.SplitVertical(100, 12)
	require.NoError(t, err)
	require.NotNil(t, res)
	head := res.Head.Element.(*ColumnBox)
	tail := res.Tail.Element.(*ColumnBox)
	assert.Equal(t, 2, head.RowCount())
	assert.Equal(t, 4, tail.RowCount())
	assert.Same(t, tbl.Row(0), head.Row(0))
	assert.Same(t, tbl.Row(0), tail.Row(0))
	assert.InDelta(t, 10, res.Head.Full.Height, 1e-9)
	assert.InDelta(t, 20, res.Tail.Full.Height, 1e-9)
}
