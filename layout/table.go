package layout

import "fmt"

// Table is a ColumnBox of RowBoxes sharing one set of column widths.
// Header rows must be added before body rows and repeat after page
// breaks.
type Table struct {
	*ColumnBox
	columns []DimensionSpec
	grid    *Border
}

func NewTable(columns []DimensionSpec, opts ...Option) *Table {
	cb := NewColumnBox(opts...)
	cb.kind = "table"
	return &Table{ColumnBox: cb, columns: append([]DimensionSpec(nil), columns...)}
}

// SetGrid draws b around every cell added afterwards.
func (t *Table) SetGrid(b Border) error {
	if err := t.checkMutable("set grid"); err != nil {
		return err
	}
	t.grid = &b
	return nil
}

func (t *Table) Columns() []DimensionSpec { return append([]DimensionSpec(nil), t.columns...) }

// AddHeaderRow appends a header row. All header rows come first.
func (t *Table) AddHeaderRow(cells ...Element) error {
	if t.headerRows != len(t.rows) {
		return usageError("add header row", t.id, fmt.Errorf("header rows must precede body rows: %w", ErrInvalidArgument))
	}
	if err := t.addRow(cells); err != nil {
		return err
	}
	t.headerRows++
	return nil
}

func (t *Table) AddRow(cells ...Element) error {
	return t.addRow(cells)
}

func (t *Table) addRow(cells []Element) error {
	if err := t.checkMutable("add row"); err != nil {
		return err
	}
	if len(cells) != len(t.columns) {
		return usageError("add row", t.id, fmt.Errorf("got %d cells for %d columns: %w", len(cells), len(t.columns), ErrInvalidArgument))
	}
	r := NewRowBox(WithID(fmt.Sprintf("%s-r%d", t.id, len(t.rows))))
	for i, cell := range cells {
		if t.grid != nil {
			if b, ok := cell.(interface{ SetBorder(Border) error }); ok {
				if err := b.SetBorder(*t.grid); err != nil {
					return err
				}
			}
		}
		if err := r.AddColumn(cell, t.columns[i]); err != nil {
			return err
		}
	}
	return t.ColumnBox.AddRow(r, Auto())
}
