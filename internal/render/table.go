// Package render builds the rows-plus-column-descriptors contract handed to
// the table component.
package render

// Column describes one table column over rows of type R.
type Column[R any] struct {
	Key    string
	Header string
	Format func(R) string
}

// Header is the serializable part of a column.
type Header struct {
	Key    string `json:"key"`
	Header string `json:"header"`
}

// Row is one rendered row. Cells align with Table.Columns. ID is handed
// back by the table when the row is clicked.
type Row struct {
	ID    string   `json:"id"`
	Cells []string `json:"cells"`
}

// Table is the complete render payload.
type Table struct {
	Columns []Header `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Build formats rows with columns, preserving row order.
func Build[R any](rows []R, columns []Column[R], id func(R) string) Table {
	t := Table{
		Columns: make([]Header, len(columns)),
		Rows:    make([]Row, 0, len(rows)),
	}
	for i, c := range columns {
		t.Columns[i] = Header{Key: c.Key, Header: c.Header}
	}
	for _, r := range rows {
		cells := make([]string, len(columns))
		for i, c := range columns {
			if c.Format != nil {
				cells[i] = c.Format(r)
			}
		}
		t.Rows = append(t.Rows, Row{ID: id(r), Cells: cells})
	}
	return t
}

// Cell returns the cell of row i under key.
func (t Table) Cell(i int, key string) (string, bool) {
	if i < 0 || i >= len(t.Rows) {
		return "", false
	}
	for j, c := range t.Columns {
		if c.Key == key {
			return t.Rows[i].Cells[j], true
		}
	}
	return "", false
}
