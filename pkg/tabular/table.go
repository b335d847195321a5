package tabular

// Table is a loosely-typed result set as returned by the data provider.
// Column availability varies by season and session type, so consumers must
// probe for presence instead of assuming a fixed schema.
type Table struct {
	Columns []string         `json:"columns"`
	Rows    []Row            `json:"rows"`
	colSet  map[string]struct{}
}

// Row is a single column-addressable record. Values are whatever the JSON
// decoder produced: string, float64, bool, or nil.
type Row map[string]any

// New builds a Table from explicit columns and rows.
func New(columns []string, rows []Row) *Table {
	t := &Table{Columns: columns, Rows: rows}
	t.indexColumns()
	return t
}

// indexColumns rebuilds the column presence set. Must be called after
// deserialization before HasColumn is used.
func (t *Table) indexColumns() {
	t.colSet = make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		t.colSet[c] = struct{}{}
	}
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	if t.colSet == nil {
		t.indexColumns()
	}
	_, ok := t.colSet[name]
	return ok
}

// Len returns the number of rows. Safe on a nil table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether the table is nil or has no rows.
func (t *Table) Empty() bool {
	return t.Len() == 0
}

// Lookup returns the raw cell value and whether the column exists on this
// row. A present column holding nil returns (nil, true); absence of the
// column returns (nil, false).
func (r Row) Lookup(column string) (any, bool) {
	v, ok := r[column]
	return v, ok
}

// Value returns the raw cell value, or nil when the column is absent.
// Callers that need to distinguish "absent" from "present but null" use
// Lookup instead.
func (r Row) Value(column string) any {
	return r[column]
}
