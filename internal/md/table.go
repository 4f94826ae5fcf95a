package md

import "github.com/cockroachdb/errors"

// Column describes one column of a table or view.
type Column struct {
	Name     string
	Type     *Type
	Nullable bool
	IsKey    bool
}

// Table describes a table scanned by a ScanTable op. Columns are in ordinal
// order; Keys are ordinals of the key columns in declaration order.
type Table struct {
	Name    string
	Columns []Column
	Keys    []int
}

// NewTable builds a table descriptor. Every key name must name a column;
// a miss means the metadata was assembled wrong and is reported as an
// assertion failure.
func NewTable(name string, columns []Column, keyNames ...string) *Table {
	t := &Table{Name: name, Columns: append([]Column(nil), columns...)}
	for _, k := range keyNames {
		ord, ok := t.ColumnOrdinal(k)
		if !ok {
			panic(errors.AssertionFailedf("table %q: key column %q not found", name, k))
		}
		t.Columns[ord].IsKey = true
		t.Columns[ord].Nullable = false
		t.Keys = append(t.Keys, ord)
	}
	return t
}

// ColumnOrdinal returns the ordinal of the named column.
func (t *Table) ColumnOrdinal(name string) (int, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// EntitySet is a named extent of entities of one element type.
type EntitySet struct {
	Container   string
	Name        string
	ElementType *Type
}

func (s *EntitySet) String() string {
	if s.Container == "" {
		return s.Name
	}
	return s.Container + "." + s.Name
}
