package model

// Element types as they appear in the Type attribute of a DAC model.
const (
	TypeTable = "SqlTable"

	relColumns = "Columns"
)

// Column is a named column element owned by a Table.
type Column struct {
	Name    string
	Element *Element
}

// Table is a named table element together with its ordered column list.
type Table struct {
	Name    string
	Element *Element
	Columns []*Column
}

// HasColumn reports whether the table owns a column with exactly this name.
// Matching is exact: case or representation variants count as different
// columns.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Tables collects every table element in the document, in document order,
// skipping nameless tables and any name the exclude predicate rejects.
// Columns are resolved through the table's "Columns" relationship entries.
// The traversal is read-only.
func Tables(root *Element, exclude func(string) bool) []*Table {
	var tables []*Table
	root.Walk(func(e *Element) {
		if e.Tag != "Element" || e.Attr("Type") != TypeTable {
			return
		}
		name := e.Attr("Name")
		if name == "" {
			// Cannot be keyed without a name.
			return
		}
		if exclude != nil && exclude(name) {
			return
		}
		tables = append(tables, &Table{
			Name:    name,
			Element: e,
			Columns: columnsOf(e),
		})
	})
	return tables
}

// TableIndex builds a name lookup over a table list.
func TableIndex(tables []*Table) map[string]*Table {
	idx := make(map[string]*Table, len(tables))
	for _, t := range tables {
		idx[t.Name] = t
	}
	return idx
}

// columnsOf walks the table subtree for Relationship[@Name="Columns"] nodes
// and collects the named Element under each Entry.
func columnsOf(table *Element) []*Column {
	var cols []*Column
	table.Walk(func(e *Element) {
		if e.Tag != "Relationship" || e.Attr("Name") != relColumns {
			return
		}
		for _, entry := range e.Children {
			if entry.Tag != "Entry" {
				continue
			}
			for _, col := range entry.Children {
				if col.Tag != "Element" {
					continue
				}
				if name := col.Attr("Name"); name != "" {
					cols = append(cols, &Column{Name: name, Element: col})
				}
			}
		}
	})
	return cols
}

// Entity is a named top-level element of some auxiliary type (index, key,
// constraint, view, procedure). Auxiliary entities are compared by name
// existence only, never by content.
type Entity struct {
	Name    string
	Element *Element
}

// EntitiesByType collects every named element of the given type anywhere in
// the document, in document order.
func EntitiesByType(root *Element, typ string) []Entity {
	var out []Entity
	root.Walk(func(e *Element) {
		if e.Tag != "Element" || e.Attr("Type") != typ {
			return
		}
		if name := e.Attr("Name"); name != "" {
			out = append(out, Entity{Name: name, Element: e})
		}
	})
	return out
}

// EntityIndex builds a name lookup over an entity list.
func EntityIndex(entities []Entity) map[string]*Element {
	idx := make(map[string]*Element, len(entities))
	for _, e := range entities {
		idx[e.Name] = e.Element
	}
	return idx
}
