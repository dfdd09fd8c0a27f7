// Package merge appends schema elements that exist in a source model but not
// in the baseline model. The merge is append-only: nothing in the baseline is
// ever removed or overwritten, so rerunning against the same source is a
// no-op.
package merge

import (
	"errors"

	"dac-sync/internal/model"
)

// ErrNoModelContainer means the baseline document has no Model element to
// merge into; the baseline is malformed and the run must abort.
var ErrNoModelContainer = errors.New("model container not found in baseline document")

// auxiliaryTypes is the fixed registry of top-level entity kinds that are
// merged by name existence. Order matters only for output determinism.
var auxiliaryTypes = []string{
	"SqlIndex",
	"SqlPrimaryKeyConstraint",
	"SqlForeignKeyConstraint",
	"SqlDefaultConstraint",
	"SqlView",
	"SqlProcedure",
}

// Stats summarizes what a merge added to the baseline.
type Stats struct {
	TablesAdded  int
	ColumnsAdded int
	// AddedColumns lists appended columns as "table.column", in source order.
	AddedColumns []string
}

// Apply merges everything present in source but absent from baseline into the
// baseline tree, in place. Table and entity identity is the Name attribute;
// excluded names (backup tables, reserved subsystem) never participate on
// either side. All transplanted subtrees are deep-copied so the source tree
// stays untouched and can be discarded.
func Apply(baselineRoot, sourceRoot *model.Element) (*Stats, error) {
	container := baselineRoot.Child("Model")
	if container == nil {
		return nil, ErrNoModelContainer
	}

	// Re-derived here rather than reused from a diff pass: the merger is
	// self-contained.
	baseTables := model.TableIndex(model.Tables(baselineRoot, model.Excluded))
	srcTables := model.Tables(sourceRoot, model.Excluded)

	stats := &Stats{}

	for _, src := range srcTables {
		base, ok := baseTables[src.Name]
		if !ok {
			container.Append(src.Element.Clone())
			stats.TablesAdded++
			continue
		}
		mergeColumns(base, src, stats)
	}

	for _, typ := range auxiliaryTypes {
		baseIdx := model.EntityIndex(model.EntitiesByType(baselineRoot, typ))
		for _, ent := range model.EntitiesByType(sourceRoot, typ) {
			if _, ok := baseIdx[ent.Name]; !ok {
				container.Append(ent.Element.Clone())
			}
		}
	}

	return stats, nil
}

// mergeColumns appends source columns missing by exact name from the baseline
// table. Each copied column is wrapped in a fresh Entry under the table's
// direct Columns relationship. A baseline table without that relationship is
// a pre-existing structural oddity; its columns are skipped, never fatal.
func mergeColumns(base, src *model.Table, stats *Stats) {
	for _, col := range src.Columns {
		if base.HasColumn(col.Name) {
			continue
		}
		rel := base.Element.ChildWithAttr("Relationship", "Name", "Columns")
		if rel == nil {
			continue
		}
		entry := &model.Element{Tag: "Entry"}
		entry.Append(col.Element.Clone())
		rel.Append(entry)
		stats.ColumnsAdded++
		stats.AddedColumns = append(stats.AddedColumns, src.Name+"."+col.Name)
	}
}
