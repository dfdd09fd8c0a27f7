// Package diff compares the table sets of two schema documents and renders a
// bounded comparison report. The report is informational only: the merger
// re-derives its own comparison and never consumes a Result.
package diff

import (
	"fmt"
	"io"
	"sort"

	"dac-sync/internal/model"
)

// Display caps keep the report readable on wide schemas.
const (
	maxTableLines  = 20
	maxColumnLines = 10
)

// ColumnDiff records how many source columns a shared table is missing in the
// baseline.
type ColumnDiff struct {
	Table   string
	Missing int
}

// Result is the outcome of a comparison. Entities are only ever present or
// absent; content drift on existing columns is not detected.
type Result struct {
	MissingInBaseline []string
	ExtraInBaseline   []string
	ColumnDiffs       []ColumnDiff
}

// Compare diffs two extracted table sets by name. Both name lists come back
// sorted; column diffs are reported per shared table, in table-name order,
// only when at least one source column is absent from the baseline.
func Compare(baseline, source []*model.Table) *Result {
	baseIdx := model.TableIndex(baseline)
	srcIdx := model.TableIndex(source)

	res := &Result{}
	for name := range srcIdx {
		if _, ok := baseIdx[name]; !ok {
			res.MissingInBaseline = append(res.MissingInBaseline, name)
		}
	}
	for name := range baseIdx {
		if _, ok := srcIdx[name]; !ok {
			res.ExtraInBaseline = append(res.ExtraInBaseline, name)
		}
	}
	sort.Strings(res.MissingInBaseline)
	sort.Strings(res.ExtraInBaseline)

	var shared []string
	for name := range baseIdx {
		if _, ok := srcIdx[name]; ok {
			shared = append(shared, name)
		}
	}
	sort.Strings(shared)

	for _, name := range shared {
		base := baseIdx[name]
		missing := 0
		for _, col := range srcIdx[name].Columns {
			if !base.HasColumn(col.Name) {
				missing++
			}
		}
		if missing > 0 {
			res.ColumnDiffs = append(res.ColumnDiffs, ColumnDiff{Table: name, Missing: missing})
		}
	}

	return res
}

// Report writes the human-readable comparison report. Long lists are capped
// with an overflow count.
func (r *Result) Report(w io.Writer) {
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(w, format+"\n", args...)
	}

	line("")
	line("============================================================")
	line("COMPARISON REPORT")
	line("============================================================")

	line("")
	line("[TABLES MISSING IN BASELINE] (%d)", len(r.MissingInBaseline))
	for i, name := range r.MissingInBaseline {
		if i == maxTableLines {
			line("  ... and %d more", len(r.MissingInBaseline)-maxTableLines)
			break
		}
		line("  + %s", name)
	}

	line("")
	line("[TABLES ONLY IN BASELINE] (%d)", len(r.ExtraInBaseline))
	for i, name := range r.ExtraInBaseline {
		if i == maxTableLines {
			line("  ... and %d more", len(r.ExtraInBaseline)-maxTableLines)
			break
		}
		line("  - %s", name)
	}

	line("")
	line("[COLUMN DIFFERENCES] (%d tables)", len(r.ColumnDiffs))
	for i, cd := range r.ColumnDiffs {
		if i == maxColumnLines {
			break
		}
		line("  %s: +%d columns", cd.Table, cd.Missing)
	}
}
