package merge_test

import (
	"strings"
	"testing"

	"dac-sync/internal/merge"
	"dac-sync/internal/model"

	"github.com/stretchr/testify/require"
)

func doc(t *testing.T, body string) *model.Element {
	t.Helper()
	raw := `<?xml version="1.0" encoding="utf-8"?>` +
		`<DataSchemaModel xmlns="` + model.Namespace + `"><Model>` + body + `</Model></DataSchemaModel>`
	root, err := model.Parse(strings.NewReader(raw))
	require.NoError(t, err)
	return root
}

func tableXML(name string, cols ...string) string {
	var b strings.Builder
	b.WriteString(`<Element Type="SqlTable" Name="` + name + `">`)
	b.WriteString(`<Relationship Name="Columns">`)
	for _, c := range cols {
		b.WriteString(`<Entry><Element Type="SqlSimpleColumn" Name="` + c + `"/></Entry>`)
	}
	b.WriteString(`</Relationship></Element>`)
	return b.String()
}

func tableNames(root *model.Element) []string {
	var names []string
	for _, tb := range model.Tables(root, nil) {
		names = append(names, tb.Name)
	}
	return names
}

func TestApply_AddsMissingTablesAndColumns(t *testing.T) {
	baseline := doc(t,
		tableXML("[dbo].[Orders]", "[dbo].[Orders].[Id]", "[dbo].[Orders].[CustomerId]")+
			tableXML("[dbo].[Customers]", "[dbo].[Customers].[Id]"))
	source := doc(t,
		tableXML("[dbo].[Orders]", "[dbo].[Orders].[Id]", "[dbo].[Orders].[CustomerId]", "[dbo].[Orders].[Total]")+
			tableXML("[dbo].[Customers]", "[dbo].[Customers].[Id]")+
			tableXML("[dbo].[Invoices]", "[dbo].[Invoices].[Id]"))

	stats, err := merge.Apply(baseline, source)
	require.NoError(t, err)

	require.Equal(t, 1, stats.TablesAdded)
	require.Equal(t, 1, stats.ColumnsAdded)
	require.Equal(t, []string{"[dbo].[Orders].[dbo].[Orders].[Total]"}, stats.AddedColumns)

	merged := model.TableIndex(model.Tables(baseline, nil))
	require.Contains(t, merged, "[dbo].[Invoices]")
	require.True(t, merged["[dbo].[Orders]"].HasColumn("[dbo].[Orders].[Total]"))
	require.Len(t, merged["[dbo].[Invoices]"].Columns, 1)
}

func TestApply_Idempotent(t *testing.T) {
	baseline := doc(t, tableXML("[dbo].[Orders]", "[dbo].[Orders].[Id]"))
	source := doc(t,
		tableXML("[dbo].[Orders]", "[dbo].[Orders].[Id]", "[dbo].[Orders].[Total]")+
			tableXML("[dbo].[Invoices]", "[dbo].[Invoices].[Id]")+
			`<Element Type="SqlView" Name="[dbo].[OpenOrders]"/>`)

	first, err := merge.Apply(baseline, source)
	require.NoError(t, err)
	require.Equal(t, 1, first.TablesAdded)
	require.Equal(t, 1, first.ColumnsAdded)

	var before strings.Builder
	require.NoError(t, model.Write(&before, baseline, model.WriteOptions{}))

	second, err := merge.Apply(baseline, source)
	require.NoError(t, err)
	require.Equal(t, 0, second.TablesAdded)
	require.Equal(t, 0, second.ColumnsAdded)
	require.Empty(t, second.AddedColumns)

	var after strings.Builder
	require.NoError(t, model.Write(&after, baseline, model.WriteOptions{}))
	require.Equal(t, before.String(), after.String())

	require.Len(t, model.EntitiesByType(baseline, "SqlView"), 1)
}

func TestApply_Superset(t *testing.T) {
	baseline := doc(t,
		tableXML("[dbo].[Orders]", "[dbo].[Orders].[Id]")+
			tableXML("[dbo].[Legacy]", "[dbo].[Legacy].[Id]"))
	source := doc(t, tableXML("[dbo].[Invoices]", "[dbo].[Invoices].[Id]"))

	beforeNames := tableNames(baseline)

	_, err := merge.Apply(baseline, source)
	require.NoError(t, err)

	afterNames := tableNames(baseline)
	for _, name := range beforeNames {
		require.Contains(t, afterNames, name, "merge must never remove %s", name)
	}
	// Appended entities come after everything the baseline already had.
	require.Equal(t, append(beforeNames, "[dbo].[Invoices]"), afterNames)
}

func TestApply_ExcludedNamesNeverMerge(t *testing.T) {
	baseline := doc(t, tableXML("[dbo].[Orders]", "[dbo].[Orders].[Id]"))
	source := doc(t,
		tableXML("[dbo].[Orders_BK_20240101]", "[dbo].[Orders_BK_20240101].[Id]")+
			tableXML("[HangFire].[Job]", "[HangFire].[Job].[Id]"))

	stats, err := merge.Apply(baseline, source)
	require.NoError(t, err)
	require.Equal(t, 0, stats.TablesAdded)

	names := tableNames(baseline)
	require.NotContains(t, names, "[dbo].[Orders_BK_20240101]")
	require.NotContains(t, names, "[HangFire].[Job]")
}

func TestApply_MissingColumnsRelationshipSkipsSilently(t *testing.T) {
	// A baseline table without a Columns relationship is a pre-existing
	// structural oddity: the column is dropped, the run goes on.
	baseline := doc(t, `<Element Type="SqlTable" Name="[dbo].[Orders]"/>`)
	source := doc(t, tableXML("[dbo].[Orders]", "[dbo].[Orders].[Total]"))

	stats, err := merge.Apply(baseline, source)
	require.NoError(t, err)
	require.Equal(t, 0, stats.ColumnsAdded)
	require.Empty(t, stats.AddedColumns)
}

func TestApply_NoModelContainer(t *testing.T) {
	raw := `<DataSchemaModel xmlns="` + model.Namespace + `"><Header/></DataSchemaModel>`
	baseline, err := model.Parse(strings.NewReader(raw))
	require.NoError(t, err)
	source := doc(t, tableXML("[dbo].[Orders]", "[dbo].[Orders].[Id]"))

	_, err = merge.Apply(baseline, source)
	require.ErrorIs(t, err, merge.ErrNoModelContainer)
}

func TestApply_AuxiliaryEntitiesAppendTopLevel(t *testing.T) {
	baseline := doc(t,
		tableXML("[dbo].[Orders]", "[dbo].[Orders].[Id]")+
			`<Element Type="SqlIndex" Name="[dbo].[Orders].[IX_Existing]"/>`)
	source := doc(t,
		`<Element Type="SqlIndex" Name="[dbo].[Orders].[IX_Existing]"/>`+
			`<Element Type="SqlIndex" Name="[dbo].[Orders].[IX_New]"/>`+
			`<Element Type="SqlProcedure" Name="[dbo].[GetOrders]"/>`+
			`<Element Type="SqlDefaultConstraint" Name="[dbo].[DF_Orders_Total]"/>`)

	_, err := merge.Apply(baseline, source)
	require.NoError(t, err)

	require.Len(t, model.EntitiesByType(baseline, "SqlIndex"), 2)
	require.Len(t, model.EntitiesByType(baseline, "SqlProcedure"), 1)
	require.Len(t, model.EntitiesByType(baseline, "SqlDefaultConstraint"), 1)

	// Appended directly under the Model container, not nested in a table.
	container := baseline.Child("Model")
	proc := container.ChildWithAttr("Element", "Type", "SqlProcedure")
	require.NotNil(t, proc)
}

func TestApply_DeepCopiesSourceSubtrees(t *testing.T) {
	baseline := doc(t, tableXML("[dbo].[Orders]", "[dbo].[Orders].[Id]"))
	source := doc(t, tableXML("[dbo].[Invoices]", "[dbo].[Invoices].[Id]"))

	_, err := merge.Apply(baseline, source)
	require.NoError(t, err)

	// Mutating the source afterwards must not leak into the baseline.
	srcTable := model.Tables(source, nil)[0]
	srcTable.Element.Attrs[1].Value = "[dbo].[Renamed]"

	merged := model.TableIndex(model.Tables(baseline, nil))
	require.Contains(t, merged, "[dbo].[Invoices]")
}
