package pack_test

import (
	"os"
	"path/filepath"
	"testing"

	"dac-sync/internal/pack"

	"github.com/stretchr/testify/require"
)

func TestRemoveSubsystemData(t *testing.T) {
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "Data")
	writeFile(t, filepath.Join(dataDir, "HangFire.Job", "TableData-000.bcp"), []byte{0x01})
	writeFile(t, filepath.Join(dataDir, "HangFire.Server.bcp"), []byte{0x02})
	writeFile(t, filepath.Join(dataDir, "dbo.Orders", "TableData-000.bcp"), []byte{0x03})

	removed, names, err := pack.RemoveSubsystemData(dir)
	require.NoError(t, err)
	require.Equal(t, 2, removed)
	require.ElementsMatch(t, []string{"HangFire.Job", "HangFire.Server.bcp"}, names)

	_, err = os.Stat(filepath.Join(dataDir, "HangFire.Job"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dataDir, "dbo.Orders", "TableData-000.bcp"))
	require.NoError(t, err)
}

func TestRemoveSubsystemData_NoDataDir(t *testing.T) {
	removed, names, err := pack.RemoveSubsystemData(t.TempDir())
	require.NoError(t, err)
	require.Zero(t, removed)
	require.Empty(t, names)
}
