package pack

import (
	"os"
	"path/filepath"
	"strings"

	"dac-sync/internal/model"
)

// RemoveSubsystemData deletes every entry under the extracted package's Data
// directory whose name references the reserved subsystem. Its exported data
// trips foreign-key checks on import, so it must not travel with the package.
// Returns the number of entries removed and their names.
func RemoveSubsystemData(extractDir string) (int, []string, error) {
	dataDir := filepath.Join(extractDir, "Data")
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil, nil
		}
		return 0, nil, err
	}

	removed := 0
	var names []string
	for _, e := range entries {
		if !strings.Contains(e.Name(), model.ReservedSubsystem) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dataDir, e.Name())); err != nil {
			return removed, names, err
		}
		removed++
		names = append(names, e.Name())
	}
	return removed, names, nil
}
