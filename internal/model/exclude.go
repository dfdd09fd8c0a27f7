package model

import (
	"regexp"
	"strings"
)

// ReservedSubsystem is the schema whose objects break referential integrity on
// import and are therefore kept out of every comparison and merge.
const ReservedSubsystem = "HangFire"

// Backup/snapshot naming conventions. Matching is substring-based on purpose:
// numbered and dated backup tables proliferate and must never be treated as
// legitimate schema drift.
var backupPatterns = []*regexp.Regexp{
	regexp.MustCompile(`_BK_\d`),        // _BK_ followed by a digit
	regexp.MustCompile(`_SL_BK_\d`),     // _SL_BK_ variant
	regexp.MustCompile(`_\d{8}-\d{6}`),  // dated suffix like _01052026-030119
	regexp.MustCompile(`_\d{8}_\d{6}`),  // dated suffix like _05202025_100415
}

// Excluded reports whether an entity name is a backup table or belongs to the
// reserved subsystem and must be ignored by diff and merge.
func Excluded(name string) bool {
	for _, p := range backupPatterns {
		if p.MatchString(name) {
			return true
		}
	}

	if strings.Contains(name, "["+ReservedSubsystem+"]") ||
		strings.HasPrefix(name, "["+ReservedSubsystem+"].") {
		return true
	}

	return false
}
