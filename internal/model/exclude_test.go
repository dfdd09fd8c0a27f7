package model_test

import (
	"testing"

	"dac-sync/internal/model"
)

func TestExcluded_BackupNames(t *testing.T) {
	cases := []struct {
		name     string
		excluded bool
	}{
		{"[dbo].[Orders]", false},
		{"[dbo].[Orders_BK_20240101]", true},
		{"[dbo].[Orders_SL_BK_20240101]", true},
		{"[dbo].[Orders_01052026-030119]", true},
		{"[dbo].[Orders_05202025_100415]", true},
		{"[dbo].[Orders_BK_Final]", false},   // no digit after the marker
		{"[dbo].[BKOrders]", false},          // marker must stand alone
		{"[dbo].[Audit_20240101]", false},    // date without time part
		{"Customers_BK_1", true},             // marker anywhere in the name
	}

	for _, c := range cases {
		if got := model.Excluded(c.name); got != c.excluded {
			t.Errorf("Excluded(%q) = %v, want %v", c.name, got, c.excluded)
		}
	}
}

func TestExcluded_ReservedSubsystem(t *testing.T) {
	cases := []struct {
		name     string
		excluded bool
	}{
		{"[HangFire].[Job]", true},
		{"[HangFire].[Server]", true},
		{"[dbo].[HangFireMirror]", false},     // not the bracketed qualifier
		{"[dbo].[Jobs_For_[HangFire]]", true}, // substring match is deliberate
		{"[dbo].[Jobs]", false},
	}

	for _, c := range cases {
		if got := model.Excluded(c.name); got != c.excluded {
			t.Errorf("Excluded(%q) = %v, want %v", c.name, got, c.excluded)
		}
	}
}
