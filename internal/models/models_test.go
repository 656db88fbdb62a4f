package models

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AnshRaj112/orally-backend/pkg/datekey"
)

func TestIdentity_Label(t *testing.T) {
	cases := []struct {
		name string
		id   Identity
		want string
	}{
		{"display name wins", Identity{DisplayName: Ptr("Ada"), Email: Ptr("ada@example.com")}, "Ada"},
		{"email local part", Identity{Email: Ptr("grace.hopper@example.com")}, "grace.hopper"},
		{"email without at sign", Identity{Email: Ptr("localonly")}, "localonly"},
		{"blank display name falls through", Identity{DisplayName: Ptr("  "), Email: Ptr("x@y.z")}, "x"},
		{"email starting with at", Identity{Email: Ptr("@example.com")}, AnonymousLabel},
		{"nothing", Identity{UserID: "u1"}, AnonymousLabel},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.id.Label())
		})
	}
}

func TestRecordUpdate_MergeAndFields(t *testing.T) {
	streak := RecordUpdate{Streak: Ptr(4), LastLoginDate: Ptr(datekey.Key("2024-01-11"))}
	tip := RecordUpdate{DailyTip: Ptr("floss"), TipDate: Ptr(datekey.Key("2024-01-11"))}

	merged := streak.Merge(tip)
	assert.False(t, merged.IsEmpty())
	assert.Equal(t, map[string]any{
		FieldStreak:        4,
		FieldLastLoginDate: "2024-01-11",
		FieldDailyTip:      "floss",
		FieldTipDate:       "2024-01-11",
	}, merged.Fields())

	assert.True(t, RecordUpdate{}.IsEmpty())
	assert.Empty(t, RecordUpdate{}.Fields())
}

func TestEngagementRecord_ApplyKeepsUnsetFields(t *testing.T) {
	rec := EngagementRecord{Streak: 2, DailyTip: Ptr("old"), TipDate: Ptr(datekey.Key("2024-01-01"))}
	got := rec.Apply(RecordUpdate{Streak: Ptr(3), LastLoginDate: Ptr(datekey.Key("2024-01-02"))})

	assert.Equal(t, 3, got.Streak)
	assert.Equal(t, datekey.Key("2024-01-02"), *got.LastLoginDate)
	assert.Equal(t, "old", *got.DailyTip)
	assert.Equal(t, datekey.Key("2024-01-01"), *got.TipDate)
	assert.Equal(t, 2, rec.Streak, "receiver is not mutated")
}

func TestNoteData_IsEmpty(t *testing.T) {
	assert.True(t, NoteData{}.IsEmpty())
	assert.False(t, NoteData{Title: "t"}.IsEmpty())
	assert.False(t, NoteData{Content: "c"}.IsEmpty())
}
