package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/orally-backend/internal/models"
	"github.com/AnshRaj112/orally-backend/pkg/datekey"
)

func recordWithLogin(streak int, last datekey.Key) models.EngagementRecord {
	return models.EngagementRecord{Streak: streak, LastLoginDate: models.Ptr(last)}
}

func TestAdvanceStreak_FirstLogin(t *testing.T) {
	for _, rec := range []models.EngagementRecord{{}, {Streak: 7}} {
		streak, update := AdvanceStreak(rec, "2024-01-11")
		assert.Equal(t, 1, streak)
		require.NotNil(t, update)
		assert.Equal(t, 1, *update.Streak)
		assert.Equal(t, datekey.Key("2024-01-11"), *update.LastLoginDate)
	}
}

func TestAdvanceStreak_SameDayIsIdempotent(t *testing.T) {
	for _, n := range []int{0, 1, 3, 250} {
		streak, update := AdvanceStreak(recordWithLogin(n, "2024-01-11"), "2024-01-11")
		assert.Equal(t, n, streak)
		assert.Nil(t, update)
	}
}

func TestAdvanceStreak_NextDay(t *testing.T) {
	streak, update := AdvanceStreak(recordWithLogin(3, "2024-01-10"), "2024-01-11")
	assert.Equal(t, 4, streak)
	require.NotNil(t, update)
	assert.Equal(t, models.RecordUpdate{
		Streak:        models.Ptr(4),
		LastLoginDate: models.Ptr(datekey.Key("2024-01-11")),
	}, *update)
}

func TestAdvanceStreak_GapResets(t *testing.T) {
	streak, update := AdvanceStreak(recordWithLogin(3, "2024-01-10"), "2024-01-13")
	assert.Equal(t, 1, streak)
	require.NotNil(t, update)
	assert.Equal(t, models.RecordUpdate{
		Streak:        models.Ptr(1),
		LastLoginDate: models.Ptr(datekey.Key("2024-01-13")),
	}, *update)
}

func TestAdvanceStreak_ResetCases(t *testing.T) {
	cases := map[string]datekey.Key{
		"past date out of order": "2024-01-12",
		"malformed stored date":  "not-a-date",
		"empty stored date":      "",
	}
	for name, last := range cases {
		t.Run(name, func(t *testing.T) {
			streak, update := AdvanceStreak(recordWithLogin(5, last), "2024-01-11")
			assert.Equal(t, 1, streak)
			require.NotNil(t, update)
			assert.Equal(t, 1, *update.Streak)
		})
	}
}
