package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AnshRaj112/orally-backend/internal/models"
	"github.com/AnshRaj112/orally-backend/pkg/datekey"
)

func TestMergeRecordQuery_OnlySetColumns(t *testing.T) {
	q, args := mergeRecordQuery("u1", models.RecordUpdate{
		Streak:        models.Ptr(4),
		LastLoginDate: models.Ptr(datekey.Key("2024-01-11")),
	})
	assert.Equal(t,
		"INSERT INTO user_records (user_id, streak, last_login_date) VALUES ($1, $2, $3) "+
			"ON CONFLICT (user_id) DO UPDATE SET streak = EXCLUDED.streak, last_login_date = EXCLUDED.last_login_date, updated_at = NOW()",
		q)
	assert.Equal(t, []any{"u1", 4, "2024-01-11"}, args)
}

func TestMergeRecordQuery_TipColumns(t *testing.T) {
	q, args := mergeRecordQuery("u1", models.RecordUpdate{
		DailyTip: models.Ptr("floss"),
		TipDate:  models.Ptr(datekey.Key("2024-01-11")),
	})
	assert.Contains(t, q, "(user_id, daily_tip, tip_date)")
	assert.Contains(t, q, "daily_tip = EXCLUDED.daily_tip, tip_date = EXCLUDED.tip_date")
	assert.Equal(t, []any{"u1", "floss", "2024-01-11"}, args)
}

func TestParseNotification(t *testing.T) {
	uid, c, ok := parseNotification("user|1|notes")
	assert.True(t, ok)
	assert.Equal(t, "user|1", uid)
	assert.Equal(t, Notes, c)

	_, c, ok = parseNotification("u1|recently_deleted")
	assert.True(t, ok)
	assert.Equal(t, RecentlyDeleted, c)

	for _, bad := range []string{"", "u1", "|notes", "u1|", "u1|archive"} {
		_, _, ok := parseNotification(bad)
		assert.False(t, ok, bad)
	}
}
