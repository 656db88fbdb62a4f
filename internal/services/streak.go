package services

import (
	"github.com/AnshRaj112/orally-backend/internal/models"
	"github.com/AnshRaj112/orally-backend/pkg/datekey"
)

// AdvanceStreak applies an activation on today to rec. It returns the
// streak to show and the fields to persist, or nil when nothing changed.
//
//	no previous login        -> 1, persist
//	last login today         -> unchanged, no persist
//	last login yesterday     -> streak+1, persist
//	anything else            -> 1, persist
func AdvanceStreak(rec models.EngagementRecord, today datekey.Key) (int, *models.RecordUpdate) {
	var streak int
	switch {
	case rec.LastLoginDate == nil:
		streak = 1
	case *rec.LastLoginDate == today:
		return rec.Streak, nil
	case datekey.IsNextDay(*rec.LastLoginDate, today):
		streak = rec.Streak + 1
	default:
		streak = 1
	}
	return streak, &models.RecordUpdate{
		Streak:        models.Ptr(streak),
		LastLoginDate: models.Ptr(today),
	}
}
