package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/AnshRaj112/orally-backend/internal/models"
	"github.com/AnshRaj112/orally-backend/internal/store"
	"github.com/AnshRaj112/orally-backend/pkg/datekey"
)

// Activation is what the home screen shows for a session.
type Activation struct {
	Streak      int    `json:"streak"`
	Tip         string `json:"tip"`
	DisplayName string `json:"display_name"`
}

// EngagementController runs streak and tip selection against one record
// read per session activation.
type EngagementController struct {
	records store.RecordStore
	tips    *TipSelector
	logger  *slog.Logger
	now     func() time.Time
}

// ControllerOption configures an EngagementController.
type ControllerOption func(*EngagementController)

// WithClock overrides the wall clock used to compute today's key.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *EngagementController) { c.now = now }
}

// WithLogger sets the logger for absorbed failures.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *EngagementController) { c.logger = logger }
}

// NewEngagementController returns a controller reading and merging records
// through records.
func NewEngagementController(records store.RecordStore, tips *TipSelector, opts ...ControllerOption) *EngagementController {
	c := &EngagementController{
		records: records,
		tips:    tips,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tips == nil {
		c.tips = NewTipSelector(NewTipPool(DefaultTips), "", nil)
	}
	return c
}

// Activate reads the user's record once, advances the streak, selects the
// tip and merges whatever changed in a single update. Store failures are
// absorbed: the activation then reports streak 0 and the fallback tip.
func (c *EngagementController) Activate(ctx context.Context, id models.Identity) Activation {
	out := Activation{DisplayName: id.Label()}
	today := datekey.FromTime(c.now())

	rec, err := c.records.GetRecord(ctx, id.UserID)
	if err != nil {
		c.logger.Warn("engagement: record read failed", "user_id", id.UserID, "error", err)
		out.Tip = c.tips.Fallback()
		return out
	}

	streak, streakUpdate := AdvanceStreak(rec, today)
	tip, tipUpdate := c.tips.Select(rec, today)

	var update models.RecordUpdate
	if streakUpdate != nil {
		update = update.Merge(*streakUpdate)
	}
	if tipUpdate != nil {
		update = update.Merge(*tipUpdate)
	}
	if !update.IsEmpty() {
		if err := c.records.MergeRecord(ctx, id.UserID, update); err != nil {
			c.logger.Warn("engagement: record update failed", "user_id", id.UserID, "error", err)
			out.Tip = c.tips.Fallback()
			return out
		}
	}

	out.Streak = streak
	out.Tip = tip
	return out
}
