package services

import (
	"math/rand/v2"
	"sync"

	"github.com/AnshRaj112/orally-backend/internal/models"
	"github.com/AnshRaj112/orally-backend/pkg/datekey"
)

// DefaultFallbackTip is shown when the record cannot be read or no tip
// pool is available.
const DefaultFallbackTip = "Brush twice a day for two minutes to keep your smile healthy."

// Rand is the source of uniform picks. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// SelectTip returns the tip for today. A tip stored for today is reused. A
// record whose tipDate is today but has no dailyTip gets a fresh pick that
// is not persisted, so a later read the same day may show another tip.
// Otherwise a new tip is drawn and returned with the fields to persist.
// With an empty pool the result is "" and nothing is persisted.
func SelectTip(rec models.EngagementRecord, today datekey.Key, pool []string, rng Rand) (string, *models.RecordUpdate) {
	if rec.TipDate != nil && *rec.TipDate == today {
		if rec.DailyTip != nil {
			return *rec.DailyTip, nil
		}
		return pick(pool, rng), nil
	}
	tip := pick(pool, rng)
	if tip == "" {
		return "", nil
	}
	return tip, &models.RecordUpdate{
		DailyTip: models.Ptr(tip),
		TipDate:  models.Ptr(today),
	}
}

func pick(pool []string, rng Rand) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[rng.IntN(len(pool))]
}

// TipSelector binds SelectTip to a tip pool, a random source and the
// fallback string.
type TipSelector struct {
	pool     *TipPool
	fallback string

	mu  sync.Mutex
	rng Rand
}

// NewTipSelector returns a selector over pool. A nil rng uses the
// process-wide source; an empty fallback uses DefaultFallbackTip.
func NewTipSelector(pool *TipPool, fallback string, rng Rand) *TipSelector {
	if rng == nil {
		rng = globalRand{}
	}
	if fallback == "" {
		fallback = DefaultFallbackTip
	}
	if pool == nil {
		pool = NewTipPool(nil)
	}
	return &TipSelector{pool: pool, fallback: fallback, rng: rng}
}

// Select applies SelectTip, substituting the fallback for an empty result.
func (s *TipSelector) Select(rec models.EngagementRecord, today datekey.Key) (string, *models.RecordUpdate) {
	s.mu.Lock()
	tip, update := SelectTip(rec, today, s.pool.Tips(), s.rng)
	s.mu.Unlock()
	if tip == "" {
		return s.fallback, nil
	}
	return tip, update
}

// Fallback returns the fixed tip used when the record is unavailable.
func (s *TipSelector) Fallback() string {
	return s.fallback
}
