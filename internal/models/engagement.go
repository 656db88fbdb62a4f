package models

import "github.com/AnshRaj112/orally-backend/pkg/datekey"

// EngagementRecord is the per-user document holding streak and tip state.
// Nil pointer fields are absent in the store, which is distinct from an
// empty or zero value.
type EngagementRecord struct {
	Streak        int          `bson:"streak" json:"streak"`
	LastLoginDate *datekey.Key `bson:"lastLoginDate,omitempty" json:"lastLoginDate,omitempty"`
	DailyTip      *string      `bson:"dailyTip,omitempty" json:"dailyTip,omitempty"`
	TipDate       *datekey.Key `bson:"tipDate,omitempty" json:"tipDate,omitempty"`
}

// RecordUpdate is a partial update of an EngagementRecord. Only non-nil
// fields are written; everything else in the stored document is kept.
type RecordUpdate struct {
	Streak        *int         `bson:"streak,omitempty" json:"streak,omitempty"`
	LastLoginDate *datekey.Key `bson:"lastLoginDate,omitempty" json:"lastLoginDate,omitempty"`
	DailyTip      *string      `bson:"dailyTip,omitempty" json:"dailyTip,omitempty"`
	TipDate       *datekey.Key `bson:"tipDate,omitempty" json:"tipDate,omitempty"`
}

// Store field names.
const (
	FieldStreak        = "streak"
	FieldLastLoginDate = "lastLoginDate"
	FieldDailyTip      = "dailyTip"
	FieldTipDate       = "tipDate"
)

// IsEmpty reports whether the update sets no field.
func (u RecordUpdate) IsEmpty() bool {
	return u.Streak == nil && u.LastLoginDate == nil && u.DailyTip == nil && u.TipDate == nil
}

// Merge returns u with every field set in o laid over it.
func (u RecordUpdate) Merge(o RecordUpdate) RecordUpdate {
	if o.Streak != nil {
		u.Streak = o.Streak
	}
	if o.LastLoginDate != nil {
		u.LastLoginDate = o.LastLoginDate
	}
	if o.DailyTip != nil {
		u.DailyTip = o.DailyTip
	}
	if o.TipDate != nil {
		u.TipDate = o.TipDate
	}
	return u
}

// Fields returns the set fields keyed by their store names.
func (u RecordUpdate) Fields() map[string]any {
	fields := make(map[string]any, 4)
	if u.Streak != nil {
		fields[FieldStreak] = *u.Streak
	}
	if u.LastLoginDate != nil {
		fields[FieldLastLoginDate] = string(*u.LastLoginDate)
	}
	if u.DailyTip != nil {
		fields[FieldDailyTip] = *u.DailyTip
	}
	if u.TipDate != nil {
		fields[FieldTipDate] = string(*u.TipDate)
	}
	return fields
}

// Apply returns a copy of r with the update's fields written over it.
func (r EngagementRecord) Apply(u RecordUpdate) EngagementRecord {
	if u.Streak != nil {
		r.Streak = *u.Streak
	}
	if u.LastLoginDate != nil {
		r.LastLoginDate = Ptr(*u.LastLoginDate)
	}
	if u.DailyTip != nil {
		r.DailyTip = Ptr(*u.DailyTip)
	}
	if u.TipDate != nil {
		r.TipDate = Ptr(*u.TipDate)
	}
	return r
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}
