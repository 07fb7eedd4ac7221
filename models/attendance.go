package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusActive         Status = "active"
	StatusCompleted      Status = "completed"
	StatusManualOverride Status = "manual_override"
)

// AttendanceRecord is one attendance day for one user. Date is the
// calendar day of CheckInAt in the user's timezone; the composite
// unique index enforces at most one record per (user, day).
type AttendanceRecord struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	UserID             uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_attendance_user_date" json:"user_id"`
	Date               string     `gorm:"not null;size:10;uniqueIndex:idx_attendance_user_date" json:"date"`
	CheckInAt          time.Time  `gorm:"not null" json:"check_in_at"`
	ComputedCheckOutAt time.Time  `gorm:"not null" json:"computed_check_out_at"`
	CheckOutAt         *time.Time `json:"check_out_at"`
	ManualCheckOutAt   *time.Time `json:"manual_check_out_at"`
	IsCheckedOut       bool       `gorm:"not null;default:false" json:"is_checked_out"`
	Note               string     `gorm:"size:500" json:"note,omitempty"`
}

func (a *AttendanceRecord) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ActualCheckOut is the effective checkout instant: manual override
// first, then the live checkout, then the computed fallback.
func (a *AttendanceRecord) ActualCheckOut() time.Time {
	if a.ManualCheckOutAt != nil {
		return *a.ManualCheckOutAt
	}
	if a.CheckOutAt != nil {
		return *a.CheckOutAt
	}
	return a.ComputedCheckOutAt
}

// WorkedMinutes is the span between check-in and the effective
// checkout, rounded to the nearest minute.
func (a *AttendanceRecord) WorkedMinutes() int {
	return int(math.Round(a.ActualCheckOut().Sub(a.CheckInAt).Minutes()))
}

// StatusAt derives the record status at the given instant. The
// derivation reads only stored fields and now, so repeated calls
// without a mutation in between always agree.
func (a *AttendanceRecord) StatusAt(now time.Time) Status {
	if a.ManualCheckOutAt != nil {
		return StatusManualOverride
	}
	if a.IsCheckedOut && a.CheckOutAt != nil {
		return StatusCompleted
	}
	if !now.Before(a.ComputedCheckOutAt) {
		return StatusCompleted
	}
	return StatusActive
}

// EnrichedRecord is the read-side projection of a record: the stored
// fields plus the derived ones, serialized together.
type EnrichedRecord struct {
	AttendanceRecord
	ActualCheckOutAt time.Time `json:"actual_check_out_at"`
	DurationMinutes  int       `json:"duration_minutes"`
	Status           Status    `json:"status"`
}

// Enrich computes the derived fields for a record at the given instant.
func Enrich(record AttendanceRecord, now time.Time) EnrichedRecord {
	return EnrichedRecord{
		AttendanceRecord: record,
		ActualCheckOutAt: record.ActualCheckOut(),
		DurationMinutes:  record.WorkedMinutes(),
		Status:           record.StatusAt(now),
	}
}
