package attendance

import (
	"context"
	"errors"
	"time"

	"checkin/models"

	"github.com/google/uuid"
)

// Profile carries the per-user settings every transition needs: the
// resolved timezone all day keys are computed in, and the standard
// work duration behind the computed checkout.
type Profile struct {
	UserID              uuid.UUID
	Location            *time.Location
	WorkDurationMinutes int
}

// Engine applies the attendance record lifecycle: check-in creates the
// day's record, checkout and manual checkout close it, reads project
// the derived fields. It holds no state between calls.
type Engine struct {
	store          Store
	clock          Clock
	allowOverwrite bool
}

// NewEngine builds an engine over the given store. allowOverwrite
// controls whether a second manual checkout replaces the first
// (last-write-wins) or is rejected as a conflict.
func NewEngine(store Store, clock Clock, allowOverwrite bool) *Engine {
	return &Engine{store: store, clock: clock, allowOverwrite: allowOverwrite}
}

// CheckIn creates the attendance record for the day the instant falls
// on in the profile's timezone. A nil instant means now. A record
// already existing for that day is a conflict, whether seen by the
// pre-check or by the store's uniqueness constraint losing a race.
func (e *Engine) CheckIn(ctx context.Context, p Profile, at *time.Time, note string) (*models.AttendanceRecord, error) {
	checkIn := e.clock.Now()
	if at != nil {
		checkIn = *at
	}
	date := DayKey(checkIn, p.Location)

	existing, err := e.store.FindByUserAndDate(ctx, p.UserID, date)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &Rejection{
			Kind:    KindConflict,
			Message: "Already checked in for today",
			Record:  existing,
		}
	}

	record := &models.AttendanceRecord{
		UserID:             p.UserID,
		Date:               date,
		CheckInAt:          checkIn,
		ComputedCheckOutAt: ComputeCheckout(checkIn, p.WorkDurationMinutes),
		IsCheckedOut:       false,
		Note:               note,
	}

	if err := e.store.Create(ctx, record); err != nil {
		if errors.Is(err, ErrDuplicateDay) {
			// Lost the race between the existence check and the
			// insert; same outcome as the pre-check.
			raced, findErr := e.store.FindByUserAndDate(ctx, p.UserID, date)
			if findErr != nil {
				return nil, findErr
			}
			return nil, &Rejection{
				Kind:    KindConflict,
				Message: "Already checked in for today",
				Record:  raced,
			}
		}
		return nil, err
	}
	return record, nil
}

// CheckOut closes today's record. Today is resolved from the current
// instant, not from the supplied checkout time: this models a live
// action happening now. A nil instant means now.
func (e *Engine) CheckOut(ctx context.Context, p Profile, at *time.Time) (*models.AttendanceRecord, error) {
	now := e.clock.Now()
	checkOut := now
	if at != nil {
		checkOut = *at
	}

	record, err := e.store.FindByUserAndDate(ctx, p.UserID, DayKey(now, p.Location))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, reject(KindNotFound, "No check-in record found for today. Please check in first.")
	}
	if record.IsCheckedOut {
		return nil, &Rejection{
			Kind:    KindConflict,
			Message: "Already checked out for today",
			Record:  record,
		}
	}
	if rej := validateCheckout(record, checkOut, p.Location); rej != nil {
		return nil, rej
	}

	record.CheckOutAt = &checkOut
	record.IsCheckedOut = true
	if err := e.store.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ManualCheckOut sets the override checkout on the identified record.
// The instant is required. Records owned by other users are reported
// as not found.
func (e *Engine) ManualCheckOut(ctx context.Context, p Profile, id uuid.UUID, at time.Time) (*models.AttendanceRecord, error) {
	record, err := e.store.FindByIDForUser(ctx, id, p.UserID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, reject(KindNotFound, "Attendance record not found")
	}
	if record.ManualCheckOutAt != nil && !e.allowOverwrite {
		return nil, &Rejection{
			Kind:    KindConflict,
			Message: "Manual check-out already recorded",
			Record:  record,
		}
	}
	if rej := validateCheckout(record, at, p.Location); rej != nil {
		return nil, rej
	}

	record.ManualCheckOutAt = &at
	record.IsCheckedOut = true
	if err := e.store.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// validateCheckout enforces the transition rules shared by the live
// and manual checkout paths: the instant must come after check-in and
// must fall on the record's day in the user's timezone.
func validateCheckout(record *models.AttendanceRecord, checkOut time.Time, loc *time.Location) *Rejection {
	if !checkOut.After(record.CheckInAt) {
		return reject(KindInvalidTransition, "Check-out time must be after check-in time")
	}
	if DayKey(checkOut, loc) != record.Date {
		return reject(KindInvalidTransition, "Check-out must be on the same date as check-in")
	}
	return nil
}

// Today returns today's record enriched, or nil when the user has not
// checked in today.
func (e *Engine) Today(ctx context.Context, p Profile) (*models.EnrichedRecord, error) {
	now := e.clock.Now()
	record, err := e.store.FindByUserAndDate(ctx, p.UserID, DayKey(now, p.Location))
	if err != nil || record == nil {
		return nil, err
	}
	enriched := models.Enrich(*record, now)
	return &enriched, nil
}

// Get returns the identified record enriched, scoped to the user.
func (e *Engine) Get(ctx context.Context, p Profile, id uuid.UUID) (*models.EnrichedRecord, error) {
	record, err := e.store.FindByIDForUser(ctx, id, p.UserID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, reject(KindNotFound, "Attendance record not found")
	}
	enriched := models.Enrich(*record, e.clock.Now())
	return &enriched, nil
}

// History lists the user's records enriched, with the total match
// count for pagination. The query's Now is stamped here so the status
// filter and the enrichment see the same instant.
func (e *Engine) History(ctx context.Context, p Profile, q ListQuery) ([]models.EnrichedRecord, int64, error) {
	q.UserID = p.UserID
	q.Now = e.clock.Now()

	records, total, err := e.store.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	enriched := make([]models.EnrichedRecord, 0, len(records))
	for _, record := range records {
		enriched = append(enriched, models.Enrich(record, q.Now))
	}
	return enriched, total, nil
}

// Export returns all records in the day range, oldest first, enriched
// for rendering.
func (e *Engine) Export(ctx context.Context, p Profile, from, to string) ([]models.EnrichedRecord, error) {
	enriched, _, err := e.History(ctx, p, ListQuery{From: from, To: to, Sort: "date"})
	return enriched, err
}

// Delete removes the identified record, scoped to the user.
func (e *Engine) Delete(ctx context.Context, p Profile, id uuid.UUID) error {
	deleted, err := e.store.DeleteByIDForUser(ctx, id, p.UserID)
	if err != nil {
		return err
	}
	if !deleted {
		return reject(KindNotFound, "Attendance record not found")
	}
	return nil
}
