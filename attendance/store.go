package attendance

import (
	"context"
	"errors"
	"time"

	"checkin/models"

	"github.com/google/uuid"
)

// ErrDuplicateDay is returned by Store.Create when a record already
// exists for the same (user, date) pair.
var ErrDuplicateDay = errors.New("attendance record already exists for this day")

// ListQuery narrows and pages a per-user record listing. From/To are
// inclusive day-key bounds compared as YYYY-MM-DD strings. Status, when
// set, must select exactly the records whose derived status at Now
// matches, so that listed pages and totals never disagree with the
// statuses shown on them. Limit 0 means no paging (export).
type ListQuery struct {
	UserID uuid.UUID
	From   string
	To     string
	Status models.Status
	Now    time.Time
	Sort   string
	Page   int
	Limit  int
}

// Offset returns the number of rows to skip for the requested page.
func (q ListQuery) Offset() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// Store is the persistence contract the engine works against. Records
// are always scoped to a user; a record that exists but belongs to
// someone else is reported as absent.
type Store interface {
	// Create inserts the record, returning ErrDuplicateDay on a
	// (user, date) uniqueness conflict.
	Create(ctx context.Context, record *models.AttendanceRecord) error
	// FindByUserAndDate returns (nil, nil) when no record exists.
	FindByUserAndDate(ctx context.Context, userID uuid.UUID, date string) (*models.AttendanceRecord, error)
	// FindByIDForUser returns (nil, nil) when the record does not
	// exist or is not owned by userID.
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.AttendanceRecord, error)
	Update(ctx context.Context, record *models.AttendanceRecord) error
	// List returns the matching page plus the total match count.
	List(ctx context.Context, q ListQuery) ([]models.AttendanceRecord, int64, error)
	// DeleteByIDForUser reports whether a record was deleted.
	DeleteByIDForUser(ctx context.Context, id, userID uuid.UUID) (bool, error)
}
