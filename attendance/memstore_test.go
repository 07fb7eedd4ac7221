package attendance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"checkin/models"

	"github.com/google/uuid"
)

// memStore is an in-memory Store for engine tests. It mirrors the
// gorm store's contract, including the (user, date) uniqueness
// conflict and the status filter matching the derivation at q.Now.
type memStore struct {
	records map[uuid.UUID]models.AttendanceRecord
}

func newMemStore() *memStore {
	return &memStore{records: make(map[uuid.UUID]models.AttendanceRecord)}
}

func (m *memStore) Create(ctx context.Context, record *models.AttendanceRecord) error {
	for _, existing := range m.records {
		if existing.UserID == record.UserID && existing.Date == record.Date {
			return ErrDuplicateDay
		}
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	m.records[record.ID] = *record
	return nil
}

func (m *memStore) FindByUserAndDate(ctx context.Context, userID uuid.UUID, date string) (*models.AttendanceRecord, error) {
	for _, record := range m.records {
		if record.UserID == userID && record.Date == date {
			found := record
			return &found, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.AttendanceRecord, error) {
	record, ok := m.records[id]
	if !ok || record.UserID != userID {
		return nil, nil
	}
	found := record
	return &found, nil
}

func (m *memStore) Update(ctx context.Context, record *models.AttendanceRecord) error {
	m.records[record.ID] = *record
	return nil
}

func (m *memStore) List(ctx context.Context, q ListQuery) ([]models.AttendanceRecord, int64, error) {
	var matched []models.AttendanceRecord
	for _, record := range m.records {
		if record.UserID != q.UserID {
			continue
		}
		if q.From != "" && record.Date < q.From {
			continue
		}
		if q.To != "" && record.Date > q.To {
			continue
		}
		if q.Status != "" && record.StatusAt(q.Now) != q.Status {
			continue
		}
		matched = append(matched, record)
	}

	asc := q.Sort == "date" || q.Sort == "check_in_at"
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if asc {
			a, b = b, a
		}
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.CheckInAt.After(b.CheckInAt)
	})

	total := int64(len(matched))
	if q.Limit > 0 {
		start := q.Offset()
		if start > len(matched) {
			start = len(matched)
		}
		end := start + q.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (m *memStore) DeleteByIDForUser(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	record, ok := m.records[id]
	if !ok || record.UserID != userID {
		return false, nil
	}
	delete(m.records, id)
	return true, nil
}

// fakeClock pins "now" for deterministic transitions.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// wrappingStore adds context to store errors the way a real store
// layered over a driver would.
type wrappingStore struct {
	*memStore
}

func (w *wrappingStore) Create(ctx context.Context, record *models.AttendanceRecord) error {
	if err := w.memStore.Create(ctx, record); err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

// racingStore hides the existing record from the first existence
// check so the engine reaches the insert and hits the uniqueness
// conflict, simulating a concurrent check-in.
type racingStore struct {
	Store
	checked bool
}

func (r *racingStore) FindByUserAndDate(ctx context.Context, userID uuid.UUID, date string) (*models.AttendanceRecord, error) {
	if !r.checked {
		r.checked = true
		return nil, nil
	}
	return r.Store.FindByUserAndDate(ctx, userID, date)
}
