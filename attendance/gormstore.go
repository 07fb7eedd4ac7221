package attendance

import (
	"context"
	"errors"

	"checkin/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore persists attendance records through gorm. The database
// must be opened with TranslateError so a unique-index violation
// surfaces as gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, record *models.AttendanceRecord) error {
	err := s.db.WithContext(ctx).Create(record).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateDay
	}
	return err
}

func (s *GormStore) FindByUserAndDate(ctx context.Context, userID uuid.UUID, date string) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *GormStore) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*models.AttendanceRecord, error) {
	var record models.AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *GormStore) Update(ctx context.Context, record *models.AttendanceRecord) error {
	return s.db.WithContext(ctx).Save(record).Error
}

func (s *GormStore) List(ctx context.Context, q ListQuery) ([]models.AttendanceRecord, int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("user_id = ?", q.UserID)

	if q.From != "" {
		query = query.Where("date >= ?", q.From)
	}
	if q.To != "" {
		query = query.Where("date <= ?", q.To)
	}

	// Each status filter is the SQL equivalent of the derivation in
	// models.AttendanceRecord.StatusAt evaluated at q.Now, so counts
	// and per-record statuses stay consistent.
	switch q.Status {
	case models.StatusManualOverride:
		query = query.Where("manual_check_out_at IS NOT NULL")
	case models.StatusCompleted:
		query = query.Where("manual_check_out_at IS NULL AND (check_out_at IS NOT NULL OR computed_check_out_at <= ?)", q.Now)
	case models.StatusActive:
		query = query.Where("manual_check_out_at IS NULL AND check_out_at IS NULL AND computed_check_out_at > ?", q.Now)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(orderClause(q.Sort))
	if q.Limit > 0 {
		query = query.Limit(q.Limit).Offset(q.Offset())
	}

	var records []models.AttendanceRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (s *GormStore) DeleteByIDForUser(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	result := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.AttendanceRecord{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// orderClause maps a sort key to an ORDER BY over whitelisted columns.
// Unknown keys fall back to newest-day-first.
func orderClause(sort string) string {
	switch sort {
	case "date":
		return "date asc, check_in_at asc"
	case "check_in_at":
		return "check_in_at asc"
	case "-check_in_at":
		return "check_in_at desc"
	default:
		return "date desc, check_in_at desc"
	}
}
