package repository

import (
	"context"

	"github.com/clearwater-medical/outreach-portal/models"
	"gorm.io/gorm"
)

// BrokerUpdateRepositoryImpl implements the BrokerUpdateRepository interface.
// Broker updates are append-only history; no update path exists.
type BrokerUpdateRepositoryImpl struct {
	*BaseRepository[models.BrokerUpdate, models.BrokerUpdateFilter]
}

// NewBrokerUpdateRepository creates a new broker update repository
func NewBrokerUpdateRepository(db *gorm.DB) BrokerUpdateRepository {
	return &BrokerUpdateRepositoryImpl{
		BaseRepository: NewBaseRepository[models.BrokerUpdate, models.BrokerUpdateFilter](db),
	}
}

// ListByPatient retrieves broker updates for a patient, newest first
func (r *BrokerUpdateRepositoryImpl) ListByPatient(ctx context.Context, patientID uint, limit, offset int) ([]*models.BrokerUpdate, error) {
	filter := models.BrokerUpdateFilter{PatientID: &patientID}
	return r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
}

// ByFilter retrieves broker updates based on filter criteria
func (r *BrokerUpdateRepositoryImpl) ByFilter(ctx context.Context, filter models.BrokerUpdateFilter, orderBy string, limit, offset int) ([]*models.BrokerUpdate, error) {
	db := r.getDB(ctx)

	var updates []*models.BrokerUpdate
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	query = query.Preload("Broker")

	err := query.Find(&updates).Error
	if err != nil {
		return nil, err
	}

	return updates, nil
}

// Count returns the number of broker updates matching the filter
func (r *BrokerUpdateRepositoryImpl) Count(ctx context.Context, filter models.BrokerUpdateFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var update models.BrokerUpdate
	query := r.applyFilter(db.Model(&update), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any broker update matching the filter exists
func (r *BrokerUpdateRepositoryImpl) Exists(ctx context.Context, filter models.BrokerUpdateFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *BrokerUpdateRepositoryImpl) applyFilter(db *gorm.DB, filter models.BrokerUpdateFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.PatientID != nil {
		db = db.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.ProjectID != nil {
		db = db.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.BrokerID != nil {
		db = db.Where("broker_id = ?", *filter.BrokerID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
