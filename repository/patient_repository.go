package repository

import (
	"context"
	"time"

	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/utils"
	"gorm.io/gorm"
)

// PatientRepositoryImpl implements the PatientRepository interface
type PatientRepositoryImpl struct {
	*BaseRepository[models.Patient, models.PatientFilter]
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &PatientRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Patient, models.PatientFilter](db),
	}
}

// ByUUID retrieves a patient by UUID
func (r *PatientRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Patient, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.PatientFilter{UUID: &parsedUUID}
	patients, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(patients) == 0 {
		return nil, nil
	}

	return patients[0], nil
}

// ExistsByPhoneInProject checks whether a patient with the given normalized
// primary phone already exists in the project. Used by import duplicate
// detection; a patient is never shared across projects.
func (r *PatientRepositoryImpl) ExistsByPhoneInProject(ctx context.Context, projectID uint, normalizedPhone string) (bool, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.Patient{}).
		Where("project_id = ?", projectID).
		Where("regexp_replace(primary_phone, '[^0-9]', '', 'g') = ?", normalizedPhone).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// RecordContact atomically bumps total_attempts and stamps the last-contact
// markers. The counter moves via a server-side expression, never
// read-modify-write, so interleaved staff calls cannot lose increments.
func (r *PatientRepositoryImpl) RecordContact(ctx context.Context, patientID, staffID uint, at time.Time) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Patient{}).
		Where("id = ?", patientID).
		Updates(map[string]any{
			"total_attempts":    gorm.Expr("total_attempts + 1"),
			"last_contacted_at": at,
			"last_contacted_by": staffID,
			"updated_at":        utils.UTCNow(),
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// UpdateOutreachStatus updates only the patient's outreach status
func (r *PatientRepositoryImpl) UpdateOutreachStatus(ctx context.Context, patientID uint, status models.OutreachStatus) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Patient{}).
		Where("id = ?", patientID).
		Updates(map[string]any{
			"outreach_status": status,
			"updated_at":      utils.UTCNow(),
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// MarkForwarded flips the patient into forwarded_to_broker and stamps the
// forwarded markers in one write
func (r *PatientRepositoryImpl) MarkForwarded(ctx context.Context, patientID, staffID uint, at time.Time) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Model(&models.Patient{}).
		Where("id = ?", patientID).
		Updates(map[string]any{
			"outreach_status": models.OutreachStatusForwardedToBroker,
			"forwarded_at":    at,
			"forwarded_by":    staffID,
			"updated_at":      utils.UTCNow(),
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves patients based on filter criteria
func (r *PatientRepositoryImpl) ByFilter(ctx context.Context, filter models.PatientFilter, orderBy string, limit, offset int) ([]*models.Patient, error) {
	db := r.getDB(ctx)

	var patients []*models.Patient
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

	query = query.Preload("Project")

	err := query.Find(&patients).Error
	if err != nil {
		return nil, err
	}

	return patients, nil
}

// Count returns the number of patients matching the filter
func (r *PatientRepositoryImpl) Count(ctx context.Context, filter models.PatientFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var patient models.Patient
	query := r.applyFilter(db.Model(&patient), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any patient matching the filter exists
func (r *PatientRepositoryImpl) Exists(ctx context.Context, filter models.PatientFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *PatientRepositoryImpl) applyFilter(db *gorm.DB, filter models.PatientFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.ProjectID != nil {
		db = db.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.OutreachStatus != nil {
		db = db.Where("outreach_status = ?", *filter.OutreachStatus)
	}
	if len(filter.OutreachStatuses) > 0 {
		db = db.Where("outreach_status IN ?", filter.OutreachStatuses)
	}
	if filter.PrimaryPhone != nil {
		db = db.Where("primary_phone = ?", *filter.PrimaryPhone)
	}
	if filter.LastName != nil {
		db = db.Where("last_name ILIKE ?", "%"+*filter.LastName+"%")
	}
	if filter.IsDuplicate != nil {
		db = db.Where("is_duplicate = ?", *filter.IsDuplicate)
	}
	if filter.LastContactedBy != nil {
		db = db.Where("last_contacted_by = ?", *filter.LastContactedBy)
	}
	if filter.ForwardedBy != nil {
		db = db.Where("forwarded_by = ?", *filter.ForwardedBy)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
