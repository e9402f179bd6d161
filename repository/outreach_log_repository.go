package repository

import (
	"context"
	"time"

	"github.com/clearwater-medical/outreach-portal/models"
	"gorm.io/gorm"
)

// OutreachLogRepositoryImpl implements the OutreachLogRepository interface.
// The call log is append-only: there is no Update method here on purpose, and
// BackfillBrokerEmailSentAt is the single sanctioned mutation.
type OutreachLogRepositoryImpl struct {
	*BaseRepository[models.OutreachLog, models.OutreachLogFilter]
}

// NewOutreachLogRepository creates a new outreach log repository
func NewOutreachLogRepository(db *gorm.DB) OutreachLogRepository {
	return &OutreachLogRepositoryImpl{
		BaseRepository: NewBaseRepository[models.OutreachLog, models.OutreachLogFilter](db),
	}
}

// ListByPatient retrieves call attempts for a patient, newest first
func (r *OutreachLogRepositoryImpl) ListByPatient(ctx context.Context, patientID uint, limit, offset int) ([]*models.OutreachLog, error) {
	filter := models.OutreachLogFilter{PatientID: &patientID}
	return r.ByFilter(ctx, filter, "call_timestamp DESC", limit, offset)
}

// RecentByPatient retrieves the n most recent call attempts, newest first.
// The broker handoff email embeds these.
func (r *OutreachLogRepositoryImpl) RecentByPatient(ctx context.Context, patientID uint, n int) ([]*models.OutreachLog, error) {
	return r.ListByPatient(ctx, patientID, n, 0)
}

// BackfillBrokerEmailSentAt stamps broker_email_sent_at on the most recent
// forwarded log row for the patient that has not been stamped yet
func (r *OutreachLogRepositoryImpl) BackfillBrokerEmailSentAt(ctx context.Context, patientID uint, at time.Time) error {
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

	err = db.Exec(`
		UPDATE outreach_logs SET broker_email_sent_at = ?
		WHERE id = (
			SELECT id FROM outreach_logs
			WHERE patient_id = ? AND forwarded_to_broker = true AND broker_email_sent_at IS NULL
			ORDER BY call_timestamp DESC
			LIMIT 1
		)`, at, patientID).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves outreach logs based on filter criteria
func (r *OutreachLogRepositoryImpl) ByFilter(ctx context.Context, filter models.OutreachLogFilter, orderBy string, limit, offset int) ([]*models.OutreachLog, error) {
	db := r.getDB(ctx)

	var logs []*models.OutreachLog
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

	query = query.Preload("Staff")

	err := query.Find(&logs).Error
	if err != nil {
		return nil, err
	}

	return logs, nil
}

// Count returns the number of outreach logs matching the filter
func (r *OutreachLogRepositoryImpl) Count(ctx context.Context, filter models.OutreachLogFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var log models.OutreachLog
	query := r.applyFilter(db.Model(&log), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any outreach log matching the filter exists
func (r *OutreachLogRepositoryImpl) Exists(ctx context.Context, filter models.OutreachLogFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *OutreachLogRepositoryImpl) applyFilter(db *gorm.DB, filter models.OutreachLogFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.PatientID != nil {
		db = db.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.ProjectID != nil {
		db = db.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.StaffID != nil {
		db = db.Where("staff_id = ?", *filter.StaffID)
	}
	if filter.Disposition != nil {
		db = db.Where("disposition = ?", *filter.Disposition)
	}
	if filter.ForwardedToBroker != nil {
		db = db.Where("forwarded_to_broker = ?", *filter.ForwardedToBroker)
	}
	if filter.EmailUnsent != nil && *filter.EmailUnsent {
		db = db.Where("broker_email_sent_at IS NULL")
	}
	if filter.CalledAfter != nil {
		db = db.Where("call_timestamp >= ?", *filter.CalledAfter)
	}
	if filter.CalledBefore != nil {
		db = db.Where("call_timestamp < ?", *filter.CalledBefore)
	}

	return db
}
