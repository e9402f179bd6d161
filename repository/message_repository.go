package repository

import (
	"context"

	"github.com/clearwater-medical/outreach-portal/models"
	"gorm.io/gorm"
)

// MessageRepositoryImpl implements the MessageRepository interface
type MessageRepositoryImpl struct {
	*BaseRepository[models.Message, models.MessageFilter]
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &MessageRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Message, models.MessageFilter](db),
	}
}

// ListByPatient retrieves the message thread for a patient, oldest first
func (r *MessageRepositoryImpl) ListByPatient(ctx context.Context, patientID uint, limit, offset int) ([]*models.Message, error) {
	filter := models.MessageFilter{PatientID: &patientID}
	return r.ByFilter(ctx, filter, "created_at ASC", limit, offset)
}

// MarkRead flips is_read, the message's only mutable field
func (r *MessageRepositoryImpl) MarkRead(ctx context.Context, messageID uint) error {
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

	err = db.Model(&models.Message{}).
		Where("id = ?", messageID).
		Update("is_read", true).Error
	if err != nil {
		return err
	}

	return nil
}

// CountUnread counts unread messages on a patient thread not sent by the
// given user
func (r *MessageRepositoryImpl) CountUnread(ctx context.Context, patientID uint, excludeSenderID uint) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	err := db.Model(&models.Message{}).
		Where("patient_id = ? AND is_read = false AND sender_id <> ?", patientID, excludeSenderID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// ByFilter retrieves messages based on filter criteria
func (r *MessageRepositoryImpl) ByFilter(ctx context.Context, filter models.MessageFilter, orderBy string, limit, offset int) ([]*models.Message, error) {
	db := r.getDB(ctx)

	var messages []*models.Message
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

	query = query.Preload("Sender")

	err := query.Find(&messages).Error
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// Count returns the number of messages matching the filter
func (r *MessageRepositoryImpl) Count(ctx context.Context, filter models.MessageFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var message models.Message
	query := r.applyFilter(db.Model(&message), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any message matching the filter exists
func (r *MessageRepositoryImpl) Exists(ctx context.Context, filter models.MessageFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *MessageRepositoryImpl) applyFilter(db *gorm.DB, filter models.MessageFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.PatientID != nil {
		db = db.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.ProjectID != nil {
		db = db.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.SenderID != nil {
		db = db.Where("sender_id = ?", *filter.SenderID)
	}
	if filter.IsRead != nil {
		db = db.Where("is_read = ?", *filter.IsRead)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
