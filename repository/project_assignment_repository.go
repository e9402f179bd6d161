package repository

import (
	"context"

	"github.com/clearwater-medical/outreach-portal/models"
	"gorm.io/gorm"
)

// ProjectAssignmentRepositoryImpl implements the ProjectAssignmentRepository interface
type ProjectAssignmentRepositoryImpl struct {
	*BaseRepository[models.ProjectAssignment, models.ProjectAssignmentFilter]
}

// NewProjectAssignmentRepository creates a new project assignment repository
func NewProjectAssignmentRepository(db *gorm.DB) ProjectAssignmentRepository {
	return &ProjectAssignmentRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ProjectAssignment, models.ProjectAssignmentFilter](db),
	}
}

// HasActiveAssignment checks whether a user holds an active assignment row on
// the project. Both the query layer and the broker write path consult this.
func (r *ProjectAssignmentRepositoryImpl) HasActiveAssignment(ctx context.Context, projectID, userID uint) (bool, error) {
	isActive := true
	filter := models.ProjectAssignmentFilter{
		ProjectID: &projectID,
		UserID:    &userID,
		IsActive:  &isActive,
	}
	return r.Exists(ctx, filter)
}

// Deactivate soft-revokes an assignment
func (r *ProjectAssignmentRepositoryImpl) Deactivate(ctx context.Context, id uint) error {
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

	err = db.Model(&models.ProjectAssignment{}).
		Where("id = ?", id).
		Update("is_active", false).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves assignments based on filter criteria
func (r *ProjectAssignmentRepositoryImpl) ByFilter(ctx context.Context, filter models.ProjectAssignmentFilter, orderBy string, limit, offset int) ([]*models.ProjectAssignment, error) {
	db := r.getDB(ctx)

	var assignments []*models.ProjectAssignment
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

	err := query.Find(&assignments).Error
	if err != nil {
		return nil, err
	}

	return assignments, nil
}

// Count returns the number of assignments matching the filter
func (r *ProjectAssignmentRepositoryImpl) Count(ctx context.Context, filter models.ProjectAssignmentFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var assignment models.ProjectAssignment
	query := r.applyFilter(db.Model(&assignment), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any assignment matching the filter exists
func (r *ProjectAssignmentRepositoryImpl) Exists(ctx context.Context, filter models.ProjectAssignmentFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ProjectAssignmentRepositoryImpl) applyFilter(db *gorm.DB, filter models.ProjectAssignmentFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.ProjectID != nil {
		db = db.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.Role != nil {
		db = db.Where("role = ?", *filter.Role)
	}
	if filter.IsActive != nil {
		db = db.Where("is_active = ?", *filter.IsActive)
	}

	return db
}
