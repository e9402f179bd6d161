package repository

import (
	"context"

	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/utils"
	"gorm.io/gorm"
)

// ProjectRepositoryImpl implements the ProjectRepository interface
type ProjectRepositoryImpl struct {
	*BaseRepository[models.Project, models.ProjectFilter]
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &ProjectRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Project, models.ProjectFilter](db),
	}
}

// ByUUID retrieves a project by UUID
func (r *ProjectRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Project, error) {
	parsedUUID, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.ProjectFilter{UUID: &parsedUUID}
	projects, err := r.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, err
	}

	if len(projects) == 0 {
		return nil, nil
	}

	return projects[0], nil
}

// ListByStatuses retrieves projects whose status is in the given set
func (r *ProjectRepositoryImpl) ListByStatuses(ctx context.Context, statuses []models.ProjectStatus) ([]*models.Project, error) {
	filter := models.ProjectFilter{Statuses: statuses}
	return r.ByFilter(ctx, filter, "created_at DESC", 0, 0)
}

// ListAssignedToUser retrieves projects the user has an active assignment to,
// optionally narrowed by assignment role
func (r *ProjectRepositoryImpl) ListAssignedToUser(ctx context.Context, userID uint, role models.UserRole) ([]*models.Project, error) {
	db := r.getDB(ctx)

	var projects []*models.Project
	query := db.
		Joins("JOIN project_assignments ON project_assignments.project_id = projects.id").
		Where("project_assignments.user_id = ? AND project_assignments.is_active = true", userID)
	if role != "" {
		query = query.Where("project_assignments.role = ?", role)
	}

	err := query.Order("projects.created_at DESC").Find(&projects).Error
	if err != nil {
		return nil, err
	}

	return projects, nil
}

// UpdateStatus updates only the status of a project
func (r *ProjectRepositoryImpl) UpdateStatus(ctx context.Context, id uint, status models.ProjectStatus) error {
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

	err = db.Model(&models.Project{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": utils.UTCNow(),
		}).Error
	if err != nil {
		return err
	}

	return nil
}

// ByFilter retrieves projects based on filter criteria
func (r *ProjectRepositoryImpl) ByFilter(ctx context.Context, filter models.ProjectFilter, orderBy string, limit, offset int) ([]*models.Project, error) {
	db := r.getDB(ctx)

	var projects []*models.Project
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

	query = query.Preload("Creator")

	err := query.Find(&projects).Error
	if err != nil {
		return nil, err
	}

	return projects, nil
}

// Count returns the number of projects matching the filter
func (r *ProjectRepositoryImpl) Count(ctx context.Context, filter models.ProjectFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	var project models.Project
	query := r.applyFilter(db.Model(&project), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// Exists checks if any project matching the filter exists
func (r *ProjectRepositoryImpl) Exists(ctx context.Context, filter models.ProjectFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyFilter applies filter conditions to the GORM query
func (r *ProjectRepositoryImpl) applyFilter(db *gorm.DB, filter models.ProjectFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.Name != nil {
		db = db.Where("name ILIKE ?", "%"+*filter.Name+"%")
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if len(filter.Statuses) > 0 {
		db = db.Where("status IN ?", filter.Statuses)
	}
	if filter.CreatedBy != nil {
		db = db.Where("created_by = ?", *filter.CreatedBy)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", *filter.CreatedBefore)
	}

	return db
}
