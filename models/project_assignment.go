package models

import (
	"time"
)

// ProjectAssignment grants a staff or broker user visibility into a project's
// patients. Admins see everything and never need assignment rows.
type ProjectAssignment struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	ProjectID uint     `gorm:"not null;index:idx_project_assignments_project_id;uniqueIndex:uk_project_assignments_project_user" json:"project_id"`
	UserID    uint     `gorm:"not null;index:idx_project_assignments_user_id;uniqueIndex:uk_project_assignments_project_user" json:"user_id"`
	Role      UserRole `gorm:"type:user_role_enum;not null" json:"role"`

	IsActive   *bool     `gorm:"default:true;index:idx_project_assignments_is_active" json:"is_active"`
	AssignedBy uint      `gorm:"not null" json:"assigned_by"`
	CreatedAt  time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	// Relations
	Project *Project `gorm:"foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	User    *Profile `gorm:"foreignKey:UserID;references:ID" json:"user,omitempty"`
}

func (ProjectAssignment) TableName() string {
	return "project_assignments"
}

// ProjectAssignmentFilter represents filter criteria for assignment queries
type ProjectAssignmentFilter struct {
	ID        *uint
	ProjectID *uint
	UserID    *uint
	Role      *UserRole
	IsActive  *bool
}
