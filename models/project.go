package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project represents one outreach campaign, scoping a set of patients and
// assigned staff/brokers
type Project struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:uk_projects_uuid" json:"uuid"`
	Name        string        `gorm:"size:255;not null" json:"name"`
	Description *string       `gorm:"type:text" json:"description,omitempty"`
	Status      ProjectStatus `gorm:"type:project_status_enum;not null;default:'planning';index:idx_projects_status" json:"status"`

	// BrokerEmail is where forwarded patients are announced. Forwarding fails
	// with MissingConfiguration when this is unset.
	BrokerEmail *string `gorm:"size:255" json:"broker_email,omitempty"`

	TargetStartDate *time.Time `json:"target_start_date,omitempty"`
	TargetEndDate   *time.Time `json:"target_end_date,omitempty"`

	CreatedBy uint       `gorm:"not null;index:idx_projects_created_by" json:"created_by"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_projects_created_at" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Creator     *Profile            `gorm:"foreignKey:CreatedBy;references:ID" json:"creator,omitempty"`
	Patients    []Patient           `gorm:"foreignKey:ProjectID" json:"-"`
	Assignments []ProjectAssignment `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}

// BeforeCreate is called before creating a new record
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	if p.Status == "" {
		p.Status = ProjectStatusPlanning
	}
	return nil
}

// IsArchived reports whether the project has been soft-archived. Patients in
// archived projects are read-only.
func (p *Project) IsArchived() bool {
	return p.Status == ProjectStatusArchived
}

// ProjectFilter represents filter criteria for project queries
type ProjectFilter struct {
	ID            *uint
	UUID          *uuid.UUID
	Name          *string
	Status        *ProjectStatus
	Statuses      []ProjectStatus
	CreatedBy     *uint
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
