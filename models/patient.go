package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Patient represents one campaign contact. The record is a mutable aggregate
// derived from the append-only event log: status, attempt counter, and
// last-contact markers move with every logged event, while the log rows
// themselves are never rewritten.
type Patient struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_patients_uuid" json:"uuid"`
	ProjectID uint      `gorm:"not null;index:idx_patients_project_id" json:"project_id"`

	// Identity
	FirstName   string     `gorm:"size:100;not null" json:"first_name"`
	LastName    string     `gorm:"size:100;not null" json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`

	// Contact info
	PrimaryPhone   string  `gorm:"size:20;not null;index:idx_patients_primary_phone" json:"primary_phone"`
	SecondaryPhone *string `gorm:"size:20" json:"secondary_phone,omitempty"`
	Address        *string `gorm:"size:255" json:"address,omitempty"`

	// Insurance fields
	CurrentInsurance *string `gorm:"size:100" json:"current_insurance,omitempty"`
	TargetInsurance  *string `gorm:"size:100" json:"target_insurance,omitempty"`
	MemberID         *string `gorm:"size:50" json:"member_id,omitempty"`

	// Workflow state
	OutreachStatus  OutreachStatus `gorm:"type:outreach_status_enum;not null;default:'not_called';index:idx_patients_outreach_status" json:"outreach_status"`
	TotalAttempts   int            `gorm:"not null;default:0" json:"total_attempts"`
	LastContactedAt *time.Time     `gorm:"index:idx_patients_last_contacted_at" json:"last_contacted_at,omitempty"`
	LastContactedBy *uint          `json:"last_contacted_by,omitempty"`
	ForwardedAt     *time.Time     `json:"forwarded_at,omitempty"`
	ForwardedBy     *uint          `json:"forwarded_by,omitempty"`

	// IsDuplicate is set at import time and never changes afterwards
	IsDuplicate *bool `gorm:"default:false" json:"is_duplicate"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_patients_created_at" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Project       *Project       `gorm:"foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	OutreachLogs  []OutreachLog  `gorm:"foreignKey:PatientID" json:"-"`
	BrokerUpdates []BrokerUpdate `gorm:"foreignKey:PatientID" json:"-"`
	Messages      []Message      `gorm:"foreignKey:PatientID" json:"-"`
}

func (Patient) TableName() string {
	return "patients"
}

// BeforeCreate is called before creating a new record
func (p *Patient) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	if p.OutreachStatus == "" {
		p.OutreachStatus = OutreachStatusNotCalled
	}
	return nil
}

// FullName returns the patient's display name
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// IsSealed reports whether the patient's routing state is frozen. Sealed
// patients still accept log rows and attempt increments.
func (p *Patient) IsSealed() bool {
	return p.OutreachStatus.IsTerminal()
}

// CanForward reports whether the patient may be handed to a broker. Already
// forwarded or completed patients may not be re-forwarded.
func (p *Patient) CanForward() bool {
	return p.OutreachStatus != OutreachStatusForwardedToBroker &&
		p.OutreachStatus != OutreachStatusCompleted
}

// PatientFilter represents filter criteria for patient queries
type PatientFilter struct {
	ID               *uint
	UUID             *uuid.UUID
	ProjectID        *uint
	OutreachStatus   *OutreachStatus
	OutreachStatuses []OutreachStatus
	PrimaryPhone     *string
	LastName         *string
	IsDuplicate      *bool
	LastContactedBy  *uint
	ForwardedBy      *uint
	CreatedAfter     *time.Time
	CreatedBefore    *time.Time
}
