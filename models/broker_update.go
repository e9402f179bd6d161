package models

import (
	"time"
)

// BrokerUpdate is one immutable row per broker status change on a forwarded
// patient. Terminal updates (completed / unable_to_complete) are the only path
// by which a patient resolves from the broker side.
type BrokerUpdate struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	PatientID uint `gorm:"not null;index:idx_broker_updates_patient_id" json:"patient_id"`
	ProjectID uint `gorm:"not null;index:idx_broker_updates_project_id" json:"project_id"`
	BrokerID  uint `gorm:"not null;index:idx_broker_updates_broker_id" json:"broker_id"`

	Status BrokerStatus `gorm:"type:broker_status_enum;not null" json:"status"`
	Notes  *string      `gorm:"size:500" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"not null;index:idx_broker_updates_created_at" json:"created_at"`

	// Relations
	Patient *Patient `gorm:"foreignKey:PatientID;references:ID" json:"patient,omitempty"`
	Project *Project `gorm:"foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	Broker  *Profile `gorm:"foreignKey:BrokerID;references:ID" json:"broker,omitempty"`
}

func (BrokerUpdate) TableName() string {
	return "broker_updates"
}

// BrokerUpdateFilter represents filter criteria for broker update queries
type BrokerUpdateFilter struct {
	ID            *uint
	PatientID     *uint
	ProjectID     *uint
	BrokerID      *uint
	Status        *BrokerStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
