package models

import (
	"time"
)

// OutreachLog is one immutable row per call attempt by staff. Rows are
// append-only: the single permitted mutation is the broker_email_sent_at
// backfill once a handoff notification lands.
type OutreachLog struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	PatientID uint `gorm:"not null;index:idx_outreach_logs_patient_id" json:"patient_id"`
	ProjectID uint `gorm:"not null;index:idx_outreach_logs_project_id" json:"project_id"`
	StaffID   uint `gorm:"not null;index:idx_outreach_logs_staff_id" json:"staff_id"`

	Disposition Disposition `gorm:"type:disposition_enum;not null;index:idx_outreach_logs_disposition" json:"disposition"`
	Notes       *string     `gorm:"size:500" json:"notes,omitempty"`

	// CallTimestamp is server-assigned at insert time
	CallTimestamp time.Time `gorm:"not null;index:idx_outreach_logs_call_timestamp" json:"call_timestamp"`

	ForwardedToBroker *bool      `gorm:"default:false;index:idx_outreach_logs_forwarded" json:"forwarded_to_broker"`
	BrokerEmailSentAt *time.Time `json:"broker_email_sent_at,omitempty"`

	// Relations
	Patient *Patient `gorm:"foreignKey:PatientID;references:ID" json:"patient,omitempty"`
	Project *Project `gorm:"foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	Staff   *Profile `gorm:"foreignKey:StaffID;references:ID" json:"staff,omitempty"`
}

func (OutreachLog) TableName() string {
	return "outreach_logs"
}

// OutreachLogFilter represents filter criteria for outreach log queries
type OutreachLogFilter struct {
	ID                *uint
	PatientID         *uint
	ProjectID         *uint
	StaffID           *uint
	Disposition       *Disposition
	ForwardedToBroker *bool
	EmailUnsent       *bool
	CalledAfter       *time.Time
	CalledBefore      *time.Time
}
