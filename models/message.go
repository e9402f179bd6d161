package models

import (
	"time"
)

// Message is one free-text note between staff and broker about a patient.
// is_read is the only mutable field.
type Message struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	PatientID uint `gorm:"not null;index:idx_messages_patient_id" json:"patient_id"`
	ProjectID uint `gorm:"not null;index:idx_messages_project_id" json:"project_id"`
	SenderID  uint `gorm:"not null;index:idx_messages_sender_id" json:"sender_id"`

	Body   string `gorm:"size:1000;not null" json:"body"`
	IsRead *bool  `gorm:"default:false;index:idx_messages_is_read" json:"is_read"`

	CreatedAt time.Time `gorm:"not null;index:idx_messages_created_at" json:"created_at"`

	// Relations
	Patient *Patient `gorm:"foreignKey:PatientID;references:ID" json:"patient,omitempty"`
	Sender  *Profile `gorm:"foreignKey:SenderID;references:ID" json:"sender,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}

// MessageFilter represents filter criteria for message queries
type MessageFilter struct {
	ID            *uint
	PatientID     *uint
	ProjectID     *uint
	SenderID      *uint
	IsRead        *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
