package dto

// RecordCallAttemptRequest represents the payload for logging one call attempt
type RecordCallAttemptRequest struct {
	PatientUUID string  `json:"patient_uuid" validate:"required,uuid4" example:"550e8400-e29b-41d4-a716-446655440000"`
	Disposition string  `json:"disposition" validate:"required,oneof=no_answer voicemail needs_more_info not_interested will_switch wrong_number disconnected" example:"will_switch"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	StaffID     uint    `json:"-"`
}

// RecordCallAttemptResponse returns the created log row and the patient's
// resulting state
type RecordCallAttemptResponse struct {
	Message       string         `json:"message" example:"Call attempt recorded"`
	Log           OutreachLogDTO `json:"log"`
	PatientStatus string         `json:"patient_status" example:"will_switch"`
	TotalAttempts int            `json:"total_attempts" example:"3"`
}

// OutreachLogDTO represents one call attempt row
type OutreachLogDTO struct {
	ID                uint    `json:"id"`
	PatientID         uint    `json:"patient_id"`
	ProjectID         uint    `json:"project_id"`
	StaffID           uint    `json:"staff_id"`
	StaffName         string  `json:"staff_name,omitempty"`
	Disposition       string  `json:"disposition" example:"no_answer"`
	Notes             *string `json:"notes,omitempty"`
	CallTimestamp     string  `json:"call_timestamp" example:"2026-01-15T10:30:00Z"`
	ForwardedToBroker *bool   `json:"forwarded_to_broker,omitempty"`
	BrokerEmailSentAt *string `json:"broker_email_sent_at,omitempty"`
}

// ListOutreachLogsRequest represents the query for a patient's call history
type ListOutreachLogsRequest struct {
	PatientUUID string `json:"patient_uuid" validate:"required,uuid4"`
	Page        uint   `json:"page" validate:"omitempty,min=1"`
	PageSize    uint   `json:"page_size" validate:"omitempty,min=1,max=100"`
	UserID      uint   `json:"-"`
}

// ListOutreachLogsResponse returns a patient's call history newest-first
type ListOutreachLogsResponse struct {
	Message string           `json:"message" example:"Call history retrieved"`
	Logs    []OutreachLogDTO `json:"logs"`
}

// ReopenPatientRequest represents the payload for reopening a resolved patient
type ReopenPatientRequest struct {
	PatientUUID string `json:"patient_uuid" validate:"required,uuid4"`
	Reason      string `json:"reason" validate:"required,min=3,max=500" example:"Broker marked completed in error"`
	UserID      uint   `json:"-"`
}

// ReopenPatientResponse returns the patient's state after reopening
type ReopenPatientResponse struct {
	Message       string `json:"message" example:"Patient reopened"`
	PatientStatus string `json:"patient_status" example:"needs_more_info"`
}

// ForwardToBrokerRequest represents the payload for handing a patient to a broker
type ForwardToBrokerRequest struct {
	PatientUUID string  `json:"patient_uuid" validate:"required,uuid4"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	StaffID     uint    `json:"-"`
}

// ForwardToBrokerResponse reports the forward result. EmailSent false with a
// warning means the handoff committed but the notification did not go out.
type ForwardToBrokerResponse struct {
	Message     string  `json:"message" example:"Patient forwarded to broker"`
	ForwardedAt string  `json:"forwarded_at" example:"2026-01-15T10:30:00Z"`
	EmailSent   bool    `json:"email_sent" example:"true"`
	Warning     *string `json:"warning,omitempty" example:"patient forwarded, but notification failed - please follow up manually"`
}

// RecordBrokerUpdateRequest represents the payload for a broker progress note
type RecordBrokerUpdateRequest struct {
	PatientUUID string  `json:"patient_uuid" validate:"required,uuid4"`
	Status      string  `json:"status" validate:"required,oneof=received in_progress completed unable_to_complete" example:"in_progress"`
	Notes       *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
	BrokerID    uint    `json:"-"`
}

// RecordBrokerUpdateResponse returns the created update row and the patient's
// resulting state
type RecordBrokerUpdateResponse struct {
	Message       string          `json:"message" example:"Broker update recorded"`
	Update        BrokerUpdateDTO `json:"update"`
	PatientStatus string          `json:"patient_status" example:"forwarded_to_broker"`
}

// BrokerUpdateDTO represents one broker update row
type BrokerUpdateDTO struct {
	ID        uint    `json:"id"`
	PatientID uint    `json:"patient_id"`
	ProjectID uint    `json:"project_id"`
	BrokerID  uint    `json:"broker_id"`
	Status    string  `json:"status" example:"completed"`
	Notes     *string `json:"notes,omitempty"`
	CreatedAt string  `json:"created_at" example:"2026-01-15T10:30:00Z"`
}

// ListBrokerUpdatesRequest represents the query for a patient's broker history
type ListBrokerUpdatesRequest struct {
	PatientUUID string `json:"patient_uuid" validate:"required,uuid4"`
	Page        uint   `json:"page" validate:"omitempty,min=1"`
	PageSize    uint   `json:"page_size" validate:"omitempty,min=1,max=100"`
	UserID      uint   `json:"-"`
}

// ListBrokerUpdatesResponse returns a patient's broker update history
type ListBrokerUpdatesResponse struct {
	Message string            `json:"message" example:"Broker updates retrieved"`
	Updates []BrokerUpdateDTO `json:"updates"`
}
