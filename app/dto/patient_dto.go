package dto

// PatientDTO represents one patient record in API responses
type PatientDTO struct {
	ID               uint    `json:"id"`
	UUID             string  `json:"uuid"`
	ProjectID        uint    `json:"project_id"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	DateOfBirth      *string `json:"date_of_birth,omitempty"`
	PrimaryPhone     string  `json:"primary_phone"`
	SecondaryPhone   *string `json:"secondary_phone,omitempty"`
	Address          *string `json:"address,omitempty"`
	CurrentInsurance *string `json:"current_insurance,omitempty"`
	TargetInsurance  *string `json:"target_insurance,omitempty"`
	MemberID         *string `json:"member_id,omitempty"`
	OutreachStatus   string  `json:"outreach_status" example:"not_called"`
	StatusDisplay    string  `json:"status_display" example:"Not Called"`
	StatusColor      string  `json:"status_color" example:"#6c757d"`
	TotalAttempts    int     `json:"total_attempts"`
	LastContactedAt  *string `json:"last_contacted_at,omitempty"`
	ForwardedAt      *string `json:"forwarded_at,omitempty"`
	IsDuplicate      *bool   `json:"is_duplicate,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// GetPatientRequest represents the query for a single patient
type GetPatientRequest struct {
	PatientUUID string `json:"patient_uuid" validate:"required,uuid4"`
	UserID      uint   `json:"-"`
}

// GetPatientResponse returns one patient with recent history
type GetPatientResponse struct {
	Message string     `json:"message" example:"Patient retrieved"`
	Patient PatientDTO `json:"patient"`
}

// ListPatientsRequest represents the query for a project's patient queue
type ListPatientsRequest struct {
	ProjectUUID string   `json:"project_uuid" validate:"required,uuid4"`
	Statuses    []string `json:"statuses" validate:"omitempty,dive,oneof=not_called no_answer needs_more_info not_interested will_switch forwarded_to_broker wrong_number completed unable_to_complete"`
	Page        uint     `json:"page" validate:"omitempty,min=1"`
	PageSize    uint     `json:"page_size" validate:"omitempty,min=1,max=100"`
	UserID      uint     `json:"-"`
}

// ListPatientsResponse returns the scoped patient list for a project
type ListPatientsResponse struct {
	Message  string       `json:"message" example:"Patients retrieved"`
	Patients []PatientDTO `json:"patients"`
	Total    int64        `json:"total"`
}

// ImportPatientRow is one parsed CSV row submitted for import
type ImportPatientRow struct {
	FirstName        string  `json:"first_name" validate:"required,max=100"`
	LastName         string  `json:"last_name" validate:"required,max=100"`
	DateOfBirth      *string `json:"date_of_birth,omitempty"`
	PrimaryPhone     string  `json:"primary_phone" validate:"required,max=20"`
	SecondaryPhone   *string `json:"secondary_phone,omitempty" validate:"omitempty,max=20"`
	Address          *string `json:"address,omitempty" validate:"omitempty,max=255"`
	CurrentInsurance *string `json:"current_insurance,omitempty" validate:"omitempty,max=100"`
	TargetInsurance  *string `json:"target_insurance,omitempty" validate:"omitempty,max=100"`
	MemberID         *string `json:"member_id,omitempty" validate:"omitempty,max=50"`
}

// ImportPatientsRequest represents a bulk CSV import into one project. Either
// CSVContent (raw file body) or Rows (pre-parsed) is provided.
type ImportPatientsRequest struct {
	ProjectUUID string             `json:"project_uuid" validate:"required,uuid4"`
	CSVContent  *string            `json:"csv_content,omitempty"`
	Rows        []ImportPatientRow `json:"rows,omitempty" validate:"omitempty,dive"`
	UserID      uint               `json:"-"`
}

// ImportRowError describes one rejected import row
type ImportRowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason" example:"missing primary phone"`
}

// ImportPatientsResponse partitions the submitted rows into created, invalid,
// and duplicate buckets
type ImportPatientsResponse struct {
	Message    string           `json:"message" example:"Import finished"`
	Created    int              `json:"created"`
	Invalid    []ImportRowError `json:"invalid,omitempty"`
	Duplicates []ImportRowError `json:"duplicates,omitempty"`
}
