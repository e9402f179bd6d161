package dto

// StatusBucketDTO is one slice of a project summary partition
type StatusBucketDTO struct {
	Status        string `json:"status" example:"will_switch"`
	StatusDisplay string `json:"status_display" example:"Will Switch"`
	StatusColor   string `json:"status_color" example:"#28a745"`
	Count         int64  `json:"count"`
}

// ProjectSummaryRequest represents the query for one project's dashboard summary
type ProjectSummaryRequest struct {
	ProjectUUID string `json:"project_uuid" validate:"required,uuid4"`
	UserID      uint   `json:"-"`
}

// ProjectSummaryResponse partitions the project's patients by current status.
// Bucket counts always sum to TotalPatients.
type ProjectSummaryResponse struct {
	Message       string            `json:"message" example:"Project summary retrieved"`
	TotalPatients int64             `json:"total_patients"`
	Buckets       []StatusBucketDTO `json:"buckets"`
	FromCache     bool              `json:"from_cache"`
}

// StaffActivityDTO is one staff member's calling activity within a project
type StaffActivityDTO struct {
	StaffID          uint    `json:"staff_id"`
	StaffName        string  `json:"staff_name,omitempty"`
	TotalCalls       int64   `json:"total_calls"`
	CallsToday       int64   `json:"calls_today"`
	CallsThisWeek    int64   `json:"calls_this_week"`
	DistinctPatients int64   `json:"distinct_patients"`
	LastCallAt       *string `json:"last_call_at,omitempty"`
}

// StaffActivityRequest represents the query for per-staff activity
type StaffActivityRequest struct {
	ProjectUUID string `json:"project_uuid" validate:"required,uuid4"`
	UserID      uint   `json:"-"`
}

// StaffActivityResponse returns per-staff activity rows
type StaffActivityResponse struct {
	Message   string             `json:"message" example:"Staff activity retrieved"`
	Activity  []StaffActivityDTO `json:"activity"`
	FromCache bool               `json:"from_cache"`
}

// DailyVolumeDTO is one (day, staff) rollup of calls and positive outcomes
type DailyVolumeDTO struct {
	Day              string `json:"day" example:"2026-01-15"`
	StaffID          uint   `json:"staff_id"`
	Calls            int64  `json:"calls"`
	PositiveOutcomes int64  `json:"positive_outcomes"`
}

// DailyCallVolumeRequest represents the query for daily call volume rollups
type DailyCallVolumeRequest struct {
	ProjectUUID string  `json:"project_uuid" validate:"required,uuid4"`
	StartDate   *string `json:"start_date,omitempty" example:"2026-01-01"`
	EndDate     *string `json:"end_date,omitempty" example:"2026-01-31"`
	UserID      uint    `json:"-"`
}

// DailyCallVolumeResponse returns (day, staff) rollups for the window
type DailyCallVolumeResponse struct {
	Message   string           `json:"message" example:"Daily call volume retrieved"`
	Days      []DailyVolumeDTO `json:"days"`
	FromCache bool             `json:"from_cache"`
}

// ExportReportRequest represents the admin request for an XLSX report workbook
type ExportReportRequest struct {
	ProjectUUID string `json:"project_uuid" validate:"required,uuid4"`
	AdminID     uint   `json:"-"`
}
