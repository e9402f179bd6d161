package dto

// ProjectDTO represents one outreach campaign in API responses
type ProjectDTO struct {
	ID              uint    `json:"id"`
	UUID            string  `json:"uuid"`
	Name            string  `json:"name" example:"Optum to Regal"`
	Description     *string `json:"description,omitempty"`
	Status          string  `json:"status" example:"active"`
	BrokerEmail     *string `json:"broker_email,omitempty"`
	TargetStartDate *string `json:"target_start_date,omitempty"`
	TargetEndDate   *string `json:"target_end_date,omitempty"`
	CreatedBy       uint    `json:"created_by"`
	CreatedAt       string  `json:"created_at"`
}

// CreateProjectRequest represents the payload for creating a campaign
type CreateProjectRequest struct {
	Name            string  `json:"name" validate:"required,min=3,max=255" example:"Optum to Regal"`
	Description     *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	BrokerEmail     *string `json:"broker_email,omitempty" validate:"omitempty,email,max=255"`
	TargetStartDate *string `json:"target_start_date,omitempty"`
	TargetEndDate   *string `json:"target_end_date,omitempty"`
	UserID          uint    `json:"-"`
}

// CreateProjectResponse returns the created project
type CreateProjectResponse struct {
	Message string     `json:"message" example:"Project created successfully"`
	Project ProjectDTO `json:"project"`
}

// ListProjectsRequest represents the query for projects visible to the caller
type ListProjectsRequest struct {
	UserID uint `json:"-"`
}

// ListProjectsResponse returns the caller's visible projects
type ListProjectsResponse struct {
	Message  string       `json:"message" example:"Projects retrieved"`
	Projects []ProjectDTO `json:"projects"`
}

// AssignUserRequest represents the payload for granting project access
type AssignUserRequest struct {
	ProjectUUID string `json:"project_uuid" validate:"required,uuid4"`
	UserUUID    string `json:"user_uuid" validate:"required,uuid4"`
	AdminID     uint   `json:"-"`
}

// AssignUserResponse confirms the assignment
type AssignUserResponse struct {
	Message      string `json:"message" example:"User assigned to project"`
	AssignmentID uint   `json:"assignment_id"`
}

// UpdateProjectStatusRequest represents the payload for a project status change
type UpdateProjectStatusRequest struct {
	ProjectUUID string `json:"project_uuid" validate:"required,uuid4"`
	Status      string `json:"status" validate:"required,oneof=planning active paused completed archived" example:"active"`
	AdminID     uint   `json:"-"`
}

// UpdateProjectStatusResponse confirms the status change
type UpdateProjectStatusResponse struct {
	Message string `json:"message" example:"Project status updated"`
	Status  string `json:"status" example:"active"`
}
