package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/repository"
	"github.com/clearwater-medical/outreach-portal/utils"
	"gorm.io/gorm"
)

// ProjectFlow manages campaigns and their assignments
type ProjectFlow interface {
	CreateProject(ctx context.Context, req *dto.CreateProjectRequest, metadata *ClientMetadata) (*dto.CreateProjectResponse, error)
	ListProjects(ctx context.Context, req *dto.ListProjectsRequest, metadata *ClientMetadata) (*dto.ListProjectsResponse, error)
	AssignUser(ctx context.Context, req *dto.AssignUserRequest, metadata *ClientMetadata) (*dto.AssignUserResponse, error)
	UpdateProjectStatus(ctx context.Context, req *dto.UpdateProjectStatusRequest, metadata *ClientMetadata) (*dto.UpdateProjectStatusResponse, error)
}

// ProjectFlowImpl implements ProjectFlow
type ProjectFlowImpl struct {
	db             *gorm.DB
	projectRepo    repository.ProjectRepository
	assignmentRepo repository.ProjectAssignmentRepository
	profileRepo    repository.ProfileRepository
	auditRepo      repository.AuditLogRepository
	access         AccessFlow
}

func NewProjectFlow(
	db *gorm.DB,
	projectRepo repository.ProjectRepository,
	assignmentRepo repository.ProjectAssignmentRepository,
	profileRepo repository.ProfileRepository,
	auditRepo repository.AuditLogRepository,
	access AccessFlow,
) ProjectFlow {
	return &ProjectFlowImpl{
		db:             db,
		projectRepo:    projectRepo,
		assignmentRepo: assignmentRepo,
		profileRepo:    profileRepo,
		auditRepo:      auditRepo,
		access:         access,
	}
}

// CreateProject creates a campaign in planning status
func (f *ProjectFlowImpl) CreateProject(ctx context.Context, req *dto.CreateProjectRequest, metadata *ClientMetadata) (*dto.CreateProjectResponse, error) {
	user, err := getProfile(ctx, f.profileRepo, req.UserID)
	if err != nil {
		return nil, err
	}
	if !CapabilitiesFor(user.Role).CanManageProjects() {
		return nil, ErrProjectNotFound
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrProjectNameRequired
	}

	project := &models.Project{
		Name:        name,
		Description: trimPtr(req.Description),
		Status:      models.ProjectStatusPlanning,
		BrokerEmail: trimPtr(req.BrokerEmail),
		CreatedBy:   user.ID,
	}
	if req.TargetStartDate != nil {
		if d, err := time.Parse("2006-01-02", *req.TargetStartDate); err == nil {
			project.TargetStartDate = &d
		}
	}
	if req.TargetEndDate != nil {
		if d, err := time.Parse("2006-01-02", *req.TargetEndDate); err == nil {
			project.TargetEndDate = &d
		}
	}

	if err := f.projectRepo.Save(ctx, project); err != nil {
		return nil, NewBusinessError("PROJECT_CREATE_FAILED", "Failed to create project", err)
	}

	_ = saveAudit(ctx, f.auditRepo, &user.ID, models.AuditActionProjectCreated,
		fmt.Sprintf("Created project %s (%s)", project.Name, project.UUID), true, nil, metadata)

	return &dto.CreateProjectResponse{
		Message: "Project created successfully",
		Project: ToProjectDTO(project),
	}, nil
}

// ListProjects returns the caller's visible projects
func (f *ProjectFlowImpl) ListProjects(ctx context.Context, req *dto.ListProjectsRequest, metadata *ClientMetadata) (*dto.ListProjectsResponse, error) {
	rows, err := f.access.VisibleProjects(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	projects := make([]dto.ProjectDTO, 0, len(rows))
	for _, r := range rows {
		projects = append(projects, ToProjectDTO(r))
	}

	return &dto.ListProjectsResponse{
		Message:  "Projects retrieved",
		Projects: projects,
	}, nil
}

// AssignUser grants a staff or broker user visibility into a project. The
// assignment row carries the user's role so the broker double filter can be
// applied without joining profiles.
func (f *ProjectFlowImpl) AssignUser(ctx context.Context, req *dto.AssignUserRequest, metadata *ClientMetadata) (*dto.AssignUserResponse, error) {
	admin, err := getProfile(ctx, f.profileRepo, req.AdminID)
	if err != nil {
		return nil, err
	}
	if !CapabilitiesFor(admin.Role).CanManageProjects() {
		return nil, ErrProjectNotFound
	}

	project, err := getProjectByUUID(ctx, f.projectRepo, req.ProjectUUID)
	if err != nil {
		return nil, err
	}

	target, err := f.profileRepo.ByUUID(ctx, req.UserUUID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to look up user", err)
	}
	if target == nil || !utils.IsTrue(target.IsActive) {
		return nil, ErrUserNotFound
	}
	if target.Role == models.RoleAdmin {
		return nil, NewBusinessError("ADMIN_ASSIGNMENT", "Admins see all projects and cannot be assigned", nil)
	}

	assignment := &models.ProjectAssignment{
		ProjectID:  project.ID,
		UserID:     target.ID,
		Role:       target.Role,
		IsActive:   utils.ToPtr(true),
		AssignedBy: admin.ID,
		CreatedAt:  utils.UTCNow(),
	}
	if err := f.assignmentRepo.Save(ctx, assignment); err != nil {
		return nil, NewBusinessError("ASSIGNMENT_FAILED", "Failed to assign user to project", err)
	}

	_ = saveAudit(ctx, f.auditRepo, &admin.ID, models.AuditActionUserAssigned,
		fmt.Sprintf("Assigned %s (%s) to project %s", target.Email, target.Role, project.UUID), true, nil, metadata)

	return &dto.AssignUserResponse{
		Message:      "User assigned to project",
		AssignmentID: assignment.ID,
	}, nil
}

// UpdateProjectStatus moves a campaign through its lifecycle
func (f *ProjectFlowImpl) UpdateProjectStatus(ctx context.Context, req *dto.UpdateProjectStatusRequest, metadata *ClientMetadata) (*dto.UpdateProjectStatusResponse, error) {
	admin, err := getProfile(ctx, f.profileRepo, req.AdminID)
	if err != nil {
		return nil, err
	}
	if !CapabilitiesFor(admin.Role).CanManageProjects() {
		return nil, ErrProjectNotFound
	}

	project, err := getProjectByUUID(ctx, f.projectRepo, req.ProjectUUID)
	if err != nil {
		return nil, err
	}

	status := models.ProjectStatus(req.Status)
	if !status.Valid() {
		return nil, NewBusinessError("INVALID_STATUS", "Unknown project status", nil)
	}

	if err := f.projectRepo.UpdateStatus(ctx, project.ID, status); err != nil {
		return nil, NewBusinessError("STATUS_UPDATE_FAILED", "Failed to update project status", err)
	}

	return &dto.UpdateProjectStatusResponse{
		Message: "Project status updated",
		Status:  status.String(),
	}, nil
}
