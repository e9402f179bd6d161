package handlers

import (
	"log"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ProjectHandlerInterface defines the contract for campaign management handlers
type ProjectHandlerInterface interface {
	CreateProject(c fiber.Ctx) error
	ListProjects(c fiber.Ctx) error
	AssignUser(c fiber.Ctx) error
	UpdateProjectStatus(c fiber.Ctx) error
}

// ProjectHandler handles campaign management HTTP requests
type ProjectHandler struct {
	projectFlow businessflow.ProjectFlow
	validator   *validator.Validate
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectFlow businessflow.ProjectFlow) *ProjectHandler {
	return &ProjectHandler{
		projectFlow: projectFlow,
		validator:   validator.New(),
	}
}

// CreateProject creates a campaign in planning status
// @Summary Create Project
// @Description Create a new outreach campaign
// @Tags Projects
// @Accept json
// @Produce json
// @Param request body dto.CreateProjectRequest true "Project data"
// @Success 200 {object} dto.APIResponse{data=dto.CreateProjectResponse} "Project created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Router /api/v1/projects [post]
func (h *ProjectHandler) CreateProject(c fiber.Ctx) error {
	var req dto.CreateProjectRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UserID = currentUserID(c)
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.projectFlow.CreateProject(requestContext(c, "/api/v1/projects"), &req, clientMetadata(c))
	if err != nil {
		log.Println("Create project failed", err)
		return mapBusinessError(c, err, "Failed to create project", "PROJECT_CREATE_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, result.Project)
}

// ListProjects returns the caller's visible projects
// @Summary List Projects
// @Description List campaigns visible to the caller
// @Tags Projects
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListProjectsResponse} "Projects retrieved"
// @Router /api/v1/projects [get]
func (h *ProjectHandler) ListProjects(c fiber.Ctx) error {
	req := dto.ListProjectsRequest{UserID: currentUserID(c)}

	result, err := h.projectFlow.ListProjects(requestContext(c, "/api/v1/projects"), &req, clientMetadata(c))
	if err != nil {
		return mapBusinessError(c, err, "Failed to list projects", "PROJECT_LIST_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, result.Projects)
}

// AssignUser grants a staff or broker user access to a project
// @Summary Assign User
// @Description Assign a staff or broker user to a campaign
// @Tags Projects
// @Accept json
// @Produce json
// @Param request body dto.AssignUserRequest true "Assignment data"
// @Success 200 {object} dto.APIResponse{data=dto.AssignUserResponse} "User assigned"
// @Failure 404 {object} dto.APIResponse "Project or user not found"
// @Router /api/v1/projects/assign [post]
func (h *ProjectHandler) AssignUser(c fiber.Ctx) error {
	var req dto.AssignUserRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.AdminID = currentUserID(c)
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.projectFlow.AssignUser(requestContext(c, "/api/v1/projects/assign"), &req, clientMetadata(c))
	if err != nil {
		log.Println("Assign user failed", err)
		return mapBusinessError(c, err, "Failed to assign user", "ASSIGNMENT_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"assignment_id": result.AssignmentID,
	})
}

// UpdateProjectStatus moves a campaign through its lifecycle
// @Summary Update Project Status
// @Description Change a campaign's lifecycle status
// @Tags Projects
// @Accept json
// @Produce json
// @Param request body dto.UpdateProjectStatusRequest true "Status change data"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateProjectStatusResponse} "Status updated"
// @Failure 404 {object} dto.APIResponse "Project not found"
// @Router /api/v1/projects/status [put]
func (h *ProjectHandler) UpdateProjectStatus(c fiber.Ctx) error {
	var req dto.UpdateProjectStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.AdminID = currentUserID(c)
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.projectFlow.UpdateProjectStatus(requestContext(c, "/api/v1/projects/status"), &req, clientMetadata(c))
	if err != nil {
		log.Println("Update project status failed", err)
		return mapBusinessError(c, err, "Failed to update project status", "STATUS_UPDATE_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"status": result.Status,
	})
}
