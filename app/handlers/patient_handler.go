package handlers

import (
	"log"
	"strconv"
	"strings"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// PatientHandlerInterface defines the contract for patient queue handlers
type PatientHandlerInterface interface {
	GetPatient(c fiber.Ctx) error
	ListPatients(c fiber.Ctx) error
	ImportPatients(c fiber.Ctx) error
}

// PatientHandler handles patient queue HTTP requests
type PatientHandler struct {
	patientFlow businessflow.PatientFlow
	importFlow  businessflow.ImportFlow
	validator   *validator.Validate
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(patientFlow businessflow.PatientFlow, importFlow businessflow.ImportFlow) *PatientHandler {
	return &PatientHandler{
		patientFlow: patientFlow,
		importFlow:  importFlow,
		validator:   validator.New(),
	}
}

// GetPatient returns one patient scoped to the caller
// @Summary Get Patient
// @Description Retrieve one patient record visible to the caller
// @Tags Patients
// @Produce json
// @Param uuid path string true "Patient UUID"
// @Success 200 {object} dto.APIResponse{data=dto.GetPatientResponse} "Patient retrieved"
// @Failure 404 {object} dto.APIResponse "Patient not found"
// @Router /api/v1/patients/{uuid} [get]
func (h *PatientHandler) GetPatient(c fiber.Ctx) error {
	req := dto.GetPatientRequest{
		PatientUUID: c.Params("uuid"),
		UserID:      currentUserID(c),
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.patientFlow.GetPatient(requestContext(c, "/api/v1/patients/:uuid"), &req, clientMetadata(c))
	if err != nil {
		return mapBusinessError(c, err, "Failed to retrieve patient", "PATIENT_LOOKUP_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, result.Patient)
}

// ListPatients returns a page of a project's patient queue
// @Summary List Patients
// @Description List a project's patients visible to the caller, with optional status filters
// @Tags Patients
// @Produce json
// @Param project_uuid query string true "Project UUID"
// @Param statuses query string false "Comma-separated status filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListPatientsResponse} "Patients retrieved"
// @Failure 404 {object} dto.APIResponse "Project not found"
// @Router /api/v1/patients [get]
func (h *PatientHandler) ListPatients(c fiber.Ctx) error {
	req := dto.ListPatientsRequest{
		ProjectUUID: c.Query("project_uuid"),
		Statuses:    queryList(c, "statuses"),
		Page:        queryUint(c, "page"),
		PageSize:    queryUint(c, "page_size"),
		UserID:      currentUserID(c),
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.patientFlow.ListPatients(requestContext(c, "/api/v1/patients"), &req, clientMetadata(c))
	if err != nil {
		return mapBusinessError(c, err, "Failed to list patients", "PATIENT_LIST_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"patients": result.Patients,
		"total":    result.Total,
	})
}

// ImportPatients bulk-loads a CSV of patients into a project
// @Summary Import Patients
// @Description Bulk import patients from CSV content or pre-parsed rows
// @Tags Patients
// @Accept json
// @Produce json
// @Param request body dto.ImportPatientsRequest true "Import payload"
// @Success 200 {object} dto.APIResponse{data=dto.ImportPatientsResponse} "Import finished"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Project not found"
// @Router /api/v1/patients/import [post]
func (h *PatientHandler) ImportPatients(c fiber.Ctx) error {
	var req dto.ImportPatientsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UserID = currentUserID(c)
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	// Imports can be large; give them a wider window than normal requests.
	result, err := h.importFlow.ImportPatients(requestContextWithTimeout(c, "/api/v1/patients/import", importTimeout), &req, clientMetadata(c))
	if err != nil {
		log.Println("Patient import failed", err)
		return mapBusinessError(c, err, "Import failed", "IMPORT_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"created":    result.Created,
		"invalid":    result.Invalid,
		"duplicates": result.Duplicates,
	})
}

func queryUint(c fiber.Ctx, key string) uint {
	v, err := strconv.ParseUint(c.Query(key), 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}

// queryList parses a comma-separated query parameter
func queryList(c fiber.Ctx, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
