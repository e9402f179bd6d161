package handlers

import (
	"fmt"
	"log"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// ReportHandlerInterface defines the contract for reporting handlers
type ReportHandlerInterface interface {
	ProjectSummary(c fiber.Ctx) error
	StaffActivity(c fiber.Ctx) error
	DailyCallVolume(c fiber.Ctx) error
	ExportReport(c fiber.Ctx) error
}

// ReportHandler handles reporting HTTP requests
type ReportHandler struct {
	reportingFlow businessflow.ReportingFlow
	validator     *validator.Validate
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportingFlow businessflow.ReportingFlow) *ReportHandler {
	return &ReportHandler{
		reportingFlow: reportingFlow,
		validator:     validator.New(),
	}
}

// ProjectSummary returns the status breakdown of a project's patients
// @Summary Project Summary
// @Description Partition a project's patients by current outreach status
// @Tags Reports
// @Produce json
// @Param uuid path string true "Project UUID"
// @Success 200 {object} dto.APIResponse{data=dto.ProjectSummaryResponse} "Summary retrieved"
// @Failure 404 {object} dto.APIResponse "Project not found"
// @Router /api/v1/reports/{uuid}/summary [get]
func (h *ReportHandler) ProjectSummary(c fiber.Ctx) error {
	req := dto.ProjectSummaryRequest{
		ProjectUUID: c.Params("uuid"),
		UserID:      currentUserID(c),
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.reportingFlow.ProjectSummary(requestContext(c, "/api/v1/reports/:uuid/summary"), &req, clientMetadata(c))
	if err != nil {
		return mapBusinessError(c, err, "Failed to compute project summary", "SUMMARY_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"total_patients": result.TotalPatients,
		"buckets":        result.Buckets,
		"from_cache":     result.FromCache,
	})
}

// StaffActivity returns per-staff calling activity within a project
// @Summary Staff Activity
// @Description Per-staff call counts and recency for a project
// @Tags Reports
// @Produce json
// @Param uuid path string true "Project UUID"
// @Success 200 {object} dto.APIResponse{data=dto.StaffActivityResponse} "Activity retrieved"
// @Failure 404 {object} dto.APIResponse "Project not found"
// @Router /api/v1/reports/{uuid}/activity [get]
func (h *ReportHandler) StaffActivity(c fiber.Ctx) error {
	req := dto.StaffActivityRequest{
		ProjectUUID: c.Params("uuid"),
		UserID:      currentUserID(c),
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.reportingFlow.StaffActivity(requestContext(c, "/api/v1/reports/:uuid/activity"), &req, clientMetadata(c))
	if err != nil {
		return mapBusinessError(c, err, "Failed to compute staff activity", "ACTIVITY_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"activity":   result.Activity,
		"from_cache": result.FromCache,
	})
}

// DailyCallVolume returns per-day, per-staff rollups for a date window
// @Summary Daily Call Volume
// @Description Per-day call and positive-outcome counts for a project
// @Tags Reports
// @Produce json
// @Param uuid path string true "Project UUID"
// @Param start_date query string false "Window start (YYYY-MM-DD)"
// @Param end_date query string false "Window end (YYYY-MM-DD)"
// @Success 200 {object} dto.APIResponse{data=dto.DailyCallVolumeResponse} "Volume retrieved"
// @Failure 400 {object} dto.APIResponse "Invalid date window"
// @Failure 404 {object} dto.APIResponse "Project not found"
// @Router /api/v1/reports/{uuid}/volume [get]
func (h *ReportHandler) DailyCallVolume(c fiber.Ctx) error {
	req := dto.DailyCallVolumeRequest{
		ProjectUUID: c.Params("uuid"),
		UserID:      currentUserID(c),
	}
	if v := c.Query("start_date"); v != "" {
		req.StartDate = &v
	}
	if v := c.Query("end_date"); v != "" {
		req.EndDate = &v
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.reportingFlow.DailyCallVolume(requestContext(c, "/api/v1/reports/:uuid/volume"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsStartDateAfterEndDate(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Start date cannot be after end date", "INVALID_DATE_WINDOW", nil)
		}
		return mapBusinessError(c, err, "Failed to compute daily call volume", "VOLUME_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"days":       result.Days,
		"from_cache": result.FromCache,
	})
}

// ExportReport streams an XLSX workbook of the project's reports
// @Summary Export Report
// @Description Download the project's summary, activity, and volume as an XLSX workbook
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param uuid path string true "Project UUID"
// @Success 200 {file} binary "Workbook"
// @Failure 404 {object} dto.APIResponse "Project not found"
// @Router /api/v1/reports/{uuid}/export [get]
func (h *ReportHandler) ExportReport(c fiber.Ctx) error {
	req := dto.ExportReportRequest{
		ProjectUUID: c.Params("uuid"),
		AdminID:     currentUserID(c),
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	filename, content, err := h.reportingFlow.ExportProjectReport(requestContext(c, "/api/v1/reports/:uuid/export"), &req, clientMetadata(c))
	if err != nil {
		log.Println("Report export failed", err)
		return mapBusinessError(c, err, "Failed to export report", "EXPORT_FAILED")
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(content)
}
