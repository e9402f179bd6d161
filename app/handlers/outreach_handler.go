package handlers

import (
	"log"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// OutreachHandlerInterface defines the contract for call workflow handlers
type OutreachHandlerInterface interface {
	RecordCallAttempt(c fiber.Ctx) error
	ListCallHistory(c fiber.Ctx) error
	ReopenPatient(c fiber.Ctx) error
	ForwardToBroker(c fiber.Ctx) error
}

// OutreachHandler handles the call workflow HTTP requests
type OutreachHandler struct {
	outreachFlow   businessflow.OutreachFlow
	forwardingFlow businessflow.ForwardingFlow
	validator      *validator.Validate
}

// NewOutreachHandler creates a new outreach handler
func NewOutreachHandler(outreachFlow businessflow.OutreachFlow, forwardingFlow businessflow.ForwardingFlow) *OutreachHandler {
	return &OutreachHandler{
		outreachFlow:   outreachFlow,
		forwardingFlow: forwardingFlow,
		validator:      validator.New(),
	}
}

// RecordCallAttempt logs one phone call against a patient
// @Summary Record Call Attempt
// @Description Log a call attempt with its disposition; the patient's status follows unless already resolved
// @Tags Outreach
// @Accept json
// @Produce json
// @Param request body dto.RecordCallAttemptRequest true "Call attempt data"
// @Success 200 {object} dto.APIResponse{data=dto.RecordCallAttemptResponse} "Call attempt recorded"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Patient not found"
// @Failure 409 {object} dto.APIResponse "Project archived"
// @Router /api/v1/outreach/calls [post]
func (h *OutreachHandler) RecordCallAttempt(c fiber.Ctx) error {
	var req dto.RecordCallAttemptRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.StaffID = currentUserID(c)
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.outreachFlow.RecordCallAttempt(requestContext(c, "/api/v1/outreach/calls"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsInvalidDisposition(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Disposition is not a recognized call outcome", "INVALID_DISPOSITION", nil)
		}

		log.Println("Record call attempt failed", err)
		return mapBusinessError(c, err, "Failed to record call attempt", "CALL_LOG_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"log":            result.Log,
		"patient_status": result.PatientStatus,
		"total_attempts": result.TotalAttempts,
	})
}

// ListCallHistory returns a patient's call attempts newest-first
// @Summary List Call History
// @Description Retrieve a patient's call history
// @Tags Outreach
// @Produce json
// @Param uuid path string true "Patient UUID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListOutreachLogsResponse} "Call history retrieved"
// @Failure 404 {object} dto.APIResponse "Patient not found"
// @Router /api/v1/outreach/calls/{uuid} [get]
func (h *OutreachHandler) ListCallHistory(c fiber.Ctx) error {
	req := dto.ListOutreachLogsRequest{
		PatientUUID: c.Params("uuid"),
		Page:        queryUint(c, "page"),
		PageSize:    queryUint(c, "page_size"),
		UserID:      currentUserID(c),
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.outreachFlow.ListCallHistory(requestContext(c, "/api/v1/outreach/calls/:uuid"), &req, clientMetadata(c))
	if err != nil {
		return mapBusinessError(c, err, "Failed to list call history", "CALL_HISTORY_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, result.Logs)
}

// ReopenPatient moves a resolved patient back into active outreach
// @Summary Reopen Patient
// @Description Move a resolved patient back to needs_more_info with an audited reason
// @Tags Outreach
// @Accept json
// @Produce json
// @Param request body dto.ReopenPatientRequest true "Reopen data"
// @Success 200 {object} dto.APIResponse{data=dto.ReopenPatientResponse} "Patient reopened"
// @Failure 400 {object} dto.APIResponse "Reason missing"
// @Failure 409 {object} dto.APIResponse "Patient is not resolved"
// @Router /api/v1/outreach/reopen [post]
func (h *OutreachHandler) ReopenPatient(c fiber.Ctx) error {
	var req dto.ReopenPatientRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UserID = currentUserID(c)
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.outreachFlow.ReopenPatient(requestContext(c, "/api/v1/outreach/reopen"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsPatientNotSealed(err) {
			return errorResponse(c, fiber.StatusConflict, "Patient is not in a resolved state", "PATIENT_NOT_RESOLVED", nil)
		}

		log.Println("Reopen patient failed", err)
		return mapBusinessError(c, err, "Failed to reopen patient", "REOPEN_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"patient_status": result.PatientStatus,
	})
}

// ForwardToBroker hands a patient off to the project's broker
// @Summary Forward To Broker
// @Description Seal the patient as forwarded and email the project's broker. Email failure yields a warning, not an error.
// @Tags Outreach
// @Accept json
// @Produce json
// @Param request body dto.ForwardToBrokerRequest true "Forward data"
// @Success 200 {object} dto.APIResponse{data=dto.ForwardToBrokerResponse} "Patient forwarded"
// @Failure 404 {object} dto.APIResponse "Patient not found"
// @Failure 409 {object} dto.APIResponse "Already forwarded"
// @Failure 422 {object} dto.APIResponse "Project has no broker email"
// @Router /api/v1/outreach/forward [post]
func (h *OutreachHandler) ForwardToBroker(c fiber.Ctx) error {
	var req dto.ForwardToBrokerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.StaffID = currentUserID(c)
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.forwardingFlow.ForwardToBroker(requestContext(c, "/api/v1/outreach/forward"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsAlreadyForwarded(err) {
			return errorResponse(c, fiber.StatusConflict, "Patient has already been forwarded or completed", "ALREADY_FORWARDED", nil)
		}
		if businessflow.IsMissingBrokerEmail(err) {
			return errorResponse(c, fiber.StatusUnprocessableEntity, "Project has no broker email configured", "MISSING_BROKER_EMAIL", nil)
		}

		log.Println("Forward to broker failed", err)
		return mapBusinessError(c, err, "Failed to forward patient", "FORWARD_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"forwarded_at": result.ForwardedAt,
		"email_sent":   result.EmailSent,
		"warning":      result.Warning,
	})
}
