package handlers

import (
	"log"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// BrokerHandlerInterface defines the contract for broker update handlers
type BrokerHandlerInterface interface {
	RecordBrokerUpdate(c fiber.Ctx) error
	ListBrokerUpdates(c fiber.Ctx) error
}

// BrokerHandler handles broker update HTTP requests
type BrokerHandler struct {
	brokerFlow businessflow.BrokerFlow
	validator  *validator.Validate
}

// NewBrokerHandler creates a new broker handler
func NewBrokerHandler(brokerFlow businessflow.BrokerFlow) *BrokerHandler {
	return &BrokerHandler{
		brokerFlow: brokerFlow,
		validator:  validator.New(),
	}
}

// RecordBrokerUpdate posts a broker progress note against a forwarded patient
// @Summary Record Broker Update
// @Description Post a progress update; completed and unable_to_complete also move the patient's status
// @Tags Broker
// @Accept json
// @Produce json
// @Param request body dto.RecordBrokerUpdateRequest true "Broker update data"
// @Success 200 {object} dto.APIResponse{data=dto.RecordBrokerUpdateResponse} "Broker update recorded"
// @Failure 404 {object} dto.APIResponse "Patient not found"
// @Failure 409 {object} dto.APIResponse "Patient not forwarded to this broker"
// @Router /api/v1/broker/updates [post]
func (h *BrokerHandler) RecordBrokerUpdate(c fiber.Ctx) error {
	var req dto.RecordBrokerUpdateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.BrokerID = currentUserID(c)
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.brokerFlow.RecordBrokerUpdate(requestContext(c, "/api/v1/broker/updates"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsNotForwardedToYou(err) {
			return errorResponse(c, fiber.StatusConflict, "Patient is not forwarded to you", "NOT_FORWARDED_TO_YOU", nil)
		}
		if businessflow.IsInvalidBrokerStatus(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Status is not a recognized broker update", "INVALID_BROKER_STATUS", nil)
		}

		log.Println("Record broker update failed", err)
		return mapBusinessError(c, err, "Failed to record broker update", "BROKER_UPDATE_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"update":         result.Update,
		"patient_status": result.PatientStatus,
	})
}

// ListBrokerUpdates returns a patient's broker update history
// @Summary List Broker Updates
// @Description Retrieve a patient's broker update history
// @Tags Broker
// @Produce json
// @Param uuid path string true "Patient UUID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListBrokerUpdatesResponse} "Broker updates retrieved"
// @Failure 404 {object} dto.APIResponse "Patient not found"
// @Router /api/v1/broker/updates/{uuid} [get]
func (h *BrokerHandler) ListBrokerUpdates(c fiber.Ctx) error {
	req := dto.ListBrokerUpdatesRequest{
		PatientUUID: c.Params("uuid"),
		Page:        queryUint(c, "page"),
		PageSize:    queryUint(c, "page_size"),
		UserID:      currentUserID(c),
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.brokerFlow.ListBrokerUpdates(requestContext(c, "/api/v1/broker/updates/:uuid"), &req, clientMetadata(c))
	if err != nil {
		return mapBusinessError(c, err, "Failed to list broker updates", "BROKER_UPDATE_LIST_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, result.Updates)
}
