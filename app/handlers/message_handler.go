package handlers

import (
	"log"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// MessageHandlerInterface defines the contract for patient thread handlers
type MessageHandlerInterface interface {
	PostMessage(c fiber.Ctx) error
	ListMessages(c fiber.Ctx) error
	MarkMessageRead(c fiber.Ctx) error
}

// MessageHandler handles patient thread HTTP requests
type MessageHandler struct {
	messageFlow businessflow.MessageFlow
	validator   *validator.Validate
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageFlow businessflow.MessageFlow) *MessageHandler {
	return &MessageHandler{
		messageFlow: messageFlow,
		validator:   validator.New(),
	}
}

// PostMessage appends to a patient's coordination thread
// @Summary Post Message
// @Description Post a message to a patient's staff/broker thread
// @Tags Messages
// @Accept json
// @Produce json
// @Param request body dto.PostMessageRequest true "Message data"
// @Success 200 {object} dto.APIResponse{data=dto.PostMessageResponse} "Message posted"
// @Failure 400 {object} dto.APIResponse "Body empty or too long"
// @Failure 404 {object} dto.APIResponse "Patient not found"
// @Router /api/v1/messages [post]
func (h *MessageHandler) PostMessage(c fiber.Ctx) error {
	var req dto.PostMessageRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.SenderID = currentUserID(c)
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.messageFlow.PostMessage(requestContext(c, "/api/v1/messages"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsMessageTooLong(err) {
			return errorResponse(c, fiber.StatusBadRequest, "Message body exceeds the maximum length", "MESSAGE_TOO_LONG", nil)
		}

		log.Println("Post message failed", err)
		return mapBusinessError(c, err, "Failed to post message", "MESSAGE_POST_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, result.Posted)
}

// ListMessages returns a patient's thread with the caller's unread count
// @Summary List Messages
// @Description Retrieve a patient's message thread newest-first
// @Tags Messages
// @Produce json
// @Param uuid path string true "Patient UUID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=dto.ListMessagesResponse} "Messages retrieved"
// @Failure 404 {object} dto.APIResponse "Patient not found"
// @Router /api/v1/messages/{uuid} [get]
func (h *MessageHandler) ListMessages(c fiber.Ctx) error {
	req := dto.ListMessagesRequest{
		PatientUUID: c.Params("uuid"),
		Page:        queryUint(c, "page"),
		PageSize:    queryUint(c, "page_size"),
		UserID:      currentUserID(c),
	}
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.messageFlow.ListMessages(requestContext(c, "/api/v1/messages/:uuid"), &req, clientMetadata(c))
	if err != nil {
		return mapBusinessError(c, err, "Failed to list messages", "MESSAGE_LIST_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, fiber.Map{
		"messages": result.Messages,
		"unread":   result.Unread,
	})
}

// MarkMessageRead records a read receipt for the caller
// @Summary Mark Message Read
// @Description Mark one message in a visible thread as read
// @Tags Messages
// @Accept json
// @Produce json
// @Param request body dto.MarkMessageReadRequest true "Read receipt data"
// @Success 200 {object} dto.APIResponse "Message marked as read"
// @Failure 404 {object} dto.APIResponse "Message not found"
// @Router /api/v1/messages/read [post]
func (h *MessageHandler) MarkMessageRead(c fiber.Ctx) error {
	var req dto.MarkMessageReadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	req.UserID = currentUserID(c)
	if err := h.validator.Struct(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors(err))
	}

	result, err := h.messageFlow.MarkMessageRead(requestContext(c, "/api/v1/messages/read"), &req, clientMetadata(c))
	if err != nil {
		return mapBusinessError(c, err, "Failed to mark message read", "MESSAGE_READ_FAILED")
	}

	return successResponse(c, fiber.StatusOK, result.Message, nil)
}
