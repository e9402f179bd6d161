package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/repository"
	"github.com/clearwater-medical/outreach-portal/utils"
)

// MessageFlow runs the per-patient thread between staff and broker
type MessageFlow interface {
	PostMessage(ctx context.Context, req *dto.PostMessageRequest, metadata *ClientMetadata) (*dto.PostMessageResponse, error)
	ListMessages(ctx context.Context, req *dto.ListMessagesRequest, metadata *ClientMetadata) (*dto.ListMessagesResponse, error)
	MarkMessageRead(ctx context.Context, req *dto.MarkMessageReadRequest, metadata *ClientMetadata) (*dto.MarkMessageReadResponse, error)
}

// MessageFlowImpl implements MessageFlow
type MessageFlowImpl struct {
	messageRepo repository.MessageRepository
	patientRepo repository.PatientRepository
	profileRepo repository.ProfileRepository
	auditRepo   repository.AuditLogRepository
	access      AccessFlow
}

func NewMessageFlow(
	messageRepo repository.MessageRepository,
	patientRepo repository.PatientRepository,
	profileRepo repository.ProfileRepository,
	auditRepo repository.AuditLogRepository,
	access AccessFlow,
) MessageFlow {
	return &MessageFlowImpl{
		messageRepo: messageRepo,
		patientRepo: patientRepo,
		profileRepo: profileRepo,
		auditRepo:   auditRepo,
		access:      access,
	}
}

// PostMessage appends to the patient thread. Oversized bodies are rejected,
// not truncated, unlike call notes.
func (f *MessageFlowImpl) PostMessage(ctx context.Context, req *dto.PostMessageRequest, metadata *ClientMetadata) (*dto.PostMessageResponse, error) {
	sender, err := getProfile(ctx, f.profileRepo, req.SenderID)
	if err != nil {
		return nil, err
	}

	patient, err := getPatientByUUID(ctx, f.patientRepo, req.PatientUUID)
	if err != nil {
		return nil, err
	}
	if err := f.access.RequirePatientAccess(ctx, sender, patient); err != nil {
		return nil, err
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, NewBusinessError("EMPTY_MESSAGE", "Message body is required", nil)
	}
	if len([]rune(body)) > utils.MessageBodyMaxLen {
		return nil, ErrMessageTooLong
	}

	msg := &models.Message{
		PatientID: patient.ID,
		ProjectID: patient.ProjectID,
		SenderID:  sender.ID,
		Body:      body,
		IsRead:    utils.ToPtr(false),
		CreatedAt: utils.UTCNow(),
	}
	if err := f.messageRepo.Save(ctx, msg); err != nil {
		return nil, NewBusinessError("POST_MESSAGE_FAILED", "Failed to post message", err)
	}

	_ = saveAudit(ctx, f.auditRepo, &sender.ID, models.AuditActionMessagePosted,
		fmt.Sprintf("Posted message on patient %s", patient.UUID), true, nil, metadata)

	msg.Sender = sender
	return &dto.PostMessageResponse{
		Message: "Message posted",
		Posted:  ToMessageDTO(msg),
	}, nil
}

// ListMessages returns the thread newest-first with the caller's unread count
func (f *MessageFlowImpl) ListMessages(ctx context.Context, req *dto.ListMessagesRequest, metadata *ClientMetadata) (*dto.ListMessagesResponse, error) {
	user, err := getProfile(ctx, f.profileRepo, req.UserID)
	if err != nil {
		return nil, err
	}

	patient, err := getPatientByUUID(ctx, f.patientRepo, req.PatientUUID)
	if err != nil {
		return nil, err
	}
	if err := f.access.RequirePatientAccess(ctx, user, patient); err != nil {
		return nil, err
	}

	limit, offset := normalizePage(req.Page, req.PageSize)
	rows, err := f.messageRepo.ListByPatient(ctx, patient.ID, limit, offset)
	if err != nil {
		return nil, NewBusinessError("LIST_MESSAGES_FAILED", "Failed to list messages", err)
	}

	unread, err := f.messageRepo.CountUnread(ctx, patient.ID, user.ID)
	if err != nil {
		return nil, NewBusinessError("UNREAD_COUNT_FAILED", "Failed to count unread messages", err)
	}

	messages := make([]dto.MessageDTO, 0, len(rows))
	for _, r := range rows {
		messages = append(messages, ToMessageDTO(r))
	}

	return &dto.ListMessagesResponse{
		Message:  "Messages retrieved",
		Messages: messages,
		Unread:   unread,
	}, nil
}

// MarkMessageRead flips is_read, the single mutable field on a message
func (f *MessageFlowImpl) MarkMessageRead(ctx context.Context, req *dto.MarkMessageReadRequest, metadata *ClientMetadata) (*dto.MarkMessageReadResponse, error) {
	user, err := getProfile(ctx, f.profileRepo, req.UserID)
	if err != nil {
		return nil, err
	}

	msg, err := f.messageRepo.ByID(ctx, req.MessageID)
	if err != nil {
		return nil, NewBusinessError("MESSAGE_LOOKUP_FAILED", "Failed to look up message", err)
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}

	patient, err := f.patientRepo.ByID(ctx, msg.PatientID)
	if err != nil || patient == nil {
		return nil, ErrMessageNotFound
	}
	if err := f.access.RequirePatientAccess(ctx, user, patient); err != nil {
		return nil, ErrMessageNotFound
	}

	if err := f.messageRepo.MarkRead(ctx, msg.ID); err != nil {
		return nil, NewBusinessError("MARK_READ_FAILED", "Failed to mark message as read", err)
	}

	return &dto.MarkMessageReadResponse{
		Message: "Message marked as read",
	}, nil
}
