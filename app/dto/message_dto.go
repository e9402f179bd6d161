package dto

// MessageDTO represents one message in a patient thread
type MessageDTO struct {
	ID         uint   `json:"id"`
	PatientID  uint   `json:"patient_id"`
	ProjectID  uint   `json:"project_id"`
	SenderID   uint   `json:"sender_id"`
	SenderName string `json:"sender_name,omitempty"`
	SenderRole string `json:"sender_role,omitempty" example:"staff"`
	Body       string `json:"body"`
	IsRead     *bool  `json:"is_read,omitempty"`
	CreatedAt  string `json:"created_at" example:"2026-01-15T10:30:00Z"`
}

// PostMessageRequest represents the payload for posting to a patient thread
type PostMessageRequest struct {
	PatientUUID string `json:"patient_uuid" validate:"required,uuid4"`
	Body        string `json:"body" validate:"required,min=1,max=1000"`
	SenderID    uint   `json:"-"`
}

// PostMessageResponse returns the created message
type PostMessageResponse struct {
	Message string     `json:"message" example:"Message posted"`
	Posted  MessageDTO `json:"posted"`
}

// ListMessagesRequest represents the query for a patient's message thread
type ListMessagesRequest struct {
	PatientUUID string `json:"patient_uuid" validate:"required,uuid4"`
	Page        uint   `json:"page" validate:"omitempty,min=1"`
	PageSize    uint   `json:"page_size" validate:"omitempty,min=1,max=100"`
	UserID      uint   `json:"-"`
}

// ListMessagesResponse returns the thread newest-first with the caller's
// unread count
type ListMessagesResponse struct {
	Message  string       `json:"message" example:"Messages retrieved"`
	Messages []MessageDTO `json:"messages"`
	Unread   int64        `json:"unread"`
}

// MarkMessageReadRequest represents the payload for marking a message read
type MarkMessageReadRequest struct {
	MessageID uint `json:"message_id" validate:"required"`
	UserID    uint `json:"-"`
}

// MarkMessageReadResponse confirms the read receipt
type MarkMessageReadResponse struct {
	Message string `json:"message" example:"Message marked as read"`
}
