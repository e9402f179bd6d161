// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"time"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/repository"
	"github.com/clearwater-medical/outreach-portal/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetSessionID sets the session ID
func (cm *ClientMetadata) SetSessionID(sessionID string) {
	cm.SessionID = sessionID
}

// getPatientByUUID resolves a patient or fails with NotFound. Malformed UUIDs
// fail the same way as unknown ones.
func getPatientByUUID(ctx context.Context, repo repository.PatientRepository, patientUUID string) (*models.Patient, error) {
	if _, err := utils.ParseUUID(patientUUID); err != nil {
		return nil, ErrPatientNotFound
	}
	patient, err := repo.ByUUID(ctx, patientUUID)
	if err != nil {
		return nil, NewBusinessError("PATIENT_LOOKUP_FAILED", "Failed to look up patient", err)
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}
	return patient, nil
}

// getProjectByID resolves a patient's owning project or fails with NotFound
func getProjectByID(ctx context.Context, repo repository.ProjectRepository, projectID uint) (*models.Project, error) {
	project, err := repo.ByID(ctx, projectID)
	if err != nil {
		return nil, NewBusinessError("PROJECT_LOOKUP_FAILED", "Failed to look up project", err)
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

// getProjectByUUID resolves a project or fails with NotFound
func getProjectByUUID(ctx context.Context, repo repository.ProjectRepository, projectUUID string) (*models.Project, error) {
	if _, err := utils.ParseUUID(projectUUID); err != nil {
		return nil, ErrProjectNotFound
	}
	project, err := repo.ByUUID(ctx, projectUUID)
	if err != nil {
		return nil, NewBusinessError("PROJECT_LOOKUP_FAILED", "Failed to look up project", err)
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

// getProfile resolves an active user or fails with NotFound
func getProfile(ctx context.Context, repo repository.ProfileRepository, userID uint) (*models.Profile, error) {
	user, err := repo.ByID(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to look up user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !utils.IsTrue(user.IsActive) {
		return nil, ErrAccountInactive
	}
	return user, nil
}

// saveAudit writes one audit row. Audit persistence is best-effort from the
// caller's point of view; callers decide whether to propagate the error.
func saveAudit(ctx context.Context, repo repository.AuditLogRepository, userID *uint, action, description string, success bool, errMsg *string, metadata *ClientMetadata) error {
	ipAddress := "127.0.0.1"
	userAgent := ""
	if metadata != nil {
		ipAddress = metadata.IPAddress
		userAgent = metadata.UserAgent
	}

	audit := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		Description:  &description,
		Success:      utils.ToPtr(success),
		IPAddress:    &ipAddress,
		UserAgent:    &userAgent,
		ErrorMessage: errMsg,
	}

	requestID := ctx.Value(RequestIDKey)
	if requestID != nil {
		requestIDStr, ok := requestID.(string)
		if ok {
			audit.RequestID = &requestIDStr
		}
	}

	return repo.Save(ctx, audit)
}

// ToPatientDTO converts a patient model for API responses
func ToPatientDTO(p *models.Patient) dto.PatientDTO {
	out := dto.PatientDTO{
		ID:               p.ID,
		UUID:             p.UUID.String(),
		ProjectID:        p.ProjectID,
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		PrimaryPhone:     p.PrimaryPhone,
		SecondaryPhone:   p.SecondaryPhone,
		Address:          p.Address,
		CurrentInsurance: p.CurrentInsurance,
		TargetInsurance:  p.TargetInsurance,
		MemberID:         p.MemberID,
		OutreachStatus:   p.OutreachStatus.String(),
		StatusDisplay:    p.OutreachStatus.DisplayName(),
		StatusColor:      p.OutreachStatus.Color(),
		TotalAttempts:    p.TotalAttempts,
		IsDuplicate:      p.IsDuplicate,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
	}
	if p.DateOfBirth != nil {
		out.DateOfBirth = utils.ToPtr(p.DateOfBirth.Format("2006-01-02"))
	}
	if p.LastContactedAt != nil {
		out.LastContactedAt = utils.ToPtr(p.LastContactedAt.Format(time.RFC3339))
	}
	if p.ForwardedAt != nil {
		out.ForwardedAt = utils.ToPtr(p.ForwardedAt.Format(time.RFC3339))
	}
	return out
}

// ToOutreachLogDTO converts a call log row for API responses
func ToOutreachLogDTO(l *models.OutreachLog) dto.OutreachLogDTO {
	out := dto.OutreachLogDTO{
		ID:                l.ID,
		PatientID:         l.PatientID,
		ProjectID:         l.ProjectID,
		StaffID:           l.StaffID,
		Disposition:       l.Disposition.String(),
		Notes:             l.Notes,
		CallTimestamp:     l.CallTimestamp.Format(time.RFC3339),
		ForwardedToBroker: l.ForwardedToBroker,
	}
	if l.Staff != nil {
		out.StaffName = l.Staff.FullName()
	}
	if l.BrokerEmailSentAt != nil {
		out.BrokerEmailSentAt = utils.ToPtr(l.BrokerEmailSentAt.Format(time.RFC3339))
	}
	return out
}

// ToBrokerUpdateDTO converts a broker update row for API responses
func ToBrokerUpdateDTO(u *models.BrokerUpdate) dto.BrokerUpdateDTO {
	return dto.BrokerUpdateDTO{
		ID:        u.ID,
		PatientID: u.PatientID,
		ProjectID: u.ProjectID,
		BrokerID:  u.BrokerID,
		Status:    u.Status.String(),
		Notes:     u.Notes,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// ToMessageDTO converts a message row for API responses
func ToMessageDTO(m *models.Message) dto.MessageDTO {
	out := dto.MessageDTO{
		ID:        m.ID,
		PatientID: m.PatientID,
		ProjectID: m.ProjectID,
		SenderID:  m.SenderID,
		Body:      m.Body,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt.Format(time.RFC3339),
	}
	if m.Sender != nil {
		out.SenderName = m.Sender.FullName()
		out.SenderRole = m.Sender.Role.String()
	}
	return out
}

// ToProjectDTO converts a project model for API responses
func ToProjectDTO(p *models.Project) dto.ProjectDTO {
	out := dto.ProjectDTO{
		ID:          p.ID,
		UUID:        p.UUID.String(),
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status.String(),
		BrokerEmail: p.BrokerEmail,
		CreatedBy:   p.CreatedBy,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
	if p.TargetStartDate != nil {
		out.TargetStartDate = utils.ToPtr(p.TargetStartDate.Format("2006-01-02"))
	}
	if p.TargetEndDate != nil {
		out.TargetEndDate = utils.ToPtr(p.TargetEndDate.Format("2006-01-02"))
	}
	return out
}

// ToUserInfo converts a profile model for auth responses
func ToUserInfo(p *models.Profile) dto.UserInfo {
	out := dto.UserInfo{
		ID:            p.ID,
		UUID:          p.UUID.String(),
		Email:         p.Email,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Role:          p.Role.String(),
		BrokerAgency:  p.BrokerAgency,
		BrokerLogoURL: p.BrokerLogoURL,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
	if p.LastLoginAt != nil {
		out.LastLoginAt = utils.ToPtr(p.LastLoginAt.Format(time.RFC3339))
	}
	return out
}

// normalizePage applies the default pagination window
func normalizePage(page, pageSize uint) (limit, offset int) {
	if page == 0 {
		page = 1
	}
	if pageSize == 0 || pageSize > 100 {
		pageSize = 20
	}
	return int(pageSize), int((page - 1) * pageSize)
}
