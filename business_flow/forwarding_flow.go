package businessflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	"github.com/clearwater-medical/outreach-portal/app/services"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/repository"
	"github.com/clearwater-medical/outreach-portal/utils"
	"gorm.io/gorm"
)

// ForwardingFlow hands patients from staff to the project's broker
type ForwardingFlow interface {
	ForwardToBroker(ctx context.Context, req *dto.ForwardToBrokerRequest, metadata *ClientMetadata) (*dto.ForwardToBrokerResponse, error)
	PendingHandoffs() []PendingEntry[HandoffReceipt]
	RetryFailedHandoffs(ctx context.Context) int
}

// HandoffReceipt identifies one broker notification tracked through dispatch.
// It carries enough to resend the announcement without the original request.
type HandoffReceipt struct {
	PatientUUID string  `json:"patient_uuid"`
	ProjectName string  `json:"project_name"`
	BrokerEmail string  `json:"broker_email"`
	StaffID     uint    `json:"staff_id"`
	Notes       *string `json:"notes,omitempty"`
}

// ForwardingFlowImpl implements ForwardingFlow
type ForwardingFlowImpl struct {
	db          *gorm.DB
	patientRepo repository.PatientRepository
	logRepo     repository.OutreachLogRepository
	projectRepo repository.ProjectRepository
	profileRepo repository.ProfileRepository
	auditRepo   repository.AuditLogRepository
	access      AccessFlow
	notifier    services.NotificationService
	dispatches  *PendingSet[HandoffReceipt]
}

func NewForwardingFlow(
	db *gorm.DB,
	patientRepo repository.PatientRepository,
	logRepo repository.OutreachLogRepository,
	projectRepo repository.ProjectRepository,
	profileRepo repository.ProfileRepository,
	auditRepo repository.AuditLogRepository,
	access AccessFlow,
	notifier services.NotificationService,
) ForwardingFlow {
	return &ForwardingFlowImpl{
		db:          db,
		patientRepo: patientRepo,
		logRepo:     logRepo,
		projectRepo: projectRepo,
		profileRepo: profileRepo,
		auditRepo:   auditRepo,
		access:      access,
		notifier:    notifier,
		dispatches:  NewPendingSet[HandoffReceipt](),
	}
}

// PendingHandoffs lists notifications that failed to deliver and still need
// manual follow-up.
func (f *ForwardingFlowImpl) PendingHandoffs() []PendingEntry[HandoffReceipt] {
	return f.dispatches.Failed()
}

// RetryFailedHandoffs resends every failed handoff announcement and returns
// how many were delivered. Patients that no longer sit in the forwarded state
// are dropped from the pending set: the broker already acted on them.
func (f *ForwardingFlowImpl) RetryFailedHandoffs(ctx context.Context) int {
	delivered := 0
	for _, entry := range f.dispatches.Failed() {
		receipt := entry.Value

		patient, err := f.patientRepo.ByUUID(ctx, receipt.PatientUUID)
		if err != nil {
			continue
		}
		if patient == nil || patient.OutreachStatus != models.OutreachStatusForwardedToBroker {
			f.dispatches.Resolve(receipt.PatientUUID)
			continue
		}

		recent, err := f.logRepo.RecentByPatient(ctx, patient.ID, utils.HandoffRecentAttempts)
		if err != nil {
			recent = nil
		}

		f.dispatches.Begin(receipt.PatientUUID, receipt)
		err = f.notifier.SendBrokerHandoff(ctx, &services.BrokerHandoff{
			BrokerEmail:    receipt.BrokerEmail,
			ProjectName:    receipt.ProjectName,
			Patient:        patient,
			Notes:          receipt.Notes,
			RecentAttempts: recent,
		})
		if err != nil {
			f.dispatches.Fail(receipt.PatientUUID, err)
			continue
		}
		f.dispatches.Confirm(receipt.PatientUUID)
		delivered++

		if err := f.logRepo.BackfillBrokerEmailSentAt(ctx, patient.ID, utils.UTCNow()); err != nil {
			errMsg := err.Error()
			_ = saveAudit(ctx, f.auditRepo, &receipt.StaffID, models.AuditActionBrokerEmailFailed,
				fmt.Sprintf("Sent-at backfill for patient %s failed", patient.UUID), false, &errMsg, nil)
		}
	}
	return delivered
}

// ForwardToBroker marks the patient as handed off and announces it to the
// project's broker email. The status change commits first; email delivery is
// best-effort and its failure is surfaced as a warning, never a rollback.
func (f *ForwardingFlowImpl) ForwardToBroker(ctx context.Context, req *dto.ForwardToBrokerRequest, metadata *ClientMetadata) (*dto.ForwardToBrokerResponse, error) {
	staff, err := getProfile(ctx, f.profileRepo, req.StaffID)
	if err != nil {
		return nil, err
	}
	if !CapabilitiesFor(staff.Role).CanForward() {
		return nil, ErrPatientNotFound
	}

	patient, err := getPatientByUUID(ctx, f.patientRepo, req.PatientUUID)
	if err != nil {
		return nil, err
	}
	if err := f.access.RequirePatientAccess(ctx, staff, patient); err != nil {
		return nil, err
	}

	if !patient.CanForward() {
		return nil, ErrAlreadyForwarded
	}

	project, err := getProjectByID(ctx, f.projectRepo, patient.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.IsArchived() {
		return nil, ErrProjectArchived
	}

	// Checked before any write so a misconfigured project never mutates state.
	if project.BrokerEmail == nil || strings.TrimSpace(*project.BrokerEmail) == "" {
		return nil, ErrMissingBrokerEmail
	}
	brokerEmail := strings.TrimSpace(*project.BrokerEmail)

	var notes *string
	if req.Notes != nil {
		trimmed := strings.TrimSpace(*req.Notes)
		if trimmed != "" {
			notes = utils.ToPtr(utils.TruncateRunes(trimmed, utils.OutreachNotesMaxLen))
		}
	}

	now := utils.UTCNow()
	handoffLog := &models.OutreachLog{
		PatientID:         patient.ID,
		ProjectID:         patient.ProjectID,
		StaffID:           staff.ID,
		Disposition:       models.DispositionWillSwitch,
		Notes:             notes,
		CallTimestamp:     now,
		ForwardedToBroker: utils.ToPtr(true),
	}

	err = repository.WithTransaction(ctx, f.db, func(ctx context.Context) error {
		if err := f.logRepo.Save(ctx, handoffLog); err != nil {
			return err
		}
		return f.patientRepo.MarkForwarded(ctx, patient.ID, staff.ID, now)
	})
	if err != nil {
		errMsg := err.Error()
		_ = saveAudit(ctx, f.auditRepo, &staff.ID, models.AuditActionForwardFailed,
			fmt.Sprintf("Forward of patient %s failed", patient.UUID), false, &errMsg, metadata)
		return nil, NewBusinessError("FORWARD_FAILED", "Failed to forward patient", err)
	}

	patientsForwardedTotal.Inc()
	_ = saveAudit(ctx, f.auditRepo, &staff.ID, models.AuditActionPatientForwarded,
		fmt.Sprintf("Forwarded patient %s to %s", patient.UUID, brokerEmail), true, nil, metadata)

	emailSent, warning := f.dispatchHandoff(ctx, project, patient, notes, brokerEmail, staff.ID, metadata)

	return &dto.ForwardToBrokerResponse{
		Message:     "Patient forwarded to broker",
		ForwardedAt: now.Format(time.RFC3339),
		EmailSent:   emailSent,
		Warning:     warning,
	}, nil
}

// dispatchHandoff sends the announcement email and backfills the sent-at
// marker on success. The handoff itself is already committed; any failure
// here only produces a warning.
func (f *ForwardingFlowImpl) dispatchHandoff(ctx context.Context, project *models.Project, patient *models.Patient, notes *string, brokerEmail string, staffID uint, metadata *ClientMetadata) (bool, *string) {
	receipt := HandoffReceipt{
		PatientUUID: patient.UUID.String(),
		ProjectName: project.Name,
		BrokerEmail: brokerEmail,
		StaffID:     staffID,
		Notes:       notes,
	}
	f.dispatches.Begin(receipt.PatientUUID, receipt)

	recent, err := f.logRepo.RecentByPatient(ctx, patient.ID, utils.HandoffRecentAttempts)
	if err != nil {
		recent = nil
	}

	err = f.notifier.SendBrokerHandoff(ctx, &services.BrokerHandoff{
		BrokerEmail:    brokerEmail,
		ProjectName:    project.Name,
		Patient:        patient,
		Notes:          notes,
		RecentAttempts: recent,
	})
	if err != nil {
		f.dispatches.Fail(receipt.PatientUUID, err)
		brokerEmailFailuresTotal.Inc()
		errMsg := err.Error()
		_ = saveAudit(ctx, f.auditRepo, &staffID, models.AuditActionBrokerEmailFailed,
			fmt.Sprintf("Handoff email for patient %s to %s failed", patient.UUID, brokerEmail), false, &errMsg, metadata)
		return false, utils.ToPtr("patient forwarded, but notification failed - please follow up manually")
	}
	f.dispatches.Confirm(receipt.PatientUUID)

	if err := f.logRepo.BackfillBrokerEmailSentAt(ctx, patient.ID, utils.UTCNow()); err != nil {
		// The email went out; a failed backfill only loses the sent-at marker.
		errMsg := err.Error()
		_ = saveAudit(ctx, f.auditRepo, &staffID, models.AuditActionBrokerEmailFailed,
			fmt.Sprintf("Sent-at backfill for patient %s failed", patient.UUID), false, &errMsg, metadata)
	}

	return true, nil
}
