package businessflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/repository"
	"github.com/clearwater-medical/outreach-portal/utils"
	"gorm.io/gorm"
)

// OutreachFlow defines the staff-side calling workflow
type OutreachFlow interface {
	RecordCallAttempt(ctx context.Context, req *dto.RecordCallAttemptRequest, metadata *ClientMetadata) (*dto.RecordCallAttemptResponse, error)
	ListCallHistory(ctx context.Context, req *dto.ListOutreachLogsRequest, metadata *ClientMetadata) (*dto.ListOutreachLogsResponse, error)
	ReopenPatient(ctx context.Context, req *dto.ReopenPatientRequest, metadata *ClientMetadata) (*dto.ReopenPatientResponse, error)
}

// OutreachFlowImpl implements OutreachFlow
type OutreachFlowImpl struct {
	db          *gorm.DB
	patientRepo repository.PatientRepository
	logRepo     repository.OutreachLogRepository
	projectRepo repository.ProjectRepository
	profileRepo repository.ProfileRepository
	auditRepo   repository.AuditLogRepository
	access      AccessFlow
}

func NewOutreachFlow(
	db *gorm.DB,
	patientRepo repository.PatientRepository,
	logRepo repository.OutreachLogRepository,
	projectRepo repository.ProjectRepository,
	profileRepo repository.ProfileRepository,
	auditRepo repository.AuditLogRepository,
	access AccessFlow,
) OutreachFlow {
	return &OutreachFlowImpl{
		db:          db,
		patientRepo: patientRepo,
		logRepo:     logRepo,
		projectRepo: projectRepo,
		profileRepo: profileRepo,
		auditRepo:   auditRepo,
		access:      access,
	}
}

// RecordCallAttempt logs one call. The log insert, attempt increment, contact
// stamps, and status move commit together or not at all. A patient in a
// terminal state keeps accumulating history but its status stays frozen.
func (f *OutreachFlowImpl) RecordCallAttempt(ctx context.Context, req *dto.RecordCallAttemptRequest, metadata *ClientMetadata) (*dto.RecordCallAttemptResponse, error) {
	staff, err := getProfile(ctx, f.profileRepo, req.StaffID)
	if err != nil {
		return nil, err
	}
	if !CapabilitiesFor(staff.Role).CanLogCalls() {
		return nil, ErrPatientNotFound
	}

	patient, err := getPatientByUUID(ctx, f.patientRepo, req.PatientUUID)
	if err != nil {
		return nil, err
	}
	if err := f.access.RequirePatientAccess(ctx, staff, patient); err != nil {
		return nil, err
	}

	project, err := getProjectByID(ctx, f.projectRepo, patient.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.IsArchived() {
		return nil, ErrProjectArchived
	}

	disposition := models.Disposition(req.Disposition)
	mapped, ok := disposition.OutreachStatusFor()
	if !ok {
		return nil, ErrInvalidDisposition
	}

	var notes *string
	if req.Notes != nil {
		trimmed := strings.TrimSpace(*req.Notes)
		if trimmed != "" {
			notes = utils.ToPtr(utils.TruncateRunes(trimmed, utils.OutreachNotesMaxLen))
		}
	}

	now := utils.UTCNow()
	log := &models.OutreachLog{
		PatientID:     patient.ID,
		ProjectID:     patient.ProjectID,
		StaffID:       staff.ID,
		Disposition:   disposition,
		Notes:         notes,
		CallTimestamp: now,
	}

	err = repository.WithTransaction(ctx, f.db, func(ctx context.Context) error {
		if err := f.logRepo.Save(ctx, log); err != nil {
			return err
		}
		if err := f.patientRepo.RecordContact(ctx, patient.ID, staff.ID, now); err != nil {
			return err
		}
		if !patient.IsSealed() {
			if err := f.patientRepo.UpdateOutreachStatus(ctx, patient.ID, mapped); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		errMsg := err.Error()
		_ = saveAudit(ctx, f.auditRepo, &staff.ID, models.AuditActionCallLogFailed,
			fmt.Sprintf("Call attempt for patient %s failed", patient.UUID), false, &errMsg, metadata)
		return nil, NewBusinessError("CALL_ATTEMPT_FAILED", "Failed to record call attempt", err)
	}

	callsLoggedTotal.WithLabelValues(disposition.String()).Inc()
	_ = saveAudit(ctx, f.auditRepo, &staff.ID, models.AuditActionCallLogged,
		fmt.Sprintf("Logged %s for patient %s", disposition, patient.UUID), true, nil, metadata)

	status := patient.OutreachStatus
	if !patient.IsSealed() {
		status = mapped
	}

	return &dto.RecordCallAttemptResponse{
		Message:       "Call attempt recorded",
		Log:           ToOutreachLogDTO(log),
		PatientStatus: status.String(),
		TotalAttempts: patient.TotalAttempts + 1,
	}, nil
}

// ListCallHistory returns a patient's call attempts newest-first
func (f *OutreachFlowImpl) ListCallHistory(ctx context.Context, req *dto.ListOutreachLogsRequest, metadata *ClientMetadata) (*dto.ListOutreachLogsResponse, error) {
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
	rows, err := f.logRepo.ListByPatient(ctx, patient.ID, limit, offset)
	if err != nil {
		return nil, NewBusinessError("CALL_HISTORY_FAILED", "Failed to list call history", err)
	}

	logs := make([]dto.OutreachLogDTO, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, ToOutreachLogDTO(r))
	}

	return &dto.ListOutreachLogsResponse{
		Message: "Call history retrieved",
		Logs:    logs,
	}, nil
}

// ReopenPatient puts a resolved patient back into active outreach. The status
// reset and its audit row commit together so every reopen leaves a trace.
func (f *OutreachFlowImpl) ReopenPatient(ctx context.Context, req *dto.ReopenPatientRequest, metadata *ClientMetadata) (*dto.ReopenPatientResponse, error) {
	user, err := getProfile(ctx, f.profileRepo, req.UserID)
	if err != nil {
		return nil, err
	}
	if !CapabilitiesFor(user.Role).CanReopenPatients() {
		return nil, ErrPatientNotFound
	}

	patient, err := getPatientByUUID(ctx, f.patientRepo, req.PatientUUID)
	if err != nil {
		return nil, err
	}
	if err := f.access.RequirePatientAccess(ctx, user, patient); err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if !patient.IsSealed() {
		return nil, ErrPatientNotSealed
	}

	project, err := getProjectByID(ctx, f.projectRepo, patient.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.IsArchived() {
		return nil, ErrProjectArchived
	}

	reopened := models.OutreachStatusNeedsMoreInfo
	err = repository.WithTransaction(ctx, f.db, func(ctx context.Context) error {
		if err := f.patientRepo.UpdateOutreachStatus(ctx, patient.ID, reopened); err != nil {
			return err
		}
		return saveAudit(ctx, f.auditRepo, &user.ID, models.AuditActionPatientReopened,
			fmt.Sprintf("Reopened patient %s from %s: %s", patient.UUID, patient.OutreachStatus, reason), true, nil, metadata)
	})
	if err != nil {
		return nil, NewBusinessError("REOPEN_FAILED", "Failed to reopen patient", err)
	}

	patientsReopenedTotal.Inc()

	return &dto.ReopenPatientResponse{
		Message:       "Patient reopened",
		PatientStatus: reopened.String(),
	}, nil
}
