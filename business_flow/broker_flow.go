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

// BrokerFlow defines the broker-side workflow on forwarded patients
type BrokerFlow interface {
	RecordBrokerUpdate(ctx context.Context, req *dto.RecordBrokerUpdateRequest, metadata *ClientMetadata) (*dto.RecordBrokerUpdateResponse, error)
	ListBrokerUpdates(ctx context.Context, req *dto.ListBrokerUpdatesRequest, metadata *ClientMetadata) (*dto.ListBrokerUpdatesResponse, error)
}

// BrokerFlowImpl implements BrokerFlow
type BrokerFlowImpl struct {
	db          *gorm.DB
	patientRepo repository.PatientRepository
	updateRepo  repository.BrokerUpdateRepository
	projectRepo repository.ProjectRepository
	profileRepo repository.ProfileRepository
	auditRepo   repository.AuditLogRepository
	access      AccessFlow
}

func NewBrokerFlow(
	db *gorm.DB,
	patientRepo repository.PatientRepository,
	updateRepo repository.BrokerUpdateRepository,
	projectRepo repository.ProjectRepository,
	profileRepo repository.ProfileRepository,
	auditRepo repository.AuditLogRepository,
	access AccessFlow,
) BrokerFlow {
	return &BrokerFlowImpl{
		db:          db,
		patientRepo: patientRepo,
		updateRepo:  updateRepo,
		projectRepo: projectRepo,
		profileRepo: profileRepo,
		auditRepo:   auditRepo,
		access:      access,
	}
}

// RecordBrokerUpdate appends one broker progress note. The write path itself
// authorizes the broker against the patient's project, independent of any
// query-time filtering. A terminal status (completed / unable_to_complete)
// atomically resolves the patient; received / in_progress are informational
// history only and leave the patient's status untouched.
func (f *BrokerFlowImpl) RecordBrokerUpdate(ctx context.Context, req *dto.RecordBrokerUpdateRequest, metadata *ClientMetadata) (*dto.RecordBrokerUpdateResponse, error) {
	broker, err := getProfile(ctx, f.profileRepo, req.BrokerID)
	if err != nil {
		return nil, err
	}

	patient, err := getPatientByUUID(ctx, f.patientRepo, req.PatientUUID)
	if err != nil {
		return nil, err
	}
	if err := f.access.RequireBrokerWrite(ctx, broker, patient); err != nil {
		return nil, err
	}

	project, err := getProjectByID(ctx, f.projectRepo, patient.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.IsArchived() {
		return nil, ErrProjectArchived
	}

	status := models.BrokerStatus(req.Status)
	if !status.Valid() {
		return nil, ErrInvalidBrokerStatus
	}

	var notes *string
	if req.Notes != nil {
		trimmed := strings.TrimSpace(*req.Notes)
		if trimmed != "" {
			notes = utils.ToPtr(utils.TruncateRunes(trimmed, utils.OutreachNotesMaxLen))
		}
	}

	update := &models.BrokerUpdate{
		PatientID: patient.ID,
		ProjectID: patient.ProjectID,
		BrokerID:  broker.ID,
		Status:    status,
		Notes:     notes,
		CreatedAt: utils.UTCNow(),
	}

	err = repository.WithTransaction(ctx, f.db, func(ctx context.Context) error {
		if err := f.updateRepo.Save(ctx, update); err != nil {
			return err
		}
		if terminal, ok := status.PatientStatusFor(); ok {
			return f.patientRepo.UpdateOutreachStatus(ctx, patient.ID, terminal)
		}
		return nil
	})
	if err != nil {
		errMsg := err.Error()
		_ = saveAudit(ctx, f.auditRepo, &broker.ID, models.AuditActionBrokerUpdateFailed,
			fmt.Sprintf("Broker update for patient %s failed", patient.UUID), false, &errMsg, metadata)
		return nil, NewBusinessError("BROKER_UPDATE_FAILED", "Failed to record broker update", err)
	}

	brokerUpdatesTotal.WithLabelValues(status.String()).Inc()
	_ = saveAudit(ctx, f.auditRepo, &broker.ID, models.AuditActionBrokerUpdatePosted,
		fmt.Sprintf("Posted %s for patient %s", status, patient.UUID), true, nil, metadata)

	patientStatus := patient.OutreachStatus
	if terminal, ok := status.PatientStatusFor(); ok {
		patientStatus = terminal
	}

	return &dto.RecordBrokerUpdateResponse{
		Message:       "Broker update recorded",
		Update:        ToBrokerUpdateDTO(update),
		PatientStatus: patientStatus.String(),
	}, nil
}

// ListBrokerUpdates returns a patient's broker history newest-first
func (f *BrokerFlowImpl) ListBrokerUpdates(ctx context.Context, req *dto.ListBrokerUpdatesRequest, metadata *ClientMetadata) (*dto.ListBrokerUpdatesResponse, error) {
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
	rows, err := f.updateRepo.ListByPatient(ctx, patient.ID, limit, offset)
	if err != nil {
		return nil, NewBusinessError("BROKER_UPDATES_FAILED", "Failed to list broker updates", err)
	}

	updates := make([]dto.BrokerUpdateDTO, 0, len(rows))
	for _, r := range rows {
		updates = append(updates, ToBrokerUpdateDTO(r))
	}

	return &dto.ListBrokerUpdatesResponse{
		Message: "Broker updates retrieved",
		Updates: updates,
	}, nil
}
