package businessflow

import (
	"context"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/repository"
)

// PatientFlow exposes the patient queue reads
type PatientFlow interface {
	GetPatient(ctx context.Context, req *dto.GetPatientRequest, metadata *ClientMetadata) (*dto.GetPatientResponse, error)
	ListPatients(ctx context.Context, req *dto.ListPatientsRequest, metadata *ClientMetadata) (*dto.ListPatientsResponse, error)
}

// PatientFlowImpl implements PatientFlow
type PatientFlowImpl struct {
	patientRepo repository.PatientRepository
	profileRepo repository.ProfileRepository
	access      AccessFlow
}

func NewPatientFlow(
	patientRepo repository.PatientRepository,
	profileRepo repository.ProfileRepository,
	access AccessFlow,
) PatientFlow {
	return &PatientFlowImpl{
		patientRepo: patientRepo,
		profileRepo: profileRepo,
		access:      access,
	}
}

// GetPatient returns one patient record scoped to the caller
func (f *PatientFlowImpl) GetPatient(ctx context.Context, req *dto.GetPatientRequest, metadata *ClientMetadata) (*dto.GetPatientResponse, error) {
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

	return &dto.GetPatientResponse{
		Message: "Patient retrieved",
		Patient: ToPatientDTO(patient),
	}, nil
}

// ListPatients returns a page of the project's patient queue
func (f *PatientFlowImpl) ListPatients(ctx context.Context, req *dto.ListPatientsRequest, metadata *ClientMetadata) (*dto.ListPatientsResponse, error) {
	statuses := make([]models.OutreachStatus, 0, len(req.Statuses))
	for _, s := range req.Statuses {
		status := models.OutreachStatus(s)
		if !status.Valid() {
			return nil, NewBusinessError("INVALID_STATUS", "Unknown outreach status", nil)
		}
		statuses = append(statuses, status)
	}

	limit, offset := normalizePage(req.Page, req.PageSize)
	patients, total, err := f.access.VisiblePatients(ctx, req.UserID, req.ProjectUUID, statuses, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]dto.PatientDTO, 0, len(patients))
	for _, p := range patients {
		out = append(out, ToPatientDTO(p))
	}

	return &dto.ListPatientsResponse{
		Message:  "Patients retrieved",
		Patients: out,
		Total:    total,
	}, nil
}
