package businessflow

import (
	"context"

	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/repository"
)

// Capabilities is the closed set of operations a role may invoke. Handlers and
// flows dispatch through this instead of branching on role strings.
type Capabilities interface {
	Role() models.UserRole
	CanLogCalls() bool
	CanForward() bool
	CanPostBrokerUpdates() bool
	CanImportPatients() bool
	CanManageProjects() bool
	CanReopenPatients() bool
	CanExportReports() bool
	// CanSeePatient decides patient-level visibility given the patient's
	// status and whether the user holds an active assignment to the
	// patient's project.
	CanSeePatient(status models.OutreachStatus, assigned bool) bool
}

type adminCapabilities struct{}

func (adminCapabilities) Role() models.UserRole      { return models.RoleAdmin }
func (adminCapabilities) CanLogCalls() bool          { return true }
func (adminCapabilities) CanForward() bool           { return true }
func (adminCapabilities) CanPostBrokerUpdates() bool { return false }
func (adminCapabilities) CanImportPatients() bool    { return true }
func (adminCapabilities) CanManageProjects() bool    { return true }
func (adminCapabilities) CanReopenPatients() bool    { return true }
func (adminCapabilities) CanExportReports() bool     { return true }
func (adminCapabilities) CanSeePatient(models.OutreachStatus, bool) bool {
	return true
}

type staffCapabilities struct{}

func (staffCapabilities) Role() models.UserRole      { return models.RoleStaff }
func (staffCapabilities) CanLogCalls() bool          { return true }
func (staffCapabilities) CanForward() bool           { return true }
func (staffCapabilities) CanPostBrokerUpdates() bool { return false }
func (staffCapabilities) CanImportPatients() bool    { return false }
func (staffCapabilities) CanManageProjects() bool    { return false }
func (staffCapabilities) CanReopenPatients() bool    { return true }
func (staffCapabilities) CanExportReports() bool     { return false }
func (staffCapabilities) CanSeePatient(_ models.OutreachStatus, assigned bool) bool {
	return assigned
}

type brokerCapabilities struct{}

func (brokerCapabilities) Role() models.UserRole      { return models.RoleBroker }
func (brokerCapabilities) CanLogCalls() bool          { return false }
func (brokerCapabilities) CanForward() bool           { return false }
func (brokerCapabilities) CanPostBrokerUpdates() bool { return true }
func (brokerCapabilities) CanImportPatients() bool    { return false }
func (brokerCapabilities) CanManageProjects() bool    { return false }
func (brokerCapabilities) CanReopenPatients() bool    { return false }
func (brokerCapabilities) CanExportReports() bool     { return false }

// Brokers see a patient only when both filters hold: an active assignment to
// the patient's project AND a status showing the patient was handed to a
// broker. Either filter alone would leak records.
func (brokerCapabilities) CanSeePatient(status models.OutreachStatus, assigned bool) bool {
	if !assigned {
		return false
	}
	switch status {
	case models.OutreachStatusForwardedToBroker, models.OutreachStatusCompleted, models.OutreachStatusUnableToComplete:
		return true
	default:
		return false
	}
}

// CapabilitiesFor returns the capability set for a role. Unknown roles get an
// empty broker-shaped set that can see nothing.
func CapabilitiesFor(role models.UserRole) Capabilities {
	switch role {
	case models.RoleAdmin:
		return adminCapabilities{}
	case models.RoleStaff:
		return staffCapabilities{}
	case models.RoleBroker:
		return brokerCapabilities{}
	default:
		return noCapabilities{}
	}
}

type noCapabilities struct{}

func (noCapabilities) Role() models.UserRole                          { return "" }
func (noCapabilities) CanLogCalls() bool                              { return false }
func (noCapabilities) CanForward() bool                               { return false }
func (noCapabilities) CanPostBrokerUpdates() bool                     { return false }
func (noCapabilities) CanImportPatients() bool                        { return false }
func (noCapabilities) CanManageProjects() bool                        { return false }
func (noCapabilities) CanReopenPatients() bool                        { return false }
func (noCapabilities) CanExportReports() bool                         { return false }
func (noCapabilities) CanSeePatient(models.OutreachStatus, bool) bool { return false }

// AccessFlow scopes reads and writes to what the caller's role permits
type AccessFlow interface {
	VisibleProjects(ctx context.Context, userID uint) ([]*models.Project, error)
	VisiblePatients(ctx context.Context, userID uint, projectUUID string, statuses []models.OutreachStatus, limit, offset int) ([]*models.Patient, int64, error)
	// RequirePatientAccess fails with NotFound when the caller may not see
	// the patient. Out-of-scope and nonexistent records are deliberately
	// indistinguishable.
	RequirePatientAccess(ctx context.Context, user *models.Profile, patient *models.Patient) error
	// RequireBrokerWrite authorizes a broker update on the write path itself,
	// independent of query-time filtering.
	RequireBrokerWrite(ctx context.Context, broker *models.Profile, patient *models.Patient) error
}

// AccessFlowImpl implements AccessFlow
type AccessFlowImpl struct {
	projectRepo    repository.ProjectRepository
	assignmentRepo repository.ProjectAssignmentRepository
	patientRepo    repository.PatientRepository
	profileRepo    repository.ProfileRepository
}

func NewAccessFlow(
	projectRepo repository.ProjectRepository,
	assignmentRepo repository.ProjectAssignmentRepository,
	patientRepo repository.PatientRepository,
	profileRepo repository.ProfileRepository,
) AccessFlow {
	return &AccessFlowImpl{
		projectRepo:    projectRepo,
		assignmentRepo: assignmentRepo,
		patientRepo:    patientRepo,
		profileRepo:    profileRepo,
	}
}

// VisibleProjects returns the projects the user may enumerate. Admins see
// active and planning projects; staff and brokers see only projects with an
// active assignment row for them.
func (f *AccessFlowImpl) VisibleProjects(ctx context.Context, userID uint) ([]*models.Project, error) {
	user, err := getProfile(ctx, f.profileRepo, userID)
	if err != nil {
		return nil, err
	}

	if user.Role == models.RoleAdmin {
		return f.projectRepo.ListByStatuses(ctx, []models.ProjectStatus{
			models.ProjectStatusActive,
			models.ProjectStatusPlanning,
		})
	}

	return f.projectRepo.ListAssignedToUser(ctx, user.ID, user.Role)
}

// VisiblePatients returns the project's patients the user may see, with the
// broker double filter applied at the query layer.
func (f *AccessFlowImpl) VisiblePatients(ctx context.Context, userID uint, projectUUID string, statuses []models.OutreachStatus, limit, offset int) ([]*models.Patient, int64, error) {
	user, err := getProfile(ctx, f.profileRepo, userID)
	if err != nil {
		return nil, 0, err
	}

	project, err := getProjectByUUID(ctx, f.projectRepo, projectUUID)
	if err != nil {
		return nil, 0, err
	}

	caps := CapabilitiesFor(user.Role)
	if user.Role != models.RoleAdmin {
		assigned, err := f.assignmentRepo.HasActiveAssignment(ctx, project.ID, user.ID)
		if err != nil {
			return nil, 0, NewBusinessError("ASSIGNMENT_LOOKUP_FAILED", "Failed to check project assignment", err)
		}
		if !assigned {
			return nil, 0, ErrProjectNotFound
		}
	}

	filter := models.PatientFilter{ProjectID: &project.ID}
	if user.Role == models.RoleBroker {
		// Restrict to forwarded statuses, intersected with any requested
		// status filter.
		forwarded := []models.OutreachStatus{
			models.OutreachStatusForwardedToBroker,
			models.OutreachStatusCompleted,
			models.OutreachStatusUnableToComplete,
		}
		if len(statuses) == 0 {
			filter.OutreachStatuses = forwarded
		} else {
			for _, s := range statuses {
				if caps.CanSeePatient(s, true) {
					filter.OutreachStatuses = append(filter.OutreachStatuses, s)
				}
			}
			if len(filter.OutreachStatuses) == 0 {
				return []*models.Patient{}, 0, nil
			}
		}
	} else if len(statuses) > 0 {
		filter.OutreachStatuses = statuses
	}

	patients, err := f.patientRepo.ByFilter(ctx, filter, "last_name ASC, first_name ASC, id ASC", limit, offset)
	if err != nil {
		return nil, 0, NewBusinessError("PATIENT_LIST_FAILED", "Failed to list patients", err)
	}
	total, err := f.patientRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, NewBusinessError("PATIENT_COUNT_FAILED", "Failed to count patients", err)
	}

	return patients, total, nil
}

// RequirePatientAccess enforces patient-level visibility for one record
func (f *AccessFlowImpl) RequirePatientAccess(ctx context.Context, user *models.Profile, patient *models.Patient) error {
	if user.Role == models.RoleAdmin {
		return nil
	}

	assigned, err := f.assignmentRepo.HasActiveAssignment(ctx, patient.ProjectID, user.ID)
	if err != nil {
		return NewBusinessError("ASSIGNMENT_LOOKUP_FAILED", "Failed to check project assignment", err)
	}

	if !CapabilitiesFor(user.Role).CanSeePatient(patient.OutreachStatus, assigned) {
		return ErrPatientNotFound
	}
	return nil
}

// RequireBrokerWrite authorizes posting to a patient's broker-update stream
func (f *AccessFlowImpl) RequireBrokerWrite(ctx context.Context, broker *models.Profile, patient *models.Patient) error {
	if !CapabilitiesFor(broker.Role).CanPostBrokerUpdates() {
		return ErrPatientNotFound
	}

	assigned, err := f.assignmentRepo.HasActiveAssignment(ctx, patient.ProjectID, broker.ID)
	if err != nil {
		return NewBusinessError("ASSIGNMENT_LOOKUP_FAILED", "Failed to check project assignment", err)
	}
	if !assigned {
		return ErrPatientNotFound
	}

	// The patient must actually be in the broker's hands.
	switch patient.OutreachStatus {
	case models.OutreachStatusForwardedToBroker, models.OutreachStatusCompleted, models.OutreachStatusUnableToComplete:
		return nil
	default:
		return ErrNotForwardedToYou
	}
}
