package businessflow

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/repository"
	"github.com/clearwater-medical/outreach-portal/utils"
	"gorm.io/gorm"
)

// ImportFlow bulk-loads patients into a project from CSV
type ImportFlow interface {
	ImportPatients(ctx context.Context, req *dto.ImportPatientsRequest, metadata *ClientMetadata) (*dto.ImportPatientsResponse, error)
}

// ImportFlowImpl implements ImportFlow
type ImportFlowImpl struct {
	db          *gorm.DB
	patientRepo repository.PatientRepository
	projectRepo repository.ProjectRepository
	profileRepo repository.ProfileRepository
	auditRepo   repository.AuditLogRepository
}

func NewImportFlow(
	db *gorm.DB,
	patientRepo repository.PatientRepository,
	projectRepo repository.ProjectRepository,
	profileRepo repository.ProfileRepository,
	auditRepo repository.AuditLogRepository,
) ImportFlow {
	return &ImportFlowImpl{
		db:          db,
		patientRepo: patientRepo,
		projectRepo: projectRepo,
		profileRepo: profileRepo,
		auditRepo:   auditRepo,
	}
}

// ImportPatients partitions submitted rows into created, invalid, and
// duplicate buckets. A duplicate is a normalized primary phone already present
// in the target project or earlier in the same batch; duplicates are reported
// and not inserted. Created patients always start at not_called.
func (f *ImportFlowImpl) ImportPatients(ctx context.Context, req *dto.ImportPatientsRequest, metadata *ClientMetadata) (*dto.ImportPatientsResponse, error) {
	user, err := getProfile(ctx, f.profileRepo, req.UserID)
	if err != nil {
		return nil, err
	}
	if !CapabilitiesFor(user.Role).CanImportPatients() {
		return nil, ErrProjectNotFound
	}

	project, err := getProjectByUUID(ctx, f.projectRepo, req.ProjectUUID)
	if err != nil {
		return nil, err
	}
	if project.IsArchived() {
		return nil, ErrProjectArchived
	}

	rows := req.Rows
	firstLine := 1
	if req.CSVContent != nil {
		parsed, parseErrs, err := parseCSV(*req.CSVContent)
		if err != nil {
			return nil, NewBusinessError("CSV_PARSE_FAILED", "Failed to parse CSV content", err)
		}
		rows = parsed
		firstLine = 2 // line 1 is the header
		if len(parseErrs) > 0 && len(parsed) == 0 {
			return &dto.ImportPatientsResponse{
				Message: "Import finished",
				Invalid: parseErrs,
			}, nil
		}
	}
	if len(rows) == 0 {
		return nil, ErrEmptyImport
	}

	var (
		invalid    []dto.ImportRowError
		duplicates []dto.ImportRowError
		toCreate   []*models.Patient
	)
	seenPhones := make(map[string]struct{})

	for i, row := range rows {
		line := firstLine + i

		firstName := strings.TrimSpace(row.FirstName)
		lastName := strings.TrimSpace(row.LastName)
		phone := utils.NormalizePhone(row.PrimaryPhone)

		switch {
		case firstName == "" || lastName == "":
			invalid = append(invalid, dto.ImportRowError{Line: line, Reason: "missing name"})
			continue
		case phone == "":
			invalid = append(invalid, dto.ImportRowError{Line: line, Reason: "missing primary phone"})
			continue
		}

		if _, seen := seenPhones[phone]; seen {
			duplicates = append(duplicates, dto.ImportRowError{Line: line, Reason: "duplicate phone in batch"})
			continue
		}
		exists, err := f.patientRepo.ExistsByPhoneInProject(ctx, project.ID, phone)
		if err != nil {
			return nil, NewBusinessError("DUPLICATE_CHECK_FAILED", "Failed to check for duplicate phone", err)
		}
		if exists {
			duplicates = append(duplicates, dto.ImportRowError{Line: line, Reason: "duplicate phone in project"})
			continue
		}
		seenPhones[phone] = struct{}{}

		patient := &models.Patient{
			ProjectID:        project.ID,
			FirstName:        firstName,
			LastName:         lastName,
			PrimaryPhone:     strings.TrimSpace(row.PrimaryPhone),
			SecondaryPhone:   trimPtr(row.SecondaryPhone),
			Address:          trimPtr(row.Address),
			CurrentInsurance: trimPtr(row.CurrentInsurance),
			TargetInsurance:  trimPtr(row.TargetInsurance),
			MemberID:         trimPtr(row.MemberID),
			OutreachStatus:   models.OutreachStatusNotCalled,
			IsDuplicate:      utils.ToPtr(false),
		}
		if row.DateOfBirth != nil {
			if dob, err := time.Parse("2006-01-02", strings.TrimSpace(*row.DateOfBirth)); err == nil {
				patient.DateOfBirth = &dob
			} else {
				invalid = append(invalid, dto.ImportRowError{Line: line, Reason: "date of birth must be YYYY-MM-DD"})
				delete(seenPhones, phone)
				continue
			}
		}

		toCreate = append(toCreate, patient)
	}

	if len(toCreate) > 0 {
		err = repository.WithTransaction(ctx, f.db, func(ctx context.Context) error {
			return f.patientRepo.SaveBatch(ctx, toCreate)
		})
		if err != nil {
			errMsg := err.Error()
			_ = saveAudit(ctx, f.auditRepo, &user.ID, models.AuditActionPatientImportFailed,
				fmt.Sprintf("Import into project %s failed", project.UUID), false, &errMsg, metadata)
			return nil, NewBusinessError("IMPORT_FAILED", "Failed to import patients", err)
		}
	}

	_ = saveAudit(ctx, f.auditRepo, &user.ID, models.AuditActionPatientsImported,
		fmt.Sprintf("Imported %d patients into project %s (%d invalid, %d duplicates)",
			len(toCreate), project.UUID, len(invalid), len(duplicates)), true, nil, metadata)

	return &dto.ImportPatientsResponse{
		Message:    "Import finished",
		Created:    len(toCreate),
		Invalid:    invalid,
		Duplicates: duplicates,
	}, nil
}

// parseCSV reads header-led CSV content into import rows. Rows with the wrong
// column count become invalid-bucket entries rather than aborting the import.
func parseCSV(content string) ([]dto.ImportPatientRow, []dto.ImportRowError, error) {
	reader := csv.NewReader(strings.NewReader(content))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, err
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"first_name", "last_name", "primary_phone"} {
		if _, ok := col[required]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", required)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}
	optField := func(record []string, name string) *string {
		v := field(record, name)
		if v == "" {
			return nil
		}
		return &v
	}

	var rows []dto.ImportPatientRow
	var parseErrs []dto.ImportRowError
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrs = append(parseErrs, dto.ImportRowError{Line: line, Reason: "malformed CSV row"})
			continue
		}
		rows = append(rows, dto.ImportPatientRow{
			FirstName:        field(record, "first_name"),
			LastName:         field(record, "last_name"),
			DateOfBirth:      optField(record, "date_of_birth"),
			PrimaryPhone:     field(record, "primary_phone"),
			SecondaryPhone:   optField(record, "secondary_phone"),
			Address:          optField(record, "address"),
			CurrentInsurance: optField(record, "current_insurance"),
			TargetInsurance:  optField(record, "target_insurance"),
			MemberID:         optField(record, "member_id"),
		})
	}

	return rows, parseErrs, nil
}

func trimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
