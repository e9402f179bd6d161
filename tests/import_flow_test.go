package tests

import (
	"testing"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportPatients(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		admin, staff, _, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)
		flow := env.importFlow()

		t.Run("RowsPartitionIntoBuckets", func(t *testing.T) {
			existing, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusNotCalled)
			require.NoError(t, err)

			resp, err := flow.ImportPatients(testCtx(), &dto.ImportPatientsRequest{
				ProjectUUID: project.UUID.String(),
				Rows: []dto.ImportPatientRow{
					{FirstName: "Ana", LastName: "Lopez", PrimaryPhone: "+12065550001"},
					{FirstName: "", LastName: "Nameless", PrimaryPhone: "+12065550002"},
					{FirstName: "Bo", LastName: "Chan", PrimaryPhone: ""},
					{FirstName: "Cara", LastName: "Diaz", PrimaryPhone: "+12065550003"},
					// Same phone as the row above, different formatting.
					{FirstName: "Cara", LastName: "Duplicate", PrimaryPhone: "(206) 555-0003"},
					// Already present in the project.
					{FirstName: "Evan", LastName: "Existing", PrimaryPhone: existing.PrimaryPhone},
				},
				UserID: admin.ID,
			}, testMetadata())
			require.NoError(t, err)

			assert.Equal(t, 2, resp.Created)
			assert.Len(t, resp.Invalid, 2)
			assert.Len(t, resp.Duplicates, 2)

			// Imported patients always start at not_called.
			patients, err := env.PatientRepo.ByFilter(testCtx(), models.PatientFilter{ProjectID: &project.ID}, "id ASC", 50, 0)
			require.NoError(t, err)
			for _, p := range patients {
				if p.ID == existing.ID {
					continue
				}
				assert.Equal(t, models.OutreachStatusNotCalled, p.OutreachStatus)
				assert.Equal(t, 0, p.TotalAttempts)
			}
		})

		t.Run("CSVContentIsParsed", func(t *testing.T) {
			csv := "first_name,last_name,primary_phone,date_of_birth\n" +
				"Gina,Park,+12065550010,1955-03-20\n" +
				"Hal,Reyes,+12065550011,not-a-date\n"

			resp, err := flow.ImportPatients(testCtx(), &dto.ImportPatientsRequest{
				ProjectUUID: project.UUID.String(),
				CSVContent:  utils.ToPtr(csv),
				UserID:      admin.ID,
			}, testMetadata())
			require.NoError(t, err)

			assert.Equal(t, 1, resp.Created)
			require.Len(t, resp.Invalid, 1)
			// CSV line numbers count the header.
			assert.Equal(t, 3, resp.Invalid[0].Line)
			assert.Equal(t, "date of birth must be YYYY-MM-DD", resp.Invalid[0].Reason)
		})

		t.Run("MissingRequiredColumnFails", func(t *testing.T) {
			csv := "first_name,last_name\nIda,Singh\n"
			_, err := flow.ImportPatients(testCtx(), &dto.ImportPatientsRequest{
				ProjectUUID: project.UUID.String(),
				CSVContent:  utils.ToPtr(csv),
				UserID:      admin.ID,
			}, testMetadata())
			assert.Error(t, err)
		})

		t.Run("EmptyImportRejected", func(t *testing.T) {
			_, err := flow.ImportPatients(testCtx(), &dto.ImportPatientsRequest{
				ProjectUUID: project.UUID.String(),
				UserID:      admin.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsInvalidInput(err))
		})

		t.Run("StaffCannotImport", func(t *testing.T) {
			_, err := flow.ImportPatients(testCtx(), &dto.ImportPatientsRequest{
				ProjectUUID: project.UUID.String(),
				Rows: []dto.ImportPatientRow{
					{FirstName: "Jon", LastName: "Moss", PrimaryPhone: "+12065550020"},
				},
				UserID: staff.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsNotFound(err))
		})

		t.Run("ArchivedProjectRejectsImports", func(t *testing.T) {
			frozen, err := env.Fixtures.CreateTestProject(admin.ID, "")
			require.NoError(t, err)
			require.NoError(t, env.ProjectRepo.UpdateStatus(testCtx(), frozen.ID, models.ProjectStatusArchived))

			_, err = flow.ImportPatients(testCtx(), &dto.ImportPatientsRequest{
				ProjectUUID: frozen.UUID.String(),
				Rows: []dto.ImportPatientRow{
					{FirstName: "Kay", LastName: "Ito", PrimaryPhone: "+12065550021"},
				},
				UserID: admin.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsProjectArchived(err))
		})
	})
}
