package tests

import (
	"testing"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilitiesForRole(t *testing.T) {
	t.Run("Admin", func(t *testing.T) {
		caps := businessflow.CapabilitiesFor(models.RoleAdmin)
		assert.True(t, caps.CanLogCalls())
		assert.True(t, caps.CanForward())
		assert.True(t, caps.CanImportPatients())
		assert.True(t, caps.CanManageProjects())
		assert.True(t, caps.CanReopenPatients())
		assert.True(t, caps.CanExportReports())
		assert.False(t, caps.CanPostBrokerUpdates())
		assert.True(t, caps.CanSeePatient(models.OutreachStatusNotCalled, false))
	})

	t.Run("Staff", func(t *testing.T) {
		caps := businessflow.CapabilitiesFor(models.RoleStaff)
		assert.True(t, caps.CanLogCalls())
		assert.True(t, caps.CanForward())
		assert.True(t, caps.CanReopenPatients())
		assert.False(t, caps.CanImportPatients())
		assert.False(t, caps.CanManageProjects())
		assert.False(t, caps.CanExportReports())
		assert.False(t, caps.CanPostBrokerUpdates())
		assert.True(t, caps.CanSeePatient(models.OutreachStatusNotCalled, true))
		assert.False(t, caps.CanSeePatient(models.OutreachStatusNotCalled, false))
	})

	t.Run("BrokerNeedsBothFilters", func(t *testing.T) {
		caps := businessflow.CapabilitiesFor(models.RoleBroker)
		assert.True(t, caps.CanPostBrokerUpdates())
		assert.False(t, caps.CanLogCalls())
		assert.False(t, caps.CanForward())

		// Assigned but not forwarded: invisible.
		assert.False(t, caps.CanSeePatient(models.OutreachStatusWillSwitch, true))
		// Forwarded but not assigned: invisible.
		assert.False(t, caps.CanSeePatient(models.OutreachStatusForwardedToBroker, false))
		// Both filters hold: visible, including resolved patients.
		assert.True(t, caps.CanSeePatient(models.OutreachStatusForwardedToBroker, true))
		assert.True(t, caps.CanSeePatient(models.OutreachStatusCompleted, true))
		assert.True(t, caps.CanSeePatient(models.OutreachStatusUnableToComplete, true))
	})

	t.Run("UnknownRoleSeesNothing", func(t *testing.T) {
		caps := businessflow.CapabilitiesFor(models.UserRole("intern"))
		assert.False(t, caps.CanLogCalls())
		assert.False(t, caps.CanSeePatient(models.OutreachStatusForwardedToBroker, true))
	})
}

func TestVisiblePatients(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		admin, staff, broker, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)

		// Mixed statuses: two forwarded-side, two active-outreach.
		_, err = env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusNotCalled)
		require.NoError(t, err)
		_, err = env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusWillSwitch)
		require.NoError(t, err)
		_, err = env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusForwardedToBroker)
		require.NoError(t, err)
		_, err = env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusCompleted)
		require.NoError(t, err)

		t.Run("AdminSeesEverything", func(t *testing.T) {
			_, total, err := env.Access.VisiblePatients(testCtx(), admin.ID, project.UUID.String(), nil, 50, 0)
			require.NoError(t, err)
			assert.Equal(t, int64(4), total)
		})

		t.Run("AssignedStaffSeesEverything", func(t *testing.T) {
			_, total, err := env.Access.VisiblePatients(testCtx(), staff.ID, project.UUID.String(), nil, 50, 0)
			require.NoError(t, err)
			assert.Equal(t, int64(4), total)
		})

		t.Run("BrokerSeesOnlyForwardedStatuses", func(t *testing.T) {
			patients, total, err := env.Access.VisiblePatients(testCtx(), broker.ID, project.UUID.String(), nil, 50, 0)
			require.NoError(t, err)
			assert.Equal(t, int64(2), total)
			for _, p := range patients {
				assert.True(t, p.OutreachStatus.IsTerminal(), "broker saw %s patient", p.OutreachStatus)
			}
		})

		t.Run("BrokerStatusFilterIntersectsWithForwardedSet", func(t *testing.T) {
			// Asking for will_switch gets silently emptied, not leaked.
			patients, total, err := env.Access.VisiblePatients(testCtx(), broker.ID, project.UUID.String(),
				[]models.OutreachStatus{models.OutreachStatusWillSwitch}, 50, 0)
			require.NoError(t, err)
			assert.Empty(t, patients)
			assert.Equal(t, int64(0), total)

			_, total, err = env.Access.VisiblePatients(testCtx(), broker.ID, project.UUID.String(),
				[]models.OutreachStatus{models.OutreachStatusWillSwitch, models.OutreachStatusCompleted}, 50, 0)
			require.NoError(t, err)
			assert.Equal(t, int64(1), total)
		})

		t.Run("UnassignedUserGetsNotFound", func(t *testing.T) {
			outsider, err := env.Fixtures.CreateTestProfile(models.RoleStaff)
			require.NoError(t, err)

			_, _, err = env.Access.VisiblePatients(testCtx(), outsider.ID, project.UUID.String(), nil, 50, 0)
			assert.True(t, businessflow.IsNotFound(err))
		})
	})
}

func TestVisibleProjects(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		admin, staff, _, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)

		// An archived project should not show up for the admin list.
		archived, err := env.Fixtures.CreateTestProject(admin.ID, "")
		require.NoError(t, err)
		require.NoError(t, env.ProjectRepo.UpdateStatus(testCtx(), archived.ID, models.ProjectStatusArchived))

		t.Run("AdminSeesActiveAndPlanning", func(t *testing.T) {
			projects, err := env.Access.VisibleProjects(testCtx(), admin.ID)
			require.NoError(t, err)
			for _, p := range projects {
				assert.NotEqual(t, models.ProjectStatusArchived, p.Status)
			}
		})

		t.Run("StaffSeesOnlyAssignedProjects", func(t *testing.T) {
			projects, err := env.Access.VisibleProjects(testCtx(), staff.ID)
			require.NoError(t, err)
			require.Len(t, projects, 1)
			assert.Equal(t, project.ID, projects[0].ID)
		})
	})
}

func TestGetPatientScoping(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		_, staff, broker, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)
		flow := businessflow.NewPatientFlow(env.PatientRepo, env.ProfileRepo, env.Access)

		active, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusWillSwitch)
		require.NoError(t, err)
		forwarded, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusForwardedToBroker)
		require.NoError(t, err)

		t.Run("StaffReadsActivePatient", func(t *testing.T) {
			resp, err := flow.GetPatient(testCtx(), &dto.GetPatientRequest{
				PatientUUID: active.UUID.String(),
				UserID:      staff.ID,
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, active.UUID.String(), resp.Patient.UUID)
			assert.Equal(t, "Will Switch", resp.Patient.StatusDisplay)
		})

		t.Run("BrokerCannotReadUnforwardedPatient", func(t *testing.T) {
			_, err := flow.GetPatient(testCtx(), &dto.GetPatientRequest{
				PatientUUID: active.UUID.String(),
				UserID:      broker.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsNotFound(err))
		})

		t.Run("BrokerReadsForwardedPatient", func(t *testing.T) {
			resp, err := flow.GetPatient(testCtx(), &dto.GetPatientRequest{
				PatientUUID: forwarded.UUID.String(),
				UserID:      broker.ID,
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, forwarded.UUID.String(), resp.Patient.UUID)
		})
	})
}
