package tests

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/utils"
)

func TestPatientRepository(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		admin, err := env.Fixtures.CreateTestProfile(models.RoleAdmin)
		require.NoError(t, err)
		project, err := env.Fixtures.CreateTestProject(admin.ID, "")
		require.NoError(t, err)
		patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusNotCalled)
		require.NoError(t, err)

		ctx := testCtx()

		t.Run("ByUUIDRoundTrip", func(t *testing.T) {
			found, err := env.PatientRepo.ByUUID(ctx, patient.UUID.String())
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, patient.ID, found.ID)
			assert.Equal(t, project.ID, found.ProjectID)
		})

		t.Run("ByUUIDUnknownReturnsNil", func(t *testing.T) {
			found, err := env.PatientRepo.ByUUID(ctx, "00000000-0000-0000-0000-000000000000")
			require.NoError(t, err)
			assert.Nil(t, found)
		})

		t.Run("ExistsByPhoneIgnoresFormatting", func(t *testing.T) {
			normalized := utils.NormalizePhone(patient.PrimaryPhone)
			require.NotEmpty(t, normalized)

			exists, err := env.PatientRepo.ExistsByPhoneInProject(ctx, project.ID, normalized)
			require.NoError(t, err)
			assert.True(t, exists)

			exists, err = env.PatientRepo.ExistsByPhoneInProject(ctx, project.ID, "19998887777")
			require.NoError(t, err)
			assert.False(t, exists)
		})

		t.Run("ExistsByPhoneIsScopedToProject", func(t *testing.T) {
			other, err := env.Fixtures.CreateTestProject(admin.ID, "")
			require.NoError(t, err)

			exists, err := env.PatientRepo.ExistsByPhoneInProject(ctx, other.ID, utils.NormalizePhone(patient.PrimaryPhone))
			require.NoError(t, err)
			assert.False(t, exists)
		})

		t.Run("RecordContactBumpsCountersAtomically", func(t *testing.T) {
			staff, err := env.Fixtures.CreateTestProfile(models.RoleStaff)
			require.NoError(t, err)

			first := utils.UTCNow().Add(-time.Hour)
			second := utils.UTCNow()
			require.NoError(t, env.PatientRepo.RecordContact(ctx, patient.ID, staff.ID, first))
			require.NoError(t, env.PatientRepo.RecordContact(ctx, patient.ID, staff.ID, second))

			reloaded, err := env.PatientRepo.ByID(ctx, patient.ID)
			require.NoError(t, err)
			assert.Equal(t, 2, reloaded.TotalAttempts)
			require.NotNil(t, reloaded.LastContactedAt)
			assert.WithinDuration(t, second, *reloaded.LastContactedAt, time.Second)
			require.NotNil(t, reloaded.LastContactedBy)
			assert.Equal(t, staff.ID, *reloaded.LastContactedBy)
		})

		t.Run("ConcurrentRecordContactLosesNoIncrements", func(t *testing.T) {
			staff, err := env.Fixtures.CreateTestProfile(models.RoleStaff)
			require.NoError(t, err)
			target, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusNotCalled)
			require.NoError(t, err)

			const callers = 10
			at := utils.UTCNow()
			errs := make(chan error, callers)
			var wg sync.WaitGroup
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					errs <- env.PatientRepo.RecordContact(ctx, target.ID, staff.ID, at)
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				require.NoError(t, err)
			}

			reloaded, err := env.PatientRepo.ByID(ctx, target.ID)
			require.NoError(t, err)
			assert.Equal(t, callers, reloaded.TotalAttempts)
		})

		t.Run("MarkForwardedStampsHandoffFields", func(t *testing.T) {
			staff, err := env.Fixtures.CreateTestProfile(models.RoleStaff)
			require.NoError(t, err)
			target, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusWillSwitch)
			require.NoError(t, err)

			at := utils.UTCNow()
			require.NoError(t, env.PatientRepo.MarkForwarded(ctx, target.ID, staff.ID, at))

			reloaded, err := env.PatientRepo.ByID(ctx, target.ID)
			require.NoError(t, err)
			assert.Equal(t, models.OutreachStatusForwardedToBroker, reloaded.OutreachStatus)
			require.NotNil(t, reloaded.ForwardedAt)
			assert.WithinDuration(t, at, *reloaded.ForwardedAt, time.Second)
			require.NotNil(t, reloaded.ForwardedBy)
			assert.Equal(t, staff.ID, *reloaded.ForwardedBy)
		})

		t.Run("FilterByStatusSet", func(t *testing.T) {
			rows, err := env.PatientRepo.ByFilter(ctx, models.PatientFilter{
				ProjectID:        &project.ID,
				OutreachStatuses: []models.OutreachStatus{models.OutreachStatusForwardedToBroker},
			}, "created_at DESC", 50, 0)
			require.NoError(t, err)
			for _, row := range rows {
				assert.Equal(t, models.OutreachStatusForwardedToBroker, row.OutreachStatus)
			}
		})
	})
}

func TestMessageRepository(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		_, staff, broker, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)
		patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusForwardedToBroker)
		require.NoError(t, err)

		ctx := testCtx()

		fromStaff, err := env.Fixtures.CreateTestMessage(patient, staff.ID, "Chart is attached to the fax.")
		require.NoError(t, err)
		fromBroker, err := env.Fixtures.CreateTestMessage(patient, broker.ID, "Received, reviewing now.")
		require.NoError(t, err)

		t.Run("CountUnreadExcludesOwnMessages", func(t *testing.T) {
			unreadForStaff, err := env.MessageRepo.CountUnread(ctx, patient.ID, staff.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), unreadForStaff)

			unreadForBroker, err := env.MessageRepo.CountUnread(ctx, patient.ID, broker.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(1), unreadForBroker)
		})

		t.Run("MarkReadClearsTheCounter", func(t *testing.T) {
			require.NoError(t, env.MessageRepo.MarkRead(ctx, fromBroker.ID))

			unreadForStaff, err := env.MessageRepo.CountUnread(ctx, patient.ID, staff.ID)
			require.NoError(t, err)
			assert.Equal(t, int64(0), unreadForStaff)
		})

		t.Run("ListByPatientIsNewestFirst", func(t *testing.T) {
			rows, err := env.MessageRepo.ListByPatient(ctx, patient.ID, 50, 0)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			assert.Equal(t, fromBroker.ID, rows[0].ID)
			assert.Equal(t, fromStaff.ID, rows[1].ID)
		})
	})
}

func TestProjectRepository(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		admin, staff, _, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)

		ctx := testCtx()

		archived, err := env.Fixtures.CreateTestProject(admin.ID, "")
		require.NoError(t, err)
		require.NoError(t, env.ProjectRepo.UpdateStatus(ctx, archived.ID, models.ProjectStatusArchived))

		t.Run("ListByStatusesFiltersArchived", func(t *testing.T) {
			rows, err := env.ProjectRepo.ListByStatuses(ctx, []models.ProjectStatus{
				models.ProjectStatusPlanning, models.ProjectStatusActive, models.ProjectStatusPaused,
			})
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, project.ID, rows[0].ID)
		})

		t.Run("ListAssignedToUserHonorsAssignments", func(t *testing.T) {
			rows, err := env.ProjectRepo.ListAssignedToUser(ctx, staff.ID, models.RoleStaff)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, project.ID, rows[0].ID)

			outsider, err := env.Fixtures.CreateTestProfile(models.RoleStaff)
			require.NoError(t, err)
			rows, err = env.ProjectRepo.ListAssignedToUser(ctx, outsider.ID, models.RoleStaff)
			require.NoError(t, err)
			assert.Empty(t, rows)
		})

		t.Run("UpdateStatusPersists", func(t *testing.T) {
			require.NoError(t, env.ProjectRepo.UpdateStatus(ctx, project.ID, models.ProjectStatusPaused))
			reloaded, err := env.ProjectRepo.ByID(ctx, project.ID)
			require.NoError(t, err)
			assert.Equal(t, models.ProjectStatusPaused, reloaded.Status)
		})
	})
}

func TestProjectAssignmentRepository(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		_, staff, _, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)

		ctx := testCtx()

		t.Run("HasActiveAssignment", func(t *testing.T) {
			ok, err := env.AssignmentRepo.HasActiveAssignment(ctx, project.ID, staff.ID)
			require.NoError(t, err)
			assert.True(t, ok)

			outsider, err := env.Fixtures.CreateTestProfile(models.RoleStaff)
			require.NoError(t, err)
			ok, err = env.AssignmentRepo.HasActiveAssignment(ctx, project.ID, outsider.ID)
			require.NoError(t, err)
			assert.False(t, ok)
		})

		t.Run("DeactivateRevokesAccess", func(t *testing.T) {
			rows, err := env.AssignmentRepo.ByFilter(ctx, models.ProjectAssignmentFilter{
				ProjectID: &project.ID,
				UserID:    &staff.ID,
			}, "id ASC", 10, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)

			require.NoError(t, env.AssignmentRepo.Deactivate(ctx, rows[0].ID))

			ok, err := env.AssignmentRepo.HasActiveAssignment(ctx, project.ID, staff.ID)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	})
}

func TestAuditLogRepository(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		admin, err := env.Fixtures.CreateTestProfile(models.RoleAdmin)
		require.NoError(t, err)

		ctx := testCtx()

		_, err = env.Fixtures.CreateTestAuditLog(&admin.ID, models.AuditActionLoginSuccess, true)
		require.NoError(t, err)
		_, err = env.Fixtures.CreateTestAuditLog(&admin.ID, models.AuditActionLoginFailed, false)
		require.NoError(t, err)
		_, err = env.Fixtures.CreateTestAuditLog(nil, models.AuditActionLoginFailed, false)
		require.NoError(t, err)

		t.Run("ListByAction", func(t *testing.T) {
			rows, err := env.AuditRepo.ListByAction(ctx, models.AuditActionLoginFailed, 10, 0)
			require.NoError(t, err)
			assert.Len(t, rows, 2)
		})

		t.Run("ListByUserSkipsAnonymousRows", func(t *testing.T) {
			rows, err := env.AuditRepo.ListByUser(ctx, admin.ID, 10, 0)
			require.NoError(t, err)
			assert.Len(t, rows, 2)
		})

		t.Run("ListFailedActions", func(t *testing.T) {
			rows, err := env.AuditRepo.ListFailedActions(ctx, 10, 0)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			for _, row := range rows {
				assert.True(t, row.IsFailed())
			}
		})
	})
}
