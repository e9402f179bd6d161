package tests

import (
	"testing"
	"time"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectSummary(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		admin, staff, broker, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)
		flow := env.reportingFlow(time.UTC)

		for _, s := range []models.OutreachStatus{
			models.OutreachStatusNotCalled,
			models.OutreachStatusNotCalled,
			models.OutreachStatusWillSwitch,
			models.OutreachStatusForwardedToBroker,
			models.OutreachStatusCompleted,
		} {
			_, err := env.Fixtures.CreateTestPatient(project.ID, s)
			require.NoError(t, err)
		}

		t.Run("BucketsPartitionThePatients", func(t *testing.T) {
			resp, err := flow.ProjectSummary(testCtx(), &dto.ProjectSummaryRequest{
				ProjectUUID: project.UUID.String(),
				UserID:      admin.ID,
			}, testMetadata())
			require.NoError(t, err)

			assert.Equal(t, int64(5), resp.TotalPatients)
			assert.False(t, resp.FromCache)

			// Every status appears, zero-count buckets included, and the
			// counts sum to the total.
			require.Len(t, resp.Buckets, len(models.AllOutreachStatuses()))
			var sum int64
			byStatus := make(map[string]int64, len(resp.Buckets))
			for _, b := range resp.Buckets {
				sum += b.Count
				byStatus[b.Status] = b.Count
			}
			assert.Equal(t, resp.TotalPatients, sum)
			assert.Equal(t, int64(2), byStatus["not_called"])
			assert.Equal(t, int64(1), byStatus["will_switch"])
			assert.Equal(t, int64(0), byStatus["no_answer"])
		})

		t.Run("AssignedStaffMayReadReports", func(t *testing.T) {
			_, err := flow.ProjectSummary(testCtx(), &dto.ProjectSummaryRequest{
				ProjectUUID: project.UUID.String(),
				UserID:      staff.ID,
			}, testMetadata())
			assert.NoError(t, err)
		})

		t.Run("BrokersGetNotFound", func(t *testing.T) {
			_, err := flow.ProjectSummary(testCtx(), &dto.ProjectSummaryRequest{
				ProjectUUID: project.UUID.String(),
				UserID:      broker.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsNotFound(err))
		})
	})
}

func TestProjectSummaryCache(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		admin, _, _, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)
		flow := env.cachedReportingFlow(t, time.UTC)

		for _, s := range []models.OutreachStatus{
			models.OutreachStatusNotCalled,
			models.OutreachStatusWillSwitch,
			models.OutreachStatusCompleted,
		} {
			_, err := env.Fixtures.CreateTestPatient(project.ID, s)
			require.NoError(t, err)
		}

		req := &dto.ProjectSummaryRequest{
			ProjectUUID: project.UUID.String(),
			UserID:      admin.ID,
		}

		t.Run("FirstReadScansThenFills", func(t *testing.T) {
			resp, err := flow.ProjectSummary(testCtx(), req, testMetadata())
			require.NoError(t, err)
			assert.False(t, resp.FromCache)
			assert.Equal(t, int64(3), resp.TotalPatients)
		})

		t.Run("SecondReadMatchesTheRawScan", func(t *testing.T) {
			cached, err := flow.ProjectSummary(testCtx(), req, testMetadata())
			require.NoError(t, err)
			require.True(t, cached.FromCache)

			// A flow with no cache always takes the scan path. Nothing
			// changed between the two reads, so the snapshot must match
			// the scan field for field.
			raw, err := env.reportingFlow(time.UTC).ProjectSummary(testCtx(), req, testMetadata())
			require.NoError(t, err)
			require.False(t, raw.FromCache)

			cached.FromCache = false
			assert.Equal(t, raw, cached)
		})
	})
}

func TestStaffActivity(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		admin, staff, _, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)
		flow := env.reportingFlow(time.UTC)

		patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusNotCalled)
		require.NoError(t, err)
		other, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusNotCalled)
		require.NoError(t, err)

		now := utils.UTCNow()
		_, err = env.Fixtures.CreateTestOutreachLog(patient, staff.ID, models.DispositionNoAnswer, now.AddDate(0, -1, 0))
		require.NoError(t, err)
		_, err = env.Fixtures.CreateTestOutreachLog(patient, staff.ID, models.DispositionWillSwitch, now)
		require.NoError(t, err)
		_, err = env.Fixtures.CreateTestOutreachLog(other, staff.ID, models.DispositionNoAnswer, now)
		require.NoError(t, err)

		resp, err := flow.StaffActivity(testCtx(), &dto.StaffActivityRequest{
			ProjectUUID: project.UUID.String(),
			UserID:      admin.ID,
		}, testMetadata())
		require.NoError(t, err)

		require.Len(t, resp.Activity, 1)
		row := resp.Activity[0]
		assert.Equal(t, staff.ID, row.StaffID)
		assert.Equal(t, int64(3), row.TotalCalls)
		assert.Equal(t, int64(2), row.CallsToday)
		assert.Equal(t, int64(2), row.DistinctPatients)
		assert.NotNil(t, row.LastCallAt)
		assert.NotEmpty(t, row.StaffName)
	})
}

func TestDailyCallVolume(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		admin, staff, _, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)
		flow := env.reportingFlow(time.UTC)

		patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusNotCalled)
		require.NoError(t, err)

		now := utils.UTCNow()
		_, err = env.Fixtures.CreateTestOutreachLog(patient, staff.ID, models.DispositionWillSwitch, now)
		require.NoError(t, err)
		_, err = env.Fixtures.CreateTestOutreachLog(patient, staff.ID, models.DispositionNoAnswer, now)
		require.NoError(t, err)

		t.Run("PositiveOutcomesAreCounted", func(t *testing.T) {
			resp, err := flow.DailyCallVolume(testCtx(), &dto.DailyCallVolumeRequest{
				ProjectUUID: project.UUID.String(),
				UserID:      admin.ID,
			}, testMetadata())
			require.NoError(t, err)

			require.Len(t, resp.Days, 1)
			day := resp.Days[0]
			assert.Equal(t, staff.ID, day.StaffID)
			assert.Equal(t, now.Format("2006-01-02"), day.Day)
			assert.Equal(t, int64(2), day.Calls)
			assert.Equal(t, int64(1), day.PositiveOutcomes)
		})

		t.Run("InvertedWindowRejected", func(t *testing.T) {
			_, err := flow.DailyCallVolume(testCtx(), &dto.DailyCallVolumeRequest{
				ProjectUUID: project.UUID.String(),
				StartDate:   utils.ToPtr("2026-02-01"),
				EndDate:     utils.ToPtr("2026-01-01"),
				UserID:      admin.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsStartDateAfterEndDate(err))
		})

		t.Run("MalformedDateRejected", func(t *testing.T) {
			_, err := flow.DailyCallVolume(testCtx(), &dto.DailyCallVolumeRequest{
				ProjectUUID: project.UUID.String(),
				StartDate:   utils.ToPtr("01/02/2026"),
				UserID:      admin.ID,
			}, testMetadata())
			assert.Error(t, err)
		})
	})
}

func TestHandoffRowsStayOutOfCallRollups(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		admin, staff, _, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)
		flow := env.reportingFlow(time.UTC)

		patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusWillSwitch)
		require.NoError(t, err)
		_, err = env.Fixtures.CreateTestOutreachLog(patient, staff.ID, models.DispositionWillSwitch, utils.UTCNow())
		require.NoError(t, err)

		// Forwarding writes a will_switch log row of its own, flagged as a
		// handoff. It never bumps the patient's attempt counter, so the
		// call rollups must skip it too.
		_, err = env.forwardingFlow(&capturingEmailProvider{}).ForwardToBroker(testCtx(), &dto.ForwardToBrokerRequest{
			PatientUUID: patient.UUID.String(),
			StaffID:     staff.ID,
		}, testMetadata())
		require.NoError(t, err)

		t.Run("StaffActivityCountsOnlyDialedCalls", func(t *testing.T) {
			resp, err := flow.StaffActivity(testCtx(), &dto.StaffActivityRequest{
				ProjectUUID: project.UUID.String(),
				UserID:      admin.ID,
			}, testMetadata())
			require.NoError(t, err)

			require.Len(t, resp.Activity, 1)
			assert.Equal(t, int64(1), resp.Activity[0].TotalCalls)
			assert.Equal(t, int64(1), resp.Activity[0].CallsToday)
		})

		t.Run("DailyVolumeCountsOnlyDialedCalls", func(t *testing.T) {
			resp, err := flow.DailyCallVolume(testCtx(), &dto.DailyCallVolumeRequest{
				ProjectUUID: project.UUID.String(),
				UserID:      admin.ID,
			}, testMetadata())
			require.NoError(t, err)

			require.Len(t, resp.Days, 1)
			assert.Equal(t, int64(1), resp.Days[0].Calls)
			assert.Equal(t, int64(1), resp.Days[0].PositiveOutcomes)
		})
	})
}

func TestExportProjectReport(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		admin, staff, _, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)
		flow := env.reportingFlow(time.UTC)

		_, err = env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusWillSwitch)
		require.NoError(t, err)

		t.Run("AdminGetsAWorkbook", func(t *testing.T) {
			filename, content, err := flow.ExportProjectReport(testCtx(), &dto.ExportReportRequest{
				ProjectUUID: project.UUID.String(),
				AdminID:     admin.ID,
			}, testMetadata())
			require.NoError(t, err)
			assert.Contains(t, filename, ".xlsx")
			require.NotEmpty(t, content)
			// XLSX files are zip archives.
			assert.Equal(t, byte('P'), content[0])
			assert.Equal(t, byte('K'), content[1])
		})

		t.Run("StaffCannotExport", func(t *testing.T) {
			_, _, err := flow.ExportProjectReport(testCtx(), &dto.ExportReportRequest{
				ProjectUUID: project.UUID.String(),
				AdminID:     staff.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsNotFound(err))
		})
	})
}
