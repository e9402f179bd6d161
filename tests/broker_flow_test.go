package tests

import (
	"testing"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordBrokerUpdate(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		_, staff, broker, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)
		flow := env.brokerFlow()

		t.Run("InformationalUpdateLeavesPatientUntouched", func(t *testing.T) {
			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusForwardedToBroker)
			require.NoError(t, err)

			resp, err := flow.RecordBrokerUpdate(testCtx(), &dto.RecordBrokerUpdateRequest{
				PatientUUID: patient.UUID.String(),
				Status:      "in_progress",
				BrokerID:    broker.ID,
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "in_progress", resp.Update.Status)
			assert.Equal(t, "forwarded_to_broker", resp.PatientStatus)

			stored, err := env.PatientRepo.ByUUID(testCtx(), patient.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.OutreachStatusForwardedToBroker, stored.OutreachStatus)
		})

		t.Run("TerminalUpdateResolvesThePatient", func(t *testing.T) {
			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusForwardedToBroker)
			require.NoError(t, err)

			resp, err := flow.RecordBrokerUpdate(testCtx(), &dto.RecordBrokerUpdateRequest{
				PatientUUID: patient.UUID.String(),
				Status:      "completed",
				BrokerID:    broker.ID,
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, "completed", resp.PatientStatus)

			stored, err := env.PatientRepo.ByUUID(testCtx(), patient.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.OutreachStatusCompleted, stored.OutreachStatus)
		})

		t.Run("ResolvedPatientStillAcceptsHistory", func(t *testing.T) {
			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusCompleted)
			require.NoError(t, err)

			_, err = flow.RecordBrokerUpdate(testCtx(), &dto.RecordBrokerUpdateRequest{
				PatientUUID: patient.UUID.String(),
				Status:      "in_progress",
				BrokerID:    broker.ID,
			}, testMetadata())
			assert.NoError(t, err)
		})

		t.Run("NotForwardedPatientRejectsUpdates", func(t *testing.T) {
			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusWillSwitch)
			require.NoError(t, err)

			_, err = flow.RecordBrokerUpdate(testCtx(), &dto.RecordBrokerUpdateRequest{
				PatientUUID: patient.UUID.String(),
				Status:      "received",
				BrokerID:    broker.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsNotForwardedToYou(err))
			assert.True(t, businessflow.IsInvalidTransition(err))
		})

		t.Run("UnassignedBrokerGetsNotFound", func(t *testing.T) {
			outsider, err := env.Fixtures.CreateTestProfile(models.RoleBroker)
			require.NoError(t, err)
			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusForwardedToBroker)
			require.NoError(t, err)

			_, err = flow.RecordBrokerUpdate(testCtx(), &dto.RecordBrokerUpdateRequest{
				PatientUUID: patient.UUID.String(),
				Status:      "received",
				BrokerID:    outsider.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsNotFound(err))
		})

		t.Run("StaffCannotPostBrokerUpdates", func(t *testing.T) {
			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusForwardedToBroker)
			require.NoError(t, err)

			_, err = flow.RecordBrokerUpdate(testCtx(), &dto.RecordBrokerUpdateRequest{
				PatientUUID: patient.UUID.String(),
				Status:      "received",
				BrokerID:    staff.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsNotFound(err))
		})

		t.Run("UnknownStatusRejected", func(t *testing.T) {
			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusForwardedToBroker)
			require.NoError(t, err)

			_, err = flow.RecordBrokerUpdate(testCtx(), &dto.RecordBrokerUpdateRequest{
				PatientUUID: patient.UUID.String(),
				Status:      "escalated",
				BrokerID:    broker.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsInvalidBrokerStatus(err))
		})
	})
}

func TestListBrokerUpdates(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		_, staff, broker, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)
		flow := env.brokerFlow()

		patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusForwardedToBroker)
		require.NoError(t, err)

		for _, s := range []models.BrokerStatus{models.BrokerStatusReceived, models.BrokerStatusInProgress} {
			_, err = env.Fixtures.CreateTestBrokerUpdate(patient, broker.ID, s)
			require.NoError(t, err)
		}

		// Staff on the project can read the broker history.
		resp, err := flow.ListBrokerUpdates(testCtx(), &dto.ListBrokerUpdatesRequest{
			PatientUUID: patient.UUID.String(),
			UserID:      staff.ID,
		}, testMetadata())
		require.NoError(t, err)
		assert.Len(t, resp.Updates, 2)
	})
}
