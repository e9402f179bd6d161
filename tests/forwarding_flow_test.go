package tests

import (
	"strings"
	"testing"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardToBroker(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		_, staff, broker, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)

		t.Run("ForwardCommitsAndAnnounces", func(t *testing.T) {
			provider := &capturingEmailProvider{}
			flow := env.forwardingFlow(provider)

			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusWillSwitch)
			require.NoError(t, err)

			resp, err := flow.ForwardToBroker(testCtx(), &dto.ForwardToBrokerRequest{
				PatientUUID: patient.UUID.String(),
				Notes:       utils.ToPtr("Prefers afternoon calls"),
				StaffID:     staff.ID,
			}, testMetadata())
			require.NoError(t, err)
			assert.True(t, resp.EmailSent)
			assert.Nil(t, resp.Warning)
			assert.NotEmpty(t, resp.ForwardedAt)

			stored, err := env.PatientRepo.ByUUID(testCtx(), patient.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.OutreachStatusForwardedToBroker, stored.OutreachStatus)
			require.NotNil(t, stored.ForwardedBy)
			assert.Equal(t, staff.ID, *stored.ForwardedBy)
			assert.NotNil(t, stored.ForwardedAt)

			// The handoff log row is marked forwarded and gets its sent-at backfill.
			rows, err := env.LogRepo.ListByPatient(testCtx(), patient.ID, 10, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.True(t, utils.IsTrue(rows[0].ForwardedToBroker))
			assert.NotNil(t, rows[0].BrokerEmailSentAt)

			require.Len(t, provider.sent, 1)
			assert.Contains(t, provider.sent[0].To, broker.Email)

			assert.Empty(t, flow.PendingHandoffs())
		})

		t.Run("ForwardIsNotIdempotent", func(t *testing.T) {
			provider := &capturingEmailProvider{}
			flow := env.forwardingFlow(provider)

			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusWillSwitch)
			require.NoError(t, err)

			_, err = flow.ForwardToBroker(testCtx(), &dto.ForwardToBrokerRequest{
				PatientUUID: patient.UUID.String(),
				StaffID:     staff.ID,
			}, testMetadata())
			require.NoError(t, err)

			_, err = flow.ForwardToBroker(testCtx(), &dto.ForwardToBrokerRequest{
				PatientUUID: patient.UUID.String(),
				StaffID:     staff.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsAlreadyForwarded(err))

			// The second attempt must not send another email.
			assert.Len(t, provider.sent, 1)
		})

		t.Run("CompletedPatientCannotBeForwarded", func(t *testing.T) {
			flow := env.forwardingFlow(&capturingEmailProvider{})

			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusCompleted)
			require.NoError(t, err)

			_, err = flow.ForwardToBroker(testCtx(), &dto.ForwardToBrokerRequest{
				PatientUUID: patient.UUID.String(),
				StaffID:     staff.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsAlreadyForwarded(err))
		})

		t.Run("MissingBrokerEmailBlocksBeforeAnyWrite", func(t *testing.T) {
			flow := env.forwardingFlow(&capturingEmailProvider{})

			admin2, err := env.Fixtures.CreateTestProfile(models.RoleAdmin)
			require.NoError(t, err)
			bare, err := env.Fixtures.CreateTestProject(admin2.ID, "")
			require.NoError(t, err)
			_, err = env.Fixtures.CreateTestAssignment(bare, staff, admin2.ID)
			require.NoError(t, err)

			patient, err := env.Fixtures.CreateTestPatient(bare.ID, models.OutreachStatusWillSwitch)
			require.NoError(t, err)

			_, err = flow.ForwardToBroker(testCtx(), &dto.ForwardToBrokerRequest{
				PatientUUID: patient.UUID.String(),
				StaffID:     staff.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsMissingBrokerEmail(err))
			assert.True(t, businessflow.IsMissingConfiguration(err))

			stored, err := env.PatientRepo.ByUUID(testCtx(), patient.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.OutreachStatusWillSwitch, stored.OutreachStatus)
			assert.Nil(t, stored.ForwardedAt)
		})

		t.Run("EmailFailureWarnsButKeepsTheHandoff", func(t *testing.T) {
			flow := env.forwardingFlow(failingEmailProvider{})

			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusWillSwitch)
			require.NoError(t, err)

			resp, err := flow.ForwardToBroker(testCtx(), &dto.ForwardToBrokerRequest{
				PatientUUID: patient.UUID.String(),
				StaffID:     staff.ID,
			}, testMetadata())
			require.NoError(t, err)
			assert.False(t, resp.EmailSent)
			require.NotNil(t, resp.Warning)
			assert.True(t, strings.Contains(*resp.Warning, "follow up manually"))

			// The status change committed despite the failed notification.
			stored, err := env.PatientRepo.ByUUID(testCtx(), patient.UUID.String())
			require.NoError(t, err)
			assert.Equal(t, models.OutreachStatusForwardedToBroker, stored.OutreachStatus)

			// The failed dispatch stays visible for manual follow-up.
			pending := flow.PendingHandoffs()
			require.Len(t, pending, 1)
			assert.Equal(t, patient.UUID.String(), pending[0].Key)
			assert.Equal(t, businessflow.PendingStateFailed, pending[0].State)

			// And the failure is audited.
			failures, err := env.AuditRepo.ListByAction(testCtx(), models.AuditActionBrokerEmailFailed, 10, 0)
			require.NoError(t, err)
			assert.NotEmpty(t, failures)
		})

		t.Run("BrokerCannotForward", func(t *testing.T) {
			flow := env.forwardingFlow(&capturingEmailProvider{})

			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusWillSwitch)
			require.NoError(t, err)

			_, err = flow.ForwardToBroker(testCtx(), &dto.ForwardToBrokerRequest{
				PatientUUID: patient.UUID.String(),
				StaffID:     broker.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsNotFound(err))
		})
	})
}

func TestRetryFailedHandoffs(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		_, staff, broker, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)

		t.Run("RetryDeliversAndClearsThePendingSet", func(t *testing.T) {
			provider := &flakyEmailProvider{failures: 1}
			flow := env.forwardingFlow(provider)

			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusWillSwitch)
			require.NoError(t, err)

			resp, err := flow.ForwardToBroker(testCtx(), &dto.ForwardToBrokerRequest{
				PatientUUID: patient.UUID.String(),
				Notes:       utils.ToPtr("Best reached before noon"),
				StaffID:     staff.ID,
			}, testMetadata())
			require.NoError(t, err)
			assert.False(t, resp.EmailSent)
			require.Len(t, flow.PendingHandoffs(), 1)

			delivered := flow.RetryFailedHandoffs(testCtx())
			assert.Equal(t, 1, delivered)
			assert.Empty(t, flow.PendingHandoffs())

			require.Len(t, provider.sent, 1)
			assert.Contains(t, provider.sent[0].To, broker.Email)

			// The retry also backfills the sent-at marker on the handoff row.
			rows, err := env.LogRepo.ListByPatient(testCtx(), patient.ID, 10, 0)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.NotNil(t, rows[0].BrokerEmailSentAt)
		})

		t.Run("ResolvedPatientIsDroppedWithoutResending", func(t *testing.T) {
			provider := &flakyEmailProvider{failures: 2}
			flow := env.forwardingFlow(provider)

			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusWillSwitch)
			require.NoError(t, err)

			_, err = flow.ForwardToBroker(testCtx(), &dto.ForwardToBrokerRequest{
				PatientUUID: patient.UUID.String(),
				StaffID:     staff.ID,
			}, testMetadata())
			require.NoError(t, err)
			require.Len(t, flow.PendingHandoffs(), 1)

			// The broker resolves the patient before the retry fires.
			require.NoError(t, env.PatientRepo.UpdateOutreachStatus(testCtx(), patient.ID, models.OutreachStatusCompleted))

			delivered := flow.RetryFailedHandoffs(testCtx())
			assert.Zero(t, delivered)
			assert.Empty(t, flow.PendingHandoffs())
			assert.Empty(t, provider.sent)
		})

		t.Run("StillFailingEntryStaysPending", func(t *testing.T) {
			flow := env.forwardingFlow(failingEmailProvider{})

			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusWillSwitch)
			require.NoError(t, err)

			_, err = flow.ForwardToBroker(testCtx(), &dto.ForwardToBrokerRequest{
				PatientUUID: patient.UUID.String(),
				StaffID:     staff.ID,
			}, testMetadata())
			require.NoError(t, err)

			delivered := flow.RetryFailedHandoffs(testCtx())
			assert.Zero(t, delivered)
			require.Len(t, flow.PendingHandoffs(), 1)
			assert.Equal(t, patient.UUID.String(), flow.PendingHandoffs()[0].Key)
		})
	})
}
