package tests

import (
	"strings"
	"testing"

	"github.com/clearwater-medical/outreach-portal/app/dto"
	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageThread(t *testing.T) {
	withFlowEnv(t, func(t *testing.T, env *flowEnv) {
		_, staff, broker, project, err := env.Fixtures.SeedProjectTeam()
		require.NoError(t, err)
		flow := env.messageFlow()

		t.Run("StaffAndBrokerExchangeMessages", func(t *testing.T) {
			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusForwardedToBroker)
			require.NoError(t, err)

			posted, err := flow.PostMessage(testCtx(), &dto.PostMessageRequest{
				PatientUUID: patient.UUID.String(),
				Body:        "Forwarding full medication list shortly",
				SenderID:    staff.ID,
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, staff.ID, posted.Posted.SenderID)
			assert.Equal(t, "staff", posted.Posted.SenderRole)

			_, err = flow.PostMessage(testCtx(), &dto.PostMessageRequest{
				PatientUUID: patient.UUID.String(),
				Body:        "Received, enrollment call set for Tuesday",
				SenderID:    broker.ID,
			}, testMetadata())
			require.NoError(t, err)

			// The staff reader sees one unread message (the broker's, not
			// their own).
			listed, err := flow.ListMessages(testCtx(), &dto.ListMessagesRequest{
				PatientUUID: patient.UUID.String(),
				UserID:      staff.ID,
			}, testMetadata())
			require.NoError(t, err)
			require.Len(t, listed.Messages, 2)
			assert.Equal(t, int64(1), listed.Unread)

			// Newest first.
			assert.Equal(t, broker.ID, listed.Messages[0].SenderID)
		})

		t.Run("MarkReadClearsTheUnreadCount", func(t *testing.T) {
			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusForwardedToBroker)
			require.NoError(t, err)

			msg, err := env.Fixtures.CreateTestMessage(patient, broker.ID, "Please confirm the member ID")
			require.NoError(t, err)

			_, err = flow.MarkMessageRead(testCtx(), &dto.MarkMessageReadRequest{
				MessageID: msg.ID,
				UserID:    staff.ID,
			}, testMetadata())
			require.NoError(t, err)

			listed, err := flow.ListMessages(testCtx(), &dto.ListMessagesRequest{
				PatientUUID: patient.UUID.String(),
				UserID:      staff.ID,
			}, testMetadata())
			require.NoError(t, err)
			assert.Equal(t, int64(0), listed.Unread)
		})

		t.Run("OversizedBodyIsRejectedNotTruncated", func(t *testing.T) {
			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusForwardedToBroker)
			require.NoError(t, err)

			_, err = flow.PostMessage(testCtx(), &dto.PostMessageRequest{
				PatientUUID: patient.UUID.String(),
				Body:        strings.Repeat("x", 1001),
				SenderID:    staff.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsMessageTooLong(err))

			listed, err := flow.ListMessages(testCtx(), &dto.ListMessagesRequest{
				PatientUUID: patient.UUID.String(),
				UserID:      staff.ID,
			}, testMetadata())
			require.NoError(t, err)
			assert.Empty(t, listed.Messages)
		})

		t.Run("BodyAtTheLimitIsAccepted", func(t *testing.T) {
			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusForwardedToBroker)
			require.NoError(t, err)

			_, err = flow.PostMessage(testCtx(), &dto.PostMessageRequest{
				PatientUUID: patient.UUID.String(),
				Body:        strings.Repeat("y", 1000),
				SenderID:    staff.ID,
			}, testMetadata())
			assert.NoError(t, err)
		})

		t.Run("BrokerCannotPostOnUnforwardedPatient", func(t *testing.T) {
			patient, err := env.Fixtures.CreateTestPatient(project.ID, models.OutreachStatusNoAnswer)
			require.NoError(t, err)

			_, err = flow.PostMessage(testCtx(), &dto.PostMessageRequest{
				PatientUUID: patient.UUID.String(),
				Body:        "Should not land",
				SenderID:    broker.ID,
			}, testMetadata())
			assert.True(t, businessflow.IsNotFound(err))
		})
	})
}
