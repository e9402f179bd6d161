package tests

import (
	"testing"

	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispositionStatusMapping(t *testing.T) {
	cases := []struct {
		disposition models.Disposition
		status      models.OutreachStatus
	}{
		{models.DispositionNoAnswer, models.OutreachStatusNoAnswer},
		{models.DispositionVoicemail, models.OutreachStatusNoAnswer},
		{models.DispositionNeedsMoreInfo, models.OutreachStatusNeedsMoreInfo},
		{models.DispositionNotInterested, models.OutreachStatusNotInterested},
		{models.DispositionWillSwitch, models.OutreachStatusWillSwitch},
		{models.DispositionWrongNumber, models.OutreachStatusWrongNumber},
		{models.DispositionDisconnected, models.OutreachStatusWrongNumber},
	}

	for _, tc := range cases {
		t.Run(tc.disposition.String(), func(t *testing.T) {
			mapped, ok := tc.disposition.OutreachStatusFor()
			require.True(t, ok)
			assert.Equal(t, tc.status, mapped)
			assert.True(t, tc.disposition.Valid())
		})
	}

	t.Run("UnknownDisposition", func(t *testing.T) {
		_, ok := models.Disposition("faxed").OutreachStatusFor()
		assert.False(t, ok)
		assert.False(t, models.Disposition("faxed").Valid())
	})
}

func TestDispositionIsPositive(t *testing.T) {
	assert.True(t, models.DispositionWillSwitch.IsPositive())

	others := []models.Disposition{
		models.DispositionNoAnswer,
		models.DispositionVoicemail,
		models.DispositionNeedsMoreInfo,
		models.DispositionNotInterested,
		models.DispositionWrongNumber,
		models.DispositionDisconnected,
	}
	for _, d := range others {
		assert.False(t, d.IsPositive(), "disposition %s should not count as positive", d)
	}
}

func TestOutreachStatusTerminal(t *testing.T) {
	terminal := map[models.OutreachStatus]bool{
		models.OutreachStatusForwardedToBroker: true,
		models.OutreachStatusCompleted:         true,
		models.OutreachStatusUnableToComplete:  true,
	}

	for _, s := range models.AllOutreachStatuses() {
		assert.Equal(t, terminal[s], s.IsTerminal(), "status %s", s)
	}
}

func TestAllOutreachStatusesCoversEveryStatus(t *testing.T) {
	all := models.AllOutreachStatuses()
	assert.Len(t, all, 9)

	seen := make(map[models.OutreachStatus]bool, len(all))
	for _, s := range all {
		assert.True(t, s.Valid(), "status %s", s)
		assert.False(t, seen[s], "status %s listed twice", s)
		seen[s] = true
	}
}

func TestOutreachStatusDisplayName(t *testing.T) {
	assert.Equal(t, "Forwarded to Broker", models.OutreachStatusForwardedToBroker.DisplayName())
	assert.Equal(t, "Unknown", models.OutreachStatus("bogus").DisplayName())
}

func TestBrokerStatusResolution(t *testing.T) {
	t.Run("TerminalStatusesResolveThePatient", func(t *testing.T) {
		status, ok := models.BrokerStatusCompleted.PatientStatusFor()
		require.True(t, ok)
		assert.Equal(t, models.OutreachStatusCompleted, status)

		status, ok = models.BrokerStatusUnableToComplete.PatientStatusFor()
		require.True(t, ok)
		assert.Equal(t, models.OutreachStatusUnableToComplete, status)
	})

	t.Run("InformationalStatusesDoNot", func(t *testing.T) {
		for _, s := range []models.BrokerStatus{models.BrokerStatusReceived, models.BrokerStatusInProgress} {
			_, ok := s.PatientStatusFor()
			assert.False(t, ok, "status %s", s)
			assert.False(t, s.IsTerminal(), "status %s", s)
		}
	})
}

func TestPatientSealingAndForwarding(t *testing.T) {
	p := &models.Patient{OutreachStatus: models.OutreachStatusWillSwitch}
	assert.False(t, p.IsSealed())
	assert.True(t, p.CanForward())

	p.OutreachStatus = models.OutreachStatusForwardedToBroker
	assert.True(t, p.IsSealed())
	assert.False(t, p.CanForward())

	p.OutreachStatus = models.OutreachStatusCompleted
	assert.True(t, p.IsSealed())
	assert.False(t, p.CanForward())

	// Unable-to-complete is sealed but may still be re-forwarded after review.
	p.OutreachStatus = models.OutreachStatusUnableToComplete
	assert.True(t, p.IsSealed())
	assert.True(t, p.CanForward())
}

func TestProjectArchived(t *testing.T) {
	p := &models.Project{Status: models.ProjectStatusActive}
	assert.False(t, p.IsArchived())

	p.Status = models.ProjectStatusArchived
	assert.True(t, p.IsArchived())
}

func TestUserRoleValid(t *testing.T) {
	assert.True(t, models.RoleAdmin.Valid())
	assert.True(t, models.RoleStaff.Valid())
	assert.True(t, models.RoleBroker.Valid())
	assert.False(t, models.UserRole("superuser").Valid())
}
