// Package tests contains integration tests for the outreach portal flows
package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/clearwater-medical/outreach-portal/app/services"
	businessflow "github.com/clearwater-medical/outreach-portal/business_flow"
	"github.com/clearwater-medical/outreach-portal/repository"
	testingutil "github.com/clearwater-medical/outreach-portal/testing"
)

// flowEnv bundles the repositories and flows wired against one test database
type flowEnv struct {
	DB       *testingutil.TestDB
	Fixtures *testingutil.TestFixtures

	ProfileRepo    repository.ProfileRepository
	ProjectRepo    repository.ProjectRepository
	AssignmentRepo repository.ProjectAssignmentRepository
	PatientRepo    repository.PatientRepository
	LogRepo        repository.OutreachLogRepository
	UpdateRepo     repository.BrokerUpdateRepository
	MessageRepo    repository.MessageRepository
	AuditRepo      repository.AuditLogRepository
	ReportingRepo  repository.ReportingRepository

	Access businessflow.AccessFlow
}

// withFlowEnv provisions a disposable database and wires the repository layer.
// Tests that need Postgres skip instead of failing when it is unreachable.
func withFlowEnv(t *testing.T, fn func(t *testing.T, env *flowEnv)) {
	t.Helper()

	testDB, err := testingutil.SetupTestDB()
	if err != nil {
		t.Skipf("postgres not reachable, skipping: %v", err)
	}
	defer func() {
		if cleanupErr := testDB.TeardownTestDB(); cleanupErr != nil {
			t.Logf("failed to cleanup test database: %v", cleanupErr)
		}
	}()

	env := &flowEnv{
		DB:             testDB,
		Fixtures:       testingutil.NewTestFixtures(testDB),
		ProfileRepo:    repository.NewProfileRepository(testDB.DB),
		ProjectRepo:    repository.NewProjectRepository(testDB.DB),
		AssignmentRepo: repository.NewProjectAssignmentRepository(testDB.DB),
		PatientRepo:    repository.NewPatientRepository(testDB.DB),
		LogRepo:        repository.NewOutreachLogRepository(testDB.DB),
		UpdateRepo:     repository.NewBrokerUpdateRepository(testDB.DB),
		MessageRepo:    repository.NewMessageRepository(testDB.DB),
		AuditRepo:      repository.NewAuditLogRepository(testDB.DB),
		ReportingRepo:  repository.NewReportingRepository(testDB.DB),
	}
	env.Access = businessflow.NewAccessFlow(env.ProjectRepo, env.AssignmentRepo, env.PatientRepo, env.ProfileRepo)

	fn(t, env)
}

func (env *flowEnv) outreachFlow() businessflow.OutreachFlow {
	return businessflow.NewOutreachFlow(env.DB.DB, env.PatientRepo, env.LogRepo, env.ProjectRepo, env.ProfileRepo, env.AuditRepo, env.Access)
}

func (env *flowEnv) forwardingFlow(provider services.EmailProvider) businessflow.ForwardingFlow {
	notifier := services.NewNotificationService(provider, "outreach@clearwatermedical.com")
	return businessflow.NewForwardingFlow(env.DB.DB, env.PatientRepo, env.LogRepo, env.ProjectRepo, env.ProfileRepo, env.AuditRepo, env.Access, notifier)
}

func (env *flowEnv) brokerFlow() businessflow.BrokerFlow {
	return businessflow.NewBrokerFlow(env.DB.DB, env.PatientRepo, env.UpdateRepo, env.ProjectRepo, env.ProfileRepo, env.AuditRepo, env.Access)
}

func (env *flowEnv) messageFlow() businessflow.MessageFlow {
	return businessflow.NewMessageFlow(env.MessageRepo, env.PatientRepo, env.ProfileRepo, env.AuditRepo, env.Access)
}

func (env *flowEnv) importFlow() businessflow.ImportFlow {
	return businessflow.NewImportFlow(env.DB.DB, env.PatientRepo, env.ProjectRepo, env.ProfileRepo, env.AuditRepo)
}

func (env *flowEnv) projectFlow() businessflow.ProjectFlow {
	return businessflow.NewProjectFlow(env.DB.DB, env.ProjectRepo, env.AssignmentRepo, env.ProfileRepo, env.AuditRepo, env.Access)
}

func (env *flowEnv) reportingFlow(loc *time.Location) businessflow.ReportingFlow {
	return businessflow.NewReportingFlow(env.ReportingRepo, env.ProjectRepo, env.ProfileRepo, env.AssignmentRepo, nil, loc, services.NewReportExport())
}

// cachedReportingFlow wires the reporting flow against an in-memory redis
// so the cached read path is exercised the same way production is.
func (env *flowEnv) cachedReportingFlow(t *testing.T, loc *time.Location) businessflow.ReportingFlow {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return businessflow.NewReportingFlow(env.ReportingRepo, env.ProjectRepo, env.ProfileRepo, env.AssignmentRepo, client, loc, services.NewReportExport())
}

func testMetadata() *businessflow.ClientMetadata {
	return businessflow.NewClientMetadata("127.0.0.1", "Test User Agent")
}

func testCtx() context.Context {
	return testingutil.CreateTestContext()
}

// capturingEmailProvider records sends instead of delivering them
type capturingEmailProvider struct {
	sent []*services.EmailMessage
}

func (p *capturingEmailProvider) SendEmail(ctx context.Context, msg *services.EmailMessage) error {
	p.sent = append(p.sent, msg)
	return nil
}

// failingEmailProvider rejects every send
type failingEmailProvider struct{}

func (failingEmailProvider) SendEmail(ctx context.Context, msg *services.EmailMessage) error {
	return errors.New("smtp connection refused")
}

// flakyEmailProvider rejects the first failures sends, then captures
type flakyEmailProvider struct {
	failures int
	sent     []*services.EmailMessage
}

func (p *flakyEmailProvider) SendEmail(ctx context.Context, msg *services.EmailMessage) error {
	if p.failures > 0 {
		p.failures--
		return errors.New("smtp connection refused")
	}
	p.sent = append(p.sent, msg)
	return nil
}
