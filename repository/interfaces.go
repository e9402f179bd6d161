// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/clearwater-medical/outreach-portal/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// ProfileRepository defines operations for portal users
type ProfileRepository interface {
	Repository[models.Profile, models.ProfileFilter]
	ByEmail(ctx context.Context, email string) (*models.Profile, error)
	ByUUID(ctx context.Context, uuid string) (*models.Profile, error)
	UpdateLastLogin(ctx context.Context, userID uint, at time.Time) error
}

// ProjectRepository defines operations for projects
type ProjectRepository interface {
	Repository[models.Project, models.ProjectFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Project, error)
	ListByStatuses(ctx context.Context, statuses []models.ProjectStatus) ([]*models.Project, error)
	ListAssignedToUser(ctx context.Context, userID uint, role models.UserRole) ([]*models.Project, error)
	UpdateStatus(ctx context.Context, id uint, status models.ProjectStatus) error
}

// ProjectAssignmentRepository defines operations for project assignments
type ProjectAssignmentRepository interface {
	Repository[models.ProjectAssignment, models.ProjectAssignmentFilter]
	HasActiveAssignment(ctx context.Context, projectID, userID uint) (bool, error)
	Deactivate(ctx context.Context, id uint) error
}

// PatientRepository defines operations for patient aggregate records
type PatientRepository interface {
	Repository[models.Patient, models.PatientFilter]
	ByUUID(ctx context.Context, uuid string) (*models.Patient, error)
	ExistsByPhoneInProject(ctx context.Context, projectID uint, normalizedPhone string) (bool, error)
	// RecordContact atomically increments total_attempts and stamps the
	// last-contact markers. The increment runs server-side so concurrent call
	// logging never loses counts.
	RecordContact(ctx context.Context, patientID, staffID uint, at time.Time) error
	UpdateOutreachStatus(ctx context.Context, patientID uint, status models.OutreachStatus) error
	MarkForwarded(ctx context.Context, patientID, staffID uint, at time.Time) error
}

// OutreachLogRepository defines operations for the append-only call log.
// There is deliberately no general update: rows are immutable once written,
// except the single broker_email_sent_at backfill.
type OutreachLogRepository interface {
	Repository[models.OutreachLog, models.OutreachLogFilter]
	ListByPatient(ctx context.Context, patientID uint, limit, offset int) ([]*models.OutreachLog, error)
	RecentByPatient(ctx context.Context, patientID uint, n int) ([]*models.OutreachLog, error)
	// BackfillBrokerEmailSentAt stamps the most recent un-sent forwarded log
	// row for the patient once the handoff notification succeeds.
	BackfillBrokerEmailSentAt(ctx context.Context, patientID uint, at time.Time) error
}

// BrokerUpdateRepository defines operations for the append-only broker update log
type BrokerUpdateRepository interface {
	Repository[models.BrokerUpdate, models.BrokerUpdateFilter]
	ListByPatient(ctx context.Context, patientID uint, limit, offset int) ([]*models.BrokerUpdate, error)
}

// MessageRepository defines operations for the patient message thread
type MessageRepository interface {
	Repository[models.Message, models.MessageFilter]
	ListByPatient(ctx context.Context, patientID uint, limit, offset int) ([]*models.Message, error)
	MarkRead(ctx context.Context, messageID uint) error
	CountUnread(ctx context.Context, patientID uint, excludeSenderID uint) (int64, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
	ListFailedActions(ctx context.Context, limit, offset int) ([]*models.AuditLog, error)
}

// StatusCount is one bucket of a project summary partition
type StatusCount struct {
	Status models.OutreachStatus
	Count  int64
}

// StaffActivityRow aggregates one staff member's calling activity in a project
type StaffActivityRow struct {
	StaffID          uint
	TotalCalls       int64
	CallsToday       int64
	CallsThisWeek    int64
	DistinctPatients int64
	LastCallAt       *time.Time
}

// DailyVolumeRow aggregates calls for one (day, staff) pair in a project
type DailyVolumeRow struct {
	Day              string // YYYY-MM-DD in the reference timezone
	StaffID          uint
	Calls            int64
	PositiveOutcomes int64
}

// ReportingRepository computes read-only aggregations by scanning the raw
// patient and event-log tables. Figures are always recomputable from source
// rows; nothing here reads denormalized counters.
type ReportingRepository interface {
	CountPatients(ctx context.Context, projectID uint) (int64, error)
	StatusBuckets(ctx context.Context, projectID uint) ([]StatusCount, error)
	StaffActivity(ctx context.Context, projectID uint, now time.Time, loc *time.Location) ([]StaffActivityRow, error)
	DailyCallVolume(ctx context.Context, projectID uint, from, to time.Time, loc *time.Location) ([]DailyVolumeRow, error)
}
