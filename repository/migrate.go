package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/clearwater-medical/outreach-portal/models"
)

// enumDefinitions lists every Postgres enum type the schema depends on. These
// must exist before AutoMigrate because the gorm column tags reference them.
var enumDefinitions = []struct {
	name   string
	values []string
}{
	{"user_role_enum", []string{
		string(models.RoleAdmin), string(models.RoleStaff), string(models.RoleBroker),
	}},
	{"project_status_enum", []string{
		string(models.ProjectStatusPlanning), string(models.ProjectStatusActive),
		string(models.ProjectStatusPaused), string(models.ProjectStatusCompleted),
		string(models.ProjectStatusArchived),
	}},
	{"outreach_status_enum", []string{
		string(models.OutreachStatusNotCalled), string(models.OutreachStatusNoAnswer),
		string(models.OutreachStatusNeedsMoreInfo), string(models.OutreachStatusNotInterested),
		string(models.OutreachStatusWillSwitch), string(models.OutreachStatusForwardedToBroker),
		string(models.OutreachStatusWrongNumber), string(models.OutreachStatusCompleted),
		string(models.OutreachStatusUnableToComplete),
	}},
	{"disposition_enum", []string{
		string(models.DispositionNoAnswer), string(models.DispositionVoicemail),
		string(models.DispositionNeedsMoreInfo), string(models.DispositionNotInterested),
		string(models.DispositionWillSwitch), string(models.DispositionWrongNumber),
		string(models.DispositionDisconnected),
	}},
	{"broker_status_enum", []string{
		string(models.BrokerStatusReceived), string(models.BrokerStatusInProgress),
		string(models.BrokerStatusCompleted), string(models.BrokerStatusUnableToComplete),
	}},
	{"audit_action_enum", []string{
		models.AuditActionLoginSuccess, models.AuditActionLoginFailed, models.AuditActionLogout,
		models.AuditActionCallLogged, models.AuditActionCallLogFailed,
		models.AuditActionPatientForwarded, models.AuditActionForwardFailed,
		models.AuditActionBrokerEmailFailed,
		models.AuditActionBrokerUpdatePosted, models.AuditActionBrokerUpdateFailed,
		models.AuditActionPatientReopened,
		models.AuditActionPatientsImported, models.AuditActionPatientImportFailed,
		models.AuditActionMessagePosted,
		models.AuditActionProjectCreated, models.AuditActionUserAssigned,
	}},
}

// Migrate creates the enum types and tables the portal schema needs. Enum
// creation is idempotent so the migration can run on every startup.
func Migrate(db *gorm.DB) error {
	for _, enum := range enumDefinitions {
		quoted := make([]string, len(enum.values))
		for i, v := range enum.values {
			quoted[i] = "'" + v + "'"
		}
		stmt := fmt.Sprintf(
			"DO $$ BEGIN CREATE TYPE %s AS ENUM (%s); EXCEPTION WHEN duplicate_object THEN NULL; END $$",
			enum.name, strings.Join(quoted, ", "))
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create enum type %s: %w", enum.name, err)
		}
	}

	err := db.AutoMigrate(
		&models.Profile{},
		&models.Project{},
		&models.ProjectAssignment{},
		&models.Patient{},
		&models.OutreachLog{},
		&models.BrokerUpdate{},
		&models.Message{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	return nil
}
