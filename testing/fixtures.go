// Package testing provides test utilities and database setup for testing the outreach portal
package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plaintext password every fixture profile is created with
const TestPassword = "TestPass123!"

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestProfile creates an active portal user with the given role
func (tf *TestFixtures) CreateTestProfile(role models.UserRole) (*models.Profile, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	suffix := rand.Intn(10000000)
	profile := &models.Profile{
		UUID:         uuid.New(),
		Email:        fmt.Sprintf("%s.%d@example.com", role, suffix),
		FirstName:    "Test",
		LastName:     fmt.Sprintf("%s%d", role, suffix),
		Role:         role,
		PasswordHash: string(hashedPassword),
		IsActive:     utils.ToPtr(true),
	}

	if role == models.RoleBroker {
		agency := "Test Benefits Agency"
		profile.BrokerAgency = &agency
	}

	if err := tf.DB.DB.Create(profile).Error; err != nil {
		return nil, fmt.Errorf("failed to create test profile: %w", err)
	}

	return profile, nil
}

// CreateTestProject creates an active campaign owned by the given admin.
// brokerEmail may be empty, leaving the handoff address unconfigured.
func (tf *TestFixtures) CreateTestProject(createdBy uint, brokerEmail string) (*models.Project, error) {
	project := &models.Project{
		UUID:      uuid.New(),
		Name:      fmt.Sprintf("Campaign %d", rand.Intn(10000000)),
		Status:    models.ProjectStatusActive,
		CreatedBy: createdBy,
		CreatedAt: utils.UTCNow(),
	}
	if brokerEmail != "" {
		project.BrokerEmail = &brokerEmail
	}

	if err := tf.DB.DB.Create(project).Error; err != nil {
		return nil, fmt.Errorf("failed to create test project: %w", err)
	}

	return project, nil
}

// CreateTestAssignment puts a user on a project under their profile role
func (tf *TestFixtures) CreateTestAssignment(project *models.Project, user *models.Profile, assignedBy uint) (*models.ProjectAssignment, error) {
	assignment := &models.ProjectAssignment{
		ProjectID:  project.ID,
		UserID:     user.ID,
		Role:       user.Role,
		IsActive:   utils.ToPtr(true),
		AssignedBy: assignedBy,
		CreatedAt:  utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(assignment).Error; err != nil {
		return nil, fmt.Errorf("failed to create test assignment: %w", err)
	}

	return assignment, nil
}

// CreateTestPatient creates a patient in the given project with the given status
func (tf *TestFixtures) CreateTestPatient(projectID uint, status models.OutreachStatus) (*models.Patient, error) {
	randomDigits := fmt.Sprintf("%07d", rand.Intn(9000000)+1000000)
	patient := &models.Patient{
		UUID:           uuid.New(),
		ProjectID:      projectID,
		FirstName:      "Pat",
		LastName:       fmt.Sprintf("Test%s", randomDigits),
		PrimaryPhone:   fmt.Sprintf("+1206%s", randomDigits),
		OutreachStatus: status,
		IsDuplicate:    utils.ToPtr(false),
		CreatedAt:      utils.UTCNow(),
	}

	if status == models.OutreachStatusForwardedToBroker {
		now := utils.UTCNow()
		patient.ForwardedAt = &now
	}

	if err := tf.DB.DB.Create(patient).Error; err != nil {
		return nil, fmt.Errorf("failed to create test patient: %w", err)
	}

	return patient, nil
}

// CreateTestOutreachLog records one call attempt row for a patient
func (tf *TestFixtures) CreateTestOutreachLog(patient *models.Patient, staffID uint, disposition models.Disposition, calledAt time.Time) (*models.OutreachLog, error) {
	logRow := &models.OutreachLog{
		PatientID:         patient.ID,
		ProjectID:         patient.ProjectID,
		StaffID:           staffID,
		Disposition:       disposition,
		CallTimestamp:     calledAt,
		ForwardedToBroker: utils.ToPtr(false),
	}

	if err := tf.DB.DB.Create(logRow).Error; err != nil {
		return nil, fmt.Errorf("failed to create test outreach log: %w", err)
	}

	return logRow, nil
}

// CreateTestBrokerUpdate records one broker progress row for a patient
func (tf *TestFixtures) CreateTestBrokerUpdate(patient *models.Patient, brokerID uint, status models.BrokerStatus) (*models.BrokerUpdate, error) {
	update := &models.BrokerUpdate{
		PatientID: patient.ID,
		ProjectID: patient.ProjectID,
		BrokerID:  brokerID,
		Status:    status,
		CreatedAt: utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(update).Error; err != nil {
		return nil, fmt.Errorf("failed to create test broker update: %w", err)
	}

	return update, nil
}

// CreateTestMessage posts one unread note on a patient thread
func (tf *TestFixtures) CreateTestMessage(patient *models.Patient, senderID uint, body string) (*models.Message, error) {
	message := &models.Message{
		PatientID: patient.ID,
		ProjectID: patient.ProjectID,
		SenderID:  senderID,
		Body:      body,
		IsRead:    utils.ToPtr(false),
		CreatedAt: utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(message).Error; err != nil {
		return nil, fmt.Errorf("failed to create test message: %w", err)
	}

	return message, nil
}

// CreateTestAuditLog creates a test audit log entry
func (tf *TestFixtures) CreateTestAuditLog(userID *uint, action string, success bool) (*models.AuditLog, error) {
	description := fmt.Sprintf("Test %s action", action)
	ipAddress := "127.0.0.1"
	userAgent := "Test User Agent"

	audit := &models.AuditLog{
		UserID:      userID,
		Action:      action,
		Description: &description,
		Success:     &success,
		IPAddress:   &ipAddress,
		UserAgent:   &userAgent,
	}

	if !success {
		errorMessage := "Test failed action"
		audit.ErrorMessage = &errorMessage
	}

	if err := tf.DB.DB.Create(audit).Error; err != nil {
		return nil, fmt.Errorf("failed to create test audit log: %w", err)
	}

	return audit, nil
}

// SeedProjectTeam creates an admin, a staff caller, and a broker, all assigned
// to a fresh active project whose handoff email is the broker's address.
func (tf *TestFixtures) SeedProjectTeam() (admin, staff, broker *models.Profile, project *models.Project, err error) {
	admin, err = tf.CreateTestProfile(models.RoleAdmin)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	staff, err = tf.CreateTestProfile(models.RoleStaff)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	broker, err = tf.CreateTestProfile(models.RoleBroker)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	project, err = tf.CreateTestProject(admin.ID, broker.Email)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	for _, member := range []*models.Profile{staff, broker} {
		if _, err = tf.CreateTestAssignment(project, member, admin.ID); err != nil {
			return nil, nil, nil, nil, err
		}
	}

	return admin, staff, broker, project, nil
}
