// Package models contains domain entities and business models for the outreach portal
package models

import (
	"time"

	"github.com/google/uuid"
)

// UserRole is the closed set of portal roles
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleStaff  UserRole = "staff"
	RoleBroker UserRole = "broker"
)

// String returns the string representation of the role
func (r UserRole) String() string {
	return string(r)
}

// Valid checks if the role is valid
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleBroker:
		return true
	default:
		return false
	}
}

// Profile represents a portal user (practice staff, admin, or external broker)
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_profiles_uuid" json:"uuid"`
	Email     string    `gorm:"size:255;not null;uniqueIndex:idx_profiles_email" json:"email"`
	FirstName string    `gorm:"size:100;not null" json:"first_name"`
	LastName  string    `gorm:"size:100;not null" json:"last_name"`
	Role      UserRole  `gorm:"type:user_role_enum;not null;index:idx_profiles_role" json:"role"`

	// Broker-only fields
	BrokerAgency  *string `gorm:"size:255" json:"broker_agency,omitempty"`
	BrokerLogoURL *string `gorm:"size:512" json:"broker_logo_url,omitempty"`

	PasswordHash string `gorm:"size:255;not null" json:"-"` // Never serialize password hash

	IsActive    *bool      `gorm:"default:true;index:idx_profiles_is_active" json:"is_active"`
	CreatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
	LastLoginAt *time.Time `gorm:"index:idx_profiles_last_login_at" json:"last_login_at,omitempty"`

	// Relations
	Assignments []ProjectAssignment `gorm:"foreignKey:UserID" json:"-"`
	AuditLogs   []AuditLog          `gorm:"foreignKey:UserID" json:"-"`
}

func (Profile) TableName() string {
	return "profiles"
}

// FullName returns the user's display name
func (p *Profile) FullName() string {
	return p.FirstName + " " + p.LastName
}

// ProfileFilter represents filter criteria for profile queries
type ProfileFilter struct {
	ID              *uint
	UUID            *uuid.UUID
	Email           *string
	Role            *UserRole
	IsActive        *bool
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
	LastLoginAfter  *time.Time
	LastLoginBefore *time.Time
}
