// Package models contains domain entities and business models for the outreach portal
package models

import (
	"database/sql/driver"
	"fmt"
)

// OutreachStatus represents a patient's current position in the calling campaign
type OutreachStatus string

const (
	OutreachStatusNotCalled         OutreachStatus = "not_called"
	OutreachStatusNoAnswer          OutreachStatus = "no_answer"
	OutreachStatusNeedsMoreInfo     OutreachStatus = "needs_more_info"
	OutreachStatusNotInterested     OutreachStatus = "not_interested"
	OutreachStatusWillSwitch        OutreachStatus = "will_switch"
	OutreachStatusForwardedToBroker OutreachStatus = "forwarded_to_broker"
	OutreachStatusWrongNumber       OutreachStatus = "wrong_number"
	OutreachStatusCompleted         OutreachStatus = "completed"
	OutreachStatusUnableToComplete  OutreachStatus = "unable_to_complete"
)

// String returns the string representation of the status
func (s OutreachStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s OutreachStatus) Valid() bool {
	switch s {
	case OutreachStatusNotCalled, OutreachStatusNoAnswer, OutreachStatusNeedsMoreInfo,
		OutreachStatusNotInterested, OutreachStatusWillSwitch, OutreachStatusForwardedToBroker,
		OutreachStatusWrongNumber, OutreachStatusCompleted, OutreachStatusUnableToComplete:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status freezes the patient's routing state.
// A terminal patient still accumulates call history but its status no longer
// follows dispositions until explicitly reopened.
func (s OutreachStatus) IsTerminal() bool {
	switch s {
	case OutreachStatusForwardedToBroker, OutreachStatusCompleted, OutreachStatusUnableToComplete:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for OutreachStatus
func (s *OutreachStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = OutreachStatus(v)
	case []byte:
		*s = OutreachStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into OutreachStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for OutreachStatus
func (s OutreachStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid OutreachStatus: %s", s)
	}
	return string(s), nil
}

// DisplayName returns a human-readable status name
func (s OutreachStatus) DisplayName() string {
	switch s {
	case OutreachStatusNotCalled:
		return "Not Called"
	case OutreachStatusNoAnswer:
		return "No Answer"
	case OutreachStatusNeedsMoreInfo:
		return "Needs More Info"
	case OutreachStatusNotInterested:
		return "Not Interested"
	case OutreachStatusWillSwitch:
		return "Will Switch"
	case OutreachStatusForwardedToBroker:
		return "Forwarded to Broker"
	case OutreachStatusWrongNumber:
		return "Wrong Number"
	case OutreachStatusCompleted:
		return "Completed"
	case OutreachStatusUnableToComplete:
		return "Unable to Complete"
	default:
		return "Unknown"
	}
}

// Color returns a color code for the status (for UI purposes)
func (s OutreachStatus) Color() string {
	switch s {
	case OutreachStatusNotCalled:
		return "#6c757d" // gray
	case OutreachStatusNoAnswer, OutreachStatusNeedsMoreInfo:
		return "#ffc107" // yellow
	case OutreachStatusNotInterested, OutreachStatusWrongNumber:
		return "#dc3545" // red
	case OutreachStatusWillSwitch:
		return "#28a745" // green
	case OutreachStatusForwardedToBroker:
		return "#007bff" // blue
	case OutreachStatusCompleted:
		return "#155724" // dark green
	case OutreachStatusUnableToComplete:
		return "#721c24" // dark red
	default:
		return "#6c757d" // gray
	}
}

// AllOutreachStatuses lists every status in display order. Report buckets
// iterate this so that every status appears even when its count is zero.
func AllOutreachStatuses() []OutreachStatus {
	return []OutreachStatus{
		OutreachStatusNotCalled,
		OutreachStatusNoAnswer,
		OutreachStatusNeedsMoreInfo,
		OutreachStatusNotInterested,
		OutreachStatusWillSwitch,
		OutreachStatusForwardedToBroker,
		OutreachStatusWrongNumber,
		OutreachStatusCompleted,
		OutreachStatusUnableToComplete,
	}
}

// Disposition represents the outcome code a staff member records for one call attempt
type Disposition string

const (
	DispositionNoAnswer      Disposition = "no_answer"
	DispositionVoicemail     Disposition = "voicemail"
	DispositionNeedsMoreInfo Disposition = "needs_more_info"
	DispositionNotInterested Disposition = "not_interested"
	DispositionWillSwitch    Disposition = "will_switch"
	DispositionWrongNumber   Disposition = "wrong_number"
	DispositionDisconnected  Disposition = "disconnected"
)

// String returns the string representation of the disposition
func (d Disposition) String() string {
	return string(d)
}

// Valid checks if the disposition is valid
func (d Disposition) Valid() bool {
	_, ok := dispositionStatus[d]
	return ok
}

// Scan implements the sql.Scanner interface for Disposition
func (d *Disposition) Scan(value any) error {
	if value == nil {
		*d = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*d = Disposition(v)
	case []byte:
		*d = Disposition(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Disposition", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for Disposition
func (d Disposition) Value() (driver.Value, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid Disposition: %s", d)
	}
	return string(d), nil
}

// dispositionStatus is the explicit many-to-one mapping from call outcome to
// patient status. Voicemail counts as no answer; a disconnected line counts as
// a wrong number. Everything else maps onto the status of the same name.
var dispositionStatus = map[Disposition]OutreachStatus{
	DispositionNoAnswer:      OutreachStatusNoAnswer,
	DispositionVoicemail:     OutreachStatusNoAnswer,
	DispositionNeedsMoreInfo: OutreachStatusNeedsMoreInfo,
	DispositionNotInterested: OutreachStatusNotInterested,
	DispositionWillSwitch:    OutreachStatusWillSwitch,
	DispositionWrongNumber:   OutreachStatusWrongNumber,
	DispositionDisconnected:  OutreachStatusWrongNumber,
}

// OutreachStatusFor returns the patient status a disposition maps onto.
func (d Disposition) OutreachStatusFor() (OutreachStatus, bool) {
	s, ok := dispositionStatus[d]
	return s, ok
}

// IsPositive reports whether the disposition counts as a positive outcome in
// daily call volume rollups.
func (d Disposition) IsPositive() bool {
	return d == DispositionWillSwitch
}

// BrokerStatus represents a broker's progress note on a forwarded patient
type BrokerStatus string

const (
	BrokerStatusReceived         BrokerStatus = "received"
	BrokerStatusInProgress       BrokerStatus = "in_progress"
	BrokerStatusCompleted        BrokerStatus = "completed"
	BrokerStatusUnableToComplete BrokerStatus = "unable_to_complete"
)

// String returns the string representation of the status
func (s BrokerStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s BrokerStatus) Valid() bool {
	switch s {
	case BrokerStatusReceived, BrokerStatusInProgress,
		BrokerStatusCompleted, BrokerStatusUnableToComplete:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the update resolves the patient. Writing a
// terminal broker update is the only way a patient reaches completed or
// unable_to_complete from the broker side.
func (s BrokerStatus) IsTerminal() bool {
	return s == BrokerStatusCompleted || s == BrokerStatusUnableToComplete
}

// PatientStatusFor returns the patient-level status a terminal broker update
// sets. Received/in_progress updates are informational history only.
func (s BrokerStatus) PatientStatusFor() (OutreachStatus, bool) {
	switch s {
	case BrokerStatusCompleted:
		return OutreachStatusCompleted, true
	case BrokerStatusUnableToComplete:
		return OutreachStatusUnableToComplete, true
	default:
		return "", false
	}
}

// Scan implements the sql.Scanner interface for BrokerStatus
func (s *BrokerStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = BrokerStatus(v)
	case []byte:
		*s = BrokerStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into BrokerStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for BrokerStatus
func (s BrokerStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid BrokerStatus: %s", s)
	}
	return string(s), nil
}

// ProjectStatus represents the lifecycle state of an outreach campaign
type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusPaused    ProjectStatus = "paused"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusArchived  ProjectStatus = "archived"
)

// String returns the string representation of the status
func (s ProjectStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusPaused,
		ProjectStatusCompleted, ProjectStatusArchived:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ProjectStatus
func (s *ProjectStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = ProjectStatus(v)
	case []byte:
		*s = ProjectStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ProjectStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ProjectStatus
func (s ProjectStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ProjectStatus: %s", s)
	}
	return string(s), nil
}
