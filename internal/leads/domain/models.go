// Package domain provides core business rules for the leads bounded context.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a prospective student.
type Lead struct {
	ID                uuid.UUID
	Name              string
	Email             string
	Phone             string
	Classification    string
	DesiredCourse     string
	OwnerID           uuid.UUID
	LossReason        string
	LastInteractionAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Deal is the enrollment opportunity tied to exactly one lead.
type Deal struct {
	ID                uuid.UUID
	LeadID            uuid.UUID
	Title             string
	Value             float64
	Stage             string
	Probability       int
	ExpectedCloseDate time.Time
	OwnerID           uuid.UUID
	LossReason        string
	ArchivedBySystem  bool
	StageChangedAt    time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// WaitingListItem is a parked lead pending course capacity.
type WaitingListItem struct {
	ID            uuid.UUID
	LeadID        uuid.UUID
	DesiredCourse string
	Reason        string
	Notes         string
	OwnerID       uuid.UUID
	ValueSnapshot float64
	CreatedAt     time.Time
}

// Activity is an immutable, append-only event attached to a lead.
type Activity struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	DealID    *uuid.UUID
	Type      string
	Content   string
	// ActorID is nil for system-authored entries such as archival records.
	ActorID   *uuid.UUID
	CreatedAt time.Time
}

// Activity types.
const (
	ActivityCall         = "call"
	ActivityEmail        = "email"
	ActivityMeeting      = "meeting"
	ActivityNote         = "note"
	ActivityStatusChange = "status_change"
)

var humanContactActivityTypes = map[string]bool{
	ActivityCall:    true,
	ActivityEmail:   true,
	ActivityMeeting: true,
	ActivityNote:    true,
}

// IsHumanContactActivity reports whether an activity type counts as a real
// agent touch. Status changes are system audit records and never count.
func IsHumanContactActivity(activityType string) bool {
	return humanContactActivityTypes[activityType]
}

// IsKnownActivityType reports whether the type is one of the fixed set.
func IsKnownActivityType(activityType string) bool {
	return humanContactActivityTypes[activityType] || activityType == ActivityStatusChange
}
