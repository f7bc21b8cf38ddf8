// Package events defines the domain events exchanged between modules.
package events

import (
	"github.com/google/uuid"

	"enrollment_crm_backend/platform/events"
)

// Event names.
const (
	LeadCreatedName       = "lead.created"
	LeadBatchImportedName = "lead.batch_imported"
	LeadParkedName        = "lead.parked"
	LeadRestoredName      = "lead.restored"
	DealStageChangedName  = "deal.stage_changed"
	DealArchivedName      = "deal.archived"
	DealInsertedName      = "deal.inserted"
)

// LeadCreated is published when a single lead is created.
type LeadCreated struct {
	events.BaseEvent
	LeadID  uuid.UUID
	OwnerID uuid.UUID
}

func (LeadCreated) EventName() string { return LeadCreatedName }

// LeadBatchImported is published after a bulk import finishes. LeadIDs
// carries the created leads so a delayed reconciliation retry can be
// scheduled for them.
type LeadBatchImported struct {
	events.BaseEvent
	Imported int
	Skipped  int
	LeadIDs  []uuid.UUID
	ActorID  uuid.UUID
}

func (LeadBatchImported) EventName() string { return LeadBatchImportedName }

// LeadParked is published when a lead moves onto the waiting list.
type LeadParked struct {
	events.BaseEvent
	LeadID        uuid.UUID
	DesiredCourse string
}

func (LeadParked) EventName() string { return LeadParkedName }

// LeadRestored is published when a lead returns from the waiting list.
type LeadRestored struct {
	events.BaseEvent
	LeadID uuid.UUID
	DealID uuid.UUID
}

func (LeadRestored) EventName() string { return LeadRestoredName }

// DealStageChanged is published on every pipeline stage move.
type DealStageChanged struct {
	events.BaseEvent
	DealID    uuid.UUID
	LeadID    uuid.UUID
	FromStage string
	ToStage   string
	ActorID   uuid.UUID
}

func (DealStageChanged) EventName() string { return DealStageChangedName }

// DealArchived is published for each deal closed by the archival sweep.
type DealArchived struct {
	events.BaseEvent
	DealID uuid.UUID
	LeadID uuid.UUID
	Reason string
}

func (DealArchived) EventName() string { return DealArchivedName }

// DealInserted is published when the database notifies a deal insert.
// It originates from the LISTEN/NOTIFY channel, not from application code,
// so it also fires for rows created by migrations or manual SQL.
type DealInserted struct {
	events.BaseEvent
	DealID uuid.UUID
	LeadID uuid.UUID
}

func (DealInserted) EventName() string { return DealInsertedName }
