package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"enrollment_crm_backend/internal/leads/domain"
)

func TestArchiveStaleClosesOldDeals(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := uuid.New()

	old := time.Now().AddDate(0, 0, -90)
	staleLead := eligibleLead(owner)
	staleLead.CreatedAt = old
	stale := store.addLead(staleLead)
	staleDeal := store.addDeal(domain.Deal{LeadID: stale.ID, Stage: string(domain.StageContacted), OwnerID: owner})

	fresh := store.addLead(eligibleLead(owner))
	freshDeal := store.addDeal(domain.Deal{LeadID: fresh.ID, Stage: string(domain.StageContacted), OwnerID: owner})

	result, err := svc.ArchiveStale(context.Background())
	if err != nil {
		t.Fatalf("ArchiveStale: %v", err)
	}
	if result.Archived != 1 {
		t.Fatalf("archived = %d, want 1", result.Archived)
	}

	archived := store.deals[staleDeal.ID]
	if archived.Stage != string(domain.StageLost) {
		t.Errorf("stale deal stage = %q, want Lost", archived.Stage)
	}
	if archived.LossReason != domain.LossReasonInactivity {
		t.Errorf("loss reason = %q, want %q", archived.LossReason, domain.LossReasonInactivity)
	}
	if !archived.ArchivedBySystem {
		t.Error("system origin must be flagged, not hidden")
	}
	if store.leads[stale.ID].LossReason != domain.LossReasonInactivity {
		t.Error("lead must carry the same loss reason")
	}

	if store.deals[freshDeal.ID].Stage != string(domain.StageContacted) {
		t.Error("fresh deal must be untouched")
	}

	if len(store.activities) != 1 || store.activities[0].Type != domain.ActivityStatusChange {
		t.Fatalf("expected one status-change audit activity, got %d", len(store.activities))
	}
	if store.activities[0].ActorID != nil {
		t.Error("sweep activity must be system-authored")
	}
}

func TestArchiveStaleSkipsWaitlistedLeads(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := uuid.New()

	old := time.Now().AddDate(0, 0, -90)
	lead := eligibleLead(owner)
	lead.CreatedAt = old
	stored := store.addLead(lead)
	deal := store.addDeal(domain.Deal{LeadID: stored.ID, Stage: string(domain.StageNew), OwnerID: owner})
	store.waitlist[uuid.New()] = domain.WaitingListItem{LeadID: stored.ID, OwnerID: owner}

	result, err := svc.ArchiveStale(context.Background())
	if err != nil {
		t.Fatalf("ArchiveStale: %v", err)
	}
	if result.Archived != 0 {
		t.Errorf("archived = %d, want 0", result.Archived)
	}
	if store.deals[deal.ID].Stage != string(domain.StageNew) {
		t.Error("waitlisted lead's deal must not be archived")
	}
}

func TestArchiveStaleUsesLastInteraction(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := uuid.New()

	// Created long ago but touched recently: not stale.
	recent := time.Now().AddDate(0, 0, -5)
	lead := eligibleLead(owner)
	lead.CreatedAt = time.Now().AddDate(0, 0, -90)
	lead.LastInteractionAt = &recent
	stored := store.addLead(lead)
	deal := store.addDeal(domain.Deal{LeadID: stored.ID, Stage: string(domain.StageProposal), OwnerID: owner})

	result, err := svc.ArchiveStale(context.Background())
	if err != nil {
		t.Fatalf("ArchiveStale: %v", err)
	}
	if result.Archived != 0 {
		t.Errorf("archived = %d, want 0", result.Archived)
	}
	if store.deals[deal.ID].Stage != string(domain.StageProposal) {
		t.Error("recently touched deal must stay open")
	}
}
