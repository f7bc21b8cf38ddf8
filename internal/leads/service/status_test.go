package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"enrollment_crm_backend/internal/leads/domain"
)

func TestGetLeadStatusTerminalDealIsHandled(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := uuid.New()

	lead := store.addLead(eligibleLead(owner))
	store.addDeal(domain.Deal{LeadID: lead.ID, Stage: string(domain.StageWon), OwnerID: owner})

	status, err := svc.GetLeadStatus(context.Background(), Actor{ID: owner}, lead.ID)
	if err != nil {
		t.Fatalf("GetLeadStatus: %v", err)
	}
	if status.SLA.Status != domain.SLAHandled {
		t.Errorf("SLA status = %s, want handled", status.SLA.Status)
	}
	if status.Label != string(domain.StageWon) {
		t.Errorf("label = %q, want Won", status.Label)
	}
}

func TestGetLeadStatusWaitingOverridesDeal(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := uuid.New()

	lead := store.addLead(eligibleLead(owner))
	store.waitlist[uuid.New()] = domain.WaitingListItem{LeadID: lead.ID, OwnerID: owner}

	status, err := svc.GetLeadStatus(context.Background(), Actor{ID: owner}, lead.ID)
	if err != nil {
		t.Fatalf("GetLeadStatus: %v", err)
	}
	if status.SLA.Status != domain.SLAWaiting {
		t.Errorf("SLA status = %s, want waiting", status.SLA.Status)
	}
	if status.Label != domain.LabelWaiting {
		t.Errorf("label = %q, want %q", status.Label, domain.LabelWaiting)
	}
}

func TestGetLeadStatusNoDealIsIncomplete(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := uuid.New()

	lead := store.addLead(eligibleLead(owner))

	status, err := svc.GetLeadStatus(context.Background(), Actor{ID: owner}, lead.ID)
	if err != nil {
		t.Fatalf("GetLeadStatus: %v", err)
	}
	if status.Label != domain.LabelIncomplete {
		t.Errorf("label = %q, want %q", status.Label, domain.LabelIncomplete)
	}
}

func TestGetLeadStatusContactResetsClockButAuditDoesNot(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	owner := uuid.New()
	actor := Actor{ID: owner}

	lead := eligibleLead(owner)
	lead.CreatedAt = time.Now().Add(-48 * time.Hour)
	stored := store.addLead(lead)
	store.addDeal(domain.Deal{LeadID: stored.ID, Stage: string(domain.StageContacted), OwnerID: owner})

	// A fresh call resets the clock.
	store.activities = append(store.activities, domain.Activity{
		LeadID:    stored.ID,
		Type:      domain.ActivityCall,
		CreatedAt: time.Now().Add(-1 * time.Hour),
	})
	status, err := svc.GetLeadStatus(context.Background(), actor, stored.ID)
	if err != nil {
		t.Fatalf("GetLeadStatus: %v", err)
	}
	if status.SLA.Status != domain.SLANormal {
		t.Errorf("after recent call: SLA = %s, want normal", status.SLA.Status)
	}

	// A status change newer than the call must not improve the status.
	store.activities = store.activities[:0]
	store.activities = append(store.activities,
		domain.Activity{LeadID: stored.ID, Type: domain.ActivityCall, CreatedAt: time.Now().Add(-20 * time.Hour)},
		domain.Activity{LeadID: stored.ID, Type: domain.ActivityStatusChange, CreatedAt: time.Now().Add(-5 * time.Minute)},
	)
	status, err = svc.GetLeadStatus(context.Background(), actor, stored.ID)
	if err != nil {
		t.Fatalf("GetLeadStatus: %v", err)
	}
	if status.SLA.Status != domain.SLAOverdue {
		t.Errorf("audit entry masked inaction: SLA = %s, want overdue", status.SLA.Status)
	}
}
