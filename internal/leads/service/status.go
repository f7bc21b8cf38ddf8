package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"enrollment_crm_backend/internal/leads/domain"
)

// LeadStatus is the derived view of a single lead: its pipeline label and
// SLA classification, recomputed from a fresh snapshot on every call.
// Nothing here is cached; staleness bugs are not worth the round trips
// saved.
type LeadStatus struct {
	LeadID uuid.UUID        `json:"leadId"`
	Label  string           `json:"label"`
	SLA    domain.SLAResult `json:"sla"`
}

// GetLeadStatus computes the derived label and SLA status for one lead.
func (s *Service) GetLeadStatus(ctx context.Context, actor Actor, leadID uuid.UUID) (LeadStatus, error) {
	lead, err := s.GetLead(ctx, actor, leadID)
	if err != nil {
		return LeadStatus{}, err
	}

	statuses, err := s.leadStatuses(ctx, []domain.Lead{lead})
	if err != nil {
		return LeadStatus{}, err
	}
	return statuses[0], nil
}

// GetLeadStatuses computes derived state for a batch of leads in three
// queries regardless of batch size.
func (s *Service) GetLeadStatuses(ctx context.Context, actor Actor, leadIDs []uuid.UUID) ([]LeadStatus, error) {
	leads, err := s.store.ListLeadsByIDs(ctx, leadIDs)
	if err != nil {
		return nil, mapStoreError(err, "leads")
	}
	visible := make([]domain.Lead, 0, len(leads))
	for _, lead := range leads {
		if actor.Admin || lead.OwnerID == actor.ID {
			visible = append(visible, lead)
		}
	}
	return s.leadStatuses(ctx, visible)
}

func (s *Service) leadStatuses(ctx context.Context, leads []domain.Lead) ([]LeadStatus, error) {
	ids := make([]uuid.UUID, len(leads))
	for i, lead := range leads {
		ids[i] = lead.ID
	}

	deals, err := s.store.ListDealsByLeadIDs(ctx, ids)
	if err != nil {
		return nil, mapStoreError(err, "deals")
	}
	waitlisted, err := s.store.WaitlistedLeadIDs(ctx, ids)
	if err != nil {
		return nil, mapStoreError(err, "waiting list")
	}
	lastContact, err := s.store.LatestContactAt(ctx, ids)
	if err != nil {
		return nil, mapStoreError(err, "activities")
	}

	stagesByLead := make(map[uuid.UUID][]string)
	for _, deal := range deals {
		stagesByLead[deal.LeadID] = append(stagesByLead[deal.LeadID], deal.Stage)
	}

	now := time.Now()
	statuses := make([]LeadStatus, 0, len(leads))
	for _, lead := range leads {
		snapshot := domain.SLASnapshot{
			LeadCreatedAt: lead.CreatedAt,
			OnWaitingList: waitlisted[lead.ID],
		}
		// The SLA view prefers a non-Lost deal, same as the label.
		if stages := stagesByLead[lead.ID]; len(stages) > 0 {
			snapshot.HasDeal = true
			snapshot.DealStage = preferredStage(stages)
		}
		if at, ok := lastContact[lead.ID]; ok {
			contact := at
			snapshot.LastContactAt = &contact
		}

		statuses = append(statuses, LeadStatus{
			LeadID: lead.ID,
			Label:  domain.DeriveLeadLabel(stagesByLead[lead.ID], waitlisted[lead.ID]),
			SLA:    domain.ClassifySLA(snapshot, now, s.slaWarningHours),
		})
	}
	return statuses, nil
}

func preferredStage(stages []string) string {
	fallback := stages[0]
	for _, raw := range stages {
		stage, err := domain.ParseStage(raw)
		if err != nil {
			continue
		}
		if stage != domain.StageLost {
			return raw
		}
		fallback = raw
	}
	return fallback
}
