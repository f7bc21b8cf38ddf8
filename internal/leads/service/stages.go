package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainevents "enrollment_crm_backend/internal/events"
	"enrollment_crm_backend/internal/leads/domain"
	"enrollment_crm_backend/internal/leads/repository"
	"enrollment_crm_backend/platform/apperr"
	"enrollment_crm_backend/platform/events"
)

type MoveStageInput struct {
	DealID     uuid.UUID
	ToStage    string
	LossReason string
}

// MoveStage performs a manual pipeline move. A move to Lost requires one of
// the enumerated loss reasons and stamps it on both the deal and the lead.
// Every move appends a status-change audit activity; those never count as
// agent contact.
func (s *Service) MoveStage(ctx context.Context, actor Actor, input MoveStageInput) (domain.Deal, error) {
	deal, err := s.store.GetDealByID(ctx, input.DealID)
	if err != nil {
		return domain.Deal{}, mapStoreError(err, "deal")
	}
	if err := requireOwnership(actor, deal.OwnerID); err != nil {
		return domain.Deal{}, err
	}

	fromStage, err := domain.ParseStage(deal.Stage)
	if err != nil {
		return domain.Deal{}, apperr.Conflict("deal stage is corrupted, run reconciliation first")
	}

	toStage := domain.Stage(input.ToStage)
	if err := domain.ValidateTransition(fromStage, toStage, input.LossReason); err != nil {
		return domain.Deal{}, apperr.Validation(err.Error())
	}

	lossReason := ""
	if toStage == domain.StageLost {
		lossReason = input.LossReason
	}

	updated, err := s.store.UpdateDealStage(ctx, repository.UpdateDealStageParams{
		DealID:     deal.ID,
		Stage:      toStage,
		LossReason: lossReason,
	})
	if errors.Is(err, repository.ErrNotFound) {
		// The guard in the update matched no row: someone closed the deal
		// between the read and the write.
		return domain.Deal{}, apperr.Conflict("deal was closed concurrently")
	}
	if err != nil {
		return domain.Deal{}, mapStoreError(err, "deal")
	}

	if toStage == domain.StageLost {
		if _, err := s.store.UpdateLead(ctx, deal.LeadID, repository.UpdateLeadParams{LossReason: &lossReason}); err != nil {
			s.log.Error("failed to stamp loss reason on lead", "lead_id", deal.LeadID, "error", err)
		}
	}

	actorID := actor.ID
	if _, err := s.store.AppendActivity(ctx, repository.CreateActivityParams{
		LeadID:  deal.LeadID,
		DealID:  &deal.ID,
		Type:    domain.ActivityStatusChange,
		Content: fmt.Sprintf("Stage changed from %s to %s", fromStage, toStage),
		ActorID: &actorID,
	}); err != nil {
		s.log.Error("failed to record stage change activity", "deal_id", deal.ID, "error", err)
	}

	s.bus.Publish(ctx, domainevents.DealStageChanged{
		BaseEvent: events.NewBaseEvent(),
		DealID:    deal.ID,
		LeadID:    deal.LeadID,
		FromStage: string(fromStage),
		ToStage:   string(toStage),
		ActorID:   actor.ID,
	})

	return updated, nil
}

// AddActivity appends an activity to a lead. Human-contact types also bump
// the lead's last-interaction timestamp, which feeds the SLA clock and the
// archival sweep.
func (s *Service) AddActivity(ctx context.Context, actor Actor, leadID uuid.UUID, activityType, content string) (domain.Activity, error) {
	if !domain.IsKnownActivityType(activityType) {
		return domain.Activity{}, apperr.Validation("unknown activity type")
	}
	if activityType == domain.ActivityStatusChange {
		return domain.Activity{}, apperr.Validation("status changes are recorded by the system, not submitted directly")
	}

	lead, err := s.GetLead(ctx, actor, leadID)
	if err != nil {
		return domain.Activity{}, err
	}

	actorID := actor.ID
	activity, err := s.store.AppendActivity(ctx, repository.CreateActivityParams{
		LeadID:  lead.ID,
		Type:    activityType,
		Content: content,
		ActorID: &actorID,
	})
	if err != nil {
		return domain.Activity{}, mapStoreError(err, "activity")
	}

	if domain.IsHumanContactActivity(activityType) {
		if err := s.store.TouchLeadInteraction(ctx, lead.ID, time.Now()); err != nil {
			s.log.Error("failed to touch lead interaction", "lead_id", lead.ID, "error", err)
		}
	}

	return activity, nil
}

func (s *Service) ListActivities(ctx context.Context, actor Actor, leadID uuid.UUID) ([]domain.Activity, error) {
	if _, err := s.GetLead(ctx, actor, leadID); err != nil {
		return nil, err
	}
	activities, err := s.store.ListActivitiesByLead(ctx, leadID)
	if err != nil {
		return nil, mapStoreError(err, "activities")
	}
	return activities, nil
}
