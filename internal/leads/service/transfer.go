package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	domainevents "enrollment_crm_backend/internal/events"
	"enrollment_crm_backend/internal/leads/domain"
	"enrollment_crm_backend/internal/leads/repository"
	"enrollment_crm_backend/platform/apperr"
	"enrollment_crm_backend/platform/events"
)

type MoveToWaitingListInput struct {
	DealID uuid.UUID
	Reason string
	Notes  string
}

// MoveToWaitingList parks an active deal: its lead gets a waiting-list
// entry carrying a value snapshot and the deal disappears from the
// pipeline. The deal is not marked Lost; parking never counts as a loss.
// Both writes happen in one storage transaction, so there is no half-done
// state to compensate for.
func (s *Service) MoveToWaitingList(ctx context.Context, actor Actor, input MoveToWaitingListInput) (domain.WaitingListItem, error) {
	if strings.TrimSpace(input.Reason) == "" {
		return domain.WaitingListItem{}, apperr.Validation("a reason is required to park a deal")
	}

	deal, err := s.store.GetDealByID(ctx, input.DealID)
	if err != nil {
		return domain.WaitingListItem{}, mapStoreError(err, "deal")
	}
	if err := requireOwnership(actor, deal.OwnerID); err != nil {
		return domain.WaitingListItem{}, err
	}

	item, err := s.store.ParkDeal(ctx, repository.ParkDealParams{
		DealID: input.DealID,
		Reason: strings.TrimSpace(input.Reason),
		Notes:  input.Notes,
	})
	if errors.Is(err, repository.ErrDealTerminal) {
		return domain.WaitingListItem{}, apperr.Conflict("a closed deal cannot be parked")
	}
	if err != nil {
		return domain.WaitingListItem{}, mapStoreError(err, "deal")
	}

	actorID := actor.ID
	if _, err := s.store.AppendActivity(ctx, repository.CreateActivityParams{
		LeadID:  item.LeadID,
		Type:    domain.ActivityStatusChange,
		Content: "Moved to waiting list: " + item.Reason,
		ActorID: &actorID,
	}); err != nil {
		s.log.Error("failed to record park activity", "lead_id", item.LeadID, "error", err)
	}

	s.bus.Publish(ctx, domainevents.LeadParked{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        item.LeadID,
		DesiredCourse: item.DesiredCourse,
	})

	return item, nil
}

// RestoreFromWaitingList reopens a parked lead: a fresh deal starts at the
// initial stage with the snapshot value, and the waiting-list entry is
// removed in the same transaction.
func (s *Service) RestoreFromWaitingList(ctx context.Context, actor Actor, itemID uuid.UUID) (domain.Deal, error) {
	item, err := s.store.GetWaitlistItemByID(ctx, itemID)
	if err != nil {
		return domain.Deal{}, mapStoreError(err, "waiting list item")
	}
	if err := requireOwnership(actor, item.OwnerID); err != nil {
		return domain.Deal{}, err
	}

	closeDate := time.Now().AddDate(0, 0, domain.DefaultDealCloseDays)
	deal, err := s.store.RestoreDeal(ctx, item.ID, item.DesiredCourse, closeDate)
	if err != nil {
		return domain.Deal{}, mapStoreError(err, "waiting list item")
	}

	actorID := actor.ID
	if _, err := s.store.AppendActivity(ctx, repository.CreateActivityParams{
		LeadID:  deal.LeadID,
		DealID:  &deal.ID,
		Type:    domain.ActivityStatusChange,
		Content: "Restored from waiting list",
		ActorID: &actorID,
	}); err != nil {
		s.log.Error("failed to record restore activity", "lead_id", deal.LeadID, "error", err)
	}

	s.bus.Publish(ctx, domainevents.LeadRestored{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    deal.LeadID,
		DealID:    deal.ID,
	})

	return deal, nil
}

func (s *Service) ListWaitingList(ctx context.Context, actor Actor) ([]domain.WaitingListItem, error) {
	var ownerID *uuid.UUID
	if !actor.Admin {
		ownerID = &actor.ID
	}
	items, err := s.store.ListWaitlistItems(ctx, ownerID)
	if err != nil {
		return nil, mapStoreError(err, "waiting list")
	}
	return items, nil
}
