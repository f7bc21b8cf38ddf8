package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"enrollment_crm_backend/internal/leads/domain"
	"enrollment_crm_backend/internal/leads/repository"
)

// ReconcileResult summarizes one reconciliation pass.
type ReconcileResult struct {
	ValidLeadIDs []uuid.UUID `json:"validLeadIds"`
	Inserted     int         `json:"inserted"`
	Repaired     int         `json:"repaired"`
}

// Reconcile restores the one-lead-one-deal invariant for a batch of leads.
// Orphaned eligible leads get a deal inserted; deals with corrupted stage
// text are reset to the initial stage. Leads parked on the waiting list are
// consistent by definition and receive nothing.
//
// The returned set contains only leads that are in a valid state after the
// call. A lead whose repair failed is excluded, never reported as valid, so
// callers must check membership rather than the absence of an error. The
// pass is idempotent: re-running it against a consistent batch performs
// zero writes, and the active-deal uniqueness constraint makes concurrent
// runs safe.
func (s *Service) Reconcile(ctx context.Context, leadIDs []uuid.UUID, actorID uuid.UUID) (ReconcileResult, error) {
	result := ReconcileResult{ValidLeadIDs: make([]uuid.UUID, 0, len(leadIDs))}
	if len(leadIDs) == 0 {
		return result, nil
	}

	leads, err := s.store.ListLeadsByIDs(ctx, leadIDs)
	if err != nil {
		return result, mapStoreError(err, "leads")
	}
	deals, err := s.store.ListDealsByLeadIDs(ctx, leadIDs)
	if err != nil {
		return result, mapStoreError(err, "deals")
	}
	waitlisted, err := s.store.WaitlistedLeadIDs(ctx, leadIDs)
	if err != nil {
		return result, mapStoreError(err, "waiting list")
	}

	dealsByLead := make(map[uuid.UUID][]domain.Deal, len(leads))
	for _, deal := range deals {
		dealsByLead[deal.LeadID] = append(dealsByLead[deal.LeadID], deal)
	}

	var (
		validIDs        []uuid.UUID
		orphans         []repository.CreateDealParams
		orphanLeadIDs   []uuid.UUID
		corruptedIDs    []uuid.UUID
		corruptedByLead = make(map[uuid.UUID][]uuid.UUID)
	)

	now := time.Now()
	for _, lead := range leads {
		if waitlisted[lead.ID] {
			validIDs = append(validIDs, lead.ID)
			continue
		}

		leadDeals := dealsByLead[lead.ID]
		if len(leadDeals) == 0 {
			if !domain.EligibleForDeal(lead) {
				// Stays incomplete until an agent fixes its data.
				continue
			}
			orphans = append(orphans, newDealParams(lead, actorID, now))
			orphanLeadIDs = append(orphanLeadIDs, lead.ID)
			continue
		}

		hasValidDeal := false
		for _, deal := range leadDeals {
			if domain.IsKnownStage(deal.Stage) {
				hasValidDeal = true
			} else {
				corruptedIDs = append(corruptedIDs, deal.ID)
				corruptedByLead[lead.ID] = append(corruptedByLead[lead.ID], deal.ID)
			}
		}
		// A lead owning any corrupted deal is settled after the repair
		// below; a parsable deal next to an unrepaired zombie does not
		// make the lead valid.
		if hasValidDeal && len(corruptedByLead[lead.ID]) == 0 {
			validIDs = append(validIDs, lead.ID)
		}
	}

	var (
		insertedByLead map[uuid.UUID]bool
		repairedDeals  []uuid.UUID
	)

	group, groupCtx := errgroup.WithContext(ctx)
	if len(orphans) > 0 {
		group.Go(func() error {
			var insertErr error
			insertedByLead, insertErr = s.store.InsertDealsIfMissing(groupCtx, orphans)
			return insertErr
		})
	}
	if len(corruptedIDs) > 0 {
		group.Go(func() error {
			var repairErr error
			repairedDeals, repairErr = s.store.RepairCorruptedStages(groupCtx, corruptedIDs)
			return repairErr
		})
	}
	writeErr := group.Wait()

	// Partial results still count: a lead whose write landed before the
	// failure is valid, the rest are excluded and retried later.
	for _, leadID := range orphanLeadIDs {
		if _, attempted := insertedByLead[leadID]; attempted {
			// False means a concurrent run inserted first; the lead
			// still ends up with exactly one deal either way.
			validIDs = append(validIDs, leadID)
			if insertedByLead[leadID] {
				result.Inserted++
			}
		}
	}
	repairedSet := make(map[uuid.UUID]bool, len(repairedDeals))
	for _, dealID := range repairedDeals {
		repairedSet[dealID] = true
	}
	result.Repaired = len(repairedSet)
	for leadID, dealIDs := range corruptedByLead {
		allRepaired := true
		for _, dealID := range dealIDs {
			if !repairedSet[dealID] {
				allRepaired = false
				break
			}
		}
		if allRepaired {
			validIDs = append(validIDs, leadID)
		}
	}

	result.ValidLeadIDs = dedupeIDs(validIDs)

	// Write failures surface through exclusion from the valid set, not as
	// an error: the affected leads stay inconsistent and a later pass
	// retries them.
	if writeErr != nil {
		s.log.Error("reconciliation completed with failures", "valid", len(result.ValidLeadIDs), "error", writeErr)
	}
	return result, nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
