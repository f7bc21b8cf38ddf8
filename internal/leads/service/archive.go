package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	domainevents "enrollment_crm_backend/internal/events"
	"enrollment_crm_backend/internal/leads/domain"
	"enrollment_crm_backend/internal/leads/repository"
	"enrollment_crm_backend/platform/events"
)

const (
	defaultArchiveThresholdDays = 60
	archiveSweepBatchSize       = 500
)

// SweepResult summarizes one archival pass.
type SweepResult struct {
	Scanned  int
	Archived int
}

// ArchiveStale closes every deal whose lead has been untouched longer than
// the configured threshold. Closed deals move to Lost with the system
// inactivity reason and are flagged as system-archived so downstream loss
// reporting can tell them apart from agent decisions. This is the only path
// that terminates a deal without an explicit agent action; a concurrent
// manual move wins the race and the deal is simply skipped.
func (s *Service) ArchiveStale(ctx context.Context) (SweepResult, error) {
	cutoff := time.Now().AddDate(0, 0, -s.archiveThresholdDays)

	stale, err := s.store.ListStaleActiveDeals(ctx, cutoff, archiveSweepBatchSize)
	if err != nil {
		return SweepResult{}, mapStoreError(err, "deals")
	}

	result := SweepResult{Scanned: len(stale)}
	note := fmt.Sprintf("Archived after %d days without interaction", s.archiveThresholdDays)

	for _, deal := range stale {
		err := s.store.ArchiveDealAsLost(ctx, deal.DealID, deal.LeadID, domain.LossReasonInactivity, note)
		if errors.Is(err, repository.ErrDealTerminal) {
			continue
		}
		if err != nil {
			s.log.Error("failed to archive stale deal", "deal_id", deal.DealID, "error", err)
			continue
		}

		result.Archived++
		s.bus.Publish(ctx, domainevents.DealArchived{
			BaseEvent: events.NewBaseEvent(),
			DealID:    deal.DealID,
			LeadID:    deal.LeadID,
			Reason:    domain.LossReasonInactivity,
		})
	}

	return result, nil
}
