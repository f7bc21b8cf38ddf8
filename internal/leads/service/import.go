package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	domainevents "enrollment_crm_backend/internal/events"
	"enrollment_crm_backend/internal/leads/domain"
	"enrollment_crm_backend/internal/leads/repository"
	"enrollment_crm_backend/platform/events"
	"enrollment_crm_backend/platform/phone"
)

// ImportRow is one lead from a bulk upload.
type ImportRow struct {
	Name           string
	Email          string
	Phone          string
	Classification string
	DesiredCourse  string
}

// ImportResult reports what a bulk import did. SkippedRows holds 1-based
// indexes of rows rejected before any write.
type ImportResult struct {
	Imported    int             `json:"imported"`
	SkippedRows []int           `json:"skippedRows,omitempty"`
	LeadIDs     []uuid.UUID     `json:"leadIds"`
	Reconciled  ReconcileResult `json:"reconciled"`
}

// BulkImport stores a batch of leads and immediately reconciles them, so
// every eligible imported lead leaves the call with a deal. Rows without a
// usable name or contact method are skipped, not failed, since imports come
// from messy spreadsheets. Classification text is normalized when it
// matches a category and stored empty otherwise; such leads surface as
// incomplete rather than blocking the rest of the file.
func (s *Service) BulkImport(ctx context.Context, actor Actor, rows []ImportRow) (ImportResult, error) {
	result := ImportResult{LeadIDs: make([]uuid.UUID, 0, len(rows))}

	for i, row := range rows {
		if strings.TrimSpace(row.Name) == "" || !domain.HasValidContact(row.Email, row.Phone) {
			result.SkippedRows = append(result.SkippedRows, i+1)
			continue
		}

		classification := ""
		if canonical, ok := domain.NormalizeClassification(row.Classification); ok {
			classification = canonical
		}

		lead, err := s.store.CreateLead(ctx, repository.CreateLeadParams{
			Name:           strings.TrimSpace(row.Name),
			Email:          strings.TrimSpace(row.Email),
			Phone:          phone.NormalizeE164(row.Phone),
			Classification: classification,
			DesiredCourse:  strings.TrimSpace(row.DesiredCourse),
			OwnerID:        actor.ID,
		})
		if err != nil {
			s.log.Error("bulk import row failed", "row", i+1, "error", err)
			result.SkippedRows = append(result.SkippedRows, i+1)
			continue
		}

		result.Imported++
		result.LeadIDs = append(result.LeadIDs, lead.ID)
	}

	if len(result.LeadIDs) > 0 {
		reconciled, err := s.Reconcile(ctx, result.LeadIDs, actor.ID)
		if err != nil {
			return result, err
		}
		result.Reconciled = reconciled
	}

	s.bus.Publish(ctx, domainevents.LeadBatchImported{
		BaseEvent: events.NewBaseEvent(),
		Imported:  result.Imported,
		Skipped:   len(result.SkippedRows),
		LeadIDs:   result.LeadIDs,
		ActorID:   actor.ID,
	})

	return result, nil
}
