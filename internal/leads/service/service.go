// Package service implements the business operations for the leads bounded
// context: lead lifecycle, pipeline moves, reconciliation, waiting-list
// transfers and the archival sweep.
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
	"enrollment_crm_backend/platform/logger"
	"enrollment_crm_backend/platform/phone"
)

// Store is the persistence surface the service depends on.
type Store interface {
	CreateLead(ctx context.Context, params repository.CreateLeadParams) (domain.Lead, error)
	GetLeadByID(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	ListLeadsByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Lead, error)
	UpdateLead(ctx context.Context, id uuid.UUID, params repository.UpdateLeadParams) (domain.Lead, error)
	TouchLeadInteraction(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteLead(ctx context.Context, id uuid.UUID) error
	ListLeads(ctx context.Context, params repository.ListLeadsParams) ([]domain.Lead, int, error)

	GetDealByID(ctx context.Context, id uuid.UUID) (domain.Deal, error)
	ListDealsByLeadIDs(ctx context.Context, leadIDs []uuid.UUID) ([]domain.Deal, error)
	ListDealsByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Deal, error)
	InsertDealIfMissing(ctx context.Context, params repository.CreateDealParams) (bool, error)
	InsertDealsIfMissing(ctx context.Context, batch []repository.CreateDealParams) (map[uuid.UUID]bool, error)
	RepairCorruptedStages(ctx context.Context, dealIDs []uuid.UUID) ([]uuid.UUID, error)
	UpdateDealStage(ctx context.Context, params repository.UpdateDealStageParams) (domain.Deal, error)
	ListStaleActiveDeals(ctx context.Context, cutoff time.Time, limit int) ([]repository.StaleDeal, error)
	ArchiveDealAsLost(ctx context.Context, dealID, leadID uuid.UUID, reason, note string) error

	GetWaitlistItemByID(ctx context.Context, id uuid.UUID) (domain.WaitingListItem, error)
	ListWaitlistItems(ctx context.Context, ownerID *uuid.UUID) ([]domain.WaitingListItem, error)
	WaitlistedLeadIDs(ctx context.Context, leadIDs []uuid.UUID) (map[uuid.UUID]bool, error)
	ParkDeal(ctx context.Context, params repository.ParkDealParams) (domain.WaitingListItem, error)
	RestoreDeal(ctx context.Context, itemID uuid.UUID, title string, closeDate time.Time) (domain.Deal, error)

	AppendActivity(ctx context.Context, params repository.CreateActivityParams) (domain.Activity, error)
	ListActivitiesByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Activity, error)
	LatestContactAt(ctx context.Context, leadIDs []uuid.UUID) (map[uuid.UUID]time.Time, error)
}

// Actor identifies who is performing an operation.
type Actor struct {
	ID    uuid.UUID
	Admin bool
}

type Service struct {
	store Store
	bus   events.Bus
	log   *logger.Logger

	slaWarningHours      int
	archiveThresholdDays int
}

func New(store Store, bus events.Bus, log *logger.Logger, slaWarningHours, archiveThresholdDays int) *Service {
	if slaWarningHours <= 0 {
		slaWarningHours = domain.DefaultSLAWarningHours
	}
	if archiveThresholdDays <= 0 {
		archiveThresholdDays = defaultArchiveThresholdDays
	}
	return &Service{
		store:                store,
		bus:                  bus,
		log:                  log,
		slaWarningHours:      slaWarningHours,
		archiveThresholdDays: archiveThresholdDays,
	}
}

type CreateLeadInput struct {
	Name           string
	Email          string
	Phone          string
	Classification string
	DesiredCourse  string
}

// CreateLead stores a new lead and, when it passes the eligibility gate,
// opens its deal right away. Ineligible leads are still stored; they stay
// out of the pipeline until an agent completes their data.
func (s *Service) CreateLead(ctx context.Context, actor Actor, input CreateLeadInput) (domain.Lead, error) {
	if strings.TrimSpace(input.Name) == "" {
		return domain.Lead{}, apperr.Validation("name is required")
	}
	if !domain.HasValidContact(input.Email, input.Phone) {
		return domain.Lead{}, apperr.Validation("a valid email or phone is required")
	}

	classification := ""
	if input.Classification != "" {
		canonical, ok := domain.NormalizeClassification(input.Classification)
		if !ok {
			return domain.Lead{}, apperr.Validation("classification does not match any known category")
		}
		classification = canonical
	}

	lead, err := s.store.CreateLead(ctx, repository.CreateLeadParams{
		Name:           strings.TrimSpace(input.Name),
		Email:          strings.TrimSpace(input.Email),
		Phone:          phone.NormalizeE164(input.Phone),
		Classification: classification,
		DesiredCourse:  strings.TrimSpace(input.DesiredCourse),
		OwnerID:        actor.ID,
	})
	if err != nil {
		return domain.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to create lead", err)
	}

	if domain.EligibleForDeal(lead) {
		if _, err := s.store.InsertDealIfMissing(ctx, newDealParams(lead, actor.ID, time.Now())); err != nil {
			s.log.Error("deal auto-creation failed", "lead_id", lead.ID, "error", err)
		}
	}

	s.bus.Publish(ctx, domainevents.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		OwnerID:   lead.OwnerID,
	})

	return lead, nil
}

func (s *Service) GetLead(ctx context.Context, actor Actor, id uuid.UUID) (domain.Lead, error) {
	lead, err := s.store.GetLeadByID(ctx, id)
	if err != nil {
		return domain.Lead{}, mapStoreError(err, "lead")
	}
	if err := requireOwnership(actor, lead.OwnerID); err != nil {
		return domain.Lead{}, err
	}
	return lead, nil
}

type UpdateLeadInput struct {
	Name           *string
	Email          *string
	Phone          *string
	Classification *string
	DesiredCourse  *string
}

func (s *Service) UpdateLead(ctx context.Context, actor Actor, id uuid.UUID, input UpdateLeadInput) (domain.Lead, error) {
	lead, err := s.GetLead(ctx, actor, id)
	if err != nil {
		return domain.Lead{}, err
	}

	params := repository.UpdateLeadParams{
		Name:          input.Name,
		Email:         input.Email,
		Phone:         input.Phone,
		DesiredCourse: input.DesiredCourse,
	}
	if input.Classification != nil {
		canonical, ok := domain.NormalizeClassification(*input.Classification)
		if !ok {
			return domain.Lead{}, apperr.Validation("classification does not match any known category")
		}
		params.Classification = &canonical
	}

	updated, err := s.store.UpdateLead(ctx, lead.ID, params)
	if err != nil {
		return domain.Lead{}, mapStoreError(err, "lead")
	}
	return updated, nil
}

func (s *Service) ListLeads(ctx context.Context, actor Actor, params repository.ListLeadsParams) ([]domain.Lead, int, error) {
	if !actor.Admin {
		params.OwnerID = &actor.ID
	}
	if params.Limit <= 0 || params.Limit > 200 {
		params.Limit = 50
	}
	return s.store.ListLeads(ctx, params)
}

// DeleteLead hard-deletes a lead with its deal, waiting-list entry and
// activities. Admin only.
func (s *Service) DeleteLead(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !actor.Admin {
		return apperr.Forbidden("only administrators can delete leads")
	}
	if err := s.store.DeleteLead(ctx, id); err != nil {
		return mapStoreError(err, "lead")
	}
	return nil
}

// ListDeals returns the caller's open pipeline.
func (s *Service) ListDeals(ctx context.Context, actor Actor) ([]domain.Deal, error) {
	deals, err := s.store.ListDealsByOwner(ctx, actor.ID)
	if err != nil {
		return nil, mapStoreError(err, "deals")
	}
	return deals, nil
}

// NormalizeClassification exposes the normalizer for preview: callers can
// check what a raw value resolves to without writing anything.
func (s *Service) NormalizeClassification(raw string) (string, bool) {
	return domain.NormalizeClassification(raw)
}

func newDealParams(lead domain.Lead, actorID uuid.UUID, now time.Time) repository.CreateDealParams {
	ownerID := lead.OwnerID
	if ownerID == uuid.Nil {
		ownerID = actorID
	}
	return repository.CreateDealParams{
		LeadID:            lead.ID,
		Title:             lead.DesiredCourse,
		Stage:             domain.StageNew,
		Probability:       domain.DefaultDealProbability,
		ExpectedCloseDate: now.AddDate(0, 0, domain.DefaultDealCloseDays),
		OwnerID:           ownerID,
	}
}

func requireOwnership(actor Actor, ownerID uuid.UUID) error {
	if actor.Admin || actor.ID == ownerID {
		return nil
	}
	return apperr.Forbidden("you do not own this record")
}

func mapStoreError(err error, entity string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(entity + " not found")
	}
	return apperr.Wrap(apperr.KindInternal, "storage failure", err)
}
