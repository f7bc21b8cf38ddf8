package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"enrollment_crm_backend/internal/leads/domain"
	"enrollment_crm_backend/internal/leads/repository"
)

// fakeStore is an in-memory Store used by the service tests. It mirrors
// the storage guarantees the real queries provide: at most one active deal
// per lead, stage-guarded updates, and transactional park/restore.
type fakeStore struct {
	mu         sync.Mutex
	leads      map[uuid.UUID]domain.Lead
	deals      map[uuid.UUID]domain.Deal
	waitlist   map[uuid.UUID]domain.WaitingListItem
	activities []domain.Activity

	dealWrites int

	failInsertAfter int // fail batch inserts after this many rows; 0 disables
	failRepair      bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads:    make(map[uuid.UUID]domain.Lead),
		deals:    make(map[uuid.UUID]domain.Deal),
		waitlist: make(map[uuid.UUID]domain.WaitingListItem),
	}
}

func (f *fakeStore) addLead(lead domain.Lead) domain.Lead {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	f.leads[lead.ID] = lead
	return lead
}

func (f *fakeStore) addDeal(deal domain.Deal) domain.Deal {
	if deal.ID == uuid.Nil {
		deal.ID = uuid.New()
	}
	f.deals[deal.ID] = deal
	return deal
}

func (f *fakeStore) CreateLead(_ context.Context, params repository.CreateLeadParams) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addLead(domain.Lead{
		Name:           params.Name,
		Email:          params.Email,
		Phone:          params.Phone,
		Classification: params.Classification,
		DesiredCourse:  params.DesiredCourse,
		OwnerID:        params.OwnerID,
	}), nil
}

func (f *fakeStore) GetLeadByID(_ context.Context, id uuid.UUID) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeStore) ListLeadsByIDs(_ context.Context, ids []uuid.UUID) ([]domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Lead, 0, len(ids))
	for _, id := range ids {
		if lead, ok := f.leads[id]; ok {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateLead(_ context.Context, id uuid.UUID, params repository.UpdateLeadParams) (domain.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return domain.Lead{}, repository.ErrNotFound
	}
	if params.Name != nil {
		lead.Name = *params.Name
	}
	if params.Email != nil {
		lead.Email = *params.Email
	}
	if params.Phone != nil {
		lead.Phone = *params.Phone
	}
	if params.Classification != nil {
		lead.Classification = *params.Classification
	}
	if params.DesiredCourse != nil {
		lead.DesiredCourse = *params.DesiredCourse
	}
	if params.LossReason != nil {
		lead.LossReason = *params.LossReason
	}
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeStore) TouchLeadInteraction(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return repository.ErrNotFound
	}
	if lead.LastInteractionAt == nil || lead.LastInteractionAt.Before(at) {
		lead.LastInteractionAt = &at
	}
	f.leads[id] = lead
	return nil
}

func (f *fakeStore) DeleteLead(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.leads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.leads, id)
	for dealID, deal := range f.deals {
		if deal.LeadID == id {
			delete(f.deals, dealID)
		}
	}
	for itemID, item := range f.waitlist {
		if item.LeadID == id {
			delete(f.waitlist, itemID)
		}
	}
	return nil
}

func (f *fakeStore) ListLeads(_ context.Context, params repository.ListLeadsParams) ([]domain.Lead, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Lead, 0)
	for _, lead := range f.leads {
		if params.OwnerID != nil && lead.OwnerID != *params.OwnerID {
			continue
		}
		out = append(out, lead)
	}
	return out, len(out), nil
}

func (f *fakeStore) GetDealByID(_ context.Context, id uuid.UUID) (domain.Deal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deal, ok := f.deals[id]
	if !ok {
		return domain.Deal{}, repository.ErrNotFound
	}
	return deal, nil
}

func (f *fakeStore) ListDealsByLeadIDs(_ context.Context, leadIDs []uuid.UUID) ([]domain.Deal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(leadIDs))
	for _, id := range leadIDs {
		wanted[id] = true
	}
	out := make([]domain.Deal, 0)
	for _, deal := range f.deals {
		if wanted[deal.LeadID] {
			out = append(out, deal)
		}
	}
	return out, nil
}

func (f *fakeStore) ListDealsByOwner(_ context.Context, ownerID uuid.UUID) ([]domain.Deal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Deal, 0)
	for _, deal := range f.deals {
		if deal.OwnerID == ownerID && domain.IsKnownStage(deal.Stage) && !domain.Stage(deal.Stage).IsTerminal() {
			out = append(out, deal)
		}
	}
	return out, nil
}

func (f *fakeStore) hasActiveDeal(leadID uuid.UUID) bool {
	for _, deal := range f.deals {
		if deal.LeadID != leadID {
			continue
		}
		if stage, err := domain.ParseStage(deal.Stage); err != nil || !stage.IsTerminal() {
			return true
		}
	}
	return false
}

func (f *fakeStore) InsertDealIfMissing(_ context.Context, params repository.CreateDealParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasActiveDeal(params.LeadID) {
		return false, nil
	}
	f.dealWrites++
	f.addDeal(domain.Deal{
		LeadID:            params.LeadID,
		Title:             params.Title,
		Value:             params.Value,
		Stage:             string(params.Stage),
		Probability:       params.Probability,
		ExpectedCloseDate: params.ExpectedCloseDate,
		OwnerID:           params.OwnerID,
		StageChangedAt:    time.Now(),
	})
	return true, nil
}

func (f *fakeStore) InsertDealsIfMissing(ctx context.Context, batch []repository.CreateDealParams) (map[uuid.UUID]bool, error) {
	inserted := make(map[uuid.UUID]bool, len(batch))
	for i, params := range batch {
		if f.failInsertAfter > 0 && i >= f.failInsertAfter {
			return inserted, errors.New("insert failed")
		}
		ok, err := f.InsertDealIfMissing(ctx, params)
		if err != nil {
			return inserted, err
		}
		inserted[params.LeadID] = ok
	}
	return inserted, nil
}

func (f *fakeStore) RepairCorruptedStages(_ context.Context, dealIDs []uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failRepair {
		return nil, errors.New("repair failed")
	}
	repaired := make([]uuid.UUID, 0, len(dealIDs))
	for _, id := range dealIDs {
		deal, ok := f.deals[id]
		if !ok || domain.IsKnownStage(deal.Stage) {
			continue
		}
		deal.Stage = string(domain.StageNew)
		deal.StageChangedAt = time.Now()
		f.deals[id] = deal
		f.dealWrites++
		repaired = append(repaired, id)
	}
	return repaired, nil
}

func (f *fakeStore) UpdateDealStage(_ context.Context, params repository.UpdateDealStageParams) (domain.Deal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deal, ok := f.deals[params.DealID]
	if !ok {
		return domain.Deal{}, repository.ErrNotFound
	}
	if stage, err := domain.ParseStage(deal.Stage); err == nil && stage.IsTerminal() {
		return domain.Deal{}, repository.ErrNotFound
	}
	deal.Stage = string(params.Stage)
	deal.LossReason = params.LossReason
	deal.StageChangedAt = time.Now()
	f.deals[params.DealID] = deal
	f.dealWrites++
	return deal, nil
}

func (f *fakeStore) ListStaleActiveDeals(_ context.Context, cutoff time.Time, limit int) ([]repository.StaleDeal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.StaleDeal, 0)
	for _, deal := range f.deals {
		if stage, err := domain.ParseStage(deal.Stage); err == nil && stage.IsTerminal() {
			continue
		}
		lead, ok := f.leads[deal.LeadID]
		if !ok {
			continue
		}
		onWaitlist := false
		for _, item := range f.waitlist {
			if item.LeadID == deal.LeadID {
				onWaitlist = true
			}
		}
		if onWaitlist {
			continue
		}
		last := lead.CreatedAt
		if lead.LastInteractionAt != nil {
			last = *lead.LastInteractionAt
		}
		if last.Before(cutoff) && len(out) < limit {
			out = append(out, repository.StaleDeal{
				DealID:            deal.ID,
				LeadID:            deal.LeadID,
				OwnerID:           deal.OwnerID,
				LastInteractionAt: last,
			})
		}
	}
	return out, nil
}

func (f *fakeStore) ArchiveDealAsLost(_ context.Context, dealID, leadID uuid.UUID, reason, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	deal, ok := f.deals[dealID]
	if !ok {
		return repository.ErrNotFound
	}
	if stage, err := domain.ParseStage(deal.Stage); err == nil && stage.IsTerminal() {
		return repository.ErrDealTerminal
	}
	deal.Stage = string(domain.StageLost)
	deal.LossReason = reason
	deal.ArchivedBySystem = true
	f.deals[dealID] = deal

	lead := f.leads[leadID]
	lead.LossReason = reason
	f.leads[leadID] = lead

	f.activities = append(f.activities, domain.Activity{
		ID:      uuid.New(),
		LeadID:  leadID,
		DealID:  &dealID,
		Type:    domain.ActivityStatusChange,
		Content: note,
	})
	return nil
}

func (f *fakeStore) GetWaitlistItemByID(_ context.Context, id uuid.UUID) (domain.WaitingListItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.waitlist[id]
	if !ok {
		return domain.WaitingListItem{}, repository.ErrNotFound
	}
	return item, nil
}

func (f *fakeStore) ListWaitlistItems(_ context.Context, ownerID *uuid.UUID) ([]domain.WaitingListItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.WaitingListItem, 0)
	for _, item := range f.waitlist {
		if ownerID != nil && item.OwnerID != *ownerID {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeStore) WaitlistedLeadIDs(_ context.Context, leadIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]bool)
	for _, item := range f.waitlist {
		for _, id := range leadIDs {
			if item.LeadID == id {
				out[id] = true
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ParkDeal(_ context.Context, params repository.ParkDealParams) (domain.WaitingListItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	deal, ok := f.deals[params.DealID]
	if !ok {
		return domain.WaitingListItem{}, repository.ErrNotFound
	}
	if stage, err := domain.ParseStage(deal.Stage); err == nil && stage.IsTerminal() {
		return domain.WaitingListItem{}, repository.ErrDealTerminal
	}
	lead := f.leads[deal.LeadID]
	item := domain.WaitingListItem{
		ID:            uuid.New(),
		LeadID:        deal.LeadID,
		DesiredCourse: lead.DesiredCourse,
		Reason:        params.Reason,
		Notes:         params.Notes,
		OwnerID:       deal.OwnerID,
		ValueSnapshot: deal.Value,
		CreatedAt:     time.Now(),
	}
	f.waitlist[item.ID] = item
	delete(f.deals, params.DealID)
	return item, nil
}

func (f *fakeStore) RestoreDeal(_ context.Context, itemID uuid.UUID, title string, closeDate time.Time) (domain.Deal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.waitlist[itemID]
	if !ok {
		return domain.Deal{}, repository.ErrNotFound
	}
	deal := f.addDeal(domain.Deal{
		LeadID:            item.LeadID,
		Title:             title,
		Value:             item.ValueSnapshot,
		Stage:             string(domain.StageNew),
		Probability:       domain.DefaultDealProbability,
		ExpectedCloseDate: closeDate,
		OwnerID:           item.OwnerID,
		StageChangedAt:    time.Now(),
	})
	delete(f.waitlist, itemID)
	return deal, nil
}

func (f *fakeStore) AppendActivity(_ context.Context, params repository.CreateActivityParams) (domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	activity := domain.Activity{
		ID:        uuid.New(),
		LeadID:    params.LeadID,
		DealID:    params.DealID,
		Type:      params.Type,
		Content:   params.Content,
		ActorID:   params.ActorID,
		CreatedAt: time.Now(),
	}
	f.activities = append(f.activities, activity)
	return activity, nil
}

func (f *fakeStore) ListActivitiesByLead(_ context.Context, leadID uuid.UUID) ([]domain.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Activity, 0)
	for _, activity := range f.activities {
		if activity.LeadID == leadID {
			out = append(out, activity)
		}
	}
	return out, nil
}

func (f *fakeStore) LatestContactAt(_ context.Context, leadIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := make(map[uuid.UUID]bool, len(leadIDs))
	for _, id := range leadIDs {
		wanted[id] = true
	}
	out := make(map[uuid.UUID]time.Time)
	for _, activity := range f.activities {
		if !wanted[activity.LeadID] || !domain.IsHumanContactActivity(activity.Type) {
			continue
		}
		if current, ok := out[activity.LeadID]; !ok || activity.CreatedAt.After(current) {
			out[activity.LeadID] = activity.CreatedAt
		}
	}
	return out, nil
}
