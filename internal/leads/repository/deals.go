package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"enrollment_crm_backend/internal/leads/domain"
)

const dealColumns = `id, lead_id, title, value, stage, probability, expected_close_date,
		owner_id, loss_reason, archived_by_system, stage_changed_at, created_at, updated_at`

func scanDeal(row pgx.Row) (domain.Deal, error) {
	var deal domain.Deal
	err := row.Scan(
		&deal.ID, &deal.LeadID, &deal.Title, &deal.Value, &deal.Stage, &deal.Probability,
		&deal.ExpectedCloseDate, &deal.OwnerID, &deal.LossReason, &deal.ArchivedBySystem,
		&deal.StageChangedAt, &deal.CreatedAt, &deal.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Deal{}, ErrNotFound
	}
	return deal, err
}

func (r *Repository) GetDealByID(ctx context.Context, id uuid.UUID) (domain.Deal, error) {
	return scanDeal(r.pool.QueryRow(ctx, `
		SELECT `+dealColumns+` FROM deals WHERE id = $1
	`, id))
}

// ListDealsByLeadIDs returns every deal whose lead is in the given set,
// including deals with corrupted stage values. Stage text is returned as
// stored; callers parse it.
func (r *Repository) ListDealsByLeadIDs(ctx context.Context, leadIDs []uuid.UUID) ([]domain.Deal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+dealColumns+` FROM deals WHERE lead_id = ANY($1)
		ORDER BY created_at ASC
	`, leadIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDeals(rows)
}

// ListDealsByOwner returns the active pipeline for one agent.
func (r *Repository) ListDealsByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Deal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+dealColumns+` FROM deals
		WHERE owner_id = $1 AND stage NOT IN ($2, $3)
		ORDER BY stage_changed_at DESC
	`, ownerID, domain.StageWon, domain.StageLost)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDeals(rows)
}

type CreateDealParams struct {
	LeadID            uuid.UUID
	Title             string
	Value             float64
	Stage             domain.Stage
	Probability       int
	ExpectedCloseDate time.Time
	OwnerID           uuid.UUID
}

// InsertDealIfMissing inserts a deal unless the lead already has an active
// one. The partial unique index on deals(lead_id) makes this an atomic
// check-and-insert, so two concurrent reconciliation runs cannot create
// duplicates. Returns false when the insert was skipped.
func (r *Repository) InsertDealIfMissing(ctx context.Context, params CreateDealParams) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO deals (lead_id, title, value, stage, probability, expected_close_date, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (lead_id) WHERE stage NOT IN ('Won', 'Lost') DO NOTHING
	`, params.LeadID, params.Title, params.Value, params.Stage, params.Probability, params.ExpectedCloseDate, params.OwnerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// InsertDealsIfMissing batch-inserts deals for orphaned leads in a single
// round trip. The result maps each lead to whether its row landed; a false
// entry means another writer won the race, which still leaves the lead with
// a deal.
func (r *Repository) InsertDealsIfMissing(ctx context.Context, batch []CreateDealParams) (map[uuid.UUID]bool, error) {
	pgBatch := &pgx.Batch{}
	for _, params := range batch {
		pgBatch.Queue(`
			INSERT INTO deals (lead_id, title, value, stage, probability, expected_close_date, owner_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (lead_id) WHERE stage NOT IN ('Won', 'Lost') DO NOTHING
		`, params.LeadID, params.Title, params.Value, params.Stage, params.Probability, params.ExpectedCloseDate, params.OwnerID)
	}

	results := r.pool.SendBatch(ctx, pgBatch)
	defer results.Close()

	inserted := make(map[uuid.UUID]bool, len(batch))
	for _, params := range batch {
		tag, err := results.Exec()
		if err != nil {
			return inserted, err
		}
		inserted[params.LeadID] = tag.RowsAffected() == 1
	}

	return inserted, nil
}

// RepairCorruptedStages resets deals with non-canonical stage text back to
// New and stamps a fresh stage-change timestamp. The stage guard makes a
// repeated run a no-op. Returns the ids actually repaired.
func (r *Repository) RepairCorruptedStages(ctx context.Context, dealIDs []uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE deals
		SET stage = $2, stage_changed_at = now(), updated_at = now()
		WHERE id = ANY($1)
		  AND stage NOT IN ('New', 'Contacted', 'Qualified', 'Proposal', 'Decision', 'Won', 'Lost')
		RETURNING id
	`, dealIDs, domain.StageNew)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	repaired := make([]uuid.UUID, 0, len(dealIDs))
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		repaired = append(repaired, id)
	}
	return repaired, rows.Err()
}

type UpdateDealStageParams struct {
	DealID     uuid.UUID
	Stage      domain.Stage
	LossReason string
}

// UpdateDealStage moves a deal to a new stage. The terminal guard is
// enforced in SQL as well, so a race with the archival sweep cannot reopen
// a closed deal.
func (r *Repository) UpdateDealStage(ctx context.Context, params UpdateDealStageParams) (domain.Deal, error) {
	return scanDeal(r.pool.QueryRow(ctx, `
		UPDATE deals
		SET stage = $2, loss_reason = $3, stage_changed_at = now(), updated_at = now()
		WHERE id = $1 AND stage NOT IN ($4, $5)
		RETURNING `+dealColumns+`
	`, params.DealID, params.Stage, params.LossReason, domain.StageWon, domain.StageLost))
}

// StaleDeal pairs a deal with the lead fields the archival sweep needs.
type StaleDeal struct {
	DealID            uuid.UUID
	LeadID            uuid.UUID
	OwnerID           uuid.UUID
	LastInteractionAt time.Time
}

// ListStaleActiveDeals returns non-terminal deals whose lead has not been
// touched since the cutoff and is not parked on the waiting list.
func (r *Repository) ListStaleActiveDeals(ctx context.Context, cutoff time.Time, limit int) ([]StaleDeal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT d.id, d.lead_id, d.owner_id, COALESCE(l.last_interaction_at, l.created_at)
		FROM deals d
		JOIN leads l ON l.id = d.lead_id
		WHERE d.stage NOT IN ($2, $3)
		  AND COALESCE(l.last_interaction_at, l.created_at) < $1
		  AND NOT EXISTS (SELECT 1 FROM waitlist_items w WHERE w.lead_id = d.lead_id)
		ORDER BY COALESCE(l.last_interaction_at, l.created_at) ASC
		LIMIT $4
	`, cutoff, domain.StageWon, domain.StageLost, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stale := make([]StaleDeal, 0)
	for rows.Next() {
		var item StaleDeal
		if err := rows.Scan(&item.DealID, &item.LeadID, &item.OwnerID, &item.LastInteractionAt); err != nil {
			return nil, err
		}
		stale = append(stale, item)
	}
	return stale, rows.Err()
}

// ArchiveDealAsLost closes a stale deal in one transaction: the deal moves
// to Lost flagged as system-archived, the lead is stamped with the same
// reason, and a status-change activity records the action for the audit
// trail.
func (r *Repository) ArchiveDealAsLost(ctx context.Context, dealID, leadID uuid.UUID, reason, note string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE deals
		SET stage = $2, loss_reason = $3, archived_by_system = true, stage_changed_at = now(), updated_at = now()
		WHERE id = $1 AND stage NOT IN ($4, $5)
	`, dealID, domain.StageLost, reason, domain.StageWon, domain.StageLost)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Closed manually between scan and archive. Last write wins.
		return ErrDealTerminal
	}

	if _, err := tx.Exec(ctx, `
		UPDATE leads SET loss_reason = $2, updated_at = now() WHERE id = $1
	`, leadID, reason); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO activities (lead_id, deal_id, type, content, actor_id)
		VALUES ($1, $2, $3, $4, NULL)
	`, leadID, dealID, domain.ActivityStatusChange, note); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func collectDeals(rows pgx.Rows) ([]domain.Deal, error) {
	deals := make([]domain.Deal, 0)
	for rows.Next() {
		var deal domain.Deal
		if err := rows.Scan(
			&deal.ID, &deal.LeadID, &deal.Title, &deal.Value, &deal.Stage, &deal.Probability,
			&deal.ExpectedCloseDate, &deal.OwnerID, &deal.LossReason, &deal.ArchivedBySystem,
			&deal.StageChangedAt, &deal.CreatedAt, &deal.UpdatedAt,
		); err != nil {
			return nil, err
		}
		deals = append(deals, deal)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return deals, nil
}
