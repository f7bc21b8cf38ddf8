package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"enrollment_crm_backend/internal/leads/domain"
)

const waitlistColumns = `id, lead_id, desired_course, reason, notes, owner_id, value_snapshot, created_at`

func scanWaitlistItem(row pgx.Row) (domain.WaitingListItem, error) {
	var item domain.WaitingListItem
	err := row.Scan(
		&item.ID, &item.LeadID, &item.DesiredCourse, &item.Reason, &item.Notes,
		&item.OwnerID, &item.ValueSnapshot, &item.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WaitingListItem{}, ErrNotFound
	}
	return item, err
}

func (r *Repository) GetWaitlistItemByID(ctx context.Context, id uuid.UUID) (domain.WaitingListItem, error) {
	return scanWaitlistItem(r.pool.QueryRow(ctx, `
		SELECT `+waitlistColumns+` FROM waitlist_items WHERE id = $1
	`, id))
}

func (r *Repository) ListWaitlistItems(ctx context.Context, ownerID *uuid.UUID) ([]domain.WaitingListItem, error) {
	query := `SELECT ` + waitlistColumns + ` FROM waitlist_items ORDER BY created_at ASC`
	args := []interface{}{}
	if ownerID != nil {
		query = `SELECT ` + waitlistColumns + ` FROM waitlist_items WHERE owner_id = $1 ORDER BY created_at ASC`
		args = append(args, *ownerID)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.WaitingListItem, 0)
	for rows.Next() {
		var item domain.WaitingListItem
		if err := rows.Scan(
			&item.ID, &item.LeadID, &item.DesiredCourse, &item.Reason, &item.Notes,
			&item.OwnerID, &item.ValueSnapshot, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// WaitlistedLeadIDs reports which of the given leads currently sit on the
// waiting list.
func (r *Repository) WaitlistedLeadIDs(ctx context.Context, leadIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lead_id FROM waitlist_items WHERE lead_id = ANY($1)
	`, leadIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	waitlisted := make(map[uuid.UUID]bool)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		waitlisted[id] = true
	}
	return waitlisted, rows.Err()
}

type ParkDealParams struct {
	DealID uuid.UUID
	Reason string
	Notes  string
}

// ParkDeal moves a deal onto the waiting list in one transaction: the item
// is inserted with a value snapshot copied from the deal, then the deal row
// is removed. The deal row is locked first so a concurrent stage move
// cannot interleave. Either both writes land or neither does, so no
// compensating cleanup is ever needed.
func (r *Repository) ParkDeal(ctx context.Context, params ParkDealParams) (domain.WaitingListItem, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.WaitingListItem{}, err
	}
	defer tx.Rollback(ctx)

	var (
		leadID        uuid.UUID
		ownerID       uuid.UUID
		value         float64
		stage         string
		desiredCourse string
	)
	err = tx.QueryRow(ctx, `
		SELECT d.lead_id, d.owner_id, d.value, d.stage, l.desired_course
		FROM deals d
		JOIN leads l ON l.id = d.lead_id
		WHERE d.id = $1
		FOR UPDATE OF d
	`, params.DealID).Scan(&leadID, &ownerID, &value, &stage, &desiredCourse)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WaitingListItem{}, ErrNotFound
	}
	if err != nil {
		return domain.WaitingListItem{}, err
	}

	if parsed, parseErr := domain.ParseStage(stage); parseErr == nil && parsed.IsTerminal() {
		return domain.WaitingListItem{}, ErrDealTerminal
	}

	item, err := scanWaitlistItem(tx.QueryRow(ctx, `
		INSERT INTO waitlist_items (lead_id, desired_course, reason, notes, owner_id, value_snapshot)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+waitlistColumns+`
	`, leadID, desiredCourse, params.Reason, params.Notes, ownerID, value))
	if err != nil {
		return domain.WaitingListItem{}, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM deals WHERE id = $1`, params.DealID); err != nil {
		return domain.WaitingListItem{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.WaitingListItem{}, err
	}
	return item, nil
}

// RestoreDeal takes a lead off the waiting list in one transaction: a fresh
// deal opens at the initial stage using the snapshot value, then the item
// is deleted. A dangling deal without a removed item cannot occur because
// both writes share the transaction.
func (r *Repository) RestoreDeal(ctx context.Context, itemID uuid.UUID, title string, closeDate time.Time) (domain.Deal, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Deal{}, err
	}
	defer tx.Rollback(ctx)

	item, err := scanWaitlistItem(tx.QueryRow(ctx, `
		SELECT `+waitlistColumns+` FROM waitlist_items WHERE id = $1 FOR UPDATE
	`, itemID))
	if err != nil {
		return domain.Deal{}, err
	}

	deal, err := scanDeal(tx.QueryRow(ctx, `
		INSERT INTO deals (lead_id, title, value, stage, probability, expected_close_date, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+dealColumns+`
	`, item.LeadID, title, item.ValueSnapshot, domain.StageNew, domain.DefaultDealProbability, closeDate, item.OwnerID))
	if err != nil {
		return domain.Deal{}, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM waitlist_items WHERE id = $1`, itemID); err != nil {
		return domain.Deal{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Deal{}, err
	}
	return deal, nil
}
