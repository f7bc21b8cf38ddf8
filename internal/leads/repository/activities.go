package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"enrollment_crm_backend/internal/leads/domain"
)

const activityColumns = `id, lead_id, deal_id, type, content, actor_id, created_at`

type CreateActivityParams struct {
	LeadID  uuid.UUID
	DealID  *uuid.UUID
	Type    string
	Content string
	ActorID *uuid.UUID
}

// AppendActivity records an activity. Activities are append-only; there is
// no update or delete path.
func (r *Repository) AppendActivity(ctx context.Context, params CreateActivityParams) (domain.Activity, error) {
	var activity domain.Activity
	err := r.pool.QueryRow(ctx, `
		INSERT INTO activities (lead_id, deal_id, type, content, actor_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+activityColumns+`
	`, params.LeadID, params.DealID, params.Type, params.Content, params.ActorID).Scan(
		&activity.ID, &activity.LeadID, &activity.DealID, &activity.Type,
		&activity.Content, &activity.ActorID, &activity.CreatedAt,
	)
	return activity, err
}

func (r *Repository) ListActivitiesByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+activityColumns+` FROM activities
		WHERE lead_id = $1
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]domain.Activity, 0)
	for rows.Next() {
		var activity domain.Activity
		if err := rows.Scan(
			&activity.ID, &activity.LeadID, &activity.DealID, &activity.Type,
			&activity.Content, &activity.ActorID, &activity.CreatedAt,
		); err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}

// LatestContactAt returns, per lead, the newest activity timestamp among
// the human-contact types. Status changes are excluded on purpose so that
// automated transitions cannot mask agent inaction.
func (r *Repository) LatestContactAt(ctx context.Context, leadIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lead_id, MAX(created_at)
		FROM activities
		WHERE lead_id = ANY($1)
		  AND type IN ($2, $3, $4, $5)
		GROUP BY lead_id
	`, leadIDs, domain.ActivityCall, domain.ActivityEmail, domain.ActivityMeeting, domain.ActivityNote)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	latest := make(map[uuid.UUID]time.Time)
	for rows.Next() {
		var (
			leadID uuid.UUID
			at     time.Time
		)
		if err := rows.Scan(&leadID, &at); err != nil {
			return nil, err
		}
		latest[leadID] = at
	}
	return latest, rows.Err()
}
