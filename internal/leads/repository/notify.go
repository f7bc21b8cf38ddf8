package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"enrollment_crm_backend/platform/logger"
)

const dealInsertChannel = "deal_inserted"

type dealInsertPayload struct {
	DealID uuid.UUID `json:"deal_id"`
	LeadID uuid.UUID `json:"lead_id"`
}

// DealInsertListener tails the deal-insert notification channel. A trigger
// fires for every insert into deals, so consumers also see rows created by
// migrations, manual SQL or concurrent sessions.
type DealInsertListener struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewDealInsertListener(pool *pgxpool.Pool, log *logger.Logger) *DealInsertListener {
	return &DealInsertListener{pool: pool, log: log}
}

// Run blocks until ctx is cancelled, invoking handle for every deal insert
// notification. The dedicated connection is released on return.
func (l *DealInsertListener) Run(ctx context.Context, handle func(dealID, leadID uuid.UUID)) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+dealInsertChannel); err != nil {
		return err
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var payload dealInsertPayload
		if err := json.Unmarshal([]byte(notification.Payload), &payload); err != nil {
			l.log.Error("malformed deal insert notification", "payload", notification.Payload, "error", err)
			continue
		}

		handle(payload.DealID, payload.LeadID)
	}
}
