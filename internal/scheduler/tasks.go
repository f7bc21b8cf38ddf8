// Package scheduler provides background task definitions, the queue client
// and the worker that processes them.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskLeadsReconcile = "leads.reconcile"

const TaskDealsArchiveSweep = "deals.archive_sweep"

type LeadsReconcilePayload struct {
	LeadIDs []string `json:"leadIds"`
	ActorID string   `json:"actorId"`
}

type DealsArchiveSweepPayload struct {
	TriggeredBy string `json:"triggeredBy"`
}

func NewLeadsReconcileTask(payload LeadsReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadsReconcile, data), nil
}

func ParseLeadsReconcilePayload(task *asynq.Task) (LeadsReconcilePayload, error) {
	var payload LeadsReconcilePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadsReconcilePayload{}, err
	}
	return payload, nil
}

func NewDealsArchiveSweepTask(payload DealsArchiveSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDealsArchiveSweep, data), nil
}

func ParseDealsArchiveSweepPayload(task *asynq.Task) (DealsArchiveSweepPayload, error) {
	var payload DealsArchiveSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DealsArchiveSweepPayload{}, err
	}
	return payload, nil
}
