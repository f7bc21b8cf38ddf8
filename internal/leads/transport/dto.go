// Package transport defines the request and response DTOs for the leads
// HTTP API.
package transport

import (
	"time"

	"github.com/google/uuid"

	"enrollment_crm_backend/internal/leads/domain"
)

// Request DTOs

type CreateLeadRequest struct {
	Name           string `json:"name" validate:"required,min=1,max=200"`
	Email          string `json:"email,omitempty" validate:"omitempty,max=254"`
	Phone          string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Classification string `json:"classification,omitempty" validate:"omitempty,max=200"`
	DesiredCourse  string `json:"desiredCourse,omitempty" validate:"omitempty,max=200"`
}

type UpdateLeadRequest struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Email          *string `json:"email,omitempty" validate:"omitempty,max=254"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Classification *string `json:"classification,omitempty" validate:"omitempty,max=200"`
	DesiredCourse  *string `json:"desiredCourse,omitempty" validate:"omitempty,max=200"`
}

type ImportLeadsRequest struct {
	Rows []ImportRowRequest `json:"rows" validate:"required,min=1,max=5000,dive"`
}

type ImportRowRequest struct {
	Name           string `json:"name" validate:"max=200"`
	Email          string `json:"email,omitempty" validate:"max=254"`
	Phone          string `json:"phone,omitempty" validate:"max=30"`
	Classification string `json:"classification,omitempty" validate:"max=200"`
	DesiredCourse  string `json:"desiredCourse,omitempty" validate:"max=200"`
}

type ReconcileRequest struct {
	LeadIDs []uuid.UUID `json:"leadIds" validate:"required,min=1,max=5000"`
}

type MoveStageRequest struct {
	ToStage    string `json:"toStage" validate:"required"`
	LossReason string `json:"lossReason,omitempty"`
}

type ParkDealRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=200"`
	Notes  string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type AddActivityRequest struct {
	Type    string `json:"type" validate:"required"`
	Content string `json:"content,omitempty" validate:"omitempty,max=4000"`
}

type NormalizeClassificationRequest struct {
	Value string `json:"value" validate:"required,max=500"`
}

// Response DTOs

type LeadResponse struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email,omitempty"`
	Phone             string     `json:"phone,omitempty"`
	Classification    string     `json:"classification,omitempty"`
	DesiredCourse     string     `json:"desiredCourse,omitempty"`
	OwnerID           uuid.UUID  `json:"ownerId"`
	LossReason        string     `json:"lossReason,omitempty"`
	LastInteractionAt *time.Time `json:"lastInteractionAt,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

func LeadFromDomain(lead domain.Lead) LeadResponse {
	return LeadResponse{
		ID:                lead.ID,
		Name:              lead.Name,
		Email:             lead.Email,
		Phone:             lead.Phone,
		Classification:    lead.Classification,
		DesiredCourse:     lead.DesiredCourse,
		OwnerID:           lead.OwnerID,
		LossReason:        lead.LossReason,
		LastInteractionAt: lead.LastInteractionAt,
		CreatedAt:         lead.CreatedAt,
		UpdatedAt:         lead.UpdatedAt,
	}
}

func LeadsFromDomain(leads []domain.Lead) []LeadResponse {
	out := make([]LeadResponse, len(leads))
	for i, lead := range leads {
		out[i] = LeadFromDomain(lead)
	}
	return out
}

type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
	Total int            `json:"total"`
}

type DealResponse struct {
	ID                uuid.UUID `json:"id"`
	LeadID            uuid.UUID `json:"leadId"`
	Title             string    `json:"title"`
	Value             float64   `json:"value"`
	Stage             string    `json:"stage"`
	Probability       int       `json:"probability"`
	ExpectedCloseDate time.Time `json:"expectedCloseDate"`
	OwnerID           uuid.UUID `json:"ownerId"`
	LossReason        string    `json:"lossReason,omitempty"`
	ArchivedBySystem  bool      `json:"archivedBySystem"`
	StageChangedAt    time.Time `json:"stageChangedAt"`
	CreatedAt         time.Time `json:"createdAt"`
}

func DealFromDomain(deal domain.Deal) DealResponse {
	return DealResponse{
		ID:                deal.ID,
		LeadID:            deal.LeadID,
		Title:             deal.Title,
		Value:             deal.Value,
		Stage:             deal.Stage,
		Probability:       deal.Probability,
		ExpectedCloseDate: deal.ExpectedCloseDate,
		OwnerID:           deal.OwnerID,
		LossReason:        deal.LossReason,
		ArchivedBySystem:  deal.ArchivedBySystem,
		StageChangedAt:    deal.StageChangedAt,
		CreatedAt:         deal.CreatedAt,
	}
}

func DealsFromDomain(deals []domain.Deal) []DealResponse {
	out := make([]DealResponse, len(deals))
	for i, deal := range deals {
		out[i] = DealFromDomain(deal)
	}
	return out
}

type WaitlistItemResponse struct {
	ID            uuid.UUID `json:"id"`
	LeadID        uuid.UUID `json:"leadId"`
	DesiredCourse string    `json:"desiredCourse"`
	Reason        string    `json:"reason"`
	Notes         string    `json:"notes,omitempty"`
	OwnerID       uuid.UUID `json:"ownerId"`
	ValueSnapshot float64   `json:"valueSnapshot"`
	CreatedAt     time.Time `json:"createdAt"`
}

func WaitlistItemFromDomain(item domain.WaitingListItem) WaitlistItemResponse {
	return WaitlistItemResponse{
		ID:            item.ID,
		LeadID:        item.LeadID,
		DesiredCourse: item.DesiredCourse,
		Reason:        item.Reason,
		Notes:         item.Notes,
		OwnerID:       item.OwnerID,
		ValueSnapshot: item.ValueSnapshot,
		CreatedAt:     item.CreatedAt,
	}
}

type ActivityResponse struct {
	ID        uuid.UUID  `json:"id"`
	LeadID    uuid.UUID  `json:"leadId"`
	DealID    *uuid.UUID `json:"dealId,omitempty"`
	Type      string     `json:"type"`
	Content   string     `json:"content,omitempty"`
	ActorID   *uuid.UUID `json:"actorId,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func ActivityFromDomain(activity domain.Activity) ActivityResponse {
	return ActivityResponse{
		ID:        activity.ID,
		LeadID:    activity.LeadID,
		DealID:    activity.DealID,
		Type:      activity.Type,
		Content:   activity.Content,
		ActorID:   activity.ActorID,
		CreatedAt: activity.CreatedAt,
	}
}

type NormalizeClassificationResponse struct {
	Canonical string `json:"canonical,omitempty"`
	Valid     bool   `json:"valid"`
}
