// Package handler exposes the leads bounded context over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"enrollment_crm_backend/internal/leads/repository"
	"enrollment_crm_backend/internal/leads/service"
	"enrollment_crm_backend/internal/leads/transport"
	"enrollment_crm_backend/internal/scheduler"
	"enrollment_crm_backend/platform/httpkit"
	"enrollment_crm_backend/platform/validator"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

type Handler struct {
	svc   *service.Service
	val   *validator.Validator
	tasks scheduler.TaskScheduler
}

// New builds the handler. tasks may be nil when no queue is configured;
// the archive sweep then runs inline instead of being enqueued.
func New(svc *service.Service, val *validator.Validator, tasks scheduler.TaskScheduler) *Handler {
	return &Handler{svc: svc, val: val, tasks: tasks}
}

// RegisterRoutes mounts the authenticated routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	leads := rg.Group("/leads")
	leads.GET("", h.ListLeads)
	leads.POST("", h.CreateLead)
	leads.POST("/import", h.ImportLeads)
	leads.POST("/reconcile", h.Reconcile)
	leads.GET("/:id", h.GetLead)
	leads.PUT("/:id", h.UpdateLead)
	leads.GET("/:id/status", h.GetLeadStatus)
	leads.GET("/:id/activities", h.ListActivities)
	leads.POST("/:id/activities", h.AddActivity)

	deals := rg.Group("/deals")
	deals.GET("", h.ListDeals)
	deals.PATCH("/:id/stage", h.MoveStage)
	deals.POST("/:id/park", h.ParkDeal)

	waitlist := rg.Group("/waitlist")
	waitlist.GET("", h.ListWaitlist)
	waitlist.POST("/:id/restore", h.RestoreFromWaitlist)

	rg.POST("/classifications/normalize", h.NormalizeClassification)
}

// RegisterAdminRoutes mounts the admin-only routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/leads/:id", h.DeleteLead)
	rg.POST("/archive-sweep", h.RunArchiveSweep)
}

func actorFrom(c *gin.Context) (service.Actor, bool) {
	id := httpkit.MustGetIdentity(c)
	if id == nil {
		return service.Actor{}, false
	}
	return service.Actor{ID: id.UserID(), Admin: id.IsAdmin()}, true
}

func (h *Handler) CreateLead(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.CreateLead(c.Request.Context(), actor, service.CreateLeadInput{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Classification: req.Classification,
		DesiredCourse:  req.DesiredCourse,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.LeadFromDomain(lead))
}

func (h *Handler) GetLead(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	lead, err := h.svc.GetLead(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadFromDomain(lead))
}

func (h *Handler) UpdateLead(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	lead, err := h.svc.UpdateLead(c.Request.Context(), actor, id, service.UpdateLeadInput{
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Classification: req.Classification,
		DesiredCourse:  req.DesiredCourse,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadFromDomain(lead))
}

func (h *Handler) ListLeads(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	params := repository.ListLeadsParams{
		Search:    c.Query("search"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	}
	if raw := c.Query("classification"); raw != "" {
		params.Classification = &raw
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			params.Limit = limit
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil {
			params.Offset = offset
		}
	}

	leads, total, err := h.svc.ListLeads(c.Request.Context(), actor, params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.LeadListResponse{Items: transport.LeadsFromDomain(leads), Total: total})
}

func (h *Handler) DeleteLead(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if httpkit.HandleError(c, h.svc.DeleteLead(c.Request.Context(), actor, id)) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ImportLeads(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req transport.ImportLeadsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	rows := make([]service.ImportRow, len(req.Rows))
	for i, row := range req.Rows {
		rows[i] = service.ImportRow{
			Name:           row.Name,
			Email:          row.Email,
			Phone:          row.Phone,
			Classification: row.Classification,
			DesiredCourse:  row.DesiredCourse,
		}
	}

	result, err := h.svc.BulkImport(c.Request.Context(), actor, rows)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) Reconcile(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	var req transport.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	result, err := h.svc.Reconcile(c.Request.Context(), req.LeadIDs, actor.ID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) GetLeadStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	status, err := h.svc.GetLeadStatus(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, status)
}

func (h *Handler) ListActivities(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	activities, err := h.svc.ListActivities(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.ActivityResponse, len(activities))
	for i, activity := range activities {
		out[i] = transport.ActivityFromDomain(activity)
	}
	httpkit.OK(c, out)
}

func (h *Handler) AddActivity(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.AddActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	activity, err := h.svc.AddActivity(c.Request.Context(), actor, id, req.Type, req.Content)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ActivityFromDomain(activity))
}

func (h *Handler) ListDeals(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	deals, err := h.svc.ListDeals(c.Request.Context(), actor)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.DealsFromDomain(deals))
}

func (h *Handler) MoveStage(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.MoveStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	deal, err := h.svc.MoveStage(c.Request.Context(), actor, service.MoveStageInput{
		DealID:     id,
		ToStage:    req.ToStage,
		LossReason: req.LossReason,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.DealFromDomain(deal))
}

func (h *Handler) ParkDeal(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.ParkDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	item, err := h.svc.MoveToWaitingList(c.Request.Context(), actor, service.MoveToWaitingListInput{
		DealID: id,
		Reason: req.Reason,
		Notes:  req.Notes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.WaitlistItemFromDomain(item))
}

func (h *Handler) ListWaitlist(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	items, err := h.svc.ListWaitingList(c.Request.Context(), actor)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.WaitlistItemResponse, len(items))
	for i, item := range items {
		out[i] = transport.WaitlistItemFromDomain(item)
	}
	httpkit.OK(c, out)
}

func (h *Handler) RestoreFromWaitlist(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	deal, err := h.svc.RestoreFromWaitingList(c.Request.Context(), actor, id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.DealFromDomain(deal))
}

func (h *Handler) NormalizeClassification(c *gin.Context) {
	var req transport.NormalizeClassificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	canonical, valid := h.svc.NormalizeClassification(req.Value)
	httpkit.OK(c, transport.NormalizeClassificationResponse{Canonical: canonical, Valid: valid})
}

func (h *Handler) RunArchiveSweep(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	if h.tasks != nil {
		if err := h.tasks.EnqueueArchiveSweep(c.Request.Context(), actor.ID.String()); err != nil {
			httpkit.Error(c, http.StatusServiceUnavailable, "failed to enqueue archive sweep", err.Error())
			return
		}
		httpkit.JSON(c, http.StatusAccepted, gin.H{"queued": true})
		return
	}

	result, err := h.svc.ArchiveStale(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"scanned": result.Scanned, "archived": result.Archived})
}
