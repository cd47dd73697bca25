package consumptionhandler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"leavemgmt/internal/domain/audit"
	"leavemgmt/internal/domain/auth"
	"leavemgmt/internal/domain/consumption"
	"leavemgmt/internal/requestctx"
	"leavemgmt/internal/transport/http/api"
	"leavemgmt/internal/transport/http/middleware"
	"leavemgmt/internal/transport/http/shared"
)

type Handler struct {
	Service *consumption.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *consumption.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave-consumption", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.With(middleware.RequirePermission(auth.PermConsumptionRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermConsumptionRead, h.Perms)).Get("/{recordID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermConsumptionWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermConsumptionWrite, h.Perms)).Put("/{recordID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermConsumptionWrite, h.Perms)).Delete("/{recordID}", h.handleDelete)
	})
}

type createRequest struct {
	UserID         string `json:"user_id" validate:"required"`
	LeaveRequestID string `json:"leave_request_id" validate:"required"`
	LeaveTypeID    string `json:"leave_type_id" validate:"required"`
	DaysConsumed   int    `json:"days_consumed" validate:"required,min=1"`
	DateRecorded   string `json:"date_recorded"`
}

type updateRequest struct {
	LeaveTypeID  *string `json:"leave_type_id" validate:"omitempty,min=1"`
	DaysConsumed *int    `json:"days_consumed" validate:"omitempty,min=1"`
	DateRecorded *string `json:"date_recorded"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	q := r.URL.Query()
	f := consumption.Filter{
		UserID:         strings.TrimSpace(q.Get("user_id")),
		LeaveTypeID:    strings.TrimSpace(q.Get("leave_type_id")),
		LeaveRequestID: strings.TrimSpace(q.Get("leave_request_id")),
	}
	if !auth.CanManage(user.Role) {
		f.UserID = user.UserID
	}

	out, err := h.Service.List(r.Context(), f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	out, err := h.Service.Get(r.Context(), chi.URLParam(r, "recordID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if out.UserID != user.UserID && !auth.CanManage(user.Role) {
		shared.Forbidden(w, middleware.GetRequestID(r.Context()))
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload createRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.InvalidPayload(w, reqID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	var recorded time.Time
	if payload.DateRecorded != "" {
		recorded, _ = v.Date("date_recorded", payload.DateRecorded)
	}
	if v.Reject(w, reqID) {
		return
	}

	created, err := h.Service.Create(r.Context(), consumption.Record{
		UserID:         payload.UserID,
		LeaveRequestID: payload.LeaveRequestID,
		LeaveTypeID:    payload.LeaveTypeID,
		DaysConsumed:   payload.DaysConsumed,
		DateRecorded:   recorded,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Audit.RecordBestEffort(r.Context(), shared.AuditEntry(r, user.UserID, audit.ActionCreate, audit.EntityConsumption, created.ID, nil, created))
	api.Created(w, created, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload updateRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.InvalidPayload(w, reqID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	recorded, _ := v.OptionalDate("date_recorded", payload.DateRecorded)
	if v.Reject(w, reqID) {
		return
	}

	out, err := h.Service.Update(r.Context(), chi.URLParam(r, "recordID"), consumption.Patch{
		LeaveTypeID:  payload.LeaveTypeID,
		DaysConsumed: payload.DaysConsumed,
		DateRecorded: recorded,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Audit.RecordBestEffort(r.Context(), shared.AuditEntry(r, user.UserID, audit.ActionUpdate, audit.EntityConsumption, out.ID, nil, out))
	api.Success(w, out, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	id := chi.URLParam(r, "recordID")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	h.Audit.RecordBestEffort(r.Context(), shared.AuditEntry(r, user.UserID, audit.ActionDelete, audit.EntityConsumption, id, nil, nil))
	api.Success(w, map[string]string{"message": "Leave consumption record deleted successfully"}, middleware.GetRequestID(r.Context()))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, consumption.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "consumption_not_found", "Leave consumption record not found", reqID)
	case errors.Is(err, consumption.ErrInvalidDays), errors.Is(err, consumption.ErrMissingField):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		requestctx.Logger(r.Context()).Error("leave consumption operation failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "consumption_failed", "leave consumption operation failed", reqID)
	}
}
