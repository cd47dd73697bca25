package leavetypeshandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"leavemgmt/internal/domain/audit"
	"leavemgmt/internal/domain/auth"
	"leavemgmt/internal/domain/leave"
	"leavemgmt/internal/platform/jobs"
	"leavemgmt/internal/requestctx"
	"leavemgmt/internal/transport/http/api"
	"leavemgmt/internal/transport/http/middleware"
	"leavemgmt/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.TypeService
	Perms   middleware.PermissionStore
	Audit   *audit.Service
	// Jobs and Accrual back the manual accrual trigger; the route is not
	// mounted when either is nil.
	Jobs    *jobs.Service
	Accrual jobs.RunFunc
}

func NewHandler(service *leave.TypeService, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave-types", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{typeID}", h.handleGet)
		r.With(middleware.RequireAuth, middleware.RequirePermission(auth.PermLeaveTypesWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequireAuth, middleware.RequirePermission(auth.PermLeaveTypesWrite, h.Perms)).Put("/{typeID}", h.handleUpdate)
		r.With(middleware.RequireAuth, middleware.RequirePermission(auth.PermLeaveTypesWrite, h.Perms)).Delete("/{typeID}", h.handleDelete)
		if h.Jobs != nil && h.Accrual != nil {
			r.With(middleware.RequireAuth, middleware.RequirePermission(auth.PermLeaveTypesWrite, h.Perms)).Post("/accruals/run", h.handleRunAccrual)
		}
	})
}

type typeRequest struct {
	Name              string               `json:"name" validate:"required,max=100"`
	Description       string               `json:"description" validate:"max=500"`
	PaymentStatus     string               `json:"payment_status" validate:"required,max=50"`
	DurationRules     []leave.DurationRule `json:"duration_rules"`
	Frequency         leave.Frequency      `json:"frequency"`
	BalanceRules      leave.BalanceRules   `json:"balance_rules"`
	RequiredBalanceID string               `json:"required_balance_id"`
	RequiresProof     bool                 `json:"requires_proof"`
}

func (p typeRequest) toType() leave.LeaveType {
	return leave.LeaveType{
		Name:              p.Name,
		Description:       p.Description,
		PaymentStatus:     p.PaymentStatus,
		DurationRules:     p.DurationRules,
		Frequency:         leave.Frequency{Type: strings.ToLower(strings.TrimSpace(p.Frequency.Type)), Limit: p.Frequency.Limit, DaysPerPeriod: p.Frequency.DaysPerPeriod},
		BalanceRules:      p.BalanceRules,
		RequiredBalanceID: p.RequiredBalanceID,
		RequiresProof:     p.RequiresProof,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.Get(r.Context(), chi.URLParam(r, "typeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (leave.LeaveType, bool) {
	reqID := middleware.GetRequestID(r.Context())
	var payload typeRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.InvalidPayload(w, reqID)
		return leave.LeaveType{}, false
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return leave.LeaveType{}, false
	}
	return payload.toType(), true
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.Service.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Audit.RecordBestEffort(r.Context(), shared.AuditEntry(r, user.UserID, audit.ActionCreate, audit.EntityLeaveType, created.ID, nil, created))
	api.Created(w, created, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	in, ok := h.decode(w, r)
	if !ok {
		return
	}
	before, after, err := h.Service.Update(r.Context(), chi.URLParam(r, "typeID"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Audit.RecordBestEffort(r.Context(), shared.AuditEntry(r, user.UserID, audit.ActionUpdate, audit.EntityLeaveType, after.ID, before, after))
	api.Success(w, after, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	removed, err := h.Service.Delete(r.Context(), chi.URLParam(r, "typeID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Audit.RecordBestEffort(r.Context(), shared.AuditEntry(r, user.UserID, audit.ActionDelete, audit.EntityLeaveType, removed.ID, removed, nil))
	api.Success(w, map[string]string{"message": "Leave type deleted successfully"}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleRunAccrual(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	details, err := h.Jobs.RunNow(r.Context(), jobs.JobLeaveAccrual, h.Accrual)
	if err != nil {
		requestctx.Logger(r.Context()).Error("manual accrual failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "accrual_failed", "leave accrual failed", reqID)
		return
	}
	api.Success(w, details, reqID)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, leave.ErrTypeNotFound):
		api.Fail(w, http.StatusNotFound, "leave_type_not_found", "Leave type not found", reqID)
	case errors.Is(err, leave.ErrInvalidLeaveType):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), reqID)
	default:
		requestctx.Logger(r.Context()).Error("leave type operation failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "leave_type_failed", "leave type operation failed", reqID)
	}
}
