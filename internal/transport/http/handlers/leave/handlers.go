package leavehandler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"leavemgmt/internal/domain/audit"
	"leavemgmt/internal/domain/auth"
	"leavemgmt/internal/domain/leave"
	"leavemgmt/internal/requestctx"
	"leavemgmt/internal/transport/http/api"
	"leavemgmt/internal/transport/http/middleware"
	"leavemgmt/internal/transport/http/shared"
)

type Handler struct {
	Service *leave.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *leave.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave-requests", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermReportsExport, h.Perms)).Get("/export.pdf", h.handleExportPDF)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/{requestNo}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Put("/{requestNo}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite, h.Perms)).Delete("/{requestNo}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermLeaveProcess, h.Perms)).Patch("/{requestNo}/process", h.handleProcess)
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/{requestNo}/holidays", h.handleHolidays)
	})
}

type createRequest struct {
	UserID          string `json:"user_id"`
	EmployeeName    string `json:"employee_name" validate:"max=100"`
	Department      string `json:"department" validate:"max=100"`
	LeaveType       string `json:"leave_type" validate:"required,max=100"`
	StartDate       string `json:"start_date" validate:"required"`
	EndDate         string `json:"end_date" validate:"required"`
	Reason          string `json:"reason" validate:"max=500"`
	SpareEmployeeID string `json:"spare_employee_id"`
}

type updateRequest struct {
	EmployeeName    *string `json:"employee_name" validate:"omitempty,max=100"`
	Department      *string `json:"department" validate:"omitempty,max=100"`
	LeaveType       *string `json:"leave_type" validate:"omitempty,min=1,max=100"`
	StartDate       *string `json:"start_date"`
	EndDate         *string `json:"end_date"`
	Reason          *string `json:"reason" validate:"omitempty,max=500"`
	SpareEmployeeID *string `json:"spare_employee_id"`
}

type processRequest struct {
	Status             string `json:"status" validate:"required"`
	ProcessedBy        string `json:"processed_by" validate:"max=100"`
	ReasonForRejection string `json:"reason_for_rejection" validate:"max=500"`
}

func filterFrom(r *http.Request) leave.RequestFilter {
	q := r.URL.Query()
	return leave.RequestFilter{
		Status:     strings.ToLower(strings.TrimSpace(q.Get("status"))),
		UserID:     strings.TrimSpace(q.Get("user_id")),
		Department: strings.TrimSpace(q.Get("department")),
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	f := filterFrom(r)
	if f.Status != "" && !leave.ValidStatus(f.Status) {
		api.Fail(w, http.StatusBadRequest, "invalid_status", "status must be pending, approved or rejected", reqID)
		return
	}
	page := shared.ParsePagination(r, 50, 200)

	res, err := h.Service.List(r.Context(), user, f, page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.SetTotalCount(w, res.Total)
	api.Success(w, res.Items, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	out, err := h.Service.Get(r.Context(), user, chi.URLParam(r, "requestNo"))
	if err != nil {
		writeError(w, r, err)
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
	var start, end time.Time
	if payload.StartDate != "" {
		start, _ = v.Date("start_date", payload.StartDate)
	}
	if payload.EndDate != "" {
		end, _ = v.Date("end_date", payload.EndDate)
	}
	if v.Reject(w, reqID) {
		return
	}

	created, err := h.Service.Create(r.Context(), user, leave.NewRequest{
		UserID:          payload.UserID,
		EmployeeName:    payload.EmployeeName,
		Department:      payload.Department,
		LeaveType:       payload.LeaveType,
		StartDate:       start,
		EndDate:         end,
		Reason:          payload.Reason,
		SpareEmployeeID: payload.SpareEmployeeID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
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
	start, _ := v.OptionalDate("start_date", payload.StartDate)
	end, _ := v.OptionalDate("end_date", payload.EndDate)
	if v.Reject(w, reqID) {
		return
	}

	before, after, err := h.Service.Update(r.Context(), user, chi.URLParam(r, "requestNo"), leave.RequestPatch{
		EmployeeName:    payload.EmployeeName,
		Department:      payload.Department,
		LeaveType:       payload.LeaveType,
		StartDate:       start,
		EndDate:         end,
		Reason:          payload.Reason,
		SpareEmployeeID: payload.SpareEmployeeID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if after.UserID != user.UserID {
		h.Audit.RecordBestEffort(r.Context(), shared.AuditEntry(r, user.UserID, audit.ActionUpdate, audit.EntityLeaveRequest, after.RequestNo, before, after))
	}
	api.Success(w, after, reqID)
}

func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload processRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.InvalidPayload(w, reqID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}

	out, err := h.Service.Process(r.Context(), user, chi.URLParam(r, "requestNo"), leave.ProcessInput{
		Status:             payload.Status,
		ProcessedBy:        payload.ProcessedBy,
		ReasonForRejection: payload.ReasonForRejection,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Audit.RecordBestEffort(r.Context(), shared.AuditEntry(r, user.UserID, audit.ActionProcess, audit.EntityLeaveRequest, out.RequestNo, nil, out))
	api.Success(w, out, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	removed, err := h.Service.Delete(r.Context(), user, chi.URLParam(r, "requestNo"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if removed.UserID != user.UserID {
		h.Audit.RecordBestEffort(r.Context(), shared.AuditEntry(r, user.UserID, audit.ActionDelete, audit.EntityLeaveRequest, removed.RequestNo, removed, nil))
	}
	api.Success(w, map[string]string{"message": "Leave request deleted successfully"}, reqID)
}

func (h *Handler) handleHolidays(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	out, err := h.Service.HolidayDays(r.Context(), user, chi.URLParam(r, "requestNo"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	f := filterFrom(r)
	if f.Status != "" && !leave.ValidStatus(f.Status) {
		api.Fail(w, http.StatusBadRequest, "invalid_status", "status must be pending, approved or rejected", middleware.GetRequestID(r.Context()))
		return
	}
	out, err := h.Service.ExportPDF(r.Context(), user, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=leave-requests.pdf")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		requestctx.Logger(r.Context()).Warn("pdf write failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	if shared.FailCalendar(w, err, reqID) {
		return
	}
	switch {
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "leave_request_not_found", "Leave request not found", reqID)
	case errors.Is(err, leave.ErrForbidden):
		shared.Forbidden(w, reqID)
	case errors.Is(err, leave.ErrNotPending):
		api.Fail(w, http.StatusConflict, "leave_request_processed", "leave request has already been processed", reqID)
	case errors.Is(err, leave.ErrInvalidStatus):
		api.Fail(w, http.StatusBadRequest, "invalid_status", "Status must be either approved or rejected", reqID)
	case errors.Is(err, leave.ErrLeaveTypeRequired):
		api.Fail(w, http.StatusBadRequest, "validation_error", "leave_type is required", reqID)
	default:
		requestctx.Logger(r.Context()).Error("leave request operation failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "leave_request_failed", "leave request operation failed", reqID)
	}
}
