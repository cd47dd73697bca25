package reportshandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"leavemgmt/internal/domain/auth"
	"leavemgmt/internal/domain/reports"
	"leavemgmt/internal/requestctx"
	"leavemgmt/internal/transport/http/api"
	"leavemgmt/internal/transport/http/middleware"
	"leavemgmt/internal/transport/http/shared"
)

type Handler struct {
	Service *reports.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *reports.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead, h.Perms)).Get("/dashboard/employee", h.handleEmployeeDashboard)
		r.With(middleware.RequirePermission(auth.PermLeaveProcess, h.Perms)).Get("/dashboard/manager", h.handleManagerDashboard)
		r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/dashboard/admin", h.handleAdminDashboard)
		r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/jobs", h.handleJobRuns)
		r.With(middleware.RequirePermission(auth.PermAuditRead, h.Perms)).Get("/jobs/{runID}", h.handleJobRun)
	})
}

func (h *Handler) handleEmployeeDashboard(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	out, err := h.Service.EmployeeDashboard(r.Context(), user.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleManagerDashboard(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.ManagerDashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.AdminDashboard(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleJobRuns(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	v := shared.NewValidator()
	from, _ := v.OptionalDate("started_from", optional(q.Get("started_from")))
	to, _ := v.OptionalDate("started_to", optional(q.Get("started_to")))
	if v.Reject(w, reqID) {
		return
	}
	page := shared.ParsePagination(r, 50, 200)

	out, err := h.Service.JobRuns(r.Context(), reports.JobRunFilter{
		JobType:     strings.TrimSpace(q.Get("job_type")),
		Status:      strings.TrimSpace(q.Get("status")),
		StartedFrom: from,
		StartedTo:   to,
	}, page.Limit, page.Offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.SetTotalCount(w, out.Total)
	api.Success(w, out.Items, reqID)
}

func (h *Handler) handleJobRun(w http.ResponseWriter, r *http.Request) {
	out, err := h.Service.JobRun(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, reports.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "user_not_found", "User not found", reqID)
	case errors.Is(err, reports.ErrJobRunNotFound):
		api.Fail(w, http.StatusNotFound, "job_run_not_found", "job run not found", reqID)
	default:
		requestctx.Logger(r.Context()).Error("report query failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "report_failed", "report query failed", reqID)
	}
}
