package holidayshandler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"leavemgmt/internal/domain/audit"
	"leavemgmt/internal/domain/auth"
	"leavemgmt/internal/domain/holidays"
	"leavemgmt/internal/requestctx"
	"leavemgmt/internal/transport/http/api"
	"leavemgmt/internal/transport/http/middleware"
	"leavemgmt/internal/transport/http/shared"
)

type Handler struct {
	Service *holidays.Service
	Perms   middleware.PermissionStore
	Audit   *audit.Service
}

func NewHandler(service *holidays.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/holidays", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/check/date", h.handleCheck)
		r.Get("/{holidayID}", h.handleGet)
		r.With(middleware.RequireAuth, middleware.RequirePermission(auth.PermHolidaysWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequireAuth, middleware.RequirePermission(auth.PermHolidaysWrite, h.Perms)).Put("/{holidayID}", h.handleUpdate)
		r.With(middleware.RequireAuth, middleware.RequirePermission(auth.PermHolidaysWrite, h.Perms)).Delete("/{holidayID}", h.handleDelete)
	})
}

type createRequest struct {
	Name      string   `json:"name" validate:"required,max=200"`
	StartDate string   `json:"start_date" validate:"required"`
	EndDate   string   `json:"end_date" validate:"required"`
	ImageURLs []string `json:"image_urls" validate:"omitempty,max=20,dive,url"`
	Message   string   `json:"message" validate:"max=2000"`
}

type updateRequest struct {
	Name      *string   `json:"name" validate:"omitempty,max=200"`
	StartDate *string   `json:"start_date"`
	EndDate   *string   `json:"end_date"`
	ImageURLs *[]string `json:"image_urls"`
	Message   *string   `json:"message" validate:"omitempty,max=2000"`
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
	out, err := h.Service.Get(r.Context(), chi.URLParam(r, "holidayID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	raw := strings.TrimSpace(r.URL.Query().Get("date"))
	if raw == "" {
		api.Fail(w, http.StatusBadRequest, "date_required", "Date parameter is required", reqID)
		return
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "Invalid date format. Use YYYY-MM-DD", reqID)
		return
	}

	out, err := h.Service.Check(r.Context(), date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, out, reqID)
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

	created, err := h.Service.Create(r.Context(), holidays.Holiday{
		Name:      payload.Name,
		StartDate: start,
		EndDate:   end,
		ImageURLs: payload.ImageURLs,
		Message:   strings.TrimSpace(payload.Message),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Audit.RecordBestEffort(r.Context(), shared.AuditEntry(r, user.UserID, audit.ActionCreate, audit.EntityHoliday, created.ID, nil, created))
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
	if payload.ImageURLs != nil {
		for _, u := range *payload.ImageURLs {
			if strings.TrimSpace(u) == "" {
				v.Add("image_urls", "must not contain empty entries")
				break
			}
		}
	}
	if v.Reject(w, reqID) {
		return
	}

	before, after, err := h.Service.Update(r.Context(), chi.URLParam(r, "holidayID"), holidays.Patch{
		Name:      payload.Name,
		StartDate: start,
		EndDate:   end,
		ImageURLs: payload.ImageURLs,
		Message:   payload.Message,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Audit.RecordBestEffort(r.Context(), shared.AuditEntry(r, user.UserID, audit.ActionUpdate, audit.EntityHoliday, after.ID, before, after))
	api.Success(w, after, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	removed, err := h.Service.Delete(r.Context(), chi.URLParam(r, "holidayID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Audit.RecordBestEffort(r.Context(), shared.AuditEntry(r, user.UserID, audit.ActionDelete, audit.EntityHoliday, removed.ID, removed, nil))
	api.Success(w, map[string]string{"message": "Holiday deleted successfully"}, middleware.GetRequestID(r.Context()))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	if shared.FailCalendar(w, err, reqID) {
		return
	}
	switch {
	case errors.Is(err, holidays.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "holiday_not_found", "Holiday not found", reqID)
	case errors.Is(err, holidays.ErrNameRequired):
		api.Fail(w, http.StatusBadRequest, "validation_error", "Name is required", reqID)
	default:
		requestctx.Logger(r.Context()).Error("holiday operation failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "holiday_failed", "holiday operation failed", reqID)
	}
}
