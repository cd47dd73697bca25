package notificationshandler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"leavemgmt/internal/domain/auth"
	"leavemgmt/internal/domain/notifications"
	"leavemgmt/internal/requestctx"
	"leavemgmt/internal/transport/http/api"
	"leavemgmt/internal/transport/http/middleware"
	"leavemgmt/internal/transport/http/shared"
)

type Handler struct {
	Service *notifications.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *notifications.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.With(middleware.RequirePermission(auth.PermNotificationsWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermNotificationsRead, h.Perms)).Get("/user/{userID}", h.handleListForUser)
		r.With(middleware.RequirePermission(auth.PermNotificationsRead, h.Perms)).Patch("/user/{userID}/read-all", h.handleMarkAllRead)
		r.With(middleware.RequirePermission(auth.PermNotificationsRead, h.Perms)).Get("/{notificationID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermNotificationsRead, h.Perms)).Patch("/{notificationID}/read", h.handleMarkRead)
		r.With(middleware.RequirePermission(auth.PermNotificationsWrite, h.Perms)).Put("/{notificationID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermNotificationsWrite, h.Perms)).Delete("/{notificationID}", h.handleDelete)
	})
}

type createRequest struct {
	UserID  string `json:"user_id" validate:"required,uuid"`
	Message string `json:"message" validate:"required,max=2000"`
}

type updateRequest struct {
	Message *string `json:"message" validate:"omitempty,max=2000"`
	IsRead  *bool   `json:"is_read"`
}

func canSee(user auth.UserContext, ownerID string) bool {
	return user.UserID == ownerID || auth.CanManage(user.Role)
}

// owned loads a notification and checks the caller may see it, writing the
// error response otherwise.
func (h *Handler) owned(w http.ResponseWriter, r *http.Request) (notifications.Notification, bool) {
	user, _ := middleware.GetUser(r.Context())
	n, err := h.Service.Get(r.Context(), chi.URLParam(r, "notificationID"))
	if err != nil {
		writeError(w, r, err)
		return notifications.Notification{}, false
	}
	if !canSee(user, n.UserID) {
		shared.Forbidden(w, middleware.GetRequestID(r.Context()))
		return notifications.Notification{}, false
	}
	return n, true
}

func (h *Handler) handleListForUser(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")
	if !canSee(user, userID) {
		shared.Forbidden(w, reqID)
		return
	}

	var f notifications.ListFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("is_read")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			api.Fail(w, http.StatusBadRequest, "invalid_filter", "is_read must be true or false", reqID)
			return
		}
		f.IsRead = &parsed
	}

	out, err := h.Service.ListForUser(r.Context(), userID, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, out, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	n, ok := h.owned(w, r)
	if !ok {
		return
	}
	api.Success(w, n, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload createRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.InvalidPayload(w, reqID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}

	created, err := h.Service.Create(r.Context(), payload.UserID, payload.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	n, ok := h.owned(w, r)
	if !ok {
		return
	}
	out, err := h.Service.MarkRead(r.Context(), n.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	userID := chi.URLParam(r, "userID")
	if !canSee(user, userID) {
		shared.Forbidden(w, reqID)
		return
	}
	modified, err := h.Service.MarkAllRead(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, map[string]int64{"modifiedCount": modified}, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload updateRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.InvalidPayload(w, reqID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}

	out, err := h.Service.Update(r.Context(), chi.URLParam(r, "notificationID"), notifications.Patch{
		Message: payload.Message,
		IsRead:  payload.IsRead,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, out, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "notificationID")); err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, map[string]string{"message": "Notification deleted successfully"}, middleware.GetRequestID(r.Context()))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, notifications.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "notification_not_found", "Notification not found", reqID)
	case errors.Is(err, notifications.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "user_not_found", "User not found", reqID)
	case errors.Is(err, notifications.ErrEmptyMessage):
		api.Fail(w, http.StatusBadRequest, "validation_error", "Message is required", reqID)
	default:
		requestctx.Logger(r.Context()).Error("notification operation failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "notification_failed", "notification operation failed", reqID)
	}
}
