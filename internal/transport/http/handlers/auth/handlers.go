package authhandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"leavemgmt/internal/domain/audit"
	"leavemgmt/internal/domain/auth"
	"leavemgmt/internal/domain/users"
	"leavemgmt/internal/requestctx"
	"leavemgmt/internal/transport/http/api"
	"leavemgmt/internal/transport/http/middleware"
	"leavemgmt/internal/transport/http/shared"
)

type Handler struct {
	Auth  *auth.Service
	Users *users.Service
	Perms middleware.PermissionStore
	Audit *audit.Service
}

func NewHandler(authSvc *auth.Service, usersSvc *users.Service, perms middleware.PermissionStore, auditSvc *audit.Service) *Handler {
	return &Handler{Auth: authSvc, Users: usersSvc, Perms: perms, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Get("/profile", h.handleGetProfile)
			r.Put("/profile", h.handleUpdateProfile)
			r.Post("/mfa/setup", h.handleMFASetup)
			r.Post("/mfa/enable", h.handleMFAEnable)
			r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/departments", h.handleDepartments)
			r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/departments/{department}/users", h.handleDepartmentUsers)
			r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/users", h.handleListUsers)
			r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Put("/users/{userID}", h.handleUpdateUser)
		})
	})
}

type registerRequest struct {
	Username               string `json:"username" validate:"required,username"`
	Password               string `json:"password" validate:"required,min=6"`
	FullName               string `json:"full_name" validate:"required,min=2,max=100"`
	Email                  string `json:"email" validate:"omitempty,email"`
	Phone                  string `json:"phone" validate:"omitempty,phone"`
	College                string `json:"college" validate:"max=100"`
	Department             string `json:"department" validate:"max=100"`
	AdministrativePosition string `json:"administrative_position" validate:"max=100"`
	Degree                 string `json:"degree" validate:"max=100"`
	Gender                 string `json:"gender" validate:"omitempty,oneof=male female"`
	Role                   string `json:"role" validate:"omitempty,oneof=employee manager admin"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	MFACode  string `json:"mfaCode"`
}

type profileRequest struct {
	FullName               *string               `json:"full_name" validate:"omitempty,min=2,max=100"`
	Email                  *string               `json:"email" validate:"omitempty,email"`
	Phone                  *string               `json:"phone" validate:"omitempty,phone"`
	College                *string               `json:"college" validate:"omitempty,max=100"`
	Department             *string               `json:"department" validate:"omitempty,max=100"`
	AdministrativePosition *string               `json:"administrative_position" validate:"omitempty,max=100"`
	Degree                 *string               `json:"degree" validate:"omitempty,max=100"`
	Gender                 *string               `json:"gender" validate:"omitempty,oneof=male female"`
	Role                   *string               `json:"role" validate:"omitempty,oneof=employee manager admin"`
	LeaveBalances          *[]users.LeaveBalance `json:"leave_balances"`
}

func (p profileRequest) patch() users.Patch {
	return users.Patch{
		FullName:               p.FullName,
		Email:                  p.Email,
		Phone:                  p.Phone,
		College:                p.College,
		Department:             p.Department,
		AdministrativePosition: p.AdministrativePosition,
		Degree:                 p.Degree,
		Gender:                 p.Gender,
		Role:                   p.Role,
		LeaveBalances:          p.LeaveBalances,
	}
}

type mfaCodeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

type registerResponse struct {
	Token string     `json:"token"`
	User  users.User `json:"user"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload registerRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.InvalidPayload(w, reqID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}

	// Anonymous sign-ups are always employees; only admins hand out roles.
	role := auth.RoleEmployee
	if caller, ok := middleware.GetUser(r.Context()); ok && caller.IsAdmin() && payload.Role != "" {
		role = payload.Role
	}

	created, err := h.Users.Register(r.Context(), users.NewUser{
		Username:               payload.Username,
		Password:               payload.Password,
		FullName:               payload.FullName,
		Email:                  payload.Email,
		Phone:                  payload.Phone,
		College:                payload.College,
		Department:             payload.Department,
		AdministrativePosition: payload.AdministrativePosition,
		Degree:                 payload.Degree,
		Gender:                 payload.Gender,
		Role:                   role,
	})
	if err != nil {
		writeUserError(w, r, err)
		return
	}

	token, err := h.Auth.IssueToken(created.ID, created.Username, created.Role)
	if err != nil {
		requestctx.Logger(r.Context()).Error("token issue failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "token_failed", "failed to issue token", reqID)
		return
	}
	api.Created(w, registerResponse{Token: token, User: created}, reqID)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.InvalidPayload(w, reqID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}

	res, err := h.Auth.Login(r.Context(), payload.Username, payload.Password, strings.TrimSpace(payload.MFACode))
	switch {
	case err == nil:
		api.Success(w, res, reqID)
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password", reqID)
	case errors.Is(err, auth.ErrMFARequired):
		api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", reqID)
	case errors.Is(err, auth.ErrInvalidMFACode):
		api.Fail(w, http.StatusUnauthorized, "invalid_mfa", "invalid mfa code", reqID)
	default:
		requestctx.Logger(r.Context()).Error("login failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "login_failed", "login failed", reqID)
	}
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	profile, err := h.Users.Get(r.Context(), user.UserID)
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	api.Success(w, profile, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	h.updateUser(w, r, user, user.UserID)
}

func (h *Handler) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	h.updateUser(w, r, user, chi.URLParam(r, "userID"))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request, actor auth.UserContext, targetID string) {
	reqID := middleware.GetRequestID(r.Context())
	var payload profileRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.InvalidPayload(w, reqID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if payload.LeaveBalances != nil {
		for _, b := range *payload.LeaveBalances {
			if strings.TrimSpace(b.LeaveTypeID) == "" {
				v.Add("leave_balances", "Leave Type Id is required")
			}
			if b.AvailableDays < 0 {
				v.Add("leave_balances", "Available Days must be at least 0")
			}
		}
	}
	if v.Reject(w, reqID) {
		return
	}

	updated, err := h.Users.UpdateProfile(r.Context(), actor, targetID, payload.patch())
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	if actor.UserID != targetID || payload.Role != nil || payload.LeaveBalances != nil {
		h.Audit.RecordBestEffort(r.Context(), shared.AuditEntry(r, actor.UserID, audit.ActionUpdate, audit.EntityUser, targetID, nil, updated))
	}
	api.Success(w, updated, reqID)
}

func (h *Handler) handleMFASetup(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	setup, err := h.Auth.SetupMFA(r.Context(), user.UserID)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	api.Success(w, setup, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleMFAEnable(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload mfaCodeRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.InvalidPayload(w, reqID)
		return
	}
	v := shared.NewValidator()
	v.Struct(payload)
	if v.Reject(w, reqID) {
		return
	}
	if err := h.Auth.EnableMFA(r.Context(), user.UserID, payload.Code); err != nil {
		writeAuthError(w, r, err)
		return
	}
	api.Success(w, map[string]bool{"mfa_enabled": true}, reqID)
}

func (h *Handler) handleDepartments(w http.ResponseWriter, r *http.Request) {
	out, err := h.Users.Departments(r.Context())
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	api.Success(w, out, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleDepartmentUsers(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	list, err := h.Users.ByDepartment(r.Context(), chi.URLParam(r, "department"))
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	users.FilterAll(list, user)
	api.Success(w, list, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	q := r.URL.Query()
	page, perPage := shared.ParsePage(r, 10, 100)
	res, err := h.Users.List(r.Context(), users.Filter{
		Department: q.Get("department"),
		Role:       strings.ToLower(q.Get("role")),
		College:    q.Get("college"),
		Gender:     strings.ToLower(q.Get("gender")),
	}, page, perPage)
	if err != nil {
		writeUserError(w, r, err)
		return
	}
	users.FilterAll(res.Users, user)
	api.Success(w, res, middleware.GetRequestID(r.Context()))
}

func writeUserError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, users.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "user_not_found", "user not found", reqID)
	case errors.Is(err, users.ErrUsernameTaken):
		api.Fail(w, http.StatusConflict, "username_exists", "username already exists", reqID)
	case errors.Is(err, users.ErrForbidden):
		shared.Forbidden(w, reqID)
	case errors.Is(err, users.ErrInvalidRole):
		api.Fail(w, http.StatusBadRequest, "invalid_role", "invalid role", reqID)
	default:
		requestctx.Logger(r.Context()).Error("user operation failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "user_operation_failed", "user operation failed", reqID)
	}
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, auth.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "user_not_found", "user not found", reqID)
	case errors.Is(err, auth.ErrMFANotSetup):
		api.Fail(w, http.StatusBadRequest, "mfa_not_setup", "call /auth/mfa/setup first", reqID)
	case errors.Is(err, auth.ErrInvalidMFACode):
		api.Fail(w, http.StatusBadRequest, "invalid_mfa", "invalid mfa code", reqID)
	default:
		requestctx.Logger(r.Context()).Error("mfa operation failed", zap.Error(err))
		api.Fail(w, http.StatusInternalServerError, "mfa_failed", "mfa operation failed", reqID)
	}
}
