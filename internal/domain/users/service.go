package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"leavemgmt/internal/domain/auth"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username already exists")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidRole   = errors.New("invalid role")
)

type Service struct {
	store StoreAPI
	log   *zap.Logger
}

func NewService(store StoreAPI, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, log: logger.Named("users.service")}
}

func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (s *Service) Register(ctx context.Context, in NewUser) (User, error) {
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = auth.RoleEmployee
	}
	if !auth.ValidRole(role) {
		return User{}, ErrInvalidRole
	}

	username := NormalizeUsername(in.Username)
	if _, err := s.store.GetByUsername(ctx, username); err == nil {
		return User{}, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.store.Create(ctx, User{
		Username:               username,
		PasswordHash:           hash,
		FullName:               strings.TrimSpace(in.FullName),
		Email:                  strings.TrimSpace(in.Email),
		Phone:                  strings.TrimSpace(in.Phone),
		College:                strings.TrimSpace(in.College),
		Department:             strings.TrimSpace(in.Department),
		AdministrativePosition: strings.TrimSpace(in.AdministrativePosition),
		Degree:                 strings.TrimSpace(in.Degree),
		Gender:                 strings.ToLower(strings.TrimSpace(in.Gender)),
		Role:                   role,
		LeaveBalances:          in.LeaveBalances,
	})
	if err != nil {
		return User{}, err
	}
	s.log.Info("user registered", zap.String("user_id", created.ID), zap.String("role", created.Role))
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.store.Get(ctx, id)
}

// UpdateProfile applies patch to target. Only admins may change roles or
// edit someone else's profile.
func (s *Service) UpdateProfile(ctx context.Context, actor auth.UserContext, targetID string, patch Patch) (User, error) {
	if actor.UserID != targetID && !actor.IsAdmin() {
		return User{}, ErrForbidden
	}
	if patch.Role != nil {
		if !actor.IsAdmin() {
			return User{}, ErrForbidden
		}
		role := strings.ToLower(strings.TrimSpace(*patch.Role))
		if !auth.ValidRole(role) {
			return User{}, ErrInvalidRole
		}
		patch.Role = &role
	}
	if patch.LeaveBalances != nil && !actor.IsAdmin() {
		return User{}, ErrForbidden
	}

	current, err := s.store.Get(ctx, targetID)
	if err != nil {
		return User{}, err
	}
	patch.Apply(&current)
	return s.store.Update(ctx, current)
}

type ListResult struct {
	Users      []User `json:"users"`
	Pagination Page   `json:"pagination"`
}

func (s *Service) List(ctx context.Context, f Filter, page, perPage int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	var (
		items []User
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = s.store.List(gctx, f, perPage, (page-1)*perPage)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.Count(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return ListResult{}, err
	}
	return ListResult{Users: items, Pagination: NewPage(page, perPage, total)}, nil
}

func (s *Service) Departments(ctx context.Context) ([]DepartmentCount, error) {
	return s.store.Departments(ctx)
}

// ByDepartment returns every user of department, matched case-insensitively.
func (s *Service) ByDepartment(ctx context.Context, department string) ([]User, error) {
	f := Filter{Department: strings.TrimSpace(department)}
	total, err := s.store.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return []User{}, nil
	}
	return s.store.List(ctx, f, total, 0)
}

func (s *Service) AllIDs(ctx context.Context) ([]string, error) {
	return s.store.ListIDs(ctx)
}

// DisplayInfo returns the name and department stamped on leave requests.
func (s *Service) DisplayInfo(ctx context.Context, userID string) (string, string, error) {
	u, err := s.store.Get(ctx, userID)
	if err != nil {
		return "", "", err
	}
	return u.FullName, u.Department, nil
}
