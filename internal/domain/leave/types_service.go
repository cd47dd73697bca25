package leave

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

type TypeService struct {
	store TypeStoreAPI
	log   *zap.Logger
}

func NewTypeService(store TypeStoreAPI, logger *zap.Logger) *TypeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TypeService{store: store, log: logger.Named("leave.types")}
}

func normalizeType(t LeaveType) LeaveType {
	t.Name = strings.TrimSpace(t.Name)
	t.Description = strings.TrimSpace(t.Description)
	t.PaymentStatus = strings.TrimSpace(t.PaymentStatus)
	t.RequiredBalanceID = strings.TrimSpace(t.RequiredBalanceID)
	return t
}

func (s *TypeService) List(ctx context.Context) ([]LeaveType, error) {
	return s.store.ListTypes(ctx)
}

func (s *TypeService) Get(ctx context.Context, id string) (LeaveType, error) {
	return s.store.GetType(ctx, id)
}

func (s *TypeService) Create(ctx context.Context, t LeaveType) (LeaveType, error) {
	t = normalizeType(t)
	if err := ValidateLeaveType(t); err != nil {
		return LeaveType{}, err
	}
	created, err := s.store.CreateType(ctx, t)
	if err != nil {
		return LeaveType{}, err
	}
	s.log.Info("leave type created", zap.String("leave_type_id", created.ID), zap.String("name", created.Name))
	return created, nil
}

// Update replaces the stored type with t after validation.
func (s *TypeService) Update(ctx context.Context, id string, t LeaveType) (before, after LeaveType, err error) {
	before, err = s.store.GetType(ctx, id)
	if err != nil {
		return LeaveType{}, LeaveType{}, err
	}
	t = normalizeType(t)
	t.ID = before.ID
	if err := ValidateLeaveType(t); err != nil {
		return LeaveType{}, LeaveType{}, err
	}
	after, err = s.store.UpdateType(ctx, t)
	if err != nil {
		return LeaveType{}, LeaveType{}, err
	}
	return before, after, nil
}

func (s *TypeService) Delete(ctx context.Context, id string) (LeaveType, error) {
	existing, err := s.store.GetType(ctx, id)
	if err != nil {
		return LeaveType{}, err
	}
	if err := s.store.DeleteType(ctx, id); err != nil {
		return LeaveType{}, err
	}
	return existing, nil
}
