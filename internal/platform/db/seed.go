package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"leavemgmt/internal/domain/auth"
	"leavemgmt/internal/domain/leave"
	"leavemgmt/internal/domain/users"
	"leavemgmt/internal/platform/config"
	"leavemgmt/internal/platform/querier"
)

// DefaultLeaveTypes are installed on first boot when no type of the same
// name exists yet.
var DefaultLeaveTypes = []leave.LeaveType{
	{
		Name:          "Annual",
		Description:   "Regular paid leave credited every month",
		PaymentStatus: "paid",
		Frequency:     leave.Frequency{Type: leave.FrequencyMonthly, DaysPerPeriod: 1.75},
		BalanceRules:  leave.BalanceRules{IsAccumulative: true},
	},
	{
		Name:          "Study",
		Description:   "From two weeks to two years, paid up to three weeks",
		PaymentStatus: "unpaid",
		DurationRules: []leave.DurationRule{
			{MinDays: 14, MaxDays: 21, PaymentStatus: "paid"},
			{MinDays: 22, MaxDays: 730, PaymentStatus: "unpaid"},
		},
		Frequency:     leave.Frequency{Type: leave.FrequencyLimitedPerLifetime, Limit: 2},
		RequiresProof: true,
	},
	{
		Name:          "Marriage",
		Description:   "Marriage leave",
		PaymentStatus: "paid",
		DurationRules: []leave.DurationRule{{MinDays: 1, MaxDays: 14, PaymentStatus: "paid"}},
		Frequency:     leave.Frequency{Type: leave.FrequencyOncePerLifetime},
		RequiresProof: true,
	},
	{
		Name:          "Sickness",
		Description:   "Sick leave with medical documentation",
		PaymentStatus: "paid",
		Frequency:     leave.Frequency{Type: leave.FrequencyMonthly, DaysPerPeriod: 1},
		RequiresProof: true,
	},
	{
		Name:          "Hajj/Umrah",
		Description:   "Religious pilgrimage leave",
		PaymentStatus: "paid",
		DurationRules: []leave.DurationRule{{MinDays: 1, MaxDays: 30, PaymentStatus: "paid"}},
		Frequency:     leave.Frequency{Type: leave.FrequencyOncePerLifetime},
	},
	{
		Name:          "Day Off",
		Description:   "Personal day off with manager approval",
		PaymentStatus: "unpaid",
		Frequency:     leave.Frequency{Type: leave.FrequencyMonthly},
	},
}

type userRegistrar interface {
	Register(ctx context.Context, in users.NewUser) (users.User, error)
}

type typeSeeder interface {
	FindType(ctx context.Context, idOrName string) (leave.LeaveType, error)
}

type typeCreator interface {
	Create(ctx context.Context, t leave.LeaveType) (leave.LeaveType, error)
}

// Seed installs the bootstrap admin account and the default leave types.
// It is safe to run on every boot.
func Seed(ctx context.Context, db querier.TxBeginner, cfg config.Config, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("db.seed")
	userSvc := users.NewService(users.NewStore(db), logger)
	typeStore := leave.NewStore(db)
	return seed(ctx, userSvc, typeStore, leave.NewTypeService(typeStore, logger), cfg, log)
}

func seed(ctx context.Context, reg userRegistrar, finder typeSeeder, creator typeCreator, cfg config.Config, log *zap.Logger) error {
	if err := ensureAdmin(ctx, reg, cfg.SeedAdminUsername, cfg.SeedAdminPassword, log); err != nil {
		return err
	}
	for _, lt := range DefaultLeaveTypes {
		_, err := finder.FindType(ctx, lt.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, leave.ErrTypeNotFound) {
			return fmt.Errorf("lookup leave type %q: %w", lt.Name, err)
		}
		if _, err := creator.Create(ctx, lt); err != nil {
			return fmt.Errorf("seed leave type %q: %w", lt.Name, err)
		}
		log.Info("seeded leave type", zap.String("name", lt.Name))
	}
	return nil
}

func ensureAdmin(ctx context.Context, reg userRegistrar, username, password string, log *zap.Logger) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		log.Debug("admin seed skipped, credentials not configured")
		return nil
	}
	_, err := reg.Register(ctx, users.NewUser{
		Username: username,
		Password: password,
		FullName: "System Administrator",
		Role:     auth.RoleAdmin,
	})
	if errors.Is(err, users.ErrUsernameTaken) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	log.Info("seeded admin user", zap.String("username", users.NormalizeUsername(username)))
	return nil
}
