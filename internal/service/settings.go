package service

import (
	"fmt"
	"log/slog"

	"github.com/shantoai/studio/internal/models"
	"github.com/shantoai/studio/internal/state"
)

// SettingsService manages the global settings aggregate and the admin
// overview numbers.
type SettingsService struct {
	log   *slog.Logger
	store *state.Store
}

// Stats is the admin dashboard overview.
type Stats struct {
	TotalUsers      int `json:"totalUsers"`
	PendingPayments int `json:"pendingPayments"`
	TotalRevenue    int `json:"totalRevenue"`
}

func NewSettingsService(log *slog.Logger, store *state.Store) *SettingsService {
	return &SettingsService{log: log, store: store}
}

func (s *SettingsService) Get() models.Settings {
	return s.store.Current().Settings
}

// Update replaces settings wholesale after validating every package.
func (s *SettingsService) Update(settings models.Settings) (models.Settings, error) {
	if settings.PaymentDetails.MethodName == "" {
		return models.Settings{}, fmt.Errorf("payment method name is required")
	}
	if settings.PaymentDetails.AccountNumber == "" {
		return models.Settings{}, fmt.Errorf("payment account number is required")
	}
	seen := make(map[string]bool, len(settings.CreditPackages))
	for _, pkg := range settings.CreditPackages {
		if pkg.ID == "" || pkg.Name == "" {
			return models.Settings{}, fmt.Errorf("package id and name are required")
		}
		if seen[pkg.ID] {
			return models.Settings{}, fmt.Errorf("duplicate package id: %s", pkg.ID)
		}
		seen[pkg.ID] = true
		if pkg.Credits <= 0 {
			return models.Settings{}, fmt.Errorf("package %s: credits must be positive", pkg.ID)
		}
		if pkg.Price < 0 {
			return models.Settings{}, fmt.Errorf("package %s: price must not be negative", pkg.ID)
		}
	}

	snap := s.store.Dispatch(state.UpdateSettings{Settings: settings})
	s.log.Info("settings updated", "packages", len(snap.Settings.CreditPackages))
	return snap.Settings, nil
}

// Users returns all registered accounts with their credential secrets
// stripped, for the admin user-management view.
func (s *SettingsService) Users() []models.User {
	users := s.store.Current().Users
	out := make([]models.User, len(users))
	for i, user := range users {
		user.Password = ""
		out[i] = user
	}
	return out
}

// Overview computes the admin dashboard stats: registered users,
// pending requests and revenue from approved requests (at the price
// snapshotted on each request).
func (s *SettingsService) Overview() Stats {
	snap := s.store.Current()
	stats := Stats{TotalUsers: len(snap.Users)}
	for _, request := range snap.Payments {
		switch request.Status {
		case models.PaymentPending:
			stats.PendingPayments++
		case models.PaymentApproved:
			stats.TotalRevenue += request.PackagePrice
		}
	}
	return stats
}
