package service

import (
	"log/slog"
	"testing"

	"github.com/shantoai/studio/internal/models"
	"github.com/shantoai/studio/internal/state"
)

func newSettingsFixture(t *testing.T) (*SettingsService, *state.Store) {
	t.Helper()
	store := state.New(slog.Default())
	store.Dispatch(state.Initialize{Snapshot: state.Defaults()})
	return NewSettingsService(slog.Default(), store), store
}

func validSettings() models.Settings {
	return models.Settings{
		PaymentDetails: models.PaymentDetails{
			MethodName:    "Rocket",
			AccountNumber: "018",
			QRCodeURL:     "https://cdn.example.com/qr.png",
		},
		CreditPackages: []models.CreditPackage{
			{ID: "a", Name: "A", Credits: 10, Price: 5},
			{ID: "b", Name: "B", Credits: 20, Price: 0},
		},
	}
}

func TestUpdateSettingsReplaces(t *testing.T) {
	t.Parallel()
	service, store := newSettingsFixture(t)

	updated, err := service.Update(validSettings())
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PaymentDetails.MethodName != "Rocket" {
		t.Fatalf("unexpected settings: %+v", updated)
	}
	if got := store.Current().Settings.CreditPackages; len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("insertion order must be preserved, got %+v", got)
	}
}

func TestUpdateSettingsValidation(t *testing.T) {
	t.Parallel()
	service, store := newSettingsFixture(t)
	before := store.Current().Settings

	cases := []struct {
		name   string
		mutate func(*models.Settings)
	}{
		{"empty method", func(s *models.Settings) { s.PaymentDetails.MethodName = "" }},
		{"empty account", func(s *models.Settings) { s.PaymentDetails.AccountNumber = "" }},
		{"zero credits", func(s *models.Settings) { s.CreditPackages[0].Credits = 0 }},
		{"negative price", func(s *models.Settings) { s.CreditPackages[1].Price = -1 }},
		{"blank name", func(s *models.Settings) { s.CreditPackages[0].Name = "" }},
		{"duplicate id", func(s *models.Settings) { s.CreditPackages[1].ID = "a" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			settings := validSettings()
			tc.mutate(&settings)
			if _, err := service.Update(settings); err == nil {
				t.Fatalf("%s should be rejected", tc.name)
			}
		})
	}

	if got := store.Current().Settings; len(got.CreditPackages) != len(before.CreditPackages) {
		t.Fatal("rejected updates must not change settings")
	}
}

func TestUsersStripCredentials(t *testing.T) {
	t.Parallel()
	service, store := newSettingsFixture(t)
	store.Dispatch(state.Signup{User: models.User{
		ID: "u1", Name: "Shanto", Email: "shanto@example.com", Password: "$argon2id$...", Credits: 10, Role: models.RoleUser,
	}})

	users := service.Users()
	if len(users) != 1 {
		t.Fatalf("expected one user, got %d", len(users))
	}
	if users[0].Password != "" {
		t.Fatal("credential secret must be stripped from the admin view")
	}
	if store.Current().Users[0].Password == "" {
		t.Fatal("stripping must not touch the stored user")
	}
}

func TestOverviewCounts(t *testing.T) {
	t.Parallel()
	service, store := newSettingsFixture(t)
	store.Dispatch(state.Signup{User: models.User{ID: "u1", Email: "a@example.com", Credits: 10, Role: models.RoleUser}})
	store.Dispatch(state.Signup{User: models.User{ID: "u2", Email: "b@example.com", Credits: 10, Role: models.RoleUser}})

	add := func(id string, status models.PaymentStatus, price int) {
		store.Dispatch(state.AddPaymentRequest{Request: models.PaymentRequest{
			ID: id, UserID: "u1", PackageID: "pkg1", PackageCredits: 100, PackagePrice: price, Status: models.PaymentPending,
		}})
		if status != models.PaymentPending {
			store.Dispatch(state.UpdatePaymentStatus{PaymentID: id, Status: status})
		}
	}
	add("p1", models.PaymentApproved, 200)
	add("p2", models.PaymentApproved, 450)
	add("p3", models.PaymentRejected, 50)
	add("p4", models.PaymentPending, 50)

	stats := service.Overview()
	if stats.TotalUsers != 2 {
		t.Fatalf("expected 2 users, got %d", stats.TotalUsers)
	}
	if stats.PendingPayments != 1 {
		t.Fatalf("expected 1 pending, got %d", stats.PendingPayments)
	}
	if stats.TotalRevenue != 650 {
		t.Fatalf("expected revenue 650, got %d", stats.TotalRevenue)
	}
}
