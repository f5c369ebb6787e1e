package state

import (
	"encoding/json"
	"fmt"

	"github.com/shantoai/studio/internal/models"
)

// Snapshot is the complete application state at a point in time. Every
// transition produces a fresh Snapshot; the previous one stays valid
// for any reader still holding it.
//
// The ready flag is session-only: it flips when Initialize runs and is
// deliberately excluded from the persisted form.
type Snapshot struct {
	CurrentUser     *models.User            `json:"currentUser"`
	IsAuthenticated bool                    `json:"isAuthenticated"`
	Users           []models.User           `json:"users"`
	Payments        []models.PaymentRequest `json:"payments"`
	Settings        models.Settings         `json:"settings"`

	ready bool
}

// Ready reports whether Initialize has run.
func (s Snapshot) Ready() bool {
	return s.ready
}

// Defaults is the state used when nothing has been persisted yet.
func Defaults() Snapshot {
	return Snapshot{
		Users:    []models.User{},
		Payments: []models.PaymentRequest{},
		Settings: models.Settings{
			PaymentDetails: models.PaymentDetails{
				MethodName:    "Bkash/Nagad",
				AccountNumber: "01700000000",
				QRCodeURL:     "https://i.ibb.co/6rC6sT0/placeholder-qr.png",
			},
			CreditPackages: []models.CreditPackage{
				{ID: "pkg1", Name: "Starter Pack", Credits: 100, Price: 50},
				{ID: "pkg2", Name: "Pro Pack", Credits: 500, Price: 200},
				{ID: "pkg3", Name: "Power User", Credits: 1200, Price: 450},
				{ID: "pkg4", Name: "Enterprise", Credits: 3000, Price: 1000},
			},
		},
	}
}

// clone returns a Snapshot whose slices and CurrentUser are independent
// copies, so applying an action never mutates the input snapshot.
func (s Snapshot) clone() Snapshot {
	next := s
	next.Users = append([]models.User(nil), s.Users...)
	next.Payments = append([]models.PaymentRequest(nil), s.Payments...)
	next.Settings.CreditPackages = append([]models.CreditPackage(nil), s.Settings.CreditPackages...)
	if s.CurrentUser != nil {
		user := *s.CurrentUser
		next.CurrentUser = &user
	}
	return next
}

// Encode serializes the durable form of a snapshot. Session-only
// fields (ready) are unexported and fall out naturally.
func Encode(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode reconstructs a snapshot from its persisted form. Nil slices
// are normalized so a decoded snapshot behaves like a fresh one.
func Decode(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Users == nil {
		s.Users = []models.User{}
	}
	if s.Payments == nil {
		s.Payments = []models.PaymentRequest{}
	}
	return s, nil
}
