package state

import "github.com/shantoai/studio/internal/models"

// Action is the closed set of state transitions. The interface is
// sealed: every variant lives in this package and carries its own
// apply method, so adding a variant without a handler does not
// compile. Precondition checks (duplicate email, insufficient credits,
// blank fields) belong to the workflows that dispatch actions; the
// reducer itself never fails.
type Action interface {
	apply(Snapshot) Snapshot
}

// Initialize replaces the entire state and marks the store ready.
// Dispatched exactly once at startup, with either a loaded snapshot or
// Defaults().
type Initialize struct {
	Snapshot Snapshot
}

func (a Initialize) apply(Snapshot) Snapshot {
	next := a.Snapshot.clone()
	next.ready = true
	return next
}

// Login establishes the session for a user that already exists in the
// identity domain (or the synthesized reserved admin).
type Login struct {
	User models.User
}

func (a Login) apply(s Snapshot) Snapshot {
	next := s.clone()
	user := a.User
	next.CurrentUser = &user
	next.IsAuthenticated = true
	return next
}

// Logout clears the session. Users, payments and settings are
// untouched.
type Logout struct{}

func (a Logout) apply(s Snapshot) Snapshot {
	next := s.clone()
	next.CurrentUser = nil
	next.IsAuthenticated = false
	return next
}

// Signup appends a new user and logs them in.
type Signup struct {
	User models.User
}

func (a Signup) apply(s Snapshot) Snapshot {
	next := s.clone()
	next.Users = append(next.Users, a.User)
	user := a.User
	next.CurrentUser = &user
	next.IsAuthenticated = true
	return next
}

// UpdateCredits sets the balance of the matching user. When the
// session user has the same id the session view is rewritten in the
// same transition, so CurrentUser never lags the ledger. The reserved
// admin identity is not a member of Users; for it only the session
// view changes.
type UpdateCredits struct {
	UserID  string
	Credits int
}

func (a UpdateCredits) apply(s Snapshot) Snapshot {
	next := s.clone()
	for i := range next.Users {
		if next.Users[i].ID == a.UserID {
			next.Users[i].Credits = a.Credits
		}
	}
	if next.CurrentUser != nil && next.CurrentUser.ID == a.UserID {
		next.CurrentUser.Credits = a.Credits
	}
	return next
}

// AddPaymentRequest appends a pending purchase request.
type AddPaymentRequest struct {
	Request models.PaymentRequest
}

func (a AddPaymentRequest) apply(s Snapshot) Snapshot {
	next := s.clone()
	next.Payments = append(next.Payments, a.Request)
	return next
}

// UpdatePaymentStatus relabels a payment request. Crediting happens on
// the pending->approved edge only: the owning user gains the package
// credits snapshotted on the request, exactly once. A request that is
// already approved or rejected gets the new label but no credit side
// effect, so repeated approvals and reject-then-approve sequences can
// never double-credit.
type UpdatePaymentStatus struct {
	PaymentID string
	Status    models.PaymentStatus
}

func (a UpdatePaymentStatus) apply(s Snapshot) Snapshot {
	next := s.clone()
	for i := range next.Payments {
		if next.Payments[i].ID != a.PaymentID {
			continue
		}
		if a.Status == models.PaymentApproved && next.Payments[i].Status == models.PaymentPending {
			for j := range next.Users {
				if next.Users[j].ID == next.Payments[i].UserID {
					next.Users[j].Credits += next.Payments[i].PackageCredits
					if next.CurrentUser != nil && next.CurrentUser.ID == next.Users[j].ID {
						next.CurrentUser.Credits = next.Users[j].Credits
					}
				}
			}
		}
		next.Payments[i].Status = a.Status
	}
	return next
}

// UpdateSettings replaces settings wholesale.
type UpdateSettings struct {
	Settings models.Settings
}

func (a UpdateSettings) apply(s Snapshot) Snapshot {
	next := s.clone()
	settings := a.Settings
	settings.CreditPackages = append([]models.CreditPackage(nil), a.Settings.CreditPackages...)
	next.Settings = settings
	return next
}
