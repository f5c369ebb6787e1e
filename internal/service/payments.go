package service

import (
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shantoai/studio/internal/models"
	"github.com/shantoai/studio/internal/state"
)

// Notifier receives payment lifecycle events. Implementations must be
// nil-safe no-ops when notifications are unconfigured.
type Notifier interface {
	PaymentSubmitted(req models.PaymentRequest)
	PaymentDecided(req models.PaymentRequest)
}

// PaymentService drives the purchase-request lifecycle:
// pending -> approved (credits granted once) | rejected.
type PaymentService struct {
	log      *slog.Logger
	store    *state.Store
	notifier Notifier
}

func NewPaymentService(log *slog.Logger, store *state.Store, notifier Notifier) *PaymentService {
	return &PaymentService{log: log, store: store, notifier: notifier}
}

// Submit records a purchase attempt for the session user. The package
// terms are snapshotted onto the request so later settings edits do
// not rewrite history. IDs are ULIDs: unique and derived from the
// creation time.
func (s *PaymentService) Submit(packageID, transactionID string) (models.PaymentRequest, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return models.PaymentRequest{}, ErrEmptyTransactionRef
	}

	snap := s.store.Current()
	if snap.CurrentUser == nil {
		return models.PaymentRequest{}, ErrNotAuthenticated
	}
	user := *snap.CurrentUser

	var pkg *models.CreditPackage
	for i := range snap.Settings.CreditPackages {
		if snap.Settings.CreditPackages[i].ID == packageID {
			pkg = &snap.Settings.CreditPackages[i]
			break
		}
	}
	if pkg == nil {
		return models.PaymentRequest{}, ErrUnknownPackage
	}

	request := models.PaymentRequest{
		ID:             ulid.Make().String(),
		UserID:         user.ID,
		UserName:       user.Name,
		UserEmail:      user.Email,
		PackageID:      pkg.ID,
		PackageName:    pkg.Name,
		PackageCredits: pkg.Credits,
		PackagePrice:   pkg.Price,
		TransactionID:  transactionID,
		Status:         models.PaymentPending,
		Date:           time.Now().UTC(),
	}
	s.store.Dispatch(state.AddPaymentRequest{Request: request})
	s.log.Info("payment request submitted", "request_id", request.ID, "user_id", user.ID, "package_id", pkg.ID)

	if s.notifier != nil {
		s.notifier.PaymentSubmitted(request)
	}
	return request, nil
}

// Approve transitions a request toward approved. Crediting is decided
// inside the reducer: only a pending request grants credits, so a
// repeated approval cannot double-credit.
func (s *PaymentService) Approve(requestID string) (models.PaymentRequest, error) {
	return s.decide(requestID, models.PaymentApproved)
}

// Reject transitions a request toward rejected. Never touches credits.
func (s *PaymentService) Reject(requestID string) (models.PaymentRequest, error) {
	return s.decide(requestID, models.PaymentRejected)
}

func (s *PaymentService) decide(requestID string, status models.PaymentStatus) (models.PaymentRequest, error) {
	if _, ok := s.find(s.store.Current(), requestID); !ok {
		return models.PaymentRequest{}, ErrUnknownPayment
	}

	snap := s.store.Dispatch(state.UpdatePaymentStatus{PaymentID: requestID, Status: status})
	request, _ := s.find(snap, requestID)
	s.log.Info("payment request decided", "request_id", requestID, "status", status)

	if s.notifier != nil {
		s.notifier.PaymentDecided(request)
	}
	return request, nil
}

// List returns all requests, newest first.
func (s *PaymentService) List() []models.PaymentRequest {
	payments := s.store.Current().Payments
	out := make([]models.PaymentRequest, 0, len(payments))
	for i := len(payments) - 1; i >= 0; i-- {
		out = append(out, payments[i])
	}
	return out
}

func (s *PaymentService) find(snap state.Snapshot, requestID string) (models.PaymentRequest, bool) {
	for _, request := range snap.Payments {
		if request.ID == requestID {
			return request, true
		}
	}
	return models.PaymentRequest{}, false
}
