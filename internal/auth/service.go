package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shantoai/studio/internal/models"
	"github.com/shantoai/studio/internal/state"
)

// StarterCredits is granted to every new signup.
const StarterCredits = 10

// adminCredits is the effectively unlimited balance of the reserved
// admin identity.
const adminCredits = 999999

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateEmail     = errors.New("an account with this email already exists")
)

// Service validates credentials and drives session transitions. All
// checks happen here; the store only ever sees valid Login/Signup
// actions.
type Service struct {
	store         *state.Store
	log           *slog.Logger
	adminEmail    string
	adminPassword string
}

func NewService(store *state.Store, log *slog.Logger, adminEmail, adminPassword string) *Service {
	return &Service{
		store:         store,
		log:           log,
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
	}
}

// Authenticate logs a user in. The reserved admin pair wins before any
// lookup and never joins the users collection.
func (s *Service) Authenticate(email, password string) (models.User, error) {
	if s.matchesAdminPair(email, password) {
		admin := models.User{
			ID:      "admin",
			Name:    "Admin",
			Email:   s.adminEmail,
			Credits: adminCredits,
			Role:    models.RoleAdmin,
		}
		s.store.Dispatch(state.Login{User: admin})
		s.log.Info("admin session established")
		return admin, nil
	}

	for _, user := range s.store.Current().Users {
		if user.Email != email {
			continue
		}
		if !VerifyCredential(password, user.Password) {
			break
		}
		s.store.Dispatch(state.Login{User: user})
		s.log.Info("user logged in", "user_id", user.ID)
		return user, nil
	}
	return models.User{}, ErrInvalidCredentials
}

// Register creates an account with starter credits and logs it in.
func (s *Service) Register(name, email, password string) (models.User, error) {
	for _, user := range s.store.Current().Users {
		if user.Email == email {
			return models.User{}, ErrDuplicateEmail
		}
	}

	hash, err := HashCredential(password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash credential: %w", err)
	}

	user := models.User{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    email,
		Password: hash,
		Credits:  StarterCredits,
		Role:     models.RoleUser,
	}
	s.store.Dispatch(state.Signup{User: user})
	s.log.Info("user registered", "user_id", user.ID)
	return user, nil
}

// SessionUser returns the current session user, if any.
func (s *Service) SessionUser() (models.User, bool) {
	snap := s.store.Current()
	if snap.CurrentUser == nil {
		return models.User{}, false
	}
	return *snap.CurrentUser, true
}

// EndSession logs out unconditionally.
func (s *Service) EndSession() {
	s.store.Dispatch(state.Logout{})
}

// IsAdminPair reports whether the given basic-auth pair is the
// reserved administrator credential. Used by the HTTP layer to guard
// admin routes.
func (s *Service) IsAdminPair(email, password string) bool {
	return s.matchesAdminPair(email, password)
}

func (s *Service) matchesAdminPair(email, password string) bool {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.adminEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.adminPassword)) == 1
	return emailOK && passOK
}
