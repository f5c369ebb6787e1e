package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shantoai/studio/internal/imagen"
	"github.com/shantoai/studio/internal/models"
	"github.com/shantoai/studio/internal/state"
)

// GenerationCost is the number of credits one image costs.
const GenerationCost = 1

// ImageGenerator is the external collaborator contract. It is called
// only after the credit precondition passed, and a debit happens only
// after it succeeds.
type ImageGenerator interface {
	Generate(ctx context.Context, req imagen.Request) (*imagen.Image, error)
}

// GenerationRequest carries one UI generation intent.
type GenerationRequest struct {
	Prompt         string
	NegativePrompt string
	AspectRatio    string
	StylePreset    string
}

// GenerationService runs the charge-then-generate workflow and owns
// the session-scoped gallery. The gallery is deliberately not part of
// the durable snapshot; it disappears with the process.
type GenerationService struct {
	log   *slog.Logger
	store *state.Store
	gen   ImageGenerator

	mu      sync.Mutex
	gallery []models.GeneratedImage
	busy    map[string]bool
}

func NewGenerationService(log *slog.Logger, store *state.Store, gen ImageGenerator) *GenerationService {
	return &GenerationService{
		log:   log,
		store: store,
		gen:   gen,
		busy:  make(map[string]bool),
	}
}

// Generate validates the request, checks the credit precondition,
// calls the collaborator and debits exactly one credit on success. A
// failed call leaves the balance untouched and adds nothing to the
// gallery. Concurrent submissions for the same user are refused so a
// single user action can never be charged twice.
func (s *GenerationService) Generate(ctx context.Context, req GenerationRequest) (*models.GeneratedImage, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	aspectRatio := req.AspectRatio
	if aspectRatio == "" {
		aspectRatio = "1:1"
	}
	if !imagen.AspectRatios[aspectRatio] {
		return nil, ErrInvalidAspectRatio
	}
	preset := req.StylePreset
	if preset == "" {
		preset = "photorealistic"
	}

	snap := s.store.Current()
	if snap.CurrentUser == nil {
		return nil, ErrNotAuthenticated
	}
	user := *snap.CurrentUser
	if user.Credits < GenerationCost {
		return nil, ErrInsufficientCredits
	}

	if err := s.acquire(user.ID); err != nil {
		return nil, err
	}
	defer s.release(user.ID)

	image, err := s.gen.Generate(ctx, imagen.Request{
		Prompt:         prompt + ", " + preset,
		NegativePrompt: strings.TrimSpace(req.NegativePrompt),
		AspectRatio:    aspectRatio,
	})
	if err != nil {
		s.log.Error("image generation failed", "user_id", user.ID, "err", err)
		return nil, err
	}

	// Debit only after confirmed success, against the freshest balance.
	current := s.store.Current()
	balance := user.Credits
	if current.CurrentUser != nil && current.CurrentUser.ID == user.ID {
		balance = current.CurrentUser.Credits
	}
	s.store.Dispatch(state.UpdateCredits{UserID: user.ID, Credits: balance - GenerationCost})

	generated := models.GeneratedImage{
		ID:        uuid.NewString(),
		URL:       image.URL,
		Prompt:    prompt,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.gallery = append([]models.GeneratedImage{generated}, s.gallery...)
	s.mu.Unlock()

	s.log.Info("image generated", "user_id", user.ID, "image_id", generated.ID)
	return &generated, nil
}

// Gallery returns the session gallery, newest first.
func (s *GenerationService) Gallery() []models.GeneratedImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.GeneratedImage(nil), s.gallery...)
}

// DeleteImage removes one image from the session gallery.
func (s *GenerationService) DeleteImage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.gallery[:0]
	for _, image := range s.gallery {
		if image.ID != id {
			kept = append(kept, image)
		}
	}
	s.gallery = kept
}

func (s *GenerationService) acquire(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[userID] {
		return ErrGenerationInProgress
	}
	s.busy[userID] = true
	return nil
}

func (s *GenerationService) release(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, userID)
}
