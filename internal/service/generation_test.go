package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shantoai/studio/internal/imagen"
	"github.com/shantoai/studio/internal/models"
	"github.com/shantoai/studio/internal/state"
)

type stubGenerator struct {
	calls int
	last  imagen.Request
	image *imagen.Image
	err   error
}

func (g *stubGenerator) Generate(_ context.Context, req imagen.Request) (*imagen.Image, error) {
	g.calls++
	g.last = req
	if g.err != nil {
		return nil, g.err
	}
	return g.image, nil
}

func newGenerationFixture(t *testing.T, credits int) (*GenerationService, *stubGenerator, *state.Store) {
	t.Helper()
	store := state.New(slog.Default())
	store.Dispatch(state.Initialize{Snapshot: state.Defaults()})
	store.Dispatch(state.Signup{User: models.User{
		ID:      "u1",
		Name:    "Shanto",
		Email:   "shanto@example.com",
		Credits: credits,
		Role:    models.RoleUser,
	}})
	gen := &stubGenerator{image: &imagen.Image{URL: "https://cdn.example.com/img.png"}}
	return NewGenerationService(slog.Default(), store, gen), gen, store
}

func TestGenerateDebitsOneCreditOnSuccess(t *testing.T) {
	t.Parallel()
	service, gen, store := newGenerationFixture(t, 10)

	image, err := service.Generate(context.Background(), GenerationRequest{Prompt: "a lion"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if image.URL != "https://cdn.example.com/img.png" {
		t.Fatalf("unexpected url: %s", image.URL)
	}
	if image.Prompt != "a lion" {
		t.Fatalf("gallery keeps the raw prompt, got %q", image.Prompt)
	}
	if gen.last.Prompt != "a lion, photorealistic" {
		t.Fatalf("style preset should be appended for the collaborator, got %q", gen.last.Prompt)
	}
	if gen.last.AspectRatio != "1:1" {
		t.Fatalf("aspect ratio should default to 1:1, got %q", gen.last.AspectRatio)
	}

	snap := store.Current()
	if snap.CurrentUser.Credits != 9 {
		t.Fatalf("expected 9 credits after debit, got %d", snap.CurrentUser.Credits)
	}
	if snap.Users[0].Credits != 9 {
		t.Fatalf("ledger entry should match session view, got %d", snap.Users[0].Credits)
	}
	if got := len(service.Gallery()); got != 1 {
		t.Fatalf("expected one gallery image, got %d", got)
	}
}

func TestGenerateEmptyPrompt(t *testing.T) {
	t.Parallel()
	service, gen, store := newGenerationFixture(t, 10)

	_, err := service.Generate(context.Background(), GenerationRequest{Prompt: "   "})
	if !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatal("no external call may happen on an empty prompt")
	}
	if store.Current().CurrentUser.Credits != 10 {
		t.Fatal("balance must be unchanged")
	}
}

func TestGenerateRejectsUnknownAspectRatio(t *testing.T) {
	t.Parallel()
	service, gen, _ := newGenerationFixture(t, 10)

	_, err := service.Generate(context.Background(), GenerationRequest{Prompt: "a lion", AspectRatio: "2:1"})
	if !errors.Is(err, ErrInvalidAspectRatio) {
		t.Fatalf("expected ErrInvalidAspectRatio, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatal("collaborator must not see an unsupported aspect ratio")
	}
}

func TestGenerateInsufficientCreditsSkipsCollaborator(t *testing.T) {
	t.Parallel()
	service, gen, store := newGenerationFixture(t, 0)

	_, err := service.Generate(context.Background(), GenerationRequest{Prompt: "a lion"})
	if !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("expected ErrInsufficientCredits, got %v", err)
	}
	if gen.calls != 0 {
		t.Fatal("collaborator must not be called without credits")
	}
	if store.Current().CurrentUser.Credits != 0 {
		t.Fatal("balance must be unchanged")
	}
}

func TestGenerateFailureLeavesBalanceUntouched(t *testing.T) {
	t.Parallel()
	service, gen, store := newGenerationFixture(t, 10)
	gen.err = &imagen.GenerationError{Message: "model overloaded"}
	gen.image = nil

	_, err := service.Generate(context.Background(), GenerationRequest{Prompt: "a lion"})

	var genErr *imagen.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if store.Current().CurrentUser.Credits != 10 {
		t.Fatalf("failed generation must not debit, got %d", store.Current().CurrentUser.Credits)
	}
	if len(service.Gallery()) != 0 {
		t.Fatal("failed generation must not reach the gallery")
	}
}

func TestGenerateRequiresSession(t *testing.T) {
	t.Parallel()
	store := state.New(slog.Default())
	store.Dispatch(state.Initialize{Snapshot: state.Defaults()})
	service := NewGenerationService(slog.Default(), store, &stubGenerator{})

	_, err := service.Generate(context.Background(), GenerationRequest{Prompt: "a lion"})
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestDeleteImageRemovesFromGallery(t *testing.T) {
	t.Parallel()
	service, _, _ := newGenerationFixture(t, 10)

	first, err := service.Generate(context.Background(), GenerationRequest{Prompt: "one"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := service.Generate(context.Background(), GenerationRequest{Prompt: "two"}); err != nil {
		t.Fatalf("generate: %v", err)
	}

	service.DeleteImage(first.ID)

	gallery := service.Gallery()
	if len(gallery) != 1 || gallery[0].Prompt != "two" {
		t.Fatalf("expected only the second image, got %+v", gallery)
	}
}
