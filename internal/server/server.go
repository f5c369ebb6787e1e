package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/shantoai/studio/internal/auth"
	"github.com/shantoai/studio/internal/imagen"
	"github.com/shantoai/studio/internal/service"
)

// maxQRUploadBytes caps settings QR image uploads.
const maxQRUploadBytes = 5 << 20

// QRUploader stores a QR code image and returns its public URL.
type QRUploader interface {
	UploadQRCode(ctx context.Context, data []byte, contentType string) (string, error)
}

type Server struct {
	addr       string
	log        *slog.Logger
	auth       *auth.Service
	generation *service.GenerationService
	payments   *service.PaymentService
	settings   *service.SettingsService
	uploader   QRUploader
	router     *chi.Mux
}

func NewServer(addr string, log *slog.Logger, authSvc *auth.Service, generation *service.GenerationService, payments *service.PaymentService, settings *service.SettingsService, uploader QRUploader) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:       addr,
		log:        log,
		auth:       authSvc,
		generation: generation,
		payments:   payments,
		settings:   settings,
		uploader:   uploader,
		router:     r,
	}

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/logout", s.handleLogout)
	r.Get("/me", s.handleMe)

	r.Post("/generate", s.handleGenerate)
	r.Get("/gallery", s.handleGallery)
	r.Delete("/gallery/{id}", s.handleDeleteImage)

	r.Get("/packages", s.handlePackages)
	r.Get("/settings", s.handleGetSettings)
	r.Post("/payments", s.handleSubmitPayment)

	r.Group(func(admin chi.Router) {
		admin.Use(s.adminAuthMiddleware())
		admin.Get("/payments", s.handleListPayments)
		admin.Post("/payments/{id}/approve", s.handleApprovePayment)
		admin.Post("/payments/{id}/reject", s.handleRejectPayment)
		admin.Put("/settings", s.handleUpdateSettings)
		admin.Post("/settings/qr", s.handleUploadQR)
		admin.Get("/stats", s.handleStats)
		admin.Get("/users", s.handleListUsers)
	})

	return s
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("shutdown error", "err", err)
		}
	}()

	s.log.Info("dashboard listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	user, err := s.auth.Authenticate(req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	user.Password = ""
	s.writeJSON(w, http.StatusOK, user)
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "name, email and password are required", http.StatusBadRequest)
		return
	}
	user, err := s.auth.Register(req.Name, req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	user.Password = ""
	s.writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.EndSession()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := s.auth.SessionUser()
	if !ok {
		http.Error(w, "not authenticated", http.StatusUnauthorized)
		return
	}
	user.Password = ""
	s.writeJSON(w, http.StatusOK, user)
}

type generateRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negativePrompt"`
	AspectRatio    string `json:"aspectRatio"`
	StylePreset    string `json:"stylePreset"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	image, err := s.generation.Generate(r.Context(), service.GenerationRequest{
		Prompt:         req.Prompt,
		NegativePrompt: req.NegativePrompt,
		AspectRatio:    req.AspectRatio,
		StylePreset:    req.StylePreset,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, image)
}

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.generation.Gallery())
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	s.generation.DeleteImage(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePackages(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.settings.Get().CreditPackages)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.settings.Get())
}

type submitPaymentRequest struct {
	PackageID     string `json:"packageId"`
	TransactionID string `json:"transactionId"`
}

func (s *Server) handleSubmitPayment(w http.ResponseWriter, r *http.Request) {
	var req submitPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	request, err := s.payments.Submit(req.PackageID, req.TransactionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, request)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.payments.List())
}

func (s *Server) handleApprovePayment(w http.ResponseWriter, r *http.Request) {
	request, err := s.payments.Approve(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, request)
}

func (s *Server) handleRejectPayment(w http.ResponseWriter, r *http.Request) {
	request, err := s.payments.Reject(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, request)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	settings := s.settings.Get()
	if err := json.Unmarshal(body, &settings); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	updated, err := s.settings.Update(settings)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleUploadQR(w http.ResponseWriter, r *http.Request) {
	if s.uploader == nil {
		http.Error(w, "qr upload is not configured", http.StatusServiceUnavailable)
		return
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxQRUploadBytes))
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}
	url, err := s.uploader.UploadQRCode(r.Context(), data, r.Header.Get("Content-Type"))
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.settings.Overview())
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.settings.Users())
}

func (s *Server) adminAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || !s.auth.IsAdminPair(user, pass) {
				w.Header().Set("WWW-Authenticate", `Basic realm="shanto-ai"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto HTTP statuses. Anything
// unrecognized is treated as an upstream failure.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var genErr *imagen.GenerationError
	switch {
	case errors.Is(err, service.ErrNotAuthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, auth.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, service.ErrInsufficientCredits):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, auth.ErrDuplicateEmail),
		errors.Is(err, service.ErrEmptyPrompt),
		errors.Is(err, service.ErrInvalidAspectRatio),
		errors.Is(err, service.ErrEmptyTransactionRef),
		errors.Is(err, service.ErrUnknownPackage),
		errors.Is(err, service.ErrUnknownPayment),
		errors.Is(err, service.ErrGenerationInProgress):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &genErr):
		http.Error(w, genErr.Error(), http.StatusBadGateway)
	default:
		s.internalError(w, err)
	}
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("handler error", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
