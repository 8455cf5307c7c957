package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"photo-market/internal/domain"
	"photo-market/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Deps are the collaborators of the REST API.
type Deps struct {
	Auth     usecase.AuthUseCase
	Ads      usecase.AdUseCase
	Payments usecase.PaymentUseCase
	Users    usecase.UserUseCase
	Settings usecase.SettingUseCase
	Stats    usecase.StatsUseCase

	AdminAPIKey    string
	BotUsername    string
	RequestTimeout time.Duration
	Logger         *zerolog.Logger
}

// Server exposes the marketplace over /api/v1.
type Server struct {
	auth     usecase.AuthUseCase
	ads      usecase.AdUseCase
	payments usecase.PaymentUseCase
	users    usecase.UserUseCase
	settings usecase.SettingUseCase
	stats    usecase.StatsUseCase

	adminKey    string
	botUsername string
	timeout     time.Duration
	log         *zerolog.Logger
}

func NewServer(d Deps) *Server {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 15 * time.Second
	}
	return &Server{
		auth:        d.Auth,
		ads:         d.Ads,
		payments:    d.Payments,
		users:       d.Users,
		settings:    d.Settings,
		stats:       d.Stats,
		adminKey:    d.AdminAPIKey,
		botUsername: d.BotUsername,
		timeout:     d.RequestTimeout,
		log:         d.Logger,
	}
}

// Router builds the full HTTP handler: /health, /metrics and the /api/v1 tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(s.timeout))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api/v1", s.RegisterRoutes)
	return r
}

// RegisterRoutes mounts the v1 endpoints on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	user := RequireUser(s.auth)
	admin := RequireAdmin(s.adminKey, s.log)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/telegram", s.handleAuthTelegram)
		r.Post("/verify", s.handleAuthVerify)
		r.With(user).Get("/profile", s.handleProfile)
	})

	r.Route("/ads", func(r chi.Router) {
		r.Get("/", s.handleListAds)
		r.With(user).Post("/", s.handleCreateAd)
		r.With(user).Get("/mine", s.handleMyAds)
		r.Get("/{id}", s.handleGetAd)
		r.With(user).Patch("/{id}", s.handleUpdateAd)
		r.With(user).Delete("/{id}", s.handleDeleteAd)
		r.With(admin).Patch("/{id}/status", s.handleAdStatus)
	})

	r.Route("/payments", func(r chi.Router) {
		r.With(user).Post("/initiate", s.handleInitiatePayment)
		r.With(user).Get("/mine", s.handleMyPayments)
		r.With(admin).Get("/stats", s.handlePaymentStats)
		r.Get("/callback", s.handlePaymentCallback)
	})

	r.Group(func(r chi.Router) {
		r.Use(admin)
		r.Get("/users", s.handleListUsers)
		r.Get("/users/{id}", s.handleGetUser)
		r.Post("/users/{id}/block", s.handleBlockUser)
		r.Post("/users/{id}/unblock", s.handleUnblockUser)

		r.Get("/settings", s.handleListSettings)
		r.Get("/settings/{key}", s.handleGetSetting)
		r.Put("/settings", s.handlePutSetting)
		r.Delete("/settings/{key}", s.handleDeleteSetting)

		r.Get("/stats", s.handleStats)
	})
}

type errorBody struct {
	Error string `json:"error"`
}

type listBody[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// writeDomainError maps usecase errors onto HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		code = http.StatusConflict
	case errors.Is(err, domain.ErrForbidden), errors.Is(err, domain.ErrUserBlocked):
		code = http.StatusForbidden
	case errors.Is(err, domain.ErrUnauthorized):
		code = http.StatusUnauthorized
	case errors.Is(err, domain.ErrQuotaExhausted):
		code = http.StatusPaymentRequired
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrPhoneRequired),
		errors.Is(err, domain.ErrInvalidCategory), errors.Is(err, domain.ErrInvalidCondition),
		errors.Is(err, domain.ErrInvalidStatus), errors.Is(err, domain.ErrTooManyImages),
		errors.Is(err, domain.ErrContentRejected):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrPaymentNotPending):
		code = http.StatusConflict
	case errors.Is(err, domain.ErrPaymentVerify):
		code = http.StatusBadGateway
	case errors.Is(err, domain.ErrGatewayUnavailable):
		code = http.StatusServiceUnavailable
	}
	if code == http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, code, "internal error")
		return
	}
	writeError(w, code, err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return domain.ErrInvalidArgument
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.ErrInvalidArgument
	}
	return nil
}
