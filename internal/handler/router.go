package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pinauth/pin-relay/internal/config"
	"github.com/pinauth/pin-relay/internal/jobs"
	"github.com/pinauth/pin-relay/internal/middleware"
	"github.com/pinauth/pin-relay/internal/relay"
	"github.com/pinauth/pin-relay/internal/service"
)

type RouterDeps struct {
	VerifyService   *service.VerificationService
	FeedbackService *service.FeedbackService
	Logs            *relay.LogBuffer
	Monitor         *jobs.HealthMonitor
	Limiter         service.Limiter
	UploadLimit     int
	MaxBodyBytes    int64
	RequestTimeout  time.Duration
	StaticDir       string
	IsProduction    bool
}

// NewRouter wires every route. The route table is the same for every
// deploy target.
func NewRouter(deps RouterDeps) http.Handler {
	mobileHandler := NewMobileHandler(deps.VerifyService)
	pinHandler := NewPinHandler(deps.VerifyService)
	feedbackHandler := NewFeedbackHandler(deps.FeedbackService)
	logHandler := NewLogHandler(deps.Logs)
	healthHandler := NewHealthHandler(deps.VerifyService, deps.Monitor)

	bodyLimit := middleware.NewBodyLimitMiddleware(deps.MaxBodyBytes)
	securityHeaders := middleware.NewSecurityHeadersMiddleware(deps.IsProduction)

	limiter := deps.Limiter
	if limiter == nil {
		limiter = service.NewMemoryRateLimiter()
	}
	uploadLimit := middleware.NewIPRateLimitMiddleware(limiter, deps.UploadLimit, config.UploadRateLimitWindow, "upload")

	requestTimeout := deps.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = config.ServerRequestTimeout
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(requestTimeout))
	r.Use(securityHeaders.Handler)
	r.Use(bodyLimit.Handler)

	r.Get("/health", healthHandler.Health)

	r.With(uploadLimit.Handler).Post("/mobile-upload", mobileHandler.VerifyPin)

	r.Route("/api", func(r chi.Router) {
		r.Route("/mobile", func(r chi.Router) {
			r.With(uploadLimit.Handler).Post("/verify-pin", mobileHandler.VerifyPin)
			r.Post("/confirm-pin", feedbackHandler.ConfirmPin)
			r.Get("/result/{sessionId}", mobileHandler.GetResult)
		})

		r.Get("/pins", pinHandler.List)
		r.Get("/pins/{pinId}", pinHandler.Get)

		r.Post("/feedback", feedbackHandler.ConfirmPin)
		r.Get("/feedback", feedbackHandler.List)
		r.Get("/feedback/{analysisId}", feedbackHandler.GetByAnalysisID)
		r.Post("/user-feedback", feedbackHandler.Create)

		r.Get("/logs", logHandler.List)
		r.Delete("/logs", logHandler.Clear)

		r.Get("/health/master", healthHandler.Master)

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, notFound("Route"))
		})
	})

	r.NotFound(StaticFileServer(deps.StaticDir, "").ServeHTTP)

	return r
}
