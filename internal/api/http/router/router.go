package router

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/apetrenko/tgfactor/internal/api/http/handler"
	"github.com/apetrenko/tgfactor/internal/api/http/middleware"
	"github.com/apetrenko/tgfactor/internal/logger"
	"github.com/apetrenko/tgfactor/internal/model"
	"github.com/apetrenko/tgfactor/internal/service"
)

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router wires handlers and middleware into an HTTP mux.
type Router struct {
	authService    *service.Auth
	tokenManager   model.TokenManager
	contextManager model.ContextManager
	redisClient    *redis.Client
	maxAttempts    int
	window         time.Duration
	pinger         Pinger
	logger         *logger.Logger
}

// New creates a new Router instance.
func New(
	authService *service.Auth,
	tokenManager model.TokenManager,
	contextManager model.ContextManager,
	redisClient *redis.Client,
	maxAttempts int,
	window time.Duration,
	pinger Pinger,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		tokenManager:   tokenManager,
		contextManager: contextManager,
		redisClient:    redisClient,
		maxAttempts:    maxAttempts,
		window:         window,
		pinger:         pinger,
		logger:         logger,
	}
}

// Register builds the route table. Credential-guessing endpoints sit
// behind the rate limiter; link initiation requires a bearer token.
func (r *Router) Register() http.Handler {
	authHandler := handler.NewAuth(r.authService, r.logger)
	telegramHandler := handler.NewTelegram(r.authService, r.contextManager, r.logger)

	authenticate := middleware.NewAuthenticate(r.tokenManager, r.contextManager, r.logger)
	logging := middleware.NewLogging(r.logger)

	limited := func(h http.HandlerFunc) http.Handler { return http.Handler(h) }
	if r.redisClient != nil {
		rateLimit := middleware.NewRateLimit(r.redisClient, r.maxAttempts, r.window, r.logger)
		limited = func(h http.HandlerFunc) http.Handler { return rateLimit.Handle(h) }
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.Handle("POST /api/auth/login", limited(authHandler.Login))
	mux.HandleFunc("POST /api/auth/login/verify-otp", authHandler.VerifyOTP)
	mux.Handle("POST /api/auth/otp/initiate", limited(authHandler.InitiateOTP))

	mux.Handle("POST /api/auth/telegram/link/initiate", authenticate.Handle(http.HandlerFunc(telegramHandler.InitiateLink)))
	mux.HandleFunc("POST /api/auth/telegram/link/complete", telegramHandler.CompleteLink)
	mux.Handle("POST /api/auth/telegram/change/initiate", limited(telegramHandler.InitiateChange))
	mux.HandleFunc("POST /api/auth/telegram/change/confirm", telegramHandler.ConfirmChange)
	mux.Handle("POST /api/auth/telegram/recover/verify", limited(telegramHandler.RecoverVerify))

	mux.HandleFunc("GET /healthz", r.handleHealthz)

	return logging.Handle(mux)
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if r.pinger != nil {
		if err := r.pinger.Ping(req.Context()); err != nil {
			r.logger.Error("Router: health check failed",
				"error", err.Error())
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
