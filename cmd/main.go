package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpctx "github.com/apetrenko/tgfactor/internal/api/http/context"
	"github.com/apetrenko/tgfactor/internal/api/http/router"
	"github.com/apetrenko/tgfactor/internal/config"
	"github.com/apetrenko/tgfactor/internal/logger"
	"github.com/apetrenko/tgfactor/internal/model"
	"github.com/apetrenko/tgfactor/internal/notifier"
	"github.com/apetrenko/tgfactor/internal/repository/postgres"
	"github.com/apetrenko/tgfactor/internal/secret"
	"github.com/apetrenko/tgfactor/internal/server"
	"github.com/apetrenko/tgfactor/internal/service"
	"github.com/apetrenko/tgfactor/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	bindingRepo := postgres.NewBindingRepository(db)
	challengeRepo := postgres.NewChallengeRepository(db)
	linkTokenRepo := postgres.NewLinkTokenRepository(db)
	recoveryCodeRepo := postgres.NewRecoveryCodeRepository(db)

	hasher := secret.NewHasher()
	indexer, err := secret.NewIndexer(cfg.Secrets.LookupSecret)
	if err != nil {
		logger.Fatal("failed to initialize lookup indexer", "error", err)
	}
	tokenManager := token.NewJWT(cfg.Secrets.JWTSecret)
	telegramNotifier := notifier.NewTelegram(cfg.Telegram.BotToken, logger)

	challengeService := service.NewChallengeService(challengeRepo, hasher, logger)
	linkService := service.NewLinkService(linkTokenRepo, hasher, indexer, logger)
	recoveryService := service.NewRecoveryService(recoveryCodeRepo, hasher, indexer, logger)
	bindingService := service.NewBindingService(bindingRepo, logger)

	authService := service.NewAuth(
		userRepo,
		bindingRepo,
		hasher,
		challengeService,
		linkService,
		recoveryService,
		bindingService,
		tokenManager,
		telegramNotifier,
		logger,
		cfg.Telegram.BotUsername,
		cfg.DebugOTP,
	)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer redisClient.Close()

	ctxMgr := httpctx.NewManager()
	r := router.New(
		authService,
		tokenManager,
		ctxMgr,
		redisClient,
		cfg.Limits.MaxAttempts,
		time.Duration(cfg.Limits.WindowSeconds)*time.Second,
		db,
		logger,
	)
	httpServer := server.NewHTTPServer(r.Register(), fmt.Sprintf(":%s", cfg.HTTP.Port))

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address())
		err := s.Start(sl)
		if err != nil {
			logger.Error("failed to start server", "error", err)
		}
	}(httpServer)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", httpServer.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
