package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinisalud/citas-api/internal/api"
	"github.com/clinisalud/citas-api/internal/area"
	"github.com/clinisalud/citas-api/internal/auth"
	"github.com/clinisalud/citas-api/internal/cita"
	"github.com/clinisalud/citas-api/internal/config"
	"github.com/clinisalud/citas-api/internal/dashboard"
	"github.com/clinisalud/citas-api/internal/db"
	"github.com/clinisalud/citas-api/internal/manual"
	"github.com/clinisalud/citas-api/internal/patient"
	redisclient "github.com/clinisalud/citas-api/internal/redis"
	"github.com/clinisalud/citas-api/internal/schedule"
	"github.com/clinisalud/citas-api/internal/staff"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.Env == "dev" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("api-server starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PgMaxConns)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	txRunner := db.NewTxRunner(pgPool)
	locker := redisclient.NewRedisSlotLocker(rdb, cfg.LockTTL)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	registry := patient.NewHTTPRegistryClient(cfg.DNIAPIURL, cfg.DNIAPIToken)

	horarios := schedule.NewService(schedule.NewPgRepository(pgPool), txRunner)
	citas := cita.NewService(cita.NewPgRepository(pgPool), locker, txRunner)
	pacientes := patient.NewService(patient.NewPgRepository(pgPool), registry)
	areas := area.NewService(area.NewPgRepository(pgPool))
	usuarios := staff.NewService(staff.NewPgRepository(pgPool), tokens)
	panel := dashboard.NewService(dashboard.NewPgRepository(pgPool))
	manuales := manual.NewService(manual.NewPgRepository(pgPool))

	router := api.NewRouter(api.RouterConfig{
		Citas:     citas,
		Horarios:  horarios,
		Pacientes: pacientes,
		Areas:     areas,
		Staff:     usuarios,
		Dashboard: panel,
		Manuales:  manuales,
		Tokens:    tokens,
		Logger:    logger,
		PgPool:    pgPool,
		Redis:     rdb,
		Env:       cfg.Env,
		Version:   version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-rootCtx.Done()

	logger.Info().Msg("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
}
