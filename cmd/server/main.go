package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/attendance-qr/internal/config"
	"github.com/iliyamo/attendance-qr/internal/database"
	"github.com/iliyamo/attendance-qr/internal/handler"
	"github.com/iliyamo/attendance-qr/internal/middleware"
	"github.com/iliyamo/attendance-qr/internal/queue"
	"github.com/iliyamo/attendance-qr/internal/repository"
	"github.com/iliyamo/attendance-qr/internal/router"
	"github.com/iliyamo/attendance-qr/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories
	users := repository.NewUserRepo(db)
	orgs := repository.NewOrganizationRepo(db)
	refresh := repository.NewTokenRepo(db)
	store := repository.NewAttendanceStore(db)
	schedules := repository.NewScheduleRepo(db)
	stations := repository.NewStationRepo(db)
	scanLogs := repository.NewScanLogRepo(db)

	// The attendance service owns the token exchange. The queue feed is
	// fire-and-forget; a broker outage only costs the audit log file.
	attendance := &service.Attendance{
		Tokens:    store.Tokens(),
		Consumer:  store,
		Entries:   store.Entries(),
		Users:     users,
		Orgs:      orgs,
		Schedules: schedules,
		Stations:  stations,
		ScanLogs:  scanLogs,
		PublishScan: func(ctx context.Context, ev queue.ScanEvent) error {
			return queue.PublishScanEvent(ctx, ev)
		},
		TTL: service.TokenTTLBounds{
			Default: cfg.QRDefaultTTLSec,
			Min:     cfg.QRMinTTLSec,
			Max:     cfg.QRMaxTTLSec,
		},
	}

	// Handlers
	authH := handler.NewAuthHandler(cfg, users, orgs, refresh)
	attH := handler.NewAttendanceHandler(attendance)
	teH := handler.NewTimeEntryHandler(store.Entries())
	adminH := handler.NewAdminHandler(stations, orgs, scanLogs)

	// Redis-backed rate limiter for the public scan endpoint. A nil
	// client (Redis unreachable) disables limiting rather than scanning.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; scan rate limiting disabled")
	}
	scanLimiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// Background consumer appending scan events to logs/scans.log.
	go func() {
		if err := queue.StartScanConsumer(); err != nil {
			log.Printf("scan consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterAttendance(e, attH, teH, cfg.JWTSecret, scanLimiter)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
