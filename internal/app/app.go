// Package app wires repositories, services and handlers into one
// process. The api, sweep and seed binaries all build on it.
package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"homefinder/internal/config"
	"homefinder/internal/domain/appointment"
	"homefinder/internal/domain/notification"
	"homefinder/internal/domain/realtime"
	"homefinder/internal/domain/savedsearch"
	"homefinder/internal/middleware"
	"homefinder/internal/pkg/jwt"
	"homefinder/internal/pkg/metrics"
	"homefinder/internal/pkg/response"
	"homefinder/internal/repository"
	"homefinder/internal/scheduler"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	steps := []struct {
		name string
		fn   func(*gorm.DB) error
	}{
		{"listings", repository.AutoMigrate},
		{"notifications", notification.AutoMigrate},
		{"saved_searches", savedsearch.AutoMigrate},
		{"appointments", appointment.AutoMigrate},
	}
	for _, s := range steps {
		if err := s.fn(db); err != nil {
			return fmt.Errorf("migrate %s: %w", s.name, err)
		}
	}
	return nil
}

type App struct {
	cfg *config.Config
	db  *gorm.DB

	JWT *jwt.Service
	Hub *realtime.Hub

	Listings      *repository.ListingRepository
	Notifications *notification.Service
	SavedSearches *savedsearch.Service
	Appointments  *appointment.Service

	ExpirySweeper   *scheduler.ExpirySweeper
	ReminderSweeper *scheduler.ReminderSweeper
}

func New(cfg *config.Config, db *gorm.DB) *App {
	hub := realtime.NewHub(cfg.WSSendBuffer)
	listings := repository.NewListingRepository(db)

	notifications := notification.NewService(
		notification.NewNotificationRepository(db),
		hub,
		cfg.PushTimeout,
	)
	savedSearches := savedsearch.NewService(
		savedsearch.NewSavedSearchRepository(db),
		listings,
		notifications,
	)
	appointments := appointment.NewService(
		appointment.NewAppointmentRepository(db),
		listings,
		notifications,
	)

	return &App{
		cfg:             cfg,
		db:              db,
		JWT:             jwt.New(cfg.JWTSecret, cfg.JWTTTL),
		Hub:             hub,
		Listings:        listings,
		Notifications:   notifications,
		SavedSearches:   savedSearches,
		Appointments:    appointments,
		ExpirySweeper:   scheduler.NewExpirySweeper(listings, notifications, cfg.ExpiringSoonWindow),
		ReminderSweeper: scheduler.NewReminderSweeper(appointments, notifications),
	}
}

// Loops returns the periodic sweepers configured for this process.
func (a *App) Loops() []*scheduler.Loop {
	return []*scheduler.Loop{
		scheduler.NewSweepLoop(a.ExpirySweeper, a.cfg.ExpirySweepInterval),
		scheduler.NewSweepLoop(a.ReminderSweeper, a.cfg.ReminderSweepInterval),
	}
}

func (a *App) Router() *gin.Engine {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS(a.cfg.CORSAllowedOrigins, !a.cfg.IsProduction()))

	r.GET("/health", a.health)
	r.GET("/metrics", metrics.Handler())

	realtime.NewWSHandler(a.Hub, a.JWT, a.cfg.CORSAllowedOrigins).RegisterRoutes(r.Group(""))

	v1 := r.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(a.JWT))
	{
		notification.RegisterRoutes(protected, notification.NewHandler(a.Notifications))
		savedsearch.RegisterRoutes(protected, savedsearch.NewHandler(a.SavedSearches))
		appointment.RegisterRoutes(protected, appointment.NewHandler(a.Appointments))
	}

	internal := r.Group("/internal")
	internal.Use(middleware.InternalTokenAuth(a.cfg.InternalToken, a.cfg.InternalAllowedIPs))
	savedsearch.RegisterInternalRoutes(internal, savedsearch.NewHandler(a.SavedSearches))

	return r
}

func (a *App) health(c *gin.Context) {
	status := "ok"
	code := http.StatusOK

	sqlDB, err := a.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	response.Success(c, code, gin.H{
		"status": status,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Close disconnects live sockets and releases the database pool.
func (a *App) Close() error {
	a.Hub.Close()
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
