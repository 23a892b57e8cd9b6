// Package web assembles the fiber application: middleware, API handlers,
// static model files, metrics and the health check.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/configurator-admin/configurator-admin/internal/auth"
	"github.com/configurator-admin/configurator-admin/internal/config"
	accesslog "github.com/configurator-admin/configurator-admin/internal/logger/adapter/fiber"
	"github.com/configurator-admin/configurator-admin/internal/web/handler"
	"github.com/configurator-admin/configurator-admin/internal/web/handler/activity"
	adminmodel "github.com/configurator-admin/configurator-admin/internal/web/handler/admin/model"
	"github.com/configurator-admin/configurator-admin/internal/web/handler/admin/settings/viewer"
	"github.com/configurator-admin/configurator-admin/internal/web/handler/admin/user"
	"github.com/configurator-admin/configurator-admin/internal/web/handler/configs"
	"github.com/configurator-admin/configurator-admin/internal/web/handler/login"
	"github.com/configurator-admin/configurator-admin/internal/web/handler/logout"
	"github.com/configurator-admin/configurator-admin/internal/web/handler/model"
	"github.com/configurator-admin/configurator-admin/internal/web/handler/public"
	"github.com/configurator-admin/configurator-admin/internal/web/handler/role"
	"github.com/configurator-admin/configurator-admin/internal/web/handler/stream"
)

const (
	// HealthPath answers load balancer checks.
	HealthPath = handler.RootPath + "/health"
	// MetricsPath exposes Prometheus metrics.
	MetricsPath = "/metrics"
	// ModelsPath serves uploaded model files.
	ModelsPath = "/models"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for a termination signal and shuts the server down gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// Alive reports whether the health check answers OK.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// Addr is the listen address for the configured port.
func Addr(cfg *config.Config) string {
	return ":" + strconv.Itoa(cfg.Webserver.Port)
}

// New creates the web service and registers every handler.
func New(deps *handler.Deps) *Service {
	if !deps.Valid() {
		panic(handler.ErrNilDepsFatalLogMsg)
	}

	cfg := deps.Cfg

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			BodyLimit:      cfg.Webserver.BodyLimit,
			ErrorHandler:   errorHandler,
		},
	)

	service := &Service{
		cfg:          cfg,
		App:          app,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		CheckAliveURI: HealthPath,
		UserIDLocal:   auth.LocalsUserID,
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins(cfg),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	app.Get(HealthPath, service.health)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))
	app.Static(ModelsPath, cfg.Models.UploadDir, fiber.Static{MaxAge: 3600}) //nolint:mnd

	for _, h := range []handler.Service{
		&login.Handler,
		&logout.Handler,
		&user.Handler,
		&role.Handler,
		&model.Handler,
		&adminmodel.Handler,
		&public.Handler,
		&activity.Handler,
		&configs.Handler,
		&stream.Handler,
		&viewer.Handler,
	} {
		h.Init(app, deps)
	}

	return service
}

func (s *Service) health(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "shutting down"})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// errorHandler writes fiber errors, unknown routes included, as JSON.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}

	return handler.Error(c, code, msg)
}

func allowOrigins(cfg *config.Config) string {
	if cfg.Webserver.CORS.AllowOrigins != "" {
		return cfg.Webserver.CORS.AllowOrigins
	}

	return "*"
}
