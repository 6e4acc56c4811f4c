// Package echoapi is the REST API of the campus backend, served with echo.
package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/busroute"
	"github.com/trezcool/campus/core/mark"
	"github.com/trezcool/campus/core/timetable"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/services/ratelimit"
)

const metricsPath = "/metrics"

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Translator ut.Translator
		Store      core.Store
		// AuthLimiter throttles the /api/auth endpoints per client IP. Nil disables it.
		AuthLimiter ratelimit.Limiter

		UserSvc       *user.Service
		AttendanceSvc *attendance.Service
		MarkSvc       *mark.Service
		BusRouteSvc   *busroute.Service
		TimetableSvc  *timetable.Service
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(ctx context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		tokens   *tokenIssuer
		metrics  *metrics
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	if deps.AuthLimiter == nil {
		deps.AuthLimiter = ratelimit.Noop{}
	}
	s := &server{
		deps:     deps,
		app:      echo.New(),
		tokens:   newTokenIssuer(deps.Conf),
		metrics:  newMetrics(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = s.newAppHTTPErrorHandler(s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORS())
	s.app.Use(middleware.Secure())
	s.app.Use(s.metrics.middleware)

	s.app.GET(metricsPath, s.metrics.handler())

	g := s.app.Group("/api")
	g.GET("/health", s.health)

	s.registerAuthAPI(g)
	authed := g.Group("", s.authMiddleware)
	s.registerUserAPI(authed)
	s.registerAttendanceAPI(authed)
	s.registerMarkAPI(authed)
	s.registerBusRouteAPI(authed)
	s.registerTimetableAPI(authed)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // a shutdown is already pending
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

type healthResponse struct {
	Status string `json:"status"`
	Build  string `json:"build"`
	Store  string `json:"store"`
}

func (s *server) health(ctx echo.Context) error {
	resp := healthResponse{Status: "ok", Build: s.deps.Conf.Build, Store: "ok"}
	if err := s.deps.Store.Ping(ctx.Request().Context()); err != nil {
		s.deps.Logger.Warn("store ping failed", err)
		resp.Status = "unavailable"
		resp.Store = err.Error()
		return ctx.JSON(http.StatusServiceUnavailable, resp)
	}
	return ctx.JSON(http.StatusOK, resp)
}
