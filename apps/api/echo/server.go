package echoapi

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/stationhq/firewatch/core"
	"github.com/stationhq/firewatch/core/chat"
	"github.com/stationhq/firewatch/core/file"
	"github.com/stationhq/firewatch/core/status"
	"github.com/stationhq/firewatch/core/user"
	realtimesvc "github.com/stationhq/firewatch/services/realtime"
)

type (
	// Deps holds the services the API serves.
	Deps struct {
		Logger    core.Logger
		UserSvc   *user.Service
		StatusSvc *status.Service
		ChatSvc   *chat.Service
		FileSvc   *file.Service
		Hub       *realtimesvc.Hub
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		addr     string
		shutdown chan os.Signal
		deps     *Deps
		app      *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(addr string, shutdown chan os.Signal, deps *Deps) Server {
	s := &server{
		addr:     addr,
		shutdown: shutdown,
		deps:     deps,
		app:      echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !core.Conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)
	wsJWT := middleware.JWTWithConfig(wsJWTConfig)

	registerUserAPI(v1, jwt, s.deps.UserSvc)
	registerStatusAPI(v1, jwt, s.deps.StatusSvc, s.deps.FileSvc, s.deps.UserSvc)
	registerChatAPI(v1, jwt, s.deps.ChatSvc, s.deps.UserSvc)
	registerFileAPI(v1, jwt, s.deps.FileSvc, s.deps.UserSvc)
	registerWsAPI(v1, wsJWT, s.deps.Hub)
}

// signalShutdown tells main to bring the whole process down cleanly.
func (s *server) signalShutdown() {
	if s.shutdown != nil {
		s.shutdown <- syscall.SIGTERM
	}
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.addr))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Firewatch API!")
}

func intParam(ctx echo.Context, name string) (int, error) {
	return strconv.Atoi(ctx.Param(name))
}
