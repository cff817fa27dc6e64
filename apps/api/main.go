package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/stationhq/firewatch/apps/api/echo"
	"github.com/stationhq/firewatch/core"
	"github.com/stationhq/firewatch/core/chat"
	"github.com/stationhq/firewatch/core/file"
	"github.com/stationhq/firewatch/core/status"
	"github.com/stationhq/firewatch/core/user"
	emailsvc "github.com/stationhq/firewatch/services/email"
	logsvc "github.com/stationhq/firewatch/services/logger"
	realtimesvc "github.com/stationhq/firewatch/services/realtime"
	storagesvc "github.com/stationhq/firewatch/services/storage"
	"github.com/stationhq/firewatch/storage/database"
	sqlxrepos "github.com/stationhq/firewatch/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lshortfile)

	logger := logsvc.NewRollbarLogger(std, core.Conf)
	logger.Enable(!(core.Conf.Debug || core.Conf.TestMode))

	if err := run(logger); err != nil {
		logger.Fatal("running API server", err)
	}
}

func run(logger core.Logger) error {
	// set up DB
	sdb, err := database.Open(core.Conf)
	if err != nil {
		return err
	}
	defer sdb.Close()
	db := sqlx.NewDb(sdb, "postgres")

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	store, err := storagesvc.New(core.Conf)
	if err != nil {
		return err
	}

	hub := realtimesvc.NewHub(logger)
	go hub.Run()

	usrRepo := sqlxrepos.NewUserRepository(db)
	usrSvc := user.NewService(usrRepo, mailSvc)
	statusSvc := status.NewService(sqlxrepos.NewStatusRepository(db), usrRepo, hub)
	chatSvc := chat.NewService(sqlxrepos.NewChatRepository(db), usrRepo, hub, logger)
	fileSvc := file.NewService(sqlxrepos.NewFileRepository(db), store, hub)

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(
		core.Conf.Addr(),
		shutdown,
		&echoapi.Deps{
			Logger:    logger,
			UserSvc:   usrSvc,
			StatusSvc: statusSvc,
			ChatSvc:   chatSvc,
			FileSvc:   fileSvc,
			Hub:       hub,
		},
	)
	go app.Start()
	logger.Info("API server started on " + core.Conf.Addr())

	<-shutdown
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Stop(ctx)
}
