package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/stationhq/firewatch/core"
	"github.com/stationhq/firewatch/storage/database"
	sqlxrepos "github.com/stationhq/firewatch/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	errAndDie(database.CreateIfNotExist(core.Conf))
	sdb, err := database.Open(core.Conf)
	errAndDie(err)
	defer sdb.Close()
	db := sqlx.NewDb(sdb, "postgres")

	// start CLI
	cli := commandLine{
		db:      sdb,
		usrRepo: sqlxrepos.NewUserRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
