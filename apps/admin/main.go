package main

import (
	"fmt"
	"os"

	"github.com/trezcool/yellowsub/core"
	"github.com/trezcool/yellowsub/core/profile"
	"github.com/trezcool/yellowsub/services/logger"
	"github.com/trezcool/yellowsub/storage/database"
	"github.com/trezcool/yellowsub/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	std, err := logsvc.NewZapLogger("ADMIN", conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up logger: %v\n", err)
		os.Exit(1)
	}
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db:         db,
		engine:     conf.Database.Engine,
		profileSvc: profile.NewService(sqlxrepos.NewProfileRepository(db)),
		sessions:   sqlxrepos.NewSessionStore(db),
		out:        os.Stdout,
	}
	err = cli.run(os.Args)

	_ = db.Close()
	logger.Sync()
	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
