package main

import (
	"context"
	"log"
	"os"

	"github.com/trezcool/campus/apps"
	"github.com/trezcool/campus/core"
	emailsvc "github.com/trezcool/campus/services/email"
	logsvc "github.com/trezcool/campus/services/logger"
)

var logger *logsvc.RollbarLogger

func main() {
	conf := core.NewConfig()
	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger = logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	// set up DB; migrations are left to the migrate command
	ctx := context.Background()
	repos, err := apps.OpenStore(ctx, conf, false /* migrate */)
	errAndDie(err)

	validate, _ := apps.NewValidator()
	mailSvc := emailsvc.NewConsoleService(std, logger, conf)

	// start CLI
	cli := commandLine{
		conf:  conf,
		repos: repos,
		svcs:  apps.NewServices(repos, mailSvc, validate, conf),
	}
	err = cli.run(os.Args)
	_ = repos.Store.Close(ctx)
	logger.Close()
	if err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
