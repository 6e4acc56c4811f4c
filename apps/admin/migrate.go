package main

import (
	"context"
	"fmt"

	"github.com/trezcool/campus/apps"
	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/storage/database/postgres"
)

var gooseRunFunc = postgres.RunMigrations // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.conf.Database.Driver != core.DriverPostgres {
		return apps.NewArgumentError(fmt.Sprintf("migrate: the %q store has no migrations", cli.conf.Database.Driver))
	}
	db, _ := cli.repos.Store.(*postgres.DB)
	return gooseRunFunc(context.Background(), db, args[0], args[1:]...)
}
