package main

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/apps"
	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/attendance"
	"github.com/trezcool/campus/core/busroute"
	"github.com/trezcool/campus/core/mark"
	"github.com/trezcool/campus/core/timetable"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/storage/database/postgres"
	"github.com/trezcool/campus/testutil"
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	conf := testutil.NewConfig()
	repos, err := apps.OpenStore(context.Background(), conf, false)
	require.NoError(t, err)
	validate, _ := apps.NewValidator()

	return &commandLine{
		conf:  conf,
		repos: repos,
		svcs:  apps.NewServices(repos, testutil.NewMailService(conf), validate, conf),
	}
}

// mockPassword makes the password prompt return pwd.
func mockPassword(t *testing.T, pwd string) {
	t.Helper()
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func (tt cliTest) run(t *testing.T, cli *commandLine) error {
	t.Helper()
	mockPassword(t, tt.pwd)
	err := cli.run(append([]string{"admin"}, tt.args...))
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
	return err
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "migrate without subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "seed without password", args: []string{"seed"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { _ = tt.run(t, cli) })
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(_ context.Context, _ *postgres.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	t.Run("not a postgres store", func(t *testing.T) {
		_ = cliTest{args: []string{"migrate", "up"}, wantErrStr: `migrate: the "memory" store has no migrations`}.run(t, cli)
	})

	cli.conf.Database.Driver = core.DriverPostgres
	tests := []cliTest{
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "hostel", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { _ = tt.run(t, cli) })
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	adminArgs := []string{"adduser", "-name", "Root Admin", "-email", "Root@Campus.test", "-role", "admin"}
	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "missing role", args: []string{"adduser", "-name", "Root", "-email", "root@campus.test"}, pwd: testutil.Password, wantErr: errHelp},
		{name: "no password", args: adminArgs, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { _ = tt.run(t, cli) })
	}

	t.Run("invalid role", func(t *testing.T) {
		mockPassword(t, testutil.Password)
		err := cli.run([]string{"admin", "adduser", "-name", "Root", "-email", "root@campus.test", "-role", "janitor"})
		assert.Error(t, err)
		_, err = cli.svcs.Users.GetByEmail(ctx, "root@campus.test")
		assert.Equal(t, user.ErrNotFound, err)
	})

	t.Run("student without roll number", func(t *testing.T) {
		mockPassword(t, testutil.Password)
		err := cli.run([]string{"admin", "adduser", "-name", "Sam", "-email", "sam@campus.test", "-role", "student"})
		assert.Error(t, err)
	})

	t.Run("create", func(t *testing.T) {
		_ = cliTest{args: adminArgs, pwd: testutil.Password}.run(t, cli)

		usr, err := cli.svcs.Users.GetByEmail(ctx, "root@campus.test")
		require.NoError(t, err)
		assert.Equal(t, "Root Admin", usr.Name)
		assert.Equal(t, user.RoleAdmin, usr.Role)
		assert.True(t, usr.IsActive)
		assert.NoError(t, usr.CheckPassword(testutil.Password))
	})

	t.Run("update existing", func(t *testing.T) {
		existing := testutil.CreateUser(t, cli.repos.Users, "Dana", "dana@campus.test", user.RoleStudent, func(usr *user.User) {
			usr.IsActive = false
		})
		newPwd := "Zr4&wTq8!Nb"
		_ = cliTest{
			args: []string{"adduser", "-name", "Dana Faculty", "-email", "dana@campus.test", "-role", "faculty", "-department", "Physics"},
			pwd:  newPwd,
		}.run(t, cli)

		usr, err := cli.svcs.Users.GetByID(ctx, existing.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dana Faculty", usr.Name)
		assert.Equal(t, user.RoleFaculty, usr.Role)
		assert.Equal(t, "Physics", usr.Department)
		assert.Empty(t, usr.RollNo, "student fields are dropped")
		assert.True(t, usr.IsActive)
		assert.NoError(t, usr.CheckPassword(newPwd))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, cli.repos.Users, "Erin", "erin@campus.test", user.RoleFaculty)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "erin@campus.test"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@campus.test"}, pwd: "Zr4&wTq8!Nb", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", "ERIN@campus.test"}, pwd: "Zr4&wTq8!Nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { _ = tt.run(t, cli) })
	}

	got, err := cli.svcs.Users.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.NoError(t, got.CheckPassword("Zr4&wTq8!Nb"))
	assert.Error(t, got.CheckPassword(testutil.Password))
}

func Test_commandLine_seed(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	// seeding twice keeps a single copy of everything
	for i := 0; i < 2; i++ {
		_ = cliTest{args: []string{"seed"}, pwd: testutil.Password}.run(t, cli)
	}

	users, err := cli.svcs.Users.Query(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, users, len(seedUsers))

	alice, err := cli.svcs.Users.GetByEmail(ctx, "alice@campus.local")
	require.NoError(t, err)
	assert.NoError(t, alice.CheckPassword(testutil.Password))

	t.Run("marks", func(t *testing.T) {
		marks, err := cli.svcs.Marks.Query(ctx, &mark.QueryFilter{})
		require.NoError(t, err)
		assert.Len(t, marks, 6)

		rc, err := cli.svcs.Marks.ReportCard(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, len(rc.Marks))
		assert.Equal(t, float64(234), rc.Obtained)
		assert.Equal(t, "B+", rc.Grade)
	})

	t.Run("attendance", func(t *testing.T) {
		records, err := cli.svcs.Attendance.Query(ctx, &attendance.QueryFilter{Class: seedClass})
		require.NoError(t, err)
		assert.Len(t, records, 2)

		pct, err := cli.svcs.Attendance.Percentage(ctx, alice.ID, seedClass)
		require.NoError(t, err)
		assert.Equal(t, float64(50), pct, "every record of the class counts as a session")
	})

	t.Run("bus route", func(t *testing.T) {
		routes, err := cli.svcs.BusRoutes.Query(ctx, &busroute.QueryFilter{})
		require.NoError(t, err)
		require.Len(t, routes, 1)

		r, err := cli.svcs.BusRoutes.RouteForStudent(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, seedRouteNumber, r.RouteNumber)
		assert.Len(t, r.Announcements, 1)
	})

	t.Run("timetables", func(t *testing.T) {
		tts, err := cli.svcs.Timetables.Query(ctx, &timetable.QueryFilter{Class: seedClass})
		require.NoError(t, err)
		assert.Len(t, tts, 1)

		cts, err := cli.svcs.Timetables.ListForClass(ctx, seedClass)
		require.NoError(t, err)
		assert.Len(t, cts, 2)
	})
}
