package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/campus/apps"
	"github.com/trezcool/campus/core"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf  *core.Config
	repos *apps.Repositories
	svcs  *apps.Services
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -name NAME -email EMAIL -role ROLE [-department D] [-class C -batch B -rollno R -dob YYYY-MM-DD] [-idcard N]")
	fmt.Println("      create a user, or update the role and password of an existing one")
	fmt.Println("  resetpassword -email EMAIL - reset user's password")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command (up, down, status, redo, ...) on the postgres store")
	fmt.Println("  seed - insert demo data; the password of the demo users will be prompted")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserRole := addUserCmd.String("role", "", "One of admin, faculty, student, busstaff.")
	addUserDept := addUserCmd.String("department", "", "Faculty department.")
	addUserClass := addUserCmd.String("class", "", "Student class.")
	addUserBatch := addUserCmd.String("batch", "", "Student batch.")
	addUserRollNo := addUserCmd.String("rollno", "", "Student roll number.")
	addUserDOB := addUserCmd.String("dob", "", "Student date of birth (YYYY-MM-DD).")
	addUserIDCard := addUserCmd.String("idcard", "", "ID card number.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserName == "" || *addUserEmail == "" || *addUserRole == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(userArgs{
			name:         *addUserName,
			email:        *addUserEmail,
			role:         *addUserRole,
			password:     pwd,
			department:   *addUserDept,
			studentClass: *addUserClass,
			batch:        *addUserBatch,
			rollNo:       *addUserRollNo,
			dob:          *addUserDOB,
			idCardNumber: *addUserIDCard,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "seed":
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			cli.printUsage()
			return errHelp
		}
		return cli.seed(pwd)

	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
