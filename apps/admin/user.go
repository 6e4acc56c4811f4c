package main

import (
	"context"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/user"
)

type userArgs struct {
	name, email, role, password string

	department                       string
	studentClass, batch, rollNo, dob string
	idCardNumber                     string
}

// addUser creates a user, or updates and reactivates the one owning the email.
func (cli *commandLine) addUser(ua userArgs) error {
	ctx := context.Background()

	usr, err := cli.svcs.Users.GetByEmail(ctx, ua.email)
	switch {
	case core.IsNotFound(err):
		_, err = cli.svcs.Users.Create(ctx, user.NewUser{
			Name:         ua.name,
			Email:        ua.email,
			Password:     ua.password,
			Role:         ua.role,
			Department:   ua.department,
			StudentClass: ua.studentClass,
			Batch:        ua.batch,
			RollNo:       ua.rollNo,
			DOB:          ua.dob,
			IDCardNumber: ua.idCardNumber,
		})
		return err
	case err != nil:
		return err
	}

	active := true
	_, err = cli.svcs.Users.Update(ctx, usr.ID, user.UpdateUser{
		Name:         ua.name,
		Role:         ua.role,
		Department:   ua.department,
		StudentClass: ua.studentClass,
		Batch:        ua.batch,
		RollNo:       ua.rollNo,
		DOB:          ua.dob,
		IDCardNumber: ua.idCardNumber,
		IsActive:     &active,
		Password:     ua.password,
	})
	return err
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.svcs.Users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	_, err = cli.svcs.Users.Update(ctx, usr.ID, user.UpdateUser{Password: pwd})
	return err
}
