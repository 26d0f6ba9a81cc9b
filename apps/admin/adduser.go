package main

import (
	"context"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/user"
)

// addAdmin bootstraps the sole admin account.
func (cli *commandLine) addAdmin(email, pwd string) error {
	nu := user.NewUser{Email: email, Password: pwd, PasswordConfirm: pwd}
	if err := nu.Validate(context.Background(), cli.usrSvc); err != nil {
		return err
	}
	_, err := cli.usrSvc.CreateAdmin(context.Background(), nu)
	return err
}

// addStaff creates a staff account. The CLI operates with admin rights.
func (cli *commandLine) addStaff(email, pwd string) error {
	nu := user.NewUser{Email: email, Password: pwd, PasswordConfirm: pwd}
	if err := nu.Validate(context.Background(), cli.usrSvc); err != nil {
		return err
	}
	_, err := cli.usrSvc.CreateStaff(context.Background(), access.Admin{}, nu)
	return err
}
