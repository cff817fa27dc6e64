package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/stationhq/firewatch/core"
	"github.com/stationhq/firewatch/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(email, first, last, grade, role, pwd string) error {
	if !containsString(user.AllRoles, role) {
		return errors.Errorf("unknown role %q", role)
	}

	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)
	now := time.Now().UTC()

	usr, err := cli.usrRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{
			FirstName:     first,
			LastName:      last,
			Email:         email,
			Grade:         grade,
			Role:          role,
			VisibleInList: true,
			CreatedAt:     now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return err
		}
		usr.UpdatedAt = now
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}

	usr.FirstName = first
	usr.LastName = last
	usr.Grade = grade
	usr.Role = role
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = now
	_, err = cli.usrRepo.UpdateUser(ctx, usr, nil)
	return err
}

func containsString(strs []string, s string) bool {
	for _, str := range strs {
		if str == s {
			return true
		}
	}
	return false
}
