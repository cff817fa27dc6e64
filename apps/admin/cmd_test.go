package main

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stationhq/firewatch/core/user"
	dummydb "github.com/stationhq/firewatch/storage/database/dummy"
)

func newTestCLI(t *testing.T) *commandLine {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	return &commandLine{usrRepo: dummydb.NewUserRepository(db)}
}

func mockPassword(pwd string) func() {
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	return func() { readPasswordFunc = orig }
}

func Test_commandLine_run(t *testing.T) {
	cli := newTestCLI(t)
	restore := mockPassword("Str0ng!pwd")
	defer restore()

	t.Run("no args prints usage", func(t *testing.T) {
		if err := cli.run([]string{"admin"}); err != errHelp {
			t.Errorf("run() error = %v; want errHelp", err)
		}
	})

	t.Run("unknown command prints usage", func(t *testing.T) {
		if err := cli.run([]string{"admin", "frobnicate"}); err != errHelp {
			t.Errorf("run() error = %v; want errHelp", err)
		}
	})

	t.Run("adduser requires email, first and last", func(t *testing.T) {
		if err := cli.run([]string{"admin", "adduser", "-email", "x@y.test"}); err != errHelp {
			t.Errorf("run() error = %v; want errHelp", err)
		}
	})

	t.Run("adduser creates the account", func(t *testing.T) {
		args := []string{
			"admin", "adduser",
			"-email", "Jane.Chief@station.test",
			"-first", "Jane",
			"-last", "Chief",
			"-grade", "Captain",
			"-role", user.RoleSuperAdmin,
		}
		if err := cli.run(args); err != nil {
			t.Fatalf("run() failed: %v", err)
		}

		usr, err := cli.usrRepo.GetUserByEmail(context.Background(), "jane.chief@station.test")
		if err != nil {
			t.Fatalf("GetUserByEmail() failed: %v", err)
		}
		if usr.Role != user.RoleSuperAdmin {
			t.Errorf("Role = %v; want %v", usr.Role, user.RoleSuperAdmin)
		}
		if !usr.VisibleInList {
			t.Error("expected new user to be visible in the team list")
		}
		if err = usr.CheckPassword("Str0ng!pwd"); err != nil {
			t.Errorf("CheckPassword() failed: %v", err)
		}
	})

	t.Run("adduser updates an existing account", func(t *testing.T) {
		args := []string{
			"admin", "adduser",
			"-email", "jane.chief@station.test",
			"-first", "Janet",
			"-last", "Chief",
			"-role", user.RoleAdmin,
		}
		if err := cli.run(args); err != nil {
			t.Fatalf("run() failed: %v", err)
		}

		usr, err := cli.usrRepo.GetUserByEmail(context.Background(), "jane.chief@station.test")
		if err != nil {
			t.Fatalf("GetUserByEmail() failed: %v", err)
		}
		if usr.FirstName != "Janet" || usr.Role != user.RoleAdmin {
			t.Errorf("got (%v, %v); want (Janet, %v)", usr.FirstName, usr.Role, user.RoleAdmin)
		}
	})

	t.Run("adduser rejects unknown roles", func(t *testing.T) {
		args := []string{
			"admin", "adduser",
			"-email", "x@y.test",
			"-first", "X",
			"-last", "Y",
			"-role", "president",
		}
		if err := cli.run(args); err == nil {
			t.Error("run() expected an error for an unknown role")
		}
	})

	t.Run("resetpassword", func(t *testing.T) {
		defer mockPassword("N3w!passwd")()

		if err := cli.run([]string{"admin", "resetpassword", "-email", "jane.chief@station.test"}); err != nil {
			t.Fatalf("run() failed: %v", err)
		}
		usr, err := cli.usrRepo.GetUserByEmail(context.Background(), "jane.chief@station.test")
		if err != nil {
			t.Fatalf("GetUserByEmail() failed: %v", err)
		}
		if err = usr.CheckPassword("N3w!passwd"); err != nil {
			t.Errorf("CheckPassword() failed: %v", err)
		}
	})

	t.Run("resetpassword requires email", func(t *testing.T) {
		if err := cli.run([]string{"admin", "resetpassword"}); err != errHelp {
			t.Errorf("run() error = %v; want errHelp", err)
		}
	})

	t.Run("migrate", func(t *testing.T) {
		origMigrate := migrateFunc
		defer func() { migrateFunc = origMigrate }()

		called := false
		migrateFunc = func(db *sql.DB) error { called = true; return nil }
		if err := cli.run([]string{"admin", "migrate"}); err != nil {
			t.Fatalf("run() failed: %v", err)
		}
		if !called {
			t.Error("expected migrate to be invoked")
		}
	})
}
