package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/notesync/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a username and password and creates the account on
// the server. Registration needs the server to be reachable.
func (a *App) Register(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Register(ctx, userName, password); err != nil {
		return err
	}

	a.printf("Account created, you can log in now\n")
	return nil
}

// Login prompts for credentials and signs in. The scheduler reacts to the
// new session by pulling the user's records.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.session.Login(ctx, userName, password); err != nil {
		return fmt.Errorf("login unsuccessful: %w", err)
	}

	a.printf("Logged in as %s\n", userName)
	return nil
}

// Logout ends the session. Local records are kept for the next sign-in.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	a.printf("Logged out\n")
	return nil
}
