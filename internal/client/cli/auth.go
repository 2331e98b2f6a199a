package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lmsauth/internal/bus"
	"github.com/dmitrijs2005/lmsauth/internal/client/client"
	"github.com/dmitrijs2005/lmsauth/internal/common"
	"github.com/dmitrijs2005/lmsauth/internal/models"
	"github.com/dmitrijs2005/lmsauth/internal/validation"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for the account fields and a password, validates them
// locally and creates the account. On success the returned session is kept.
func (a *App) Register(ctx context.Context) error {
	var in models.RegisterInput

	prompts := []struct {
		prompt string
		dst    *string
	}{
		{"Enter username", &in.Username},
		{"Enter email", &in.Email},
		{"Enter phone", &in.Phone},
		{"Enter first name", &in.FirstName},
		{"Enter last name", &in.LastName},
	}
	for _, p := range prompts {
		v, err := getSimpleText(a.reader, p.prompt, a.out)
		if err != nil {
			return err
		}
		*p.dst = v
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	in.Password = string(password)

	if err := validation.Struct(in); err != nil {
		a.report(err)
		return err
	}

	res, err := a.authService.Register(ctx, in)
	if err != nil {
		a.report(err)
		return err
	}

	a.startSession(res)
	fmt.Fprintln(a.out, res.Message)
	return nil
}

// Login prompts for an identifier (email, username or phone) and a password.
// An unreachable service switches the client to offline mode.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter email, username or phone", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	res, err := a.authService.Login(ctx, identifier, password)
	if err != nil {
		if errors.Is(err, client.ErrUnavailable) {
			a.setMode(ModeOffline)
		}
		a.report(err)
		return err
	}

	a.startSession(res)
	a.setMode(ModeOnline)
	fmt.Fprintln(a.out, res.Message)
	return nil
}

// Me prints the current user.
func (a *App) Me(ctx context.Context) error {
	user, err := a.authService.Me(ctx, a.token)
	if err != nil {
		a.report(err)
		return err
	}

	a.user = user
	fmt.Fprintf(a.out, "%s %s (@%s)\n", user.FirstName, user.LastName, user.Username)
	fmt.Fprintf(a.out, "  email: %s\n  phone: %s\n", user.Email, user.Phone)
	if user.LastLogin != nil {
		fmt.Fprintf(a.out, "  last login: %s\n", user.LastLogin.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// Logout drops the session entry and forgets the token. The local session is
// cleared even when the cache could not be reached.
func (a *App) Logout(ctx context.Context) error {
	err := a.authService.Logout(ctx, a.token)
	if err != nil {
		a.logger.Warn(ctx, "logout failed", "error", err)
	}

	a.token = ""
	a.user = nil
	fmt.Fprintln(a.out, models.MessageLoggedOut)
	return err
}

func (a *App) startSession(res *models.AuthResult) {
	a.token = res.Token
	a.user = res.User
}

// report prints err in a form fit for the terminal.
func (a *App) report(err error) {
	var (
		ve     *common.ValidationError
		remote *bus.RemoteError
	)

	switch {
	case errors.As(err, &ve):
		for _, f := range ve.Fields {
			fmt.Fprintf(a.out, "  %s: %s\n", f.Field, f.Message)
		}
	case errors.As(err, &remote):
		fmt.Fprintln(a.out, remote.Message)
		for _, f := range remote.Fields {
			fmt.Fprintf(a.out, "  %s: %s\n", f.Field, f.Message)
		}
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(a.out, "Service unavailable, please try again later")
	default:
		fmt.Fprintln(a.out, err)
	}
}
