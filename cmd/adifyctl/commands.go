package main

import (
	"encoding/json"
	"errors"
	"flag"
	"os"
	"strings"

	domainauth "github.com/socialadify/adify-console/internal/domain/auth"
)

var errNotLoggedIn = errors.New("not logged in")

// userMessage prefers the session's user-facing message over wrapped detail.
func userMessage(err error) string {
	var authErr *domainauth.Error
	if errors.As(err, &authErr) && authErr.Message != "" {
		msg := authErr.Message
		for _, f := range authErr.Fields {
			msg += "\n  " + f.Field + ": " + f.Message
		}
		return msg
	}
	return err.Error()
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// promptIfEmpty fills *v from the prompter when the flag was not given.
func promptIfEmpty(v *string, ask func(string) (string, error), label string) error {
	if strings.TrimSpace(*v) != "" {
		return nil
	}
	answer, err := ask(label)
	if err != nil {
		return err
	}
	*v = answer
	return nil
}

func runLogin(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "Account email (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := promptIfEmpty(email, cmdCtx.Prompts.Line, "Email"); err != nil {
		return err
	}
	password, err := cmdCtx.Prompts.Secret("Password")
	if err != nil {
		return err
	}

	con, err := cmdCtx.session()
	if err != nil {
		return err
	}
	if _, err := con.Session.Login(cmdCtx.Ctx, strings.TrimSpace(*email), password); err != nil {
		return err
	}
	snap := con.Session.Snapshot()
	return writef(cmdCtx.Out, "Logged in as %s\n", snap.User.DisplayName())
}

func runLogout(cmdCtx *commandContext, _ []string) error {
	con, err := cmdCtx.session()
	if err != nil {
		return err
	}
	if !con.Session.Snapshot().IsAuthenticated() {
		return writef(cmdCtx.Out, "Not logged in\n")
	}
	con.Session.Logout(cmdCtx.Ctx)
	return writef(cmdCtx.Out, "Logged out\n")
}

func runWhoami(cmdCtx *commandContext, _ []string) error {
	con, err := cmdCtx.session()
	if err != nil {
		return err
	}
	snap := con.Session.Snapshot()
	if !snap.IsAuthenticated() {
		if msg := snap.ErrorMessage(); msg != "" {
			return errors.New(msg)
		}
		return errNotLoggedIn
	}
	u := snap.User
	role := "member"
	if u.IsAdmin {
		role = "admin"
	}
	return writef(cmdCtx.Out, "%s <%s> (%s)\n", u.DisplayName(), u.Email, role)
}

func runSignup(cmdCtx *commandContext, args []string) error {
	fs := newFlagSet("signup")
	var in domainauth.SignupInput
	fs.StringVar(&in.Email, "email", "", "Account email (prompted when omitted)")
	fs.StringVar(&in.FirstName, "first-name", "", "First name (prompted when omitted)")
	fs.StringVar(&in.LastName, "last-name", "", "Last name (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, p := range []struct {
		v     *string
		label string
	}{
		{&in.Email, "Email"},
		{&in.FirstName, "First name"},
		{&in.LastName, "Last name"},
	} {
		if err := promptIfEmpty(p.v, cmdCtx.Prompts.Line, p.label); err != nil {
			return err
		}
	}
	password, err := cmdCtx.Prompts.Secret("Password")
	if err != nil {
		return err
	}
	in.Password = password

	con, err := cmdCtx.session()
	if err != nil {
		return err
	}
	user, err := con.Session.Signup(cmdCtx.Ctx, in)
	if err != nil {
		return err
	}
	return writef(cmdCtx.Out, "Account created for %s. Run \"adifyctl login\" to sign in.\n", user.Email)
}

func runPasswd(cmdCtx *commandContext, _ []string) error {
	con, err := cmdCtx.session()
	if err != nil {
		return err
	}
	if !con.Session.Snapshot().IsAuthenticated() {
		return errNotLoggedIn
	}
	var in domainauth.PasswordChange
	if in.CurrentPassword, err = cmdCtx.Prompts.Secret("Current password"); err != nil {
		return err
	}
	if in.NewPassword, err = cmdCtx.Prompts.Secret("New password"); err != nil {
		return err
	}
	if _, err := con.Session.ChangePassword(cmdCtx.Ctx, in); err != nil {
		return err
	}
	return writef(cmdCtx.Out, "Password changed. Log in again with the new password.\n")
}

func runRefresh(cmdCtx *commandContext, _ []string) error {
	con, err := cmdCtx.session()
	if err != nil {
		return err
	}
	if !con.Session.Snapshot().IsAuthenticated() {
		return errNotLoggedIn
	}
	if err := con.Session.RefreshUser(cmdCtx.Ctx); err != nil {
		return err
	}
	return writef(cmdCtx.Out, "Refreshed %s\n", con.Session.Snapshot().User.DisplayName())
}

type statusOutput struct {
	State         domainauth.State `json:"state"`
	Authenticated bool             `json:"authenticated"`
	Admin         bool             `json:"admin"`
	User          *domainauth.User `json:"user,omitempty"`
	Error         string           `json:"error,omitempty"`
}

func runStatus(cmdCtx *commandContext, _ []string) error {
	con, err := cmdCtx.session()
	if err != nil {
		return err
	}
	snap := con.Session.Snapshot()
	enc := json.NewEncoder(cmdCtx.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(statusOutput{
		State:         snap.State,
		Authenticated: snap.IsAuthenticated(),
		Admin:         snap.IsAdmin(),
		User:          snap.User,
		Error:         snap.ErrorMessage(),
	})
}
