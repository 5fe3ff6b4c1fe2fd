package client

import (
	"fmt"
	"strings"

	"github.com/mdouchement/lostfound/internal/submission"
	"github.com/pkg/errors"
)

// Login signs in with email and password and stores the session.
func Login(app *App) error {
	email, err := promptLine("Email: ")
	if err != nil {
		return errors.Wrap(err, "could not read email from stdin")
	}

	password, err := promptPassword("Password: ")
	if err != nil {
		return errors.Wrap(err, "could not read password from stdin")
	}

	ctx, cancel := timeout()
	defer cancel()

	profile, err := app.Session.SignIn(ctx, strings.TrimSpace(email), string(password))
	if err != nil {
		return failure(app, err)
	}

	fmt.Fprintf(app.Out, "Signed in as %s <%s>\n", profile.Name, profile.Email)
	return app.Remember()
}

// Register creates an account, signs in and stores the session.
func Register(app *App) error {
	name, err := promptLine("Name: ")
	if err != nil {
		return errors.Wrap(err, "could not read name from stdin")
	}
	email, err := promptLine("Email: ")
	if err != nil {
		return errors.Wrap(err, "could not read email from stdin")
	}
	photo, err := promptLine("Photo URL (optional): ")
	if err != nil {
		return errors.Wrap(err, "could not read photo URL from stdin")
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return errors.Wrap(err, "could not read password from stdin")
	}

	name, email, photo = strings.TrimSpace(name), strings.TrimSpace(email), strings.TrimSpace(photo)
	if fe := submission.ValidateRegistration(name, email, string(password), photo); !fe.Empty() {
		return fe.Err()
	}

	ctx, cancel := timeout()
	defer cancel()

	profile, err := app.Session.Register(ctx, name, email, string(password), photo)
	if err != nil {
		return failure(app, err)
	}

	fmt.Fprintf(app.Out, "Welcome %s, your account has been created\n", profile.Name)
	return app.Remember()
}

// Logout closes the backend session and removes the credentials file.
func Logout(app *App) error {
	if !app.Session.SignedIn() {
		return errors.New("could not logout because session is not defined")
	}

	ctx, cancel := timeout()
	defer cancel()

	if err := app.Session.SignOut(ctx); err != nil {
		app.Log.WithError(err).Warn("backend session could not be closed")
	}

	app.persisted = false
	if Exists() {
		return errors.Wrap(Remove(), "could not remove credential file")
	}
	return nil
}
