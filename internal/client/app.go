package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/chzyer/readline"
	"github.com/mdouchement/lostfound/internal/board"
	"github.com/mdouchement/lostfound/internal/cache"
	"github.com/mdouchement/lostfound/internal/client/tui"
	"github.com/mdouchement/lostfound/internal/session"
	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RequestTimeout bounds every command.
const RequestTimeout = 30 * time.Second

// Prompts used to read user input, replaced in tests.
var (
	promptLine     = readline.Line
	promptPassword = readline.Password
)

var identityHTTPClient = http.DefaultClient

// An App is the wired client stack shared by the commands.
type App struct {
	Settings Settings
	Log      *logrus.Logger
	Client   liblf.Client
	Session  *session.Session
	Board    *board.Board
	Out      io.Writer

	cfg        Config
	passphrase []byte
	persisted  bool
}

// Load wires the client stack from the given settings file.
// When restore is set and a credentials file exists, the saved session is resumed.
func Load(ctx context.Context, settingsFile string, restore bool) (*App, error) {
	settings, err := LoadSettings(settingsFile)
	if err != nil {
		return nil, err
	}

	log, err := tui.NewLogger(settings.LogFile, settings.LogLevel)
	if err != nil {
		return nil, err
	}
	return open(ctx, settings, log, restore)
}

func open(ctx context.Context, settings Settings, log *logrus.Logger, restore bool) (*App, error) {
	c, err := liblf.NewDefaultClient(settings.Endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "could not reach given endpoint")
	}

	store, err := cache.New(cache.DefaultSize, 0)
	if err != nil {
		return nil, errors.Wrap(err, "could not create cache")
	}

	identity := liblf.NewIdentity(identityHTTPClient, settings.APIKey, settings.IdentityEndpoint, settings.TokenEndpoint)

	app := &App{
		Settings: settings,
		Log:      log,
		Client:   c,
		Session:  session.New(identity, c, log),
		Out:      os.Stdout,
	}
	app.Board = board.New(c, app.Session, store, log)

	if restore && Exists() {
		if err = app.restore(ctx); err != nil {
			app.Close()
			return nil, err
		}
	}
	return app, nil
}

// Close persists a refreshed token and releases the board.
func (a *App) Close() error {
	a.Board.Close()

	if !a.persisted || !a.Session.SignedIn() {
		return nil
	}
	token := a.Session.Token()
	if token.IDToken == a.cfg.Token.IDToken {
		return nil
	}

	a.cfg.Token = token
	return a.write()
}

// Remember stores the current session in the credentials file.
func (a *App) Remember() error {
	a.cfg = Config{
		Endpoint: a.Settings.Endpoint,
		Email:    a.Session.Email(),
		Token:    a.Session.Token(),
	}

	fmt.Fprintln(a.Out, "Storing credentials in current directory as "+credentialsfile)
	if a.passphrase == nil {
		passphrase, err := promptPassword("passphrase: ")
		if err != nil {
			return errors.Wrap(err, "could not read passphrase from stdin")
		}
		a.passphrase = passphrase
	}

	a.persisted = true
	return a.write()
}

func (a *App) restore(ctx context.Context) error {
	fmt.Fprintln(a.Out, "Loading credentials from "+credentialsfile)

	ciphertext, err := os.ReadFile(credentialsfile)
	if err != nil {
		return errors.Wrap(err, "could not read credentials file")
	}

	a.passphrase, err = promptPassword("passphrase: ")
	if err != nil {
		return errors.Wrap(err, "could not read passphrase from stdin")
	}

	a.cfg, err = Open(ciphertext, a.passphrase)
	if err != nil {
		return err
	}
	if a.cfg.Endpoint != a.Settings.Endpoint {
		a.Log.WithField("endpoint", a.cfg.Endpoint).Warn("credentials belong to another endpoint, ignoring them")
		return nil
	}
	a.persisted = true

	if err = a.Session.Start(ctx, a.cfg.Token); err != nil {
		a.Log.WithError(err).Warn("saved session expired")
		return errors.Wrap(err, "saved session expired, please login again")
	}
	return nil
}

func (a *App) write() error {
	ciphertext, err := Seal(a.cfg, a.passphrase)
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(credentialsfile, ciphertext, 0600), "could not store credentials")
}

func timeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), RequestTimeout)
}
