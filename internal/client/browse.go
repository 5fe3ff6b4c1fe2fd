package client

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/mdouchement/lostfound/internal/client/tui"
	"github.com/pkg/errors"
)

// Browse runs the text-based item browser.
func Browse(app *App) (err error) {
	ui, err := tui.New(app.Board, app.Log)
	if err != nil {
		return errors.Wrap(err, "could not create the browser")
	}

	defer func() {
		if r := recover(); r != nil {
			ui.Cleanup()
			fmt.Fprintf(os.Stderr, "%v\n%s\n", r, debug.Stack())
			err = errors.New("browser crashed")
		}
	}()

	if err = ui.Load(); err != nil {
		return failure(app, err)
	}

	ui.Run()
	return nil
}
