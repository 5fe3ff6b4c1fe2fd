package client

import (
	"fmt"
	"strings"

	"github.com/mdouchement/lostfound/internal/board"
	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/pkg/errors"
)

// Recover prompts for the recovery details of an item, asks for a confirmation and submits it.
func Recover(app *App, id string) error {
	var form board.RecoveryForm

	location, err := promptLine("Where was it recovered? ")
	if err != nil {
		return errors.Wrap(err, "could not read location from stdin")
	}
	form.RecoveredLocation = strings.TrimSpace(location)

	date, err := promptLine("When was it recovered? ")
	if err != nil {
		return errors.Wrap(err, "could not read date from stdin")
	}
	if date = strings.TrimSpace(date); date != "" {
		form.RecoveredDate, err = liblf.ParseDate(date)
		if err != nil {
			return errors.Wrapf(err, "invalid date %q", date)
		}
	}

	notes, err := promptLine("Notes (optional): ")
	if err != nil {
		return errors.Wrap(err, "could not read notes from stdin")
	}
	form.Notes = strings.TrimSpace(notes)

	ctx, cancel := timeout()
	defer cancel()

	recovery, err := app.Board.Recover(ctx, id, form)
	if err != nil {
		return failure(app, err)
	}

	ok, err := confirm(fmt.Sprintf("Submit the recovery of %q to %s? [y/N] ", recovery.ItemDetails.Title, recovery.OriginalOwner.Name))
	if err != nil || !ok {
		app.Board.CancelRecovery()
		if err == nil {
			fmt.Fprintln(app.Out, "Recovery cancelled")
		}
		return err
	}

	created, err := app.Board.ConfirmRecovery(ctx)
	if err != nil {
		return failure(app, err)
	}

	fmt.Fprintf(app.Out, "%s (%s)\n", app.Board.RecoveryFeedback(), created.ID)
	return nil
}

// Recoveries prints the recoveries involving the signed in user.
func Recoveries(app *App) error {
	ctx, cancel := timeout()
	defer cancel()

	entries, err := app.Board.Recoveries(ctx)
	if err != nil {
		return failure(app, err)
	}
	return renderRecoveries(app.Out, entries)
}

// Confirm marks a pending recovery as fully recovered.
func Confirm(app *App, recoveryID string) error {
	ctx, cancel := timeout()
	defer cancel()

	if _, err := app.Board.MarkFullyRecovered(ctx, recoveryID); err != nil {
		return failure(app, err)
	}

	fmt.Fprintln(app.Out, app.Board.Feedback())
	return nil
}
