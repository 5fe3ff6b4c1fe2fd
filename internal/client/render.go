package client

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mdouchement/lostfound/internal/board"
	"github.com/mdouchement/lostfound/internal/submission"
	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/pkg/errors"
)

const dateLayout = "2006-01-02"

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func day(d liblf.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.Format(dateLayout)
}

func renderPage(w io.Writer, page board.Page) error {
	if len(page.Entries) == 0 {
		fmt.Fprintln(w, "No items found")
		return nil
	}

	tw := table(w)
	fmt.Fprintln(tw, "ID\tTYPE\tTITLE\tCATEGORY\tLOCATION\tDATE\tSTATUS\tACTION")
	for _, e := range page.Entries {
		action := e.State.Action.Label
		if !e.State.Action.Enabled {
			action = "(" + action + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Item.ID,
			e.Item.PostType,
			e.Item.Title,
			e.Item.Category,
			e.Item.Location,
			day(e.Item.Date),
			e.State.Status,
			action,
		)
	}
	if err := tw.Flush(); err != nil {
		return errors.Wrap(err, "could not render items")
	}

	fmt.Fprintf(w, "\nPage %d/%d (%d items)\n", page.Page, max(page.TotalPages, 1), page.Total)
	return nil
}

func renderEntry(w io.Writer, e board.Entry) error {
	tw := table(w)
	row := func(k, v string) {
		if v != "" {
			fmt.Fprintf(tw, "%s:\t%s\n", k, v)
		}
	}

	row("ID", e.Item.ID)
	row("Type", e.Item.PostType)
	row("Title", e.Item.Title)
	row("Description", e.Item.Description)
	row("Category", e.Item.Category)
	row("Location", e.Item.Location)
	row("Date", day(e.Item.Date))
	row("Thumbnail", e.Item.Thumbnail)
	row("Contact", fmt.Sprintf("%s <%s>", e.Item.ContactName, e.Item.ContactEmail))
	row("Status", e.State.Status)
	row("Action", e.State.Action.Label)
	if r := e.State.Recovery; r != nil {
		row("Recovered at", r.RecoveredLocation)
		row("Recovered on", day(r.RecoveredDate))
		row("Recovered by", r.RecoveredBy.Name)
		row("Notes", r.Notes)
	}
	return errors.Wrap(tw.Flush(), "could not render item")
}

func renderRecoveries(w io.Writer, entries []board.RecoveryEntry) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recoveries found")
		return nil
	}

	tw := table(w)
	fmt.Fprintln(tw, "ID\tITEM\tTYPE\tRECOVERED AT\tDATE\tSTATUS\tCONFIRM")
	for _, e := range entries {
		confirm := ""
		if e.CanConfirm {
			confirm = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Recovery.ID,
			e.Recovery.ItemDetails.Title,
			e.Label,
			e.Recovery.RecoveredLocation,
			day(e.Recovery.RecoveredDate),
			e.Recovery.Status,
			confirm,
		)
	}
	return errors.Wrap(tw.Flush(), "could not render recoveries")
}

func renderHighlights(w io.Writer, highlights []liblf.Highlight) {
	for i, h := range highlights {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, h.Title)
		fmt.Fprintln(w, strings.Repeat("=", len(h.Title)))
		if h.Description != "" {
			fmt.Fprintln(w, h.Description)
		}
		if h.ActionText != "" {
			fmt.Fprintf(w, "%s: %s\n", h.ActionText, h.ActionLink)
		}
	}
}

// failure turns an error into what is displayed to the user.
// Validation and local errors are kept, backend errors are translated.
func failure(app *App, err error) error {
	var fe submission.FieldErrors
	if errors.As(err, &fe) {
		return fe
	}

	app.Log.WithError(err).Error("command failed")
	if liblf.StatusCode(err) == 0 && !errors.Is(err, liblf.ErrNotSignedIn) {
		return err
	}
	return errors.New(submission.FailureMessage(err))
}
