package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/mdouchement/lostfound/internal/board"
	"github.com/mdouchement/lostfound/internal/listing"
	"github.com/mdouchement/lostfound/pkg/liblf"
	"github.com/pkg/errors"
)

// Listing views.
const (
	ViewActive    = "active"
	ViewRecovered = "recovered"
	ViewMine      = "mine"
	ViewLatest    = "latest"
)

// ListOptions are the options of the list command.
type ListOptions struct {
	View     string
	Search   string
	PostType string
	Category string
	Location string
	Sort     string
	Page     int
}

// Query returns the listing query of the options.
func (o ListOptions) Query() listing.Query {
	return listing.Query{
		Filters: listing.Filters{
			Search:   o.Search,
			PostType: o.PostType,
			Category: o.Category,
			Location: o.Location,
		},
		Sort: o.Sort,
		Page: o.Page,
	}
}

// List prints a page of items.
func List(app *App, opts ListOptions) error {
	var fetch func(ctx context.Context, q listing.Query) (board.Page, error)
	switch opts.View {
	case "", ViewActive:
		fetch = app.Board.Browse
	case ViewRecovered:
		fetch = app.Board.Recovered
	case ViewMine:
		fetch = app.Board.Mine
	case ViewLatest:
		fetch = func(ctx context.Context, _ listing.Query) (board.Page, error) {
			return app.Board.Latest(ctx)
		}
	default:
		return errors.Errorf("unknown view %q", opts.View)
	}

	ctx, cancel := timeout()
	defer cancel()

	page, err := fetch(ctx, opts.Query())
	if err != nil {
		return failure(app, err)
	}
	return renderPage(app.Out, page)
}

// Show prints an item.
func Show(app *App, id string) error {
	ctx, cancel := timeout()
	defer cancel()

	entry, err := app.Board.Detail(ctx, id)
	if err != nil {
		return failure(app, err)
	}
	return renderEntry(app.Out, entry)
}

// Report prompts for a new item and creates it.
func Report(app *App) error {
	if !app.Session.SignedIn() {
		return failure(app, liblf.ErrNotSignedIn)
	}

	var r liblf.ItemReport
	var date string
	fields := []struct {
		prompt string
		value  *string
	}{
		{"Type (lost/found): ", &r.PostType},
		{"Title: ", &r.Title},
		{"Description: ", &r.Description},
		{"Category (" + strings.Join(listing.CategorySuggestions, ", ") + "): ", &r.Category},
		{"Location: ", &r.Location},
		{"Date: ", &date},
		{"Thumbnail URL: ", &r.Thumbnail},
	}
	for _, f := range fields {
		v, err := promptLine(f.prompt)
		if err != nil {
			return errors.Wrap(err, "could not read item from stdin")
		}
		*f.value = strings.TrimSpace(v)
	}

	if date != "" {
		d, err := liblf.ParseDate(date)
		if err != nil {
			return errors.Wrapf(err, "invalid date %q", date)
		}
		r.Date = d
	}

	ctx, cancel := timeout()
	defer cancel()

	item, err := app.Board.Report(ctx, r)
	if err != nil {
		return failure(app, err)
	}

	fmt.Fprintf(app.Out, "%s (%s)\n", app.Board.Feedback(), item.ID)
	return nil
}

// Edit prompts for the fields to change on an item of the signed in user.
// Empty answers keep the current value.
func Edit(app *App, id string) error {
	if !app.Session.SignedIn() {
		return failure(app, liblf.ErrNotSignedIn)
	}

	ctx, cancel := timeout()
	defer cancel()

	entry, err := app.Board.Detail(ctx, id)
	if err != nil {
		return failure(app, err)
	}
	if !entry.State.IsOwner {
		return board.ErrNotOwner
	}
	item := entry.Item

	var patch liblf.ItemPatch
	fields := []struct {
		label   string
		current string
		value   **string
	}{
		{"Type", item.PostType, &patch.PostType},
		{"Title", item.Title, &patch.Title},
		{"Description", item.Description, &patch.Description},
		{"Category", item.Category, &patch.Category},
		{"Location", item.Location, &patch.Location},
		{"Thumbnail URL", item.Thumbnail, &patch.Thumbnail},
	}
	for _, f := range fields {
		v, err := promptLine(fmt.Sprintf("%s [%s]: ", f.label, f.current))
		if err != nil {
			return errors.Wrap(err, "could not read item from stdin")
		}
		if v = strings.TrimSpace(v); v != "" && v != f.current {
			*f.value = &v
		}
	}

	date, err := promptLine(fmt.Sprintf("Date [%s]: ", day(item.Date)))
	if err != nil {
		return errors.Wrap(err, "could not read item from stdin")
	}
	if date = strings.TrimSpace(date); date != "" {
		d, err := liblf.ParseDate(date)
		if err != nil {
			return errors.Wrapf(err, "invalid date %q", date)
		}
		patch.Date = &d
	}

	if _, err = app.Board.Update(ctx, id, patch); err != nil {
		return failure(app, err)
	}

	fmt.Fprintln(app.Out, app.Board.Feedback())
	return nil
}

// Delete removes an item of the signed in user after confirmation.
func Delete(app *App, id string, force bool) error {
	if !force {
		ok, err := confirm(fmt.Sprintf("Delete item %s? [y/N] ", id))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(app.Out, "Aborted")
			return nil
		}
	}

	ctx, cancel := timeout()
	defer cancel()

	if err := app.Board.Delete(ctx, id); err != nil {
		return failure(app, err)
	}

	fmt.Fprintln(app.Out, app.Board.Feedback())
	return nil
}

// Highlights prints the promotional slides.
func Highlights(app *App) error {
	ctx, cancel := timeout()
	defer cancel()

	highlights, err := app.Board.Highlights(ctx)
	if err != nil {
		return failure(app, err)
	}

	renderHighlights(app.Out, highlights)
	return nil
}

func confirm(prompt string) (bool, error) {
	answer, err := promptLine(prompt)
	if err != nil {
		return false, errors.Wrap(err, "could not read answer from stdin")
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
