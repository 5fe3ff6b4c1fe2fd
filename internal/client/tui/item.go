package tui

import (
	"fmt"
	"strings"

	"github.com/gcla/gowid"
	"github.com/gcla/gowid/widgets/selectable"
	"github.com/gcla/gowid/widgets/styled"
	"github.com/gcla/gowid/widgets/text"
	"github.com/mdouchement/lostfound/internal/board"
	"github.com/mdouchement/lostfound/internal/reconcile"
)

// An Item is the graphical representation of a board.Entry.
type Item struct {
	ID           string
	presentation gowid.IWidget
	abstraction  board.Entry
}

// NewItem returns a new Item.
func NewItem(entry board.Entry) *Item {
	return &Item{
		ID: entry.Item.ID,
		presentation: selectable.New(
			styled.NewExt(
				text.New(Label(entry)),
				gowid.MakePaletteRef("normal"), gowid.MakePaletteRef("focused"),
			),
		),
		abstraction: entry,
	}
}

// Title returns the title of the item.
func (w *Item) Title() string {
	return w.abstraction.Item.Title
}

// Details returns the detail text of the item.
func (w *Item) Details() string {
	return Describe(w.abstraction)
}

// Label returns the one-line representation of the entry.
func Label(e board.Entry) string {
	return fmt.Sprintf("[%-5s] %s", e.Item.PostType, e.Item.Title)
}

// Describe returns the detail representation of the entry.
func Describe(e board.Entry) string {
	var b strings.Builder

	field := func(name, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "%-12s %s\n", name+":", value)
	}

	field("Type", e.Item.PostType)
	field("Category", e.Item.Category)
	field("Location", e.Item.Location)
	if !e.Item.Date.IsZero() {
		field("Date", e.Item.Date.Format("2006-01-02"))
	} else {
		field("Date", "")
	}
	field("Contact", strings.TrimSpace(fmt.Sprintf("%s <%s>", e.Item.ContactName, e.Item.ContactEmail)))
	field("Thumbnail", e.Item.Thumbnail)
	field("Status", e.State.Status)

	action := e.State.Action.Label
	switch {
	case e.State.Action.RequiresSignIn:
		action += " (sign in required)"
	case !e.State.Action.Enabled:
		action += " (disabled)"
	}
	field("Action", action)

	if r := e.State.Recovery; r != nil && e.State.Status == reconcile.StatusPendingConfirmation {
		field("Recovered at", r.RecoveredLocation)
		if e.State.CanConfirm {
			field("Recovery", "waiting for your confirmation ("+r.ID+")")
		}
	}

	if e.Item.Description != "" {
		b.WriteString("\n")
		b.WriteString(e.Item.Description)
		b.WriteString("\n")
	}
	return b.String()
}

////////////////////
//                //
// Delegates      //
//                //
////////////////////

// Render implements gowid.IWidget
func (w *Item) Render(size gowid.IRenderSize, focus gowid.Selector, app gowid.IApp) gowid.ICanvas {
	return w.presentation.Render(size, focus, app)
}

// RenderSize implements gowid.IWidget
func (w *Item) RenderSize(size gowid.IRenderSize, focus gowid.Selector, app gowid.IApp) gowid.IRenderBox {
	return w.presentation.RenderSize(size, focus, app)
}

// UserInput implements gowid.IWidget
func (w *Item) UserInput(ev any, size gowid.IRenderSize, focus gowid.Selector, app gowid.IApp) bool {
	return w.presentation.UserInput(ev, size, focus, app)
}

// Selectable implements gowid.IWidget
func (w *Item) Selectable() bool {
	return w.presentation.Selectable()
}
