package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/gcla/gowid"
	"github.com/gcla/gowid/widgets/columns"
	"github.com/gcla/gowid/widgets/edit"
	"github.com/gcla/gowid/widgets/framed"
	"github.com/gcla/gowid/widgets/pile"
	"github.com/gcla/gowid/widgets/styled"
	"github.com/gcla/gowid/widgets/text"
	"github.com/gdamore/tcell/v2"
	"github.com/mdouchement/lostfound/internal/board"
	"github.com/mdouchement/lostfound/internal/listing"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// RequestTimeout bounds the loading of a page.
const RequestTimeout = 30 * time.Second

var (
	postTypes = []string{listing.All, "lost", "found"}
	sorts     = []string{listing.SortNewest, listing.SortOldest, listing.SortTitle}
)

// A TUI is a text-based interface to browse the items.
type TUI struct {
	App   *gowid.App
	board *board.Board
	log   *logrus.Logger

	mu        sync.Mutex
	query     listing.Query
	recovered bool
	debounced func(f func())

	list        *ItemList
	search      *edit.Widget
	searchFrame *framed.Widget
	details     *framed.Widget
	detailsText *text.Widget
	status      *text.Widget
}

// New returns a new TUI.
func New(b *board.Board, log *logrus.Logger) (*TUI, error) {
	ui := &TUI{
		board: b,
		log:   log,
		query: listing.Query{
			Filters: listing.Filters{PostType: listing.All},
			Sort:    listing.SortNewest,
			Page:    1,
		},
		debounced: debounce.New(400 * time.Millisecond),
	}

	app, err := gowid.NewApp(layout(ui))
	if err != nil {
		return ui, errors.Wrap(err, "could not create application widgets")
	}

	ui.App = app
	ui.searchFrame.SetTitle("Search (Ctrl-T type, Ctrl-O sort, Ctrl-R recovered, Ctrl-N/P page, Ctrl-Q quit)", app)
	ui.search.OnTextSet(gowid.WidgetCallback{Name: "cb", WidgetChangedFunction: func(app gowid.IApp, iw gowid.IWidget) {
		ui.debounced(func() {
			ui.update(func(q *listing.Query) {
				q.Filters.Search = ui.search.Text()
				q.Page = 1
			})
		})
	}})
	return ui, nil
}

// Load displays the first page, it must be called before Run.
func (ui *TUI) Load() error {
	ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
	defer cancel()

	page, err := ui.fetch(ctx)
	if err != nil {
		return err
	}

	ui.display(page, ui.App)
	return nil
}

// Run starts the application and thus the event loop.
func (ui *TUI) Run() {
	ui.App.MainLoop(gowid.UnhandledInputFunc(ui.unhandled))
}

// Cleanup cleans the application properly (in case of panic).
func (ui *TUI) Cleanup() {
	ui.App.GetScreen().Fini() // Cleanup tcell screen's objects
}

// DisplayStatus displays a message in the status bar (aka notifications).
func (ui *TUI) DisplayStatus(message string) {
	ui.App.Run(gowid.RunFunction(func(app gowid.IApp) { // nolint:errcheck
		ui.status.SetText(message, app)
	}))
}

// Query returns the current query.
func (ui *TUI) Query() listing.Query {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	return ui.query
}

// update changes the query and reloads the list in background.
func (ui *TUI) update(change func(q *listing.Query)) {
	ui.mu.Lock()
	change(&ui.query)
	ui.mu.Unlock()

	go ui.refresh()
}

func (ui *TUI) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
	defer cancel()

	page, err := ui.fetch(ctx)
	if err != nil {
		ui.log.WithError(err).Error("could not load items")
		ui.DisplayStatus(err.Error())
		return
	}

	ui.App.Run(gowid.RunFunction(func(app gowid.IApp) { // nolint:errcheck
		ui.display(page, app)
	}))
}

func (ui *TUI) fetch(ctx context.Context) (board.Page, error) {
	ui.mu.Lock()
	q := ui.query
	recovered := ui.recovered
	ui.mu.Unlock()

	Dump(ui.log, q, true)
	if recovered {
		return ui.board.Recovered(ctx, q)
	}
	return ui.board.Browse(ctx, q)
}

func (ui *TUI) display(page board.Page, app gowid.IApp) {
	ui.list.Replace(page.Entries, app)

	ui.mu.Lock()
	q := ui.query
	view := listing.ViewActive
	if ui.recovered {
		view = listing.ViewRecovered
	}
	ui.mu.Unlock()

	ui.status.SetText(fmt.Sprintf("%s items | type: %s | sort: %s | page %d/%d | %d results",
		view, q.Filters.PostType, q.Sort, page.Page, page.TotalPages, page.Total), app)
}

////////////////////
//                //
// Layout         //
//                //
////////////////////

func layout(ui *TUI) gowid.AppArgs {
	ui.list = NewItemList(ui)
	ui.search = edit.New(edit.Options{})
	ui.searchFrame = framed.NewUnicode(ui.search)
	ui.detailsText = text.New("")
	ui.details = framed.NewUnicode(ui.detailsText)
	ui.status = text.New("")

	itemPane := columns.New([]gowid.IContainerWidget{
		&gowid.ContainerWidget{
			IWidget: styled.New(framed.NewUnicode(ui.list), gowid.MakePaletteRef("mainpane")),
			D:       gowid.RenderWithWeight{W: 2},
		},
		&gowid.ContainerWidget{
			IWidget: styled.New(ui.details, gowid.MakePaletteRef("mainpane")),
			D:       gowid.RenderWithWeight{W: 5},
		},
	})

	main := pile.New([]gowid.IContainerWidget{
		&gowid.ContainerWidget{
			IWidget: styled.New(ui.searchFrame, gowid.MakePaletteRef("mainpane")),
			D:       gowid.RenderWithUnits{U: 3},
		},
		&gowid.ContainerWidget{IWidget: itemPane, D: gowid.RenderWithWeight{W: 20}},
		&gowid.ContainerWidget{
			IWidget: styled.New(framed.NewUnicode(ui.status), gowid.MakePaletteRef("mainpane")),
			D:       gowid.RenderWithUnits{U: 3},
		},
	})

	return gowid.AppArgs{
		View: main,
		Palette: &gowid.Palette{
			"mainpane": gowid.MakePaletteEntry(gowid.ColorLightGray, gowid.ColorBlack),
			// List style
			"normal":  gowid.MakePaletteEntry(gowid.ColorLightGray, gowid.ColorBlack),
			"focused": gowid.MakePaletteEntry(gowid.ColorBlack, gowid.ColorRed),
		},
		Log: ui.log,
	}
}

////////////////////
//                //
// Events         //
//                //
////////////////////

func (ui *TUI) unhandled(app gowid.IApp, ev any) bool {
	evk, ok := ev.(*tcell.EventKey)
	if !ok {
		return false
	}

	handled := true

	switch evk.Key() {
	case tcell.KeyCtrlQ:
		app.Quit()
	case tcell.KeyCtrlN:
		ui.update(func(q *listing.Query) {
			q.Page++
		})
	case tcell.KeyCtrlP:
		ui.update(func(q *listing.Query) {
			if q.Page > 1 {
				q.Page--
			}
		})
	case tcell.KeyCtrlT:
		ui.update(func(q *listing.Query) {
			q.Filters.PostType = next(postTypes, q.Filters.PostType)
			q.Page = 1
		})
	case tcell.KeyCtrlO:
		ui.update(func(q *listing.Query) {
			q.Sort = next(sorts, q.Sort)
		})
	case tcell.KeyCtrlR:
		ui.mu.Lock()
		ui.recovered = !ui.recovered
		ui.mu.Unlock()
		ui.update(func(q *listing.Query) {
			q.Page = 1
		})
	default:
		handled = false
	}

	return handled
}

// next returns the value following current in values, cycling.
func next(values []string, current string) string {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}
