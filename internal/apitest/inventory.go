package apitest

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/lostfound/pkg/liblf"
)

///// Items
////
//

// ListItems handles GET /inventory.
func (b *Backend) ListItems(c echo.Context) error {
	b.mu.Lock()
	items := b.listItems()
	b.mu.Unlock()

	return c.JSON(http.StatusOK, items)
}

// ShowItem handles GET /inventory/:id.
func (b *Backend) ShowItem(c echo.Context) error {
	b.mu.Lock()
	item, ok := b.items[c.Param("id")]
	b.mu.Unlock()

	if !ok {
		return NewError(http.StatusNotFound, "Item not found")
	}
	return c.JSON(http.StatusOK, item)
}

// CreateItem handles POST /inventory.
func (b *Backend) CreateItem(c echo.Context) error {
	var report liblf.ItemReport
	if err := c.Bind(&report); err != nil {
		return err
	}
	if report.Title == "" || report.ContactEmail == "" {
		return NewError(http.StatusBadRequest, "Missing required fields")
	}

	item := liblf.Item{
		ID:           newID(),
		PostType:     report.PostType,
		Title:        report.Title,
		Description:  report.Description,
		Category:     report.Category,
		Location:     report.Location,
		Date:         report.Date,
		Thumbnail:    report.Thumbnail,
		ContactName:  report.ContactName,
		ContactEmail: report.ContactEmail,
		Status:       liblf.StatusNotRecovered,
	}
	if item.Date.IsZero() {
		item.Date = liblf.NewDate(time.Now().UTC())
	}

	b.mu.Lock()
	b.putItem(item)
	b.mu.Unlock()

	return c.JSON(http.StatusCreated, item)
}

// UpdateItem handles PATCH /inventory/:id.
func (b *Backend) UpdateItem(c echo.Context) error {
	var patch liblf.ItemPatch
	if err := c.Bind(&patch); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	item, ok := b.items[c.Param("id")]
	if !ok {
		return NewError(http.StatusNotFound, "Item not found")
	}
	if item.ContactEmail != currentUser(c).Email {
		return NewError(http.StatusForbidden, "You can only update your own items")
	}

	item = patch.Apply(item)
	b.putItem(item)

	return c.JSON(http.StatusOK, item)
}

// DeleteItem handles DELETE /inventory/:id.
func (b *Backend) DeleteItem(c echo.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	item, ok := b.items[c.Param("id")]
	if !ok {
		return NewError(http.StatusNotFound, "Item not found")
	}
	if item.ContactEmail != currentUser(c).Email {
		return NewError(http.StatusForbidden, "You can only delete your own items")
	}

	b.deleteItem(item.ID)
	return c.NoContent(http.StatusNoContent)
}

///// Recoveries
////
//

// Recover handles POST /inventory/:id/recover.
func (b *Backend) Recover(c echo.Context) error {
	var recovery liblf.Recovery
	if err := c.Bind(&recovery); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	item, ok := b.items[c.Param("id")]
	if !ok {
		return NewError(http.StatusNotFound, "Item not found")
	}
	if item.Recovered() {
		return NewError(http.StatusConflict, "Item already recovered")
	}

	user := currentUser(c)
	if item.ContactEmail == user.Email {
		return NewError(http.StatusBadRequest, "You cannot recover your own item")
	}

	recovery.ID = newID()
	recovery.ItemID = item.ID
	recovery.Status = liblf.RecoveryPending
	recovery.RecoveredBy.Email = user.Email
	if recovery.RecoveredBy.UserID == "" {
		recovery.RecoveredBy.UserID = user.UserID
	}
	if recovery.SubmittedAt.IsZero() {
		recovery.SubmittedAt = liblf.NewDate(time.Now().UTC())
	}
	b.putRecovery(recovery)

	return c.JSON(http.StatusCreated, recovery)
}

// ListRecoveries handles GET /recoveries.
// Only the recoveries involving the current user are visible.
func (b *Backend) ListRecoveries(c echo.Context) error {
	email := currentUser(c).Email

	b.mu.Lock()
	defer b.mu.Unlock()

	recoveries := make([]liblf.Recovery, 0)
	for _, id := range b.recOrder {
		r := b.recoveries[id]
		if r.RecoveredBy.Email == email || r.OriginalOwner.Email == email {
			recoveries = append(recoveries, r)
		}
	}
	return c.JSON(http.StatusOK, recoveries)
}

// UpdateRecovery handles PATCH /recoveries/:id.
func (b *Backend) UpdateRecovery(c echo.Context) error {
	var params struct {
		Status string `json:"recoveryStatus"`
	}
	if err := c.Bind(&params); err != nil {
		return err
	}
	if params.Status != liblf.RecoveryFullyRecovered {
		return NewError(http.StatusBadRequest, "Unsupported recovery status")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	recovery, ok := b.recoveries[c.Param("id")]
	if !ok {
		return NewError(http.StatusNotFound, "Recovery not found")
	}
	if recovery.OriginalOwner.Email != currentUser(c).Email {
		return NewError(http.StatusForbidden, "Only the original owner can confirm a recovery")
	}

	recovery.Status = params.Status
	recovery.ItemDetails.Status = liblf.StatusRecovered
	b.putRecovery(recovery)

	if item, ok := b.items[recovery.ItemID]; ok {
		item.Status = liblf.StatusRecovered
		b.putItem(item)
	}

	return c.JSON(http.StatusOK, recovery)
}
