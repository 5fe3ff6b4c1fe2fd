package liblf

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
)

const (
	// PostTypeLost is used for items reported as lost by their owner.
	PostTypeLost = "lost"
	// PostTypeFound is used for items reported as found by someone else.
	PostTypeFound = "found"

	// StatusNotRecovered is the status of an item still waiting for its owner.
	StatusNotRecovered = "not-recovered"
	// StatusRecovered is the status of an item handed back to its owner.
	StatusRecovered = "recovered"
)

type (
	// An Item is a lost-or-found report.
	Item struct {
		ID           string `json:"_id,omitempty"`
		PostType     string `json:"postType"`
		Title        string `json:"title"`
		Description  string `json:"description"`
		Category     string `json:"category"`
		Location     string `json:"location"`
		Date         Date   `json:"date"`
		Thumbnail    string `json:"thumbnail,omitempty"`
		ContactName  string `json:"contactName"`
		ContactEmail string `json:"contactEmail"`
		Status       string `json:"status,omitempty"`
	}

	// An ItemReport is the payload used to create an Item.
	// The identifier and the status are defined by the backend.
	ItemReport struct {
		PostType     string `json:"postType"`
		Title        string `json:"title"`
		Description  string `json:"description"`
		Category     string `json:"category"`
		Location     string `json:"location"`
		Date         Date   `json:"date"`
		Thumbnail    string `json:"thumbnail"`
		ContactName  string `json:"contactName"`
		ContactEmail string `json:"contactEmail"`
	}

	// An ItemPatch is a partial update of an Item.
	// Contact fields are immutable once the item is created.
	ItemPatch struct {
		PostType    *string `json:"postType,omitempty"`
		Title       *string `json:"title,omitempty"`
		Description *string `json:"description,omitempty"`
		Category    *string `json:"category,omitempty"`
		Location    *string `json:"location,omitempty"`
		Date        *Date   `json:"date,omitempty"`
		Thumbnail   *string `json:"thumbnail,omitempty"`
	}
)

// Recovered returns true if the item has been handed back.
func (i Item) Recovered() bool {
	return i.Status == StatusRecovered
}

// OwnedBy returns true if the given email is the item's contact.
// An empty email never owns anything.
func (i Item) OwnedBy(email string) bool {
	return email != "" && email == i.ContactEmail
}

// Empty returns true if no field of the patch is set.
func (p ItemPatch) Empty() bool {
	return p.PostType == nil && p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Location == nil && p.Date == nil && p.Thumbnail == nil
}

// Apply returns a copy of the item with the patch applied.
func (p ItemPatch) Apply(item Item) Item {
	if p.PostType != nil {
		item.PostType = *p.PostType
	}
	if p.Title != nil {
		item.Title = *p.Title
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Location != nil {
		item.Location = *p.Location
	}
	if p.Date != nil {
		item.Date = *p.Date
	}
	if p.Thumbnail != nil {
		item.Thumbnail = *p.Thumbnail
	}
	return item
}

////////////////////
//                //
// Date           //
//                //
////////////////////

// A Date is a point in time as sent by the backend.
// The backend is not consistent about the layout (plain dates, ISO 8601, epoch in milliseconds)
// so decoding is lenient: an unknown layout results in a zero Date.
type Date struct {
	time.Time
}

// NewDate returns a Date for the given time.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// ParseDate parses a user provided date in any common layout.
// Dates without timezone are considered as UTC.
func ParseDate(s string) (Date, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, errors.Wrapf(err, "could not parse date %q", s)
	}
	return Date{Time: t}, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		d.Time = time.Time{}
		return nil
	}
	d.Time = t
	return nil
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.UTC().Format(time.RFC3339Nano))
}
