// Package listing derives the rendered sub-list of an item collection.
// Everything is computed in memory from the raw collection returned by the backend.
package listing

import (
	"math"
	"sort"
	"strings"

	"github.com/mdouchement/lostfound/pkg/liblf"
)

const (
	// PageSize is the number of items per page in the browsing views.
	PageSize = 12
	// LatestPageSize is the number of items of the latest items preview.
	LatestPageSize = 6

	// All disables a filter.
	All = "all"
)

// Views select which statuses are rendered.
const (
	ViewActive View = iota
	ViewRecovered
	ViewAll
)

// Sort keys.
const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortTitle   = "title"
	SortPopular = "popular"
)

// CategorySuggestions is the fixed set of categories proposed by the report form.
var CategorySuggestions = []string{
	"Electronics",
	"Accessories",
	"Documents",
	"Keys",
	"Bags",
	"Clothing",
	"Jewelry",
	"Pets",
	"Books",
	"Others",
}

type (
	// A View restricts the collection to a set of item statuses.
	View int

	// Filters narrow down the collection.
	// Empty values and "all" disable the related filter.
	Filters struct {
		Search   string
		PostType string
		Category string
		Location string
		Owner    string
	}

	// A Query describes the page to render.
	Query struct {
		View     View
		Filters  Filters
		Sort     string
		Page     int
		PageSize int
	}

	// A Result is one page of the filtered and sorted collection.
	Result struct {
		Items      []liblf.Item
		Total      int
		Page       int
		PageSize   int
		TotalPages int
	}
)

// String implements fmt.Stringer.
func (v View) String() string {
	switch v {
	case ViewActive:
		return "active"
	case ViewRecovered:
		return "recovered"
	case ViewAll:
		return "all"
	default:
		return "unknown"
	}
}

// Apply filters, sorts and paginates the given items.
// The input slice is never modified.
func Apply(items []liblf.Item, q Query) Result {
	q = q.normalize()

	filtered := Filter(items, q.View, q.Filters)
	Sort(filtered, q.Sort)

	r := Result{
		Total:      len(filtered),
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: int(math.Ceil(float64(len(filtered)) / float64(q.PageSize))),
	}
	r.Items = paginate(filtered, q.Page, q.PageSize)
	return r
}

// Filter returns a new slice with the items matching the view and the filters, in input order.
func Filter(items []liblf.Item, view View, f Filters) []liblf.Item {
	search := strings.ToLower(f.Search)
	location := strings.ToLower(f.Location)

	filtered := make([]liblf.Item, 0, len(items))
	for _, item := range items {
		switch view {
		case ViewActive:
			if item.Recovered() {
				continue
			}
		case ViewRecovered:
			if !item.Recovered() {
				continue
			}
		}

		if search != "" &&
			!strings.Contains(strings.ToLower(item.Title), search) &&
			!strings.Contains(strings.ToLower(item.Description), search) {
			continue
		}

		if enabled(f.PostType) && !strings.EqualFold(item.PostType, f.PostType) {
			continue
		}

		if enabled(f.Category) && item.Category != f.Category {
			continue
		}

		if enabled(location) && !strings.Contains(strings.ToLower(item.Location), location) {
			continue
		}

		if f.Owner != "" && item.ContactEmail != f.Owner {
			continue
		}

		filtered = append(filtered, item)
	}
	return filtered
}

// Sort sorts in place the given items according the sort key.
// Items with equal keys keep their relative order.
// Unknown keys, including "popular", keep the order unchanged.
func Sort(items []liblf.Item, by string) {
	switch by {
	case SortNewest:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Date.After(items[j].Date.Time)
		})
	case SortOldest:
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Date.Before(items[j].Date.Time)
		})
	case SortTitle:
		sort.SliceStable(items, func(i, j int) bool {
			return strings.ToLower(items[i].Title) < strings.ToLower(items[j].Title)
		})
	}
}

// Options returns the distinct non-empty categories and locations of the given items.
func Options(items []liblf.Item) (categories, locations []string) {
	return distinct(items, func(i liblf.Item) string { return i.Category }),
		distinct(items, func(i liblf.Item) string { return i.Location })
}

func (q Query) normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = PageSize
	}
	return q
}

// paginate never multiplies past the collection so huge pages cannot overflow.
func paginate(items []liblf.Item, page, size int) []liblf.Item {
	if len(items) == 0 || page-1 > (len(items)-1)/size {
		return []liblf.Item{}
	}

	start := (page - 1) * size
	end := len(items)
	if size < end-start {
		end = start + size
	}
	return items[start:end]
}

func enabled(filter string) bool {
	return filter != "" && !strings.EqualFold(filter, All)
}

func distinct(items []liblf.Item, field func(liblf.Item) string) []string {
	seen := map[string]bool{}
	values := []string{}
	for _, item := range items {
		v := strings.TrimSpace(field(item))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
