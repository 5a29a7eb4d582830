// Package filter builds the filtered, sorted and annotated item listing
// shown by the API and the web UI.
package filter

import (
	"net/url"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/erazemk/shramba/internal/model"
)

// Criteria selects which items are listed.
type Criteria struct {
	Query    string         `json:"query"`
	Statuses []model.Status `json:"statuses"`
}

// View is an item annotated with its derived status.
type View struct {
	model.Item
	Low     bool         `json:"low"`
	Expired bool         `json:"expired"`
	Status  model.Status `json:"status"`
}

// Apply returns the items matching c, sorted by name. The result is rebuilt
// from items on every call.
func Apply(items []model.Item, c Criteria, now time.Time) []View {
	q := strings.ToLower(strings.TrimSpace(c.Query))

	views := make([]View, 0, len(items))
	for _, item := range items {
		if q != "" && !strings.Contains(item.SearchText(), q) {
			continue
		}
		v := Annotate(item, now)
		if !matchesStatus(v, c.Statuses) {
			continue
		}
		views = append(views, v)
	}

	col := collate.New(language.Und)
	slices.SortStableFunc(views, func(a, b View) int {
		if n := col.CompareString(a.Name, b.Name); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	return views
}

// Annotate derives the status fields of item at now.
func Annotate(item model.Item, now time.Time) View {
	return View{
		Item:    item,
		Low:     item.Low(),
		Expired: item.Expired(now),
		Status:  item.StatusAt(now),
	}
}

// matchesStatus reports whether v matches any selected status. An empty
// selection matches everything. Expired items never count as low.
func matchesStatus(v View, statuses []model.Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, s := range statuses {
		switch s {
		case model.StatusExpired:
			if v.Expired {
				return true
			}
		case model.StatusLow:
			if v.Low && !v.Expired {
				return true
			}
		case model.StatusOK:
			if !v.Low && !v.Expired {
				return true
			}
		}
	}
	return false
}

// ParseCriteria reads criteria from query parameters: q for the text query
// and repeated status values. Unknown statuses are ignored.
func ParseCriteria(values url.Values) Criteria {
	c := Criteria{Query: values.Get("q")}
	for _, raw := range values["status"] {
		for _, s := range strings.Split(raw, ",") {
			st := model.Status(strings.ToLower(strings.TrimSpace(s)))
			if model.ValidStatus(st) && !slices.Contains(c.Statuses, st) {
				c.Statuses = append(c.Statuses, st)
			}
		}
	}
	return c
}

// Has reports whether status s is selected.
func (c Criteria) Has(s model.Status) bool {
	return slices.Contains(c.Statuses, s)
}

// Tags returns the distinct tags used across items, sorted.
func Tags(items []model.Item) []string {
	seen := make(map[string]bool)
	var tags []string
	for _, item := range items {
		for _, t := range item.Tags {
			key := strings.ToLower(t)
			if seen[key] {
				continue
			}
			seen[key] = true
			tags = append(tags, t)
		}
	}
	collate.New(language.Und, collate.IgnoreCase).SortStrings(tags)
	return tags
}
