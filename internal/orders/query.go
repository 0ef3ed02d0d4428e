package orders

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"purissima/internal"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection maps anything other than "asc" to the default Desc.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Asc)) {
		return Asc
	}
	return Desc
}

type Options struct {
	Search   string
	From     time.Time
	To       time.Time
	Sort     Direction
	Limit    int
	Location *time.Location
}

// Query dedupes, date-filters, searches, sorts and truncates, in that order.
// A zero From or To leaves that side of the range open.
func Query(list []internal.Order, opts Options) []internal.Order {
	out := Deduplicate(list)
	if !opts.From.IsZero() || !opts.To.IsZero() {
		var to *time.Time
		if !opts.To.IsZero() {
			to = &opts.To
		}
		out = FilterByDateRange(out, opts.From, to, opts.Location)
	}
	out = Search(out, opts.Search)
	out = Sort(out, opts.Sort)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

func Deduplicate(list []internal.Order) []internal.Order {
	seen := map[string]struct{}{}
	out := make([]internal.Order, 0, len(list))
	for _, o := range list {
		id := idOf(o)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, o)
	}
	return out
}

// FilterByDateRange keeps orders created in [from, to]. A nil to means no upper
// bound. Orders whose timestamp does not parse are dropped.
func FilterByDateRange(list []internal.Order, from time.Time, to *time.Time, loc *time.Location) []internal.Order {
	out := make([]internal.Order, 0, len(list))
	for _, o := range list {
		created, ok := CreatedAt(o, loc)
		if !ok {
			continue
		}
		if created.Before(from) {
			continue
		}
		if to != nil && created.After(*to) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func Search(list []internal.Order, query string) []internal.Order {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	out := make([]internal.Order, 0, len(list))
	for _, o := range list {
		s := Summarize(o)
		for _, field := range []string{s.ID, s.Name, s.Document} {
			if strings.Contains(strings.ToLower(field), q) {
				out = append(out, o)
				break
			}
		}
	}
	return out
}

// Sort compares ids numerically when both parse as integers and lexicographically
// otherwise. The input slice is not modified.
func Sort(list []internal.Order, dir Direction) []internal.Order {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b internal.Order) int {
		c := compareIDs(idOf(a), idOf(b))
		if dir == Asc {
			return c
		}
		return -c
	})
	return out
}

func compareIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return cmp.Compare(na, nb)
	}
	return strings.Compare(a, b)
}
