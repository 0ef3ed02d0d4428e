package orders

import (
	"slices"
	"strings"

	"purissima/internal"
)

// Aggregate sums item quantities per canonical name. An order is appended to an
// aggregate once per qualifying line, so it may repeat. Aggregates come out in the
// order their item first appears.
func Aggregate(list []internal.Order) []internal.ItemAggregate {
	index := map[string]int{}
	out := []internal.ItemAggregate{}
	for _, o := range list {
		if idOf(o) == "" {
			continue
		}
		for _, item := range o.Items {
			name := item.CanonicalName
			if name == "" || item.Quantity <= 0 {
				continue
			}
			i, ok := index[name]
			if !ok {
				i = len(out)
				index[name] = i
				out = append(out, internal.ItemAggregate{Item: name})
			}
			out[i].TotalQuantity += item.Quantity
			out[i].Orders = append(out[i].Orders, o)
		}
	}
	return out
}

func SortAggregates(list []internal.ItemAggregate) []internal.ItemAggregate {
	out := slices.Clone(list)
	slices.SortStableFunc(out, func(a, b internal.ItemAggregate) int {
		return strings.Compare(a.Item, b.Item)
	})
	return out
}
