// Package ordering computes sort_order values for drag-and-drop moves.
//
// Sort orders are floats. A moved item takes the midpoint of its new
// neighbours, or steps Gap past the end of the list, so siblings never need
// renumbering. Repeated bisection of the same gap eventually runs out of
// float precision; Compute reports that as ErrOrderExhausted instead of
// producing a value that ties with a neighbour.
package ordering

import (
	"fmt"

	appErrors "planar/internal/errors"
)

const (
	// Gap is the distance placed before the first or after the last item.
	Gap = 10000.0
	// DefaultSortOrder is used when an item lands in an empty container.
	DefaultSortOrder = 65535.0
)

// ErrOrderExhausted reports that two neighbours are too close to bisect.
var ErrOrderExhausted = appErrors.New(appErrors.CodeOrderExhausted, "no room to place item between its neighbours", nil)

// Edge is the side of the target item the drop landed on.
type Edge int

const (
	EdgeTop Edge = iota
	EdgeBottom
)

// Item is one entry of a container in display order.
type Item struct {
	ID        string
	SortOrder float64
}

// Placement describes a drop. TargetID names the item the drop landed on;
// it is ignored when AtEnd is set and may be empty for an empty container.
type Placement struct {
	ItemID      string
	Source      string
	Destination string
	TargetID    string
	Edge        Edge
	AtEnd       bool
	// Current is the moved item's sort order before the drop.
	Current float64
}

// Result is the outcome of a drop.
type Result struct {
	SortOrder  float64
	CrossGroup bool
	Noop       bool
	// Index is the item's position in the destination after the move.
	Index int
}

// Compute places p.ItemID into destination, which lists the destination
// container in display order and may include the moved item when the move
// stays in the same container.
func Compute(p Placement, destination []Item) (Result, error) {
	if p.ItemID == "" {
		return Result{}, invalidDrop("missing item id")
	}
	if p.Destination == "" {
		return Result{}, invalidDrop("missing destination container")
	}
	if p.Source == "" {
		return Result{}, invalidDrop("missing source container")
	}
	if !p.AtEnd && p.TargetID == p.ItemID {
		return Result{SortOrder: p.Current, Noop: true, Index: indexOf(destination, p.ItemID)}, nil
	}

	sameGroup := p.Source == p.Destination
	original := indexOf(destination, p.ItemID)
	if sameGroup && original < 0 {
		return Result{}, invalidDrop(fmt.Sprintf("item %s is not in container %s", p.ItemID, p.Destination))
	}

	rest := make([]Item, 0, len(destination))
	for _, it := range destination {
		if it.ID != p.ItemID {
			rest = append(rest, it)
		}
	}

	insert := len(rest)
	if !p.AtEnd && p.TargetID != "" {
		target := indexOf(rest, p.TargetID)
		if target < 0 {
			return Result{}, invalidDrop(fmt.Sprintf("drop target %s is not in container %s", p.TargetID, p.Destination))
		}
		insert = target
		if p.Edge == EdgeBottom {
			insert++
		}
	}

	if sameGroup && insert == original {
		return Result{SortOrder: p.Current, Noop: true, Index: original}, nil
	}

	order, err := between(rest, insert, p.Current)
	if err != nil {
		return Result{}, err
	}
	return Result{SortOrder: order, CrossGroup: !sameGroup, Index: insert}, nil
}

// between returns a sort order for position insert in items (which excludes
// the moved item).
func between(items []Item, insert int, current float64) (float64, error) {
	if len(items) == 0 {
		if current != 0 {
			return current, nil
		}
		return DefaultSortOrder, nil
	}
	if insert <= 0 {
		return items[0].SortOrder - Gap, nil
	}
	if insert >= len(items) {
		return items[len(items)-1].SortOrder + Gap, nil
	}
	prev, next := items[insert-1].SortOrder, items[insert].SortOrder
	mid := prev + (next-prev)/2
	if !(prev < mid && mid < next) {
		return 0, ErrOrderExhausted
	}
	return mid, nil
}

// End returns a sort order that places a new item after every item in
// items.
func End(items []Item) float64 {
	order, _ := between(items, len(items), 0)
	return order
}

// ProjectOrder computes the sort order for the item at sourceIndex when it
// is dropped onto the item at destinationIndex, taking that item's slot.
// destinationIndex equal to len(items) means "after the last item". It
// reports false when the indices do not describe a move.
func ProjectOrder(sourceIndex, destinationIndex int, items []Item) (float64, bool, error) {
	if len(items) == 0 || sourceIndex < 0 || sourceIndex >= len(items) ||
		destinationIndex < 0 || destinationIndex > len(items) {
		return 0, false, nil
	}
	atEnd := destinationIndex == len(items)
	if destinationIndex == sourceIndex || (atEnd && sourceIndex == len(items)-1) {
		return items[sourceIndex].SortOrder, false, nil
	}
	rest := make([]Item, 0, len(items)-1)
	rest = append(rest, items[:sourceIndex]...)
	rest = append(rest, items[sourceIndex+1:]...)
	insert := destinationIndex
	if atEnd {
		insert = len(rest)
	}
	order, err := between(rest, insert, items[sourceIndex].SortOrder)
	if err != nil {
		return 0, false, err
	}
	return order, true, nil
}

// Sorted reports whether items are in non-decreasing sort order.
func Sorted(items []Item) bool {
	for i := 1; i < len(items); i++ {
		if items[i].SortOrder < items[i-1].SortOrder {
			return false
		}
	}
	return true
}

func indexOf(items []Item, id string) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func invalidDrop(reason string) error {
	return appErrors.New(appErrors.CodeValidation, "invalid drop: "+reason, nil)
}
