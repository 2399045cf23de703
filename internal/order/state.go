package order

// allowedTransitions lists the order status changes staff may request
// directly. paid and cancelled are reached through RecordPayment and
// CancelOrder, which also update the table. ready is only ever derived from
// the items.
var allowedTransitions = map[Status]map[Status]bool{
	StatusPending: {
		StatusPreparing: true,
		StatusCancelled: true,
	},
	StatusPreparing: {
		StatusCancelled: true,
	},
	StatusReady: {
		StatusServed:    true,
		StatusPaid:      true,
		StatusCancelled: true,
	},
	StatusServed: {
		StatusPaid:      true,
		StatusCancelled: true,
	},
	StatusPaid:      {},
	StatusCancelled: {},
}

var itemRank = map[ItemStatus]int{
	ItemPending:   0,
	ItemPreparing: 1,
	ItemReady:     2,
	ItemServed:    3,
}

func CanTransition(from, to Status) bool {
	next, ok := allowedTransitions[from]
	return ok && next[to]
}

// CanAdvanceItem reports whether an item may move from one status to another.
// Items only move forward; skipping a step is allowed.
func CanAdvanceItem(from, to ItemStatus) bool {
	return itemRank[to] > itemRank[from]
}

// deriveStatus applies the aggregate rule: the order follows its items once
// all of them have reached ready (or served). The first item the kitchen
// starts moves a pending order to preparing.
func deriveStatus(current Status, items []Item) Status {
	if current.Terminal() || len(items) == 0 {
		return current
	}

	minRank := itemRank[ItemServed]
	started := false
	for _, it := range items {
		r := itemRank[it.Status]
		if r < minRank {
			minRank = r
		}
		if r >= itemRank[ItemPreparing] {
			started = true
		}
	}

	switch {
	case minRank == itemRank[ItemServed] && current != StatusServed:
		return StatusServed
	case minRank >= itemRank[ItemReady] && (current == StatusPending || current == StatusPreparing):
		return StatusReady
	case started && current == StatusPending:
		return StatusPreparing
	}
	return current
}
