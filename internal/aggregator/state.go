package aggregator

import (
	"sort"

	"moneymanager/internal/core"
)

// Status is the lifecycle of the aggregate: Idle until the first Load,
// then Loading and finally Ready or Failed. A successful write moves a
// Failed aggregate back to Ready, since Err is cleared with it.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// State is a snapshot of the aggregate. Groups is never shared with the
// aggregator, so callers may keep or modify it.
type State struct {
	Groups  core.Groups
	Loading bool
	Err     error
	Status  Status
}

// The functions below are the pure transitions applied by each operation.
// They never modify their input groups.

// buildGroups orders records by date, latest first, keeping the source
// order for equal dates, and partitions them by month.
func buildGroups(records []core.Expense) core.Groups {
	sorted := append([]core.Expense(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date.Time)
	})
	g := make(core.Groups)
	for _, e := range sorted {
		g[e.Month] = append(g[e.Month], e)
	}
	return g
}

// normalizeAll converts raw records, failing on the first bad one.
func normalizeAll(raws []core.RawExpense) ([]core.Expense, error) {
	out := make([]core.Expense, 0, len(raws))
	for _, raw := range raws {
		e, err := core.Normalize(raw)
		if err != nil {
			return nil, &RecordError{ID: raw.ID, Err: err}
		}
		out = append(out, e)
	}
	return out, nil
}

// applyInsert appends e to the end of its month group.
func applyInsert(g core.Groups, e core.Expense) core.Groups {
	out := g.Clone()
	out[e.Month] = append(out[e.Month], e)
	return out
}

// applyUpdate replaces the record with e.ID. A record staying in its month
// keeps its position; one moving month is removed everywhere and appended
// to its new group.
func applyUpdate(g core.Groups, e core.Expense) core.Groups {
	out := g.Clone()
	if items, ok := out[e.Month]; ok {
		for i := range items {
			if items[i].ID == e.ID {
				items[i] = e
				return removeFrom(out, e.ID, e.Month)
			}
		}
	}
	out = removeFrom(out, e.ID, "")
	out[e.Month] = append(out[e.Month], e)
	return out
}

// applyDelete removes the record with id from every group.
func applyDelete(g core.Groups, id string) core.Groups {
	return removeFrom(g.Clone(), id, "")
}

// removeFrom drops id from every group except keep and prunes groups left
// empty. It modifies g.
func removeFrom(g core.Groups, id, keep string) core.Groups {
	for month, items := range g {
		if month == keep {
			continue
		}
		kept := items[:0]
		for _, e := range items {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(g, month)
			continue
		}
		g[month] = kept
	}
	return g
}
