package core

import (
	"sort"
)

// Groups maps a month label to the records of that month.
type Groups map[string][]Expense

// Months returns the group labels, latest calendar month first. Labels that
// do not parse sort last, alphabetically.
func (g Groups) Months() []string {
	type keyed struct {
		label string
		at    int64
		ok    bool
	}
	keys := make([]keyed, 0, len(g))
	for label := range g {
		t, err := ParseMonthLabel(label)
		keys = append(keys, keyed{label: label, at: t.Unix(), ok: err == nil})
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.ok != b.ok {
			return a.ok
		}
		if a.at != b.at {
			return a.at > b.at
		}
		return a.label < b.label
	})
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.label
	}
	return out
}

// Flatten returns every record in display order.
func (g Groups) Flatten() []Expense {
	var out []Expense
	for _, m := range g.Months() {
		out = append(out, g[m]...)
	}
	return out
}

// Len counts the records across all groups.
func (g Groups) Len() int {
	n := 0
	for _, items := range g {
		n += len(items)
	}
	return n
}

// Find returns the record with the given id.
func (g Groups) Find(id string) (Expense, bool) {
	for _, items := range g {
		for _, e := range items {
			if e.ID == id {
				return e, true
			}
		}
	}
	return Expense{}, false
}

// Clone returns a deep copy so callers can't mutate shared state.
func (g Groups) Clone() Groups {
	out := make(Groups, len(g))
	for k, v := range g {
		out[k] = append([]Expense(nil), v...)
	}
	return out
}

// Receipts returns the records carrying a receipt image, in display order.
func (g Groups) Receipts() []Expense {
	var out []Expense
	for _, e := range g.Flatten() {
		if e.ImageURL != "" {
			out = append(out, e)
		}
	}
	return out
}
