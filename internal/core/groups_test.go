package core

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func rec(id string, y, m, d int, img string) Expense {
	date := NewDate(y, m, d)
	return Expense{ID: id, Title: id, Amount: decimal.NewFromInt(10), Date: date, Month: MonthLabel(date), ImageURL: img}
}

func TestGroupsMonthsDescending(t *testing.T) {
	g := Groups{
		"January 2024":  {rec("a", 2024, 1, 2, "")},
		"December 2023": {rec("b", 2023, 12, 2, "")},
		"March 2024":    {rec("c", 2024, 3, 2, "")},
		"bogus":         {},
	}
	want := []string{"March 2024", "January 2024", "December 2023", "bogus"}
	if got := g.Months(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestGroupsFindCloneAndReceipts(t *testing.T) {
	g := Groups{
		"March 2024":    {rec("a", 2024, 3, 9, "u1"), rec("b", 2024, 3, 1, "")},
		"February 2024": {rec("c", 2024, 2, 1, "u2")},
	}
	if g.Len() != 3 {
		t.Fatalf("len = %d", g.Len())
	}
	if e, ok := g.Find("c"); !ok || e.Month != "February 2024" {
		t.Fatalf("find c: %+v %v", e, ok)
	}
	if _, ok := g.Find("zzz"); ok {
		t.Fatalf("unexpected find")
	}

	c := g.Clone()
	c["March 2024"][0].Title = "changed"
	if g["March 2024"][0].Title != "a" {
		t.Fatalf("clone shares backing array")
	}

	var ids []string
	for _, e := range g.Receipts() {
		ids = append(ids, e.ID)
	}
	if !reflect.DeepEqual(ids, []string{"a", "c"}) {
		t.Fatalf("receipts = %v", ids)
	}
}

func TestSummarize(t *testing.T) {
	records := []Expense{
		rec("a", 2024, 1, 5, ""),
		rec("b", 2024, 1, 20, ""),
		rec("c", 2024, 12, 31, ""),
		rec("d", 2023, 1, 5, ""),
	}
	s := Summarize(records, 2024)
	if !s.Total.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("total = %s", s.Total)
	}
	if !s.Monthly[0].Amount.Equal(decimal.NewFromInt(20)) || !s.Monthly[11].Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("monthly = %+v", s.Monthly)
	}
	if s.Monthly[5].Month.String() != "June" || !s.Monthly[5].Amount.IsZero() {
		t.Fatalf("june = %+v", s.Monthly[5])
	}
}
