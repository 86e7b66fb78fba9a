package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseWireDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"15/03/2024", "15/03/2024"},
		{"2024-03-15", "15/03/2024"},
		{" 2024-03-15 ", "15/03/2024"},
		{"2024-03-15T23:30:00+08:00", "15/03/2024"},
		{"2024-03-15T00:00:00.000Z", "15/03/2024"},
		{"2024-03-15T10:00:00", "15/03/2024"},
		{"2024-03-15 10:00:00", "15/03/2024"},
	}
	for _, tc := range cases {
		d, err := ParseWireDate(tc.in)
		if err != nil {
			t.Fatalf("%q: %v", tc.in, err)
		}
		if got := d.Display(); got != tc.want {
			t.Fatalf("%q: got %s want %s", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"", "32/01/2024", "2024/03/15", "March 2024"} {
		if _, err := ParseWireDate(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}

func TestMonthLabelDeterministic(t *testing.T) {
	d := NewDate(2024, 3, 15)
	a, b := MonthLabel(d), MonthLabel(d)
	if a != "March 2024" || a != b {
		t.Fatalf("labels %q %q", a, b)
	}
}

func TestParseMonthLabelInvertsMonthLabel(t *testing.T) {
	for y := 1999; y <= 2031; y += 4 {
		for m := 1; m <= 12; m++ {
			d := NewDate(y, m, 28)
			got, err := ParseMonthLabel(MonthLabel(d))
			if err != nil {
				t.Fatalf("parse %q: %v", MonthLabel(d), err)
			}
			if got.Year() != y || got.Month() != time.Month(m) {
				t.Fatalf("inverse mismatch for %d-%d: %v", y, m, got)
			}
		}
	}
	if _, err := ParseMonthLabel("Marzo 2024"); err == nil {
		t.Fatalf("expected error for foreign label")
	}
}

func TestDateTextMarshalling(t *testing.T) {
	var d Date
	if err := d.UnmarshalText([]byte("2024-01-05")); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b, _ := d.MarshalText()
	if string(b) != "05/01/2024" {
		t.Fatalf("marshal = %s", b)
	}
	if d.ISO() != "2024-01-05" {
		t.Fatalf("iso = %s", d.ISO())
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		D Date `json:"d"`
	}{NewDate(2024, 3, 15)})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"d":"15/03/2024"}` {
		t.Fatalf("got %s", b)
	}
	var out struct {
		D Date `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"d":"2024-03-15"}`), &out); err != nil {
		t.Fatal(err)
	}
	if out.D.Display() != "15/03/2024" {
		t.Fatalf("got %s", out.D.Display())
	}
}
