package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"25.50", "25.5", true},
		{"25,50", "25.5", true},
		{"  3 ", "3", true},
		{".5", "0.5", true},
		{"", "", false},
		{"0", "", false},
		{"-1", "", false},
		{"+1", "", false},
		{"1.000,50", "", false},
		{"abc", "", false},
		{"1e3", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil {
				t.Fatalf("%q: unexpected error %v", tc.in, err)
			}
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("%q: got %s want %s", tc.in, got, tc.want)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%q: expected error, got %s", tc.in, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"0":          "RM0.00",
		"25.5":       "RM25.50",
		"999.999":    "RM1,000.00",
		"1234567.89": "RM1,234,567.89",
		"-42":        "-RM42.00",
	}
	for in, want := range cases {
		if got := FormatAmount(decimal.RequireFromString(in)); got != want {
			t.Fatalf("%s: got %s want %s", in, got, want)
		}
	}
}
