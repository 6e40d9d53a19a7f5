package money

import "testing"

func TestParsePaise(t *testing.T) {
	cases := []struct {
		input string
		want  int64
		err   error
	}{
		{"25000", 2500000, nil},
		{"25000.50", 2500050, nil},
		{"0.01", 1, nil},
		{"999", 99900, nil},
		{" 100 ", 10000, nil},
		{"-42.10", -4210, nil},
		{"", 0, ErrInvalidAmount},
		{"abc", 0, ErrInvalidAmount},
		{"1.001", 0, ErrTooManyDecimals},
	}
	for _, tc := range cases {
		got, err := ParsePaise(tc.input)
		if err != tc.err {
			t.Fatalf("ParsePaise(%q) error = %v, want %v", tc.input, err, tc.err)
		}
		if err == nil && got != tc.want {
			t.Fatalf("ParsePaise(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestFormatPaise(t *testing.T) {
	cases := []struct {
		input int64
		want  string
	}{
		{2500000, "25000.00"},
		{2500050, "25000.50"},
		{1, "0.01"},
		{-4210, "-42.10"},
		{0, "0.00"},
	}
	for _, tc := range cases {
		if got := FormatPaise(tc.input); got != tc.want {
			t.Fatalf("FormatPaise(%d) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
