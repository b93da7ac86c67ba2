package date

import (
	"testing"
	"time"
)

// TestTime asserts that time() is canonical, so equal days compare equal.
func TestTime(t *testing.T) {
	d1 := New(2024, time.January, 31)
	d2 := New(2024, time.January, 31)
	if d1.time() != d2.time() {
		t.Errorf("same day gives two different times")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected Date
		err      bool
	}{
		{"2024-01-15", New(2024, time.January, 15), false},
		{"2024-7-1", New(2024, time.July, 1), false},
		{"", Date{}, false},
		{"15/01/2024", Date{}, true},
		{"invalid-date", Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.err {
				t.Fatalf("Parse(%q) error = %v, want error %v", tt.input, err, tt.err)
			}
			if got != tt.expected {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAddNormalizes(t *testing.T) {
	d := New(2024, time.January, 25).Add(14)
	if got := d.String(); got != "2024-02-08" {
		t.Errorf("Add(14) = %s, want 2024-02-08", got)
	}
	if got := New(2024, time.March, 0).String(); got != "2024-02-29" {
		t.Errorf("New(2024, 3, 0) = %s, want 2024-02-29", got)
	}
}

func TestDaysSince(t *testing.T) {
	from := MustParse("2024-01-15")
	to := MustParse("2024-01-20")
	if got := to.DaysSince(from); got != 5 {
		t.Errorf("DaysSince = %d, want 5", got)
	}
	if got := from.DaysSince(to); got != -5 {
		t.Errorf("DaysSince = %d, want -5", got)
	}
}

func TestZero(t *testing.T) {
	var d Date
	if !d.IsZero() || d.String() != "" || d.Display() != "" {
		t.Errorf("zero date should be empty, got %q", d.String())
	}
	if MustParse("2024-12-31").Display() != "31/12/2024" {
		t.Errorf("unexpected display format")
	}
}
