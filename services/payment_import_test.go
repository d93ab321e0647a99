package services

import (
	"strings"
	"testing"
)

func TestParseMinorUnits(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect int64
		expErr bool
	}{
		{"whole number", "12000", 1200000, false},
		{"two decimals", "12500.50", 1250050, false},
		{"one decimal", "99.5", 9950, false},
		{"trailing dot", "42.", 4200, false},
		{"with thousands separator", "1,250.75", 125075, false},
		{"negative", "-75.50", -7550, false},
		{"empty", "", 0, true},
		{"three decimals", "1.005", 0, true},
		{"not a number", "abc", 0, true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseMinorUnits(tc.input)
			if tc.expErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %d", tc.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.expect {
				t.Fatalf("expected %d, got %d", tc.expect, got)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	for _, input := range []string{"2026-01-15", "1/15/2026", "2026-01-15T00:00:00Z"} {
		if got := parseDate(input); got == nil {
			t.Fatalf("expected %q to parse", input)
		}
	}
	if got := parseDate(""); got != nil {
		t.Fatalf("expected nil for empty date, got %v", got)
	}
	if got := parseDate("not-a-date"); got != nil {
		t.Fatalf("expected nil for garbage date, got %v", got)
	}
}

func TestMapHeaderIndexes(t *testing.T) {
	header := []string{" Student Code ", "Component", "Amount"}
	col := mapHeaderIndexes(header)

	if col[colStudentCode] != 0 || col[colComponent] != 1 || col[colAmount] != 2 {
		t.Fatalf("unexpected mapping: %v", col)
	}
	if _, ok := col[colPaymentDate]; ok {
		t.Fatal("unexpected Payment Date column")
	}
}

func TestReadCSV(t *testing.T) {
	input := "Student Code,Component,Amount\nSTU-001,Tuition,12000.00\nSTU-002,Transport, 2000\n"
	rows, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[2][2] != "2000" {
		t.Fatalf("expected leading space trimmed, got %q", rows[2][2])
	}
}
