package utils

import (
	"strings"
	"testing"
	"time"
)

func TestFormatMinorUnits(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		expect string
	}{
		{"zero", 0, "0.00"},
		{"whole", 1200000, "12000.00"},
		{"with cents", 1250050, "12500.50"},
		{"single digit cents", 105, "1.05"},
		{"negative", -7550, "-75.50"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatMinorUnits(tc.amount); got != tc.expect {
				t.Fatalf("expected %q, got %q", tc.expect, got)
			}
		})
	}
}

func TestGenerateReceiptNumber(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	first := GenerateReceiptNumber(now)
	second := GenerateReceiptNumber(now)

	if !strings.HasPrefix(first, "RCPT-2026-") {
		t.Fatalf("unexpected receipt format: %s", first)
	}
	if first == second {
		t.Fatalf("receipt numbers must be unique, got %s twice", first)
	}
}

func TestIsValidPaymentMethod(t *testing.T) {
	for _, m := range []string{"cash", "transfer", "cheque", "card", "online", "unknown"} {
		if !IsValidPaymentMethod(m) {
			t.Fatalf("expected %q to be valid", m)
		}
	}
	if IsValidPaymentMethod("bitcoin") {
		t.Fatal("expected bitcoin to be rejected")
	}
}
