package utils

import (
	"strings"
	"testing"
	"time"
)

func TestAttendanceTokenValueRoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 4, 9, 30, 15, 0, time.UTC)
	raw, err := NewAttendanceTokenValue(42, 7, "clock_in", now)
	if err != nil {
		t.Fatalf("NewAttendanceTokenValue: %v", err)
	}
	if !strings.HasPrefix(raw, "ATT1.") {
		t.Fatalf("value %q missing prefix", raw)
	}

	got, err := ParseAttendanceTokenValue(raw)
	if err != nil {
		t.Fatalf("ParseAttendanceTokenValue: %v", err)
	}
	if got.UserID != 42 || got.OrganizationID != 7 || got.TokenType != "clock_in" {
		t.Fatalf("parsed = %+v", got)
	}
	if !got.IssuedAt.Equal(now) {
		t.Fatalf("IssuedAt = %v, want %v", got.IssuedAt, now)
	}
	if len(got.Nonce) != 32 {
		t.Fatalf("nonce length = %d", len(got.Nonce))
	}
}

func TestAttendanceTokenValuesAreUnique(t *testing.T) {
	now := time.Now()
	a, _ := NewAttendanceTokenValue(1, 1, "clock_out", now)
	b, _ := NewAttendanceTokenValue(1, 1, "clock_out", now)
	if a == b {
		t.Fatalf("two tokens minted in the same second collided: %q", a)
	}
}

func TestParseAttendanceTokenValueRejectsJunk(t *testing.T) {
	nonce := strings.Repeat("ab", 16)
	bad := []string{
		"",
		"hello world",
		"QR2.1.1.clock_in.1700000000." + nonce,    // wrong prefix
		"ATT1.1.1.clock_in.1700000000",            // missing nonce
		"ATT1.0.1.clock_in.1700000000." + nonce,   // zero user
		"ATT1.1.0.clock_in.1700000000." + nonce,   // zero org
		"ATT1.1.1.lunch.1700000000." + nonce,      // unknown type
		"ATT1.1.1.clock_in.notatime." + nonce,     // bad timestamp
		"ATT1.1.1.clock_in.1700000000.zzzz",       // short nonce
		"ATT1.1.1.clock_in.1700000000." + strings.Repeat("zz", 16), // non-hex nonce
	}
	for _, raw := range bad {
		if _, err := ParseAttendanceTokenValue(raw); err != ErrMalformedToken {
			t.Errorf("ParseAttendanceTokenValue(%q) err = %v, want ErrMalformedToken", raw, err)
		}
	}
}
