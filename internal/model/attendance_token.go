package model

import "time"

// Token types stored in attendance_tokens.token_type. The type is fixed at
// issuance and decides which time-entry mutation a successful scan performs.
const (
	TokenClockIn  = "clock_in"
	TokenClockOut = "clock_out"
)

// ValidTokenType reports whether s is one of the two known token types.
func ValidTokenType(s string) bool {
	return s == TokenClockIn || s == TokenClockOut
}

// AttendanceToken is a single-use, short-lived credential displayed as a QR
// code. It reserves the intent to clock in or out; the time-entry mutation
// only happens when a scanner station submits the token for validation.
//
// Invariants: Used transitions false→true exactly once and is never
// reversed; a token is only consumable strictly before ExpiresAt; TokenType
// never changes after creation.
//
// Fields:
//  ID             – UUID primary key of the attendance_tokens row.
//  TokenValue     – opaque value encoded into the QR code; unique.
//  UserID         – user the token authorizes an action for.
//  OrganizationID – owning organization.
//  TokenType      – TokenClockIn or TokenClockOut.
//  ExpiresAt      – instant after which the token is rejected as expired.
//  Used           – consumption flag.
//  UsedAt         – when the token was consumed (null until then).
//  UsedLocation   – scanner station location recorded on consumption.
//  CreatedAt      – when the token was issued.
type AttendanceToken struct {
	ID             string     // attendance_tokens.id (uuid)
	TokenValue     string     // attendance_tokens.token_value
	UserID         uint64     // attendance_tokens.user_id
	OrganizationID uint64     // attendance_tokens.organization_id
	TokenType      string     // attendance_tokens.token_type
	ExpiresAt      time.Time  // attendance_tokens.expires_at
	Used           bool       // attendance_tokens.used
	UsedAt         *time.Time // attendance_tokens.used_at (nullable)
	UsedLocation   string     // attendance_tokens.used_location
	CreatedAt      time.Time  // attendance_tokens.created_at
}
