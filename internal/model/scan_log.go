package model

import "time"

// Scan outcome categories written to scan_logs.status and returned to the
// scanner station as scanStatus on rejection. ScanError covers store
// failures and unresolvable users; the remaining values are the terminal
// rejection states of the token state machine plus success.
const (
	ScanSuccess          = "success"
	ScanInvalid          = "invalid"
	ScanAlreadyUsed      = "already_used"
	ScanExpired          = "expired"
	ScanScheduleMismatch = "schedule_mismatch"
	ScanError            = "error"
)

// ScanLog is one append-only record of a validation attempt, success or
// failure. Rows are best effort: a failure to write one never fails the
// scan itself. User/organization/token references are nullable because an
// unknown token value cannot be attributed to anyone.
type ScanLog struct {
	ID             uint64    // scan_logs.id
	UserID         *uint64   // scan_logs.user_id (nullable)
	OrganizationID *uint64   // scan_logs.organization_id (nullable)
	TokenID        *string   // scan_logs.token_id (nullable uuid)
	StationID      *string   // scan_logs.station_id (nullable uuid)
	Status         string    // scan_logs.status
	ErrorMessage   string    // scan_logs.error_message
	ScannedAt      time.Time // scan_logs.scanned_at
}
