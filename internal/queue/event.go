// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into an audit log file.
package queue

// ScanEvent is published after every validation attempt, success or
// rejection. It carries enough information for downstream consumers to
// audit, notify, or feed dashboards without querying the primary database.
// The authoritative record is the scan_logs table; this feed is best
// effort.
type ScanEvent struct {
	Status       string `json:"status"`                  // success | invalid | already_used | expired | schedule_mismatch | error
	TokenID      string `json:"token_id,omitempty"`      // attendance token uuid when resolvable
	TokenType    string `json:"token_type,omitempty"`    // clock_in | clock_out
	UserID       uint64 `json:"user_id,omitempty"`       // scanned user when resolvable
	UserName     string `json:"user_name,omitempty"`     // display name for human-readable logs
	OrgID        uint64 `json:"organization_id,omitempty"`
	StationID    string `json:"station_id,omitempty"`    // scanner station uuid when provided
	Location     string `json:"location,omitempty"`      // station location label
	TimeEntryID  uint64 `json:"time_entry_id,omitempty"` // entry created or closed on success
	ErrorMessage string `json:"error,omitempty"`         // rejection reason
	ScannedAt    string `json:"scanned_at"`              // RFC3339 UTC
}
