package model

import "time"

// ScannerStation is a registered wall-mounted QR scanner. Stations identify
// themselves on the validate endpoint so scan logs can be attributed to a
// physical location. A station id is advisory: an unknown or inactive
// station does not cause a scan to be rejected, it is simply recorded.
type ScannerStation struct {
	ID             string    // qr_scanner_stations.id (uuid)
	OrganizationID uint64    // qr_scanner_stations.organization_id
	StationName    string    // qr_scanner_stations.station_name
	Location       string    // qr_scanner_stations.location
	IsActive       bool      // qr_scanner_stations.is_active
	CreatedAt      time.Time // qr_scanner_stations.created_at
}
