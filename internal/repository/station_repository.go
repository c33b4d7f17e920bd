package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/attendance-qr/internal/model"
)

// StationRepo manages the qr_scanner_stations table. Station ids are UUIDs
// because they are baked into scanner-station URLs and must not be
// guessable from a counter.
type StationRepo struct {
	db *sql.DB
}

// NewStationRepo returns a repo bound to the provided database.
func NewStationRepo(db *sql.DB) *StationRepo { return &StationRepo{db: db} }

// Create registers a new active station and returns it.
func (r *StationRepo) Create(ctx context.Context, orgID uint64, name, location string) (model.ScannerStation, error) {
	s := model.ScannerStation{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		StationName:    strings.TrimSpace(name),
		Location:       strings.TrimSpace(location),
		IsActive:       true,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO qr_scanner_stations (id, organization_id, station_name, location, is_active)
		 VALUES (?,?,?,?,TRUE)`,
		s.ID, s.OrganizationID, s.StationName, s.Location)
	if err != nil {
		return model.ScannerStation{}, err
	}
	return s, nil
}

// ByID fetches a station by id.
func (r *StationRepo) ByID(ctx context.Context, id string) (model.ScannerStation, error) {
	var s model.ScannerStation
	err := r.db.QueryRowContext(ctx,
		`SELECT id, organization_id, station_name, location, is_active, created_at
		 FROM qr_scanner_stations WHERE id=? LIMIT 1`,
		id).Scan(&s.ID, &s.OrganizationID, &s.StationName, &s.Location, &s.IsActive, &s.CreatedAt)
	return s, err
}

// ListByOrg lists an organization's stations, newest first.
func (r *StationRepo) ListByOrg(ctx context.Context, orgID uint64) ([]model.ScannerStation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, organization_id, station_name, location, is_active, created_at
		 FROM qr_scanner_stations
		 WHERE organization_id=?
		 ORDER BY created_at DESC`,
		orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var stations []model.ScannerStation
	for rows.Next() {
		var s model.ScannerStation
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.StationName, &s.Location, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}

// SetActive toggles a station, scoped to the owning organization so one
// tenant cannot flip another tenant's stations. Returns false when no row
// matched.
func (r *StationRepo) SetActive(ctx context.Context, orgID uint64, id string, active bool) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE qr_scanner_stations SET is_active=? WHERE id=? AND organization_id=?`,
		active, id, orgID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
