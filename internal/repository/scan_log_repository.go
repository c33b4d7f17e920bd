package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/attendance-qr/internal/model"
)

// ScanLogRepo appends to and lists the scan_logs table. Rows are append
// only; nothing here updates or deletes. Writes are best effort from the
// caller's point of view: the attendance service swallows insert errors so
// a logging failure never fails a scan.
type ScanLogRepo struct {
	db *sql.DB
}

// NewScanLogRepo returns a repo bound to the provided database.
func NewScanLogRepo(db *sql.DB) *ScanLogRepo { return &ScanLogRepo{db: db} }

// Insert appends one scan log row.
func (r *ScanLogRepo) Insert(ctx context.Context, l model.ScanLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO scan_logs
		   (user_id, organization_id, token_id, station_id, status, error_message, scanned_at)
		 VALUES (?,?,?,?,?,?,?)`,
		l.UserID, l.OrganizationID, l.TokenID, l.StationID, l.Status, l.ErrorMessage, l.ScannedAt.UTC())
	return err
}

// RecentByOrg lists an organization's most recent scan logs.
func (r *ScanLogRepo) RecentByOrg(ctx context.Context, orgID uint64, limit int) ([]model.ScanLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, organization_id, token_id, station_id, status, error_message, scanned_at
		 FROM scan_logs
		 WHERE organization_id=?
		 ORDER BY scanned_at DESC, id DESC LIMIT ?`,
		orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []model.ScanLog
	for rows.Next() {
		var (
			l       model.ScanLog
			userID  sql.NullInt64
			org     sql.NullInt64
			tokenID sql.NullString
			station sql.NullString
			errMsg  sql.NullString
		)
		if err := rows.Scan(&l.ID, &userID, &org, &tokenID, &station, &l.Status, &errMsg, &l.ScannedAt); err != nil {
			return nil, err
		}
		if userID.Valid {
			v := uint64(userID.Int64)
			l.UserID = &v
		}
		if org.Valid {
			v := uint64(org.Int64)
			l.OrganizationID = &v
		}
		if tokenID.Valid {
			v := tokenID.String
			l.TokenID = &v
		}
		if station.Valid {
			v := station.String
			l.StationID = &v
		}
		if errMsg.Valid {
			l.ErrorMessage = errMsg.String
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}
