package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/attendance-qr/internal/model"
)

// AttendanceTokenRepo provides data access to the attendance_tokens table.
// Tokens are written once at issuance and mutated exactly once on
// consumption; the consume path lives in AttendanceStore because it spans
// the token and time-entry tables in one transaction.
type AttendanceTokenRepo struct {
	db *sql.DB
}

// NewAttendanceTokenRepo returns a repo bound to the provided database.
func NewAttendanceTokenRepo(db *sql.DB) *AttendanceTokenRepo { return &AttendanceTokenRepo{db: db} }

// Create inserts a freshly issued token row. ID, TokenValue, ExpiresAt and
// the ownership fields must be populated by the caller; Used starts false.
func (r *AttendanceTokenRepo) Create(ctx context.Context, t model.AttendanceToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO attendance_tokens
		   (id, token_value, user_id, organization_id, token_type, expires_at, used)
		 VALUES (?,?,?,?,?,?,FALSE)`,
		t.ID, t.TokenValue, t.UserID, t.OrganizationID, t.TokenType, t.ExpiresAt.UTC())
	return err
}

// ByValue looks a token up by exact token value. Returns sql.ErrNoRows for
// unknown values; the caller maps that to an "invalid" scan rejection.
func (r *AttendanceTokenRepo) ByValue(ctx context.Context, value string) (model.AttendanceToken, error) {
	var (
		t      model.AttendanceToken
		usedAt sql.NullTime
		loc    sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, token_value, user_id, organization_id, token_type,
		        expires_at, used, used_at, used_location, created_at
		 FROM attendance_tokens WHERE token_value=? LIMIT 1`,
		value).Scan(&t.ID, &t.TokenValue, &t.UserID, &t.OrganizationID, &t.TokenType,
		&t.ExpiresAt, &t.Used, &usedAt, &loc, &t.CreatedAt)
	if err != nil {
		return model.AttendanceToken{}, err
	}
	if usedAt.Valid {
		at := usedAt.Time
		t.UsedAt = &at
	}
	if loc.Valid {
		t.UsedLocation = loc.String
	}
	return t, nil
}

// markUsedTx performs the consume-if-unconsumed conditional update inside
// the supplied transaction. It returns false when the token was already
// consumed, which means a concurrent scan won the race; exactly one of two
// racing scans observes true.
func (r *AttendanceTokenRepo) markUsedTx(ctx context.Context, tx *sql.Tx, tokenID string, at time.Time, location string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE attendance_tokens
		 SET used=TRUE, used_at=?, used_location=?
		 WHERE id=? AND used=FALSE`,
		at.UTC(), location, tokenID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
