package utils // package utils provides helper functions for token creation and hashing

import (
	"crypto/rand"  // secure random number generation for the nonce
	"encoding/hex" // hex encoding for the nonce bytes
	"errors"       // parse error values
	"fmt"          // token value formatting
	"strconv"      // numeric field parsing
	"strings"      // token value splitting
	"time"         // issuance timestamps
)

// attendanceTokenPrefix marks a scanned string as one of ours before any
// database lookup happens. Scanner stations read arbitrary QR codes, so a
// cheap shape check keeps junk scans out of the token table query path.
const attendanceTokenPrefix = "ATT1"

// ErrMalformedToken is returned by ParseAttendanceTokenValue when the
// scanned string does not have the expected shape. Callers treat it the
// same as an unknown token ("invalid"), the parse result is only used for
// diagnostics.
var ErrMalformedToken = errors.New("malformed attendance token value")

// AttendanceTokenValue is the decoded form of an opaque token string. The
// value is self-describing (user, organization, type, mint time) so a
// support engineer can read a logged token without a database lookup, but
// validation never trusts these fields: the database row found by exact
// value match is authoritative.
type AttendanceTokenValue struct {
	UserID         uint64    // user the token was minted for
	OrganizationID uint64    // owning organization
	TokenType      string    // clock_in or clock_out
	IssuedAt       time.Time // mint timestamp (second precision)
	Nonce          string    // 16 random bytes, hex encoded
}

// NewAttendanceTokenValue builds the opaque string encoded into a QR code:
//
//	ATT1.<user>.<org>.<type>.<unix>.<nonce>
//
// The nonce makes values unguessable and guarantees uniqueness even when
// the same user requests two tokens within one second.
func NewAttendanceTokenValue(userID, orgID uint64, tokenType string, now time.Time) (string, error) {
	nonce, err := randomHex(16)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%d.%d.%s.%d.%s",
		attendanceTokenPrefix, userID, orgID, tokenType, now.UTC().Unix(), nonce), nil
}

// ParseAttendanceTokenValue decodes a token string produced by
// NewAttendanceTokenValue. It returns ErrMalformedToken for anything that
// does not match the expected six-field shape.
func ParseAttendanceTokenValue(raw string) (AttendanceTokenValue, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 6 || parts[0] != attendanceTokenPrefix {
		return AttendanceTokenValue{}, ErrMalformedToken
	}
	userID, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || userID == 0 {
		return AttendanceTokenValue{}, ErrMalformedToken
	}
	orgID, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil || orgID == 0 {
		return AttendanceTokenValue{}, ErrMalformedToken
	}
	tokenType := parts[3]
	if tokenType != "clock_in" && tokenType != "clock_out" {
		return AttendanceTokenValue{}, ErrMalformedToken
	}
	unix, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil || unix <= 0 {
		return AttendanceTokenValue{}, ErrMalformedToken
	}
	nonce := parts[5]
	if len(nonce) != 32 {
		return AttendanceTokenValue{}, ErrMalformedToken
	}
	if _, err := hex.DecodeString(nonce); err != nil {
		return AttendanceTokenValue{}, ErrMalformedToken
	}
	return AttendanceTokenValue{
		UserID:         userID,
		OrganizationID: orgID,
		TokenType:      tokenType,
		IssuedAt:       time.Unix(unix, 0).UTC(),
		Nonce:          nonce,
	}, nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
