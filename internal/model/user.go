package model

import "time"

// Role names stored in the users.role column and embedded in JWT claims.
// EMPLOYEE is the default for self-registered members of an existing
// organization; the remaining roles may issue tokens on behalf of other
// users and manage scanner stations.
const (
	RoleEmployee   = "EMPLOYEE"
	RoleManager    = "MANAGER"
	RoleTeamLead   = "TEAM_LEAD"
	RoleAdmin      = "ADMIN"
	RoleSuperadmin = "SUPERADMIN"
)

// PrivilegedRoles lists the roles allowed to issue attendance tokens for a
// target user other than themselves and to manage scanner stations.
var PrivilegedRoles = []string{RoleManager, RoleTeamLead, RoleAdmin, RoleSuperadmin}

// IsPrivileged reports whether the given role may act on behalf of other
// users within its organization.
func IsPrivileged(role string) bool {
	for _, r := range PrivilegedRoles {
		if r == role {
			return true
		}
	}
	return false
}

// User represents an application user record as stored in the `users`
// table. Each field corresponds to a column in the database. Handlers
// define separate response types with appropriate JSON tags; these structs
// are used internally by the repository layer.
//
// Fields:
//  ID             – primary key identifier of the user.
//  OrganizationID – organization the user belongs to; every query against
//                   attendance data is scoped by this value.
//  Email          – unique email address.
//  PasswordHash   – bcrypt hashed password.
//  Name           – display name shown on scanner-station feedback.
//  Role           – one of the Role* constants above.
//  IsActive       – whether the account is active.
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type User struct {
	ID             uint64    // users.id
	OrganizationID uint64    // users.organization_id
	Email          string    // users.email
	PasswordHash   string    // users.password_hash
	Name           string    // users.name
	Role           string    // users.role
	IsActive       bool      // users.is_active
	CreatedAt      time.Time // users.created_at
	UpdatedAt      time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table. Each refresh
// token belongs to a user and contains metadata for expiry and revocation.
// The plain token is not stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
