package handler // handler defines http handlers

import (
	"errors"  // errors provides sentinel values used in the claim helpers
	"strconv" // strconv converts strings to numeric types

	"github.com/labstack/echo/v4" // echo defines request context types
)

// getUserID extracts the user_id claim from echo.Context and converts it
// to uint64. JWT numeric claims arrive as float64; older tokens may carry
// strings.
func getUserID(c echo.Context) (uint64, error) {
	return claimUint64(c, "user_id")
}

// getOrgID extracts the org_id claim the same way.
func getOrgID(c echo.Context) (uint64, error) {
	return claimUint64(c, "org_id")
}

// getRole extracts the role claim as a string.
func getRole(c echo.Context) (string, error) {
	if s, ok := c.Get("role").(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("invalid role in context")
}

func claimUint64(c echo.Context, key string) (uint64, error) {
	v := c.Get(key)
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid " + key + " in context")
}
