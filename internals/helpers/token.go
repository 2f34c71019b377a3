// file: internals/helpers/token.go
package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Locals keys hydrated by the auth middleware.
const (
	LocUserID    = "user_id"
	LocSchoolID  = "school_id"
	LocStudentID = "student_id"
	LocRoles     = "roles"
)

func localUUID(c *fiber.Ctx, key string) (uuid.UUID, error) {
	v := c.Locals(key)
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, key+" missing in token")
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, key+" is not a valid uuid")
	}
	return id, nil
}

// GetUserIDFromToken reads the authenticated user id from locals.
func GetUserIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	return localUUID(c, LocUserID)
}

// GetSchoolIDFromToken reads the active tenant (school) id from locals.
func GetSchoolIDFromToken(c *fiber.Ctx) (uuid.UUID, error) {
	return localUUID(c, LocSchoolID)
}

// HasRole checks the roles claim hydrated by the auth middleware.
func HasRole(c *fiber.Ctx, role string) bool {
	v := c.Locals(LocRoles)
	switch t := v.(type) {
	case []string:
		for _, r := range t {
			if strings.EqualFold(r, role) {
				return true
			}
		}
	case []interface{}:
		for _, r := range t {
			if s, ok := r.(string); ok && strings.EqualFold(s, role) {
				return true
			}
		}
	case string:
		return strings.EqualFold(t, role)
	}
	return false
}
