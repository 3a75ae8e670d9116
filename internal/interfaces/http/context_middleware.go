package http

import (
	"github.com/gofiber/fiber/v2"
)

// Llaves de locals pobladas por el middleware de contexto. La autenticación
// real vive aguas arriba (gateway); aquí solo se exige la identidad resuelta.
const (
	localTenantID = "tenant_id"
	localUserID   = "user_id"
)

// ContextMiddleware copia la identidad resuelta aguas arriba
// (X-Tenant-ID, X-User-ID) a los locals del request. Sin tenant no hay acceso.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tenantID := c.Get("X-Tenant-ID")
		if tenantID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Code: "UNAUTHORIZED", Message: "falta tenant"})
		}
		c.Locals(localTenantID, tenantID)
		c.Locals(localUserID, c.Get("X-User-ID"))
		return c.Next()
	}
}

// GetTenantID devuelve el tenant del request ("" si no hay).
func GetTenantID(c *fiber.Ctx) string {
	if v, ok := c.Locals(localTenantID).(string); ok {
		return v
	}
	return ""
}

// GetUserID devuelve el usuario del request ("" si no hay).
func GetUserID(c *fiber.Ctx) string {
	if v, ok := c.Locals(localUserID).(string); ok {
		return v
	}
	return ""
}
