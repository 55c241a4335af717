package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/transdoc/api/pkg/response"
)

const mb = 1024 * 1024

// UploadLimit enforces the per-caller upload size and records it for the
// handler to check individual files against.
func UploadLimit(maxMB, premiumMaxMB int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := maxMB
		if IsPremium(c) && premiumMaxMB > limit {
			limit = premiumMaxMB
		}
		c.Locals("uploadLimitMB", limit)
		if n := c.Request().Header.ContentLength(); n > 0 && int64(n) > int64(limit)*mb {
			return response.FileTooLarge(c, limit)
		}
		return c.Next()
	}
}

// UploadLimitBytes returns the limit set by UploadLimit, or 0 if none.
func UploadLimitBytes(c *fiber.Ctx) int64 {
	limit, _ := c.Locals("uploadLimitMB").(int)
	return int64(limit) * mb
}

// UploadLimitMB returns the limit set by UploadLimit in megabytes.
func UploadLimitMB(c *fiber.Ctx) int {
	limit, _ := c.Locals("uploadLimitMB").(int)
	return limit
}
