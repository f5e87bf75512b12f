package validation

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aldoetobex/storefront-web/pkg/models"
)

// Respond writes the 422 body the form screens render inline.
func Respond(c *fiber.Ctx, errs map[string][]string) error {
	return Fields(c, First(errs))
}

// Fields writes a 422 for checks done outside the validator (uniqueness, relations).
func Fields(c *fiber.Ctx, errs map[string]string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ValidationErrorResponse{
		Message: "Validation failed",
		Errors:  errs,
	})
}
