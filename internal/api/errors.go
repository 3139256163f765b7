package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/pkg/errors"

	"github.com/insightdelivered/tutor-portal/internal/extractor"
	"github.com/insightdelivered/tutor-portal/internal/portal"
)

// ErrorHandler maps handler errors to a status code and a JSON body of the
// form {success:false, error}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	body := fiber.Map{"success": false, "error": err.Error()}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	} else if ve, ok := portal.AsValidationError(err); ok {
		code = fiber.StatusBadRequest
		if len(ve.Fields) > 0 {
			body["fields"] = ve.Fields
		}
	} else if portal.IsNotFound(err) {
		code = fiber.StatusNotFound
	} else if errors.Is(err, extractor.ErrUnreadable) {
		code = fiber.StatusUnprocessableEntity
	}

	if code >= fiber.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(body)
}
