package httpserver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/aquatrack/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// validationError carries per-field messages of a rejected request body.
type validationError struct {
	fields map[string]string
}

func (e *validationError) Error() string { return "validation failed" }

// statusFor maps an error to a status code and a message safe to show.
func statusFor(err error) (int, string) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code, fe.Message
	}

	message := ""
	var ce *common.Error
	if errors.As(err, &ce) {
		message = ce.Error()
	}

	switch {
	case errors.Is(err, common.ErrorConflict):
		return fiber.StatusConflict, orDefault(message, "Conflict")
	case errors.Is(err, common.ErrorUnauthorized):
		return fiber.StatusUnauthorized, orDefault(message, "Not authorized")
	case errors.Is(err, common.ErrorNotFound):
		return fiber.StatusNotFound, orDefault(message, "Not found")
	case errors.Is(err, common.ErrorBadRequest):
		return fiber.StatusBadRequest, orDefault(message, "Bad request")
	}
	return fiber.StatusInternalServerError, "Internal server error"
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

func (s *HTTPServer) errorHandler(c *fiber.Ctx, err error) error {
	var ve *validationError
	if errors.As(err, &ve) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  ve.fields,
		})
	}

	code, message := statusFor(err)
	if code == fiber.StatusInternalServerError {
		s.logger.Error(c.UserContext(), "request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"message": message})
}

// FormatValidationError turns validator errors into field -> message pairs.
func FormatValidationError(err error) map[string]string {
	out := make(map[string]string)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = "body is invalid"
		return out
	}

	for _, fe := range verrs {
		field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]

		switch fe.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", field)
		case "email":
			out[field] = fmt.Sprintf("%s must be a valid email", field)
		case "min":
			out[field] = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		case "gte":
			out[field] = fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
		case "lte":
			out[field] = fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
		case "oneof":
			out[field] = fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return out
}

// bind parses the JSON body into dst and validates it.
func (s *HTTPServer) bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse JSON")
	}
	if err := s.validate.Struct(dst); err != nil {
		return &validationError{fields: FormatValidationError(err)}
	}
	return nil
}
