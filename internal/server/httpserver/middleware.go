package httpserver

import (
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/common"
	"github.com/dmitrijs2005/aquatrack/internal/server/models"
	"github.com/gofiber/fiber/v2"
)

const userKey = "user"

// authenticate admits a request only when its bearer token is the user's
// current access token.
func (s *HTTPServer) authenticate(c *fiber.Ctx) error {
	user, err := s.svc.Auth.Authenticate(c.UserContext(), c.Get(common.AuthorizationHeaderName))
	if err != nil {
		return err
	}
	c.Locals(userKey, user)
	return c.Next()
}

func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userKey).(*models.User)
	return user
}

// observe records request metrics. Errors are rendered here so the recorded
// status is the one sent.
func (s *HTTPServer) observe(c *fiber.Ctx) error {
	start := time.Now()

	if err := c.Next(); err != nil {
		if herr := s.errorHandler(c, err); herr != nil {
			_ = c.SendStatus(fiber.StatusInternalServerError)
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveHTTP(c.Method(), c.Route().Path, c.Response().StatusCode(), time.Since(start))
	}
	return nil
}
