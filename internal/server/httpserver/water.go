package httpserver

import (
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

type waterRequest struct {
	Date   time.Time `json:"date" validate:"required"`
	Amount int       `json:"amount" validate:"required,gte=1,lte=5000"`
}

func (s *HTTPServer) addWater(c *fiber.Ctx) error {
	req := new(waterRequest)
	if err := s.bind(c, req); err != nil {
		return err
	}

	entry, err := s.svc.Water.Add(c.UserContext(), currentUser(c).ID, req.Date, req.Amount)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (s *HTTPServer) updateWater(c *fiber.Ctx) error {
	req := new(waterRequest)
	if err := s.bind(c, req); err != nil {
		return err
	}

	entry, err := s.svc.Water.Update(c.UserContext(), currentUser(c).ID, c.Params("id"), req.Date, req.Amount)
	if err != nil {
		return err
	}
	return c.JSON(entry)
}

func (s *HTTPServer) deleteWater(c *fiber.Ctx) error {
	if err := s.svc.Water.Delete(c.UserContext(), currentUser(c).ID, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// waterDay defaults to the current UTC day.
func (s *HTTPServer) waterDay(c *fiber.Ctx) error {
	day := time.Now().UTC()
	if q := c.Query("date"); q != "" {
		d, err := services.ParseDay(q)
		if err != nil {
			return err
		}
		day = d
	}

	summary, err := s.svc.Water.Day(c.UserContext(), currentUser(c).ID, day)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// waterMonth defaults to the current UTC month.
func (s *HTTPServer) waterMonth(c *fiber.Ctx) error {
	month := time.Now().UTC()
	if q := c.Query("month"); q != "" {
		m, err := services.ParseMonth(q)
		if err != nil {
			return err
		}
		month = m
	}

	summary, err := s.svc.Water.Month(c.UserContext(), currentUser(c).ID, month)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}
