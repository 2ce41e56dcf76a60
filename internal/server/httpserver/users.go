package httpserver

import (
	"github.com/dmitrijs2005/aquatrack/internal/server/models"
	"github.com/gofiber/fiber/v2"
)

type profileRequest struct {
	Name         *string  `json:"name"`
	Gender       *string  `json:"gender" validate:"omitempty,oneof=male female ''"`
	Weight       *float64 `json:"weight" validate:"omitempty,gte=0"`
	TimeActivity *string  `json:"timeActivity"`
	DailyNorma   int      `json:"dailyNorma" validate:"required,gte=1,lte=50000"`
}

type avatarRequest struct {
	Key string `json:"key" validate:"required"`
}

func (s *HTTPServer) currentUser(c *fiber.Ctx) error {
	user, err := s.svc.Profile.Current(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(profileResponse(user))
}

func (s *HTTPServer) updateProfile(c *fiber.Ctx) error {
	req := new(profileRequest)
	if err := s.bind(c, req); err != nil {
		return err
	}

	user, err := s.svc.Profile.UpdateProfile(c.UserContext(), currentUser(c).ID, models.Profile{
		Name:         req.Name,
		Gender:       req.Gender,
		Weight:       req.Weight,
		TimeActivity: req.TimeActivity,
		DailyNorma:   req.DailyNorma,
	})
	if err != nil {
		return err
	}
	return c.JSON(profileResponse(user))
}

func (s *HTTPServer) countUsers(c *fiber.Ctx) error {
	n, err := s.svc.Profile.Count(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"totalUsers": n})
}

func (s *HTTPServer) avatarUpload(c *fiber.Ctx) error {
	key, uploadURL, err := s.svc.Profile.AvatarUpload(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"key": key, "uploadURL": uploadURL})
}

func (s *HTTPServer) confirmAvatar(c *fiber.Ctx) error {
	req := new(avatarRequest)
	if err := s.bind(c, req); err != nil {
		return err
	}

	avatarURL, err := s.svc.Profile.ConfirmAvatar(c.UserContext(), currentUser(c).ID, req.Key)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"avatarURL": avatarURL})
}
