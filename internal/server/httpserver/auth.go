package httpserver

import (
	"net/url"
	"time"

	"github.com/dmitrijs2005/aquatrack/internal/common"
	"github.com/dmitrijs2005/aquatrack/internal/server/models"
	"github.com/dmitrijs2005/aquatrack/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// resetRequest leaves the field checks to the service, which reports them
// before looking at the token.
type resetRequest struct {
	Password       string `json:"password"`
	RepeatPassword string `json:"repeatPassword"`
	ResetToken     string `json:"resetToken"`
}

type userEmail struct {
	Email string `json:"email"`
}

type sessionResponse struct {
	AccessToken string    `json:"accessToken"`
	User        userEmail `json:"user"`
}

func (s *HTTPServer) refreshCookie(token string) *fiber.Cookie {
	// browsers drop SameSite=None cookies that are not Secure
	sameSite := fiber.CookieSameSiteNoneMode
	if !s.opts.CookieSecure {
		sameSite = fiber.CookieSameSiteLaxMode
	}
	return &fiber.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: sameSite,
	}
}

func (s *HTTPServer) setRefreshCookie(c *fiber.Ctx, token string) {
	cookie := s.refreshCookie(token)
	cookie.MaxAge = int(s.opts.RefreshTTL / time.Second)
	c.Cookie(cookie)
}

// clearRefreshCookie expires the cookie under the attributes it was set with,
// otherwise the browser keeps the original.
func (s *HTTPServer) clearRefreshCookie(c *fiber.Ctx) {
	cookie := s.refreshCookie("")
	cookie.Expires = time.Unix(0, 0).UTC()
	c.Cookie(cookie)
}

func (s *HTTPServer) sessionResponse(c *fiber.Ctx, session *services.Session) error {
	s.setRefreshCookie(c, session.RefreshToken)
	return c.JSON(sessionResponse{AccessToken: session.AccessToken, User: userEmail{Email: session.User.Email}})
}

func (s *HTTPServer) register(c *fiber.Ctx) error {
	req := new(credentialsRequest)
	if err := s.bind(c, req); err != nil {
		return err
	}

	user, err := s.svc.Auth.Register(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": userEmail{Email: user.Email}})
}

func (s *HTTPServer) login(c *fiber.Ctx) error {
	req := new(credentialsRequest)
	if err := s.bind(c, req); err != nil {
		return err
	}

	session, err := s.svc.Auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return s.sessionResponse(c, session)
}

func (s *HTTPServer) logout(c *fiber.Ctx) error {
	user := currentUser(c)
	if err := s.svc.Auth.Logout(c.UserContext(), user.ID, c.Cookies(common.RefreshTokenCookieName)); err != nil {
		return err
	}
	s.clearRefreshCookie(c)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *HTTPServer) refresh(c *fiber.Ctx) error {
	session, err := s.svc.Auth.Refresh(c.UserContext(), c.Cookies(common.RefreshTokenCookieName))
	if err != nil {
		s.clearRefreshCookie(c)
		return err
	}
	return s.sessionResponse(c, session)
}

func (s *HTTPServer) verifyEmail(c *fiber.Ctx) error {
	if err := s.svc.Auth.VerifyEmail(c.UserContext(), c.Params("token")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Verification successful"})
}

func (s *HTTPServer) resendVerification(c *fiber.Ctx) error {
	req := new(emailRequest)
	if err := s.bind(c, req); err != nil {
		return err
	}
	if err := s.svc.Auth.ResendVerification(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Verification email sent"})
}

func (s *HTTPServer) forgotPassword(c *fiber.Ctx) error {
	req := new(emailRequest)
	if err := s.bind(c, req); err != nil {
		return err
	}
	if err := s.svc.Auth.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Reset password email sent"})
}

func (s *HTTPServer) resetPassword(c *fiber.Ctx) error {
	req := new(resetRequest)
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Cannot parse JSON")
	}

	err := s.svc.Auth.ResetPassword(c.UserContext(), services.ResetInput{
		Password:       req.Password,
		RepeatPassword: req.RepeatPassword,
		ResetToken:     req.ResetToken,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Password has been reset"})
}

func (s *HTTPServer) googleAuth(c *fiber.Ctx) error {
	return c.Redirect(s.svc.Auth.OAuthURL(), fiber.StatusFound)
}

// googleRedirect finishes the provider callback and sends the browser back
// to the frontend with either the access token or an error code.
func (s *HTTPServer) googleRedirect(c *fiber.Ctx) error {
	session, err := s.svc.Auth.OAuthLogin(c.UserContext(), c.Query("code"))
	if err != nil {
		code, _ := statusFor(err)
		if code != fiber.StatusUnauthorized {
			return err
		}
		return c.Redirect(s.frontendURL(url.Values{"error": {"unverified"}}), fiber.StatusFound)
	}

	s.setRefreshCookie(c, session.RefreshToken)
	return c.Redirect(s.frontendURL(url.Values{"accessToken": {session.AccessToken}}), fiber.StatusFound)
}

func (s *HTTPServer) frontendURL(q url.Values) string {
	return s.opts.FrontendURL + "?" + q.Encode()
}

func profileResponse(u *models.User) fiber.Map {
	return fiber.Map{
		"email":        u.Email,
		"name":         u.Name,
		"avatarURL":    u.AvatarURL,
		"gender":       u.Gender,
		"weight":       u.Weight,
		"timeActivity": u.TimeActivity,
		"dailyNorma":   u.DailyNorma,
		"verified":     u.Verified,
	}
}
