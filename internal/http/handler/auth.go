package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"cloudsync/internal/http/middleware"
	"cloudsync/internal/service"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type credentialsRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// parseBody decodes a JSON body into dst and validates its struct tags.
// Failures wrap service.ErrValidation.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fmt.Errorf("%w: malformed request body", service.ErrValidation)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: field %s failed %q", service.ErrValidation, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: invalid request body", service.ErrValidation)
	}
	return nil
}

// Register creates an account.
//
// @Summary  Register an account
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body credentialsRequest true "credentials"
// @Success  201 {object} model.User
// @Failure  400 {object} errorPayload
// @Failure  409 {object} errorPayload
// @Router   /auth/register [post]
func Register(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		u, err := users.Register(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// Login exchanges credentials for a bearer session.
//
// @Summary  Log in
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body body credentialsRequest true "credentials"
// @Success  200 {object} service.Session
// @Failure  401 {object} errorPayload
// @Failure  403 {object} errorPayload
// @Router   /auth/login [post]
func Login(users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		sess, err := users.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(sess)
	}
}

// Me returns the authenticated account.
//
// @Summary  Current user
// @Tags     auth
// @Produce  json
// @Security BearerAuth
// @Success  200 {object} model.User
// @Failure  401 {object} errorPayload
// @Router   /auth/me [get]
func Me() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(middleware.CurrentUser(c))
	}
}
