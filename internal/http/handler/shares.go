package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"cloudsync/internal/http/middleware"
	"cloudsync/internal/service"
)

const timeLayout = time.RFC3339

type createShareRequest struct {
	ExpiresInHours *int  `json:"expires_in_hours" validate:"omitempty,gt=0,lte=8760"`
	AllowDownload  *bool `json:"allow_download"`
}

// CreateShare issues a share link for one of the caller's files.
// expires_in_hours defaults to 24 and allow_download to true.
//
// @Summary  Create share link
// @Tags     shares
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path string             true  "file id"
// @Param    body body createShareRequest false "options"
// @Success  201 {object} model.ShareLink
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /files/{id}/shares [post]
func CreateShare(shares service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return respondError(c, err)
		}

		var req createShareRequest
		if len(c.Body()) > 0 {
			if err := parseBody(c, &req); err != nil {
				return respondError(c, err)
			}
		}
		ttl := service.DefaultShareTTLHours
		if req.ExpiresInHours != nil {
			ttl = *req.ExpiresInHours
		}
		allow := true
		if req.AllowDownload != nil {
			allow = *req.AllowDownload
		}

		link, err := shares.Create(c.UserContext(), middleware.CurrentUser(c).ID, id, ttl, allow)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(link)
	}
}

// ListShares lists the links of one of the caller's files.
//
// @Summary  List share links
// @Tags     shares
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "file id"
// @Success  200 {array} model.ShareLink
// @Router   /files/{id}/shares [get]
func ListShares(shares service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return respondError(c, err)
		}
		links, err := shares.List(c.UserContext(), middleware.CurrentUser(c).ID, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(links)
	}
}

// RevokeShare deletes a share link.
//
// @Summary  Revoke share link
// @Tags     shares
// @Security BearerAuth
// @Param    id path string true "share link id"
// @Success  204
// @Failure  404 {object} errorPayload
// @Router   /shares/{id} [delete]
func RevokeShare(shares service.ShareService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return respondError(c, err)
		}
		if err := shares.Revoke(c.UserContext(), middleware.CurrentUser(c).ID, id); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RedeemShare resolves an anonymous share token.
//
// @Summary  Redeem share link
// @Tags     public
// @Produce  json
// @Param    token path string true "share token"
// @Success  200 {object} service.ShareGrant
// @Failure  404 {object} errorPayload
// @Failure  410 {object} errorPayload
// @Router   /s/{token} [get]
func RedeemShare(gate service.AccessGate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		g, err := gate.RedeemShare(c.UserContext(), c.Params("token"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(g)
	}
}
