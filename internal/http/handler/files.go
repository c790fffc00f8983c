package handler

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"cloudsync/internal/http/middleware"
	"cloudsync/internal/service"
)

const defaultContentType = "application/octet-stream"

type visibilityRequest struct {
	IsPublic *bool `json:"is_public" validate:"required"`
}

type downloadResponse struct {
	DownloadURL string `json:"download_url"`
	ExpiresAt   string `json:"expires_at"`
}

// idParam returns the named path parameter if it is a UUID.
func idParam(c *fiber.Ctx, name string) (string, error) {
	id := c.Params(name)
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: invalid id format", service.ErrValidation)
	}
	return id, nil
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", service.ErrValidation, key)
	}
	return n, nil
}

func grantResponse(g *service.DownloadGrant) downloadResponse {
	return downloadResponse{DownloadURL: g.URL, ExpiresAt: g.ExpiresAt.Format(timeLayout)}
}

// UploadFile stores a multipart "file" field for the caller.
//
// @Summary  Upload a file
// @Tags     files
// @Accept   multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param    file formData file true "file content"
// @Success  201 {object} model.File
// @Failure  400 {object} errorPayload
// @Failure  413 {object} errorPayload
// @Failure  502 {object} errorPayload
// @Router   /files [post]
func UploadFile(files service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get(fiber.HeaderContentType)
		if ct == "" {
			ct = defaultContentType
		}

		rec, err := files.Upload(c.UserContext(), middleware.CurrentUser(c).ID, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// ListFiles returns one page of the caller's files, oldest first.
//
// @Summary  List files
// @Tags     files
// @Produce  json
// @Security BearerAuth
// @Param    page      query int false "1-indexed page"
// @Param    page_size query int false "items per page (max 200)"
// @Success  200 {object} service.FileListResult
// @Router   /files [get]
func ListFiles(files service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := queryInt(c, "page")
		if err != nil {
			return respondError(c, err)
		}
		size, err := queryInt(c, "page_size")
		if err != nil {
			return respondError(c, err)
		}

		res, err := files.List(c.UserContext(), middleware.CurrentUser(c).ID, page, size)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	}
}

// GetFile returns one of the caller's files.
//
// @Summary  Get file metadata
// @Tags     files
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "file id"
// @Success  200 {object} model.File
// @Failure  404 {object} errorPayload
// @Router   /files/{id} [get]
func GetFile(files service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return respondError(c, err)
		}
		f, err := files.Get(c.UserContext(), middleware.CurrentUser(c).ID, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(f)
	}
}

// DeleteFile removes the blob and then the record.
//
// @Summary  Delete a file
// @Tags     files
// @Security BearerAuth
// @Param    id path string true "file id"
// @Success  204
// @Failure  404 {object} errorPayload
// @Failure  502 {object} errorPayload
// @Router   /files/{id} [delete]
func DeleteFile(files service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return respondError(c, err)
		}
		if err := files.Delete(c.UserContext(), middleware.CurrentUser(c).ID, id); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DownloadFile returns a time-limited presigned URL.
//
// @Summary  Presigned download URL
// @Tags     files
// @Produce  json
// @Security BearerAuth
// @Param    id path string true "file id"
// @Success  200 {object} downloadResponse
// @Failure  404 {object} errorPayload
// @Router   /files/{id}/download [get]
func DownloadFile(files service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return respondError(c, err)
		}
		g, err := files.DownloadURL(c.UserContext(), middleware.CurrentUser(c).ID, id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(grantResponse(g))
	}
}

// SetVisibility makes a file public or private.
//
// @Summary  Change visibility
// @Tags     files
// @Accept   json
// @Produce  json
// @Security BearerAuth
// @Param    id   path string            true "file id"
// @Param    body body visibilityRequest true "visibility"
// @Success  200 {object} model.File
// @Router   /files/{id}/visibility [patch]
func SetVisibility(files service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return respondError(c, err)
		}
		var req visibilityRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		f, err := files.SetVisibility(c.UserContext(), middleware.CurrentUser(c).ID, id, *req.IsPublic)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(f)
	}
}

// PublicDownload presigns a public file for anyone.
//
// @Summary  Public download URL
// @Tags     public
// @Produce  json
// @Param    id path string true "file id"
// @Success  200 {object} downloadResponse
// @Failure  404 {object} errorPayload
// @Router   /public/files/{id}/download [get]
func PublicDownload(files service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := idParam(c, "id")
		if err != nil {
			return respondError(c, err)
		}
		g, err := files.PublicDownloadURL(c.UserContext(), id)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(grantResponse(g))
	}
}
