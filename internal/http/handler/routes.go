package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"blobapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers are thin: parsing, dispatch to the service, response shaping.
func RegisterRoutes(app *fiber.App, objSvc service.ObjectService) {
	// Serve OpenAPI spec and a minimal docs page
	app.Get("/openapi.yaml", func(c *fiber.Ctx) error {
		c.Type("yaml")
		return c.SendFile("openapi.yaml")
	})
	app.Get("/docs", func(c *fiber.Ctx) error {
		html := `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>API Docs</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.ui = SwaggerUIBundle({
      url: '/openapi.yaml',
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis],
      layout: 'BaseLayout'
    });
  </script>
</body>
</html>`
		return c.Type("html").SendString(html)
	})

	app.Get("/health", HealthCheck(objSvc))
	app.Get("/healthz", LivenessProbe())

	app.Get("/objects", ListObjects(objSvc))
	app.Post("/objects", UploadObject(objSvc))
	// HEAD must register before GET: fiber's Get also adds a HEAD route for
	// the same path, which would shadow the stat handler.
	app.Head("/objects/+", StatObject(objSvc))
	app.Get("/objects/+", DownloadObject(objSvc))
	app.Delete("/objects/+", DeleteObject(objSvc))

	app.Post("/copy", CopyObject(objSvc))

	app.Get("/presign/download", PresignDownload(objSvc))
	app.Get("/presign/upload", PresignUpload(objSvc))
}

// HealthCheck verifies the storage backend is reachable via a minimal listing.
func HealthCheck(objSvc service.ObjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if _, err := objSvc.List(ctx, "", 1); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness check with no dependencies.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// ListObjects returns objects under an optional prefix.
func ListObjects(objSvc service.ObjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		prefix := c.Query("prefix", "")
		limitStr := c.Query("limit", "100")
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}

		res, err := objSvc.List(c.UserContext(), prefix, limit)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadObject accepts multipart/form-data with field "file" and an
// optional "key" field; without a key the service derives one.
func UploadObject(objSvc service.ObjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		obj, err := objSvc.Upload(c.UserContext(), c.FormValue("key"), f, service.UploadOptions{
			Size:        fh.Size,
			ContentType: ct,
			Filename:    fh.Filename,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(obj)
	}
}

// DownloadObject streams object content.
func DownloadObject(objSvc service.ObjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := wildcardKey(c)
		rc, obj, err := objSvc.Download(c.UserContext(), key)
		if err != nil {
			return writeServiceError(c, err)
		}

		if obj.ContentType != "" {
			c.Set(fiber.HeaderContentType, obj.ContentType)
		}
		if obj.ETag != "" {
			c.Set(fiber.HeaderETag, obj.ETag)
		}
		return c.SendStream(rc, int(obj.Size))
	}
}

// StatObject answers HEAD requests with object metadata in headers.
func StatObject(objSvc service.ObjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := wildcardKey(c)
		obj, err := objSvc.Stat(c.UserContext(), key)
		if err != nil {
			return writeServiceError(c, err)
		}

		if obj.ContentType != "" {
			c.Set(fiber.HeaderContentType, obj.ContentType)
		}
		if obj.ETag != "" {
			c.Set(fiber.HeaderETag, obj.ETag)
		}
		c.Set(fiber.HeaderContentLength, strconv.FormatInt(obj.Size, 10))
		c.Set(fiber.HeaderLastModified, obj.LastModified.UTC().Format(http.TimeFormat))
		return c.SendStatus(fiber.StatusOK)
	}
}

// DeleteObject removes an object by key.
func DeleteObject(objSvc service.ObjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := wildcardKey(c)
		if err := objSvc.Delete(c.UserContext(), key); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type copyRequest struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

// CopyObject duplicates an object server-side.
func CopyObject(objSvc service.ObjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req copyRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		obj, err := objSvc.Copy(c.UserContext(), req.Src, req.Dst)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(obj)
	}
}

// PresignDownload returns a time-limited download URL for a key. The
// "expires" query parameter may be a bare number (unit inferred from
// magnitude) or a date string; when absent the service applies its
// one-hour default.
func PresignDownload(objSvc service.ObjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := objSvc.PresignDownload(c.UserContext(), c.Query("key"), parseExpiresParam(c.Query("expires")))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// PresignUpload returns a time-limited upload URL for a key.
func PresignUpload(objSvc service.ObjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := objSvc.PresignUpload(c.UserContext(), c.Query("key"), parseExpiresParam(c.Query("expires")))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// parseExpiresParam keeps the numeric-first dispatch priority: a value that
// parses as a number is classified by magnitude; anything else flows into
// the normalizer as a date string. Empty means "absent" and selects the
// service-side default.
func parseExpiresParam(raw string) any {
	if raw == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// wildcardKey extracts and decodes the key matched by a "/objects/+" route.
func wildcardKey(c *fiber.Ctx) string {
	raw := c.Params("+")
	if key, err := url.PathUnescape(raw); err == nil {
		return key
	}
	return raw
}
