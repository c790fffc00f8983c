package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cloudsync/internal/http/middleware"
	"cloudsync/internal/service"
)

// Deps carries everything the routes need.
type Deps struct {
	DB     *sql.DB
	Users  service.UserService
	Files  service.FileService
	Shares service.ShareService
	Gate   service.AccessGate
	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	// The document leaves host and schemes empty, so the UI targets
	// whichever host served it.
	app.Get("/swagger/*", swagger.HandlerDefault)

	requireAuth := middleware.RequireAuth(d.Gate)

	auth := app.Group("/auth")
	auth.Post("/register", Register(d.Users))
	auth.Post("/login", Login(d.Users))
	auth.Get("/me", requireAuth, Me())

	files := app.Group("/files", requireAuth)
	files.Post("/", UploadFile(d.Files))
	files.Get("/", ListFiles(d.Files))
	files.Get("/:id", GetFile(d.Files))
	files.Delete("/:id", DeleteFile(d.Files))
	files.Get("/:id/download", DownloadFile(d.Files))
	files.Patch("/:id/visibility", SetVisibility(d.Files))
	files.Post("/:id/shares", CreateShare(d.Shares))
	files.Get("/:id/shares", ListShares(d.Shares))

	app.Delete("/shares/:id", requireAuth, RevokeShare(d.Shares))

	app.Get("/s/:token", RedeemShare(d.Gate))
	app.Get("/public/files/:id/download", PublicDownload(d.Files))
}
