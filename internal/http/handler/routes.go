package handler

import (
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"jobdash/internal/service"
)

// Deps are the handles the routes need. Gatherer may be nil to skip /metrics.
type Deps struct {
	DB            *sql.DB
	Applications  service.ApplicationService
	AdverseEvents service.AdverseEventService
	Gatherer      prometheus.Gatherer
	Location      *time.Location
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get("/metrics", Metrics(d.Gatherer))
	}

	api := app.Group("/api")

	apps := api.Group("/applications")
	apps.Get("/", ListApplications(d.Applications, d.Location))
	apps.Put("/", SaveApplicationEdits(d.Applications, d.Location))
	apps.Post("/extract", ExtractApplication(d.Applications, d.Location))
	apps.Get("/export", ExportApplications(d.Applications, d.Location))
	apps.Get("/:id/resume", GetResume(d.Applications, d.Location))
	apps.Delete("/:id", DeleteApplication(d.Applications, d.Location))

	api.Get("/drugs", ListDrugs(d.AdverseEvents))
	api.Get("/adverse-events", AdverseEventDashboard(d.AdverseEvents, d.Location))
	api.Get("/adverse-events/export", ExportAdverseEvents(d.AdverseEvents, d.Location))
}
