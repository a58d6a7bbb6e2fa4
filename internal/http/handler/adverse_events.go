package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"jobdash/internal/export"
	"jobdash/internal/service"
)

func parseLimit(c *fiber.Ctx) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ListDrugs returns the drugs offered for selection.
//
// @Summary  Drug list
// @Tags     adverse-events
// @Produce  json
// @Success  200 {object} map[string][]string
// @Router   /api/drugs [get]
func ListDrugs(svc service.AdverseEventService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"drugs": svc.Drugs()})
	}
}

// AdverseEventDashboard fetches and aggregates reports for one drug. Upstream
// failures come back as warnings with a 200.
//
// @Summary  Adverse-event dashboard
// @Tags     adverse-events
// @Produce  json
// @Param    drug  query string true  "Drug name"
// @Param    limit query int    false "Number of reports (1-1000)" default(100)
// @Success  200 {object} service.AdverseEventDashboard
// @Failure  400 {object} errorPayload
// @Router   /api/adverse-events [get]
func AdverseEventDashboard(svc service.AdverseEventService, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, ok := parseLimit(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		d, err := svc.Dashboard(c.UserContext(), c.Query("drug"), limit)
		if err != nil {
			return writeServiceError(c, loc, err)
		}
		return c.JSON(d)
	}
}

// ExportAdverseEvents downloads the fetched reports.
//
// @Summary  Export adverse events
// @Tags     adverse-events
// @Produce  octet-stream
// @Param    drug    query string true  "Drug name"
// @Param    limit   query int    false "Number of reports (1-1000)" default(100)
// @Param    format  query string false "csv, json or xlsx" default(csv)
// @Param    archive query bool   false "upload to object storage and return a link"
// @Success  200
// @Failure  400 {object} errorPayload
// @Failure  502 {object} errorPayload
// @Router   /api/adverse-events/export [get]
func ExportAdverseEvents(svc service.AdverseEventService, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, ok := parseLimit(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		format, err := export.ParseFormat(c.Query("format", string(export.CSV)))
		if err != nil {
			return writeServiceError(c, loc, err)
		}
		res, err := svc.Export(c.UserContext(), c.Query("drug"), limit, format, c.QueryBool("archive", false))
		if err != nil {
			return writeServiceError(c, loc, err)
		}
		return sendExport(c, res)
	}
}
