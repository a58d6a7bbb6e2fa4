package handler

import (
	"io"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"jobdash/internal/export"
	"jobdash/internal/model"
	"jobdash/internal/service"
)

func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ListApplications returns the tracker dashboard.
//
// @Summary  List tracked job applications
// @Tags     applications
// @Produce  json
// @Success  200 {object} service.ApplicationDashboard
// @Router   /api/applications [get]
func ListApplications(svc service.ApplicationService, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		d, err := svc.Dashboard(c.UserContext())
		if err != nil {
			return writeServiceError(c, loc, err)
		}
		return c.JSON(d)
	}
}

// ExtractApplication reads a pasted description and an optional resume file,
// extracts the job fields and stores them.
//
// @Summary  Extract and save job details
// @Tags     applications
// @Accept   multipart/form-data
// @Produce  json
// @Param    description formData string false "Job description text"
// @Param    resume      formData file   false "Resume (.pdf, .doc, .docx)"
// @Success  201 {object} service.ApplicationDashboard
// @Failure  400 {object} errorPayload
// @Failure  502 {object} errorPayload
// @Router   /api/applications/extract [post]
func ExtractApplication(svc service.ApplicationService, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form := service.ExtractForm{Description: c.FormValue("description")}

		// the resume is optional; a missing file or a non-multipart body means none
		if fh, err := c.FormFile("resume"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
			}
			defer f.Close()
			data, err := io.ReadAll(f)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot read uploaded file")
			}
			form.Resume = data
			form.ResumeFilename = fh.Filename
		}

		d, err := svc.ExtractAndSave(c.UserContext(), form)
		if err != nil {
			return writeServiceError(c, loc, err)
		}
		return c.Status(fiber.StatusCreated).JSON(d)
	}
}

// SaveApplicationEdits overwrites every submitted row by id.
//
// @Summary  Save edits
// @Tags     applications
// @Accept   json
// @Produce  json
// @Param    rows body []model.JobApplication true "Edited rows"
// @Success  200 {object} service.ApplicationDashboard
// @Failure  400 {object} errorPayload
// @Router   /api/applications [put]
func SaveApplicationEdits(svc service.ApplicationService, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var edits []model.JobApplication
		if err := c.BodyParser(&edits); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be a JSON array of applications")
		}
		d, err := svc.SaveEdits(c.UserContext(), edits)
		if err != nil {
			return writeServiceError(c, loc, err)
		}
		return c.JSON(d)
	}
}

// DeleteApplication removes one row. Unknown ids succeed silently.
//
// @Summary  Delete a job entry
// @Tags     applications
// @Produce  json
// @Param    id path int true "Application ID"
// @Success  200 {object} service.ApplicationDashboard
// @Failure  400 {object} errorPayload
// @Router   /api/applications/{id} [delete]
func DeleteApplication(svc service.ApplicationService, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id")
		}
		d, err := svc.Delete(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, loc, err)
		}
		return c.JSON(d)
	}
}

// GetResume returns the stored resume base64-encoded.
//
// @Summary  Download resume
// @Tags     applications
// @Produce  json
// @Param    id path int true "Application ID"
// @Success  200 {object} service.ResumeFile
// @Failure  404 {object} errorPayload
// @Router   /api/applications/{id}/resume [get]
func GetResume(svc service.ApplicationService, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := parseID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id")
		}
		f, err := svc.Resume(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, loc, err)
		}
		return c.JSON(f)
	}
}

// ExportApplications downloads the table as csv, json or xlsx.
//
// @Summary  Export applications
// @Tags     applications
// @Produce  octet-stream
// @Param    format  query string false "csv, json or xlsx" default(csv)
// @Param    archive query bool   false "upload to object storage and return a link"
// @Success  200
// @Failure  400 {object} errorPayload
// @Router   /api/applications/export [get]
func ExportApplications(svc service.ApplicationService, loc *time.Location) fiber.Handler {
	return func(c *fiber.Ctx) error {
		format, err := export.ParseFormat(c.Query("format", string(export.CSV)))
		if err != nil {
			return writeServiceError(c, loc, err)
		}
		res, err := svc.Export(c.UserContext(), format, c.QueryBool("archive", false))
		if err != nil {
			return writeServiceError(c, loc, err)
		}
		return sendExport(c, res)
	}
}

// sendExport streams inline exports as attachments and returns archived ones as JSON.
func sendExport(c *fiber.Ctx, res *service.ExportResult) error {
	if res.Archived() {
		return c.JSON(res)
	}
	c.Attachment(res.FileName)
	c.Set(fiber.HeaderContentType, res.ContentType)
	return c.Send(res.Data)
}
