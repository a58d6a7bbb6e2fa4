package service

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"jobdash/internal/applog"
	"jobdash/internal/export"
	"jobdash/internal/jobparse"
	"jobdash/internal/model"
	"jobdash/internal/ner"
	"jobdash/internal/repository"
	"jobdash/internal/storage"
)

var (
	ErrInvalidID         = errors.New("id must be a positive integer")
	ErrNotFound          = errors.New("application not found")
	ErrResumeNotFound    = errors.New("no resume stored for this application")
	ErrInvalidResumeType = errors.New("resume must be a .pdf, .doc or .docx file")
	ErrExtractionFailed  = errors.New("entity extraction failed")
)

const (
	MsgSaved   = "Job details saved successfully!"
	MsgEdited  = "Edits saved successfully!"
	MsgDeleted = "Job entry deleted successfully!"
)

var resumeExtensions = map[string]struct{}{".pdf": {}, ".doc": {}, ".docx": {}}

// ExtractForm is the "Extract and Save" input.
type ExtractForm struct {
	Description    string
	Resume         []byte
	ResumeFilename string
}

// ApplicationRow is a stored application as shown in the table.
type ApplicationRow struct {
	model.JobApplication
	ResumeLink string `json:"resume_link,omitempty"`
}

// DeleteOption is one entry of the delete selector.
type DeleteOption struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// ApplicationDashboard is the full view after any command. It is rebuilt from
// the store every time.
type ApplicationDashboard struct {
	Rows          []ApplicationRow      `json:"rows"`
	DeleteOptions []DeleteOption        `json:"delete_options"`
	Extracted     *model.JobApplication `json:"extracted,omitempty"`
	Message       string                `json:"message,omitempty"`
	Warnings      []string              `json:"warnings,omitempty"`
}

// ResumeFile is a stored resume re-exposed as base64.
type ResumeFile struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	Data     string `json:"data"`
}

// ApplicationService holds the job tracker commands. Every mutating command
// returns a freshly read dashboard.
type ApplicationService interface {
	Dashboard(ctx context.Context) (*ApplicationDashboard, error)

	// ExtractAndSave runs the extractor and heuristics over the description,
	// stores the assembled record and returns it in Extracted.
	ExtractAndSave(ctx context.Context, form ExtractForm) (*ApplicationDashboard, error)

	// SaveEdits overwrites the text fields of every given row by id.
	SaveEdits(ctx context.Context, edits []model.JobApplication) (*ApplicationDashboard, error)

	Delete(ctx context.Context, id int64) (*ApplicationDashboard, error)

	Resume(ctx context.Context, id int64) (*ResumeFile, error)

	Export(ctx context.Context, format export.Format, archive bool) (*ExportResult, error)
}

type applicationService struct {
	repo      repository.ApplicationRepository
	extractor ner.Extractor
	exporter  exporter
	loc       *time.Location
	now       func() time.Time
}

// NewApplicationService wires the tracker. store may be nil when archiving is disabled.
func NewApplicationService(repo repository.ApplicationRepository, extractor ner.Extractor, store storage.Storage, loc *time.Location) ApplicationService {
	if loc == nil {
		loc = time.UTC
	}
	return &applicationService{
		repo:      repo,
		extractor: extractor,
		exporter:  exporter{store: store, now: time.Now},
		loc:       loc,
		now:       time.Now,
	}
}

// ResumeLink is the API path serving the resume of id.
func ResumeLink(id int64) string {
	return "/api/applications/" + strconv.FormatInt(id, 10) + "/resume"
}

// DeleteLabel renders the selector text for an application.
func DeleteLabel(a model.JobApplication) string {
	return fmt.Sprintf("ID %d: %s - %s", a.ID, a.JobTitle, a.Company)
}

func (s *applicationService) Dashboard(ctx context.Context) (*ApplicationDashboard, error) {
	apps, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	d := &ApplicationDashboard{
		Rows:          make([]ApplicationRow, 0, len(apps)),
		DeleteOptions: make([]DeleteOption, 0, len(apps)),
	}
	for _, a := range apps {
		row := ApplicationRow{JobApplication: a}
		if a.HasResume {
			row.ResumeLink = ResumeLink(a.ID)
		}
		d.Rows = append(d.Rows, row)
		d.DeleteOptions = append(d.DeleteOptions, DeleteOption{ID: a.ID, Label: DeleteLabel(a)})
	}
	return d, nil
}

func (s *applicationService) ExtractAndSave(ctx context.Context, form ExtractForm) (*ApplicationDashboard, error) {
	if len(form.Resume) > 0 {
		if _, ok := resumeExtensions[strings.ToLower(filepath.Ext(form.ResumeFilename))]; !ok {
			return nil, ErrInvalidResumeType
		}
	}

	var warnings []string
	entities, err := s.extractor.Extract(ctx, form.Description)
	if err != nil {
		if !errors.Is(err, ner.ErrUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
		}
		applog.Warn(s.loc, "service", "ner_unavailable", err)
		warnings = append(warnings, "Entity model unavailable; company and location were left empty.")
		entities = nil
	}

	app := jobparse.Assemble(entities, jobparse.Heuristics(form.Description), form.Resume, s.now().In(s.loc))
	id, err := s.repo.Create(ctx, &app)
	if err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}
	app.ID = id

	d, err := s.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	extracted := app
	extracted.Resume = nil
	d.Extracted = &extracted
	d.Message = MsgSaved
	d.Warnings = warnings
	return d, nil
}

func (s *applicationService) SaveEdits(ctx context.Context, edits []model.JobApplication) (*ApplicationDashboard, error) {
	for i := range edits {
		if edits[i].ID <= 0 {
			return nil, ErrInvalidID
		}
	}
	for i := range edits {
		if err := s.repo.Update(ctx, &edits[i]); err != nil {
			return nil, fmt.Errorf("update application %d: %w", edits[i].ID, err)
		}
	}

	d, err := s.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	d.Message = MsgEdited
	return d, nil
}

func (s *applicationService) Delete(ctx context.Context, id int64) (*ApplicationDashboard, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete application %d: %w", id, err)
	}

	d, err := s.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	d.Message = MsgDeleted
	return d, nil
}

func (s *applicationService) Resume(ctx context.Context, id int64) (*ResumeFile, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if app.Resume == nil {
		return nil, ErrResumeNotFound
	}
	return &ResumeFile{
		ID:       id,
		FileName: fmt.Sprintf("resume_%d", id),
		Data:     base64.StdEncoding.EncodeToString(app.Resume),
	}, nil
}

func (s *applicationService) Export(ctx context.Context, format export.Format, archive bool) (*ExportResult, error) {
	apps, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return s.exporter.render(ctx, export.ApplicationsTable(apps), format, export.ApplicationsFile, archive)
}
