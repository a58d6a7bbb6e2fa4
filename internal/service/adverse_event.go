package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobdash/internal/applog"
	"jobdash/internal/cache"
	"jobdash/internal/export"
	"jobdash/internal/model"
	"jobdash/internal/openfda"
	"jobdash/internal/storage"
)

var ErrDrugRequired = errors.New("drug is required")

const (
	WarnNetwork = "Failed to connect to the OpenFDA API. Please check your internet connection or try again later."
	WarnFormat  = "Unexpected response format from OpenFDA API."
	WarnNoData  = "No data available for this drug."
	WarnFields  = "Data format changed or missing key fields. Cannot display reactions."
	cachePrefix = "openfda:"
)

// AdverseEventDashboard is the adverse-event view for one drug.
type AdverseEventDashboard struct {
	Drug     string               `json:"drug"`
	Limit    int                  `json:"limit"`
	Columns  []string             `json:"columns"`
	Events   []model.AdverseEvent `json:"events"`
	Summary  *openfda.Summary     `json:"summary,omitempty"`
	Warnings []string             `json:"warnings,omitempty"`
}

type AdverseEventService interface {
	Drugs() []string

	// Dashboard never fails on upstream problems; they become warnings.
	Dashboard(ctx context.Context, drug string, limit int) (*AdverseEventDashboard, error)

	// Export fails with openfda.ErrNetwork or openfda.ErrFormat when nothing could be fetched.
	Export(ctx context.Context, drug string, limit int, format export.Format, archive bool) (*ExportResult, error)
}

type adverseEventService struct {
	fetcher  openfda.Fetcher
	cache    cache.Cache
	ttl      time.Duration
	exporter exporter
	loc      *time.Location
}

// NewAdverseEventService wires the viewer. c and store may be nil.
func NewAdverseEventService(fetcher openfda.Fetcher, c cache.Cache, ttl time.Duration, store storage.Storage, loc *time.Location) AdverseEventService {
	if loc == nil {
		loc = time.UTC
	}
	return &adverseEventService{
		fetcher:  fetcher,
		cache:    c,
		ttl:      ttl,
		exporter: exporter{store: store, now: time.Now},
		loc:      loc,
	}
}

func (s *adverseEventService) Drugs() []string {
	return openfda.Drugs()
}

func validateQuery(drug string, limit int) (string, int, error) {
	drug = strings.TrimSpace(drug)
	if drug == "" {
		return "", 0, ErrDrugRequired
	}
	limit, err := openfda.NormalizeLimit(limit)
	if err != nil {
		return "", 0, err
	}
	return drug, limit, nil
}

func (s *adverseEventService) Dashboard(ctx context.Context, drug string, limit int) (*AdverseEventDashboard, error) {
	drug, limit, err := validateQuery(drug, limit)
	if err != nil {
		return nil, err
	}

	d := &AdverseEventDashboard{Drug: drug, Limit: limit, Columns: []string{}, Events: []model.AdverseEvent{}}
	events, err := s.load(ctx, drug, limit)
	switch {
	case errors.Is(err, openfda.ErrNetwork):
		applog.Warn(s.loc, "openfda", "fetch_failed", err)
		d.Warnings = append(d.Warnings, WarnNetwork)
		return d, nil
	case errors.Is(err, openfda.ErrFormat):
		applog.Warn(s.loc, "openfda", "bad_response", err)
		d.Warnings = append(d.Warnings, WarnFormat)
		return d, nil
	case err != nil:
		return nil, err
	}

	if len(events) == 0 {
		d.Warnings = append(d.Warnings, WarnNoData)
		return d, nil
	}

	d.Events = events
	d.Columns = export.AdverseEventsTable(events).Columns
	summary, err := openfda.Analyze(events)
	if err != nil {
		d.Warnings = append(d.Warnings, WarnFields)
		return d, nil
	}
	d.Summary = summary
	return d, nil
}

func (s *adverseEventService) Export(ctx context.Context, drug string, limit int, format export.Format, archive bool) (*ExportResult, error) {
	drug, limit, err := validateQuery(drug, limit)
	if err != nil {
		return nil, err
	}
	events, err := s.load(ctx, drug, limit)
	if err != nil {
		return nil, err
	}
	return s.exporter.render(ctx, export.AdverseEventsTable(events), format, export.AdverseEventsFile, archive)
}

// load memoizes successful fetches, including empty ones, for the TTL.
// Cache failures are logged and bypassed.
func (s *adverseEventService) load(ctx context.Context, drug string, limit int) ([]model.AdverseEvent, error) {
	key := fmt.Sprintf("%s%s:%d", cachePrefix, strings.ToLower(drug), limit)

	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			applog.Warn(s.loc, "cache", "get_failed", err)
		case ok:
			var events []model.AdverseEvent
			if err := json.Unmarshal(raw, &events); err == nil {
				return events, nil
			}
			applog.Warn(s.loc, "cache", "decode_failed", err)
		}
	}

	events, err := s.fetcher.Fetch(ctx, drug, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		raw, err := json.Marshal(events)
		if err == nil {
			err = s.cache.Set(ctx, key, raw, s.ttl)
		}
		if err != nil {
			applog.Warn(s.loc, "cache", "set_failed", err)
		}
	}
	return events, nil
}
