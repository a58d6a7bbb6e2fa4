// Package openfda fetches drug adverse-event reports from the public openFDA
// API and aggregates them into the series the dashboard plots.
package openfda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"jobdash/internal/config"
	"jobdash/internal/model"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

var (
	// ErrNetwork covers transport failures, timeouts and unexpected HTTP statuses.
	ErrNetwork = errors.New("failed to connect to the openFDA API")
	// ErrFormat means the response could not be decoded or lacks the fields the
	// analysis needs.
	ErrFormat = errors.New("unexpected response format from openFDA API")
	// ErrInvalidLimit is returned for limits outside 1..MaxLimit.
	ErrInvalidLimit = fmt.Errorf("limit must be between 1 and %d", MaxLimit)
)

// Drugs is the static list offered for selection.
func Drugs() []string {
	return []string{"aspirin", "ibuprofen", "acetaminophen", "metformin", "lisinopril"}
}

// NormalizeLimit maps 0 to DefaultLimit and rejects anything outside 1..MaxLimit.
func NormalizeLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultLimit, nil
	}
	if limit < 1 || limit > MaxLimit {
		return 0, ErrInvalidLimit
	}
	return limit, nil
}

// Fetcher is what the service needs from the API client.
type Fetcher interface {
	Fetch(ctx context.Context, drug string, limit int) ([]model.AdverseEvent, error)
}

type Client struct {
	http    *http.Client
	baseURL string
}

// New builds a traced client from config.
func New(cfg config.OpenFDAConfig) *Client {
	return NewClient(&http.Client{
		Timeout:   time.Duration(cfg.TimeoutSec) * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}, cfg.BaseURL)
}

func NewClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{http: httpClient, baseURL: baseURL}
}

var _ Fetcher = (*Client)(nil)

type envelope struct {
	Results []map[string]any `json:"results"`
}

// Fetch returns up to limit reports mentioning drug, flattened to dotted keys.
// A 404 from the API means no report matched and yields an empty slice.
func (c *Client) Fetch(ctx context.Context, drug string, limit int) ([]model.AdverseEvent, error) {
	limit, err := NormalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("search", "patient.drug.medicinalproduct:"+strings.TrimSpace(drug))
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []model.AdverseEvent{}, nil
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrNetwork, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	events := make([]model.AdverseEvent, 0, len(env.Results))
	for _, r := range env.Results {
		events = append(events, Flatten(r))
	}
	return events, nil
}

// Flatten turns nested objects into dotted keys. Lists are left as they are,
// so "patient.reaction" stays a []any of objects.
func Flatten(record map[string]any) model.AdverseEvent {
	out := model.AdverseEvent{}
	flattenInto(out, "", record)
	return out
}

func flattenInto(out model.AdverseEvent, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok && len(nested) > 0 {
			flattenInto(out, key, nested)
			continue
		}
		out[key] = v
	}
}
