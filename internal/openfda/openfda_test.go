package openfda

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobdash/internal/config"
	"jobdash/internal/model"
)

const sampleBody = `{
  "meta": {"results": {"total": 2}},
  "results": [
    {
      "receivedate": "20240115",
      "serious": "1",
      "patient": {
        "patientsex": "2",
        "patientonsetage": "45",
        "reaction": [{"reactionmeddrapt": "NAUSEA"}, {"reactionmeddrapt": "HEADACHE"}],
        "drug": [{"medicinalproduct": "ASPIRIN"}]
      }
    },
    {
      "receivedate": "not-a-date",
      "serious": "2",
      "patient": {
        "patientsex": "1",
        "reaction": [{"reactionmeddrapt": "NAUSEA"}, {"reactionoutcome": "1"}]
      }
    }
  ]
}`

func TestClient_Fetch(t *testing.T) {
	var gotSearch, gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSearch = r.URL.Query().Get("search")
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL)
	events, err := c.Fetch(context.Background(), "aspirin", 0)

	require.NoError(t, err)
	assert.Equal(t, "patient.drug.medicinalproduct:aspirin", gotSearch)
	assert.Equal(t, "100", gotLimit)
	require.Len(t, events, 2)
	assert.Equal(t, "20240115", events[0]["receivedate"])
	assert.Equal(t, "2", events[0]["patient.patientsex"])
	assert.Len(t, events[0]["patient.reaction"], 2)
	assert.NotContains(t, events[0], "patient")
	_, hasAge := events[1]["patient.patientonsetage"]
	assert.False(t, hasAge)
}

func TestClient_FetchNotFoundIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"No matches found!"}}`))
	}))
	defer srv.Close()

	events, err := NewClient(srv.Client(), srv.URL).Fetch(context.Background(), "unobtainium", 10)

	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestClient_FetchErrors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewClient(srv.Client(), srv.URL).Fetch(context.Background(), "aspirin", 10)
		assert.ErrorIs(t, err, ErrNetwork)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		base := srv.URL
		srv.Close()

		_, err := NewClient(http.DefaultClient, base).Fetch(context.Background(), "aspirin", 10)
		assert.ErrorIs(t, err, ErrNetwork)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		c := NewClient(&http.Client{Timeout: 20 * time.Millisecond}, srv.URL)
		_, err := c.Fetch(context.Background(), "aspirin", 10)
		assert.ErrorIs(t, err, ErrNetwork)
	})

	t.Run("bad json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>maintenance</html>`))
		}))
		defer srv.Close()

		_, err := NewClient(srv.Client(), srv.URL).Fetch(context.Background(), "aspirin", 10)
		assert.ErrorIs(t, err, ErrFormat)
	})

	t.Run("limit out of range", func(t *testing.T) {
		c := NewClient(http.DefaultClient, "http://unused")
		_, err := c.Fetch(context.Background(), "aspirin", 1001)
		assert.ErrorIs(t, err, ErrInvalidLimit)
		_, err = c.Fetch(context.Background(), "aspirin", -1)
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})
}

func TestNew(t *testing.T) {
	c := New(config.OpenFDAConfig{BaseURL: "https://api.fda.gov/drug/event.json", TimeoutSec: 3})
	assert.Equal(t, 3*time.Second, c.http.Timeout)
	assert.Equal(t, "https://api.fda.gov/drug/event.json", c.baseURL)
}

func TestNormalizeLimit(t *testing.T) {
	n, err := NormalizeLimit(0)
	assert.NoError(t, err)
	assert.Equal(t, DefaultLimit, n)

	n, err = NormalizeLimit(1000)
	assert.NoError(t, err)
	assert.Equal(t, 1000, n)

	_, err = NormalizeLimit(1001)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestDrugs(t *testing.T) {
	assert.Equal(t, []string{"aspirin", "ibuprofen", "acetaminophen", "metformin", "lisinopril"}, Drugs())
}

func TestFlatten(t *testing.T) {
	got := Flatten(map[string]any{
		"a": map[string]any{"b": map[string]any{"c": 1.0}, "d": "x"},
		"e": []any{map[string]any{"f": "g"}},
		"h": nil,
	})

	assert.Equal(t, model.AdverseEvent{
		"a.b.c": 1.0,
		"a.d":   "x",
		"e":     []any{map[string]any{"f": "g"}},
		"h":     nil,
	}, got)
}

func TestAnalyze(t *testing.T) {
	events := []model.AdverseEvent{
		{
			"receivedate":             "20240115",
			"serious":                 "1",
			"patient.patientsex":      "2",
			"patient.patientonsetage": "45",
			"patient.reaction": []any{
				map[string]any{"reactionmeddrapt": "NAUSEA"},
				map[string]any{"reactionmeddrapt": "HEADACHE"},
			},
		},
		{
			"receivedate":             "20240120",
			"serious":                 "1",
			"patient.patientsex":      "2",
			"patient.patientonsetage": 47.0,
			"patient.reaction": []any{
				map[string]any{"reactionmeddrapt": "NAUSEA"},
				map[string]any{"reactionoutcome": "1"},
			},
		},
		{
			"receivedate":        "garbage",
			"serious":            "2",
			"patient.patientsex": "1",
			"patient.reaction":   "not a list",
		},
		{
			"receivedate": "20231201",
		},
	}

	s, err := Analyze(events)
	require.NoError(t, err)

	assert.Equal(t, []model.CountEntry{
		{Label: "NAUSEA", Count: 2},
		{Label: "HEADACHE", Count: 1},
		{Label: "Unknown", Count: 1},
	}, s.TopReactions)
	assert.Equal(t, []model.CountEntry{
		{Label: "2023-12", Count: 1},
		{Label: "2024-01", Count: 2},
	}, s.EventsPerMonth)
	assert.Equal(t, []model.CountEntry{
		{Label: "2", Count: 2},
		{Label: "1", Count: 1},
	}, s.SexDistribution)
	assert.Equal(t, []float64{45, 47}, s.OnsetAges)
	assert.Equal(t, []model.CountEntry{{Label: "40-49", Count: 2}}, s.AgeHistogram)
	assert.Equal(t, map[string][]model.CountEntry{
		"serious": {{Label: "1", Count: 2}, {Label: "2", Count: 1}},
	}, s.Severity)
}

func TestAnalyze_TopReactionsCappedAtTen(t *testing.T) {
	var reactions []any
	for i := 0; i < 12; i++ {
		for j := 0; j <= i; j++ {
			reactions = append(reactions, map[string]any{"reactionmeddrapt": string(rune('A' + i))})
		}
	}
	s, err := Analyze([]model.AdverseEvent{{"patient.reaction": reactions}})

	require.NoError(t, err)
	require.Len(t, s.TopReactions, 10)
	assert.Equal(t, model.CountEntry{Label: "L", Count: 12}, s.TopReactions[0])
	assert.Equal(t, model.CountEntry{Label: "C", Count: 3}, s.TopReactions[9])
	assert.Empty(t, s.EventsPerMonth)
	assert.Nil(t, s.SexDistribution)
	assert.Nil(t, s.Severity)
}

func TestAnalyze_MissingReactions(t *testing.T) {
	_, err := Analyze([]model.AdverseEvent{{"receivedate": "20240101"}})
	assert.ErrorIs(t, err, ErrFormat)

	_, err = Analyze(nil)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestAgeHistogram(t *testing.T) {
	got := ageHistogram([]float64{3, 9.5, 10, 71, 79.9})
	assert.Equal(t, []model.CountEntry{
		{Label: "0-9", Count: 2},
		{Label: "10-19", Count: 1},
		{Label: "70-79", Count: 2},
	}, got)
}
