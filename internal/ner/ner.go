// Package ner adapts named-entity-recognition backends to a small, injectable
// interface. Backends are opaque: for a fixed input and model they are expected
// to return the same entities, in model order.
package ner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"jobdash/internal/config"
)

// Category is the coarse entity class the assembler cares about.
type Category string

const (
	Organization Category = "ORGANIZATION"
	Location     Category = "LOCATION"
	Other        Category = "OTHER"
)

// Entity is one grouped (span-merged) entity.
type Entity struct {
	Category Category `json:"category"`
	Text     string   `json:"text"`
	Score    float64  `json:"score,omitempty"`
}

// ErrUnavailable means the model could not be reached or is still loading.
// Callers treat it as "no entities found".
var ErrUnavailable = errors.New("ner model unavailable")

// Extractor finds grouped entities in free text.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]Entity, error)
	Name() string
}

// CategoryFromLabel maps CoNLL-style group labels (ORG, LOC, PER, MISC, B-ORG, ...) to a Category.
func CategoryFromLabel(label string) Category {
	if len(label) > 2 && (label[:2] == "B-" || label[:2] == "I-") {
		label = label[2:]
	}
	switch label {
	case "ORG", "ORGANIZATION":
		return Organization
	case "LOC", "LOCATION", "GPE":
		return Location
	default:
		return Other
	}
}

// None is the extractor used when no model is configured.
type None struct{}

func (None) Name() string { return "none" }

func (None) Extract(context.Context, string) ([]Entity, error) { return []Entity{}, nil }

// New builds the extractor selected by cfg.Backend.
func New(cfg config.NERConfig) (Extractor, error) {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	switch cfg.Backend {
	case "huggingface":
		return NewHuggingFace(httpClient, cfg.HFURL, cfg.Model, cfg.HFToken), nil
	case "ollama":
		return NewOllamaFromEnvironment(cfg.OllamaModel)
	case "none", "":
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown NER backend %q", cfg.Backend)
	}
}
