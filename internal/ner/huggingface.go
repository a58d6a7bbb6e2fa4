package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// HuggingFace calls a token-classification inference endpoint with
// aggregation enabled, so sub-word tokens come back merged into spans.
type HuggingFace struct {
	client  *http.Client
	baseURL string
	model   string
	token   string
}

func NewHuggingFace(client *http.Client, baseURL, model, token string) *HuggingFace {
	if client == nil {
		client = http.DefaultClient
	}
	return &HuggingFace{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		token:   token,
	}
}

func (h *HuggingFace) Name() string { return "huggingface" }

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	AggregationStrategy string `json:"aggregation_strategy"`
}

type hfEntity struct {
	EntityGroup string  `json:"entity_group"`
	Word        string  `json:"word"`
	Score       float64 `json:"score"`
}

func (h *HuggingFace) Extract(ctx context.Context, text string) ([]Entity, error) {
	if strings.TrimSpace(text) == "" {
		return []Entity{}, nil
	}

	body, err := json.Marshal(hfRequest{
		Inputs:     text,
		Parameters: hfParameters{AggregationStrategy: "simple"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal ner request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/"+h.model, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ner request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: model is loading", ErrUnavailable)
	case http.StatusUnauthorized, http.StatusForbidden:
		// hosted inference without a usable token
		return nil, fmt.Errorf("%w: ner HTTP %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ner HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var raw []hfEntity
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode ner response: %w", err)
	}

	out := make([]Entity, 0, len(raw))
	for _, e := range raw {
		word := strings.TrimSpace(e.Word)
		if word == "" {
			continue
		}
		out = append(out, Entity{
			Category: CategoryFromLabel(e.EntityGroup),
			Text:     word,
			Score:    e.Score,
		})
	}
	return out, nil
}
