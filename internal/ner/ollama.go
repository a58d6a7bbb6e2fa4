package ner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// Ollama asks a local LLM for organizations and locations and returns them
// in the same shape a token-classification model would.
type Ollama struct {
	client *api.Client
	model  string
}

// NewOllamaFromEnvironment honours OLLAMA_HOST.
func NewOllamaFromEnvironment(model string) (*Ollama, error) {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama client: %w", err)
	}
	return NewOllama(client, model), nil
}

func NewOllama(client *api.Client, model string) *Ollama {
	if model == "" {
		model = "llama3.2:3b"
	}
	return &Ollama{client: client, model: model}
}

func (o *Ollama) Name() string { return "ollama" }

type ollamaResponse struct {
	Entities []struct {
		Text string `json:"text"`
		Type string `json:"type"`
	} `json:"entities"`
}

const ollamaPrompt = `You are a named entity recognizer for job postings.

List every organization (type "ORG") and location (type "LOC") mentioned in the text,
in the order they first appear. Copy each entity verbatim.

RULES:
1. Output ONLY a valid JSON object with exactly one key: "entities".
2. "entities" is an array of objects with string fields "text" and "type".
3. Do not add explanations.

Text:
%s`

func (o *Ollama) Extract(ctx context.Context, text string) ([]Entity, error) {
	if strings.TrimSpace(text) == "" {
		return []Entity{}, nil
	}

	stream := false
	req := &api.GenerateRequest{
		Model:   o.model,
		Prompt:  fmt.Sprintf(ollamaPrompt, text),
		Format:  json.RawMessage(`"json"`),
		Stream:  &stream,
		Options: map[string]any{"temperature": 0},
	}

	var respText strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		respText.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		if isUnavailable(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, fmt.Errorf("ollama generation failed: %w", err)
	}

	var parsed ollamaResponse
	if err := json.Unmarshal([]byte(cleanJSON(respText.String())), &parsed); err != nil {
		return nil, fmt.Errorf("decode ollama entities: %w", err)
	}

	out := make([]Entity, 0, len(parsed.Entities))
	for _, e := range parsed.Entities {
		t := strings.TrimSpace(e.Text)
		if t == "" {
			continue
		}
		out = append(out, Entity{Category: CategoryFromLabel(strings.ToUpper(e.Type)), Text: t})
	}
	return out, nil
}

func isUnavailable(err error) bool {
	var urlErr *url.Error
	var opErr *net.OpError
	if errors.As(err, &urlErr) || errors.As(err, &opErr) {
		return true
	}
	var statusErr api.StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusServiceUnavailable {
		return true
	}
	return false
}

// cleanJSON strips markdown fences some models add despite JSON mode.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
