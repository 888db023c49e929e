package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/buger/jsonparser"
	"github.com/go-resty/resty/v2"

	"github.com/silaylearn/silay-api/internal/metrics"
)

const (
	restTemperature     = 0.4
	restMaxOutputTokens = 800
)

type generateTextRequest struct {
	Prompt          promptText `json:"prompt"`
	Temperature     float64    `json:"temperature"`
	MaxOutputTokens int        `json:"maxOutputTokens"`
}

type promptText struct {
	Text string `json:"text"`
}

// GeminiREST calls the generateText endpoint directly over HTTP.
type GeminiREST struct {
	http   *resty.Client
	apiKey string
	model  string
	logger *slog.Logger
}

// NewGeminiREST creates a REST client rooted at baseURL, for example
// https://generativelanguage.googleapis.com/v1.
func NewGeminiREST(baseURL, apiKey, model string, timeout time.Duration, logger *slog.Logger) *GeminiREST {
	return &GeminiREST{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
		apiKey: apiKey,
		model:  model,
		logger: logger,
	}
}

// Generate posts the prompt and extracts the reply text.
func (g *GeminiREST) Generate(ctx context.Context, prompt string) string {
	resp, err := g.http.R().
		SetContext(ctx).
		SetPathParam("model", g.model).
		SetQueryParam("key", g.apiKey).
		SetBody(generateTextRequest{
			Prompt:          promptText{Text: prompt},
			Temperature:     restTemperature,
			MaxOutputTokens: restMaxOutputTokens,
		}).
		Post("/models/{model}:generateText")
	if err != nil {
		g.logger.Error("gemini network error", "transport", "rest", "error", err)
		metrics.ProviderAttempts.WithLabelValues("rest", "network_error").Inc()
		return NetworkErrorReply
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		g.logger.Error("gemini api error",
			"transport", "rest",
			"status", resp.StatusCode(),
			"message", errorMessage(body),
		)
		metrics.ProviderAttempts.WithLabelValues("rest", "http_error").Inc()
		return UnreachableReply
	}

	if !json.Valid(body) {
		g.logger.Error("gemini returned undecodable body", "transport", "rest", "status", resp.StatusCode())
		metrics.ProviderAttempts.WithLabelValues("rest", "network_error").Inc()
		return NetworkErrorReply
	}

	kind, text := classify(body)
	g.logger.Debug("gemini reply parsed", "transport", "rest", "shape", kind.String())
	metrics.ProviderAttempts.WithLabelValues("rest", "ok").Inc()
	return text
}

func errorMessage(body []byte) string {
	msg, err := jsonparser.GetString(body, "error", "message")
	if err != nil || msg == "" {
		return "No message provided."
	}
	return msg
}

// shape names the response layouts the endpoint is known to return.
type shape int

const (
	shapeUnrecognized shape = iota
	shapePartText
	shapeContent
	shapeOutput
)

func (s shape) String() string {
	switch s {
	case shapePartText:
		return "part_text"
	case shapeContent:
		return "content"
	case shapeOutput:
		return "output"
	default:
		return "unrecognized"
	}
}

// classify picks the best reply text out of a decoded 200 body. Anything it
// does not recognize is returned as the raw payload.
func classify(body []byte) (shape, string) {
	raw := string(bytes.TrimSpace(body))

	first, typ, _, err := jsonparser.Get(body, "candidates", "[0]")
	if err != nil || typ != jsonparser.Object {
		return shapeUnrecognized, raw
	}

	content, typ, _, err := jsonparser.Get(first, "content")
	if err == nil && typ == jsonparser.Object {
		part, ptyp, _, perr := jsonparser.Get(content, "parts", "[0]")
		if perr == nil && ptyp != jsonparser.Null {
			if text, ttyp, _, terr := jsonparser.Get(part, "text"); terr == nil {
				return shapePartText, valueText(text, ttyp)
			}
			return shapeContent, string(content)
		}
	}

	if output, otyp, _, oerr := jsonparser.Get(first, "output"); oerr == nil {
		return shapeOutput, valueText(output, otyp)
	}
	return shapeUnrecognized, raw
}

func valueText(v []byte, typ jsonparser.ValueType) string {
	if typ == jsonparser.String {
		if s, err := jsonparser.ParseString(v); err == nil {
			return s
		}
	}
	return string(v)
}
