// Package llm generates per-slide coaching analysis with Azure OpenAI.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"presentation-coach/internal/config"
	"presentation-coach/internal/models"

	"github.com/charmbracelet/log"
)

// ErrNotConfigured is returned when Azure OpenAI credentials are absent.
var ErrNotConfigured = errors.New("azure openai is not configured")

// InvalidJSONError means the model replied but its output was not the
// requested JSON array. Raw carries the unmodified model output so the REST
// layer can include it in the 500 diagnostic payload.
type InvalidJSONError struct {
	Raw string
	Err error
}

func (e *InvalidJSONError) Error() string {
	return fmt.Sprintf("model returned invalid JSON: %v", e.Err)
}

func (e *InvalidJSONError) Unwrap() error { return e.Err }

// Analyzer produces coaching analysis for a slide deck.
type Analyzer interface {
	Analyze(ctx context.Context, slides []models.Slide) ([]models.AnalysisEntry, error)
}

// Client calls the Azure OpenAI chat-completions API.
type Client struct {
	cfg        config.AzureOpenAIConfig
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates an analyzer over the given Azure OpenAI deployment.
func NewClient(cfg config.AzureOpenAIConfig, logger *log.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     logger.With("component", "llm"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze asks the model for one AnalysisEntry per slide. No retry and no
// timeout of its own; cancellation comes from the caller's context.
func (c *Client) Analyze(ctx context.Context, slides []models.Slide) ([]models.AnalysisEntry, error) {
	if c.cfg.Key == "" || c.cfg.Endpoint == "" || c.cfg.Deployment == "" {
		return nil, ErrNotConfigured
	}

	prompt := buildPrompt(slides)
	c.logger.Info("requesting analysis", "slides", len(slides), "prompt_chars", len(prompt))

	payload := chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are a concise and structured presentation analysis assistant."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   800,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%sopenai/deployments/%s/chat/completions?api-version=%s",
		c.cfg.Endpoint, c.cfg.Deployment, c.cfg.APIVersion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.Key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("azure openai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("azure openai returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse azure openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("no choices in azure openai response")
	}

	raw := strings.TrimSpace(parsed.Choices[0].Message.Content)
	entries, err := parseAnalysis(raw)
	if err != nil {
		c.logger.Error("model output was not valid JSON", "err", err)
		return nil, &InvalidJSONError{Raw: raw, Err: err}
	}

	c.logger.Info("analysis complete", "entries", len(entries))
	return entries, nil
}

var fencedBlock = regexp.MustCompile("(?is)```(?:json)?(.*?)```")

// parseAnalysis decodes the JSON array, tolerating markdown code fences the
// model sometimes adds. When the output as a whole is not valid JSON, the
// first fenced block is tried, which also covers models that wrap the fence
// in commentary.
func parseAnalysis(raw string) ([]models.AnalysisEntry, error) {
	entries, err := decodeEntries(raw)
	if err == nil {
		return entries, nil
	}

	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		if entries, fencedErr := decodeEntries(m[1]); fencedErr == nil {
			return entries, nil
		}
	}

	return nil, err
}

func decodeEntries(raw string) ([]models.AnalysisEntry, error) {
	var entries []models.AnalysisEntry
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func buildPrompt(slides []models.Slide) string {
	var sb strings.Builder
	for i, slide := range slides {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Slide %d (slideIndex=%d)\nTitle: %s\nContent: %s", i, i, slide.Title, slide.Content)
	}

	return fmt.Sprintf(`You are an expert presentation coach.

Analyze the following slides and return a JSON array.
Each element of the array should have:

- "slideIndex": the 0-based slide index (integer)
- "importance": one of "low", "medium", or "high"
- "expectedTimeSeconds": integer between 20 and 120
- "speakerNotes": 2-4 helpful sentences with guidance on how to present the slide
- "keyPoints": an array of 1-3 short bullet phrases (strings)
- "speakingScript": a short paragraph (3-6 sentences) that the presenter could almost read word-for-word while on this slide
- "transitionToNext": 1-2 sentences that smoothly connect this slide to the next slide. If this is the last slide, write a closing line instead.

Slides:
%s

Return ONLY valid JSON (a JSON array). Do not include any extra commentary or text, no markdown, and no code fences.`, sb.String())
}
