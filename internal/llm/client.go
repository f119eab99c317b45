package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	defaultMaxRetries = 3
	defaultInitDelay  = 2 * time.Second
	defaultMaxTokens  = 1024
)

// Client calls a messages-style chat completion API and parses the model's
// JSON reply into a JournalAnalysis.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	logger  *slog.Logger
}

func NewClient(baseURL, apiKey, model string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	System    string        `json:"system,omitempty"`
	Messages  []chatMessage `json:"messages"`
}

type chatResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// wireAnalysis mirrors JournalAnalysis but keeps XP as float64 so non-finite
// values can be rejected before integer conversion.
type wireAnalysis struct {
	Summary     string   `json:"summary"`
	Synopsis    string   `json:"synopsis"`
	Title       string   `json:"title"`
	ContentTags []string `json:"content_tags"`
	ToneTags    []string `json:"tone_tags"`
	StatTags    []struct {
		Stat string  `json:"stat"`
		XP   float64 `json:"xp"`
	} `json:"stat_tags"`
}

func (c *Client) AnalyzeJournal(ctx context.Context, req AnalyzeRequest) (*JournalAnalysis, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("llm api key not set")
	}

	payload := chatRequest{
		Model:     c.model,
		MaxTokens: defaultMaxTokens,
		System:    systemPrompt(req),
		Messages:  []chatMessage{{Role: "user", Content: userPrompt(req)}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < defaultMaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt))) * defaultInitDelay
			c.logger.Debug("retrying analyzer call", "attempt", attempt, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("x-api-key", c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("analyzer request: %w", err)
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("analyzer API error (%d): %s", resp.StatusCode, string(respBody))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return nil, lastErr
		}

		var apiResp chatResponse
		if err := json.Unmarshal(respBody, &apiResp); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		if len(apiResp.Content) == 0 {
			return nil, fmt.Errorf("empty response content")
		}

		return parseAnalysis(apiResp.Content[0].Text)
	}

	return nil, fmt.Errorf("analyzer call failed after %d attempts: %w", defaultMaxRetries, lastErr)
}

// parseAnalysis decodes the model's JSON text, tolerating a fenced code block
// around it, and rejects structurally invalid output.
func parseAnalysis(text string) (*JournalAnalysis, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var w wireAnalysis
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return nil, fmt.Errorf("malformed analysis JSON: %w", err)
	}
	if w.Summary == "" {
		return nil, fmt.Errorf("analysis missing summary")
	}

	out := &JournalAnalysis{
		Summary:     w.Summary,
		Synopsis:    w.Synopsis,
		Title:       w.Title,
		ContentTags: w.ContentTags,
		ToneTags:    w.ToneTags,
	}
	for _, st := range w.StatTags {
		if math.IsNaN(st.XP) || math.IsInf(st.XP, 0) {
			return nil, fmt.Errorf("non-finite xp for stat %q", st.Stat)
		}
		if st.XP != math.Trunc(st.XP) {
			return nil, fmt.Errorf("non-integer xp %v for stat %q", st.XP, st.Stat)
		}
		out.StatTags = append(out.StatTags, StatTag{Stat: st.Stat, XP: int(st.XP)})
	}
	return out, nil
}

func systemPrompt(req AnalyzeRequest) string {
	var b strings.Builder
	b.WriteString("You analyze a personal journal entry and reply with a single JSON object, no prose.\n")
	b.WriteString(`Schema: {"summary": string, "synopsis": string, "title": string, "content_tags": [string], "tone_tags": [string], "stat_tags": [{"stat": string, "xp": int}]}` + "\n")
	fmt.Fprintf(&b, "tone_tags: at most %d, chosen only from: %s.\n", req.MaxToneTags, strings.Join(req.ToneVocabulary, ", "))
	fmt.Fprintf(&b, "stat_tags: stats only from: %s. xp is a signed integer; negative means regression.\n", strings.Join(req.ValidStats, ", "))
	b.WriteString("content_tags: open vocabulary, prefer short reusable tags.")
	return b.String()
}

func userPrompt(req AnalyzeRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Journal entry for %s.\n\n", req.Date)
	fmt.Fprintf(&b, "Initial entry:\n%s\n", req.InitialMessage)
	for _, t := range req.Turns {
		fmt.Fprintf(&b, "\n[%s]\n%s\n", t.Role, t.Content)
	}
	return b.String()
}
