package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/devdm/interview-platform/internal/interview"
	"github.com/devdm/interview-platform/internal/question"
)

// Config holds connection details for the AI interview service.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client implements question.Generator and question.Evaluator against the
// external AI service.
type Client struct {
	httpClient  *http.Client
	config      Config
	logger      zerolog.Logger
	generateURL string
	evaluateURL string
}

var (
	_ question.Generator = (*Client)(nil)
	_ question.Evaluator = (*Client)(nil)
)

func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	base := strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config:      cfg,
		logger:      logger.With().Str("component", "ai_client").Logger(),
		generateURL: base + "/generate",
		evaluateURL: base + "/evaluate",
	}
}

// Generate requests one new question, seeded with the asked history.
func (c *Client) Generate(ctx context.Context, history []question.Asked) (*question.Generated, error) {
	if c.config.BaseURL == "" {
		return nil, fmt.Errorf("ai service endpoint not configured")
	}

	payload := generateRequest{Questions: history}
	var resp generateResponse
	if err := c.post(ctx, c.generateURL, payload, &resp); err != nil {
		return nil, err
	}

	gen := normalizeQuestion(resp.Question)
	if gen.Text == "" {
		return nil, fmt.Errorf("generator returned empty question")
	}
	return &gen, nil
}

// Evaluate submits the full transcript and returns the holistic verdict.
func (c *Client) Evaluate(ctx context.Context, transcript []question.TranscriptEntry) (*question.Evaluation, error) {
	if c.config.BaseURL == "" {
		return nil, fmt.Errorf("ai service endpoint not configured")
	}

	payload := evaluateRequest{Questions: transcript}
	var resp evaluateResponse
	if err := c.post(ctx, c.evaluateURL, payload, &resp); err != nil {
		return nil, err
	}

	if resp.Summary == "" {
		return nil, fmt.Errorf("evaluator returned empty summary")
	}
	if resp.Score < 0 {
		resp.Score = 0
	}
	if resp.Score > 100 {
		resp.Score = 100
	}
	return &question.Evaluation{Score: resp.Score, Summary: resp.Summary}, nil
}

func (c *Client) post(ctx context.Context, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("ai service returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode ai payload: %w", err)
	}
	return nil
}

func normalizeQuestion(q aiQuestion) question.Generated {
	difficulty := strings.ToLower(q.Difficulty)
	switch difficulty {
	case interview.DifficultyEasy, interview.DifficultyMedium, interview.DifficultyHard:
	default:
		difficulty = interview.DifficultyMedium
	}

	qType := strings.ToLower(q.Type)
	if qType != interview.TypeMCQ {
		qType = interview.TypeOpinion
	}

	options := q.Options
	if qType != interview.TypeMCQ {
		options = nil
	}

	return question.Generated{
		Text:       q.Text,
		Difficulty: difficulty,
		Type:       qType,
		Options:    options,
	}
}

type generateRequest struct {
	Questions []question.Asked `json:"questions"`
}

type aiQuestion struct {
	Text       string   `json:"text"`
	Difficulty string   `json:"difficulty"`
	Type       string   `json:"type"`
	Options    []string `json:"options"`
}

type generateResponse struct {
	Question aiQuestion `json:"question"`
}

type evaluateRequest struct {
	Questions []question.TranscriptEntry `json:"questions"`
}

type evaluateResponse struct {
	Score   int    `json:"score"`
	Summary string `json:"summary"`
}
