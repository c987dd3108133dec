// Package api is the HTTP client for the remote quiz backend: question
// retrieval per category, answer submission for authoritative scoring, and
// the category listing.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"quiz-runner/internal/domain"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	timers     domain.TimerDefaults
	log        *zap.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, timers domain.TimerDefaults, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		timers:     timers,
		log:        log,
	}
}

type startResponse struct {
	Category  string               `json:"category"`
	Questions []domain.RawQuestion `json:"questions"`
}

// FetchQuestions retrieves and normalizes the question set for a category
// via GET /quizzes/start.
func (c *Client) FetchQuestions(ctx context.Context, categoryID string) ([]domain.Question, error) {
	endpoint := c.baseURL + "/quizzes/start?category_id=" + url.QueryEscape(categoryID)
	var resp startResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	category := resp.Category
	if category == "" {
		category = categoryID
	}
	return domain.NormalizeQuestions(category, resp.Questions, c.timers, c.log), nil
}

type submitRequest struct {
	CategoryID string                   `json:"category_id"`
	Answers    []domain.SubmittedAnswer `json:"answers"`
}

// SubmitAnswers posts the ordered answer list via POST /quizzes/submit and
// returns the server's authoritative result.
func (c *Client) SubmitAnswers(ctx context.Context, categoryID string, answers []domain.SubmittedAnswer) (domain.SubmissionResult, error) {
	body, err := json.Marshal(submitRequest{CategoryID: categoryID, Answers: answers})
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/quizzes/submit", bytes.NewReader(body))
	if err != nil {
		return domain.SubmissionResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	var result domain.SubmissionResult
	if err := c.do(req, &result); err != nil {
		return domain.SubmissionResult{}, err
	}
	return result, nil
}

// Categories lists the selectable quiz categories via GET /categories.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.getJSON(ctx, c.baseURL+"/categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	c.authorize(req)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("quiz api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrCategoryNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Body content is best-effort context for the log line only.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn("quiz api error response",
			zap.String("url", req.URL.Path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet))
		return fmt.Errorf("quiz api: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("quiz api: decode response: %w", err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
