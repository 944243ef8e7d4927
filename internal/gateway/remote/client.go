// Package remote implements gateway.Gateway over the backend's JSON HTTP API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/arcana/internal/domain"
	"github.com/phrazzld/arcana/internal/gateway"
)

// maxErrorBody bounds how much of an error response is kept for logging.
const maxErrorBody = 512

// TokenSource returns the bearer token for a request. An empty token sends
// the request unauthenticated.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken returns a TokenSource that always yields token.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) { return token, nil }
}

// Client is a gateway.Gateway backed by HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      TokenSource
	logger     *slog.Logger
}

var _ gateway.Gateway = (*Client)(nil)

// NewClient creates a client for the backend at baseURL. A nil httpClient
// uses a client with a 30 second timeout.
func NewClient(httpClient *http.Client, baseURL string, token TokenSource, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if token == nil {
		token = StaticToken("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		logger:     logger.With("component", "gateway_remote"),
	}
}

type drawRequest struct {
	Count int `json:"count"`
}

type cardsResponse struct {
	Cards json.RawMessage `json:"cards"`
}

type journalsResponse struct {
	Journals []domain.JournalEntry `json:"journals"`
}

// ListCatalog implements gateway.ReadingGateway.
func (c *Client) ListCatalog(ctx context.Context) ([]domain.Card, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/cards", nil)
	if err != nil {
		return nil, err
	}
	var cards []domain.Card
	if err := decodeList(raw, &cards); err != nil {
		return nil, err
	}
	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return nil, malformed(fmt.Errorf("card %q: %w", card.ID, err))
		}
	}
	return cards, nil
}

// DrawRandom implements gateway.ReadingGateway.
func (c *Client) DrawRandom(ctx context.Context, count int) ([]domain.DrawnCard, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/draws", drawRequest{Count: count})
	if err != nil {
		return nil, err
	}
	var cards []domain.DrawnCard
	if err := decodeList(raw, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

// CreateReading implements gateway.ReadingGateway.
func (c *Client) CreateReading(ctx context.Context, req gateway.ReadingRequest) (gateway.ReadingResult, error) {
	return c.createReading(ctx, "/api/readings", req)
}

// CreateAIReading implements gateway.ReadingGateway.
func (c *Client) CreateAIReading(ctx context.Context, req gateway.ReadingRequest) (gateway.ReadingResult, error) {
	return c.createReading(ctx, "/api/readings/ai", req)
}

func (c *Client) createReading(ctx context.Context, path string, req gateway.ReadingRequest) (gateway.ReadingResult, error) {
	raw, err := c.do(ctx, http.MethodPost, path, req)
	if err != nil {
		return gateway.ReadingResult{}, err
	}
	result, err := gateway.NormalizeReadingResult(raw)
	if err != nil {
		return gateway.ReadingResult{}, fmt.Errorf("%w: %w", domain.ErrNetwork, err)
	}
	return result, nil
}

// SaveReading implements gateway.ReadingGateway.
func (c *Client) SaveReading(ctx context.Context, readingID uuid.UUID) error {
	_, err := c.do(ctx, http.MethodPost, "/api/readings/"+readingID.String()+"/save", nil)
	return err
}

// FetchJournal implements gateway.JournalGateway.
func (c *Client) FetchJournal(ctx context.Context, id uuid.UUID) (domain.JournalEntry, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/journals/"+id.String(), nil)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	return decodeJournal(raw)
}

// ListJournals implements gateway.JournalGateway.
func (c *Client) ListJournals(ctx context.Context, filter domain.JournalFilter) ([]domain.JournalEntry, error) {
	q := url.Values{}
	if filter.ReadingID != nil {
		q.Set("reading_id", filter.ReadingID.String())
	}
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		q.Set("offset", strconv.Itoa(filter.Offset))
	}
	path := "/api/journals"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	raw, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var resp journalsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, malformed(err)
	}
	if resp.Journals == nil {
		resp.Journals = []domain.JournalEntry{}
	}
	return resp.Journals, nil
}

// CreateJournal implements gateway.JournalGateway.
func (c *Client) CreateJournal(ctx context.Context, in domain.JournalInput) (domain.JournalEntry, error) {
	raw, err := c.do(ctx, http.MethodPost, "/api/journals", in)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	return decodeJournal(raw)
}

// UpdateJournal implements gateway.JournalGateway.
func (c *Client) UpdateJournal(ctx context.Context, id uuid.UUID, in domain.JournalInput) (domain.JournalEntry, error) {
	raw, err := c.do(ctx, http.MethodPut, "/api/journals/"+id.String(), in)
	if err != nil {
		return domain.JournalEntry{}, err
	}
	return decodeJournal(raw)
}

// DeleteJournal implements gateway.JournalGateway.
func (c *Client) DeleteJournal(ctx context.Context, id uuid.UUID) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/journals/"+id.String(), nil)
	return err
}

// do sends a JSON request and returns the body of a 2xx response. Failures
// are mapped onto the domain error taxonomy by statusError.
func (c *Client) do(ctx context.Context, method, path string, in any) (json.RawMessage, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrAuthExpired, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s %s: %w", domain.ErrNetwork, method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", domain.ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := statusError(resp.StatusCode, respBody)
		c.logger.WarnContext(ctx, "backend request failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"error", err)
		return nil, err
	}
	return respBody, nil
}

// errorResponse is the error body written by the backend API.
type errorResponse struct {
	Error string `json:"error"`
}

// statusError maps a non-2xx status onto the domain error taxonomy.
func statusError(status int, body []byte) error {
	msg := http.StatusText(status)
	body = bytes.TrimSpace(body)
	var er errorResponse
	if json.Unmarshal(body, &er) == nil {
		if er.Error != "" {
			msg = er.Error
		}
	} else if len(body) > 0 {
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		msg = strings.TrimSpace(string(body))
	}

	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", domain.ErrAuthExpired, msg)
	case status == http.StatusNotFound || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", gateway.ErrNotFound, msg)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", domain.ErrValidation, msg)
	case status == http.StatusConflict:
		return fmt.Errorf("%w: %s", domain.ErrInsufficientCatalog, msg)
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500:
		return fmt.Errorf("%w: status %d: %s", domain.ErrNetwork, status, msg)
	default:
		return fmt.Errorf("unexpected status %d: %s", status, msg)
	}
}

// decodeList accepts either a bare JSON array or {"cards": [...]}.
func decodeList(raw json.RawMessage, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapped cardsResponse
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return malformed(err)
		}
		if len(wrapped.Cards) == 0 {
			return malformed(errors.New("missing cards"))
		}
		trimmed = wrapped.Cards
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return malformed(err)
	}
	return nil
}

func decodeJournal(raw json.RawMessage) (domain.JournalEntry, error) {
	var entry domain.JournalEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return domain.JournalEntry{}, malformed(err)
	}
	if entry.ID == uuid.Nil {
		return domain.JournalEntry{}, malformed(errors.New("missing journal id"))
	}
	return entry, nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %w: %v", domain.ErrNetwork, gateway.ErrMalformedResponse, err)
}
