// Package notion queries a Notion database for records whose URL property matches.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/domain"
	"github.com/TechupBusiness/browser-extension-notion-status/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var _ ports.LookupService = (*Client)(nil)

const (
	// MaxFilterConditions is the largest compound filter Notion accepts.
	MaxFilterConditions = 100
	// maxParallelBatches bounds the number of concurrent batch queries.
	maxParallelBatches = 2
	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Client talks to the Notion database query endpoint.
type Client struct {
	http     *http.Client
	baseURL  string
	version  string
	pageSize int
	limiter  *rate.Limiter
	logger   ports.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.http = c
	}
}

// WithPageSize sets the page size of paginated queries. Values outside 1..100 are ignored.
func WithPageSize(n int) Option {
	return func(client *Client) {
		if n > 0 && n <= domain.DefaultPageSize {
			client.pageSize = n
		}
	}
}

// NewClient creates a Client for the API described by cfg.
func NewClient(cfg domain.NotionConfig, logger ports.Logger, opts ...Option) *Client {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	c := &Client{
		http:     &http.Client{Timeout: 30 * time.Second},
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		version:  cfg.Version,
		pageSize: domain.DefaultPageSize,
		limiter:  rate.NewLimiter(limit, 1),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QueryExists returns the records whose URL property equals any of urls.
// More than MaxFilterConditions urls are split into several queries.
func (c *Client) QueryExists(ctx context.Context, target domain.Target, urls []string) ([]domain.Record, error) {
	if len(urls) == 0 {
		return nil, nil
	}

	batches := slices.Collect(slices.Chunk(urls, MaxFilterConditions))
	results := make([][]domain.Record, len(batches))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelBatches)
	for i, batch := range batches {
		g.Go(func() error {
			records, err := c.queryAll(ctx, target, urlFilter(target.URLProperty, batch))
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		records []domain.Record
		seen    = make(map[string]bool)
	)
	for _, batch := range results {
		for _, r := range batch {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			records = append(records, r)
		}
	}
	return records, nil
}

// QueryPage returns one page of the database, optionally restricted to records edited since query.EditedSince.
func (c *Client) QueryPage(ctx context.Context, target domain.Target, query domain.PageQuery) (domain.RecordPage, error) {
	var filter any
	if !query.EditedSince.IsZero() {
		filter = editedSinceFilter(target.EditedProperty, query.EditedSince)
	}
	return c.query(ctx, target, filter, query.Cursor)
}

func (c *Client) queryAll(ctx context.Context, target domain.Target, filter any) ([]domain.Record, error) {
	var (
		records []domain.Record
		cursor  string
	)
	for {
		page, err := c.query(ctx, target, filter, cursor)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Records...)
		if !page.HasMore || page.NextCursor == "" {
			return records, nil
		}
		cursor = page.NextCursor
	}
}

func (c *Client) query(ctx context.Context, target domain.Target, filter any, cursor string) (domain.RecordPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.RecordPage{}, zerr.Wrap(err, domain.ErrLookupFailed.Error())
	}

	body, err := json.Marshal(queryRequest{
		Filter:      filter,
		StartCursor: cursor,
		PageSize:    c.pageSize,
	})
	if err != nil {
		return domain.RecordPage{}, zerr.Wrap(err, domain.ErrLookupFailed.Error())
	}

	endpoint := c.baseURL + "/databases/" + target.DatabaseID + "/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.RecordPage{}, zerr.Wrap(err, domain.ErrLookupFailed.Error())
	}
	req.Header.Set("Authorization", "Bearer "+target.Token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("notion query", "database", target.DatabaseID, "cursor", cursor)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.RecordPage{}, zerr.Wrap(err, domain.ErrLookupFailed.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.RecordPage{}, apiError(resp)
	}

	var decoded queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.RecordPage{}, zerr.Wrap(err, domain.ErrLookupFailed.Error())
	}
	return decoded.page(target.URLProperty), nil
}

// apiError converts a non-2xx response into a *domain.LookupError.
func apiError(resp *http.Response) error {
	lookupErr := &domain.LookupError{StatusCode: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var body errorResponse
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		lookupErr.Message = body.Message
	}

	err := zerr.With(zerr.Wrap(lookupErr, domain.ErrLookupFailed.Error()), "status", resp.StatusCode)
	if body.Code != "" {
		err = zerr.With(err, "code", body.Code)
	}
	return err
}
