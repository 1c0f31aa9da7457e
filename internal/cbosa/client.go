package cbosa

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// Client is the portal client for one retrieval run. It owns a single
// cookie-bearing session and performs every request sequentially, separated
// by the configured politeness delay. It is not safe for concurrent use;
// callers wanting parallel runs create multiple clients.
type Client struct {
	cfg     Config
	fetcher *SessionFetcher
	logger  *zap.Logger
}

// New constructs a Client with a fresh session.
func New(cfg Config, logger *zap.Logger) *Client {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:     cfg,
		fetcher: NewSessionFetcher(cfg.UserAgent, cfg.PageTimeout, logger),
		logger:  logger,
	}
}

// SearchCases submits a search and walks the paginated listings until quota
// unique cases are collected or the portal runs out of results. Date
// validation failures surface before any network call. A run that loses
// pages to transient failures still returns everything collected so far.
func (c *Client) SearchCases(ctx context.Context, params SearchQuery, quota int) ([]CaseRecord, error) {
	if quota <= 0 {
		return nil, nil
	}

	_, dateParams, err := NormalizeDateRange(params["date_from"], params["date_to"])
	if err != nil {
		return nil, err
	}

	formURL := c.cfg.BaseURL + c.cfg.QueryPath
	formResp, err := c.fetcher.getWithRetry(ctx, formURL, c.cfg.PageRetry, c.cfg.PageTimeout)
	if err != nil {
		return nil, fmt.Errorf("fetch search form: %w", err)
	}

	formDoc, err := goquery.NewDocumentFromReader(bytes.NewReader(formResp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse search form: %w", err)
	}

	payload := BuildFormPayload(params, formDoc)
	for k, v := range dateParams {
		payload[k] = v
	}
	c.logger.Info("Submitting search",
		zap.Int("quota", quota),
		zap.Int("form_fields", len(payload)),
	)

	if err := sleepContext(ctx, c.cfg.Delay); err != nil {
		return nil, err
	}
	searchResp, err := c.fetcher.PostForm(c.cfg.BaseURL+c.cfg.SearchPath, payload)
	if err != nil {
		return nil, fmt.Errorf("submit search: %w", err)
	}
	if searchResp.StatusCode < 200 || searchResp.StatusCode >= 300 {
		return nil, &StatusError{Code: searchResp.StatusCode, URL: searchResp.URL}
	}

	records := c.collectAllPages(ctx, searchResp, quota)
	c.logger.Info("Search finished", zap.Int("cases", len(records)))
	return records, nil
}
