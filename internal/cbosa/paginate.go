package cbosa

import (
	"bytes"
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// nextPageTokens are the localized link texts the portal uses for "next
// page".
var nextPageTokens = []string{"następna", "dalej", "next", "»", ">"}

var numberedPagePattern = regexp.MustCompile(`(?:page|strona)=(\d+)`)

// extraPauseEvery inserts a longer politeness pause after this many pages.
const extraPauseEvery = 5

// collectAllPages walks the result listings starting from the search
// response until the quota is met, the portal runs out of pages, the page
// ceiling is hit, or fetches keep failing. A transient fetch failure
// truncates pagination but never escalates: whatever was accumulated is
// returned.
func (c *Client) collectAllPages(ctx context.Context, first Response, quota int) []CaseRecord {
	var all []CaseRecord
	seen := map[string]bool{}

	body := first.Body
	currentURL := first.URL
	consecutiveErrors := 0

	for pageNum := 1; len(all) < quota && pageNum <= c.cfg.MaxPages; pageNum++ {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			c.logger.Warn("Unparsable result page", zap.Int("page", pageNum), zap.Error(err))
			break
		}
		base, _ := url.Parse(currentURL)

		pageRecords := parseResultsPage(doc, base, quota-len(all), c.logger)
		added := 0
		for _, rec := range pageRecords {
			if seen[rec.URL] {
				continue
			}
			seen[rec.URL] = true
			all = append(all, rec)
			added++
		}
		casesFoundTotal.Add(float64(added))
		c.logger.Info("Parsed results page",
			zap.Int("page", pageNum),
			zap.Int("new_cases", added),
			zap.Int("total", len(all)),
		)

		if added == 0 || len(all) >= quota {
			break
		}

		nextURL, ok := findNextPageURL(doc, base)
		if !ok {
			c.logger.Info("No next page link, stopping pagination")
			break
		}
		if pageNum >= c.cfg.MaxPages {
			c.logger.Info("Page ceiling reached, stopping pagination",
				zap.Int("max_pages", c.cfg.MaxPages))
			break
		}

		// Twice the normal delay: multi-page walks lean conservative.
		if err := sleepContext(ctx, 2*c.cfg.Delay); err != nil {
			break
		}
		if pageNum%extraPauseEvery == 0 {
			if err := sleepContext(ctx, 2*c.cfg.Delay); err != nil {
				break
			}
		}

		resp, err := c.fetcher.getWithRetry(ctx, nextURL, paginationRetryPolicy(c.cfg.PageRetry), c.cfg.PageTimeout)
		if err != nil {
			consecutiveErrors++
			c.logger.Warn("Failed to fetch next page",
				zap.String("url", nextURL),
				zap.Int("consecutive_errors", consecutiveErrors),
				zap.Error(err),
			)
			if consecutiveErrors >= c.cfg.MaxConsecutiveErrors {
				c.logger.Warn("Multiple consecutive errors, stopping pagination")
			}
			// Either way we keep what we have; one lost page must not
			// discard an otherwise successful run.
			break
		}
		consecutiveErrors = 0
		body = resp.Body
		currentURL = resp.URL
	}

	if len(all) > quota {
		all = all[:quota]
	}
	return all
}

// paginationRetryPolicy trims the page policy to three attempts; a stuck
// listing page is cheaper to abandon than a document.
func paginationRetryPolicy(p RetryPolicy) RetryPolicy {
	if p.Attempts > 3 {
		p.Attempts = 3
	}
	return p
}

// findNextPageURL locates the next-page link, first by localized link text,
// then by numbered page parameters.
func findNextPageURL(doc *goquery.Document, base *url.URL) (string, bool) {
	var next string
	doc.Find("a[href]").EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		text := strings.ToLower(strings.TrimSpace(anchor.Text()))
		for _, token := range nextPageTokens {
			if strings.Contains(text, token) {
				if full, ok := absoluteURL(base, anchor.AttrOr("href", "")); ok {
					next = full
					return false
				}
			}
		}
		return true
	})
	if next != "" {
		return next, true
	}

	doc.Find("a[href]").EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		href := anchor.AttrOr("href", "")
		m := numberedPagePattern.FindStringSubmatch(href)
		if len(m) < 2 {
			return true
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > 1 {
			if full, ok := absoluteURL(base, href); ok {
				next = full
				return false
			}
		}
		return true
	})
	return next, next != ""
}
