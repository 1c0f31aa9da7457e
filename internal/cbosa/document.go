package cbosa

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// DetectFormat classifies document bytes by their magic prefix. The portal
// does not reliably set content types, so sniffing is the only trustworthy
// signal.
func DetectFormat(content []byte) DocumentFormat {
	switch {
	case bytes.HasPrefix(content, []byte("%PDF")):
		return FormatPDF
	case bytes.HasPrefix(content, []byte(`{\rtf`)):
		return FormatRTF
	default:
		return FormatUnknown
	}
}

var illegalFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// SafeFilename sanitizes a signature for filesystem use: illegal characters
// become underscores, whitespace collapses to single underscores, length is
// capped.
func SafeFilename(stem, fallback string) string {
	s := strings.TrimSpace(stem)
	if s == "" {
		s = fallback
	}
	s = illegalFilenameChars.ReplaceAllString(s, "_")
	s = strings.Join(strings.Fields(s), "_")
	if len(s) > 150 {
		s = s[:150]
	}
	if s == "" {
		return fallback
	}
	return s
}

var caseIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/doc/([A-Za-z0-9]+)/?$`),
	regexp.MustCompile(`id=([A-Za-z0-9]+)`),
	regexp.MustCompile(`case_([A-Za-z0-9]+)`),
}

// extractCaseID derives an identifier from a case URL, falling back to the
// last path component and finally a timestamp.
func extractCaseID(caseURL string) string {
	for _, pattern := range caseIDPatterns {
		if m := pattern.FindStringSubmatch(caseURL); len(m) > 1 {
			return m[1]
		}
	}
	trimmed := strings.TrimRight(caseURL, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 && idx+1 < len(trimmed) {
		return trimmed[idx+1:]
	}
	return strconv.FormatInt(time.Now().Unix(), 10)
}

// documentPathMarkers identify document links on a case detail page.
var documentPathMarkers = []string{"/pdf/", "pdf.do", "doc.pdf"}

// findDocumentURL locates the judgment document link on a case page,
// preferring explicit .pdf hrefs, then known document path markers, then a
// constructed /doc/{id}.pdf URL.
func findDocumentURL(doc *goquery.Document, base *url.URL, baseURL, caseURL string) (string, bool) {
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, anchor *goquery.Selection) bool {
		href := anchor.AttrOr("href", "")
		if href == "" || strings.HasPrefix(href, "javascript:") {
			return true
		}
		if strings.HasSuffix(href, ".pdf") {
			if full, ok := absoluteURL(base, href); ok {
				found = full
				return false
			}
		}
		lower := strings.ToLower(href)
		for _, marker := range documentPathMarkers {
			if strings.Contains(lower, marker) {
				if full, ok := absoluteURL(base, href); ok {
					found = full
					return false
				}
			}
		}
		return true
	})
	if found != "" {
		return found, true
	}

	if id := extractCaseID(caseURL); id != "" {
		return fmt.Sprintf("%s/doc/%s.pdf", baseURL, id), true
	}
	return "", false
}

// FetchDocument downloads and classifies the judgment document for one
// case, persisting it under destDir. The filename stem precedence is:
// provided signature, signature re-extracted from RTF content, URL-derived
// case ID, timestamp. Filenames never collide silently; an existing name
// gets a _2, _3... suffix.
func (c *Client) FetchDocument(ctx context.Context, rec CaseRecord, destDir string) (*RetrievedDocument, error) {
	if err := sleepContext(ctx, c.cfg.Delay); err != nil {
		return nil, err
	}
	pageResp, err := c.fetcher.getWithRetry(ctx, rec.URL, c.cfg.PageRetry, c.cfg.PageTimeout)
	if err != nil {
		return nil, fmt.Errorf("fetch case page: %w", err)
	}

	pageDoc, err := goquery.NewDocumentFromReader(bytes.NewReader(pageResp.Body))
	if err != nil {
		return nil, fmt.Errorf("parse case page: %w", err)
	}
	base, _ := url.Parse(pageResp.URL)
	docURL, ok := findDocumentURL(pageDoc, base, c.cfg.BaseURL, rec.URL)
	if !ok {
		c.logger.Warn("No document link found", zap.String("case_url", rec.URL))
		return nil, nil
	}

	if err := sleepContext(ctx, c.cfg.Delay); err != nil {
		return nil, err
	}
	docResp, err := c.fetcher.getWithRetry(ctx, docURL, c.cfg.DocumentRetry, c.cfg.DocumentTimeout)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	content := docResp.Body
	format := DetectFormat(content)
	documentsTotal.WithLabelValues(string(format)).Inc()

	signature := rec.Signature
	if signature == "" && format == FormatRTF {
		if sig, ok := ExtractSignatureFromText(RTFToText(content)); ok {
			signature = sig
			c.logger.Info("Recovered signature from document content",
				zap.String("signature", sig))
		}
	}

	stem := SafeFilename(signature, extractCaseID(rec.URL))
	if format == FormatUnknown {
		preview := content
		if len(preview) > 200 {
			preview = preview[:200]
		}
		c.logger.Warn("Unrecognized document format, saving as text",
			zap.String("case_url", rec.URL),
			zap.ByteString("preview", preview),
		)
	}

	path, err := writeUnique(destDir, stem, format.Extension(), content)
	if err != nil {
		return nil, fmt.Errorf("persist document: %w", err)
	}

	return &RetrievedDocument{
		Content:  content,
		Format:   format,
		Filename: filepath.Base(path),
		Path:     path,
	}, nil
}

// DownloadAll fetches documents for each case sequentially, honoring the
// inter-request delay. Individual failures are recorded in the results, not
// escalated, so a bulk run always returns everything it obtained.
func (c *Client) DownloadAll(ctx context.Context, cases []CaseRecord, destDir string, progress func(done, total int, ok bool)) []DownloadResult {
	results := make([]DownloadResult, 0, len(cases))
	for i, rec := range cases {
		doc, err := c.FetchDocument(ctx, rec, destDir)
		if err == nil && doc == nil {
			err = fmt.Errorf("no document link for %s", rec.URL)
		}
		results = append(results, DownloadResult{Case: rec, Document: doc, Err: err})
		if err != nil {
			c.logger.Warn("Document download failed",
				zap.String("case_url", rec.URL),
				zap.Error(err),
			)
		}
		if progress != nil {
			progress(i+1, len(cases), err == nil)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return results
}

// writeUnique writes content under dir using stem+ext, appending _2, _3...
// until the name is free.
func writeUnique(dir, stem, ext string, content []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, stem+ext)
	for suffix := 2; ; suffix++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, suffix, ext))
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
