package cbosa

import "time"

// Config is the immutable per-run configuration of the retrieval engine.
// Construct it once (DefaultConfig plus overrides) and pass it to New.
type Config struct {
	// BaseURL is the portal root, e.g. https://orzeczenia.nsa.gov.pl.
	BaseURL string
	// QueryPath serves the search form (hidden fields, session cookies).
	QueryPath string
	// SearchPath receives the form POST.
	SearchPath string

	UserAgent string

	// Delay is the politeness pause between consecutive requests. Page
	// walks during pagination wait twice this long.
	Delay time.Duration

	PageTimeout     time.Duration
	DocumentTimeout time.Duration

	// PageRetry governs search form and listing fetches, DocumentRetry
	// governs the larger judgment downloads.
	PageRetry     RetryPolicy
	DocumentRetry RetryPolicy

	// MaxPages bounds a pagination walk even if the portal keeps
	// producing next-page links.
	MaxPages int
	// MaxConsecutiveErrors stops pagination after this many failed
	// next-page fetches in a row.
	MaxConsecutiveErrors int
}

// DefaultConfig returns the settings matching the portal's observed
// behavior and rate tolerance.
func DefaultConfig() Config {
	return Config{
		BaseURL:              "https://orzeczenia.nsa.gov.pl",
		QueryPath:            "/cbo/query",
		SearchPath:           "/cbo/search",
		UserAgent:            "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		Delay:                time.Second,
		PageTimeout:          30 * time.Second,
		DocumentTimeout:      45 * time.Second,
		PageRetry:            DefaultPageRetryPolicy(),
		DocumentRetry:        DefaultDocumentRetryPolicy(),
		MaxPages:             20,
		MaxConsecutiveErrors: 3,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.QueryPath == "" {
		c.QueryPath = def.QueryPath
	}
	if c.SearchPath == "" {
		c.SearchPath = def.SearchPath
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.PageTimeout == 0 {
		c.PageTimeout = def.PageTimeout
	}
	if c.DocumentTimeout == 0 {
		c.DocumentTimeout = def.DocumentTimeout
	}
	if c.PageRetry.Attempts == 0 {
		c.PageRetry = def.PageRetry
	}
	if c.DocumentRetry.Attempts == 0 {
		c.DocumentRetry = def.DocumentRetry
	}
	if c.MaxPages == 0 {
		c.MaxPages = def.MaxPages
	}
	if c.MaxConsecutiveErrors == 0 {
		c.MaxConsecutiveErrors = def.MaxConsecutiveErrors
	}
	return c
}
