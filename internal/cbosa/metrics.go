package cbosa

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cbosa_requests_total",
		Help: "The total number of HTTP requests sent to the portal.",
	})
	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cbosa_request_retries_total",
		Help: "The total number of retried requests.",
	})
	rateLimitHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cbosa_rate_limit_hits_total",
		Help: "The total number of HTTP 429 responses received.",
	})
	fetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cbosa_fetch_errors_total",
		Help: "The total number of requests that failed after all retries.",
	})
	pagesParsedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cbosa_result_pages_parsed_total",
		Help: "The total number of result listing pages parsed.",
	})
	casesFoundTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cbosa_cases_found_total",
		Help: "The total number of unique case records collected.",
	})
	documentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cbosa_documents_total",
		Help: "Downloaded judgment documents by sniffed format.",
	}, []string{"format"})
)
