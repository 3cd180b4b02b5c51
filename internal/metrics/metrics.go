// Package metrics provides Prometheus metrics for the content service.
package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"guideco/app/internal/content"
)

var (
	// QueriesTotal counts executor calls by backend, operation and outcome.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guideco",
			Name:      "content_queries_total",
			Help:      "Total number of content store queries",
		},
		[]string{"backend", "operation", "status"},
	)

	// QueryDuration measures executor call latency.
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "guideco",
			Name:      "content_query_duration_seconds",
			Help:      "Duration of content store queries in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	// ResultSize observes how many documents a fetch returned.
	ResultSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "guideco",
			Name:      "content_query_result_size",
			Help:      "Distribution of documents returned per fetch",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"backend", "operation"},
	)

	// HTTPRequestsTotal counts served requests by route pattern and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guideco",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"route", "status"},
	)

	// HTTPRequestDuration measures request latency by route pattern.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "guideco",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// RecordQuery records one executor call.
func RecordQuery(backend, operation string, err error, duration time.Duration) {
	QueriesTotal.WithLabelValues(backend, operation, status(err)).Inc()
	QueryDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
}

// RecordRequest records one served HTTP request.
func RecordRequest(route string, statusCode int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// Executor decorates a content executor with query metrics.
type Executor struct {
	next    content.Executor
	backend string
}

var _ content.Executor = (*Executor)(nil)

// Instrument wraps next; backend labels every series it records.
func Instrument(next content.Executor, backend string) *Executor {
	return &Executor{next: next, backend: backend}
}

// FetchArticles delegates to the wrapped executor.
func (e *Executor) FetchArticles(ctx context.Context, q content.Query) ([]content.Article, error) {
	start := time.Now()
	articles, err := e.next.FetchArticles(ctx, q)
	operation := "fetch_articles_" + q.Projection.String()
	RecordQuery(e.backend, operation, err, time.Since(start))
	if err == nil {
		ResultSize.WithLabelValues(e.backend, operation).Observe(float64(len(articles)))
	}
	return articles, err
}

// CountArticles delegates to the wrapped executor.
func (e *Executor) CountArticles(ctx context.Context, q content.Query) (int, error) {
	start := time.Now()
	count, err := e.next.CountArticles(ctx, q)
	RecordQuery(e.backend, "count_articles", err, time.Since(start))
	return count, err
}

// FetchTags delegates to the wrapped executor.
func (e *Executor) FetchTags(ctx context.Context, articles content.Query) ([]content.Tag, error) {
	start := time.Now()
	tags, err := e.next.FetchTags(ctx, articles)
	RecordQuery(e.backend, "fetch_tags", err, time.Since(start))
	if err == nil {
		ResultSize.WithLabelValues(e.backend, "fetch_tags").Observe(float64(len(tags)))
	}
	return tags, err
}

// FetchAuthors delegates to the wrapped executor.
func (e *Executor) FetchAuthors(ctx context.Context) ([]content.Author, error) {
	start := time.Now()
	authors, err := e.next.FetchAuthors(ctx)
	RecordQuery(e.backend, "fetch_authors", err, time.Since(start))
	return authors, err
}
