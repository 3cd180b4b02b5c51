package sanity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"guideco/app/internal/content"
)

func TestNewClientRequiresProject(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Options{}); err == nil {
		t.Fatalf("expected error when neither project ID nor base URL is set")
	}

	client, err := NewClient(Options{ProjectID: "abc123", UseCDN: true})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if want := "https://abc123.apicdn.sanity.io/v2024-01-01/data/query/production"; client.endpoint != want {
		t.Fatalf("expected endpoint %s, got %s", want, client.endpoint)
	}
}

func TestClientQueryPostsStatementAndToken(t *testing.T) {
	t.Parallel()

	var received queryRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v2021-10-21/data/query/blog" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer token, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_, _ = io.WriteString(w, `{"ms":1,"result":42}`)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, Options{Dataset: "blog", APIVersion: "v2021-10-21", Token: "secret"})

	result, err := client.Query(context.Background(), Statement{
		Query:  "count(*[slug.current == $slug])",
		Params: map[string]any{"slug": "hello"},
	})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if result.Int() != 42 {
		t.Fatalf("expected result 42, got %s", result.Raw)
	}
	if received.Query != "count(*[slug.current == $slug])" || received.Params["slug"] != "hello" {
		t.Fatalf("unexpected request payload %#v", received)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"result":[]}`)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, Options{MaxTries: 3})

	if _, err := client.Query(context.Background(), Statement{Query: "*[]"}); err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"description":"param $slug referenced, but not provided"}}`)
	}))
	t.Cleanup(server.Close)

	client := newTestClient(t, server.URL, Options{MaxTries: 3})

	_, err := client.Query(context.Background(), Statement{Query: "*[slug.current == $slug]"})
	if err == nil {
		t.Fatalf("expected error for a bad request")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

func TestExecutorDecodesDocuments(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"result":[{
			"id": "post-1",
			"slug": "hello",
			"title": "Hello",
			"publishedAt": "2024-02-01T08:30:00.000Z",
			"updatedAt": "2024-02-03T00:00:00Z",
			"mainImage": {"url": "https://cdn.example/img.png", "alt": "cover"},
			"tags": [{"id": "t1", "title": "Go", "slug": "go"}, {"id": "t2", "title": "Broken", "slug": null}],
			"author": {"name": "Ada", "image": {"url": null}, "github": "https://github.com/ada"},
			"body": [{"_type": "block"}],
			"draft": false
		}]}`)
	}))
	t.Cleanup(server.Close)

	executor, err := NewExecutor(newTestClient(t, server.URL, Options{}))
	if err != nil {
		t.Fatalf("NewExecutor returned error: %v", err)
	}

	q, err := content.Articles().Project(content.ProjectionFull).Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	articles, err := executor.FetchArticles(context.Background(), q)
	if err != nil {
		t.Fatalf("FetchArticles returned error: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected one article, got %d", len(articles))
	}

	article := articles[0]
	if !article.PublishedAt.Equal(time.Date(2024, time.February, 1, 8, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected publishedAt %s", article.PublishedAt)
	}
	if article.MainImage == nil || article.MainImage.Alt != "cover" {
		t.Fatalf("unexpected main image %#v", article.MainImage)
	}
	if len(article.Tags) != 2 || article.Tags[1].Slug != "" {
		t.Fatalf("expected the broken tag to decode with an empty slug, got %#v", article.Tags)
	}
	if article.Author == nil || article.Author.Image != nil || article.Author.GitHub != "https://github.com/ada" {
		t.Fatalf("unexpected author %#v", article.Author)
	}
	if string(article.Body) != `[{"_type": "block"}]` {
		t.Fatalf("unexpected body %s", article.Body)
	}
}

func TestExecutorFetchesAuthors(t *testing.T) {
	t.Parallel()

	var received queryRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		_, _ = io.WriteString(w, `{"result":[
			{"name": "Ada", "image": {"url": "https://cdn.example/ada.png", "alt": "Ada"}, "x": "https://x.com/ada"},
			{"name": "Grace", "mail": "grace@example.com"}
		]}`)
	}))
	t.Cleanup(server.Close)

	executor, err := NewExecutor(newTestClient(t, server.URL, Options{}))
	if err != nil {
		t.Fatalf("NewExecutor returned error: %v", err)
	}

	authors, err := executor.FetchAuthors(context.Background())
	if err != nil {
		t.Fatalf("FetchAuthors returned error: %v", err)
	}
	if received.Query != RenderAuthors().Query {
		t.Fatalf("unexpected query %q", received.Query)
	}
	if len(authors) != 2 || authors[0].Image == nil || authors[0].X != "https://x.com/ada" || authors[1].Mail != "grace@example.com" {
		t.Fatalf("unexpected authors %#v", authors)
	}
}

func TestExecutorRejectsUnexpectedShapes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"result":"nope"}`)
	}))
	t.Cleanup(server.Close)

	executor, err := NewExecutor(newTestClient(t, server.URL, Options{}))
	if err != nil {
		t.Fatalf("NewExecutor returned error: %v", err)
	}

	q, err := content.Articles().Build()
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if _, err := executor.CountArticles(context.Background(), q); err == nil {
		t.Fatalf("expected error for a non-numeric count")
	}
	if _, err := executor.FetchTags(context.Background(), q); err == nil {
		t.Fatalf("expected error for a non-array tag result")
	}
}

func newTestClient(t *testing.T, baseURL string, opts Options) *Client {
	t.Helper()

	opts.BaseURL = baseURL
	opts.Logger = silentLogger()
	client, err := NewClient(opts)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
