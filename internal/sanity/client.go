// Package sanity reads content from a Sanity content lake over its HTTP query API.
package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	defaultDataset    = "production"
	defaultAPIVersion = "2024-01-01"
	defaultMaxTries   = 3
	maxResponseBytes  = 16 << 20
)

// Options configures a Client.
type Options struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
	// BaseURL replaces the project host, e.g. to point at a test server.
	BaseURL    string
	HTTPClient *http.Client
	Logger     *logrus.Logger
	// MaxTries bounds attempts per query; transient failures (429, 5xx, transport errors) are
	// retried with exponential backoff.
	MaxTries uint
}

// Client posts GROQ queries to the query endpoint of one dataset.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
	logger     *logrus.Logger
	maxTries   uint
}

// NewClient validates opts and builds a client.
func NewClient(opts Options) (*Client, error) {
	dataset := strings.TrimSpace(opts.Dataset)
	if dataset == "" {
		dataset = defaultDataset
	}
	apiVersion := strings.TrimPrefix(strings.TrimSpace(opts.APIVersion), "v")
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}

	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		projectID := strings.TrimSpace(opts.ProjectID)
		if projectID == "" {
			return nil, eris.New("sanity project ID is required")
		}
		host := "api"
		if opts.UseCDN {
			host = "apicdn"
		}
		base = fmt.Sprintf("https://%s.%s.sanity.io", projectID, host)
	}

	endpoint, err := url.JoinPath(base, "v"+apiVersion, "data", "query", dataset)
	if err != nil {
		return nil, eris.Wrap(err, "building sanity query endpoint")
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	maxTries := opts.MaxTries
	if maxTries == 0 {
		maxTries = defaultMaxTries
	}

	return &Client{
		endpoint:   endpoint,
		token:      opts.Token,
		httpClient: httpClient,
		logger:     opts.Logger,
		maxTries:   maxTries,
	}, nil
}

type queryRequest struct {
	Query  string         `json:"query"`
	Params map[string]any `json:"params,omitempty"`
}

// Query runs stmt and returns the "result" member of the response.
func (c *Client) Query(ctx context.Context, stmt Statement) (gjson.Result, error) {
	payload, err := json.Marshal(queryRequest{Query: stmt.Query, Params: stmt.Params})
	if err != nil {
		return gjson.Result{}, eris.Wrap(err, "encoding sanity query")
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = 2 * time.Second

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		return c.post(ctx, payload)
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(c.maxTries))
	if err != nil {
		c.logError(logrus.Fields{"endpoint": c.endpoint}, err, "sanity query failed")
		return gjson.Result{}, eris.Wrap(err, "querying sanity")
	}

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, eris.New("sanity returned invalid JSON")
	}
	result := gjson.GetBytes(body, "result")
	if !result.Exists() {
		return gjson.Result{}, eris.New("sanity response has no result")
	}
	return result, nil
}

func (c *Client) post(ctx context.Context, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, backoff.Permanent(eris.Wrap(err, "creating sanity request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(eris.Wrap(err, "sending sanity request"))
		}
		return nil, eris.Wrap(err, "sending sanity request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, eris.Wrap(err, "reading sanity response")
	}

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	statusErr := eris.Errorf("sanity responded %d: %s", resp.StatusCode, errorDescription(body))
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if seconds, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && seconds > 0 {
			return nil, backoff.RetryAfter(seconds)
		}
		return nil, statusErr
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, statusErr
	default:
		return nil, backoff.Permanent(statusErr)
	}
}

func errorDescription(body []byte) string {
	for _, path := range []string{"error.description", "message", "error"} {
		if value := gjson.GetBytes(body, path); value.Exists() && value.Type == gjson.String {
			return value.String()
		}
	}
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}

func (c *Client) logError(fields logrus.Fields, err error, msg string) {
	if c.logger == nil {
		return
	}

	entry := c.logger.WithFields(fields)
	if err != nil {
		entry = entry.WithField("error", err.Error())
	}
	entry.Error(msg)
}
