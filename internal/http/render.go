package http

import (
	"bytes"
	"context"
	"fmt"
	"html"
	stdhttp "net/http"
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/danielgtaylor/huma/v2"
	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"guideco/app/internal/http/templates"
)

const (
	htmlContentType      = "text/html; charset=utf-8"
	xmlContentType       = "application/xml; charset=utf-8"
	noStore              = "no-store"
	errorFallbackMessage = "We couldn't process your request right now."
	notFoundMessage      = "The page you are looking for does not exist."
	unavailableMessage   = "Content is temporarily unavailable. Please try again shortly."
)

// htmlResponse carries a pre-rendered body. Huma writes Body as-is because it is a []byte.
type htmlResponse struct {
	Status       int
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

func newHTMLResponse(status int, body []byte, cacheControl string) *htmlResponse {
	return &htmlResponse{
		Status:       status,
		ContentType:  htmlContentType,
		CacheControl: cacheControl,
		Body:         body,
	}
}

// cacheControl lets shared caches serve a response for ttl and refresh it in the background.
func cacheControl(ttl time.Duration) string {
	return "public, s-maxage=" + strconv.Itoa(int(ttl/time.Second)) + ", stale-while-revalidate"
}

func renderComponent(ctx context.Context, component templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := component.Render(ctx, &buf); err != nil {
		return nil, eris.Wrap(err, "rendering component")
	}
	return buf.Bytes(), nil
}

func (s *Server) renderPage(ctx context.Context, component templ.Component, ttl time.Duration, fields logrus.Fields) *htmlResponse {
	body, err := renderComponent(ctx, component)
	if err != nil {
		s.recordError(ctx, err, "rendering page", fields)
		return s.renderErrorResponse(ctx, stdhttp.StatusInternalServerError, errorFallbackMessage)
	}
	return newHTMLResponse(stdhttp.StatusOK, body, cacheControl(ttl))
}

func (s *Server) renderErrorResponse(ctx context.Context, status int, message string) *htmlResponse {
	label := fmt.Sprintf("%d %s", status, stdhttp.StatusText(status))
	component := templates.ErrorPage(templates.ErrorPageData{
		SiteTitle:   s.site.Title,
		Title:       fmt.Sprintf("%s • %s", label, s.site.Title),
		StatusLabel: label,
		Message:     message,
	})

	body, err := renderComponent(context.WithoutCancel(ctx), component)
	if err != nil {
		s.recordError(ctx, err, "rendering error page", logrus.Fields{"status": status})
		body = []byte(fmt.Sprintf("<html><body><h1>%s</h1><p>%s</p></body></html>", label, html.EscapeString(message)))
	}

	return newHTMLResponse(status, body, noStore)
}

func htmlOperation(summary string, statuses ...int) func(op *huma.Operation) {
	return rawOperation(summary, htmlContentType, statuses...)
}

func rawOperation(summary, contentType string, statuses ...int) func(op *huma.Operation) {
	return func(op *huma.Operation) {
		if summary != "" {
			op.Summary = summary
		}
		if op.Responses == nil {
			op.Responses = map[string]*huma.Response{}
		}

		statusCodes := append([]int{stdhttp.StatusOK}, statuses...)
		for _, status := range statusCodes {
			code := strconv.Itoa(status)
			op.Responses[code] = &huma.Response{
				Description: stdhttp.StatusText(status),
				Content: map[string]*huma.MediaType{
					contentType: {
						Schema: &huma.Schema{Type: "string"},
					},
				},
			}
		}
	}
}

func (s *Server) recordError(ctx context.Context, err error, message string, fields logrus.Fields) {
	if err == nil {
		return
	}

	if s.logger != nil {
		s.logger.WithFields(requestFields(ctx)).WithFields(fields).WithField("error", err.Error()).Error(message)
	}

	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	if s.sentry != nil {
		s.sentry.CaptureException(err)
	}
}
