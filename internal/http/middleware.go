package http

import (
	"fmt"
	"net"
	stdhttp "net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"guideco/app/internal/metrics"
)

const (
	rateLimitMessage   = "Too many requests. Please wait a moment and try again."
	requestIDHeader    = "X-Request-ID"
	sentryFlushTimeout = 2 * time.Second
)

type middleware = func(huma.Context, func(huma.Context))

// requestIDMiddleware keeps a well-formed upstream request ID and mints one otherwise.
func (s *Server) requestIDMiddleware() middleware {
	return func(ctx huma.Context, next func(huma.Context)) {
		reqID := ctx.Header(requestIDHeader)
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = uuid.NewString()
		}

		req, _ := humago.Unwrap(ctx)
		goCtx := withRequestMetadata(ctx.Context(), reqID, clientIPFromRequest(req))
		ctx = huma.WithContext(ctx, goCtx)
		ctx.SetHeader(requestIDHeader, reqID)

		if hub := sentry.GetHubFromContext(goCtx); hub != nil {
			hub.Scope().SetTag("request_id", reqID)
		}

		next(ctx)
	}
}

func (s *Server) rateLimitMiddleware() middleware {
	return func(ctx huma.Context, next func(huma.Context)) {
		ip := ClientIPFromContext(ctx.Context())
		if s.rateLimiter == nil || ip == "" || s.rateLimiter.Allow(ip) {
			next(ctx)
			return
		}

		if s.logger != nil {
			s.logger.WithError(eris.New("rate limit exceeded")).
				WithFields(requestFields(ctx.Context())).
				WithField("path", ctx.URL().Path).
				Warn("request rate limited")
		}

		ctx.SetHeader("Retry-After", "1")
		writeHTML(ctx, s.renderErrorResponse(ctx.Context(), stdhttp.StatusTooManyRequests, rateLimitMessage))
	}
}

// loggingMiddleware records request metrics by route pattern and logs one line per request.
func (s *Server) loggingMiddleware() middleware {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()
		next(ctx)
		elapsed := time.Since(start)

		status := ctx.Status()
		if status == 0 {
			status = stdhttp.StatusOK
		}

		route := "unknown"
		if op := ctx.Operation(); op != nil {
			route = op.Method + " " + op.Path
		}
		metrics.RecordRequest(route, status, elapsed)

		if s.logger == nil {
			return
		}

		entry := s.logger.WithFields(requestFields(ctx.Context())).WithFields(logrus.Fields{
			"method":      ctx.Method(),
			"route":       route,
			"path":        ctx.URL().Path,
			"status":      status,
			"duration_ms": float64(elapsed.Microseconds()) / 1000,
		})
		switch {
		case status >= stdhttp.StatusInternalServerError:
			entry.Error("request failed")
		case status == stdhttp.StatusTooManyRequests:
			entry.Warn("request throttled")
		default:
			entry.Info("request completed")
		}
	}
}

func (s *Server) recoveryMiddleware() middleware {
	return func(ctx huma.Context, next func(huma.Context)) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			err, ok := rec.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", rec)
			}
			s.recordError(ctx.Context(), err, "panic recovered", logrus.Fields{"path": ctx.URL().Path})

			if hub := sentry.GetHubFromContext(ctx.Context()); hub != nil {
				hub.RecoverWithContext(ctx.Context(), rec)
				hub.Flush(sentryFlushTimeout)
			}

			writeHTML(ctx, s.renderErrorResponse(ctx.Context(), stdhttp.StatusInternalServerError, errorFallbackMessage))
		}()

		next(ctx)
	}
}

// sentryMiddleware gives every request its own hub so tags set while serving it stay local.
func (s *Server) sentryMiddleware() middleware {
	return func(ctx huma.Context, next func(huma.Context)) {
		if s.sentry == nil {
			next(ctx)
			return
		}

		hub := s.sentry.Clone()
		scope := hub.Scope()
		if req, _ := humago.Unwrap(ctx); req != nil {
			scope.SetRequest(req)
		}
		if op := ctx.Operation(); op != nil {
			scope.SetTag("http.route", op.Path)
		}

		ctx = huma.WithContext(ctx, sentry.SetHubOnContext(ctx.Context(), hub))
		defer hub.Flush(sentryFlushTimeout)

		next(ctx)
	}
}

// writeHTML writes a rendered page from inside a middleware, bypassing the operation handler.
func writeHTML(ctx huma.Context, resp *htmlResponse) {
	ctx.SetHeader("Content-Type", resp.ContentType)
	ctx.SetHeader("Cache-Control", resp.CacheControl)
	ctx.SetStatus(resp.Status)
	_, _ = ctx.BodyWriter().Write(resp.Body)
}

// clientIPFromRequest prefers the first X-Forwarded-For hop, then X-Real-IP, then the peer.
func clientIPFromRequest(req *stdhttp.Request) string {
	if req == nil {
		return ""
	}

	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if realIP := strings.TrimSpace(req.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}
