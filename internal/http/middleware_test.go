package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDIsAssignedAndEchoed(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, newTestRepository(t), nil)

	minted := serve(srv, "/api/tags").Header().Get(requestIDHeader)
	if _, err := uuid.Parse(minted); err != nil {
		t.Fatalf("expected a generated uuid request ID, got %q", minted)
	}

	upstream := uuid.NewString()
	cases := map[string]struct {
		header   string
		keepsOwn bool
	}{
		"well formed": {header: upstream, keepsOwn: true},
		"malformed":   {header: "not-a-uuid", keepsOwn: false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(stdhttp.MethodGet, "/api/tags", nil)
			req.Header.Set(requestIDHeader, tc.header)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)

			got := rec.Header().Get(requestIDHeader)
			if tc.keepsOwn && got != tc.header {
				t.Fatalf("expected upstream request ID %q, got %q", tc.header, got)
			}
			if !tc.keepsOwn {
				if got == tc.header {
					t.Fatalf("expected malformed request ID to be replaced")
				}
				if _, err := uuid.Parse(got); err != nil {
					t.Fatalf("expected replacement to be a uuid, got %q", got)
				}
			}
		})
	}
}

func TestClientIPFromRequest(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		headers map[string]string
		remote  string
		want    string
	}{
		"forwarded chain": {
			headers: map[string]string{"X-Forwarded-For": " 203.0.113.7 , 10.0.0.1", "X-Real-IP": "198.51.100.2"},
			remote:  "10.0.0.1:4000",
			want:    "203.0.113.7",
		},
		"real ip": {
			headers: map[string]string{"X-Real-IP": "198.51.100.2"},
			remote:  "10.0.0.1:4000",
			want:    "198.51.100.2",
		},
		"peer address":      {remote: "192.0.2.10:51234", want: "192.0.2.10"},
		"peer without port": {remote: "192.0.2.11", want: "192.0.2.11"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(stdhttp.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			for key, value := range tc.headers {
				req.Header.Set(key, value)
			}

			if got := clientIPFromRequest(req); got != tc.want {
				t.Fatalf("expected client IP %q, got %q", tc.want, got)
			}
		})
	}

	if got := clientIPFromRequest(nil); got != "" {
		t.Fatalf("expected empty IP for a nil request, got %q", got)
	}
}

func TestRequestFields(t *testing.T) {
	t.Parallel()

	ctx := withRequestMetadata(t.Context(), "req-1", "192.0.2.1")
	fields := requestFields(ctx)
	if fields["request_id"] != "req-1" || fields["client_ip"] != "192.0.2.1" {
		t.Fatalf("unexpected fields %#v", fields)
	}

	if fields := requestFields(t.Context()); len(fields) != 0 {
		t.Fatalf("expected no fields without request metadata, got %#v", fields)
	}
}
