package http

import (
	"bytes"
	_ "embed"
	stdhttp "net/http"
	"time"
)

//go:embed static/favicon.svg
var favicon []byte

// faviconHandler serves the SVG icon for both favicon paths; browsers asking for
// /favicon.ico accept the image/svg+xml response.
func faviconHandler(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	stdhttp.ServeContent(w, r, "favicon.svg", time.Time{}, bytes.NewReader(favicon))
}
