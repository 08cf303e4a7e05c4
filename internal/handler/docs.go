package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html/template"
	"net/http"
)

// ServeSpec serves the embedded OpenAPI document. The ETag is derived from
// the content, so clients revalidate and get 304 until the binary changes.
func ServeSpec(spec []byte) http.HandlerFunc {
	sum := sha256.Sum256(spec)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.Write(spec)
	}
}

// ServeDocs renders a Swagger UI page pointed at specURL.
func ServeDocs(specURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := docsPage.Execute(w, specURL); err != nil {
			http.Error(w, fmt.Sprintf("render docs: %v", err), http.StatusInternalServerError)
		}
	}
}

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="nl">
<head>
  <meta charset="UTF-8">
  <title>Kasboek API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({ url: {{.}}, dom_id: "#swagger-ui", deepLinking: true });
  </script>
</body>
</html>`))
