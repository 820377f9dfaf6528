package spec

import (
	"embed"
	"net/http"
)

//go:embed openapi.yaml
var files embed.FS

// OpenAPIHandler serves the embedded API description consumed by the docs
// UI. The document is read once at construction.
func OpenAPIHandler() http.HandlerFunc {
	doc, readErr := files.ReadFile("openapi.yaml")
	return func(w http.ResponseWriter, r *http.Request) {
		if readErr != nil {
			http.Error(w, "api description unavailable", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(doc)
	}
}
