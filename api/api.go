// Package api embeds the OpenAPI document for the HTTP surface.
package api

import (
	_ "embed"
	"net/http"
)

//go:embed openapi.yaml
var OpenAPI []byte

// ServeOpenAPI writes the embedded document.
func ServeOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(OpenAPI)
}
