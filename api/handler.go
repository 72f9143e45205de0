// Package handler exposes each gateway resource as a plain net/http function.
package handler

import (
	"net/http"

	"github.com/enterprise/stalwart-gateway/internal/gateway"
)

func serve(w http.ResponseWriter, r *http.Request, name string) {
	gateway.Function(name).ServeHTTP(w, r)
}
