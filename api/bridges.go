package handler

import (
	"net/http"

	"github.com/enterprise/stalwart-gateway/internal/gateway"
)

// Bridges handles /api/bridges
func Bridges(w http.ResponseWriter, r *http.Request) {
	serve(w, r, gateway.ResourceBridges)
}
